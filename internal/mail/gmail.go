package mail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// LabelSent is the Gmail system label carried by outgoing messages.
const LabelSent = "SENT"

// GmailClient implements Mailer on top of the Gmail API. OAuth is handled
// by the caller; the client only needs a valid token source.
type GmailClient struct {
	svc    *gmail.Service
	logger *log.Logger
	userID string
}

var _ Mailer = (*GmailClient)(nil)

// NewGmailClient builds a Mailer for the authenticated user.
func NewGmailClient(ctx context.Context, ts oauth2.TokenSource, logger *log.Logger) (*GmailClient, error) {
	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("creating gmail service: %w", err)
	}
	return &GmailClient{svc: svc, logger: logger, userID: "me"}, nil
}

// GetThread implements Mailer.
func (c *GmailClient) GetThread(ctx context.Context, threadID string) (*Thread, error) {
	raw, err := c.svc.Users.Threads.Get(c.userID, threadID).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetching thread %s: %w", threadID, err)
	}

	thread := &Thread{ID: raw.Id}
	for _, msg := range raw.Messages {
		converted := &Message{
			ID:       msg.Id,
			ThreadID: raw.Id,
			LabelIDs: msg.LabelIds,
			Body:     ExtractBody(msg.Payload),
		}
		if msg.Payload != nil {
			for _, h := range msg.Payload.Headers {
				converted.Headers = append(converted.Headers, Header{Name: h.Name, Value: h.Value})
			}
		}
		thread.Messages = append(thread.Messages, converted)
	}
	return thread, nil
}

// ListRecentThreads implements ThreadLister, returning the IDs of unread
// inbox threads, newest first.
func (c *GmailClient) ListRecentThreads(ctx context.Context, maxResults int64) ([]string, error) {
	list, err := c.svc.Users.Threads.List(c.userID).
		Q("in:inbox is:unread").MaxResults(maxResults).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("listing inbox threads: %w", err)
	}

	ids := make([]string, 0, len(list.Threads))
	for _, t := range list.Threads {
		ids = append(ids, t.Id)
	}
	return ids, nil
}

// Send implements Mailer. Replies keep Gmail threading by carrying the
// thread ID plus In-Reply-To/References headers.
func (c *GmailClient) Send(ctx context.Context, msg OutgoingMessage) error {
	raw := buildRFC822(msg)

	_, err := c.svc.Users.Messages.Send(c.userID, &gmail.Message{
		Raw:      base64.URLEncoding.EncodeToString([]byte(raw)),
		ThreadId: msg.ThreadID,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sending reply to %s: %w", msg.Recipient, err)
	}

	c.logger.Info("reply sent", "recipient", msg.Recipient, "thread_id", msg.ThreadID)
	return nil
}

// buildRFC822 assembles the raw message the Gmail API expects.
func buildRFC822(msg OutgoingMessage) string {
	subject := msg.Subject
	if msg.ThreadID != "" && !strings.HasPrefix(strings.ToLower(subject), "re:") {
		subject = "Re: " + subject
	}

	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", msg.Recipient)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	if msg.InReplyTo != "" {
		fmt.Fprintf(&b, "In-Reply-To: %s\r\n", msg.InReplyTo)
		if msg.References != "" {
			fmt.Fprintf(&b, "References: %s %s\r\n", msg.References, msg.InReplyTo)
		} else {
			fmt.Fprintf(&b, "References: %s\r\n", msg.InReplyTo)
		}
	}
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return b.String()
}
