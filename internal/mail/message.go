// Package mail holds the thread/message model, sender identification, body
// extraction, and the Gmail-backed Mailer used by the drafting pipeline.
package mail

import (
	"context"
	"strings"
)

// Header is a single RFC 5322 header of a fetched message.
type Header struct {
	Name  string
	Value string
}

// Message is one message of an email thread, body already extracted to
// plain text.
type Message struct {
	ID       string
	ThreadID string
	Headers  []Header
	Body     string
	LabelIDs []string
}

// Header returns the value of the named header, case-insensitively.
// Missing headers return "".
func (m *Message) Header(name string) string {
	for _, h := range m.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// HasLabel reports whether the message carries the given Gmail label ID.
func (m *Message) HasLabel(label string) bool {
	for _, l := range m.LabelIDs {
		if l == label {
			return true
		}
	}
	return false
}

// Thread is an ordered email thread, oldest message first.
type Thread struct {
	ID       string
	Messages []*Message
}

// LastMessage returns the newest message of the thread, or nil when the
// thread is empty.
func (t *Thread) LastMessage() *Message {
	if len(t.Messages) == 0 {
		return nil
	}
	return t.Messages[len(t.Messages)-1]
}

// OutgoingMessage describes a reply to be sent. InReplyTo and References
// carry the RFC 5322 threading headers of the message being answered.
type OutgoingMessage struct {
	Recipient  string
	Subject    string
	Body       string
	ThreadID   string
	InReplyTo  string
	References string
}

// Mailer is the transport surface the pipeline depends on. The production
// implementation talks to the Gmail API; tests substitute fakes.
type Mailer interface {
	// GetThread fetches a full thread by ID.
	GetThread(ctx context.Context, threadID string) (*Thread, error)

	// Send delivers an outgoing reply, preserving threading.
	Send(ctx context.Context, msg OutgoingMessage) error
}

// ThreadLister resolves the recent inbox threads a scan task should
// process.
type ThreadLister interface {
	ListRecentThreads(ctx context.Context, maxResults int64) ([]string, error)
}
