// Package notify informs the user that a draft awaits review. The
// production implementation posts to Pushover with approve/reject action
// links.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-resty/resty/v2"
)

const pushoverEndpoint = "https://api.pushover.net/1/messages.json"

// DraftNotification carries what the user sees before opening the draft.
type DraftNotification struct {
	Subject         string
	OriginalSummary string
	Preview         string
}

// Notifier announces a newly generated draft.
type Notifier interface {
	NotifyDraft(ctx context.Context, draftID string, n DraftNotification) error
}

// PushoverConfig configures the Pushover notifier.
type PushoverConfig struct {
	Token   string
	UserKey string

	// BaseURL of the assistant HTTP server, used to build the
	// approve/reject links
	BaseURL string
}

// PushoverNotifier implements Notifier against the Pushover API. An
// unconfigured notifier logs and skips instead of failing the pipeline.
type PushoverNotifier struct {
	client   *resty.Client
	cfg      PushoverConfig
	endpoint string
	logger   *log.Logger
}

var _ Notifier = (*PushoverNotifier)(nil)

// NewPushoverNotifier builds the notifier.
func NewPushoverNotifier(cfg PushoverConfig, logger *log.Logger) *PushoverNotifier {
	return &PushoverNotifier{
		client:   resty.New(),
		cfg:      cfg,
		endpoint: pushoverEndpoint,
		logger:   logger,
	}
}

// NotifyDraft implements Notifier.
func (p *PushoverNotifier) NotifyDraft(ctx context.Context, draftID string, n DraftNotification) error {
	if p.cfg.Token == "" || p.cfg.UserKey == "" {
		if p.logger != nil {
			p.logger.Warn("pushover not configured, skipping notification", "draft_id", draftID)
		}
		return nil
	}

	actions, err := json.Marshal([]map[string]string{
		{"label": "Approve & Send", "url": fmt.Sprintf("%s/approve/%s", p.cfg.BaseURL, draftID)},
		{"label": "Reject", "url": fmt.Sprintf("%s/reject/%s", p.cfg.BaseURL, draftID)},
	})
	if err != nil {
		return fmt.Errorf("encoding notification actions: %w", err)
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"token":   p.cfg.Token,
			"user":    p.cfg.UserKey,
			"title":   "Draft ready: " + n.Subject,
			"message": buildMessage(n),
			"actions": string(actions),
		}).
		Post(p.endpoint)
	if err != nil {
		return fmt.Errorf("posting pushover notification: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("pushover returned %s: %s", resp.Status(), resp.String())
	}

	if p.logger != nil {
		p.logger.Info("draft notification sent", "draft_id", draftID)
	}
	return nil
}

func buildMessage(n DraftNotification) string {
	var parts []string
	if n.OriginalSummary != "" {
		parts = append(parts, "Received: "+n.OriginalSummary)
	}
	if n.Preview != "" {
		preview := n.Preview
		if len(preview) > 300 {
			preview = preview[:300] + "..."
		}
		parts = append(parts, "Draft: "+preview)
	}
	if len(parts) == 0 {
		parts = append(parts, "A new draft is ready for review.")
	}
	return strings.Join(parts, "\n\n")
}
