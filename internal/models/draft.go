package models

import (
	"time"
)

// DraftStatus is the lifecycle state of a pending draft. A draft transitions
// exactly once, pending -> approved or pending -> rejected.
type DraftStatus string

const (
	DraftPending  DraftStatus = "pending"
	DraftApproved DraftStatus = "approved"
	DraftRejected DraftStatus = "rejected"
)

// PendingDraft is a generated reply awaiting human decision.
type PendingDraft struct {
	ID        string      `json:"id"`
	ThreadID  string      `json:"thread_id"`
	Recipient string      `json:"recipient"`
	Subject   string      `json:"subject"`
	Body      string      `json:"body"`
	Status    DraftStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`

	// ID of the message being replied to, required for correct threading
	OriginalMessageID string `json:"original_message_id"`
}
