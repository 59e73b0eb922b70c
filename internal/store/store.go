// Package store persists pending drafts, the processed-thread dedup set,
// and user credentials in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/aly2302/email-assistant-llm/internal/models"
)

// ErrNotFound is returned when a draft or credential row does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyDecided is returned when a status transition loses the race:
// the draft was already approved or rejected.
var ErrAlreadyDecided = errors.New("draft already decided")

const schema = `
CREATE TABLE IF NOT EXISTS pending_drafts (
	id                  TEXT PRIMARY KEY,
	thread_id           TEXT NOT NULL,
	recipient           TEXT NOT NULL,
	subject             TEXT NOT NULL,
	body                TEXT NOT NULL,
	status              TEXT NOT NULL DEFAULT 'pending',
	created_at          TIMESTAMP NOT NULL,
	original_message_id TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS processed_threads (
	thread_id    TEXT PRIMARY KEY,
	processed_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS user_credentials (
	user_email       TEXT PRIMARY KEY,
	credentials_json TEXT NOT NULL,
	updated_at       TIMESTAMP NOT NULL
);
`

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path, enables WAL mode, and
// applies the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateDraft inserts a new pending draft and returns its generated ID.
func (s *Store) CreateDraft(ctx context.Context, draft models.PendingDraft) (string, error) {
	if draft.ID == "" {
		draft.ID = uuid.NewString()
	}
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = time.Now().UTC()
	}
	draft.Status = models.DraftPending

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pending_drafts (id, thread_id, recipient, subject, body, status, created_at, original_message_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		draft.ID, draft.ThreadID, draft.Recipient, draft.Subject, draft.Body,
		draft.Status, draft.CreatedAt, draft.OriginalMessageID)
	if err != nil {
		return "", fmt.Errorf("inserting draft: %w", err)
	}
	return draft.ID, nil
}

// Draft fetches one draft by ID.
func (s *Store) Draft(ctx context.Context, id string) (models.PendingDraft, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, thread_id, recipient, subject, body, status, created_at, original_message_id
		FROM pending_drafts WHERE id = ?`, id)
	return scanDraft(row)
}

// PendingDrafts lists drafts still awaiting a decision, newest first.
func (s *Store) PendingDrafts(ctx context.Context) ([]models.PendingDraft, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, thread_id, recipient, subject, body, status, created_at, original_message_id
		FROM pending_drafts WHERE status = ? ORDER BY created_at DESC`, models.DraftPending)
	if err != nil {
		return nil, fmt.Errorf("listing pending drafts: %w", err)
	}
	defer rows.Close()

	var drafts []models.PendingDraft
	for rows.Next() {
		draft, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, draft)
	}
	return drafts, rows.Err()
}

// ClaimDraft transitions a pending draft to the given terminal status.
// The WHERE clause on the current status makes the transition exactly-once:
// the loser of a concurrent approve/reject race gets ErrAlreadyDecided.
func (s *Store) ClaimDraft(ctx context.Context, id string, status models.DraftStatus) (models.PendingDraft, error) {
	if status != models.DraftApproved && status != models.DraftRejected {
		return models.PendingDraft{}, fmt.Errorf("invalid target status %q", status)
	}

	draft, err := s.Draft(ctx, id)
	if err != nil {
		return models.PendingDraft{}, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE pending_drafts SET status = ? WHERE id = ? AND status = ?`,
		status, id, models.DraftPending)
	if err != nil {
		return models.PendingDraft{}, fmt.Errorf("updating draft status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return models.PendingDraft{}, fmt.Errorf("checking status update: %w", err)
	}
	if affected == 0 {
		return models.PendingDraft{}, ErrAlreadyDecided
	}

	draft.Status = status
	return draft, nil
}

// UpdateBody replaces the body of a still-pending draft.
func (s *Store) UpdateBody(ctx context.Context, id, body string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE pending_drafts SET body = ? WHERE id = ? AND status = ?`,
		body, id, models.DraftPending)
	if err != nil {
		return fmt.Errorf("updating draft body: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking body update: %w", err)
	}
	if affected == 0 {
		return ErrAlreadyDecided
	}
	return nil
}

// Stats summarizes draft counts for the dashboard.
type Stats struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Total    int `json:"total"`
}

// DraftStats counts drafts per status.
func (s *Store) DraftStats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM pending_drafts GROUP BY status`)
	if err != nil {
		return Stats{}, fmt.Errorf("counting drafts: %w", err)
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, fmt.Errorf("scanning draft counts: %w", err)
		}
		switch models.DraftStatus(status) {
		case models.DraftPending:
			stats.Pending = count
		case models.DraftApproved:
			stats.Approved = count
		case models.DraftRejected:
			stats.Rejected = count
		}
		stats.Total += count
	}
	return stats, rows.Err()
}

// IsProcessed reports whether the thread was already picked up.
func (s *Store) IsProcessed(ctx context.Context, threadID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM processed_threads WHERE thread_id = ?`, threadID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking processed thread: %w", err)
	}
	return true, nil
}

// MarkProcessed records the thread as picked up. Marking an
// already-processed thread is a no-op.
func (s *Store) MarkProcessed(ctx context.Context, threadID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO processed_threads (thread_id, processed_at) VALUES (?, ?)
		ON CONFLICT(thread_id) DO NOTHING`,
		threadID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("marking thread processed: %w", err)
	}
	return nil
}

// SaveCredentials upserts the OAuth credential blob for a user.
func (s *Store) SaveCredentials(ctx context.Context, userEmail, credentialsJSON string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_credentials (user_email, credentials_json, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_email) DO UPDATE SET
			credentials_json = excluded.credentials_json,
			updated_at = excluded.updated_at`,
		userEmail, credentialsJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}
	return nil
}

// Credentials fetches the stored OAuth credential blob for a user.
func (s *Store) Credentials(ctx context.Context, userEmail string) (string, error) {
	var blob string
	err := s.db.QueryRowContext(ctx,
		`SELECT credentials_json FROM user_credentials WHERE user_email = ?`, userEmail).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("loading credentials: %w", err)
	}
	return blob, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDraft(row rowScanner) (models.PendingDraft, error) {
	var draft models.PendingDraft
	var status string
	err := row.Scan(&draft.ID, &draft.ThreadID, &draft.Recipient, &draft.Subject,
		&draft.Body, &status, &draft.CreatedAt, &draft.OriginalMessageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.PendingDraft{}, ErrNotFound
	}
	if err != nil {
		return models.PendingDraft{}, fmt.Errorf("scanning draft: %w", err)
	}
	draft.Status = models.DraftStatus(status)
	return draft, nil
}
