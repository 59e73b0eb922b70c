package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/aly2302/email-assistant-llm/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "assistant.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testDraft() models.PendingDraft {
	return models.PendingDraft{
		ThreadID:          "t1",
		Recipient:         "maria@example.com",
		Subject:           "Orçamento",
		Body:              "Bom dia,\n\nSegue o orçamento.",
		OriginalMessageID: "<m1@example.com>",
	}
}

func TestCreateAndFetchDraft(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.CreateDraft(ctx, testDraft())
	if err != nil {
		t.Fatalf("CreateDraft() error = %v", err)
	}
	if id == "" {
		t.Fatal("CreateDraft() returned empty ID")
	}

	draft, err := s.Draft(ctx, id)
	if err != nil {
		t.Fatalf("Draft() error = %v", err)
	}
	if draft.Status != models.DraftPending {
		t.Errorf("Status = %q, want %q", draft.Status, models.DraftPending)
	}
	if draft.Recipient != "maria@example.com" || draft.OriginalMessageID != "<m1@example.com>" {
		t.Errorf("Draft() = %+v", draft)
	}
	if draft.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	if _, err := s.Draft(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Draft(nope) error = %v, want ErrNotFound", err)
	}
}

func TestClaimDraftExactlyOnce(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.CreateDraft(ctx, testDraft())
	if err != nil {
		t.Fatal(err)
	}

	claimed, err := s.ClaimDraft(ctx, id, models.DraftApproved)
	if err != nil {
		t.Fatalf("ClaimDraft() error = %v", err)
	}
	if claimed.Status != models.DraftApproved {
		t.Errorf("Status = %q", claimed.Status)
	}

	// Second decision loses, whichever direction it goes.
	if _, err := s.ClaimDraft(ctx, id, models.DraftRejected); !errors.Is(err, ErrAlreadyDecided) {
		t.Errorf("second ClaimDraft() error = %v, want ErrAlreadyDecided", err)
	}
	if _, err := s.ClaimDraft(ctx, id, models.DraftApproved); !errors.Is(err, ErrAlreadyDecided) {
		t.Errorf("repeated ClaimDraft() error = %v, want ErrAlreadyDecided", err)
	}

	if _, err := s.ClaimDraft(ctx, id, models.DraftPending); err == nil {
		t.Error("ClaimDraft(pending) should reject non-terminal status")
	}
}

func TestUpdateBody(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.CreateDraft(ctx, testDraft())
	if err != nil {
		t.Fatal(err)
	}

	if err := s.UpdateBody(ctx, id, "texto editado"); err != nil {
		t.Fatalf("UpdateBody() error = %v", err)
	}
	draft, _ := s.Draft(ctx, id)
	if draft.Body != "texto editado" {
		t.Errorf("Body = %q", draft.Body)
	}

	// Decided drafts are immutable.
	if _, err := s.ClaimDraft(ctx, id, models.DraftRejected); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateBody(ctx, id, "tarde demais"); !errors.Is(err, ErrAlreadyDecided) {
		t.Errorf("UpdateBody(decided) error = %v, want ErrAlreadyDecided", err)
	}
}

func TestPendingDraftsAndStats(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := s.CreateDraft(ctx, testDraft())
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}
	if _, err := s.ClaimDraft(ctx, ids[0], models.DraftApproved); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ClaimDraft(ctx, ids[1], models.DraftRejected); err != nil {
		t.Fatal(err)
	}

	pending, err := s.PendingDrafts(ctx)
	if err != nil {
		t.Fatalf("PendingDrafts() error = %v", err)
	}
	if len(pending) != 1 || pending[0].ID != ids[2] {
		t.Errorf("PendingDrafts() = %+v", pending)
	}

	stats, err := s.DraftStats(ctx)
	if err != nil {
		t.Fatalf("DraftStats() error = %v", err)
	}
	want := Stats{Pending: 1, Approved: 1, Rejected: 1, Total: 3}
	if stats != want {
		t.Errorf("DraftStats() = %+v, want %+v", stats, want)
	}
}

func TestProcessedThreads(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	done, err := s.IsProcessed(ctx, "t1")
	if err != nil || done {
		t.Fatalf("IsProcessed(new) = %v, %v", done, err)
	}

	if err := s.MarkProcessed(ctx, "t1"); err != nil {
		t.Fatalf("MarkProcessed() error = %v", err)
	}
	done, err = s.IsProcessed(ctx, "t1")
	if err != nil || !done {
		t.Fatalf("IsProcessed(marked) = %v, %v", done, err)
	}

	// Duplicate webhook delivery marks again without error.
	if err := s.MarkProcessed(ctx, "t1"); err != nil {
		t.Errorf("MarkProcessed(duplicate) error = %v", err)
	}
}

func TestCredentials(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if _, err := s.Credentials(ctx, "me@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Credentials(missing) error = %v, want ErrNotFound", err)
	}

	if err := s.SaveCredentials(ctx, "me@example.com", `{"token":"a"}`); err != nil {
		t.Fatalf("SaveCredentials() error = %v", err)
	}
	if err := s.SaveCredentials(ctx, "me@example.com", `{"token":"b"}`); err != nil {
		t.Fatalf("SaveCredentials(update) error = %v", err)
	}

	blob, err := s.Credentials(ctx, "me@example.com")
	if err != nil {
		t.Fatalf("Credentials() error = %v", err)
	}
	if blob != `{"token":"b"}` {
		t.Errorf("Credentials() = %q", blob)
	}
}
