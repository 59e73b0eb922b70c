package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestNotifyDraftPostsForm(t *testing.T) {
	var form url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Error(err)
		}
		form = r.PostForm
		w.Write([]byte(`{"status":1}`))
	}))
	defer server.Close()

	n := NewPushoverNotifier(PushoverConfig{
		Token:   "tok",
		UserKey: "usr",
		BaseURL: "https://assistant.example.com",
	}, nil)
	n.endpoint = server.URL

	err := n.NotifyDraft(context.Background(), "d1", DraftNotification{
		Subject:         "Orçamento",
		OriginalSummary: "Pedido de orçamento para março.",
		Preview:         "Bom dia, segue o orçamento.",
	})
	if err != nil {
		t.Fatalf("NotifyDraft() error = %v", err)
	}

	if got := form.Get("token"); got != "tok" {
		t.Errorf("token = %q", got)
	}
	if got := form.Get("title"); got != "Draft ready: Orçamento" {
		t.Errorf("title = %q", got)
	}
	message := form.Get("message")
	if !strings.Contains(message, "Pedido de orçamento") || !strings.Contains(message, "segue o orçamento") {
		t.Errorf("message = %q", message)
	}
	actions := form.Get("actions")
	if !strings.Contains(actions, "https://assistant.example.com/approve/d1") ||
		!strings.Contains(actions, "https://assistant.example.com/reject/d1") {
		t.Errorf("actions = %q", actions)
	}
}

func TestNotifyDraftSkipsWhenUnconfigured(t *testing.T) {
	n := NewPushoverNotifier(PushoverConfig{}, nil)
	n.endpoint = "http://127.0.0.1:1" // must not be reached

	if err := n.NotifyDraft(context.Background(), "d1", DraftNotification{}); err != nil {
		t.Errorf("NotifyDraft(unconfigured) error = %v, want nil", err)
	}
}

func TestNotifyDraftServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad token", http.StatusBadRequest)
	}))
	defer server.Close()

	n := NewPushoverNotifier(PushoverConfig{Token: "tok", UserKey: "usr"}, nil)
	n.endpoint = server.URL

	if err := n.NotifyDraft(context.Background(), "d1", DraftNotification{}); err == nil {
		t.Error("NotifyDraft() expected error on 400 response")
	}
}
