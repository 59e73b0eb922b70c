// Package server exposes the HTTP surface: the Gmail push webhook, draft
// approval links, and the JSON API for drafting, feedback, personas, and
// the dashboard.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/aly2302/email-assistant-llm/internal/feedback"
	"github.com/aly2302/email-assistant-llm/internal/knowledge"
	"github.com/aly2302/email-assistant-llm/internal/mail"
	"github.com/aly2302/email-assistant-llm/internal/models"
	"github.com/aly2302/email-assistant-llm/internal/pipeline"
	"github.com/aly2302/email-assistant-llm/internal/queue"
	"github.com/aly2302/email-assistant-llm/internal/store"
)

// ScanEnqueuer hands webhook-triggered work to the task queue.
// *queue.Publisher is the production implementation.
type ScanEnqueuer interface {
	EnqueueScan(account string) error
}

var _ ScanEnqueuer = (*queue.Publisher)(nil)

// Server wires the HTTP routes to the drafting services.
type Server struct {
	pipeline  *pipeline.Pipeline
	recorder  *feedback.Recorder
	repo      *knowledge.Repository
	store     *store.Store
	publisher ScanEnqueuer
	logger    *log.Logger
}

// New builds the Server.
func New(p *pipeline.Pipeline, recorder *feedback.Recorder, repo *knowledge.Repository, st *store.Store, publisher ScanEnqueuer, logger *log.Logger) *Server {
	return &Server{
		pipeline:  p,
		recorder:  recorder,
		repo:      repo,
		store:     st,
		publisher: publisher,
		logger:    logger,
	}
}

// Router assembles the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Post("/webhook/gmail", s.handleWebhook)
	r.Get("/approve/{draftID}", s.handleApprove)
	r.Get("/reject/{draftID}", s.handleReject)

	r.Route("/api", func(r chi.Router) {
		r.Post("/draft", s.handleDraft)
		r.Post("/feedback", s.handleFeedback)
		r.Get("/dashboard", s.handleDashboard)
		r.Put("/drafts/{draftID}/body", s.handleUpdateBody)

		r.Get("/personas", s.handleListPersonas)
		r.Post("/personas", s.handleCreatePersona)
		r.Get("/personas/{key}", s.handleGetPersona)
		r.Put("/personas/{key}", s.handlePutPersona)
		r.Delete("/personas/{key}", s.handleDeletePersona)
	})

	return r
}

// handleWebhook acknowledges the Gmail push and enqueues a scan task. All
// Gmail and LLM work happens in the worker; the webhook must return fast.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Errorf("reading webhook body: %w", err))
		return
	}

	notification, err := mail.DecodePushNotification(body)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.publisher.EnqueueScan(notification.EmailAddress); err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}

	s.logger.Info("webhook accepted", "account", notification.EmailAddress)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	draftID := chi.URLParam(r, "draftID")

	draft, err := s.pipeline.ApproveDraft(r.Context(), draftID)
	if err != nil {
		s.respondDecisionError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "Draft approved and sent to %s.\n", draft.Recipient)
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	draftID := chi.URLParam(r, "draftID")

	if _, err := s.pipeline.RejectDraft(r.Context(), draftID); err != nil {
		s.respondDecisionError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "Draft rejected.")
}

func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	var req pipeline.DraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Errorf("decoding draft request: %w", err))
		return
	}

	result, err := s.pipeline.DraftReply(r.Context(), req)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var sub feedback.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Errorf("decoding feedback: %w", err))
		return
	}

	correction, err := s.recorder.Submit(r.Context(), sub)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, correction)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.DraftStats(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	pending, err := s.store.PendingDrafts(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"stats":   stats,
		"pending": pending,
	})
}

func (s *Server) handleUpdateBody(w http.ResponseWriter, r *http.Request) {
	draftID := chi.URLParam(r, "draftID")

	var req struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Errorf("decoding body update: %w", err))
		return
	}

	if err := s.store.UpdateBody(r.Context(), draftID, req.Body); err != nil {
		s.respondDecisionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListPersonas(w http.ResponseWriter, _ *http.Request) {
	keys, err := s.repo.PersonaKeys()
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string][]string{"personas": keys})
}

type personaPayload struct {
	Key     string          `json:"key"`
	Persona *models.Persona `json:"persona"`
}

func (s *Server) handleCreatePersona(w http.ResponseWriter, r *http.Request) {
	var payload personaPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Errorf("decoding persona: %w", err))
		return
	}
	if payload.Persona == nil {
		s.respondError(w, http.StatusBadRequest, fmt.Errorf("persona is required"))
		return
	}

	if err := s.repo.UpsertPersona(payload.Key, payload.Persona); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]string{"key": payload.Key})
}

func (s *Server) handleGetPersona(w http.ResponseWriter, r *http.Request) {
	persona, err := s.repo.Persona(chi.URLParam(r, "key"))
	if err != nil {
		s.respondError(w, http.StatusNotFound, err)
		return
	}
	s.respondJSON(w, http.StatusOK, persona)
}

func (s *Server) handlePutPersona(w http.ResponseWriter, r *http.Request) {
	var persona models.Persona
	if err := json.NewDecoder(r.Body).Decode(&persona); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Errorf("decoding persona: %w", err))
		return
	}

	if err := s.repo.UpsertPersona(chi.URLParam(r, "key"), &persona); err != nil {
		s.respondError(w, http.StatusBadRequest, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeletePersona(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeletePersona(chi.URLParam(r, "key")); err != nil {
		s.respondError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// respondDecisionError maps draft decision failures onto meaningful
// statuses: a lost race is a conflict, a missing draft is a 404.
func (s *Server) respondDecisionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrAlreadyDecided):
		s.respondError(w, http.StatusConflict, err)
	case errors.Is(err, store.ErrNotFound):
		s.respondError(w, http.StatusNotFound, err)
	default:
		s.respondError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response failed", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.respondJSON(w, status, map[string]string{"error": err.Error()})
}
