package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/aly2302/email-assistant-llm/internal/classify"
	"github.com/aly2302/email-assistant-llm/internal/config"
	"github.com/aly2302/email-assistant-llm/internal/draft"
	"github.com/aly2302/email-assistant-llm/internal/feedback"
	"github.com/aly2302/email-assistant-llm/internal/knowledge"
	"github.com/aly2302/email-assistant-llm/internal/llm"
	"github.com/aly2302/email-assistant-llm/internal/mail"
	"github.com/aly2302/email-assistant-llm/internal/notify"
	"github.com/aly2302/email-assistant-llm/internal/pipeline"
	"github.com/aly2302/email-assistant-llm/internal/retrieval"
	"github.com/aly2302/email-assistant-llm/internal/store"
)

// services holds the long-lived collaborators shared by the commands.
type services struct {
	cfg    *config.Config
	logger *log.Logger
	store  *store.Store
	repo   *knowledge.Repository
	llm    *llm.Service
}

func newServices() (*services, error) {
	cfg := config.Load()
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "assistant",
	})

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening store at %s: %w", cfg.DBPath, err)
	}

	repo := knowledge.NewRepository(cfg.KnowledgePath, logger)
	if _, err := repo.Load(); err != nil {
		st.Close()
		return nil, fmt.Errorf("loading knowledge base: %w", err)
	}

	svc := llm.NewService(logger, llm.Config{
		APIKey:         cfg.LLMAPIKey,
		BaseURL:        cfg.LLMBaseURL,
		Model:          cfg.LLMModel,
		EmbeddingModel: cfg.LLMEmbeddingModel,
	})

	return &services{
		cfg:    cfg,
		logger: logger,
		store:  st,
		repo:   repo,
		llm:    svc,
	}, nil
}

func (s *services) Close() {
	if err := s.store.Close(); err != nil {
		s.logger.Error("closing store", "error", err)
	}
}

// newMailer builds the Gmail client from the OAuth credentials and token
// files named in the configuration.
func (s *services) newMailer(ctx context.Context) (*mail.GmailClient, error) {
	credentials, err := os.ReadFile(s.cfg.GoogleCredentialsPath)
	if err != nil {
		return nil, fmt.Errorf("reading Google credentials: %w", err)
	}

	oauthConfig, err := google.ConfigFromJSON(credentials, gmailapi.GmailModifyScope)
	if err != nil {
		return nil, fmt.Errorf("parsing Google credentials: %w", err)
	}

	tokenData, err := os.ReadFile(s.cfg.GoogleTokenPath)
	if err != nil {
		return nil, fmt.Errorf("reading OAuth token (run the Google OAuth flow first): %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(tokenData, &token); err != nil {
		return nil, fmt.Errorf("parsing OAuth token: %w", err)
	}

	return mail.NewGmailClient(ctx, oauthConfig.TokenSource(ctx, &token), s.logger)
}

func (s *services) newNotifier() notify.Notifier {
	return notify.NewPushoverNotifier(notify.PushoverConfig{
		Token:   s.cfg.PushoverToken,
		UserKey: s.cfg.PushoverUserKey,
		BaseURL: s.cfg.BaseURL,
	}, s.logger)
}

func (s *services) newPipeline(mailer mail.Mailer) *pipeline.Pipeline {
	return pipeline.New(pipeline.Deps{
		Repo:       s.repo,
		Mailer:     mailer,
		LLM:        s.llm,
		Classifier: classify.NewClassifier(s.llm, s.logger),
		Engine:     retrieval.NewEngine(s.logger, retrieval.Config{}),
		Generator:  draft.NewGenerator(s.llm, s.logger),
		Components: draft.NewComponentResolver(),
		Store:      s.store,
		Notifier:   s.newNotifier(),
		Logger:     s.logger,
	}, pipeline.Config{
		DefaultPersona:  s.cfg.DefaultPersona,
		InformalPersona: s.cfg.InformalPersona,
	})
}

func (s *services) newRecorder() *feedback.Recorder {
	return feedback.NewRecorder(s.repo, s.llm, s.logger)
}
