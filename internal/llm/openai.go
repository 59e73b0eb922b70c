package llm

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
)

// Config configures the OpenAI-compatible generation service.
type Config struct {
	// APIKey authenticates against the provider. Required.
	APIKey string

	// BaseURL points at any OpenAI-compatible endpoint.
	BaseURL string

	// Model used for text generation (default: "gpt-4.1-mini")
	Model string

	// EmbeddingModel used for fact/email embeddings
	// (default: "text-embedding-3-small")
	EmbeddingModel string

	// Timeout bounds every call (default: 180s)
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults. APIKey must still
// be provided by the caller.
func DefaultConfig() Config {
	return Config{
		Model:          "gpt-4.1-mini",
		EmbeddingModel: "text-embedding-3-small",
		Timeout:        180 * time.Second,
	}
}

// Service is the OpenAI-compatible implementation of Client.
type Service struct {
	client         *openai.Client
	logger         *log.Logger
	apiKey         string
	model          string
	embeddingModel string
	timeout        time.Duration
}

var _ Client = (*Service)(nil)

// NewService creates a generation service against an OpenAI-compatible API.
func NewService(logger *log.Logger, cfg Config) *Service {
	defaults := DefaultConfig()
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = defaults.EmbeddingModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)

	return &Service{
		client:         &client,
		logger:         logger,
		apiKey:         cfg.APIKey,
		model:          cfg.Model,
		embeddingModel: cfg.EmbeddingModel,
		timeout:        cfg.Timeout,
	}
}

// Generate implements Client. Every expected failure mode comes back as a
// tagged *Error so the caller can decide whether to abort or degrade.
func (s *Service) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	if s.apiKey == "" {
		return "", NewError(ErrConfig, "generation API key is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	completion, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model:       openai.ChatModel(s.model),
		Temperature: param.Opt[float64]{Value: temperature},
	})
	if err != nil {
		return "", s.classifyCallError(err)
	}

	if len(completion.Choices) == 0 {
		return "", NewError(ErrParse, "response carried no completion choices")
	}

	choice := completion.Choices[0]
	if choice.FinishReason == "content_filter" {
		return "", NewError(ErrBlocked, "generation stopped by content filter")
	}
	if choice.Message.Content == "" {
		return "", NewError(ErrParse, "response carried no generated text")
	}

	return choice.Message.Content, nil
}

// Embed implements Client.
func (s *Service) Embed(ctx context.Context, input string) ([]float64, error) {
	if s.apiKey == "" {
		return nil, NewError(ErrConfig, "generation API key is not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	embedding, err := s.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(s.embeddingModel),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: param.Opt[string]{Value: input},
		},
	})
	if err != nil {
		return nil, s.classifyCallError(err)
	}
	if len(embedding.Data) == 0 {
		return nil, NewError(ErrParse, "embedding response carried no data")
	}
	return embedding.Data[0].Embedding, nil
}

// classifyCallError maps provider/transport errors onto the taxonomy.
func (s *Service) classifyCallError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return WrapError(ErrTimeout, "call exceeded deadline", err)
	}

	var apierr *openai.Error
	if errors.As(err, &apierr) {
		if apierr.StatusCode == 400 && apierr.Code == "content_filter" {
			return WrapError(ErrBlocked, "prompt blocked by provider", err)
		}
		return WrapError(ErrTransport, "provider returned an error status", err)
	}

	return WrapError(ErrTransport, "request failed", err)
}
