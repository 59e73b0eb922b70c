// Package feedback turns human corrections of generated drafts into
// persisted learned rules.
package feedback

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/aly2302/email-assistant-llm/internal/knowledge"
	"github.com/aly2302/email-assistant-llm/internal/llm"
	"github.com/aly2302/email-assistant-llm/internal/models"
)

const inferTemperature = 0.3

// Submission is one correction event reported by the user.
type Submission struct {
	PersonaKey      string                 `json:"persona_key"`
	OriginalEmail   string                 `json:"original_email_text"`
	AIOriginal      string                 `json:"ai_original_response_text"`
	UserCorrected   string                 `json:"user_corrected_output_text"`
	UserExplanation string                 `json:"user_explanation_text,omitempty"`
	Classification  *models.Classification `json:"classification,omitempty"`
}

// Recorder infers a reusable rule from a correction and appends it to the
// persona's learned knowledge.
type Recorder struct {
	repo   *knowledge.Repository
	llm    llm.Client
	logger *log.Logger
}

// NewRecorder builds a Recorder.
func NewRecorder(repo *knowledge.Repository, client llm.Client, logger *log.Logger) *Recorder {
	return &Recorder{repo: repo, llm: client, logger: logger}
}

// Submit infers a rule from the correction and persists the learned entry.
// Rule inference degrades to a literal fallback on failure; persisting the
// entry is the part that may fail the call.
func (r *Recorder) Submit(ctx context.Context, sub Submission) (models.LearnedCorrection, error) {
	if strings.TrimSpace(sub.PersonaKey) == "" {
		return models.LearnedCorrection{}, fmt.Errorf("persona key is required")
	}
	if strings.TrimSpace(sub.UserCorrected) == "" {
		return models.LearnedCorrection{}, fmt.Errorf("corrected text is required")
	}

	correction := models.LearnedCorrection{
		Timestamp:       time.Now().UTC(),
		InferredRule:    r.inferRule(ctx, sub),
		AIOriginal:      sub.AIOriginal,
		UserCorrected:   sub.UserCorrected,
		UserExplanation: sub.UserExplanation,
		Context: models.InteractionContext{
			OriginalEmail:  sub.OriginalEmail,
			PersonaKey:     sub.PersonaKey,
			Classification: sub.Classification,
		},
	}

	if err := r.repo.AppendLearned(sub.PersonaKey, correction); err != nil {
		return models.LearnedCorrection{}, err
	}
	return correction, nil
}

type inferResponse struct {
	InferredRule string `json:"inferred_rule"`
}

// inferRule asks the model for one concise imperative rule. Any failure
// falls back to a literal rule built from the user's explanation, so the
// correction is never lost.
func (r *Recorder) inferRule(ctx context.Context, sub Submission) string {
	prompt := buildInferencePrompt(sub)

	raw, err := r.llm.Generate(ctx, prompt, inferTemperature)
	if err != nil {
		r.warn("rule inference call failed", err)
		return fallbackRule(sub)
	}

	var resp inferResponse
	if err := llm.DecodeObject(raw, &resp); err != nil {
		r.warn("rule inference response unparseable", err)
		return fallbackRule(sub)
	}

	rule := strings.TrimSpace(resp.InferredRule)
	if rule == "" {
		return fallbackRule(sub)
	}
	return rule
}

func buildInferencePrompt(sub Submission) string {
	var b strings.Builder
	b.WriteString("A user corrected an email reply written by an assistant. ")
	b.WriteString("Infer ONE concise, reusable, imperative rule the assistant should follow in similar situations.\n")
	b.WriteString("Examples of good rules: \"Never promise exact deadlines.\", \"Always greet professors with 'Caro Professor'.\", \"Keep replies under three paragraphs.\"\n")
	b.WriteString("Respond with a single JSON object: {\"inferred_rule\": \"...\"}. No prose, no code fences.\n\n")

	fmt.Fprintf(&b, "Original email:\n\"\"\"\n%s\n\"\"\"\n\n", sub.OriginalEmail)
	fmt.Fprintf(&b, "Assistant's reply:\n\"\"\"\n%s\n\"\"\"\n\n", sub.AIOriginal)
	fmt.Fprintf(&b, "User's corrected reply:\n\"\"\"\n%s\n\"\"\"\n", sub.UserCorrected)
	if sub.UserExplanation != "" {
		fmt.Fprintf(&b, "\nUser's explanation: %s\n", sub.UserExplanation)
	}
	return b.String()
}

// fallbackRule keeps the correction usable even when inference failed.
func fallbackRule(sub Submission) string {
	if explanation := strings.TrimSpace(sub.UserExplanation); explanation != "" {
		return "User guidance for similar emails: " + explanation
	}
	return "Prefer replies in the style of the user's corrected version for similar emails."
}

func (r *Recorder) warn(msg string, err error) {
	if r.logger != nil {
		r.logger.Warn(msg, "error", err)
	}
}
