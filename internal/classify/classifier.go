// Package classify implements the context classifier: a single
// low-temperature LLM call that maps an incoming email onto the persona's
// recipient categories and a tone label. Classification steers retrieval
// and prompt assembly; its failure is never fatal to drafting.
package classify

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/aly2302/email-assistant-llm/internal/llm"
	"github.com/aly2302/email-assistant-llm/internal/models"
)

const (
	classifyTemperature = 0.2

	// Long emails are truncated before classification; the head carries the
	// signal that matters for category and tone.
	maxEmailChars    = 3000
	truncationMarker = "...(truncated)"
)

var titleRe = regexp.MustCompile(`(?i)^(?:prof\.?|dr\.?|dra\.?|eng\.?|sr\.?|sra\.?|exmo\.?|exma\.?)\s+`)

// StripTitles removes leading honorifics from a name guess, repeatedly, so
// "Prof. Dr. Silva" comes out as "Silva".
func StripTitles(name string) string {
	name = strings.TrimSpace(name)
	for {
		stripped := titleRe.ReplaceAllString(name, "")
		if stripped == name {
			return name
		}
		name = stripped
	}
}

// Classifier performs sender/tone classification for one persona.
type Classifier struct {
	llm    llm.Client
	logger *log.Logger
}

// NewClassifier builds a Classifier over the given generation client.
func NewClassifier(client llm.Client, logger *log.Logger) *Classifier {
	return &Classifier{llm: client, logger: logger}
}

type classifyResponse struct {
	RecipientCategory string `json:"recipient_category"`
	IncomingTone      string `json:"incoming_tone"`
	SenderNameGuess   string `json:"sender_name_guess"`
	Rationale         string `json:"rationale"`
}

// Classify maps the email onto one of the persona's recipient categories
// and a tone. Every failure path degrades to FallbackClassification with
// the reason recorded; the caller can always keep drafting.
func (c *Classifier) Classify(ctx context.Context, persona *models.Persona, emailText string) models.Classification {
	prompt := c.buildPrompt(persona, emailText)

	raw, err := c.llm.Generate(ctx, prompt, classifyTemperature)
	if err != nil {
		c.warn("classification call failed", err)
		return models.FallbackClassification(fmt.Sprintf("classification call failed: %v", err))
	}

	var resp classifyResponse
	if err := llm.DecodeObject(raw, &resp); err != nil {
		c.warn("classification response unparseable", err)
		return models.FallbackClassification(fmt.Sprintf("classification response unparseable: %v", err))
	}

	result := models.Classification{
		RecipientCategory: strings.TrimSpace(resp.RecipientCategory),
		IncomingTone:      models.Tone(strings.TrimSpace(resp.IncomingTone)),
		SenderNameGuess:   StripTitles(resp.SenderNameGuess),
		Rationale:         strings.TrimSpace(resp.Rationale),
	}

	if !validCategory(persona, result.RecipientCategory) {
		result.RecipientCategory = models.UnknownCategory
	}
	if !models.ValidTone(result.IncomingTone) {
		result.IncomingTone = models.ToneInformativeNeutral
	}
	return result
}

func (c *Classifier) buildPrompt(persona *models.Persona, emailText string) string {
	emailText = truncate(emailText)

	role := persona.Role
	if role == "" {
		role = "professional"
	}

	categories := append([]string{}, persona.RecipientCategories...)
	categories = append(categories, models.UnknownCategory)

	tones := make([]string, 0, len(models.Tones))
	for _, t := range models.Tones {
		tones = append(tones, string(t))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an email triage assistant for a %s.\n", role)
	b.WriteString("Analyze the email below and respond with a single JSON object, no prose, no code fences.\n\n")
	b.WriteString("Required keys:\n")
	fmt.Fprintf(&b, "- \"recipient_category\": exactly one of: %s\n", strings.Join(categories, ", "))
	fmt.Fprintf(&b, "- \"incoming_tone\": exactly one of: %s\n", strings.Join(tones, ", "))
	b.WriteString("- \"sender_name_guess\": the sender's name without academic or courtesy titles, or \"\" if unknown\n")
	b.WriteString("- \"rationale\": one short sentence justifying the category\n\n")
	b.WriteString("Email:\n\"\"\"\n")
	b.WriteString(emailText)
	b.WriteString("\n\"\"\"")
	return b.String()
}

func truncate(text string) string {
	if len(text) <= maxEmailChars {
		return text
	}
	return text[:maxEmailChars] + truncationMarker
}

func validCategory(persona *models.Persona, category string) bool {
	if category == models.UnknownCategory {
		return true
	}
	for _, c := range persona.RecipientCategories {
		if c == category {
			return true
		}
	}
	return false
}

func (c *Classifier) warn(msg string, err error) {
	if c.logger != nil {
		c.logger.Warn(msg, "error", err)
	}
}
