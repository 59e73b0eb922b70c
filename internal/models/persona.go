// Package models defines the core data types shared across the drafting
// pipeline: personas, knowledge facts, learned corrections, interlocutor
// profiles, classifications, and pending drafts.
package models

import (
	"strings"
)

// KnowledgeFact is a short retrievable fact ("memory") relevant to drafting.
// Retrieval is gated on trigger keywords; the optional embedding enables the
// semantic retrieval path.
type KnowledgeFact struct {
	// Unique identifier, assigned when the fact is created
	ID string `json:"id" yaml:"id"`

	// Short human-readable label (e.g., "office hours")
	Label string `json:"label" yaml:"label"`

	// The fact content itself
	Value string `json:"value" yaml:"value"`

	// Normalized tokens that gate retrieval; a fact is only a candidate
	// when at least one keyword appears in the incoming email
	TriggerKeywords []string `json:"trigger_keywords" yaml:"trigger_keywords"`

	// Optional semantic embedding of "label: value"
	Embedding []float64 `json:"embedding,omitempty" yaml:"embedding,omitempty"`
}

// Content returns the retrievable text of the fact ("label: value", or
// whichever side is non-empty). Empty when the fact carries no content and
// therefore is not retrievable.
func (f KnowledgeFact) Content() string {
	label := strings.TrimSpace(f.Label)
	value := strings.TrimSpace(f.Value)
	switch {
	case label != "" && value != "":
		return label + ": " + value
	case value != "":
		return value
	default:
		return label
	}
}

// StyleProfile captures how a persona writes.
type StyleProfile struct {
	// Ordered short directives that always lead the context block
	KeyPrinciples []string `json:"key_principles" yaml:"key_principles"`

	// Words characterizing the desired tone
	ToneKeywords []string `json:"tone_keywords,omitempty" yaml:"tone_keywords,omitempty"`

	// Free-text verbosity descriptor (e.g., "brief and efficient")
	Verbosity string `json:"verbosity,omitempty" yaml:"verbosity,omitempty"`
}

// DefaultComponents references the greeting/closing/signature components a
// persona uses by default.
type DefaultComponents struct {
	GreetingID  string `json:"greeting_id" yaml:"greeting_id"`
	ClosingID   string `json:"closing_id" yaml:"closing_id"`
	SignatureID string `json:"signature_id" yaml:"signature_id"`
}

// Persona is a named communication profile the assistant writes as.
type Persona struct {
	// Display label (falls back to the persona key when empty)
	Label string `json:"label" yaml:"label"`

	// Role description used in classification prompts (e.g., "university student")
	Role string `json:"role,omitempty" yaml:"role,omitempty"`

	// Primary language of the persona's correspondence (e.g., "pt-PT")
	Language string `json:"language,omitempty" yaml:"language,omitempty"`

	Style StyleProfile `json:"style_profile" yaml:"style_profile"`

	// Recipient category keys the classifier may assign (besides "unknown")
	RecipientCategories []string `json:"recipient_categories,omitempty" yaml:"recipient_categories,omitempty"`

	DefaultComponents DefaultComponents `json:"default_components" yaml:"default_components"`

	// Explicit knowledge facts specific to this persona
	Facts []KnowledgeFact `json:"personal_knowledge_base" yaml:"personal_knowledge_base"`

	// Append-only record of human-in-the-loop corrections
	Learned []LearnedCorrection `json:"learned_knowledge_base" yaml:"learned_knowledge_base"`
}
