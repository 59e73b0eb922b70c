package models

import (
	"time"
)

// InteractionContext is a snapshot of the interaction that produced a
// correction. It is evidence, not configuration: the retrieval engine
// matches future emails against OriginalEmail to decide when the learned
// rule applies again.
type InteractionContext struct {
	// The incoming email the assistant was replying to
	OriginalEmail string `json:"original_email_text" yaml:"original_email_text"`

	// Key of the persona that produced the original draft
	PersonaKey string `json:"persona_key" yaml:"persona_key"`

	// Classifier output at the time, if any
	Classification *Classification `json:"classification,omitempty" yaml:"classification,omitempty"`
}

// LearnedCorrection records one human-in-the-loop correction event.
// Entries are append-only and never edited after creation.
type LearnedCorrection struct {
	// When this correction occurred (UTC)
	Timestamp time.Time `json:"timestamp_utc" yaml:"timestamp_utc"`

	// Concise imperative rule inferred from the correction
	InferredRule string `json:"inferred_rule" yaml:"inferred_rule"`

	// What the assistant produced (that was wrong or improvable)
	AIOriginal string `json:"ai_original_response_text" yaml:"ai_original_response_text"`

	// The user's corrected version
	UserCorrected string `json:"user_corrected_output_text" yaml:"user_corrected_output_text"`

	// Free-text explanation provided by the user, if any
	UserExplanation string `json:"user_explanation_text,omitempty" yaml:"user_explanation_text,omitempty"`

	// The interaction context when the correction happened
	Context InteractionContext `json:"interaction_context_snapshot" yaml:"interaction_context_snapshot"`
}
