package models

// Tone is the classified tone of an incoming email.
type Tone string

const (
	ToneVeryFormal         Tone = "Very Formal"
	ToneFormal             Tone = "Formal"
	ToneSemiFormal         Tone = "Semi-Formal"
	ToneCasual             Tone = "Casual"
	ToneUrgent             Tone = "Urgent"
	ToneInformativeNeutral Tone = "InformativeNeutral"
	ToneOther              Tone = "Other"
)

// Tones lists every tone the classifier may assign.
var Tones = []Tone{
	ToneVeryFormal,
	ToneFormal,
	ToneSemiFormal,
	ToneCasual,
	ToneUrgent,
	ToneInformativeNeutral,
	ToneOther,
}

// ValidTone reports whether t is a recognized tone value.
func ValidTone(t Tone) bool {
	for _, known := range Tones {
		if t == known {
			return true
		}
	}
	return false
}

// UnknownCategory is assigned when the classifier cannot map the sender to
// one of the persona's recipient categories.
const UnknownCategory = "unknown"

// Classification is the ephemeral, per-request result of the context
// classifier. It is never persisted; it only steers retrieval and prompt
// assembly for the current request.
type Classification struct {
	// One of the persona's recipient category keys, or UnknownCategory
	RecipientCategory string `json:"recipient_category" yaml:"recipient_category"`

	IncomingTone Tone `json:"incoming_tone" yaml:"incoming_tone"`

	// Best-guess sender name with titles (Prof., Dr., Eng., ...) stripped
	SenderNameGuess string `json:"sender_name_guess" yaml:"sender_name_guess"`

	// One short justification sentence
	Rationale string `json:"rationale" yaml:"rationale"`

	// Non-empty when the classifier call failed and defaults were applied.
	// Classifier failure is never fatal to drafting.
	Err string `json:"error,omitempty" yaml:"error,omitempty"`
}

// FallbackClassification returns the safe defaults used when classification
// fails: unknown category, neutral tone, empty name and rationale.
func FallbackClassification(reason string) Classification {
	return Classification{
		RecipientCategory: UnknownCategory,
		IncomingTone:      ToneInformativeNeutral,
		Err:               reason,
	}
}
