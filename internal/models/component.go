package models

// ComponentOption is one candidate text for a communication component.
// An empty condition is always valid; a "time_of_day_*" condition is valid
// only during the matching part of the day.
type ComponentOption struct {
	Text      string `json:"text" yaml:"text"`
	Condition string `json:"condition,omitempty" yaml:"condition,omitempty"`
}

// Component is a reusable greeting, closing, or signature fragment.
// Option text may contain the {{recipient_name}} placeholder.
type Component struct {
	Content []ComponentOption `json:"content" yaml:"content"`
}

// Component type keys in the knowledge document.
const (
	ComponentGreetings  = "greetings"
	ComponentClosings   = "closings"
	ComponentSignatures = "signatures"
)
