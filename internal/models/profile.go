package models

// InterlocutorProfile maps a known email address to identity and
// relationship metadata. Personalization rules take precedence over generic
// persona rules during prompt assembly.
type InterlocutorProfile struct {
	// The exact address this profile matches (compared case-insensitively)
	EmailMatch string `json:"email_match" yaml:"email_match"`

	FullName     string `json:"full_name" yaml:"full_name"`
	Relationship string `json:"relationship" yaml:"relationship"`
	Notes        string `json:"notes,omitempty" yaml:"notes,omitempty"`

	// Ordered free-text imperatives injected at the highest priority tier
	PersonalizationRules []string `json:"personalization_rules,omitempty" yaml:"personalization_rules,omitempty"`
}
