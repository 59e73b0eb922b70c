// Package assembly builds the context block and the final generation
// prompt out of persona knowledge, interlocutor data, and retrieval
// results.
package assembly

import (
	"fmt"
	"strings"

	"github.com/aly2302/email-assistant-llm/internal/models"
)

// Section labels of the context block. Order is fixed: principles first,
// learned rules last so they can override everything above them.
const (
	SectionKeyPrinciples = "--- Persona Key Principles (Base Rules) ---"
	SectionInterlocutor  = "--- Context About the Interlocutor ---"
	SectionContactRules  = "--- Specific Rules For This Contact (Highest Priority) ---"
	SectionMemory        = "--- Relevant Information from Memory (Use in content) ---"
	SectionLearnedRules  = "--- Learned Rules (Overrides Key Principles) ---"
)

// ContextInput collects everything the context block is built from. Any
// field may be empty; empty sections are omitted entirely.
type ContextInput struct {
	Persona      *models.Persona
	Interlocutor *models.InterlocutorProfile
	Facts        []string
	Corrections  []string
}

// BuildContextBlock renders the labeled context sections in their fixed
// order, separated by blank lines. An input with nothing to say yields "".
func BuildContextBlock(in ContextInput) string {
	var sections []string

	if in.Persona != nil && len(in.Persona.Style.KeyPrinciples) > 0 {
		sections = append(sections, bulletSection(SectionKeyPrinciples, in.Persona.Style.KeyPrinciples))
	}

	if in.Interlocutor != nil {
		if s := interlocutorSection(in.Interlocutor); s != "" {
			sections = append(sections, s)
		}
		if len(in.Interlocutor.PersonalizationRules) > 0 {
			sections = append(sections, bulletSection(SectionContactRules, in.Interlocutor.PersonalizationRules))
		}
	}

	if len(in.Facts) > 0 {
		sections = append(sections, bulletSection(SectionMemory, in.Facts))
	}

	if len(in.Corrections) > 0 {
		sections = append(sections, bulletSection(SectionLearnedRules, in.Corrections))
	}

	return strings.Join(sections, "\n\n")
}

func bulletSection(label string, items []string) string {
	var b strings.Builder
	b.WriteString(label)
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		b.WriteString("\n- ")
		b.WriteString(item)
	}
	return b.String()
}

func interlocutorSection(profile *models.InterlocutorProfile) string {
	name := strings.TrimSpace(profile.FullName)
	relationship := strings.TrimSpace(profile.Relationship)
	if name == "" && relationship == "" && strings.TrimSpace(profile.Notes) == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString(SectionInterlocutor)
	if name != "" || relationship != "" {
		if name == "" {
			name = "unknown"
		}
		if relationship == "" {
			relationship = "unknown"
		}
		fmt.Fprintf(&b, "\nName: %s | Relationship: %s", name, relationship)
	}
	if notes := strings.TrimSpace(profile.Notes); notes != "" {
		fmt.Fprintf(&b, "\nNotes: %s", notes)
	}
	return b.String()
}
