package assembly

import (
	"fmt"
	"strings"

	"github.com/aly2302/email-assistant-llm/internal/models"
)

// Markers framing the generation prompt. The generator splits the model
// output on the last occurrence of FinalDraftMarker.
const (
	SectionOriginalEmail    = "--- Original Email to Reply To ---"
	SectionUserInstructions = "--- User Instructions (Follow strictly) ---"
	FinalDraftMarker        = "--- Final Draft (Start here) ---"
)

const defaultInstructions = "Write a complete, ready-to-send reply to the email above. " +
	"Use only information from the context sections; never invent facts. " +
	"Output only the reply text, nothing else."

// PromptInput collects everything the final generation prompt is built
// from.
type PromptInput struct {
	// PersonaKey names the persona in the preamble
	PersonaKey string

	Persona *models.Persona

	// ContextBlock is the output of BuildContextBlock, may be ""
	ContextBlock string

	OriginalEmail string

	// Instructions from the user; defaults apply when empty
	Instructions string

	// Resolved skeleton components, any may be ""
	Greeting  string
	Closing   string
	Signature string
}

// BuildDraftPrompt assembles the full prompt: persona preamble, context
// block, original email, user instructions, skeleton guidance, and the
// final-draft marker the model must continue from.
func BuildDraftPrompt(in PromptInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a writing assistant embodying the persona '%s'.", personaLabel(in))
	if in.Persona != nil {
		if in.Persona.Language != "" {
			fmt.Fprintf(&b, " Write in %s.", in.Persona.Language)
		}
		if len(in.Persona.Style.ToneKeywords) > 0 {
			fmt.Fprintf(&b, " Desired tone: %s.", strings.Join(in.Persona.Style.ToneKeywords, ", "))
		}
		if in.Persona.Style.Verbosity != "" {
			fmt.Fprintf(&b, " Verbosity: %s.", in.Persona.Style.Verbosity)
		}
	}
	b.WriteString("\n\n")

	if block := strings.TrimSpace(in.ContextBlock); block != "" {
		b.WriteString(block)
		b.WriteString("\n\n")
	}

	b.WriteString(SectionOriginalEmail)
	b.WriteString("\n")
	b.WriteString(strings.TrimSpace(in.OriginalEmail))
	b.WriteString("\n\n")

	b.WriteString(SectionUserInstructions)
	b.WriteString("\n")
	instructions := strings.TrimSpace(in.Instructions)
	if instructions == "" {
		instructions = defaultInstructions
	}
	b.WriteString(instructions)
	writeSkeleton(&b, in)
	b.WriteString("\n\n")

	b.WriteString(FinalDraftMarker)
	b.WriteString("\n")
	return b.String()
}

func personaLabel(in PromptInput) string {
	if in.Persona != nil && in.Persona.Label != "" {
		return in.Persona.Label
	}
	return in.PersonaKey
}

func writeSkeleton(b *strings.Builder, in PromptInput) {
	if in.Greeting != "" {
		fmt.Fprintf(b, "\nStart the reply with: %s", in.Greeting)
	}
	if in.Closing != "" {
		fmt.Fprintf(b, "\nEnd the reply with: %s", in.Closing)
	}
	if in.Signature != "" {
		fmt.Fprintf(b, "\nSign as: %s", in.Signature)
	}
}
