package assembly

import (
	"strings"
	"testing"

	"github.com/aly2302/email-assistant-llm/internal/models"
)

func TestBuildContextBlockSectionOrder(t *testing.T) {
	block := BuildContextBlock(ContextInput{
		Persona: &models.Persona{
			Style: models.StyleProfile{KeyPrinciples: []string{"Be concise."}},
		},
		Interlocutor: &models.InterlocutorProfile{
			FullName:             "Maria Costa",
			Relationship:         "colleague",
			PersonalizationRules: []string{"Always use tu."},
		},
		Facts:       []string{"IBAN: PT50 0000"},
		Corrections: []string{"Never promise exact deadlines."},
	})

	labels := []string{
		SectionKeyPrinciples,
		SectionInterlocutor,
		SectionContactRules,
		SectionMemory,
		SectionLearnedRules,
	}

	last := -1
	for _, label := range labels {
		idx := strings.Index(block, label)
		if idx == -1 {
			t.Fatalf("missing section %q in:\n%s", label, block)
		}
		if idx < last {
			t.Errorf("section %q out of order in:\n%s", label, block)
		}
		last = idx
	}

	if !strings.Contains(block, "Name: Maria Costa | Relationship: colleague") {
		t.Errorf("interlocutor line missing in:\n%s", block)
	}
}

func TestBuildContextBlockOmitsEmptySections(t *testing.T) {
	block := BuildContextBlock(ContextInput{
		Facts: []string{"Horário: 9h às 17h"},
	})

	if !strings.Contains(block, SectionMemory) {
		t.Fatalf("memory section missing in:\n%s", block)
	}
	for _, label := range []string{
		SectionKeyPrinciples,
		SectionInterlocutor,
		SectionContactRules,
		SectionLearnedRules,
	} {
		if strings.Contains(block, label) {
			t.Errorf("empty section %q should be omitted, got:\n%s", label, block)
		}
	}
}

func TestBuildContextBlockEmptyInput(t *testing.T) {
	if block := BuildContextBlock(ContextInput{}); block != "" {
		t.Errorf("BuildContextBlock(empty) = %q, want \"\"", block)
	}
}

func TestBuildContextBlockSectionsSeparatedByBlankLines(t *testing.T) {
	block := BuildContextBlock(ContextInput{
		Facts:       []string{"facto um"},
		Corrections: []string{"regra um"},
	})

	want := SectionMemory + "\n- facto um\n\n" + SectionLearnedRules + "\n- regra um"
	if block != want {
		t.Errorf("BuildContextBlock() = %q, want %q", block, want)
	}
}

func TestBuildDraftPrompt(t *testing.T) {
	persona := &models.Persona{
		Label:    "Assistente Formal",
		Language: "pt-PT",
		Style: models.StyleProfile{
			KeyPrinciples: []string{"Be polite."},
			ToneKeywords:  []string{"formal", "cordial"},
			Verbosity:     "brief",
		},
	}

	prompt := BuildDraftPrompt(PromptInput{
		PersonaKey:    "formal",
		Persona:       persona,
		ContextBlock:  BuildContextBlock(ContextInput{Persona: persona}),
		OriginalEmail: "Bom dia, pode enviar o relatório?",
		Greeting:      "Bom dia Maria,",
		Closing:       "Com os melhores cumprimentos,",
		Signature:     "João Silva",
	})

	ordered := []string{
		"embodying the persona 'Assistente Formal'",
		SectionKeyPrinciples,
		SectionOriginalEmail,
		"pode enviar o relatório",
		SectionUserInstructions,
		"Start the reply with: Bom dia Maria,",
		"End the reply with: Com os melhores cumprimentos,",
		"Sign as: João Silva",
		FinalDraftMarker,
	}

	last := -1
	for _, want := range ordered {
		idx := strings.Index(prompt, want)
		if idx == -1 {
			t.Fatalf("missing %q in prompt:\n%s", want, prompt)
		}
		if idx < last {
			t.Errorf("%q out of order in prompt:\n%s", want, prompt)
		}
		last = idx
	}

	if !strings.HasSuffix(prompt, FinalDraftMarker+"\n") {
		t.Errorf("prompt should end at the final draft marker, got tail %q", prompt[len(prompt)-60:])
	}
}

func TestBuildDraftPromptDefaults(t *testing.T) {
	prompt := BuildDraftPrompt(PromptInput{
		PersonaKey:    "formal",
		OriginalEmail: "Olá",
	})

	if !strings.Contains(prompt, "embodying the persona 'formal'") {
		t.Errorf("persona key fallback missing in:\n%s", prompt)
	}
	if !strings.Contains(prompt, defaultInstructions) {
		t.Errorf("default instructions missing in:\n%s", prompt)
	}
	if strings.Contains(prompt, "Start the reply with:") {
		t.Errorf("skeleton guidance should be absent without components:\n%s", prompt)
	}
}

func TestRetrievedContextReachesPrompt(t *testing.T) {
	block := BuildContextBlock(ContextInput{
		Facts:       []string{"NIF: 123456789"},
		Corrections: []string{},
	})
	prompt := BuildDraftPrompt(PromptInput{
		PersonaKey:    "formal",
		ContextBlock:  block,
		OriginalEmail: "Preciso do NIF para a fatura.",
	})

	if !strings.Contains(prompt, SectionMemory+"\n- NIF: 123456789") {
		t.Errorf("retrieved fact missing under memory label:\n%s", prompt)
	}
	if strings.Contains(prompt, SectionLearnedRules) {
		t.Errorf("learned rules label should be absent when no corrections matched:\n%s", prompt)
	}
}
