package knowledge

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aly2302/email-assistant-llm/internal/models"
)

const testDocument = `
personas:
  formal:
    label: Assistente Formal
    language: pt-PT
    style_profile:
      key_principles:
        - Be polite.
    recipient_categories:
      - professor
      - administration
    default_components:
      greeting_id: formal_greeting
    personal_knowledge_base:
      - id: f1
        label: Horário
        value: 9h às 17h
        trigger_keywords: [horario]
    learned_knowledge_base: []
  informal:
    label: Casual
    personal_knowledge_base: []
    learned_knowledge_base: []
interlocutor_profiles:
  - email_match: Maria@Example.com
    full_name: Maria Costa
    relationship: colleague
    personalization_rules:
      - Always use tu.
base_knowledge:
  - id: b1
    label: NIF
    value: "123456789"
    trigger_keywords: [nif]
communication_components:
  greetings:
    formal_greeting:
      content:
        - text: "Bom dia {{recipient_name}},"
          condition: time_of_day_morning
`

func writeTestFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "knowledge.yaml")
	if err := os.WriteFile(path, []byte(testDocument), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRepositoryLoad(t *testing.T) {
	repo := NewRepository(writeTestFile(t), nil)

	doc, err := repo.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(doc.Personas) != 2 {
		t.Errorf("len(Personas) = %d, want 2", len(doc.Personas))
	}

	persona, err := repo.Persona("formal")
	if err != nil {
		t.Fatalf("Persona() error = %v", err)
	}
	if persona.Label != "Assistente Formal" {
		t.Errorf("Label = %q", persona.Label)
	}
	if len(persona.Style.KeyPrinciples) != 1 {
		t.Errorf("KeyPrinciples = %v", persona.Style.KeyPrinciples)
	}

	if _, err := repo.Persona("missing"); err == nil {
		t.Error("Persona(missing) expected error")
	}
}

func TestCombinedFacts(t *testing.T) {
	repo := NewRepository(writeTestFile(t), nil)

	facts, err := repo.CombinedFacts("formal")
	if err != nil {
		t.Fatalf("CombinedFacts() error = %v", err)
	}
	if len(facts) != 2 {
		t.Fatalf("len(facts) = %d, want 2", len(facts))
	}
	// Base knowledge first, persona facts after.
	if facts[0].Label != "NIF" || facts[1].Label != "Horário" {
		t.Errorf("fact order = %q, %q", facts[0].Label, facts[1].Label)
	}
}

func TestResolveInterlocutorCaseInsensitive(t *testing.T) {
	repo := NewRepository(writeTestFile(t), nil)

	profile, err := repo.ResolveInterlocutor("maria@example.com")
	if err != nil {
		t.Fatalf("ResolveInterlocutor() error = %v", err)
	}
	if profile == nil || profile.FullName != "Maria Costa" {
		t.Fatalf("ResolveInterlocutor() = %+v", profile)
	}

	unknown, err := repo.ResolveInterlocutor("stranger@example.com")
	if err != nil {
		t.Fatalf("ResolveInterlocutor() error = %v", err)
	}
	if unknown != nil {
		t.Errorf("ResolveInterlocutor(unknown) = %+v, want nil", unknown)
	}
}

func TestComponentLookup(t *testing.T) {
	repo := NewRepository(writeTestFile(t), nil)

	component, err := repo.Component(models.ComponentGreetings, "formal_greeting")
	if err != nil {
		t.Fatalf("Component() error = %v", err)
	}
	if component == nil || len(component.Content) != 1 {
		t.Fatalf("Component() = %+v", component)
	}
	if component.Content[0].Condition != "time_of_day_morning" {
		t.Errorf("Condition = %q", component.Content[0].Condition)
	}

	missing, err := repo.Component(models.ComponentGreetings, "nope")
	if err != nil || missing != nil {
		t.Errorf("Component(nope) = %+v, %v", missing, err)
	}
	none, err := repo.Component(models.ComponentClosings, "")
	if err != nil || none != nil {
		t.Errorf("Component(\"\") = %+v, %v", none, err)
	}
}

func TestAppendLearnedPersists(t *testing.T) {
	path := writeTestFile(t)
	repo := NewRepository(path, nil)

	correction := models.LearnedCorrection{
		Timestamp:    time.Now().UTC(),
		InferredRule: "Never promise exact deadlines.",
		Context:      models.InteractionContext{OriginalEmail: "Quando fica pronto?"},
	}
	if err := repo.AppendLearned("formal", correction); err != nil {
		t.Fatalf("AppendLearned() error = %v", err)
	}

	// A fresh repository must see the entry.
	fresh := NewRepository(path, nil)
	persona, err := fresh.Persona("formal")
	if err != nil {
		t.Fatalf("Persona() error = %v", err)
	}
	if len(persona.Learned) != 1 {
		t.Fatalf("len(Learned) = %d, want 1", len(persona.Learned))
	}
	if persona.Learned[0].InferredRule != correction.InferredRule {
		t.Errorf("InferredRule = %q", persona.Learned[0].InferredRule)
	}

	if err := repo.AppendLearned("missing", correction); err == nil {
		t.Error("AppendLearned(missing) expected error")
	}
}

func TestAppendLearnedConcurrent(t *testing.T) {
	path := writeTestFile(t)
	repo := NewRepository(path, nil)

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := repo.AppendLearned("formal", models.LearnedCorrection{
				InferredRule: fmt.Sprintf("rule %d", i),
			})
			if err != nil {
				t.Errorf("AppendLearned() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	persona, err := NewRepository(path, nil).Persona("formal")
	if err != nil {
		t.Fatalf("Persona() error = %v", err)
	}
	if len(persona.Learned) != writers {
		t.Errorf("len(Learned) = %d, want %d (lost updates)", len(persona.Learned), writers)
	}
}

func TestUpsertAndDeletePersona(t *testing.T) {
	path := writeTestFile(t)
	repo := NewRepository(path, nil)

	if err := repo.UpsertPersona("new", &models.Persona{Label: "Nova"}); err != nil {
		t.Fatalf("UpsertPersona() error = %v", err)
	}
	persona, err := repo.Persona("new")
	if err != nil || persona.Label != "Nova" {
		t.Fatalf("Persona(new) = %+v, %v", persona, err)
	}

	if err := repo.UpsertPersona("  ", &models.Persona{}); err == nil {
		t.Error("UpsertPersona(blank key) expected error")
	}

	if err := repo.DeletePersona("new"); err != nil {
		t.Fatalf("DeletePersona() error = %v", err)
	}
	if _, err := repo.Persona("new"); err == nil {
		t.Error("Persona(new) should be gone")
	}
	if err := repo.DeletePersona("new"); err == nil {
		t.Error("DeletePersona(missing) expected error")
	}
}

func TestReloadPicksUpExternalEdits(t *testing.T) {
	path := writeTestFile(t)
	repo := NewRepository(path, nil)

	if _, err := repo.Load(); err != nil {
		t.Fatal(err)
	}

	edited := strings.Replace(testDocument, "  informal:", "  extra:", 1)
	if err := os.WriteFile(path, []byte(edited), 0o644); err != nil {
		t.Fatal(err)
	}

	// Cached view does not see the edit.
	doc, _ := repo.Load()
	if _, ok := doc.Personas["extra"]; ok {
		t.Error("Load() should serve the cache")
	}

	doc, err := repo.Reload()
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if _, ok := doc.Personas["extra"]; !ok {
		t.Error("Reload() should pick up external edits")
	}
}

func TestUpdateEmbeddings(t *testing.T) {
	path := writeTestFile(t)
	repo := NewRepository(path, nil)

	indexed, err := repo.UpdateEmbeddings(func(fact models.KnowledgeFact) ([]float64, error) {
		return []float64{float64(len(fact.Content()))}, nil
	})
	if err != nil {
		t.Fatalf("UpdateEmbeddings() error = %v", err)
	}
	if indexed != 2 {
		t.Errorf("indexed = %d, want 2", indexed)
	}

	// Already-indexed facts are skipped on the second run.
	indexed, err = NewRepository(path, nil).UpdateEmbeddings(func(models.KnowledgeFact) ([]float64, error) {
		t.Error("compute should not be called for indexed facts")
		return nil, nil
	})
	if err != nil || indexed != 0 {
		t.Errorf("second run = %d, %v", indexed, err)
	}
}
