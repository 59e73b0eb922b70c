// Package knowledge manages the single YAML document holding personas,
// interlocutor profiles, shared base knowledge, and communication
// components. All mutation goes through a mutex-guarded
// read-modify-write cycle so concurrent feedback submissions cannot lose
// entries.
package knowledge

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/aly2302/email-assistant-llm/internal/models"
)

// Document is the on-disk knowledge structure.
type Document struct {
	Personas             map[string]*models.Persona             `yaml:"personas"`
	InterlocutorProfiles []models.InterlocutorProfile           `yaml:"interlocutor_profiles,omitempty"`
	BaseKnowledge        []models.KnowledgeFact                 `yaml:"base_knowledge,omitempty"`
	Components           map[string]map[string]models.Component `yaml:"communication_components,omitempty"`
}

// Repository provides cached reads and serialized writes over one
// knowledge file.
type Repository struct {
	path   string
	logger *log.Logger

	mu     sync.Mutex
	cached *Document
}

// NewRepository creates a repository over the YAML document at path. The
// file is read lazily on first access.
func NewRepository(path string, logger *log.Logger) *Repository {
	return &Repository{path: path, logger: logger}
}

// Load returns the cached document, reading it from disk on first call.
// The returned document must be treated as read-only.
func (r *Repository) Load() (*Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadLocked()
}

// Reload discards the cache and re-reads the document from disk.
func (r *Repository) Reload() (*Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cached = nil
	return r.loadLocked()
}

func (r *Repository) loadLocked() (*Document, error) {
	if r.cached != nil {
		return r.cached, nil
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("reading knowledge file: %w", err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing knowledge file: %w", err)
	}
	if doc.Personas == nil {
		doc.Personas = map[string]*models.Persona{}
	}

	r.cached = &doc
	return r.cached, nil
}

// Mutate runs fn on a freshly loaded document under the repository lock
// and persists the result. The cache is updated only after a successful
// write.
func (r *Repository) Mutate(fn func(doc *Document) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Always mutate what is actually on disk, not a stale cache.
	r.cached = nil
	doc, err := r.loadLocked()
	if err != nil {
		return err
	}

	if err := fn(doc); err != nil {
		return err
	}

	if err := r.saveLocked(doc); err != nil {
		r.cached = nil
		return err
	}
	return nil
}

func (r *Repository) saveLocked(doc *Document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding knowledge file: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing knowledge file: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replacing knowledge file: %w", err)
	}

	r.cached = doc
	return nil
}

// Persona returns the persona stored under key.
func (r *Repository) Persona(key string) (*models.Persona, error) {
	doc, err := r.Load()
	if err != nil {
		return nil, err
	}
	persona, ok := doc.Personas[key]
	if !ok {
		return nil, fmt.Errorf("persona %q not found", key)
	}
	return persona, nil
}

// PersonaKeys lists the stored persona keys.
func (r *Repository) PersonaKeys() ([]string, error) {
	doc, err := r.Load()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(doc.Personas))
	for key := range doc.Personas {
		keys = append(keys, key)
	}
	return keys, nil
}

// CombinedFacts returns the shared base knowledge followed by the
// persona's own facts, in document order.
func (r *Repository) CombinedFacts(personaKey string) ([]models.KnowledgeFact, error) {
	doc, err := r.Load()
	if err != nil {
		return nil, err
	}

	persona, ok := doc.Personas[personaKey]
	if !ok {
		return nil, fmt.Errorf("persona %q not found", personaKey)
	}

	facts := make([]models.KnowledgeFact, 0, len(doc.BaseKnowledge)+len(persona.Facts))
	facts = append(facts, doc.BaseKnowledge...)
	facts = append(facts, persona.Facts...)
	return facts, nil
}

// ResolveInterlocutor finds the profile matching the email address,
// case-insensitively. Unknown addresses return nil without error.
func (r *Repository) ResolveInterlocutor(email string) (*models.InterlocutorProfile, error) {
	doc, err := r.Load()
	if err != nil {
		return nil, err
	}

	for i := range doc.InterlocutorProfiles {
		if strings.EqualFold(doc.InterlocutorProfiles[i].EmailMatch, email) {
			return &doc.InterlocutorProfiles[i], nil
		}
	}
	return nil, nil
}

// Component looks up a communication component by type key (greetings,
// closings, signatures) and ID. Missing components return nil.
func (r *Repository) Component(typeKey, id string) (*models.Component, error) {
	if id == "" {
		return nil, nil
	}
	doc, err := r.Load()
	if err != nil {
		return nil, err
	}

	group, ok := doc.Components[typeKey]
	if !ok {
		return nil, nil
	}
	component, ok := group[id]
	if !ok {
		return nil, nil
	}
	return &component, nil
}

// AppendLearned appends a correction to the persona's learned knowledge
// and persists the document.
func (r *Repository) AppendLearned(personaKey string, correction models.LearnedCorrection) error {
	err := r.Mutate(func(doc *Document) error {
		persona, ok := doc.Personas[personaKey]
		if !ok {
			return fmt.Errorf("persona %q not found", personaKey)
		}
		persona.Learned = append(persona.Learned, correction)
		return nil
	})
	if err != nil {
		return fmt.Errorf("appending learned correction: %w", err)
	}

	if r.logger != nil {
		r.logger.Info("learned correction recorded", "persona", personaKey)
	}
	return nil
}

// UpsertPersona creates or replaces the persona stored under key.
func (r *Repository) UpsertPersona(key string, persona *models.Persona) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("persona key must not be empty")
	}
	return r.Mutate(func(doc *Document) error {
		doc.Personas[key] = persona
		return nil
	})
}

// DeletePersona removes the persona stored under key.
func (r *Repository) DeletePersona(key string) error {
	return r.Mutate(func(doc *Document) error {
		if _, ok := doc.Personas[key]; !ok {
			return fmt.Errorf("persona %q not found", key)
		}
		delete(doc.Personas, key)
		return nil
	})
}
