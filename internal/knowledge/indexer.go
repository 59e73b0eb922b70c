package knowledge

import (
	"github.com/aly2302/email-assistant-llm/internal/models"
)

// UpdateEmbeddings computes an embedding for every fact that lacks one,
// across base knowledge and all personas, and persists the document once.
// compute receives the fact and returns its vector. Returns how many facts
// were indexed.
func (r *Repository) UpdateEmbeddings(compute func(fact models.KnowledgeFact) ([]float64, error)) (int, error) {
	indexed := 0
	err := r.Mutate(func(doc *Document) error {
		index := func(facts []models.KnowledgeFact) error {
			for i := range facts {
				if len(facts[i].Embedding) > 0 || facts[i].Content() == "" {
					continue
				}
				vector, err := compute(facts[i])
				if err != nil {
					return err
				}
				facts[i].Embedding = vector
				indexed++
			}
			return nil
		}

		if err := index(doc.BaseKnowledge); err != nil {
			return err
		}
		for _, persona := range doc.Personas {
			if err := index(persona.Facts); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return indexed, nil
}
