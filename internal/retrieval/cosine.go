package retrieval

import (
	"math"
	"sort"

	"github.com/aly2302/email-assistant-llm/internal/models"
)

// CosineSimilarity returns the cosine of the angle between two vectors.
// Mismatched lengths or zero vectors score 0.0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// RetrieveWithEmbedding is the embedding-assisted variant of fact retrieval
// used when the knowledge document has been through the indexer. The
// keyword gate stays the hard pre-filter; the embedding only re-orders the
// survivors so the most semantically relevant facts come first when the cap
// trims the list.
func (e *Engine) RetrieveWithEmbedding(emailText string, emailEmbedding []float64, facts []models.KnowledgeFact, corrections []models.LearnedCorrection) Result {
	if len(emailEmbedding) == 0 {
		return e.Retrieve(emailText, facts, corrections)
	}

	result := Result{Facts: []string{}, Corrections: []string{}}
	if len(facts) == 0 && len(corrections) == 0 {
		return result
	}
	emailTokens := Tokenize(emailText)

	type scored struct {
		content string
		score   float64
	}
	gated := []scored{}
	for _, fact := range facts {
		content := fact.Content()
		if content == "" {
			continue
		}
		if !keywordHit(emailTokens, fact.TriggerKeywords) {
			continue
		}
		gated = append(gated, scored{
			content: content,
			score:   CosineSimilarity(emailEmbedding, fact.Embedding),
		})
	}

	// Stable sort keeps document order for ties, so unindexed facts
	// (all scoring 0.0) come out exactly as keyword gating found them.
	sort.SliceStable(gated, func(i, j int) bool {
		return gated[i].score > gated[j].score
	})

	for _, g := range gated {
		result.Facts = append(result.Facts, g.content)
		if len(result.Facts) >= e.cfg.MaxFacts {
			break
		}
	}
	result.Corrections = e.matchCorrections(emailTokens, corrections)
	return result
}
