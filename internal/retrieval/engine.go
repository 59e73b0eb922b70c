package retrieval

import (
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/aly2302/email-assistant-llm/internal/models"
)

// Config tunes the retrieval engine.
type Config struct {
	// MaxFacts caps how many keyword-gated facts are surfaced (default: 10)
	MaxFacts int

	// MaxCorrections caps how many learned corrections are surfaced
	// (default: 2)
	MaxCorrections int

	// MinCorrectionSimilarity is the Jaccard floor below which a correction
	// is not considered relevant (default: 0.05)
	MinCorrectionSimilarity float64
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		MaxFacts:                10,
		MaxCorrections:          2,
		MinCorrectionSimilarity: 0.05,
	}
}

// Result holds the retrieved context for one incoming email, ready to be
// placed into the prompt context block.
type Result struct {
	// Facts are "label: value" strings in knowledge-document order.
	Facts []string

	// Corrections are inferred-rule strings, most similar first.
	Corrections []string
}

// Engine retrieves persona facts and learned corrections relevant to an
// incoming email. Facts are gated on trigger keywords only; corrections are
// scored by token-set similarity against the email that originally produced
// them. Retrieval never mutates its inputs and is safe to call repeatedly.
type Engine struct {
	cfg    Config
	logger *log.Logger
}

// NewEngine creates an Engine, filling zero-valued config fields with
// defaults.
func NewEngine(logger *log.Logger, cfg Config) *Engine {
	defaults := DefaultConfig()
	if cfg.MaxFacts == 0 {
		cfg.MaxFacts = defaults.MaxFacts
	}
	if cfg.MaxCorrections == 0 {
		cfg.MaxCorrections = defaults.MaxCorrections
	}
	if cfg.MinCorrectionSimilarity == 0 {
		cfg.MinCorrectionSimilarity = defaults.MinCorrectionSimilarity
	}
	return &Engine{cfg: cfg, logger: logger}
}

// Retrieve returns the facts and corrections relevant to emailText.
// An empty email yields an empty Result without touching the knowledge.
func (e *Engine) Retrieve(emailText string, facts []models.KnowledgeFact, corrections []models.LearnedCorrection) Result {
	result := Result{Facts: []string{}, Corrections: []string{}}
	if strings.TrimSpace(emailText) == "" {
		return result
	}

	emailTokens := Tokenize(emailText)
	result.Facts = e.matchFacts(emailTokens, facts)
	result.Corrections = e.matchCorrections(emailTokens, corrections)

	if e.logger != nil {
		e.logger.Debug("retrieval complete",
			"facts", len(result.Facts),
			"corrections", len(result.Corrections))
	}
	return result
}

// matchFacts keeps a fact only when at least one of its trigger keywords
// appears in the email token set. Facts with no keywords never match.
// Order follows the knowledge document, not a score.
func (e *Engine) matchFacts(emailTokens map[string]struct{}, facts []models.KnowledgeFact) []string {
	matched := []string{}
	for _, fact := range facts {
		content := fact.Content()
		if content == "" {
			continue
		}
		if !keywordHit(emailTokens, fact.TriggerKeywords) {
			continue
		}
		matched = append(matched, content)
		if len(matched) >= e.cfg.MaxFacts {
			break
		}
	}
	return matched
}

func keywordHit(emailTokens map[string]struct{}, keywords []string) bool {
	for _, kw := range keywords {
		normalized := NormalizeKeyword(kw)
		if normalized == "" {
			continue
		}
		if _, ok := emailTokens[normalized]; ok {
			return true
		}
	}
	return false
}

// matchCorrections scores every correction by Jaccard similarity between
// the incoming email and the email the correction was originally learned
// from, then keeps the top scorers above the floor.
func (e *Engine) matchCorrections(emailTokens map[string]struct{}, corrections []models.LearnedCorrection) []string {
	type scored struct {
		rule  string
		score float64
	}

	candidates := []scored{}
	for _, c := range corrections {
		if strings.TrimSpace(c.InferredRule) == "" {
			continue
		}
		originalTokens := Tokenize(c.Context.OriginalEmail)
		score := jaccard(emailTokens, originalTokens)
		if score < e.cfg.MinCorrectionSimilarity {
			continue
		}
		candidates = append(candidates, scored{rule: c.InferredRule, score: score})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	matched := []string{}
	for _, c := range candidates {
		matched = append(matched, c.rule)
		if len(matched) >= e.cfg.MaxCorrections {
			break
		}
	}
	return matched
}
