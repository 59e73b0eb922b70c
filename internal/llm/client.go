// Package llm provides the generation client used by the classifier, the
// retrieval-adjacent rule inference, and the draft generator, together with
// the tagged error taxonomy for expected failure modes.
package llm

import (
	"context"
)

// Client is the minimal surface the drafting pipeline needs from a
// language model. Implementations must return *Error for every expected
// failure mode so callers can discriminate blocked-content from transport
// failures from parse failures.
type Client interface {
	// Generate issues a single prompt and returns the raw generated text.
	Generate(ctx context.Context, prompt string, temperature float64) (string, error)

	// Embed returns the embedding vector for the input text.
	Embed(ctx context.Context, input string) ([]float64, error)
}
