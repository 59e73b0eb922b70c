package draft

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/aly2302/email-assistant-llm/internal/llm"
)

const generateTemperature = 0.5

// Generator produces the final reply draft. Unlike classification,
// generation failure is fatal to the request; callers receive the tagged
// error untouched.
type Generator struct {
	llm    llm.Client
	logger *log.Logger
}

// NewGenerator builds a Generator over the given generation client.
func NewGenerator(client llm.Client, logger *log.Logger) *Generator {
	return &Generator{llm: client, logger: logger}
}

// Generate runs the drafting call and post-processes the output into a
// ready-to-review draft.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	raw, err := g.llm.Generate(ctx, prompt, generateTemperature)
	if err != nil {
		return "", fmt.Errorf("generating draft: %w", err)
	}

	cleaned := CleanDraft(ExtractFinalDraft(raw))
	if g.logger != nil {
		g.logger.Debug("draft generated", "chars", len(cleaned))
	}
	return cleaned, nil
}
