// Package draft turns an assembled prompt into a clean reply draft:
// generation call, output post-processing, and greeting/closing/signature
// component resolution.
package draft

import (
	"regexp"
	"strings"

	"github.com/aly2302/email-assistant-llm/internal/assembly"
)

var (
	// Models sometimes echo the whole prompt back. When the marker is
	// missing entirely, the first greeting word is the next best anchor for
	// where the actual reply starts.
	greetingFallbackRe = regexp.MustCompile(`(?i)(Bom dia|Boa tarde|Boa noite|Olá)[\s\S]*`)

	bodyPlaceholderRe = regexp.MustCompile(`\[(?:Corpo do email|corpo da mensagem|email body)\]`)
	excessNewlinesRe  = regexp.MustCompile(`\n{3,}`)
)

// ExtractFinalDraft isolates the reply text from raw model output. The text
// after the last final-draft marker wins; without a marker the greeting
// fallback applies; with neither, the raw output comes back as-is.
// Extraction never fails.
func ExtractFinalDraft(raw string) string {
	if idx := strings.LastIndex(raw, assembly.FinalDraftMarker); idx >= 0 {
		return raw[idx+len(assembly.FinalDraftMarker):]
	}
	if m := greetingFallbackRe.FindString(raw); m != "" {
		return m
	}
	return raw
}

// CleanDraft normalizes an extracted draft: placeholder scaffolding
// removed, runs of blank lines collapsed, surrounding whitespace trimmed.
func CleanDraft(text string) string {
	text = bodyPlaceholderRe.ReplaceAllString(text, "")
	text = excessNewlinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
