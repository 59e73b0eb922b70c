package classify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aly2302/email-assistant-llm/internal/models"
)

type fakeLLM struct {
	response string
	err      error
	prompt   string
}

func (f *fakeLLM) Generate(_ context.Context, prompt string, _ float64) (string, error) {
	f.prompt = prompt
	return f.response, f.err
}

func (f *fakeLLM) Embed(context.Context, string) ([]float64, error) {
	return nil, errors.New("not implemented")
}

func testPersona() *models.Persona {
	return &models.Persona{
		Role:                "university student",
		RecipientCategories: []string{"professor", "colleague", "administration"},
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		response     string
		err          error
		wantCategory string
		wantTone     models.Tone
		wantName     string
		wantErr      bool
	}{
		{
			name:         "valid bare json",
			response:     `{"recipient_category": "professor", "incoming_tone": "Formal", "sender_name_guess": "Silva", "rationale": "academic request"}`,
			wantCategory: "professor",
			wantTone:     models.ToneFormal,
			wantName:     "Silva",
		},
		{
			name:         "valid fenced json",
			response:     "```json\n{\"recipient_category\": \"colleague\", \"incoming_tone\": \"Casual\", \"sender_name_guess\": \"\", \"rationale\": \"\"}\n```",
			wantCategory: "colleague",
			wantTone:     models.ToneCasual,
		},
		{
			name:         "titles stripped from name guess",
			response:     `{"recipient_category": "professor", "incoming_tone": "Very Formal", "sender_name_guess": "Prof. Dr. Almeida", "rationale": ""}`,
			wantCategory: "professor",
			wantTone:     models.ToneVeryFormal,
			wantName:     "Almeida",
		},
		{
			name:         "unknown category falls back",
			response:     `{"recipient_category": "alien", "incoming_tone": "Formal", "sender_name_guess": "", "rationale": ""}`,
			wantCategory: models.UnknownCategory,
			wantTone:     models.ToneFormal,
		},
		{
			name:         "invalid tone falls back",
			response:     `{"recipient_category": "colleague", "incoming_tone": "Shouty", "sender_name_guess": "", "rationale": ""}`,
			wantCategory: "colleague",
			wantTone:     models.ToneInformativeNeutral,
		},
		{
			name:         "malformed response degrades to defaults",
			response:     "I think this is a professor.",
			wantCategory: models.UnknownCategory,
			wantTone:     models.ToneInformativeNeutral,
			wantErr:      true,
		},
		{
			name:         "call failure degrades to defaults",
			err:          errors.New("connection refused"),
			wantCategory: models.UnknownCategory,
			wantTone:     models.ToneInformativeNeutral,
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeLLM{response: tt.response, err: tt.err}
			classifier := NewClassifier(client, nil)

			got := classifier.Classify(context.Background(), testPersona(), "Bom dia, professor.")
			if got.RecipientCategory != tt.wantCategory {
				t.Errorf("RecipientCategory = %q, want %q", got.RecipientCategory, tt.wantCategory)
			}
			if got.IncomingTone != tt.wantTone {
				t.Errorf("IncomingTone = %q, want %q", got.IncomingTone, tt.wantTone)
			}
			if got.SenderNameGuess != tt.wantName {
				t.Errorf("SenderNameGuess = %q, want %q", got.SenderNameGuess, tt.wantName)
			}
			if (got.Err != "") != tt.wantErr {
				t.Errorf("Err = %q, wantErr = %v", got.Err, tt.wantErr)
			}
		})
	}
}

func TestClassifyTruncatesLongEmails(t *testing.T) {
	client := &fakeLLM{
		response: `{"recipient_category": "unknown", "incoming_tone": "Formal", "sender_name_guess": "", "rationale": ""}`,
	}
	classifier := NewClassifier(client, nil)

	long := strings.Repeat("a", maxEmailChars+500)
	classifier.Classify(context.Background(), testPersona(), long)

	if !strings.Contains(client.prompt, truncationMarker) {
		t.Error("prompt for a long email should carry the truncation marker")
	}
	if strings.Contains(client.prompt, long) {
		t.Error("prompt should not carry the full untruncated email")
	}
}

func TestStripTitles(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Prof. Silva", "Silva"},
		{"Prof. Dr. Almeida", "Almeida"},
		{"Dra. Ana Costa", "Ana Costa"},
		{"Eng Marques", "Marques"},
		{"Maria", "Maria"},
		{"  Sr. Pereira  ", "Pereira"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := StripTitles(tt.in); got != tt.want {
			t.Errorf("StripTitles(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
