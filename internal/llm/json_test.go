package llm

import (
	"errors"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		want  string
		found bool
	}{
		{
			name:  "bare object",
			raw:   `{"a": 1}`,
			want:  `{"a": 1}`,
			found: true,
		},
		{
			name:  "fenced json block",
			raw:   "```json\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
			found: true,
		},
		{
			name:  "fenced block without language",
			raw:   "```\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
			found: true,
		},
		{
			name:  "object surrounded by prose",
			raw:   "Here is the result:\n{\"a\": 1}\nHope this helps!",
			want:  `{"a": 1}`,
			found: true,
		},
		{
			name:  "no object at all",
			raw:   "I could not produce a classification.",
			found: false,
		},
		{
			name:  "empty response",
			raw:   "",
			found: false,
		},
		{
			name:  "whitespace only",
			raw:   "   \n\t ",
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := ExtractJSON(tt.raw)
			if found != tt.found {
				t.Fatalf("ExtractJSON() found = %v, want %v", found, tt.found)
			}
			if found && got != tt.want {
				t.Errorf("ExtractJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeObject(t *testing.T) {
	type payload struct {
		Rule string `json:"inferred_rule"`
	}

	t.Run("valid object", func(t *testing.T) {
		var p payload
		raw := "```json\n{\"inferred_rule\": \"Keep replies short.\"}\n```"
		if err := DecodeObject(raw, &p); err != nil {
			t.Fatalf("DecodeObject() error = %v", err)
		}
		if p.Rule != "Keep replies short." {
			t.Errorf("Rule = %q", p.Rule)
		}
	})

	t.Run("malformed object is a parse error", func(t *testing.T) {
		var p payload
		err := DecodeObject(`{"inferred_rule": `, &p)
		if err == nil {
			t.Fatal("DecodeObject() expected error")
		}
		if !IsKind(err, ErrParse) {
			t.Errorf("KindOf(err) = %q, want %q", KindOf(err), ErrParse)
		}
	})

	t.Run("missing object is a parse error", func(t *testing.T) {
		var p payload
		err := DecodeObject("no json here", &p)
		if !IsKind(err, ErrParse) {
			t.Errorf("KindOf(err) = %q, want %q", KindOf(err), ErrParse)
		}
	})
}

func TestErrorKinds(t *testing.T) {
	base := errors.New("boom")
	err := WrapError(ErrTransport, "request failed", base)

	if !IsKind(err, ErrTransport) {
		t.Errorf("IsKind(ErrTransport) = false")
	}
	if IsKind(err, ErrBlocked) {
		t.Errorf("IsKind(ErrBlocked) = true, want false")
	}
	if !errors.Is(err, base) {
		t.Errorf("errors.Is(err, base) = false, want true (Unwrap broken)")
	}
	if KindOf(errors.New("plain")) != "" {
		t.Errorf("KindOf(plain error) should be empty")
	}
}
