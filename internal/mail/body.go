package mail

import (
	"encoding/base64"
	"regexp"
	"strings"

	"github.com/jaytaylor/html2text"
	gmail "google.golang.org/api/gmail/v1"
)

var excessNewlinesRe = regexp.MustCompile(`\n{3,}`)

// ExtractBody walks a message payload and returns the best plain-text
// rendition of the body. The first text/plain part wins; otherwise the
// first text/html part is stripped to text. Extraction is best effort and
// returns "" when nothing decodable is found.
func ExtractBody(payload *gmail.MessagePart) string {
	if payload == nil {
		return ""
	}

	plain, html := collectParts(payload)
	body := plain
	if body == "" && html != "" {
		if text, err := html2text.FromString(html, html2text.Options{OmitLinks: true, TextOnly: true}); err == nil {
			body = text
		}
	}

	body = excessNewlinesRe.ReplaceAllString(body, "\n\n")
	return strings.TrimSpace(body)
}

// collectParts finds the first plain and first HTML bodies, recursing into
// multipart containers.
func collectParts(part *gmail.MessagePart) (plain, html string) {
	if part.Body != nil && part.Body.Data != "" {
		if decoded, ok := decodeBodyData(part.Body.Data); ok {
			switch {
			case strings.HasPrefix(part.MimeType, "text/plain"):
				plain = decoded
			case strings.HasPrefix(part.MimeType, "text/html"):
				html = decoded
			}
		}
	}

	for _, child := range part.Parts {
		p, h := collectParts(child)
		if plain == "" {
			plain = p
		}
		if html == "" {
			html = h
		}
		if plain != "" && html != "" {
			break
		}
	}
	return plain, html
}

// decodeBodyData decodes the base64url payload the Gmail API uses, with and
// without padding.
func decodeBodyData(data string) (string, bool) {
	if decoded, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(decoded), true
	}
	if decoded, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return string(decoded), true
	}
	return "", false
}
