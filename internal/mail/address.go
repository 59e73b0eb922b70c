package mail

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Sender identifies who wrote the incoming email.
type Sender struct {
	// Name is the display name, "" when unknown or suppressed.
	Name string

	// Email is the lowercased address, "" when none was found.
	Email string
}

var (
	fromPrefixRe = regexp.MustCompile(`(?i)^\s*(?:from|de):\s*`)
	angleAddrRe  = regexp.MustCompile(`"?([^"<]*?)"?\s*<([^>\s]+@[^>\s]+)>`)
	bareAddrRe   = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
)

// DefaultGenericSenders are substrings that mark an address or display name
// as an organizational mailbox rather than a person. Drafts addressed to
// these get a greeting without a name.
var DefaultGenericSenders = []string{
	"secretariado",
	"secretaria",
	"equipa",
	"suporte",
	"noreply",
	"no-reply",
	"info@",
	"geral@",
}

var titleCaser = cases.Title(language.Und)

// ExtractSender parses a From/De header value (or a quoted "From:" line
// inside a body) into a Sender. When the display name is missing or is
// itself an address, a name is derived from the local part. Generic
// organizational senders get an empty name.
func ExtractSender(from string) Sender {
	from = fromPrefixRe.ReplaceAllString(strings.TrimSpace(from), "")

	var name, email string
	if m := angleAddrRe.FindStringSubmatch(from); m != nil {
		name = strings.TrimSpace(m[1])
		email = m[2]
	} else if m := bareAddrRe.FindString(from); m != "" {
		email = m
	} else {
		return Sender{}
	}
	email = strings.ToLower(email)

	if name == "" || strings.Contains(name, "@") {
		name = nameFromLocalPart(email)
	}

	if isGenericSender(name, email) {
		name = ""
	}

	return Sender{Name: name, Email: email}
}

// FirstName returns the first word of the sender's name for greeting
// substitution, "" when no name is known.
func (s Sender) FirstName() string {
	fields := strings.Fields(s.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// nameFromLocalPart turns "joao.silva" or "joao_silva" into "Joao Silva".
func nameFromLocalPart(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found || local == "" {
		return ""
	}
	local = strings.ReplaceAll(local, ".", " ")
	local = strings.ReplaceAll(local, "_", " ")
	return titleCaser.String(strings.TrimSpace(local))
}

func isGenericSender(name, email string) bool {
	lowered := strings.ToLower(name) + " " + email
	for _, marker := range DefaultGenericSenders {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}
