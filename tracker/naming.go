package tracker

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// LinkField is the internal name of the reflexive resource link. On the wire
// the service calls it "self".
const LinkField = "url"

// wireLinkField is the wire name of the reflexive resource link.
const wireLinkField = "self"

// WireName converts an identifier into the name the service expects on the
// wire. The reflexive link identifier always becomes "self".
func WireName(name string) string {
	if name == LinkField {
		return wireLinkField
	}
	return CamelCase(name)
}

// CamelCase converts snake_case or kebab-case into lowerCamelCase. The first
// word is kept as given, so one-word identifiers pass through unchanged.
// A trailing underscore, as in "type_", is dropped.
func CamelCase(name string) string {
	if name == "" {
		return name
	}

	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})
	if len(words) == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(len(name))
	b.WriteString(words[0])
	// Casers carry state and must not be shared across goroutines.
	caser := cases.Title(language.Und)
	for _, w := range words[1:] {
		b.WriteString(caser.String(w))
	}
	return b.String()
}

// foldName reduces an identifier to a form where Go field names, snake_case
// argument names and camelCase wire names compare equal.
func foldName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if r == '_' || r == '-' {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}
