// Package normalize provides canonical forms for user-supplied identifiers.
package normalize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims an organization name and strips any markup from it.
// Case and inner spacing are preserved; collection naming applies its own rules.
func Name(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	// StrictPolicy escapes entities; undo that so "AT&T" stays "AT&T".
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
