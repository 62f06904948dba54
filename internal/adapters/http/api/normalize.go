package api

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// normalizeName trims and upper-cases a session code or nickname. The core
// compares them verbatim, so every entry point must agree on this form.
func normalizeName(s string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(s))
}
