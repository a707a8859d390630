// Package culture normalises culture tags ("en-us", "EN_US", "fr") into the
// canonical BCP 47 form used as map keys throughout the routing pipeline.
// Comparison of culture names is always case-insensitive.
package culture

import (
	"strings"

	"golang.org/x/text/language"
)

// Invariant is the empty culture used for values that do not vary.
const Invariant = ""

// Canonical returns the canonical tag for s, or s trimmed when it does not
// parse.  Underscores are accepted as separators.
func Canonical(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return Invariant
	}
	tag, err := language.Parse(strings.ReplaceAll(s, "_", "-"))
	if err != nil {
		return s
	}
	return tag.String()
}

// Parse is Canonical with an error for callers that must reject bad input,
// such as the ?culture= query parameter.
func Parse(s string) (string, error) {
	tag, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(s), "_", "-"))
	if err != nil {
		return "", err
	}
	return tag.String(), nil
}

// Equal compares two culture names case-insensitively.
func Equal(a, b string) bool {
	return strings.EqualFold(Canonical(a), Canonical(b))
}
