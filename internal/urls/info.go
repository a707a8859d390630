// Package urls turns content nodes back into URLs.
//
// The Resolver runs an ordered list of Providers and returns the first
// URL one of them produces, or "#" when none can.  Providers mirror the
// content finders: the default provider builds the nice URL from URL
// segments and domains, the alias provider lists URL aliases, and the
// custom-route provider serves configured paths.
package urls

import (
	"fmt"
	"strings"
)

// NoURL is returned for nodes that have no valid URL.
const NoURL = "#"

// Info is one URL (or a human message in place of one) with its culture.
type Info struct {
	Text    string
	IsURL   bool
	Culture string
}

// URL builds an Info holding a URL.
func URL(text, culture string) Info { return Info{Text: text, IsURL: true, Culture: culture} }

// Message builds an Info holding a message.
func Message(text, culture string) Info { return Info{Text: text, Culture: culture} }

// Equal compares text and culture case-insensitively.
func (i Info) Equal(o Info) bool {
	return i.IsURL == o.IsURL &&
		strings.EqualFold(i.Text, o.Text) &&
		strings.EqualFold(i.Culture, o.Culture)
}

// Key returns a case-folded key suitable for de-duplication maps.
func (i Info) Key() string {
	return fmt.Sprintf("%t|%s|%s", i.IsURL, strings.ToLower(i.Culture), strings.ToLower(i.Text))
}

func (i Info) String() string { return i.Text }

// Mode selects how URLs are rendered.
type Mode int

const (
	// Default defers to the configured mode.
	Default Mode = iota
	// Auto is relative when the domain matches the current authority.
	Auto
	// Relative renders path-only URLs.
	Relative
	// Absolute renders scheme and authority.
	Absolute
	// AutoLegacy is Auto, or Absolute when domain prefixes are on.
	AutoLegacy
)

// ParseMode parses a configuration value ("auto", "relative", …).  The
// empty string is Default.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return Default, nil
	case "auto":
		return Auto, nil
	case "relative":
		return Relative, nil
	case "absolute":
		return Absolute, nil
	case "autolegacy", "auto_legacy", "auto-legacy":
		return AutoLegacy, nil
	}
	return Default, fmt.Errorf("urls: unknown mode %q", s)
}

func (m Mode) String() string {
	switch m {
	case Auto:
		return "auto"
	case Relative:
		return "relative"
	case Absolute:
		return "absolute"
	case AutoLegacy:
		return "autolegacy"
	}
	return "default"
}
