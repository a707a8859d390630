// internal/routes/slug.go
//
// URL segment helpers.
//
// • MakeSegment(name) ─ converts a node name into a URL-safe segment
//   restricted to lower-case letters, digits, and "-".
// • JoinPaths(a, b)   ─ joins two URL paths without doubling separators.
//
// Rules (MakeSegment)
// -------------------
// 1. Lower-case everything.
// 2. Convert any run of characters that are not letters or digits to one
//    "-".  Unicode letters survive; the culture tables never transliterate.
// 3. Trim leading / trailing "-".
// 4. If the result is empty, return "item".
//
// Notes
// -----
// • Segments are max 100 runes; content editors may set an explicit
//   URL name when they need something longer.
package routes

import (
	"strings"
	"unicode"
)

const maxSegmentRunes = 100

// MakeSegment converts a node name to a lower-kebab URL segment.
func MakeSegment(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	lastWasDash := false
	n := 0
	for _, r := range strings.ToLower(name) {
		if n >= maxSegmentRunes {
			break
		}
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			lastWasDash = false
		default:
			if !lastWasDash {
				b.WriteRune('-')
				lastWasDash = true
			}
		}
		n++
	}

	seg := strings.Trim(b.String(), "-")
	if seg == "" {
		return "item"
	}
	return seg
}

// JoinPaths appends path2 to path1.  The result never ends with "/" unless
// it is the root path itself.
func JoinPaths(path1, path2 string) string {
	p := strings.TrimRight(path1, "/") + path2
	if p == "/" {
		return p
	}
	p = strings.TrimRight(p, "/")
	if p == "" {
		return "/"
	}
	return p
}
