// internal/routes/route.go
//
// Route strings.
//
// Context
// -------
// A route is the domain-independent address of a content node.  It has two
// shapes:
//
//   - "/path/to/node"        when no domain applies, and
//   - "1234/path/to/node"    when the node lives under the domain root 1234.
//
// The numeric prefix is separated from the path by exactly one "/", and the
// path is always absolute ("/", "/foo", "/foo/bar").  Routes are used as
// cache keys, as redirect-url history keys, and as the lookup argument for
// content.Store.GetByRoute, so the textual form must round-trip exactly.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package routes

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidRoute is returned by Parse for strings that are not routes.
var ErrInvalidRoute = errors.New("routes: invalid route")

// Route is the parsed form of a route string.  RootID is zero when no domain
// root applies.
type Route struct {
	RootID int
	Path   string
}

// New builds a Route, normalising path to start with a slash.
func New(rootID int, path string) Route {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if rootID < 0 {
		rootID = 0
	}
	return Route{RootID: rootID, Path: path}
}

// HasRoot reports whether the route is anchored at a domain root.
func (r Route) HasRoot() bool { return r.RootID > 0 }

// String renders "{rootID}{path}" or "{path}".
func (r Route) String() string {
	if r.RootID > 0 {
		return strconv.Itoa(r.RootID) + r.Path
	}
	return r.Path
}

// Parse splits s on its first "/".  Everything before the slash must be a
// positive integer (or empty).  Legacy "-1/…" prefixes are accepted and
// mean "no root".
func Parse(s string) (Route, error) {
	pos := strings.IndexByte(s, '/')
	if pos < 0 {
		return Route{}, ErrInvalidRoute
	}
	if pos == 0 {
		return Route{Path: s}, nil
	}
	id, err := strconv.Atoi(s[:pos])
	if err != nil {
		return Route{}, ErrInvalidRoute
	}
	if id == -1 {
		return Route{Path: s[pos:]}, nil
	}
	if id <= 0 {
		return Route{}, ErrInvalidRoute
	}
	return Route{RootID: id, Path: s[pos:]}, nil
}

// Segments returns the non-empty path segments.
func (r Route) Segments() []string {
	parts := strings.Split(r.Path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// FromSegments assembles a Route from root-first segments.
func FromSegments(rootID int, segments []string) Route {
	return New(rootID, "/"+strings.Join(segments, "/"))
}
