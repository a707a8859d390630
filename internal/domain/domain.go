// internal/domain/domain.go
//
// Domain bindings and their normalised URIs.
//
// Context
// -------
// A Domain binds a host name (optionally with a sub-path, "example.com/fr")
// to a content root and a culture.  Two kinds exist:
//
//   - regular domains, which take part in host matching, and
//   - wildcard domains (name empty or starting with "*"), which only supply
//     a culture for the nodes below their root.
//
// DomainAndURI pairs a regular domain with an absolute URI built against the
// current request: a name starting with "/" borrows the request authority,
// a name without scheme borrows the request scheme (http when there is no
// request), and the trailing slash is trimmed.
//
// Notes
// -----
// • Hosts and schemes are lower-cased; default ports are dropped.
// • Oxford commas, two spaces after periods.
package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/yanizio/contentrouter/internal/culture"
)

// ErrInvalidDomain is returned when a domain name cannot form a URI.
var ErrInvalidDomain = errors.New("domain: invalid domain name")

// Domain is one immutable domain binding.
type Domain struct {
	ID         int
	Name       string
	ContentID  int
	Culture    string
	IsWildcard bool
	SortOrder  int
}

// New builds a Domain and derives the wildcard flag from name.
func New(id int, name string, contentID int, cultureName string, sortOrder int) Domain {
	name = strings.TrimSpace(name)
	return Domain{
		ID:         id,
		Name:       name,
		ContentID:  contentID,
		Culture:    culture.Canonical(cultureName),
		IsWildcard: name == "" || strings.HasPrefix(name, "*"),
		SortOrder:  sortOrder,
	}
}

// DomainAndURI is a regular domain with its absolute URI.
type DomainAndURI struct {
	Domain
	URI *url.URL
}

// NewDomainAndURI resolves d against current, which may be nil.
func NewDomainAndURI(d Domain, current *url.URL) (*DomainAndURI, error) {
	name := d.Name
	if strings.HasPrefix(name, "/") && current != nil {
		name = Authority(current) + name
	}
	scheme := "http"
	if current != nil && current.Scheme != "" {
		scheme = current.Scheme
	}
	if !strings.Contains(name, "://") {
		name = scheme + "://" + name
	}

	u, err := url.Parse(name)
	if err != nil || u.Host == "" || strings.ContainsAny(u.Host, "*/ ") {
		return nil, fmt.Errorf("%w: node id=%d, hostname=%q", ErrInvalidDomain, d.ContentID, d.Name)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = stripDefaultPort(u.Scheme, strings.ToLower(u.Host))
	u.RawQuery, u.Fragment, u.RawPath = "", "", ""
	u.Path = strings.TrimRight(u.Path, "/")
	if u.Path == "" {
		u.Path = "/"
	}
	return &DomainAndURI{Domain: d, URI: u}, nil
}

// String renders the normalised URI, "http://example.com/fr".
func (d *DomainAndURI) String() string { return d.URI.String() }

// Authority returns "scheme://host[:port]" of the domain.
func (d *DomainAndURI) Authority() string { return Authority(d.URI) }

// AbsPath returns the decoded domain path, "/" or "/fr".
func (d *DomainAndURI) AbsPath() string { return d.URI.Path }

// IsBaseOf reports whether the domain URI, ending with a slash, is a prefix
// of u ending with a slash.  Comparison ignores case and default ports.
func (d *DomainAndURI) IsBaseOf(u *url.URL) bool {
	if u == nil {
		return false
	}
	if !strings.EqualFold(Authority(d.URI), Authority(u)) {
		return false
	}
	return strings.HasPrefix(strings.ToLower(withSlash(u.Path)), strings.ToLower(withSlash(d.URI.Path)))
}

// Authority returns "scheme://host[:port]" of u with default ports dropped.
func Authority(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	if scheme == "" {
		scheme = "http"
	}
	return scheme + "://" + stripDefaultPort(scheme, strings.ToLower(u.Host))
}

// WithoutPort returns a copy of u without its port.
func WithoutPort(u *url.URL) *url.URL {
	c := *u
	c.Host = u.Hostname()
	if strings.Contains(c.Host, ":") {
		c.Host = "[" + c.Host + "]"
	}
	return &c
}

func stripDefaultPort(scheme, host string) string {
	switch {
	case scheme == "http" && strings.HasSuffix(host, ":80"):
		return strings.TrimSuffix(host, ":80")
	case scheme == "https" && strings.HasSuffix(host, ":443"):
		return strings.TrimSuffix(host, ":443")
	}
	return host
}

func withSlash(p string) string {
	if strings.HasSuffix(p, "/") {
		return p
	}
	return p + "/"
}
