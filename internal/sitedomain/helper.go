// internal/sitedomain/helper.go
//
// Site-domain mapping for nodes reachable through several domains.
//
// Context
// -------
// A "site" is a named group of authorities ("example.com",
// "www.example.com").  Sites may be bound together; bindings are
// transitive, so binding (a, b) then (b, c) binds a, b, and c to each
// other.  When a node has several domains and none is a base of the
// current request, the helper prefers:
//
//  1. a domain of the site that contains the current authority,
//  2. then a domain of a site bound to it,
//  3. then a domain of any other site, in declaration order,
//  4. then a domain of the requested culture, else the first domain.
//
// With no sites configured the choice is culture, default culture, first.
//
// Notes
// -----
// • Authorities without scheme are qualified with the current request
//   scheme; qualified lists are memoised per scheme.
// • Oxford commas, two spaces after periods.
package sitedomain

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/yanizio/contentrouter/internal/culture"
	"github.com/yanizio/contentrouter/internal/domain"
)

var (
	// ErrInvalidSiteDomain is returned by AddSite for malformed authorities.
	ErrInvalidSiteDomain = errors.New("sitedomain: invalid domain")
	// ErrUnknownSite is returned by BindSites for undeclared keys.
	ErrUnknownSite = errors.New("sitedomain: unknown site")
)

var domainValidation = regexp.MustCompile(`^(\*|((?i:http[s]?://)?([-\w]+(\.[-\w]+)*)(:\d+)?(/)?))$`)

type site struct {
	key     string
	domains []string
}

// Helper implements domain.Mapper.  Safe for concurrent use.
type Helper struct {
	mu        sync.RWMutex
	sites     []site
	bindings  map[string][]string
	qualified map[string][]site
}

// New returns a Helper with no sites.
func New() *Helper { return &Helper{} }

// AddSite declares or replaces site key.
func (h *Helper) AddSite(key string, domains ...string) error {
	clean := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.TrimSpace(d)
		if !domainValidation.MatchString(d) {
			return fmt.Errorf("%w: %q", ErrInvalidSiteDomain, d)
		}
		clean = append(clean, strings.ToLower(d))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.sites {
		if h.sites[i].key == key {
			h.sites[i].domains = clean
			h.qualified = nil
			return nil
		}
	}
	h.sites = append(h.sites, site{key: key, domains: clean})
	h.qualified = nil
	return nil
}

// RemoveSite drops site key and every binding that mentions it.
func (h *Helper) RemoveSite(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := range h.sites {
		if h.sites[i].key == key {
			h.sites = append(h.sites[:i], h.sites[i+1:]...)
			break
		}
	}
	delete(h.bindings, key)
	for k, bound := range h.bindings {
		h.bindings[k] = without(bound, key)
		if len(h.bindings[k]) == 0 {
			delete(h.bindings, k)
		}
	}
	h.qualified = nil
}

// BindSites binds keys to each other, merging any existing bindings.
func (h *Helper) BindSites(keys ...string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, k := range keys {
		if !h.hasSite(k) {
			return fmt.Errorf("%w: %q", ErrUnknownSite, k)
		}
	}
	if h.bindings == nil {
		h.bindings = make(map[string][]string)
	}

	all := append([]string(nil), keys...)
	for _, k := range keys {
		all = union(all, h.bindings[k])
	}
	for _, k := range all {
		for _, other := range all {
			if other != k && !contains(h.bindings[k], other) {
				h.bindings[k] = append(h.bindings[k], other)
			}
		}
	}
	return nil
}

// Clear removes every site and binding.
func (h *Helper) Clear() {
	h.mu.Lock()
	h.sites, h.bindings, h.qualified = nil, nil, nil
	h.mu.Unlock()
}

// Bindings returns the keys bound to key.
func (h *Helper) Bindings(key string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]string(nil), h.bindings[key]...)
}

// HasSites reports whether any site is declared.
func (h *Helper) HasSites() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sites) > 0
}

// MapDomain picks one of candidates for current.  It panics on an empty
// candidate list, which callers never pass.
func (h *Helper) MapDomain(candidates []*domain.DomainAndURI, current *url.URL, cultureName, defaultCulture string) *domain.DomainAndURI {
	if current == nil {
		return byCulture(candidates, cultureName, defaultCulture)
	}
	h.mu.Lock()
	sites := h.qualifiedLocked(current.Scheme)
	bindings := h.bindingsOf(sites, domain.Authority(current))
	h.mu.Unlock()
	return mapDomain(candidates, sites, bindings, domain.Authority(current), cultureName, defaultCulture)
}

func (h *Helper) bindingsOf(sites []site, authority string) []string {
	cur, ok := siteOf(sites, authority)
	if !ok {
		return nil
	}
	return append([]string(nil), h.bindings[cur.key]...)
}

func mapDomain(candidates []*domain.DomainAndURI, sites []site, bound []string, authority, cultureName, defaultCulture string) *domain.DomainAndURI {
	if len(sites) == 0 {
		return byCulture(candidates, cultureName, defaultCulture)
	}

	cur, inSite := siteOf(sites, authority)
	if inSite {
		if d := firstIn(candidates, cur); d != nil {
			return d
		}
		for _, s := range sites {
			if contains(bound, s.key) {
				if d := firstIn(candidates, s); d != nil {
					return d
				}
			}
		}
	}
	for _, s := range sites {
		if inSite && s.key == cur.key {
			continue
		}
		if d := firstIn(candidates, s); d != nil {
			return d
		}
	}
	return byCulture(candidates, cultureName, "")
}

// MapDomains returns the candidates to list as other URLs for current.
// With excludeDefault the domain that already serves current (or the one
// MapDomain would pick) is left out.  When current belongs to a site only
// domains of that site and of sites bound to it remain.
func (h *Helper) MapDomains(candidates []*domain.DomainAndURI, current *url.URL, excludeDefault bool, cultureName, defaultCulture string) []*domain.DomainAndURI {
	if current == nil {
		return candidates
	}
	authority := domain.Authority(current)

	h.mu.Lock()
	sites := h.qualifiedLocked(current.Scheme)
	bound := h.bindingsOf(sites, authority)
	h.mu.Unlock()

	ret := candidates
	if excludeDefault && len(candidates) > 0 {
		var hinted *domain.DomainAndURI
		for _, d := range candidates {
			if d.IsBaseOf(current) {
				hinted = d
				break
			}
		}
		if hinted == nil {
			hinted = mapDomain(candidates, sites, bound, authority, cultureName, defaultCulture)
		}
		ret = make([]*domain.DomainAndURI, 0, len(candidates))
		for _, d := range candidates {
			if d != hinted {
				ret = append(ret, d)
			}
		}
	}

	cur, inSite := siteOf(sites, authority)
	if !inSite {
		return ret
	}
	allowed := []site{cur}
	for _, s := range sites {
		if contains(bound, s.key) {
			allowed = append(allowed, s)
		}
	}

	out := make([]*domain.DomainAndURI, 0, len(ret))
	for _, d := range ret {
		for _, s := range allowed {
			if contains(s.domains, d.Authority()) {
				out = append(out, d)
				break
			}
		}
	}
	return out
}

// qualifiedLocked returns the sites with authorities qualified for scheme.
// Caller holds h.mu.
func (h *Helper) qualifiedLocked(scheme string) []site {
	scheme = strings.ToLower(scheme)
	if scheme == "" {
		scheme = "http"
	}
	if q, ok := h.qualified[scheme]; ok {
		return q
	}
	out := make([]site, 0, len(h.sites))
	for _, s := range h.sites {
		qs := site{key: s.key}
		for _, d := range s.domains {
			if d == "*" {
				continue
			}
			if !strings.Contains(d, "://") {
				d = scheme + "://" + d
			}
			u, err := url.Parse(d)
			if err != nil || u.Host == "" {
				continue
			}
			qs.domains = append(qs.domains, domain.Authority(u))
		}
		out = append(out, qs)
	}
	if h.qualified == nil {
		h.qualified = make(map[string][]site)
	}
	h.qualified[scheme] = out
	return out
}

func (h *Helper) hasSite(key string) bool {
	for _, s := range h.sites {
		if s.key == key {
			return true
		}
	}
	return false
}

func siteOf(sites []site, authority string) (site, bool) {
	for _, s := range sites {
		if contains(s.domains, authority) {
			return s, true
		}
	}
	return site{}, false
}

func firstIn(candidates []*domain.DomainAndURI, s site) *domain.DomainAndURI {
	for _, d := range candidates {
		if contains(s.domains, d.Authority()) {
			return d
		}
	}
	return nil
}

func byCulture(candidates []*domain.DomainAndURI, cultureName, defaultCulture string) *domain.DomainAndURI {
	for _, c := range []string{cultureName, defaultCulture} {
		if c == "" {
			continue
		}
		for _, d := range candidates {
			if culture.Equal(d.Culture, c) {
				return d
			}
		}
	}
	return candidates[0]
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func union(a, b []string) []string {
	for _, v := range b {
		if !contains(a, v) {
			a = append(a, v)
		}
	}
	return a
}

func without(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

// Site is one declared site, as read from configuration.
type Site struct {
	Key     string
	Domains []string
}

// Configure replaces every site and binding of h.
func (h *Helper) Configure(sites []Site, bindings [][]string) error {
	h.Clear()
	for _, s := range sites {
		if err := h.AddSite(s.Key, s.Domains...); err != nil {
			return fmt.Errorf("site %q: %w", s.Key, err)
		}
	}
	for _, group := range bindings {
		if err := h.BindSites(group...); err != nil {
			return err
		}
	}
	return nil
}
