// internal/domain/select.go
//
// Domain selection for an incoming URI or an outgoing URL.
//
// Algorithm (SelectDomain)
// ------------------------
//  1. Drop wildcard domains, resolve the rest to absolute URIs, and sort
//     them descending on the URI string so "example.com/fr" is tried
//     before "example.com".
//  2. No URI: pick by culture, then default culture, then the first.
//  3. When some domains carry the requested culture, use only those; a
//     single one wins outright.
//  4. The first domain whose URI is a base of the request URI wins; the
//     test is retried with the request port removed.
//  5. Otherwise the filter (usually the site-domain mapper) must choose.
//     A filter returning nil is a configuration error.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package domain

import (
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/yanizio/contentrouter/internal/culture"
)

// ErrFilterReturnedNil is returned when a Filter declines to choose.
var ErrFilterReturnedNil = errors.New("domain: filter returned nil")

// Filter picks one domain among candidates.  It must not return nil when
// candidates is non-empty.
type Filter func(candidates []*DomainAndURI, current *url.URL, culture, defaultCulture string) *DomainAndURI

// Mapper chooses between several domains of one node.  The site-domain
// helper implements it.
type Mapper interface {
	MapDomain(candidates []*DomainAndURI, current *url.URL, culture, defaultCulture string) *DomainAndURI
	MapDomains(candidates []*DomainAndURI, current *url.URL, excludeDefault bool, culture, defaultCulture string) []*DomainAndURI
}

// SelectDomain returns the best domain for uri, or nil when none applies.
func SelectDomain(domains []Domain, uri *url.URL, cultureName, defaultCulture string, filter Filter) (*DomainAndURI, error) {
	all, err := SelectDomains(domains, uri)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}

	cultureName = strings.TrimSpace(cultureName)
	defaultCulture = strings.TrimSpace(defaultCulture)

	if uri == nil {
		return byCulture(all, cultureName, defaultCulture), nil
	}

	candidates := all
	cultureDomains := selectByCulture(all, cultureName)
	if cultureDomains != nil {
		if len(cultureDomains) == 1 {
			return cultureDomains[0], nil
		}
		candidates = cultureDomains
	}

	if base := selectByBase(candidates, uri); len(base) > 0 {
		return base[0], nil
	}

	if filter == nil {
		return nil, nil
	}
	d := filter(candidates, uri, cultureName, defaultCulture)
	if d == nil {
		return nil, ErrFilterReturnedNil
	}
	return d, nil
}

// SelectDomains resolves every regular domain against uri, sorted
// descending on URI.
func SelectDomains(domains []Domain, uri *url.URL) ([]*DomainAndURI, error) {
	out := make([]*DomainAndURI, 0, len(domains))
	for _, d := range domains {
		if d.IsWildcard {
			continue
		}
		du, err := NewDomainAndURI(d, uri)
		if err != nil {
			return nil, err
		}
		out = append(out, du)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].String() > out[j].String() })
	return out, nil
}

func selectByBase(candidates []*DomainAndURI, uri *url.URL) []*DomainAndURI {
	var out []*DomainAndURI
	for _, d := range candidates {
		if d.IsBaseOf(uri) {
			out = append(out, d)
		}
	}
	if len(out) > 0 || uri.Port() == "" {
		return out
	}
	bare := WithoutPort(uri)
	for _, d := range candidates {
		if d.IsBaseOf(bare) {
			out = append(out, d)
		}
	}
	return out
}

// selectByCulture returns the domains of cultureName, or nil when there
// are none.
func selectByCulture(all []*DomainAndURI, cultureName string) []*DomainAndURI {
	if cultureName == "" {
		return nil
	}
	var out []*DomainAndURI
	for _, d := range all {
		if culture.Equal(d.Culture, cultureName) {
			out = append(out, d)
		}
	}
	return out
}

func firstByCulture(all []*DomainAndURI, _ *url.URL, cultureName, defaultCulture string) *DomainAndURI {
	return byCulture(all, cultureName, defaultCulture)
}

func byCulture(all []*DomainAndURI, cultureName, defaultCulture string) *DomainAndURI {
	for _, c := range []string{cultureName, defaultCulture} {
		if c == "" {
			continue
		}
		for _, d := range all {
			if culture.Equal(d.Culture, c) {
				return d
			}
		}
	}
	return all[0]
}

// DomainForNode returns the domain to use when building a URL for nodeID,
// or nil when the node has no regular domain.
func DomainForNode(src Source, mapper Mapper, nodeID int, current *url.URL, cultureName string) (*DomainAndURI, error) {
	if nodeID <= 0 {
		return nil, nil
	}
	domains := src.GetAssigned(nodeID, false)
	if len(domains) == 0 {
		return nil, nil
	}
	filter := Filter(firstByCulture)
	if mapper != nil {
		filter = mapper.MapDomain
	}
	return SelectDomain(domains, current, cultureName, src.DefaultCulture(), filter)
}

// DomainsForNode returns every domain of nodeID, mapped against current.
// With excludeDefault the domain DomainForNode would pick is left out.
func DomainsForNode(src Source, mapper Mapper, nodeID int, current *url.URL, excludeDefault bool) ([]*DomainAndURI, error) {
	if nodeID <= 0 {
		return nil, nil
	}
	domains := src.GetAssigned(nodeID, false)
	if len(domains) == 0 {
		return nil, nil
	}
	all, err := SelectDomains(domains, current)
	if err != nil {
		return nil, err
	}
	if mapper == nil || current == nil {
		return all, nil
	}
	return mapper.MapDomains(all, current, excludeDefault, "", src.DefaultCulture()), nil
}

// FindWildcardDomainInPath walks path ("-1,1000,1001") from the deepest
// node upwards, stopping before rootID (or the top when rootID <= 0), and
// returns the first wildcard domain found.
func FindWildcardDomainInPath(domains []Domain, path string, rootID int) (Domain, bool) {
	var found Domain
	ok := walkPath(path, rootID, func(id int) bool {
		for _, d := range domains {
			if d.ContentID == id && d.IsWildcard {
				found = d
				return true
			}
		}
		return false
	})
	return found, ok
}

// ExistsDomainInPath reports whether a regular domain is bound to a node of
// path below rootID.
func ExistsDomainInPath(domains []Domain, path string, rootID int) bool {
	return walkPath(path, rootID, func(id int) bool {
		for _, d := range domains {
			if d.ContentID == id && !d.IsWildcard {
				return true
			}
		}
		return false
	})
}

func walkPath(path string, rootID int, fn func(id int) bool) bool {
	stop := rootID
	if stop <= 0 {
		stop = -1
	}
	parts := strings.Split(path, ",")
	for i := len(parts) - 1; i >= 0; i-- {
		id, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || id == stop {
			return false
		}
		if fn(id) {
			return true
		}
	}
	return false
}

// PathRelativeToDomain strips the domain path from path: with domain
// "example.com/fr", "/fr/page" becomes "/page".
func PathRelativeToDomain(domainURI *url.URL, path string) string {
	prefix := strings.TrimRight(domainURI.Path, "/")
	if len(path) >= len(prefix) && strings.EqualFold(path[:len(prefix)], prefix) {
		path = path[len(prefix):]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}
