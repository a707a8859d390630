// internal/urls/default.go
//
// Default URL provider: nice URLs from URL segments and domains.
//
// Route computation
// -----------------
// Starting at the node, URL segments are collected walking up the tree
// until a node with a regular domain is reached (or the top).  The route
// is that node's id followed by the joined segments, or just the path when
// no domain applies.  A node not published in the culture (empty segment
// anywhere on the way) has no route.  Without a domain the legacy
// HideTopLevelNodeFromPath rule drops the top segment, unless the top node
// is a root other than the one "/" resolves to.
//
// Routes are memoised in the routes cache, except for preview requests
// and for routes that resolve to another node.
package urls

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"github.com/yanizio/contentrouter/internal/content"
	"github.com/yanizio/contentrouter/internal/domain"
	"github.com/yanizio/contentrouter/internal/routes"
)

// DefaultProvider implements Provider.
type DefaultProvider struct {
	store   content.Store
	domains domain.Source
	mapper  domain.Mapper
	cache   *routes.Cache
	opts    Options
}

// NewDefaultProvider wires the provider.  mapper and cache may be nil.
func NewDefaultProvider(store content.Store, domains domain.Source, mapper domain.Mapper, cache *routes.Cache, opts Options) *DefaultProvider {
	return &DefaultProvider{store: store, domains: domains, mapper: mapper, cache: cache, opts: opts}
}

// Route returns the route of n for culture, or "".
func (p *DefaultProvider) Route(ctx context.Context, n *content.Node, culture string) string {
	preview := content.IsPreview(ctx)
	if p.cache != nil && !preview {
		if r := p.cache.Route(n.ID, culture); r != "" {
			return r
		}
	}
	r := ComputeRoute(p.store, p.domains, n, culture)
	if r == "" || p.cache == nil || preview {
		return r
	}
	// A sibling with the same segment shadows n; caching the pair would
	// route the shadowing URL to n.
	if got := p.store.GetByRoute(r, culture); got != nil && got.ID == n.ID {
		p.cache.Store(n.ID, culture, r)
	}
	return r
}

// ComputeRoute builds the route of n for culture without any cache.
func ComputeRoute(store content.Store, domains domain.Source, n *content.Node, culture string) string {
	if n == nil {
		return ""
	}
	var parts []string
	cur := n
	seg := cur.URLSegment(culture)
	hasDomain := domains.HasAssigned(cur.ID, false)
	for !hasDomain && cur != nil {
		if seg == "" {
			return ""
		}
		parts = append(parts, seg)
		cur = cur.Parent()
		if cur != nil {
			seg = cur.URLSegment(culture)
			hasDomain = domains.HasAssigned(cur.ID, false)
		}
	}
	if seg == "" {
		return ""
	}

	if !hasDomain && store.HideTopLevelNodeFromPath() && len(parts) > 0 {
		top := n
		for top.Parent() != nil {
			top = top.Parent()
		}
		if top != n || isDefaultRoot(store, n, culture) {
			parts = parts[:len(parts)-1]
		}
	}

	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	rootID := 0
	if cur != nil {
		rootID = cur.ID
	}
	return routes.FromSegments(rootID, parts).String()
}

// isDefaultRoot reports whether top-level node n is the node "/" resolves to.
func isDefaultRoot(store content.Store, n *content.Node, culture string) bool {
	root := store.GetByRoute("/", culture)
	return root != nil && root.ID == n.ID
}

// GetURL implements Provider.
func (p *DefaultProvider) GetURL(ctx context.Context, n *content.Node, mode Mode, culture string, current *url.URL) (*Info, error) {
	route := p.Route(ctx, n, culture)
	if route == "" {
		zap.L().Debug("no route for node, most likely unpublished",
			zap.Int("node", n.ID), zap.String("culture", culture))
		return nil, nil
	}
	return p.urlFromRoute(route, mode, culture, current)
}

func (p *DefaultProvider) urlFromRoute(route string, mode Mode, culture string, current *url.URL) (*Info, error) {
	r, err := routes.Parse(route)
	if err != nil {
		return nil, nil
	}
	var d *domain.DomainAndURI
	if r.HasRoot() {
		d, err = domain.DomainForNode(p.domains, p.mapper, r.RootID, current, culture)
		if err != nil {
			return nil, err
		}
	}
	info := URL(p.opts.assemble(d, r.Path, current, mode), culture)
	return &info, nil
}

// GetOtherURLs returns one absolute URL per domain that serves n, walking
// up to the nearest ancestor with domains.
func (p *DefaultProvider) GetOtherURLs(ctx context.Context, n *content.Node, current *url.URL) ([]Info, error) {
	domains, err := domainsUp(p.domains, p.mapper, n, current, true)
	if err != nil || len(domains) == 0 {
		return nil, err
	}

	var out []Info
	for _, d := range domains {
		route := p.Route(ctx, n, d.Culture)
		if route == "" {
			continue
		}
		out = append(out, URL(p.opts.absolute(d, routePath(route)), d.Culture))
	}
	return out, nil
}

// domainsUp returns the domains of n, or of its nearest ancestor that has
// any.  Ancestors exclude their default domain when excludeParentDefault.
func domainsUp(src domain.Source, mapper domain.Mapper, n *content.Node, current *url.URL, excludeParentDefault bool) ([]*domain.DomainAndURI, error) {
	ds, err := domain.DomainsForNode(src, mapper, n.ID, current, false)
	for cur := n; err == nil && len(ds) == 0 && cur != nil; {
		cur = cur.Parent()
		if cur == nil {
			break
		}
		ds, err = domain.DomainsForNode(src, mapper, cur.ID, current, excludeParentDefault)
	}
	return ds, err
}
