package finder

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/yanizio/contentrouter/internal/content"
	"github.com/yanizio/contentrouter/internal/domain"
	"github.com/yanizio/contentrouter/internal/notfound"
	"github.com/yanizio/contentrouter/internal/published"
)

// Configured404 is the last-chance finder.  It sets the configured 404
// page for the request culture and always marks the request as a 404.
type Configured404 struct {
	store   content.Store
	domains domain.Source
	pages   *notfound.Resolver
}

// NewConfigured404 returns the finder.
func NewConfigured404(store content.Store, domains domain.Source, pages *notfound.Resolver) *Configured404 {
	return &Configured404{store: store, domains: domains, pages: pages}
}

func (f *Configured404) Name() string { return "configured_404" }

// TryFind implements Finder.  It reports whether a 404 page was found.
func (f *Configured404) TryFind(_ context.Context, req *published.Request) (bool, error) {
	c := f.culture(req)

	var n *content.Node
	if id := f.pages.PageID(f.store, c); id > 0 {
		n = f.store.GetByID(id)
	}
	if n == nil {
		zap.L().Debug("no 404 page configured", zap.String("culture", c))
	}
	if err := req.SetPublishedContent(n); err != nil {
		return false, err
	}
	if err := req.SetIs404(true); err != nil {
		return false, err
	}
	return n != nil, nil
}

// culture is the domain culture, else the culture of the closest wildcard
// domain above the deepest existing ancestor route, else the request
// culture.
func (f *Configured404) culture(req *published.Request) string {
	if d := req.Domain(); d != nil {
		return d.Culture
	}

	route := requestPath(req)
	var n *content.Node
	for pos := strings.LastIndexByte(route, '/'); pos > 0 && n == nil; pos = strings.LastIndexByte(route, '/') {
		route = route[:pos]
		n = f.store.GetByRoute(route, req.Culture())
	}
	if n != nil {
		if d, ok := domain.FindWildcardDomainInPath(f.domains.GetAll(true), n.Path(), 0); ok && d.Culture != "" {
			return d.Culture
		}
	}
	return req.Culture()
}
