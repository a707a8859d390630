// internal/urls/custom.go
//
// Custom-route provider.  Paths configured under custom_routes are served
// by the HTTP layer with pre-assigned content; this provider makes the
// first configured path the node's URL and lists the rest as alternates.
// The route table may be swapped at runtime with Set.
package urls

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/yanizio/contentrouter/internal/content"
)

// CustomRoute binds a fixed path to a node.
type CustomRoute struct {
	Path      string
	ContentID int
}

// CustomRouteProvider implements Provider.
type CustomRouteProvider struct {
	mu     sync.RWMutex
	byNode map[int][]string
	opts   Options
}

// NewCustomRouteProvider indexes routes by node, keeping declaration
// order.
func NewCustomRouteProvider(rs []CustomRoute, opts Options) *CustomRouteProvider {
	p := &CustomRouteProvider{opts: opts}
	p.Set(rs)
	return p
}

// Set replaces the route table.
func (p *CustomRouteProvider) Set(rs []CustomRoute) {
	byNode := make(map[int][]string)
	for _, r := range rs {
		if r.ContentID <= 0 {
			continue
		}
		byNode[r.ContentID] = append(byNode[r.ContentID], CleanPath(r.Path))
	}
	p.mu.Lock()
	p.byNode = byNode
	p.mu.Unlock()
}

// CleanPath renders a configured path as "/a/b".
func CleanPath(path string) string {
	return "/" + strings.Trim(strings.TrimSpace(path), "/")
}

func (p *CustomRouteProvider) paths(id int) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.byNode[id]
}

// GetURL implements Provider.
func (p *CustomRouteProvider) GetURL(_ context.Context, n *content.Node, mode Mode, culture string, current *url.URL) (*Info, error) {
	paths := p.paths(n.ID)
	if len(paths) == 0 {
		return nil, nil
	}
	info := URL(p.opts.assemble(nil, paths[0], current, mode), culture)
	return &info, nil
}

// GetOtherURLs implements Provider.
func (p *CustomRouteProvider) GetOtherURLs(_ context.Context, n *content.Node, _ *url.URL) ([]Info, error) {
	paths := p.paths(n.ID)
	if len(paths) < 2 {
		return nil, nil
	}
	out := make([]Info, 0, len(paths)-1)
	for _, path := range paths[1:] {
		out = append(out, URL(p.opts.slash(path), ""))
	}
	return out, nil
}
