// internal/urls/resolver.go
//
// URL provider chain and aggregator.
//
// Context
// -------
// Resolver is the outbound mirror of the finder chain.  URL asks each
// Provider in order and returns the first URL produced; when every
// provider declines it returns NoURL ("#"), which callers pass through
// unchanged.  OtherURLs concatenates the alternate URLs of every
// provider.
//
// Notes
// -----
// • A Default mode argument means "the configured mode"; a configured
//   Default means Auto.
// • Oxford commas, two spaces after periods.
package urls

import (
	"context"
	"net/url"
	"path"
	"strings"

	"github.com/yanizio/contentrouter/internal/content"
	"github.com/yanizio/contentrouter/internal/domain"
	"github.com/yanizio/contentrouter/internal/routes"
)

// Provider produces URLs for a node.  GetURL returns nil when it declines.
type Provider interface {
	GetURL(ctx context.Context, n *content.Node, mode Mode, culture string, current *url.URL) (*Info, error)
	GetOtherURLs(ctx context.Context, n *content.Node, current *url.URL) ([]Info, error)
}

// Options shape URL assembly.
type Options struct {
	// Mode is the configured mode; callers pass it to NewResolver.
	Mode              Mode
	UseDomainPrefixes bool
	AddTrailingSlash  bool
}

// Resolver aggregates Providers.  Immutable after construction.
type Resolver struct {
	store     content.Store
	providers []Provider
	mode      Mode
}

// NewResolver returns a Resolver asking providers in order.
func NewResolver(store content.Store, mode Mode, providers ...Provider) *Resolver {
	if mode == Default {
		mode = Auto
	}
	return &Resolver{store: store, providers: providers, mode: mode}
}

// Mode returns the configured mode.
func (r *Resolver) Mode() Mode { return r.mode }

// URL returns the URL of node id, or NoURL.
func (r *Resolver) URL(ctx context.Context, id int, mode Mode, culture string, current *url.URL) (string, error) {
	return r.NodeURL(ctx, r.store.GetByID(id), mode, culture, current)
}

// NodeURL returns the URL of n, or NoURL.
func (r *Resolver) NodeURL(ctx context.Context, n *content.Node, mode Mode, culture string, current *url.URL) (string, error) {
	if n == nil {
		return NoURL, nil
	}
	if mode == Default {
		mode = r.mode
	}
	for _, p := range r.providers {
		info, err := p.GetURL(ctx, n, mode, culture, current)
		if err != nil {
			return NoURL, err
		}
		if info != nil {
			return info.Text, nil
		}
	}
	return NoURL, nil
}

// OtherURLs returns the alternate URLs of node id.
func (r *Resolver) OtherURLs(ctx context.Context, id int, current *url.URL) ([]Info, error) {
	n := r.store.GetByID(id)
	if n == nil {
		return nil, nil
	}
	var out []Info
	for _, p := range r.providers {
		infos, err := p.GetOtherURLs(ctx, n, current)
		if err != nil {
			return nil, err
		}
		out = append(out, infos...)
	}
	return out, nil
}

//
// Assembly
//

// assemble renders path under d (may be nil) for mode.
func (o Options) assemble(d *domain.DomainAndURI, p string, current *url.URL, mode Mode) string {
	if d == nil {
		if mode == Absolute && current != nil {
			return domain.Authority(current) + o.slash(p)
		}
		return o.slash(p)
	}

	if mode == AutoLegacy {
		mode = Auto
		if o.UseDomainPrefixes {
			mode = Absolute
		}
	}
	if mode == Auto || mode == Default {
		mode = Absolute
		if current != nil && d.Authority() == domain.Authority(current) {
			mode = Relative
		}
	}

	full := o.slash(routes.JoinPaths(d.AbsPath(), p))
	if mode == Absolute {
		return d.Authority() + full
	}
	return full
}

// absolute renders path under d as an absolute URL.
func (o Options) absolute(d *domain.DomainAndURI, p string) string {
	return d.Authority() + o.slash(routes.JoinPaths(d.AbsPath(), p))
}

// slash appends the trailing slash when configured, except for "/" and
// paths whose last segment looks like a file.
func (o Options) slash(p string) string {
	if !o.AddTrailingSlash || p == "/" || strings.HasSuffix(p, "/") {
		return p
	}
	if strings.Contains(path.Base(p), ".") {
		return p
	}
	return p + "/"
}

// routePath returns the path part of a route string.
func routePath(route string) string {
	if i := strings.IndexByte(route, '/'); i > 0 {
		return route[i:]
	}
	return route
}
