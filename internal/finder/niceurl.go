package finder

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/yanizio/contentrouter/internal/content"
	"github.com/yanizio/contentrouter/internal/domain"
	"github.com/yanizio/contentrouter/internal/published"
	"github.com/yanizio/contentrouter/internal/routes"
	"github.com/yanizio/contentrouter/internal/templates"
	"github.com/yanizio/contentrouter/internal/urls"
)

// ByNiceURL resolves the request path through the route of each node.
// The routes cache is consulted first and filled on success, except while
// previewing.  Only canonical routes are cached so both cache directions
// stay consistent.
type ByNiceURL struct {
	store   content.Store
	domains domain.Source
	cache   *routes.Cache
}

// NewByNiceURL returns the finder.  cache may be nil.
func NewByNiceURL(store content.Store, domains domain.Source, cache *routes.Cache) *ByNiceURL {
	return &ByNiceURL{store: store, domains: domains, cache: cache}
}

func (f *ByNiceURL) Name() string { return "by_nice_url" }

// TryFind implements Finder.
func (f *ByNiceURL) TryFind(ctx context.Context, req *published.Request) (bool, error) {
	n := f.findContent(ctx, req, routeOf(req, requestPath(req)))
	if n == nil {
		return false, nil
	}
	if err := req.SetPublishedContent(n); err != nil {
		return false, err
	}
	return true, nil
}

// routeOf builds the route of path for the request domain.
func routeOf(req *published.Request, path string) string {
	if d := req.Domain(); d != nil {
		return routes.New(d.ContentID, domain.PathRelativeToDomain(d.URI, path)).String()
	}
	return routes.New(0, path).String()
}

func (f *ByNiceURL) findContent(ctx context.Context, req *published.Request, route string) *content.Node {
	c := req.Culture()
	preview := content.IsPreview(ctx)

	if f.cache != nil && !preview {
		if id := f.cache.NodeID(route, c); id > 0 {
			if n := f.store.GetByID(id); n != nil {
				zap.L().Debug("route cache hit", zap.String("route", route), zap.Int("node", id))
				return n
			}
			f.cache.ClearNode(id)
		}
	}

	n := f.store.GetByRoute(route, c)
	if n == nil {
		zap.L().Debug("no content for route", zap.String("route", route), zap.String("culture", c))
		return nil
	}
	if f.cache != nil && !preview && urls.ComputeRoute(f.store, f.domains, n, c) == route {
		f.cache.Store(n.ID, c, route)
	}
	zap.L().Debug("content for route", zap.String("route", route), zap.Int("node", n.ID))
	return n
}

// ByNiceURLAndTemplate resolves "/path/alias" where alias names a
// template: the node is looked up by "/path" and the template is set.
type ByNiceURLAndTemplate struct {
	nice      *ByNiceURL
	templates templates.Store
	disable   bool
	validate  bool
}

// NewByNiceURLAndTemplate returns the finder.  With disableAlternatives it
// never matches; with validate the template must be allowed on the node.
func NewByNiceURLAndTemplate(nice *ByNiceURL, ts templates.Store, disableAlternatives, validate bool) *ByNiceURLAndTemplate {
	return &ByNiceURLAndTemplate{nice: nice, templates: ts, disable: disableAlternatives, validate: validate}
}

func (f *ByNiceURLAndTemplate) Name() string { return "by_nice_url_and_template" }

// TryFind implements Finder.
func (f *ByNiceURLAndTemplate) TryFind(ctx context.Context, req *published.Request) (bool, error) {
	if f.disable {
		return false, nil
	}
	path := requestPath(req)
	if d := req.Domain(); d != nil {
		path = domain.PathRelativeToDomain(d.URI, path)
	}
	if path == "/" {
		return false, nil
	}

	pos := strings.LastIndexByte(path, '/')
	alias := path[pos+1:]
	path = path[:pos]
	if path == "" {
		path = "/"
	}

	tpl, err := f.templates.ByAlias(ctx, alias)
	if errors.Is(err, templates.ErrNotFound) {
		zap.L().Debug("not a template alias", zap.String("alias", alias))
		return false, nil
	}
	if err != nil {
		zap.L().Warn("template lookup failed", zap.String("alias", alias), zap.Error(err))
		return false, nil
	}

	route := path
	if d := req.Domain(); d != nil {
		route = routes.New(d.ContentID, path).String()
	}
	n := f.nice.findContent(ctx, req, route)
	if n == nil {
		return false, nil
	}
	if !n.IsAllowedTemplate(tpl.ID, f.disable, f.validate) {
		zap.L().Warn("alternative template not allowed on node",
			zap.String("template", tpl.Alias), zap.Int("node", n.ID))
		return false, req.SetPublishedContent(nil)
	}
	if err := req.SetPublishedContent(n); err != nil {
		return false, err
	}
	if err := req.SetTemplate(tpl); err != nil {
		return false, err
	}
	return true, nil
}
