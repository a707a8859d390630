package finder

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/yanizio/contentrouter/internal/content"
	"github.com/yanizio/contentrouter/internal/published"
	"github.com/yanizio/contentrouter/internal/redirects"
	"github.com/yanizio/contentrouter/internal/urls"
)

// ByRedirectURL answers routes that used to belong to a node with a
// permanent redirect to the node's current URL.
type ByRedirectURL struct {
	store     content.Store
	redirects redirects.Store
	urls      *urls.Resolver
}

// NewByRedirectURL returns the finder.
func NewByRedirectURL(store content.Store, rs redirects.Store, resolver *urls.Resolver) *ByRedirectURL {
	return &ByRedirectURL{store: store, redirects: rs, urls: resolver}
}

func (f *ByRedirectURL) Name() string { return "by_redirect_url" }

// TryFind implements Finder.
func (f *ByRedirectURL) TryFind(ctx context.Context, req *published.Request) (bool, error) {
	route := routeOf(req, requestPath(req))

	r, err := f.redirects.MostRecent(ctx, route, req.Culture())
	if err != nil {
		return false, err
	}
	if r == nil {
		return false, nil
	}

	n := f.store.GetByID(r.ContentID)
	target, err := f.urls.NodeURL(ctx, n, urls.Default, r.Culture, req.URI())
	if err != nil {
		return false, err
	}
	if strings.HasPrefix(target, urls.NoURL) {
		zap.L().Debug("redirect target has no url",
			zap.String("route", route), zap.Int("node", r.ContentID))
		return false, nil
	}
	if q := req.URI().RawQuery; q != "" {
		target += "?" + q
	}

	zap.L().Debug("redirecting old route",
		zap.String("route", route), zap.String("to", target))
	if err := req.SetRedirectPermanent(target); err != nil {
		return false, err
	}
	return true, req.SetNoCacheHeaders()
}
