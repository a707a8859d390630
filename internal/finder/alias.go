package finder

import (
	"context"

	"go.uber.org/zap"

	"github.com/yanizio/contentrouter/internal/content"
	"github.com/yanizio/contentrouter/internal/domain"
	"github.com/yanizio/contentrouter/internal/published"
)

// ByURLAlias matches the request path against the urlAlias property of
// every node, restricted to the domain root when a domain applies.
type ByURLAlias struct {
	store content.Store
}

// NewByURLAlias returns the finder.
func NewByURLAlias(store content.Store) *ByURLAlias { return &ByURLAlias{store: store} }

func (f *ByURLAlias) Name() string { return "by_url_alias" }

// TryFind implements Finder.
func (f *ByURLAlias) TryFind(_ context.Context, req *published.Request) (bool, error) {
	path := requestPath(req)
	if path == "/" {
		return false, nil
	}
	rootID := 0
	if d := req.Domain(); d != nil {
		rootID = d.ContentID
		path = domain.PathRelativeToDomain(d.URI, path)
		if path == "/" {
			return false, nil
		}
	}

	n := f.store.GetByURLAlias(rootID, req.Culture(), path)
	if n == nil {
		return false, nil
	}
	zap.L().Debug("content for url alias",
		zap.String("alias", path), zap.Int("node", n.ID))
	if err := req.SetPublishedContent(n); err != nil {
		return false, err
	}
	return true, nil
}
