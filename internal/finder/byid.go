package finder

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/yanizio/contentrouter/internal/content"
	"github.com/yanizio/contentrouter/internal/culture"
	"github.com/yanizio/contentrouter/internal/published"
)

// ByIDPath resolves "/1234" to node 1234.  A ?culture= parameter overrides
// the request culture.  Disabled outside preview when configured so.
type ByIDPath struct {
	store   content.Store
	disable bool
}

// NewByIDPath returns the finder.
func NewByIDPath(store content.Store, disable bool) *ByIDPath {
	return &ByIDPath{store: store, disable: disable}
}

func (f *ByIDPath) Name() string { return "by_id_path" }

// TryFind implements Finder.
func (f *ByIDPath) TryFind(ctx context.Context, req *published.Request) (bool, error) {
	if f.disable && !content.IsPreview(ctx) {
		return false, nil
	}
	p := req.URI().Path
	if len(p) < 2 || p[0] != '/' || !allDigits(p[1:]) {
		return false, nil
	}
	id, err := strconv.Atoi(p[1:])
	if err != nil || id <= 0 {
		return false, nil
	}
	n := f.store.GetByID(id)
	if n == nil {
		zap.L().Debug("no content with id", zap.Int("id", id))
		return false, nil
	}

	if q := req.Query(); q.Has("culture") {
		c, err := culture.Parse(q.Get("culture"))
		if err != nil {
			zap.L().Debug("ignoring invalid culture parameter",
				zap.String("culture", q.Get("culture")), zap.Error(err))
		} else if err := req.SetCulture(c); err != nil {
			return false, err
		}
	}
	if err := req.SetPublishedContent(n); err != nil {
		return false, err
	}
	return true, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
