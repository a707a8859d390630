// internal/finder/finder.go
//
// Content finders.
//
// Context
// -------
// A Finder tries to resolve the request URI to a content node and, when it
// succeeds, sets the node (and sometimes a template or a redirect) on the
// published request.  The engine runs an ordered Chain of finders and
// stops at the first success; later finders never run.  A separate
// last-chance finder handles 404 pages.
//
// Contract
// --------
//   - (true, nil)   the finder resolved the request.
//   - (false, nil)  soft miss; the next finder runs.
//   - (_, err)      configuration or programming error; the chain stops and
//                   the error reaches the host.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package finder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/yanizio/contentrouter/internal/metrics"
	"github.com/yanizio/contentrouter/internal/published"
)

// ErrNoFinders is returned by an empty Chain.
var ErrNoFinders = errors.New("finder: no content finders configured")

// Finder resolves a request to content.
type Finder interface {
	TryFind(ctx context.Context, req *published.Request) (bool, error)
}

// Func adapts a function to Finder.
type Func func(ctx context.Context, req *published.Request) (bool, error)

// TryFind implements Finder.
func (f Func) TryFind(ctx context.Context, req *published.Request) (bool, error) { return f(ctx, req) }

// Chain runs finders in order until one succeeds.
type Chain []Finder

// TryFind implements Finder.
func (c Chain) TryFind(ctx context.Context, req *published.Request) (bool, error) {
	if len(c) == 0 {
		return false, ErrNoFinders
	}
	for _, f := range c {
		ok, err := f.TryFind(ctx, req)
		if err != nil {
			return false, fmt.Errorf("%s: %w", Name(f), err)
		}
		if ok {
			metrics.FinderHitsTotal.WithLabelValues(Name(f)).Inc()
			zap.L().Debug("finder hit", zap.String("finder", Name(f)))
			return true, nil
		}
	}
	return false, nil
}

// Name returns the finder's Name() when it has one, else its type.
func Name(f Finder) string {
	if n, ok := f.(interface{ Name() string }); ok {
		return n.Name()
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", f), "*")
}

// requestPath returns the lower-cased request path without trailing slash.
func requestPath(req *published.Request) string {
	p := strings.ToLower(req.URI().Path)
	if p == "" {
		return "/"
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	return p
}
