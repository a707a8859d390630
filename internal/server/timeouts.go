// internal/server/timeouts.go
//
// HTTP server helper with configured timeouts.
//
// The http section of conf/routing.yaml carries:
//
//   • read_timeout   – abort slow-loris headers
//   • write_timeout  – cap total response time
//   • idle_timeout   – close keep-alives on idle clients
//
// The loader fills defaults (10 s, 15 s, 60 s), so a zero value here only
// happens in tests and means "no limit".
//

package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/contentrouter/internal/config"
)

// New constructs an *http.Server from the http configuration section.
func New(cfg config.HTTP, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests for at
// most grace.
func Run(ctx context.Context, srv *http.Server, grace time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		zap.S().Infow("http listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	zap.S().Infow("http shutting down", "grace", grace)
	return srv.Shutdown(shutdownCtx)
}
