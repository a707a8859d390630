// internal/middleware/security.go
//
// Security-header middleware.
//
// Sets industry-standard headers on every response:
//
//   • Strict-Transport-Security  –  HTTPS requests only (2 years)
//   • X-Frame-Options           –  click-jacking defence
//   • X-Content-Type-Options    –  MIME-sniffing defence
//   • Referrer-Policy           –  drops path/query from Referer
//
// Notes
// -----
// • Headers are set before next.ServeHTTP; handlers may overwrite them,
//   and headers set after the first write would be lost.
// • The router answers with JSON or redirects, so no Content-Security-Policy
//   is sent; the rendering host owns that header.
// • Oxford commas, two spaces after periods.

package middleware

import (
	"net/http"
	"strings"
)

// Security sets security headers for every response.
func Security(next http.Handler) http.Handler {
	const (
		hsts  = "max-age=63072000; includeSubDomains"
		xfo   = "DENY"
		nosn  = "nosniff"
		refer = "strict-origin-when-cross-origin"
	)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
			h.Set("Strict-Transport-Security", hsts)
		}
		h.Set("X-Frame-Options", xfo)
		h.Set("X-Content-Type-Options", nosn)
		h.Set("Referrer-Policy", refer)

		next.ServeHTTP(w, r)
	})
}
