// Package middleware holds small, composable HTTP wrappers.
package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/yanizio/contentrouter/internal/domain"
)

// HostSource lists the registered domains.  *domain.Cache implements it.
type HostSource interface {
	GetAll(includeWildcards bool) []domain.Domain
}

// ForceHTTPS wraps h.  If the request is plain HTTP, the host is not
// "localhost", and a registered domain names the host, the wrapper issues a
// 308 Permanent Redirect to the HTTPS version of the same URL.  Otherwise it
// calls the next handler unchanged.
func ForceHTTPS(domains HostSource, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := stripPort(r.Host)
		if r.TLS != nil || host == "localhost" ||
			strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
			h.ServeHTTP(w, r)
			return
		}

		if isRegistered(domains, host) {
			target := "https://" + r.Host + r.URL.RequestURI()
			http.Redirect(w, r, target, http.StatusPermanentRedirect)
			return
		}

		// Unknown host → keep normal flow (no domain applies later).
		h.ServeHTTP(w, r)
	})
}

// isRegistered reports whether a regular domain is bound to host.
func isRegistered(domains HostSource, host string) bool {
	for _, d := range domains.GetAll(false) {
		u, err := domainURL(d.Name)
		if err != nil {
			continue
		}
		if strings.EqualFold(u.Hostname(), host) {
			return true
		}
	}
	return false
}

// domainURL parses a domain name, which may omit the scheme.
func domainURL(name string) (*url.URL, error) {
	if !strings.Contains(name, "://") {
		name = "http://" + name
	}
	return url.Parse(name)
}

// stripPort removes the :port suffix from Host when present.
func stripPort(h string) string {
	if i := strings.IndexByte(h, ':'); i != -1 {
		return h[:i]
	}
	return h
}
