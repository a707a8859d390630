// internal/auth/middleware.go
//
// Chi middleware attaching the member identified by a trusted upstream
// header.

package auth

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Default header names set by the authenticating proxy.
const (
	HeaderMemberID   = "X-Member-Id"
	HeaderMemberName = "X-Member-Name"
)

// RolesFunc loads the role names bound to a member.
type RolesFunc func(ctx context.Context, memberID int64) ([]string, error)

// FromHeader attaches a Member when the request carries a positive member
// id in HeaderMemberID.  Requests without the header pass through
// anonymous.  A role lookup failure is a 500.
func FromHeader(roles RolesFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(HeaderMemberID))
			id, err := strconv.ParseInt(raw, 10, 64)
			if raw == "" || err != nil || id <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			m := Member{ID: id, Username: strings.TrimSpace(r.Header.Get(HeaderMemberName))}
			if roles != nil {
				m.Roles, err = roles(r.Context(), id)
				if err != nil {
					zap.L().Error("member roles", zap.Int64("member", id), zap.Error(err))
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
			}
			next.ServeHTTP(w, r.WithContext(WithMember(r.Context(), m)))
		})
	}
}
