// internal/auth/context.go
//
// Member identity carried on the request context.
//
// Usage
// -----
//
//	// Attach the logged-in member (after the host authenticated it).
//	ctx = auth.WithMember(ctx, auth.Member{ID: 123, Username: "ann", Roles: []string{"gold"}})
//
//	// The router checks login state and roles downstream.
//	m, ok := auth.MemberFrom(ctx)
//
// Notes
// -----
// • Membership itself (login, passwords, sessions) belongs to the host.
// • Oxford commas, two spaces after periods.

package auth

import (
	"context"
	"strings"
)

// Member is the authenticated site member of a request.
type Member struct {
	ID       int64
	Username string
	Roles    []string
}

// HasRole reports whether m carries role (case-insensitive).
func (m Member) HasRole(role string) bool {
	for _, r := range m.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// memberKey is unexported to avoid context-key collisions.
type memberKey struct{}

// WithMember returns a new context carrying m.
func WithMember(ctx context.Context, m Member) context.Context {
	return context.WithValue(ctx, memberKey{}, m)
}

// MemberFrom extracts the member from ctx.  It returns (Member{}, false)
// when nobody is logged in.
func MemberFrom(ctx context.Context) (Member, bool) {
	m, ok := ctx.Value(memberKey{}).(Member)
	return m, ok
}

// IsLoggedIn reports whether ctx carries a member.
func IsLoggedIn(ctx context.Context) bool {
	_, ok := MemberFrom(ctx)
	return ok
}
