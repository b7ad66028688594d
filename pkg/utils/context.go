package utils

import (
	"context"

	"github.com/google/uuid"
)

type principalKey struct{}

// Principal is the authenticated caller of a request: a student, an
// instructor or an admin, plus the session token they presented.
type Principal struct {
	UserID uuid.UUID
	Role   string
	Token  string
}

// WithPrincipal stores p on ctx. AuthSession calls it once per request.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the caller stored by WithPrincipal. A zero user id
// counts as absent.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	if !ok || p.UserID == uuid.Nil {
		return Principal{}, false
	}
	return p, true
}

// HasRole reports whether the caller holds one of roles.
func (p Principal) HasRole(roles ...string) bool {
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}
