package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/wangkuke/MapConnect/repository"
)

// Errors returned by the Require helpers. The HTTP layer maps these to
// 401/403 responses.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrNotAdmin        = errors.New("only admin can perform this action")
)

// Middleware returns HTTP middleware that extracts and validates a Bearer
// JWT from the Authorization header and injects the Principal into the
// request context. Requests without a valid token are rejected with 401.
func Middleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := ParseFromRequest(r, secret)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"authentication required","code":"unauthenticated"}`))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequirePrincipal ensures a principal is present in context.
func RequirePrincipal(ctx context.Context) (*Principal, error) {
	p, ok := FromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	return p, nil
}

// RequireAdmin ensures the caller is an admin principal AND that the
// underlying user exists with role 'admin'. This prevents spoofing by a
// non-admin carrying a forged role claim.
func RequireAdmin(ctx context.Context, users repository.UserLookup) (*Principal, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		return nil, errors.New("users repository not configured")
	}
	u, err := users.GetByUsername(ctx, p.Name)
	if err != nil {
		return nil, err
	}
	if !u.IsAdmin() || strings.ToLower(p.Role) != "admin" {
		return nil, ErrNotAdmin
	}
	return p, nil
}
