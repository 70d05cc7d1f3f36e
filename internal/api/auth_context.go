package api

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tabsverse/tabsverse-server/internal/baas"
	domainerrors "github.com/tabsverse/tabsverse-server/internal/errors"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

// principalKey is the context key for the verified token's identity.
const principalKey ctxKey = "principal"

// principal is who a request acts as.
type principal struct {
	UserID      string
	ServiceRole bool
}

// GetUserID returns the authenticated user ID from context.
// Returns 401 error if user is not authenticated.
func GetUserID(ctx context.Context) (string, error) {
	p, ok := ctx.Value(principalKey).(principal)
	if !ok || p.UserID == "" {
		return "", huma.Error401Unauthorized("Authentication required")
	}
	return p.UserID, nil
}

// optionalUserID returns the authenticated user ID, or "" for anonymous
// requests. Used by endpoints that also serve public data.
func optionalUserID(ctx context.Context) string {
	p, _ := ctx.Value(principalKey).(principal) //nolint:errcheck // Zero value is anonymous
	return p.UserID
}

// setPrincipal stores the verified identity in context.
func setPrincipal(ctx context.Context, p principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// authMiddleware returns a middleware that validates Bearer tokens and stores the principal in context.
// If no token is present or invalid, continues without user in context.
// Handlers use GetUserID to check authentication.
func authMiddleware(verifier *baas.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(authHeader[7:])
			if err != nil {
				// Invalid token - continue without user (handler will reject if auth required)
				next.ServeHTTP(w, r)
				return
			}

			ctx := setPrincipal(r.Context(), principal{
				UserID:      claims.UserID(),
				ServiceRole: claims.IsServiceRole(),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin allows service-role tokens and the configured admin users.
func (s *Server) RequireAdmin(ctx context.Context) error {
	p, ok := ctx.Value(principalKey).(principal)
	if !ok {
		return huma.Error401Unauthorized("Authentication required")
	}
	if p.ServiceRole {
		return nil
	}
	if p.UserID != "" && slices.Contains(s.config.Auth.AdminUserIDs, p.UserID) {
		return nil
	}
	return domainerrors.Forbidden("Admin access required")
}
