package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"moveup-booking/internal/data/entity"
	"moveup-booking/internal/usecase"
	"moveup-booking/pkg/utils"

	"go.uber.org/zap"
)

// Authenticator resolves a bearer token to its user. It is satisfied by
// usecase.AuthService.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*entity.User, error)
}

// AuthSession validates the bearer session token and puts the user id, role
// and token into the request context.
func AuthSession(auth Authenticator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.ResponseUnauthorized(w, "Missing authorization token")
				return
			}

			token, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found || token == "" {
				utils.ResponseUnauthorized(w, "Invalid token format. Use: Bearer <token>")
				return
			}

			user, err := auth.Authenticate(r.Context(), token)
			if err != nil && !errors.Is(err, usecase.ErrInvalidCredentials) {
				logger.Error("Failed to validate session", zap.Error(err))
				utils.ResponseInternalError(w, "Internal server error")
				return
			}
			if err != nil || user == nil {
				logger.Warn("Invalid or expired session", zap.String("path", r.URL.Path))
				utils.ResponseUnauthorized(w, "Invalid or expired session")
				return
			}

			ctx := utils.WithPrincipal(r.Context(), utils.Principal{
				UserID: user.ID,
				Role:   string(user.Role),
				Token:  token,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole lets the request through when the caller has one of roles.
// It must run after AuthSession.
func RequireRole(logger *zap.Logger, roles ...entity.UserRole) func(http.Handler) http.Handler {
	allowed := make([]string, len(roles))
	for i, role := range roles {
		allowed[i] = string(role)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := utils.PrincipalFrom(r.Context())
			if !ok {
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}

			if caller.HasRole(allowed...) {
				next.ServeHTTP(w, r)
				return
			}

			logger.Warn("Role check: access denied",
				zap.String("user_id", caller.UserID.String()),
				zap.String("role", caller.Role),
				zap.String("path", r.URL.Path))
			utils.ResponseForbidden(w, "Insufficient role")
		})
	}
}

// Admin is RequireRole for administrators only.
func Admin(logger *zap.Logger) func(http.Handler) http.Handler {
	return RequireRole(logger, entity.RoleAdmin)
}
