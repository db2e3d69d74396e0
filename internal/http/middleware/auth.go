package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/wandertrails/tours-api/internal/domain"
	"github.com/wandertrails/tours-api/internal/http/response"
	"github.com/wandertrails/tours-api/internal/service"
	"github.com/wandertrails/tours-api/pkg/logger"
)

type ctxKey string

const ctxUser ctxKey = "user"

// Protect rejects requests without a valid session token. The token comes
// from the Authorization bearer header or, failing that, the jwt cookie.
func Protect(auth service.AuthService, production bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				response.Fail(w, http.StatusUnauthorized, "you are not logged in, please log in to get access")
				return
			}

			user, err := auth.Authenticate(r.Context(), raw)
			if err != nil {
				response.HandleError(w, r, err, production)
				return
			}

			ctx := context.WithValue(r.Context(), ctxUser, user)
			ctx = context.WithValue(ctx, logger.UserIDKey, user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RestrictTo gates a protected route to the given roles. It must run after
// Protect.
func RestrictTo(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := CurrentUser(r)
			if user == nil || !allowed[user.Role] {
				response.Fail(w, http.StatusForbidden, "you do not have permission to perform this action")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CurrentUser returns the authenticated user set by Protect, or nil.
func CurrentUser(r *http.Request) *domain.User {
	v := r.Context().Value(ctxUser)
	if v == nil {
		return nil
	}
	return v.(*domain.User)
}

func bearerToken(r *http.Request) string {
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimPrefix(authz, "Bearer ")
	}
	if c, err := r.Cookie("jwt"); err == nil && c.Value != "" {
		return c.Value
	}
	return ""
}
