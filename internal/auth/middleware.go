package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"account-service/internal/user"
)

type contextKey struct{}

// CurrentUser returns the authenticated user attached by Middleware.
func CurrentUser(ctx context.Context) (user.User, bool) {
	u, ok := ctx.Value(contextKey{}).(user.User)
	return u, ok
}

// Middleware is the authentication guard for protected endpoints. It
// rejects the request with 401 before the wrapped handler runs unless
// a valid bearer token is attached.
func Middleware(service *Service, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" {
			unauthenticated(w, "missing authorization token")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			unauthenticated(w, "invalid authorization format")
			return
		}

		token := strings.TrimSpace(parts[1])
		if token == "" {
			unauthenticated(w, "invalid authorization token")
			return
		}

		u, err := service.Verify(r.Context(), token)
		if err != nil {
			unauthenticated(w, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), contextKey{}, u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthenticated(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
