package middleware

import (
	"context"
	"net/http"

	"github.com/ricirt/booking-backend/internal/authn"
	"github.com/ricirt/booking-backend/internal/domain"
)

const userIDKey contextKey = "user_id"

// RequireAuth authenticates the bearer token via the injected AuthN
// provider and stores the resulting user id on the request context.
// Signup/login/refresh/rotation live entirely in that provider — this
// middleware only ever verifies a token it did not issue.
func RequireAuth(provider authn.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := provider.Authenticate(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				respondUnauthorized(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID retrieves the user id stored by RequireAuth. Returns an empty
// string if the middleware was not applied.
func GetUserID(ctx context.Context) string {
	v, _ := ctx.Value(userIDKey).(string)
	return v
}

func respondUnauthorized(w http.ResponseWriter, err error) {
	_ = err
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"detail":"` + domain.ErrForbidden.Error() + `"}`))
}
