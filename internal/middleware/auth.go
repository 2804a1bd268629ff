package middleware

import (
	"context"
	"net/http"
	"strings"

	"connecta/pkg/jwtutil"
	"connecta/pkg/response"
)

type contextKey string

const claimsKey contextKey = "auth_claims"

// RequireAuth rejects requests without a valid bearer token and stores the
// claims on the request context.
func RequireAuth(issuer *jwtutil.Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				response.Error(w, http.StatusUnauthorized, "no token provided")
				return
			}

			token := strings.TrimPrefix(header, "Bearer ")
			claims, err := issuer.Verify(token)
			if err != nil {
				response.Error(w, http.StatusUnauthorized, "invalid token, please authenticate")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ClaimsFrom(ctx context.Context) (*jwtutil.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*jwtutil.Claims)
	return claims, ok
}
