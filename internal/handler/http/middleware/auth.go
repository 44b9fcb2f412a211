package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/kreditkeliling/kupon-backend-go/internal/handler/http/response"
)

type contextKey string

const roleKey contextKey = "role"

// AuthRequired rejects requests without a verified access token and stores
// the caller's role for Authorize.
func AuthRequired(next http.Handler) http.Handler {
	hfn := func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.Unauthorized(w, err.Error())
			return
		}

		if token == nil {
			response.Unauthorized(w, "Invalid token")
			return
		}

		tokenType, ok := claims["type"].(string)
		if tokenType != "access" || !ok {
			response.Unauthorized(w, "Invalid token")
			return
		}

		role, _ := claims["role"].(string)
		ctx := context.WithValue(r.Context(), roleKey, role)

		next.ServeHTTP(w, r.WithContext(ctx))
	}
	return http.HandlerFunc(hfn)
}

func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(roleKey).(string)
	return role
}
