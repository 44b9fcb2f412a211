package middleware

import (
	"log/slog"
	"net/http"

	"github.com/kreditkeliling/kupon-backend-go/internal/handler/http/response"
	"github.com/kreditkeliling/kupon-backend-go/internal/pkg/authz"
)

// Authorize checks the caller's role against the casbin policy for object and
// action. In shadow mode denials are logged and the request continues.
func Authorize(a *authz.Authorizer, object string, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())

			allowed, enforced, err := a.Authorize(role, object, action)
			if err != nil {
				slog.Error("authorization check failed", "role", role, "object", object, "action", action, "error", err)
				response.InternalServerError(w, "Authorization check failed")
				return
			}

			if !allowed {
				if enforced {
					response.Forbidden(w, "Insufficient permissions")
					return
				}
				slog.Warn("authorization denied (shadow)", "role", role, "object", object, "action", action)
			}

			next.ServeHTTP(w, r)
		})
	}
}
