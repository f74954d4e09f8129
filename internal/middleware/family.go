package middleware

import (
	"net/http"

	"household/internal/models"
)

// RequireFamilyRole admits callers that belong to a family and hold one of
// roles. It must run after Identify.
func RequireFamilyRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if !id.InFamily() {
				http.Error(w, "you do not belong to a family", http.StatusForbidden)
				return
			}
			for _, role := range roles {
				if id.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "missing required family role", http.StatusForbidden)
		})
	}
}
