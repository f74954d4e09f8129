package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"household/internal/scope"
)

type contextKey string

const identityKey contextKey = "identity"

type Resolver interface {
	Resolve(ctx context.Context, token string) (scope.Identity, error)
}

// IdentityFromContext returns the resolved caller. ok is false for anonymous
// requests.
func IdentityFromContext(ctx context.Context) (scope.Identity, bool) {
	id, ok := ctx.Value(identityKey).(scope.Identity)
	return id, ok && id.UserID != ""
}

func WithIdentity(ctx context.Context, id scope.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// TokenFromRequest reads a bearer token from the Authorization header.
func TokenFromRequest(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Identify resolves the caller when a token is present. It never rejects:
// anonymous requests continue without an identity.
func Identify(resolver Resolver, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return identifyWith(resolver, log, TokenFromRequest)
}

// IdentifyQueryToken resolves the access_token query parameter for callers
// that cannot set headers. Mount it only on the websocket upgrade route.
func IdentifyQueryToken(resolver Resolver, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return identifyWith(resolver, log, func(r *http.Request) string {
		if _, ok := IdentityFromContext(r.Context()); ok {
			return ""
		}
		return r.URL.Query().Get("access_token")
	})
}

func identifyWith(resolver Resolver, log logrus.FieldLogger, tokenFor func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFor(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			id, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				if !errors.Is(err, scope.ErrUnauthenticated) {
					log.WithError(err).Warn("identity resolution failed")
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
