package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/relayworks/cortex/internal/domain"
)

type contextKey string

const ScopeKey contextKey = "access_scope"

// AccessScope resolves the caller's access scope from the X-Access-Scope
// header and injects it into the request context. A missing or blank header
// falls back to unrestricted visibility: such callers only see articles
// scoped to everyone.
func AccessScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope := strings.TrimSpace(r.Header.Get("X-Access-Scope"))
		if scope == "" {
			scope = domain.ScopeAll
		}

		ctx := context.WithValue(r.Context(), ScopeKey, scope)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetScope returns the access scope from context.
func GetScope(ctx context.Context) string {
	scope, _ := ctx.Value(ScopeKey).(string)
	if scope == "" {
		return domain.ScopeAll
	}
	return scope
}
