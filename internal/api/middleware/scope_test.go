package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relayworks/cortex/internal/domain"
)

func TestAccessScope_HeaderPresent(t *testing.T) {
	var captured string
	handler := AccessScope(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetScope(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	req.Header.Set("X-Access-Scope", "engineering")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, "engineering", captured)
}

func TestAccessScope_HeaderMissingDefaultsToAll(t *testing.T) {
	var captured string
	handler := AccessScope(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetScope(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, domain.ScopeAll, captured)
}

func TestGetScope_MissingContext(t *testing.T) {
	assert.Equal(t, domain.ScopeAll, GetScope(context.Background()))
}
