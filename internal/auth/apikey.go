package auth

import (
	"crypto/subtle"
	"net/http"
)

const apiKeyHeader = "X-API-Key"

// APIKeyMiddleware authenticates machine callers (metering devices)
// using a shared API key supplied at startup.
type APIKeyMiddleware struct {
	key []byte
}

// NewAPIKeyMiddleware constructs an API key middleware.
func NewAPIKeyMiddleware(key []byte) *APIKeyMiddleware {
	return &APIKeyMiddleware{key: key}
}

// Wrap rejects requests without a matching API key.
func (m *APIKeyMiddleware) Wrap(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(m.key) == 0 {
			http.Error(w, "ingest disabled", http.StatusServiceUnavailable)
			return
		}
		provided := r.Header.Get(apiKeyHeader)
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), m.key) != 1 {
			http.Error(w, "invalid api key", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
