package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/xenking/checkout-service/internal/domain/auth"
)

// Scope aliases re-exported for route wiring.
const (
	ScopeOrders = auth.ScopeOrders
	ScopeAdmin  = auth.ScopeAdmin
)

// apiKeyHeader carries the caller's API key.
const apiKeyHeader = "api_key"

// Security authenticates API requests via HMAC-SHA256 hashed API keys and
// attaches the resolved caller to the request context.
type Security struct {
	apikeys auth.Repository
	pepper  []byte
}

// NewSecurity creates a Security middleware with the given API key
// repository and HMAC pepper.
func NewSecurity(apikeys auth.Repository, pepper []byte) *Security {
	return &Security{
		apikeys: apikeys,
		pepper:  pepper,
	}
}

// Authenticate resolves the api_key header into a caller identity. Requests
// without the header pass through unauthenticated; requests with an invalid
// key are rejected outright.
func (s *Security) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(apiKeyHeader)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		caller, ok := s.resolve(r, key)
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid api key")
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithCaller(r.Context(), caller)))
	})
}

// resolve hashes the presented key, looks it up, and performs a
// constant-time comparison to prevent timing side-channels.
func (s *Security) resolve(r *http.Request, key string) (auth.Caller, bool) {
	mac := hmac.New(sha256.New, s.pepper)
	mac.Write([]byte(key))
	hash := mac.Sum(nil)

	info, err := s.apikeys.FindByHash(r.Context(), hex.EncodeToString(hash))
	if err != nil {
		return auth.Caller{}, false
	}

	storedBytes, err := hex.DecodeString(info.KeyHash)
	if err != nil {
		return auth.Caller{}, false
	}
	if subtle.ConstantTimeCompare(hash, storedBytes) != 1 {
		return auth.Caller{}, false
	}

	return auth.Caller{
		CustomerID: info.CustomerID,
		Scopes:     info.Scopes,
	}, true
}

// RequireScope rejects requests whose caller lacks the given scope: 401 for
// unauthenticated callers, 403 for authenticated callers without the scope.
func RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := auth.CallerFromContext(r.Context())
			if !caller.Authenticated() {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !caller.HasScope(scope) {
				writeError(w, http.StatusForbidden, "insufficient scope")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
