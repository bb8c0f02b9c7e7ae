// Package auth holds the caller identity model and the API key lookup contract.
package auth

import "context"

// Scopes understood by the service.
const (
	// ScopeOrders allows placing orders and reading the caller's own orders.
	ScopeOrders = "orders"
	// ScopeAdmin allows catalog mutations on top of ScopeOrders.
	ScopeAdmin = "admin"
)

// Caller is the authenticated identity attached to a request. The zero value
// means the request is unauthenticated.
type Caller struct {
	CustomerID string
	Scopes     []string
}

// Authenticated reports whether the caller carries a resolved identity.
func (c Caller) Authenticated() bool {
	return c.CustomerID != ""
}

// HasScope reports whether the caller was granted the given scope.
func (c Caller) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// APIKeyInfo holds the identity and permission data for a validated API key.
type APIKeyInfo struct {
	ID         string
	KeyHash    string
	CustomerID string
	Name       string
	Scopes     []string
}

// Repository provides lookup of API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}

type callerKey struct{}

// WithCaller returns a context carrying the given caller. Only the HTTP
// security middleware stores the caller in context; everything below the
// handler layer receives it as an explicit argument.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFromContext extracts the caller stored by the security middleware.
// It returns the zero Caller when the request was not authenticated.
func CallerFromContext(ctx context.Context) Caller {
	c, _ := ctx.Value(callerKey{}).(Caller)
	return c
}
