// Package customer defines the customer read model. The checkout service only
// ever resolves customers; it never mutates them.
package customer

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested customer does not exist.
var ErrNotFound = errors.New("customer not found")

// Customer is a resolved customer record.
type Customer struct {
	ID    string
	Name  string
	Email string
}

// Directory resolves customer identifiers to full records.
type Directory interface {
	GetByID(ctx context.Context, id string) (*Customer, error)
}
