// Package category defines the product category resource. It is a plain CRUD
// collaborator next to the order workflow; the handler talks to the
// repository directly.
package category

import (
	"context"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/checkout-service/internal/domain/page"
)

var (
	// ErrNotFound is returned when a requested category does not exist.
	ErrNotFound = errors.New("category not found")
	// ErrInUse is returned when deleting a category still referenced by products.
	ErrInUse = errors.New("category is referenced by products")
	// ErrInvalidName is returned for an empty or oversized category name.
	ErrInvalidName = errors.New("category name must be between 1 and 80 characters")
)

// Category is a named grouping of catalog products.
type Category struct {
	ID   string
	Name string
}

// Validate checks the category fields before insert or update.
func (c *Category) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" || len(name) > 80 {
		return ErrInvalidName
	}
	c.Name = name
	return nil
}

// Repository defines persistence operations for categories.
type Repository interface {
	Create(ctx context.Context, c *Category) error
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*Category, error)
	List(ctx context.Context) ([]Category, error)
	FindPage(ctx context.Context, req page.Request) (*page.Page[Category], error)
}
