// Package page holds the shared pagination request and result types used by
// the paginated query paths.
package page

import (
	"strings"

	"github.com/go-faster/errors"
)

// Direction is a sort direction token.
type Direction string

const (
	Ascending  Direction = "ASC"
	Descending Direction = "DESC"
)

// Sentinel errors for page parameter validation.
var (
	ErrInvalidPage      = errors.New("page index must not be negative")
	ErrInvalidSize      = errors.New("page size must be between 1 and 100")
	ErrInvalidDirection = errors.New("direction must be ASC or DESC")
	ErrInvalidOrderBy   = errors.New("unsupported sort field")
)

// DefaultSize is applied when a request does not specify a page size.
const DefaultSize = 20

// Request describes one page of a sorted result set. Page numbering is
// zero-based. OrderBy is validated against a per-repository column whitelist,
// never interpolated directly.
type Request struct {
	Number    int
	Size      int
	OrderBy   string
	Direction Direction
}

// Normalize applies defaults and validates the request in place.
func (r *Request) Normalize(defaultOrderBy string) error {
	if r.Number < 0 {
		return ErrInvalidPage
	}
	if r.Size == 0 {
		r.Size = DefaultSize
	}
	if r.Size < 1 || r.Size > 100 {
		return ErrInvalidSize
	}
	if r.OrderBy == "" {
		r.OrderBy = defaultOrderBy
	}
	switch Direction(strings.ToUpper(string(r.Direction))) {
	case Ascending, "":
		r.Direction = Ascending
	case Descending:
		r.Direction = Descending
	default:
		return ErrInvalidDirection
	}
	return nil
}

// Offset returns the row offset for this page.
func (r Request) Offset() int {
	return r.Number * r.Size
}

// Page is one page of results together with its metadata.
type Page[T any] struct {
	Items      []T
	TotalCount int64
	Number     int
	Size       int
}
