// Package billing computes installment billing slips for deferred payments.
package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Slip is a generated installment billing instrument.
type Slip struct {
	DueDate   time.Time
	Reference string
}

// Generator produces a billing slip for a payment created at the given
// reference instant.
type Generator interface {
	Generate(ctx context.Context, reference time.Time) (*Slip, error)
}

// TermGenerator issues slips due a fixed number of days after the reference
// instant. The due-date component is deterministic given the reference; the
// slip reference is a fresh UUID.
type TermGenerator struct {
	termDays int
	newRef   func() string
}

var _ Generator = (*TermGenerator)(nil)

// DefaultTermDays is the payment term applied by NewTermGenerator.
const DefaultTermDays = 7

// NewTermGenerator creates a TermGenerator with the given payment term.
// A non-positive term falls back to DefaultTermDays.
func NewTermGenerator(termDays int) *TermGenerator {
	if termDays <= 0 {
		termDays = DefaultTermDays
	}
	return &TermGenerator{
		termDays: termDays,
		newRef:   func() string { return uuid.New().String() },
	}
}

// Generate computes the slip for a payment created at reference.
func (g *TermGenerator) Generate(_ context.Context, reference time.Time) (*Slip, error) {
	return &Slip{
		DueDate:   reference.AddDate(0, 0, g.termDays),
		Reference: g.newRef(),
	}, nil
}
