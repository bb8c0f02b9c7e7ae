package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermGenerator_DueDate(t *testing.T) {
	g := NewTermGenerator(7)
	ref := time.Date(2026, 3, 10, 15, 4, 5, 0, time.UTC)

	slip, err := g.Generate(context.Background(), ref)

	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 17, 15, 4, 5, 0, time.UTC), slip.DueDate)
	assert.NotEmpty(t, slip.Reference)
}

func TestTermGenerator_DefaultTerm(t *testing.T) {
	g := NewTermGenerator(0)
	ref := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	slip, err := g.Generate(context.Background(), ref)

	require.NoError(t, err)
	assert.Equal(t, ref.AddDate(0, 0, DefaultTermDays), slip.DueDate)
}

func TestTermGenerator_UniqueReferences(t *testing.T) {
	g := NewTermGenerator(3)
	ref := time.Now()

	a, err := g.Generate(context.Background(), ref)
	require.NoError(t, err)
	b, err := g.Generate(context.Background(), ref)
	require.NoError(t, err)

	assert.NotEqual(t, a.Reference, b.Reference)
}
