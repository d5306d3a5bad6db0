// Package numerator provides domain contracts for fiscal series numbering.
// Implementations live in infrastructure layer.
package numerator

import (
	"context"
)

// Generator allocates sequential correlatives within a fiscal series.
// Correlatives must be gapless: the tax authority rejects series with holes,
// so implementations allocate strictly at the database level, never from
// an in-memory range.
type Generator interface {
	// NextCorrelative returns the next correlative for the series (1-based).
	NextCorrelative(ctx context.Context, series string) (int64, error)

	// SetCorrelative sets the next correlative value (for migrations and
	// series take-over from a previous system).
	SetCorrelative(ctx context.Context, series string, value int64) error
}
