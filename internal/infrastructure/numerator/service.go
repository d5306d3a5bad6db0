// Package numerator provides the PostgreSQL implementation of fiscal
// series numbering. It implements core/numerator.Generator.
package numerator

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	corenumerator "ferrex/internal/core/numerator"
)

// Querier interface for database operations.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Service allocates gapless per-series correlatives using UPSERT+RETURNING.
// Every allocation hits the database: fiscal correlatives must not skip
// numbers, so no in-memory range caching is possible here.
type Service struct {
	querier Querier
}

// Ensure compile-time interface compliance.
var _ corenumerator.Generator = (*Service)(nil)

// New creates a numerator service over the given querier (pool or tx).
func New(querier Querier) *Service {
	return &Service{querier: querier}
}

// NextCorrelative returns the next correlative for the series.
func (s *Service) NextCorrelative(ctx context.Context, series string) (int64, error) {
	if series == "" {
		return 0, fmt.Errorf("series is required")
	}

	const query = `
		INSERT INTO fiscal_correlatives (series, current_val)
		VALUES ($1, 1)
		ON CONFLICT (series)
		DO UPDATE SET current_val = fiscal_correlatives.current_val + 1
		RETURNING current_val`

	var num int64
	if err := s.querier.QueryRow(ctx, query, series).Scan(&num); err != nil {
		return 0, fmt.Errorf("next correlative for %s: %w", series, err)
	}
	return num, nil
}

// SetCorrelative sets the next value to be returned for the series.
// Used when taking over a series from a previous system.
func (s *Service) SetCorrelative(ctx context.Context, series string, value int64) error {
	if value < 1 {
		return fmt.Errorf("correlative must be positive, got %d", value)
	}

	const query = `
		INSERT INTO fiscal_correlatives (series, current_val)
		VALUES ($1, $2)
		ON CONFLICT (series)
		DO UPDATE SET current_val = $2
		RETURNING current_val`

	var num int64
	if err := s.querier.QueryRow(ctx, query, series, value-1).Scan(&num); err != nil {
		return fmt.Errorf("set correlative for %s: %w", series, err)
	}
	return nil
}
