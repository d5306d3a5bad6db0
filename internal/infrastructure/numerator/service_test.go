package numerator

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

type mockQuerier struct {
	counters map[string]int64
	err      error
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if m.err != nil {
		return &mockRow{err: m.err}
	}
	if m.counters == nil {
		m.counters = make(map[string]int64)
	}

	series, _ := args[0].(string)
	if len(args) == 2 {
		// SetCorrelative passes the explicit value.
		if v, ok := args[1].(int64); ok {
			m.counters[series] = v
			return &mockRow{val: v}
		}
	}
	m.counters[series]++
	return &mockRow{val: m.counters[series]}
}

func TestNextCorrelative(t *testing.T) {
	svc := New(&mockQuerier{})
	ctx := context.Background()

	n, err := svc.NextCorrelative(ctx, "B001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("first correlative = %d, want 1", n)
	}

	n, err = svc.NextCorrelative(ctx, "B001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("second correlative = %d, want 2", n)
	}

	// Series are independent sequences.
	n, err = svc.NextCorrelative(ctx, "F001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("new series correlative = %d, want 1", n)
	}
}

func TestNextCorrelative_QueryError(t *testing.T) {
	svc := New(&mockQuerier{err: errors.New("connection lost")})

	if _, err := svc.NextCorrelative(context.Background(), "B001"); err == nil {
		t.Fatal("expected error")
	}
}

func TestNextCorrelative_EmptySeries(t *testing.T) {
	svc := New(&mockQuerier{})

	if _, err := svc.NextCorrelative(context.Background(), ""); err == nil {
		t.Fatal("expected error for blank series")
	}
}
