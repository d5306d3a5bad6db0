package numerator

import (
	"context"
	"sync"
)

// MockGenerator is a test implementation of Generator.
// Use in unit tests to avoid database dependencies.
type MockGenerator struct {
	NextCorrelativeFunc func(ctx context.Context, series string) (int64, error)
	SetCorrelativeFunc  func(ctx context.Context, series string, value int64) error

	mu      sync.Mutex
	counter map[string]int64
}

// NextCorrelative implements Generator.
func (m *MockGenerator) NextCorrelative(ctx context.Context, series string) (int64, error) {
	if m.NextCorrelativeFunc != nil {
		return m.NextCorrelativeFunc(ctx, series)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counter == nil {
		m.counter = make(map[string]int64)
	}
	m.counter[series]++
	return m.counter[series], nil
}

// SetCorrelative implements Generator.
func (m *MockGenerator) SetCorrelative(ctx context.Context, series string, value int64) error {
	if m.SetCorrelativeFunc != nil {
		return m.SetCorrelativeFunc(ctx, series, value)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counter == nil {
		m.counter = make(map[string]int64)
	}
	m.counter[series] = value - 1
	return nil
}

// Ensure compile-time interface compliance.
var _ Generator = (*MockGenerator)(nil)
