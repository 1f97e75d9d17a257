package pincode

import (
	"context"
	"sync"
)

// MockLookup is a test implementation of Lookup.
type MockLookup struct {
	LookupFunc func(ctx context.Context, code string) (*Location, error)

	mu    sync.Mutex
	calls []string
}

// NewMockLookup creates a mock that answers from the seed directory.
func NewMockLookup() *MockLookup {
	return &MockLookup{}
}

// Lookup records the call and delegates to LookupFunc or the seed directory.
func (m *MockLookup) Lookup(ctx context.Context, code string) (*Location, error) {
	m.mu.Lock()
	m.calls = append(m.calls, code)
	m.mu.Unlock()

	if m.LookupFunc != nil {
		return m.LookupFunc(ctx, code)
	}

	loc, err := NewMemoryDirectory(SeedLocations).Find(ctx, code)
	if err != nil {
		return nil, &LookupError{Kind: Classify(err), Code: code, Err: err}
	}
	return loc, nil
}

// Calls returns the pincodes looked up so far, in order.
func (m *MockLookup) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}
