package address

import (
	"context"
	"sync"
)

// MockValidator is a test implementation of Validator.
type MockValidator struct {
	ValidateFunc func(ctx context.Context, addr Address) (*ValidationResult, error)
}

// NewMockValidator creates a mock validator that accepts every submit-ready address.
func NewMockValidator() *MockValidator {
	return &MockValidator{}
}

// Validate delegates to the configured function or returns a default result.
func (m *MockValidator) Validate(ctx context.Context, addr Address) (*ValidationResult, error) {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx, addr)
	}
	normalized := addr.Normalize()
	return &ValidationResult{
		IsValid:           normalized.SubmitReady(),
		NormalizedAddress: &normalized,
	}, nil
}

// MockSink records submitted addresses.
type MockSink struct {
	SubmitFunc func(ctx context.Context, addr Address) error

	mu        sync.Mutex
	submitted []Address
}

// SubmitAddress records addr and delegates to SubmitFunc when set.
func (m *MockSink) SubmitAddress(ctx context.Context, addr Address) error {
	if m.SubmitFunc != nil {
		if err := m.SubmitFunc(ctx, addr); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.submitted = append(m.submitted, addr)
	m.mu.Unlock()
	return nil
}

// Submitted returns a copy of every address accepted so far.
func (m *MockSink) Submitted() []Address {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Address, len(m.submitted))
	copy(out, m.submitted)
	return out
}
