package payments

import (
	"context"
	"sync"
)

// MockGateway is a mock implementation of Gateway for testing. It is safe
// for concurrent use.
type MockGateway struct {
	mu sync.Mutex

	// Spies for method calls
	ChargeFunc func(ctx context.Context, userID string, amountMinor int64, idempotencyKey string) error
	RefundFunc func(ctx context.Context, userID string, amountMinor int64, idempotencyKey string) error

	// Call records
	ChargeCalls []PaymentCall
	RefundCalls []PaymentCall
}

// PaymentCall holds the arguments of a Charge or Refund call.
type PaymentCall struct {
	UserID         string
	AmountMinor    int64
	IdempotencyKey string
}

// NewMock creates a new mock gateway that accepts everything.
func NewMock() *MockGateway {
	return &MockGateway{}
}

func (m *MockGateway) Charge(ctx context.Context, userID string, amountMinor int64, idempotencyKey string) error {
	m.mu.Lock()
	m.ChargeCalls = append(m.ChargeCalls, PaymentCall{UserID: userID, AmountMinor: amountMinor, IdempotencyKey: idempotencyKey})
	fn := m.ChargeFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, userID, amountMinor, idempotencyKey)
	}
	return nil
}

func (m *MockGateway) Refund(ctx context.Context, userID string, amountMinor int64, idempotencyKey string) error {
	m.mu.Lock()
	m.RefundCalls = append(m.RefundCalls, PaymentCall{UserID: userID, AmountMinor: amountMinor, IdempotencyKey: idempotencyKey})
	fn := m.RefundFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, userID, amountMinor, idempotencyKey)
	}
	return nil
}

// Charges returns a snapshot of recorded charge calls.
func (m *MockGateway) Charges() []PaymentCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PaymentCall(nil), m.ChargeCalls...)
}

// Refunds returns a snapshot of recorded refund calls.
func (m *MockGateway) Refunds() []PaymentCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PaymentCall(nil), m.RefundCalls...)
}
