package payment

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/metinatakli/table-reservation-system/internal/domain"
	"github.com/shopspring/decimal"
)

var ErrGatewayDown = errors.New("mock gateway is down")

// MockGateway is an in-memory gateway for local runs and integration tests. Every intent it
// creates is treated as captured unless Decline is called for it.
type MockGateway struct {
	mu       sync.Mutex
	payments map[string]capturedPayment
	declined map[string]bool
	down     bool
}

type capturedPayment struct {
	reservationID uuid.UUID
	amount        decimal.Decimal
}

func NewMockGateway() *MockGateway {
	return &MockGateway{
		payments: make(map[string]capturedPayment),
		declined: make(map[string]bool),
	}
}

func (m *MockGateway) CreatePaymentIntent(
	ctx context.Context,
	reservation *domain.Reservation) (*domain.PaymentIntent, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.down {
		return nil, ErrGatewayDown
	}

	reference := "pi_mock_" + uuid.NewString()
	m.payments[reference] = capturedPayment{reservationID: reservation.ID, amount: reservation.FinalAmount}

	return &domain.PaymentIntent{
		Reference:    reference,
		ClientSecret: reference + "_secret",
		Amount:       reservation.FinalAmount,
		Currency:     "usd",
	}, nil
}

func (m *MockGateway) VerifyPayment(
	ctx context.Context,
	reference string,
	reservation *domain.Reservation) (*domain.PaymentVerification, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.down {
		return nil, ErrGatewayDown
	}

	payment, ok := m.payments[reference]
	if !ok {
		return &domain.PaymentVerification{Reason: "unknown payment reference"}, nil
	}

	if m.declined[reference] {
		return &domain.PaymentVerification{Reason: "payment was declined"}, nil
	}

	if payment.reservationID != reservation.ID {
		return &domain.PaymentVerification{Reason: "payment belongs to another reservation"}, nil
	}

	if !payment.amount.Equal(reservation.FinalAmount) {
		return &domain.PaymentVerification{Reason: "paid amount does not match"}, nil
	}

	return &domain.PaymentVerification{Verified: true}, nil
}

// Record registers a captured payment of amount for reservationID under reference.
func (m *MockGateway) Record(reference string, reservationID uuid.UUID, amount decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.payments[reference] = capturedPayment{reservationID: reservationID, amount: amount}
}

func (m *MockGateway) Decline(reference string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.declined[reference] = true
}

// SetDown makes every call fail as if the gateway were unreachable.
func (m *MockGateway) SetDown(down bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.down = down
}
