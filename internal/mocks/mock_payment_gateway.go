package mocks

import (
	"context"

	"github.com/metinatakli/table-reservation-system/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockPaymentGateway struct {
	mock.Mock
	domain.PaymentGateway
}

func (m *MockPaymentGateway) CreatePaymentIntent(
	ctx context.Context,
	reservation *domain.Reservation) (*domain.PaymentIntent, error) {

	args := m.Called(ctx, reservation)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentIntent), args.Error(1)
}

func (m *MockPaymentGateway) VerifyPayment(
	ctx context.Context,
	reference string,
	reservation *domain.Reservation) (*domain.PaymentVerification, error) {

	args := m.Called(ctx, reference, reservation)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentVerification), args.Error(1)
}
