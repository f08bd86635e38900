package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/metinatakli/table-reservation-system/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockWalletRepo struct {
	mock.Mock
	domain.WalletRepository
}

func (m *MockWalletRepo) GetByUserId(ctx context.Context, userID int) (*domain.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockWalletRepo) GetBalance(ctx context.Context, userID int) (decimal.Decimal, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockWalletRepo) Debit(
	ctx context.Context,
	userID int,
	amount decimal.Decimal,
	description string) (*domain.WalletTransaction, error) {

	args := m.Called(ctx, userID, amount, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WalletTransaction), args.Error(1)
}

func (m *MockWalletRepo) PayReservation(
	ctx context.Context,
	reservationID uuid.UUID,
	expected []domain.ReservationStatus,
	description string) (*domain.Reservation, *domain.WalletTransaction, error) {

	args := m.Called(ctx, reservationID, expected, description)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Reservation), args.Get(1).(*domain.WalletTransaction), args.Error(2)
}
