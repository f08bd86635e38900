package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/table-reservation-system/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockReservationRepo struct {
	mock.Mock
	domain.ReservationRepository
}

func (m *MockReservationRepo) Create(ctx context.Context, reservation *domain.Reservation) error {
	args := m.Called(ctx, reservation)
	return args.Error(0)
}

func (m *MockReservationRepo) GetById(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationRepo) CompareAndSwapStatus(
	ctx context.Context,
	id uuid.UUID,
	expected []domain.ReservationStatus,
	newStatus domain.ReservationStatus) (bool, error) {

	args := m.Called(ctx, id, expected, newStatus)
	return args.Bool(0), args.Error(1)
}

func (m *MockReservationRepo) RecordPaymentIntent(ctx context.Context, id uuid.UUID, reference string) error {
	args := m.Called(ctx, id, reference)
	return args.Error(0)
}

func (m *MockReservationRepo) ConfirmWithGatewayPayment(
	ctx context.Context,
	id uuid.UUID,
	expected []domain.ReservationStatus,
	paymentID string) (bool, error) {

	args := m.Called(ctx, id, expected, paymentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockReservationRepo) CancelWithRefund(
	ctx context.Context,
	id uuid.UUID,
	expected []domain.ReservationStatus,
	description string) (*domain.WalletTransaction, error) {

	args := m.Called(ctx, id, expected, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WalletTransaction), args.Error(1)
}

func (m *MockReservationRepo) ListByUser(
	ctx context.Context,
	userID int,
	pagination domain.Pagination) ([]domain.ReservationSummary, *domain.Metadata, error) {

	args := m.Called(ctx, userID, pagination)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]domain.ReservationSummary), args.Get(1).(*domain.Metadata), args.Error(2)
}

func (m *MockReservationRepo) ExpireStale(ctx context.Context, createdBefore time.Time) ([]*domain.Reservation, error) {
	args := m.Called(ctx, createdBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Reservation), args.Error(1)
}

func (m *MockReservationRepo) ListAwaitingGateway(
	ctx context.Context,
	createdBefore time.Time) ([]*domain.Reservation, error) {

	args := m.Called(ctx, createdBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Reservation), args.Error(1)
}

func (m *MockReservationRepo) CompleteElapsed(ctx context.Context, startedBefore time.Time) ([]*domain.Reservation, error) {
	args := m.Called(ctx, startedBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Reservation), args.Error(1)
}

type MockTableTypeRepo struct {
	mock.Mock
	domain.TableTypeRepository
}

func (m *MockTableTypeRepo) GetById(ctx context.Context, branchID, tableTypeID int) (*domain.TableType, error) {
	args := m.Called(ctx, branchID, tableTypeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TableType), args.Error(1)
}

type MockCouponRepo struct {
	mock.Mock
	domain.CouponRepository
}

func (m *MockCouponRepo) FindActiveByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Coupon), args.Error(1)
}
