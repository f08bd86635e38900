package domain

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ReservationStatus string

const (
	StatusPending        ReservationStatus = "pending"
	StatusPaymentPending ReservationStatus = "payment_pending"
	StatusConfirmed      ReservationStatus = "confirmed"
	StatusPaymentFailed  ReservationStatus = "payment_failed"
	StatusCancelled      ReservationStatus = "cancelled"
	StatusExpired        ReservationStatus = "expired"
	StatusCompleted      ReservationStatus = "completed"
)

type PaymentMethod string

const (
	PaymentMethodGateway       PaymentMethod = "gateway"
	PaymentMethodStoredBalance PaymentMethod = "stored_balance"
)

// TimeSlots are the bookable starting times of a table.
var TimeSlots = []string{
	"11:00", "11:30", "12:00", "12:30", "13:00", "13:30", "14:00", "14:30",
	"15:00", "15:30", "16:00", "16:30", "17:00", "17:30", "18:00", "18:30",
	"19:00", "19:30", "20:00", "20:30", "21:00", "21:30", "22:00",
}

func IsValidTimeSlot(slot string) bool {
	return slices.Contains(TimeSlots, slot)
}

type Reservation struct {
	ID                  uuid.UUID
	UserID              int
	BranchID            int
	TableTypeID         int
	UserName            string
	UserEmail           string
	UserPhone           string
	ReservationDate     time.Time
	TimeSlot            string
	StartsAt            time.Time
	PartySize           int
	BasePrice           decimal.Decimal
	CouponCode          *string
	DiscountApplied     decimal.Decimal
	FinalAmount         decimal.Decimal
	Status              ReservationStatus
	PaymentID           *string
	PaymentIntentID     *string
	PaymentMethod       *PaymentMethod
	WalletTransactionID *uuid.UUID
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// AwaitingGateway reports whether a gateway charge was prepared for the unpaid reservation.
// Such a reservation only expires once the gateway says the charge was not captured.
func (r *Reservation) AwaitingGateway() bool {
	return r.Status == StatusPaymentPending && r.PaymentIntentID != nil
}

// HoldExpired reports whether an unpaid reservation has outlived its payment hold window.
func (r *Reservation) HoldExpired(now time.Time, holdWindow time.Duration) bool {
	if r.Status != StatusPending && r.Status != StatusPaymentPending {
		return false
	}

	return !now.Before(r.CreatedAt.Add(holdWindow))
}

// StartTime combines a calendar date and a time slot in loc.
func StartTime(date time.Time, slot string, loc *time.Location) (time.Time, error) {
	if !IsValidTimeSlot(slot) {
		return time.Time{}, fmt.Errorf("invalid time slot %q", slot)
	}

	clock, err := time.Parse("15:04", slot)
	if err != nil {
		return time.Time{}, err
	}

	return time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), 0, 0, loc), nil
}

type ReservationSummary struct {
	ID              uuid.UUID
	BranchID        int
	TableTypeName   string
	ReservationDate time.Time
	TimeSlot        string
	PartySize       int
	FinalAmount     decimal.Decimal
	Status          ReservationStatus
	CreatedAt       time.Time
}

type ReservationRepository interface {
	Create(ctx context.Context, reservation *Reservation) error
	GetById(ctx context.Context, id uuid.UUID) (*Reservation, error)
	// CompareAndSwapStatus moves the reservation to newStatus only while its current status is
	// one of expected. It reports whether the row was updated.
	CompareAndSwapStatus(ctx context.Context, id uuid.UUID, expected []ReservationStatus, newStatus ReservationStatus) (bool, error)
	// RecordPaymentIntent links the gateway charge prepared for the reservation.
	RecordPaymentIntent(ctx context.Context, id uuid.UUID, reference string) error
	ConfirmWithGatewayPayment(ctx context.Context, id uuid.UUID, expected []ReservationStatus, paymentID string) (bool, error)
	CancelWithRefund(ctx context.Context, id uuid.UUID, expected []ReservationStatus, description string) (*WalletTransaction, error)
	ListByUser(ctx context.Context, userID int, pagination Pagination) ([]ReservationSummary, *Metadata, error)
	// ExpireStale expires unpaid reservations created before createdBefore, except those
	// awaiting the gateway.
	ExpireStale(ctx context.Context, createdBefore time.Time) ([]*Reservation, error)
	// ListAwaitingGateway returns the reservations created before createdBefore that still
	// wait for a prepared gateway charge.
	ListAwaitingGateway(ctx context.Context, createdBefore time.Time) ([]*Reservation, error)
	CompleteElapsed(ctx context.Context, startedBefore time.Time) ([]*Reservation, error)
}

type TableType struct {
	ID       int
	BranchID int
	Name     string
	Price    decimal.Decimal
	Capacity int
}

type TableTypeRepository interface {
	GetById(ctx context.Context, branchID, tableTypeID int) (*TableType, error)
}
