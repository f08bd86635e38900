package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"
)

type Wallet struct {
	UserID       int
	Balance      decimal.Decimal
	Transactions []WalletTransaction
}

// WalletTransaction amounts are signed: credits positive, debits negative.
type WalletTransaction struct {
	ID            uuid.UUID
	UserID        int
	Type          TransactionType
	Amount        decimal.Decimal
	Description   string
	ReservationID *uuid.UUID
	CreatedAt     time.Time
}

type WalletRepository interface {
	GetByUserId(ctx context.Context, userID int) (*Wallet, error)
	GetBalance(ctx context.Context, userID int) (decimal.Decimal, error)
	Debit(ctx context.Context, userID int, amount decimal.Decimal, description string) (*WalletTransaction, error)
	// PayReservation debits the owner's wallet by the reservation's final amount and confirms
	// the reservation in one transaction. It fails with ErrConcurrentConfirmation when the
	// reservation is no longer in one of expected, and with ErrInsufficientBalance without
	// side effects when the balance does not cover the amount.
	PayReservation(
		ctx context.Context,
		reservationID uuid.UUID,
		expected []ReservationStatus,
		description string) (*Reservation, *WalletTransaction, error)
}
