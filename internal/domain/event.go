package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventReservationConfirmed EventType = "reservation.confirmed"
	EventReservationCancelled EventType = "reservation.cancelled"
	EventReservationExpired   EventType = "reservation.expired"
	EventReservationCompleted EventType = "reservation.completed"
)

type Event struct {
	Type          EventType       `json:"type"`
	ReservationID uuid.UUID       `json:"reservationId"`
	UserID        int             `json:"userId"`
	UserName      string          `json:"userName"`
	UserEmail     string          `json:"userEmail"`
	BranchID      int             `json:"branchId"`
	StartsAt      time.Time       `json:"startsAt"`
	PartySize     int             `json:"partySize"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod *PaymentMethod  `json:"paymentMethod,omitempty"`
	PaymentID     *string         `json:"paymentId,omitempty"`
	OccurredAt    time.Time       `json:"occurredAt"`
}

func NewEvent(eventType EventType, r *Reservation, now time.Time) Event {
	return Event{
		Type:          eventType,
		ReservationID: r.ID,
		UserID:        r.UserID,
		UserName:      r.UserName,
		UserEmail:     r.UserEmail,
		BranchID:      r.BranchID,
		StartsAt:      r.StartsAt,
		PartySize:     r.PartySize,
		Amount:        r.FinalAmount,
		PaymentMethod: r.PaymentMethod,
		PaymentID:     r.PaymentID,
		OccurredAt:    now,
	}
}

// Notifier hands events to downstream consumers. Delivery is best effort: callers never
// depend on the outcome.
type Notifier interface {
	Emit(ctx context.Context, event Event) error
}
