package domain

import (
	"fmt"
	"time"
)

type CancellationPolicy interface {
	Allow(reservation *Reservation, now time.Time) error
}

// CutoffPolicy rejects cancelling a confirmed reservation less than Cutoff before it starts.
// Unpaid reservations can always be cancelled.
type CutoffPolicy struct {
	Cutoff time.Duration
}

func (p CutoffPolicy) Allow(reservation *Reservation, now time.Time) error {
	if reservation.Status != StatusConfirmed {
		return nil
	}

	if now.Add(p.Cutoff).After(reservation.StartsAt) {
		return fmt.Errorf("%w: cancellations close %s before the reservation", ErrCancellationNotAllowed, p.Cutoff)
	}

	return nil
}
