package domain

import "fmt"

type ReservationEvent string

const (
	EventInitiatePayment    ReservationEvent = "initiate_payment"
	EventPaymentSucceeded   ReservationEvent = "payment_succeeded"
	EventPaymentFailed      ReservationEvent = "payment_failed"
	EventVerificationFailed ReservationEvent = "verification_failed"
	EventCancel             ReservationEvent = "cancel"
	EventExpire             ReservationEvent = "expire"
	EventComplete           ReservationEvent = "complete"
)

type transition struct {
	from []ReservationStatus
	to   ReservationStatus
}

var transitions = map[ReservationEvent]transition{
	EventInitiatePayment: {
		from: []ReservationStatus{StatusPending, StatusPaymentFailed},
		to:   StatusPaymentPending,
	},
	EventPaymentSucceeded: {
		from: []ReservationStatus{StatusPending, StatusPaymentPending, StatusPaymentFailed},
		to:   StatusConfirmed,
	},
	EventPaymentFailed: {
		from: []ReservationStatus{StatusPaymentPending},
		to:   StatusPaymentFailed,
	},
	EventVerificationFailed: {
		from: []ReservationStatus{StatusPending, StatusPaymentPending},
		to:   StatusPaymentFailed,
	},
	EventCancel: {
		from: []ReservationStatus{StatusPending, StatusPaymentFailed, StatusConfirmed},
		to:   StatusCancelled,
	},
	EventExpire: {
		from: []ReservationStatus{StatusPending, StatusPaymentPending},
		to:   StatusExpired,
	},
	EventComplete: {
		from: []ReservationStatus{StatusConfirmed},
		to:   StatusCompleted,
	},
}

func (s ReservationStatus) IsTerminal() bool {
	return s == StatusCancelled || s == StatusExpired || s == StatusCompleted
}

// Next returns the status reached by applying event to s.
func (s ReservationStatus) Next(event ReservationEvent) (ReservationStatus, error) {
	t, ok := transitions[event]
	if !ok {
		return "", fmt.Errorf("%w: unknown event %q", ErrInvalidTransition, event)
	}

	if s.IsTerminal() {
		return "", fmt.Errorf("%w: reservation is %s", ErrInvalidTransition, s)
	}

	if event == EventPaymentSucceeded && s == StatusConfirmed {
		return "", ErrAlreadyConfirmed
	}

	for _, from := range t.from {
		if from == s {
			return t.to, nil
		}
	}

	return "", fmt.Errorf("%w: cannot %s a reservation that is %s", ErrInvalidTransition, event, s)
}

// SourceStatuses lists the statuses event may be applied to. Persistence uses it as the
// expected set of a compare-and-swap update.
func SourceStatuses(event ReservationEvent) []ReservationStatus {
	t, ok := transitions[event]
	if !ok {
		return nil
	}

	from := make([]ReservationStatus, len(t.from))
	copy(from, t.from)

	return from
}
