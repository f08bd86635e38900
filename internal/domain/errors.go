package domain

import "errors"

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrEditConflict   = errors.New("edit conflict")
)

var (
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidCoupon          = errors.New("invalid coupon")
	ErrCouponNotApplicable    = errors.New("coupon is not applicable")
	ErrInvalidTransition      = errors.New("invalid reservation status transition")
	ErrAlreadyConfirmed       = errors.New("reservation is already confirmed")
	ErrPaymentVerification    = errors.New("payment could not be verified")
	ErrInsufficientBalance    = errors.New("insufficient wallet balance")
	ErrConcurrentConfirmation = errors.New("reservation was confirmed by a concurrent request")
	ErrReservationExpired     = errors.New("reservation payment hold has expired")
	ErrGatewayUnavailable     = errors.New("payment gateway is unavailable")
	ErrCancellationNotAllowed = errors.New("reservation can no longer be cancelled")
	ErrPartyTooLarge          = errors.New("party size exceeds table capacity")
)

// Outcome tells a client what it can do after a failed operation.
type Outcome string

const (
	OutcomeRetryable      Outcome = "retryable"
	OutcomeNotPayable     Outcome = "not_payable"
	OutcomeAlreadyHandled Outcome = "already_handled"
	OutcomeRejected       Outcome = "rejected"
)

func Classify(err error) Outcome {
	switch {
	case errors.Is(err, ErrAlreadyConfirmed):
		return OutcomeAlreadyHandled
	case errors.Is(err, ErrPaymentVerification),
		errors.Is(err, ErrInsufficientBalance),
		errors.Is(err, ErrGatewayUnavailable),
		errors.Is(err, ErrConcurrentConfirmation):
		return OutcomeRetryable
	case errors.Is(err, ErrReservationExpired),
		errors.Is(err, ErrInvalidTransition):
		return OutcomeNotPayable
	default:
		return OutcomeRejected
	}
}

var ErrValidation = errors.New("validation error")
