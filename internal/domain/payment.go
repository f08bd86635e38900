package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// PaymentIntent is a charge prepared at the gateway that the client completes at checkout.
type PaymentIntent struct {
	Reference    string
	ClientSecret string
	Amount       decimal.Decimal
	Currency     string
}

type PaymentVerification struct {
	Verified bool
	// Reason explains a failed verification.
	Reason string
}

type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, reservation *Reservation) (*PaymentIntent, error)
	// VerifyPayment checks that reference was captured for reservation, for exactly its final
	// amount. Transport failures are returned as errors; a reachable gateway that rejects the
	// reference yields Verified=false.
	VerifyPayment(ctx context.Context, reference string, reservation *Reservation) (*PaymentVerification, error)
}
