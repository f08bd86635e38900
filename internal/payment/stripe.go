package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/metinatakli/table-reservation-system/internal/domain"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
)

const metadataReservationID = "reservation_id"

type StripeGateway struct {
	currency string

	newIntent func(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	getIntent func(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// NewStripeGateway charges in currency through the globally configured stripe.Key.
func NewStripeGateway(currency string) *StripeGateway {
	return &StripeGateway{
		currency:  currency,
		newIntent: paymentintent.New,
		getIntent: paymentintent.Get,
	}
}

func (s *StripeGateway) CreatePaymentIntent(
	ctx context.Context,
	reservation *domain.Reservation) (*domain.PaymentIntent, error) {

	params := &stripe.PaymentIntentParams{
		Amount:       stripe.Int64(domain.ToMinorUnits(reservation.FinalAmount)),
		Currency:     stripe.String(s.currency),
		ReceiptEmail: stripe.String(reservation.UserEmail),
		Description: stripe.String(fmt.Sprintf(
			"Table for %d on %s at %s",
			reservation.PartySize,
			reservation.ReservationDate.Format("Jan 2, 2006"),
			reservation.TimeSlot,
		)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata(metadataReservationID, reservation.ID.String())
	params.SetIdempotencyKey("reservation-" + reservation.ID.String())

	intent, err := s.newIntent(params)
	if err != nil {
		return nil, err
	}

	return &domain.PaymentIntent{
		Reference:    intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       domain.FromMinorUnits(intent.Amount),
		Currency:     string(intent.Currency),
	}, nil
}

func (s *StripeGateway) VerifyPayment(
	ctx context.Context,
	reference string,
	reservation *domain.Reservation) (*domain.PaymentVerification, error) {

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	intent, err := s.getIntent(reference, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing {
			return &domain.PaymentVerification{Reason: "unknown payment reference"}, nil
		}

		return nil, err
	}

	return verifyIntent(intent, reservation, s.currency), nil
}

// verifyIntent accepts only a captured intent that was created for reservation and paid
// exactly its final amount in currency.
func verifyIntent(
	intent *stripe.PaymentIntent,
	reservation *domain.Reservation,
	currency string) *domain.PaymentVerification {

	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return &domain.PaymentVerification{
			Reason: fmt.Sprintf("payment is %s", intent.Status),
		}
	}

	if id, ok := ReservationIDFromIntent(intent); !ok || id != reservation.ID.String() {
		return &domain.PaymentVerification{Reason: "payment belongs to another reservation"}
	}

	if string(intent.Currency) != currency {
		return &domain.PaymentVerification{
			Reason: fmt.Sprintf("payment currency %s does not match %s", intent.Currency, currency),
		}
	}

	expectedAmount := reservation.FinalAmount
	expected := domain.ToMinorUnits(expectedAmount)
	if intent.AmountReceived != expected {
		return &domain.PaymentVerification{
			Reason: fmt.Sprintf(
				"paid amount %s does not match %s",
				domain.FromMinorUnits(intent.AmountReceived).StringFixed(2),
				expectedAmount.StringFixed(2),
			),
		}
	}

	return &domain.PaymentVerification{Verified: true}
}

// ReservationIDFromIntent returns the reservation an intent was created for.
func ReservationIDFromIntent(intent *stripe.PaymentIntent) (string, bool) {
	id, ok := intent.Metadata[metadataReservationID]
	return id, ok && id != ""
}
