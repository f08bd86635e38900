package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/metinatakli/table-reservation-system/internal/domain"
	"github.com/metinatakli/table-reservation-system/internal/payment"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

const (
	maxWebhookBytes    = 65536
	webhookEventTTL    = 24 * time.Hour
	webhookEventPrefix = "stripe_event:"
)

// HandleStripeWebhook reconciles reservations with payment intents settled at the gateway.
// Stripe redelivers an event until it gets a 2xx, so only retryable failures answer 500.
func (app *Application) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		app.badRequestResponse(w, r, errors.New("failed to read request body"))
		return
	}

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), app.config.Stripe.WebhookSecret)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid webhook signature"))
		return
	}

	logger := app.contextGetLogger(r).With("stripe_event_id", event.ID, "stripe_event_type", event.Type)

	if event.Type != stripe.EventTypePaymentIntentSucceeded && event.Type != stripe.EventTypePaymentIntentPaymentFailed {
		logger.Debug("ignoring webhook event")
		w.WriteHeader(http.StatusOK)
		return
	}

	first, err := app.claimWebhookEvent(r.Context(), event.ID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	if !first {
		logger.Info("webhook event already processed")
		w.WriteHeader(http.StatusOK)
		return
	}

	err = app.processPaymentIntentEvent(r.Context(), event)
	if err != nil {
		if isRetryableWebhookError(err) {
			app.releaseWebhookEvent(r, event.ID)
			app.serverErrorResponse(w, r, err)
			return
		}

		if event.Type == stripe.EventTypePaymentIntentSucceeded {
			logger.Warn("payment captured for a reservation that cannot be confirmed", "error", err)
		} else {
			logger.Info("payment failure event not applied", "error", err)
		}
	}

	w.WriteHeader(http.StatusOK)
}

func (app *Application) processPaymentIntentEvent(ctx context.Context, event stripe.Event) error {
	var intent stripe.PaymentIntent

	err := json.Unmarshal(event.Data.Raw, &intent)
	if err != nil {
		return fmt.Errorf("decode payment intent: %w", err)
	}

	rawID, ok := payment.ReservationIDFromIntent(&intent)
	if !ok {
		return fmt.Errorf("%w: payment intent %s has no reservation", domain.ErrValidation, intent.ID)
	}

	reservationID, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("%w: payment intent %s has an invalid reservation id", domain.ErrValidation, intent.ID)
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		_, err = app.bookings.ConfirmFromWebhook(ctx, reservationID, intent.ID)
	default:
		_, err = app.bookings.FailFromWebhook(ctx, reservationID)
	}

	return err
}

// claimWebhookEvent reports whether this delivery is the first one seen for eventID.
func (app *Application) claimWebhookEvent(ctx context.Context, eventID string) (bool, error) {
	return app.redis.SetNX(ctx, webhookEventPrefix+eventID, time.Now().Unix(), webhookEventTTL).Result()
}

func (app *Application) releaseWebhookEvent(r *http.Request, eventID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 2*time.Second)
	defer cancel()

	err := app.redis.Del(ctx, webhookEventPrefix+eventID).Err()
	if err != nil {
		app.contextGetLogger(r).Error("failed to release webhook event", "stripe_event_id", eventID, "error", err)
	}
}

func isRetryableWebhookError(err error) bool {
	switch {
	case errors.Is(err, domain.ErrGatewayUnavailable),
		errors.Is(err, domain.ErrConcurrentConfirmation),
		errors.Is(err, domain.ErrEditConflict):
		return true
	case errors.Is(err, domain.ErrRecordNotFound),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrAlreadyConfirmed),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrReservationExpired),
		errors.Is(err, domain.ErrPaymentVerification):
		return false
	default:
		return true
	}
}
