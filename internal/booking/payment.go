package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/metinatakli/table-reservation-system/internal/domain"
)

type PaymentInitiation struct {
	Reservation *domain.Reservation
	// Intent is set for gateway payments only.
	Intent *domain.PaymentIntent
}

// InitiatePayment moves a pending or failed reservation to payment_pending. For gateway
// payments it also prepares the charge the client completes at checkout.
func (s *Service) InitiatePayment(
	ctx context.Context,
	id uuid.UUID,
	userID int,
	method domain.PaymentMethod) (*PaymentInitiation, error) {

	reservation, err := s.GetForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	err = s.expireIfStale(ctx, reservation)
	if err != nil {
		return nil, err
	}

	err = s.transition(ctx, reservation, domain.EventInitiatePayment)
	if err != nil {
		return nil, err
	}

	result := &PaymentInitiation{Reservation: reservation}

	if method != domain.PaymentMethodGateway {
		return result, nil
	}

	intent, err := s.gateway.CreatePaymentIntent(ctx, reservation)
	if err != nil {
		s.logger.Error("failed to create payment intent", "reservation_id", reservation.ID, "error", err)
		s.abandonIntent(ctx, reservation)

		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}

	err = s.reservations.RecordPaymentIntent(ctx, reservation.ID, intent.Reference)
	if err != nil {
		s.logger.Error("failed to record payment intent",
			"reservation_id", reservation.ID,
			"payment_reference", intent.Reference,
			"error", err,
		)
		s.abandonIntent(ctx, reservation)

		return nil, fmt.Errorf("record payment intent: %w", err)
	}

	reservation.PaymentIntentID = &intent.Reference
	result.Intent = intent

	return result, nil
}

// abandonIntent fails a payment whose gateway charge could not be prepared.
func (s *Service) abandonIntent(ctx context.Context, reservation *domain.Reservation) {
	err := s.transition(ctx, reservation, domain.EventPaymentFailed)
	if err != nil {
		s.logger.Error("failed to mark payment as failed", "reservation_id", reservation.ID, "error", err)
	}
}

// MarkPaymentFailed records that the user abandoned or failed the gateway checkout.
func (s *Service) MarkPaymentFailed(ctx context.Context, id uuid.UUID, userID int) (*domain.Reservation, error) {
	reservation, err := s.GetForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	err = s.transition(ctx, reservation, domain.EventPaymentFailed)
	if err != nil {
		return nil, err
	}

	return reservation, nil
}

// FailFromWebhook is MarkPaymentFailed driven by the gateway instead of the user.
func (s *Service) FailFromWebhook(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	reservation, err := s.reservations.GetById(ctx, id)
	if err != nil {
		return nil, err
	}

	if reservation.Status != domain.StatusPaymentPending {
		return reservation, nil
	}

	err = s.transition(ctx, reservation, domain.EventPaymentFailed)
	if err != nil {
		return nil, err
	}

	return reservation, nil
}

// ConfirmWithGateway confirms a reservation of userID paid at the gateway under reference.
func (s *Service) ConfirmWithGateway(
	ctx context.Context,
	id uuid.UUID,
	userID int,
	reference string) (*domain.Reservation, error) {

	reservation, err := s.GetForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	return s.confirmWithGateway(ctx, reservation, reference)
}

// ConfirmFromWebhook is ConfirmWithGateway driven by the gateway's payment notification.
func (s *Service) ConfirmFromWebhook(ctx context.Context, id uuid.UUID, reference string) (*domain.Reservation, error) {
	reservation, err := s.reservations.GetById(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.confirmWithGateway(ctx, reservation, reference)
}

func (s *Service) confirmWithGateway(
	ctx context.Context,
	reservation *domain.Reservation,
	reference string) (result *domain.Reservation, err error) {

	defer func() { s.recordConfirmation(ctx, domain.PaymentMethodGateway, err) }()

	if reservation.Status == domain.StatusConfirmed {
		s.logger.Info("reservation already confirmed, skipping gateway confirmation",
			"reservation_id", reservation.ID,
			"payment_reference", reference,
		)
		return reservation, nil
	}

	_, err = reservation.Status.Next(domain.EventPaymentSucceeded)
	if err != nil {
		return nil, err
	}

	release, err := s.lock(ctx, reservation.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	// A charge captured at the gateway confirms the reservation even after its hold window.
	verifyCtx, cancel := context.WithTimeout(ctx, s.cfg.GatewayTimeout)
	verification, err := s.gateway.VerifyPayment(verifyCtx, reference, reservation)
	cancel()

	if err != nil {
		s.logger.Warn("payment verification did not complete, leaving reservation for reconciliation",
			"reservation_id", reservation.ID,
			"payment_reference", reference,
			"error", err,
		)
		s.holdForReconciliation(ctx, reservation, reference)

		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}

	if !verification.Verified {
		s.logger.Warn("payment verification failed",
			"reservation_id", reservation.ID,
			"payment_reference", reference,
			"reason", verification.Reason,
		)

		if reservation.HoldExpired(s.now(), s.cfg.HoldWindow) {
			return nil, s.expire(ctx, reservation)
		}

		failErr := s.failVerification(ctx, reservation)
		if failErr != nil {
			return nil, failErr
		}

		return nil, fmt.Errorf("%w: %s", domain.ErrPaymentVerification, verification.Reason)
	}

	swapped, err := s.reservations.ConfirmWithGatewayPayment(
		ctx,
		reservation.ID,
		domain.SourceStatuses(domain.EventPaymentSucceeded),
		reference,
	)
	if err != nil {
		return nil, fmt.Errorf("confirm reservation: %w", err)
	}

	if !swapped {
		return nil, s.lostConfirmationRace(ctx, reservation.ID)
	}

	method := domain.PaymentMethodGateway
	reservation.Status = domain.StatusConfirmed
	reservation.PaymentID = &reference
	reservation.PaymentMethod = &method
	reservation.UpdatedAt = s.now()

	s.logger.Info("reservation confirmed",
		"reservation_id", reservation.ID,
		"payment_method", method,
		"payment_reference", reference,
	)
	s.emit(ctx, domain.EventReservationConfirmed, reservation)

	return reservation, nil
}

// holdForReconciliation parks the reservation in payment_pending under reference so that the
// gateway's authoritative status can settle it later.
func (s *Service) holdForReconciliation(ctx context.Context, reservation *domain.Reservation, reference string) {
	if reservation.Status != domain.StatusPaymentPending {
		swapped, err := s.reservations.CompareAndSwapStatus(
			ctx,
			reservation.ID,
			domain.SourceStatuses(domain.EventInitiatePayment),
			domain.StatusPaymentPending,
		)
		if err != nil {
			s.logger.Error("failed to park reservation in payment_pending", "reservation_id", reservation.ID, "error", err)
			return
		}

		if !swapped {
			return
		}

		reservation.Status = domain.StatusPaymentPending
	}

	if reservation.PaymentIntentID != nil {
		return
	}

	err := s.reservations.RecordPaymentIntent(ctx, reservation.ID, reference)
	if err != nil {
		s.logger.Error("failed to record payment reference for reconciliation",
			"reservation_id", reservation.ID,
			"payment_reference", reference,
			"error", err,
		)
		return
	}

	reservation.PaymentIntentID = &reference
}

// failVerification applies EventVerificationFailed. A reservation that already failed or
// moved on concurrently is left as it is.
func (s *Service) failVerification(ctx context.Context, reservation *domain.Reservation) error {
	if reservation.Status == domain.StatusPaymentFailed {
		return nil
	}

	err := s.transition(ctx, reservation, domain.EventVerificationFailed)
	if err != nil && !errors.Is(err, domain.ErrInvalidTransition) && !errors.Is(err, domain.ErrEditConflict) {
		return fmt.Errorf("mark payment failed: %w", err)
	}

	return nil
}

// lostConfirmationRace explains why a guarded confirmation update matched no row.
func (s *Service) lostConfirmationRace(ctx context.Context, id uuid.UUID) error {
	current, err := s.reservations.GetById(ctx, id)
	if err != nil {
		return err
	}

	if current.Status == domain.StatusConfirmed {
		return domain.ErrConcurrentConfirmation
	}

	_, err = current.Status.Next(domain.EventPaymentSucceeded)
	if err != nil {
		return err
	}

	return domain.ErrConcurrentConfirmation
}

// ConfirmWithWallet pays the reservation from the owner's stored balance.
func (s *Service) ConfirmWithWallet(
	ctx context.Context,
	id uuid.UUID,
	userID int) (result *domain.Reservation, err error) {

	defer func() { s.recordConfirmation(ctx, domain.PaymentMethodStoredBalance, err) }()

	reservation, err := s.GetForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if reservation.Status == domain.StatusConfirmed {
		s.logger.Info("reservation already confirmed, skipping wallet debit", "reservation_id", reservation.ID)
		return reservation, nil
	}

	err = s.expireIfStale(ctx, reservation)
	if err != nil {
		return nil, err
	}

	_, err = reservation.Status.Next(domain.EventPaymentSucceeded)
	if err != nil {
		return nil, err
	}

	release, err := s.lock(ctx, reservation.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	confirmed, transaction, err := s.wallets.PayReservation(
		ctx,
		reservation.ID,
		domain.SourceStatuses(domain.EventPaymentSucceeded),
		fmt.Sprintf("Reservation %s", reservation.ID),
	)
	if err != nil {
		if errors.Is(err, domain.ErrConcurrentConfirmation) {
			return nil, s.lostConfirmationRace(ctx, reservation.ID)
		}

		return nil, err
	}

	s.logger.Info("reservation confirmed",
		"reservation_id", confirmed.ID,
		"payment_method", domain.PaymentMethodStoredBalance,
		"wallet_transaction_id", transaction.ID,
	)
	s.emit(ctx, domain.EventReservationConfirmed, confirmed)

	return confirmed, nil
}
