package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/metinatakli/table-reservation-system/internal/domain"
)

// Cancel cancels a reservation of userID. A confirmed reservation paid from the wallet is
// refunded to it in the same transaction.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, userID int) (*domain.Reservation, error) {
	reservation, err := s.GetForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	_, err = reservation.Status.Next(domain.EventCancel)
	if err != nil {
		return nil, err
	}

	if s.policy != nil {
		err = s.policy.Allow(reservation, s.now())
		if err != nil {
			return nil, err
		}
	}

	paidFromWallet := reservation.Status == domain.StatusConfirmed &&
		reservation.PaymentMethod != nil &&
		*reservation.PaymentMethod == domain.PaymentMethodStoredBalance

	if !paidFromWallet {
		err = s.transitionFrom(ctx, reservation, domain.EventCancel, []domain.ReservationStatus{reservation.Status})
		if err != nil {
			return nil, err
		}

		s.logger.Info("reservation cancelled", "reservation_id", reservation.ID)
		s.emit(ctx, domain.EventReservationCancelled, reservation)

		return reservation, nil
	}

	refund, err := s.reservations.CancelWithRefund(
		ctx,
		reservation.ID,
		[]domain.ReservationStatus{domain.StatusConfirmed},
		fmt.Sprintf("Refund for reservation %s", reservation.ID),
	)
	if err != nil {
		return nil, err
	}

	reservation.Status = domain.StatusCancelled
	reservation.UpdatedAt = s.now()

	s.logger.Info("reservation cancelled and refunded",
		"reservation_id", reservation.ID,
		"wallet_transaction_id", refund.ID,
		"amount", refund.Amount.StringFixed(2),
	)
	s.emit(ctx, domain.EventReservationCancelled, reservation)

	return reservation, nil
}

// ExpireStale expires every unpaid reservation whose hold window has passed and returns how many.
// Reservations awaiting a gateway charge are verified first: a captured charge confirms them.
func (s *Service) ExpireStale(ctx context.Context) (int, error) {
	createdBefore := s.now().Add(-s.cfg.HoldWindow)

	expired, err := s.reservations.ExpireStale(ctx, createdBefore)
	if err != nil {
		return 0, fmt.Errorf("expire stale reservations: %w", err)
	}

	for _, reservation := range expired {
		s.emit(ctx, domain.EventReservationExpired, reservation)
	}

	count := len(expired)
	if count > 0 {
		s.logger.Info("expired stale reservations", "count", count)
	}

	awaiting, err := s.reservations.ListAwaitingGateway(ctx, createdBefore)
	if err != nil {
		return count, fmt.Errorf("list reservations awaiting the gateway: %w", err)
	}

	for _, reservation := range awaiting {
		_, err := s.confirmWithGateway(ctx, reservation, *reservation.PaymentIntentID)

		switch {
		case err == nil:
		case errors.Is(err, domain.ErrReservationExpired):
			count++
		default:
			s.logger.Warn("could not settle reservation awaiting the gateway",
				"reservation_id", reservation.ID,
				"error", err,
			)
		}
	}

	return count, nil
}

// CompleteElapsed completes confirmed reservations whose dining time is over.
func (s *Service) CompleteElapsed(ctx context.Context) (int, error) {
	completed, err := s.reservations.CompleteElapsed(ctx, s.now().Add(-s.cfg.DiningDuration))
	if err != nil {
		return 0, fmt.Errorf("complete elapsed reservations: %w", err)
	}

	for _, reservation := range completed {
		s.emit(ctx, domain.EventReservationCompleted, reservation)
	}

	if len(completed) > 0 {
		s.logger.Info("completed elapsed reservations", "count", len(completed))
	}

	return len(completed), nil
}
