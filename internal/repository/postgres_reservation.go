package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/table-reservation-system/internal/domain"
	"github.com/shopspring/decimal"
)

const reservationColumns = `
	id, user_id, branch_id, table_type_id, user_name, user_email, user_phone,
	reservation_date, time_slot, starts_at, party_size, base_price, coupon_code,
	discount_applied, final_amount, status, payment_id, payment_method,
	wallet_transaction_id, created_at, updated_at, payment_intent_id`

type PostgresReservationRepository struct {
	db *pgxpool.Pool
}

func NewPostgresReservationRepository(db *pgxpool.Pool) *PostgresReservationRepository {
	return &PostgresReservationRepository{
		db: db,
	}
}

func runInTx(ctx context.Context, db *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	var txOptions pgx.TxOptions

	tx, err := db.BeginTx(ctx, txOptions)
	if err != nil {
		return err
	}

	err = fn(tx)
	if err == nil {
		return tx.Commit(ctx)
	}

	rollbackErr := tx.Rollback(ctx)
	if rollbackErr != nil {
		return errors.Join(err, rollbackErr)
	}

	return err
}

func scanReservation(row pgx.Row) (*domain.Reservation, error) {
	var reservation domain.Reservation
	var status string
	var paymentMethod *string

	err := row.Scan(
		&reservation.ID,
		&reservation.UserID,
		&reservation.BranchID,
		&reservation.TableTypeID,
		&reservation.UserName,
		&reservation.UserEmail,
		&reservation.UserPhone,
		&reservation.ReservationDate,
		&reservation.TimeSlot,
		&reservation.StartsAt,
		&reservation.PartySize,
		&reservation.BasePrice,
		&reservation.CouponCode,
		&reservation.DiscountApplied,
		&reservation.FinalAmount,
		&status,
		&reservation.PaymentID,
		&paymentMethod,
		&reservation.WalletTransactionID,
		&reservation.CreatedAt,
		&reservation.UpdatedAt,
		&reservation.PaymentIntentID,
	)
	if err != nil {
		return nil, err
	}

	reservation.Status = domain.ReservationStatus(status)
	if paymentMethod != nil {
		method := domain.PaymentMethod(*paymentMethod)
		reservation.PaymentMethod = &method
	}

	return &reservation, nil
}

func collectReservations(rows pgx.Rows) ([]*domain.Reservation, error) {
	defer rows.Close()

	reservations := make([]*domain.Reservation, 0)

	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}

		reservations = append(reservations, reservation)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reservations, nil
}

func statusNames(statuses []domain.ReservationStatus) []string {
	names := make([]string, len(statuses))
	for i, status := range statuses {
		names[i] = string(status)
	}

	return names
}

func (p *PostgresReservationRepository) Create(ctx context.Context, reservation *domain.Reservation) error {
	query := `
		INSERT INTO reservations (
			id, user_id, branch_id, table_type_id, user_name, user_email, user_phone,
			reservation_date, time_slot, starts_at, party_size, base_price, coupon_code,
			discount_applied, final_amount, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING created_at, updated_at
	`

	err := p.db.QueryRow(
		ctx,
		query,
		reservation.ID,
		reservation.UserID,
		reservation.BranchID,
		reservation.TableTypeID,
		reservation.UserName,
		reservation.UserEmail,
		reservation.UserPhone,
		reservation.ReservationDate,
		reservation.TimeSlot,
		reservation.StartsAt,
		reservation.PartySize,
		reservation.BasePrice,
		reservation.CouponCode,
		reservation.DiscountApplied,
		reservation.FinalAmount,
		string(reservation.Status),
	).Scan(&reservation.CreatedAt, &reservation.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation {
			return fmt.Errorf("%w: %s", domain.ErrInvalidAmount, pgErr.ConstraintName)
		}

		return err
	}

	return nil
}

func (p *PostgresReservationRepository) GetById(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

	reservation, err := scanReservation(p.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return reservation, nil
}

func (p *PostgresReservationRepository) CompareAndSwapStatus(
	ctx context.Context,
	id uuid.UUID,
	expected []domain.ReservationStatus,
	newStatus domain.ReservationStatus) (bool, error) {

	query := `
		UPDATE reservations
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = ANY($3)
	`

	tag, err := p.db.Exec(ctx, query, string(newStatus), id, statusNames(expected))
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

// RecordPaymentIntent links the gateway charge prepared for an unpaid reservation.
func (p *PostgresReservationRepository) RecordPaymentIntent(ctx context.Context, id uuid.UUID, reference string) error {
	query := `
		UPDATE reservations
		SET payment_intent_id = $1, updated_at = NOW()
		WHERE id = $2
	`

	tag, err := p.db.Exec(ctx, query, reference, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}

	return nil
}

// ConfirmWithGatewayPayment confirms the reservation and links the gateway reference in one
// statement. A reference already linked to another reservation is rejected.
func (p *PostgresReservationRepository) ConfirmWithGatewayPayment(
	ctx context.Context,
	id uuid.UUID,
	expected []domain.ReservationStatus,
	paymentID string) (bool, error) {

	query := `
		UPDATE reservations
		SET status = $1, payment_id = $2, payment_method = $3, updated_at = NOW()
		WHERE id = $4 AND status = ANY($5)
	`

	tag, err := p.db.Exec(
		ctx,
		query,
		string(domain.StatusConfirmed),
		paymentID,
		string(domain.PaymentMethodGateway),
		id,
		statusNames(expected),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return false, fmt.Errorf("%w: payment %s is already linked to a reservation", domain.ErrPaymentVerification, paymentID)
		}

		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

// CancelWithRefund cancels a reservation paid from the wallet and credits its amount back.
func (p *PostgresReservationRepository) CancelWithRefund(
	ctx context.Context,
	id uuid.UUID,
	expected []domain.ReservationStatus,
	description string) (*domain.WalletTransaction, error) {

	var refund domain.WalletTransaction

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `
			SELECT user_id, final_amount
			FROM reservations
			WHERE id = $1 AND status = ANY($2)
			FOR UPDATE
		`

		var userID int
		var amount decimal.Decimal

		err := tx.QueryRow(ctx, query, id, statusNames(expected)).Scan(&userID, &amount)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrEditConflict
			}

			return err
		}

		refund, err = creditWallet(ctx, tx, userID, amount, description, &id)
		if err != nil {
			return err
		}

		query = `
			UPDATE reservations
			SET status = $1, updated_at = NOW()
			WHERE id = $2
		`

		_, err = tx.Exec(ctx, query, string(domain.StatusCancelled), id)

		return err
	})
	if err != nil {
		return nil, err
	}

	return &refund, nil
}

func (p *PostgresReservationRepository) ListByUser(
	ctx context.Context,
	userID int,
	pagination domain.Pagination) ([]domain.ReservationSummary, *domain.Metadata, error) {

	query := `
		SELECT
			COUNT(*) OVER(),
			r.id,
			r.branch_id,
			t.name,
			r.reservation_date,
			r.time_slot,
			r.party_size,
			r.final_amount,
			r.status,
			r.created_at
		FROM reservations r
		JOIN table_types t ON r.table_type_id = t.id
		WHERE r.user_id = $1
		ORDER BY r.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := p.db.Query(ctx, query, userID, pagination.Limit(), pagination.Offset())
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	reservations := make([]domain.ReservationSummary, 0)
	totalRecords := 0

	for rows.Next() {
		var reservation domain.ReservationSummary
		var status string

		err := rows.Scan(
			&totalRecords,
			&reservation.ID,
			&reservation.BranchID,
			&reservation.TableTypeName,
			&reservation.ReservationDate,
			&reservation.TimeSlot,
			&reservation.PartySize,
			&reservation.FinalAmount,
			&status,
			&reservation.CreatedAt,
		)
		if err != nil {
			return nil, nil, err
		}

		reservation.Status = domain.ReservationStatus(status)
		reservations = append(reservations, reservation)
	}

	if err = rows.Err(); err != nil {
		return nil, nil, err
	}

	metadata := domain.NewMetadata(totalRecords, pagination.Page, pagination.PageSize)

	return reservations, metadata, nil
}

// ExpireStale expires unpaid reservations created before createdBefore and returns them.
// Reservations waiting on a prepared gateway charge are left for ListAwaitingGateway.
func (p *PostgresReservationRepository) ExpireStale(
	ctx context.Context,
	createdBefore time.Time) ([]*domain.Reservation, error) {

	query := `
		UPDATE reservations
		SET status = $1, updated_at = NOW()
		WHERE status = ANY($2) AND created_at <= $3
			AND NOT (status = $4 AND payment_intent_id IS NOT NULL)
		RETURNING ` + reservationColumns

	rows, err := p.db.Query(
		ctx,
		query,
		string(domain.StatusExpired),
		statusNames(domain.SourceStatuses(domain.EventExpire)),
		createdBefore,
		string(domain.StatusPaymentPending),
	)
	if err != nil {
		return nil, err
	}

	return collectReservations(rows)
}

func (p *PostgresReservationRepository) ListAwaitingGateway(
	ctx context.Context,
	createdBefore time.Time) ([]*domain.Reservation, error) {

	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE status = $1 AND payment_intent_id IS NOT NULL AND created_at <= $2
		ORDER BY created_at
	`

	rows, err := p.db.Query(ctx, query, string(domain.StatusPaymentPending), createdBefore)
	if err != nil {
		return nil, err
	}

	return collectReservations(rows)
}

// CompleteElapsed completes confirmed reservations that started before startedBefore.
func (p *PostgresReservationRepository) CompleteElapsed(
	ctx context.Context,
	startedBefore time.Time) ([]*domain.Reservation, error) {

	query := `
		UPDATE reservations
		SET status = $1, updated_at = NOW()
		WHERE status = ANY($2) AND starts_at <= $3
		RETURNING ` + reservationColumns

	rows, err := p.db.Query(
		ctx,
		query,
		string(domain.StatusCompleted),
		statusNames(domain.SourceStatuses(domain.EventComplete)),
		startedBefore,
	)
	if err != nil {
		return nil, err
	}

	return collectReservations(rows)
}
