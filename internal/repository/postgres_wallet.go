package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/table-reservation-system/internal/domain"
	"github.com/shopspring/decimal"
)

const walletHistoryLimit = 50

type PostgresWalletRepository struct {
	db *pgxpool.Pool
}

func NewPostgresWalletRepository(db *pgxpool.Pool) *PostgresWalletRepository {
	return &PostgresWalletRepository{
		db: db,
	}
}

// GetByUserId returns the wallet with its most recent transactions. Users that never had a
// wallet get an empty one.
func (p *PostgresWalletRepository) GetByUserId(ctx context.Context, userID int) (*domain.Wallet, error) {
	balance, err := p.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, user_id, type, amount, description, reservation_id, created_at
		FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := p.db.Query(ctx, query, userID, walletHistoryLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]domain.WalletTransaction, 0)

	for rows.Next() {
		var transaction domain.WalletTransaction
		var transactionType string

		err := rows.Scan(
			&transaction.ID,
			&transaction.UserID,
			&transactionType,
			&transaction.Amount,
			&transaction.Description,
			&transaction.ReservationID,
			&transaction.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		transaction.Type = domain.TransactionType(transactionType)
		transactions = append(transactions, transaction)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return &domain.Wallet{
		UserID:       userID,
		Balance:      balance,
		Transactions: transactions,
	}, nil
}

func (p *PostgresWalletRepository) GetBalance(ctx context.Context, userID int) (decimal.Decimal, error) {
	var balance decimal.Decimal

	err := p.db.QueryRow(ctx, `SELECT balance FROM wallets WHERE user_id = $1`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}

		return decimal.Zero, err
	}

	return balance, nil
}

func (p *PostgresWalletRepository) Debit(
	ctx context.Context,
	userID int,
	amount decimal.Decimal,
	description string) (*domain.WalletTransaction, error) {

	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: debit amount %s is negative", domain.ErrInvalidAmount, amount)
	}

	var transaction domain.WalletTransaction

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		var err error
		transaction, err = debitWallet(ctx, tx, userID, amount, description, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &transaction, nil
}

func (p *PostgresWalletRepository) PayReservation(
	ctx context.Context,
	reservationID uuid.UUID,
	expected []domain.ReservationStatus,
	description string) (*domain.Reservation, *domain.WalletTransaction, error) {

	var confirmed *domain.Reservation
	var transaction domain.WalletTransaction

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1 FOR UPDATE`

		reservation, err := scanReservation(tx.QueryRow(ctx, query, reservationID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrRecordNotFound
			}

			return err
		}

		if !containsStatus(expected, reservation.Status) {
			return domain.ErrConcurrentConfirmation
		}

		transaction, err = debitWallet(ctx, tx, reservation.UserID, reservation.FinalAmount, description, &reservationID)
		if err != nil {
			return err
		}

		query = `
			UPDATE reservations
			SET status = $1, payment_method = $2, wallet_transaction_id = $3, updated_at = NOW()
			WHERE id = $4
			RETURNING ` + reservationColumns

		confirmed, err = scanReservation(tx.QueryRow(
			ctx,
			query,
			string(domain.StatusConfirmed),
			string(domain.PaymentMethodStoredBalance),
			transaction.ID,
			reservationID,
		))

		return err
	})
	if err != nil {
		return nil, nil, err
	}

	return confirmed, &transaction, nil
}

func containsStatus(statuses []domain.ReservationStatus, status domain.ReservationStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}

	return false
}

// debitWallet locks the wallet row, checks the balance and records the debit inside tx.
func debitWallet(
	ctx context.Context,
	tx pgx.Tx,
	userID int,
	amount decimal.Decimal,
	description string,
	reservationID *uuid.UUID) (domain.WalletTransaction, error) {

	var balance decimal.Decimal

	err := tx.QueryRow(ctx, `SELECT balance FROM wallets WHERE user_id = $1 FOR UPDATE`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			balance = decimal.Zero
		} else {
			return domain.WalletTransaction{}, err
		}
	}

	if balance.LessThan(amount) {
		return domain.WalletTransaction{}, fmt.Errorf(
			"%w: balance %s does not cover %s",
			domain.ErrInsufficientBalance,
			balance.StringFixed(2),
			amount.StringFixed(2),
		)
	}

	transaction, err := insertWalletTransaction(
		ctx, tx, userID, domain.TransactionTypeDebit, amount.Neg(), description, reservationID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return domain.WalletTransaction{}, domain.ErrConcurrentConfirmation
		}

		return domain.WalletTransaction{}, err
	}

	_, err = tx.Exec(ctx, `UPDATE wallets SET balance = balance - $1, updated_at = NOW() WHERE user_id = $2`, amount, userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation {
			return domain.WalletTransaction{}, domain.ErrInsufficientBalance
		}

		return domain.WalletTransaction{}, err
	}

	return transaction, nil
}

func creditWallet(
	ctx context.Context,
	tx pgx.Tx,
	userID int,
	amount decimal.Decimal,
	description string,
	reservationID *uuid.UUID) (domain.WalletTransaction, error) {

	query := `
		INSERT INTO wallets (user_id, balance)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET balance = wallets.balance + EXCLUDED.balance, updated_at = NOW()
	`

	_, err := tx.Exec(ctx, query, userID, amount)
	if err != nil {
		return domain.WalletTransaction{}, err
	}

	return insertWalletTransaction(ctx, tx, userID, domain.TransactionTypeCredit, amount, description, reservationID)
}

func insertWalletTransaction(
	ctx context.Context,
	tx pgx.Tx,
	userID int,
	transactionType domain.TransactionType,
	amount decimal.Decimal,
	description string,
	reservationID *uuid.UUID) (domain.WalletTransaction, error) {

	transaction := domain.WalletTransaction{
		ID:            uuid.New(),
		UserID:        userID,
		Type:          transactionType,
		Amount:        amount,
		Description:   description,
		ReservationID: reservationID,
	}

	query := `
		INSERT INTO wallet_transactions (id, user_id, type, amount, description, reservation_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := tx.QueryRow(
		ctx,
		query,
		transaction.ID,
		transaction.UserID,
		string(transaction.Type),
		transaction.Amount,
		transaction.Description,
		transaction.ReservationID,
	).Scan(&transaction.CreatedAt)

	return transaction, err
}
