package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/table-reservation-system/internal/domain"
)

type PostgresTableTypeRepository struct {
	db *pgxpool.Pool
}

func NewPostgresTableTypeRepository(db *pgxpool.Pool) *PostgresTableTypeRepository {
	return &PostgresTableTypeRepository{
		db: db,
	}
}

func (p *PostgresTableTypeRepository) GetById(
	ctx context.Context,
	branchID,
	tableTypeID int) (*domain.TableType, error) {

	query := `
		SELECT id, branch_id, name, price, capacity
		FROM table_types
		WHERE id = $1 AND branch_id = $2
	`

	var tableType domain.TableType

	err := p.db.QueryRow(ctx, query, tableTypeID, branchID).Scan(
		&tableType.ID,
		&tableType.BranchID,
		&tableType.Name,
		&tableType.Price,
		&tableType.Capacity,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &tableType, nil
}
