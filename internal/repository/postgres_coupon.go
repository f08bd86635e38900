package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metinatakli/table-reservation-system/internal/domain"
)

type PostgresCouponRepository struct {
	db *pgxpool.Pool
}

func NewPostgresCouponRepository(db *pgxpool.Pool) *PostgresCouponRepository {
	return &PostgresCouponRepository{
		db: db,
	}
}

func (p *PostgresCouponRepository) FindActiveByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	query := `
		SELECT id, code, discount, discount_type, min_order_amount, max_discount_amount, expiry_date, is_active
		FROM coupons
		WHERE code = $1 AND is_active
	`

	var coupon domain.Coupon
	var discountType string

	err := p.db.QueryRow(ctx, query, code).Scan(
		&coupon.ID,
		&coupon.Code,
		&coupon.Discount,
		&discountType,
		&coupon.MinOrderAmount,
		&coupon.MaxDiscountAmount,
		&coupon.ExpiryDate,
		&coupon.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	coupon.DiscountType = domain.DiscountType(discountType)

	return &coupon, nil
}
