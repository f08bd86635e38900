package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

type Coupon struct {
	ID                int
	Code              string
	Discount          decimal.Decimal
	DiscountType      DiscountType
	MinOrderAmount    *decimal.Decimal
	MaxDiscountAmount *decimal.Decimal
	ExpiryDate        time.Time
	IsActive          bool
}

// Applicable reports why the coupon cannot be used for an order of basePrice at now.
// The expiry date is inclusive: a coupon expiring today is valid until the end of the day.
func (c *Coupon) Applicable(basePrice decimal.Decimal, now time.Time) error {
	if !c.IsActive {
		return fmt.Errorf("%w: coupon %s is not active", ErrCouponNotApplicable, c.Code)
	}

	expiry := c.ExpiryDate.In(now.Location())
	endOfExpiryDay := time.Date(expiry.Year(), expiry.Month(), expiry.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	if !now.Before(endOfExpiryDay) {
		return fmt.Errorf("%w: coupon %s has expired", ErrCouponNotApplicable, c.Code)
	}

	if c.MinOrderAmount != nil && basePrice.LessThan(*c.MinOrderAmount) {
		return fmt.Errorf(
			"%w: coupon %s requires a minimum order of %s",
			ErrCouponNotApplicable,
			c.Code,
			c.MinOrderAmount.StringFixed(currencyPrecision),
		)
	}

	return nil
}

type CouponRepository interface {
	// FindActiveByCode returns nil and no error when no active coupon has the code.
	FindActiveByCode(ctx context.Context, code string) (*Coupon, error)
}
