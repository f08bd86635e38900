package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const currencyPrecision int32 = 2

var hundred = decimal.NewFromInt(100)

// Pricing is the outcome of applying an optional coupon to a base price.
// FinalAmount always equals BasePrice minus Discount.
type Pricing struct {
	BasePrice   decimal.Decimal
	Discount    decimal.Decimal
	FinalAmount decimal.Decimal
}

// ComputeFinalAmount prices a reservation. The coupon, when given, must already be
// known to be applicable; only its discount rules are looked at here.
func ComputeFinalAmount(basePrice decimal.Decimal, coupon *Coupon) (Pricing, error) {
	if basePrice.IsNegative() {
		return Pricing{}, fmt.Errorf("%w: base price %s is negative", ErrInvalidAmount, basePrice.String())
	}

	if coupon == nil {
		return Pricing{
			BasePrice:   basePrice,
			Discount:    decimal.Zero,
			FinalAmount: basePrice,
		}, nil
	}

	if coupon.Discount.IsNegative() {
		return Pricing{}, fmt.Errorf("%w: discount %s is negative", ErrInvalidCoupon, coupon.Discount.String())
	}

	var discount decimal.Decimal

	switch coupon.DiscountType {
	case DiscountTypePercentage:
		discount = basePrice.Mul(coupon.Discount).Div(hundred)
		if coupon.MaxDiscountAmount != nil {
			discount = decimal.Min(discount, *coupon.MaxDiscountAmount)
		}
	case DiscountTypeFixed:
		discount = coupon.Discount
	default:
		return Pricing{}, fmt.Errorf("%w: unknown discount type %q", ErrInvalidCoupon, coupon.DiscountType)
	}

	// a percentage above 100 or a negative cap must not push the total out of [0, basePrice]
	discount = decimal.Max(decimal.Min(discount, basePrice), decimal.Zero)

	// decimal.Round rounds half away from zero, which is half-up for non-negative values
	finalAmount := basePrice.Sub(discount).Round(currencyPrecision)

	return Pricing{
		BasePrice:   basePrice,
		Discount:    basePrice.Sub(finalAmount),
		FinalAmount: finalAmount,
	}, nil
}

// ToMinorUnits converts an amount to cents, the unit payment gateways work with.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// FromMinorUnits is the inverse of ToMinorUnits.
func FromMinorUnits(cents int64) decimal.Decimal {
	return decimal.New(cents, -currencyPrecision)
}
