package validator

import (
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type booking struct {
	Date     openapi_types.Date `validate:"required,not_past_date"`
	TimeSlot string             `validate:"required,time_slot"`
	Coupon   string             `validate:"omitempty,coupon_code"`
	Phone    string             `validate:"required,phone"`
	Party    int                `validate:"required,min=1,max=20"`
	Name     string             `validate:"required,max=5"`
	Method   string             `validate:"required,oneof=gateway stored_balance"`
}

func validBooking() booking {
	return booking{
		Date:     openapi_types.Date{Time: time.Now().AddDate(0, 0, 1)},
		TimeSlot: "19:30",
		Coupon:   "SUMMER15",
		Phone:    "+90 555 123 45 67",
		Party:    2,
		Name:     "Ada",
		Method:   "gateway",
	}
}

func TestNewValidator(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(b *booking)
		wantField string
		wantIssue string
	}{
		{
			name:   "valid",
			modify: func(b *booking) {},
		},
		{
			name:   "today is not in the past",
			modify: func(b *booking) { b.Date = openapi_types.Date{Time: time.Now()} },
		},
		{
			name:      "yesterday",
			modify:    func(b *booking) { b.Date = openapi_types.Date{Time: time.Now().AddDate(0, 0, -1)} },
			wantField: "Date",
			wantIssue: ErrNotPastDate,
		},
		{
			name:      "slot off the half hour",
			modify:    func(b *booking) { b.TimeSlot = "19:15" },
			wantField: "TimeSlot",
			wantIssue: ErrTimeSlot,
		},
		{
			name:      "slot after closing",
			modify:    func(b *booking) { b.TimeSlot = "22:30" },
			wantField: "TimeSlot",
			wantIssue: ErrTimeSlot,
		},
		{
			name:      "coupon with spaces",
			modify:    func(b *booking) { b.Coupon = "SUMMER 15" },
			wantField: "Coupon",
			wantIssue: ErrCouponCode,
		},
		{
			name:      "coupon too short",
			modify:    func(b *booking) { b.Coupon = "AB" },
			wantField: "Coupon",
			wantIssue: ErrCouponCode,
		},
		{
			name:      "phone with letters",
			modify:    func(b *booking) { b.Phone = "call me" },
			wantField: "Phone",
			wantIssue: ErrPhone,
		},
		{
			name:      "party too large",
			modify:    func(b *booking) { b.Party = 21 },
			wantField: "Party",
			wantIssue: "must be at most 20",
		},
		{
			name:      "missing party",
			modify:    func(b *booking) { b.Party = 0 },
			wantField: "Party",
			wantIssue: ErrRequired,
		},
		{
			name:      "name too long",
			modify:    func(b *booking) { b.Name = "Grace Hopper" },
			wantField: "Name",
			wantIssue: "must be at most 5 characters long",
		},
		{
			name:      "unknown payment method",
			modify:    func(b *booking) { b.Method = "cash" },
			wantField: "Method",
			wantIssue: "must be one of: gateway stored_balance",
		},
	}

	v := NewValidator()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := validBooking()
			tt.modify(&b)

			err := v.Struct(b)

			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}

			var validationErrs validator.ValidationErrors
			require.True(t, errors.As(err, &validationErrs))
			require.Len(t, validationErrs, 1)
			assert.Equal(t, tt.wantField, validationErrs[0].Field())
			assert.Equal(t, tt.wantIssue, ValidationMessage(validationErrs[0]))
		})
	}
}
