package app

import (
	"net/http"

	"github.com/metinatakli/table-reservation-system/api"
)

func (app *Application) QuotePriceHandler(w http.ResponseWriter, r *http.Request) {
	var input api.QuoteRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	var couponCode string
	if input.CouponCode != nil {
		couponCode = *input.CouponCode
	}

	pricing, err := app.bookings.Quote(r.Context(), input.BranchId, input.TableTypeId, couponCode)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	resp := api.QuoteResponse{
		BasePrice:   pricing.BasePrice.StringFixed(2),
		Discount:    pricing.Discount.StringFixed(2),
		FinalAmount: pricing.FinalAmount.StringFixed(2),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
