package app

import (
	"net/http"

	"github.com/metinatakli/table-reservation-system/api"
	"github.com/metinatakli/table-reservation-system/internal/domain"
)

func (app *Application) InitiatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readReservationID(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input api.InitiatePaymentRequest

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	initiation, err := app.bookings.InitiatePayment(
		r.Context(),
		id,
		app.contextGetUserId(r),
		domain.PaymentMethod(input.Method),
	)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	resp := api.PaymentInitiationResponse{
		Reservation: toApiReservation(initiation.Reservation),
	}

	if initiation.Intent != nil {
		resp.Payment = &api.PaymentIntent{
			Reference:    initiation.Intent.Reference,
			ClientSecret: initiation.Intent.ClientSecret,
			Amount:       initiation.Intent.Amount.StringFixed(2),
			Currency:     initiation.Intent.Currency,
		}
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// PaymentFailureHandler is called by the client when the checkout was abandoned or declined.
func (app *Application) PaymentFailureHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readReservationID(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	reservation, err := app.bookings.MarkPaymentFailed(r.Context(), id, app.contextGetUserId(r))
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toApiReservation(reservation), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) ConfirmGatewayPaymentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readReservationID(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var input api.ConfirmGatewayPaymentRequest

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	reservation, err := app.bookings.ConfirmWithGateway(r.Context(), id, app.contextGetUserId(r), input.PaymentReference)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toApiReservation(reservation), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) ConfirmWalletPaymentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readReservationID(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	reservation, err := app.bookings.ConfirmWithWallet(r.Context(), id, app.contextGetUserId(r))
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toApiReservation(reservation), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
