package app

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/metinatakli/table-reservation-system/api"
	"github.com/metinatakli/table-reservation-system/internal/booking"
	"github.com/metinatakli/table-reservation-system/internal/domain"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

func (app *Application) CreateReservationHandler(w http.ResponseWriter, r *http.Request) {
	var input api.CreateReservationRequest

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

	createInput := booking.CreateReservationInput{
		UserID:          app.contextGetUserId(r),
		BranchID:        input.BranchId,
		TableTypeID:     input.TableTypeId,
		UserName:        input.Name,
		UserEmail:       input.Email,
		UserPhone:       input.Phone,
		ReservationDate: input.Date.Time,
		TimeSlot:        input.TimeSlot,
		PartySize:       input.PartySize,
	}
	if input.CouponCode != nil {
		createInput.CouponCode = *input.CouponCode
	}

	reservation, err := app.bookings.Create(r.Context(), createInput)
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	headers := make(http.Header)
	headers.Set("Location", fmt.Sprintf("/reservations/%s", reservation.ID))

	err = app.writeJSON(w, http.StatusCreated, toApiReservation(reservation), headers)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetReservationHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readReservationID(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	reservation, err := app.bookings.GetForUser(r.Context(), id, app.contextGetUserId(r))
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toApiReservation(reservation), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) CancelReservationHandler(w http.ResponseWriter, r *http.Request) {
	id, err := readReservationID(r)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	reservation, err := app.bookings.Cancel(r.Context(), id, app.contextGetUserId(r))
	if err != nil {
		app.bookingErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, toApiReservation(reservation), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetReservationsOfUserHandler(w http.ResponseWriter, r *http.Request) {
	params, err := readReservationsParams(r.URL.Query())
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(params)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	userId := app.contextGetUserId(r)
	pagination := toPagination(params)

	reservations, metadata, err := app.bookings.ListForUser(r.Context(), userId, pagination)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.UserReservationsResponse{
		Reservations: toReservationSummaries(reservations),
		Metadata:     *toApiMetadata(metadata),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func readReservationsParams(qs url.Values) (api.GetReservationsOfUserParams, error) {
	var params api.GetReservationsOfUserParams

	page, err := readOptionalInt(qs, "page")
	if err != nil {
		return params, err
	}

	pageSize, err := readOptionalInt(qs, "pageSize")
	if err != nil {
		return params, err
	}

	params.Page = page
	params.PageSize = pageSize

	return params, nil
}

func readOptionalInt(qs url.Values, key string) (*int, error) {
	s := qs.Get(key)
	if s == "" {
		return nil, nil
	}

	i, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", key)
	}

	return &i, nil
}

func toPagination(params api.GetReservationsOfUserParams) domain.Pagination {
	pagination := domain.Pagination{
		Page:     DefaultPage,
		PageSize: DefaultPageSize,
	}

	if params.Page != nil {
		pagination.Page = *params.Page
	}
	if params.PageSize != nil {
		pagination.PageSize = *params.PageSize
	}

	return pagination
}

func toApiReservation(r *domain.Reservation) api.Reservation {
	resp := api.Reservation{
		Id:              r.ID,
		BranchId:        r.BranchID,
		TableTypeId:     r.TableTypeID,
		Name:            r.UserName,
		Email:           r.UserEmail,
		Phone:           r.UserPhone,
		Date:            toApiDate(r.ReservationDate),
		TimeSlot:        r.TimeSlot,
		PartySize:       r.PartySize,
		BasePrice:       r.BasePrice.StringFixed(2),
		CouponCode:      r.CouponCode,
		DiscountApplied: r.DiscountApplied.StringFixed(2),
		FinalAmount:     r.FinalAmount.StringFixed(2),
		Status:          string(r.Status),
		PaymentId:       r.PaymentID,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}

	if r.PaymentMethod != nil {
		method := string(*r.PaymentMethod)
		resp.PaymentMethod = &method
	}

	return resp
}

func toReservationSummaries(reservations []domain.ReservationSummary) []api.ReservationSummary {
	summaries := make([]api.ReservationSummary, len(reservations))

	for i, v := range reservations {
		summary := &summaries[i]

		summary.Id = v.ID
		summary.BranchId = v.BranchID
		summary.TableTypeName = v.TableTypeName
		summary.Date = toApiDate(v.ReservationDate)
		summary.TimeSlot = v.TimeSlot
		summary.PartySize = v.PartySize
		summary.FinalAmount = v.FinalAmount.StringFixed(2)
		summary.Status = string(v.Status)
		summary.CreatedAt = v.CreatedAt
	}

	return summaries
}

func toApiMetadata(metadata *domain.Metadata) *api.Metadata {
	if metadata == nil {
		return &api.Metadata{}
	}

	return &api.Metadata{
		CurrentPage:  metadata.CurrentPage,
		FirstPage:    metadata.FirstPage,
		LastPage:     metadata.LastPage,
		PageSize:     metadata.PageSize,
		TotalRecords: metadata.TotalRecords,
	}
}

func toApiDate(t time.Time) openapi_types.Date {
	return openapi_types.Date{Time: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}
