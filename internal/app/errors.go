package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/metinatakli/table-reservation-system/api"
	"github.com/metinatakli/table-reservation-system/internal/domain"
	appvalidator "github.com/metinatakli/table-reservation-system/internal/validator"
)

const (
	ErrInternalServer      = "The server encountered a problem and could not process your request"
	ErrNotFound            = "The requested resource not found"
	ErrMethodNotAllowed    = "The method is not supported for this resource"
	ErrUnauthorizedAccess  = "You must be authenticated to access this resource"
	ErrInvalidToken        = "Invalid or expired authentication token"
	ErrFailedValidation    = "One or more fields have invalid values"
	ErrRateLimitExceeded   = "Rate limit exceeded"
	ErrGatewayUnavailable  = "The payment gateway is temporarily unavailable, please try again"
	ErrConcurrentOperation = "Another request is already processing this reservation, please try again"
)

func (app *Application) logError(r *http.Request, err error) {
	app.contextGetLogger(r).Error(err.Error())
}

// errorResponse sends a JSON-formatted error message to the client with the given status code.
func (app *Application) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	app.errorResponseWithOutcome(w, r, status, message, nil)
}

func (app *Application) errorResponseWithOutcome(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	message string,
	outcome *domain.Outcome) {

	resp := api.ErrorResponse{
		Message:   message,
		RequestId: middleware.GetReqID(r.Context()),
		Timestamp: time.Now(),
	}

	if outcome != nil {
		value := string(*outcome)
		resp.Outcome = &value
	}

	err := app.writeJSON(w, status, resp, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (app *Application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)
	app.errorResponse(w, r, http.StatusInternalServerError, ErrInternalServer)
}

func (app *Application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusNotFound, ErrNotFound)
}

func (app *Application) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusMethodNotAllowed, ErrMethodNotAllowed)
}

func (app *Application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (app *Application) unauthorizedAccessResponse(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	app.errorResponse(w, r, http.StatusUnauthorized, ErrUnauthorizedAccess)
}

func (app *Application) invalidTokenResponse(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	app.errorResponse(w, r, http.StatusUnauthorized, ErrInvalidToken)
}

func (app *Application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusTooManyRequests, ErrRateLimitExceeded)
}

func (app *Application) editConflictResponseWithErr(w http.ResponseWriter, r *http.Request, err error) {
	outcome := domain.Classify(err)
	app.errorResponseWithOutcome(w, r, http.StatusConflict, err.Error(), &outcome)
}

func (app *Application) failedValidationResponse(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		app.badRequestResponse(w, r, err)
		return
	}

	resp := api.ValidationErrorResponse{
		Message:          ErrFailedValidation,
		RequestId:        middleware.GetReqID(r.Context()),
		Timestamp:        time.Now(),
		ValidationErrors: make([]api.ValidationError, 0, len(validationErrors)),
	}

	for _, fieldErr := range validationErrors {
		resp.ValidationErrors = append(resp.ValidationErrors, api.ValidationError{
			Field: fieldErr.Field(),
			Issue: appvalidator.ValidationMessage(fieldErr),
		})
	}

	err = app.writeJSON(w, http.StatusUnprocessableEntity, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// bookingErrorResponse maps reservation and payment failures to status codes. Payment
// failures also carry the outcome so clients know whether retrying can help.
func (app *Application) bookingErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	outcome := domain.Classify(err)

	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		app.notFoundResponse(w, r)
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrPartyTooLarge),
		errors.Is(err, domain.ErrCouponNotApplicable),
		errors.Is(err, domain.ErrInvalidCoupon),
		errors.Is(err, domain.ErrInvalidAmount):
		app.errorResponse(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrPaymentVerification):
		app.errorResponseWithOutcome(w, r, http.StatusUnprocessableEntity, err.Error(), &outcome)
	case errors.Is(err, domain.ErrInsufficientBalance):
		app.errorResponseWithOutcome(w, r, http.StatusPaymentRequired, err.Error(), &outcome)
	case errors.Is(err, domain.ErrGatewayUnavailable):
		app.logError(r, err)
		app.errorResponseWithOutcome(w, r, http.StatusServiceUnavailable, ErrGatewayUnavailable, &outcome)
	case errors.Is(err, domain.ErrConcurrentConfirmation):
		app.errorResponseWithOutcome(w, r, http.StatusConflict, ErrConcurrentOperation, &outcome)
	case errors.Is(err, domain.ErrEditConflict),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrAlreadyConfirmed),
		errors.Is(err, domain.ErrReservationExpired),
		errors.Is(err, domain.ErrCancellationNotAllowed):
		app.editConflictResponseWithErr(w, r, err)
	default:
		app.serverErrorResponse(w, r, err)
	}
}
