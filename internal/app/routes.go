package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
)

func (app *Application) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(otelchi.Middleware(serviceName, otelchi.WithChiRoutes(r)))
	r.Use(middleware.RequestID)
	r.Use(app.logRequest)
	r.Use(app.recoverPanic)

	r.NotFound(app.notFoundResponse)
	r.MethodNotAllowed(app.methodNotAllowedResponse)

	r.Get("/healthcheck", app.GetHealth)
	r.Get("/openapi.json", app.GetOpenAPISpec)
	r.Post("/webhook", app.HandleStripeWebhook)
	r.Post("/pricing/quote", app.QuotePriceHandler)

	r.Group(func(r chi.Router) {
		r.Use(app.requireAuthentication)

		r.Post("/reservations", app.CreateReservationHandler)
		r.Get("/reservations/{id}", app.GetReservationHandler)
		r.Post("/reservations/{id}/cancel", app.CancelReservationHandler)

		r.Group(func(r chi.Router) {
			r.Use(app.rateLimit)

			r.Post("/reservations/{id}/payment", app.InitiatePaymentHandler)
			r.Post("/reservations/{id}/payment/failure", app.PaymentFailureHandler)
			r.Post("/reservations/{id}/confirm/gateway", app.ConfirmGatewayPaymentHandler)
			r.Post("/reservations/{id}/confirm/wallet", app.ConfirmWalletPaymentHandler)
		})

		r.Get("/users/me/reservations", app.GetReservationsOfUserHandler)
		r.Get("/users/me/wallet", app.GetWalletHandler)
	})

	return r
}
