package app

import (
	"net/http"

	"github.com/metinatakli/table-reservation-system/api"
	"github.com/metinatakli/table-reservation-system/internal/domain"
)

func (app *Application) GetWalletHandler(w http.ResponseWriter, r *http.Request) {
	wallet, err := app.bookings.Wallet(r.Context(), app.contextGetUserId(r))
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.WalletResponse{
		Balance:      wallet.Balance.StringFixed(2),
		Transactions: toApiWalletTransactions(wallet.Transactions),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func toApiWalletTransactions(transactions []domain.WalletTransaction) []api.WalletTransaction {
	result := make([]api.WalletTransaction, len(transactions))

	for i, t := range transactions {
		result[i] = api.WalletTransaction{
			Id:            t.ID,
			Type:          string(t.Type),
			Amount:        t.Amount.StringFixed(2),
			Description:   t.Description,
			ReservationId: t.ReservationID,
			CreatedAt:     t.CreatedAt,
		}
	}

	return result
}
