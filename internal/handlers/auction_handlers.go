package handlers

import (
	"net/http"

	"github.com/aptomart/aptomart-api/internal/services"
)

// GetActiveAuctions handles retrieving the live auction snapshot
func GetActiveAuctions(market *services.MarketService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response, err := market.LiveAuctions(r.Context())
		if err != nil {
			writeError(w, statusForError(err), err.Error())
			return
		}

		writeJSON(w, http.StatusOK, response)
	}
}
