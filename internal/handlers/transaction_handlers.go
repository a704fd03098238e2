package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/aptomart/aptomart-api/internal/services"
)

// TransactionRequest names a marketplace entry function and its
// pre-stringified arguments.
type TransactionRequest struct {
	Function  string   `json:"function"`
	Arguments []string `json:"arguments"`
}

// TransactionResponse carries the hash of a committed transaction.
type TransactionResponse struct {
	Hash string `json:"hash"`
}

// BuildPayload handles payload construction for clients that sign in the
// browser wallet themselves. No I/O, no submission.
func BuildPayload(tx *services.TransactionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if !services.EntryFunctions[req.Function] {
			writeError(w, http.StatusBadRequest, "unknown entry function")
			return
		}

		writeJSON(w, http.StatusOK, tx.BuildPayload(req.Function, req.Arguments))
	}
}

// ExecuteTransaction handles submitting an entry function through the wallet
// bridge and waiting for finality. On success the caller is expected to
// re-fetch whatever listing the transaction touched.
func ExecuteTransaction(tx *services.TransactionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		hash, err := tx.Execute(r.Context(), req.Function, req.Arguments)
		if err != nil {
			writeError(w, statusForError(err), err.Error())
			return
		}

		writeJSON(w, http.StatusOK, TransactionResponse{Hash: hash})
	}
}
