package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aptomart/aptomart-api/internal/chain"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusForError maps the chain error taxonomy onto HTTP statuses. Nothing
// here is fatal; the client decides whether to re-initiate.
func statusForError(err error) int {
	var (
		rejection  *chain.RemoteRejection
		netErr     *chain.NetworkError
		submission *chain.SubmissionRejectedError
		aborted    *chain.AbortedTransactionError
	)
	switch {
	case errors.Is(err, chain.ErrWalletUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &submission):
		return http.StatusBadRequest
	case errors.As(err, &aborted):
		return http.StatusUnprocessableEntity
	case errors.As(err, &rejection), errors.As(err, &netErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
