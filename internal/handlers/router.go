package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aptomart/aptomart-api/internal/services"
)

// NewRouter wires the HTTP surface: listings, payload building, transaction
// execution and the websocket hub.
func NewRouter(log *zap.Logger, market *services.MarketService, tx *services.TransactionService, hub *Hub) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/market/nfts", GetMarketNFTs(market))
		r.Get("/owners/{address}/nfts", GetOwnerNFTs(market))
		r.Get("/nfts/{id}", GetNFT(market))
		r.Get("/auctions", GetActiveAuctions(market))
		r.Post("/payloads", BuildPayload(tx))
		r.Post("/transactions", ExecuteTransaction(tx))
	})

	r.Get("/ws", ServeWs(hub))

	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := uuid.New()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Info("request",
				zap.String("request_id", requestID.String()),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)))
		})
	}
}
