package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/aptomart/aptomart-api/internal/chain"
	"github.com/aptomart/aptomart-api/internal/config"
	"github.com/aptomart/aptomart-api/internal/handlers"
	"github.com/aptomart/aptomart-api/internal/logger"
	"github.com/aptomart/aptomart-api/internal/poller"
	"github.com/aptomart/aptomart-api/internal/services"
	"github.com/aptomart/aptomart-api/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	client := chain.New(chain.Config{
		NodeURL:            cfg.Chain.NodeURL,
		MarketplaceAddress: cfg.Chain.MarketplaceAddress,
		RequestTimeout:     time.Duration(cfg.Chain.RequestTimeout) * time.Second,
	}, log)

	var signer chain.Signer
	if cfg.Wallet.BridgeURL != "" {
		signer = chain.NewWalletBridge(cfg.Wallet.BridgeURL, time.Duration(cfg.Wallet.RequestTimeout)*time.Second)
	} else {
		log.Warn("no wallet bridge configured; transaction execution disabled")
	}

	nftRepo := store.NewNFTRepository(client, log)
	auctionRepo := store.NewAuctionRepository(client, nftRepo, log)

	market := services.NewMarketService(nftRepo, auctionRepo)
	tx := services.NewTransactionService(client, signer, log)

	hub := handlers.NewHub(market, tx, log)
	go hub.Run()

	p := poller.New(market, hub, log,
		time.Duration(cfg.Poll.AuctionInterval)*time.Second,
		time.Duration(cfg.Poll.TickInterval)*time.Second)
	if err := p.Start(); err != nil {
		log.Fatal("starting poller", zap.Error(err))
	}

	router := handlers.NewRouter(log, market, tx, hub)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info("server listening",
			zap.Int("port", cfg.Server.Port),
			zap.String("node_url", cfg.Chain.NodeURL),
			zap.String("marketplace", cfg.Chain.MarketplaceAddress))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	p.Stop()
	hub.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Warn("shutdown incomplete", zap.Error(err))
	}
}
