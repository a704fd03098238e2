package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/aptomart/aptomart-api/internal/chain"
	"github.com/aptomart/aptomart-api/internal/codec"
)

// EntryFunctions the marketplace module exposes. Anything else is refused
// before it reaches the wallet.
var EntryFunctions = map[string]bool{
	"purchase_nft":   true,
	"list_for_sale":  true,
	"transfer_nft":   true,
	"create_auction": true,
	"place_bid":      true,
	"stop_auction":   true,
}

// abortMessages maps known contract abort codes to user-facing causes. Unknown
// codes fall through with the raw VM status attached.
var abortMessages = map[string]string{
	"4000": "Auction not found",
	"1201": "Only the auction owner can stop this auction",
	"1200": "NFT not found",
}

// TransactionService builds entry-function payloads, submits them through the
// wallet signer and awaits finality. It holds no cache; callers re-fetch their
// listings after a successful execute.
type TransactionService struct {
	chain  *chain.Client
	signer chain.Signer
	log    *zap.Logger
}

// NewTransactionService creates a new TransactionService. A nil signer is
// allowed; execution then fails with chain.ErrWalletUnavailable while payload
// building keeps working.
func NewTransactionService(c *chain.Client, signer chain.Signer, log *zap.Logger) *TransactionService {
	return &TransactionService{
		chain:  c,
		signer: signer,
		log:    log,
	}
}

// BuildPayload constructs the signable payload for a marketplace entry
// function. Pure; args must be pre-stringified.
func (s *TransactionService) BuildPayload(function string, args []string) chain.EntryFunctionPayload {
	if args == nil {
		args = []string{}
	}
	return chain.EntryFunctionPayload{
		Type:          chain.PayloadType,
		Function:      s.chain.Function(function),
		TypeArguments: []string{},
		Arguments:     args,
	}
}

// Execute submits an entry function and waits for finality, returning the
// transaction hash. Known abort codes are mapped to friendly causes; nothing
// is retried.
func (s *TransactionService) Execute(ctx context.Context, function string, args []string) (string, error) {
	if !EntryFunctions[function] {
		return "", fmt.Errorf("unknown entry function %q", function)
	}
	if s.signer == nil {
		return "", chain.ErrWalletUnavailable
	}

	payload := s.BuildPayload(function, args)
	hash, err := s.signer.SignAndSubmit(ctx, payload)
	if err != nil {
		return "", friendlyAbort(err)
	}

	if err := s.chain.WaitForTransaction(ctx, hash); err != nil {
		return "", friendlyAbort(err)
	}

	s.log.Info("transaction committed",
		zap.String("function", function),
		zap.String("hash", hash))
	return hash, nil
}

// PurchaseNFT buys a listed NFT at the given display price.
func (s *TransactionService) PurchaseNFT(ctx context.Context, nftID uint64, price float64) (string, error) {
	return s.Execute(ctx, "purchase_nft",
		[]string{s.chain.Marketplace(), formatID(nftID), codec.ToOctas(price)})
}

// ListNFTForSale lists an owned NFT at the given display price.
func (s *TransactionService) ListNFTForSale(ctx context.Context, nftID uint64, price float64) (string, error) {
	return s.Execute(ctx, "list_for_sale",
		[]string{s.chain.Marketplace(), formatID(nftID), codec.ToOctas(price)})
}

// TransferNFT transfers an owned NFT to a recipient address.
func (s *TransactionService) TransferNFT(ctx context.Context, nftID uint64, recipient string) (string, error) {
	return s.Execute(ctx, "transfer_nft",
		[]string{s.chain.Marketplace(), formatID(nftID), recipient})
}

// CreateAuction starts an auction for an owned NFT.
func (s *TransactionService) CreateAuction(ctx context.Context, nftID uint64, startPrice float64, durationSeconds uint64) (string, error) {
	return s.Execute(ctx, "create_auction",
		[]string{s.chain.Marketplace(), formatID(nftID), codec.ToOctas(startPrice),
			strconv.FormatUint(durationSeconds, 10)})
}

// PlaceBid bids on a live auction.
func (s *TransactionService) PlaceBid(ctx context.Context, auctionID uint64, amount float64) (string, error) {
	return s.Execute(ctx, "place_bid",
		[]string{s.chain.Marketplace(), formatID(auctionID), codec.ToOctas(amount)})
}

// StopAuction ends an auction owned by the caller.
func (s *TransactionService) StopAuction(ctx context.Context, auctionID uint64) (string, error) {
	return s.Execute(ctx, "stop_auction",
		[]string{s.chain.Marketplace(), formatID(auctionID)})
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

func friendlyAbort(err error) error {
	var aborted *chain.AbortedTransactionError
	if errors.As(err, &aborted) {
		if msg, ok := abortMessages[aborted.Code]; ok {
			return fmt.Errorf("%s: %w", msg, err)
		}
	}
	return err
}
