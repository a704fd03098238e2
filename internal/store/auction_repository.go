package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aptomart/aptomart-api/internal/chain"
	"github.com/aptomart/aptomart-api/internal/codec"
	"github.com/aptomart/aptomart-api/internal/models"
)

// AuctionRepository reads live auction snapshots from chain state. Each call
// rebuilds the whole listing; nothing is patched in place.
type AuctionRepository struct {
	chain *chain.Client
	nfts  *NFTRepository
	log   *zap.Logger

	// now is the client clock used for the liveness cut. It is not
	// chain-synchronized: an auction the client considers expired may still
	// accept bids on-chain, which is a display-only discrepancy.
	now func() time.Time
}

// NewAuctionRepository creates a new AuctionRepository
func NewAuctionRepository(c *chain.Client, nfts *NFTRepository, log *zap.Logger) *AuctionRepository {
	return &AuctionRepository{
		chain: c,
		nfts:  nfts,
		log:   log,
		now:   time.Now,
	}
}

// ListActive returns auctions that are active and not past their end time at
// fetch time, enriched with decoded NFT details. The remote view may still
// contain auctions the contract has not pruned; those are filtered here. A
// failed detail fetch keeps the auction, drops the enrichment and bumps the
// failure count.
func (r *AuctionRepository) ListActive(ctx context.Context) ([]models.Auction, int, error) {
	results, err := r.chain.View(ctx, "get_active_auctions", []string{r.chain.Marketplace()})
	if err != nil {
		return nil, 0, err
	}
	if len(results) == 0 {
		return nil, 0, fmt.Errorf("store: get_active_auctions returned empty tuple")
	}

	var raw []models.MoveAuction
	if err := json.Unmarshal(results[0], &raw); err != nil {
		return nil, 0, fmt.Errorf("store: decoding auction list: %w", err)
	}

	currentTime := r.now().Unix()
	live := make([]models.Auction, 0, len(raw))
	failed := 0
	for _, entry := range raw {
		auction, err := decodeMoveAuction(entry)
		if err != nil {
			r.log.Warn("dropping undecodable auction entry",
				zap.String("nft_id", entry.NFTID),
				zap.Error(err))
			failed++
			continue
		}
		if !auction.Active || auction.EndTime <= currentTime {
			continue
		}
		live = append(live, *auction)
	}

	if len(live) == 0 {
		return live, failed, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(detailWorkers)
	for i := range live {
		g.Go(func() error {
			details, err := r.nfts.Details(gctx, live[i].NFTID)
			if err != nil {
				r.log.Warn("auction listed without nft details",
					zap.Uint64("nft_id", live[i].NFTID),
					zap.Error(err))
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			live[i].NFTDetails = details
			return nil
		})
	}
	_ = g.Wait()

	return live, failed, nil
}

func decodeMoveAuction(entry models.MoveAuction) (*models.Auction, error) {
	nftID, err := strconv.ParseUint(entry.NFTID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("store: parsing auction nft id %q: %w", entry.NFTID, err)
	}
	endTime, err := strconv.ParseInt(entry.EndTime, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("store: parsing auction %d end time %q: %w", nftID, entry.EndTime, err)
	}
	currentBid, err := codec.DisplayAmountFromString(entry.CurrentBid)
	if err != nil {
		return nil, fmt.Errorf("store: parsing auction %d bid %q: %w", nftID, entry.CurrentBid, err)
	}

	return &models.Auction{
		ID:            nftID,
		NFTID:         nftID,
		CurrentBid:    currentBid,
		EndTime:       endTime,
		HighestBidder: entry.HighestBidder,
		Seller:        entry.Seller,
		Active:        entry.Active,
	}, nil
}
