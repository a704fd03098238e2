package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aptomart/aptomart-api/internal/chain"
	"github.com/aptomart/aptomart-api/internal/codec"
	"github.com/aptomart/aptomart-api/internal/models"
)

const (
	// The owner enumeration view is read in a single fixed window; the
	// contract does not expose pagination beyond it.
	ownerPageLimit  = "100"
	ownerPageOffset = "0"

	// Cap on concurrent per-NFT detail fetches within one listing.
	detailWorkers = 8
)

// NFTRepository reads NFT projections from chain state. Every listing is a
// fresh snapshot; a failed per-item fetch drops that item with a warning and
// bumps the failure count instead of aborting the listing.
type NFTRepository struct {
	chain *chain.Client
	log   *zap.Logger
}

// NewNFTRepository creates a new NFTRepository
func NewNFTRepository(c *chain.Client, log *zap.Logger) *NFTRepository {
	return &NFTRepository{
		chain: c,
		log:   log,
	}
}

// ListForOwner enumerates the ids owned by an address, then fetches details
// and auction status per id under a bounded worker pool. Returns the surviving
// NFTs and the number of dropped items.
func (r *NFTRepository) ListForOwner(ctx context.Context, owner string, rarity *int) ([]models.NFT, int, error) {
	results, err := r.chain.View(ctx, "get_all_nfts_for_owner",
		[]string{r.chain.Marketplace(), owner, ownerPageLimit, ownerPageOffset})
	if err != nil {
		return nil, 0, err
	}
	if len(results) == 0 {
		return nil, 0, fmt.Errorf("store: get_all_nfts_for_owner returned empty tuple")
	}

	var rawIDs []string
	if err := json.Unmarshal(results[0], &rawIDs); err != nil {
		return nil, 0, fmt.Errorf("store: decoding owner nft ids: %w", err)
	}
	if len(rawIDs) == 0 {
		return []models.NFT{}, 0, nil
	}

	slots := make([]*models.NFT, len(rawIDs))
	var mu sync.Mutex
	failed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(detailWorkers)
	for i, rawID := range rawIDs {
		g.Go(func() error {
			nft, err := r.fetchOne(gctx, rawID)
			if err != nil {
				r.log.Warn("dropping nft from owner listing",
					zap.String("owner", owner),
					zap.String("nft_id", rawID),
					zap.Error(err))
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			slots[i] = nft
			return nil
		})
	}
	// Workers swallow their own errors under the drop-and-count policy.
	_ = g.Wait()

	nfts := make([]models.NFT, 0, len(rawIDs))
	for _, nft := range slots {
		if nft == nil {
			continue
		}
		if rarity != nil && nft.Rarity != *rarity {
			continue
		}
		nfts = append(nfts, *nft)
	}
	return nfts, failed, nil
}

// ListForSale reads the bulk Marketplace resource in one call and keeps the
// entries marked for sale. Entries that fail to decode are dropped and counted.
func (r *NFTRepository) ListForSale(ctx context.Context, rarity *int) ([]models.NFT, int, error) {
	resourceType := fmt.Sprintf("%s::%s::Marketplace", r.chain.Marketplace(), chain.ModuleName)
	data, err := r.chain.AccountResource(ctx, r.chain.Marketplace(), resourceType)
	if err != nil {
		return nil, 0, err
	}

	var marketplace struct {
		NFTs []models.MoveNFT `json:"nfts"`
	}
	if err := json.Unmarshal(data, &marketplace); err != nil {
		return nil, 0, fmt.Errorf("store: decoding marketplace resource: %w", err)
	}

	nfts := make([]models.NFT, 0, len(marketplace.NFTs))
	failed := 0
	for _, entry := range marketplace.NFTs {
		nft, err := decodeMoveNFT(entry)
		if err != nil {
			r.log.Warn("dropping undecodable marketplace entry",
				zap.String("nft_id", entry.ID),
				zap.Error(err))
			failed++
			continue
		}
		if !nft.ForSale {
			continue
		}
		if rarity != nil && nft.Rarity != *rarity {
			continue
		}
		nfts = append(nfts, *nft)
	}
	return nfts, failed, nil
}

// Get fetches a single NFT with its auction status.
func (r *NFTRepository) Get(ctx context.Context, id uint64) (*models.NFT, error) {
	return r.fetchOne(ctx, strconv.FormatUint(id, 10))
}

// Details fetches just the decoded string fields of one NFT.
func (r *NFTRepository) Details(ctx context.Context, id uint64) (*models.NFTDetails, error) {
	results, err := r.chain.View(ctx, "get_nft_details",
		[]string{r.chain.Marketplace(), strconv.FormatUint(id, 10)})
	if err != nil {
		return nil, err
	}
	if len(results) < 5 {
		return nil, fmt.Errorf("store: get_nft_details returned %d values", len(results))
	}

	var nameHex, descHex, uriHex string
	for i, dst := range []*string{&nameHex, &descHex, &uriHex} {
		if err := json.Unmarshal(results[i+2], dst); err != nil {
			return nil, fmt.Errorf("store: decoding nft %d details: %w", id, err)
		}
	}
	return &models.NFTDetails{
		Name:        codec.DecodeHexString(nameHex),
		Description: codec.DecodeHexString(descHex),
		URI:         codec.DecodeHexString(uriHex),
	}, nil
}

// InAuction reports whether the NFT currently sits in an auction.
func (r *NFTRepository) InAuction(ctx context.Context, id uint64) (bool, error) {
	results, err := r.chain.View(ctx, "is_nft_in_auction",
		[]string{r.chain.Marketplace(), strconv.FormatUint(id, 10)})
	if err != nil {
		return false, err
	}
	if len(results) == 0 {
		return false, fmt.Errorf("store: is_nft_in_auction returned empty tuple")
	}
	var inAuction bool
	if err := json.Unmarshal(results[0], &inAuction); err != nil {
		return false, fmt.Errorf("store: decoding auction flag for nft %d: %w", id, err)
	}
	return inAuction, nil
}

func (r *NFTRepository) fetchOne(ctx context.Context, rawID string) (*models.NFT, error) {
	results, err := r.chain.View(ctx, "get_nft_details", []string{r.chain.Marketplace(), rawID})
	if err != nil {
		return nil, err
	}
	nft, err := decodeNFTTuple(results)
	if err != nil {
		return nil, err
	}

	inAuction, err := r.InAuction(ctx, nft.ID)
	if err != nil {
		return nil, err
	}
	nft.InAuction = inAuction
	return nft, nil
}

// decodeNFTTuple maps the get_nft_details result tuple
// (id, owner, name, description, uri, price, for_sale, rarity) onto a decoded
// NFT.
func decodeNFTTuple(results []json.RawMessage) (*models.NFT, error) {
	if len(results) < 8 {
		return nil, fmt.Errorf("store: get_nft_details returned %d values, want 8", len(results))
	}

	var entry models.MoveNFT
	fields := []any{&entry.ID, &entry.Owner, &entry.Name, &entry.Description,
		&entry.URI, &entry.Price, &entry.ForSale, &entry.Rarity}
	for i, dst := range fields {
		if err := json.Unmarshal(results[i], dst); err != nil {
			return nil, fmt.Errorf("store: decoding nft tuple field %d: %w", i, err)
		}
	}
	return decodeMoveNFT(entry)
}

func decodeMoveNFT(entry models.MoveNFT) (*models.NFT, error) {
	id, err := strconv.ParseUint(entry.ID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("store: parsing nft id %q: %w", entry.ID, err)
	}
	price, err := codec.DisplayAmountFromString(entry.Price)
	if err != nil {
		return nil, fmt.Errorf("store: parsing nft %d price %q: %w", id, entry.Price, err)
	}

	return &models.NFT{
		ID:          id,
		Owner:       entry.Owner,
		Name:        codec.DecodeHexString(entry.Name),
		Description: codec.DecodeHexString(entry.Description),
		URI:         codec.DecodeHexString(entry.URI),
		Rarity:      entry.Rarity,
		Price:       price,
		ForSale:     entry.ForSale,
	}, nil
}
