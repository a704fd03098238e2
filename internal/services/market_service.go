package services

import (
	"context"
	"time"

	"github.com/aptomart/aptomart-api/internal/filters"
	"github.com/aptomart/aptomart-api/internal/models"
	"github.com/aptomart/aptomart-api/internal/store"
)

const defaultPageSize = 8

// MarketService composes the chain-backed repositories with the pure
// view-model filters into the listings the presentation layer consumes.
type MarketService struct {
	nfts     *store.NFTRepository
	auctions *store.AuctionRepository
}

// NewMarketService creates a new MarketService
func NewMarketService(nfts *store.NFTRepository, auctions *store.AuctionRepository) *MarketService {
	return &MarketService{
		nfts:     nfts,
		auctions: auctions,
	}
}

// Browse returns the for-sale marketplace listing, filtered, sorted and
// paginated per params.
func (s *MarketService) Browse(ctx context.Context, params models.NFTParams) (*models.NFTListResponse, error) {
	nfts, failed, err := s.nfts.ListForSale(ctx, params.Rarity)
	if err != nil {
		return nil, err
	}
	return shapeListing(nfts, failed, params), nil
}

// Owned returns the listing of NFTs owned by an address.
func (s *MarketService) Owned(ctx context.Context, owner string, params models.NFTParams) (*models.NFTListResponse, error) {
	nfts, failed, err := s.nfts.ListForOwner(ctx, owner, params.Rarity)
	if err != nil {
		return nil, err
	}
	return shapeListing(nfts, failed, params), nil
}

// NFT returns a single decoded NFT with its auction status.
func (s *MarketService) NFT(ctx context.Context, id uint64) (*models.NFT, error) {
	return s.nfts.Get(ctx, id)
}

// LiveAuctions returns the current live-auction snapshot.
func (s *MarketService) LiveAuctions(ctx context.Context) (*models.AuctionListResponse, error) {
	auctions, failed, err := s.auctions.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	return &models.AuctionListResponse{
		Auctions:   auctions,
		TotalCount: len(auctions),
		Failed:     failed,
		FetchedAt:  time.Now().Unix(),
	}, nil
}

func shapeListing(nfts []models.NFT, failed int, params models.NFTParams) *models.NFTListResponse {
	if params.MinPrice != nil || params.MaxPrice != nil {
		min, max := 0.0, 0.0
		if params.MinPrice != nil {
			min = *params.MinPrice
		}
		if params.MaxPrice != nil {
			max = *params.MaxPrice
		} else {
			// open-ended upper bound
			max = maxAfter(nfts)
		}
		nfts = filters.ByPriceRange(nfts, min, max)
	}

	nfts = filters.Sort(nfts, params.Sort)

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	return &models.NFTListResponse{
		NFTs:       filters.Paginate(nfts, page, pageSize),
		TotalCount: len(nfts),
		Failed:     failed,
		Page:       page,
		PageSize:   pageSize,
	}
}

func maxAfter(nfts []models.NFT) float64 {
	max := 0.0
	for _, nft := range nfts {
		if nft.Price > max {
			max = nft.Price
		}
	}
	return max
}
