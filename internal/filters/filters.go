// Package filters holds the pure view-model helpers applied to listing
// snapshots: price-range filtering, stable sorting and pagination. No I/O.
package filters

import (
	"sort"

	"github.com/aptomart/aptomart-api/internal/models"
)

// Sort keys accepted by Sort. Unknown keys fall back to SortLatest.
const (
	SortLatest    = "latest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortRarity    = "rarity"
)

// ByPriceRange keeps NFTs with min <= price <= max (inclusive bounds). An
// inverted range yields an empty result.
func ByPriceRange(nfts []models.NFT, min, max float64) []models.NFT {
	out := make([]models.NFT, 0, len(nfts))
	for _, nft := range nfts {
		if nft.Price >= min && nft.Price <= max {
			out = append(out, nft)
		}
	}
	return out
}

// Sort returns a reordered copy. Equal-key elements keep their relative input
// order.
func Sort(nfts []models.NFT, key string) []models.NFT {
	out := make([]models.NFT, len(nfts))
	copy(out, nfts)

	var less func(a, b models.NFT) bool
	switch key {
	case SortPriceAsc:
		less = func(a, b models.NFT) bool { return a.Price < b.Price }
	case SortPriceDesc:
		less = func(a, b models.NFT) bool { return a.Price > b.Price }
	case SortRarity:
		less = func(a, b models.NFT) bool { return a.Rarity > b.Rarity }
	default:
		// latest first
		less = func(a, b models.NFT) bool { return a.ID > b.ID }
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// Paginate slices out a 1-based page. Out-of-range pages yield an empty slice,
// never an error.
func Paginate[T any](items []T, page, pageSize int) []T {
	if page < 1 || pageSize < 1 {
		return []T{}
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
