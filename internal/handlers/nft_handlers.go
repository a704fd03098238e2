package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/aptomart/aptomart-api/internal/models"
	"github.com/aptomart/aptomart-api/internal/services"
)

// GetMarketNFTs handles the for-sale marketplace listing
func GetMarketNFTs(market *services.MarketService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := parseNFTParams(r)

		response, err := market.Browse(r.Context(), params)
		if err != nil {
			writeError(w, statusForError(err), err.Error())
			return
		}

		writeJSON(w, http.StatusOK, response)
	}
}

// GetOwnerNFTs handles listing the NFTs owned by an address
func GetOwnerNFTs(market *services.MarketService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := chi.URLParam(r, "address")
		if owner == "" {
			writeError(w, http.StatusBadRequest, "owner address is required")
			return
		}

		params := parseNFTParams(r)

		response, err := market.Owned(r.Context(), owner, params)
		if err != nil {
			writeError(w, statusForError(err), err.Error())
			return
		}

		writeJSON(w, http.StatusOK, response)
	}
}

// GetNFT handles retrieving a single decoded NFT
func GetNFT(market *services.MarketService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid NFT id")
			return
		}

		nft, err := market.NFT(r.Context(), id)
		if err != nil {
			writeError(w, statusForError(err), err.Error())
			return
		}

		writeJSON(w, http.StatusOK, nft)
	}
}

// Helper function to parse NFT listing query parameters
func parseNFTParams(r *http.Request) models.NFTParams {
	params := models.NFTParams{}

	if rarityStr := r.URL.Query().Get("rarity"); rarityStr != "" {
		if rarity, err := strconv.Atoi(rarityStr); err == nil {
			params.Rarity = &rarity
		}
	}

	if minStr := r.URL.Query().Get("min_price"); minStr != "" {
		if min, err := strconv.ParseFloat(minStr, 64); err == nil {
			params.MinPrice = &min
		}
	}
	if maxStr := r.URL.Query().Get("max_price"); maxStr != "" {
		if max, err := strconv.ParseFloat(maxStr, 64); err == nil {
			params.MaxPrice = &max
		}
	}

	params.Sort = r.URL.Query().Get("sort")

	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if page, err := strconv.Atoi(pageStr); err == nil && page > 0 {
			params.Page = page
		}
	}
	if pageSizeStr := r.URL.Query().Get("page_size"); pageSizeStr != "" {
		if pageSize, err := strconv.Atoi(pageSizeStr); err == nil && pageSize > 0 {
			params.PageSize = pageSize
		}
	}

	return params
}
