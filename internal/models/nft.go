package models

// NFT is the decoded, display-ready projection of an on-chain token. It is a
// detached snapshot: every fetch rebuilds it from chain state, nothing mutates
// it in place.
type NFT struct {
	ID          uint64  `json:"id"`
	Owner       string  `json:"owner"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	URI         string  `json:"uri"`
	Rarity      int     `json:"rarity"`
	Price       float64 `json:"price"`
	ForSale     bool    `json:"for_sale"`
	// InAuction comes from a separate view call and may be momentarily stale
	// relative to ForSale.
	InAuction bool `json:"in_auction"`
}

// NFTDetails carries just the decoded string fields of a token, used to enrich
// auction listings.
type NFTDetails struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	URI         string `json:"uri"`
}

// MoveNFT is the wire shape of an NFT entry inside the Marketplace resource.
// Numeric u64 fields arrive as decimal strings, string fields as 0x-hex.
type MoveNFT struct {
	ID          string `json:"id"`
	Owner       string `json:"owner"`
	Name        string `json:"name"`
	Description string `json:"description"`
	URI         string `json:"uri"`
	Price       string `json:"price"`
	ForSale     bool   `json:"for_sale"`
	Rarity      int    `json:"rarity"`
}

// RarityLabels maps the on-chain rarity enum to display names.
var RarityLabels = map[int]string{
	1: "Common",
	2: "Uncommon",
	3: "Rare",
	4: "Super Rare",
}

// NFTListResponse represents the response for listing NFTs
type NFTListResponse struct {
	NFTs       []NFT `json:"nfts"`
	TotalCount int   `json:"total_count"`
	// Failed counts items dropped from the listing because a per-item fetch or
	// decode failed; the rest of the page is still served.
	Failed   int `json:"failed"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// NFTParams represents the parameters for filtering and shaping NFT listings
type NFTParams struct {
	Rarity   *int     `json:"rarity"`
	MinPrice *float64 `json:"min_price"`
	MaxPrice *float64 `json:"max_price"`
	Sort     string   `json:"sort"`
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
}
