package models

// Auction is the decoded projection of an on-chain auction. The client keeps an
// auction only while active and not yet past its end time; the contract remains
// the source of truth for whether a bid actually lands.
type Auction struct {
	ID            uint64      `json:"id"`
	NFTID         uint64      `json:"nft_id"`
	CurrentBid    float64     `json:"current_bid"`
	EndTime       int64       `json:"end_time"` // epoch seconds
	HighestBidder string      `json:"highest_bidder"`
	Seller        string      `json:"seller"`
	Active        bool        `json:"active"`
	NFTDetails    *NFTDetails `json:"nft_details,omitempty"`
}

// MoveAuction is the wire shape returned by the get_active_auctions view.
type MoveAuction struct {
	NFTID         string `json:"nft_id"`
	Seller        string `json:"seller"`
	StartPrice    string `json:"start_price"`
	CurrentBid    string `json:"current_bid"`
	HighestBidder string `json:"highest_bidder"`
	EndTime       string `json:"end_time"`
	Active        bool   `json:"active"`
}

// AuctionListResponse represents the response for listing live auctions
type AuctionListResponse struct {
	Auctions   []Auction `json:"auctions"`
	TotalCount int       `json:"total_count"`
	// Failed counts auctions whose NFT detail enrichment was dropped; the
	// auction itself is still listed without details.
	Failed int `json:"failed"`
	// FetchedAt is the client clock reading the liveness cut was made with.
	FetchedAt int64 `json:"fetched_at"`
}
