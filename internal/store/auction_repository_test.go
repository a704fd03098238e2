package store

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap"
)

func auctionEntry(nftID string, bid string, endTime int64, active bool) string {
	return fmt.Sprintf(`{"nft_id":"%s","seller":"0xseller","start_price":"%s","current_bid":"%s","highest_bidder":"0xbidder","end_time":"%d","active":%t}`,
		nftID, bid, bid, endTime, active)
}

func TestListActiveLivenessCut(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	node := newFakeNode(t, func(fn string, args []string) (string, int) {
		switch fn {
		case "get_active_auctions":
			return `[[` +
				auctionEntry("1", "100000000", now.Unix()+3600, true) + `,` +
				auctionEntry("2", "100000000", now.Unix()-1, true) + `,` +
				auctionEntry("3", "100000000", now.Unix()+3600, false) +
				`]]`, 0
		case "get_nft_details":
			return detailsTuple("1", "0xseller", "Dragon", "fire", "ipfs://1", "100000000", false, 3), 0
		}
		t.Fatalf("unexpected view call %s", fn)
		return "", 0
	})
	nfts := NewNFTRepository(node.client(t), zap.NewNop())
	repo := NewAuctionRepository(nfts.chain, nfts, zap.NewNop())
	repo.now = func() time.Time { return now }

	auctions, failed, err := repo.ListActive(context.Background())
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if failed != 0 {
		t.Fatalf("failed = %d", failed)
	}
	if len(auctions) != 1 || auctions[0].NFTID != 1 {
		t.Fatalf("liveness cut kept %+v", auctions)
	}
	if auctions[0].NFTDetails == nil || auctions[0].NFTDetails.Name != "Dragon" {
		t.Fatalf("details not enriched: %+v", auctions[0].NFTDetails)
	}
	if auctions[0].CurrentBid != 1.0 {
		t.Fatalf("current bid = %v", auctions[0].CurrentBid)
	}
}

func TestListActiveKeepsAuctionWhenDetailsFail(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	node := newFakeNode(t, func(fn string, args []string) (string, int) {
		switch fn {
		case "get_active_auctions":
			return `[[` + auctionEntry("9", "50000000", now.Unix()+600, true) + `]]`, 0
		case "get_nft_details":
			return `{"message":"gone"}`, http.StatusInternalServerError
		}
		return "", http.StatusBadRequest
	})
	nfts := NewNFTRepository(node.client(t), zap.NewNop())
	repo := NewAuctionRepository(nfts.chain, nfts, zap.NewNop())
	repo.now = func() time.Time { return now }

	auctions, failed, err := repo.ListActive(context.Background())
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(auctions) != 1 || auctions[0].NFTDetails != nil {
		t.Fatalf("auction should survive without details: %+v", auctions)
	}
	if failed != 1 {
		t.Fatalf("failed = %d, want 1", failed)
	}
}
