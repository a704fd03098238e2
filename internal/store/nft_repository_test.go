package store

import (
	"context"
	"net/http"
	"testing"

	"go.uber.org/zap"
)

func TestListForOwnerEmptyIssuesNoDetailFetch(t *testing.T) {
	node := newFakeNode(t, func(fn string, args []string) (string, int) {
		if fn != "get_all_nfts_for_owner" {
			t.Fatalf("unexpected view call %s", fn)
		}
		if len(args) != 4 || args[2] != "100" || args[3] != "0" {
			t.Fatalf("unexpected enumeration args %v", args)
		}
		return `[[]]`, 0
	})
	repo := NewNFTRepository(node.client(t), zap.NewNop())

	nfts, failed, err := repo.ListForOwner(context.Background(), "0xowner", nil)
	if err != nil {
		t.Fatalf("ListForOwner: %v", err)
	}
	if len(nfts) != 0 || failed != 0 {
		t.Fatalf("got %d nfts, %d failed", len(nfts), failed)
	}
	if node.calls("get_nft_details") != 0 {
		t.Fatalf("detail fetch issued for empty collection")
	}
}

func TestListForOwnerDropsFailingItems(t *testing.T) {
	node := newFakeNode(t, func(fn string, args []string) (string, int) {
		switch fn {
		case "get_all_nfts_for_owner":
			return `[["1","2","3"]]`, 0
		case "get_nft_details":
			switch args[1] {
			case "1":
				return detailsTuple("1", "0xowner", "Dragon", "fire", "ipfs://1", "150000000", true, 3), 0
			case "2":
				return `{"message":"gone"}`, http.StatusInternalServerError
			default:
				return detailsTuple("3", "0xowner", "Turtle", "slow", "ipfs://3", "50000000", false, 1), 0
			}
		case "is_nft_in_auction":
			if args[1] == "1" {
				return `[true]`, 0
			}
			return `[false]`, 0
		}
		t.Fatalf("unexpected view call %s", fn)
		return "", 0
	})
	repo := NewNFTRepository(node.client(t), zap.NewNop())

	nfts, failed, err := repo.ListForOwner(context.Background(), "0xowner", nil)
	if err != nil {
		t.Fatalf("ListForOwner: %v", err)
	}
	if failed != 1 {
		t.Fatalf("failed = %d, want 1", failed)
	}
	if len(nfts) != 2 {
		t.Fatalf("got %d nfts, want 2", len(nfts))
	}
	// order of surviving items follows the id enumeration
	if nfts[0].ID != 1 || nfts[1].ID != 3 {
		t.Fatalf("ids = %d,%d", nfts[0].ID, nfts[1].ID)
	}
	if nfts[0].Name != "Dragon" || nfts[0].Price != 1.5 || !nfts[0].InAuction {
		t.Fatalf("first nft decoded wrong: %+v", nfts[0])
	}
	if nfts[1].InAuction {
		t.Fatalf("nft 3 should not be in auction")
	}
}

func TestListForOwnerRarityFilter(t *testing.T) {
	node := newFakeNode(t, func(fn string, args []string) (string, int) {
		switch fn {
		case "get_all_nfts_for_owner":
			return `[["1","2"]]`, 0
		case "get_nft_details":
			if args[1] == "1" {
				return detailsTuple("1", "0xowner", "A", "", "", "100000000", true, 3), 0
			}
			return detailsTuple("2", "0xowner", "B", "", "", "100000000", true, 2), 0
		case "is_nft_in_auction":
			return `[false]`, 0
		}
		return "", http.StatusBadRequest
	})
	repo := NewNFTRepository(node.client(t), zap.NewNop())

	rarity := 3
	nfts, _, err := repo.ListForOwner(context.Background(), "0xowner", &rarity)
	if err != nil {
		t.Fatalf("ListForOwner: %v", err)
	}
	if len(nfts) != 1 || nfts[0].ID != 1 {
		t.Fatalf("rarity filter kept %v", nfts)
	}
}

func TestListForSale(t *testing.T) {
	node := newFakeNode(t, func(fn string, args []string) (string, int) {
		t.Fatalf("unexpected view call %s", fn)
		return "", 0
	})
	node.resource = `{"type":"0xcafe::NFTMarketplace::Marketplace","data":{"nfts":[
		{"id":"1","owner":"0xa","name":` + hexField("Dragon") + `,"description":` + hexField("fire") + `,"uri":` + hexField("ipfs://1") + `,"price":"200000000","for_sale":true,"rarity":4},
		{"id":"2","owner":"0xb","name":` + hexField("Turtle") + `,"description":` + hexField("slow") + `,"uri":` + hexField("ipfs://2") + `,"price":"100000000","for_sale":false,"rarity":1},
		{"id":"3","owner":"0xc","name":` + hexField("Crab") + `,"description":` + hexField("snip") + `,"uri":` + hexField("ipfs://3") + `,"price":"oops","for_sale":true,"rarity":2}
	]}}`
	repo := NewNFTRepository(node.client(t), zap.NewNop())

	nfts, failed, err := repo.ListForSale(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListForSale: %v", err)
	}
	if failed != 1 {
		t.Fatalf("failed = %d, want 1 (bad price entry)", failed)
	}
	if len(nfts) != 1 || nfts[0].Name != "Dragon" || nfts[0].Price != 2.0 {
		t.Fatalf("unexpected listing %+v", nfts)
	}
}
