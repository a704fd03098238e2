package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/aptomart/aptomart-api/internal/chain"
)

const testMarketplace = "0xcafe"

type fakeSigner struct {
	hash    string
	err     error
	payload chain.EntryFunctionPayload
}

func (f *fakeSigner) SignAndSubmit(_ context.Context, payload chain.EntryFunctionPayload) (string, error) {
	f.payload = payload
	return f.hash, f.err
}

func testChain(t *testing.T, handler http.HandlerFunc) *chain.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return chain.New(chain.Config{NodeURL: srv.URL, MarketplaceAddress: testMarketplace}, zap.NewNop())
}

func finalityHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/transactions/by_hash/") {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}
}

func TestBuildPayload(t *testing.T) {
	c := testChain(t, finalityHandler(`{}`))
	svc := NewTransactionService(c, nil, zap.NewNop())

	payload := svc.BuildPayload("purchase_nft", []string{testMarketplace, "7", "150000000"})
	if payload.Type != "entry_function_payload" {
		t.Fatalf("type = %q", payload.Type)
	}
	if payload.Function != testMarketplace+"::NFTMarketplace::purchase_nft" {
		t.Fatalf("function = %q", payload.Function)
	}
	if len(payload.TypeArguments) != 0 {
		t.Fatalf("type arguments = %v", payload.TypeArguments)
	}
	if len(payload.Arguments) != 3 || payload.Arguments[2] != "150000000" {
		t.Fatalf("arguments = %v", payload.Arguments)
	}
}

func TestExecuteWithoutSigner(t *testing.T) {
	c := testChain(t, finalityHandler(`{}`))
	svc := NewTransactionService(c, nil, zap.NewNop())

	_, err := svc.StopAuction(context.Background(), 1)
	if !errors.Is(err, chain.ErrWalletUnavailable) {
		t.Fatalf("want ErrWalletUnavailable, got %v", err)
	}
}

func TestExecuteRejectsUnknownFunction(t *testing.T) {
	c := testChain(t, finalityHandler(`{}`))
	svc := NewTransactionService(c, &fakeSigner{hash: "0x1"}, zap.NewNop())

	if _, err := svc.Execute(context.Background(), "drain_funds", nil); err == nil {
		t.Fatalf("expected unknown function error")
	}
}

func TestExecuteSuccessReturnsHash(t *testing.T) {
	c := testChain(t, finalityHandler(`{"type":"user_transaction","success":true,"vm_status":"Executed successfully"}`))
	signer := &fakeSigner{hash: "0xdeadbeef"}
	svc := NewTransactionService(c, signer, zap.NewNop())

	hash, err := svc.PlaceBid(context.Background(), 4, 1.5)
	if err != nil {
		t.Fatalf("PlaceBid: %v", err)
	}
	if hash != "0xdeadbeef" {
		t.Fatalf("hash = %q", hash)
	}
	want := []string{testMarketplace, "4", "150000000"}
	for i, arg := range want {
		if signer.payload.Arguments[i] != arg {
			t.Fatalf("arguments = %v, want %v", signer.payload.Arguments, want)
		}
	}
}

func TestExecuteMapsKnownAbortCodes(t *testing.T) {
	c := testChain(t, finalityHandler(`{"type":"user_transaction","success":false,"vm_status":"Move abort in 0xcafe::NFTMarketplace: 0x4b1"}`))
	svc := NewTransactionService(c, &fakeSigner{hash: "0x1"}, zap.NewNop())

	_, err := svc.StopAuction(context.Background(), 9)
	if err == nil {
		t.Fatalf("expected abort error")
	}
	if !strings.Contains(err.Error(), "Only the auction owner can stop this auction") {
		t.Fatalf("missing friendly message: %v", err)
	}
	var aborted *chain.AbortedTransactionError
	if !errors.As(err, &aborted) || aborted.Code != "1201" {
		t.Fatalf("abort code lost: %v", err)
	}
}

func TestExecuteUnknownAbortKeepsRawStatus(t *testing.T) {
	c := testChain(t, finalityHandler(`{"type":"user_transaction","success":false,"vm_status":"Move abort in 0xcafe::NFTMarketplace: 0x270f"}`))
	svc := NewTransactionService(c, &fakeSigner{hash: "0x1"}, zap.NewNop())

	_, err := svc.StopAuction(context.Background(), 9)
	var aborted *chain.AbortedTransactionError
	if !errors.As(err, &aborted) {
		t.Fatalf("want AbortedTransactionError, got %v", err)
	}
	if aborted.Code != "9999" || !strings.Contains(aborted.VMStatus, "0x270f") {
		t.Fatalf("raw status lost: %+v", aborted)
	}
}

func TestExecuteSubmissionRejected(t *testing.T) {
	c := testChain(t, finalityHandler(`{}`))
	signer := &fakeSigner{err: &chain.SubmissionRejectedError{Reason: "user declined"}}
	svc := NewTransactionService(c, signer, zap.NewNop())

	_, err := svc.PurchaseNFT(context.Background(), 2, 1.0)
	var rejected *chain.SubmissionRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("want SubmissionRejectedError, got %v", err)
	}
}
