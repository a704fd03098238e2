package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// EntryFunctionPayload is a signable entry-function call. Arguments are always
// pre-stringified; the payload has no identity beyond the hash the signer
// returns.
type EntryFunctionPayload struct {
	Type          string   `json:"type"`
	Function      string   `json:"function"`
	TypeArguments []string `json:"type_arguments"`
	Arguments     []string `json:"arguments"`
}

// PayloadType is the payload discriminator the wallet API expects.
const PayloadType = "entry_function_payload"

// Signer signs and submits an entry-function payload and returns the
// transaction hash. Key custody and user approval live entirely behind this
// interface.
type Signer interface {
	SignAndSubmit(ctx context.Context, payload EntryFunctionPayload) (string, error)
}

// WalletBridge submits payloads to an external wallet bridge over HTTP. The
// bridge holds the keys and may prompt a user; a decline surfaces as a
// *SubmissionRejectedError.
type WalletBridge struct {
	baseURL string
	http    *http.Client
}

// NewWalletBridge creates a signer backed by the wallet bridge at baseURL.
func NewWalletBridge(baseURL string, timeout time.Duration) *WalletBridge {
	return &WalletBridge{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// SignAndSubmit implements Signer.
func (w *WalletBridge) SignAndSubmit(ctx context.Context, payload EntryFunctionPayload) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/transactions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.http.Do(req)
	if err != nil {
		return "", &NetworkError{Op: "wallet submit", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &NetworkError{Op: "wallet submit", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &SubmissionRejectedError{Reason: strings.TrimSpace(string(respBody))}
	}

	var result struct {
		Hash string `json:"hash"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("chain: decoding wallet response: %w", err)
	}
	if result.Hash == "" {
		return "", &SubmissionRejectedError{Reason: "wallet returned no transaction hash"}
	}
	return result.Hash, nil
}
