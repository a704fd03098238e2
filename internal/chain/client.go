package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ModuleName is the on-chain Move module all marketplace calls target.
const ModuleName = "NFTMarketplace"

const (
	maxResponseBytes = 1 << 20

	// How often WaitForTransaction re-polls the node. There is deliberately no
	// overall deadline: finality takes as long as the node says it takes, and
	// callers cancel through the context.
	finalityPollInterval = 500 * time.Millisecond
)

// Config carries the connection settings for a fullnode client. Passing it
// explicitly (rather than a package-level singleton) keeps test doubles and
// multi-environment setups trivial.
type Config struct {
	NodeURL            string
	MarketplaceAddress string
	RequestTimeout     time.Duration
}

// Client is a thin typed wrapper over the fullnode REST API: read-only view
// calls, resource reads and transaction finality polling.
type Client struct {
	nodeURL     string
	marketplace string
	http        *http.Client
	log         *zap.Logger
}

// New creates a fullnode client.
func New(cfg Config, log *zap.Logger) *Client {
	return &Client{
		nodeURL:     strings.TrimRight(cfg.NodeURL, "/"),
		marketplace: cfg.MarketplaceAddress,
		http:        &http.Client{Timeout: cfg.RequestTimeout},
		log:         log,
	}
}

// Marketplace returns the configured marketplace contract address.
func (c *Client) Marketplace() string { return c.marketplace }

// Function returns the fully qualified id of a marketplace module function.
func (c *Client) Function(name string) string {
	return fmt.Sprintf("%s::%s::%s", c.marketplace, ModuleName, name)
}

type viewRequest struct {
	Function      string   `json:"function"`
	TypeArguments []string `json:"type_arguments"`
	Arguments     []string `json:"arguments"`
}

// View performs a read-only view call against a marketplace module function
// and returns the ordered result tuple. Failures are surfaced unchanged: a
// *NetworkError for transport problems, a *RemoteRejection when the node
// refuses the call.
func (c *Client) View(ctx context.Context, function string, args []string) ([]json.RawMessage, error) {
	if args == nil {
		args = []string{}
	}
	body, err := json.Marshal(viewRequest{
		Function:      c.Function(function),
		TypeArguments: []string{},
		Arguments:     args,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.nodeURL+"/view", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	raw, err := c.do(req, "view "+function)
	if err != nil {
		return nil, err
	}

	var results []json.RawMessage
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, fmt.Errorf("chain: decoding view %s response: %w", function, err)
	}
	return results, nil
}

// AccountResource reads a Move resource under an account and returns its data
// field.
func (c *Client) AccountResource(ctx context.Context, account, resourceType string) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/accounts/%s/resource/%s", c.nodeURL, account, url.PathEscape(resourceType))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	raw, err := c.do(req, "resource "+resourceType)
	if err != nil {
		return nil, err
	}

	var resource struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &resource); err != nil {
		return nil, fmt.Errorf("chain: decoding resource %s: %w", resourceType, err)
	}
	return resource.Data, nil
}

type transactionStatus struct {
	Type     string `json:"type"`
	Success  bool   `json:"success"`
	VMStatus string `json:"vm_status"`
}

// WaitForTransaction polls the node until the transaction is committed or
// aborted. A committed-but-failed transaction yields an
// *AbortedTransactionError carrying the parsed abort code. No client-side
// timeout is enforced beyond context cancellation.
func (c *Client) WaitForTransaction(ctx context.Context, hash string) error {
	for {
		status, found, err := c.transactionByHash(ctx, hash)
		if err != nil {
			return err
		}
		if found && status.Type != "pending_transaction" {
			if status.Success {
				return nil
			}
			code, _ := ParseAbortCode(status.VMStatus)
			return &AbortedTransactionError{Code: code, VMStatus: status.VMStatus}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(finalityPollInterval):
		}
	}
}

func (c *Client) transactionByHash(ctx context.Context, hash string) (*transactionStatus, bool, error) {
	endpoint := fmt.Sprintf("%s/transactions/by_hash/%s", c.nodeURL, hash)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, false, &NetworkError{Op: "transaction " + hash, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, false, &NetworkError{Op: "transaction " + hash, Err: err}
	}

	// The node answers 404 until the transaction reaches the mempool index.
	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, &RemoteRejection{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var status transactionStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, false, fmt.Errorf("chain: decoding transaction %s: %w", hash, err)
	}
	return &status, true, nil
}

func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RemoteRejection{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	return body, nil
}
