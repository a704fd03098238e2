package chain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrWalletUnavailable is returned when a transaction is attempted with no
// wallet signer configured.
var ErrWalletUnavailable = errors.New("no wallet signer configured")

// NetworkError wraps a transport-level failure talking to the fullnode or the
// wallet bridge.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("chain: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RemoteRejection is a non-2xx response from the fullnode, typically malformed
// arguments or an unknown view function. It is surfaced unchanged, never
// retried.
type RemoteRejection struct {
	StatusCode int
	Message    string
}

func (e *RemoteRejection) Error() string {
	return fmt.Sprintf("chain: node rejected request (status %d): %s", e.StatusCode, e.Message)
}

// SubmissionRejectedError is a decline before chain submission: the user
// refused in the wallet, or simulation failed.
type SubmissionRejectedError struct {
	Reason string
}

func (e *SubmissionRejectedError) Error() string {
	return fmt.Sprintf("chain: submission rejected: %s", e.Reason)
}

// AbortedTransactionError is a transaction the contract rejected after
// submission. Code is the decimal abort code when one could be parsed from the
// VM status, otherwise empty.
type AbortedTransactionError struct {
	Code     string
	VMStatus string
}

func (e *AbortedTransactionError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("chain: transaction aborted with code %s: %s", e.Code, e.VMStatus)
	}
	return fmt.Sprintf("chain: transaction aborted: %s", e.VMStatus)
}

var decimalAbortRe = regexp.MustCompile(`Move abort (\d+)`)

// ParseAbortCode extracts the decimal abort code from a VM status or wallet
// error message. Handles both the bare "Move abort 1201" wallet form and the
// node's "Move abort in 0x…::NFTMarketplace: 0x4b1" form.
func ParseAbortCode(s string) (string, bool) {
	if m := decimalAbortRe.FindStringSubmatch(s); m != nil {
		return m[1], true
	}
	if !strings.Contains(s, "Move abort") {
		return "", false
	}
	if i := strings.LastIndex(s, ":"); i >= 0 {
		if v, err := strconv.ParseUint(strings.TrimSpace(s[i+1:]), 0, 64); err == nil {
			return strconv.FormatUint(v, 10), true
		}
	}
	return "", false
}
