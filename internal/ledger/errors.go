package ledger

import (
	"fmt"
	"strings"
)

// SubmissionErrorKind classifies why a ledger submission failed.
type SubmissionErrorKind string

const (
	// KindUnreachable — the RPC endpoint could not be reached or timed out.
	KindUnreachable SubmissionErrorKind = "unreachable"
	// KindStaleBlockhash — the referenced blockhash expired before the
	// transaction landed.
	KindStaleBlockhash SubmissionErrorKind = "stale-blockhash"
	// KindInsufficientFunds — the wallet cannot cover the transaction fee.
	KindInsufficientFunds SubmissionErrorKind = "insufficient-funds"
	// KindRejected — the network accepted the request but rejected the
	// transaction for another reason.
	KindRejected SubmissionErrorKind = "rejected"
)

// SubmissionError is the typed failure returned by ledger operations.
// The anchor workflow maps it to a "not anchored" outcome; it must never
// escalate into a fatal process error.
type SubmissionError struct {
	Kind SubmissionErrorKind
	Op   string // RPC operation that failed, e.g. "send_transaction"
	Err  error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("ledger %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// classify wraps an RPC error with its submission kind. The Solana RPC does
// not expose stable error codes through the SDK for these cases, so the
// classification matches on the error text the node returns.
func classify(op string, err error) *SubmissionError {
	msg := strings.ToLower(err.Error())
	kind := KindUnreachable
	switch {
	case strings.Contains(msg, "blockhash not found") || strings.Contains(msg, "blockhashnotfound"):
		kind = KindStaleBlockhash
	case strings.Contains(msg, "insufficient funds") || strings.Contains(msg, "insufficient lamports") ||
		strings.Contains(msg, "attempt to debit an account"):
		kind = KindInsufficientFunds
	case strings.Contains(msg, "rpc error") || strings.Contains(msg, "invalid"):
		kind = KindRejected
	}
	return &SubmissionError{Kind: kind, Op: op, Err: err}
}
