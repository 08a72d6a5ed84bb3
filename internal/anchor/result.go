package anchor

import "github.com/google/uuid"

// Verdict is the tri-state outcome of an on-chain verification. It must
// never be collapsed to a boolean: "cannot reach the ledger" is a distinct
// answer from both pass and fail.
type Verdict string

const (
	// VerdictVerified — the recomputed fingerprint matches the anchored one.
	VerdictVerified Verdict = "verified"
	// VerdictTampered — the record no longer matches what was anchored, or
	// the claimed anchor does not exist on the ledger.
	VerdictTampered Verdict = "tampered"
	// VerdictIndeterminate — the ledger could not be queried; nothing can be
	// confirmed or denied right now.
	VerdictIndeterminate Verdict = "indeterminate"
)

// Verification modes, from strongest to weakest.
const (
	// ModeMemoCompared — the on-chain memo payload was decoded and
	// byte-compared against the recomputed fingerprint.
	ModeMemoCompared = "memo-compared"
	// ModeExistenceOnly — the transaction exists but its memo could not be
	// decoded; only anchoring, not content, is confirmed. Degraded mode.
	ModeExistenceOnly = "existence-only"
	// ModeOffline — no ledger query was involved.
	ModeOffline = "offline"
)

// AnchorReceipt is the immutable outcome of one successful anchor attempt.
// A retried anchor produces a new receipt and a new transaction reference;
// existing receipts are never updated.
type AnchorReceipt struct {
	RecordID    uuid.UUID `json:"record_id"`
	RecordHash  string    `json:"record_hash"`
	TxSignature string    `json:"solana_tx_signature"`
	ExplorerURL string    `json:"explorer_url"`
	Anchored    bool      `json:"anchored"`

	// AlreadyAnchored is set when the record carried a transaction
	// reference before this call and the existing receipt was returned.
	AlreadyAnchored bool `json:"already_anchored,omitempty"`

	// PersistenceWarning is set when the ledger write succeeded but the
	// bookkeeping write-back failed. The anchor exists on chain; an
	// operator must reconcile the stored reference.
	PersistenceWarning string `json:"persistence_warning,omitempty"`
}

// OfflineCheck is the result of a pure hash comparison, no network involved.
type OfflineCheck struct {
	RecordID    uuid.UUID `json:"record_id"`
	Match       bool      `json:"match"`
	CurrentHash string    `json:"current_hash"`
	StoredHash  string    `json:"stored_hash"`
}

// VerificationResult is the full on-chain verification outcome. Computed on
// demand, never persisted.
type VerificationResult struct {
	RecordID    uuid.UUID `json:"record_id"`
	Verdict     Verdict   `json:"verdict"`
	Mode        string    `json:"mode"`
	CurrentHash string    `json:"current_hash"`
	StoredHash  string    `json:"stored_hash,omitempty"`
	TxSignature string    `json:"solana_tx_signature,omitempty"`
	ExplorerURL string    `json:"explorer_url,omitempty"`
	Diagnostic  string    `json:"diagnostic,omitempty"`
}

// BatchOutcome is one record's result within a batch anchor run.
type BatchOutcome struct {
	RecordID    uuid.UUID `json:"id"`
	Status      string    `json:"status"` // anchored | tx_failed | bookkeeping_failed
	TxSignature string    `json:"tx_signature,omitempty"`
}

// BatchSummary summarises an anchor-all run. Results is capped to
// batchPreviewLimit entries to keep the response small.
type BatchSummary struct {
	Total    int            `json:"total"`
	Anchored int            `json:"anchored"`
	Failed   int            `json:"failed"`
	Results  []BatchOutcome `json:"results,omitempty"`
}

// Status is a read-only snapshot of the anchoring service's network and
// wallet health.
type Status struct {
	Reachable       bool    `json:"reachable"`
	Network         string  `json:"network"`
	RPCURL          string  `json:"rpc_url"`
	WalletAddress   string  `json:"wallet_address"`
	BalanceLamports uint64  `json:"balance_lamports"`
	BalanceSOL      float64 `json:"balance_sol"`
	Error           string  `json:"error,omitempty"`
}

// Stats reports anchoring coverage over the record store.
type Stats struct {
	TotalRecords    int     `json:"total_records"`
	Anchored        int     `json:"blockchain_anchored"`
	Pending         int     `json:"pending"`
	CoveragePercent float64 `json:"coverage_percent"`
	WalletAddress   string  `json:"wallet_address"`
}
