// Package anchor orchestrates tamper-evidence for relief records: computing
// canonical fingerprints, anchoring them into the Solana ledger as memo
// transactions, and re-deriving them later to detect tampering.
//
// Anchoring is best-effort auxiliary behaviour. Submission failures surface
// as typed "not anchored" outcomes and must never fail the caller's primary
// action; verification distinguishes tampered records from an unreachable
// network instead of collapsing both to failure.
package anchor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"
	"github.com/hamrosuraksha/reliefchain/internal/fingerprint"
	"github.com/hamrosuraksha/reliefchain/internal/ledger"
	"github.com/hamrosuraksha/reliefchain/internal/record"
	"go.uber.org/zap"
)

// batchPreviewLimit caps the per-record outcome list in a BatchSummary.
const batchPreviewLimit = 20

const lamportsPerSOL = 1_000_000_000

// Info identifies the ledger endpoint and wallet for status reporting.
type Info struct {
	Network       string
	RPCURL        string
	WalletAddress string
}

// MetricsHook records an anchoring or verification outcome label.
type MetricsHook func(outcome string)

// Service is the anchor workflow: per-record and batch anchoring,
// verification, and status reporting. All collaborators are injected;
// the service holds no global state.
type Service struct {
	store  record.Store
	client ledger.Client
	info   Info
	logger *zap.Logger

	// locks serialises concurrent anchor attempts per record so one logical
	// anchor event can never produce two transaction references. Entries are
	// refcounted and removed once the last holder releases, keeping the map
	// proportional to in-flight anchors rather than records ever seen.
	mu    sync.Mutex
	locks map[uuid.UUID]*recordLock

	onAnchor MetricsHook // nil = no metrics
	onVerify MetricsHook // nil = no metrics
}

// NewService creates the anchor Service.
func NewService(store record.Store, client ledger.Client, info Info, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		client: client,
		info:   info,
		logger: logger,
		locks:  make(map[uuid.UUID]*recordLock),
	}
}

// SetAnchorMetricsHook configures the hook called with each anchor outcome
// ("anchored", "already_anchored", "tx_failed", "bookkeeping_failed").
func (s *Service) SetAnchorMetricsHook(h MetricsHook) { s.onAnchor = h }

// SetVerifyMetricsHook configures the hook called with each verdict.
func (s *Service) SetVerifyMetricsHook(h MetricsHook) { s.onVerify = h }

// Anchor computes a record's fingerprint, submits it as a memo transaction,
// and writes the transaction reference back onto the record.
//
// It is idempotent: a record that already carries a transaction reference
// returns its existing receipt unchanged. Concurrent calls for the same
// record are serialised by a per-record mutex. Submission failure leaves the
// record untouched so the caller may retry.
func (s *Service) Anchor(ctx context.Context, id uuid.UUID) (*AnchorReceipt, error) {
	unlock := s.lockRecord(id)
	defer unlock()

	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if rec.Anchored() {
		s.record(s.onAnchor, "already_anchored")
		return &AnchorReceipt{
			RecordID:        rec.ID,
			RecordHash:      rec.RecordHash,
			TxSignature:     rec.TxSignature,
			ExplorerURL:     ledger.ExplorerURL(rec.TxSignature, s.info.Network),
			Anchored:        true,
			AlreadyAnchored: true,
		}, nil
	}

	hash := fingerprint.ComputeRecord(rec)
	payload := ledger.EncodePayload(rec.ID.String(), hash)

	txSig, err := s.client.SubmitMemo(ctx, payload)
	if err != nil {
		s.record(s.onAnchor, "tx_failed")
		s.logger.Warn("anchor submission failed",
			zap.String("record_id", rec.ID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("anchor record %s: %w", rec.ID, err)
	}

	receipt := &AnchorReceipt{
		RecordID:    rec.ID,
		RecordHash:  hash,
		TxSignature: txSig,
		ExplorerURL: ledger.ExplorerURL(txSig, s.info.Network),
		Anchored:    true,
	}

	if err := s.store.UpdateAnchor(ctx, rec.ID, txSig, hash); err != nil {
		// The ledger write happened; only the bookkeeping write failed.
		// Surface it for operator reconciliation instead of hiding the
		// transaction reference.
		receipt.PersistenceWarning = fmt.Sprintf(
			"transaction %s submitted but bookkeeping update failed: %v", txSig, err)
		s.record(s.onAnchor, "bookkeeping_failed")
		s.logger.Error("anchor bookkeeping write failed after ledger submit",
			zap.String("record_id", rec.ID.String()),
			zap.String("tx_signature", txSig),
			zap.Error(err),
		)
		return receipt, nil
	}

	s.record(s.onAnchor, "anchored")
	s.logger.Info("record anchored",
		zap.String("record_id", rec.ID.String()),
		zap.String("tx_signature", txSig),
	)
	return receipt, nil
}

// AnchorAll anchors every unanchored record sequentially, oldest first.
// One record's failure does not abort the batch. Sequential submission is
// deliberate: it keeps each blockhash comfortably within its validity
// window and stays inside per-account rate limits.
func (s *Service) AnchorAll(ctx context.Context) (*BatchSummary, error) {
	pending, err := s.store.ListUnanchored(ctx)
	if err != nil {
		return nil, fmt.Errorf("list unanchored records: %w", err)
	}

	summary := &BatchSummary{Total: len(pending)}
	for _, rec := range pending {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}

		outcome := BatchOutcome{RecordID: rec.ID}
		receipt, err := s.Anchor(ctx, rec.ID)
		switch {
		case err != nil:
			summary.Failed++
			outcome.Status = "tx_failed"
		case receipt.PersistenceWarning != "":
			summary.Failed++
			outcome.Status = "bookkeeping_failed"
			outcome.TxSignature = receipt.TxSignature
		default:
			summary.Anchored++
			outcome.Status = "anchored"
			outcome.TxSignature = receipt.TxSignature
		}

		if len(summary.Results) < batchPreviewLimit {
			summary.Results = append(summary.Results, outcome)
		}
	}

	s.logger.Info("batch anchoring finished",
		zap.Int("total", summary.Total),
		zap.Int("anchored", summary.Anchored),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

// VerifyOffline recomputes a record's fingerprint and compares it to the
// stored one. Pure and instantaneous; this is the default check callers
// should prefer.
func (s *Service) VerifyOffline(ctx context.Context, id uuid.UUID) (*OfflineCheck, error) {
	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	current := fingerprint.ComputeRecord(rec)
	return &OfflineCheck{
		RecordID:    rec.ID,
		Match:       rec.RecordHash != "" && current == rec.RecordHash,
		CurrentHash: current,
		StoredHash:  rec.RecordHash,
	}, nil
}

// Verify re-derives a record's fingerprint and cross-checks it against the
// ledger. The verdict is tri-state: an unreachable network yields
// indeterminate, never a silent pass or fail.
func (s *Service) Verify(ctx context.Context, id uuid.UUID) (*VerificationResult, error) {
	rec, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	current := fingerprint.ComputeRecord(rec)
	result := &VerificationResult{
		RecordID:    rec.ID,
		CurrentHash: current,
		StoredHash:  rec.RecordHash,
		TxSignature: rec.TxSignature,
	}

	if !rec.Anchored() {
		result.Verdict = VerdictIndeterminate
		result.Mode = ModeOffline
		result.Diagnostic = "record has not been anchored yet"
		return s.finishVerify(result), nil
	}
	result.ExplorerURL = ledger.ExplorerURL(rec.TxSignature, s.info.Network)

	// Cheap offline comparison first: a mismatch against the stored
	// fingerprint is already proof of tampering.
	if rec.RecordHash != "" && current != rec.RecordHash {
		result.Verdict = VerdictTampered
		result.Mode = ModeOffline
		result.Diagnostic = "recomputed fingerprint does not match the stored one"
		return s.finishVerify(result), nil
	}

	lookup, err := s.client.LookupMemo(ctx, rec.TxSignature)
	if err != nil {
		result.Verdict = VerdictIndeterminate
		result.Mode = ModeOffline
		result.Diagnostic = fmt.Sprintf("ledger query failed: %v", err)
		return s.finishVerify(result), nil
	}

	switch {
	case !lookup.Found:
		result.Verdict = VerdictTampered
		result.Mode = ModeExistenceOnly
		result.Diagnostic = "anchoring transaction not found on the ledger"

	case lookup.Decoded:
		result.Mode = ModeMemoCompared
		expected := ledger.EncodePayload(rec.ID.String(), current)
		if lookup.Payload == expected {
			result.Verdict = VerdictVerified
		} else {
			result.Verdict = VerdictTampered
			result.Diagnostic = "on-chain memo payload does not match the recomputed fingerprint"
		}

	default:
		// Transaction exists but its memo could not be decoded: a weaker
		// guarantee, and labeled as such.
		result.Verdict = VerdictVerified
		result.Mode = ModeExistenceOnly
		result.Diagnostic = "transaction exists on the ledger; memo payload was not compared"
	}
	return s.finishVerify(result), nil
}

// Status returns a snapshot of network reachability and wallet health.
// It never returns an error: an unreachable network is reported in-band
// with the best-known static fields.
func (s *Service) Status(ctx context.Context) *Status {
	st := &Status{
		Network:       s.info.Network,
		RPCURL:        s.info.RPCURL,
		WalletAddress: s.info.WalletAddress,
	}

	bal, err := s.client.Balance(ctx)
	if err != nil {
		st.Error = err.Error()
		return st
	}
	st.Reachable = true
	st.BalanceLamports = bal
	st.BalanceSOL = float64(bal) / lamportsPerSOL
	return st
}

// Stats reports anchoring coverage over the record store.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	total, anchored, err := s.store.Counts(ctx)
	if err != nil {
		return nil, err
	}
	st := &Stats{
		TotalRecords:  total,
		Anchored:      anchored,
		Pending:       total - anchored,
		WalletAddress: s.info.WalletAddress,
	}
	if total > 0 {
		st.CoveragePercent = math.Round(float64(anchored)/float64(total)*1000) / 10
	}
	return st, nil
}

// IsNotFound reports whether err denotes a missing record.
func IsNotFound(err error) bool { return errors.Is(err, record.ErrNotFound) }

// recordLock is one record's anchor mutex plus the number of goroutines
// holding or waiting on it.
type recordLock struct {
	mu   sync.Mutex
	refs int
}

// lockRecord acquires the mutex for a record ID, creating it on first use,
// and returns the unlock function. The map entry is dropped when the last
// holder releases.
func (s *Service) lockRecord(id uuid.UUID) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &recordLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

func (s *Service) finishVerify(r *VerificationResult) *VerificationResult {
	s.record(s.onVerify, string(r.Verdict))
	return r
}

func (s *Service) record(hook MetricsHook, outcome string) {
	if hook != nil {
		hook(outcome)
	}
}
