// Package record owns the relief disbursement record model and its stores.
//
// Two Store implementations are provided: PostgresStore for production and
// MemoryStore for tests and development.
package record

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a relief record does not exist.
var ErrNotFound = errors.New("relief record not found")

// hashTimeLayout is the canonical timestamp form used in fingerprints.
// It must never change: every previously anchored digest depends on it.
const hashTimeLayout = "2006-01-02T15:04:05"

// ReliefRecord is one relief disbursement. The first block of fields is
// immutable and hash-relevant; the bookkeeping fields below it are excluded
// from the fingerprint so that anchoring a record never invalidates its own
// digest.
type ReliefRecord struct {
	ID            uuid.UUID `json:"id"`
	FullName      string    `json:"full_name"`
	CitizenshipNo string    `json:"citizenship_no"`
	ReliefAmount  int64     `json:"relief_amount"` // whole rupees
	Province      string    `json:"province"`
	District      string    `json:"district"`
	DisasterType  string    `json:"disaster_type"`
	OfficerName   string    `json:"officer_name"`
	OfficerID     string    `json:"officer_id"`
	CreatedAt     time.Time `json:"created_at"`

	// Bookkeeping — mutable, never hashed.
	UpdatedAt   time.Time `json:"updated_at"`
	RecordHash  string    `json:"record_hash"`
	TxSignature string    `json:"solana_tx_signature"`
}

// Anchored reports whether the record already carries a ledger transaction
// reference.
func (r *ReliefRecord) Anchored() bool { return r.TxSignature != "" }

// HashFields renders the immutable fields in their canonical string form for
// fingerprinting. Amounts become decimal text; the creation timestamp is
// rendered in UTC without a zone suffix.
func (r *ReliefRecord) HashFields() map[string]string {
	return map[string]string{
		"id":             r.ID.String(),
		"full_name":      r.FullName,
		"citizenship_no": r.CitizenshipNo,
		"relief_amount":  strconv.FormatInt(r.ReliefAmount, 10),
		"province":       r.Province,
		"district":       r.District,
		"disaster_type":  r.DisasterType,
		"officer_name":   r.OfficerName,
		"officer_id":     r.OfficerID,
		"created_at":     r.CreatedAt.UTC().Format(hashTimeLayout),
	}
}

// Filter restricts List results. Empty fields match everything.
type Filter struct {
	Province     string
	District     string
	DisasterType string
}

// Store is the persistence interface for relief records.
type Store interface {
	// Create inserts a new record, assigning ID and timestamps when unset.
	Create(ctx context.Context, r *ReliefRecord) error

	// GetByID returns a record or ErrNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*ReliefRecord, error)

	// List returns records matching the filter, newest first.
	List(ctx context.Context, f Filter, limit, offset int) ([]*ReliefRecord, error)

	// ListUnanchored returns records without a transaction reference,
	// oldest first, so batch anchoring is stable across runs.
	ListUnanchored(ctx context.Context) ([]*ReliefRecord, error)

	// UpdateAnchor writes the anchoring bookkeeping back onto a record.
	UpdateAnchor(ctx context.Context, id uuid.UUID, txSignature, recordHash string) error

	// Counts returns the total number of records and how many are anchored.
	Counts(ctx context.Context) (total, anchored int, err error)
}
