package record

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists relief records in the relief_records table.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore backed by the given pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const recordColumns = `
	id, full_name, citizenship_no, relief_amount, province, district,
	disaster_type, officer_name, officer_id, created_at, updated_at,
	record_hash, solana_tx_signature`

// Create implements Store.
func (s *PostgresStore) Create(ctx context.Context, r *ReliefRecord) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	query := `
		INSERT INTO relief_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := s.db.Exec(ctx, query,
		r.ID, r.FullName, r.CitizenshipNo, r.ReliefAmount, r.Province,
		r.District, r.DisasterType, r.OfficerName, r.OfficerID,
		r.CreatedAt, r.UpdatedAt, r.RecordHash, r.TxSignature,
	)
	if err != nil {
		return fmt.Errorf("insert relief record: %w", err)
	}
	return nil
}

// GetByID implements Store.
func (s *PostgresStore) GetByID(ctx context.Context, id uuid.UUID) (*ReliefRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM relief_records WHERE id = $1`
	r, err := s.scanOne(ctx, query, id)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// List implements Store.
func (s *PostgresStore) List(ctx context.Context, f Filter, limit, offset int) ([]*ReliefRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT ` + recordColumns + `
		FROM relief_records
		WHERE ($1 = '' OR province = $1)
		  AND ($2 = '' OR district = $2)
		  AND ($3 = '' OR disaster_type = $3)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`

	rows, err := s.db.Query(ctx, query, f.Province, f.District, f.DisasterType, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list relief records: %w", err)
	}
	defer rows.Close()
	return s.collect(rows)
}

// ListUnanchored implements Store. Oldest records come first so repeated
// batch runs make forward progress in a stable order.
func (s *PostgresStore) ListUnanchored(ctx context.Context) ([]*ReliefRecord, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM relief_records
		WHERE solana_tx_signature = ''
		ORDER BY created_at ASC`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list unanchored records: %w", err)
	}
	defer rows.Close()
	return s.collect(rows)
}

// UpdateAnchor implements Store.
func (s *PostgresStore) UpdateAnchor(ctx context.Context, id uuid.UUID, txSignature, recordHash string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE relief_records
		SET solana_tx_signature = $2, record_hash = $3, updated_at = $4
		WHERE id = $1`,
		id, txSignature, recordHash, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("update anchor bookkeeping: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Counts implements Store.
func (s *PostgresStore) Counts(ctx context.Context) (total, anchored int, err error) {
	err = s.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE solana_tx_signature <> '')
		FROM relief_records`,
	).Scan(&total, &anchored)
	if err != nil {
		return 0, 0, fmt.Errorf("count relief records: %w", err)
	}
	return total, anchored, nil
}

func (s *PostgresStore) scanOne(ctx context.Context, query string, args ...any) (*ReliefRecord, error) {
	r := &ReliefRecord{}
	err := s.db.QueryRow(ctx, query, args...).Scan(
		&r.ID, &r.FullName, &r.CitizenshipNo, &r.ReliefAmount, &r.Province,
		&r.District, &r.DisasterType, &r.OfficerName, &r.OfficerID,
		&r.CreatedAt, &r.UpdatedAt, &r.RecordHash, &r.TxSignature,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan relief record: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) collect(rows pgx.Rows) ([]*ReliefRecord, error) {
	var records []*ReliefRecord
	for rows.Next() {
		r := &ReliefRecord{}
		if err := rows.Scan(
			&r.ID, &r.FullName, &r.CitizenshipNo, &r.ReliefAmount, &r.Province,
			&r.District, &r.DisasterType, &r.OfficerName, &r.OfficerID,
			&r.CreatedAt, &r.UpdatedAt, &r.RecordHash, &r.TxSignature,
		); err != nil {
			return nil, fmt.Errorf("scan relief record row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
