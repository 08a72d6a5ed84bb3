package record

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store for tests and development.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*ReliefRecord
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[uuid.UUID]*ReliefRecord)}
}

// Create implements Store.
func (s *MemoryStore) Create(_ context.Context, r *ReliefRecord) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *r
	s.records[r.ID] = &clone
	return nil
}

// GetByID implements Store.
func (s *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (*ReliefRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *r
	return &clone, nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context, f Filter, limit, offset int) ([]*ReliefRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	s.mu.RLock()
	var matched []*ReliefRecord
	for _, r := range s.records {
		if f.Province != "" && r.Province != f.Province {
			continue
		}
		if f.District != "" && r.District != f.District {
			continue
		}
		if f.DisasterType != "" && r.DisasterType != f.DisasterType {
			continue
		}
		clone := *r
		matched = append(matched, &clone)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// ListUnanchored implements Store.
func (s *MemoryStore) ListUnanchored(_ context.Context) ([]*ReliefRecord, error) {
	s.mu.RLock()
	var unanchored []*ReliefRecord
	for _, r := range s.records {
		if !r.Anchored() {
			clone := *r
			unanchored = append(unanchored, &clone)
		}
	}
	s.mu.RUnlock()

	sort.Slice(unanchored, func(i, j int) bool {
		return unanchored[i].CreatedAt.Before(unanchored[j].CreatedAt)
	})
	return unanchored, nil
}

// UpdateAnchor implements Store.
func (s *MemoryStore) UpdateAnchor(_ context.Context, id uuid.UUID, txSignature, recordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	r.TxSignature = txSignature
	r.RecordHash = recordHash
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// Counts implements Store.
func (s *MemoryStore) Counts(_ context.Context) (total, anchored int, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		total++
		if r.Anchored() {
			anchored++
		}
	}
	return total, anchored, nil
}
