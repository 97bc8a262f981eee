package deepscan

import (
	"context"
	"sync"
)

// QuotaStore tracks deep scans consumed per user for the current period.
// Increment must be atomic per user: the count it returns is the one the
// caller owns. Release undoes one Increment and never goes below zero.
// Resetting a period is the store owner's job.
type QuotaStore interface {
	Used(ctx context.Context, userID string) (int, error)
	Increment(ctx context.Context, userID string) (int, error)
	Release(ctx context.Context, userID string) error
}

// MemoryQuotaStore is an in-process QuotaStore.
type MemoryQuotaStore struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewMemoryQuotaStore returns an empty store.
func NewMemoryQuotaStore() *MemoryQuotaStore {
	return &MemoryQuotaStore{counts: make(map[string]int)}
}

func (s *MemoryQuotaStore) Used(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[userID], nil
}

func (s *MemoryQuotaStore) Increment(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[userID]++
	return s.counts[userID], nil
}

func (s *MemoryQuotaStore) Release(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counts[userID] > 0 {
		s.counts[userID]--
	}
	return nil
}
