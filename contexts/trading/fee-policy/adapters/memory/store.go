package memory

import (
	"context"
	"sync"
)

// Store holds the fee singleton in memory.
type Store struct {
	mu  sync.RWMutex
	fee uint64
}

func NewStore(initialFee uint64) *Store {
	return &Store{fee: initialFee}
}

func (s *Store) GetFee(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fee, nil
}

func (s *Store) SetFee(_ context.Context, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fee = amount
	return nil
}
