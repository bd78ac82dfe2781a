package memory

import (
	"context"
	"sync"

	domainerrors "bazaar/contexts/custody/asset-registry/domain/errors"
)

type balanceKey struct {
	Contract string
	Holder   string
	AssetID  uint64
}

type approvalKey struct {
	Contract string
	Owner    string
	Operator string
}

// Store is the in-memory balance ledger used by tests and the in-memory
// runtime. Move checks and adjusts both sides under one lock.
type Store struct {
	mu        sync.RWMutex
	balances  map[balanceKey]uint64
	approvals map[approvalKey]bool
}

func NewStore() *Store {
	return &Store{
		balances:  make(map[balanceKey]uint64),
		approvals: make(map[approvalKey]bool),
	}
}

func (s *Store) Balance(_ context.Context, contract string, holder string, assetID uint64) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[balanceKey{Contract: contract, Holder: holder, AssetID: assetID}], nil
}

func (s *Store) Credit(_ context.Context, contract string, holder string, assetID uint64, quantity uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[balanceKey{Contract: contract, Holder: holder, AssetID: assetID}] += quantity
	return nil
}

func (s *Store) Move(
	_ context.Context,
	contract string,
	from string,
	to string,
	assetID uint64,
	quantity uint64,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fromKey := balanceKey{Contract: contract, Holder: from, AssetID: assetID}
	if s.balances[fromKey] < quantity {
		return domainerrors.ErrInsufficientBalance
	}
	s.balances[fromKey] -= quantity
	s.balances[balanceKey{Contract: contract, Holder: to, AssetID: assetID}] += quantity
	return nil
}

func (s *Store) SetApproval(
	_ context.Context,
	contract string,
	owner string,
	operator string,
	approved bool,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := approvalKey{Contract: contract, Owner: owner, Operator: operator}
	if !approved {
		delete(s.approvals, key)
		return nil
	}
	s.approvals[key] = true
	return nil
}

func (s *Store) IsApproved(
	_ context.Context,
	contract string,
	owner string,
	operator string,
) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.approvals[approvalKey{Contract: contract, Owner: owner, Operator: operator}], nil
}
