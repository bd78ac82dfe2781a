package ports

import "context"

// BalanceStore persists per-holder quantities of distinguishable asset
// classes, keyed by (contract, holder, assetID), plus operator approvals.
// Move must check and adjust both sides atomically.
type BalanceStore interface {
	Balance(ctx context.Context, contract string, holder string, assetID uint64) (uint64, error)
	Credit(ctx context.Context, contract string, holder string, assetID uint64, quantity uint64) error
	Move(ctx context.Context, contract string, from string, to string, assetID uint64, quantity uint64) error
	SetApproval(ctx context.Context, contract string, owner string, operator string, approved bool) error
	IsApproved(ctx context.Context, contract string, owner string, operator string) (bool, error)
}
