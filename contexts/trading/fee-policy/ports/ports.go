package ports

import "context"

// PolicyStore persists the listing-fee singleton. There is exactly one fee
// value per deployment.
type PolicyStore interface {
	GetFee(ctx context.Context) (uint64, error)
	SetFee(ctx context.Context, amount uint64) error
}
