package application

import (
	"context"
	"log/slog"
	"strings"

	domainerrors "bazaar/contexts/trading/fee-policy/domain/errors"
	"bazaar/contexts/trading/fee-policy/ports"
)

// Service administers the listing-fee singleton. The administrator identity
// is fixed at construction and is the only caller allowed to change the fee.
type Service struct {
	Store         ports.PolicyStore
	Administrator string
	Logger        *slog.Logger
}

func (s Service) SetListingFee(ctx context.Context, caller string, amount uint64) error {
	if strings.TrimSpace(caller) == "" || strings.TrimSpace(caller) != s.Administrator {
		return domainerrors.ErrUnauthorized
	}
	if err := s.Store.SetFee(ctx, amount); err != nil {
		return err
	}

	resolveLogger(s.Logger).Info("listing fee updated",
		"event", "listing_fee_updated",
		"module", "trading/fee-policy",
		"layer", "application",
		"listing_fee", amount,
	)
	return nil
}

// GetListingFee is an unrestricted read. It also satisfies the ledger's
// FeePolicy port directly.
func (s Service) GetListingFee(ctx context.Context) (uint64, error) {
	return s.Store.GetFee(ctx)
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
