package application

import (
	"context"
	"log/slog"
	"strings"

	domainerrors "bazaar/contexts/custody/asset-registry/domain/errors"
	"bazaar/contexts/custody/asset-registry/ports"
)

// Service tracks per-holder quantities of asset classes and the operator
// approvals that allow a marketplace to move them. Minting is restricted to
// the administrator fixed at construction.
type Service struct {
	Store         ports.BalanceStore
	Administrator string
	Logger        *slog.Logger
}

func (s Service) Mint(
	ctx context.Context,
	caller string,
	contract string,
	holder string,
	assetID uint64,
	quantity uint64,
	data []byte,
) error {
	if strings.TrimSpace(caller) == "" || strings.TrimSpace(caller) != s.Administrator {
		return domainerrors.ErrUnauthorized
	}
	if strings.TrimSpace(contract) == "" || strings.TrimSpace(holder) == "" || quantity == 0 {
		return domainerrors.ErrInvalidInput
	}
	if err := s.Store.Credit(ctx, strings.TrimSpace(contract), strings.TrimSpace(holder), assetID, quantity); err != nil {
		return err
	}

	resolveLogger(s.Logger).Info("asset minted",
		"event", "asset_minted",
		"module", "custody/asset-registry",
		"layer", "application",
		"contract", strings.TrimSpace(contract),
		"holder", strings.TrimSpace(holder),
		"asset_id", assetID,
		"quantity", quantity,
		"data_len", len(data),
	)
	return nil
}

func (s Service) BalanceOf(
	ctx context.Context,
	contract string,
	holder string,
	assetID uint64,
) (uint64, error) {
	return s.Store.Balance(ctx, strings.TrimSpace(contract), strings.TrimSpace(holder), assetID)
}

// SetOperatorApproval grants or revokes an operator's ability to move the
// caller's balances under one contract. Caller-scoped; no admin involvement.
func (s Service) SetOperatorApproval(
	ctx context.Context,
	contract string,
	caller string,
	operator string,
	approved bool,
) error {
	if strings.TrimSpace(contract) == "" || strings.TrimSpace(caller) == "" || strings.TrimSpace(operator) == "" {
		return domainerrors.ErrInvalidInput
	}
	return s.Store.SetApproval(ctx, strings.TrimSpace(contract), strings.TrimSpace(caller), strings.TrimSpace(operator), approved)
}

// Transfer moves quantity units between holders. The operator must be the
// balance owner or hold a prior approval from the owner.
func (s Service) Transfer(
	ctx context.Context,
	contract string,
	operator string,
	from string,
	to string,
	assetID uint64,
	quantity uint64,
) error {
	contract = strings.TrimSpace(contract)
	operator = strings.TrimSpace(operator)
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if contract == "" || operator == "" || from == "" || to == "" || quantity == 0 {
		return domainerrors.ErrInvalidInput
	}

	if operator != from {
		approved, err := s.Store.IsApproved(ctx, contract, from, operator)
		if err != nil {
			return err
		}
		if !approved {
			return domainerrors.ErrNotApproved
		}
	}
	return s.Store.Move(ctx, contract, from, to, assetID, quantity)
}

func resolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
