package unit

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	assetregistry "bazaar/contexts/custody/asset-registry"
	registryerrors "bazaar/contexts/custody/asset-registry/domain/errors"
	registryhttp "bazaar/contexts/custody/asset-registry/transport/http"
)

func TestMintRequiresAdministrator(t *testing.T) {
	module := assetregistry.NewInMemoryModule(marketAdmin, slog.Default())
	ctx := context.Background()

	_, err := module.Handler.MintHandler(ctx, "random-user", registryhttp.MintRequest{
		Contract: wineContract,
		Holder:   "holder-1",
		AssetID:  1,
		Quantity: 100,
	})
	if !errors.Is(err, registryerrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized mint, got %v", err)
	}

	balance, err := module.Service.BalanceOf(ctx, wineContract, "holder-1", 1)
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if balance != 0 {
		t.Fatalf("expected no minted balance, got %d", balance)
	}
}

func TestMintCreditsHolder(t *testing.T) {
	module := assetregistry.NewInMemoryModule(marketAdmin, slog.Default())
	ctx := context.Background()

	if _, err := module.Handler.MintHandler(ctx, marketAdmin, registryhttp.MintRequest{
		Contract: wineContract,
		Holder:   "holder-1",
		AssetID:  1,
		Quantity: 100,
	}); err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	resp, err := module.Handler.BalanceHandler(ctx, wineContract, "holder-1", 1)
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if resp.Data.Quantity != 100 {
		t.Fatalf("expected 100 units, got %d", resp.Data.Quantity)
	}
}

func TestTransferByUnapprovedOperatorRejected(t *testing.T) {
	module := assetregistry.NewInMemoryModule(marketAdmin, slog.Default())
	ctx := context.Background()

	if err := module.Service.Mint(ctx, marketAdmin, wineContract, "holder-1", 1, 100, nil); err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	err := module.Service.Transfer(ctx, wineContract, "operator-1", "holder-1", "holder-2", 1, 10)
	if !errors.Is(err, registryerrors.ErrNotApproved) {
		t.Fatalf("expected not approved, got %v", err)
	}
}

func TestTransferByApprovedOperator(t *testing.T) {
	module := assetregistry.NewInMemoryModule(marketAdmin, slog.Default())
	ctx := context.Background()

	if err := module.Service.Mint(ctx, marketAdmin, wineContract, "holder-1", 1, 100, nil); err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if _, err := module.Handler.SetApprovalHandler(ctx, "holder-1", registryhttp.SetApprovalRequest{
		Contract: wineContract,
		Operator: "operator-1",
		Approved: true,
	}); err != nil {
		t.Fatalf("approval failed: %v", err)
	}

	if err := module.Service.Transfer(ctx, wineContract, "operator-1", "holder-1", "holder-2", 1, 10); err != nil {
		t.Fatalf("approved transfer failed: %v", err)
	}

	from, _ := module.Service.BalanceOf(ctx, wineContract, "holder-1", 1)
	to, _ := module.Service.BalanceOf(ctx, wineContract, "holder-2", 1)
	if from != 90 || to != 10 {
		t.Fatalf("unexpected balances after transfer: %d and %d", from, to)
	}
}

func TestOwnerTransferNeedsNoApproval(t *testing.T) {
	module := assetregistry.NewInMemoryModule(marketAdmin, slog.Default())
	ctx := context.Background()

	if err := module.Service.Mint(ctx, marketAdmin, wineContract, "holder-1", 1, 100, nil); err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if err := module.Service.Transfer(ctx, wineContract, "holder-1", "holder-1", "holder-2", 1, 40); err != nil {
		t.Fatalf("owner transfer failed: %v", err)
	}

	balance, _ := module.Service.BalanceOf(ctx, wineContract, "holder-2", 1)
	if balance != 40 {
		t.Fatalf("expected 40 units transferred, got %d", balance)
	}
}

func TestTransferRejectsInsufficientBalance(t *testing.T) {
	module := assetregistry.NewInMemoryModule(marketAdmin, slog.Default())
	ctx := context.Background()

	if err := module.Service.Mint(ctx, marketAdmin, wineContract, "holder-1", 1, 5, nil); err != nil {
		t.Fatalf("mint failed: %v", err)
	}

	err := module.Service.Transfer(ctx, wineContract, "holder-1", "holder-1", "holder-2", 1, 6)
	if !errors.Is(err, registryerrors.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}
}
