package unit

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	assetregistry "bazaar/contexts/custody/asset-registry"
	feepolicy "bazaar/contexts/trading/fee-policy"
	feeerrors "bazaar/contexts/trading/fee-policy/domain/errors"
	feehttp "bazaar/contexts/trading/fee-policy/transport/http"
	marketplaceledger "bazaar/contexts/trading/marketplace-ledger"
	ledgererrors "bazaar/contexts/trading/marketplace-ledger/domain/errors"
	httptransport "bazaar/contexts/trading/marketplace-ledger/transport/http"
)

func TestSetListingFeeRequiresAdministrator(t *testing.T) {
	module := feepolicy.NewInMemoryModule(marketAdmin, 10, slog.Default())
	ctx := context.Background()

	_, err := module.Handler.SetListingFeeHandler(ctx, "random-user", feehttp.SetListingFeeRequest{Amount: 99})
	if !errors.Is(err, feeerrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized fee update, got %v", err)
	}

	current, err := module.Handler.GetListingFeeHandler(ctx)
	if err != nil {
		t.Fatalf("get listing fee failed: %v", err)
	}
	if current.Data.ListingFee != 10 {
		t.Fatalf("expected fee unchanged at 10, got %d", current.Data.ListingFee)
	}
}

func TestSetListingFeeByAdministrator(t *testing.T) {
	module := feepolicy.NewInMemoryModule(marketAdmin, 10, slog.Default())
	ctx := context.Background()

	updated, err := module.Handler.SetListingFeeHandler(ctx, marketAdmin, feehttp.SetListingFeeRequest{Amount: 25})
	if err != nil {
		t.Fatalf("set listing fee failed: %v", err)
	}
	if updated.Data.ListingFee != 25 {
		t.Fatalf("expected fee 25, got %d", updated.Data.ListingFee)
	}

	// Zero disables the fee entirely.
	cleared, err := module.Handler.SetListingFeeHandler(ctx, marketAdmin, feehttp.SetListingFeeRequest{Amount: 0})
	if err != nil {
		t.Fatalf("clear listing fee failed: %v", err)
	}
	if cleared.Data.ListingFee != 0 {
		t.Fatalf("expected fee cleared, got %d", cleared.Data.ListingFee)
	}
}

func TestUpdatedFeeAppliesToSubsequentListings(t *testing.T) {
	logger := slog.Default()
	registry := assetregistry.NewInMemoryModule(marketAdmin, logger)
	fees := feepolicy.NewInMemoryModule(marketAdmin, 10, logger)
	custody := assetregistry.OperatorClient{Service: registry.Service, Operator: escrowAccount}
	market := marketplaceledger.NewInMemoryModule(custody, fees.Service, escrowAccount, marketAdmin, logger)
	ctx := context.Background()

	if err := registry.Service.Mint(ctx, marketAdmin, wineContract, "seller-1", 1, 100, nil); err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if err := registry.Service.SetOperatorApproval(ctx, wineContract, "seller-1", escrowAccount, true); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	market.Payments.Deposit("seller-1", 100)

	if _, err := fees.Handler.SetListingFeeHandler(ctx, marketAdmin, feehttp.SetListingFeeRequest{Amount: 40}); err != nil {
		t.Fatalf("set fee failed: %v", err)
	}

	_, err := market.Handler.CreateListingHandler(ctx, "seller-1", "", httptransport.CreateListingRequest{
		AssetContract:   wineContract,
		AssetID:         1,
		Quantity:        5,
		PricePerUnit:    30,
		PaymentSupplied: 10,
	})
	if !errors.Is(err, ledgererrors.ErrInsufficientPayment) {
		t.Fatalf("expected old fee amount to be rejected, got %v", err)
	}

	if _, err := market.Handler.CreateListingHandler(ctx, "seller-1", "", httptransport.CreateListingRequest{
		AssetContract:   wineContract,
		AssetID:         1,
		Quantity:        5,
		PricePerUnit:    30,
		PaymentSupplied: 40,
	}); err != nil {
		t.Fatalf("create listing at updated fee failed: %v", err)
	}

	collector, err := market.Payments.BalanceOf(ctx, marketAdmin)
	if err != nil {
		t.Fatalf("collector balance failed: %v", err)
	}
	if collector != 40 {
		t.Fatalf("expected collector to hold updated fee 40, got %d", collector)
	}
}
