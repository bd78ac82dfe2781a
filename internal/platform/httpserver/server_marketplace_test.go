package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	assetregistry "bazaar/contexts/custody/asset-registry"
	feepolicy "bazaar/contexts/trading/fee-policy"
	marketplaceledger "bazaar/contexts/trading/marketplace-ledger"
)

const (
	testAdmin    = "market-admin"
	testEscrow   = "marketplace-escrow"
	testContract = "0xd3w1n3a55e75"
)

func newTestServer() *Server {
	logger := slog.Default()
	registry := assetregistry.NewInMemoryModule(testAdmin, logger)
	fees := feepolicy.NewInMemoryModule(testAdmin, 0, logger)
	custody := assetregistry.OperatorClient{Service: registry.Service, Operator: testEscrow}
	market := marketplaceledger.NewInMemoryModule(custody, fees.Service, testEscrow, testAdmin, logger)
	return New(market, fees, registry, logger, ":0")
}

func seedSellerInventory(t *testing.T, server *Server, seller string, assetID uint64, quantity uint64) {
	t.Helper()
	ctx := context.Background()
	if err := server.registry.Service.Mint(ctx, testAdmin, testContract, seller, assetID, quantity, nil); err != nil {
		t.Fatalf("mint failed: %v", err)
	}
	if err := server.registry.Service.SetOperatorApproval(ctx, testContract, seller, testEscrow, true); err != nil {
		t.Fatalf("approval failed: %v", err)
	}
}

func createTestListing(t *testing.T, server *Server, seller string) uint64 {
	t.Helper()
	body := []byte(`{"asset_contract":"` + testContract + `","asset_id":2,"quantity":22,"price_per_unit":50}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/listings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", seller)

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Data struct {
			ListingID uint64 `json:"listing_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return resp.Data.ListingID
}

func TestCreateListingEndpoint(t *testing.T) {
	server := newTestServer()
	seedSellerInventory(t, server, "seller-1", 2, 50)

	listingID := createTestListing(t, server, "seller-1")
	if listingID != 1 {
		t.Fatalf("expected listing id 1, got %d", listingID)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/listings/1", nil)
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Data struct {
			Status            string `json:"status"`
			QuantityRemaining uint64 `json:"quantity_remaining"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode get response: %v", err)
	}
	if resp.Data.Status != "active" || resp.Data.QuantityRemaining != 22 {
		t.Fatalf("unexpected listing state: %s %d", resp.Data.Status, resp.Data.QuantityRemaining)
	}
}

func TestPurchaseEndpointPartialThenSoldOut(t *testing.T) {
	server := newTestServer()
	seedSellerInventory(t, server, "seller-1", 2, 50)
	server.marketplace.Payments.Deposit("buyer-1", 2000)
	createTestListing(t, server, "seller-1")

	buy := func(quantity, payment int) *httptest.ResponseRecorder {
		body := []byte(`{"quantity":` + strconv.Itoa(quantity) + `,"payment_supplied":` + strconv.Itoa(payment) + `}`)
		req := httptest.NewRequest(http.MethodPost, "/v1/listings/1/purchase", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-User-Id", "buyer-1")
		rr := httptest.NewRecorder()
		server.mux.ServeHTTP(rr, req)
		return rr
	}

	first := buy(14, 700)
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", first.Code, first.Body.String())
	}

	second := buy(8, 400)
	if second.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", second.Code, second.Body.String())
	}
	var resp struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(second.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode purchase response: %v", err)
	}
	if resp.Data.Status != "sold_out" {
		t.Fatalf("expected sold_out, got %s", resp.Data.Status)
	}

	third := buy(1, 50)
	if third.Code != http.StatusGone {
		t.Fatalf("expected 410 on sold out listing, got %d body=%s", third.Code, third.Body.String())
	}
}

func TestPurchaseEndpointRejectsUnderpayment(t *testing.T) {
	server := newTestServer()
	seedSellerInventory(t, server, "seller-1", 2, 50)
	server.marketplace.Payments.Deposit("buyer-1", 2000)
	createTestListing(t, server, "seller-1")

	body := []byte(`{"quantity":14,"payment_supplied":699}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/listings/1/purchase", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "buyer-1")
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCancelEndpoint(t *testing.T) {
	server := newTestServer()
	seedSellerInventory(t, server, "seller-1", 2, 50)
	createTestListing(t, server, "seller-1")

	req := httptest.NewRequest(http.MethodPost, "/v1/listings/1/cancel", nil)
	req.Header.Set("X-User-Id", "seller-1")
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	balance, err := server.registry.Service.BalanceOf(context.Background(), testContract, "seller-1", 2)
	if err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if balance != 50 {
		t.Fatalf("expected seller inventory restored to 50, got %d", balance)
	}
}

func TestListListingsEndpointRejectsBadLimit(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/v1/listings?limit=abc", nil)
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}
