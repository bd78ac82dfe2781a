package httpserver

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateListingRequiresUserHeader(t *testing.T) {
	server := newTestServer()
	body := []byte(`{"asset_contract":"0xabc","asset_id":1,"quantity":10,"price_per_unit":30}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/listings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestPurchaseRejectsMalformedListingID(t *testing.T) {
	server := newTestServer()
	body := []byte(`{"quantity":1,"payment_supplied":50}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/listings/not-a-number/purchase", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "buyer-1")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestCancelByNonSellerReturnsForbidden(t *testing.T) {
	server := newTestServer()
	seedSellerInventory(t, server, "seller-1", 2, 50)
	createTestListing(t, server, "seller-1")

	req := httptest.NewRequest(http.MethodPost, "/v1/listings/1/cancel", nil)
	req.Header.Set("X-User-Id", "intruder-1")
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestGetUnknownListingReturnsNotFound(t *testing.T) {
	server := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/v1/listings/99", nil)
	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestSetListingFeeRequiresAdminIdentity(t *testing.T) {
	server := newTestServer()
	body := []byte(`{"amount":25}`)
	req := httptest.NewRequest(http.MethodPut, "/v1/policy/listing-fee", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "random-user")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestRegistryMintRequiresAdminIdentity(t *testing.T) {
	server := newTestServer()
	body := []byte(`{"contract":"0xabc","holder":"holder-1","asset_id":1,"quantity":100}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/registry/mint", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "random-user")

	rr := httptest.NewRecorder()
	server.mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", rr.Code, rr.Body.String())
	}
}
