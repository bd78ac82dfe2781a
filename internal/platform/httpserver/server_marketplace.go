package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	ledgererrors "bazaar/contexts/trading/marketplace-ledger/domain/errors"
	ledgerhttp "bazaar/contexts/trading/marketplace-ledger/transport/http"
)

func writeLedgerError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ledgerhttp.ErrorResponse{Code: code, Message: message})
}

func writeLedgerDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledgererrors.ErrListingNotFound):
		writeLedgerError(w, http.StatusNotFound, "listing_not_found", err.Error())
	case errors.Is(err, ledgererrors.ErrListingNotActive):
		writeLedgerError(w, http.StatusGone, "listing_not_active", err.Error())
	case errors.Is(err, ledgererrors.ErrInvalidListing),
		errors.Is(err, ledgererrors.ErrInvalidQuantity):
		writeLedgerError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, ledgererrors.ErrInsufficientInventory):
		writeLedgerError(w, http.StatusConflict, "insufficient_inventory", err.Error())
	case errors.Is(err, ledgererrors.ErrInsufficientPayment):
		writeLedgerError(w, http.StatusPaymentRequired, "insufficient_payment", err.Error())
	case errors.Is(err, ledgererrors.ErrIdempotencyConflict):
		writeLedgerError(w, http.StatusConflict, "idempotency_conflict", err.Error())
	case errors.Is(err, ledgererrors.ErrUnauthorized):
		writeLedgerError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, ledgererrors.ErrTransferFailed),
		errors.Is(err, ledgererrors.ErrPaymentFailed):
		writeLedgerError(w, http.StatusFailedDependency, "dependency_failed", err.Error())
	default:
		writeLedgerError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func requireMarketUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", false
	}
	return userID, true
}

func parseListingID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	raw := r.PathValue("listing_id")
	listingID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || listingID == 0 {
		writeLedgerError(w, http.StatusBadRequest, "invalid_listing_id", "listing_id must be a positive integer")
		return 0, false
	}
	return listingID, true
}

func (s *Server) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireMarketUser(w, r)
	if !ok {
		return
	}

	var req ledgerhttp.CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.marketplace.Handler.CreateListingHandler(
		r.Context(),
		caller,
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handlePurchaseListing(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireMarketUser(w, r)
	if !ok {
		return
	}
	listingID, ok := parseListingID(w, r)
	if !ok {
		return
	}

	var req ledgerhttp.PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.marketplace.Handler.PurchaseHandler(
		r.Context(),
		caller,
		listingID,
		r.Header.Get("Idempotency-Key"),
		req,
	)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelListing(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireMarketUser(w, r)
	if !ok {
		return
	}
	listingID, ok := parseListingID(w, r)
	if !ok {
		return
	}

	resp, err := s.marketplace.Handler.CancelHandler(r.Context(), caller, listingID)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	listingID, ok := parseListingID(w, r)
	if !ok {
		return
	}

	resp, err := s.marketplace.Handler.GetListingHandler(r.Context(), listingID)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListListings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := ledgerhttp.ListListingsRequest{
		Status:        query.Get("status"),
		Seller:        query.Get("seller"),
		AssetContract: query.Get("asset_contract"),
		Cursor:        query.Get("cursor"),
	}

	if limitRaw := query.Get("limit"); limitRaw != "" {
		limit, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeLedgerError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		req.Limit = limit
	}

	resp, err := s.marketplace.Handler.ListListingsHandler(r.Context(), req)
	if err != nil {
		writeLedgerDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
