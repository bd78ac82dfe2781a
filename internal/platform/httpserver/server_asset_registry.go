package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	registryerrors "bazaar/contexts/custody/asset-registry/domain/errors"
	registryhttp "bazaar/contexts/custody/asset-registry/transport/http"
)

func writeRegistryError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, registryhttp.ErrorResponse{Code: code, Message: message})
}

func writeRegistryDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registryerrors.ErrUnauthorized):
		writeRegistryError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, registryerrors.ErrNotApproved):
		writeRegistryError(w, http.StatusForbidden, "operator_not_approved", err.Error())
	case errors.Is(err, registryerrors.ErrInvalidInput):
		writeRegistryError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, registryerrors.ErrInsufficientBalance):
		writeRegistryError(w, http.StatusConflict, "insufficient_balance", err.Error())
	default:
		writeRegistryError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func requireRegistryUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if userID == "" {
		writeRegistryError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return "", false
	}
	return userID, true
}

func (s *Server) handleRegistryMint(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireRegistryUser(w, r)
	if !ok {
		return
	}

	var req registryhttp.MintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.registry.Handler.MintHandler(r.Context(), caller, req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleRegistrySetApproval(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireRegistryUser(w, r)
	if !ok {
		return
	}

	var req registryhttp.SetApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.registry.Handler.SetApprovalHandler(r.Context(), caller, req)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegistryBalance(w http.ResponseWriter, r *http.Request) {
	contract := r.PathValue("contract")
	holder := r.PathValue("holder")
	assetID, err := strconv.ParseUint(r.PathValue("asset_id"), 10, 64)
	if err != nil {
		writeRegistryError(w, http.StatusBadRequest, "invalid_asset_id", "asset_id must be an unsigned integer")
		return
	}

	resp, err := s.registry.Handler.BalanceHandler(r.Context(), contract, holder, assetID)
	if err != nil {
		writeRegistryDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
