package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	feeerrors "bazaar/contexts/trading/fee-policy/domain/errors"
	feehttp "bazaar/contexts/trading/fee-policy/transport/http"
)

func writeFeePolicyError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, feehttp.ErrorResponse{Code: code, Message: message})
}

func writeFeePolicyDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, feeerrors.ErrUnauthorized):
		writeFeePolicyError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, feeerrors.ErrInvalidFee):
		writeFeePolicyError(w, http.StatusBadRequest, "invalid_fee", err.Error())
	default:
		writeFeePolicyError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func (s *Server) handleGetListingFee(w http.ResponseWriter, r *http.Request) {
	resp, err := s.feePolicy.Handler.GetListingFeeHandler(r.Context())
	if err != nil {
		writeFeePolicyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetListingFee(w http.ResponseWriter, r *http.Request) {
	caller := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if caller == "" {
		writeFeePolicyError(w, http.StatusUnauthorized, "missing_user", "X-User-Id header is required")
		return
	}

	var req feehttp.SetListingFeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFeePolicyError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.feePolicy.Handler.SetListingFeeHandler(r.Context(), caller, req)
	if err != nil {
		writeFeePolicyDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
