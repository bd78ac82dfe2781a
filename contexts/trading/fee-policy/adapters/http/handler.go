package httpadapter

import (
	"context"
	"log/slog"

	"bazaar/contexts/trading/fee-policy/application"
	httptransport "bazaar/contexts/trading/fee-policy/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) SetListingFeeHandler(
	ctx context.Context,
	caller string,
	req httptransport.SetListingFeeRequest,
) (httptransport.ListingFeeResponse, error) {
	if err := h.Service.SetListingFee(ctx, caller, req.Amount); err != nil {
		return httptransport.ListingFeeResponse{}, err
	}
	return h.GetListingFeeHandler(ctx)
}

func (h Handler) GetListingFeeHandler(ctx context.Context) (httptransport.ListingFeeResponse, error) {
	fee, err := h.Service.GetListingFee(ctx)
	if err != nil {
		return httptransport.ListingFeeResponse{}, err
	}
	resp := httptransport.ListingFeeResponse{Status: "success"}
	resp.Data.ListingFee = fee
	return resp, nil
}
