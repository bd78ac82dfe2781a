package httpadapter

import (
	"context"
	"log/slog"

	"bazaar/contexts/custody/asset-registry/application"
	httptransport "bazaar/contexts/custody/asset-registry/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) MintHandler(
	ctx context.Context,
	caller string,
	req httptransport.MintRequest,
) (httptransport.AckResponse, error) {
	err := h.Service.Mint(ctx, caller, req.Contract, req.Holder, req.AssetID, req.Quantity, []byte(req.Data))
	if err != nil {
		return httptransport.AckResponse{}, err
	}
	return httptransport.AckResponse{Status: "success"}, nil
}

func (h Handler) SetApprovalHandler(
	ctx context.Context,
	caller string,
	req httptransport.SetApprovalRequest,
) (httptransport.AckResponse, error) {
	err := h.Service.SetOperatorApproval(ctx, req.Contract, caller, req.Operator, req.Approved)
	if err != nil {
		return httptransport.AckResponse{}, err
	}
	return httptransport.AckResponse{Status: "success"}, nil
}

func (h Handler) BalanceHandler(
	ctx context.Context,
	contract string,
	holder string,
	assetID uint64,
) (httptransport.BalanceResponse, error) {
	quantity, err := h.Service.BalanceOf(ctx, contract, holder, assetID)
	if err != nil {
		return httptransport.BalanceResponse{}, err
	}
	resp := httptransport.BalanceResponse{Status: "success"}
	resp.Data.Contract = contract
	resp.Data.Holder = holder
	resp.Data.AssetID = assetID
	resp.Data.Quantity = quantity
	return resp, nil
}
