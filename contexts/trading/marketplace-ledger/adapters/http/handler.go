package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"bazaar/contexts/trading/marketplace-ledger/application"
	"bazaar/contexts/trading/marketplace-ledger/domain/entities"
	"bazaar/contexts/trading/marketplace-ledger/ports"
	httptransport "bazaar/contexts/trading/marketplace-ledger/transport/http"
)

type Handler struct {
	Service *application.Service
	Logger  *slog.Logger
}

func (h Handler) CreateListingHandler(
	ctx context.Context,
	caller string,
	idempotencyKey string,
	req httptransport.CreateListingRequest,
) (httptransport.ListingResponse, error) {
	listing, replayed, err := h.Service.CreateListing(ctx, caller, idempotencyKey, ports.CreateListingInput{
		AssetContract:   req.AssetContract,
		AssetID:         req.AssetID,
		Quantity:        req.Quantity,
		PricePerUnit:    req.PricePerUnit,
		PaymentSupplied: req.PaymentSupplied,
	})
	if err != nil {
		return httptransport.ListingResponse{}, err
	}
	return httptransport.ListingResponse{
		Status:   "success",
		Replayed: replayed,
		Data:     toDTO(listing),
	}, nil
}

func (h Handler) PurchaseHandler(
	ctx context.Context,
	caller string,
	listingID uint64,
	idempotencyKey string,
	req httptransport.PurchaseRequest,
) (httptransport.ListingResponse, error) {
	listing, replayed, err := h.Service.Purchase(ctx, caller, idempotencyKey, ports.PurchaseInput{
		ListingID:       listingID,
		Quantity:        req.Quantity,
		PaymentSupplied: req.PaymentSupplied,
	})
	if err != nil {
		return httptransport.ListingResponse{}, err
	}
	return httptransport.ListingResponse{
		Status:   "success",
		Replayed: replayed,
		Data:     toDTO(listing),
	}, nil
}

func (h Handler) CancelHandler(
	ctx context.Context,
	caller string,
	listingID uint64,
) (httptransport.ListingResponse, error) {
	listing, err := h.Service.Cancel(ctx, caller, listingID)
	if err != nil {
		return httptransport.ListingResponse{}, err
	}
	return httptransport.ListingResponse{
		Status: "success",
		Data:   toDTO(listing),
	}, nil
}

func (h Handler) GetListingHandler(
	ctx context.Context,
	listingID uint64,
) (httptransport.ListingResponse, error) {
	listing, err := h.Service.GetListing(ctx, listingID)
	if err != nil {
		return httptransport.ListingResponse{}, err
	}
	return httptransport.ListingResponse{
		Status: "success",
		Data:   toDTO(listing),
	}, nil
}

func (h Handler) ListListingsHandler(
	ctx context.Context,
	req httptransport.ListListingsRequest,
) (httptransport.ListListingsResponse, error) {
	items, nextCursor, err := h.Service.ListListings(ctx, ports.ListingFilter{
		Status:        entities.ListingStatus(req.Status),
		Seller:        req.Seller,
		AssetContract: req.AssetContract,
		Limit:         req.Limit,
		Cursor:        req.Cursor,
	})
	if err != nil {
		return httptransport.ListListingsResponse{}, err
	}
	resp := httptransport.ListListingsResponse{
		Status:     "success",
		Data:       make([]httptransport.ListingDTO, 0, len(items)),
		NextCursor: nextCursor,
	}
	for _, item := range items {
		resp.Data = append(resp.Data, toDTO(item))
	}
	return resp, nil
}

func toDTO(listing entities.Listing) httptransport.ListingDTO {
	return httptransport.ListingDTO{
		ListingID:         listing.ListingID,
		AssetContract:     listing.AssetContract,
		AssetID:           listing.AssetID,
		QuantityRemaining: listing.QuantityRemaining,
		PricePerUnit:      listing.PricePerUnit,
		Seller:            listing.Seller,
		Status:            string(listing.Status),
		CreatedAt:         listing.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:         listing.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
