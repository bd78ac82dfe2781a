package entities

import (
	"strings"
	"time"

	domainerrors "bazaar/contexts/trading/marketplace-ledger/domain/errors"
)

type ListingStatus string

const (
	ListingStatusActive   ListingStatus = "active"
	ListingStatusCanceled ListingStatus = "canceled"
	ListingStatusSoldOut  ListingStatus = "sold_out"
)

// Listing is a seller's offer of a fixed quantity of one asset class at a
// fixed per-unit price. PricePerUnit and Seller never change after creation;
// QuantityRemaining only moves down. Ids are never reused, so terminal
// listings stay queryable as historical records.
type Listing struct {
	ListingID         uint64
	AssetContract     string
	AssetID           uint64
	QuantityRemaining uint64
	PricePerUnit      uint64
	Seller            string
	Status            ListingStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func NewListing(
	listingID uint64,
	assetContract string,
	assetID uint64,
	quantity uint64,
	pricePerUnit uint64,
	seller string,
	createdAt time.Time,
) (Listing, error) {
	if listingID == 0 ||
		strings.TrimSpace(assetContract) == "" ||
		strings.TrimSpace(seller) == "" {
		return Listing{}, domainerrors.ErrInvalidListing
	}
	if quantity == 0 || pricePerUnit == 0 {
		return Listing{}, domainerrors.ErrInvalidListing
	}

	return Listing{
		ListingID:         listingID,
		AssetContract:     strings.TrimSpace(assetContract),
		AssetID:           assetID,
		QuantityRemaining: quantity,
		PricePerUnit:      pricePerUnit,
		Seller:            strings.TrimSpace(seller),
		Status:            ListingStatusActive,
		CreatedAt:         createdAt.UTC(),
		UpdatedAt:         createdAt.UTC(),
	}, nil
}

// ApplyPurchase consumes quantity units of remaining inventory and flips the
// listing to sold_out when it reaches zero. The caller has already settled
// custody and payment; this only moves bookkeeping state.
func (l *Listing) ApplyPurchase(quantity uint64, now time.Time) error {
	if l.Status != ListingStatusActive {
		return domainerrors.ErrListingNotActive
	}
	if quantity == 0 {
		return domainerrors.ErrInvalidQuantity
	}
	if quantity > l.QuantityRemaining {
		return domainerrors.ErrInsufficientInventory
	}

	l.QuantityRemaining -= quantity
	if l.QuantityRemaining == 0 {
		l.Status = ListingStatusSoldOut
	}
	l.UpdatedAt = now.UTC()
	return nil
}

// ApplyCancel zeroes remaining inventory and terminates the listing. Seller
// authorization is checked by the application layer.
func (l *Listing) ApplyCancel(now time.Time) error {
	if l.Status != ListingStatusActive {
		return domainerrors.ErrListingNotActive
	}
	l.QuantityRemaining = 0
	l.Status = ListingStatusCanceled
	l.UpdatedAt = now.UTC()
	return nil
}

func (l Listing) IsTerminal() bool {
	return l.Status == ListingStatusCanceled || l.Status == ListingStatusSoldOut
}
