package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateListingRequest struct {
	AssetContract   string `json:"asset_contract"`
	AssetID         uint64 `json:"asset_id"`
	Quantity        uint64 `json:"quantity"`
	PricePerUnit    uint64 `json:"price_per_unit"`
	PaymentSupplied uint64 `json:"payment_supplied"`
}

type PurchaseRequest struct {
	Quantity        uint64 `json:"quantity"`
	PaymentSupplied uint64 `json:"payment_supplied"`
}

type ListingDTO struct {
	ListingID         uint64 `json:"listing_id"`
	AssetContract     string `json:"asset_contract"`
	AssetID           uint64 `json:"asset_id"`
	QuantityRemaining uint64 `json:"quantity_remaining"`
	PricePerUnit      uint64 `json:"price_per_unit"`
	Seller            string `json:"seller"`
	Status            string `json:"status"`
	CreatedAt         string `json:"created_at"`
	UpdatedAt         string `json:"updated_at"`
}

type ListingResponse struct {
	Status   string     `json:"status"`
	Replayed bool       `json:"replayed,omitempty"`
	Data     ListingDTO `json:"data"`
}

type ListListingsRequest struct {
	Status        string
	Seller        string
	AssetContract string
	Limit         int
	Cursor        string
}

type ListListingsResponse struct {
	Status     string       `json:"status"`
	Data       []ListingDTO `json:"data"`
	NextCursor string       `json:"next_cursor,omitempty"`
}
