package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SetListingFeeRequest struct {
	Amount uint64 `json:"amount"`
}

type ListingFeeResponse struct {
	Status string `json:"status"`
	Data   struct {
		ListingFee uint64 `json:"listing_fee"`
	} `json:"data"`
}
