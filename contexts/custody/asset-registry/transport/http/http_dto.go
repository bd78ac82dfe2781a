package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type MintRequest struct {
	Contract string `json:"contract"`
	Holder   string `json:"holder"`
	AssetID  uint64 `json:"asset_id"`
	Quantity uint64 `json:"quantity"`
	Data     string `json:"data,omitempty"`
}

type SetApprovalRequest struct {
	Contract string `json:"contract"`
	Operator string `json:"operator"`
	Approved bool   `json:"approved"`
}

type BalanceResponse struct {
	Status string `json:"status"`
	Data   struct {
		Contract string `json:"contract"`
		Holder   string `json:"holder"`
		AssetID  uint64 `json:"asset_id"`
		Quantity uint64 `json:"quantity"`
	} `json:"data"`
}

type AckResponse struct {
	Status string `json:"status"`
}
