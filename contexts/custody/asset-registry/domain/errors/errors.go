package errors

import "errors"

var (
	ErrUnauthorized        = errors.New("caller is not the registry administrator")
	ErrInvalidInput        = errors.New("asset registry input is invalid")
	ErrNotApproved         = errors.New("operator is not approved to move this holder's balance")
	ErrInsufficientBalance = errors.New("holder balance is insufficient")
)
