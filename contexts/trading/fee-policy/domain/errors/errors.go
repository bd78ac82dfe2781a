package errors

import "errors"

var (
	ErrUnauthorized = errors.New("caller is not the marketplace administrator")
	ErrInvalidFee   = errors.New("listing fee input is invalid")
)
