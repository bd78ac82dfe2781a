package errors

import "errors"

var (
	ErrUnauthorized          = errors.New("caller is not authorized for this listing operation")
	ErrInvalidListing        = errors.New("listing input is invalid")
	ErrInvalidQuantity       = errors.New("quantity must be greater than zero")
	ErrListingNotFound       = errors.New("listing not found")
	ErrListingNotActive      = errors.New("listing is not active")
	ErrInsufficientInventory = errors.New("purchase quantity exceeds remaining inventory")
	ErrInsufficientPayment   = errors.New("supplied payment is below the required amount")
	ErrTransferFailed        = errors.New("asset custody transfer was rejected")
	ErrPaymentFailed         = errors.New("payment settlement was rejected")
	ErrIdempotencyConflict   = errors.New("idempotency key already used with different payload")
	ErrOutboxNotFound        = errors.New("outbox message not found")
)
