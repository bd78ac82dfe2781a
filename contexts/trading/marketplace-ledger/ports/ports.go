package ports

import (
	"context"
	"time"

	"bazaar/contexts/trading/marketplace-ledger/domain/entities"
	contractsv1 "bazaar/contracts/gen/events/v1"
)

type CreateListingInput struct {
	AssetContract   string
	AssetID         uint64
	Quantity        uint64
	PricePerUnit    uint64
	PaymentSupplied uint64
}

type PurchaseInput struct {
	ListingID       uint64
	Quantity        uint64
	PaymentSupplied uint64
}

type ListingFilter struct {
	Status        entities.ListingStatus
	Seller        string
	AssetContract string
	Limit         int
	Cursor        string
}

type Repository interface {
	NextListingID(ctx context.Context) (uint64, error)
	GetListing(ctx context.Context, listingID uint64) (entities.Listing, error)
	ListListings(ctx context.Context, filter ListingFilter) ([]entities.Listing, string, error)
	CreateListingWithOutbox(ctx context.Context, listing entities.Listing, envelope EventEnvelope) error
	UpdateListingWithOutbox(ctx context.Context, listing entities.Listing, envelope EventEnvelope) error
}

// AssetRegistry is the custody capability consumed by the ledger. Escrow and
// disbursement both funnel through Transfer; implementations must be
// synchronous and must not call back into the ledger.
type AssetRegistry interface {
	BalanceOf(ctx context.Context, assetContract string, holder string, assetID uint64) (uint64, error)
	Transfer(ctx context.Context, assetContract string, from string, to string, assetID uint64, quantity uint64) error
}

// PaymentLedger is the value-settlement capability. Amounts are in the
// payment currency's base unit.
type PaymentLedger interface {
	BalanceOf(ctx context.Context, account string) (uint64, error)
	Transfer(ctx context.Context, from string, to string, amount uint64) error
}

// FeePolicy exposes the current listing fee as of the start of an operation.
type FeePolicy interface {
	GetListingFee(ctx context.Context) (uint64, error)
}

type IdempotencyRecord struct {
	Key             string
	RequestHash     string
	ResponsePayload []byte
	ExpiresAt       time.Time
}

type IdempotencyStore interface {
	GetRecord(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	PutRecord(ctx context.Context, record IdempotencyRecord) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
