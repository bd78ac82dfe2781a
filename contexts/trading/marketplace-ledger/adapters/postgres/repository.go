package postgresadapter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"bazaar/contexts/trading/marketplace-ledger/domain/entities"
	domainerrors "bazaar/contexts/trading/marketplace-ledger/domain/errors"
	"bazaar/contexts/trading/marketplace-ledger/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

type listingModel struct {
	ListingID         uint64 `gorm:"column:listing_id;primaryKey"`
	AssetContract     string `gorm:"column:asset_contract;index"`
	AssetID           uint64 `gorm:"column:asset_id"`
	QuantityRemaining uint64 `gorm:"column:quantity_remaining"`
	PricePerUnit      uint64 `gorm:"column:price_per_unit"`
	Seller            string `gorm:"column:seller;index"`
	Status            string `gorm:"column:status;index"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (listingModel) TableName() string { return "listings" }

type outboxModel struct {
	OutboxID     string `gorm:"column:outbox_id;primaryKey"`
	EventType    string `gorm:"column:event_type"`
	PartitionKey string `gorm:"column:partition_key"`
	Payload      []byte `gorm:"column:payload"`
	Status       string `gorm:"column:status;index"`
	CreatedAt    time.Time
	PublishedAt  *time.Time
}

func (outboxModel) TableName() string { return "listing_outbox" }

type idempotencyModel struct {
	Key             string `gorm:"column:idempotency_key;primaryKey"`
	RequestHash     string `gorm:"column:request_hash"`
	ResponsePayload []byte `gorm:"column:response_payload"`
	ExpiresAt       time.Time
}

func (idempotencyModel) TableName() string { return "listing_idempotency" }

// Models returns the gorm models this repository owns, for auto-migration.
func Models() []any {
	return []any{&listingModel{}, &outboxModel{}, &idempotencyModel{}, &listingSequenceModel{}}
}

// listingSequenceModel backs the monotonic listing id sequence. A single row
// is bumped under a row lock; ids are never reused even across cancels.
type listingSequenceModel struct {
	Name   string `gorm:"column:name;primaryKey"`
	LastID uint64 `gorm:"column:last_id"`
}

func (listingSequenceModel) TableName() string { return "listing_sequences" }

func (r *Repository) NextListingID(ctx context.Context) (uint64, error) {
	var next uint64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row listingSequenceModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("name = ?", "listings").
			First(&row).
			Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			row = listingSequenceModel{Name: "listings", LastID: 0}
			if err := tx.Create(&row).Error; err != nil && !isUniqueViolation(err) {
				return err
			}
			err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("name = ?", "listings").
				First(&row).
				Error
		}
		if err != nil {
			return err
		}
		row.LastID++
		next = row.LastID
		return tx.Model(&listingSequenceModel{}).
			Where("name = ?", "listings").
			Update("last_id", row.LastID).
			Error
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (r *Repository) GetListing(ctx context.Context, listingID uint64) (entities.Listing, error) {
	var row listingModel
	err := r.db.WithContext(ctx).
		Where("listing_id = ?", listingID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Listing{}, domainerrors.ErrListingNotFound
		}
		return entities.Listing{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListListings(
	ctx context.Context,
	filter ports.ListingFilter,
) ([]entities.Listing, string, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	tx := r.db.WithContext(ctx).Model(&listingModel{})
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}
	if strings.TrimSpace(filter.Seller) != "" {
		tx = tx.Where("seller = ?", strings.TrimSpace(filter.Seller))
	}
	if strings.TrimSpace(filter.AssetContract) != "" {
		tx = tx.Where("asset_contract = ?", strings.TrimSpace(filter.AssetContract))
	}
	tx = tx.Order("listing_id ASC")

	offset := decodeCursor(filter.Cursor)
	if offset < 0 {
		offset = 0
	}

	var rows []listingModel
	if err := tx.Offset(offset).Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > limit {
		nextCursor = encodeCursor(offset + limit)
		rows = rows[:limit]
	}

	items := make([]entities.Listing, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nextCursor, nil
}

func (r *Repository) CreateListingWithOutbox(
	ctx context.Context,
	listing entities.Listing,
	envelope ports.EventEnvelope,
) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := listingModelFromEntity(listing)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrInvalidListing
			}
			return err
		}
		return tx.Create(&outboxModel{
			OutboxID:     envelope.EventID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			Status:       outboxStatusPending,
			CreatedAt:    envelope.OccurredAt.UTC(),
		}).Error
	})
}

func (r *Repository) UpdateListingWithOutbox(
	ctx context.Context,
	listing entities.Listing,
	envelope ports.EventEnvelope,
) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := listingModelFromEntity(listing)
		result := tx.Model(&listingModel{}).
			Where("listing_id = ?", listing.ListingID).
			Updates(map[string]any{
				"quantity_remaining": row.QuantityRemaining,
				"status":             row.Status,
				"updated_at":         row.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrListingNotFound
		}
		return tx.Create(&outboxModel{
			OutboxID:     envelope.EventID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			Status:       outboxStatusPending,
			CreatedAt:    envelope.OccurredAt.UTC(),
		}).Error
	})
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      row.Payload,
			CreatedAt:    row.CreatedAt,
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	published := publishedAt.UTC()
	return r.db.WithContext(ctx).Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"status":       outboxStatusSent,
			"published_at": &published,
		}).
		Error
}

func (r *Repository) GetRecord(
	ctx context.Context,
	key string,
	now time.Time,
) (ports.IdempotencyRecord, bool, error) {
	var row idempotencyModel
	err := r.db.WithContext(ctx).
		Where("idempotency_key = ?", strings.TrimSpace(key)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.IdempotencyRecord{}, false, nil
		}
		return ports.IdempotencyRecord{}, false, err
	}
	if !row.ExpiresAt.After(now.UTC()) {
		return ports.IdempotencyRecord{}, false, nil
	}
	return ports.IdempotencyRecord{
		Key:             row.Key,
		RequestHash:     row.RequestHash,
		ResponsePayload: row.ResponsePayload,
		ExpiresAt:       row.ExpiresAt,
	}, true, nil
}

func (r *Repository) PutRecord(ctx context.Context, record ports.IdempotencyRecord) error {
	row := idempotencyModel{
		Key:             strings.TrimSpace(record.Key),
		RequestHash:     record.RequestHash,
		ResponsePayload: record.ResponsePayload,
		ExpiresAt:       record.ExpiresAt.UTC(),
	}
	err := r.db.WithContext(ctx).Create(&row).Error
	if err != nil && isUniqueViolation(err) {
		return domainerrors.ErrIdempotencyConflict
	}
	return err
}

// SystemClock and UUIDGenerator satisfy the Clock and IDGenerator ports for
// postgres-backed wiring.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func listingModelFromEntity(listing entities.Listing) listingModel {
	return listingModel{
		ListingID:         listing.ListingID,
		AssetContract:     listing.AssetContract,
		AssetID:           listing.AssetID,
		QuantityRemaining: listing.QuantityRemaining,
		PricePerUnit:      listing.PricePerUnit,
		Seller:            listing.Seller,
		Status:            string(listing.Status),
		CreatedAt:         listing.CreatedAt.UTC(),
		UpdatedAt:         listing.UpdatedAt.UTC(),
	}
}

func (m listingModel) toEntity() entities.Listing {
	return entities.Listing{
		ListingID:         m.ListingID,
		AssetContract:     m.AssetContract,
		AssetID:           m.AssetID,
		QuantityRemaining: m.QuantityRemaining,
		PricePerUnit:      m.PricePerUnit,
		Seller:            m.Seller,
		Status:            entities.ListingStatus(m.Status),
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func encodeCursor(offset int) string {
	return base64.StdEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

func decodeCursor(cursor string) int {
	if strings.TrimSpace(cursor) == "" {
		return 0
	}
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return 0
	}
	offset, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0
	}
	return offset
}
