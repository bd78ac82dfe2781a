package memory

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"bazaar/contexts/trading/marketplace-ledger/domain/entities"
	domainerrors "bazaar/contexts/trading/marketplace-ledger/domain/errors"
	"bazaar/contexts/trading/marketplace-ledger/ports"

	"github.com/google/uuid"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

// Store is the in-memory repository used by tests and the in-memory runtime.
// It also serves as IdempotencyStore, OutboxRepository, Clock and IDGenerator
// so a module can be wired entirely from one instance.
type Store struct {
	mu sync.RWMutex

	nextID      uint64
	listings    map[uint64]entities.Listing
	idempotency map[string]ports.IdempotencyRecord
	outbox      map[string]outboxRecord
}

type outboxRecord struct {
	Message     ports.OutboxMessage
	Status      string
	PublishedAt *time.Time
}

func NewStore() *Store {
	return &Store{
		listings:    make(map[uint64]entities.Listing),
		idempotency: make(map[string]ports.IdempotencyRecord),
		outbox:      make(map[string]outboxRecord),
	}
}

func (s *Store) NextListingID(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	return s.nextID, nil
}

func (s *Store) GetListing(_ context.Context, listingID uint64) (entities.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	listing, ok := s.listings[listingID]
	if !ok {
		return entities.Listing{}, domainerrors.ErrListingNotFound
	}
	return listing, nil
}

func (s *Store) ListListings(
	_ context.Context,
	filter ports.ListingFilter,
) ([]entities.Listing, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	items := make([]entities.Listing, 0, len(s.listings))
	for _, listing := range s.listings {
		if filter.Status != "" && listing.Status != filter.Status {
			continue
		}
		if filter.Seller != "" && listing.Seller != strings.TrimSpace(filter.Seller) {
			continue
		}
		if filter.AssetContract != "" && listing.AssetContract != strings.TrimSpace(filter.AssetContract) {
			continue
		}
		items = append(items, listing)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].ListingID < items[j].ListingID
	})

	offset := decodeCursor(filter.Cursor)
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []entities.Listing{}, "", nil
	}

	nextCursor := ""
	end := offset + limit
	if end < len(items) {
		nextCursor = encodeCursor(end)
	} else {
		end = len(items)
	}
	return append([]entities.Listing(nil), items[offset:end]...), nextCursor, nil
}

func (s *Store) CreateListingWithOutbox(
	_ context.Context,
	listing entities.Listing,
	envelope ports.EventEnvelope,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if listing.ListingID == 0 {
		return domainerrors.ErrInvalidListing
	}
	if _, exists := s.listings[listing.ListingID]; exists {
		return domainerrors.ErrInvalidListing
	}
	s.listings[listing.ListingID] = listing
	return s.appendOutboxLocked(envelope)
}

func (s *Store) UpdateListingWithOutbox(
	_ context.Context,
	listing entities.Listing,
	envelope ports.EventEnvelope,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.listings[listing.ListingID]; !exists {
		return domainerrors.ErrListingNotFound
	}
	s.listings[listing.ListingID] = listing
	return s.appendOutboxLocked(envelope)
}

func (s *Store) appendOutboxLocked(envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	s.outbox[envelope.EventID] = outboxRecord{
		Message: ports.OutboxMessage{
			OutboxID:     envelope.EventID,
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
			Payload:      payload,
			CreatedAt:    envelope.OccurredAt.UTC(),
		},
		Status: outboxStatusPending,
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0)
	for _, record := range s.outbox {
		if record.Status != outboxStatusPending {
			continue
		}
		items = append(items, record.Message)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrOutboxNotFound
	}
	published := publishedAt.UTC()
	record.Status = outboxStatusPublished
	record.PublishedAt = &published
	s.outbox[strings.TrimSpace(outboxID)] = record
	return nil
}

func (s *Store) GetRecord(
	_ context.Context,
	key string,
	now time.Time,
) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.idempotency[strings.TrimSpace(key)]
	if !ok {
		return ports.IdempotencyRecord{}, false, nil
	}
	if !record.ExpiresAt.After(now.UTC()) {
		delete(s.idempotency, strings.TrimSpace(key))
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) PutRecord(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(record.Key)
	if key == "" {
		return domainerrors.ErrIdempotencyConflict
	}
	if existing, ok := s.idempotency[key]; ok {
		if existing.RequestHash != record.RequestHash {
			return domainerrors.ErrIdempotencyConflict
		}
		if !bytes.Equal(existing.ResponsePayload, record.ResponsePayload) {
			return domainerrors.ErrIdempotencyConflict
		}
		return nil
	}
	s.idempotency[key] = record
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
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
