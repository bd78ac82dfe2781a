package memory

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"bazaar/contexts/trading/marketplace-ledger/domain/entities"
	domainerrors "bazaar/contexts/trading/marketplace-ledger/domain/errors"
	"bazaar/contexts/trading/marketplace-ledger/ports"
)

func seedListing(t *testing.T, store *Store, seller string, status entities.ListingStatus) entities.Listing {
	t.Helper()
	ctx := context.Background()

	id, err := store.NextListingID(ctx)
	if err != nil {
		t.Fatalf("next listing id failed: %v", err)
	}
	listing, err := entities.NewListing(id, "0xabc", 1, 10, 30, seller, time.Now())
	if err != nil {
		t.Fatalf("new listing failed: %v", err)
	}
	listing.Status = status
	envelope := ports.EventEnvelope{
		EventID:    "evt-" + strconv.FormatUint(id, 10),
		EventType:  "listing.created",
		OccurredAt: time.Now().UTC(),
	}
	if err := store.CreateListingWithOutbox(ctx, listing, envelope); err != nil {
		t.Fatalf("create listing failed: %v", err)
	}
	return listing
}

func TestNextListingIDIsMonotonic(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	for want := uint64(1); want <= 5; want++ {
		got, err := store.NextListingID(ctx)
		if err != nil {
			t.Fatalf("next listing id failed: %v", err)
		}
		if got != want {
			t.Fatalf("expected id %d, got %d", want, got)
		}
	}
}

func TestGetListingNotFound(t *testing.T) {
	store := NewStore()
	_, err := store.GetListing(context.Background(), 42)
	if !errors.Is(err, domainerrors.ErrListingNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListListingsFiltersAndPaginates(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	seedListing(t, store, "seller-1", entities.ListingStatusActive)
	seedListing(t, store, "seller-2", entities.ListingStatusActive)
	seedListing(t, store, "seller-1", entities.ListingStatusCanceled)

	active, _, err := store.ListListings(ctx, ports.ListingFilter{Status: entities.ListingStatusActive})
	if err != nil {
		t.Fatalf("list active failed: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active listings, got %d", len(active))
	}

	bySeller, _, err := store.ListListings(ctx, ports.ListingFilter{Seller: "seller-1"})
	if err != nil {
		t.Fatalf("list by seller failed: %v", err)
	}
	if len(bySeller) != 2 {
		t.Fatalf("expected 2 listings for seller-1, got %d", len(bySeller))
	}

	firstPage, cursor, err := store.ListListings(ctx, ports.ListingFilter{Limit: 2})
	if err != nil {
		t.Fatalf("first page failed: %v", err)
	}
	if len(firstPage) != 2 || cursor == "" {
		t.Fatalf("expected full first page with cursor, got %d items cursor=%q", len(firstPage), cursor)
	}
	secondPage, next, err := store.ListListings(ctx, ports.ListingFilter{Limit: 2, Cursor: cursor})
	if err != nil {
		t.Fatalf("second page failed: %v", err)
	}
	if len(secondPage) != 1 || next != "" {
		t.Fatalf("expected final page of 1, got %d items cursor=%q", len(secondPage), next)
	}
	if secondPage[0].ListingID != 3 {
		t.Fatalf("expected listing 3 on second page, got %d", secondPage[0].ListingID)
	}
}

func TestOutboxPendingAndPublish(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	seedListing(t, store, "seller-1", entities.ListingStatusActive)
	seedListing(t, store, "seller-2", entities.ListingStatusActive)

	pending, err := store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending messages, got %d", len(pending))
	}

	if err := store.MarkOutboxPublished(ctx, pending[0].OutboxID, time.Now()); err != nil {
		t.Fatalf("mark published failed: %v", err)
	}
	remaining, err := store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list remaining failed: %v", err)
	}
	if len(remaining) != 1 {
		t.Fatalf("expected 1 pending message after publish, got %d", len(remaining))
	}
	if remaining[0].OutboxID == pending[0].OutboxID {
		t.Fatalf("published message still listed as pending")
	}

	if err := store.MarkOutboxPublished(ctx, "no-such-outbox-id", time.Now()); !errors.Is(err, domainerrors.ErrOutboxNotFound) {
		t.Fatalf("expected outbox not found, got %v", err)
	}
}

func TestIdempotencyRecordExpiryAndConflict(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	now := time.Now().UTC()

	record := ports.IdempotencyRecord{
		Key:             "idem-1",
		RequestHash:     "hash-1",
		ResponsePayload: []byte(`{"listing_id":1}`),
		ExpiresAt:       now.Add(time.Hour),
	}
	if err := store.PutRecord(ctx, record); err != nil {
		t.Fatalf("put record failed: %v", err)
	}

	got, found, err := store.GetRecord(ctx, "idem-1", now)
	if err != nil || !found {
		t.Fatalf("expected stored record, found=%v err=%v", found, err)
	}
	if got.RequestHash != "hash-1" {
		t.Fatalf("unexpected request hash %s", got.RequestHash)
	}

	conflicting := record
	conflicting.RequestHash = "hash-2"
	if err := store.PutRecord(ctx, conflicting); !errors.Is(err, domainerrors.ErrIdempotencyConflict) {
		t.Fatalf("expected idempotency conflict, got %v", err)
	}

	_, found, err = store.GetRecord(ctx, "idem-1", now.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("get after expiry failed: %v", err)
	}
	if found {
		t.Fatalf("expected expired record to be dropped")
	}
}
