package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"bazaar/contexts/trading/marketplace-ledger/domain/entities"
	domainerrors "bazaar/contexts/trading/marketplace-ledger/domain/errors"
	"bazaar/contexts/trading/marketplace-ledger/ports"
)

// OverpaymentPolicy decides what happens to supplied payment beyond the exact
// amount an operation requires. Refund never draws the excess from the payer;
// Forfeit draws it and routes it to the fee collector.
type OverpaymentPolicy string

const (
	OverpaymentRefund  OverpaymentPolicy = "refund"
	OverpaymentForfeit OverpaymentPolicy = "forfeit"
)

const sourceService = "marketplace-ledger"

// Service owns the listing state machine. The four mutating operations run
// under a single mutex so that no operation observes another mid-mutation;
// each either completes fully or leaves no state behind.
type Service struct {
	Repo           ports.Repository
	Registry       ports.AssetRegistry
	Payments       ports.PaymentLedger
	Fees           ports.FeePolicy
	Idempotency    ports.IdempotencyStore
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	CustodyAccount string
	FeeCollector   string
	Overpayment    OverpaymentPolicy
	IdempotencyTTL time.Duration
	Logger         *slog.Logger

	mu sync.Mutex
}

type listingCreatedPayload struct {
	ListingID     uint64 `json:"listing_id"`
	AssetContract string `json:"asset_contract"`
	AssetID       uint64 `json:"asset_id"`
	Quantity      uint64 `json:"quantity"`
	Seller        string `json:"seller"`
	PricePerUnit  uint64 `json:"price_per_unit"`
}

type listingPurchasedPayload struct {
	ListingID     uint64 `json:"listing_id"`
	AssetContract string `json:"asset_contract"`
	AssetID       uint64 `json:"asset_id"`
	Quantity      uint64 `json:"quantity"`
	Buyer         string `json:"buyer"`
	PricePerUnit  uint64 `json:"price_per_unit"`
}

type listingCanceledPayload struct {
	ListingID        uint64 `json:"listing_id"`
	AssetContract    string `json:"asset_contract"`
	AssetID          uint64 `json:"asset_id"`
	QuantityReturned uint64 `json:"quantity_returned"`
	Seller           string `json:"seller"`
	PricePerUnit     uint64 `json:"price_per_unit"`
}

func (s *Service) CreateListing(
	ctx context.Context,
	caller string,
	idempotencyKey string,
	input ports.CreateListingInput,
) (entities.Listing, bool, error) {
	caller = strings.TrimSpace(caller)
	if caller == "" {
		return entities.Listing{}, false, domainerrors.ErrUnauthorized
	}
	if input.Quantity == 0 || input.PricePerUnit == 0 || strings.TrimSpace(input.AssetContract) == "" {
		return entities.Listing{}, false, domainerrors.ErrInvalidListing
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	// Replay before any state check: a retry must return the stored outcome
	// even if the fee or the listing state moved after the first attempt.
	requestHash := hashPayload(map[string]any{
		"op":             "create_listing",
		"caller":         caller,
		"asset_contract": strings.TrimSpace(input.AssetContract),
		"asset_id":       input.AssetID,
		"quantity":       input.Quantity,
		"price_per_unit": input.PricePerUnit,
	})
	if replayed, found, err := s.replay(ctx, idempotencyKey, requestHash, now); err != nil {
		return entities.Listing{}, false, err
	} else if found {
		return replayed, true, nil
	}

	fee, err := s.Fees.GetListingFee(ctx)
	if err != nil {
		return entities.Listing{}, false, err
	}
	if input.PaymentSupplied < fee {
		return entities.Listing{}, false, domainerrors.ErrInsufficientPayment
	}

	listingID, err := s.Repo.NextListingID(ctx)
	if err != nil {
		return entities.Listing{}, false, err
	}
	listing, err := entities.NewListing(
		listingID,
		input.AssetContract,
		input.AssetID,
		input.Quantity,
		input.PricePerUnit,
		caller,
		now,
	)
	if err != nil {
		return entities.Listing{}, false, err
	}

	// Escrow first: the listing record must never exist without backing
	// custody. Later failures return the escrowed units to the seller.
	if err := s.Registry.Transfer(ctx, listing.AssetContract, caller, s.CustodyAccount, listing.AssetID, input.Quantity); err != nil {
		return entities.Listing{}, false, wrap(domainerrors.ErrTransferFailed, err)
	}

	feeDraw := fee
	if s.overpayment() == OverpaymentForfeit {
		feeDraw = input.PaymentSupplied
	}
	if feeDraw > 0 {
		if err := s.Payments.Transfer(ctx, caller, s.FeeCollector, feeDraw); err != nil {
			s.compensateCustody(ctx, listing.AssetContract, listing.AssetID, s.CustodyAccount, caller, input.Quantity, "create_listing_fee_draw")
			return entities.Listing{}, false, wrap(domainerrors.ErrPaymentFailed, err)
		}
	}

	envelope, err := s.newEnvelope(ctx, "listing.created", listing, now, listingCreatedPayload{
		ListingID:     listing.ListingID,
		AssetContract: listing.AssetContract,
		AssetID:       listing.AssetID,
		Quantity:      input.Quantity,
		Seller:        listing.Seller,
		PricePerUnit:  listing.PricePerUnit,
	})
	if err == nil {
		err = s.Repo.CreateListingWithOutbox(ctx, listing, envelope)
	}
	if err != nil {
		if feeDraw > 0 {
			s.compensatePayment(ctx, s.FeeCollector, caller, feeDraw, "create_listing_persist")
		}
		s.compensateCustody(ctx, listing.AssetContract, listing.AssetID, s.CustodyAccount, caller, input.Quantity, "create_listing_persist")
		return entities.Listing{}, false, err
	}

	if err := s.remember(ctx, idempotencyKey, requestHash, listing, now); err != nil {
		return entities.Listing{}, false, err
	}

	ResolveLogger(s.Logger).Info("listing created",
		"event", "listing_created",
		"module", "trading/marketplace-ledger",
		"layer", "application",
		"listing_id", listing.ListingID,
		"asset_contract", listing.AssetContract,
		"asset_id", listing.AssetID,
		"quantity", input.Quantity,
		"seller", listing.Seller,
		"listing_fee", fee,
	)
	return listing, false, nil
}

func (s *Service) Purchase(
	ctx context.Context,
	caller string,
	idempotencyKey string,
	input ports.PurchaseInput,
) (entities.Listing, bool, error) {
	caller = strings.TrimSpace(caller)
	if caller == "" {
		return entities.Listing{}, false, domainerrors.ErrUnauthorized
	}
	if input.Quantity == 0 {
		return entities.Listing{}, false, domainerrors.ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	// Replay before loading the listing: the first attempt may have consumed
	// the remaining inventory, so a retried purchase must short-circuit here
	// instead of failing the status or inventory checks below.
	requestHash := hashPayload(map[string]any{
		"op":         "purchase",
		"caller":     caller,
		"listing_id": input.ListingID,
		"quantity":   input.Quantity,
	})
	if replayed, found, err := s.replay(ctx, idempotencyKey, requestHash, now); err != nil {
		return entities.Listing{}, false, err
	} else if found {
		return replayed, true, nil
	}

	listing, err := s.Repo.GetListing(ctx, input.ListingID)
	if err != nil {
		return entities.Listing{}, false, err
	}
	if listing.Status != entities.ListingStatusActive {
		return entities.Listing{}, false, domainerrors.ErrListingNotActive
	}
	if input.Quantity > listing.QuantityRemaining {
		return entities.Listing{}, false, domainerrors.ErrInsufficientInventory
	}
	if input.Quantity > math.MaxUint64/listing.PricePerUnit {
		return entities.Listing{}, false, domainerrors.ErrInvalidQuantity
	}
	cost := input.Quantity * listing.PricePerUnit
	if input.PaymentSupplied < cost {
		return entities.Listing{}, false, domainerrors.ErrInsufficientPayment
	}

	if err := s.Registry.Transfer(ctx, listing.AssetContract, s.CustodyAccount, caller, listing.AssetID, input.Quantity); err != nil {
		return entities.Listing{}, false, wrap(domainerrors.ErrTransferFailed, err)
	}
	if err := s.Payments.Transfer(ctx, caller, listing.Seller, cost); err != nil {
		s.compensateCustody(ctx, listing.AssetContract, listing.AssetID, caller, s.CustodyAccount, input.Quantity, "purchase_payment")
		return entities.Listing{}, false, wrap(domainerrors.ErrPaymentFailed, err)
	}
	excess := uint64(0)
	if s.overpayment() == OverpaymentForfeit && input.PaymentSupplied > cost {
		excess = input.PaymentSupplied - cost
		if err := s.Payments.Transfer(ctx, caller, s.FeeCollector, excess); err != nil {
			s.compensatePayment(ctx, listing.Seller, caller, cost, "purchase_excess_draw")
			s.compensateCustody(ctx, listing.AssetContract, listing.AssetID, caller, s.CustodyAccount, input.Quantity, "purchase_excess_draw")
			return entities.Listing{}, false, wrap(domainerrors.ErrPaymentFailed, err)
		}
	}

	if err := listing.ApplyPurchase(input.Quantity, now); err != nil {
		// Unreachable after the checks above; keep custody and payment whole.
		s.compensatePayment(ctx, listing.Seller, caller, cost, "purchase_apply")
		s.compensateCustody(ctx, listing.AssetContract, listing.AssetID, caller, s.CustodyAccount, input.Quantity, "purchase_apply")
		return entities.Listing{}, false, err
	}

	envelope, err := s.newEnvelope(ctx, "listing.purchased", listing, now, listingPurchasedPayload{
		ListingID:     listing.ListingID,
		AssetContract: listing.AssetContract,
		AssetID:       listing.AssetID,
		Quantity:      input.Quantity,
		Buyer:         caller,
		PricePerUnit:  listing.PricePerUnit,
	})
	if err == nil {
		err = s.Repo.UpdateListingWithOutbox(ctx, listing, envelope)
	}
	if err != nil {
		if excess > 0 {
			s.compensatePayment(ctx, s.FeeCollector, caller, excess, "purchase_persist")
		}
		s.compensatePayment(ctx, listing.Seller, caller, cost, "purchase_persist")
		s.compensateCustody(ctx, listing.AssetContract, listing.AssetID, caller, s.CustodyAccount, input.Quantity, "purchase_persist")
		return entities.Listing{}, false, err
	}

	if err := s.remember(ctx, idempotencyKey, requestHash, listing, now); err != nil {
		return entities.Listing{}, false, err
	}

	ResolveLogger(s.Logger).Info("listing purchased",
		"event", "listing_purchased",
		"module", "trading/marketplace-ledger",
		"layer", "application",
		"listing_id", listing.ListingID,
		"quantity", input.Quantity,
		"buyer", caller,
		"remaining", listing.QuantityRemaining,
		"status", string(listing.Status),
	)
	return listing, false, nil
}

func (s *Service) Cancel(ctx context.Context, caller string, listingID uint64) (entities.Listing, error) {
	caller = strings.TrimSpace(caller)
	if caller == "" {
		return entities.Listing{}, domainerrors.ErrUnauthorized
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	listing, err := s.Repo.GetListing(ctx, listingID)
	if err != nil {
		return entities.Listing{}, err
	}
	if listing.Seller != caller {
		return entities.Listing{}, domainerrors.ErrUnauthorized
	}
	if listing.Status != entities.ListingStatusActive {
		return entities.Listing{}, domainerrors.ErrListingNotActive
	}

	returned := listing.QuantityRemaining
	if err := s.Registry.Transfer(ctx, listing.AssetContract, s.CustodyAccount, listing.Seller, listing.AssetID, returned); err != nil {
		return entities.Listing{}, wrap(domainerrors.ErrTransferFailed, err)
	}

	if err := listing.ApplyCancel(now); err != nil {
		s.compensateCustody(ctx, listing.AssetContract, listing.AssetID, listing.Seller, s.CustodyAccount, returned, "cancel_apply")
		return entities.Listing{}, err
	}

	envelope, err := s.newEnvelope(ctx, "listing.canceled", listing, now, listingCanceledPayload{
		ListingID:        listing.ListingID,
		AssetContract:    listing.AssetContract,
		AssetID:          listing.AssetID,
		QuantityReturned: returned,
		Seller:           listing.Seller,
		PricePerUnit:     listing.PricePerUnit,
	})
	if err == nil {
		err = s.Repo.UpdateListingWithOutbox(ctx, listing, envelope)
	}
	if err != nil {
		s.compensateCustody(ctx, listing.AssetContract, listing.AssetID, listing.Seller, s.CustodyAccount, returned, "cancel_persist")
		return entities.Listing{}, err
	}

	ResolveLogger(s.Logger).Info("listing canceled",
		"event", "listing_canceled",
		"module", "trading/marketplace-ledger",
		"layer", "application",
		"listing_id", listing.ListingID,
		"quantity_returned", returned,
		"seller", listing.Seller,
	)
	return listing, nil
}

func (s *Service) GetListing(ctx context.Context, listingID uint64) (entities.Listing, error) {
	return s.Repo.GetListing(ctx, listingID)
}

func (s *Service) ListListings(
	ctx context.Context,
	filter ports.ListingFilter,
) ([]entities.Listing, string, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	return s.Repo.ListListings(ctx, filter)
}

// replay returns the stored outcome for a previously seen idempotency key.
// An empty key opts out of replay entirely.
func (s *Service) replay(
	ctx context.Context,
	key string,
	requestHash string,
	now time.Time,
) (entities.Listing, bool, error) {
	key = strings.TrimSpace(key)
	if key == "" || s.Idempotency == nil {
		return entities.Listing{}, false, nil
	}
	record, found, err := s.Idempotency.GetRecord(ctx, key, now)
	if err != nil {
		return entities.Listing{}, false, err
	}
	if !found {
		return entities.Listing{}, false, nil
	}
	if record.RequestHash != requestHash {
		return entities.Listing{}, false, domainerrors.ErrIdempotencyConflict
	}
	var listing entities.Listing
	if err := json.Unmarshal(record.ResponsePayload, &listing); err != nil {
		return entities.Listing{}, false, err
	}
	return listing, true, nil
}

func (s *Service) remember(
	ctx context.Context,
	key string,
	requestHash string,
	listing entities.Listing,
	now time.Time,
) error {
	key = strings.TrimSpace(key)
	if key == "" || s.Idempotency == nil {
		return nil
	}
	payload, err := json.Marshal(listing)
	if err != nil {
		return err
	}
	return s.Idempotency.PutRecord(ctx, ports.IdempotencyRecord{
		Key:             key,
		RequestHash:     requestHash,
		ResponsePayload: payload,
		ExpiresAt:       now.Add(s.idempotencyTTL()),
	})
}

func (s *Service) newEnvelope(
	ctx context.Context,
	eventType string,
	listing entities.Listing,
	occurredAt time.Time,
	payload any,
) (ports.EventEnvelope, error) {
	eventID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          strings.TrimSpace(eventID),
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    sourceService,
		TraceID:          strings.TrimSpace(eventID),
		SchemaVersion:    1,
		PartitionKeyPath: "listing_id",
		PartitionKey:     formatListingID(listing.ListingID),
		Data:             data,
	}, nil
}

// compensateCustody reverses an asset transfer after a partial failure so that
// no operation leaves custody and bookkeeping inconsistent.
func (s *Service) compensateCustody(
	ctx context.Context,
	assetContract string,
	assetID uint64,
	from string,
	to string,
	quantity uint64,
	stage string,
) {
	if err := s.Registry.Transfer(ctx, assetContract, from, to, assetID, quantity); err != nil {
		ResolveLogger(s.Logger).Error("custody compensation failed",
			"event", "custody_compensation_failed",
			"module", "trading/marketplace-ledger",
			"layer", "application",
			"stage", stage,
			"asset_contract", assetContract,
			"asset_id", assetID,
			"quantity", quantity,
			"error", err.Error(),
		)
	}
}

func (s *Service) compensatePayment(ctx context.Context, from string, to string, amount uint64, stage string) {
	if err := s.Payments.Transfer(ctx, from, to, amount); err != nil {
		ResolveLogger(s.Logger).Error("payment compensation failed",
			"event", "payment_compensation_failed",
			"module", "trading/marketplace-ledger",
			"layer", "application",
			"stage", stage,
			"amount", amount,
			"error", err.Error(),
		)
	}
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now().UTC()
}

func (s *Service) idempotencyTTL() time.Duration {
	if s.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.IdempotencyTTL
}

func (s *Service) overpayment() OverpaymentPolicy {
	if s.Overpayment == OverpaymentForfeit {
		return OverpaymentForfeit
	}
	return OverpaymentRefund
}

func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

func formatListingID(listingID uint64) string {
	return "listing-" + strconv.FormatUint(listingID, 10)
}

func wrap(sentinel error, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %v", sentinel, cause)
}

func hashPayload(payload map[string]any) string {
	raw, _ := json.Marshal(payload)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
