// Package redisadapter implements the ledger IdempotencyStore on go-redis/v9
// so that replay survives process restarts and is shared across API replicas.
package redisadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	domainerrors "bazaar/contexts/trading/marketplace-ledger/domain/errors"
	"bazaar/contexts/trading/marketplace-ledger/ports"

	"github.com/redis/go-redis/v9"
)

type IdempotencyStore struct {
	rdb *redis.Client
}

type storedRecord struct {
	RequestHash     string          `json:"request_hash"`
	ResponsePayload json.RawMessage `json:"response_payload"`
	ExpiresAt       time.Time       `json:"expires_at"`
}

func NewIdempotencyStore(ctx context.Context, addr string, password string, db int) (*IdempotencyStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return &IdempotencyStore{rdb: rdb}, nil
}

func (s *IdempotencyStore) Close() error {
	return s.rdb.Close()
}

func recordKey(key string) string {
	return "ledger:idem:" + strings.TrimSpace(key)
}

func (s *IdempotencyStore) GetRecord(
	ctx context.Context,
	key string,
	now time.Time,
) (ports.IdempotencyRecord, bool, error) {
	raw, err := s.rdb.Get(ctx, recordKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ports.IdempotencyRecord{}, false, nil
	}
	if err != nil {
		return ports.IdempotencyRecord{}, false, fmt.Errorf("redis: get idempotency record: %w", err)
	}

	var stored storedRecord
	if err := json.Unmarshal(raw, &stored); err != nil {
		return ports.IdempotencyRecord{}, false, err
	}
	if !stored.ExpiresAt.After(now.UTC()) {
		return ports.IdempotencyRecord{}, false, nil
	}
	return ports.IdempotencyRecord{
		Key:             strings.TrimSpace(key),
		RequestHash:     stored.RequestHash,
		ResponsePayload: stored.ResponsePayload,
		ExpiresAt:       stored.ExpiresAt,
	}, true, nil
}

func (s *IdempotencyStore) PutRecord(ctx context.Context, record ports.IdempotencyRecord) error {
	key := strings.TrimSpace(record.Key)
	if key == "" {
		return domainerrors.ErrIdempotencyConflict
	}
	payload, err := json.Marshal(storedRecord{
		RequestHash:     record.RequestHash,
		ResponsePayload: record.ResponsePayload,
		ExpiresAt:       record.ExpiresAt.UTC(),
	})
	if err != nil {
		return err
	}

	ttl := time.Until(record.ExpiresAt.UTC())
	if ttl <= 0 {
		return nil
	}
	ok, err := s.rdb.SetNX(ctx, recordKey(key), payload, ttl).Result()
	if err != nil {
		return fmt.Errorf("redis: put idempotency record: %w", err)
	}
	if !ok {
		// A record already exists; conflicting payloads surface on replay.
		existing, found, err := s.GetRecord(ctx, key, time.Now())
		if err != nil {
			return err
		}
		if found && existing.RequestHash != record.RequestHash {
			return domainerrors.ErrIdempotencyConflict
		}
	}
	return nil
}
