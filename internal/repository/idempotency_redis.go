package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const idempotencyPrefix = "idempotency:v1:"

// releaseScript deletes a reservation only while it is still pending, so a
// completed response stored under the same key survives.
var releaseScript = redis.NewScript(`
local raw = redis.call("GET", KEYS[1])
if not raw then
	return 0
end
local entry = cjson.decode(raw)
if entry.status_code == nil or entry.status_code == 0 then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisIdempotencyStore keeps idempotent responses in Redis. Expiry is left
// to key TTLs, so it needs no janitor.
type RedisIdempotencyStore struct {
	client *redis.Client
}

func NewRedisIdempotencyStore(client *redis.Client) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client}
}

type redisEntry struct {
	RequestHash  string    `json:"request_hash"`
	StatusCode   int       `json:"status_code"`
	ResponseBody []byte    `json:"response_body"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func redisKey(key string, userID uuid.UUID) string {
	return idempotencyPrefix + userID.String() + ":" + key
}

func (s *RedisIdempotencyStore) Get(ctx context.Context, key string, userID uuid.UUID) (*IdempotencyCacheEntry, error) {
	raw, err := s.client.Get(ctx, redisKey(key, userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}

	var stored redisEntry
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("Get: decode: %w", err)
	}
	return &IdempotencyCacheEntry{
		Key:          key,
		UserID:       userID,
		RequestHash:  stored.RequestHash,
		StatusCode:   stored.StatusCode,
		ResponseBody: stored.ResponseBody,
		CreatedAt:    stored.CreatedAt,
		ExpiresAt:    stored.ExpiresAt,
	}, nil
}

func (s *RedisIdempotencyStore) Reserve(ctx context.Context, entry *IdempotencyCacheEntry) (bool, error) {
	pending := *entry
	pending.StatusCode = 0
	pending.ResponseBody = nil

	payload, ttl, err := encodeEntry(&pending)
	if err != nil {
		return false, fmt.Errorf("Reserve: %w", err)
	}
	ok, err := s.client.SetNX(ctx, redisKey(entry.Key, entry.UserID), payload, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("Reserve: %w", err)
	}
	return ok, nil
}

func (s *RedisIdempotencyStore) Set(ctx context.Context, entry *IdempotencyCacheEntry) error {
	payload, ttl, err := encodeEntry(entry)
	if err != nil {
		return fmt.Errorf("Set: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(entry.Key, entry.UserID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("Set: %w", err)
	}
	return nil
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, key string, userID uuid.UUID) error {
	if err := releaseScript.Run(ctx, s.client, []string{redisKey(key, userID)}).Err(); err != nil {
		return fmt.Errorf("Release: %w", err)
	}
	return nil
}

func encodeEntry(e *IdempotencyCacheEntry) ([]byte, time.Duration, error) {
	ttl := time.Until(e.ExpiresAt)
	if ttl <= 0 {
		return nil, 0, fmt.Errorf("entry for %q already expired", e.Key)
	}
	payload, err := json.Marshal(redisEntry{
		RequestHash:  e.RequestHash,
		StatusCode:   e.StatusCode,
		ResponseBody: e.ResponseBody,
		CreatedAt:    e.CreatedAt,
		ExpiresAt:    e.ExpiresAt,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("encode: %w", err)
	}
	return payload, ttl, nil
}
