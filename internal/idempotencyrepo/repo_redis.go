// Package idempotencyrepo stores the responses of idempotent requests in redis.
package idempotencyrepo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-petr/fx-ledger/internal/domain"
	"github.com/go-petr/fx-ledger/pkg/errorspkg"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyPrefix = "idempotency:"

// ErrNotFound indicates that no record exists for the key.
var ErrNotFound = errors.New("idempotency record not found")

// RepoRedis facilitates idempotency repository layer logic.
type RepoRedis struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRepoRedis returns RepoRedis keeping records for ttl.
func NewRepoRedis(client redis.UniversalClient, ttl time.Duration) *RepoRedis {
	return &RepoRedis{
		client: client,
		ttl:    ttl,
	}
}

// Reserve marks key as pending. It reports false when the key is already taken.
func (r *RepoRedis) Reserve(ctx context.Context, key string) (bool, error) {
	l := zerolog.Ctx(ctx)

	pending, err := json.Marshal(domain.IdempotentResponse{State: domain.IdempotencyPending})
	if err != nil {
		l.Error().Err(err).Str("key", key).Msg("encode idempotency record")
		return false, errorspkg.ErrInternal
	}

	ok, err := r.client.SetNX(ctx, keyPrefix+key, pending, r.ttl).Result()
	if err != nil {
		l.Error().Err(err).Str("key", key).Msg("reserve idempotency key")
		return false, errorspkg.ErrInternal
	}

	return ok, nil
}

// Get returns the record stored for key.
func (r *RepoRedis) Get(ctx context.Context, key string) (domain.IdempotentResponse, error) {
	l := zerolog.Ctx(ctx)

	var resp domain.IdempotentResponse

	raw, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return resp, ErrNotFound
	}

	if err != nil {
		l.Error().Err(err).Str("key", key).Msg("get idempotency record")
		return resp, errorspkg.ErrInternal
	}

	if err := json.Unmarshal(raw, &resp); err != nil {
		l.Error().Err(err).Str("key", key).Msg("decode idempotency record")
		return resp, errorspkg.ErrInternal
	}

	return resp, nil
}

// Complete stores the final response for key.
func (r *RepoRedis) Complete(ctx context.Context, key string, resp domain.IdempotentResponse) error {
	l := zerolog.Ctx(ctx)

	resp.State = domain.IdempotencyCompleted

	raw, err := json.Marshal(resp)
	if err != nil {
		l.Error().Err(err).Str("key", key).Msg("encode idempotency record")
		return errorspkg.ErrInternal
	}

	if err := r.client.Set(ctx, keyPrefix+key, raw, r.ttl).Err(); err != nil {
		l.Error().Err(err).Str("key", key).Msg("complete idempotency record")
		return errorspkg.ErrInternal
	}

	return nil
}

// Release removes key so the request can be retried.
func (r *RepoRedis) Release(ctx context.Context, key string) error {
	l := zerolog.Ctx(ctx)

	if err := r.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		l.Error().Err(err).Str("key", key).Msg("release idempotency key")
		return errorspkg.ErrInternal
	}

	return nil
}
