// Package redisstore keeps balances in Redis hashes. Debits run as a Lua
// script, so the compare and the decrement are one server-side step.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/baharkarakas/copywriter-backend/internal/models"
	repo "github.com/baharkarakas/copywriter-backend/internal/repository"
	"github.com/redis/go-redis/v9"
)

const (
	fieldTokens  = "tokens"
	fieldTier    = "tier"
	fieldUpdated = "updated"
)

// KEYS[1] balance hash; ARGV[1] amount; ARGV[2] timestamp.
// Returns {status, balance}: status -1 missing, 0 insufficient, 1 debited.
var debitScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'tokens')
if not cur then return {-1, 0} end
cur = tonumber(cur)
local amt = tonumber(ARGV[1])
if cur < amt then return {0, cur} end
local left = redis.call('HINCRBY', KEYS[1], 'tokens', -amt)
redis.call('HSET', KEYS[1], 'updated', ARGV[2])
return {1, left}
`)

var creditScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then return -1 end
redis.call('HSET', KEYS[1], 'updated', ARGV[2])
return redis.call('HINCRBY', KEYS[1], 'tokens', ARGV[1])
`)

type BalancesRepo struct {
	rdb     redis.UniversalClient
	prefix  string
	initial int64
}

func NewBalances(rdb redis.UniversalClient, signupTokens int64) *BalancesRepo {
	return &BalancesRepo{rdb: rdb, prefix: "balance:", initial: signupTokens}
}

func (r *BalancesRepo) key(userID string) string { return r.prefix + userID }

func (r *BalancesRepo) GetOrCreate(ctx context.Context, userID string) (models.Balance, error) {
	k := r.key(userID)
	now := strconv.FormatInt(time.Now().UTC().UnixMilli(), 10)
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSetNX(ctx, k, fieldTokens, r.initial)
		p.HSetNX(ctx, k, fieldTier, models.DefaultTier)
		p.HSetNX(ctx, k, fieldUpdated, now)
		return nil
	})
	if err != nil {
		return models.Balance{}, err
	}
	return r.Get(ctx, userID)
}

func (r *BalancesRepo) Get(ctx context.Context, userID string) (models.Balance, error) {
	m, err := r.rdb.HGetAll(ctx, r.key(userID)).Result()
	if err != nil {
		return models.Balance{}, err
	}
	if len(m) == 0 {
		return models.Balance{}, repo.ErrNotFound
	}
	tokens, err := strconv.ParseInt(m[fieldTokens], 10, 64)
	if err != nil {
		return models.Balance{}, fmt.Errorf("balance %s: bad tokens field: %w", userID, err)
	}
	b := models.Balance{UserID: userID, TokensRemaining: tokens, SubscriptionTier: m[fieldTier]}
	if ms, err := strconv.ParseInt(m[fieldUpdated], 10, 64); err == nil {
		b.LastUpdatedAt = time.UnixMilli(ms).UTC()
	}
	return b, nil
}

func (r *BalancesRepo) Debit(ctx context.Context, userID string, amount int64) (models.DebitResult, error) {
	now := time.Now().UTC().UnixMilli()
	res, err := debitScript.Run(ctx, r.rdb, []string{r.key(userID)}, amount, now).Int64Slice()
	if err != nil {
		return models.DebitResult{}, err
	}
	if len(res) != 2 {
		return models.DebitResult{}, errors.New("redisstore: unexpected debit reply")
	}
	switch res[0] {
	case -1:
		return models.DebitResult{}, repo.ErrNotFound
	case 0:
		return models.DebitResult{OK: false, Balance: res[1]}, nil
	default:
		return models.DebitResult{OK: true, Balance: res[1]}, nil
	}
}

func (r *BalancesRepo) Credit(ctx context.Context, userID string, amount int64) (models.Balance, error) {
	now := time.Now().UTC().UnixMilli()
	n, err := creditScript.Run(ctx, r.rdb, []string{r.key(userID)}, amount, now).Int64()
	if err != nil {
		return models.Balance{}, err
	}
	if n < 0 {
		return models.Balance{}, repo.ErrNotFound
	}
	return r.Get(ctx, userID)
}
