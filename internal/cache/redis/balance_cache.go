package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arisanhub/arisand/internal/domain"
	"github.com/redis/go-redis/v9"
)

// BalanceCache implements domain.BalanceCache. Balances are display strings
// keyed by normalized wallet address.
//
// Key schema:
//
//	balance:{wallet} - string value of the formatted token balance
type BalanceCache struct {
	rdb *redis.Client
}

// NewBalanceCache creates a BalanceCache backed by the given Client.
func NewBalanceCache(c *Client) *BalanceCache {
	return &BalanceCache{rdb: c.Underlying()}
}

func balanceKey(wallet string) string {
	return "balance:" + domain.NormalizeAddress(wallet)
}

// Set stores a wallet's balance with the given TTL.
func (bc *BalanceCache) Set(ctx context.Context, wallet, balance string, ttl time.Duration) error {
	if err := bc.rdb.Set(ctx, balanceKey(wallet), balance, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set balance %s: %w", wallet, err)
	}
	return nil
}

// Get retrieves a wallet's cached balance. It returns domain.ErrNotFound when
// the key does not exist.
func (bc *BalanceCache) Get(ctx context.Context, wallet string) (string, error) {
	balance, err := bc.rdb.Get(ctx, balanceKey(wallet)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("redis: get balance %s: %w", wallet, err)
	}
	return balance, nil
}

// Compile-time interface check.
var _ domain.BalanceCache = (*BalanceCache)(nil)
