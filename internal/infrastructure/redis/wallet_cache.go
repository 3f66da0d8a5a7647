package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

const (
	walletPrefix     = "market:wallet:"
	DefaultWalletTTL = 30 * time.Second
)

// WalletCache keeps computed seller balances for a short TTL.
type WalletCache struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewWalletCache(client *goredis.Client, ttl time.Duration) *WalletCache {
	if ttl <= 0 {
		ttl = DefaultWalletTTL
	}
	return &WalletCache{client: client, ttl: ttl}
}

func (c *WalletCache) Get(ctx context.Context, sellerID string) (*domain.WalletBalance, bool, error) {
	raw, err := c.client.Get(ctx, walletPrefix+sellerID).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get wallet cache: %w", err)
	}

	var balance domain.WalletBalance
	if err := json.Unmarshal(raw, &balance); err != nil {
		// битый кэш просто игнорируем
		return nil, false, nil
	}
	return &balance, true, nil
}

func (c *WalletCache) Set(ctx context.Context, balance *domain.WalletBalance) error {
	raw, err := json.Marshal(balance)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, walletPrefix+balance.SellerID, raw, c.ttl).Err()
}

func (c *WalletCache) Invalidate(ctx context.Context, sellerID string) error {
	return c.client.Del(ctx, walletPrefix+sellerID).Err()
}
