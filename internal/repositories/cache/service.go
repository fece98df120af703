package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// DailyOutflowTTL bounds how stale a cached daily-limit aggregate may be.
// The limit check is advisory-preventive, so staleness within the window
// is an accepted tradeoff.
const DailyOutflowTTL = 15 * time.Minute

type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, defaultTTL time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    defaultTTL,
	}
}

// Base operations
func (s *CacheService) Set(ctx context.Context, key string, value interface{}) error {
	return s.SetWithTTL(ctx, key, value, s.ttl)
}

func (s *CacheService) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to get cache value: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return true, nil
}

func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	return s.client.Del(ctx, keys...).Err()
}

// Ping reports Redis reachability for health checks.
func (s *CacheService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying Redis connection.
func (s *CacheService) Close() error {
	return s.client.Close()
}

// Key generation
func (s *CacheService) GenerateKey(entityType, keyType string, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entityType, keyType, value)
}

// Daily-limit aggregation cache, keyed by (actor, account, currency, date).

func (s *CacheService) dailyOutflowKey(actorID, accountID uint, currency, date string) string {
	return fmt.Sprintf("daily_outflow:%d:%d:%s:%s", actorID, accountID, currency, date)
}

func (s *CacheService) GetDailyOutflow(ctx context.Context, actorID, accountID uint, currency, date string) (decimal.Decimal, bool, error) {
	var raw string
	found, err := s.Get(ctx, s.dailyOutflowKey(actorID, accountID, currency, date), &raw)
	if err != nil || !found {
		return decimal.Zero, false, err
	}
	total, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("corrupt daily outflow entry: %w", err)
	}
	return total, true, nil
}

func (s *CacheService) SetDailyOutflow(ctx context.Context, actorID, accountID uint, currency, date string, total decimal.Decimal) error {
	key := s.dailyOutflowKey(actorID, accountID, currency, date)
	return s.SetWithTTL(ctx, key, total.String(), DailyOutflowTTL)
}

func (s *CacheService) InvalidateDailyOutflow(ctx context.Context, actorID, accountID uint, currency, date string) error {
	return s.Delete(ctx, s.dailyOutflowKey(actorID, accountID, currency, date))
}
