package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stocksense/backend-go/internal/config"
	"github.com/stocksense/backend-go/internal/domain"
)

const dashboardKeyPrefix = "dashboard:summary"

// DashboardCache caches the per-user dashboard summary. Entries are
// invalidated whenever the user's derived sets are regenerated.
type DashboardCache interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.DashboardSummary, bool, error)
	Set(ctx context.Context, userID uuid.UUID, summary *domain.DashboardSummary) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

type redisDashboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopDashboardCache struct{}

func NewDashboardCache(cfg config.CacheConfig) (DashboardCache, error) {
	if !cfg.Enabled {
		return &noopDashboardCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisDashboardCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopDashboardCache() DashboardCache {
	return &noopDashboardCache{}
}

func (c *redisDashboardCache) Get(ctx context.Context, userID uuid.UUID) (*domain.DashboardSummary, bool, error) {
	payload, err := c.client.Get(ctx, dashboardKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var summary domain.DashboardSummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return nil, false, fmt.Errorf("decode dashboard summary cache: %w", err)
	}

	return &summary, true, nil
}

func (c *redisDashboardCache) Set(ctx context.Context, userID uuid.UUID, summary *domain.DashboardSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode dashboard summary cache: %w", err)
	}

	if err := c.client.Set(ctx, dashboardKey(userID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

func (c *redisDashboardCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	return c.client.Del(ctx, dashboardKey(userID)).Err()
}

func (n *noopDashboardCache) Get(ctx context.Context, userID uuid.UUID) (*domain.DashboardSummary, bool, error) {
	return nil, false, nil
}

func (n *noopDashboardCache) Set(ctx context.Context, userID uuid.UUID, summary *domain.DashboardSummary) error {
	return nil
}

func (n *noopDashboardCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	return nil
}

func dashboardKey(userID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", dashboardKeyPrefix, userID)
}
