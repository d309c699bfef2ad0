package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/arisanhub/arisand/internal/domain"
	"github.com/redis/go-redis/v9"
)

// groupSnapshotTTL bounds how stale a served listing can get when the chain
// read path is down.
const groupSnapshotTTL = 2 * time.Minute

const groupSnapshotKey = "groups:snapshot"

// GroupCache implements domain.GroupCache using a single JSON-serialized
// snapshot of the merged group listing.
//
// Key schema:
//
//	groups:snapshot - string value containing the JSON array
type GroupCache struct {
	rdb *redis.Client
}

// NewGroupCache creates a GroupCache backed by the given Client.
func NewGroupCache(c *Client) *GroupCache {
	return &GroupCache{rdb: c.Underlying()}
}

// SetSnapshot stores the merged listing with a 2-minute TTL.
func (gc *GroupCache) SetSnapshot(ctx context.Context, groups []domain.Group) error {
	data, err := json.Marshal(groups)
	if err != nil {
		return fmt.Errorf("redis: marshal group snapshot: %w", err)
	}
	if err := gc.rdb.Set(ctx, groupSnapshotKey, data, groupSnapshotTTL).Err(); err != nil {
		return fmt.Errorf("redis: set group snapshot: %w", err)
	}
	return nil
}

// GetSnapshot retrieves the cached listing. It returns domain.ErrNotFound
// when no snapshot exists or it has expired.
func (gc *GroupCache) GetSnapshot(ctx context.Context) ([]domain.Group, error) {
	data, err := gc.rdb.Get(ctx, groupSnapshotKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get group snapshot: %w", err)
	}

	var groups []domain.Group
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("redis: unmarshal group snapshot: %w", err)
	}
	return groups, nil
}

// Invalidate drops the snapshot so the next read refetches from chain.
func (gc *GroupCache) Invalidate(ctx context.Context) error {
	if err := gc.rdb.Del(ctx, groupSnapshotKey).Err(); err != nil {
		return fmt.Errorf("redis: invalidate group snapshot: %w", err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.GroupCache = (*GroupCache)(nil)
