package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/devmarket/escrow/internal/domain"
	"github.com/devmarket/escrow/internal/usecase"
)

// DefaultProfileTTL bounds how stale a cached tier or payout destination
// can be.
const DefaultProfileTTL = 5 * time.Minute

// CachedProfileDirectory decorates a usecase.ProfileDirectory with a Redis
// read-through cache. Profiles change rarely and are read on every release
// and payout, so a short TTL takes most of that load off the directory.
type CachedProfileDirectory struct {
	next   usecase.ProfileDirectory
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewCachedProfileDirectory creates a new CachedProfileDirectory.
func NewCachedProfileDirectory(next usecase.ProfileDirectory, client *redis.Client, ttl time.Duration) *CachedProfileDirectory {
	if ttl <= 0 {
		ttl = DefaultProfileTTL
	}

	return &CachedProfileDirectory{
		next:   next,
		client: client,
		prefix: "escrow:profile:",
		ttl:    ttl,
	}
}

// GetByUserID retrieves a commissioner profile, preferring the cache. Cache
// failures fall through to the directory; a missing profile is never cached.
func (d *CachedProfileDirectory) GetByUserID(ctx context.Context, userID string) (*domain.CommissionerProfile, error) {
	fullKey := d.prefix + userID

	if data, err := d.client.Get(ctx, fullKey).Bytes(); err == nil {
		var profile domain.CommissionerProfile
		if err := json.Unmarshal(data, &profile); err == nil {
			return &profile, nil
		}
	}

	profile, err := d.next.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(profile); err == nil {
		_ = d.client.Set(ctx, fullKey, data, d.ttl).Err()
	}

	return profile, nil
}

// Invalidate drops a cached profile, for use when the profile service
// announces a change.
func (d *CachedProfileDirectory) Invalidate(ctx context.Context, userID string) error {
	return d.client.Del(ctx, d.prefix+userID).Err()
}
