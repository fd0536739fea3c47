package access

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/tradeweave/tradeweave-backend/internal/modules/organization"
	"github.com/tradeweave/tradeweave-backend/internal/modules/relationship"
)

// Cache holds short-lived copies of the two hot lookups every resolver call
// makes: the symmetric active-relationship query and the owner's visibility
// settings. Mutating services invalidate through it; with a nil client every
// method is a no-op and resolvers read straight from the store.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCache wraps a redis client. rdb may be nil.
func NewCache(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb, ttl: 30 * time.Second}
}

// absent marks a cached negative lookup; relationship absence is meaningful.
const absent = "-"

func pairKey(a, b uuid.UUID) string {
	// Symmetric key: order the pair so both argument orders hit one entry.
	if a.String() > b.String() {
		a, b = b, a
	}
	return "access:rel:" + a.String() + ":" + b.String()
}

func settingsKey(orgID uuid.UUID) string {
	return "access:settings:" + orgID.String()
}

// GetRelationship returns (relationship, found). A found nil relationship
// means the absence itself is cached.
func (c *Cache) GetRelationship(ctx context.Context, a, b uuid.UUID) (*relationship.BusinessRelationship, bool) {
	if c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, pairKey(a, b)).Result()
	if err != nil {
		return nil, false
	}
	if raw == absent {
		return nil, true
	}
	rel := &relationship.BusinessRelationship{}
	if err := json.Unmarshal([]byte(raw), rel); err != nil {
		return nil, false
	}
	return rel, true
}

func (c *Cache) SetRelationship(ctx context.Context, a, b uuid.UUID, rel *relationship.BusinessRelationship) {
	if c.rdb == nil {
		return
	}
	value := absent
	if rel != nil {
		raw, err := json.Marshal(rel)
		if err != nil {
			return
		}
		value = string(raw)
	}
	c.rdb.Set(ctx, pairKey(a, b), value, c.ttl)
}

func (c *Cache) GetSettings(ctx context.Context, orgID uuid.UUID) (*organization.VisibilitySettings, bool) {
	if c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, settingsKey(orgID)).Result()
	if err != nil {
		return nil, false
	}
	if raw == absent {
		return nil, true
	}
	settings := &organization.VisibilitySettings{}
	if err := json.Unmarshal([]byte(raw), settings); err != nil {
		return nil, false
	}
	return settings, true
}

func (c *Cache) SetSettings(ctx context.Context, orgID uuid.UUID, settings *organization.VisibilitySettings) {
	if c.rdb == nil {
		return
	}
	value := absent
	if settings != nil {
		raw, err := json.Marshal(settings)
		if err != nil {
			return
		}
		value = string(raw)
	}
	c.rdb.Set(ctx, settingsKey(orgID), value, c.ttl)
}

// InvalidatePair implements relationship.PairCache.
func (c *Cache) InvalidatePair(ctx context.Context, a, b uuid.UUID) {
	if c.rdb == nil {
		return
	}
	c.rdb.Del(ctx, pairKey(a, b))
}

// InvalidateSettings implements organization.SettingsCache.
func (c *Cache) InvalidateSettings(ctx context.Context, orgID uuid.UUID) {
	if c.rdb == nil {
		return
	}
	c.rdb.Del(ctx, settingsKey(orgID))
}
