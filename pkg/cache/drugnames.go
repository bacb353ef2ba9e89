// Package cache provides the read-through drug name cache. Drug names change
// rarely but are resolved on every reminder cycle, so lookups go to Redis
// first and fall back to the catalog.
package cache

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/yarrow/pkg/redis"
	"github.com/Ramsey-B/yarrow/pkg/tracing"
)

const drugNameKeyPrefix = "yarrow:drug:name:"

// DefaultTTL is the default cache lifetime for a drug name
const DefaultTTL = 6 * time.Hour

// DrugSource is the authoritative name lookup behind the cache.
type DrugSource interface {
	GetNamesByIDs(ctx context.Context, drugIDs []uuid.UUID) (map[uuid.UUID]string, error)
}

// DrugNames is a read-through Redis cache over a DrugSource. A nil or failing
// Redis client degrades to direct source reads.
type DrugNames struct {
	client *redis.Client
	source DrugSource
	ttl    time.Duration
	logger ectologger.Logger
}

// NewDrugNames creates a new drug name cache. client may be nil to disable
// caching entirely.
func NewDrugNames(client *redis.Client, source DrugSource, ttl time.Duration, logger ectologger.Logger) *DrugNames {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &DrugNames{
		client: client,
		source: source,
		ttl:    ttl,
		logger: logger,
	}
}

// ResolveNames returns display names for the given drug IDs. IDs unknown to
// both the cache and the source are absent from the result.
func (c *DrugNames) ResolveNames(ctx context.Context, drugIDs []uuid.UUID) (map[uuid.UUID]string, error) {
	ctx, span := tracing.StartSpan(ctx, "cache.DrugNames.ResolveNames")
	defer span.End()

	names := make(map[uuid.UUID]string, len(drugIDs))
	missing := c.readCached(ctx, drugIDs, names)
	if len(missing) == 0 {
		return names, nil
	}

	fetched, err := c.source.GetNamesByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}

	for id, name := range fetched {
		names[id] = name
		c.writeCached(ctx, id, name)
	}

	return names, nil
}

// readCached fills names from Redis and returns the IDs it could not serve.
func (c *DrugNames) readCached(ctx context.Context, drugIDs []uuid.UUID, names map[uuid.UUID]string) []uuid.UUID {
	if c.client == nil || len(drugIDs) == 0 {
		return drugIDs
	}

	keys := make([]string, len(drugIDs))
	for i, id := range drugIDs {
		keys[i] = drugNameKeyPrefix + id.String()
	}

	values, err := c.client.MGet(ctx, keys...)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("Drug name cache read failed; falling back to catalog")
		return drugIDs
	}

	var missing []uuid.UUID
	for i, value := range values {
		name, ok := value.(string)
		if !ok || name == "" {
			missing = append(missing, drugIDs[i])
			continue
		}
		names[drugIDs[i]] = name
	}
	return missing
}

func (c *DrugNames) writeCached(ctx context.Context, drugID uuid.UUID, name string) {
	if c.client == nil || name == "" {
		return
	}
	if err := c.client.Set(ctx, drugNameKeyPrefix+drugID.String(), name, c.ttl); err != nil {
		c.logger.WithContext(ctx).WithError(err).Warn("Drug name cache write failed")
	}
}

// Invalidate drops cached names for the given drug IDs, for catalog updates.
func (c *DrugNames) Invalidate(ctx context.Context, drugIDs ...uuid.UUID) error {
	if c.client == nil || len(drugIDs) == 0 {
		return nil
	}
	keys := make([]string, len(drugIDs))
	for i, id := range drugIDs {
		keys[i] = drugNameKeyPrefix + id.String()
	}
	return c.client.Del(ctx, keys...)
}
