package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	itemDomain "github.com/shareit/service-booking/internal/domain/item"
)

const itemKeyPrefix = "item:"

// cachedItem is the JSON form of an item held in Redis.
type cachedItem struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Available   bool      `json:"available"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// storeItemScript writes an item hash unless the cache already holds the same
// or a newer version. KEYS[1] is the item key; ARGV is version, payload and
// TTL in milliseconds.
var storeItemScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'v')
if current and tonumber(current) >= tonumber(ARGV[1]) then
  return 0
end
redis.call('HSET', KEYS[1], 'v', ARGV[1], 'data', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

// CachedItemRepository decorates an ItemRepository with a Redis cache for
// FindByID. Each entry is a hash carrying the item version next to its JSON,
// and a write never replaces a newer version, so a read that raced an Update
// cannot put the older row back. Saves and updates write through. Redis
// failures are logged and the call falls back to the wrapped repository.
type CachedItemRepository struct {
	next   itemDomain.ItemRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedItemRepository wraps next with a cache of the given TTL.
func NewCachedItemRepository(next itemDomain.ItemRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedItemRepository {
	return &CachedItemRepository{next: next, client: client, ttl: ttl, logger: logger}
}

func itemKey(id uuid.UUID) string {
	return itemKeyPrefix + id.String()
}

// FindByID serves from Redis when possible.
func (r *CachedItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*itemDomain.Item, error) {
	raw, err := r.client.HGet(ctx, itemKey(id), "data").Bytes()
	switch {
	case err == nil:
		var c cachedItem
		if jsonErr := json.Unmarshal(raw, &c); jsonErr == nil {
			return itemDomain.Reconstruct(c.ID, c.OwnerID, c.Name, c.Description, c.Available, c.Version, c.CreatedAt, c.UpdatedAt), nil
		}
		r.logger.Warn("discarding malformed cached item", zap.String("item_id", id.String()))
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("item cache read failed", zap.String("item_id", id.String()), zap.Error(err))
	}

	it, err := r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.store(ctx, it); err != nil {
		r.logger.Warn("item cache write failed", zap.String("item_id", id.String()), zap.Error(err))
	}
	return it, nil
}

// FindByOwnerID is not cached.
func (r *CachedItemRepository) FindByOwnerID(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]*itemDomain.Item, error) {
	return r.next.FindByOwnerID(ctx, ownerID, offset, limit)
}

// FindIDsByOwnerID is not cached.
func (r *CachedItemRepository) FindIDsByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error) {
	return r.next.FindIDsByOwnerID(ctx, ownerID)
}

// Search is not cached.
func (r *CachedItemRepository) Search(ctx context.Context, text string, offset, limit int) ([]*itemDomain.Item, error) {
	return r.next.Search(ctx, text, offset, limit)
}

// Save persists the item and caches it.
func (r *CachedItemRepository) Save(ctx context.Context, it *itemDomain.Item) error {
	if err := r.next.Save(ctx, it); err != nil {
		return err
	}
	r.writeThrough(ctx, it)
	return nil
}

// Update persists the item and caches the new version.
func (r *CachedItemRepository) Update(ctx context.Context, it *itemDomain.Item) error {
	if err := r.next.Update(ctx, it); err != nil {
		return err
	}
	r.writeThrough(ctx, it)
	return nil
}

// writeThrough drops the entry when the new version cannot be cached, so a
// later read goes back to the database.
func (r *CachedItemRepository) writeThrough(ctx context.Context, it *itemDomain.Item) {
	err := r.store(ctx, it)
	if err == nil {
		return
	}
	r.logger.Warn("item cache write failed", zap.String("item_id", it.ID().String()), zap.Error(err))
	if err := r.client.Del(ctx, itemKey(it.ID())).Err(); err != nil {
		r.logger.Warn("item cache invalidation failed", zap.String("item_id", it.ID().String()), zap.Error(err))
	}
}

// store caches it unless the same or a newer version is already cached.
// Skipping a stale write is not an error.
func (r *CachedItemRepository) store(ctx context.Context, it *itemDomain.Item) error {
	payload, err := json.Marshal(cachedItem{
		ID:          it.ID(),
		OwnerID:     it.OwnerID(),
		Name:        it.Name(),
		Description: it.Description(),
		Available:   it.Available(),
		Version:     it.Version(),
		CreatedAt:   it.CreatedAt(),
		UpdatedAt:   it.UpdatedAt(),
	})
	if err != nil {
		return err
	}
	return storeItemScript.Run(ctx, r.client, []string{itemKey(it.ID())},
		it.Version(), payload, r.ttl.Milliseconds()).Err()
}
