package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jaekwang-park/todo-web/internal/cache"
	"github.com/jaekwang-park/todo-web/internal/model"
)

// ItemCache is the subset of cache.RedisCache used for item lookups.
type ItemCache interface {
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSONIfUnchanged(ctx context.Context, guardKey string, guard int64, key string, value any, expiration time.Duration) error
	Counter(ctx context.Context, key string) (int64, error)
	Incr(ctx context.Context, key string, expiration time.Duration) (int64, error)
	Delete(ctx context.Context, keys ...string) error
}

// CachedTodoItemRepository reads GetByIdentity through a cache and evicts on
// update and delete. Cache failures never fail the call.
//
// Every write bumps a per-id generation before evicting. A reader only fills
// the cache when the generation it saw before going to storage is still
// current, so a row read before a concurrent write is never cached after it.
type CachedTodoItemRepository struct {
	TodoItemRepository
	cache  ItemCache
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedTodoItem(next TodoItemRepository, c ItemCache, ttl time.Duration, logger *slog.Logger) *CachedTodoItemRepository {
	return &CachedTodoItemRepository{
		TodoItemRepository: next,
		cache:              c,
		ttl:                ttl,
		logger:             logger,
	}
}

func ItemCacheKey(slug string, id int64) string {
	return fmt.Sprintf("todo:item:%d:%s", id, slug)
}

func ItemGenerationKey(id int64) string {
	return fmt.Sprintf("todo:item:gen:%d", id)
}

func (r *CachedTodoItemRepository) GetByIdentity(ctx context.Context, slug string, id int64) (model.TodoItem, error) {
	key := ItemCacheKey(slug, id)

	var cached model.TodoItem
	err := r.cache.GetJSON(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrNotFound) {
		r.logger.WarnContext(ctx, "item cache read failed", "key", key, "error", err)
	}

	genKey := ItemGenerationKey(id)
	gen, genErr := r.cache.Counter(ctx, genKey)
	if genErr != nil {
		r.logger.WarnContext(ctx, "item cache generation read failed", "key", genKey, "error", genErr)
	}

	item, err := r.TodoItemRepository.GetByIdentity(ctx, slug, id)
	if err != nil {
		return model.TodoItem{}, err
	}
	if genErr != nil {
		return item, nil
	}

	err = r.cache.SetJSONIfUnchanged(ctx, genKey, gen, key, item, r.ttl)
	switch {
	case errors.Is(err, cache.ErrStale):
		r.logger.DebugContext(ctx, "item changed during read, not cached", "key", key)
	case err != nil:
		r.logger.WarnContext(ctx, "item cache write failed", "key", key, "error", err)
	}
	return item, nil
}

func (r *CachedTodoItemRepository) Update(ctx context.Context, item model.TodoItem) (model.TodoItem, error) {
	updated, err := r.TodoItemRepository.Update(ctx, item)
	if err != nil {
		return model.TodoItem{}, err
	}
	r.evict(ctx, updated)
	return updated, nil
}

func (r *CachedTodoItemRepository) DeleteFirst(ctx context.Context, filter model.ItemFilter) (model.TodoItem, error) {
	deleted, err := r.TodoItemRepository.DeleteFirst(ctx, filter)
	if err != nil {
		return model.TodoItem{}, err
	}
	r.evict(ctx, deleted)
	return deleted, nil
}

func (r *CachedTodoItemRepository) evict(ctx context.Context, item model.TodoItem) {
	genKey := ItemGenerationKey(item.ID)
	if _, err := r.cache.Incr(ctx, genKey, 2*r.ttl); err != nil {
		r.logger.WarnContext(ctx, "item cache generation bump failed", "key", genKey, "error", err)
	}

	key := ItemCacheKey(item.Slug, item.ID)
	if err := r.cache.Delete(ctx, key); err != nil {
		r.logger.WarnContext(ctx, "item cache eviction failed", "key", key, "error", err)
	}
}

var _ TodoItemRepository = (*CachedTodoItemRepository)(nil)
