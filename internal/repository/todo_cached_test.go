package repository_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jaekwang-park/todo-web/internal/cache"
	"github.com/jaekwang-park/todo-web/internal/model"
	"github.com/jaekwang-park/todo-web/internal/repository"
)

// fakeCache stores JSON and generation counters in maps and can be told to
// fail.
type fakeCache struct {
	data    map[string][]byte
	gens    map[string]int64
	failAll bool
	gets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte), gens: make(map[string]int64)}
}

func (c *fakeCache) GetJSON(ctx context.Context, key string, dest any) error {
	c.gets++
	if c.failAll {
		return errors.New("connection refused")
	}
	raw, ok := c.data[key]
	if !ok {
		return cache.ErrNotFound
	}
	return json.Unmarshal(raw, dest)
}

func (c *fakeCache) SetJSONIfUnchanged(ctx context.Context, guardKey string, guard int64, key string, value any, expiration time.Duration) error {
	if c.failAll {
		return errors.New("connection refused")
	}
	if c.gens[guardKey] != guard {
		return cache.ErrStale
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (c *fakeCache) Counter(ctx context.Context, key string) (int64, error) {
	if c.failAll {
		return 0, errors.New("connection refused")
	}
	return c.gens[key], nil
}

func (c *fakeCache) Incr(ctx context.Context, key string, expiration time.Duration) (int64, error) {
	if c.failAll {
		return 0, errors.New("connection refused")
	}
	c.gens[key]++
	return c.gens[key], nil
}

func (c *fakeCache) Delete(ctx context.Context, keys ...string) error {
	if c.failAll {
		return errors.New("connection refused")
	}
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

// countingRepo counts GetByIdentity calls on the wrapped store.
type countingRepo struct {
	repository.TodoItemRepository
	gets int
}

func (r *countingRepo) GetByIdentity(ctx context.Context, slug string, id int64) (model.TodoItem, error) {
	r.gets++
	return r.TodoItemRepository.GetByIdentity(ctx, slug, id)
}

// interleavingRepo runs afterRead between the store lookup and the return,
// standing in for a write that lands while a reader is in flight.
type interleavingRepo struct {
	repository.TodoItemRepository
	afterRead func()
}

func (r *interleavingRepo) GetByIdentity(ctx context.Context, slug string, id int64) (model.TodoItem, error) {
	item, err := r.TodoItemRepository.GetByIdentity(ctx, slug, id)
	if r.afterRead != nil {
		hook := r.afterRead
		r.afterRead = nil
		hook()
	}
	return item, err
}

func newCached(t *testing.T, c repository.ItemCache) (*repository.CachedTodoItemRepository, *countingRepo) {
	t.Helper()
	inner := &countingRepo{TodoItemRepository: repository.NewMemoryTodoItem()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return repository.NewCachedTodoItem(inner, c, time.Minute, logger), inner
}

func TestCached_ReadThrough(t *testing.T) {
	fc := newFakeCache()
	repo, inner := newCached(t, fc)
	created := mustInsert(t, repo, newItem("Buy milk", "buy-milk"))

	for i := 0; i < 3; i++ {
		got, err := repo.GetByIdentity(context.Background(), "buy-milk", created.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Title != "Buy milk" {
			t.Errorf("expected title=Buy milk, got %q", got.Title)
		}
	}

	if inner.gets != 1 {
		t.Errorf("expected 1 store lookup, got %d", inner.gets)
	}
	if _, ok := fc.data[repository.ItemCacheKey("buy-milk", created.ID)]; !ok {
		t.Error("expected item to be cached")
	}
}

func TestCached_UpdateEvicts(t *testing.T) {
	fc := newFakeCache()
	repo, _ := newCached(t, fc)
	created := mustInsert(t, repo, newItem("Buy milk", "buy-milk"))

	if _, err := repo.GetByIdentity(context.Background(), "buy-milk", created.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	created.Title = "Buy oat milk"
	if _, err := repo.Update(context.Background(), created); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := repo.GetByIdentity(context.Background(), "buy-milk", created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "Buy oat milk" {
		t.Errorf("expected fresh title after update, got %q", got.Title)
	}
}

func TestCached_DeleteEvicts(t *testing.T) {
	fc := newFakeCache()
	repo, _ := newCached(t, fc)
	created := mustInsert(t, repo, newItem("Buy milk", "buy-milk"))

	if _, err := repo.GetByIdentity(context.Background(), "buy-milk", created.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := repo.DeleteFirst(context.Background(), model.ItemFilter{Slug: "buy-milk"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(fc.data) != 0 {
		t.Errorf("expected cache to be empty, got %d keys", len(fc.data))
	}
	if _, err := repo.GetByIdentity(context.Background(), "buy-milk", created.ID); err == nil {
		t.Fatal("expected deleted item to be gone")
	}
}

func TestCached_FailingCacheFallsThrough(t *testing.T) {
	fc := newFakeCache()
	fc.failAll = true
	repo, inner := newCached(t, fc)
	created := mustInsert(t, repo, newItem("Buy milk", "buy-milk"))

	got, err := repo.GetByIdentity(context.Background(), "buy-milk", created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("expected id %d, got %d", created.ID, got.ID)
	}
	if inner.gets != 1 {
		t.Errorf("expected store lookup, got %d", inner.gets)
	}

	created.Completed = true
	if _, err := repo.Update(context.Background(), created); err != nil {
		t.Fatalf("update should ignore cache failure: %v", err)
	}
}

func TestCached_WriteDuringReadIsNotCached(t *testing.T) {
	tests := []struct {
		name  string
		write func(t *testing.T, repo *repository.CachedTodoItemRepository, item model.TodoItem)
		check func(t *testing.T, got model.TodoItem, err error)
	}{
		{
			name: "delete",
			write: func(t *testing.T, repo *repository.CachedTodoItemRepository, item model.TodoItem) {
				if _, err := repo.DeleteFirst(context.Background(), model.ItemFilter{Slug: item.Slug, ID: item.ID}); err != nil {
					t.Fatalf("delete: %v", err)
				}
			},
			check: func(t *testing.T, got model.TodoItem, err error) {
				if err == nil {
					t.Fatalf("expected deleted item to be gone, got %+v", got)
				}
			},
		},
		{
			name: "update",
			write: func(t *testing.T, repo *repository.CachedTodoItemRepository, item model.TodoItem) {
				item.Title = "Buy oat milk"
				if _, err := repo.Update(context.Background(), item); err != nil {
					t.Fatalf("update: %v", err)
				}
			},
			check: func(t *testing.T, got model.TodoItem, err error) {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got.Title != "Buy oat milk" {
					t.Errorf("expected fresh title, got %q", got.Title)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := newFakeCache()
			inner := &interleavingRepo{TodoItemRepository: repository.NewMemoryTodoItem()}
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			repo := repository.NewCachedTodoItem(inner, fc, time.Minute, logger)
			created := mustInsert(t, repo, newItem("Buy milk", "buy-milk"))

			inner.afterRead = func() { tt.write(t, repo, created) }
			stale, err := repo.GetByIdentity(context.Background(), "buy-milk", created.ID)
			if err != nil {
				t.Fatalf("first read: %v", err)
			}
			if stale.Title != "Buy milk" {
				t.Fatalf("first read should see the row as it was, got %q", stale.Title)
			}
			if _, ok := fc.data[repository.ItemCacheKey("buy-milk", created.ID)]; ok {
				t.Fatal("row read before the write must not be cached")
			}

			got, err := repo.GetByIdentity(context.Background(), "buy-milk", created.ID)
			tt.check(t, got, err)
		})
	}
}
