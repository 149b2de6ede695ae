package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/jaekwang-park/todo-web/internal/model"
)

// MemoryTodoItemRepository keeps items in process memory. Ids are assigned
// sequentially from 1 and never reused.
type MemoryTodoItemRepository struct {
	mu     sync.RWMutex
	items  []model.TodoItem
	slugs  map[string]int64
	nextID int64
}

func NewMemoryTodoItem() *MemoryTodoItemRepository {
	return &MemoryTodoItemRepository{
		slugs:  make(map[string]int64),
		nextID: 1,
	}
}

func (r *MemoryTodoItemRepository) List(ctx context.Context) ([]model.TodoItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]model.TodoItem, len(r.items))
	copy(items, r.items)
	return items, nil
}

func (r *MemoryTodoItemRepository) Insert(ctx context.Context, item model.TodoItem) (model.TodoItem, error) {
	if err := ctx.Err(); err != nil {
		return model.TodoItem{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.slugs[item.Slug]; ok {
		return model.TodoItem{}, fmt.Errorf("insert %q: %w", item.Slug, ErrSlugTaken)
	}

	item.ID = r.nextID
	r.nextID++
	r.items = append(r.items, item)
	r.slugs[item.Slug] = item.ID
	return item, nil
}

func (r *MemoryTodoItemRepository) GetByIdentity(ctx context.Context, slug string, id int64) (model.TodoItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexOf(slug, id); i >= 0 {
		return r.items[i], nil
	}
	return model.TodoItem{}, fmt.Errorf("todo item %s/%d: %w", slug, id, sql.ErrNoRows)
}

func (r *MemoryTodoItemRepository) Update(ctx context.Context, item model.TodoItem) (model.TodoItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(item.Slug, item.ID)
	if i < 0 {
		return model.TodoItem{}, fmt.Errorf("todo item %s/%d: %w", item.Slug, item.ID, sql.ErrNoRows)
	}

	stored := &r.items[i]
	stored.Title = item.Title
	stored.Completed = item.Completed
	stored.IsArchived = item.IsArchived
	stored.UpdatedAt = item.UpdatedAt
	return *stored, nil
}

func (r *MemoryTodoItemRepository) DeleteFirst(ctx context.Context, filter model.ItemFilter) (model.TodoItem, error) {
	if filter.IsEmpty() {
		return model.TodoItem{}, fmt.Errorf("refusing to delete without a filter")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i, item := range r.items {
		if !filter.Match(item) {
			continue
		}
		r.items = append(r.items[:i], r.items[i+1:]...)
		delete(r.slugs, item.Slug)
		return item, nil
	}
	return model.TodoItem{}, fmt.Errorf("todo item %+v: %w", filter, sql.ErrNoRows)
}

func (r *MemoryTodoItemRepository) Search(ctx context.Context, query string) ([]model.TodoItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(query)
	items := []model.TodoItem{}
	for _, item := range r.items {
		if strings.Contains(strings.ToLower(item.Title), needle) {
			items = append(items, item)
		}
	}
	return items, nil
}

func (r *MemoryTodoItemRepository) indexOf(slug string, id int64) int {
	for i, item := range r.items {
		if item.Matches(slug, id) {
			return i
		}
	}
	return -1
}

var _ TodoItemRepository = (*MemoryTodoItemRepository)(nil)
