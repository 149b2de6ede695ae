package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jaekwang-park/todo-web/internal/model"
	"github.com/jaekwang-park/todo-web/internal/repository"
	slugpkg "github.com/jaekwang-park/todo-web/internal/slug"
)

// TodoItemInput holds the user-editable fields of a todo item.
type TodoItemInput struct {
	Title      string `form:"title" validate:"required,max=255"`
	Completed  bool   `form:"completed"`
	IsArchived bool   `form:"is_archived"`
}

type TodoItemService struct {
	repo     repository.TodoItemRepository
	validate *validator.Validate
	now      func() time.Time
}

type Option func(*TodoItemService)

// WithClock overrides the time source used for created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *TodoItemService) {
		s.now = now
	}
}

func NewTodoItemService(repo repository.TodoItemRepository, opts ...Option) *TodoItemService {
	s := &TodoItemService{
		repo:     repo,
		validate: newValidator(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TodoItemService) List(ctx context.Context) ([]model.TodoItem, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list todo items: %w", err)
	}
	return items, nil
}

// Create stores a new item under the first free slug among base, base-1,
// base-2, ... Uniqueness is decided by the repository on insert, so two
// concurrent creations of the same title end up with different suffixes.
func (s *TodoItemService) Create(ctx context.Context, input TodoItemInput) (model.TodoItem, error) {
	input.Title = strings.TrimSpace(input.Title)
	if err := validateStruct(s.validate, input); err != nil {
		return model.TodoItem{}, err
	}

	base := slugpkg.Base(input.Title)
	now := s.now()

	for n := 0; ; n++ {
		if err := ctx.Err(); err != nil {
			return model.TodoItem{}, fmt.Errorf("failed to create todo item: %w", err)
		}

		created, err := s.repo.Insert(ctx, model.TodoItem{
			Title:      input.Title,
			Slug:       slugpkg.WithSuffix(base, n),
			Completed:  input.Completed,
			IsArchived: input.IsArchived,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if errors.Is(err, repository.ErrSlugTaken) {
			continue
		}
		if err != nil {
			return model.TodoItem{}, fmt.Errorf("failed to create todo item: %w", err)
		}
		return created, nil
	}
}

// GetByIdentity returns the item only when both slug and id match it.
func (s *TodoItemService) GetByIdentity(ctx context.Context, slug string, id int64) (model.TodoItem, error) {
	item, err := s.repo.GetByIdentity(ctx, slug, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.TodoItem{}, ErrNotFound
		}
		return model.TodoItem{}, fmt.Errorf("failed to get todo item: %w", err)
	}
	return item, nil
}

// Update overwrites title and flags. The slug is fixed at creation and never
// follows later title changes.
func (s *TodoItemService) Update(ctx context.Context, slug string, id int64, input TodoItemInput) (model.TodoItem, error) {
	existing, err := s.GetByIdentity(ctx, slug, id)
	if err != nil {
		return model.TodoItem{}, err
	}

	input.Title = strings.TrimSpace(input.Title)
	if err := validateStruct(s.validate, input); err != nil {
		return model.TodoItem{}, err
	}

	existing.Title = input.Title
	existing.Completed = input.Completed
	existing.IsArchived = input.IsArchived

	now := s.now()
	if now.Before(existing.UpdatedAt) {
		now = existing.UpdatedAt
	}
	existing.UpdatedAt = now

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.TodoItem{}, ErrNotFound
		}
		return model.TodoItem{}, fmt.Errorf("failed to update todo item: %w", err)
	}
	return updated, nil
}

// Delete removes the first item matching the given slug and/or id. The slug
// is normalised before matching. At least one of the two is required.
func (s *TodoItemService) Delete(ctx context.Context, slug string, id int64) (model.TodoItem, error) {
	if slug == "" && id == 0 {
		return model.TodoItem{}, newValidationError("identity", "A slug or an id is required.")
	}

	filter := model.ItemFilter{Slug: slugpkg.Make(slug), ID: id}
	// A slug that normalises to nothing can never match a stored item, and an
	// empty filter field would otherwise widen the match.
	if slug != "" && filter.Slug == "" {
		return model.TodoItem{}, ErrNotFound
	}

	deleted, err := s.repo.DeleteFirst(ctx, filter)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.TodoItem{}, ErrNotFound
		}
		return model.TodoItem{}, fmt.Errorf("failed to delete todo item: %w", err)
	}
	return deleted, nil
}

// Search matches query against titles, ignoring case. An empty query matches
// every item.
func (s *TodoItemService) Search(ctx context.Context, query string) ([]model.TodoItem, error) {
	items, err := s.repo.Search(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, fmt.Errorf("failed to search todo items: %w", err)
	}
	return items, nil
}
