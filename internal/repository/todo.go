package repository

import (
	"context"
	"errors"

	"github.com/jaekwang-park/todo-web/internal/model"
)

// ErrSlugTaken is returned by Insert when another item already owns the slug.
var ErrSlugTaken = errors.New("slug already taken")

// TodoItemRepository persists todo items. Lookups that match nothing return
// an error wrapping sql.ErrNoRows.
type TodoItemRepository interface {
	List(ctx context.Context) ([]model.TodoItem, error)
	Insert(ctx context.Context, item model.TodoItem) (model.TodoItem, error)
	GetByIdentity(ctx context.Context, slug string, id int64) (model.TodoItem, error)
	Update(ctx context.Context, item model.TodoItem) (model.TodoItem, error)
	DeleteFirst(ctx context.Context, filter model.ItemFilter) (model.TodoItem, error)
	Search(ctx context.Context, query string) ([]model.TodoItem, error)
}
