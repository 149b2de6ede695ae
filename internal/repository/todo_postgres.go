package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/jaekwang-park/todo-web/internal/model"
)

const uniqueViolation = pq.ErrorCode("23505")

const itemColumns = `id, title, slug, completed, is_archived, created_at, updated_at`

type PostgresTodoItemRepository struct {
	db *sql.DB
}

func NewPostgresTodoItem(db *sql.DB) *PostgresTodoItemRepository {
	return &PostgresTodoItemRepository{db: db}
}

func (r *PostgresTodoItemRepository) List(ctx context.Context) ([]model.TodoItem, error) {
	query := `SELECT ` + itemColumns + ` FROM todo_items ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list todo items: %w", err)
	}
	return collectItems(rows)
}

func (r *PostgresTodoItemRepository) Insert(ctx context.Context, item model.TodoItem) (model.TodoItem, error) {
	query := `
		INSERT INTO todo_items (title, slug, completed, is_archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + itemColumns

	row := r.db.QueryRowContext(ctx, query,
		item.Title, item.Slug, item.Completed, item.IsArchived, item.CreatedAt, item.UpdatedAt,
	)

	created, err := scanItem(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return model.TodoItem{}, fmt.Errorf("insert %q: %w", item.Slug, ErrSlugTaken)
		}
		return model.TodoItem{}, err
	}
	return created, nil
}

func (r *PostgresTodoItemRepository) GetByIdentity(ctx context.Context, slug string, id int64) (model.TodoItem, error) {
	query := `SELECT ` + itemColumns + ` FROM todo_items WHERE slug = $1 AND id = $2`

	row := r.db.QueryRowContext(ctx, query, slug, id)
	return scanItem(row)
}

// Update writes title, flags and updated_at. Slug and created_at are never
// touched.
func (r *PostgresTodoItemRepository) Update(ctx context.Context, item model.TodoItem) (model.TodoItem, error) {
	query := `
		UPDATE todo_items
		SET title = $1, completed = $2, is_archived = $3, updated_at = $4
		WHERE id = $5 AND slug = $6
		RETURNING ` + itemColumns

	row := r.db.QueryRowContext(ctx, query,
		item.Title, item.Completed, item.IsArchived, item.UpdatedAt, item.ID, item.Slug,
	)
	return scanItem(row)
}

func (r *PostgresTodoItemRepository) DeleteFirst(ctx context.Context, filter model.ItemFilter) (model.TodoItem, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Slug != "" {
		args = append(args, filter.Slug)
		conds = append(conds, fmt.Sprintf("slug = $%d", len(args)))
	}
	if filter.ID != 0 {
		args = append(args, filter.ID)
		conds = append(conds, fmt.Sprintf("id = $%d", len(args)))
	}
	if len(conds) == 0 {
		return model.TodoItem{}, fmt.Errorf("refusing to delete without a filter")
	}

	query := `
		DELETE FROM todo_items
		WHERE id = (SELECT id FROM todo_items WHERE ` + strings.Join(conds, " AND ") + ` ORDER BY id LIMIT 1)
		RETURNING ` + itemColumns

	row := r.db.QueryRowContext(ctx, query, args...)
	return scanItem(row)
}

func (r *PostgresTodoItemRepository) Search(ctx context.Context, query string) ([]model.TodoItem, error) {
	stmt := `SELECT ` + itemColumns + ` FROM todo_items WHERE title ILIKE $1 ESCAPE '\' ORDER BY id`

	rows, err := r.db.QueryContext(ctx, stmt, "%"+escapeLike(query)+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to search todo items: %w", err)
	}
	return collectItems(rows)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

type scannable interface {
	Scan(dest ...any) error
}

func scanItem(row scannable) (model.TodoItem, error) {
	var t model.TodoItem
	err := row.Scan(
		&t.ID, &t.Title, &t.Slug, &t.Completed,
		&t.IsArchived, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return model.TodoItem{}, fmt.Errorf("failed to scan todo item: %w", err)
	}
	return t, nil
}

func collectItems(rows *sql.Rows) ([]model.TodoItem, error) {
	defer rows.Close()

	items := []model.TodoItem{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate todo items: %w", err)
	}
	return items, nil
}

// ensure compile-time interface compliance
var _ TodoItemRepository = (*PostgresTodoItemRepository)(nil)
