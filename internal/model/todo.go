package model

import (
	"net/url"
	"strconv"
	"time"
)

type TodoItem struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	Completed  bool      `json:"completed"`
	IsArchived bool      `json:"is_archived"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Matches reports whether the item is addressed by both slug and id.
func (t TodoItem) Matches(slug string, id int64) bool {
	return t.Slug == slug && t.ID == id
}

// Path is the item's detail page, /<slug>/<id>.
func (t TodoItem) Path() string {
	return "/" + url.PathEscape(t.Slug) + "/" + strconv.FormatInt(t.ID, 10)
}

// ItemFilter selects items by slug and/or id. A zero field is not filtered on.
type ItemFilter struct {
	Slug string
	ID   int64
}

func (f ItemFilter) IsEmpty() bool {
	return f.Slug == "" && f.ID == 0
}

func (f ItemFilter) Match(t TodoItem) bool {
	if f.Slug != "" && t.Slug != f.Slug {
		return false
	}
	if f.ID != 0 && t.ID != f.ID {
		return false
	}
	return true
}
