package handler

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/jaekwang-park/todo-web/internal/middleware"
	"github.com/jaekwang-park/todo-web/internal/model"
	"github.com/jaekwang-park/todo-web/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	pageIndex         = "index.html"
	pageList          = "list.html"
	pageForm          = "form.html"
	pageDetail        = "detail.html"
	pageConfirmDelete = "confirm_delete.html"
	pageNotFound      = "not_found.html"
)

// pageData is the single view model shared by every template.
type pageData struct {
	Query     string
	Searching bool
	Items     []model.TodoItem
	Item      model.TodoItem
	Input     service.TodoItemInput
	Errors    map[string]string
	Action    string
}

type pages struct {
	byName map[string]*template.Template
	logger *slog.Logger
}

// parsePages pairs templates/layout.html in fsys with each page.
func parsePages(fsys fs.FS, logger *slog.Logger) (*pages, error) {
	p := &pages{byName: make(map[string]*template.Template), logger: logger}
	for _, name := range []string{pageIndex, pageList, pageForm, pageDetail, pageConfirmDelete, pageNotFound} {
		t, err := template.ParseFS(fsys, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, err
		}
		p.byName[name] = t
	}
	return p, nil
}

// render buffers the page so a template error can still become a 500.
func (p *pages) render(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	var buf bytes.Buffer
	if err := p.byName[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		p.logger.ErrorContext(r.Context(), "failed to render page",
			"request_id", middleware.RequestIDFrom(r.Context()),
			"page", name,
			"error", err,
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		p.logger.WarnContext(r.Context(), "failed to write page",
			"request_id", middleware.RequestIDFrom(r.Context()),
			"page", name,
			"error", err,
		)
	}
}
