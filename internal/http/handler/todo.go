package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/jaekwang-park/todo-web/internal/middleware"
	"github.com/jaekwang-park/todo-web/internal/model"
	"github.com/jaekwang-park/todo-web/internal/service"
)

const maxFormBodySize = 1 << 20 // 1 MB

// TodoHandler serves the todo pages. Every page has a JSON rendition
// selected with Accept: application/json.
type TodoHandler struct {
	svc    *service.TodoItemService
	pages  *pages
	logger *slog.Logger
}

func NewTodoHandler(svc *service.TodoItemService, logger *slog.Logger) (*TodoHandler, error) {
	p, err := parsePages(templateFS, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &TodoHandler{svc: svc, pages: p, logger: logger}, nil
}

// Index is the static landing page.
func (h *TodoHandler) Index(w http.ResponseWriter, r *http.Request) {
	if WantsJSON(r) {
		WriteJSON(w, http.StatusOK, map[string]string{"message": "hello, world"})
		return
	}
	h.pages.render(w, r, http.StatusOK, pageIndex, pageData{})
}

func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if WantsJSON(r) {
		WriteJSON(w, http.StatusOK, nonNil(items))
		return
	}
	h.pages.render(w, r, http.StatusOK, pageList, pageData{Items: items})
}

func (h *TodoHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	items, err := h.svc.Search(r.Context(), q)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if WantsJSON(r) {
		WriteJSON(w, http.StatusOK, nonNil(items))
		return
	}
	h.pages.render(w, r, http.StatusOK, pageList, pageData{Query: q, Searching: true, Items: items})
}

func (h *TodoHandler) CreateForm(w http.ResponseWriter, r *http.Request) {
	h.pages.render(w, r, http.StatusOK, pageForm, pageData{Action: "/create"})
}

func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, err := decodeInput(w, r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}

	item, err := h.svc.Create(r.Context(), input)
	if err != nil {
		h.formError(w, r, err, pageData{Action: "/create", Input: input})
		return
	}

	h.logger.InfoContext(r.Context(), "todo item created",
		"request_id", middleware.RequestIDFrom(r.Context()),
		"id", item.ID,
		"slug", item.Slug,
	)
	if WantsJSON(r) {
		WriteJSON(w, http.StatusCreated, item)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *TodoHandler) Detail(w http.ResponseWriter, r *http.Request) {
	item, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if WantsJSON(r) {
		WriteJSON(w, http.StatusOK, item)
		return
	}
	h.pages.render(w, r, http.StatusOK, pageDetail, pageData{Item: item})
}

// DetailPost sends form posts on the detail page to the edit form.
func (h *TodoHandler) DetailPost(w http.ResponseWriter, r *http.Request) {
	item, ok := h.lookup(w, r)
	if !ok {
		return
	}
	http.Redirect(w, r, item.Path()+"/update", http.StatusSeeOther)
}

func (h *TodoHandler) UpdateForm(w http.ResponseWriter, r *http.Request) {
	item, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if WantsJSON(r) {
		WriteJSON(w, http.StatusOK, item)
		return
	}
	h.pages.render(w, r, http.StatusOK, pageForm, pageData{
		Item:   item,
		Action: item.Path() + "/update",
		Input: service.TodoItemInput{
			Title:      item.Title,
			Completed:  item.Completed,
			IsArchived: item.IsArchived,
		},
	})
}

func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	slug, id, ok := identity(r)
	if !ok {
		h.notFound(w, r)
		return
	}

	input, err := decodeInput(w, r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}

	item, err := h.svc.Update(r.Context(), slug, id, input)
	if err != nil {
		current := model.TodoItem{ID: id, Slug: slug, Title: input.Title}
		h.formError(w, r, err, pageData{Item: current, Action: current.Path() + "/update", Input: input})
		return
	}

	if WantsJSON(r) {
		WriteJSON(w, http.StatusOK, item)
		return
	}
	http.Redirect(w, r, item.Path(), http.StatusSeeOther)
}

func (h *TodoHandler) DeleteForm(w http.ResponseWriter, r *http.Request) {
	item, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if WantsJSON(r) {
		WriteJSON(w, http.StatusOK, item)
		return
	}
	h.pages.render(w, r, http.StatusOK, pageConfirmDelete, pageData{Item: item})
}

func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	slug, id, ok := identity(r)
	if !ok {
		h.notFound(w, r)
		return
	}

	deleted, err := h.svc.Delete(r.Context(), slug, id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			h.notFound(w, r)
		case errors.Is(err, service.ErrInvalidInput):
			WriteError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		default:
			h.internalError(w, r, err)
		}
		return
	}

	h.logger.InfoContext(r.Context(), "todo item deleted",
		"request_id", middleware.RequestIDFrom(r.Context()),
		"id", deleted.ID,
		"slug", deleted.Slug,
	)
	if WantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// NotFound answers unmatched routes with the same page as a missing item.
func (h *TodoHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.notFound(w, r)
}

func (h *TodoHandler) lookup(w http.ResponseWriter, r *http.Request) (model.TodoItem, bool) {
	slug, id, ok := identity(r)
	if !ok {
		h.notFound(w, r)
		return model.TodoItem{}, false
	}

	item, err := h.svc.GetByIdentity(r.Context(), slug, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			h.notFound(w, r)
		} else {
			h.internalError(w, r, err)
		}
		return model.TodoItem{}, false
	}
	return item, true
}

// formError re-renders the form with field messages on validation failure.
func (h *TodoHandler) formError(w http.ResponseWriter, r *http.Request, err error, data pageData) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		if WantsJSON(r) {
			WriteFieldErrors(w, http.StatusBadRequest, verr.Fields)
			return
		}
		data.Errors = verr.Fields
		h.pages.render(w, r, http.StatusUnprocessableEntity, pageForm, data)
	case errors.Is(err, service.ErrNotFound):
		h.notFound(w, r)
	default:
		h.internalError(w, r, err)
	}
}

func (h *TodoHandler) notFound(w http.ResponseWriter, r *http.Request) {
	if WantsJSON(r) {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "todo item not found")
		return
	}
	h.pages.render(w, r, http.StatusNotFound, pageNotFound, pageData{})
}

func (h *TodoHandler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "request failed",
		"request_id", middleware.RequestIDFrom(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	if WantsJSON(r) {
		WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// identity reads {slug} and {id} from the route.
func identity(r *http.Request) (string, int64, bool) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil || id <= 0 {
		return "", 0, false
	}
	return vars["slug"], id, true
}

type itemRequest struct {
	Title      string `json:"title"`
	Completed  bool   `json:"completed"`
	IsArchived bool   `json:"is_archived"`
}

// decodeInput reads the item fields from a JSON body or an HTML form.
// Unchecked checkboxes are absent from a form post and read as false.
func decodeInput(w http.ResponseWriter, r *http.Request) (service.TodoItemInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBodySize)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req itemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return service.TodoItemInput{}, err
		}
		return service.TodoItemInput(req), nil
	}

	if err := r.ParseForm(); err != nil {
		return service.TodoItemInput{}, err
	}
	return service.TodoItemInput{
		Title:      r.PostForm.Get("title"),
		Completed:  checked(r.PostForm.Get("completed")),
		IsArchived: checked(r.PostForm.Get("is_archived")),
	}, nil
}

func checked(v string) bool {
	switch strings.ToLower(v) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

func nonNil(items []model.TodoItem) []model.TodoItem {
	if items == nil {
		return []model.TodoItem{}
	}
	return items
}
