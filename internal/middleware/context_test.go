package middleware_test

import (
	"net/http/httptest"
	"testing"

	"github.com/jaekwang-park/todo-web/internal/middleware"
)

func TestSetAndGetSubject(t *testing.T) {
	req := httptest.NewRequest("POST", "/create", nil)

	if got := middleware.GetSubject(req); got != "" {
		t.Errorf("expected empty, got %q", got)
	}

	req = req.WithContext(middleware.SetSubject(req.Context(), "operator-1"))

	if got := middleware.GetSubject(req); got != "operator-1" {
		t.Errorf("expected operator-1, got %q", got)
	}
}

func TestSetAndGetRequestID(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)

	if got := middleware.RequestIDFrom(req.Context()); got != "" {
		t.Errorf("expected empty, got %q", got)
	}

	ctx := middleware.SetRequestID(req.Context(), "req-1")
	if got := middleware.RequestIDFrom(ctx); got != "req-1" {
		t.Errorf("expected req-1, got %q", got)
	}
}
