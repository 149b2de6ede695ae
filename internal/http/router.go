package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/jaekwang-park/todo-web/internal/http/handler"
	"github.com/jaekwang-park/todo-web/internal/metrics"
)

// itemPath addresses one item; the id segment must be numeric.
const itemPath = "/{slug}/{id:[0-9]+}"

type RouterDeps struct {
	Todo    *handler.TodoHandler
	Health  *handler.HealthHandler
	Metrics http.Handler
	Sink    metrics.Sink
	// Auth is nil when operator sign-in is disabled.
	Auth *handler.AuthHandler
	// Guards run on every matched route after it has been counted, outermost
	// first.
	Guards []func(http.Handler) http.Handler
}

// NewRouter registers every route. Counted routes are named after their
// metrics.Route.
func NewRouter(d RouterDeps) http.Handler {
	r := mux.NewRouter()
	if d.Sink != nil {
		r.Use(countRequests(d.Sink))
	}
	for _, g := range d.Guards {
		r.Use(g)
	}

	r.Handle("/health", d.Health)
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics).Methods(http.MethodGet)
	}

	if d.Auth != nil {
		auth := r.PathPrefix("/auth").Subrouter()
		auth.HandleFunc("/login", d.Auth.Login).Methods(http.MethodPost)
		auth.HandleFunc("/refresh", d.Auth.Refresh).Methods(http.MethodPost)
		auth.HandleFunc("/logout", d.Auth.Logout).Methods(http.MethodPost)
	}

	t := d.Todo
	r.HandleFunc("/", t.List).Methods(http.MethodGet).Name(string(metrics.RouteList))
	r.HandleFunc("/index", t.Index).Methods(http.MethodGet).Name(string(metrics.RouteIndex))
	r.HandleFunc("/search", t.Search).Methods(http.MethodGet)
	r.HandleFunc("/create", t.CreateForm).Methods(http.MethodGet).Name(string(metrics.RouteCreate))
	r.HandleFunc("/create", t.Create).Methods(http.MethodPost).Name(string(metrics.RouteCreate))
	r.HandleFunc(itemPath+"/update", t.UpdateForm).Methods(http.MethodGet).Name(string(metrics.RouteUpdate))
	r.HandleFunc(itemPath+"/update", t.Update).Methods(http.MethodPost).Name(string(metrics.RouteUpdate))
	r.HandleFunc(itemPath+"/delete", t.DeleteForm).Methods(http.MethodGet).Name(string(metrics.RouteDelete))
	r.HandleFunc(itemPath+"/delete", t.Delete).Methods(http.MethodPost).Name(string(metrics.RouteDelete))
	r.HandleFunc(itemPath, t.Detail).Methods(http.MethodGet).Name(string(metrics.RouteDetail))
	r.HandleFunc(itemPath, t.DetailPost).Methods(http.MethodPost).Name(string(metrics.RouteDetail))

	r.NotFoundHandler = http.HandlerFunc(t.NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	return r
}

// countRequests increments the matched route's counter once per request,
// whatever the outcome.
func countRequests(sink metrics.Sink) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if route := mux.CurrentRoute(r); route != nil {
				if name := route.GetName(); name != "" {
					sink.Inc(metrics.Route(name))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
