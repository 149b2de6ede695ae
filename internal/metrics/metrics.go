// Package metrics counts handled requests per route and exposes the counts
// for Prometheus scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Route string

const (
	RouteIndex  Route = "index"
	RouteList   Route = "list"
	RouteCreate Route = "create"
	RouteUpdate Route = "update"
	RouteDetail Route = "detail"
	RouteDelete Route = "delete"
)

// Sink receives one Inc per handled request on a counted route.
type Sink interface {
	Inc(route Route)
}

var counterSpecs = []struct {
	route Route
	name  string
	help  string
}{
	{RouteIndex, "index_requests_total", "Total number of index requests."},
	{RouteList, "todo_requests_total", "Total number of todo list requests."},
	{RouteCreate, "todo_create_requests_total", "Total number of todo create requests."},
	{RouteUpdate, "todo_update_requests_total", "Total number of todo update requests."},
	{RouteDetail, "todo_detail_requests_total", "Total number of todo detail requests."},
	{RouteDelete, "todo_delete_requests_total", "Total number of todo delete requests."},
}

// PrometheusSink keeps its counters in a private registry so several
// instances can coexist, e.g. one per test.
type PrometheusSink struct {
	registry *prometheus.Registry
	counters map[Route]prometheus.Counter
}

func NewPrometheusSink() *PrometheusSink {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	counters := make(map[Route]prometheus.Counter, len(counterSpecs))
	for _, cs := range counterSpecs {
		c := prometheus.NewCounter(prometheus.CounterOpts{Name: cs.name, Help: cs.help})
		reg.MustRegister(c)
		counters[cs.route] = c
	}

	return &PrometheusSink{registry: reg, counters: counters}
}

// Inc ignores routes without a counter.
func (s *PrometheusSink) Inc(route Route) {
	if c, ok := s.counters[route]; ok {
		c.Inc()
	}
}

// Counter returns the collector behind route, or nil.
func (s *PrometheusSink) Counter(route Route) prometheus.Counter {
	return s.counters[route]
}

func (s *PrometheusSink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry})
}

var _ Sink = (*PrometheusSink)(nil)
