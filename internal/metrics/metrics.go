// Package metrics holds the prometheus collectors of the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shortlinks"

// Registry is private to the process so tests do not collide with the
// default registerer.
var Registry = prometheus.NewRegistry()

var (
	Redirects = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "redirects_total",
		Help:      "Resolved aliases by outcome.",
	}, []string{"result"})

	LinksCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "links_created_total",
		Help:      "Short links created.",
	})

	ClickEventsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "click_events_dropped_total",
		Help:      "Click events dropped because the worker buffer was full.",
	})

	ClicksPersisted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "clicks_persisted_total",
		Help:      "Click log writes by outcome.",
	}, []string{"result"})

	InaccessibleLinks = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "monitor_inaccessible_links",
		Help:      "Links whose target failed the last health check.",
	})

	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		Redirects,
		LinksCreated,
		ClickEventsDropped,
		ClicksPersisted,
		InaccessibleLinks,
		RequestDuration,
	)
}

// Handler serves Registry in the prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
