// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collision stages.
const (
	StagePrecheck = "precheck"
	StageInsert   = "insert"
)

// Redirect results.
const (
	ResultFound    = "found"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// Consumed event outcomes.
const (
	EventAcked        = "acked"
	EventDecodeFailed = "decode_failed"
	EventHandlerError = "handler_failed"
)

var (
	LinksCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shortener_links_created_total",
		Help: "Links created.",
	})
	CodeCollisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shortener_code_collisions_total",
		Help: "Generated codes that were already in use.",
	}, []string{"stage"})
	Redirects = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shortener_redirects_total",
		Help: "Redirect requests by outcome.",
	}, []string{"result"})
	ClicksRecorded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shortener_clicks_recorded_total",
		Help: "Click events persisted.",
	})
	EventsPublishFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shortener_events_publish_failed_total",
		Help: "Analytics events that could not be published.",
	}, []string{"topic"})
	CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shortener_cache_lookups_total",
		Help: "Link cache lookups by outcome.",
	}, []string{"outcome"})
	EventsConsumed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shortener_events_consumed_total",
		Help: "Analytics events taken off the bus by outcome.",
	}, []string{"topic", "outcome"})
)

func init() {
	prometheus.MustRegister(LinksCreated, CodeCollisions, Redirects, ClicksRecorded, EventsPublishFailed, CacheLookups,
		EventsConsumed)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
