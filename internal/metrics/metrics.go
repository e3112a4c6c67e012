package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsDispatched counts envelopes accepted by the platform.
	EventsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_events_dispatched_total",
		Help: "Events accepted by the conversions endpoint",
	}, []string{"event_name"})

	// EventsSuppressed counts events the gate refused before any network
	// call (missing config, no consent, duplicate, no identity signal).
	EventsSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_events_suppressed_total",
		Help: "Events rejected by the dispatch gate",
	}, []string{"event_name", "reason"})

	// EventsFailed counts dispatches that reached the network and failed.
	EventsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_events_failed_total",
		Help: "Dispatches that failed after leaving the gate",
	}, []string{"event_name", "class"})
)
