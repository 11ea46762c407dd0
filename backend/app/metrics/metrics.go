// Package metrics exposes the server's prometheus collectors on a private
// registry, served at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fleetpulse"

var (
	Registry = prometheus.NewRegistry()

	HeartbeatsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "heartbeats_total",
		Help: "Heartbeats accepted.",
	})
	HeartbeatsRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "heartbeats_rejected_total",
		Help: "Heartbeats rejected as malformed.",
	})
	CommandsEnqueued = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "commands_enqueued_total",
		Help: "Commands queued for agents.",
	})
	CommandsAcked = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "commands_acked_total",
		Help: "Commands acknowledged, by reported outcome.",
	}, []string{"success"})
	AckConflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "command_ack_conflicts_total",
		Help: "Acknowledgements rejected because the command was already acked.",
	})
	AuthFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "auth_failures_total",
		Help: "Requests rejected by the auth gate.",
	})
	DevicesOnline = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "devices_online",
		Help: "Devices online as of the last offline sweep.",
	})
	StatusChanges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "device_status_changes_total",
		Help: "Online/offline transitions observed by the sweeper.",
	}, []string{"to"})
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "http_requests_total",
		Help: "HTTP requests by route pattern, method and status code.",
	}, []string{"route", "method", "code"})
	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Name: "http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})
)

func init() {
	Registry.MustRegister(
		HeartbeatsTotal, HeartbeatsRejected,
		CommandsEnqueued, CommandsAcked, AckConflicts,
		AuthFailures, DevicesOnline, StatusChanges,
		HTTPRequests, HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
