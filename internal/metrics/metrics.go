// Package metrics registers the engine's Prometheus collectors and exposes
// small helpers so domain code can record outcomes without carrying a
// Metrics handle.  The helpers are safe no-ops until Init runs, which
// keeps unit tests free of registry bookkeeping.
package metrics

import (
    "github.com/prometheus/client_golang/prometheus"
)

// Metrics groups every collector the engine maintains.
type Metrics struct {
    // Hold attempts by outcome (accepted, conflict).
    HoldsTotal *prometheus.CounterVec

    // Sessions expired by the sweeper since start.
    SweeperExpiredTotal prometheus.Counter

    // Hold sessions currently ACTIVE or FINALIZED.
    ActiveHoldSessions prometheus.Gauge

    // Websocket subscribers currently registered with the hub.
    HubSubscribers prometheus.Gauge

    // HTTP requests by method, path and status code.
    HTTPRequestsTotal *prometheus.CounterVec

    // HTTP request latency by method and path.
    HTTPRequestDuration *prometheus.HistogramVec
}

// NewWithRegistry registers all collectors with the given registry.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
    m := &Metrics{
        HoldsTotal: prometheus.NewCounterVec(
            prometheus.CounterOpts{
                Name: "seat_holds_total",
                Help: "Total number of seat hold attempts by outcome",
            },
            []string{"outcome"},
        ),
        SweeperExpiredTotal: prometheus.NewCounter(
            prometheus.CounterOpts{
                Name: "sweeper_expired_sessions_total",
                Help: "Hold sessions expired by the TTL sweeper",
            },
        ),
        ActiveHoldSessions: prometheus.NewGauge(
            prometheus.GaugeOpts{
                Name: "active_hold_sessions",
                Help: "Hold sessions currently open",
            },
        ),
        HubSubscribers: prometheus.NewGauge(
            prometheus.GaugeOpts{
                Name: "hub_subscribers",
                Help: "Websocket subscribers currently connected",
            },
        ),
        HTTPRequestsTotal: prometheus.NewCounterVec(
            prometheus.CounterOpts{
                Name: "http_requests_total",
                Help: "Total number of HTTP requests",
            },
            []string{"method", "path", "status_code"},
        ),
        HTTPRequestDuration: prometheus.NewHistogramVec(
            prometheus.HistogramOpts{
                Name:    "http_request_duration_seconds",
                Help:    "HTTP request latency in seconds",
                Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
            },
            []string{"method", "path"},
        ),
    }
    reg.MustRegister(
        m.HoldsTotal,
        m.SweeperExpiredTotal,
        m.ActiveHoldSessions,
        m.HubSubscribers,
        m.HTTPRequestsTotal,
        m.HTTPRequestDuration,
    )
    return m
}

var defaultMetrics *Metrics

// Init registers the collectors with the default registry and installs
// them as the package default.  Called once from main.
func Init() *Metrics {
    defaultMetrics = NewWithRegistry(prometheus.DefaultRegisterer)
    return defaultMetrics
}

// Get returns the default instance, or nil before Init.
func Get() *Metrics { return defaultMetrics }

// Recording helpers.  Each is a no-op when Init has not run.

func HoldAccepted() {
    if defaultMetrics != nil {
        defaultMetrics.HoldsTotal.WithLabelValues("accepted").Inc()
    }
}

func HoldConflict() {
    if defaultMetrics != nil {
        defaultMetrics.HoldsTotal.WithLabelValues("conflict").Inc()
    }
}

func SessionOpened() {
    if defaultMetrics != nil {
        defaultMetrics.ActiveHoldSessions.Inc()
    }
}

func SessionClosed() {
    if defaultMetrics != nil {
        defaultMetrics.ActiveHoldSessions.Dec()
    }
}

func SessionExpired() {
    if defaultMetrics != nil {
        defaultMetrics.SweeperExpiredTotal.Inc()
    }
}

func SubscriberAdded() {
    if defaultMetrics != nil {
        defaultMetrics.HubSubscribers.Inc()
    }
}

func SubscriberRemoved() {
    if defaultMetrics != nil {
        defaultMetrics.HubSubscribers.Dec()
    }
}
