// Package metrics defines the Prometheus collectors exported by the server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the server's collectors. A nil *Metrics is valid and records
// nothing, which keeps tests and tools free of registry setup.
type Metrics struct {
	rpcRequests  *prometheus.CounterVec
	rpcDuration  *prometheus.HistogramVec
	transactions prometheus.Histogram
	transfers    prometheus.Histogram
	feedEvents   *prometheus.CounterVec
	watchers     prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		rpcRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "splitroom_rpc_requests_total",
			Help: "RPC calls by procedure and result code",
		}, []string{"procedure", "code"}),
		rpcDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "splitroom_rpc_duration_seconds",
			Help:    "RPC handling time",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"procedure"}),
		transactions: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "splitroom_balance_transactions",
			Help:    "Transactions folded per balance computation",
			Buckets: prometheus.ExponentialBuckets(1, 4, 6),
		}),
		transfers: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "splitroom_settlement_transfers",
			Help:    "Transfers in each computed settlement plan",
			Buckets: prometheus.LinearBuckets(0, 2, 10),
		}),
		feedEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "splitroom_feed_events_total",
			Help: "Change events published by type and outcome",
		}, []string{"type", "outcome"}),
		watchers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "splitroom_active_watchers",
			Help: "Open WatchRoom streams",
		}),
	}
}

// ObserveRPC records one finished RPC.
func (m *Metrics) ObserveRPC(procedure, code string, seconds float64) {
	if m == nil {
		return
	}
	m.rpcRequests.WithLabelValues(procedure, code).Inc()
	m.rpcDuration.WithLabelValues(procedure).Observe(seconds)
}

// ObserveSettlement records the size of one balance computation and its plan.
func (m *Metrics) ObserveSettlement(transactions, transfers int) {
	if m == nil {
		return
	}
	m.transactions.Observe(float64(transactions))
	m.transfers.Observe(float64(transfers))
}

// ObserveFeedEvent records a publish attempt.
func (m *Metrics) ObserveFeedEvent(eventType string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.feedEvents.WithLabelValues(eventType, outcome).Inc()
}

// WatcherStarted increments the open stream gauge and returns the matching
// decrement.
func (m *Metrics) WatcherStarted() (done func()) {
	if m == nil {
		return func() {}
	}
	m.watchers.Inc()
	return m.watchers.Dec
}
