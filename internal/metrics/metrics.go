// Package metrics collects and exposes Prometheus metrics for bidding activity.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector is what the bidding service reports to
type MetricsCollector interface {
	RecordBidAccepted(auctionID string)
	RecordBidRejected(reason string)
	RecordAuctionTransition(phase string)
	RecordPlaceBidLatency(duration time.Duration)
	SetActiveSessions(count int)
}

// Collector is the Prometheus implementation of MetricsCollector
type Collector struct {
	bidsAccepted    prometheus.Counter
	bidsRejected    *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	placeBidLatency prometheus.Histogram
	activeSessions  prometheus.Gauge
}

// NewCollector creates a Collector and registers its metrics on reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		bidsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auction_bids_accepted_total",
			Help: "Number of accepted bids",
		}),
		bidsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auction_bids_rejected_total",
			Help: "Number of rejected bids by reason",
		}, []string{"reason"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auction_terminal_transitions_total",
			Help: "Number of auctions moved into a terminal state",
		}, []string{"state"}),
		placeBidLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "auction_place_bid_latency_seconds",
			Help:    "Time spent deciding and recording a bid",
			Buckets: prometheus.DefBuckets,
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "auction_active_sessions",
			Help: "Number of auction sessions held in memory",
		}),
	}

	reg.MustRegister(
		c.bidsAccepted,
		c.bidsRejected,
		c.transitions,
		c.placeBidLatency,
		c.activeSessions,
	)

	return c
}

func (c *Collector) RecordBidAccepted(auctionID string) {
	c.bidsAccepted.Inc()
}

func (c *Collector) RecordBidRejected(reason string) {
	c.bidsRejected.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordAuctionTransition(state string) {
	c.transitions.WithLabelValues(state).Inc()
}

func (c *Collector) RecordPlaceBidLatency(duration time.Duration) {
	c.placeBidLatency.Observe(duration.Seconds())
}

func (c *Collector) SetActiveSessions(count int) {
	c.activeSessions.Set(float64(count))
}

// NopCollector discards everything
type NopCollector struct{}

func (NopCollector) RecordBidAccepted(string)            {}
func (NopCollector) RecordBidRejected(string)            {}
func (NopCollector) RecordAuctionTransition(string)      {}
func (NopCollector) RecordPlaceBidLatency(time.Duration) {}
func (NopCollector) SetActiveSessions(int)               {}

// Handler returns the Prometheus scrape handler for gatherer
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
