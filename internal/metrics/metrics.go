// Package metrics collects and exposes the Prometheus metrics a host
// process scrapes to watch the Dungeon-Finder core: ticket throughput,
// role-check outcomes and duration, current queue depth, and dropped
// notifications.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/stonehall/dungeonfinder/pkg/lfg"
)

// Collector owns every metric this package registers.
type Collector struct {
	ticketsEnqueued prometheus.Counter
	ticketsRemoved  prometheus.Counter

	roleChecksStarted  prometheus.Counter
	roleChecksFinished *prometheus.CounterVec
	roleCheckDuration  prometheus.Histogram

	queueDepth           prometheus.Gauge
	notificationsDropped prometheus.Counter
}

// NewCollector builds and registers the metric set against the default
// Prometheus registry.
func NewCollector() *Collector {
	c := &Collector{
		ticketsEnqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dungeonfinder_tickets_enqueued_total",
			Help: "Total number of tickets inserted into the queue scheduler.",
		}),
		ticketsRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dungeonfinder_tickets_removed_total",
			Help: "Total number of tickets removed from the queue scheduler.",
		}),
		roleChecksStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dungeonfinder_role_checks_started_total",
			Help: "Total number of role checks launched for a group join.",
		}),
		roleChecksFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dungeonfinder_role_checks_finished_total",
			Help: "Total number of role checks that reached a terminal state, by state.",
		}, []string{"state"}),
		roleCheckDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dungeonfinder_role_check_duration_seconds",
			Help:    "Elapsed wall time between a role check's launch and its terminal state.",
			Buckets: []float64{1, 5, 15, 30, 60, 90, 120},
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dungeonfinder_queue_depth",
			Help: "Current number of tickets held by the queue scheduler.",
		}),
		notificationsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dungeonfinder_notifications_dropped_total",
			Help: "Total number of outbound notifications dropped by a full dispatcher channel.",
		}),
	}

	prometheus.MustRegister(
		c.ticketsEnqueued,
		c.ticketsRemoved,
		c.roleChecksStarted,
		c.roleChecksFinished,
		c.roleCheckDuration,
		c.queueDepth,
		c.notificationsDropped,
	)

	return c
}

// RecordTicketEnqueued records a ticket joining the queue.
func (c *Collector) RecordTicketEnqueued() { c.ticketsEnqueued.Inc() }

// RecordTicketRemoved records a ticket leaving the queue, by any path.
func (c *Collector) RecordTicketRemoved() { c.ticketsRemoved.Inc() }

// RecordRoleCheckStarted records a role check being launched.
func (c *Collector) RecordRoleCheckStarted() { c.roleChecksStarted.Inc() }

// RecordRoleCheckFinished records a role check reaching state and the
// elapsed seconds since it launched.
func (c *Collector) RecordRoleCheckFinished(state lfg.RoleCheckState, durationSeconds float64) {
	c.roleChecksFinished.WithLabelValues(state.String()).Inc()
	c.roleCheckDuration.Observe(durationSeconds)
}

// SetQueueDepth sets the current queue depth gauge.
func (c *Collector) SetQueueDepth(depth int) { c.queueDepth.Set(float64(depth)) }

// RecordNotificationDropped records a notification dropped by a full
// dispatcher channel.
func (c *Collector) RecordNotificationDropped() { c.notificationsDropped.Inc() }
