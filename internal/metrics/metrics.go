// Package metrics exposes prometheus collectors for booking outcomes,
// document transitions and flat inventory.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Shivanand-hulikatti/bto-housing/internal/model"
)

const namespace = "bto"

// Booking outcomes.
const (
	OutcomeBooked     = "booked"
	OutcomeRejected   = "rejected"
	OutcomeRolledBack = "rolled_back"
)

// Collector holds the engine's collectors on a private registry. A nil
// *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	bookings       *prometheus.CounterVec
	rollbacks      prometheus.Counter
	transitions    *prometheus.CounterVec
	remainingUnits *prometheus.GaugeVec
}

// NewCollector creates a collector with its own registry, including the Go
// runtime and process collectors.
func NewCollector() *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}

	c.bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_total",
			Help:      "Flat booking attempts by outcome",
		},
		[]string{"outcome"},
	)
	c.rollbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "booking_rollbacks_total",
		Help:      "Bookings compensated after a failed persistence step",
	})
	c.transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_transitions_total",
			Help:      "Committed document status transitions",
		},
		[]string{"kind", "status"},
	)
	c.remainingUnits = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "remaining_units",
			Help:      "Remaining flat units per project and flat type",
		},
		[]string{"project", "flat_type"},
	)

	c.registry.MustRegister(
		c.bookings,
		c.rollbacks,
		c.transitions,
		c.remainingUnits,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordBooking counts one booking attempt.
func (c *Collector) RecordBooking(outcome string) {
	if c == nil {
		return
	}
	c.bookings.WithLabelValues(outcome).Inc()
}

// RecordRollback counts one compensated booking.
func (c *Collector) RecordRollback() {
	if c == nil {
		return
	}
	c.rollbacks.Inc()
}

// RecordTransition counts a document reaching status.
func (c *Collector) RecordTransition(kind model.Kind, status model.Status) {
	if c == nil {
		return
	}
	c.transitions.WithLabelValues(string(kind), string(status)).Inc()
}

// RecordInventory sets the remaining-units gauge for every flat type p
// tracks.
func (c *Collector) RecordInventory(p *model.Project) {
	if c == nil || p == nil {
		return
	}
	for t, n := range p.RemainingUnits {
		c.remainingUnits.WithLabelValues(p.Name, string(t)).Set(float64(n))
	}
}

// ForgetProject drops the inventory series of a deleted project.
func (c *Collector) ForgetProject(name string) {
	if c == nil {
		return
	}
	c.remainingUnits.DeletePartialMatch(prometheus.Labels{"project": name})
}
