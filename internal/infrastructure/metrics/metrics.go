// Package metrics exposes fulfillment, ledger and stock-health metrics to
// Prometheus.
package metrics

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/boxstock/backend/internal/domain/fulfillment"
	"github.com/boxstock/backend/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "boxstock"

var urgencies = []inventory.Urgency{
	inventory.UrgencyCritical,
	inventory.UrgencyWarning,
	inventory.UrgencyAttention,
	inventory.UrgencyNormal,
}

// Metrics holds every business metric. It implements the metrics sinks of
// the ledger, order, stock-health and stagnant-return services and of the
// Kafka relay.
type Metrics struct {
	registry *prometheus.Registry

	OrderTransitions   *prometheus.CounterVec
	OrdersWaitingStock prometheus.Gauge
	Reservations       *prometheus.CounterVec
	LockWait           prometheus.Histogram
	StockHealth        *prometheus.GaugeVec
	ReturnsFlagged     *prometheus.CounterVec
	KafkaPublished     *prometheus.CounterVec
	JobsExecuted       *prometheus.CounterVec
	JobDuration        *prometheus.HistogramVec
}

// New creates the metrics and registers them, with the Go and process
// collectors, on a private registry
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.OrderTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transitions_total",
			Help:      "Order state machine transitions",
		},
		[]string{"from", "to", "action"},
	)

	m.OrdersWaitingStock = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "orders_waiting_stock",
			Help:      "Orders currently parked in WAITING_STOCK",
		},
	)

	m.Reservations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_reservations_total",
			Help:      "Reserve calls by outcome",
		},
		[]string{"outcome"},
	)

	m.LockWait = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ledger_lock_wait_seconds",
			Help:      "Time spent acquiring a stock row lock",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	m.StockHealth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stock_health_products",
			Help:      "Stock records per warehouse by urgency, as of the last snapshot",
		},
		[]string{"warehouse_id", "urgency"},
	)

	m.ReturnsFlagged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stagnant_returns_flagged_total",
			Help:      "Stagnant returns opened by urgency",
		},
		[]string{"urgency"},
	)

	m.KafkaPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_events_published_total",
			Help:      "Domain events relayed to Kafka by topic and outcome",
		},
		[]string{"topic", "outcome"},
	)

	m.JobsExecuted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_jobs_total",
			Help:      "Scheduler job runs by type and outcome",
		},
		[]string{"job_type", "outcome"},
	)

	m.JobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scheduler_job_duration_seconds",
			Help:      "Scheduler job run time",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		},
		[]string{"job_type"},
	)

	registry.MustRegister(
		m.OrderTransitions,
		m.OrdersWaitingStock,
		m.Reservations,
		m.LockWait,
		m.StockHealth,
		m.ReturnsFlagged,
		m.KafkaPublished,
		m.JobsExecuted,
		m.JobDuration,
	)
	return m
}

// Handler returns the HTTP handler serving the registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RegisterDB exports connection pool stats for db under the given name
func (m *Metrics) RegisterDB(db *sql.DB, name string) error {
	return m.registry.Register(collectors.NewDBStatsCollector(db, name))
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveTransition counts a transition and keeps the waiting-stock gauge
// in step with orders entering and leaving WAITING_STOCK
func (m *Metrics) ObserveTransition(from, to fulfillment.OrderStatus, action fulfillment.OrderAction) {
	m.OrderTransitions.WithLabelValues(string(from), string(to), string(action)).Inc()
	if from == to {
		return
	}
	if to == fulfillment.StatusWaitingStock {
		m.OrdersWaitingStock.Inc()
	}
	if from == fulfillment.StatusWaitingStock {
		m.OrdersWaitingStock.Dec()
	}
}

// SetWaitingStock resets the waiting-stock gauge from a full count
func (m *Metrics) SetWaitingStock(n int) {
	m.OrdersWaitingStock.Set(float64(n))
}

// ObserveReservation counts a Reserve call
func (m *Metrics) ObserveReservation(outcome string) {
	m.Reservations.WithLabelValues(outcome).Inc()
}

// ObserveLockWait records row lock acquisition time
func (m *Metrics) ObserveLockWait(d time.Duration) {
	m.LockWait.Observe(d.Seconds())
}

// SetStockHealth replaces a warehouse's urgency counts. Missing tiers are
// reported as zero.
func (m *Metrics) SetStockHealth(warehouseID uuid.UUID, counts map[inventory.Urgency]int) {
	id := warehouseID.String()
	for _, u := range urgencies {
		m.StockHealth.WithLabelValues(id, string(u)).Set(float64(counts[u]))
	}
}

// ObserveReturnFlagged counts an opened stagnant return
func (m *Metrics) ObserveReturnFlagged(urgency inventory.ReturnUrgency) {
	m.ReturnsFlagged.WithLabelValues(string(urgency)).Inc()
}

// ObserveKafkaPublish counts a relayed event
func (m *Metrics) ObserveKafkaPublish(topic, outcome string) {
	m.KafkaPublished.WithLabelValues(topic, outcome).Inc()
}

// ObserveJob records one scheduler job run
func (m *Metrics) ObserveJob(jobType, outcome string, d time.Duration) {
	m.JobsExecuted.WithLabelValues(jobType, outcome).Inc()
	m.JobDuration.WithLabelValues(jobType).Observe(d.Seconds())
}
