// Package metrics exposes Prometheus counters for tenant lifecycle operations.
package metrics

import (
	"time"

	"github.com/dalemusser/tenanthub/internal/app/system/apierr"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "tenanthub"
	subsystem = "lifecycle"
)

// Lifecycle holds RED metrics for lifecycle operations plus counters for
// data movement. A nil *Lifecycle records nothing.
type Lifecycle struct {
	reqs     *prometheus.CounterVec
	errs     *prometheus.CounterVec
	durs     *prometheus.HistogramVec
	migrated prometheus.Counter
	orphans  prometheus.Counter
	pending  prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Lifecycle {
	m := &Lifecycle{
		reqs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "call_total",
			Help:      "Number of lifecycle operations attempted",
		}, []string{"operation"}),
		errs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "error_total",
			Help:      "Number of lifecycle operations that failed, by error kind",
		}, []string{"operation", "kind"}),
		durs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "duration_seconds",
			Help:      "Duration of lifecycle operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		migrated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "documents_migrated_total",
			Help:      "Documents copied between tenant collections by renames",
		}),
		orphans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "orphaned_collections_total",
			Help:      "Tenant collections left without an owner by a failed rename or drop",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "unreferenced_collections",
			Help:      "Tenant collections no organization references, as of the last scan",
		}),
	}
	reg.MustRegister(m.reqs, m.errs, m.durs, m.migrated, m.orphans, m.pending)
	return m
}

// Record starts timing op. Call the returned func with the operation's
// error; it records the outcome and returns the error unchanged.
func (m *Lifecycle) Record(op string) func(error) error {
	if m == nil {
		return func(err error) error { return err }
	}
	start := time.Now()
	return func(err error) error {
		m.reqs.WithLabelValues(op).Inc()
		if err != nil {
			m.errs.WithLabelValues(op, string(apierr.KindOf(err))).Inc()
		}
		m.durs.WithLabelValues(op).Observe(time.Since(start).Seconds())
		return err
	}
}

// Migrated adds n to the migrated-documents counter.
func (m *Lifecycle) Migrated(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.migrated.Add(float64(n))
}

// Orphaned counts one tenant collection left without an owner.
func (m *Lifecycle) Orphaned() {
	if m == nil {
		return
	}
	m.orphans.Inc()
}

// Unreferenced sets the gauge of unreferenced tenant collections.
func (m *Lifecycle) Unreferenced(n int) {
	if m == nil {
		return
	}
	m.pending.Set(float64(n))
}
