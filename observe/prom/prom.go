package prom

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/NetPo4ki/go-permits/permits"
)

// Observer exports pool activity through prometheus/client_golang. It
// implements the permits.Observer interface; attach it with
// permits.WithObserver. Every metric carries a pool label so one registry
// can host several pools side by side.
type Observer struct {
	acquired prometheus.Counter
	released prometheus.Counter
	blocked  prometheus.Counter
	aborted  *prometheus.CounterVec
	wait     prometheus.Histogram
}

// New builds an Observer whose metrics are registered with reg and labeled
// with the pool name. It panics on duplicate registration, like promauto.
func New(reg prometheus.Registerer, name string) *Observer {
	f := promauto.With(reg)
	labels := prometheus.Labels{"pool": name}
	return &Observer{
		acquired: f.NewCounter(prometheus.CounterOpts{
			Name:        "permits_acquired_total",
			Help:        "Permits handed out, by weight.",
			ConstLabels: labels,
		}),
		released: f.NewCounter(prometheus.CounterOpts{
			Name:        "permits_released_total",
			Help:        "Permits returned, by weight.",
			ConstLabels: labels,
		}),
		blocked: f.NewCounter(prometheus.CounterOpts{
			Name:        "permits_blocked_total",
			Help:        "Acquires that had to queue before being served.",
			ConstLabels: labels,
		}),
		aborted: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "permits_aborted_total",
			Help:        "Acquires that returned an error instead of permits.",
			ConstLabels: labels,
		}, []string{"reason"}),
		wait: f.NewHistogram(prometheus.HistogramOpts{
			Name:        "permits_acquire_wait_seconds",
			Help:        "Time spent waiting for permits to become free.",
			ConstLabels: labels,
		}),
	}
}

// PoolCreated is a no-op; pool geometry is exported by NewPoolCollector.
func (o *Observer) PoolCreated(int64) {}

// Blocked records an acquire that queued behind a drained pool.
func (o *Observer) Blocked(_ context.Context, _ int64) { o.blocked.Inc() }

// Acquired records granted permits and the time spent waiting for them.
func (o *Observer) Acquired(_ context.Context, n int64, wait time.Duration) {
	o.acquired.Add(float64(n))
	o.wait.Observe(wait.Seconds())
}

// Aborted records a failed acquire, split by whether the caller gave up or
// the request could never be satisfied.
func (o *Observer) Aborted(_ context.Context, _ int64, err error) {
	reason := "canceled"
	if errors.Is(err, permits.ErrInvalidRequest) {
		reason = "invalid"
	}
	o.aborted.WithLabelValues(reason).Inc()
}

// Released records permits returned to the pool.
func (o *Observer) Released(n int64) { o.released.Add(float64(n)) }

// PoolCollector exports point-in-time pool state. Unlike Observer it is not
// hooked into the pool: Collect reads the live counts at scrape time, so no
// activity is required for the gauges to stay current.
type PoolCollector struct {
	pool      *permits.Pool
	available *prometheus.Desc
	inUse     *prometheus.Desc
	capacity  *prometheus.Desc
}

// NewPoolCollector returns a collector exporting available, in-use, and
// capacity gauges for p, labeled with the pool's name.
func NewPoolCollector(p *permits.Pool) *PoolCollector {
	labels := prometheus.Labels{"pool": p.Name()}
	return &PoolCollector{
		pool:      p,
		available: prometheus.NewDesc("permits_available", "Permits currently free.", nil, labels),
		inUse:     prometheus.NewDesc("permits_in_use", "Permits currently held.", nil, labels),
		capacity:  prometheus.NewDesc("permits_capacity", "Total permits the pool was created with.", nil, labels),
	}
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.available
	ch <- c.inUse
	ch <- c.capacity
}

// Collect implements prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.available, prometheus.GaugeValue, float64(c.pool.Available()))
	ch <- prometheus.MustNewConstMetric(c.inUse, prometheus.GaugeValue, float64(c.pool.InUse()))
	ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(c.pool.Capacity()))
}
