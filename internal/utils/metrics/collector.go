// internal/utils/metrics/collector.go
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rovshanmuradov/swap-router/internal/errs"
)

const namespace = "swap_router"

// Collector управляет набором метрик роутера. Каждый коллектор
// регистрируется в собственном реестре.
type Collector struct {
	registry *prometheus.Registry

	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	routeOutput       *prometheus.CounterVec
	platformFees      *prometheus.CounterVec
	openOrders        prometheus.Gauge
	keeperScans       *prometheus.CounterVec
}

// NewCollector создает коллектор и регистрирует метрики
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Total number of operations by outcome",
			},
			[]string{"operation", "status", "kind"},
		),
		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Operation duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
			},
			[]string{"operation"},
		),
		routeOutput: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "route_output_total",
				Help:      "Realized route output in base units",
			},
			[]string{"mint"},
		),
		platformFees: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "platform_fees_total",
				Help:      "Platform fees retained in output vaults",
			},
			[]string{"mint"},
		),
		openOrders: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "open_orders",
				Help:      "Open limit orders seen by the last keeper scan",
			},
		),
		keeperScans: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "keeper_orders_total",
				Help:      "Orders evaluated by the keeper by decision",
			},
			[]string{"decision"},
		),
	}
	c.registry.MustRegister(
		c.operations,
		c.operationDuration,
		c.routeOutput,
		c.platformFees,
		c.openOrders,
		c.keeperScans,
	)
	return c
}

// Registry returns the registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler returns an HTTP handler serving the metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordOperation записывает исход и длительность операции
func (c *Collector) RecordOperation(operation string, duration time.Duration, err error) {
	status, kind := "success", ""
	if err != nil {
		status, kind = "failure", string(errs.KindOf(err))
	}
	c.operations.WithLabelValues(operation, status, kind).Inc()
	c.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordRoute records the realized output and fee of one route.
func (c *Collector) RecordRoute(outputMint string, realized, fee uint64) {
	c.routeOutput.WithLabelValues(outputMint).Add(float64(realized))
	c.platformFees.WithLabelValues(outputMint).Add(float64(fee))
}

// SetOpenOrders sets the open order gauge.
func (c *Collector) SetOpenOrders(n int) {
	c.openOrders.Set(float64(n))
}

// RecordKeeperDecision counts one keeper decision (filled, skipped, expired, failed).
func (c *Collector) RecordKeeperDecision(decision string) {
	c.keeperScans.WithLabelValues(decision).Inc()
}
