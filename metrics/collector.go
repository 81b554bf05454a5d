// Package metrics exposes per-handler Prometheus metrics: queue depth
// gauges, a dead-lettered gauge, processed/failed counters, and cron fire
// counts.
// Grounded on ChuLiYu-raft-recovery's internal/metrics/metrics.go Collector.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector wraps a set of handler-scoped Prometheus metrics, labeled by
// the handler's full name ("Package/Handler/Job").
type Collector struct {
	registry *prometheus.Registry

	available  *prometheus.GaugeVec
	pending    *prometheus.GaugeVec
	finished   *prometheus.GaugeVec
	deadLetter *prometheus.GaugeVec

	processed *prometheus.CounterVec
	failed    *prometheus.CounterVec
	cronFires *prometheus.CounterVec
}

// NewCollector builds and registers a Collector against a fresh registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		available: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "loadedhandler_available_jobs",
			Help: "Current number of jobs in the available queue",
		}, []string{"handler"}),
		pending: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "loadedhandler_pending_jobs",
			Help: "Current number of jobs leased but not yet submitted",
		}, []string{"handler"}),
		finished: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "loadedhandler_finished_jobs",
			Help: "Current number of jobs awaiting ProcessResult",
		}, []string{"handler"}),
		deadLetter: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "loadedhandler_dead_lettered_jobs",
			Help: "Current number of jobs that reached MaxJobFailures",
		}, []string{"handler"}),
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loadedhandler_jobs_processed_total",
			Help: "Total number of jobs successfully submitted",
		}, []string{"handler"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loadedhandler_jobs_failed_total",
			Help: "Total number of failed SubmitResult calls",
		}, []string{"handler"}),
		cronFires: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "loadedhandler_cron_fires_total",
			Help: "Total number of times the cron scheduler started a handler",
		}, []string{"handler"}),
	}

	registry.MustRegister(c.available, c.pending, c.finished, c.deadLetter, c.processed, c.failed, c.cronFires)
	return c
}

// QueueDepths sets the three queue gauges plus the dead-letter count for handlerName.
func (c *Collector) QueueDepths(handlerName string, available, pending, finished, deadLettered int) {
	c.available.WithLabelValues(handlerName).Set(float64(available))
	c.pending.WithLabelValues(handlerName).Set(float64(pending))
	c.finished.WithLabelValues(handlerName).Set(float64(finished))
	c.deadLetter.WithLabelValues(handlerName).Set(float64(deadLettered))
}

// RecordProcessed increments the processed counter for handlerName.
func (c *Collector) RecordProcessed(handlerName string) {
	c.processed.WithLabelValues(handlerName).Inc()
}

// RecordFailed increments the failed counter for handlerName.
func (c *Collector) RecordFailed(handlerName string) {
	c.failed.WithLabelValues(handlerName).Inc()
}

// RecordCronFire increments the cron fire counter for handlerName.
func (c *Collector) RecordCronFire(handlerName string) {
	c.cronFires.WithLabelValues(handlerName).Inc()
}

// Handler returns an HTTP handler exposing the registered metrics in
// Prometheus text format, suitable for mounting at "/metrics".
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
