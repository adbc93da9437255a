// Package prometheus exposes authgate engine metrics to Prometheus.
//
// [Collector] implements prometheus.Collector and reads
// [authgate.Engine.MetricsSnapshot] on each scrape. Counter names are
// authgate_*_total; the single histogram is authgate_validate_latency_seconds.
// Callers register the collector themselves or mount [Handler].
package prometheus
