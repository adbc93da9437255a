// Package otel publishes authgate engine metrics through an OpenTelemetry
// metric.Meter.
//
// [NewObserver] creates one Int64ObservableCounter per engine counter and a
// pair of gauges per histogram (cumulative buckets keyed by "le", plus a
// count). A single callback reads the engine snapshot on each collection.
// The caller owns the MeterProvider.
package otel
