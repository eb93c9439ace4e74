// Package prometheus exposes Engine metrics as a prometheus.Collector.
//
// [NewPrometheusExporter] accepts a navguard.Engine. Register the exporter on
// any registry, or mount [PrometheusExporter.Handler] for a standalone
// endpoint. Counter names are prefixed navguard_*_total; the single histogram
// is navguard_guard_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry.
//   - Mutate engine state.
package prometheus
