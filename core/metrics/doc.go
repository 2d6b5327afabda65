// Package metrics defines the sinks ranking operations report to. Sinks
// like PromSink and InfluxSink live in infra/metrics and can be combined
// with NewMultiSink there.
package metrics
