// Package metrics defines the sinks that record calculation and sensitivity
// runs. Implementations (Prometheus, InfluxDB) live in infra/metrics and
// register themselves with the sink registry; several configured sinks are
// combined into a MultiSink.
package metrics
