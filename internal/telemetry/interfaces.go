package telemetry

import (
	"log"

	"github.com/mjcole76/octochase/logging"
)

// Counter names shared by the loop, hub and transport.
const (
	MetricTicks            = "sim_ticks_total"
	MetricTicksClamped     = "sim_ticks_clamped_total"
	MetricLowPerformance   = "sim_low_performance_switches_total"
	MetricCommandsDropped  = "sim_commands_dropped_total"
	MetricSessionsActive   = "hub_sessions_active"
	MetricSessionsTotal    = "hub_sessions_created_total"
	MetricSnapshotsSent    = "hub_snapshots_sent_total"
	MetricSnapshotErrors   = "hub_snapshot_write_errors_total"
	MetricSnapshotsDropped = "hub_snapshots_dropped_total"
)

// Logger is the operational logging surface used by hosts and the loop.
type Logger interface {
	Printf(format string, args ...any)
}

// LoggerFunc adapts functions into the Logger interface.
type LoggerFunc func(format string, args ...any)

// Printf implements Logger for LoggerFunc.
func (f LoggerFunc) Printf(format string, args ...any) {
	if f == nil {
		return
	}
	f(format, args...)
}

// WrapLogger adapts a standard library logger to the Logger interface.
func WrapLogger(logger *log.Logger) Logger {
	return &loggerAdapter{logger: logger}
}

type loggerAdapter struct {
	logger *log.Logger
}

func (l *loggerAdapter) Printf(format string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Printf(format, args...)
}

// StandardLogger exposes the wrapped logger for components that need a
// *log.Logger, such as the logging router fallback.
func (l *loggerAdapter) StandardLogger() *log.Logger {
	if l == nil {
		return nil
	}
	return l.logger
}

// NopLogger discards everything.
func NopLogger() Logger {
	return LoggerFunc(func(string, ...any) {})
}

// Metrics is the counter surface used by hosts and the loop.
type Metrics interface {
	Add(key string, delta uint64)
	Store(key string, value uint64)
}

// WrapMetrics adapts the logging router metrics into the Metrics interface.
func WrapMetrics(metrics *logging.Metrics) Metrics {
	return &metricsAdapter{metrics: metrics}
}

type metricsAdapter struct {
	metrics *logging.Metrics
}

func (m *metricsAdapter) Add(key string, delta uint64) {
	if m == nil || m.metrics == nil {
		return
	}
	m.metrics.TelemetryAdd(key, delta)
}

func (m *metricsAdapter) Store(key string, value uint64) {
	if m == nil || m.metrics == nil {
		return
	}
	m.metrics.TelemetryStore(key, value)
}

type nopMetrics struct{}

func (nopMetrics) Add(string, uint64)   {}
func (nopMetrics) Store(string, uint64) {}

// NopMetrics drops every update.
func NopMetrics() Metrics {
	return nopMetrics{}
}
