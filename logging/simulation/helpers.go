package simulation

import (
	"context"

	"github.com/mjcole76/octochase/logging"
)

const (
	// EventLowPerformance is emitted when the loop drops to its reduced frame rate.
	EventLowPerformance logging.EventType = "loop.low_performance"
	// EventClamped is emitted when the loop discards elapsed time beyond its catch-up budget.
	EventClamped logging.EventType = "loop.clamped"
)

// LowPerformancePayload captures the timing that triggered the switch.
type LowPerformancePayload struct {
	MeanStepMicros int64   `json:"meanStepMicros"`
	BudgetMicros   int64   `json:"budgetMicros"`
	Ratio          float64 `json:"ratio"`
	TickRate       int     `json:"tickRate"`
}

// ClampedPayload captures how much wall time the loop skipped.
type ClampedPayload struct {
	ElapsedMillis int64 `json:"elapsedMillis"`
	ClampedMillis int64 `json:"clampedMillis"`
	MaxTicks      int   `json:"maxTicks"`
}

// LowPerformance publishes a warning when the loop lowers its tick rate.
func LowPerformance(ctx context.Context, pub logging.Publisher, tick uint64, payload LowPerformancePayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventLowPerformance,
		Tick:     tick,
		Severity: logging.SeverityWarn,
		Category: "simulation",
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// Clamped publishes a debug event when catch-up time was discarded.
func Clamped(ctx context.Context, pub logging.Publisher, tick uint64, payload ClampedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventClamped,
		Tick:     tick,
		Severity: logging.SeverityDebug,
		Category: "simulation",
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
