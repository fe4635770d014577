// Package events publishes the lifecycle of dynamic world events.
package events

import (
	"context"

	"github.com/mjcole76/octochase/logging"
)

const (
	EventStarted   logging.EventType = "events.started"
	EventCompleted logging.EventType = "events.completed"
)

type StartedPayload struct {
	Event      string  `json:"event"`
	DurationMs int64   `json:"durationMs"`
	Intensity  float64 `json:"intensity"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
}

type CompletedPayload struct {
	Event  string  `json:"event"`
	Reward float64 `json:"reward"`
	Score  float64 `json:"score"`
}

func Started(ctx context.Context, pub logging.Publisher, tick uint64, payload StartedPayload, extra map[string]any) {
	publish(ctx, pub, tick, EventStarted, payload, extra)
}

func Completed(ctx context.Context, pub logging.Publisher, tick uint64, payload CompletedPayload, extra map[string]any) {
	publish(ctx, pub, tick, EventCompleted, payload, extra)
}

func publish(ctx context.Context, pub logging.Publisher, tick uint64, eventType logging.EventType, payload any, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     eventType,
		Tick:     tick,
		Actor:    logging.Ref(logging.EntityKindWorld, "world"),
		Severity: logging.SeverityInfo,
		Category: "events",
		Payload:  payload,
		Extra:    extra,
	})
}
