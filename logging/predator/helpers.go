package predator

import (
	"context"

	"github.com/mjcole76/octochase/logging"
)

const (
	// EventStateChanged is emitted whenever a predator changes behaviour state.
	EventStateChanged logging.EventType = "predator.state_changed"
	// EventSpawned is emitted when a predator enters the world after level start.
	EventSpawned logging.EventType = "predator.spawned"
)

// StateChangedPayload captures a single state machine edge.
type StateChangedPayload struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	AlertLevel float64 `json:"alertLevel"`
	Distance   float64 `json:"distance"`
}

// SpawnedPayload describes where and why a predator appeared.
type SpawnedPayload struct {
	Type   string  `json:"type"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Reason string  `json:"reason"`
}

// StateChanged publishes a predator transition event.
func StateChanged(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload StateChangedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	severity := logging.SeverityDebug
	if payload.To == "chase" {
		severity = logging.SeverityInfo
	}
	event := logging.Event{
		Type:     EventStateChanged,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{logging.AvatarRef()},
		Severity: severity,
		Category: "predator",
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// Spawned publishes a predator spawn event.
func Spawned(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SpawnedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventSpawned,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: "predator",
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
