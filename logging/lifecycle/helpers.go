package lifecycle

import (
	"context"

	"github.com/mjcole76/octochase/logging"
)

const (
	// EventSessionStarted is emitted when a simulation session is created.
	EventSessionStarted logging.EventType = "session.started"
	// EventSessionResults is emitted once per run with the final results.
	EventSessionResults logging.EventType = "session.results"
	// EventSessionClosed is emitted when a session is removed from the hub.
	EventSessionClosed logging.EventType = "session.closed"
)

// SessionStartedPayload captures the parameters a session was created with.
type SessionStartedPayload struct {
	Mode  string `json:"mode"`
	Level int    `json:"level"`
	Seed  string `json:"seed"`
}

// SessionClosedPayload captures the reason a session left the hub.
type SessionClosedPayload struct {
	Reason string `json:"reason"`
}

// SessionStarted publishes a session creation event.
func SessionStarted(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SessionStartedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventSessionStarted,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: "lifecycle",
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// SessionResults publishes the final results of a run. The payload is the
// results value itself so sinks record every field.
func SessionResults(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload any, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventSessionResults,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: "lifecycle",
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// SessionClosed publishes a session removal event.
func SessionClosed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SessionClosedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventSessionClosed,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: "lifecycle",
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
