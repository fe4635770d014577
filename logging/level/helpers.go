package level

import (
	"context"

	"github.com/mjcole76/octochase/logging"
)

const (
	// EventCheckpoint is emitted once when the level checkpoint time passes.
	EventCheckpoint logging.EventType = "level.checkpoint"
	// EventComplete is emitted when the level is finished successfully.
	EventComplete logging.EventType = "level.complete"
	// EventGameOver is emitted when the mode declares the run over.
	EventGameOver logging.EventType = "level.game_over"
)

// ProgressPayload captures level progress at the moment of the event.
type ProgressPayload struct {
	Level     int     `json:"level"`
	ElapsedMs int64   `json:"elapsedMs"`
	Score     float64 `json:"score"`
	Medal     string  `json:"medal,omitempty"`
	Reason    string  `json:"reason,omitempty"`
}

func Checkpoint(ctx context.Context, pub logging.Publisher, tick uint64, payload ProgressPayload, extra map[string]any) {
	publish(ctx, pub, tick, EventCheckpoint, logging.SeverityInfo, payload, extra)
}

func Complete(ctx context.Context, pub logging.Publisher, tick uint64, payload ProgressPayload, extra map[string]any) {
	publish(ctx, pub, tick, EventComplete, logging.SeverityInfo, payload, extra)
}

func GameOver(ctx context.Context, pub logging.Publisher, tick uint64, payload ProgressPayload, extra map[string]any) {
	publish(ctx, pub, tick, EventGameOver, logging.SeverityWarn, payload, extra)
}

func publish(ctx context.Context, pub logging.Publisher, tick uint64, eventType logging.EventType, severity logging.Severity, payload ProgressPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     eventType,
		Tick:     tick,
		Actor:    logging.AvatarRef(),
		Severity: severity,
		Category: "level",
		Payload:  payload,
		Extra:    extra,
	})
}
