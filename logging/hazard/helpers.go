package hazard

import (
	"context"

	"github.com/mjcole76/octochase/logging"
)

const (
	// EventEffectApplied is emitted when a hazard effect lands on the avatar.
	EventEffectApplied logging.EventType = "hazard.effect_applied"
	// EventEffectSuppressed is emitted when an overlapping hazard had no effect.
	EventEffectSuppressed logging.EventType = "hazard.effect_suppressed"
)

// EffectPayload describes the winning hazard effect for a frame.
type EffectPayload struct {
	Hazard     string `json:"hazard"`
	Effect     string `json:"effect"`
	DurationMs int64  `json:"durationMs,omitempty"`
	Amount     int    `json:"amount,omitempty"`
	Overlaps   int    `json:"overlaps"`
	Reason     string `json:"reason,omitempty"`
}

// EffectApplied publishes a hazard effect application.
func EffectApplied(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload EffectPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventEffectApplied,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{logging.AvatarRef()},
		Severity: logging.SeverityInfo,
		Category: "hazard",
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// EffectSuppressed publishes a debug event for a blocked hazard effect.
func EffectSuppressed(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload EffectPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventEffectSuppressed,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{logging.AvatarRef()},
		Severity: logging.SeverityDebug,
		Category: "hazard",
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
