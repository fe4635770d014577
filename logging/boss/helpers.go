package boss

import (
	"context"

	"github.com/mjcole76/octochase/logging"
)

const (
	EventSpawned  logging.EventType = "boss.spawned"
	EventDamaged  logging.EventType = "boss.damaged"
	EventDefeated logging.EventType = "boss.defeated"
)

type SpawnedPayload struct {
	Type   string  `json:"type"`
	Name   string  `json:"name"`
	Health float64 `json:"health"`
}

type DamagedPayload struct {
	Amount float64 `json:"amount"`
	Health float64 `json:"health"`
	Phase  int     `json:"phase"`
}

type DefeatedPayload struct {
	Type   string  `json:"type"`
	Reward float64 `json:"reward"`
}

func Spawned(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SpawnedPayload, extra map[string]any) {
	publish(ctx, pub, tick, EventSpawned, logging.SeverityInfo, actor, payload, extra)
}

// Damaged publishes a dash strike that landed on the boss.
func Damaged(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload DamagedPayload, extra map[string]any) {
	publish(ctx, pub, tick, EventDamaged, logging.SeverityDebug, actor, payload, extra)
}

func Defeated(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload DefeatedPayload, extra map[string]any) {
	publish(ctx, pub, tick, EventDefeated, logging.SeverityInfo, actor, payload, extra)
}

func publish(ctx context.Context, pub logging.Publisher, tick uint64, eventType logging.EventType, severity logging.Severity, actor logging.EntityRef, payload any, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     eventType,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{logging.AvatarRef()},
		Severity: severity,
		Category: "boss",
		Payload:  payload,
		Extra:    extra,
	})
}
