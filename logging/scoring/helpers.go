package scoring

import (
	"context"

	"github.com/mjcole76/octochase/logging"
)

const (
	EventFoodCollected    logging.EventType = "scoring.food_collected"
	EventPredatorHit      logging.EventType = "scoring.predator_hit"
	EventStreakBonus      logging.EventType = "scoring.streak_bonus"
	EventPowerupCollected logging.EventType = "scoring.powerup_collected"
	EventComboReset       logging.EventType = "scoring.combo_reset"
)

type FoodCollectedPayload struct {
	Food    string  `json:"food"`
	Special string  `json:"special,omitempty"`
	Gain    float64 `json:"gain"`
	Combo   int     `json:"combo"`
	Score   float64 `json:"score"`
}

type PredatorHitPayload struct {
	Predator   string `json:"predator"`
	Suppressed bool   `json:"suppressed"`
	Reason     string `json:"reason,omitempty"`
	Lives      int    `json:"lives"`
}

type StreakBonusPayload struct {
	Streak int `json:"streak"`
}

type PowerupCollectedPayload struct {
	Powerup    string `json:"powerup"`
	DurationMs int64  `json:"durationMs"`
	Refreshed  bool   `json:"refreshed"`
}

type ComboResetPayload struct {
	Previous int    `json:"previous"`
	Reason   string `json:"reason"`
}

// FoodCollected publishes a collectible pickup.
func FoodCollected(ctx context.Context, pub logging.Publisher, tick uint64, target logging.EntityRef, payload FoodCollectedPayload, extra map[string]any) {
	publish(ctx, pub, tick, EventFoodCollected, logging.SeverityDebug, target, payload, extra)
}

// PredatorHit publishes a predator collision, including suppressed ones.
func PredatorHit(ctx context.Context, pub logging.Publisher, tick uint64, target logging.EntityRef, payload PredatorHitPayload, extra map[string]any) {
	severity := logging.SeverityInfo
	if payload.Suppressed {
		severity = logging.SeverityDebug
	}
	publish(ctx, pub, tick, EventPredatorHit, severity, target, payload, extra)
}

// StreakBonus publishes every fifth consecutive scored pickup.
func StreakBonus(ctx context.Context, pub logging.Publisher, tick uint64, payload StreakBonusPayload, extra map[string]any) {
	publish(ctx, pub, tick, EventStreakBonus, logging.SeverityInfo, logging.EntityRef{}, payload, extra)
}

// PowerupCollected publishes a power-up pickup.
func PowerupCollected(ctx context.Context, pub logging.Publisher, tick uint64, target logging.EntityRef, payload PowerupCollectedPayload, extra map[string]any) {
	publish(ctx, pub, tick, EventPowerupCollected, logging.SeverityInfo, target, payload, extra)
}

// ComboReset publishes a combo drop back to 1.
func ComboReset(ctx context.Context, pub logging.Publisher, tick uint64, payload ComboResetPayload, extra map[string]any) {
	publish(ctx, pub, tick, EventComboReset, logging.SeverityDebug, logging.EntityRef{}, payload, extra)
}

func publish(ctx context.Context, pub logging.Publisher, tick uint64, eventType logging.EventType, severity logging.Severity, target logging.EntityRef, payload any, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     eventType,
		Tick:     tick,
		Actor:    logging.AvatarRef(),
		Severity: severity,
		Category: "scoring",
		Payload:  payload,
		Extra:    extra,
	}
	if target.ID != "" {
		event.Targets = []logging.EntityRef{target}
	}
	pub.Publish(ctx, event)
}
