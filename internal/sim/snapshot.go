package sim

import (
	"github.com/mjcole76/octochase/internal/avatar"
	"github.com/mjcole76/octochase/internal/boss"
	"github.com/mjcole76/octochase/internal/effects"
	"github.com/mjcole76/octochase/internal/events"
	"github.com/mjcole76/octochase/internal/food"
	"github.com/mjcole76/octochase/internal/geom"
	"github.com/mjcole76/octochase/internal/hazard"
	"github.com/mjcole76/octochase/internal/level"
	"github.com/mjcole76/octochase/internal/mode"
	"github.com/mjcole76/octochase/internal/powerup"
	"github.com/mjcole76/octochase/internal/predator"
)

// Snapshot is the per-frame view handed to renderers. It shares no memory
// with the simulation.
type Snapshot struct {
	SessionID string    `json:"sessionId,omitempty"`
	Tick      uint64    `json:"tick"`
	Mode      mode.Mode `json:"mode"`
	Level     LevelView `json:"level"`
	Paused    bool      `json:"paused"`
	Finished  bool      `json:"finished"`

	Avatar    avatar.Avatar       `json:"avatar"`
	Predators []predator.Predator `json:"predators"`
	Hazards   []hazard.Hazard     `json:"hazards"`
	Food      []food.Food         `json:"food"`
	Powerups  []powerup.Pickup    `json:"powerups"`
	Boss      *boss.Boss          `json:"boss,omitempty"`
	Event     *events.Event       `json:"event,omitempty"`

	State    StateView      `json:"state"`
	Progress level.Progress `json:"progress"`
}

// LevelView is the static level data a renderer needs.
type LevelView struct {
	ID         int              `json:"id"`
	Name       string           `json:"name"`
	Biome      level.Biome      `json:"biome"`
	DurationMs float64          `json:"durationMs"`
	Thresholds level.Thresholds `json:"thresholds"`
	Checkpoint geom.Vec2        `json:"checkpoint"`
	EndGate    geom.Vec2        `json:"endGate"`
}

// StateView is the scoring state as shown to the player.
type StateView struct {
	Score           float64          `json:"score"`
	Lives           int              `json:"lives"`
	Combo           int              `json:"combo"`
	ComboTimerMs    float64          `json:"comboTimerMs"`
	Streak          int              `json:"streak"`
	Medal           level.Medal      `json:"medal"`
	GameTimeMs      float64          `json:"gameTimeMs"`
	TimeRemainingMs float64          `json:"timeRemainingMs,omitempty"`
	ScreenShake     float64          `json:"screenShake"`
	Effects         []effects.Effect `json:"effects"`
	Powerups        []powerup.Effect `json:"activePowerups"`
	ChainMultiplier float64          `json:"chainMultiplier"`
}

// Results is the finalized record of a finished run.
type Results struct {
	SessionID       string      `json:"sessionId"`
	Mode            mode.Mode   `json:"mode"`
	Level           int         `json:"level"`
	Score           float64     `json:"score"`
	PeakCombo       int         `json:"peakCombo"`
	DurationMs      float64     `json:"durationMs"`
	Medal           level.Medal `json:"medal"`
	SurvivalBonus   int         `json:"survivalBonus"`
	EnemiesDefeated int         `json:"enemiesDefeated"`
	FoodCollected   int         `json:"foodCollected"`
	TimesSurvived   int         `json:"timesSurvived"`
	PowerUpsUsed    int         `json:"powerUpsUsed"`
	Completed       bool        `json:"completed"`
	GameOver        bool        `json:"gameOver"`
}
