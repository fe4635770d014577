// Package scoring owns the per-run game state and applies every collision
// outcome to it: collectibles, predator contact, power-ups and hazard effects.
package scoring

import (
	"context"
	"math"
	"math/rand"

	"github.com/mjcole76/octochase/internal/avatar"
	"github.com/mjcole76/octochase/internal/effects"
	"github.com/mjcole76/octochase/internal/powerup"
	"github.com/mjcole76/octochase/logging"
	scoringlog "github.com/mjcole76/octochase/logging/scoring"
)

const (
	MinCombo      = 1
	MaxCombo      = 5
	ComboWindowMs = 4000
	MaxLives      = 5
	// UnlimitedLivesDisplay is reported for modes that do not track lives.
	UnlimitedLivesDisplay = 999

	shakeDecayMs = 20
	shakeFloor   = 0.1
)

// State is the single mutable game state of a run.
type State struct {
	Score          float64     `json:"score" msgpack:"score"`
	Combo          int         `json:"combo" msgpack:"combo"`
	ComboTimerMs   float64     `json:"comboTimerMs" msgpack:"comboTimer"`
	Lives          int         `json:"lives" msgpack:"lives"`
	UnlimitedLives bool        `json:"unlimitedLives" msgpack:"unlimited"`
	GameTimeMs     float64     `json:"gameTimeMs" msgpack:"gameTime"`
	ScreenShake    float64     `json:"screenShake" msgpack:"shake"`
	Streak         int         `json:"streak" msgpack:"streak"`
	Effects        effects.Set `json:"effects" msgpack:"effects"`
	ModeMultiplier float64     `json:"modeMultiplier" msgpack:"modeMultiplier"`
	PeakCombo      int         `json:"peakCombo" msgpack:"peakCombo"`

	Powerups powerup.Active `json:"powerups" msgpack:"powerups"`

	FoodCollected   int `json:"foodCollected" msgpack:"foodCollected"`
	PowerUpsUsed    int `json:"powerUpsUsed" msgpack:"powerUpsUsed"`
	EnemiesDefeated int `json:"enemiesDefeated" msgpack:"enemiesDefeated"`
	Hits            int `json:"hits" msgpack:"hits"`
}

// NewState returns a fresh state. Unlimited modes never lose lives.
func NewState(lives int, unlimited bool, modeMultiplier float64) *State {
	if modeMultiplier <= 0 {
		modeMultiplier = 1
	}
	if unlimited {
		lives = UnlimitedLivesDisplay
	}
	return &State{
		Combo:          MinCombo,
		Lives:          lives,
		UnlimitedLives: unlimited,
		ModeMultiplier: modeMultiplier,
		PeakCombo:      MinCombo,
		Powerups:       powerup.NewActive(),
	}
}

// Frame carries the per-step collaborators used while mutating state.
type Frame struct {
	Ctx       context.Context
	Tick      uint64
	Publisher logging.Publisher
	RNG       *rand.Rand
}

func (f Frame) context() context.Context {
	if f.Ctx == nil {
		return context.Background()
	}
	return f.Ctx
}

// LoseLife removes a life, never going below zero.
func (s *State) LoseLife() {
	if s.UnlimitedLives {
		return
	}
	if s.Lives > 0 {
		s.Lives--
	}
}

// GainLife adds a life up to MaxLives. It reports whether a life was added.
func (s *State) GainLife() bool {
	if s.UnlimitedLives || s.Lives >= MaxLives {
		return false
	}
	s.Lives++
	return true
}

// ResetCombo drops the combo to its floor and clears the timer and streak.
func (s *State) ResetCombo(reason string, fr Frame) {
	previous := s.Combo
	s.Combo = MinCombo
	s.ComboTimerMs = 0
	s.Streak = 0
	if previous > MinCombo {
		scoringlog.ComboReset(fr.context(), fr.Publisher, fr.Tick, scoringlog.ComboResetPayload{Previous: previous, Reason: reason}, nil)
	}
}

func (s *State) bumpCombo() {
	s.Combo++
	if s.Combo > MaxCombo {
		s.Combo = MaxCombo
	}
	if s.Combo > s.PeakCombo {
		s.PeakCombo = s.Combo
	}
}

// AddShake raises the screen shake intensity.
func (s *State) AddShake(amount float64) {
	s.ScreenShake += amount
}

// Tick advances game time and every countdown owned by the state. It returns
// the player effects and power-ups that ran out this frame.
func (s *State) Tick(dtMs float64, fr Frame) ([]effects.Effect, []powerup.Type) {
	s.GameTimeMs += dtMs
	expiredEffects := s.Effects.Tick(dtMs)
	expiredPowerups := s.Powerups.Tick(dtMs)

	if s.ComboTimerMs > 0 {
		s.ComboTimerMs = math.Max(0, s.ComboTimerMs-dtMs)
		if s.ComboTimerMs == 0 && s.Combo > MinCombo {
			previous := s.Combo
			s.Combo = MinCombo
			scoringlog.ComboReset(fr.context(), fr.Publisher, fr.Tick, scoringlog.ComboResetPayload{Previous: previous, Reason: "timeout"}, nil)
		}
	}
	if s.Combo < MinCombo {
		s.Combo = MinCombo
	}

	if s.ScreenShake > 0 {
		s.ScreenShake = math.Max(0, s.ScreenShake-dtMs/shakeDecayMs)
		if s.ScreenShake < shakeFloor {
			s.ScreenShake = 0
		}
	}
	return expiredEffects, expiredPowerups
}

// SyncAvatar pushes power-up driven modifiers onto the avatar.
func (s *State) SyncAvatar(av *avatar.Avatar) {
	av.Modifiers.PowerupSpeed = s.Powerups.SpeedMultiplier()
	av.Modifiers.SizeScale = s.Powerups.SizeScale()
	av.Modifiers.PowerupScore = s.Powerups.ScoreMultiplier()
	av.SyncStats(s.Effects)
}

// Protected reports whether damage is currently suppressed.
func (s *State) Protected(av *avatar.Avatar) bool {
	return av.Invulnerable || s.Powerups.Invincible()
}

// DisplayLives is the lives figure shown to players.
func (s *State) DisplayLives() int {
	if s.UnlimitedLives {
		return UnlimitedLivesDisplay
	}
	return s.Lives
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	cloned := *s
	cloned.Effects = s.Effects.Clone()
	cloned.Powerups = s.Powerups.Clone()
	return &cloned
}
