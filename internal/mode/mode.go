// Package mode holds the per-mode rules table and the director that drives
// mode specific spawning and difficulty every frame.
package mode

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/mjcole76/octochase/internal/geom"
	"github.com/mjcole76/octochase/internal/predator"
	"github.com/mjcole76/octochase/internal/scoring"
)

var ErrUnknownMode = errors.New("mode: unknown mode")

type Mode string

const (
	Classic      Mode = "classic"
	TimeAttack   Mode = "time_attack"
	Survival     Mode = "survival"
	Zen          Mode = "zen"
	Challenge    Mode = "challenge"
	Endless      Mode = "endless"
	SpeedRun     Mode = "speed_run"
	Puzzle       Mode = "puzzle"
	TreasureHunt Mode = "treasure_hunt"
)

// Modes lists every mode in menu order.
var Modes = []Mode{Classic, TimeAttack, Survival, Zen, Challenge, Endless, SpeedRun, Puzzle, TreasureHunt}

// Rules are the static settings of a mode.
type Rules struct {
	Mode              Mode            `json:"mode"`
	Lives             int             `json:"lives"`
	UnlimitedLives    bool            `json:"unlimitedLives"`
	ScoreMultiplier   float64         `json:"scoreMultiplier"`
	SpawnProtectionMs float64         `json:"spawnProtectionMs"`
	TimeLimitMs       float64         `json:"timeLimitMs,omitempty"`
	StartingEnemies   []predator.Type `json:"startingEnemies"`
}

var (
	oneEel        = []predator.Type{predator.Eel}
	barracudaEel  = []predator.Type{predator.Barracuda, predator.Eel}
	fullHuntParty = []predator.Type{predator.Shark, predator.Barracuda, predator.Eel, predator.Dolphin}
)

var rulesTable = map[Mode]Rules{
	Classic:      {Mode: Classic, Lives: 3, ScoreMultiplier: 1, SpawnProtectionMs: 5000, StartingEnemies: oneEel},
	TimeAttack:   {Mode: TimeAttack, UnlimitedLives: true, ScoreMultiplier: 1.5, SpawnProtectionMs: 10000, TimeLimitMs: 120000, StartingEnemies: barracudaEel},
	Survival:     {Mode: Survival, Lives: 1, ScoreMultiplier: 2, SpawnProtectionMs: 15000, StartingEnemies: fullHuntParty},
	Zen:          {Mode: Zen, UnlimitedLives: true, ScoreMultiplier: 0.5, SpawnProtectionMs: 5000, StartingEnemies: oneEel},
	Challenge:    {Mode: Challenge, Lives: 5, ScoreMultiplier: 3, SpawnProtectionMs: 10000, StartingEnemies: barracudaEel},
	Endless:      {Mode: Endless, Lives: 3, ScoreMultiplier: 1.2, SpawnProtectionMs: 10000, StartingEnemies: barracudaEel},
	SpeedRun:     {Mode: SpeedRun, Lives: 3, ScoreMultiplier: 2, SpawnProtectionMs: 5000, StartingEnemies: oneEel},
	Puzzle:       {Mode: Puzzle, UnlimitedLives: true, ScoreMultiplier: 1.5, SpawnProtectionMs: 5000, StartingEnemies: oneEel},
	TreasureHunt: {Mode: TreasureHunt, Lives: 5, ScoreMultiplier: 2, SpawnProtectionMs: 5000, StartingEnemies: oneEel},
}

// Parse resolves a mode name. The empty string is classic.
func Parse(name string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(name)))
	if m == "" {
		return Classic, nil
	}
	if _, ok := rulesTable[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
	return m, nil
}

// Lookup returns a copy of the rules for m.
func Lookup(m Mode) (Rules, error) {
	r, ok := rulesTable[m]
	if !ok {
		return Rules{}, fmt.Errorf("%w: %q", ErrUnknownMode, m)
	}
	r.StartingEnemies = append([]predator.Type(nil), r.StartingEnemies...)
	return r, nil
}

// UsesEndGate reports whether reaching the gate or running out the level
// clock completes the level. Only classic does.
func (r Rules) UsesEndGate() bool {
	return r.Mode == Classic
}

// NewState returns a fresh game state configured for the mode.
func (r Rules) NewState() *scoring.State {
	return scoring.NewState(r.Lives, r.UnlimitedLives, r.ScoreMultiplier)
}

// Over reports whether the mode has ended the run and why.
func (r Rules) Over(s *scoring.State, timeRemainingMs float64) (bool, string) {
	if !r.UnlimitedLives && s.Lives <= 0 {
		return true, "lives"
	}
	if r.TimeLimitMs > 0 && timeRemainingMs <= 0 {
		return true, "time"
	}
	return false, ""
}

// SpawnStartingEnemies builds the mode's extra hunters away from the start.
func (r Rules) SpawnStartingEnemies(rng *rand.Rand, start geom.Vec2, bounds geom.Bounds) ([]*predator.Predator, error) {
	out := make([]*predator.Predator, 0, len(r.StartingEnemies))
	for i, t := range r.StartingEnemies {
		p, err := predator.SpawnAway(rng, fmt.Sprintf("%s-start-%d", r.Mode, i), predator.VariantHunter, t, start, bounds)
		if err != nil {
			return nil, fmt.Errorf("mode %s: %w", r.Mode, err)
		}
		out = append(out, p)
	}
	return out, nil
}
