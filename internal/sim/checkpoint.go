package sim

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/mjcole76/octochase/internal/avatar"
	"github.com/mjcole76/octochase/internal/boss"
	"github.com/mjcole76/octochase/internal/events"
	"github.com/mjcole76/octochase/internal/food"
	"github.com/mjcole76/octochase/internal/hazard"
	"github.com/mjcole76/octochase/internal/level"
	"github.com/mjcole76/octochase/internal/mode"
	"github.com/mjcole76/octochase/internal/powerup"
	"github.com/mjcole76/octochase/internal/predator"
	"github.com/mjcole76/octochase/internal/scoring"
	"github.com/mjcole76/octochase/internal/world"
)

// ErrCheckpointMismatch is returned when a checkpoint was taken from a
// simulation with a different start level, mode or seed.
var ErrCheckpointMismatch = errors.New("sim: checkpoint does not match simulation")

// ErrLevelNotComplete is returned by NextLevel before the end gate is reached.
var ErrLevelNotComplete = errors.New("sim: level not complete")

type checkpoint struct {
	Mode       mode.Mode `msgpack:"mode"`
	Seed       string    `msgpack:"seed"`
	StartLevel int       `msgpack:"startLevel"`
	Level      int       `msgpack:"level"`

	Tick      uint64  `msgpack:"tick"`
	Draws     uint64  `msgpack:"draws"`
	NextID    uint64  `msgpack:"nextId"`
	ElapsedMs float64 `msgpack:"elapsed"`
	Paused    bool    `msgpack:"paused"`
	Intent    Intent  `msgpack:"intent"`
	Fx        worldFx `msgpack:"fx"`

	State     *scoring.State       `msgpack:"state"`
	Avatar    *avatar.Avatar       `msgpack:"avatar"`
	Predators []*predator.Predator `msgpack:"predators"`
	Hazards   []*hazard.Hazard     `msgpack:"hazards"`
	Foods     []*food.Food         `msgpack:"foods"`
	Pickups   []*powerup.Pickup    `msgpack:"pickups"`
	Progress  level.Progress       `msgpack:"progress"`
	Director  mode.DirectorState   `msgpack:"director"`
	Boss      *boss.Boss           `msgpack:"boss"`
	Events    events.Manager       `msgpack:"events"`
	Results   *Results             `msgpack:"results"`
}

// Checkpoint encodes the full simulation state as msgpack.
func (s *Simulation) Checkpoint() ([]byte, error) {
	cp := checkpoint{
		Mode:       s.rules.Mode,
		Seed:       s.opts.Seed,
		StartLevel: s.opts.Level,
		Level:      s.cfg.ID,
		Tick:       s.tick,
		Draws:      s.rng.Draws(),
		NextID:     s.nextID,
		ElapsedMs:  s.elapsedMs,
		Paused:     s.paused,
		Intent:     s.intent,
		Fx:         s.fx,
		State:      s.state,
		Avatar:     s.avatar,
		Predators:  s.predators,
		Hazards:    s.hazards,
		Foods:      s.foods,
		Pickups:    s.pickups,
		Progress:   s.tracker.Progress,
		Director:   s.director.State,
		Boss:       s.boss,
		Events:     s.events,
		Results:    s.results,
	}
	data, err := msgpack.Marshal(&cp)
	if err != nil {
		return nil, fmt.Errorf("sim: encode checkpoint: %w", err)
	}
	return data, nil
}

// Restore replaces the simulation state with a decoded checkpoint. The RNG is
// reseeded and fast-forwarded so subsequent steps match the original run.
func (s *Simulation) Restore(data []byte) error {
	var cp checkpoint
	if err := msgpack.Unmarshal(data, &cp); err != nil {
		return fmt.Errorf("sim: decode checkpoint: %w", err)
	}
	if cp.Mode != s.rules.Mode || cp.Seed != s.opts.Seed || cp.StartLevel != s.opts.Level {
		return fmt.Errorf("%w: have %s/%d/%q, got %s/%d/%q", ErrCheckpointMismatch,
			s.rules.Mode, s.opts.Level, s.opts.Seed, cp.Mode, cp.StartLevel, cp.Seed)
	}
	if cp.State == nil || cp.Avatar == nil {
		return errors.New("sim: decode checkpoint: missing state")
	}
	cfg, err := level.Lookup(cp.Level)
	if err != nil {
		return fmt.Errorf("sim: restore: %w", err)
	}

	s.cfg = cfg
	s.tick = cp.Tick
	s.rng = world.RestoreRNG(s.opts.Seed, rngLabel, cp.Draws)
	s.nextID = cp.NextID
	s.elapsedMs = cp.ElapsedMs
	s.paused = cp.Paused
	s.intent = cp.Intent
	s.fx = cp.Fx

	s.state = cp.State
	if s.state.Powerups.Chain == 0 {
		s.state.Powerups.Chain = 1
	}
	s.avatar = cp.Avatar
	s.avatar.SyncStats(s.state.Effects)
	s.predators = cp.Predators
	s.hazards = cp.Hazards
	s.foods = cp.Foods
	s.pickups = cp.Pickups
	s.tracker = level.NewTracker(cfg)
	s.tracker.Progress = cp.Progress
	s.director = mode.NewDirector(s.rules)
	s.director.State = cp.Director
	s.boss = cp.Boss
	s.events = cp.Events
	s.results = cp.Results
	return nil
}
