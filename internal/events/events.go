// Package events runs the timed world events that occasionally interrupt a
// level: feeding frenzies, predator swarms, whirlpools, darkness and treasure.
package events

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/mjcole76/octochase/internal/geom"
	"github.com/mjcole76/octochase/internal/scoring"
	"github.com/mjcole76/octochase/logging"
	eventslog "github.com/mjcole76/octochase/logging/events"
)

var ErrUnknownType = errors.New("events: unknown type")

type Type string

const (
	FeedingFrenzy Type = "feeding_frenzy"
	PredatorSwarm Type = "predator_swarm"
	TreasureChest Type = "treasure_chest"
	Whirlpool     Type = "whirlpool"
	Darkness      Type = "darkness"
)

var Types = []Type{FeedingFrenzy, PredatorSwarm, TreasureChest, Whirlpool, Darkness}

const (
	MinGapMs    = 30000
	SpawnChance = 0.001

	frenzyFoodChance  = 0.1
	swarmHunterChance = 0.01
	whirlpoolRadius   = 200
	whirlpoolStrength = 50
	startShake        = 10
)

var (
	spawnMin  = geom.V(200, 200)
	spawnSpan = geom.V(600, 350)
)

type profile struct {
	durationMs float64
	intensity  float64
	reward     float64
}

var profiles = map[Type]profile{
	FeedingFrenzy: {durationMs: 10000, intensity: 1.5, reward: 100},
	PredatorSwarm: {durationMs: 15000, intensity: 2, reward: 200},
	TreasureChest: {durationMs: 20000, intensity: 1, reward: 500},
	Whirlpool:     {durationMs: 12000, intensity: 1.2, reward: 150},
	Darkness:      {durationMs: 8000, intensity: 0.8, reward: 180},
}

type Event struct {
	ID          string    `json:"id" msgpack:"id"`
	Type        Type      `json:"type" msgpack:"type"`
	Position    geom.Vec2 `json:"position" msgpack:"position"`
	DurationMs  float64   `json:"durationMs" msgpack:"duration"`
	RemainingMs float64   `json:"remainingMs" msgpack:"remaining"`
	Intensity   float64   `json:"intensity" msgpack:"intensity"`
	Reward      float64   `json:"reward" msgpack:"reward"`
}

// New builds an event of type t centred on pos.
func New(id string, t Type, pos geom.Vec2) (*Event, error) {
	p, ok := profiles[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	return &Event{
		ID:          id,
		Type:        t,
		Position:    pos,
		DurationMs:  p.durationMs,
		RemainingMs: p.durationMs,
		Intensity:   p.intensity,
		Reward:      p.reward,
	}, nil
}

// Pull is the whirlpool drag on something at pos, in units per second.
func (e *Event) Pull(pos geom.Vec2) geom.Vec2 {
	if e == nil || e.Type != Whirlpool {
		return geom.Vec2{}
	}
	dir, d := geom.Direction(pos, e.Position)
	if d <= 0 || d >= whirlpoolRadius {
		return geom.Vec2{}
	}
	return dir.Scale((1 - d/whirlpoolRadius) * e.Intensity * whirlpoolStrength)
}

// Frame carries the inputs of one manager step.
type Frame struct {
	Ctx        context.Context
	Tick       uint64
	Publisher  logging.Publisher
	RNG        *rand.Rand
	DtMs       float64
	GameTimeMs float64
	AvatarPos  geom.Vec2
}

// Effects is what the active event asks of the rest of the world this frame.
type Effects struct {
	SpawnFood     bool
	SpawnHunter   bool
	PredatorSpeed float64
	Darkness      bool
	Pull          geom.Vec2
}

// Manager owns at most one active event.
type Manager struct {
	Active      *Event  `json:"active,omitempty" msgpack:"active"`
	LastEventMs float64 `json:"lastEventMs" msgpack:"lastEvent"`
	Started     int     `json:"started" msgpack:"started"`
}

// Step expires or applies the active event, or rolls for a new one when the
// world has been calm long enough.
func (m *Manager) Step(fr Frame, s *scoring.State) Effects {
	fx := Effects{PredatorSpeed: 1}
	ctx := fr.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	if e := m.Active; e != nil {
		e.RemainingMs = math.Max(0, e.RemainingMs-fr.DtMs)
		if e.RemainingMs <= 0 {
			s.Score += e.Reward
			m.Active = nil
			eventslog.Completed(ctx, fr.Publisher, fr.Tick, eventslog.CompletedPayload{Event: string(e.Type), Reward: e.Reward, Score: s.Score}, nil)
			return fx
		}
		switch e.Type {
		case FeedingFrenzy:
			fx.SpawnFood = fr.RNG.Float64() < frenzyFoodChance
		case PredatorSwarm:
			fx.SpawnHunter = fr.RNG.Float64() < swarmHunterChance
			fx.PredatorSpeed = e.Intensity
		case Whirlpool:
			fx.Pull = e.Pull(fr.AvatarPos)
		case Darkness:
			fx.Darkness = true
		}
		return fx
	}

	if fr.GameTimeMs-m.LastEventMs < MinGapMs || fr.RNG.Float64() >= SpawnChance {
		return fx
	}
	t := Types[fr.RNG.Intn(len(Types))]
	pos := geom.V(spawnMin.X+fr.RNG.Float64()*spawnSpan.X, spawnMin.Y+fr.RNG.Float64()*spawnSpan.Y)
	e, _ := New(fmt.Sprintf("event-%s-%d", t, m.Started), t, pos)
	m.Active = e
	m.LastEventMs = fr.GameTimeMs
	m.Started++
	s.AddShake(startShake)
	eventslog.Started(ctx, fr.Publisher, fr.Tick, eventslog.StartedPayload{
		Event:      string(t),
		DurationMs: int64(e.DurationMs),
		Intensity:  e.Intensity,
		X:          pos.X,
		Y:          pos.Y,
	}, nil)
	return fx
}

// Clone deep copies the manager.
func (m Manager) Clone() Manager {
	if m.Active != nil {
		e := *m.Active
		m.Active = &e
	}
	return m
}
