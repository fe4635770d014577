// Package powerup implements field pickups and the timed effects they grant.
package powerup

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/mjcole76/octochase/internal/geom"
	"github.com/mjcole76/octochase/internal/world"
)

var ErrUnknownType = errors.New("powerup: unknown type")

type Type string

const (
	Speed         Type = "speed"
	Shield        Type = "shield"
	Magnet        Type = "magnet"
	Multiplier    Type = "multiplier"
	Time          Type = "time"
	Camouflage    Type = "camouflage"
	Shrink        Type = "shrink"
	Freeze        Type = "freeze"
	ScoreChain    Type = "score_chain"
	Invincibility Type = "invincibility"
)

// Types lists every power-up in catalogue order.
var Types = []Type{Speed, Shield, Magnet, Multiplier, Time, Camouflage, Shrink, Freeze, ScoreChain, Invincibility}

var durations = map[Type]float64{
	Speed:         5000,
	Shield:        8000,
	Magnet:        10000,
	Multiplier:    15000,
	Time:          0,
	Camouflage:    5000,
	Shrink:        7000,
	Freeze:        4000,
	ScoreChain:    12000,
	Invincibility: 3000,
}

const (
	SpawnChance  = 0.002
	MaxOnField   = 3
	PickupSize   = 24
	PickupLifeMs = 15000

	ringMin     = 150
	ringMax     = 450
	fieldMargin = 50

	SpeedFactor      = 1.5
	ScoreFactor      = 2
	ShrinkScale      = 0.6
	TimeRewindMs     = 10000
	MagnetRadius     = 150
	MagnetPullPerSec = 200
	ChainStep        = 0.5
	ChainMax         = 3
)

// Duration returns how long t lasts once collected. Zero means instant.
func Duration(t Type) (float64, error) {
	d, ok := durations[t]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	return d, nil
}

// Pickup is a collectible power-up lying in the world.
type Pickup struct {
	ID          string    `json:"id" msgpack:"id"`
	Type        Type      `json:"type" msgpack:"type"`
	Position    geom.Vec2 `json:"position" msgpack:"position"`
	Size        float64   `json:"size" msgpack:"size"`
	RemainingMs float64   `json:"remainingMs" msgpack:"remaining"`
}

// MaybeSpawn rolls the per-frame spawn chance and, on success, places a
// random pickup 150 to 450 units from the avatar.
func MaybeSpawn(rng *rand.Rand, field []*Pickup, id string, avatarPos geom.Vec2, bounds geom.Bounds) *Pickup {
	if len(field) >= MaxOnField {
		return nil
	}
	if rng.Float64() >= SpawnChance {
		return nil
	}
	t := Types[rng.Intn(len(Types))]
	pos := world.RandomRing(rng, avatarPos, ringMin, ringMax)
	return &Pickup{
		ID:          id,
		Type:        t,
		Position:    bounds.ClampInset(pos, fieldMargin),
		Size:        PickupSize,
		RemainingMs: PickupLifeMs,
	}
}

// TickField ages pickups and drops the ones whose lifetime ran out.
func TickField(field []*Pickup, dtMs float64) []*Pickup {
	kept := field[:0]
	for _, p := range field {
		p.RemainingMs -= dtMs
		if p.RemainingMs > 0 {
			kept = append(kept, p)
		}
	}
	for i := len(kept); i < len(field); i++ {
		field[i] = nil
	}
	return kept
}

// MagnetPull moves pos toward the avatar when it lies inside the magnet
// radius. It reports whether the position was pulled.
func MagnetPull(pos, avatarPos geom.Vec2, dtMs float64) (geom.Vec2, bool) {
	dir, d := geom.Direction(pos, avatarPos)
	if d >= MagnetRadius || d == 0 {
		return pos, false
	}
	step := MagnetPullPerSec * dtMs / 1000
	if step > d {
		step = d
	}
	return pos.Add(dir.Scale(step)), true
}
