// Package food holds the collectible catalogue, rarity-tiered spawning and the
// simple motion patterns of moving collectibles.
package food

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/mjcole76/octochase/internal/geom"
	"github.com/mjcole76/octochase/internal/world"
)

var ErrUnknownType = errors.New("food: unknown type")

type Type string

const (
	Crab          Type = "crab"
	Shrimp        Type = "shrimp"
	Clam          Type = "clam"
	SpeedPlankton Type = "speed_plankton"
	Pearl         Type = "pearl"
	ComboExtender Type = "combo_extender"
	HealthKelp    Type = "health_kelp"
	GoldenFish    Type = "golden_fish"
	MysteryBox    Type = "mystery_box"
)

type Rarity string

const (
	Common   Rarity = "common"
	Uncommon Rarity = "uncommon"
	Rare     Rarity = "rare"
)

type Special string

const (
	SpecialNone           Special = ""
	SpecialHeal           Special = "heal"
	SpecialSpeedBoost     Special = "speed_boost"
	SpecialMystery        Special = "mystery"
	SpecialComboExtension Special = "combo_extension"
)

type Motion string

const (
	Stationary Motion = "stationary"
	Flee       Motion = "flee"
	Wander     Motion = "random"
)

const (
	rareChance     = 0.02
	uncommonChance = 0.15
	baseBatch      = 20
	edgeMargin     = 20
	fleeRadius     = 200
	fleeDamping    = 0.95
	wanderTurnRoll = 0.02
	wanderSpeed    = 50
	respawnBelow   = 5
	respawnChance  = 0.01
)

// Kind is the static description of a food type.
type Kind struct {
	Points           float64
	Size             float64
	Rarity           Rarity
	Special          Special
	ComboExtensionMs float64
	Motion           Motion
	Speed            float64
}

var catalog = map[Type]Kind{
	Crab:          {Points: 3, Size: 16, Rarity: Common},
	Shrimp:        {Points: 2, Size: 14, Rarity: Common},
	Clam:          {Points: 2, Size: 15, Rarity: Common},
	SpeedPlankton: {Points: 1, Size: 10, Rarity: Common, Special: SpecialSpeedBoost},
	Pearl:         {Points: 0, Size: 12, Rarity: Uncommon, ComboExtensionMs: 3000},
	ComboExtender: {Points: 0, Size: 14, Rarity: Uncommon, Special: SpecialComboExtension, ComboExtensionMs: 10000},
	HealthKelp:    {Points: 0, Size: 16, Rarity: Uncommon, Special: SpecialHeal},
	GoldenFish:    {Points: 30, Size: 20, Rarity: Rare, Motion: Flee, Speed: 100},
	MysteryBox:    {Points: 0, Size: 18, Rarity: Rare, Special: SpecialMystery},
}

var (
	commonTypes   = []Type{Crab, Shrimp, Clam, SpeedPlankton}
	uncommonTypes = []Type{Pearl, ComboExtender, HealthKelp}
	rareTypes     = []Type{GoldenFish, MysteryBox}
)

// Lookup returns the catalogue entry for t.
func Lookup(t Type) (Kind, bool) {
	k, ok := catalog[t]
	return k, ok
}

// Food is one collectible. Collected food is deactivated, never removed.
type Food struct {
	ID               string    `json:"id" msgpack:"id"`
	Type             Type      `json:"type" msgpack:"type"`
	Position         geom.Vec2 `json:"position" msgpack:"position"`
	Velocity         geom.Vec2 `json:"velocity" msgpack:"velocity"`
	Rarity           Rarity    `json:"rarity" msgpack:"rarity"`
	Value            float64   `json:"value" msgpack:"value"`
	Size             float64   `json:"size" msgpack:"size"`
	Active           bool      `json:"active" msgpack:"active"`
	Special          Special   `json:"special,omitempty" msgpack:"special"`
	ComboExtensionMs float64   `json:"comboExtensionMs,omitempty" msgpack:"comboExtension"`
	Motion           Motion    `json:"motion" msgpack:"motion"`
	Speed            float64   `json:"speed,omitempty" msgpack:"speed"`
}

func New(id string, t Type, pos geom.Vec2) (*Food, error) {
	k, ok := catalog[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	motion := k.Motion
	if motion == "" {
		motion = Stationary
	}
	return &Food{
		ID:               id,
		Type:             t,
		Position:         pos,
		Rarity:           k.Rarity,
		Value:            k.Points,
		Size:             k.Size,
		Active:           true,
		Special:          k.Special,
		ComboExtensionMs: k.ComboExtensionMs,
		Motion:           motion,
		Speed:            k.Speed,
	}, nil
}

// IsPearl reports whether f is the pearl. Pearls carry no special effect; the
// scorer extends the combo timer by ComboExtensionMs when one is collected.
func (f *Food) IsPearl() bool {
	return f.Type == Pearl
}

// RollType draws a type: 2% rare, 13% uncommon, otherwise common, uniform
// within the tier.
func RollType(rng *rand.Rand) Type {
	roll := rng.Float64()
	var tier []Type
	switch {
	case roll < rareChance:
		tier = rareTypes
	case roll < uncommonChance:
		tier = uncommonTypes
	default:
		tier = commonTypes
	}
	return tier[rng.Intn(len(tier))]
}

// Spawn creates a random-rarity food at a random point inside bounds.
func Spawn(rng *rand.Rand, id string, bounds geom.Bounds) *Food {
	t := RollType(rng)
	pos := world.RandomPoint(rng, bounds, edgeMargin)
	f, _ := New(id, t, pos)
	return f
}

// SpawnWandering creates a food that drifts on a random heading.
func SpawnWandering(rng *rand.Rand, id string, bounds geom.Bounds) *Food {
	f := Spawn(rng, id, bounds)
	if f.Motion == Stationary {
		f.Motion = Wander
		f.Speed = wanderSpeed
	}
	return f
}

// InitialCount is the size of the level's opening batch.
func InitialCount(density float64) int {
	if density <= 0 {
		return 0
	}
	return int(math.Floor(baseBatch * density))
}

// ActiveCount counts collectibles that can still be collected.
func ActiveCount(foods []*Food) int {
	n := 0
	for _, f := range foods {
		if f != nil && f.Active {
			n++
		}
	}
	return n
}

// ShouldRespawn rolls the 1% per frame respawn while fewer than five
// collectibles are active. No roll is made when the field is full enough.
func ShouldRespawn(rng *rand.Rand, foods []*Food) bool {
	if ActiveCount(foods) >= respawnBelow {
		return false
	}
	return rng.Float64() < respawnChance
}

// Update moves food that has a motion pattern. Stationary and inactive food
// is left alone.
func (f *Food) Update(dtMs float64, rng *rand.Rand, avatarPos geom.Vec2, bounds geom.Bounds) {
	if !f.Active {
		return
	}
	switch f.Motion {
	case Flee:
		dir, d := geom.Direction(avatarPos, f.Position)
		if d < fleeRadius && d > 0 {
			f.Velocity = dir.Scale(f.Speed)
		} else {
			f.Velocity = f.Velocity.Scale(fleeDamping)
		}
	case Wander:
		if rng.Float64() < wanderTurnRoll {
			angle := world.RandomAngle(rng)
			f.Velocity = geom.V(math.Cos(angle)*f.Speed, math.Sin(angle)*f.Speed)
		}
	default:
		return
	}
	f.Position = bounds.ClampInset(f.Position.Add(f.Velocity.Scale(dtMs/1000)), edgeMargin)
}

// Clone returns a copy of f.
func (f *Food) Clone() *Food {
	if f == nil {
		return nil
	}
	cloned := *f
	return &cloned
}
