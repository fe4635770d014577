// Package hazard resolves environmental hazards against the avatar position.
package hazard

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/mjcole76/octochase/internal/effects"
	"github.com/mjcole76/octochase/internal/geom"
	"github.com/mjcole76/octochase/internal/world"
)

var ErrUnknownType = errors.New("hazard: unknown type")

type Type string

const (
	Net        Type = "net"
	Hook       Type = "hook"
	Jellyfish  Type = "jellyfish"
	Current    Type = "current"
	Urchin     Type = "urchin"
	Floodlight Type = "floodlight"
)

// Types lists every hazard type in declaration order.
var Types = []Type{Net, Hook, Jellyfish, Current, Urchin, Floodlight}

const (
	triggerPadding    = 20
	currentPadding    = 30
	currentMaxDrift   = 50
	floodlightCone    = math.Pi / 3
	stuckDurationMs   = 1000
	snagDurationMs    = 500
	stunDurationMs    = 500
	exposedDurationMs = 2000
	urchinDamage      = 1
)

var sizes = map[Type]float64{
	Net:        60,
	Hook:       20,
	Jellyfish:  30,
	Current:    80,
	Urchin:     25,
	Floodlight: 40,
}

// Hazard is immutable after construction.
type Hazard struct {
	ID         string    `json:"id" msgpack:"id"`
	Type       Type      `json:"type" msgpack:"type"`
	Position   geom.Vec2 `json:"position" msgpack:"position"`
	Size       float64   `json:"size" msgpack:"size"`
	Direction  geom.Vec2 `json:"direction,omitempty" msgpack:"direction"`
	VisionCone float64   `json:"visionCone,omitempty" msgpack:"visionCone"`
}

// Known reports whether t is a hazard type.
func Known(t Type) bool {
	_, ok := sizes[t]
	return ok
}

// New builds a hazard. Currents draw their drift from rng.
func New(id string, t Type, pos geom.Vec2, rng *rand.Rand) (*Hazard, error) {
	size, ok := sizes[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	h := &Hazard{ID: id, Type: t, Position: pos, Size: size}
	switch t {
	case Current:
		h.Direction = geom.Vec2{
			X: world.RandomDistance(rng, -currentMaxDrift, currentMaxDrift),
			Y: world.RandomDistance(rng, -currentMaxDrift, currentMaxDrift),
		}
	case Floodlight:
		h.VisionCone = floodlightCone
	}
	return h, nil
}

// Effect returns the effect this hazard applies on contact, or an effect of
// kind none for hazards that only push.
func (h *Hazard) Effect() effects.Effect {
	var e effects.Effect
	switch h.Type {
	case Net:
		e = effects.Stuck(stuckDurationMs)
	case Hook:
		e = effects.Snag(snagDurationMs)
	case Jellyfish:
		e = effects.Stun(stunDurationMs)
	case Urchin:
		e = effects.Damage(urchinDamage)
	case Floodlight:
		e = effects.Exposed(exposedDurationMs)
	default:
		return effects.Effect{}
	}
	e.Source = h.ID
	return e
}

// Result is the outcome of one frame of hazard resolution.
type Result struct {
	// Effect is the single effect emitted this frame. Kind is none when no
	// hazard overlapped.
	Effect effects.Effect
	// Source is the hazard that produced Effect.
	Source *Hazard
	// Triggered lists every overlapping effect hazard in evaluation order.
	Triggered []*Hazard
	// Push is the summed displacement from currents for this frame.
	Push geom.Vec2
}

// HasEffect reports whether an effect was emitted.
func (r Result) HasEffect() bool {
	return r.Effect.Kind != effects.KindNone
}

// Resolve evaluates hazards in order against the avatar. Every hazard within
// its trigger radius overwrites the frame's effect, so the last one evaluated
// wins. A current in range clears any earlier effect since it applies none.
func Resolve(hazards []*Hazard, avatarPos geom.Vec2, dtMs float64) Result {
	var res Result
	for _, h := range hazards {
		if h == nil {
			continue
		}
		d := geom.Distance(avatarPos, h.Position)
		if d < h.Size+triggerPadding {
			res.Effect = h.Effect()
			res.Source = nil
			if res.HasEffect() {
				res.Source = h
				res.Triggered = append(res.Triggered, h)
			}
		}
		if h.Type == Current && d < h.Size+currentPadding {
			res.Push = res.Push.Add(h.Direction.Scale(dtMs / 1000))
		}
	}
	return res
}
