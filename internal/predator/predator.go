// Package predator implements the predator behaviour state machine: perception
// of the avatar, the patrol/investigate/chase/lost transitions and movement
// toward the current target.
package predator

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/mjcole76/octochase/internal/geom"
	"github.com/mjcole76/octochase/internal/world"
)

type Type string

const (
	Shark     Type = "shark"
	Barracuda Type = "barracuda"
	Eel       Type = "eel"
	Dolphin   Type = "dolphin"
	Moray     Type = "moray"
)

var knownTypes = []Type{Shark, Barracuda, Eel, Dolphin, Moray}

type State string

const (
	StatePatrol      State = "patrol"
	StateInvestigate State = "investigate"
	StateChase       State = "chase"
	StateLost        State = "lost"
)

const (
	waypointArriveRadius = 30
	lastSeenClearRadius  = 50
	moveEpsilon          = 5
	investigateTimeoutMs = 3000
	lostTimeoutMs        = 5000
	chaseSpeedFactor     = 1.5
	alertGainMs          = 2000
	alertDecayMs         = 3000
	spawnMinDistance     = 400
	spawnMargin          = 50
	patrolPoints         = 4
)

// Predator is one AI-controlled enemy.
type Predator struct {
	ID       string    `json:"id" msgpack:"id"`
	Type     Type      `json:"type" msgpack:"type"`
	Variant  Variant   `json:"variant" msgpack:"variant"`
	Position geom.Vec2 `json:"position" msgpack:"position"`
	Velocity geom.Vec2 `json:"velocity" msgpack:"velocity"`

	State        State       `json:"state" msgpack:"state"`
	Target       geom.Vec2   `json:"target" msgpack:"target"`
	AlertLevel   float64     `json:"alertLevel" msgpack:"alert"`
	StateTimerMs float64     `json:"stateTimerMs" msgpack:"stateTimer"`
	PatrolPath   []geom.Vec2 `json:"patrolPath,omitempty" msgpack:"path"`
	PatrolIndex  int         `json:"patrolIndex" msgpack:"pathIndex"`
	LastSeen     *geom.Vec2  `json:"lastSeen,omitempty" msgpack:"lastSeen"`

	Size             float64 `json:"size" msgpack:"size"`
	MaxSpeed         float64 `json:"maxSpeed" msgpack:"maxSpeed"`
	DetectionRange   float64 `json:"detectionRange" msgpack:"detect"`
	InvestigateRange float64 `json:"investigateRange" msgpack:"investigate"`
	LoseTargetMs     float64 `json:"loseTargetMs" msgpack:"loseTarget"`
}

// New builds a campaign predator from the global library.
func New(id string, t Type, pos geom.Vec2, path []geom.Vec2) (*Predator, error) {
	return NewFromLibrary(GlobalLibrary, VariantCampaign, id, t, pos, path)
}

// NewFromLibrary builds a predator of the given variant.
func NewFromLibrary(lib *Library, variant Variant, id string, t Type, pos geom.Vec2, path []geom.Vec2) (*Predator, error) {
	arch, err := lib.Archetype(variant, t)
	if err != nil {
		return nil, err
	}
	if variant == "" {
		variant = VariantCampaign
	}
	p := &Predator{
		ID:               id,
		Type:             arch.Type,
		Variant:          variant,
		Position:         pos,
		State:            StatePatrol,
		Target:           pos,
		PatrolPath:       append([]geom.Vec2(nil), path...),
		Size:             arch.Size,
		MaxSpeed:         arch.MaxSpeed,
		DetectionRange:   arch.DetectionRange,
		InvestigateRange: arch.InvestigateRange,
		LoseTargetMs:     arch.LoseTargetMs,
	}
	if len(p.PatrolPath) > 0 {
		p.Target = p.PatrolPath[0]
	}
	return p, nil
}

// SpawnAway places a new predator at a random point at least 400 units from
// the avatar with a random four point patrol path.
func SpawnAway(rng *rand.Rand, id string, variant Variant, t Type, avatarPos geom.Vec2, bounds geom.Bounds) (*Predator, error) {
	if _, err := GlobalLibrary.Archetype(variant, t); err != nil {
		return nil, err
	}
	pos := world.RandomPoint(rng, bounds, spawnMargin)
	dir, dist := geom.Direction(avatarPos, pos)
	if dist < spawnMinDistance {
		if dir.IsZero() {
			angle := world.RandomAngle(rng)
			dir = geom.V(math.Cos(angle), math.Sin(angle))
		}
		pos = avatarPos.Add(dir.Scale(spawnMinDistance))
	}
	pos = bounds.ClampInset(pos, spawnMargin)
	path := make([]geom.Vec2, patrolPoints)
	for i := range path {
		path[i] = world.RandomPoint(rng, bounds, spawnMargin)
	}
	p, err := NewFromLibrary(GlobalLibrary, variant, id, t, pos, path)
	if err != nil {
		return nil, fmt.Errorf("spawn %s: %w", id, err)
	}
	return p, nil
}

// Sanitize recentres a predator whose position or velocity went non-finite.
func (p *Predator) Sanitize(bounds geom.Bounds) bool {
	var posBad, velBad bool
	p.Position, posBad = geom.Sanitize(p.Position, bounds.Center())
	p.Velocity, velBad = geom.Sanitize(p.Velocity, geom.Vec2{})
	if posBad {
		p.Target = p.Position
	}
	return posBad || velBad
}

// Clone returns a deep copy of p.
func (p *Predator) Clone() *Predator {
	if p == nil {
		return nil
	}
	cloned := *p
	cloned.PatrolPath = append([]geom.Vec2(nil), p.PatrolPath...)
	if p.LastSeen != nil {
		seen := *p.LastSeen
		cloned.LastSeen = &seen
	}
	return &cloned
}
