package predator

import (
	"math/rand"

	"github.com/mjcole76/octochase/internal/geom"
)

// Perception is what a predator can observe about the avatar this frame.
type Perception struct {
	AvatarPos  geom.Vec2
	Ink        bool
	Camouflage bool
	Darkness   bool
	// SpeedScale multiplies movement speed. Zero freezes the predator.
	SpeedScale float64
	Bounds     geom.Bounds
}

// Effectiveness is the multiplier applied to the sight chance.
func (p Perception) Effectiveness() float64 {
	eff := 1.0
	if p.Ink {
		eff = 0.3
	}
	if p.Camouflage {
		return 0
	}
	if p.Darkness {
		eff *= 0.3
	}
	return eff
}

// Transition records one state machine edge taken during Update.
type Transition struct {
	From     State
	To       State
	Distance float64
}

// CanSee rolls the sight check for an avatar at distance d.
func (p *Predator) CanSee(rng *rand.Rand, d, effectiveness float64) bool {
	if d > p.DetectionRange || p.DetectionRange <= 0 {
		return false
	}
	chance := (1 - d/p.DetectionRange) * effectiveness
	if chance <= 0 {
		return false
	}
	return rng.Float64() < chance
}

// Update advances the state machine and movement by dtMs. The returned
// transition is valid only when changed is true.
func (p *Predator) Update(dtMs float64, rng *rand.Rand, in Perception) (tr Transition, changed bool) {
	p.StateTimerMs += dtMs
	d := geom.Distance(p.Position, in.AvatarPos)
	seen := p.CanSee(rng, d, in.Effectiveness())
	from := p.State

	switch p.State {
	case StatePatrol:
		if seen && d < p.DetectionRange {
			p.enter(StateInvestigate)
			p.Target = in.AvatarPos
			p.AlertLevel = 0.3
		} else if len(p.PatrolPath) > 0 {
			if p.PatrolIndex >= len(p.PatrolPath) || p.PatrolIndex < 0 {
				p.PatrolIndex = 0
			}
			waypoint := p.PatrolPath[p.PatrolIndex]
			if geom.Distance(p.Position, waypoint) < waypointArriveRadius {
				p.PatrolIndex = (p.PatrolIndex + 1) % len(p.PatrolPath)
				waypoint = p.PatrolPath[p.PatrolIndex]
			}
			p.Target = waypoint
		}
	case StateInvestigate:
		if seen && d < p.InvestigateRange {
			p.enter(StateChase)
			p.sighted(in.AvatarPos)
			p.AlertLevel = 1
		} else if p.StateTimerMs > investigateTimeoutMs {
			p.enter(StatePatrol)
			p.AlertLevel = 0
		} else if p.LastSeen != nil {
			p.Target = *p.LastSeen
		}
	case StateChase:
		if seen {
			p.sighted(in.AvatarPos)
			p.StateTimerMs = 0
		} else if p.StateTimerMs > p.LoseTargetMs {
			p.enter(StateLost)
			p.AlertLevel = 0.5
		}
	case StateLost:
		if seen && d < p.DetectionRange {
			p.enter(StateChase)
			p.sighted(in.AvatarPos)
			p.AlertLevel = 1
			break
		}
		if p.StateTimerMs > lostTimeoutMs {
			p.enter(StatePatrol)
			p.AlertLevel = 0
		}
		// The timeout tick still heads for the last sighting.
		if p.LastSeen != nil {
			if geom.Distance(p.Position, *p.LastSeen) < lastSeenClearRadius {
				p.LastSeen = nil
			} else {
				p.Target = *p.LastSeen
			}
		}
	default:
		p.enter(StatePatrol)
	}

	if seen {
		p.AlertLevel += dtMs / alertGainMs
	} else {
		p.AlertLevel -= dtMs / alertDecayMs
	}
	p.AlertLevel = geom.Clamp(p.AlertLevel, 0, 1)

	p.move(dtMs, in)

	if p.State != from {
		return Transition{From: from, To: p.State, Distance: d}, true
	}
	return Transition{}, false
}

func (p *Predator) enter(s State) {
	p.State = s
	p.StateTimerMs = 0
}

func (p *Predator) sighted(pos geom.Vec2) {
	seen := pos
	p.LastSeen = &seen
	p.Target = pos
}

func (p *Predator) move(dtMs float64, in Perception) {
	dir, dist := geom.Direction(p.Position, p.Target)
	if dist <= moveEpsilon {
		p.Velocity = geom.Vec2{}
		return
	}
	speed := p.MaxSpeed * in.SpeedScale
	if p.State == StateChase {
		speed *= chaseSpeedFactor
	}
	p.Velocity = dir.Scale(speed)
	p.Position = p.Position.Add(p.Velocity.Scale(dtMs / 1000))
	if in.Bounds.Width > 0 && in.Bounds.Height > 0 {
		p.Position = in.Bounds.ClampInset(p.Position, p.Size/2)
	}
}
