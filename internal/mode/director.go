package mode

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/mjcole76/octochase/internal/geom"
	"github.com/mjcole76/octochase/internal/predator"
	"github.com/mjcole76/octochase/internal/scoring"
	"github.com/mjcole76/octochase/logging"
	predatorlog "github.com/mjcole76/octochase/logging/predator"
)

const (
	survivalRampMs   = 30000
	survivalChance   = 0.02
	survivalCap      = 15
	survivalSpeedCap = 300

	timeAttackChance      = 0.003
	timeAttackCap         = 8
	timeAttackSpeed       = 150
	timeAttackDetect      = 250
	timeAttackInvestigate = 180
	timeAttackLoseMs      = 3000

	endlessRampMs = 60000
	endlessChance = 0.001
	endlessCap    = 10

	hunterDetect      = 200
	hunterInvestigate = 150
	hunterLoseMs      = 5000

	challengeChance      = 0.002
	challengeCap         = 7
	challengeSpeed       = 100
	challengeDetect      = 220
	challengeInvestigate = 160

	zenPredatorCap = 2
	zenSpeedScale  = 0.5

	speedRunParSeconds = 100
	speedRunBonusRate  = 0.1
)

var (
	hunterTypes     = []predator.Type{predator.Shark, predator.Barracuda, predator.Eel, predator.Dolphin}
	timeAttackTypes = []predator.Type{predator.Barracuda, predator.Barracuda, predator.Eel}
)

// Frame carries the inputs of one director step.
type Frame struct {
	Ctx       context.Context
	Tick      uint64
	Publisher logging.Publisher
	RNG       *rand.Rand
	DtMs      float64
	AvatarPos geom.Vec2
	Bounds    geom.Bounds
}

// DirectorState is the serializable part of a Director.
type DirectorState struct {
	TimeRemainingMs float64 `json:"timeRemainingMs" msgpack:"timeRemaining"`
	Spawned         int     `json:"spawned" msgpack:"spawned"`
}

// Director applies a mode's per-frame spawn and difficulty rules.
type Director struct {
	rules Rules
	State DirectorState
}

func NewDirector(r Rules) *Director {
	return &Director{rules: r, State: DirectorState{TimeRemainingMs: r.TimeLimitMs}}
}

func (d *Director) Rules() Rules {
	return d.rules
}

// TimeRemainingMs is the time attack clock. Modes without one report +Inf.
func (d *Director) TimeRemainingMs() float64 {
	if d.rules.TimeLimitMs <= 0 {
		return math.Inf(1)
	}
	return d.State.TimeRemainingMs
}

// SpeedScale is the mode's multiplier on predator movement.
func (d *Director) SpeedScale() float64 {
	if d.rules.Mode == Zen {
		return zenSpeedScale
	}
	return 1
}

// Over reports whether the run has ended under the director's rules.
func (d *Director) Over(s *scoring.State) (bool, string) {
	return d.rules.Over(s, d.TimeRemainingMs())
}

type hunterSpec struct {
	speed, detect, investigate, loseMs float64
}

func fixedSpec(spec hunterSpec) func(predator.Type) hunterSpec {
	return func(predator.Type) hunterSpec { return spec }
}

// survivalHunter scales every stat of a new survival hunter by diff.
func survivalHunter(diff float64) func(predator.Type) hunterSpec {
	return func(t predator.Type) hunterSpec {
		base := 80.0
		switch t {
		case predator.Barracuda:
			base = 120
		case predator.Eel:
			base = 100
		}
		return hunterSpec{
			speed:       base * diff,
			detect:      hunterDetect * diff,
			investigate: hunterInvestigate * diff,
			loseMs:      hunterLoseMs,
		}
	}
}

// endlessHunter scales only the speed of a new endless hunter by ramp.
func endlessHunter(ramp float64) func(predator.Type) hunterSpec {
	return func(t predator.Type) hunterSpec {
		base := 90.0
		if t == predator.Barracuda {
			base = 110
		}
		return hunterSpec{
			speed:       base * ramp,
			detect:      hunterDetect,
			investigate: hunterInvestigate,
			loseMs:      hunterLoseMs,
		}
	}
}

// Step runs one frame and returns the predator list, which may have grown or
// been trimmed.
func (d *Director) Step(fr Frame, preds []*predator.Predator, s *scoring.State) []*predator.Predator {
	switch d.rules.Mode {
	case Survival:
		diff := 1 + s.GameTimeMs/survivalRampMs
		if len(preds) < survivalCap && fr.RNG.Float64() < survivalChance*diff {
			preds = d.spawn(fr, preds, hunterTypes, survivalHunter(diff))
		}
		for _, p := range preds {
			p.MaxSpeed = math.Min(survivalSpeedCap, p.MaxSpeed*(1+0.01*diff))
		}
	case TimeAttack:
		d.State.TimeRemainingMs = math.Max(0, d.State.TimeRemainingMs-fr.DtMs)
		if len(preds) < timeAttackCap && fr.RNG.Float64() < timeAttackChance {
			preds = d.spawn(fr, preds, timeAttackTypes, fixedSpec(hunterSpec{
				speed:       timeAttackSpeed,
				detect:      timeAttackDetect,
				investigate: timeAttackInvestigate,
				loseMs:      timeAttackLoseMs,
			}))
		}
	case Endless:
		ramp := 1 + s.GameTimeMs/endlessRampMs
		if len(preds) < endlessCap && fr.RNG.Float64() < endlessChance*ramp {
			preds = d.spawn(fr, preds, hunterTypes, endlessHunter(ramp))
		}
	case Challenge:
		if len(preds) < challengeCap && fr.RNG.Float64() < challengeChance {
			preds = d.spawn(fr, preds, hunterTypes, fixedSpec(hunterSpec{
				speed:       challengeSpeed,
				detect:      challengeDetect,
				investigate: challengeInvestigate,
			}))
		}
	case Zen:
		if len(preds) > zenPredatorCap {
			for i := zenPredatorCap; i < len(preds); i++ {
				preds[i] = nil
			}
			preds = preds[:zenPredatorCap]
		}
	case SpeedRun:
		seconds := math.Floor(s.GameTimeMs / 1000)
		s.Score += speedRunBonusRate * math.Max(0, speedRunParSeconds-seconds)
	}
	return preds
}

func (d *Director) spawn(fr Frame, preds []*predator.Predator, types []predator.Type, specFor func(predator.Type) hunterSpec) []*predator.Predator {
	t := types[fr.RNG.Intn(len(types))]
	id := fmt.Sprintf("%s-hunter-%d", d.rules.Mode, d.State.Spawned)
	p, err := predator.SpawnAway(fr.RNG, id, predator.VariantHunter, t, fr.AvatarPos, fr.Bounds)
	if err != nil {
		return preds
	}
	d.State.Spawned++
	spec := specFor(p.Type)
	if spec.speed > 0 {
		p.MaxSpeed = spec.speed
	}
	if spec.detect > 0 {
		p.DetectionRange = spec.detect
	}
	if spec.investigate > 0 {
		p.InvestigateRange = spec.investigate
	}
	if spec.loseMs > 0 {
		p.LoseTargetMs = spec.loseMs
	}
	ctx := fr.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	predatorlog.Spawned(ctx, fr.Publisher, fr.Tick, logging.Ref(logging.EntityKindPredator, p.ID), predatorlog.SpawnedPayload{
		Type:   string(p.Type),
		X:      p.Position.X,
		Y:      p.Position.Y,
		Reason: string(d.rules.Mode),
	}, nil)
	return append(preds, p)
}
