// Package boss implements the boss encounters fought on every third level.
package boss

import (
	"context"
	"fmt"
	"math"

	"github.com/mjcole76/octochase/internal/avatar"
	"github.com/mjcole76/octochase/internal/geom"
	"github.com/mjcole76/octochase/internal/scoring"
	"github.com/mjcole76/octochase/logging"
	bosslog "github.com/mjcole76/octochase/logging/boss"
)

type Type string

const (
	MegaShark   Type = "mega_shark"
	Kraken      Type = "kraken"
	ElectricEel Type = "electric_eel"
)

type Pattern string

const (
	Charge   Pattern = "charge"
	Tentacle Pattern = "tentacle"
	Pulse    Pattern = "pulse"
)

const (
	edgeMargin          = 60
	dashDamage          = 50
	hitInvulnMs         = 500
	defeatShake         = 15
	chargeSpeed         = 200
	chargeCooldownMs    = 2000
	chargeDamping       = 0.95
	pulseFar            = 300
	pulseNear           = 150
	pulseApproach       = 80
	pulseRetreat        = 60
	pulseDamping        = 0.9
	tentacleReach       = 250
	tentacleApproach    = 60
	tentacleDamping     = 0.85
	phaseTwoThreshold   = 0.66
	phaseThreeThreshold = 0.33
)

type profile struct {
	name    string
	health  float64
	size    float64
	speed   float64
	pattern Pattern
	reward  float64
}

var profiles = map[Type]profile{
	MegaShark:   {name: "Mega Shark", health: 300, size: 120, speed: 150, pattern: Charge, reward: 1000},
	Kraken:      {name: "The Kraken", health: 500, size: 150, speed: 100, pattern: Tentacle, reward: 1500},
	ElectricEel: {name: "Thunder Eel", health: 250, size: 100, speed: 180, pattern: Pulse, reward: 1200},
}

var rotation = []Type{MegaShark, Kraken, ElectricEel}

// TypeFor picks the boss fought on a boss level.
func TypeFor(levelID int) Type {
	i := (levelID/3 - 1) % len(rotation)
	if i < 0 {
		i += len(rotation)
	}
	return rotation[i]
}

// SpawnPoint is where a boss enters the arena.
func SpawnPoint(bounds geom.Bounds) geom.Vec2 {
	return geom.V(bounds.Width/2, bounds.Height/3)
}

type Boss struct {
	ID                      string    `json:"id" msgpack:"id"`
	Name                    string    `json:"name" msgpack:"name"`
	Type                    Type      `json:"type" msgpack:"type"`
	Health                  float64   `json:"health" msgpack:"health"`
	MaxHealth               float64   `json:"maxHealth" msgpack:"maxHealth"`
	Phase                   int       `json:"phase" msgpack:"phase"`
	Position                geom.Vec2 `json:"position" msgpack:"position"`
	Velocity                geom.Vec2 `json:"velocity" msgpack:"velocity"`
	Size                    float64   `json:"size" msgpack:"size"`
	Speed                   float64   `json:"speed" msgpack:"speed"`
	Pattern                 Pattern   `json:"pattern" msgpack:"pattern"`
	Reward                  float64   `json:"reward" msgpack:"reward"`
	AttackCooldownMs        float64   `json:"attackCooldownMs" msgpack:"attackCooldown"`
	InvulnerableRemainingMs float64   `json:"invulnerableRemainingMs" msgpack:"invulnerable"`
	Defeated                bool      `json:"defeated" msgpack:"defeated"`
}

func New(levelID int, pos geom.Vec2) *Boss {
	t := TypeFor(levelID)
	p := profiles[t]
	return &Boss{
		ID:        fmt.Sprintf("boss-%d", levelID),
		Name:      p.name,
		Type:      t,
		Health:    p.health,
		MaxHealth: p.health,
		Phase:     1,
		Position:  pos,
		Size:      p.size,
		Speed:     p.speed,
		Pattern:   p.pattern,
		Reward:    p.reward,
	}
}

// Spawn creates the boss for levelID and publishes its arrival.
func Spawn(ctx context.Context, pub logging.Publisher, tick uint64, levelID int, bounds geom.Bounds) *Boss {
	b := New(levelID, SpawnPoint(bounds))
	bosslog.Spawned(ctx, pub, tick, b.ref(), bosslog.SpawnedPayload{Type: string(b.Type), Name: b.Name, Health: b.Health}, nil)
	return b
}

func (b *Boss) ref() logging.EntityRef {
	return logging.Ref(logging.EntityKindBoss, b.ID)
}

// SpeedMultiplier grows with the phase.
func (b *Boss) SpeedMultiplier() float64 {
	return 0.5*float64(b.Phase) + 0.5
}

func (b *Boss) updatePhase() {
	switch {
	case b.Health < b.MaxHealth*phaseThreeThreshold:
		b.Phase = 3
	case b.Health < b.MaxHealth*phaseTwoThreshold:
		b.Phase = 2
	default:
		b.Phase = 1
	}
}

// Update runs the attack pattern and integrates one frame of movement.
func (b *Boss) Update(dtMs float64, avatarPos geom.Vec2, bounds geom.Bounds) {
	if b.Defeated {
		return
	}
	b.updatePhase()
	b.AttackCooldownMs = math.Max(0, b.AttackCooldownMs-dtMs)
	b.InvulnerableRemainingMs = math.Max(0, b.InvulnerableRemainingMs-dtMs)

	mult := b.SpeedMultiplier()
	dir, d := geom.Direction(b.Position, avatarPos)
	switch b.Pattern {
	case Charge:
		if b.AttackCooldownMs <= 0 {
			if d > 0 {
				b.Velocity = dir.Scale(chargeSpeed * mult)
				b.AttackCooldownMs = chargeCooldownMs / mult
			}
		} else {
			b.Velocity = b.Velocity.Scale(chargeDamping)
		}
	case Pulse:
		switch {
		case d > pulseFar:
			b.Velocity = dir.Scale(pulseApproach * mult)
		case d < pulseNear && d > 0:
			b.Velocity = dir.Scale(-pulseRetreat * mult)
		default:
			b.Velocity = b.Velocity.Scale(pulseDamping)
		}
	case Tentacle:
		if d > tentacleReach {
			b.Velocity = dir.Scale(tentacleApproach * mult)
		} else {
			b.Velocity = b.Velocity.Scale(tentacleDamping)
		}
	}

	b.Position = bounds.ClampInset(b.Position.Add(b.Velocity.Scale(dtMs/1000)), edgeMargin)
}

// TakeDamage lowers health unless the boss is still reeling from the last
// strike. It reports whether the damage landed.
func (b *Boss) TakeDamage(amount float64) bool {
	if b.Defeated || b.InvulnerableRemainingMs > 0 {
		return false
	}
	b.Health = math.Max(0, b.Health-amount)
	b.InvulnerableRemainingMs = hitInvulnMs
	b.updatePhase()
	return true
}

// Outcome reports what a contact check did.
type Outcome struct {
	Contact  bool
	HitTaken bool
	Struck   bool
	Defeated bool
}

// Engage resolves contact between the boss and the avatar. A dashing avatar
// strikes the boss; otherwise the avatar takes a hit unless protected.
func (b *Boss) Engage(s *scoring.State, av *avatar.Avatar, fr scoring.Frame) Outcome {
	var out Outcome
	if b == nil || b.Defeated {
		return out
	}
	if geom.Distance(b.Position, av.Position) >= b.Size/2+av.Radius() {
		return out
	}
	out.Contact = true
	ctx := fr.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	if av.IsDashing {
		if !b.TakeDamage(dashDamage) {
			return out
		}
		out.Struck = true
		bosslog.Damaged(ctx, fr.Publisher, fr.Tick, b.ref(), bosslog.DamagedPayload{Amount: dashDamage, Health: b.Health, Phase: b.Phase}, nil)
		if b.Health <= 0 {
			b.Defeated = true
			b.Velocity = geom.Vec2{}
			s.Score += b.Reward
			s.EnemiesDefeated++
			s.AddShake(defeatShake)
			out.Defeated = true
			bosslog.Defeated(ctx, fr.Publisher, fr.Tick, b.ref(), bosslog.DefeatedPayload{Type: string(b.Type), Reward: b.Reward}, nil)
		}
		return out
	}

	if s.Protected(av) || av.InkCloudActive {
		return out
	}
	if s.Powerups.ConsumeShield() {
		av.GrantInvulnerability(scoring.ShieldInvulnMs)
		return out
	}
	s.TakeHit(av, scoring.HitInvulnMs, "boss", fr)
	out.HitTaken = true
	return out
}

// Sanitize recenters a boss whose position drifted to a non-finite value.
func (b *Boss) Sanitize(bounds geom.Bounds) bool {
	pos, recovered := geom.Sanitize(b.Position, SpawnPoint(bounds))
	if recovered {
		b.Position = pos
		b.Velocity = geom.Vec2{}
	}
	return recovered
}

func (b *Boss) Clone() *Boss {
	if b == nil {
		return nil
	}
	cloned := *b
	return &cloned
}
