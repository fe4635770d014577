// Package avatar models the player octopus: intent-driven swimming, the dash
// and ink abilities, and the countdown timers that govern them.
package avatar

import (
	"math"

	"github.com/mjcole76/octochase/internal/effects"
	"github.com/mjcole76/octochase/internal/geom"
	"github.com/mjcole76/octochase/internal/world"
	"github.com/mjcole76/octochase/stats"
)

const (
	// Margin keeps the avatar body fully inside the world.
	Margin = world.AvatarSize / 2

	DashFactor       = 3
	DashDurationMs   = 200
	DashCooldownMs   = 3000
	InkCost          = 30
	InkDurationMs    = 2000
	InkCooldownMs    = 6000
	InkMax           = 100
	inkRegenMsPerPt  = 50
	idleDamping      = 0.9
	snagFactor       = 0.5
	speedBoostFactor = 1.5
)

var (
	sourceStuck      = stats.SourceKey{Kind: stats.SourceKindEffect, ID: "stuck"}
	sourceSnag       = stats.SourceKey{Kind: stats.SourceKindEffect, ID: "snag"}
	sourceSpeedBoost = stats.SourceKey{Kind: stats.SourceKindEffect, ID: "speed_boost"}
	sourceSkill      = stats.SourceKey{Kind: stats.SourceKindSkill, ID: "swim"}
	sourcePowerSpeed = stats.SourceKey{Kind: stats.SourceKindPowerup, ID: "speed"}
	sourcePowerSize  = stats.SourceKey{Kind: stats.SourceKindPowerup, ID: "shrink"}
	sourcePowerScore = stats.SourceKey{Kind: stats.SourceKindPowerup, ID: "multiplier"}
)

// Intent is the requested swim direction, -1..1 per axis.
type Intent struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

func (i Intent) vec() geom.Vec2 {
	return geom.Vec2{X: i.X, Y: i.Y}
}

// Modifiers are the non-effect inputs to the avatar's stat layers. Zero values
// mean "no modifier".
type Modifiers struct {
	SkillSpeed   float64 `json:"skillSpeed,omitempty" msgpack:"skillSpeed"`
	PowerupSpeed float64 `json:"powerupSpeed,omitempty" msgpack:"powerupSpeed"`
	SizeScale    float64 `json:"sizeScale,omitempty" msgpack:"sizeScale"`
	PowerupScore float64 `json:"powerupScore,omitempty" msgpack:"powerupScore"`
}

type Avatar struct {
	Position geom.Vec2 `json:"position" msgpack:"position"`
	Velocity geom.Vec2 `json:"velocity" msgpack:"velocity"`
	Rotation float64   `json:"rotation" msgpack:"rotation"`

	DashCooldownMs float64 `json:"dashCooldownMs" msgpack:"dashCooldown"`
	InkCooldownMs  float64 `json:"inkCooldownMs" msgpack:"inkCooldown"`
	InkMeter       float64 `json:"inkMeter" msgpack:"inkMeter"`
	IsDashing      bool    `json:"isDashing" msgpack:"dashing"`
	InkCloudActive bool    `json:"inkCloudActive" msgpack:"ink"`
	Invulnerable   bool    `json:"invulnerable" msgpack:"invulnerable"`

	DashRemainingMs         float64 `json:"dashRemainingMs" msgpack:"dashRemaining"`
	InkRemainingMs          float64 `json:"inkRemainingMs" msgpack:"inkRemaining"`
	InvulnerableRemainingMs float64 `json:"invulnerableRemainingMs" msgpack:"invulnerableRemaining"`

	Modifiers Modifiers   `json:"modifiers" msgpack:"modifiers"`
	Bounds    geom.Bounds `json:"-" msgpack:"bounds"`

	Stats stats.Component `json:"-" msgpack:"-"`
}

// New places a fresh avatar at pos with a full ink meter.
func New(pos geom.Vec2, bounds geom.Bounds) *Avatar {
	a := &Avatar{
		Position: pos,
		InkMeter: InkMax,
		Bounds:   bounds,
		Stats:    stats.DefaultComponent(stats.ArchetypeOctopus),
	}
	a.Position = a.clampPosition(a.Position)
	return a
}

// Speed returns the resolved swim speed in units per second.
func (a *Avatar) Speed() float64 {
	return a.Stats.GetDerived(stats.DerivedMoveSpeed)
}

// Radius returns the collision radius after size modifiers.
func (a *Avatar) Radius() float64 {
	return a.Stats.GetDerived(stats.DerivedRadius)
}

// ScoreFactor returns the resolved score multiplier from power-ups.
func (a *Avatar) ScoreFactor() float64 {
	return a.Stats.GetDerived(stats.DerivedScoreFactor)
}

// SyncStats rebuilds the stat layers from the active effects and modifiers.
func (a *Avatar) SyncStats(active effects.Set) {
	if a.Stats.Version() == 0 {
		a.Stats = stats.DefaultComponent(stats.ArchetypeOctopus)
	}
	a.Stats.Set(stats.LayerStatus, sourceStuck, stats.Override(stats.StatSwimSpeed, stats.StuckSwimSpeed), active.Has(effects.KindStuck))
	a.Stats.Set(stats.LayerStatus, sourceSnag, stats.Multiplier(stats.StatSwimSpeed, snagFactor), active.Has(effects.KindSnag))
	a.Stats.Set(stats.LayerStatus, sourceSpeedBoost, stats.Multiplier(stats.StatSwimSpeed, speedBoostFactor), active.Has(effects.KindSpeedBoost))
	m := a.Modifiers
	a.Stats.Set(stats.LayerSkill, sourceSkill, stats.Multiplier(stats.StatSwimSpeed, 1+m.SkillSpeed), m.SkillSpeed != 0)
	a.Stats.Set(stats.LayerPowerup, sourcePowerSpeed, stats.Multiplier(stats.StatSwimSpeed, m.PowerupSpeed), m.PowerupSpeed > 0 && m.PowerupSpeed != 1)
	a.Stats.Set(stats.LayerPowerup, sourcePowerSize, stats.Multiplier(stats.StatSizeScale, m.SizeScale), m.SizeScale > 0 && m.SizeScale != 1)
	a.Stats.Set(stats.LayerPowerup, sourcePowerScore, stats.Multiplier(stats.StatScoreMultiplier, m.PowerupScore), m.PowerupScore > 0 && m.PowerupScore != 1)
	a.Stats.Resolve()
}

// Update integrates one frame of movement and counts down every timer.
func (a *Avatar) Update(dtMs float64, intent Intent, active effects.Set) {
	if dtMs < 0 {
		dtMs = 0
	}
	a.SyncStats(active)

	dir := intent.vec()
	switch {
	case active.Has(effects.KindStun) || dir.IsZero():
		a.Velocity = a.Velocity.Scale(idleDamping)
	default:
		// Held input overwrites velocity, so a dash burst only carries while
		// the avatar coasts.
		a.Velocity = dir.Normalize().Scale(a.Speed())
		a.Rotation = math.Atan2(a.Velocity.Y, a.Velocity.X)
	}

	a.Position = a.clampPosition(a.Position.Add(a.Velocity.Scale(dtMs / 1000)))

	a.DashCooldownMs = math.Max(0, a.DashCooldownMs-dtMs)
	a.InkCooldownMs = math.Max(0, a.InkCooldownMs-dtMs)
	a.InkMeter = math.Min(InkMax, a.InkMeter+dtMs/inkRegenMsPerPt)

	if a.IsDashing {
		a.DashRemainingMs -= dtMs
		if a.DashRemainingMs <= 0 {
			a.DashRemainingMs = 0
			a.IsDashing = false
		}
	}
	if a.InkCloudActive {
		a.InkRemainingMs -= dtMs
		if a.InkRemainingMs <= 0 {
			a.InkRemainingMs = 0
			a.InkCloudActive = false
		}
	}
	if a.Invulnerable {
		a.InvulnerableRemainingMs -= dtMs
		if a.InvulnerableRemainingMs <= 0 {
			a.InvulnerableRemainingMs = 0
			a.Invulnerable = false
		}
	}
}

// Dash triples the current velocity. It reports false while on cooldown.
func (a *Avatar) Dash() bool {
	if a.DashCooldownMs > 0 {
		return false
	}
	a.Velocity = a.Velocity.Scale(DashFactor)
	a.IsDashing = true
	a.DashRemainingMs = DashDurationMs
	a.DashCooldownMs = DashCooldownMs
	return true
}

// InkCloud spends ink to hide the avatar. It reports false while on cooldown
// or when the meter is below the cost.
func (a *Avatar) InkCloud() bool {
	if a.InkCooldownMs > 0 || a.InkMeter < InkCost {
		return false
	}
	a.InkMeter = math.Max(0, a.InkMeter-InkCost)
	a.InkCloudActive = true
	a.InkRemainingMs = InkDurationMs
	a.InkCooldownMs = InkCooldownMs
	return true
}

// GrantInvulnerability opens an invulnerability window. A longer window that
// is already running is kept.
func (a *Avatar) GrantInvulnerability(ms float64) {
	if ms <= 0 {
		return
	}
	a.Invulnerable = true
	if ms > a.InvulnerableRemainingMs {
		a.InvulnerableRemainingMs = ms
	}
}

// Displace shifts the avatar by an external push such as a current and keeps
// it inside the playfield.
func (a *Avatar) Displace(delta geom.Vec2) {
	if delta.IsZero() {
		return
	}
	a.Position = a.clampPosition(a.Position.Add(delta))
}

// Sanitize recentres a non-finite position or velocity. It reports whether
// anything was replaced.
func (a *Avatar) Sanitize() bool {
	var posBad, velBad bool
	a.Position, posBad = geom.Sanitize(a.Position, a.Bounds.Center())
	a.Velocity, velBad = geom.Sanitize(a.Velocity, geom.Vec2{})
	if math.IsNaN(a.Rotation) || math.IsInf(a.Rotation, 0) {
		a.Rotation = 0
	}
	return posBad || velBad
}

// Clone copies the avatar and rebuilds its stat component.
func (a *Avatar) Clone(active effects.Set) *Avatar {
	if a == nil {
		return nil
	}
	cloned := *a
	cloned.Stats = stats.DefaultComponent(stats.ArchetypeOctopus)
	cloned.SyncStats(active)
	return &cloned
}

func (a *Avatar) clampPosition(p geom.Vec2) geom.Vec2 {
	if a.Bounds.Width <= 0 || a.Bounds.Height <= 0 {
		return p
	}
	return a.Bounds.ClampInset(p, Margin)
}
