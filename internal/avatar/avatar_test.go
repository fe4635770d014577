package avatar

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjcole76/octochase/internal/effects"
	"github.com/mjcole76/octochase/internal/geom"
	"github.com/mjcole76/octochase/internal/world"
)

var bounds = world.DefaultBounds()

func TestStaysInsideBounds(t *testing.T) {
	a := New(geom.V(700, 500), bounds)
	intents := []Intent{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {X: 1, Y: 1}, {X: -1, Y: -1}}
	for _, intent := range intents {
		for _, dt := range []float64{0, 1, 16, 33, 250, 5000} {
			for i := 0; i < 50; i++ {
				a.Update(dt, intent, effects.Set{})
				require.GreaterOrEqual(t, a.Position.X, Margin)
				require.LessOrEqual(t, a.Position.X, bounds.Width-Margin)
				require.GreaterOrEqual(t, a.Position.Y, Margin)
				require.LessOrEqual(t, a.Position.Y, bounds.Height-Margin)
			}
		}
	}
}

func TestIntentSetsVelocityAndRotation(t *testing.T) {
	a := New(geom.V(700, 500), bounds)
	a.Update(100, Intent{X: 1, Y: 1}, effects.Set{})
	assert.InDelta(t, 200, a.Velocity.Len(), 1e-9)
	assert.InDelta(t, math.Pi/4, a.Rotation, 1e-9)
	assert.InDelta(t, 700+200/math.Sqrt2*0.1, a.Position.X, 1e-9)
}

func TestIdleDamping(t *testing.T) {
	a := New(geom.V(700, 500), bounds)
	a.Velocity = geom.V(100, 0)
	a.Update(16, Intent{}, effects.Set{})
	assert.InDelta(t, 90, a.Velocity.X, 1e-9)
}

func TestStatusEffectsChangeSpeed(t *testing.T) {
	cases := []struct {
		name  string
		kind  effects.Kind
		speed float64
	}{
		{"stuck", effects.KindStuck, 50},
		{"snag", effects.KindSnag, 100},
		{"speed boost", effects.KindSpeedBoost, 300},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := New(geom.V(700, 500), bounds)
			var set effects.Set
			require.True(t, set.Add(effects.Effect{Kind: tc.kind, DurationMs: 1000}))
			a.Update(16, Intent{X: 1}, set)
			assert.InDelta(t, tc.speed, a.Velocity.X, 1e-9)

			a.Update(16, Intent{X: 1}, effects.Set{})
			assert.InDelta(t, 200, a.Velocity.X, 1e-9)
		})
	}
}

func TestStunIgnoresInput(t *testing.T) {
	a := New(geom.V(700, 500), bounds)
	a.Velocity = geom.V(0, 100)
	var set effects.Set
	set.Add(effects.Stun(500))
	a.Update(16, Intent{X: 1}, set)
	assert.InDelta(t, 0, a.Velocity.X, 1e-9)
	assert.InDelta(t, 90, a.Velocity.Y, 1e-9)
}

func TestModifiersStack(t *testing.T) {
	a := New(geom.V(700, 500), bounds)
	a.Modifiers = Modifiers{SkillSpeed: 0.1, PowerupSpeed: 1.5, SizeScale: 0.6}
	a.Update(16, Intent{X: 1}, effects.Set{})
	assert.InDelta(t, 200*1.1*1.5, a.Speed(), 1e-9)
	assert.InDelta(t, 12, a.Radius(), 1e-9)
}

func TestScoreFactorFollowsPowerupModifier(t *testing.T) {
	a := New(geom.V(700, 500), bounds)
	assert.Equal(t, 1.0, a.ScoreFactor())

	a.Modifiers.PowerupScore = 2
	a.SyncStats(effects.Set{})
	assert.Equal(t, 2.0, a.ScoreFactor())

	a.Modifiers.PowerupScore = 1
	a.SyncStats(effects.Set{})
	assert.Equal(t, 1.0, a.ScoreFactor())
}

func TestDash(t *testing.T) {
	a := New(geom.V(700, 500), bounds)
	a.Velocity = geom.V(100, -50)
	require.True(t, a.Dash())
	assert.Equal(t, geom.V(300, -150), a.Velocity)
	assert.True(t, a.IsDashing)
	assert.Equal(t, 3000.0, a.DashCooldownMs)

	before := a.Velocity
	assert.False(t, a.Dash(), "dash on cooldown must be rejected")
	assert.Equal(t, before, a.Velocity)

	a.Update(100, Intent{}, effects.Set{})
	assert.True(t, a.IsDashing)
	a.Update(100, Intent{}, effects.Set{})
	assert.False(t, a.IsDashing)

	for a.DashCooldownMs > 0 {
		a.Update(100, Intent{}, effects.Set{})
	}
	assert.True(t, a.Dash())
}

func TestHeldIntentOverwritesDashVelocity(t *testing.T) {
	a := New(geom.V(700, 500), bounds)
	a.Velocity = geom.V(a.Speed(), 0)
	require.True(t, a.Dash())
	assert.InDelta(t, 3*a.Speed(), a.Velocity.X, 1e-9)

	a.Update(16, Intent{X: 1}, effects.Set{})
	assert.True(t, a.IsDashing)
	assert.InDelta(t, a.Speed(), a.Velocity.X, 1e-9)
}

func TestDashBurstCoastsWithoutIntent(t *testing.T) {
	a := New(geom.V(700, 500), bounds)
	a.Velocity = geom.V(100, 0)
	require.True(t, a.Dash())

	a.Update(16, Intent{}, effects.Set{})
	assert.Greater(t, a.Velocity.X, 100.0)
	assert.Less(t, a.Velocity.X, 300.0)
}

func TestInkCloud(t *testing.T) {
	a := New(geom.V(700, 500), bounds)
	a.InkMeter = 29.9
	assert.False(t, a.InkCloud())
	assert.Equal(t, 29.9, a.InkMeter)

	a.InkMeter = 45
	require.True(t, a.InkCloud())
	assert.Equal(t, 15.0, a.InkMeter)
	assert.True(t, a.InkCloudActive)
	assert.False(t, a.InkCloud(), "ink on cooldown must be rejected")

	a.Update(1000, Intent{}, effects.Set{})
	assert.InDelta(t, 35, a.InkMeter, 1e-9)
	assert.True(t, a.InkCloudActive)
	a.Update(1000, Intent{}, effects.Set{})
	assert.False(t, a.InkCloudActive)

	for i := 0; i < 100; i++ {
		a.Update(1000, Intent{}, effects.Set{})
	}
	assert.Equal(t, float64(InkMax), a.InkMeter)
}

func TestInvulnerabilityNeverShortened(t *testing.T) {
	a := New(geom.V(700, 500), bounds)
	a.GrantInvulnerability(5000)
	a.GrantInvulnerability(1500)
	assert.Equal(t, 5000.0, a.InvulnerableRemainingMs)
	a.GrantInvulnerability(8000)
	assert.Equal(t, 8000.0, a.InvulnerableRemainingMs)

	a.Update(7999, Intent{}, effects.Set{})
	assert.True(t, a.Invulnerable)
	a.Update(1, Intent{}, effects.Set{})
	assert.False(t, a.Invulnerable)
}

func TestSanitizeRecentres(t *testing.T) {
	a := New(geom.V(700, 500), bounds)
	a.Position = geom.V(math.NaN(), 3)
	a.Velocity = geom.V(math.Inf(1), 0)
	assert.True(t, a.Sanitize())
	assert.Equal(t, bounds.Center(), a.Position)
	assert.True(t, a.Velocity.IsZero())
	assert.False(t, a.Sanitize())
}

func TestCloneRebuildsStats(t *testing.T) {
	a := New(geom.V(700, 500), bounds)
	a.Modifiers.PowerupSpeed = 1.5
	var set effects.Set
	set.Add(effects.Stuck(1000))
	a.SyncStats(set)
	c := a.Clone(set)
	assert.InDelta(t, a.Speed(), c.Speed(), 1e-9)

	c.SyncStats(effects.Set{})
	assert.InDelta(t, 50*1.5, a.Speed(), 1e-9)
	assert.InDelta(t, 300, c.Speed(), 1e-9)
}

func TestDisplaceClampsToPlayfield(t *testing.T) {
	a := New(geom.V(30, 500), world.DefaultBounds())
	a.Displace(geom.V(-100, 0))
	assert.Equal(t, Margin, a.Position.X)
	a.Displace(geom.V(50, 10))
	assert.Equal(t, geom.V(Margin+50, 510), a.Position)
}
