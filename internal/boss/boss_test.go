package boss

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjcole76/octochase/internal/avatar"
	"github.com/mjcole76/octochase/internal/geom"
	"github.com/mjcole76/octochase/internal/powerup"
	"github.com/mjcole76/octochase/internal/scoring"
	"github.com/mjcole76/octochase/internal/world"
	"github.com/mjcole76/octochase/logging"
	bosslog "github.com/mjcole76/octochase/logging/boss"
	"github.com/mjcole76/octochase/logging/sinks"
)

func TestTypeRotation(t *testing.T) {
	assert.Equal(t, MegaShark, TypeFor(3))
	assert.Equal(t, Kraken, TypeFor(6))
	assert.Equal(t, ElectricEel, TypeFor(9))
	assert.Equal(t, MegaShark, TypeFor(12))
	assert.Equal(t, Kraken, TypeFor(15))
}

func TestNewUsesProfile(t *testing.T) {
	b := New(6, geom.V(700, 333))
	assert.Equal(t, "boss-6", b.ID)
	assert.Equal(t, Kraken, b.Type)
	assert.Equal(t, 500.0, b.Health)
	assert.Equal(t, 150.0, b.Size)
	assert.Equal(t, Tentacle, b.Pattern)
	assert.Equal(t, 1500.0, b.Reward)
	assert.Equal(t, 1, b.Phase)
	assert.Equal(t, 1.0, b.SpeedMultiplier())
}

func TestSpawnPublishes(t *testing.T) {
	sink := sinks.NewMemorySink()
	pub := logging.PublisherFunc(func(_ context.Context, e logging.Event) { _ = sink.Write(e) })
	b := Spawn(context.Background(), pub, 1, 3, world.DefaultBounds())
	assert.InDelta(t, 700, b.Position.X, 1e-9)
	assert.InDelta(t, 1000.0/3, b.Position.Y, 1e-9)
	require.Len(t, sink.Events(), 1)
	assert.Equal(t, bosslog.EventSpawned, sink.Events()[0].Type)
}

func TestChargePattern(t *testing.T) {
	bounds := world.DefaultBounds()
	b := New(3, geom.V(700, 300))
	b.Update(16, geom.V(700, 800), bounds)
	assert.InDelta(t, 200, b.Velocity.Y, 1e-9)
	assert.InDelta(t, 0, b.Velocity.X, 1e-9)
	assert.Equal(t, 2000.0, b.AttackCooldownMs)
	assert.InDelta(t, 303.2, b.Position.Y, 1e-9)

	b.Update(16, geom.V(700, 800), bounds)
	assert.InDelta(t, 190, b.Velocity.Y, 1e-9)
	assert.Equal(t, 1984.0, b.AttackCooldownMs)
}

func TestPulseAndTentaclePatterns(t *testing.T) {
	bounds := world.DefaultBounds()

	eel := New(9, geom.V(700, 300))
	eel.Update(16, geom.V(700, 400), bounds)
	assert.InDelta(t, -60, eel.Velocity.Y, 1e-9)

	eel = New(9, geom.V(700, 300))
	eel.Update(16, geom.V(700, 700), bounds)
	assert.InDelta(t, 80, eel.Velocity.Y, 1e-9)

	kraken := New(6, geom.V(700, 300))
	kraken.Update(16, geom.V(700, 900), bounds)
	assert.InDelta(t, 60, kraken.Velocity.Y, 1e-9)
	kraken.Update(16, geom.V(700, 400), bounds)
	assert.InDelta(t, 51, kraken.Velocity.Y, 1e-9)
}

func TestPositionClamped(t *testing.T) {
	eel := New(9, geom.V(70, 70))
	eel.Update(1000, geom.V(100, 100), world.DefaultBounds())
	assert.Equal(t, geom.V(60, 60), eel.Position)
}

func TestPhasesFollowHealth(t *testing.T) {
	b := New(9, geom.V(700, 300))
	require.True(t, b.TakeDamage(50))
	assert.Equal(t, 1, b.Phase)
	assert.False(t, b.TakeDamage(50), "boss is reeling after a strike")

	b.InvulnerableRemainingMs = 0
	b.TakeDamage(50)
	assert.Equal(t, 2, b.Phase)
	assert.Equal(t, 1.5, b.SpeedMultiplier())

	b.InvulnerableRemainingMs = 0
	b.TakeDamage(100)
	assert.Equal(t, 3, b.Phase)
	assert.Equal(t, 2.0, b.SpeedMultiplier())
}

type engageFixture struct {
	boss   *Boss
	state  *scoring.State
	avatar *avatar.Avatar
	sink   *sinks.MemorySink
	frame  scoring.Frame
}

func newEngageFixture() *engageFixture {
	sink := sinks.NewMemorySink()
	pos := geom.V(700, 300)
	return &engageFixture{
		boss:   New(9, pos),
		state:  scoring.NewState(3, false, 1),
		avatar: avatar.New(pos.Add(geom.V(60, 0)), world.DefaultBounds()),
		sink:   sink,
		frame: scoring.Frame{
			Ctx:       context.Background(),
			Publisher: logging.PublisherFunc(func(_ context.Context, e logging.Event) { _ = sink.Write(e) }),
		},
	}
}

func TestContactHitsAvatar(t *testing.T) {
	fx := newEngageFixture()
	fx.state.Combo = 3
	out := fx.boss.Engage(fx.state, fx.avatar, fx.frame)
	assert.True(t, out.Contact)
	assert.True(t, out.HitTaken)
	assert.Equal(t, 2, fx.state.Lives)
	assert.Equal(t, 1, fx.state.Combo)
	assert.Equal(t, 3000.0, fx.avatar.InvulnerableRemainingMs)

	out = fx.boss.Engage(fx.state, fx.avatar, fx.frame)
	assert.True(t, out.Contact)
	assert.False(t, out.HitTaken)
	assert.Equal(t, 2, fx.state.Lives)
}

func TestContactOutOfReach(t *testing.T) {
	fx := newEngageFixture()
	fx.avatar.Position = fx.boss.Position.Add(geom.V(70, 0))
	assert.False(t, fx.boss.Engage(fx.state, fx.avatar, fx.frame).Contact)
}

func TestShieldAbsorbsBossHit(t *testing.T) {
	fx := newEngageFixture()
	fx.state.Powerups.Activate(powerup.Shield)
	out := fx.boss.Engage(fx.state, fx.avatar, fx.frame)
	assert.False(t, out.HitTaken)
	assert.Equal(t, 3, fx.state.Lives)
	assert.False(t, fx.state.Powerups.Shielded())
}

func TestDashStrikesUntilDefeat(t *testing.T) {
	fx := newEngageFixture()
	fx.avatar.IsDashing = true
	strikes := 0
	for i := 0; i < 10 && !fx.boss.Defeated; i++ {
		out := fx.boss.Engage(fx.state, fx.avatar, fx.frame)
		assert.False(t, out.HitTaken)
		if out.Struck {
			strikes++
		}
		assert.False(t, fx.boss.Engage(fx.state, fx.avatar, fx.frame).Struck)
		fx.boss.InvulnerableRemainingMs = 0
	}
	assert.True(t, fx.boss.Defeated)
	assert.Equal(t, 5, strikes)
	assert.Equal(t, 1200.0, fx.state.Score)
	assert.Equal(t, 1, fx.state.EnemiesDefeated)
	assert.Equal(t, 3, fx.state.Lives)

	var defeated int
	for _, e := range fx.sink.Events() {
		if e.Type == bosslog.EventDefeated {
			defeated++
		}
	}
	assert.Equal(t, 1, defeated)

	assert.False(t, fx.boss.Engage(fx.state, fx.avatar, fx.frame).Contact)
}

func TestSanitizeAndClone(t *testing.T) {
	b := New(3, geom.V(700, 300))
	c := b.Clone()
	c.Health = 1
	assert.Equal(t, 300.0, b.Health)

	b.Position = geom.V(0, 0)
	assert.False(t, b.Sanitize(world.DefaultBounds()))
}
