package predator

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjcole76/octochase/internal/geom"
	"github.com/mjcole76/octochase/internal/world"
)

var testBounds = geom.Bounds{Width: world.DefaultWidth, Height: world.DefaultHeight}

func perceive(avatar geom.Vec2) Perception {
	return Perception{AvatarPos: avatar, SpeedScale: 1, Bounds: testBounds}
}

func TestLibraryArchetypes(t *testing.T) {
	shark, err := GlobalLibrary.Archetype(VariantCampaign, Shark)
	require.NoError(t, err)
	assert.Equal(t, Archetype{Type: Shark, Size: 50, MaxSpeed: 120, DetectionRange: 150, InvestigateRange: 80, LoseTargetMs: 2000}, shark)

	moray, err := GlobalLibrary.Archetype(VariantCampaign, Moray)
	require.NoError(t, err)
	assert.Equal(t, 3000.0, moray.LoseTargetMs)

	barracuda, err := GlobalLibrary.Archetype(VariantHunter, Barracuda)
	require.NoError(t, err)
	assert.Equal(t, 55.0, barracuda.Size)
	assert.Equal(t, 120.0, barracuda.MaxSpeed)
	assert.Equal(t, 200.0, barracuda.DetectionRange)

	_, err = GlobalLibrary.Archetype(VariantCampaign, Barracuda)
	assert.True(t, errors.Is(err, ErrUnknownType))

	assert.Equal(t, []Type{Shark, Barracuda, Eel, Dolphin}, GlobalLibrary.Types(VariantHunter))
}

func TestLoadLibraryRejectsBadTables(t *testing.T) {
	_, err := LoadLibrary([]byte(`{"campaign":[{"type":"shark","size":0,"maxSpeed":1,"detectionRange":1,"investigateRange":1,"loseTargetMs":1}]}`))
	assert.Error(t, err)
	_, err = LoadLibrary([]byte(`not json`))
	assert.Error(t, err)
}

func TestNewUnknownType(t *testing.T) {
	_, err := New("p1", Type("kraken"), geom.V(0, 0), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownType))
}

func TestEffectiveness(t *testing.T) {
	cases := []struct {
		name string
		in   Perception
		want float64
	}{
		{"plain", Perception{}, 1},
		{"ink", Perception{Ink: true}, 0.3},
		{"camouflage", Perception{Camouflage: true, Ink: true}, 0},
		{"darkness", Perception{Darkness: true}, 0.3},
		{"ink in darkness", Perception{Ink: true, Darkness: true}, 0.09},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, tc.in.Effectiveness(), 1e-9)
		})
	}
}

func TestNeverSightedStaysInPatrol(t *testing.T) {
	rng := world.NewDeterministicRNG("test", "predator")
	path := []geom.Vec2{geom.V(100, 100), geom.V(200, 100), geom.V(200, 200)}
	p, err := New("p1", Shark, geom.V(100, 100), path)
	require.NoError(t, err)

	far := geom.V(1300, 900)
	for i := 0; i < 2000; i++ {
		_, changed := p.Update(16, rng, perceive(far))
		require.False(t, changed, "unexpected transition at frame %d", i)
	}
	assert.Equal(t, StatePatrol, p.State)
	assert.Zero(t, p.AlertLevel)
}

func TestPatrolAdvancesWaypoints(t *testing.T) {
	rng := world.NewDeterministicRNG("test", "patrol")
	path := []geom.Vec2{geom.V(100, 100), geom.V(300, 100)}
	p, err := New("p1", Moray, geom.V(100, 100), path)
	require.NoError(t, err)

	p.Update(16, rng, perceive(geom.V(1300, 900)))
	assert.Equal(t, 1, p.PatrolIndex)
	assert.Equal(t, geom.V(300, 100), p.Target)
	assert.Greater(t, p.Position.X, 100.0)
}

func TestSightingEscalatesToChase(t *testing.T) {
	rng := world.NewDeterministicRNG("test", "sight")
	p, err := New("p1", Shark, geom.V(500, 500), []geom.Vec2{geom.V(500, 500)})
	require.NoError(t, err)

	avatar := geom.V(500, 500)
	tr, changed := p.Update(16, rng, perceive(avatar))
	require.True(t, changed)
	assert.Equal(t, Transition{From: StatePatrol, To: StateInvestigate, Distance: 0}, tr)
	assert.InDelta(t, 0.3+16.0/2000, p.AlertLevel, 1e-9)

	tr, changed = p.Update(16, rng, perceive(avatar))
	require.True(t, changed)
	assert.Equal(t, StateChase, tr.To)
	require.NotNil(t, p.LastSeen)
	assert.Equal(t, avatar, *p.LastSeen)
	assert.Equal(t, 1.0, p.AlertLevel)
}

func TestChaseWithInkLosesOnlyAfterTimeout(t *testing.T) {
	rng := world.NewDeterministicRNG("test", "ink")
	p, err := New("p1", Shark, geom.V(100, 100), nil)
	require.NoError(t, err)
	p.State = StateChase
	p.Target = p.Position

	in := perceive(geom.V(1200, 900))
	in.Ink = true
	for i := 0; i < 20; i++ {
		_, changed := p.Update(100, rng, in)
		require.False(t, changed, "left chase early at step %d", i)
	}
	assert.Equal(t, StateChase, p.State)

	tr, changed := p.Update(100, rng, in)
	require.True(t, changed)
	assert.Equal(t, StateChase, tr.From)
	assert.Equal(t, StateLost, tr.To)
	assert.InDelta(t, 0.5-100.0/3000, p.AlertLevel, 1e-9)
}

func TestLostReturnsToPatrol(t *testing.T) {
	rng := world.NewDeterministicRNG("test", "lost")
	p, err := New("p1", Dolphin, geom.V(100, 100), nil)
	require.NoError(t, err)
	p.State = StateLost
	seen := geom.V(120, 100)
	p.LastSeen = &seen

	p.Update(16, rng, perceive(geom.V(1200, 900)))
	assert.Nil(t, p.LastSeen, "last seen within 50 should be cleared")

	for i := 0; i < 400 && p.State == StateLost; i++ {
		p.Update(16, rng, perceive(geom.V(1200, 900)))
	}
	assert.Equal(t, StatePatrol, p.State)
}

func TestLostTimeoutTickStillTargetsLastSeen(t *testing.T) {
	rng := world.NewDeterministicRNG("test", "lost-timeout")
	p, err := New("p1", Dolphin, geom.V(100, 100), []geom.Vec2{geom.V(100, 600)})
	require.NoError(t, err)
	p.State = StateLost
	p.StateTimerMs = lostTimeoutMs
	seen := geom.V(700, 100)
	p.LastSeen = &seen
	p.Target = p.Position

	tr, changed := p.Update(16, rng, perceive(geom.V(1300, 900)))
	require.True(t, changed)
	assert.Equal(t, StateLost, tr.From)
	assert.Equal(t, StatePatrol, tr.To)
	assert.Equal(t, seen, p.Target)
	require.NotNil(t, p.LastSeen)
	assert.Greater(t, p.Position.X, 100.0, "moved toward the last sighting")
}

func TestCamouflageBlocksSight(t *testing.T) {
	rng := world.NewDeterministicRNG("test", "camo")
	p, err := New("p1", Shark, geom.V(500, 500), nil)
	require.NoError(t, err)
	in := perceive(geom.V(505, 500))
	in.Camouflage = true
	for i := 0; i < 100; i++ {
		_, changed := p.Update(16, rng, in)
		require.False(t, changed)
	}
}

func TestFrozenPredatorDoesNotMove(t *testing.T) {
	rng := world.NewDeterministicRNG("test", "freeze")
	p, err := New("p1", Shark, geom.V(100, 100), []geom.Vec2{geom.V(600, 600)})
	require.NoError(t, err)
	in := perceive(geom.V(1300, 900))
	in.SpeedScale = 0
	p.Update(16, rng, in)
	assert.Equal(t, geom.V(100, 100), p.Position)
}

func TestChaseMovesFasterThanPatrol(t *testing.T) {
	rng := world.NewDeterministicRNG("test", "speed")
	p, err := New("p1", Shark, geom.V(100, 100), nil)
	require.NoError(t, err)
	p.State = StateChase
	p.Target = geom.V(600, 100)
	p.Update(1000, rng, perceive(geom.V(1300, 900)))
	assert.InDelta(t, 120*1.5, p.Velocity.X, 1e-9)
}

func TestSpawnAwayKeepsDistance(t *testing.T) {
	center := testBounds.Center()
	for i := 0; i < 50; i++ {
		rng := world.NewDeterministicRNG("spawn", fmt.Sprintf("case-%d", i))
		p, err := SpawnAway(rng, "h", VariantHunter, Eel, center, testBounds)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, geom.Distance(center, p.Position), 399.999)
		assert.True(t, testBounds.Contains(p.Position, 50))
		assert.Len(t, p.PatrolPath, 4)
		assert.Equal(t, 55.0, p.Size)
	}
	_, err := SpawnAway(world.NewDeterministicRNG("spawn", "bad"), "h", VariantHunter, Moray, center, testBounds)
	assert.True(t, errors.Is(err, ErrUnknownType))
}

func TestCloneIsDeep(t *testing.T) {
	p, err := New("p1", Shark, geom.V(1, 1), []geom.Vec2{geom.V(2, 2)})
	require.NoError(t, err)
	seen := geom.V(3, 3)
	p.LastSeen = &seen
	c := p.Clone()
	c.PatrolPath[0] = geom.V(9, 9)
	c.LastSeen.X = 9
	assert.Equal(t, geom.V(2, 2), p.PatrolPath[0])
	assert.Equal(t, 3.0, p.LastSeen.X)
}
