package level

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjcole76/octochase/internal/geom"
	"github.com/mjcole76/octochase/internal/hazard"
	"github.com/mjcole76/octochase/internal/predator"
	"github.com/mjcole76/octochase/logging"
	levellog "github.com/mjcole76/octochase/logging/level"
	"github.com/mjcole76/octochase/logging/sinks"
)

type gateRules bool

func (r gateRules) UsesEndGate() bool { return bool(r) }

func TestCampaignTable(t *testing.T) {
	require.Len(t, campaign, CampaignLevels)
	for id := 1; id <= CampaignLevels; id++ {
		cfg, err := Lookup(id)
		require.NoError(t, err, "level %d", id)
		assert.Equal(t, id, cfg.ID)
		assert.NoError(t, cfg.Validate())
		assert.Less(t, cfg.Thresholds.Bronze, cfg.Thresholds.Silver)
		assert.Less(t, cfg.Thresholds.Silver, cfg.Thresholds.Gold)
		assert.Greater(t, cfg.CheckpointMs, 0.0)
		assert.Less(t, cfg.CheckpointMs, cfg.DurationMs)
	}

	first, _ := Lookup(1)
	assert.Equal(t, "Shallow Reef", first.Name)
	assert.Equal(t, 45000.0, first.DurationMs)
	assert.Equal(t, geom.V(700, 300), first.EndGate)
	require.Len(t, first.Predators, 1)
	assert.Equal(t, predator.Moray, first.Predators[0].Type)
	assert.Len(t, first.Predators[0].Patrol, 3)
}

func TestLookupReturnsCopies(t *testing.T) {
	a, _ := Lookup(1)
	a.Predators[0].Patrol[0] = geom.V(-1, -1)
	a.Hazards[0].Type = hazard.Urchin
	b, _ := Lookup(1)
	assert.Equal(t, geom.V(200, 200), b.Predators[0].Patrol[0])
	assert.Equal(t, hazard.Net, b.Hazards[0].Type)
}

func TestLookupRejectsNonPositiveIDs(t *testing.T) {
	for _, id := range []int{0, -3} {
		_, err := Lookup(id)
		assert.True(t, errors.Is(err, ErrInvalidLevel), "id %d", id)
	}
}

func TestEndlessSynthesis(t *testing.T) {
	cfg, err := Lookup(10)
	require.NoError(t, err)
	assert.Equal(t, Endless(10), cfg)

	assert.Equal(t, BiomeKelp, cfg.Biome)
	assert.Equal(t, 110000.0, cfg.DurationMs)
	assert.Equal(t, 55000.0, cfg.CheckpointMs)
	assert.Equal(t, geom.V(700, 500), cfg.Start)
	assert.InDelta(t, 980, cfg.Checkpoint.X, 1e-9)
	assert.Equal(t, geom.V(1260, 500), cfg.EndGate)
	assert.Equal(t, Thresholds{Bronze: 150, Silver: 250, Gold: 350}, cfg.Thresholds)
	assert.InDelta(t, 1.8, cfg.FoodDensity, 1e-9)

	require.Len(t, cfg.Predators, 5)
	assert.Equal(t, predator.Shark, cfg.Predators[0].Type)
	assert.Equal(t, predator.Moray, cfg.Predators[1].Type)
	assert.Equal(t, predator.Dolphin, cfg.Predators[2].Type)
	assert.Equal(t, geom.V(500, 350), cfg.Predators[2].Position)
	assert.Equal(t, []geom.Vec2{{X: 500, Y: 350}, {X: 600, Y: 450}, {X: 500, Y: 550}}, cfg.Predators[2].Patrol)

	require.Len(t, cfg.Hazards, 4)
	assert.Equal(t, hazard.Current, cfg.Hazards[3].Type)
	assert.Equal(t, geom.V(700, 425), cfg.Hazards[3].Position)

	assert.Equal(t, 2.0, Endless(40).FoodDensity)
	assert.Len(t, Endless(2).Predators, 2)
	assert.Len(t, Endless(2).Hazards, 2)
	for id := 10; id < 40; id++ {
		assert.NoError(t, Endless(id).Validate(), "endless %d", id)
	}
}

func TestLoadRejectsBadTables(t *testing.T) {
	cases := map[string]string{
		"unordered thresholds": `levels:
  - {id: 1, duration: 1000, checkpointTime: 500, thresholds: {bronze: 10, silver: 10, gold: 30}}`,
		"zero duration": `levels:
  - {id: 1, duration: 0, thresholds: {bronze: 1, silver: 2, gold: 3}}`,
		"unknown predator": `levels:
  - id: 1
    duration: 1000
    thresholds: {bronze: 1, silver: 2, gold: 3}
    predators: [{type: kraken, position: {x: 1, y: 1}}]`,
		"unknown hazard": `levels:
  - id: 1
    duration: 1000
    thresholds: {bronze: 1, silver: 2, gold: 3}
    hazards: [{type: lava, position: {x: 1, y: 1}}]`,
		"duplicate id": `levels:
  - {id: 1, duration: 1000, thresholds: {bronze: 1, silver: 2, gold: 3}}
  - {id: 1, duration: 1000, thresholds: {bronze: 1, silver: 2, gold: 3}}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load([]byte(doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidLevel))
		})
	}
}

func TestMedalsAreMonotonic(t *testing.T) {
	th := Thresholds{Bronze: 50, Silver: 100, Gold: 150}
	assert.Equal(t, MedalNone, MedalFor(49.9, th))
	assert.Equal(t, MedalBronze, MedalFor(50, th))
	assert.Equal(t, MedalSilver, MedalFor(100, th))
	assert.Equal(t, MedalGold, MedalFor(150, th))
	assert.Equal(t, MedalGold, MedalFor(1e6, th))

	rank := map[Medal]int{MedalNone: 0, MedalBronze: 1, MedalSilver: 2, MedalGold: 3}
	prev := 0
	for score := 0.0; score <= 200; score += 5 {
		r := rank[MedalFor(score, th)]
		assert.GreaterOrEqual(t, r, prev)
		prev = r
	}
}

func TestSurvivalBonus(t *testing.T) {
	assert.Equal(t, 50, SurvivalBonus(22500, 45000))
	assert.Equal(t, 33, SurvivalBonus(1000, 3000))
	assert.Equal(t, 100, SurvivalBonus(45000, 45000))
	assert.Equal(t, 0, SurvivalBonus(0, 45000))
	assert.Equal(t, 0, SurvivalBonus(-10, 45000))
	assert.Equal(t, 0, SurvivalBonus(10, 0))
}

func TestIsBossLevel(t *testing.T) {
	assert.True(t, IsBossLevel(3))
	assert.True(t, IsBossLevel(9))
	assert.True(t, IsBossLevel(12))
	assert.False(t, IsBossLevel(1))
	assert.False(t, IsBossLevel(10))
	assert.False(t, IsBossLevel(0))
}

func newTrackerFixture(t *testing.T, id int) (*Tracker, *sinks.MemorySink, logging.Publisher) {
	t.Helper()
	cfg, err := Lookup(id)
	require.NoError(t, err)
	sink := sinks.NewMemorySink()
	pub := logging.PublisherFunc(func(_ context.Context, e logging.Event) { _ = sink.Write(e) })
	return NewTracker(cfg), sink, pub
}

func countEvents(sink *sinks.MemorySink, kind logging.EventType) int {
	n := 0
	for _, e := range sink.Events() {
		if e.Type == kind {
			n++
		}
	}
	return n
}

func TestTrackerCheckpointPublishedOnce(t *testing.T) {
	tr, sink, pub := newTrackerFixture(t, 1)
	ctx := context.Background()
	away := geom.V(100, 300)

	assert.False(t, tr.Advance(ctx, pub, 1, 1000, away, 0, gateRules(true)))
	assert.Equal(t, PhaseActive, tr.Progress.Phase)

	for i := 0; i < 3; i++ {
		tr.Advance(ctx, pub, 2, 22500+float64(i), away, 0, gateRules(true))
	}
	assert.True(t, tr.Progress.CheckpointReached)
	assert.Equal(t, PhaseCheckpoint, tr.Progress.Phase)
	assert.Equal(t, 1, countEvents(sink, levellog.EventCheckpoint))
}

func TestTrackerEndGateInClassic(t *testing.T) {
	tr, sink, pub := newTrackerFixture(t, 1)
	done := tr.Advance(context.Background(), pub, 9, 9000, geom.V(690, 300), 75, gateRules(true))
	require.True(t, done)

	p := tr.Progress
	assert.True(t, p.ShowResults)
	assert.True(t, p.Complete)
	assert.False(t, p.GameOver)
	assert.Equal(t, PhaseComplete, p.Phase)
	assert.Equal(t, 80, p.SurvivalBonus)
	assert.Equal(t, 155.0, p.FinalScore)
	assert.Equal(t, MedalGold, p.Medal)
	assert.Equal(t, 1, countEvents(sink, levellog.EventComplete))

	assert.False(t, tr.Advance(context.Background(), pub, 10, 9100, geom.V(690, 300), 75, gateRules(true)))
	assert.Equal(t, 1, countEvents(sink, levellog.EventComplete))
}

func TestTrackerDurationCompletes(t *testing.T) {
	tr, _, pub := newTrackerFixture(t, 1)
	require.True(t, tr.Advance(context.Background(), pub, 1, 45000, geom.V(100, 300), 60, gateRules(true)))
	assert.Equal(t, 0, tr.Progress.SurvivalBonus)
	assert.Equal(t, MedalBronze, tr.Progress.Medal)
}

func TestTrackerIgnoresGateForOtherModes(t *testing.T) {
	tr, _, pub := newTrackerFixture(t, 1)
	assert.False(t, tr.Advance(context.Background(), pub, 1, 9000, geom.V(700, 300), 0, gateRules(false)))
	assert.False(t, tr.Advance(context.Background(), pub, 2, 90000, geom.V(700, 300), 0, gateRules(false)))
	assert.False(t, tr.Finished())
	assert.True(t, tr.Progress.CheckpointReached)
}

func TestTrackerGameOver(t *testing.T) {
	tr, sink, pub := newTrackerFixture(t, 2)
	tr.Advance(context.Background(), pub, 1, 30000, geom.V(0, 0), 20, gateRules(true))
	tr.GameOver(context.Background(), pub, 2, 20, "lives")

	assert.True(t, tr.Finished())
	assert.True(t, tr.Progress.GameOver)
	assert.False(t, tr.Progress.Complete)
	assert.Equal(t, 50, tr.Progress.SurvivalBonus)
	assert.Equal(t, MedalNone, tr.Progress.Medal)
	assert.Equal(t, 1, countEvents(sink, levellog.EventGameOver))

	tr.GameOver(context.Background(), pub, 3, 20, "lives")
	assert.Equal(t, 1, countEvents(sink, levellog.EventGameOver))
}
