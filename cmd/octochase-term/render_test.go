package main

import (
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjcole76/octochase/internal/avatar"
	"github.com/mjcole76/octochase/internal/geom"
	"github.com/mjcole76/octochase/internal/level"
	"github.com/mjcole76/octochase/internal/predator"
	"github.com/mjcole76/octochase/internal/sim"
)

func newTestScreen(t *testing.T, width, height int) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(width, height)
	t.Cleanup(screen.Fini)
	return screen
}

func rowText(screen tcell.Screen, y, width int) string {
	var b strings.Builder
	for x := 0; x < width; x++ {
		r, _, _, _ := screen.GetContent(x, y)
		b.WriteRune(r)
	}
	return b.String()
}

func TestDrawSnapshotPlacesEntities(t *testing.T) {
	screen := newTestScreen(t, 70, 51)
	snap := sim.Snapshot{
		Level:  sim.LevelView{ID: 3, Name: "Kelp Forest", Checkpoint: geom.Vec2{X: 1390, Y: 990}},
		Avatar: avatar.Avatar{Position: geom.Vec2{X: 700, Y: 500}},
		Predators: []predator.Predator{
			{Type: predator.Shark, Position: geom.Vec2{X: 0, Y: 0}},
		},
		State: sim.StateView{Score: 1250, Lives: 2, Combo: 4, Medal: level.MedalSilver, GameTimeMs: 65_000},
	}

	drawSnapshot(screen, snap)
	screen.Show()

	r, _, _, _ := screen.GetContent(35, 26)
	assert.Equal(t, 'O', r)
	r, _, _, _ = screen.GetContent(0, 1)
	assert.Equal(t, 'S', r)
	r, _, _, _ = screen.GetContent(69, 50)
	assert.Equal(t, '+', r)

	status := rowText(screen, 0, 70)
	assert.Contains(t, status, "L3 Kelp Forest")
	assert.Contains(t, status, "score 1250")
	assert.Contains(t, status, "lives 2")
	assert.Contains(t, status, "medal silver")
	assert.Contains(t, status, "1:05")
}

func TestDrawSnapshotShowsBanner(t *testing.T) {
	screen := newTestScreen(t, 60, 21)
	drawSnapshot(screen, sim.Snapshot{
		Progress: level.Progress{GameOver: true, FinalScore: 900},
	})
	screen.Show()
	assert.Contains(t, rowText(screen, 1+20/2, 60), "GAME OVER")

	screen.Clear()
	drawSnapshot(screen, sim.Snapshot{Paused: true})
	screen.Show()
	assert.Contains(t, rowText(screen, 1+20/2, 60), "PAUSED")
}

func TestDrawSnapshotIgnoresOffscreenAndTinyScreens(t *testing.T) {
	screen := newTestScreen(t, 20, 11)
	assert.NotPanics(t, func() {
		drawSnapshot(screen, sim.Snapshot{Avatar: avatar.Avatar{Position: geom.Vec2{X: -50, Y: 4000}}})
	})

	tiny := newTestScreen(t, 10, 1)
	assert.NotPanics(t, func() { drawSnapshot(tiny, sim.Snapshot{}) })
}

func TestControllerTracksHeldDirections(t *testing.T) {
	c := newController()
	now := time.Unix(0, 0)

	act := c.handleKey(tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone), now)
	require.Equal(t, actionMove, act)
	assert.Equal(t, sim.MoveCommand{DX: 1}, *c.moveCommand().Move)

	act = c.handleKey(tcell.NewEventKey(tcell.KeyRune, 'w', tcell.ModNone), now.Add(50*time.Millisecond))
	require.Equal(t, actionMove, act)
	assert.Equal(t, sim.MoveCommand{DX: 1, DY: -1}, *c.moveCommand().Move)

	// Repeats of a held key change nothing.
	act = c.handleKey(tcell.NewEventKey(tcell.KeyRune, 'w', tcell.ModNone), now.Add(100*time.Millisecond))
	assert.Equal(t, actionNone, act)

	// Opposite directions replace each other.
	act = c.handleKey(tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone), now.Add(120*time.Millisecond))
	require.Equal(t, actionMove, act)
	assert.Equal(t, sim.MoveCommand{DX: -1, DY: -1}, c.intent)

	assert.Equal(t, actionNone, c.expire(now.Add(250*time.Millisecond)))
	assert.Equal(t, actionMove, c.expire(now.Add(310*time.Millisecond)))
	assert.Equal(t, sim.MoveCommand{DX: -1}, c.intent)
	assert.Equal(t, actionMove, c.expire(now.Add(time.Second)))
	assert.Equal(t, sim.MoveCommand{}, c.intent)
}

func TestControllerActionKeys(t *testing.T) {
	c := newController()
	cases := map[*tcell.EventKey]action{
		tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone): actionDash,
		tcell.NewEventKey(tcell.KeyRune, 'e', tcell.ModNone): actionInk,
		tcell.NewEventKey(tcell.KeyRune, 'p', tcell.ModNone): actionPause,
		tcell.NewEventKey(tcell.KeyRune, 'n', tcell.ModNone): actionNext,
		tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone): actionRestart,
		tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone): actionQuit,
		tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone): actionQuit,
		tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone): actionNone,
	}
	for ev, want := range cases {
		assert.Equal(t, want, c.handleKey(ev, time.Unix(0, 0)), "key %v rune %q", ev.Key(), ev.Rune())
	}
}

func TestDispatchDrivesLoop(t *testing.T) {
	simulation, err := sim.New(sim.Options{Seed: "term"})
	require.NoError(t, err)
	loop := sim.NewLoop(simulation, sim.DefaultLoopConfig(), sim.LoopHooks{})
	c := newController()

	assert.False(t, dispatch(loop, c, actionPause, nil))
	base := time.Unix(100, 0)
	loop.Advance(base)
	_, ok := loop.Advance(base.Add(20 * time.Millisecond))
	require.True(t, ok)
	assert.True(t, loop.Snapshot().Paused)

	assert.True(t, dispatch(loop, c, actionQuit, nil))
}
