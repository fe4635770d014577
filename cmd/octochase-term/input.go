package main

import (
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/mjcole76/octochase/internal/sim"
)

// Terminals report key presses but never releases, so a held direction
// counts as released once its auto-repeat stops arriving.
const holdTimeout = 200 * time.Millisecond

type action int

const (
	actionNone action = iota
	actionMove
	actionDash
	actionInk
	actionPause
	actionNext
	actionRestart
	actionQuit
)

type direction int

const (
	dirLeft direction = iota
	dirRight
	dirUp
	dirDown
)

type controller struct {
	held   map[direction]time.Time
	intent sim.MoveCommand
}

func newController() *controller {
	return &controller{held: make(map[direction]time.Time)}
}

func (c *controller) handleKey(ev *tcell.EventKey, now time.Time) action {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return actionQuit
	case tcell.KeyLeft:
		return c.press(dirLeft, now)
	case tcell.KeyRight:
		return c.press(dirRight, now)
	case tcell.KeyUp:
		return c.press(dirUp, now)
	case tcell.KeyDown:
		return c.press(dirDown, now)
	case tcell.KeyRune:
	default:
		return actionNone
	}

	switch ev.Rune() {
	case 'a', 'A':
		return c.press(dirLeft, now)
	case 'd', 'D':
		return c.press(dirRight, now)
	case 'w', 'W':
		return c.press(dirUp, now)
	case 's', 'S':
		return c.press(dirDown, now)
	case ' ':
		return actionDash
	case 'e', 'E':
		return actionInk
	case 'p', 'P':
		return actionPause
	case 'n', 'N':
		return actionNext
	case 'r', 'R':
		return actionRestart
	case 'q', 'Q':
		return actionQuit
	}
	return actionNone
}

func (c *controller) press(dir direction, now time.Time) action {
	switch dir {
	case dirLeft:
		delete(c.held, dirRight)
	case dirRight:
		delete(c.held, dirLeft)
	case dirUp:
		delete(c.held, dirDown)
	case dirDown:
		delete(c.held, dirUp)
	}
	c.held[dir] = now
	return c.refresh()
}

// expire releases directions whose last repeat is older than holdTimeout.
// It reports actionMove when the resulting intent changed.
func (c *controller) expire(now time.Time) action {
	changed := false
	for dir, at := range c.held {
		if now.Sub(at) >= holdTimeout {
			delete(c.held, dir)
			changed = true
		}
	}
	if !changed {
		return actionNone
	}
	return c.refresh()
}

func (c *controller) refresh() action {
	var next sim.MoveCommand
	if _, ok := c.held[dirLeft]; ok {
		next.DX = -1
	}
	if _, ok := c.held[dirRight]; ok {
		next.DX = 1
	}
	if _, ok := c.held[dirUp]; ok {
		next.DY = -1
	}
	if _, ok := c.held[dirDown]; ok {
		next.DY = 1
	}
	if next == c.intent {
		return actionNone
	}
	c.intent = next
	return actionMove
}

func (c *controller) moveCommand() sim.Command {
	move := c.intent
	return sim.Command{Type: sim.CommandMove, Move: &move}
}
