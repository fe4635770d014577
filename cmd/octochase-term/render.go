package main

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/mjcole76/octochase/internal/geom"
	"github.com/mjcole76/octochase/internal/sim"
	"github.com/mjcole76/octochase/internal/world"
)

const statusRows = 1

var (
	styleWater    = tcell.StyleDefault.Foreground(tcell.ColorNavy)
	styleAvatar   = tcell.StyleDefault.Foreground(tcell.ColorFuchsia).Bold(true)
	styleInk      = tcell.StyleDefault.Foreground(tcell.ColorGray)
	stylePredator = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleHazard   = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleFood     = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	stylePowerup  = tcell.StyleDefault.Foreground(tcell.ColorAqua).Bold(true)
	styleBoss     = tcell.StyleDefault.Foreground(tcell.ColorMaroon).Bold(true)
	styleEvent    = tcell.StyleDefault.Foreground(tcell.ColorPurple)
	styleGate     = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleStatus   = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorSilver)
	styleBanner   = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorDarkBlue).Bold(true)
)

// viewport maps world coordinates onto the playfield rows below the status line.
type viewport struct {
	cols, rows int
}

func (v viewport) cell(p geom.Vec2) (int, int, bool) {
	if v.cols <= 0 || v.rows <= 0 {
		return 0, 0, false
	}
	x := int(math.Floor(p.X / world.DefaultWidth * float64(v.cols)))
	y := int(math.Floor(p.Y / world.DefaultHeight * float64(v.rows)))
	if x < 0 || y < 0 || x >= v.cols || y >= v.rows {
		return 0, 0, false
	}
	return x, y + statusRows, true
}

func drawSnapshot(screen tcell.Screen, snap sim.Snapshot) {
	width, height := screen.Size()
	screen.Clear()
	if width <= 0 || height <= statusRows {
		return
	}
	view := viewport{cols: width, rows: height - statusRows}

	for y := statusRows; y < height; y++ {
		for x := 0; x < width; x++ {
			screen.SetContent(x, y, ' ', nil, styleWater)
		}
	}

	plot := func(p geom.Vec2, r rune, style tcell.Style) {
		if x, y, ok := view.cell(p); ok {
			screen.SetContent(x, y, r, nil, style)
		}
	}

	plot(snap.Level.Checkpoint, '+', styleGate)
	plot(snap.Level.EndGate, '#', styleGate)

	if snap.Event != nil {
		plot(snap.Event.Position, '@', styleEvent)
	}
	for _, h := range snap.Hazards {
		plot(h.Position, '^', styleHazard)
	}
	for _, f := range snap.Food {
		if f.Active {
			plot(f.Position, '.', styleFood)
		}
	}
	for _, p := range snap.Powerups {
		plot(p.Position, '*', stylePowerup)
	}
	for _, p := range snap.Predators {
		plot(p.Position, predatorRune(string(p.Type)), stylePredator)
	}
	if snap.Boss != nil && !snap.Boss.Defeated {
		plot(snap.Boss.Position, 'B', styleBoss)
	}

	avatarStyle := styleAvatar
	if snap.Avatar.InkCloudActive {
		avatarStyle = styleInk
	}
	plot(snap.Avatar.Position, 'O', avatarStyle)

	for x := 0; x < width; x++ {
		screen.SetContent(x, 0, ' ', nil, styleStatus)
	}
	drawText(screen, 0, 0, width, statusLine(snap), styleStatus)

	if banner := bannerText(snap); banner != "" {
		row := statusRows + (height-statusRows)/2
		col := (width - len(banner)) / 2
		if col < 0 {
			col = 0
		}
		drawText(screen, col, row, width-col, banner, styleBanner)
	}
}

func predatorRune(kind string) rune {
	if kind == "" {
		return 'X'
	}
	return []rune(kind)[0] - 'a' + 'A'
}

func statusLine(snap sim.Snapshot) string {
	line := fmt.Sprintf(" L%d %s | score %.0f | lives %d | combo x%d | medal %s | %s",
		snap.Level.ID,
		snap.Level.Name,
		snap.State.Score,
		snap.State.Lives,
		snap.State.Combo,
		snap.State.Medal,
		formatClock(snap.State.GameTimeMs),
	)
	if snap.State.TimeRemainingMs > 0 {
		line += " | left " + formatClock(snap.State.TimeRemainingMs)
	}
	return line
}

func bannerText(snap sim.Snapshot) string {
	switch {
	case snap.Progress.GameOver:
		return fmt.Sprintf(" GAME OVER  %.0f  [r]estart [q]uit ", snap.Progress.FinalScore)
	case snap.Progress.Complete:
		return fmt.Sprintf(" LEVEL CLEAR  %.0f  %s  [n]ext [r]estart ", snap.Progress.FinalScore, snap.Progress.Medal)
	case snap.Paused:
		return " PAUSED  [p] resume "
	default:
		return ""
	}
}

func formatClock(ms float64) string {
	total := int(ms / 1000)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func drawText(screen tcell.Screen, x, y, maxWidth int, text string, style tcell.Style) {
	col := 0
	for _, r := range text {
		if col >= maxWidth {
			return
		}
		screen.SetContent(x+col, y, r, nil, style)
		col++
	}
}
