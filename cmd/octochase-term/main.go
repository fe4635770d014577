package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/mjcole76/octochase/internal/mode"
	"github.com/mjcole76/octochase/internal/sim"
	"github.com/mjcole76/octochase/internal/telemetry"
)

func main() {
	var (
		levelID  int
		modeName string
		seed     string
		tickRate int
		logPath  string
	)
	flag.IntVar(&levelID, "level", 1, "level to start on")
	flag.StringVar(&modeName, "mode", string(mode.Classic), "game mode")
	flag.StringVar(&seed, "seed", "", "deterministic seed")
	flag.IntVar(&tickRate, "tick-rate", sim.DefaultLoopConfig().TickRate, "frames per second")
	flag.StringVar(&logPath, "log", "", "optional file for diagnostic output")
	flag.Parse()

	logger := telemetry.NopLogger()
	if logPath != "" {
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log: %v\n", err)
			os.Exit(1)
		}
		defer file.Close()
		logger = telemetry.WrapLogger(log.New(file, "octochase ", log.LstdFlags))
	}

	gameMode, err := mode.Parse(modeName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	if err := run(levelID, gameMode, seed, tickRate, logger); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(levelID int, gameMode mode.Mode, seed string, tickRate int, logger telemetry.Logger) error {
	simulation, err := sim.New(sim.Options{
		Level: levelID,
		Mode:  gameMode,
		Seed:  seed,
		Deps:  sim.Deps{Logger: logger},
	})
	if err != nil {
		return fmt.Errorf("start simulation: %w", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()
	screen.SetStyle(tcell.StyleDefault)
	screen.HideCursor()

	cfg := sim.DefaultLoopConfig()
	cfg.TickRate = tickRate
	loop := sim.NewLoop(simulation, cfg, sim.LoopHooks{
		Render: func(snap sim.Snapshot) {
			drawSnapshot(screen, snap)
			screen.Show()
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	input := newController()
	release := time.NewTicker(holdTimeout / 4)
	defer release.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				screen.Sync()
			case *tcell.EventKey:
				if quit := dispatch(loop, input, input.handleKey(ev, time.Now()), logger); quit {
					return nil
				}
			}
		case now := <-release.C:
			dispatch(loop, input, input.expire(now), logger)
		}
	}
}

// dispatch applies one controller action to the loop. It reports whether the
// host should exit.
func dispatch(loop *sim.Loop, input *controller, act action, logger telemetry.Logger) bool {
	switch act {
	case actionQuit:
		return true
	case actionMove:
		loop.Enqueue(input.moveCommand())
	case actionDash:
		loop.Enqueue(sim.Command{Type: sim.CommandDash})
	case actionInk:
		loop.Enqueue(sim.Command{Type: sim.CommandInk})
	case actionPause:
		paused := !loop.Snapshot().Paused
		loop.Enqueue(sim.Command{Type: sim.CommandPause, Pause: &sim.PauseCommand{Paused: paused}})
	case actionNext:
		if err := loop.Do((*sim.Simulation).NextLevel); err != nil {
			logger.Printf("next level: %v", err)
		}
	case actionRestart:
		if err := loop.Do((*sim.Simulation).Restart); err != nil {
			logger.Printf("restart: %v", err)
		}
	}
	return false
}
