package sim

import (
	"strings"

	"github.com/mjcole76/octochase/internal/mode"
	"github.com/mjcole76/octochase/internal/world"
)

// Options selects what a Simulation plays and what it reports to.
type Options struct {
	Level     int
	Mode      mode.Mode
	Seed      string
	SessionID string
	Deps      Deps
	// OnResults is called once when the run finishes.
	OnResults func(Results)
}

func (o Options) normalized() Options {
	normalized := o
	if normalized.Level == 0 {
		normalized.Level = 1
	}
	if normalized.Mode == "" {
		normalized.Mode = mode.Classic
	}
	normalized.Seed = strings.TrimSpace(normalized.Seed)
	if normalized.Seed == "" {
		normalized.Seed = world.DefaultSeed
	}
	normalized.Deps = normalized.Deps.normalized()
	return normalized
}
