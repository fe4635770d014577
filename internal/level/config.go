// Package level defines the campaign table, the endless level synthesizer and
// the per-run progress tracker that decides checkpoints, completion and medals.
package level

import (
	_ "embed"
	"errors"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/mjcole76/octochase/internal/geom"
	"github.com/mjcole76/octochase/internal/hazard"
	"github.com/mjcole76/octochase/internal/predator"
	"github.com/mjcole76/octochase/internal/world"
)

//go:embed levels.yaml
var embeddedLevels []byte

// ErrInvalidLevel is returned for unknown ids and malformed level data.
var ErrInvalidLevel = errors.New("level: invalid level")

// CampaignLevels is the number of hand-authored levels.
const CampaignLevels = 9

var campaign = MustLoad()

type Biome string

const (
	BiomeReef  Biome = "reef"
	BiomeKelp  Biome = "kelp"
	BiomeWreck Biome = "wreck"
)

type Thresholds struct {
	Bronze float64 `json:"bronze" yaml:"bronze" msgpack:"bronze"`
	Silver float64 `json:"silver" yaml:"silver" msgpack:"silver"`
	Gold   float64 `json:"gold" yaml:"gold" msgpack:"gold"`
}

type PredatorSpawn struct {
	Type     predator.Type `json:"type" yaml:"type"`
	Position geom.Vec2     `json:"position" yaml:"position"`
	Patrol   []geom.Vec2   `json:"patrol" yaml:"patrol"`
}

type HazardSpawn struct {
	Type     hazard.Type `json:"type" yaml:"type"`
	Position geom.Vec2   `json:"position" yaml:"position"`
}

// Config is immutable level data. Lookup hands out copies.
type Config struct {
	ID           int             `json:"id" yaml:"id"`
	Name         string          `json:"name" yaml:"name"`
	Biome        Biome           `json:"biome" yaml:"biome"`
	DurationMs   float64         `json:"durationMs" yaml:"duration"`
	CheckpointMs float64         `json:"checkpointMs" yaml:"checkpointTime"`
	Start        geom.Vec2       `json:"start" yaml:"start"`
	Checkpoint   geom.Vec2       `json:"checkpoint" yaml:"checkpoint"`
	EndGate      geom.Vec2       `json:"endGate" yaml:"endGate"`
	Thresholds   Thresholds      `json:"thresholds" yaml:"thresholds"`
	Predators    []PredatorSpawn `json:"predators" yaml:"predators"`
	Hazards      []HazardSpawn   `json:"hazards" yaml:"hazards"`
	FoodDensity  float64         `json:"foodDensity" yaml:"foodDensity"`
}

type table struct {
	Levels []Config `yaml:"levels"`
}

// MustLoad parses the embedded campaign table and panics when it is invalid.
func MustLoad() map[int]Config {
	levels, err := Load(embeddedLevels)
	if err != nil {
		panic(fmt.Errorf("level: load campaign: %w", err))
	}
	return levels
}

// Load decodes and validates a YAML level table.
func Load(data []byte) (map[int]Config, error) {
	var t table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("level: decode table: %w", err)
	}
	levels := make(map[int]Config, len(t.Levels))
	for _, cfg := range t.Levels {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		if _, dup := levels[cfg.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", ErrInvalidLevel, cfg.ID)
		}
		levels[cfg.ID] = cfg
	}
	return levels, nil
}

// Lookup returns the campaign level for ids 1..9 and a synthesized endless
// level for any larger id.
func Lookup(id int) (Config, error) {
	if id < 1 {
		return Config{}, fmt.Errorf("%w: id %d", ErrInvalidLevel, id)
	}
	if cfg, ok := campaign[id]; ok {
		return cfg.Clone(), nil
	}
	return Endless(id), nil
}

var (
	endlessBiomes    = []Biome{BiomeReef, BiomeKelp, BiomeWreck}
	endlessPredators = []predator.Type{predator.Shark, predator.Moray, predator.Dolphin}
)

// Endless synthesizes a level from its id. The result depends on nothing else.
func Endless(id int) Config {
	w, h := world.DefaultWidth, world.DefaultHeight
	n := float64(id)
	duration := 60000 + 5000*n
	cfg := Config{
		ID:           id,
		Name:         fmt.Sprintf("Endless Depth %d", id),
		Biome:        endlessBiomes[((id%3)+3)%3],
		DurationMs:   duration,
		CheckpointMs: duration / 2,
		Start:        geom.V(w/2, h/2),
		Checkpoint:   geom.V(w*0.7, h/2),
		EndGate:      geom.V(w*0.9, h/2),
		Thresholds: Thresholds{
			Bronze: 50 + 10*n,
			Silver: 100 + 15*n,
			Gold:   150 + 20*n,
		},
		FoodDensity: math.Min(0.8+0.1*n, 2.0),
	}
	for i := 0; i < min(id, 5); i++ {
		fi := float64(i)
		pos := geom.V(200+150*fi, 150+100*fi)
		cfg.Predators = append(cfg.Predators, PredatorSpawn{
			Type:     endlessPredators[i%len(endlessPredators)],
			Position: pos,
			Patrol:   []geom.Vec2{pos, geom.V(300+150*fi, 250+100*fi), geom.V(200+150*fi, 350+100*fi)},
		})
	}
	for i := 0; i < min(id, 4); i++ {
		fi := float64(i)
		cfg.Hazards = append(cfg.Hazards, HazardSpawn{
			Type:     hazard.Types[i%len(hazard.Types)],
			Position: geom.V(400+100*fi, 200+75*fi),
		})
	}
	return cfg
}

// Validate checks the invariants every level must satisfy.
func (c Config) Validate() error {
	if c.ID < 1 {
		return fmt.Errorf("%w: id %d", ErrInvalidLevel, c.ID)
	}
	if c.DurationMs <= 0 {
		return fmt.Errorf("%w: level %d has duration %.0f", ErrInvalidLevel, c.ID, c.DurationMs)
	}
	th := c.Thresholds
	if !(th.Bronze < th.Silver && th.Silver < th.Gold) {
		return fmt.Errorf("%w: level %d thresholds not ordered (%.0f/%.0f/%.0f)", ErrInvalidLevel, c.ID, th.Bronze, th.Silver, th.Gold)
	}
	for _, spawn := range c.Predators {
		if _, err := predator.GlobalLibrary.Archetype(predator.VariantCampaign, spawn.Type); err != nil {
			return fmt.Errorf("%w: level %d: %w", ErrInvalidLevel, c.ID, err)
		}
	}
	for _, spawn := range c.Hazards {
		if !hazard.Known(spawn.Type) {
			return fmt.Errorf("%w: level %d: %w %q", ErrInvalidLevel, c.ID, hazard.ErrUnknownType, spawn.Type)
		}
	}
	return nil
}

// Clone deep copies the spawn manifests.
func (c Config) Clone() Config {
	cloned := c
	cloned.Predators = make([]PredatorSpawn, len(c.Predators))
	for i, p := range c.Predators {
		p.Patrol = append([]geom.Vec2(nil), p.Patrol...)
		cloned.Predators[i] = p
	}
	cloned.Hazards = append([]HazardSpawn(nil), c.Hazards...)
	return cloned
}

// IsBossLevel reports whether a boss spawns on level id.
func IsBossLevel(id int) bool {
	return id > 0 && id%3 == 0
}
