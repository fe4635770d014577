package world

import "strings"

const (
	DefaultSeed   = "octochase"
	DefaultWidth  = 1400.0
	DefaultHeight = 1000.0

	// AvatarSize is the avatar's nominal diameter in world units.
	AvatarSize = 40.0
)

type Config struct {
	Seed   string  `json:"seed"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (cfg Config) normalized() Config {
	normalized := cfg
	normalized.Seed = strings.TrimSpace(normalized.Seed)
	if normalized.Seed == "" {
		normalized.Seed = DefaultSeed
	}
	if normalized.Width <= 0 {
		normalized.Width = DefaultWidth
	}
	if normalized.Height <= 0 {
		normalized.Height = DefaultHeight
	}
	return normalized
}

func (cfg Config) Normalized() Config {
	return cfg.normalized()
}

func DefaultConfig() Config {
	return Config{
		Seed:   DefaultSeed,
		Width:  DefaultWidth,
		Height: DefaultHeight,
	}
}
