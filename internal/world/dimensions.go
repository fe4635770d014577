package world

import "github.com/mjcole76/octochase/internal/geom"

func Width(cfg Config) float64 {
	if cfg.Width > 0 {
		return cfg.Width
	}
	return DefaultWidth
}

func Height(cfg Config) float64 {
	if cfg.Height > 0 {
		return cfg.Height
	}
	return DefaultHeight
}

func Dimensions(cfg Config) (float64, float64) {
	return Width(cfg), Height(cfg)
}

// Bounds returns the playable rectangle for cfg.
func Bounds(cfg Config) geom.Bounds {
	return geom.Bounds{Width: Width(cfg), Height: Height(cfg)}
}

// DefaultBounds is the playable rectangle of the default world.
func DefaultBounds() geom.Bounds {
	return geom.Bounds{Width: DefaultWidth, Height: DefaultHeight}
}
