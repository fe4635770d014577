package world

import (
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/mjcole76/octochase/internal/geom"
)

func DeterministicSeedValue(rootSeed, label string) int64 {
	hasher := fnv.New64a()
	hasher.Write([]byte(rootSeed))
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))
	sum := hasher.Sum64()
	if sum == 0 {
		sum = 1
	}
	return int64(sum)
}

func NewDeterministicRNG(rootSeed, label string) *rand.Rand {
	seedValue := DeterministicSeedValue(rootSeed, label)
	return rand.New(rand.NewSource(seedValue))
}

// RNG is a deterministic generator that remembers how many values it has
// produced so that a restored simulation can resume the exact same stream.
type RNG struct {
	*rand.Rand
	source *countingSource
}

type countingSource struct {
	src   rand.Source64
	draws uint64
}

func (s *countingSource) Int63() int64 {
	s.draws++
	return s.src.Int63()
}

func (s *countingSource) Uint64() uint64 {
	s.draws++
	return s.src.Uint64()
}

func (s *countingSource) Seed(seed int64) {
	s.src.Seed(seed)
	s.draws = 0
}

// NewRNG returns a counting generator seeded from rootSeed and label.
func NewRNG(rootSeed, label string) *RNG {
	src := &countingSource{src: rand.NewSource(DeterministicSeedValue(rootSeed, label)).(rand.Source64)}
	return &RNG{Rand: rand.New(src), source: src}
}

// RestoreRNG rebuilds a generator and fast-forwards it past draws values.
func RestoreRNG(rootSeed, label string, draws uint64) *RNG {
	rng := NewRNG(rootSeed, label)
	for i := uint64(0); i < draws; i++ {
		rng.source.Uint64()
	}
	return rng
}

// Draws reports how many raw values have been consumed.
func (r *RNG) Draws() uint64 {
	if r == nil || r.source == nil {
		return 0
	}
	return r.source.draws
}

func RandomFloat(rng *rand.Rand) float64 {
	if rng == nil {
		return rand.New(rand.NewSource(DeterministicSeedValue(DefaultSeed, "world"))).Float64()
	}
	return rng.Float64()
}

func RandomAngle(rng *rand.Rand) float64 {
	return RandomFloat(rng) * 2 * math.Pi
}

func RandomDistance(rng *rand.Rand, min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + RandomFloat(rng)*(max-min)
}

// RandomPoint picks a uniformly distributed point inside bounds shrunk by margin.
func RandomPoint(rng *rand.Rand, bounds geom.Bounds, margin float64) geom.Vec2 {
	return geom.Vec2{
		X: RandomDistance(rng, margin, bounds.Width-margin),
		Y: RandomDistance(rng, margin, bounds.Height-margin),
	}
}

// RandomRing picks a point at a random angle between min and max units from
// center.
func RandomRing(rng *rand.Rand, center geom.Vec2, min, max float64) geom.Vec2 {
	angle := RandomAngle(rng)
	dist := RandomDistance(rng, min, max)
	return geom.Vec2{X: center.X + math.Cos(angle)*dist, Y: center.Y + math.Sin(angle)*dist}
}
