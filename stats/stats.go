package stats

import (
	"math"
	"sort"
)

// StatID enumerates the avatar attributes tracked by the stats engine.
type StatID uint8

const (
	StatSwimSpeed StatID = iota
	StatSizeScale
	StatScoreMultiplier

	StatCount
)

// DerivedID enumerates values computed from the attribute totals.
type DerivedID uint8

const (
	DerivedMoveSpeed DerivedID = iota
	DerivedRadius
	DerivedScoreFactor

	DerivedCount
)

// Layer describes the precedence order for additive and multiplicative modifiers.
// Overrides on a layer replace the running total before later layers apply.
type Layer uint8

const (
	LayerBase Layer = iota
	LayerStatus
	LayerSkill
	LayerPowerup
	LayerEnvironment

	LayerCount
)

// SourceKind identifies the origin of a stat modifier for deterministic ordering.
type SourceKind uint8

const (
	SourceKindUnknown SourceKind = iota
	SourceKindArchetype
	SourceKindEffect
	SourceKindSkill
	SourceKindPowerup
	SourceKindEvent
)

// SourceKey uniquely identifies the origin of a modifier inside a layer.
type SourceKey struct {
	Kind SourceKind
	ID   string
}

// ValueSet stores a fixed vector of stat values.
type ValueSet [StatCount]float64

// DerivedSet stores derived stat values.
type DerivedSet [DerivedCount]float64

// OverrideValue represents a stat override entry.
type OverrideValue struct {
	Active bool
	Value  float64
}

// OverrideSet stores per-stat override entries.
type OverrideSet [StatCount]OverrideValue

// LayerStack caches the aggregate contributions for a modifier layer.
type LayerStack struct {
	add      ValueSet
	mul      ValueSet
	override OverrideSet
	version  uint64
}

// Component owns the stats state for the avatar and caches derived totals.
type Component struct {
	layers  [LayerCount]LayerStack
	sources map[Layer]map[SourceKey]StatDelta
	totals  ValueSet
	derived DerivedSet
	dirty   bool
	version uint64
}

// StatDelta captures additive, multiplicative, and override contributions supplied by a source.
type StatDelta struct {
	Add      ValueSet
	Mul      ValueSet
	Override OverrideSet
}

// CommandStatChange represents an atomic mutation applied to the component.
type CommandStatChange struct {
	Layer  Layer
	Source SourceKey
	Delta  StatDelta
	Remove bool
}

// NewComponent constructs a component seeded with the provided base values.
func NewComponent(base ValueSet) Component {
	c := Component{}
	c.ensureInit()
	baseDelta := NewStatDelta()
	baseDelta.Add = base
	c.applySource(LayerBase, SourceKey{Kind: SourceKindArchetype, ID: "base"}, baseDelta)
	c.dirty = true
	return c
}

func (c *Component) ensureInit() {
	if c.sources != nil {
		return
	}
	c.sources = make(map[Layer]map[SourceKey]StatDelta)
	for layer := Layer(0); layer < LayerCount; layer++ {
		c.layers[layer].mul = unitValueSet()
	}
	c.dirty = true
}

// NewStatDelta creates a delta with neutral multiplicative values.
func NewStatDelta() StatDelta {
	d := StatDelta{}
	d.Mul = unitValueSet()
	return d
}

// Multiplier is a convenience delta scaling a single stat.
func Multiplier(id StatID, factor float64) StatDelta {
	d := NewStatDelta()
	if id < StatCount {
		d.Mul[id] = factor
	}
	return d
}

// Override is a convenience delta pinning a single stat to value.
func Override(id StatID, value float64) StatDelta {
	d := NewStatDelta()
	if id < StatCount {
		d.Override[id] = OverrideValue{Active: true, Value: value}
	}
	return d
}

// Apply mutates the component according to the provided command.
func (c *Component) Apply(change CommandStatChange) {
	if c == nil {
		return
	}
	c.ensureInit()
	if change.Layer >= LayerCount {
		return
	}
	if change.Remove {
		if c.removeSource(change.Layer, change.Source) {
			c.dirty = true
		}
		return
	}
	if c.applySource(change.Layer, change.Source, change.Delta) {
		c.dirty = true
	}
}

// Set adds or removes a source depending on enabled. It keeps per-tick
// reconciliation code free of branching at the call sites.
func (c *Component) Set(layer Layer, key SourceKey, delta StatDelta, enabled bool) {
	c.Apply(CommandStatChange{Layer: layer, Source: key, Delta: delta, Remove: !enabled})
}

// Has reports whether a source is currently registered on layer.
func (c *Component) Has(layer Layer, key SourceKey) bool {
	if c == nil || c.sources == nil {
		return false
	}
	_, ok := c.sources[layer][key]
	return ok
}

// Resolve folds all layers in deterministic order and recomputes derived stats.
func (c *Component) Resolve() {
	if c == nil {
		return
	}
	c.ensureInit()
	if !c.dirty {
		return
	}

	total := c.layers[LayerBase].add
	multiplyValueSet(&total, c.layers[LayerBase].mul)
	applyOverrides(&total, c.layers[LayerBase].override)

	for layer := LayerBase + 1; layer < LayerCount; layer++ {
		stack := &c.layers[layer]
		applyOverrides(&total, stack.override)
		addValueSet(&total, stack.add)
		multiplyValueSet(&total, stack.mul)
	}

	c.totals = total
	c.derived = computeDerived(total)
	c.version++
	c.dirty = false
}

// Totals returns the cached total stat values.
func (c *Component) Totals() ValueSet {
	return c.totals
}

// GetTotal returns the cached total for a specific stat.
func (c *Component) GetTotal(id StatID) float64 {
	if id >= StatCount {
		return 0
	}
	return c.totals[id]
}

// GetDerived returns the cached derived stat value.
func (c *Component) GetDerived(id DerivedID) float64 {
	if id >= DerivedCount {
		return 0
	}
	return c.derived[id]
}

// DerivedValues returns a copy of the derived set.
func (c *Component) DerivedValues() DerivedSet {
	return c.derived
}

// Version returns the component version updated on each resolve.
func (c *Component) Version() uint64 {
	return c.version
}

func (c *Component) applySource(layer Layer, key SourceKey, delta StatDelta) bool {
	if c.sources[layer] == nil {
		c.sources[layer] = make(map[SourceKey]StatDelta)
	}
	if current, ok := c.sources[layer][key]; ok && sourcesEqual(current, delta) {
		return false
	}
	c.sources[layer][key] = delta
	c.rebuildLayerStack(layer)
	return true
}

func (c *Component) removeSource(layer Layer, key SourceKey) bool {
	entries := c.sources[layer]
	if len(entries) == 0 {
		return false
	}
	if _, ok := entries[key]; !ok {
		return false
	}
	delete(entries, key)
	if len(entries) == 0 {
		delete(c.sources, layer)
	}
	c.rebuildLayerStack(layer)
	return true
}

func (c *Component) rebuildLayerStack(layer Layer) {
	stack := &c.layers[layer]
	stack.add = ValueSet{}
	stack.mul = unitValueSet()
	stack.override = OverrideSet{}
	entries := c.sources[layer]
	if len(entries) == 0 {
		stack.version++
		return
	}
	keys := make([]SourceKey, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Kind != keys[j].Kind {
			return keys[i].Kind < keys[j].Kind
		}
		return keys[i].ID < keys[j].ID
	})
	for _, key := range keys {
		src := entries[key]
		addValueSet(&stack.add, src.Add)
		multiplyValueSet(&stack.mul, src.Mul)
		mergeOverrides(&stack.override, src.Override)
	}
	stack.version++
}

func addValueSet(target *ValueSet, other ValueSet) {
	for i := range target {
		target[i] += other[i]
	}
}

func multiplyValueSet(target *ValueSet, other ValueSet) {
	for i := range target {
		target[i] *= other[i]
	}
}

func applyOverrides(target *ValueSet, overrides OverrideSet) {
	for i := range overrides {
		if overrides[i].Active {
			target[i] = overrides[i].Value
		}
	}
}

func mergeOverrides(target *OverrideSet, other OverrideSet) {
	for i := range other {
		if other[i].Active {
			target[i] = other[i]
		}
	}
}

func unitValueSet() ValueSet {
	var vs ValueSet
	for i := range vs {
		vs[i] = 1
	}
	return vs
}

func sourcesEqual(a, b StatDelta) bool {
	for i := range a.Add {
		if math.Abs(a.Add[i]-b.Add[i]) > 1e-9 {
			return false
		}
		if math.Abs(a.Mul[i]-b.Mul[i]) > 1e-9 {
			return false
		}
		if a.Override[i].Active != b.Override[i].Active {
			return false
		}
		if a.Override[i].Active && math.Abs(a.Override[i].Value-b.Override[i].Value) > 1e-9 {
			return false
		}
	}
	return true
}
