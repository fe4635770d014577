package stats

// Archetype identifies the default stat seed used to initialise a component.
type Archetype uint8

const (
	ArchetypeOctopus Archetype = iota
)

var archetypeBase = map[Archetype]ValueSet{
	ArchetypeOctopus: {
		StatSwimSpeed:       BaseSwimSpeed,
		StatSizeScale:       1,
		StatScoreMultiplier: 1,
	},
}

// DefaultBase returns a copy of the base values for the given archetype.
func DefaultBase(archetype Archetype) ValueSet {
	base := archetypeBase[archetype]
	return base
}

// DefaultComponent constructs and resolves a component using the archetype defaults.
func DefaultComponent(archetype Archetype) Component {
	comp := NewComponent(DefaultBase(archetype))
	comp.Resolve()
	return comp
}

const (
	// BaseSwimSpeed is the avatar's unmodified speed in units per second.
	BaseSwimSpeed = 200.0
	// StuckSwimSpeed replaces the base speed while a net holds the avatar.
	StuckSwimSpeed = 50.0

	avatarHalfSize     = 20.0
	maxSwimSpeed       = 2000.0
	minSizeScale       = 0.1
	maxSizeScale       = 4.0
	maxScoreMultiplier = 100.0
)
