package predator

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

//go:embed configs/archetypes.json
var embeddedArchetypes []byte

// ErrUnknownType is returned when a predator type has no archetype for the
// requested variant.
var ErrUnknownType = errors.New("predator: unknown type")

// GlobalLibrary holds the archetypes bundled with the binary.
var GlobalLibrary = MustLoadLibrary()

// Variant selects which archetype table a predator is built from. Campaign
// predators come from level manifests; hunters are spawned by mode directors
// and events.
type Variant string

const (
	VariantCampaign Variant = "campaign"
	VariantHunter   Variant = "hunter"
)

// Archetype carries the tunables shared by every predator of one type.
type Archetype struct {
	Type             Type    `json:"type"`
	Size             float64 `json:"size"`
	MaxSpeed         float64 `json:"maxSpeed"`
	DetectionRange   float64 `json:"detectionRange"`
	InvestigateRange float64 `json:"investigateRange"`
	LoseTargetMs     float64 `json:"loseTargetMs"`
}

// Library indexes archetypes by variant and type.
type Library struct {
	byVariant map[Variant]map[Type]Archetype
}

func MustLoadLibrary() *Library {
	lib, err := LoadLibrary(embeddedArchetypes)
	if err != nil {
		panic(fmt.Errorf("predator: load library: %w", err))
	}
	return lib
}

// LoadLibrary decodes an archetype table keyed by variant name.
func LoadLibrary(data []byte) (*Library, error) {
	var authoring map[string][]Archetype
	if err := json.Unmarshal(data, &authoring); err != nil {
		return nil, fmt.Errorf("predator: decode archetypes: %w", err)
	}
	lib := &Library{byVariant: make(map[Variant]map[Type]Archetype, len(authoring))}
	for variantName, entries := range authoring {
		variant := Variant(strings.TrimSpace(strings.ToLower(variantName)))
		table := make(map[Type]Archetype, len(entries))
		for _, entry := range entries {
			entry.Type = Type(strings.TrimSpace(strings.ToLower(string(entry.Type))))
			if entry.Type == "" {
				return nil, fmt.Errorf("predator: %s archetype without type", variant)
			}
			if entry.Size <= 0 || entry.MaxSpeed < 0 || entry.DetectionRange <= 0 || entry.InvestigateRange <= 0 || entry.LoseTargetMs <= 0 {
				return nil, fmt.Errorf("predator: %s/%s has invalid tunables", variant, entry.Type)
			}
			if _, dup := table[entry.Type]; dup {
				return nil, fmt.Errorf("predator: duplicate archetype %s/%s", variant, entry.Type)
			}
			table[entry.Type] = entry
		}
		lib.byVariant[variant] = table
	}
	return lib, nil
}

// Archetype returns the tunables for t within variant.
func (l *Library) Archetype(variant Variant, t Type) (Archetype, error) {
	if l == nil {
		return Archetype{}, fmt.Errorf("%w: %q (no library)", ErrUnknownType, t)
	}
	if variant == "" {
		variant = VariantCampaign
	}
	table, ok := l.byVariant[variant]
	if !ok {
		return Archetype{}, fmt.Errorf("%w: variant %q", ErrUnknownType, variant)
	}
	arch, ok := table[t]
	if !ok {
		return Archetype{}, fmt.Errorf("%w: %q in %s", ErrUnknownType, t, variant)
	}
	return arch, nil
}

// Types lists the types known for variant.
func (l *Library) Types(variant Variant) []Type {
	if l == nil {
		return nil
	}
	table := l.byVariant[variant]
	types := make([]Type, 0, len(table))
	for _, t := range knownTypes {
		if _, ok := table[t]; ok {
			types = append(types, t)
		}
	}
	return types
}
