// Package effects defines the closed set of transient player effects and
// rewards. Every consumer switches over Kind exhaustively; there is no string
// dispatch inside the simulation.
package effects

import "fmt"

// Category groups effect kinds by what they touch.
type Category uint8

const (
	CategoryMovement Category = iota + 1
	CategoryPerception
	CategoryDamage
	CategoryEconomy
)

func (c Category) String() string {
	switch c {
	case CategoryMovement:
		return "movement"
	case CategoryPerception:
		return "perception"
	case CategoryDamage:
		return "damage"
	case CategoryEconomy:
		return "economy"
	default:
		return "unknown"
	}
}

// Kind enumerates every transient effect.
type Kind uint8

const (
	KindNone Kind = iota
	// Movement.
	KindStuck
	KindSnag
	KindStun
	KindSpeedBoost
	// Perception.
	KindExposed
	// Damage.
	KindDamage
	// Economy.
	KindScoreBonus
	KindExtraLife
	KindComboExtension
	KindComboPenalty
	KindPowerup
)

var kindNames = [...]string{
	KindNone:           "none",
	KindStuck:          "stuck",
	KindSnag:           "snag",
	KindStun:           "stun",
	KindSpeedBoost:     "speed_boost",
	KindExposed:        "exposed",
	KindDamage:         "damage",
	KindScoreBonus:     "score_bonus",
	KindExtraLife:      "extra_life",
	KindComboExtension: "combo_extension",
	KindComboPenalty:   "combo_penalty",
	KindPowerup:        "powerup",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// MarshalText renders the kind by name for JSON snapshots.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind name produced by MarshalText.
func (k *Kind) UnmarshalText(text []byte) error {
	for i, name := range kindNames {
		if name == string(text) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("effects: unknown kind %q", text)
}

// Category reports which group k belongs to.
func (k Kind) Category() Category {
	switch k {
	case KindStuck, KindSnag, KindStun, KindSpeedBoost:
		return CategoryMovement
	case KindExposed:
		return CategoryPerception
	case KindDamage:
		return CategoryDamage
	case KindScoreBonus, KindExtraLife, KindComboExtension, KindComboPenalty, KindPowerup:
		return CategoryEconomy
	default:
		return 0
	}
}

// Timed reports whether effects of kind k persist in the active set.
func (k Kind) Timed() bool {
	switch k {
	case KindStuck, KindSnag, KindStun, KindSpeedBoost, KindExposed:
		return true
	default:
		return false
	}
}

// Effect is one emitted effect. Amount carries the magnitude for instant kinds
// (lives lost, score gained, milliseconds added); DurationMs carries the
// lifetime for timed kinds.
type Effect struct {
	Kind        Kind    `json:"kind" msgpack:"kind"`
	Amount      float64 `json:"amount,omitempty" msgpack:"amount"`
	DurationMs  float64 `json:"durationMs,omitempty" msgpack:"duration"`
	RemainingMs float64 `json:"remainingMs,omitempty" msgpack:"remaining"`
	Powerup     string  `json:"powerup,omitempty" msgpack:"powerup"`
	Source      string  `json:"source,omitempty" msgpack:"source"`
}

func Stuck(ms float64) Effect   { return Effect{Kind: KindStuck, DurationMs: ms} }
func Snag(ms float64) Effect    { return Effect{Kind: KindSnag, DurationMs: ms} }
func Stun(ms float64) Effect    { return Effect{Kind: KindStun, DurationMs: ms} }
func Exposed(ms float64) Effect { return Effect{Kind: KindExposed, DurationMs: ms} }
func Damage(amount float64) Effect {
	return Effect{Kind: KindDamage, Amount: amount}
}
func SpeedBoost(ms float64) Effect {
	return Effect{Kind: KindSpeedBoost, DurationMs: ms}
}

// Set holds the currently active timed effects in application order.
type Set struct {
	Active []Effect `json:"active,omitempty" msgpack:"active"`
}

// Add appends e unless an effect of the same kind is already active. Instant
// kinds are never stored. It reports whether e was added.
func (s *Set) Add(e Effect) bool {
	if !e.Kind.Timed() || e.DurationMs <= 0 {
		return false
	}
	if s.Has(e.Kind) {
		return false
	}
	e.RemainingMs = e.DurationMs
	s.Active = append(s.Active, e)
	return true
}

// Has reports whether an effect of kind k is active.
func (s *Set) Has(k Kind) bool {
	for i := range s.Active {
		if s.Active[i].Kind == k {
			return true
		}
	}
	return false
}

// Remaining returns the time left on kind k, or zero.
func (s *Set) Remaining(k Kind) float64 {
	for i := range s.Active {
		if s.Active[i].Kind == k {
			return s.Active[i].RemainingMs
		}
	}
	return 0
}

// Tick counts every effect down by dtMs and prunes those whose elapsed time
// reached their duration. The pruned effects are returned in order.
func (s *Set) Tick(dtMs float64) []Effect {
	if len(s.Active) == 0 {
		return nil
	}
	var expired []Effect
	kept := s.Active[:0]
	for _, e := range s.Active {
		e.RemainingMs -= dtMs
		if e.RemainingMs <= 0 {
			expired = append(expired, e)
			continue
		}
		kept = append(kept, e)
	}
	s.Active = kept
	return expired
}

// Clear drops every active effect.
func (s *Set) Clear() {
	s.Active = nil
}

// Clone returns a deep copy of the set.
func (s Set) Clone() Set {
	if len(s.Active) == 0 {
		return Set{}
	}
	return Set{Active: append([]Effect(nil), s.Active...)}
}
