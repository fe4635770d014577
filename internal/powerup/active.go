package powerup

// Effect is one running power-up.
type Effect struct {
	Type        Type    `json:"type" msgpack:"type"`
	RemainingMs float64 `json:"remainingMs" msgpack:"remaining"`
}

// Active tracks running power-ups in collection order plus the score chain.
type Active struct {
	Effects []Effect `json:"effects,omitempty" msgpack:"effects"`
	Chain   float64  `json:"chain" msgpack:"chain"`
}

// NewActive returns an empty tracker with a neutral chain.
func NewActive() Active {
	return Active{Chain: 1}
}

// Activate starts t or refreshes it when already running. Instant types are
// not tracked and report instant=true.
func (a *Active) Activate(t Type) (refreshed bool, instant bool, err error) {
	d, err := Duration(t)
	if err != nil {
		return false, false, err
	}
	if d <= 0 {
		return false, true, nil
	}
	for i := range a.Effects {
		if a.Effects[i].Type == t {
			a.Effects[i].RemainingMs = d
			return true, false, nil
		}
	}
	a.Effects = append(a.Effects, Effect{Type: t, RemainingMs: d})
	if t == ScoreChain && a.Chain < 1 {
		a.Chain = 1
	}
	return false, false, nil
}

func (a *Active) Has(t Type) bool {
	for i := range a.Effects {
		if a.Effects[i].Type == t {
			return true
		}
	}
	return false
}

func (a *Active) Remaining(t Type) float64 {
	for i := range a.Effects {
		if a.Effects[i].Type == t {
			return a.Effects[i].RemainingMs
		}
	}
	return 0
}

// Tick counts every power-up down and reverses the expired ones.
func (a *Active) Tick(dtMs float64) []Type {
	if len(a.Effects) == 0 {
		return nil
	}
	var expired []Type
	kept := a.Effects[:0]
	for _, e := range a.Effects {
		e.RemainingMs -= dtMs
		if e.RemainingMs <= 0 {
			expired = append(expired, e.Type)
			if e.Type == ScoreChain {
				a.Chain = 1
			}
			continue
		}
		kept = append(kept, e)
	}
	a.Effects = kept
	return expired
}

// ConsumeShield removes a running shield. It reports whether one was used.
func (a *Active) ConsumeShield() bool {
	for i := range a.Effects {
		if a.Effects[i].Type == Shield {
			a.Effects = append(a.Effects[:i], a.Effects[i+1:]...)
			return true
		}
	}
	return false
}

// ChainMultiplier returns the current chain, at least 1.
func (a *Active) ChainMultiplier() float64 {
	if a.Chain < 1 {
		return 1
	}
	return a.Chain
}

// AdvanceChain grows the chain after a scored pickup while score_chain runs.
func (a *Active) AdvanceChain() {
	if !a.Has(ScoreChain) {
		return
	}
	a.Chain = a.ChainMultiplier() + ChainStep
	if a.Chain > ChainMax {
		a.Chain = ChainMax
	}
}

func (a *Active) SpeedMultiplier() float64 {
	if a.Has(Speed) {
		return SpeedFactor
	}
	return 1
}

func (a *Active) ScoreMultiplier() float64 {
	if a.Has(Multiplier) {
		return ScoreFactor
	}
	return 1
}

func (a *Active) SizeScale() float64 {
	if a.Has(Shrink) {
		return ShrinkScale
	}
	return 1
}

func (a *Active) Shielded() bool    { return a.Has(Shield) }
func (a *Active) Invincible() bool  { return a.Has(Invincibility) }
func (a *Active) Camouflaged() bool { return a.Has(Camouflage) }
func (a *Active) Frozen() bool      { return a.Has(Freeze) }
func (a *Active) Magnetic() bool    { return a.Has(Magnet) }

// Clone returns a deep copy.
func (a Active) Clone() Active {
	cloned := a
	cloned.Effects = append([]Effect(nil), a.Effects...)
	return cloned
}
