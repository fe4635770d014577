package scoring

import (
	"github.com/mjcole76/octochase/internal/avatar"
	"github.com/mjcole76/octochase/internal/effects"
	"github.com/mjcole76/octochase/internal/food"
	"github.com/mjcole76/octochase/internal/geom"
	"github.com/mjcole76/octochase/internal/hazard"
	"github.com/mjcole76/octochase/internal/powerup"
	"github.com/mjcole76/octochase/internal/predator"
	"github.com/mjcole76/octochase/logging"
	hazardlog "github.com/mjcole76/octochase/logging/hazard"
	scoringlog "github.com/mjcole76/octochase/logging/scoring"
)

const (
	foodPadding       = 15
	pickupPadding     = 12
	streakEvery       = 5
	streakShake       = 5
	hitShake          = 15
	speedBoostMs      = 3000
	mysteryBonusMin   = 50
	mysteryBonusRange = 100

	HitInvulnMs    = 3000
	HazardInvulnMs = 1500
	ShieldInvulnMs = 1000
)

// CollectFood applies a collectible when the avatar overlaps it. It reports
// whether the food was collected.
func (s *State) CollectFood(f *food.Food, av *avatar.Avatar, fr Frame) bool {
	if f == nil || !f.Active {
		return false
	}
	if geom.Distance(av.Position, f.Position) >= av.Radius()+foodPadding {
		return false
	}

	s.applySpecial(f, av, fr)

	var gain float64
	if f.Value > 0 {
		gain = f.Value * float64(s.Combo) * s.ModeMultiplier * av.ScoreFactor() * s.Powerups.ChainMultiplier()
		s.Score += gain
		s.bumpCombo()
		s.ComboTimerMs = ComboWindowMs
		s.Streak++
		s.Powerups.AdvanceChain()
		if s.Streak%streakEvery == 0 {
			s.AddShake(streakShake)
			scoringlog.StreakBonus(fr.context(), fr.Publisher, fr.Tick, scoringlog.StreakBonusPayload{Streak: s.Streak}, nil)
		}
	} else if f.IsPearl() {
		s.ComboTimerMs += f.ComboExtensionMs
	}

	f.Active = false
	s.FoodCollected++
	scoringlog.FoodCollected(fr.context(), fr.Publisher, fr.Tick, logging.Ref(logging.EntityKindFood, f.ID), scoringlog.FoodCollectedPayload{
		Food:    string(f.Type),
		Special: string(f.Special),
		Gain:    gain,
		Combo:   s.Combo,
		Score:   s.Score,
	}, nil)
	return true
}

func (s *State) applySpecial(f *food.Food, av *avatar.Avatar, fr Frame) {
	switch f.Special {
	case food.SpecialHeal:
		s.GainLife()
	case food.SpecialSpeedBoost:
		s.Effects.Add(effects.SpeedBoost(speedBoostMs))
	case food.SpecialComboExtension:
		s.ComboTimerMs += f.ComboExtensionMs
	case food.SpecialMystery:
		s.openMystery(av, fr)
	}
}

func (s *State) openMystery(av *avatar.Avatar, fr Frame) {
	if fr.RNG == nil {
		return
	}
	switch fr.RNG.Intn(4) {
	case 0:
		s.Score += float64(mysteryBonusMin + fr.RNG.Intn(mysteryBonusRange))
	case 1:
		s.GainLife()
	case 2:
		t := powerup.Types[fr.RNG.Intn(len(powerup.Types))]
		s.activatePowerup(t, av)
	default:
		if s.Combo > MinCombo {
			s.Combo--
		}
	}
}

// CollidePredator applies contact with p. It reports whether a hit landed.
func (s *State) CollidePredator(p *predator.Predator, av *avatar.Avatar, fr Frame) bool {
	if p == nil || geom.Distance(av.Position, p.Position) >= av.Radius()+p.Size/2 {
		return false
	}
	target := logging.Ref(logging.EntityKindPredator, p.ID)
	payload := scoringlog.PredatorHitPayload{Predator: string(p.Type)}

	switch {
	case av.InkCloudActive:
		payload.Reason = "ink"
	case av.Invulnerable:
		payload.Reason = "invulnerable"
	case s.Powerups.Invincible():
		payload.Reason = "invincible"
	}
	if payload.Reason != "" {
		payload.Suppressed = true
		payload.Lives = s.DisplayLives()
		scoringlog.PredatorHit(fr.context(), fr.Publisher, fr.Tick, target, payload, nil)
		return false
	}

	if s.Powerups.ConsumeShield() {
		av.GrantInvulnerability(ShieldInvulnMs)
		payload.Suppressed = true
		payload.Reason = "shield"
		payload.Lives = s.DisplayLives()
		scoringlog.PredatorHit(fr.context(), fr.Publisher, fr.Tick, target, payload, nil)
		return false
	}

	s.TakeHit(av, HitInvulnMs, "predator", fr)
	payload.Lives = s.DisplayLives()
	scoringlog.PredatorHit(fr.context(), fr.Publisher, fr.Tick, target, payload, nil)
	return true
}

// TakeHit costs a life, resets the combo and opens an invulnerability window.
func (s *State) TakeHit(av *avatar.Avatar, invulnMs float64, reason string, fr Frame) {
	s.LoseLife()
	s.Hits++
	s.ResetCombo(reason, fr)
	av.GrantInvulnerability(invulnMs)
	s.AddShake(hitShake)
}

// CollectPowerup applies a pickup the avatar overlaps. It reports whether it
// was collected.
func (s *State) CollectPowerup(p *powerup.Pickup, av *avatar.Avatar, fr Frame) bool {
	if p == nil || geom.Distance(av.Position, p.Position) >= av.Radius()+pickupPadding {
		return false
	}
	refreshed := s.activatePowerup(p.Type, av)
	s.PowerUpsUsed++
	d, _ := powerup.Duration(p.Type)
	scoringlog.PowerupCollected(fr.context(), fr.Publisher, fr.Tick, logging.Ref(logging.EntityKindPowerup, p.ID), scoringlog.PowerupCollectedPayload{
		Powerup:    string(p.Type),
		DurationMs: int64(d),
		Refreshed:  refreshed,
	}, nil)
	return true
}

func (s *State) activatePowerup(t powerup.Type, av *avatar.Avatar) bool {
	refreshed, instant, err := s.Powerups.Activate(t)
	if err != nil {
		return false
	}
	if instant && t == powerup.Time {
		s.GameTimeMs -= powerup.TimeRewindMs
		if s.GameTimeMs < 0 {
			s.GameTimeMs = 0
		}
	}
	s.SyncAvatar(av)
	return refreshed
}

// ResolveCollisions runs every avatar collision for one frame and returns the
// pickups still on the field.
func (s *State) ResolveCollisions(av *avatar.Avatar, foods []*food.Food, predators []*predator.Predator, pickups []*powerup.Pickup, fr Frame) []*powerup.Pickup {
	for _, f := range foods {
		s.CollectFood(f, av, fr)
	}
	for _, p := range predators {
		s.CollidePredator(p, av, fr)
	}
	kept := pickups[:0]
	for _, p := range pickups {
		if s.CollectPowerup(p, av, fr) {
			continue
		}
		kept = append(kept, p)
	}
	for i := len(kept); i < len(pickups); i++ {
		pickups[i] = nil
	}
	return kept
}

// ApplyHazardEffect applies the frame's hazard effect. Nothing happens while
// the avatar is invulnerable or invincible. It reports whether the effect
// changed the state.
func (s *State) ApplyHazardEffect(res hazard.Result, av *avatar.Avatar, fr Frame) bool {
	if !res.HasEffect() {
		return false
	}
	actor := logging.Ref(logging.EntityKindHazard, res.Effect.Source)
	payload := hazardlog.EffectPayload{
		Effect:     res.Effect.Kind.String(),
		DurationMs: int64(res.Effect.DurationMs),
		Amount:     int(res.Effect.Amount),
		Overlaps:   len(res.Triggered),
	}
	if res.Source != nil {
		payload.Hazard = string(res.Source.Type)
	}

	if s.Protected(av) {
		payload.Reason = "protected"
		hazardlog.EffectSuppressed(fr.context(), fr.Publisher, fr.Tick, actor, payload, nil)
		return false
	}

	switch res.Effect.Kind {
	case effects.KindDamage:
		if s.Powerups.ConsumeShield() {
			payload.Reason = "shield"
			hazardlog.EffectSuppressed(fr.context(), fr.Publisher, fr.Tick, actor, payload, nil)
			return true
		}
		s.LoseLife()
		s.Hits++
		av.GrantInvulnerability(HazardInvulnMs)
	default:
		if !s.Effects.Add(res.Effect) {
			payload.Reason = "already active"
			hazardlog.EffectSuppressed(fr.context(), fr.Publisher, fr.Tick, actor, payload, nil)
			return false
		}
		av.SyncStats(s.Effects)
	}
	hazardlog.EffectApplied(fr.context(), fr.Publisher, fr.Tick, actor, payload, nil)
	return true
}
