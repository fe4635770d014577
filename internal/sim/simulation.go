package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/mjcole76/octochase/internal/avatar"
	"github.com/mjcole76/octochase/internal/boss"
	"github.com/mjcole76/octochase/internal/effects"
	"github.com/mjcole76/octochase/internal/events"
	"github.com/mjcole76/octochase/internal/food"
	"github.com/mjcole76/octochase/internal/geom"
	"github.com/mjcole76/octochase/internal/hazard"
	"github.com/mjcole76/octochase/internal/level"
	"github.com/mjcole76/octochase/internal/mode"
	"github.com/mjcole76/octochase/internal/powerup"
	"github.com/mjcole76/octochase/internal/predator"
	"github.com/mjcole76/octochase/internal/scoring"
	"github.com/mjcole76/octochase/internal/world"
	"github.com/mjcole76/octochase/logging"
	lifecyclelog "github.com/mjcole76/octochase/logging/lifecycle"
	predatorlog "github.com/mjcole76/octochase/logging/predator"
)

const rngLabel = "simulation"

// Intent is the requested swim direction, -1..1 per axis.
type Intent = avatar.Intent

// worldFx carries event modifiers into the next frame's predator perception.
type worldFx struct {
	Darkness      bool    `msgpack:"darkness"`
	PredatorSpeed float64 `msgpack:"predatorSpeed"`
}

// Simulation owns every piece of state of one run. It is not safe for
// concurrent use; hosts serialize access through Loop or their own locking.
type Simulation struct {
	opts   Options
	ctx    context.Context
	pub    logging.Publisher
	rules  mode.Rules
	cfg    level.Config
	bounds geom.Bounds
	rng    *world.RNG

	tick      uint64
	paused    bool
	intent    Intent
	elapsedMs float64
	nextID    uint64

	state     *scoring.State
	avatar    *avatar.Avatar
	predators []*predator.Predator
	hazards   []*hazard.Hazard
	foods     []*food.Food
	pickups   []*powerup.Pickup
	tracker   *level.Tracker
	director  *mode.Director
	boss      *boss.Boss
	events    events.Manager
	fx        worldFx

	results *Results
}

// New builds a simulation positioned at the start of the requested level.
func New(opts Options) (*Simulation, error) {
	opts = opts.normalized()
	rules, err := mode.Lookup(opts.Mode)
	if err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}
	cfg, err := level.Lookup(opts.Level)
	if err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}

	pub := opts.Deps.Publisher
	if opts.SessionID != "" {
		pub = logging.WithFields(pub, map[string]any{"session": opts.SessionID})
	}
	s := &Simulation{
		opts:   opts,
		ctx:    context.Background(),
		pub:    pub,
		rules:  rules,
		bounds: world.DefaultBounds(),
		rng:    world.NewRNG(opts.Seed, rngLabel),
	}
	if err := s.enterLevel(cfg, rules.NewState()); err != nil {
		return nil, err
	}
	lifecyclelog.SessionStarted(s.ctx, s.pub, s.tick, s.sessionRef(), lifecyclelog.SessionStartedPayload{
		Mode:  string(opts.Mode),
		Level: cfg.ID,
		Seed:  opts.Seed,
	}, nil)
	return s, nil
}

// enterLevel replaces every level-scoped entity with a fresh set for cfg.
func (s *Simulation) enterLevel(cfg level.Config, state *scoring.State) error {
	rng := s.rng.Rand
	av := avatar.New(cfg.Start, s.bounds)
	av.GrantInvulnerability(s.rules.SpawnProtectionMs)
	state.SyncAvatar(av)

	preds := make([]*predator.Predator, 0, len(cfg.Predators))
	for i, spawn := range cfg.Predators {
		p, err := predator.New(fmt.Sprintf("predator-%d", i+1), spawn.Type, spawn.Position, spawn.Patrol)
		if err != nil {
			return fmt.Errorf("sim: level %d predator %d: %w", cfg.ID, i, err)
		}
		preds = append(preds, p)
	}
	starters, err := s.rules.SpawnStartingEnemies(rng, cfg.Start, s.bounds)
	if err != nil {
		return fmt.Errorf("sim: mode %s: %w", s.rules.Mode, err)
	}
	preds = append(preds, starters...)

	hazards := make([]*hazard.Hazard, 0, len(cfg.Hazards))
	for i, spawn := range cfg.Hazards {
		h, err := hazard.New(fmt.Sprintf("hazard-%d", i+1), spawn.Type, spawn.Position, rng)
		if err != nil {
			return fmt.Errorf("sim: level %d hazard %d: %w", cfg.ID, i, err)
		}
		hazards = append(hazards, h)
	}

	s.cfg = cfg
	s.state = state
	s.avatar = av
	s.predators = preds
	s.hazards = hazards
	s.foods = nil
	for i := 0; i < food.InitialCount(cfg.FoodDensity); i++ {
		s.foods = append(s.foods, food.Spawn(rng, s.newID("food"), s.bounds))
	}
	s.pickups = nil
	s.tracker = level.NewTracker(cfg)
	s.director = mode.NewDirector(s.rules)
	s.boss = nil
	if level.IsBossLevel(cfg.ID) {
		s.boss = boss.Spawn(s.ctx, s.pub, s.tick, cfg.ID, s.bounds)
	}
	s.events = events.Manager{}
	s.fx = worldFx{PredatorSpeed: 1}
	s.intent = Intent{}
	s.results = nil
	return nil
}

func (s *Simulation) newID(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

func (s *Simulation) sessionRef() logging.EntityRef {
	return logging.Ref(logging.EntityKindSession, s.opts.SessionID)
}

func (s *Simulation) frame() scoring.Frame {
	return scoring.Frame{Ctx: s.ctx, Tick: s.tick, Publisher: s.pub, RNG: s.rng.Rand}
}

// Step advances the world by dtMs. Paused and finished simulations ignore it.
func (s *Simulation) Step(dtMs float64) {
	if s.paused || s.results != nil || !(dtMs > 0) || math.IsInf(dtMs, 0) {
		return
	}
	s.tick++
	s.elapsedMs += dtMs
	fr := s.frame()
	st, av := s.state, s.avatar

	if expired, ended := st.Tick(dtMs, fr); len(expired) > 0 || len(ended) > 0 {
		st.SyncAvatar(av)
	}

	av.Update(dtMs, s.intent, st.Effects)
	if av.Sanitize() {
		s.opts.Deps.Logger.Printf("[sim] recovered avatar position session=%s tick=%d", s.opts.SessionID, s.tick)
	}

	s.stepPredators(dtMs)

	res := hazard.Resolve(s.hazards, av.Position, dtMs)
	av.Displace(res.Push)
	st.ApplyHazardEffect(res, av, fr)

	magnetic := st.Powerups.Magnetic()
	for _, f := range s.foods {
		if !f.Active {
			continue
		}
		f.Update(dtMs, s.rng.Rand, av.Position, s.bounds)
		if magnetic {
			f.Position, _ = powerup.MagnetPull(f.Position, av.Position, dtMs)
		}
	}
	s.pickups = st.ResolveCollisions(av, s.foods, s.predators, s.pickups, fr)

	if s.checkLevel() {
		return
	}

	s.predators = s.director.Step(mode.Frame{
		Ctx:       s.ctx,
		Tick:      s.tick,
		Publisher: s.pub,
		RNG:       s.rng.Rand,
		DtMs:      dtMs,
		AvatarPos: av.Position,
		Bounds:    s.bounds,
	}, s.predators, st)

	s.stepBoss(dtMs, fr)
	s.stepEvents(dtMs)

	s.pickups = powerup.TickField(s.pickups, dtMs)
	id := fmt.Sprintf("powerup-%d", s.nextID+1)
	if p := powerup.MaybeSpawn(s.rng.Rand, s.pickups, id, av.Position, s.bounds); p != nil {
		s.nextID++
		s.pickups = append(s.pickups, p)
	}

	if food.ShouldRespawn(s.rng.Rand, s.foods) {
		s.foods = append(s.foods, food.Spawn(s.rng.Rand, s.newID("food"), s.bounds))
	}
}

// perception is what every predator observes this frame. Player effects
// such as exposed do not change the sight chance.
func (s *Simulation) perception() predator.Perception {
	st, av := s.state, s.avatar
	in := predator.Perception{
		AvatarPos:  av.Position,
		Ink:        av.InkCloudActive,
		Camouflage: st.Powerups.Camouflaged(),
		Darkness:   s.fx.Darkness,
		SpeedScale: s.director.SpeedScale() * s.fx.PredatorSpeed,
		Bounds:     s.bounds,
	}
	if st.Powerups.Frozen() {
		in.SpeedScale = 0
	}
	return in
}

func (s *Simulation) stepPredators(dtMs float64) {
	in := s.perception()
	for _, p := range s.predators {
		tr, changed := p.Update(dtMs, s.rng.Rand, in)
		if p.Sanitize(s.bounds) {
			s.opts.Deps.Logger.Printf("[sim] recovered predator %s session=%s tick=%d", p.ID, s.opts.SessionID, s.tick)
		}
		if changed {
			predatorlog.StateChanged(s.ctx, s.pub, s.tick, logging.Ref(logging.EntityKindPredator, p.ID), predatorlog.StateChangedPayload{
				From:       string(tr.From),
				To:         string(tr.To),
				AlertLevel: p.AlertLevel,
				Distance:   tr.Distance,
			}, nil)
		}
	}
}

// checkLevel runs game-over and completion checks and finalizes the run when
// either fires.
func (s *Simulation) checkLevel() bool {
	st := s.state
	if over, reason := s.director.Over(st); over {
		s.tracker.GameOver(s.ctx, s.pub, s.tick, st.Score, reason)
		s.finish()
		return true
	}
	if s.tracker.Advance(s.ctx, s.pub, s.tick, st.GameTimeMs, s.avatar.Position, st.Score, s.rules) {
		s.finish()
		return true
	}
	return false
}

func (s *Simulation) finish() {
	st := s.state
	progress := s.tracker.Progress
	st.Score = progress.FinalScore
	survived := 0
	if st.UnlimitedLives || st.Lives > 0 {
		survived = 1
	}
	r := Results{
		SessionID:       s.opts.SessionID,
		Mode:            s.rules.Mode,
		Level:           s.cfg.ID,
		Score:           st.Score,
		PeakCombo:       st.PeakCombo,
		DurationMs:      s.elapsedMs,
		Medal:           progress.Medal,
		SurvivalBonus:   progress.SurvivalBonus,
		EnemiesDefeated: st.EnemiesDefeated,
		FoodCollected:   st.FoodCollected,
		TimesSurvived:   survived,
		PowerUpsUsed:    st.PowerUpsUsed,
		Completed:       progress.Complete,
		GameOver:        progress.GameOver,
	}
	s.results = &r
	lifecyclelog.SessionResults(s.ctx, s.pub, s.tick, s.sessionRef(), r, nil)
	if s.opts.OnResults != nil {
		s.opts.OnResults(r)
	}
}

func (s *Simulation) stepBoss(dtMs float64, fr scoring.Frame) {
	b := s.boss
	if b == nil {
		return
	}
	b.Update(dtMs, s.avatar.Position, s.bounds)
	if b.Sanitize(s.bounds) {
		s.opts.Deps.Logger.Printf("[sim] recovered boss %s session=%s tick=%d", b.ID, s.opts.SessionID, s.tick)
	}
	if out := b.Engage(s.state, s.avatar, fr); out.Defeated {
		s.boss = nil
	}
}

func (s *Simulation) stepEvents(dtMs float64) {
	av := s.avatar
	fx := s.events.Step(events.Frame{
		Ctx:        s.ctx,
		Tick:       s.tick,
		Publisher:  s.pub,
		RNG:        s.rng.Rand,
		DtMs:       dtMs,
		GameTimeMs: s.state.GameTimeMs,
		AvatarPos:  av.Position,
	}, s.state)
	s.fx = worldFx{Darkness: fx.Darkness, PredatorSpeed: fx.PredatorSpeed}

	if fx.SpawnFood {
		s.foods = append(s.foods, food.SpawnWandering(s.rng.Rand, s.newID("food"), s.bounds))
	}
	if fx.SpawnHunter {
		types := predator.GlobalLibrary.Types(predator.VariantHunter)
		if len(types) > 0 {
			t := types[s.rng.Intn(len(types))]
			p, err := predator.SpawnAway(s.rng.Rand, s.newID("swarm"), predator.VariantHunter, t, av.Position, s.bounds)
			if err != nil {
				s.opts.Deps.Logger.Printf("[sim] swarm spawn failed session=%s: %v", s.opts.SessionID, err)
			} else {
				s.predators = append(s.predators, p)
				predatorlog.Spawned(s.ctx, s.pub, s.tick, logging.Ref(logging.EntityKindPredator, p.ID), predatorlog.SpawnedPayload{
					Type:   string(p.Type),
					X:      p.Position.X,
					Y:      p.Position.Y,
					Reason: "swarm",
				}, nil)
			}
		}
	}
	if fx.Pull != (geom.Vec2{}) {
		av.Displace(fx.Pull.Scale(dtMs / 1000))
	}
}

// SetIntent sets the swim direction for the following steps. Each axis is
// clamped to -1..1 and longer vectors are normalized.
func (s *Simulation) SetIntent(in Intent) {
	v := geom.V(clampAxis(in.X), clampAxis(in.Y))
	if v.Len() > 1 {
		v = v.Normalize()
	}
	s.intent = Intent{X: v.X, Y: v.Y}
}

func clampAxis(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-1, math.Min(1, v))
}

// Dash triggers a dash. It reports false when on cooldown or not running.
func (s *Simulation) Dash() bool {
	if s.paused || s.results != nil {
		return false
	}
	return s.avatar.Dash()
}

// InkCloud releases an ink cloud when the meter and cooldown allow it.
func (s *Simulation) InkCloud() bool {
	if s.paused || s.results != nil {
		return false
	}
	return s.avatar.InkCloud()
}

func (s *Simulation) SetPaused(paused bool) {
	s.paused = paused
}

func (s *Simulation) Paused() bool {
	return s.paused
}

func (s *Simulation) Tick() uint64 {
	return s.tick
}

// Finished reports whether the run reached completion or game over.
func (s *Simulation) Finished() bool {
	return s.results != nil
}

// Results returns the run's results once it has finished.
func (s *Simulation) Results() (Results, bool) {
	if s.results == nil {
		return Results{}, false
	}
	return *s.results, true
}

// Level returns the active level configuration.
func (s *Simulation) Level() level.Config {
	return s.cfg.Clone()
}

// NextLevel moves to the following level. Score and lifetime counters carry
// over; lives, combo and streak restart from the mode defaults.
func (s *Simulation) NextLevel() error {
	if !s.tracker.Progress.Complete {
		return ErrLevelNotComplete
	}
	cfg, err := level.Lookup(s.cfg.ID + 1)
	if err != nil {
		return fmt.Errorf("sim: next level: %w", err)
	}
	prev := s.state
	next := s.rules.NewState()
	next.Score = prev.Score
	next.PeakCombo = prev.PeakCombo
	next.FoodCollected = prev.FoodCollected
	next.PowerUpsUsed = prev.PowerUpsUsed
	next.EnemiesDefeated = prev.EnemiesDefeated
	next.Hits = prev.Hits
	if err := s.enterLevel(cfg, next); err != nil {
		return err
	}
	s.paused = false
	return nil
}

// Restart rebuilds the run from its original options, reseeding the RNG.
func (s *Simulation) Restart() error {
	fresh, err := New(s.opts)
	if err != nil {
		return err
	}
	*s = *fresh
	return nil
}

// Snapshot returns a deep copy of the visible world.
func (s *Simulation) Snapshot() Snapshot {
	st := s.state
	cfg := s.cfg
	snap := Snapshot{
		SessionID: s.opts.SessionID,
		Tick:      s.tick,
		Mode:      s.rules.Mode,
		Level: LevelView{
			ID:         cfg.ID,
			Name:       cfg.Name,
			Biome:      cfg.Biome,
			DurationMs: cfg.DurationMs,
			Thresholds: cfg.Thresholds,
			Checkpoint: cfg.Checkpoint,
			EndGate:    cfg.EndGate,
		},
		Paused:   s.paused,
		Finished: s.results != nil,
		Avatar:   *s.avatar.Clone(st.Effects),
		Boss:     s.boss.Clone(),
		Progress: s.tracker.Progress,
		State: StateView{
			Score:           st.Score,
			Lives:           st.DisplayLives(),
			Combo:           st.Combo,
			ComboTimerMs:    st.ComboTimerMs,
			Streak:          st.Streak,
			Medal:           level.MedalFor(st.Score, cfg.Thresholds),
			GameTimeMs:      st.GameTimeMs,
			ScreenShake:     st.ScreenShake,
			Effects:         append([]effects.Effect(nil), st.Effects.Active...),
			Powerups:        append([]powerup.Effect(nil), st.Powerups.Effects...),
			ChainMultiplier: st.Powerups.ChainMultiplier(),
		},
	}
	if s.rules.TimeLimitMs > 0 {
		snap.State.TimeRemainingMs = s.director.TimeRemainingMs()
	}
	snap.Predators = make([]predator.Predator, 0, len(s.predators))
	for _, p := range s.predators {
		snap.Predators = append(snap.Predators, *p.Clone())
	}
	snap.Hazards = make([]hazard.Hazard, 0, len(s.hazards))
	for _, h := range s.hazards {
		snap.Hazards = append(snap.Hazards, *h)
	}
	snap.Food = make([]food.Food, 0, len(s.foods))
	for _, f := range s.foods {
		snap.Food = append(snap.Food, *f.Clone())
	}
	snap.Powerups = make([]powerup.Pickup, 0, len(s.pickups))
	for _, p := range s.pickups {
		snap.Powerups = append(snap.Powerups, *p)
	}
	if e := s.events.Active; e != nil {
		event := *e
		snap.Event = &event
	}
	return snap
}
