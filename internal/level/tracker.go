package level

import (
	"context"
	"math"

	"github.com/mjcole76/octochase/internal/geom"
	"github.com/mjcole76/octochase/logging"
	levellog "github.com/mjcole76/octochase/logging/level"
)

// EndGateRadius is how close the avatar must swim to the end gate.
const EndGateRadius = 50

type Medal string

const (
	MedalNone   Medal = "none"
	MedalBronze Medal = "bronze"
	MedalSilver Medal = "silver"
	MedalGold   Medal = "gold"
)

// MedalFor grades score against the level's own thresholds.
func MedalFor(score float64, th Thresholds) Medal {
	switch {
	case score >= th.Gold:
		return MedalGold
	case score >= th.Silver:
		return MedalSilver
	case score >= th.Bronze:
		return MedalBronze
	default:
		return MedalNone
	}
}

// SurvivalBonus is the completion bonus for the time left on the clock.
func SurvivalBonus(remainingMs, durationMs float64) int {
	if durationMs <= 0 || remainingMs <= 0 {
		return 0
	}
	return int(math.Floor(remainingMs / durationMs * 100))
}

type Phase string

const (
	PhaseActive     Phase = "active"
	PhaseCheckpoint Phase = "checkpoint_reached"
	PhaseComplete   Phase = "complete"
)

// Rules is the slice of the game mode the tracker consults.
type Rules interface {
	UsesEndGate() bool
}

// Progress is the serializable part of a Tracker.
type Progress struct {
	Level             int     `json:"level" msgpack:"level"`
	Phase             Phase   `json:"phase" msgpack:"phase"`
	CheckpointReached bool    `json:"checkpointReached" msgpack:"checkpointReached"`
	Complete          bool    `json:"complete" msgpack:"complete"`
	ShowResults       bool    `json:"showResults" msgpack:"showResults"`
	GameOver          bool    `json:"gameOver" msgpack:"gameOver"`
	SurvivalBonus     int     `json:"survivalBonus" msgpack:"survivalBonus"`
	Medal             Medal   `json:"medal" msgpack:"medal"`
	FinalScore        float64 `json:"finalScore" msgpack:"finalScore"`
	ElapsedMs         float64 `json:"elapsedMs" msgpack:"elapsedMs"`
}

// Tracker walks a level through active, checkpoint-reached and complete.
type Tracker struct {
	cfg      Config
	Progress Progress
}

func NewTracker(cfg Config) *Tracker {
	return &Tracker{
		cfg:      cfg,
		Progress: Progress{Level: cfg.ID, Phase: PhaseActive, Medal: MedalNone},
	}
}

// Config returns the level the tracker was built for.
func (t *Tracker) Config() Config {
	return t.cfg
}

// Finished reports whether results have been produced.
func (t *Tracker) Finished() bool {
	return t.Progress.ShowResults
}

// Advance records elapsed time and reports whether the level completed on
// this call. Only rules that use the end gate complete a level by reaching the
// gate or running out of time.
func (t *Tracker) Advance(ctx context.Context, pub logging.Publisher, tick uint64, elapsedMs float64, avatarPos geom.Vec2, score float64, rules Rules) bool {
	if t.Progress.ShowResults {
		return false
	}
	t.Progress.ElapsedMs = elapsedMs

	if !t.Progress.CheckpointReached && elapsedMs >= t.cfg.CheckpointMs {
		t.Progress.CheckpointReached = true
		t.Progress.Phase = PhaseCheckpoint
		levellog.Checkpoint(ctx, pub, tick, levellog.ProgressPayload{
			Level:     t.cfg.ID,
			ElapsedMs: int64(elapsedMs),
			Score:     score,
		}, nil)
	}

	if rules == nil || !rules.UsesEndGate() {
		return false
	}
	atGate := geom.Distance(avatarPos, t.cfg.EndGate) < EndGateRadius
	if !atGate && elapsedMs < t.cfg.DurationMs {
		return false
	}
	reason := "end_gate"
	if !atGate {
		reason = "duration"
	}
	t.Progress.Complete = true
	t.finish(ctx, pub, tick, score, reason)
	return true
}

// GameOver closes the level after the mode ended the run.
func (t *Tracker) GameOver(ctx context.Context, pub logging.Publisher, tick uint64, score float64, reason string) {
	if t.Progress.ShowResults {
		return
	}
	t.Progress.GameOver = true
	t.finish(ctx, pub, tick, score, reason)
}

func (t *Tracker) finish(ctx context.Context, pub logging.Publisher, tick uint64, score float64, reason string) {
	remaining := math.Max(0, t.cfg.DurationMs-t.Progress.ElapsedMs)
	t.Progress.SurvivalBonus = SurvivalBonus(remaining, t.cfg.DurationMs)
	t.Progress.FinalScore = score + float64(t.Progress.SurvivalBonus)
	t.Progress.Medal = MedalFor(t.Progress.FinalScore, t.cfg.Thresholds)
	t.Progress.Phase = PhaseComplete
	t.Progress.ShowResults = true

	payload := levellog.ProgressPayload{
		Level:     t.cfg.ID,
		ElapsedMs: int64(t.Progress.ElapsedMs),
		Score:     t.Progress.FinalScore,
		Medal:     string(t.Progress.Medal),
		Reason:    reason,
	}
	if t.Progress.GameOver {
		levellog.GameOver(ctx, pub, tick, payload, nil)
		return
	}
	levellog.Complete(ctx, pub, tick, payload, nil)
}
