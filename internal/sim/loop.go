package sim

import (
	"context"
	"sync"
	"time"

	"github.com/mjcole76/octochase/internal/telemetry"
	"github.com/mjcole76/octochase/logging"
	simlog "github.com/mjcole76/octochase/logging/simulation"
)

const (
	defaultTickRate        = 60
	defaultCatchupMaxTicks = 4
	defaultCommandCapacity = 64

	perfWindow = 60
	// perfBudget is the share of the frame interval a step may use on average
	// before the loop halves its rate.
	perfBudget = 0.75
)

// LoopConfig tunes the frame cadence.
type LoopConfig struct {
	TickRate        int
	CatchupMaxTicks int
	// LowPerformance starts the loop at half rate.
	LowPerformance  bool
	CommandCapacity int
}

// DefaultLoopConfig returns the 60 Hz configuration.
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		TickRate:        defaultTickRate,
		CatchupMaxTicks: defaultCatchupMaxTicks,
		CommandCapacity: defaultCommandCapacity,
	}
}

func (c LoopConfig) normalized() LoopConfig {
	normalized := c
	if normalized.TickRate <= 0 {
		normalized.TickRate = defaultTickRate
	}
	if normalized.CatchupMaxTicks < 1 {
		normalized.CatchupMaxTicks = defaultCatchupMaxTicks
	}
	if normalized.CommandCapacity < 1 {
		normalized.CommandCapacity = defaultCommandCapacity
	}
	return normalized
}

// LoopHooks are called after each step, outside the loop's lock.
type LoopHooks struct {
	// Render receives the frame's snapshot. It is skipped on every other
	// frame in low-performance mode.
	Render func(Snapshot)
	// AfterStep runs after every step, rendered or not.
	AfterStep func(LoopStepResult)
}

// LoopStepResult summarises one advanced frame.
type LoopStepResult struct {
	Tick     uint64
	Now      time.Time
	Delta    time.Duration
	Duration time.Duration
	Budget   time.Duration
	Clamped  bool
	Rendered bool
	LowPerf  bool
	Finished bool
}

// Loop drives a Simulation at a fixed cadence and serializes every access to
// it. Hosts enqueue input and read snapshots through the Loop only.
type Loop struct {
	sim     *Simulation
	hooks   LoopHooks
	config  LoopConfig
	clock   logging.Clock
	logger  telemetry.Logger
	metrics telemetry.Metrics
	pub     logging.Publisher
	buffer  *CommandBuffer

	mu      sync.Mutex
	started bool
	last    time.Time
	lowPerf bool
	frames  uint64
	samples []time.Duration
}

// NewLoop wraps sim. The simulation's injected clock, logger and metrics are
// reused by the loop.
func NewLoop(sim *Simulation, cfg LoopConfig, hooks LoopHooks) *Loop {
	if sim == nil {
		return nil
	}
	cfg = cfg.normalized()
	deps := sim.opts.Deps
	return &Loop{
		sim:     sim,
		hooks:   hooks,
		config:  cfg,
		clock:   deps.Clock,
		logger:  deps.Logger,
		metrics: deps.Metrics,
		pub:     sim.pub,
		buffer:  NewCommandBuffer(cfg.CommandCapacity, deps.Metrics),
		lowPerf: cfg.LowPerformance,
		samples: make([]time.Duration, 0, perfWindow),
	}
}

// Interval is the current frame interval.
func (l *Loop) Interval() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.intervalLocked()
}

func (l *Loop) intervalLocked() time.Duration {
	rate := l.config.TickRate
	if l.lowPerf && rate > 1 {
		rate /= 2
	}
	return time.Second / time.Duration(rate)
}

// LowPerformance reports whether the loop has dropped to half rate.
func (l *Loop) LowPerformance() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lowPerf
}

// Enqueue stages a command for the next frame.
func (l *Loop) Enqueue(cmd Command) bool {
	if l == nil {
		return false
	}
	return l.buffer.Push(cmd)
}

// Snapshot returns a copy of the simulation's current state.
func (l *Loop) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sim.Snapshot()
}

// Results returns the run's results once finished.
func (l *Loop) Results() (Results, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sim.Results()
}

// Do runs fn with exclusive access to the simulation.
func (l *Loop) Do(fn func(*Simulation) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(l.sim)
}

// Advance runs at most one frame for the wall time now. It reports false when
// less than a frame interval has passed since the previous frame. The first
// call only anchors the clock.
func (l *Loop) Advance(now time.Time) (LoopStepResult, bool) {
	l.mu.Lock()
	result, ok := l.advanceLocked(now)
	var snap Snapshot
	if ok && result.Rendered && l.hooks.Render != nil {
		snap = l.sim.Snapshot()
	}
	l.mu.Unlock()

	if !ok {
		return result, false
	}
	if result.Rendered && l.hooks.Render != nil {
		l.hooks.Render(snap)
	}
	if l.hooks.AfterStep != nil {
		l.hooks.AfterStep(result)
	}
	return result, true
}

func (l *Loop) advanceLocked(now time.Time) (LoopStepResult, bool) {
	if !l.started {
		l.started = true
		l.last = now
		return LoopStepResult{}, false
	}
	interval := l.intervalLocked()
	delta := now.Sub(l.last)
	if delta < interval {
		return LoopStepResult{}, false
	}
	l.last = now.Add(-(delta % interval))

	step := delta
	clamped := false
	if limit := interval * time.Duration(l.config.CatchupMaxTicks); step > limit {
		step = limit
		clamped = true
		l.metrics.Add(telemetry.MetricTicksClamped, 1)
		simlog.Clamped(context.Background(), l.pub, l.sim.Tick(), simlog.ClampedPayload{
			ElapsedMillis: delta.Milliseconds(),
			ClampedMillis: (delta - limit).Milliseconds(),
			MaxTicks:      l.config.CatchupMaxTicks,
		}, nil)
	}

	l.sim.Apply(l.buffer.Drain())
	start := l.clock.Now()
	l.sim.Step(float64(step) / float64(time.Millisecond))
	took := l.clock.Now().Sub(start)
	l.metrics.Add(telemetry.MetricTicks, 1)

	l.frames++
	rendered := !l.lowPerf || l.frames%2 == 0
	result := LoopStepResult{
		Tick:     l.sim.Tick(),
		Now:      now,
		Delta:    step,
		Duration: took,
		Budget:   interval,
		Clamped:  clamped,
		Rendered: rendered,
		LowPerf:  l.lowPerf,
		Finished: l.sim.Finished(),
	}
	l.observe(took, interval)
	return result, true
}

// observe feeds the step duration into the performance window and switches to
// half rate once the mean exceeds the budget.
func (l *Loop) observe(took, interval time.Duration) {
	if l.lowPerf {
		return
	}
	l.samples = append(l.samples, took)
	if len(l.samples) < perfWindow {
		return
	}
	var total time.Duration
	for _, d := range l.samples {
		total += d
	}
	l.samples = l.samples[:0]
	mean := total / perfWindow
	ratio := float64(mean) / float64(interval)
	if ratio <= perfBudget {
		return
	}
	l.lowPerf = true
	l.metrics.Add(telemetry.MetricLowPerformance, 1)
	l.logger.Printf("[loop] switching to low performance mode mean_step=%s budget=%s ratio=%.2f", mean, interval, ratio)
	simlog.LowPerformance(context.Background(), l.pub, l.sim.Tick(), simlog.LowPerformancePayload{
		MeanStepMicros: mean.Microseconds(),
		BudgetMicros:   interval.Microseconds(),
		Ratio:          ratio,
		TickRate:       l.config.TickRate / 2,
	}, nil)
}

// Run wakes at twice the frame rate and advances the simulation until ctx is
// cancelled.
func (l *Loop) Run(ctx context.Context) {
	if l == nil {
		return
	}
	wake := l.Interval() / 2
	ticker := time.NewTicker(wake)
	defer ticker.Stop()

	l.Advance(l.clock.Now())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Advance(l.clock.Now())
			if next := l.Interval() / 2; next != wake {
				wake = next
				ticker.Reset(wake)
			}
		}
	}
}
