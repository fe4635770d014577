package octochase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mjcole76/octochase/internal/mode"
	"github.com/mjcole76/octochase/internal/net/proto"
	"github.com/mjcole76/octochase/internal/sim"
	"github.com/mjcole76/octochase/internal/telemetry"
	"github.com/mjcole76/octochase/logging"
	lifecyclelog "github.com/mjcole76/octochase/logging/lifecycle"
)

const (
	writeWait           = 10 * time.Second
	heartbeatInterval   = 2 * time.Second
	disconnectAfter     = 3 * heartbeatInterval
	defaultSessionLimit = 64
	defaultResultsDepth = 16
	subscriberQueue     = 8
)

var (
	// ErrSessionLimit is returned by Create when the hub is full.
	ErrSessionLimit = errors.New("octochase: session limit reached")
	// ErrUnknownSession is returned for ids the hub does not own.
	ErrUnknownSession = errors.New("octochase: unknown session")
	// ErrHubClosed is returned by Create after Shutdown.
	ErrHubClosed = errors.New("octochase: hub closed")
)

// SubscriberConn is the write side of a streaming client. WriteFrame must
// fail once deadline passes, and Close must unblock a pending WriteFrame.
type SubscriberConn interface {
	WriteFrame(data []byte, deadline time.Time) error
	Close() error
}

// HubConfig configures the session hub. Zero values fall back to defaults.
type HubConfig struct {
	Loop          sim.LoopConfig
	SessionLimit  int
	ResultsBuffer int
	Publisher     logging.Publisher
	Logger        telemetry.Logger
	Metrics       telemetry.Metrics
	Clock         logging.Clock
}

// DefaultHubConfig returns a hub configuration for a single process.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		Loop:          sim.DefaultLoopConfig(),
		SessionLimit:  defaultSessionLimit,
		ResultsBuffer: defaultResultsDepth,
	}
}

func (c HubConfig) normalized() HubConfig {
	normalized := c
	if normalized.SessionLimit <= 0 {
		normalized.SessionLimit = defaultSessionLimit
	}
	if normalized.ResultsBuffer <= 0 {
		normalized.ResultsBuffer = defaultResultsDepth
	}
	if normalized.Publisher == nil {
		normalized.Publisher = logging.NopPublisher()
	}
	if normalized.Logger == nil {
		normalized.Logger = telemetry.NopLogger()
	}
	if normalized.Metrics == nil {
		normalized.Metrics = telemetry.NopMetrics()
	}
	if normalized.Clock == nil {
		normalized.Clock = logging.SystemClock{}
	}
	return normalized
}

// CreateRequest selects what a new session plays.
type CreateRequest struct {
	Level int    `json:"level"`
	Mode  string `json:"mode"`
	Seed  string `json:"seed"`
}

// Hub owns every live session. Each session runs its own loop goroutine.
type Hub struct {
	config  HubConfig
	results chan sim.Results

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

// NewHub creates an empty hub.
func NewHub(cfg HubConfig) *Hub {
	cfg = cfg.normalized()
	return &Hub{
		config:   cfg,
		results:  make(chan sim.Results, cfg.ResultsBuffer),
		sessions: make(map[string]*Session),
	}
}

// Results delivers finished runs. Deliveries are dropped when nobody drains
// the channel.
func (h *Hub) Results() <-chan sim.Results {
	return h.results
}

// Create starts a new session and its loop.
func (h *Hub) Create(req CreateRequest) (*Session, error) {
	m, err := mode.Parse(req.Mode)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	if len(h.sessions) >= h.config.SessionLimit {
		h.mu.Unlock()
		return nil, ErrSessionLimit
	}
	h.mu.Unlock()

	id := uuid.NewString()
	session := &Session{
		ID:          id,
		Mode:        m,
		hub:         h,
		subscribers: make(map[*subscriber]struct{}),
		done:        make(chan struct{}),
	}
	simulation, err := sim.New(sim.Options{
		Level:     req.Level,
		Mode:      m,
		Seed:      req.Seed,
		SessionID: id,
		Deps: sim.Deps{
			Publisher: h.config.Publisher,
			Logger:    h.config.Logger,
			Metrics:   h.config.Metrics,
			Clock:     h.config.Clock,
		},
		OnResults: session.stageResults,
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	session.Level = simulation.Level().ID
	session.CreatedAt = h.config.Clock.Now()
	session.lastHeartbeat = session.CreatedAt
	session.loop = sim.NewLoop(simulation, h.config.Loop, sim.LoopHooks{
		Render:    session.broadcastState,
		AfterStep: session.afterStep,
	})

	h.mu.Lock()
	if h.closed || len(h.sessions) >= h.config.SessionLimit {
		closed := h.closed
		h.mu.Unlock()
		if closed {
			return nil, ErrHubClosed
		}
		return nil, ErrSessionLimit
	}
	h.sessions[id] = session
	active := len(h.sessions)
	h.mu.Unlock()

	h.config.Metrics.Add(telemetry.MetricSessionsTotal, 1)
	h.config.Metrics.Store(telemetry.MetricSessionsActive, uint64(active))

	ctx, cancel := context.WithCancel(context.Background())
	session.cancel = cancel
	go func() {
		defer close(session.done)
		session.loop.Run(ctx)
	}()
	h.config.Logger.Printf("[hub] session %s started mode=%s level=%d", id, m, session.Level)
	return session, nil
}

// Session looks up a live session.
func (h *Hub) Session(id string) (*Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	session, ok := h.sessions[id]
	return session, ok
}

// Close stops a session's loop and disconnects its subscribers.
func (h *Hub) Close(id, reason string) error {
	h.mu.Lock()
	session, ok := h.sessions[id]
	if ok {
		delete(h.sessions, id)
	}
	active := len(h.sessions)
	h.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	h.config.Metrics.Store(telemetry.MetricSessionsActive, uint64(active))
	session.stop()

	var tick uint64
	_ = session.loop.Do(func(s *sim.Simulation) error {
		tick = s.Tick()
		return nil
	})
	lifecyclelog.SessionClosed(
		context.Background(),
		h.config.Publisher,
		tick,
		logging.Ref(logging.EntityKindSession, id),
		lifecyclelog.SessionClosedPayload{Reason: reason},
		map[string]any{"session": id},
	)
	h.config.Logger.Printf("[hub] session %s closed: %s", id, reason)
	return nil
}

// Shutdown closes every session and refuses new ones.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	ids := make([]string, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	h.mu.Unlock()

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := h.Close(id, "shutdown"); err != nil && !errors.Is(err, ErrUnknownSession) {
			return err
		}
	}
	return nil
}

// SessionDiagnostics summarises one session for the diagnostics endpoint.
type SessionDiagnostics struct {
	ID             string    `json:"id"`
	Mode           mode.Mode `json:"mode"`
	Level          int       `json:"level"`
	Tick           uint64    `json:"tick"`
	Finished       bool      `json:"finished"`
	LowPerformance bool      `json:"lowPerformance"`
	Subscribers    int       `json:"subscribers"`
	LastHeartbeat  int64     `json:"lastHeartbeat"`
	RTTMillis      int64     `json:"rttMillis"`
}

// DiagnosticsSnapshot lists live sessions ordered by creation time.
func (h *Hub) DiagnosticsSnapshot() []SessionDiagnostics {
	h.mu.Lock()
	sessions := make([]*Session, 0, len(h.sessions))
	for _, session := range h.sessions {
		sessions = append(sessions, session)
	}
	h.mu.Unlock()

	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})

	out := make([]SessionDiagnostics, 0, len(sessions))
	for _, session := range sessions {
		snap := session.loop.Snapshot()
		lowPerf := session.loop.LowPerformance()
		session.mu.Lock()
		diag := SessionDiagnostics{
			ID:             session.ID,
			Mode:           session.Mode,
			Level:          snap.Level.ID,
			Tick:           snap.Tick,
			Finished:       snap.Finished,
			LowPerformance: lowPerf,
			Subscribers:    len(session.subscribers),
			LastHeartbeat:  session.lastHeartbeat.UnixMilli(),
			RTTMillis:      session.lastRTT.Milliseconds(),
		}
		session.mu.Unlock()
		out = append(out, diag)
	}
	return out
}

// Session is one running simulation plus its streaming subscribers. Level is
// the level the session was created on.
type Session struct {
	ID        string
	Mode      mode.Mode
	Level     int
	CreatedAt time.Time

	hub    *Hub
	loop   *sim.Loop
	cancel context.CancelFunc
	done   chan struct{}

	mu            sync.Mutex
	subscribers   map[*subscriber]struct{}
	pending       *sim.Results
	lastHeartbeat time.Time
	lastRTT       time.Duration
}

// subscriber owns a bounded outbound queue drained by its own writer
// goroutine, so a slow client never stalls the session loop.
type subscriber struct {
	conn SubscriberConn
	send chan []byte
	quit chan struct{}
	done chan struct{}
	once sync.Once
}

func newSubscriber(conn SubscriberConn) *subscriber {
	return &subscriber{
		conn: conn,
		send: make(chan []byte, subscriberQueue),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// enqueue never blocks. It reports false when the queue is full.
func (sub *subscriber) enqueue(data []byte) bool {
	select {
	case sub.send <- data:
		return true
	default:
		return false
	}
}

func (sub *subscriber) shutdown() {
	sub.once.Do(func() {
		close(sub.quit)
		_ = sub.conn.Close()
	})
}

// close stops the writer and waits for it to exit.
func (sub *subscriber) close() {
	sub.shutdown()
	<-sub.done
}

// Snapshot returns the session's current state.
func (s *Session) Snapshot() sim.Snapshot {
	return s.loop.Snapshot()
}

// Results returns the run's results once it has finished.
func (s *Session) Results() (sim.Results, bool) {
	return s.loop.Results()
}

// Enqueue queues a command for the next frame.
func (s *Session) Enqueue(cmd sim.Command) bool {
	return s.loop.Enqueue(cmd)
}

// NextLevel advances a completed classic or time-attack run.
func (s *Session) NextLevel() error {
	return s.loop.Do(func(simulation *sim.Simulation) error {
		if err := simulation.NextLevel(); err != nil {
			return err
		}
		s.mu.Lock()
		s.pending = nil
		s.mu.Unlock()
		return nil
	})
}

// Restart rebuilds the run from its original options.
func (s *Session) Restart() error {
	return s.loop.Do(func(simulation *sim.Simulation) error {
		if err := simulation.Restart(); err != nil {
			return err
		}
		s.mu.Lock()
		s.pending = nil
		s.mu.Unlock()
		return nil
	})
}

// Subscribe attaches a streaming client. The returned function detaches it.
func (s *Session) Subscribe(conn SubscriberConn) func() {
	sub := newSubscriber(conn)
	s.mu.Lock()
	s.subscribers[sub] = struct{}{}
	s.lastHeartbeat = s.hub.config.Clock.Now()
	s.mu.Unlock()
	go s.writePump(sub)
	return func() {
		s.detach(sub)
		sub.close()
	}
}

func (s *Session) detach(sub *subscriber) {
	s.mu.Lock()
	delete(s.subscribers, sub)
	s.mu.Unlock()
}

// writePump drains one subscriber's queue. A failed write detaches the
// subscriber and closes its connection.
func (s *Session) writePump(sub *subscriber) {
	defer close(sub.done)
	cfg := s.hub.config
	for {
		select {
		case <-sub.quit:
			return
		case data := <-sub.send:
			if err := sub.conn.WriteFrame(data, cfg.Clock.Now().Add(writeWait)); err != nil {
				select {
				case <-sub.quit:
					return
				default:
				}
				cfg.Metrics.Add(telemetry.MetricSnapshotErrors, 1)
				cfg.Logger.Printf("[hub] failed to send update to %s: %v", s.ID, err)
				s.detach(sub)
				sub.shutdown()
				return
			}
			cfg.Metrics.Add(telemetry.MetricSnapshotsSent, 1)
		}
	}
}

// Heartbeat records client liveness and returns the latest round-trip time.
func (s *Session) Heartbeat(receivedAt time.Time, clientSent int64) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastHeartbeat = receivedAt
	if clientSent > 0 {
		clientTime := time.UnixMilli(clientSent)
		if clientTime.Before(receivedAt.Add(5 * time.Second)) {
			rtt := receivedAt.Sub(clientTime)
			if rtt < 0 {
				rtt = 0
			}
			s.lastRTT = rtt
		}
	}
	return s.lastRTT
}

// Done is closed once the session's loop has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.done

	s.mu.Lock()
	subs := make([]*subscriber, 0, len(s.subscribers))
	for sub := range s.subscribers {
		subs = append(subs, sub)
	}
	s.subscribers = make(map[*subscriber]struct{})
	s.mu.Unlock()
	for _, sub := range subs {
		sub.close()
	}
}

// stageResults runs inside the simulation step, so it only records the
// results. afterStep delivers them outside the loop lock.
func (s *Session) stageResults(results sim.Results) {
	s.mu.Lock()
	s.pending = &results
	s.mu.Unlock()
}

func (s *Session) afterStep(sim.LoopStepResult) {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	if pending == nil {
		return
	}

	hub := s.hub
	select {
	case hub.results <- *pending:
	default:
		hub.config.Logger.Printf("[hub] results channel full, dropping results for %s", s.ID)
	}
	data, err := proto.EncodeResults(*pending)
	if err != nil {
		hub.config.Logger.Printf("[hub] failed to encode results for %s: %v", s.ID, err)
		return
	}
	s.broadcast(data)
}

// broadcastState sends a frame's snapshot to every subscriber. Subscribers
// that stopped heartbeating are disconnected first.
func (s *Session) broadcastState(snap sim.Snapshot) {
	now := s.hub.config.Clock.Now()
	s.mu.Lock()
	if len(s.subscribers) == 0 {
		s.mu.Unlock()
		return
	}
	if now.Sub(s.lastHeartbeat) > disconnectAfter {
		stale := s.subscribers
		s.subscribers = make(map[*subscriber]struct{})
		s.mu.Unlock()
		s.hub.config.Logger.Printf("[hub] disconnecting subscribers of %s due to heartbeat timeout", s.ID)
		for sub := range stale {
			sub.close()
		}
		return
	}
	s.mu.Unlock()

	data, err := proto.EncodeState(proto.State{ServerTime: now.UnixMilli(), Snapshot: snap})
	if err != nil {
		s.hub.config.Logger.Printf("[hub] failed to encode state for %s: %v", s.ID, err)
		return
	}
	s.broadcast(data)
}

// broadcast queues data for every subscriber without blocking. A subscriber
// whose queue is full misses the frame.
func (s *Session) broadcast(data []byte) {
	s.mu.Lock()
	subs := make([]*subscriber, 0, len(s.subscribers))
	for sub := range s.subscribers {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		if !sub.enqueue(data) {
			s.hub.config.Metrics.Add(telemetry.MetricSnapshotsDropped, 1)
		}
	}
}
