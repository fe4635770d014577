package octochase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjcole76/octochase/internal/level"
	"github.com/mjcole76/octochase/internal/mode"
	"github.com/mjcole76/octochase/internal/net/proto"
	"github.com/mjcole76/octochase/internal/sim"
	"github.com/mjcole76/octochase/internal/telemetry"
	"github.com/mjcole76/octochase/logging"
	lifecyclelog "github.com/mjcole76/octochase/logging/lifecycle"
	"github.com/mjcole76/octochase/logging/sinks"
)

type recordingSubscriberConn struct {
	mu        sync.Mutex
	deadlines []time.Time
	frames    [][]byte
	failWrite bool
	closed    bool
}

func (c *recordingSubscriberConn) WriteFrame(data []byte, deadline time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deadlines = append(c.deadlines, deadline)
	if c.failWrite {
		return errors.New("broken pipe")
	}
	c.frames = append(c.frames, append([]byte(nil), data...))
	return nil
}

func (c *recordingSubscriberConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *recordingSubscriberConn) writes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func (c *recordingSubscriberConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *recordingSubscriberConn) frameTypes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	types := make([]string, 0, len(c.frames))
	for _, frame := range c.frames {
		var header struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(frame, &header); err == nil {
			types = append(types, header.Type)
		}
	}
	return types
}

// stalledSubscriberConn blocks every write until it is closed.
type stalledSubscriberConn struct {
	once    sync.Once
	release chan struct{}
	entered chan struct{}
}

func newStalledSubscriberConn() *stalledSubscriberConn {
	return &stalledSubscriberConn{release: make(chan struct{}), entered: make(chan struct{}, 1)}
}

func (c *stalledSubscriberConn) WriteFrame([]byte, time.Time) error {
	select {
	case c.entered <- struct{}{}:
	default:
	}
	<-c.release
	return errors.New("closed")
}

func (c *stalledSubscriberConn) Close() error {
	c.once.Do(func() { close(c.release) })
	return nil
}

type hubFixture struct {
	hub     *Hub
	metrics *logging.Metrics
	sink    *sinks.MemorySink
}

func newHubFixture(t *testing.T, limit int) *hubFixture {
	t.Helper()
	metrics := &logging.Metrics{}
	sink := sinks.NewMemorySink()
	cfg := DefaultHubConfig()
	cfg.SessionLimit = limit
	cfg.Metrics = telemetry.WrapMetrics(metrics)
	cfg.Publisher = logging.PublisherFunc(func(_ context.Context, e logging.Event) { _ = sink.Write(e) })
	hub := NewHub(cfg)
	t.Cleanup(func() { _ = hub.Shutdown(context.Background()) })
	return &hubFixture{hub: hub, metrics: metrics, sink: sink}
}

func TestHubCreateLookupClose(t *testing.T) {
	f := newHubFixture(t, 4)

	session, err := f.hub.Create(CreateRequest{Level: 2, Mode: "survival", Seed: "hub"})
	require.NoError(t, err)
	assert.Len(t, session.ID, 36)
	assert.Equal(t, mode.Survival, session.Mode)
	assert.Equal(t, 2, session.Level)

	found, ok := f.hub.Session(session.ID)
	require.True(t, ok)
	assert.Same(t, session, found)
	assert.Equal(t, session.ID, session.Snapshot().SessionID)

	counters := f.metrics.Snapshot()
	assert.Equal(t, uint64(1), counters[telemetry.MetricSessionsTotal])
	assert.Equal(t, uint64(1), counters[telemetry.MetricSessionsActive])

	require.NoError(t, f.hub.Close(session.ID, "test"))
	_, ok = f.hub.Session(session.ID)
	assert.False(t, ok)
	assert.Equal(t, uint64(0), f.metrics.Snapshot()[telemetry.MetricSessionsActive])
	select {
	case <-session.Done():
	default:
		t.Fatalf("expected session loop to have exited")
	}

	closed := f.sink.OfType(lifecyclelog.EventSessionClosed)
	require.Len(t, closed, 1)
	assert.Equal(t, session.ID, closed[0].Actor.ID)

	assert.ErrorIs(t, f.hub.Close(session.ID, "again"), ErrUnknownSession)
}

func TestHubCreateRejectsInvalidRequests(t *testing.T) {
	f := newHubFixture(t, 4)

	_, err := f.hub.Create(CreateRequest{Mode: "arcade"})
	assert.ErrorIs(t, err, mode.ErrUnknownMode)

	_, err = f.hub.Create(CreateRequest{Level: -4})
	assert.ErrorIs(t, err, level.ErrInvalidLevel)

	assert.Empty(t, f.hub.DiagnosticsSnapshot())
}

func TestHubEnforcesSessionLimit(t *testing.T) {
	f := newHubFixture(t, 2)
	for i := 0; i < 2; i++ {
		_, err := f.hub.Create(CreateRequest{})
		require.NoError(t, err)
	}
	_, err := f.hub.Create(CreateRequest{})
	assert.ErrorIs(t, err, ErrSessionLimit)
	assert.Len(t, f.hub.DiagnosticsSnapshot(), 2)
}

func TestSessionStreamsStateWithDeadlines(t *testing.T) {
	f := newHubFixture(t, 4)
	session, err := f.hub.Create(CreateRequest{})
	require.NoError(t, err)

	conn := &recordingSubscriberConn{}
	before := time.Now()
	unsubscribe := session.Subscribe(conn)

	require.Eventually(t, func() bool { return conn.writes() >= 3 }, 2*time.Second, 5*time.Millisecond)
	for _, frameType := range conn.frameTypes() {
		assert.Equal(t, proto.TypeState, frameType)
	}
	conn.mu.Lock()
	firstDeadline := conn.deadlines[0]
	conn.mu.Unlock()
	assert.False(t, firstDeadline.Before(before.Add(writeWait)))
	assert.Positive(t, f.metrics.Snapshot()[telemetry.MetricSnapshotsSent])

	unsubscribe()
	assert.True(t, conn.isClosed())
	written := conn.writes()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, written, conn.writes())
}

func TestSessionDropsFailingSubscriber(t *testing.T) {
	f := newHubFixture(t, 4)
	session, err := f.hub.Create(CreateRequest{})
	require.NoError(t, err)

	conn := &recordingSubscriberConn{failWrite: true}
	session.Subscribe(conn)

	require.Eventually(t, conn.isClosed, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, uint64(1), f.metrics.Snapshot()[telemetry.MetricSnapshotErrors])
	diags := f.hub.DiagnosticsSnapshot()
	require.Len(t, diags, 1)
	assert.Zero(t, diags[0].Subscribers)
}

func TestSessionStalledSubscriberDoesNotBlockOthers(t *testing.T) {
	f := newHubFixture(t, 4)
	session, err := f.hub.Create(CreateRequest{})
	require.NoError(t, err)

	stalled := newStalledSubscriberConn()
	unsubscribe := session.Subscribe(stalled)
	select {
	case <-stalled.entered:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected the stalled subscriber to receive a frame")
	}

	healthy := &recordingSubscriberConn{}
	session.Subscribe(healthy)

	start := session.Snapshot().Tick
	require.Eventually(t, func() bool {
		return session.Snapshot().Tick > start+subscriberQueue+2 && healthy.writes() >= subscriberQueue+2
	}, 3*time.Second, 5*time.Millisecond)
	assert.Positive(t, f.metrics.Snapshot()[telemetry.MetricSnapshotsDropped])
	assert.Zero(t, f.metrics.Snapshot()[telemetry.MetricSnapshotErrors])

	unsubscribe()
	assert.Zero(t, f.metrics.Snapshot()[telemetry.MetricSnapshotErrors])
	diags := f.hub.DiagnosticsSnapshot()
	require.Len(t, diags, 1)
	assert.Equal(t, 1, diags[0].Subscribers)
}

func TestSessionHeartbeatTracksRTT(t *testing.T) {
	f := newHubFixture(t, 4)
	session, err := f.hub.Create(CreateRequest{})
	require.NoError(t, err)

	received := time.UnixMilli(10_000)
	rtt := session.Heartbeat(received, 9_960)
	assert.Equal(t, 40*time.Millisecond, rtt)

	// A client clock far in the future keeps the previous sample.
	rtt = session.Heartbeat(received, 20_000)
	assert.Equal(t, 40*time.Millisecond, rtt)

	diags := f.hub.DiagnosticsSnapshot()
	require.Len(t, diags, 1)
	assert.Equal(t, int64(40), diags[0].RTTMillis)
	assert.Equal(t, int64(10_000), diags[0].LastHeartbeat)
}

func TestSessionEnqueueMovesAvatar(t *testing.T) {
	f := newHubFixture(t, 4)
	session, err := f.hub.Create(CreateRequest{Seed: "move"})
	require.NoError(t, err)
	start := session.Snapshot().Avatar.Position

	require.True(t, session.Enqueue(sim.Command{Type: sim.CommandMove, Move: &sim.MoveCommand{DX: 1}}))
	require.Eventually(t, func() bool {
		return session.Snapshot().Avatar.Position.X > start.X
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSessionDeliversResults(t *testing.T) {
	f := newHubFixture(t, 4)
	session, err := f.hub.Create(CreateRequest{})
	require.NoError(t, err)
	conn := &recordingSubscriberConn{}
	session.Subscribe(conn)

	session.stageResults(sim.Results{SessionID: session.ID, Score: 12, Completed: true})
	session.afterStep(sim.LoopStepResult{})

	select {
	case results := <-f.hub.Results():
		assert.Equal(t, session.ID, results.SessionID)
		assert.Equal(t, 12.0, results.Score)
	case <-time.After(time.Second):
		t.Fatalf("expected results on the hub channel")
	}
	require.Eventually(t, func() bool {
		for _, frameType := range conn.frameTypes() {
			if frameType == proto.TypeResults {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

func TestSessionRestartAndNextLevel(t *testing.T) {
	f := newHubFixture(t, 4)
	session, err := f.hub.Create(CreateRequest{Seed: "restart"})
	require.NoError(t, err)

	assert.ErrorIs(t, session.NextLevel(), sim.ErrLevelNotComplete)
	require.NoError(t, session.Restart())
	assert.Equal(t, 1, session.Snapshot().Level.ID)
}

func TestHubShutdownClosesSessions(t *testing.T) {
	f := newHubFixture(t, 4)
	first, err := f.hub.Create(CreateRequest{})
	require.NoError(t, err)
	conn := &recordingSubscriberConn{}
	first.Subscribe(conn)
	_, err = f.hub.Create(CreateRequest{})
	require.NoError(t, err)

	require.NoError(t, f.hub.Shutdown(context.Background()))
	assert.Empty(t, f.hub.DiagnosticsSnapshot())
	assert.True(t, conn.isClosed())

	_, err = f.hub.Create(CreateRequest{})
	assert.ErrorIs(t, err, ErrHubClosed)
}
