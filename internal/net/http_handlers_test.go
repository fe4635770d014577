package net

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjcole76/octochase"
	"github.com/mjcole76/octochase/internal/telemetry"
	"github.com/mjcole76/octochase/logging"
)

func newTestHandler(t *testing.T, limit int) (*octochase.Hub, http.Handler) {
	t.Helper()
	metrics := &logging.Metrics{}
	cfg := octochase.DefaultHubConfig()
	cfg.SessionLimit = limit
	cfg.Metrics = telemetry.WrapMetrics(metrics)
	hub := octochase.NewHub(cfg)
	t.Cleanup(func() { _ = hub.Shutdown(context.Background()) })
	return hub, NewHTTPHandler(hub, HTTPHandlerConfig{Metrics: metrics, TickRate: 60})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(method, path, reader))
	return resp
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	return payload.Error
}

func TestHealth(t *testing.T) {
	_, h := newTestHandler(t, 4)
	resp := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "ok", resp.Body.String())
}

func TestLevelsEndpoint(t *testing.T) {
	_, h := newTestHandler(t, 4)

	resp := do(t, h, http.MethodGet, "/levels/1", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var cfg struct {
		ID         int `json:"id"`
		Thresholds struct {
			Bronze float64 `json:"bronze"`
			Gold   float64 `json:"gold"`
		} `json:"thresholds"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &cfg))
	assert.Equal(t, 1, cfg.ID)
	assert.Less(t, cfg.Thresholds.Bronze, cfg.Thresholds.Gold)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/levels/abc", "").Code)
	resp = do(t, h, http.MethodGet, "/levels/-3", "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.NotEmpty(t, decodeError(t, resp))
}

func TestSessionLifecycle(t *testing.T) {
	hub, h := newTestHandler(t, 4)

	resp := do(t, h, http.MethodPost, "/sessions", `{"level":2,"mode":"time_attack","seed":"http"}`)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var created struct {
		ID       string `json:"id"`
		Snapshot struct {
			SessionID string `json:"sessionId"`
			Mode      string `json:"mode"`
			Level     struct {
				ID int `json:"id"`
			} `json:"level"`
		} `json:"snapshot"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, created.ID, created.Snapshot.SessionID)
	assert.Equal(t, "time_attack", created.Snapshot.Mode)
	assert.Equal(t, 2, created.Snapshot.Level.ID)

	_, ok := hub.Session(created.ID)
	require.True(t, ok)

	resp = do(t, h, http.MethodGet, "/sessions/"+created.ID, "")
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = do(t, h, http.MethodGet, "/sessions/"+created.ID+"/results", "")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = do(t, h, http.MethodPost, "/sessions/"+created.ID+"/next", "")
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = do(t, h, http.MethodPost, "/sessions/"+created.ID+"/restart", "")
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = do(t, h, http.MethodGet, "/diagnostics", "")
	require.Equal(t, http.StatusOK, resp.Code)
	var diag struct {
		Sessions  []octochase.SessionDiagnostics `json:"sessions"`
		TickRate  int                            `json:"tickRate"`
		Telemetry map[string]uint64              `json:"telemetry"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &diag))
	require.Len(t, diag.Sessions, 1)
	assert.Equal(t, created.ID, diag.Sessions[0].ID)
	assert.Equal(t, 60, diag.TickRate)
	assert.Equal(t, uint64(1), diag.Telemetry[telemetry.MetricSessionsTotal])

	resp = do(t, h, http.MethodDelete, "/sessions/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, resp.Code)
	_, ok = hub.Session(created.ID)
	assert.False(t, ok)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/sessions/"+created.ID, "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/sessions/"+created.ID, "").Code)
}

func TestCreateSessionDefaultsWithEmptyBody(t *testing.T) {
	_, h := newTestHandler(t, 4)
	resp := do(t, h, http.MethodPost, "/sessions", "")
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
}

func TestCreateSessionRejectsBadInput(t *testing.T) {
	_, h := newTestHandler(t, 4)
	for _, body := range []string{
		`{"mode":"arcade"}`,
		`{"level":-1}`,
		`{not json`,
	} {
		resp := do(t, h, http.MethodPost, "/sessions", body)
		assert.Equal(t, http.StatusBadRequest, resp.Code, body)
		assert.NotEmpty(t, decodeError(t, resp), body)
	}
}

func TestCreateSessionAtLimit(t *testing.T) {
	_, h := newTestHandler(t, 1)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/sessions", "{}").Code)
	resp := do(t, h, http.MethodPost, "/sessions", "{}")
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestPprofDisabledByDefault(t *testing.T) {
	_, h := newTestHandler(t, 1)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/debug/pprof/", "").Code)
}
