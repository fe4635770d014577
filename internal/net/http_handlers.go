package net

import (
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/mjcole76/octochase"
	"github.com/mjcole76/octochase/internal/level"
	"github.com/mjcole76/octochase/internal/mode"
	"github.com/mjcole76/octochase/internal/net/ws"
	"github.com/mjcole76/octochase/internal/observability"
	"github.com/mjcole76/octochase/internal/sim"
	"github.com/mjcole76/octochase/internal/telemetry"
	"github.com/mjcole76/octochase/logging"
)

type HTTPHandlerConfig struct {
	Logger        telemetry.Logger
	Observability observability.Config
	// Metrics is reported by /diagnostics when set.
	Metrics  *logging.Metrics
	TickRate int
	// RequestLog enables chi's request logger.
	RequestLog bool
}

type createResponse struct {
	ID       string       `json:"id"`
	Snapshot sim.Snapshot `json:"snapshot"`
}

func NewHTTPHandler(hub *octochase.Hub, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.NopLogger()
	}
	tickRate := cfg.TickRate
	if tickRate <= 0 {
		tickRate = sim.DefaultLoopConfig().TickRate
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if cfg.RequestLog {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	r.Get("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		var counters map[string]uint64
		if cfg.Metrics != nil {
			counters = cfg.Metrics.Snapshot()
		}
		writeJSON(w, nethttp.StatusOK, struct {
			Status     string                         `json:"status"`
			ServerTime int64                          `json:"serverTime"`
			Sessions   []octochase.SessionDiagnostics `json:"sessions"`
			TickRate   int                            `json:"tickRate"`
			Telemetry  map[string]uint64              `json:"telemetry,omitempty"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			Sessions:   hub.DiagnosticsSnapshot(),
			TickRate:   tickRate,
			Telemetry:  counters,
		})
	})

	r.Get("/levels/{id}", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpError(w, "invalid level id", nethttp.StatusBadRequest)
			return
		}
		cfg, err := level.Lookup(id)
		if err != nil {
			httpError(w, err.Error(), nethttp.StatusNotFound)
			return
		}
		writeJSON(w, nethttp.StatusOK, cfg)
	})

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", func(w nethttp.ResponseWriter, r *nethttp.Request) {
			var req octochase.CreateRequest
			if r.Body != nil {
				defer r.Body.Close()
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
					httpError(w, "invalid payload", nethttp.StatusBadRequest)
					return
				}
			}
			session, err := hub.Create(req)
			switch {
			case err == nil:
			case errors.Is(err, mode.ErrUnknownMode), errors.Is(err, level.ErrInvalidLevel):
				httpError(w, err.Error(), nethttp.StatusBadRequest)
				return
			case errors.Is(err, octochase.ErrSessionLimit), errors.Is(err, octochase.ErrHubClosed):
				httpError(w, err.Error(), nethttp.StatusServiceUnavailable)
				return
			default:
				logger.Printf("failed to create session: %v", err)
				httpError(w, "failed to create session", nethttp.StatusInternalServerError)
				return
			}
			writeJSON(w, nethttp.StatusCreated, createResponse{ID: session.ID, Snapshot: session.Snapshot()})
		})

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", withSession(hub, func(w nethttp.ResponseWriter, r *nethttp.Request, s *octochase.Session) {
				writeJSON(w, nethttp.StatusOK, s.Snapshot())
			}))

			r.Get("/results", withSession(hub, func(w nethttp.ResponseWriter, r *nethttp.Request, s *octochase.Session) {
				results, ok := s.Results()
				if !ok {
					httpError(w, "results not ready", nethttp.StatusNotFound)
					return
				}
				writeJSON(w, nethttp.StatusOK, results)
			}))

			r.Post("/next", withSession(hub, func(w nethttp.ResponseWriter, r *nethttp.Request, s *octochase.Session) {
				if err := s.NextLevel(); err != nil {
					if errors.Is(err, sim.ErrLevelNotComplete) {
						httpError(w, err.Error(), nethttp.StatusConflict)
						return
					}
					logger.Printf("failed to advance session %s: %v", s.ID, err)
					httpError(w, "failed to advance level", nethttp.StatusInternalServerError)
					return
				}
				writeJSON(w, nethttp.StatusOK, s.Snapshot())
			}))

			r.Post("/restart", withSession(hub, func(w nethttp.ResponseWriter, r *nethttp.Request, s *octochase.Session) {
				if err := s.Restart(); err != nil {
					logger.Printf("failed to restart session %s: %v", s.ID, err)
					httpError(w, "failed to restart", nethttp.StatusInternalServerError)
					return
				}
				writeJSON(w, nethttp.StatusOK, s.Snapshot())
			}))

			r.Delete("/", func(w nethttp.ResponseWriter, r *nethttp.Request) {
				if err := hub.Close(chi.URLParam(r, "id"), "deleted"); err != nil {
					httpError(w, "unknown session", nethttp.StatusNotFound)
					return
				}
				w.WriteHeader(nethttp.StatusNoContent)
			})

			r.Get("/ws", ws.NewHandler(hub, ws.HandlerConfig{Logger: logger}).Handle)
		})
	})

	cfg.Observability.Mount(r)

	return r
}

func withSession(hub *octochase.Hub, fn func(nethttp.ResponseWriter, *nethttp.Request, *octochase.Session)) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		session, ok := hub.Session(chi.URLParam(r, "id"))
		if !ok {
			httpError(w, "unknown session", nethttp.StatusNotFound)
			return
		}
		fn(w, r, session)
	}
}

func writeJSON(w nethttp.ResponseWriter, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		httpError(w, "failed to encode", nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func httpError(w nethttp.ResponseWriter, msg string, code int) {
	data, _ := json.Marshal(struct {
		Error string `json:"error"`
	}{Error: msg})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(data)
}
