package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	stdnet "net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/mjcole76/octochase"
	servernet "github.com/mjcole76/octochase/internal/net"
	"github.com/mjcole76/octochase/internal/telemetry"
	"github.com/mjcole76/octochase/logging"
	loggingSinks "github.com/mjcole76/octochase/logging/sinks"
)

const shutdownTimeout = 5 * time.Second

// Run serves the session API until ctx is cancelled, then drains the server,
// the hub and the logging router in that order.
func Run(ctx context.Context, cfg Config) error {
	return run(ctx, cfg, nil)
}

func run(ctx context.Context, cfg Config, listener stdnet.Listener) error {
	telemetryLogger := cfg.Logger
	if telemetryLogger == nil {
		telemetryLogger = telemetry.WrapLogger(log.Default())
	}

	fallbackLogger := log.Default()
	if provider, ok := telemetryLogger.(interface{ StandardLogger() *log.Logger }); ok {
		if candidate := provider.StandardLogger(); candidate != nil {
			fallbackLogger = candidate
		}
	}

	logConfig := cfg.Logging
	if len(logConfig.EnabledSinks) == 0 {
		logConfig = logging.DefaultConfig()
	}
	namedSinks, closeFiles, err := buildSinks(logConfig)
	if err != nil {
		return err
	}
	defer closeFiles()

	metrics := &logging.Metrics{}
	router, err := logging.NewRouter(
		logging.SystemClock{},
		logConfig,
		namedSinks,
		logging.WithFallbackLogger(fallbackLogger),
		logging.WithMetrics(metrics),
	)
	if err != nil {
		return fmt.Errorf("failed to construct logging router: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			telemetryLogger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	hubCfg := octochase.DefaultHubConfig()
	hubCfg.Loop = cfg.Loop
	hubCfg.SessionLimit = cfg.SessionLimit
	hubCfg.Publisher = router
	hubCfg.Logger = telemetryLogger
	hubCfg.Metrics = telemetry.WrapMetrics(metrics)
	hub := octochase.NewHub(hubCfg)

	resultsDone := make(chan struct{})
	resultsCtx, stopResults := context.WithCancel(context.Background())
	go func() {
		defer close(resultsDone)
		logResults(resultsCtx, hub, telemetryLogger)
	}()

	handler := servernet.NewHTTPHandler(hub, servernet.HTTPHandlerConfig{
		Logger:        telemetryLogger,
		Observability: cfg.Observability,
		Metrics:       metrics,
		TickRate:      cfg.Loop.TickRate,
		RequestLog:    cfg.RequestLog,
	})

	port := cfg.Port
	if port <= 0 {
		port = defaultPort
	}
	srv := &http.Server{Addr: ":" + strconv.Itoa(port), Handler: handler}

	serveErr := make(chan error, 1)
	go func() {
		if listener != nil {
			telemetryLogger.Printf("server listening on %s", listener.Addr())
			serveErr <- srv.Serve(listener)
			return
		}
		telemetryLogger.Printf("server listening on %s", srv.Addr)
		serveErr <- srv.ListenAndServe()
	}()

	var runErr error
	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			telemetryLogger.Printf("http shutdown: %v", err)
		}
		cancel()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	if err := hub.Shutdown(shutdownCtx); err != nil {
		telemetryLogger.Printf("hub shutdown: %v", err)
	}
	cancel()
	stopResults()
	<-resultsDone
	return runErr
}

func buildSinks(cfg logging.Config) ([]logging.NamedSink, func(), error) {
	var named []logging.NamedSink
	var files []*os.File
	closeFiles := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}

	if cfg.HasSink("console") {
		named = append(named, logging.NamedSink{Name: "console", Sink: loggingSinks.NewConsoleSink(os.Stdout)})
	}
	if cfg.HasSink("json") {
		if cfg.JSON.FilePath == "" {
			closeFiles()
			return nil, nil, errors.New("json log sink enabled without LOG_JSON_PATH")
		}
		f, err := os.OpenFile(cfg.JSON.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			closeFiles()
			return nil, nil, fmt.Errorf("open json log: %w", err)
		}
		files = append(files, f)
		named = append(named, logging.NamedSink{Name: "json", Sink: loggingSinks.NewJSON(f, cfg.JSON.FlushInterval)})
	}
	return named, closeFiles, nil
}

// logResults reports finished runs until ctx is cancelled.
func logResults(ctx context.Context, hub *octochase.Hub, logger telemetry.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case r := <-hub.Results():
			logger.Printf("[results] session=%s mode=%s level=%d score=%.0f medal=%s completed=%t game_over=%t",
				r.SessionID, r.Mode, r.Level, r.Score, r.Medal, r.Completed, r.GameOver)
		}
	}
}
