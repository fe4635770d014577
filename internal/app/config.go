package app

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/mjcole76/octochase/internal/observability"
	"github.com/mjcole76/octochase/internal/sim"
	"github.com/mjcole76/octochase/internal/telemetry"
	"github.com/mjcole76/octochase/logging"
)

const (
	defaultPort         = 8080
	defaultSessionLimit = 64
)

type Config struct {
	Logger        telemetry.Logger
	Port          int
	Loop          sim.LoopConfig
	SessionLimit  int
	Logging       logging.Config
	Observability observability.Config
	RequestLog    bool
}

// DefaultConfig returns the configuration used when no environment overrides
// are present.
func DefaultConfig() Config {
	return Config{
		Port:         defaultPort,
		Loop:         sim.DefaultLoopConfig(),
		SessionLimit: defaultSessionLimit,
		Logging:      logging.DefaultConfig(),
	}
}

// LoadConfig reads .env (when present) and the process environment on top of
// DefaultConfig. Invalid values are logged and ignored.
func LoadConfig(logger telemetry.Logger) Config {
	if logger == nil {
		logger = telemetry.NopLogger()
	}
	if err := godotenv.Load(); err != nil {
		logger.Printf("no .env file loaded: %v", err)
	}

	cfg := DefaultConfig()
	cfg.Logger = logger

	readInt(logger, "PORT", func(v int) bool {
		if v <= 0 || v > 65535 {
			return false
		}
		cfg.Port = v
		return true
	})
	readInt(logger, "TICK_RATE", func(v int) bool {
		if v <= 0 {
			return false
		}
		cfg.Loop.TickRate = v
		return true
	})
	readInt(logger, "CATCHUP_MAX_TICKS", func(v int) bool {
		if v < 1 {
			return false
		}
		cfg.Loop.CatchupMaxTicks = v
		return true
	})
	readInt(logger, "SESSION_LIMIT", func(v int) bool {
		if v <= 0 {
			return false
		}
		cfg.SessionLimit = v
		return true
	})
	readBool(logger, "LOW_PERFORMANCE", func(v bool) { cfg.Loop.LowPerformance = v })
	readBool(logger, "ENABLE_PPROF_TRACE", func(v bool) { cfg.Observability.EnablePprofTrace = v })
	readBool(logger, "REQUEST_LOG", func(v bool) { cfg.RequestLog = v })

	if raw, ok := os.LookupEnv("LOG_JSON_PATH"); ok {
		cfg.Logging.JSON.FilePath = strings.TrimSpace(raw)
	}
	if raw, ok := os.LookupEnv("LOG_SINKS"); ok && strings.TrimSpace(raw) != "" {
		cfg.Logging.EnabledSinks = logging.ParseSinks(raw)
	} else if cfg.Logging.JSON.FilePath != "" {
		cfg.Logging.EnabledSinks = []string{"console", "json"}
	}
	if raw, ok := os.LookupEnv("LOG_MIN_SEVERITY"); ok {
		if severity, err := logging.ParseSeverity(raw); err == nil {
			cfg.Logging.MinimumSeverity = severity
		} else {
			logger.Printf("invalid LOG_MIN_SEVERITY=%q: %v", raw, err)
		}
	}
	return cfg
}

func readInt(logger telemetry.Logger, key string, apply func(int) bool) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		logger.Printf("invalid %s=%q: %v", key, raw, err)
		return
	}
	if !apply(value) {
		logger.Printf("invalid %s=%q: out of range", key, raw)
	}
}

func readBool(logger telemetry.Logger, key string, apply func(bool)) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		logger.Printf("invalid %s=%q: %v", key, raw, err)
		return
	}
	apply(value)
}
