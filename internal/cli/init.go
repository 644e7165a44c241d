// Package cli gathers the start-up and shutdown steps of cmd/orca.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"orca/internal/backend"
	"orca/internal/config"
	"orca/internal/log"
)

// SetupLogger builds the process logger from the environment settings and
// installs it as the slog default.
func SetupLogger(cfg *config.Config) *log.Logger {
	logger := log.New(log.ConfigFor(cfg.Env, cfg.LogLevel))
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig() *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.New(log.DefaultConfig()).Error("Configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}
	return cfg
}

// InitPreferences builds the configured preference store.
// Returns the backend or exits the process on failure.
func InitPreferences(ctx context.Context, logger *log.Logger, cfg *config.Config) *backend.BackendResult {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid preferences configuration", log.FieldError, err.Error())
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize preferences",
			log.FieldBackend, cfg.PrefsBackend,
			log.FieldError, err.Error())
		os.Exit(1)
	}
	return result
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// Step is one named action of an orderly shutdown.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Shutdown runs steps in order under a shared deadline. A failing step is
// logged and does not stop the ones after it. It returns how many failed.
func Shutdown(logger *log.Logger, timeout time.Duration, steps ...Step) int {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	failed := 0
	for _, step := range steps {
		if err := step.Run(ctx); err != nil {
			failed++
			logger.Error("Shutdown step failed",
				log.FieldOperation, log.OpShutdown,
				"step", step.Name,
				log.FieldError, err.Error())
		}
	}
	if ctx.Err() != nil {
		logger.Warn("Shutdown timeout reached", "timeout", timeout.String())
	} else {
		logger.Info("Shutdown complete", "failed_steps", failed)
	}
	return failed
}
