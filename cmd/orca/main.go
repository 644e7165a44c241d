package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"orca/internal/amqp"
	"orca/internal/api"
	"orca/internal/cache"
	"orca/internal/cli"
	"orca/internal/config"
	apphttp "orca/internal/http"
	"orca/internal/log"
	"orca/internal/middleware/ratelimit"
	"orca/internal/services"
	"orca/internal/state"
	"orca/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg)

	prefs := cli.InitPreferences(context.Background(), logger, cfg)

	tokens, err := tokenSource(cfg)
	if err != nil {
		logger.Error("Failed to configure API credentials", log.FieldError, err.Error())
		os.Exit(1)
	}
	client := api.New(api.Config{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.APITimeout,
		Tokens:  tokens,
	}, logger)

	// reg is assigned below; notify only runs once requests are served.
	var reg *state.Registry
	var broker *amqp.Client
	notify := func(ctx context.Context, change state.Change) {
		reg.InvalidateBudget(change.BudgetID, api.SessionFromContext(ctx))
		if broker != nil {
			broker.Notifier()(ctx, change)
		}
	}
	reg = state.NewRegistry(state.Deps{
		API:    client,
		Prefs:  prefs.Prefs,
		Logger: logger,
		Notify: notify,
	}, cfg.SessionMax, cfg.SessionTTL)

	caches := cache.NewManager(logger)
	caches.Register(reg.Cache())
	caches.StartCleanup(5 * time.Minute)

	if cfg.AMQPURL != "" {
		broker, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, instanceOrigin(), logger)
		if err != nil {
			// Cross-instance invalidation is optional; keep serving without it.
			logger.Warn("AMQP unavailable, change notifications disabled", log.FieldError, err.Error())
			broker = nil
		} else {
			logger.Info("AMQP change notifications enabled",
				"exchange", cfg.AMQPExchange,
				"origin", broker.Origin())
		}
	}

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:           ":" + cfg.Port,
		AllowedOrigins: cfg.AllowedOrigins,
		CookieSecure:   cfg.CookieSecure,
		RateLimit: ratelimit.Config{
			RequestsPerSecond: cfg.RateLimitRPS,
			Burst:             cfg.RateLimitBurst,
		},
	}, apphttp.Deps{
		Registry:  reg,
		Dashboard: services.NewDashboardService(logger),
		Export:    services.NewExportService(logger),
		Chart:     services.NewChartService(logger),
		API:       client,
		Prefs:     prefs.Prefs,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", log.FieldError, err.Error())
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	if broker != nil {
		go func() {
			if err := broker.Consume(ctx, amqp.InvalidateHandler(reg, logger)); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Change consumer stopped", log.FieldError, err.Error())
			}
		}()
	}

	if pruner, ok := prefs.Prefs.(worker.Pruner); ok {
		w := worker.NewMaintenanceWorker(pruner, worker.Config{
			Interval:  cfg.MaintenanceInterval,
			Retention: cfg.PrefsRetention,
		}, logger)
		go w.Run(ctx)
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server",
			"addr", srv.Addr,
			"env", cfg.Env,
			"api", cfg.APIBaseURL,
			log.FieldBackend, cfg.PrefsBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	exitCode := 0
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-serveErr:
		logger.Error("Server failed", log.FieldError, err.Error())
		exitCode = 1
	}
	stop()

	steps := []cli.Step{
		{Name: "http", Run: srv.Shutdown},
		{Name: "cache", Run: func(context.Context) error { caches.Stop(); return nil }},
	}
	if broker != nil {
		steps = append(steps, cli.Step{Name: "amqp", Run: func(context.Context) error { return broker.Close() }})
	}
	steps = append(steps, cli.Step{Name: "preferences", Run: func(context.Context) error { return prefs.Cleanup() }})

	if cli.Shutdown(logger, 30*time.Second, steps...) > 0 && exitCode == 0 {
		exitCode = 1
	}
	os.Exit(exitCode)
}

// tokenSource signs short-lived service tokens when a JWT secret is set and
// falls back to the static bearer token otherwise.
func tokenSource(cfg *config.Config) (api.TokenSource, error) {
	if cfg.APIJWTSecret != "" {
		src, err := api.NewJWTSource(cfg.APIJWTSecret)
		if err != nil {
			return nil, fmt.Errorf("jwt token source: %w", err)
		}
		return src, nil
	}
	return api.StaticToken(cfg.APIToken), nil
}

func instanceOrigin() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "orca"
	}
	return host + "-" + uuid.NewString()
}
