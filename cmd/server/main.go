package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpAdapter "github.com/duskcircle/nightwatch/internal/adapter/http"
	"github.com/duskcircle/nightwatch/internal/adapter/eventbus"
	"github.com/duskcircle/nightwatch/internal/adapter/eventlog"
	"github.com/duskcircle/nightwatch/internal/adapter/identity"
	"github.com/duskcircle/nightwatch/internal/adapter/store"
	"github.com/duskcircle/nightwatch/internal/adapter/ws"
	"github.com/duskcircle/nightwatch/internal/domain/service"
	"github.com/duskcircle/nightwatch/internal/pkg/audit"
	"github.com/duskcircle/nightwatch/internal/pkg/config"
	"github.com/duskcircle/nightwatch/internal/pkg/logger"
	"github.com/duskcircle/nightwatch/internal/pkg/metrics"
	"github.com/duskcircle/nightwatch/internal/pkg/telemetry"
)

// continuityTokenTTL is how long a reconnect token remains valid, matching
// how long a session the token names can plausibly still be live for.
const continuityTokenTTL = 6 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.IsDev())

	log.Info("starting server",
		"port", cfg.Port,
		"env", cfg.Env,
		"staticDir", cfg.StaticDir,
	)

	registry := service.NewRegistry(log)
	roleAssigner := service.NewRoleAssigner(cfg.DeterministicRoles)
	phaseMachine := service.NewPhaseMachine(roleAssigner)
	winEvaluator := service.NewWinEvaluator()
	nightResolver := service.NewNightResolver(winEvaluator)
	voteTally := service.NewVoteTally(winEvaluator)
	lifecycle := service.NewSessionLifecycle()
	dispatcher := service.NewDispatcher(phaseMachine, nightResolver, voteTally, lifecycle)

	pipeline := buildTelemetryPipeline(cfg, log)
	if pipeline.Metrics != nil {
		registry.SetSizeChangeHandler(pipeline.Metrics.SetActiveSessions)
	}

	issuer := identity.NewIssuer(cfg.JWTSigningKey, continuityTokenTTL)

	hub := ws.NewHub(log)
	go hub.Run()

	router := ws.NewRouter(hub, registry, dispatcher, lifecycle, pipeline, issuer, log)
	wsHandler := ws.NewHandler(hub, log, router.HandleMessage, router.HandleDisconnect)

	server := httpAdapter.NewServer(log, cfg.StaticDir, registry, dispatcher, lifecycle, pipeline, issuer)
	server.Mount("/ws", wsHandler)

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      server,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var metricsServer *http.Server
	if pipeline.Metrics != nil {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr(),
			Handler: pipeline.Metrics.Handler(),
		}
		go func() {
			log.Info("metrics listening", "addr", cfg.MetricsAddr())
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server error", "error", err)
			}
		}()
	}

	go func() {
		log.Info("server listening", "addr", cfg.Addr())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	if metricsServer != nil {
		metricsServer.Shutdown(ctx)
	}
	if pipeline.Store != nil {
		pipeline.Store.Close()
	}
	if pipeline.Bus != nil {
		pipeline.Bus.Close()
	}
	if pipeline.Log != nil {
		pipeline.Log.Close()
	}
	if pipeline.Audit != nil {
		pipeline.Audit.Sync()
	}

	log.Info("server stopped")
}

// buildTelemetryPipeline wires every ambient adapter best-effort: a service
// that isn't reachable at startup is logged and left nil, and the pipeline
// simply skips that side effect on every command rather than refusing to
// start the game server over it.
func buildTelemetryPipeline(cfg *config.Config, log *slog.Logger) *telemetry.Pipeline {
	m := metrics.New()

	auditTrail, err := audit.New(cfg.IsDev())
	if err != nil {
		log.Warn("audit trail unavailable", "error", err)
		auditTrail = nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	st, err := store.New(ctx, cfg.StoreDSN, cfg.RedisAddr)
	if err != nil {
		log.Warn("persistent store unavailable, running in-memory only", "error", err)
		st = nil
	}

	bus, err := eventbus.New(cfg.RabbitMQURL)
	if err != nil {
		log.Warn("event bus unavailable, cross-instance fan-out disabled", "error", err)
		bus = nil
	}

	evLog := eventlog.New(cfg.KafkaBrokers)

	return telemetry.NewPipeline(m, auditTrail, st, bus, evLog, log)
}
