package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/nzcvm/nzcvm-webapp/internal/auth"
	"github.com/nzcvm/nzcvm-webapp/internal/catalog"
	"github.com/nzcvm/nzcvm-webapp/internal/config"
	"github.com/nzcvm/nzcvm-webapp/internal/engine"
	"github.com/nzcvm/nzcvm-webapp/internal/generator"
	"github.com/nzcvm/nzcvm-webapp/internal/logging"
	mw "github.com/nzcvm/nzcvm-webapp/internal/middleware"
	"github.com/nzcvm/nzcvm-webapp/internal/observability"
	"github.com/nzcvm/nzcvm-webapp/internal/runlog"
	"github.com/nzcvm/nzcvm-webapp/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logging.SetRoot(log)

	ctx, cancel := context.WithCancel(logging.Context(context.Background(), log))
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		log.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logging.From(ctx)

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.TracingEnabled,
		ServiceName: "nzcvm-webapp",
		Exporter:    cfg.TracingExporter,
		Endpoint:    cfg.OTLPEndpoint,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing)

	metrics, err := observability.NewCollector(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	store, err := openRunlog(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	authService := auth.NewService(cfg.JWTSecret)
	if !authService.Enabled() {
		log.Warn("JWT_SECRET not set; run endpoint is open")
	}

	cat := catalog.New(cfg.ModelVersionsDir, cfg.GeoJSONDir)
	go func() {
		if err := cat.Watch(ctx, 250*time.Millisecond); err != nil {
			log.Warn("catalog watch disabled; listings refresh on restart only", zap.Error(err))
		}
	}()

	hub := session.NewHub(log.Named("session"), metrics,
		engine.WithLimits(cfg.Limits()),
		engine.WithRuntimeModel(cfg.RuntimeModel()),
	)
	go hub.Run(ctx)

	runner := generator.CommandRunner{Path: cfg.GeneratorPath, OutputFormat: cfg.GeneratorOutputFormat}
	generatorHandler := generator.NewHandler(runner, generator.Options{
		Runtime:           cfg.RuntimeModel(),
		MaxRuntimeSeconds: cfg.MaxRuntimeSeconds,
		Timeout:           cfg.GeneratorTimeout,
		MaxRequestBytes:   cfg.MaxRequestBytes,
		Store:             store,
		Metrics:           metrics,
	})

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))
	r.Use(mw.Metrics(metrics))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	catalog.NewHandler(cat).InitRoutes(r)
	runlog.NewHandler(store).InitRoutes(r)
	session.NewHandler(hub, cfg.Origins()).InitRoutes(r)

	// Generation is guarded when a secret is configured.
	protected := r.NewRoute().Subrouter()
	protected.Use(authService.AuthMiddleware)
	generatorHandler.InitRoutes(protected)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		// Generation can run up to the generator timeout before the archive streams.
		WriteTimeout: cfg.GeneratorTimeout + time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		log.Info("shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("server starting",
		zap.String("addr", addr),
		zap.String("modelVersionsDir", cfg.ModelVersionsDir),
		zap.String("geojsonDir", cfg.GeoJSONDir),
		zap.Float64("maxRuntimeSeconds", cfg.MaxRuntimeSeconds),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func openRunlog(ctx context.Context, cfg *config.Config) (runlog.Store, error) {
	if cfg.DatabaseURL != "" {
		store, err := runlog.NewPGStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		logging.From(ctx).Info("run log in postgres")
		return store, nil
	}
	store, err := runlog.NewBoltStore(cfg.RunlogPath)
	if err != nil {
		return nil, err
	}
	logging.From(ctx).Info("run log in bolt", zap.String("path", cfg.RunlogPath))
	return store, nil
}
