package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"jungle/config"
	"jungle/core"
	"jungle/core/events"
	"jungle/gateway/middleware"
	"jungle/gateway/routes"
	"jungle/observability"
	"jungle/observability/logging"
	"jungle/observability/metrics"
	telemetry "jungle/observability/otel"
	"jungle/storage"
	"jungle/storage/eventlog"
)

const serviceName = "jungled"

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./config.toml", "path to the node configuration")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(serviceName, cfg.Environment, logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.ResolvePath(cfg.Log.File),
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})

	logger.Info("config loaded",
		"path", cfgPath,
		"listen", cfg.ListenAddress,
		"data_dir", cfg.DataDir,
		"auth", cfg.Auth.Enabled,
		logging.MaskField("auth_secret", cfg.Auth.HMACSecret),
		logging.MaskField("eventlog_dsn", cfg.EventLog.DSN),
		logging.MaskField("otlp_headers", cfg.Telemetry.Headers))

	if err := run(cfg, logger); err != nil {
		logger.Error("jungled stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Traces || cfg.Telemetry.Metrics {
		shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
			ServiceName: serviceName,
			Environment: cfg.Environment,
			Endpoint:    cfg.Telemetry.Endpoint,
			Insecure:    cfg.Telemetry.Insecure,
			Headers:     telemetry.ParseHeaders(cfg.Telemetry.Headers),
			Metrics:     cfg.Telemetry.Metrics,
			Traces:      cfg.Telemetry.Traces,
			SampleRatio: cfg.Telemetry.SampleRatio,
		})
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownTelemetry(shutdownCtx)
		}()
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	node, err := core.NewNode(db)
	if err != nil {
		return err
	}
	node.SetLogger(logger)
	node.SetMetrics(metrics.Ledger())

	stream := events.NewHub(cfg.EventLog.StreamHistory)
	emitters := events.Fanout{observability.Events(), stream}
	var store *eventlog.Store
	if cfg.EventLog.Driver != config.EventLogDisabled {
		dsn := cfg.EventLog.DSN
		if cfg.EventLog.Driver == config.EventLogSQLite {
			dsn = cfg.ResolvePath(dsn)
		}
		store, err = eventlog.Open(cfg.EventLog.Driver, dsn)
		if err != nil {
			return err
		}
		defer store.Close()
		store.SetLogger(logger)
		emitters = append(emitters, store)
	}
	node.SetEmitter(emitters)

	if err := bootstrap(node, cfg.Bootstrap, logger); err != nil {
		return err
	}

	authCfg := middleware.AuthConfig{
		Enabled:  cfg.Auth.Enabled,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
	}
	if cfg.Auth.Enabled {
		if authCfg.HMACSecret, err = cfg.Auth.Secret(); err != nil {
			return err
		}
	} else {
		logger.Warn("authentication disabled; callers are taken from the " + middleware.CallerHeader + " header")
	}
	limiter := middleware.NewRateLimiter(middleware.RateLimit{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
	})
	go sweepLimiter(ctx, limiter)

	api := routes.New(routes.Config{
		Node:          node,
		EventLog:      store,
		Stream:        stream,
		Logger:        logger,
		Authenticator: middleware.NewAuthenticator(authCfg, logger),
		RateLimiter:   limiter,
		Observability: middleware.NewObservability(serviceName, logger),
		AllowMint:     cfg.AllowMint,
	})
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", otelhttp.NewHandler(api, serviceName))

	server := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	listener, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		return err
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "address", listener.Addr().String(), "database", cfg.Database)
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", "error", err)
	}
	return nil
}

func openDatabase(cfg *config.Config) (storage.Database, error) {
	if cfg.Database == config.DatabaseMemory {
		return storage.NewMemDB(), nil
	}
	return storage.NewLevelDB(cfg.ResolvePath("state"))
}

func sweepLimiter(ctx context.Context, limiter *middleware.RateLimiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Sweep(5 * time.Minute)
		}
	}
}
