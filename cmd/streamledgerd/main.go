package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"streamledger/config"
	"streamledger/core/events"
	"streamledger/core/ledger"
	"streamledger/native/points"
	"streamledger/observability"
	"streamledger/observability/logging"
	telemetry "streamledger/observability/otel"
	"streamledger/rpc"
	"streamledger/storage"
)

const serviceName = "streamledgerd"

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load config", "path", *configFile, "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(serviceName, cfg.Environment, logging.FileOptions{Path: cfg.LogFile})

	if err := run(cfg, logger); err != nil {
		logger.Error("streamledgerd exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     telemetry.ParseHeaders(cfg.Telemetry.Headers),
		Metrics:     cfg.Telemetry.Metrics,
		Traces:      cfg.Telemetry.Traces,
		SampleRatio: cfg.Telemetry.SampleRatio,

		PlatformFeePercent: cfg.Ledger.PlatformFeePercent,
		PausedModules:      cfg.Ledger.PausedModules,
		DataDir:            cfg.DataDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	accounts, err := cfg.Ledger.Accounts()
	if err != nil {
		return err
	}

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "ledger"))
	if err != nil {
		return err
	}
	defer db.Close()

	feed := events.NewFeed(cfg.FeedBuffer)
	feed.SetDropHook(observability.Events().RecordDropped)

	l, err := ledger.New(db, ledger.Options{
		Admin:              accounts.Admin,
		PlatformAccount:    accounts.PlatformAccount,
		RewardsPool:        accounts.RewardsPool,
		PlatformFeePercent: &cfg.Ledger.PlatformFeePercent,
		PointParams: points.Params{
			PointRate:     cfg.Ledger.EngagementPointRate,
			PointsPerUnit: cfg.Ledger.PointsPerUnit,
		},
		BonusMultiplier: &cfg.Ledger.SubscriptionBonusMultiplier,
		PausedModules:   cfg.Ledger.PausedModules,
		Identity:        ledger.ContextIdentity{},
		Clock:           ledger.SystemClock{},
		Emitter:         feed,
		Logger:          logger,
		Metrics:         observability.Ledger(),
	})
	if err != nil {
		return err
	}

	server, err := rpc.NewServer(rpc.Config{
		Ledger: l,
		Feed:   feed,
		Auth: rpc.AuthConfig{
			HMACSecret: cfg.Auth.HMACSecret,
			Issuer:     cfg.Auth.Issuer,
			Audience:   cfg.Auth.Audience,
		},
		RateLimit: rpc.RateLimit{
			RequestsPerMinute: float64(cfg.RateLimit.RequestsPerMinute),
			Burst:             int(cfg.RateLimit.Burst),
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}

	if cfg.MetricsAddress != "" {
		metricsSrv := &http.Server{
			Addr:              cfg.MetricsAddress,
			Handler:           promhttp.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("serving metrics", "addr", cfg.MetricsAddress)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsSrv.Shutdown(shutdownCtx)
		}()
	}

	logger.Info("streamledger started",
		"listen", cfg.ListenAddress,
		"data_dir", cfg.DataDir,
		"paused_modules", cfg.Ledger.PausedModules)
	return server.Start(ctx, cfg.ListenAddress)
}
