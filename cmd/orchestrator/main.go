package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/truthnetstack/truthnet-orchestrator/internal/api"
	"github.com/truthnetstack/truthnet-orchestrator/internal/cache"
	"github.com/truthnetstack/truthnet-orchestrator/internal/config"
	"github.com/truthnetstack/truthnet-orchestrator/internal/engine"
	"github.com/truthnetstack/truthnet-orchestrator/internal/media"
	"github.com/truthnetstack/truthnet-orchestrator/internal/metrics"
	"github.com/truthnetstack/truthnet-orchestrator/internal/repo"
	"github.com/truthnetstack/truthnet-orchestrator/internal/services"
	"github.com/truthnetstack/truthnet-orchestrator/internal/utils"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting truthnet-orchestrator", slog.String("address", cfg.Server.Address))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	weights, err := cfg.AgentWeights()
	if err != nil {
		logger.Error("invalid agent weights", slog.Any("error", err))
		os.Exit(1)
	}

	var cacheProvider cache.Provider = cache.NoopProvider{}
	if cfg.Results.Enabled && cfg.Results.Addr != "" {
		provider, err := cache.NewValkeyProvider(cache.ValkeyConfig{
			Addr:         cfg.Results.Addr,
			Username:     cfg.Results.Username,
			Password:     cfg.Results.Password,
			DB:           cfg.Results.DB,
			DialTimeout:  cfg.Results.DialTimeout,
			ReadTimeout:  cfg.Results.ReadTimeout,
			WriteTimeout: cfg.Results.WriteTimeout,
			MaxRetries:   cfg.Results.MaxRetries,
			TLS:          cfg.Results.TLS,
		})
		if err != nil {
			logger.Warn("result store unavailable, results will not persist", slog.Any("error", err))
		} else {
			cacheProvider = provider
			defer provider.Close()
		}
	}

	mediaStore, err := media.NewStore(cfg.Media.TempDir)
	if err != nil {
		logger.Error("failed to prepare media directory", slog.Any("error", err))
		os.Exit(1)
	}

	endpoints := make([]repo.AgentEndpoint, 0, len(cfg.Agents.Endpoints))
	for _, agent := range cfg.EnabledAgents() {
		endpoints = append(endpoints, repo.AgentEndpoint{
			Type: agent,
			URL:  cfg.Agents.Endpoints[string(agent)].URL,
		})
	}
	if len(endpoints) == 0 {
		logger.Error("no agents enabled, refusing to start")
		os.Exit(1)
	}
	logger.Info("agent fleet configured", slog.Int("agents", len(endpoints)))

	agentClient := repo.NewAgentClient(cfg.Agents.CallTimeout)
	dispatcher := engine.NewDispatcher(agentClient, cfg.Agents.DispatchDeadline, logger)
	pipeline := engine.NewPipeline(dispatcher, weights, cfg.Consensus.MaxReasons, logger)
	resultRepo := repo.NewResultRepo(cacheProvider, cfg.Results.TTL)

	analysisService := services.NewAnalysisService(logger, pipeline, resultRepo, endpoints)

	handlers := api.NewHandlers(logger, analysisService, mediaStore, cfg.Media.MaxUploadBytes)
	server, err := api.NewServer(cfg.Server, handlers, logger)
	if err != nil {
		logger.Error("failed to create HTTP server", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	go func() {
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("HTTP server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	server.Shutdown(shutdownCtx)

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	// Give remaining goroutines time to finish logging
	time.Sleep(100 * time.Millisecond)
	logger.Info("truthnet-orchestrator stopped")
}
