package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nexusai/dashlink/internal/client"
	"github.com/nexusai/dashlink/internal/config"
	"github.com/nexusai/dashlink/internal/database"
	"github.com/nexusai/dashlink/internal/journal"
	"github.com/nexusai/dashlink/internal/metrics"
	"github.com/nexusai/dashlink/internal/publisher"
	"github.com/nexusai/dashlink/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/dashlink.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting dashlink",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"dashboard_url", cfg.Dashboard.URL,
	)

	if !cfg.Dashboard.TLSVerify {
		logger.Warn("TLS certificate verification is disabled for the dashboard connection")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Optional sent-envelope journal
	var recorder client.Recorder
	var journalWriter *journal.Writer
	if cfg.Journal.Enabled {
		logger.Info("connecting to journal database",
			"host", cfg.Journal.Database.Host,
			"port", cfg.Journal.Database.Port,
			"database", cfg.Journal.Database.Name,
		)

		pool, err := database.Connect(ctx, cfg.Journal.Database)
		if err != nil {
			logger.Error("failed to connect to journal database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		journalWriter = journal.NewWriter(journal.Config{
			BatchSize:     cfg.Journal.BatchSize,
			FlushInterval: cfg.Journal.FlushInterval,
			QueueLimit:    cfg.Publishing.QueueLimit,
		}, pool, logger)
		recorder = journalWriter

		if err := journalWriter.Start(ctx); err != nil {
			logger.Error("failed to start journal writer", "error", err)
			os.Exit(1)
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer stopCancel()
			journalWriter.Stop(stopCtx)
		}()

		logger.Info("journal writer started")
	}

	// Dashboard client
	dash := client.New(client.Config{
		URL:                  cfg.Dashboard.URL,
		APIKey:               cfg.Dashboard.APIKey,
		SystemID:             cfg.Instance.ID,
		MaxReconnectAttempts: cfg.Connection.MaxReconnectAttempts,
		ReconnectDelay:       cfg.Connection.ReconnectDelay,
		MaxReconnectDelay:    cfg.Connection.MaxReconnectDelay,
		ConnectTimeout:       cfg.Connection.Timeout,
		WriteTimeout:         cfg.Connection.WriteTimeout,
		SendInterval:         cfg.Publishing.SendInterval,
		BatchSize:            cfg.Publishing.BatchSize,
		HeartbeatInterval:    cfg.Publishing.HeartbeatInterval,
		Compress:             cfg.CompressData(),
		QueueLimit:           cfg.Publishing.QueueLimit,
		TLSVerify:            cfg.Dashboard.TLSVerify,
		OnRestart:            func() { cancel() },
		Recorder:             recorder,
	}, logger)

	if err := dash.Start(ctx); err != nil {
		logger.Error("failed to start dashboard client", "error", err)
		os.Exit(1)
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		dash.Stop(stopCtx)
	}()

	// Publisher layered over the client
	pub := publisher.New(publisher.Config{
		StatusInterval:   cfg.Publishing.StatusInterval,
		MaxHistoryLength: cfg.Publishing.MaxHistoryLength,
	}, dash, logger)

	if err := pub.Start(ctx); err != nil {
		logger.Error("failed to start publisher", "error", err)
		os.Exit(1)
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		pub.Stop(stopCtx)
	}()

	// Metrics and health server
	registry := prometheus.NewRegistry()
	registry.MustRegister(metrics.NewCollector(dash))

	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/health", healthHandler(dash, journalWriter))

	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: mux,
	}

	go func() {
		logger.Info("starting metrics server", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	logger.Info("dashlink running",
		"instance_id", cfg.Instance.ID,
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Metrics.Port),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	healthServer.Shutdown(shutdownCtx)

	logger.Info("dashlink stopped")
}

// healthHandler reports connection and journal health.
func healthHandler(dash client.Client, journalWriter *journal.Writer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := dash.Status()

		health := struct {
			Status     string         `json:"status"`
			Components map[string]any `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]any),
		}

		health.Components["dashboard"] = map[string]any{
			"state":              string(st.State),
			"connected":          st.Connected,
			"queue_depth":        st.QueueDepth,
			"reconnect_attempts": st.ReconnectAttempts,
			"messages_sent":      st.Stats.MessagesSent,
			"reconnections":      st.Stats.Reconnections,
		}
		if !st.Connected {
			health.Status = "degraded"
		}
		if !st.Running {
			health.Status = "unhealthy"
		}

		if journalWriter != nil {
			js := journalWriter.Stats()
			health.Components["journal"] = map[string]any{
				"inserts": js.Inserts,
				"errors":  js.Errors,
				"dropped": js.Dropped,
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})
}
