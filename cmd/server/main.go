// Package main provides the entry point for the PubMed fetch service.
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

	"github.com/helixir/pubmed-fetch-service/internal/batch"
	"github.com/helixir/pubmed-fetch-service/internal/config"
	"github.com/helixir/pubmed-fetch-service/internal/domain"
	"github.com/helixir/pubmed-fetch-service/internal/eutils"
	"github.com/helixir/pubmed-fetch-service/internal/observability"
	httpserver "github.com/helixir/pubmed-fetch-service/internal/server/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("pubmed-fetch-service starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Set up metrics.
	var metrics *observability.Metrics
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(cfg.Metrics.Namespace)
		metricsPath = cfg.Metrics.Path
	}

	// Create the E-utilities client.
	client := eutils.New(eutils.Config{
		BaseURL:    cfg.Eutils.BaseURL,
		APIKey:     cfg.Eutils.APIKey,
		Tool:       cfg.Eutils.Tool,
		Email:      cfg.Eutils.Email,
		Timeout:    cfg.Eutils.Timeout,
		RateLimit:  cfg.Eutils.RateLimit,
		BurstSize:  cfg.Eutils.BurstSize,
		MaxResults: cfg.Eutils.MaxResults,
	}, logger, metrics)

	// Create the batch orchestrator.
	orchestrator := batch.New(client, batchConfig(cfg), logger, metrics)

	// Create and start the HTTP server.
	server := httpserver.NewServer(httpserver.Config{
		Address:             cfg.Server.Address(),
		ReadTimeout:         cfg.Server.ReadTimeout,
		WriteTimeout:        cfg.Server.WriteTimeout,
		IdleTimeout:         cfg.Server.IdleTimeout,
		ShutdownTimeout:     cfg.Server.ShutdownTimeout,
		MaxBatchIdentifiers: cfg.Batch.MaxIdentifiers,
		MetricsPath:         metricsPath,
	}, client, orchestrator, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown HTTP server: %w", err)
	}

	logger.Info().Msg("stopped")
	return nil
}

// batchConfig translates the string-keyed config tables into orchestrator
// tuning. Kinds absent from the tables keep their built-in defaults.
func batchConfig(cfg *config.Config) batch.Config {
	out := batch.Config{}

	if len(cfg.Batch.ChunkSizes) > 0 {
		out.ChunkSizes = make(map[domain.OperationKind]int, len(cfg.Batch.ChunkSizes))
		for name, size := range cfg.Batch.ChunkSizes {
			kind := domain.OperationKind(name)
			if kind.Valid() {
				out.ChunkSizes[kind] = size
			}
		}
	}

	if len(cfg.Batch.Delays) > 0 {
		delays := make(map[domain.OperationKind]time.Duration, len(cfg.Batch.Delays))
		for name, delay := range cfg.Batch.Delays {
			kind := domain.OperationKind(name)
			if kind.Valid() {
				delays[kind] = delay
			}
		}
		out.Pacing = func(kind domain.OperationKind, chunkIndex int) time.Duration {
			if d, ok := delays[kind]; ok {
				return d
			}
			return batch.DefaultPacing(kind, chunkIndex)
		}
	}

	return out
}
