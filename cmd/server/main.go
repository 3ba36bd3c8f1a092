// Package main provides the entry point for the paper discovery service.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/paperscout/discovery-service/internal/assistant"
	"github.com/paperscout/discovery-service/internal/config"
	"github.com/paperscout/discovery-service/internal/llm"
	"github.com/paperscout/discovery-service/internal/observability"
	"github.com/paperscout/discovery-service/internal/papersources"
	"github.com/paperscout/discovery-service/internal/papersources/arxiv"
	"github.com/paperscout/discovery-service/internal/papersources/core"
	"github.com/paperscout/discovery-service/internal/papersources/crossref"
	"github.com/paperscout/discovery-service/internal/papersources/semanticscholar"
	"github.com/paperscout/discovery-service/internal/search"
	httpserver "github.com/paperscout/discovery-service/internal/server/http"
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
	logger.Info().Msg("paperscout discovery service starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics(cfg.Metrics.Namespace)

	// Register paper sources. Registration order is merge priority.
	registry := papersources.NewRegistry()
	registry.Register(arxiv.New(arxiv.Config{
		BaseURL:   cfg.PaperSources.ArXiv.BaseURL,
		Timeout:   cfg.PaperSources.ArXiv.Timeout,
		RateLimit: cfg.PaperSources.ArXiv.RateLimit,
		BurstSize: cfg.PaperSources.ArXiv.BurstSize,
		Enabled:   cfg.PaperSources.ArXiv.Enabled,
	}))
	registry.Register(semanticscholar.NewClient(semanticscholar.Config{
		BaseURL:   cfg.PaperSources.SemanticScholar.BaseURL,
		APIKey:    cfg.PaperSources.SemanticScholar.APIKey,
		Timeout:   cfg.PaperSources.SemanticScholar.Timeout,
		RateLimit: cfg.PaperSources.SemanticScholar.RateLimit,
		BurstSize: cfg.PaperSources.SemanticScholar.BurstSize,
		Enabled:   cfg.PaperSources.SemanticScholar.Enabled,
	}, nil))
	registry.Register(crossref.NewClient(crossref.Config{
		BaseURL:   cfg.PaperSources.CrossRef.BaseURL,
		Mailto:    cfg.PaperSources.CrossRef.Mailto,
		Timeout:   cfg.PaperSources.CrossRef.Timeout,
		RateLimit: cfg.PaperSources.CrossRef.RateLimit,
		BurstSize: cfg.PaperSources.CrossRef.BurstSize,
		Enabled:   cfg.PaperSources.CrossRef.Enabled,
	}, nil))
	registry.Register(core.NewClient(core.Config{
		BaseURL:   cfg.PaperSources.CORE.BaseURL,
		APIKey:    cfg.PaperSources.CORE.APIKey,
		Timeout:   cfg.PaperSources.CORE.Timeout,
		RateLimit: cfg.PaperSources.CORE.RateLimit,
		BurstSize: cfg.PaperSources.CORE.BurstSize,
		Enabled:   cfg.PaperSources.CORE.Enabled,
	}, nil))

	for _, source := range registry.EnabledSources() {
		logger.Info().Str("source", source.Name()).Msg("paper source enabled")
	}

	searchService := search.NewService(registry, logger, metrics)

	// Create the Gemini client and assistant flows.
	geminiClient := llm.NewGeminiClient(llm.GeminiConfig{
		APIKey:         cfg.LLM.Gemini.APIKey,
		Model:          cfg.LLM.Gemini.Model,
		EmbeddingModel: cfg.LLM.Gemini.EmbeddingModel,
		BaseURL:        cfg.LLM.Gemini.BaseURL,
		Timeout:        cfg.LLM.Gemini.Timeout,
	})
	retryPolicy := llm.RetryPolicy{
		MaxRetries:   cfg.LLM.MaxRetries,
		InitialDelay: cfg.LLM.RetryDelay,
	}
	assistantService := assistant.NewService(geminiClient, retryPolicy, logger, metrics)

	// Create the HTTP server.
	httpSrv := httpserver.NewServer(httpserver.Config{
		Address:         cfg.Server.HTTPAddress(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MetricsEnabled:  cfg.Metrics.Enabled,
		MetricsPath:     cfg.Metrics.Path,
	}, searchService, assistantService, logger, metrics)

	errCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info().
		Str("http_address", cfg.Server.HTTPAddress()).
		Msg("paperscout discovery service is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	// Graceful shutdown.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logger.Info().Msg("paperscout discovery service shutdown complete")
	return nil
}
