package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/careline-ai/careline/internal/config"
	dbRedis "github.com/careline-ai/careline/internal/db/redis"
	"github.com/careline-ai/careline/internal/db/sqlite"
	"github.com/careline-ai/careline/internal/domain"
	"github.com/careline-ai/careline/internal/embedding"
	localEmb "github.com/careline-ai/careline/internal/embedding/local"
	logpkg "github.com/careline-ai/careline/internal/logger"
	"github.com/careline-ai/careline/internal/metrics"
	chunkrepo "github.com/careline-ai/careline/internal/repository/chunk"
	historyrepo "github.com/careline-ai/careline/internal/repository/history"
	recordsrepo "github.com/careline-ai/careline/internal/repository/records"
	chiTransport "github.com/careline-ai/careline/internal/transport/chi"
	openaiProv "github.com/careline-ai/careline/internal/transport/openai"
	"github.com/careline-ai/careline/internal/usecase/handlers"
	healthuc "github.com/careline-ai/careline/internal/usecase/health"
	ingestuc "github.com/careline-ai/careline/internal/usecase/ingest"
	"github.com/careline-ai/careline/internal/usecase/intent"
	resolveuc "github.com/careline-ai/careline/internal/usecase/resolve"
	retrievaluc "github.com/careline-ai/careline/internal/usecase/retrieval"
	"github.com/careline-ai/careline/internal/version"
)

// seedCaller owns the demo fixtures loaded when records.seed is set.
const seedCaller = "demo"

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting careline API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("redis_addrs", cfg.Database.Addrs),
		zap.String("records_path", cfg.Records.Path),
	)

	// Vector index backend.
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create vector store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Vector store not ready", zap.Error(err))
	}
	logger.Info("Connected to vector store")

	// Record store (orders, invoices, warranties, appointments, tickets,
	// chat history).
	recordsDB, err := sqlite.Open(cfg.Records.Path)
	if err != nil {
		logger.Fatal("Failed to open record store", zap.Error(err))
	}
	defer func() { _ = recordsDB.Close() }()

	if cfg.Records.Seed {
		if err := recordsrepo.Seed(ctx, recordsDB, seedCaller); err != nil {
			logger.Fatal("Failed to seed record store", zap.Error(err))
		}
		logger.Info("Seeded demo records", zap.String("caller_id", seedCaller))
	}

	metrics.Register()
	metrics.RegisterHTTP()

	// Embedder chain and generator per the configured strategy.
	timeout := time.Duration(cfg.Chat.ProviderTimeoutSec) * time.Second
	provCfg := &openaiProv.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		ChatModel:  cfg.Embedding.ChatModel,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    timeout,
		Logger:     logger,
	}

	var (
		embedder domain.Embedder
		provider *openaiProv.Embedder
	)
	switch cfg.Embedding.Strategy {
	case "external":
		provider = openaiProv.NewEmbedder(provCfg)
		embedder = provider
	case "local_fallback":
		local := localEmb.New(cfg.Embedding.Dimensions)
		if cfg.Embedding.APIKey != "" {
			provider = openaiProv.NewEmbedder(provCfg)
			embedder = embedding.NewFallback(provider, local)
		} else {
			embedder = local
		}
	default:
		logger.Fatal("Unknown embedding strategy", zap.String("strategy", cfg.Embedding.Strategy))
	}
	logger.Info("Embedder created",
		zap.String("strategy", cfg.Embedding.Strategy),
		zap.Int("dimensions", cfg.Embedding.Dimensions))

	var generator retrievaluc.Generator
	if cfg.Chat.GenerationEnabled && cfg.Embedding.APIKey != "" {
		generator = openaiProv.NewGenerator(provCfg)
	}

	// Repositories.
	chunkRepo := chunkrepo.New(store)
	recordRepo := recordsrepo.New(recordsDB)
	historyRepo := historyrepo.New(recordsDB)

	// Use case services.
	ingestSvc := ingestuc.New(chunkRepo, embedder,
		cfg.Chat.ChunkSize, cfg.Chat.ChunkOverlap, cfg.Embedding.Dimensions)
	retrievalSvc := retrievaluc.New(embedder, chunkRepo, generator, retrievaluc.Config{
		Collection:         cfg.Chat.Collection,
		MaxResults:         cfg.Chat.MaxResults,
		RelevanceThreshold: cfg.Chat.RelevanceThreshold,
		ContextCharLimit:   cfg.Chat.ContextCharLimit,
		ExtractCharLimit:   cfg.Chat.ExtractCharLimit,
		GenerationEnabled:  cfg.Chat.GenerationEnabled,
	})
	registry := handlers.NewRegistry(recordRepo, nil)
	resolveSvc := resolveuc.New(intent.New(), registry, retrievalSvc, historyRepo, nil)

	var providerChecker healthuc.ProviderChecker
	if provider != nil {
		providerChecker = provider
	}
	healthSvc := healthuc.New(store, recordsDB, providerChecker)

	// Retention sweep for old chat turns.
	stopPurge := startHistoryPurge(ctx, historyRepo, cfg.Chat.HistoryRetentionDays, logger)
	defer stopPurge()

	server := chiTransport.NewServer(resolveSvc, ingestSvc, healthSvc, cfg.Auth.APIKeys, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// startHistoryPurge runs the daily retention sweep. Returns a stop func.
func startHistoryPurge(
	ctx context.Context, repo *historyrepo.Repo, retentionDays int, logger *zap.Logger,
) func() {
	ctx, cancel := context.WithCancel(ctx)

	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().AddDate(0, 0, -retentionDays)
				n, err := repo.PurgeOlderThan(ctx, cutoff)
				if err != nil {
					logger.Error("History purge failed", zap.Error(err))
					continue
				}
				if n > 0 {
					logger.Info("Purged old chat turns", zap.Int64("removed", n))
				}
			}
		}
	}()

	return cancel
}
