package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/permitatlas/permit-atlas/internal/cache"
	"github.com/permitatlas/permit-atlas/internal/config"
	"github.com/permitatlas/permit-atlas/internal/ingest"
	"github.com/permitatlas/permit-atlas/internal/logger"
	"github.com/permitatlas/permit-atlas/internal/store"
)

func main() {
	var (
		configPath    = flag.String("config", "", "Configuration file path")
		inputFile     = flag.String("input", "", "Permit extract override (CSV, CSV.gz, Parquet, or JSON)")
		batchSize     = flag.Int("batch-size", 0, "Permit batch size override")
		referenceOnly = flag.Bool("reference-only", false, "Load only the cluster and ZIP summaries")
		permitsOnly   = flag.Bool("permits-only", false, "Skip the cluster and ZIP summaries")
		skipCache     = flag.Bool("skip-cache", false, "Skip serving-cache invalidation")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting Permit Atlas ingestion",
		zap.String("version", "0.1.0"),
		zap.String("config", *configPath))

	// Flag overrides
	if *inputFile != "" {
		cfg.Ingest.PermitsFile = *inputFile
	}
	if *batchSize > 0 {
		cfg.Ingest.BatchSize = *batchSize
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown. A killed run leaves the store partially
	// updated but internally consistent; a re-run completes it.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, cancelling ingestion...")
		cancel()
	}()

	// Initialize store (fatal on failure)
	st, err := store.NewStore(&store.Config{
		DatabaseURL:     cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}, log.Logger)
	if err != nil {
		log.Fatal("Failed to initialize store", zap.Error(err))
	}
	defer st.Close()

	// Serving-cache invalidation is best-effort
	var freshness *cache.Freshness
	if cfg.Cache.Enabled && !*skipCache {
		freshness, err = cache.New(&cache.Config{
			RedisURL:       cfg.Cache.RedisURL,
			KeyPrefix:      cfg.Cache.KeyPrefix,
			MaxConnections: cfg.Cache.MaxConnections,
			FreshnessTTL:   cfg.Cache.FreshnessTTL,
		}, log.Logger)
		if err != nil {
			log.Warn("Serving cache unavailable, continuing without invalidation", zap.Error(err))
			freshness = nil
		} else {
			defer freshness.Close()
		}
	}

	start := time.Now()

	if !*permitsOnly {
		loadReferenceData(ctx, st, freshness, cfg, log)
	}

	if !*referenceOnly {
		pipeline := ingest.NewPipeline(st, &ingest.Config{
			PermitsFile:       cfg.Ingest.PermitsFile,
			LLMCategoriesFile: cfg.Ingest.LLMCategoriesFile,
			BatchSize:         cfg.Ingest.BatchSize,
			ProgressEveryRows: cfg.Ingest.ProgressEveryRows,
			MaxDescriptionLen: cfg.Ingest.MaxDescriptionLen,
		}, log.Logger)

		result, err := pipeline.Run(ctx)
		if err != nil {
			log.Fatal("Permit ingestion failed", zap.Error(err))
		}
		recordRefresh(ctx, st, freshness, "permits", result.Written, cfg.Ingest.PermitsFile, log)
	}

	if err := st.Analyze(ctx); err != nil {
		log.Warn("Failed to refresh planner statistics", zap.Error(err))
	}

	printSummary(ctx, st, time.Since(start), log)
}

// loadReferenceData runs the cluster and ZIP-stats loaders. A missing or
// unreadable summary file skips that loader; it never aborts the run.
func loadReferenceData(ctx context.Context, st *store.Store, freshness *cache.Freshness, cfg *config.Config, log *logger.Logger) {
	if n, err := ingest.LoadClusters(ctx, st, cfg.Ingest.ClustersFile, log.Logger); err != nil {
		log.Warn("Skipping cluster summary", zap.String("file", cfg.Ingest.ClustersFile), zap.Error(err))
	} else {
		recordRefresh(ctx, st, freshness, "clusters", n, cfg.Ingest.ClustersFile, log)
	}

	if n, err := ingest.LoadZipStats(ctx, st, cfg.Ingest.EnergyStatsFile, log.Logger); err != nil {
		log.Warn("Skipping ZIP energy summary", zap.String("file", cfg.Ingest.EnergyStatsFile), zap.Error(err))
	} else {
		recordRefresh(ctx, st, freshness, "energy_stats", n, cfg.Ingest.EnergyStatsFile, log)
	}
}

// recordRefresh persists the freshness row for a dataset and, when the
// serving cache is connected, drops its cached queries
func recordRefresh(ctx context.Context, st *store.Store, freshness *cache.Freshness, dataset string, count int64, sourceFile string, log *logger.Logger) {
	src := filepath.Base(sourceFile)

	if err := st.RecordRefresh(ctx, dataset, count, src); err != nil {
		log.Warn("Failed to record dataset freshness",
			zap.String("dataset", dataset), zap.Error(err))
	}

	if freshness == nil {
		return
	}
	if err := freshness.Invalidate(ctx, dataset); err != nil {
		log.Warn("Failed to invalidate serving cache",
			zap.String("dataset", dataset), zap.Error(err))
	}
	if err := freshness.RecordRefresh(ctx, &cache.RefreshRecord{
		Dataset:     dataset,
		RecordCount: count,
		SourceFile:  src,
	}); err != nil {
		log.Warn("Failed to publish refresh record",
			zap.String("dataset", dataset), zap.Error(err))
	}
}

// printSummary always reports final per-table counts, even when batches were
// dropped, so data loss shows up as a count discrepancy
func printSummary(ctx context.Context, st *store.Store, elapsed time.Duration, log *logger.Logger) {
	counts, err := st.TableCounts(ctx)
	if err != nil {
		log.Warn("Failed to collect final table counts", zap.Error(err))
		return
	}

	fmt.Printf("\n=== Permit Atlas Ingestion Summary ===\n")
	for _, table := range []string{"permits", "clusters", "cluster_keywords", "energy_stats_by_zip", "cache_metadata"} {
		fmt.Printf("%-22s %d\n", table+":", counts[table])
	}
	fmt.Printf("Elapsed:               %s\n", elapsed.Round(time.Second))
}
