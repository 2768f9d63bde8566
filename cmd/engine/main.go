// Package main provides the unified copy-trade engine service:
// - Feed (continuous): WebSocket swap events → classification → aggregation
// - Snapshots: aggregate upserts persisted through the storage layer
// - HTTP: health, Prometheus metrics, aggregate queries, similarity scans
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"copytrade-engine/internal/aggregate"
	"copytrade-engine/internal/config"
	"copytrade-engine/internal/engine"
	"copytrade-engine/internal/feed"
	"copytrade-engine/internal/storage"
	chstore "copytrade-engine/internal/storage/clickhouse"
	"copytrade-engine/internal/storage/memory"
	"copytrade-engine/internal/storage/migrations"
	pgstore "copytrade-engine/internal/storage/postgres"
)

// allStores holds all storage implementations.
type allStores struct {
	swapEventStore       storage.SwapEventStore
	tradeStore           storage.TradeStore
	similarityEventStore storage.SimilarityEventStore
	summaryStore         storage.DailySummaryStore
	activityStore        storage.AccountActivityStore
	statsStore           storage.WatchedAccountStatsStore
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	wsEndpoint := flag.String("ws-endpoint", os.Getenv("FEED_WS_ENDPOINT"), "Swap-event feed WebSocket endpoint")
	configPath := flag.String("config", envOr("ENGINE_CONFIG", "config.json"), "Path to pools/accounts config JSON")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (optional analytics archive)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	httpAddr := flag.String("http-addr", ":9090", "HTTP address for health/metrics/queries")
	verbose := flag.Bool("verbose", false, "Log indeterminate classifications")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[engine] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if *wsEndpoint == "" {
		logger.Fatal("--ws-endpoint is required")
	}
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logger.Printf("Monitoring %d pools, %d watched accounts", len(cfg.Pools), len(cfg.WatchedAccounts))

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Create stores
	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// Aggregate snapshots flow to storage through the notifier.
	aggStore := aggregate.NewStore(aggregate.Options{
		Chain:         cfg.Chain,
		RetentionDays: cfg.RetentionDays,
		Notifier: &snapshotNotifier{
			summaries:  stores.summaryStore,
			activities: stores.activityStore,
			stats:      stores.statsStore,
			logger:     logger,
		},
	})

	eng, err := engine.New(engine.Options{
		Pools:                cfg.PoolMetadata(),
		WatchedAccounts:      cfg.Accounts(),
		Aggregates:           aggStore,
		TradeStore:           stores.tradeStore,
		SwapEventStore:       stores.swapEventStore,
		SimilarityEventStore: stores.similarityEventStore,
		SimilarityConfig:     cfg.SimilaritySettings(),
		Logger:               logger,
		Verbose:              *verbose,
	})
	if err != nil {
		logger.Fatalf("Failed to create engine: %v", err)
	}

	// Channel to signal completion
	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	// Start HTTP server
	api := &apiServer{
		engine:  eng,
		chain:   aggStore.Chain(),
		logger:  logger,
		started: time.Now(),
	}
	go api.serve(*httpAddr)

	// Run the feed
	client := feed.NewClient(*wsEndpoint, cfg.PoolAddresses(), nil, logger)
	err = client.Run(ctx, eng)
	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Feed error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStores creates all required stores.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			swapEventStore:       memory.NewSwapEventStore(),
			tradeStore:           memory.NewTradeStore(),
			similarityEventStore: memory.NewSimilarityEventStore(),
			summaryStore:         memory.NewDailySummaryStore(),
			activityStore:        memory.NewAccountActivityStore(),
			statsStore:           memory.NewWatchedAccountStatsStore(),
		}
		return stores, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run postgres migrations: %w", err)
	}

	stores := &allStores{
		swapEventStore:       pgstore.NewSwapEventStore(pool),
		tradeStore:           pgstore.NewTradeStore(pool),
		similarityEventStore: pgstore.NewSimilarityEventStore(pool),
		summaryStore:         pgstore.NewDailySummaryStore(pool),
		activityStore:        pgstore.NewAccountActivityStore(pool),
		statsStore:           pgstore.NewWatchedAccountStatsStore(pool),
	}
	cleanup := func() { pool.Close() }

	// ClickHouse analytics archive is optional. Trades and similarity
	// events are teed into it alongside the postgres primaries.
	if clickhouseDSN != "" {
		chConn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("run clickhouse migrations: %w", err)
		}

		stores.tradeStore = &teeTradeStore{
			primary:   stores.tradeStore,
			secondary: chstore.NewTradeStore(chConn),
		}
		stores.similarityEventStore = &teeSimilarityEventStore{
			primary:   stores.similarityEventStore,
			secondary: chstore.NewSimilarityEventStore(chConn),
		}
		cleanup = func() {
			chConn.Close()
			pool.Close()
		}
	}

	return stores, cleanup, nil
}

// envOr returns the env var value or the fallback when unset.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
