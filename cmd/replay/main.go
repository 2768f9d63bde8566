// Package main rebuilds aggregates by replaying archived swap events
// through a fresh engine in deterministic chain order.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"copytrade-engine/internal/aggregate"
	"copytrade-engine/internal/config"
	"copytrade-engine/internal/domain"
	"copytrade-engine/internal/engine"
	"copytrade-engine/internal/replay"
	"copytrade-engine/internal/storage/memory"
	pgstore "copytrade-engine/internal/storage/postgres"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config.json", "Path to pools/accounts config JSON")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	pool := flag.String("pool", "", "Replay a single pool (default: all archived events)")
	persist := flag.Bool("persist", false, "Persist rebuilt snapshots back to PostgreSQL")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	// Setup structured logger
	logger := log.New(os.Stderr, "[replay] ", log.LstdFlags)

	// Validate required flags
	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	pgPool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("connect to postgres: %v", err)
	}
	defer pgPool.Close()

	// Rebuild into a fresh aggregate store. Snapshots flow back to
	// postgres only when --persist is set.
	var notifier aggregate.Notifier
	if *persist {
		notifier = &rebuildNotifier{
			summaries:  pgstore.NewDailySummaryStore(pgPool),
			activities: pgstore.NewAccountActivityStore(pgPool),
			stats:      pgstore.NewWatchedAccountStatsStore(pgPool),
			logger:     logger,
		}
	}

	aggStore := aggregate.NewStore(aggregate.Options{
		Chain:         cfg.Chain,
		RetentionDays: cfg.RetentionDays,
		Notifier:      notifier,
	})

	eng, err := engine.New(engine.Options{
		Pools:            cfg.PoolMetadata(),
		WatchedAccounts:  cfg.Accounts(),
		Aggregates:       aggStore,
		TradeStore:       memory.NewTradeStore(),
		SimilarityConfig: cfg.SimilaritySettings(),
		Logger:           logger,
	})
	if err != nil {
		logger.Fatalf("create engine: %v", err)
	}

	tracker := &trackingAcceptor{engine: eng, dates: make(map[string]struct{})}
	runner := replay.NewRunner(pgstore.NewSwapEventStore(pgPool))

	started := time.Now()

	var delivered int
	if *pool != "" {
		logger.Printf("Replaying archived events for pool %s", *pool)
		delivered, err = runner.RunPool(ctx, *pool, tracker)
	} else {
		logger.Println("Replaying all archived events")
		delivered, err = runner.RunAll(ctx, tracker)
	}
	if err != nil {
		logger.Fatalf("replay failed after %d events: %v", delivered, err)
	}

	logger.Printf("Replayed %d events in %v", delivered, time.Since(started))
	printResults(eng, aggStore.Chain(), cfg.Accounts(), tracker.sortedDates(), delivered, *outputJSON)
}

// trackingAcceptor feeds events into the engine while recording the UTC
// dates touched, for the rebuild report.
type trackingAcceptor struct {
	engine *engine.Engine
	dates  map[string]struct{}
}

var _ replay.Acceptor = (*trackingAcceptor)(nil)

func (t *trackingAcceptor) Accept(ctx context.Context, event *domain.SwapEvent) error {
	t.dates[time.Unix(event.Timestamp, 0).UTC().Format(domain.DateLayout)] = struct{}{}
	return t.engine.Accept(ctx, event)
}

func (t *trackingAcceptor) sortedDates() []string {
	dates := make([]string, 0, len(t.dates))
	for d := range t.dates {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// rebuildNotifier persists rebuilt snapshots. Failures abort nothing:
// the rebuild report still reflects the in-memory result.
type rebuildNotifier struct {
	summaries  *pgstore.DailySummaryStore
	activities *pgstore.AccountActivityStore
	stats      *pgstore.WatchedAccountStatsStore
	logger     *log.Logger
}

var _ aggregate.Notifier = (*rebuildNotifier)(nil)

func (n *rebuildNotifier) DailySummaryUpserted(s *domain.DailySummary) {
	if err := n.summaries.Upsert(context.Background(), s); err != nil {
		n.logger.Printf("WARN: persist daily summary %s/%s: %v", s.Date, s.Chain, err)
	}
}

func (n *rebuildNotifier) AccountActivityUpserted(a *domain.AccountActivity) {
	if err := n.activities.Upsert(context.Background(), a); err != nil {
		n.logger.Printf("WARN: persist account activity %s/%s: %v", a.Account, a.Date, err)
	}
}

func (n *rebuildNotifier) WatchedAccountStatsUpserted(st *domain.WatchedAccountStats) {
	if err := n.stats.Upsert(context.Background(), st); err != nil {
		n.logger.Printf("WARN: persist watched account stats %s: %v", st.Account, err)
	}
}

// rebuildReport is the JSON output shape.
type rebuildReport struct {
	EventsReplayed int                           `json:"events_replayed"`
	Summaries      []*domain.DailySummary        `json:"summaries"`
	Stats          []*domain.WatchedAccountStats `json:"stats"`
}

// printResults reports the rebuilt aggregates for every touched date and
// watched account.
func printResults(eng *engine.Engine, chain string, accounts []domain.WatchedAccount, dates []string, delivered int, asJSON bool) {
	report := rebuildReport{EventsReplayed: delivered}

	for _, date := range dates {
		if summary, ok := eng.GetDailySummary(date, chain); ok {
			report.Summaries = append(report.Summaries, summary)
		}
	}
	for _, acct := range accounts {
		if stats, ok := eng.GetWatchedAccountStats(acct.Address); ok {
			report.Stats = append(report.Stats, stats)
		}
	}

	if asJSON {
		output, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(output))
		return
	}

	fmt.Printf("\n=== Rebuild Summary ===\n")
	fmt.Printf("Events Replayed:  %d\n", delivered)
	for _, s := range report.Summaries {
		fmt.Printf("%s [%s]: txs=%d buys=%d sells=%d accounts=%d\n",
			s.Date, s.Chain, s.TotalTransactions, s.BuyCount, s.SellCount, s.UniqueAccounts)
	}
	for _, st := range report.Stats {
		fmt.Printf("%s: trades=%d first=%d last=%d\n",
			st.Account, st.TradeCount, st.FirstTradeAt, st.LastTradeAt)
	}
}
