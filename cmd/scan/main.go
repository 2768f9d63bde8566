// Package main runs an on-demand similarity scan between two accounts'
// archived trade histories.
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
	"strings"
	"syscall"

	"copytrade-engine/internal/similarity"
	"copytrade-engine/internal/storage"
	pgstore "copytrade-engine/internal/storage/postgres"
)

func main() {
	// Parse flags
	referenceAccount := flag.String("ref", "", "Reference account address (required)")
	suspectAccount := flag.String("suspect", "", "Suspect account address (required)")
	windowSeconds := flag.Int64("window", 300, "Pairing window in seconds")
	threshold := flag.Float64("threshold", 0, "Score threshold override (0 keeps default)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	persist := flag.Bool("persist", false, "Persist emitted events to storage")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	// Setup structured logger
	logger := log.New(os.Stderr, "[scan] ", log.LstdFlags)

	// Validate required flags
	if *referenceAccount == "" || *suspectAccount == "" {
		logger.Fatal("--ref and --suspect are required")
	}
	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}
	if *windowSeconds < 0 {
		logger.Fatal("--window must be non-negative")
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

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()

	cfg := similarity.DefaultConfig()
	if *threshold > 0 {
		cfg.Threshold = *threshold
	}
	detector, err := similarity.NewDetector(cfg)
	if err != nil {
		logger.Fatalf("create detector: %v", err)
	}

	trades := pgstore.NewTradeStore(pool)

	ref := strings.ToLower(*referenceAccount)
	suspect := strings.ToLower(*suspectAccount)

	refTrades, err := trades.GetByAccount(ctx, ref)
	if err != nil {
		logger.Fatalf("load reference trades: %v", err)
	}
	susTrades, err := trades.GetByAccount(ctx, suspect)
	if err != nil {
		logger.Fatalf("load suspect trades: %v", err)
	}
	logger.Printf("Scanning %d reference trades against %d suspect trades (window %ds)",
		len(refTrades), len(susTrades), *windowSeconds)

	events, err := detector.Detect(ctx, refTrades, susTrades, *windowSeconds)
	if err != nil {
		logger.Fatalf("scan failed: %v", err)
	}

	if *persist && len(events) > 0 {
		var simStore storage.SimilarityEventStore = pgstore.NewSimilarityEventStore(pool)
		if err := simStore.InsertBulk(ctx, events); err != nil {
			logger.Fatalf("persist events: %v", err)
		}
		logger.Printf("Persisted %d events", len(events))
	}

	summaries := similarity.Summarize(events)

	if *outputJSON {
		output, _ := json.MarshalIndent(map[string]interface{}{
			"reference_account": ref,
			"suspect_account":   suspect,
			"window_seconds":    *windowSeconds,
			"events":            events,
			"summaries":         summaries,
		}, "", "  ")
		fmt.Println(string(output))
		return
	}

	fmt.Printf("\n=== Similarity Scan ===\n")
	fmt.Printf("Reference:  %s (%d trades)\n", ref, len(refTrades))
	fmt.Printf("Suspect:    %s (%d trades)\n", suspect, len(susTrades))
	fmt.Printf("Window:     %ds\n", *windowSeconds)
	fmt.Printf("Threshold:  %.2f\n", cfg.Threshold)
	fmt.Printf("Pairs:      %d\n", len(events))

	for _, ev := range events {
		fmt.Printf("  ref=%s sus=%s offset=%ds match=%t score=%.3f\n",
			shorten(ev.ReferenceTradeID), shorten(ev.SuspectTradeID),
			ev.TimeOffset, ev.DirectionMatch, ev.Score)
	}

	// Deterministic summary order
	keys := make([]string, 0, len(summaries))
	for k := range summaries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s := summaries[k]
		fmt.Printf("Summary %s: pairs=%d matches=%d avg=%.3f max=%.3f\n",
			s.SuspectAccount, s.PairCount, s.DirectionMatches, s.AvgScore, s.MaxScore)
	}
}

// shorten truncates a trade id for table output.
func shorten(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:12]
}
