// Package engine wires classification, aggregation, and similarity
// scanning behind a single Accept entry point.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"copytrade-engine/internal/aggregate"
	"copytrade-engine/internal/classify"
	"copytrade-engine/internal/domain"
	"copytrade-engine/internal/idhash"
	"copytrade-engine/internal/normalize"
	"copytrade-engine/internal/observability"
	"copytrade-engine/internal/similarity"
	"copytrade-engine/internal/storage"
)

// ErrInvalidEvent is returned when an event is structurally unusable.
var ErrInvalidEvent = errors.New("invalid swap event")

// Engine classifies incoming swap events against the watched-account set
// and feeds the resulting trades into the aggregation store and the trade
// archive. The watched set and pool metadata are immutable for the
// engine's lifetime; replacing either means building a new engine.
type Engine struct {
	pools   map[string]*domain.PoolMetadata
	watched map[string]domain.WatchedAccount

	aggregates      *aggregate.Store
	trades          storage.TradeStore
	swapEvents      storage.SwapEventStore
	similarityStore storage.SimilarityEventStore
	simCfg          similarity.Config

	logger  *log.Logger
	verbose bool
}

// Options contains configuration for creating an Engine.
type Options struct {
	Pools           []domain.PoolMetadata
	WatchedAccounts []domain.WatchedAccount
	Aggregates      *aggregate.Store

	// TradeStore archives classified trades for similarity scans. Optional;
	// without it RunSimilarityScan has no history to read.
	TradeStore storage.TradeStore
	// SwapEventStore archives raw events for replay. Optional.
	SwapEventStore storage.SwapEventStore
	// SimilarityEventStore persists scan output. Optional.
	SimilarityEventStore storage.SimilarityEventStore

	// SimilarityConfig overrides similarity.DefaultConfig. Zero value
	// means defaults.
	SimilarityConfig similarity.Config

	Logger *log.Logger
	// Verbose enables debug-level logging of indeterminate classifications.
	Verbose bool
}

// New creates an engine. The pool and watched-account sets are copied and
// keyed by lowercased address.
func New(opts Options) (*Engine, error) {
	if opts.Aggregates == nil {
		return nil, errors.New("engine: aggregation store is required")
	}

	simCfg := opts.SimilarityConfig
	if simCfg == (similarity.Config{}) {
		simCfg = similarity.DefaultConfig()
	}
	if err := simCfg.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	pools := make(map[string]*domain.PoolMetadata, len(opts.Pools))
	for i := range opts.Pools {
		p := opts.Pools[i]
		p.Pool = strings.ToLower(p.Pool)
		pools[p.Pool] = &p
	}

	watched := make(map[string]domain.WatchedAccount, len(opts.WatchedAccounts))
	for _, w := range opts.WatchedAccounts {
		w.Address = strings.ToLower(w.Address)
		watched[w.Address] = w
	}

	return &Engine{
		pools:           pools,
		watched:         watched,
		aggregates:      opts.Aggregates,
		trades:          opts.TradeStore,
		swapEvents:      opts.SwapEventStore,
		similarityStore: opts.SimilarityEventStore,
		simCfg:          simCfg,
		logger:          logger,
		verbose:         opts.Verbose,
	}, nil
}

// Accept processes one swap event. It is invoked once per observed event
// after the source has resolved finality and per-pool ordering.
//
// An unknown pool drops the event with a warning and returns nil:
// processing of subsequent events must not halt. Unwatched parties cost
// nothing beyond the membership test. Redelivered events are absorbed by
// the aggregation store's idempotence and the archive's duplicate checks.
func (e *Engine) Accept(ctx context.Context, event *domain.SwapEvent) error {
	if event == nil || event.TxHash == "" || event.Pool == "" {
		return ErrInvalidEvent
	}

	meta, ok := e.pools[strings.ToLower(event.Pool)]
	if !ok {
		e.logger.Printf("WARN: dropping swap %s[%d]: unknown pool %s", event.TxHash, event.LogIndex, event.Pool)
		observability.RecordEventDropped("unknown_pool")
		return nil
	}

	observability.RecordEventAccepted()

	if e.swapEvents != nil {
		if err := e.swapEvents.Insert(ctx, event); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return fmt.Errorf("archive swap event: %w", err)
		}
	}

	parties := []struct {
		account string
		role    domain.Role
	}{
		{strings.ToLower(event.Sender), domain.RoleSender},
		{strings.ToLower(event.Recipient), domain.RoleRecipient},
	}

	for _, p := range parties {
		if _, isWatched := e.watched[p.account]; !isWatched {
			continue
		}
		if err := e.processParty(ctx, event, meta, p.account, p.role); err != nil {
			return err
		}
	}

	return nil
}

// processParty classifies one watched party of a swap and applies the
// resulting trade. Indeterminate classification emits nothing.
func (e *Engine) processParty(ctx context.Context, event *domain.SwapEvent, meta *domain.PoolMetadata, account string, role domain.Role) error {
	direction := classify.Direction(event, meta, role)
	if direction == domain.DirectionIndeterminate {
		if e.verbose {
			e.logger.Printf("DEBUG: indeterminate classification for %s in %s[%d]", account, event.TxHash, event.LogIndex)
		}
		observability.RecordIndeterminate()
		return nil
	}

	trade := buildTrade(event, meta, account, direction)

	upd, err := e.aggregates.Apply(trade)
	if err != nil {
		return fmt.Errorf("apply trade %s: %w", trade.TradeID, err)
	}
	if upd == nil {
		// Redelivered identity: not an error. The archive write still
		// runs, because a failed insert on the first delivery would
		// otherwise never be retried.
		observability.RecordDuplicateTrade()
		return e.archiveTrade(ctx, trade)
	}

	observability.RecordTradeEmitted(direction.String())
	observability.RecordAggregateUpsert("daily_summary")
	observability.RecordAggregateUpsert("account_activity")
	observability.RecordAggregateUpsert("watched_account_stats")

	return e.archiveTrade(ctx, trade)
}

// archiveTrade inserts a trade into the archive when one is configured.
// Duplicate identities are fine; the insert is idempotent.
func (e *Engine) archiveTrade(ctx context.Context, trade *domain.Trade) error {
	if e.trades == nil {
		return nil
	}
	if err := e.trades.Insert(ctx, trade); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		return fmt.Errorf("archive trade %s: %w", trade.TradeID, err)
	}
	return nil
}

// buildTrade derives an immutable Trade from one watched party of a swap.
func buildTrade(event *domain.SwapEvent, meta *domain.PoolMetadata, account string, direction domain.Direction) *domain.Trade {
	baseDelta, quoteDelta := event.Amount0, event.Amount1
	if !meta.BaseIsToken0 {
		baseDelta, quoteDelta = event.Amount1, event.Amount0
	}

	baseAmount := normalize.AbsAmount(baseDelta, meta.BaseDecimals())
	quoteAmount := normalize.AbsAmount(quoteDelta, meta.QuoteDecimals())

	return &domain.Trade{
		TradeID:     idhash.ComputeTradeID(event.TxHash, event.LogIndex, account),
		TxHash:      event.TxHash,
		LogIndex:    event.LogIndex,
		BlockNumber: event.BlockNumber,
		Timestamp:   event.Timestamp,
		Account:     account,
		Direction:   direction,
		BaseAmount:  baseAmount,
		QuoteAmount: quoteAmount,
		Price:       normalize.Price(baseAmount, quoteAmount),
		Pool:        meta.Pool,
		Sender:      strings.ToLower(event.Sender),
		Recipient:   strings.ToLower(event.Recipient),
	}
}

// GetDailySummary returns the live summary for (date, chain).
func (e *Engine) GetDailySummary(date, chain string) (*domain.DailySummary, bool) {
	return e.aggregates.GetDailySummary(date, chain)
}

// GetAccountActivity returns the live activity for (account, date).
func (e *Engine) GetAccountActivity(account, date string) (*domain.AccountActivity, bool) {
	return e.aggregates.GetAccountActivity(strings.ToLower(account), date)
}

// GetWatchedAccountStats returns the live lifetime stats for an account.
func (e *Engine) GetWatchedAccountStats(account string) (*domain.WatchedAccountStats, bool) {
	return e.aggregates.GetWatchedAccountStats(strings.ToLower(account))
}

// RunSimilarityScan compares two accounts' archived trade histories and
// returns the scoring pairs. A scan reads snapshots only; it shares no
// lock with the live aggregation path. threshold <= 0 keeps the
// configured default. Events are persisted when a similarity store is
// configured.
func (e *Engine) RunSimilarityScan(ctx context.Context, referenceAccount, suspectAccount string, windowSeconds int64, threshold float64) ([]*domain.SimilarityEvent, error) {
	if e.trades == nil {
		return nil, errors.New("engine: no trade archive configured for similarity scans")
	}

	cfg := e.simCfg
	if threshold > 0 {
		cfg.Threshold = threshold
	}
	detector, err := similarity.NewDetector(cfg)
	if err != nil {
		return nil, err
	}

	started := time.Now()

	refTrades, err := e.trades.GetByAccount(ctx, strings.ToLower(referenceAccount))
	if err != nil {
		observability.RecordSimilarityScan("error", time.Since(started).Seconds(), 0)
		return nil, fmt.Errorf("load reference trades: %w", err)
	}
	susTrades, err := e.trades.GetByAccount(ctx, strings.ToLower(suspectAccount))
	if err != nil {
		observability.RecordSimilarityScan("error", time.Since(started).Seconds(), 0)
		return nil, fmt.Errorf("load suspect trades: %w", err)
	}

	events, err := detector.Detect(ctx, refTrades, susTrades, windowSeconds)
	if err != nil {
		observability.RecordSimilarityScan("error", time.Since(started).Seconds(), 0)
		return nil, err
	}

	if e.similarityStore != nil && len(events) > 0 {
		if err := e.similarityStore.InsertBulk(ctx, events); err != nil {
			observability.RecordSimilarityScan("error", time.Since(started).Seconds(), len(events))
			return nil, fmt.Errorf("persist similarity events: %w", err)
		}
	}

	observability.RecordSimilarityScan("ok", time.Since(started).Seconds(), len(events))
	return events, nil
}
