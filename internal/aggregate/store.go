// Package aggregate maintains the engine's incrementally-updated rollups:
// daily-global summaries, per-account daily activity, and per-account
// lifetime stats.
package aggregate

import (
	"errors"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"copytrade-engine/internal/domain"
)

// ErrInvalidTrade is returned when a trade cannot be applied.
var ErrInvalidTrade = errors.New("invalid trade for aggregation")

// numShards is the lock striping factor. Keys on different shards update
// fully in parallel; keys on the same shard serialize, which is the
// correctness requirement for a single aggregate key.
const numShards = 64

// defaultRetentionDays bounds the applied-identity window: identity sets
// for days this far behind the newest observed trade day are released.
const defaultRetentionDays = 7

// Update carries the post-apply state of the three aggregates a trade
// touched. All fields are copies; callers may retain them freely.
type Update struct {
	DailySummary        *domain.DailySummary
	AccountActivity     *domain.AccountActivity
	WatchedAccountStats *domain.WatchedAccountStats
}

// Notifier receives an upsert notification each time an aggregate is
// created or mutated, for the storage layer to persist. Values are copies.
// Callbacks run under the trade's shard locks so that snapshots for one
// key arrive in apply order; implementations must not call back into the
// Store, and slow callbacks stall applies on the same shards.
type Notifier interface {
	DailySummaryUpserted(s *domain.DailySummary)
	AccountActivityUpserted(a *domain.AccountActivity)
	WatchedAccountStatsUpserted(st *domain.WatchedAccountStats)
}

// Store is the keyed, idempotent accumulator. Applying the same trade
// identity twice is a no-op: each day shard tracks the set of applied
// identities within a bounded retention window, so at-least-once delivery
// and reorg replays cannot double-count.
type Store struct {
	chain         string
	retentionDays int64
	notifier      Notifier

	dayShards  [numShards]dayShard
	acctShards [numShards]acctShard

	// newestDay is the highest UTC day number seen, for retention pruning.
	newestDay atomic.Int64
}

// dayShard owns a subset of (date, chain) keys.
type dayShard struct {
	mu   sync.Mutex
	days map[string]*dayState
}

// dayState is the per-day summary plus the bookkeeping sets that back
// idempotence and the unique-account counter.
type dayState struct {
	dayNum   int64 // UTC days since epoch
	summary  domain.DailySummary
	applied  map[string]struct{} // trade identities already applied
	accounts map[string]struct{} // watched accounts seen this day
}

// acctShard owns a subset of account keys.
type acctShard struct {
	mu         sync.Mutex
	activities map[string]*domain.AccountActivity // keyed "<account>-<date>"
	stats      map[string]*domain.WatchedAccountStats
}

// Options configures a Store.
type Options struct {
	// Chain is the chain identity stamped on DailySummary keys.
	// Default: domain.DefaultChain.
	Chain string
	// RetentionDays bounds the applied-identity window. Default: 7.
	RetentionDays int
	// Notifier receives upsert notifications. Optional.
	Notifier Notifier
}

// NewStore creates an aggregation store.
func NewStore(opts Options) *Store {
	chain := opts.Chain
	if chain == "" {
		chain = domain.DefaultChain
	}

	retention := int64(opts.RetentionDays)
	if retention <= 0 {
		retention = defaultRetentionDays
	}

	s := &Store{
		chain:         chain,
		retentionDays: retention,
		notifier:      opts.Notifier,
	}
	for i := range s.dayShards {
		s.dayShards[i].days = make(map[string]*dayState)
	}
	for i := range s.acctShards {
		s.acctShards[i].activities = make(map[string]*domain.AccountActivity)
		s.acctShards[i].stats = make(map[string]*domain.WatchedAccountStats)
	}
	return s
}

// Chain returns the chain identity this store accumulates under.
func (s *Store) Chain() string {
	return s.chain
}

// Apply folds one classified trade into all three aggregates. Returns the
// updated aggregate copies, or (nil, nil) when the trade identity was
// already applied; redelivery is not an error.
//
// The triple update runs under the trade's day-shard lock (and the
// account-shard lock for the account-scoped aggregates), so concurrent
// updates to the same key are mutually exclusive and a duplicate check
// and its update are atomic. No partial application is possible: the
// in-memory update path has no failure point between the three updates.
func (s *Store) Apply(trade *domain.Trade) (*Update, error) {
	if trade == nil || trade.TradeID == "" || trade.Account == "" {
		return nil, ErrInvalidTrade
	}
	if trade.Direction != domain.DirectionBuy && trade.Direction != domain.DirectionSell {
		return nil, ErrInvalidTrade
	}

	date := trade.Date()
	dayNum := trade.Timestamp / int64(24*time.Hour/time.Second)
	s.advanceNewestDay(dayNum)

	ds := &s.dayShards[shardIndex(date)]
	ds.mu.Lock()

	day := ds.days[date]
	if day == nil {
		day = &dayState{
			dayNum:   dayNum,
			summary:  domain.DailySummary{Date: date, Chain: s.chain},
			applied:  make(map[string]struct{}),
			accounts: make(map[string]struct{}),
		}
		ds.days[date] = day
		ds.prune(s.newestDay.Load() - s.retentionDays)
	}

	if day.applied == nil {
		// Identity window for this day already released; redelivery this
		// far behind the stream head is treated as a fresh trade.
		day.applied = make(map[string]struct{})
	}
	if _, dup := day.applied[trade.TradeID]; dup {
		ds.mu.Unlock()
		return nil, nil
	}
	day.applied[trade.TradeID] = struct{}{}

	applyToSummary(&day.summary, day, trade)
	summaryCopy := day.summary

	as := &s.acctShards[shardIndex(trade.Account)]
	as.mu.Lock()
	activityCopy := as.applyActivity(trade, date)
	statsCopy := as.applyStats(trade)

	// Notify while the shard locks are held: snapshots for one key must
	// reach the notifier in apply order, or a stale snapshot written last
	// would overwrite a newer one downstream.
	if s.notifier != nil {
		s.notifier.DailySummaryUpserted(&summaryCopy)
		s.notifier.AccountActivityUpserted(&activityCopy)
		s.notifier.WatchedAccountStatsUpserted(&statsCopy)
	}

	as.mu.Unlock()
	ds.mu.Unlock()

	return &Update{
		DailySummary:        &summaryCopy,
		AccountActivity:     &activityCopy,
		WatchedAccountStats: &statsCopy,
	}, nil
}

// applyToSummary folds a trade into the daily summary in place.
func applyToSummary(sum *domain.DailySummary, day *dayState, trade *domain.Trade) {
	if day.accounts == nil {
		day.accounts = make(map[string]struct{})
	}
	if _, seen := day.accounts[trade.Account]; !seen {
		day.accounts[trade.Account] = struct{}{}
		sum.UniqueAccounts++
	}

	if sum.TotalTransactions == 0 {
		sum.MinPrice = trade.Price
		sum.MaxPrice = trade.Price
	} else {
		if trade.Price.LessThan(sum.MinPrice) {
			sum.MinPrice = trade.Price
		}
		if trade.Price.GreaterThan(sum.MaxPrice) {
			sum.MaxPrice = trade.Price
		}
	}

	sum.TotalTransactions++
	switch trade.Direction {
	case domain.DirectionBuy:
		sum.BuyCount++
		sum.TotalBuyBase = sum.TotalBuyBase.Add(trade.BaseAmount)
		sum.TotalBuyQuote = sum.TotalBuyQuote.Add(trade.QuoteAmount)
	case domain.DirectionSell:
		sum.SellCount++
		sum.TotalSellBase = sum.TotalSellBase.Add(trade.BaseAmount)
		sum.TotalSellQuote = sum.TotalSellQuote.Add(trade.QuoteAmount)
	}
}

// applyActivity folds a trade into the account's daily activity.
// Caller holds the shard lock. Returns a copy of the updated state.
func (a *acctShard) applyActivity(trade *domain.Trade, date string) domain.AccountActivity {
	key := trade.Account + "-" + date
	act := a.activities[key]
	if act == nil {
		act = &domain.AccountActivity{Account: trade.Account, Date: date}
		a.activities[key] = act
	}

	if act.TradeCount == 0 {
		act.MinPrice = trade.Price
		act.MaxPrice = trade.Price
	} else {
		if trade.Price.LessThan(act.MinPrice) {
			act.MinPrice = trade.Price
		}
		if trade.Price.GreaterThan(act.MaxPrice) {
			act.MaxPrice = trade.Price
		}
	}

	act.TradeCount++
	switch trade.Direction {
	case domain.DirectionBuy:
		act.BuyCount++
		act.BuyBaseVolume = act.BuyBaseVolume.Add(trade.BaseAmount)
		act.BuyQuoteVolume = act.BuyQuoteVolume.Add(trade.QuoteAmount)
	case domain.DirectionSell:
		act.SellCount++
		act.SellBaseVolume = act.SellBaseVolume.Add(trade.BaseAmount)
		act.SellQuoteVolume = act.SellQuoteVolume.Add(trade.QuoteAmount)
	}

	return *act
}

// applyStats folds a trade into the account's lifetime stats.
// Caller holds the shard lock. Returns a copy of the updated state.
func (a *acctShard) applyStats(trade *domain.Trade) domain.WatchedAccountStats {
	st := a.stats[trade.Account]
	if st == nil {
		st = &domain.WatchedAccountStats{
			Account:      trade.Account,
			FirstTradeAt: trade.Timestamp,
			LastTradeAt:  trade.Timestamp,
		}
		a.stats[trade.Account] = st
	}

	st.TradeCount++
	if trade.Timestamp < st.FirstTradeAt {
		st.FirstTradeAt = trade.Timestamp
	}
	if trade.Timestamp > st.LastTradeAt {
		st.LastTradeAt = trade.Timestamp
	}

	return *st
}

// GetDailySummary returns a copy of the summary for (date, chain).
func (s *Store) GetDailySummary(date, chain string) (*domain.DailySummary, bool) {
	if chain != s.chain {
		return nil, false
	}

	ds := &s.dayShards[shardIndex(date)]
	ds.mu.Lock()
	defer ds.mu.Unlock()

	day, ok := ds.days[date]
	if !ok {
		return nil, false
	}
	out := day.summary
	return &out, true
}

// GetAccountActivity returns a copy of the account's activity for a date.
func (s *Store) GetAccountActivity(account, date string) (*domain.AccountActivity, bool) {
	as := &s.acctShards[shardIndex(account)]
	as.mu.Lock()
	defer as.mu.Unlock()

	act, ok := as.activities[account+"-"+date]
	if !ok {
		return nil, false
	}
	out := *act
	return &out, true
}

// GetWatchedAccountStats returns a copy of the account's lifetime stats.
func (s *Store) GetWatchedAccountStats(account string) (*domain.WatchedAccountStats, bool) {
	as := &s.acctShards[shardIndex(account)]
	as.mu.Lock()
	defer as.mu.Unlock()

	st, ok := as.stats[account]
	if !ok {
		return nil, false
	}
	out := *st
	return &out, true
}

// advanceNewestDay raises the newest observed day number monotonically.
func (s *Store) advanceNewestDay(dayNum int64) {
	for {
		cur := s.newestDay.Load()
		if dayNum <= cur {
			return
		}
		if s.newestDay.CompareAndSwap(cur, dayNum) {
			return
		}
	}
}

// prune releases the identity and account sets of days behind the cutoff.
// The summaries themselves stay queryable; only the dedup bookkeeping is
// bounded. Caller holds the shard lock.
func (d *dayShard) prune(cutoff int64) {
	for _, day := range d.days {
		if day.dayNum < cutoff {
			day.applied = nil
			day.accounts = nil
		}
	}
}

// shardIndex maps a key to its lock stripe.
func shardIndex(key string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(key))
	return h.Sum32() % numShards
}
