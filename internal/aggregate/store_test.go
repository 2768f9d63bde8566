package aggregate

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"copytrade-engine/internal/domain"
	"copytrade-engine/internal/idhash"
)

// day0 is 2024-01-01T00:00:00Z.
const day0 = int64(1704067200)

func mkTrade(account string, direction domain.Direction, ts int64, base, quote string) *domain.Trade {
	baseAmt := decimal.RequireFromString(base)
	quoteAmt := decimal.RequireFromString(quote)

	price := decimal.Zero
	if !baseAmt.IsZero() {
		price = quoteAmt.Div(baseAmt)
	}

	return &domain.Trade{
		TradeID:     idhash.ComputeTradeID(fmt.Sprintf("0xtx-%s-%d", account, ts), 0, account),
		TxHash:      fmt.Sprintf("0xtx-%s-%d", account, ts),
		LogIndex:    0,
		BlockNumber: ts,
		Timestamp:   ts,
		Account:     account,
		Direction:   direction,
		BaseAmount:  baseAmt,
		QuoteAmount: quoteAmt,
		Price:       price,
		Pool:        "0xpool1",
	}
}

func TestStore_ApplyCreatesAllThreeAggregates(t *testing.T) {
	store := NewStore(Options{})

	trade := mkTrade("0xwallet1", domain.DirectionBuy, day0+100, "1.5", "4500.75")
	upd, err := store.Apply(trade)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if upd == nil {
		t.Fatal("Apply returned nil update for a fresh trade")
	}

	sum := upd.DailySummary
	if sum.Date != "2024-01-01" || sum.Chain != domain.DefaultChain {
		t.Errorf("summary key = (%s, %s)", sum.Date, sum.Chain)
	}
	if sum.TotalTransactions != 1 || sum.BuyCount != 1 || sum.SellCount != 0 {
		t.Errorf("summary counters = (%d, %d, %d)", sum.TotalTransactions, sum.BuyCount, sum.SellCount)
	}
	if !sum.TotalBuyBase.Equal(trade.BaseAmount) {
		t.Errorf("TotalBuyBase = %s, want %s", sum.TotalBuyBase, trade.BaseAmount)
	}
	if !sum.MinPrice.Equal(trade.Price) || !sum.MaxPrice.Equal(trade.Price) {
		t.Errorf("price bounds = (%s, %s), want %s", sum.MinPrice, sum.MaxPrice, trade.Price)
	}
	if sum.UniqueAccounts != 1 {
		t.Errorf("UniqueAccounts = %d, want 1", sum.UniqueAccounts)
	}

	act := upd.AccountActivity
	if act.Account != "0xwallet1" || act.Date != "2024-01-01" {
		t.Errorf("activity key = (%s, %s)", act.Account, act.Date)
	}
	if act.TradeCount != 1 || act.BuyCount != 1 {
		t.Errorf("activity counters = (%d, %d)", act.TradeCount, act.BuyCount)
	}
	if !act.NetBasePosition().Equal(trade.BaseAmount) {
		t.Errorf("NetBasePosition = %s, want %s", act.NetBasePosition(), trade.BaseAmount)
	}

	st := upd.WatchedAccountStats
	if st.TradeCount != 1 || st.FirstTradeAt != trade.Timestamp || st.LastTradeAt != trade.Timestamp {
		t.Errorf("stats = (%d, %d, %d)", st.TradeCount, st.FirstTradeAt, st.LastTradeAt)
	}
}

func TestStore_ApplyIdempotent(t *testing.T) {
	store := NewStore(Options{})

	trade := mkTrade("0xwallet1", domain.DirectionBuy, day0+100, "1.5", "4500.75")

	upd, err := store.Apply(trade)
	if err != nil {
		t.Fatalf("first Apply failed: %v", err)
	}
	if upd == nil {
		t.Fatal("first Apply returned nil update")
	}

	// Redelivery of the same identity is a silent no-op.
	upd, err = store.Apply(trade)
	if err != nil {
		t.Fatalf("redelivered Apply errored: %v", err)
	}
	if upd != nil {
		t.Fatal("redelivered Apply returned an update")
	}

	sum, ok := store.GetDailySummary("2024-01-01", domain.DefaultChain)
	if !ok {
		t.Fatal("summary missing")
	}
	if sum.TotalTransactions != 1 {
		t.Errorf("TotalTransactions = %d after redelivery, want 1", sum.TotalTransactions)
	}

	act, ok := store.GetAccountActivity("0xwallet1", "2024-01-01")
	if !ok {
		t.Fatal("activity missing")
	}
	if act.TradeCount != 1 {
		t.Errorf("TradeCount = %d after redelivery, want 1", act.TradeCount)
	}

	st, ok := store.GetWatchedAccountStats("0xwallet1")
	if !ok {
		t.Fatal("stats missing")
	}
	if st.TradeCount != 1 {
		t.Errorf("stats TradeCount = %d after redelivery, want 1", st.TradeCount)
	}
}

// The daily summary must equal the sum over all account activities for
// the same day, whatever mix of accounts and directions arrived.
func TestStore_Conservation(t *testing.T) {
	store := NewStore(Options{})

	accounts := []string{"0xwallet1", "0xwallet2", "0xwallet3"}
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		account := accounts[rng.Intn(len(accounts))]
		direction := domain.DirectionBuy
		if rng.Intn(2) == 1 {
			direction = domain.DirectionSell
		}
		base := fmt.Sprintf("%d.%03d", 1+rng.Intn(5), rng.Intn(1000))
		quote := fmt.Sprintf("%d", 1000+rng.Intn(9000))

		if _, err := store.Apply(mkTrade(account, direction, day0+int64(i), base, quote)); err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
	}

	sum, ok := store.GetDailySummary("2024-01-01", domain.DefaultChain)
	if !ok {
		t.Fatal("summary missing")
	}

	var (
		txs, buys, sells    int64
		buyBase, sellBase   decimal.Decimal
		buyQuote, sellQuote decimal.Decimal
	)
	for _, account := range accounts {
		act, ok := store.GetAccountActivity(account, "2024-01-01")
		if !ok {
			t.Fatalf("activity missing for %s", account)
		}
		txs += act.TradeCount
		buys += act.BuyCount
		sells += act.SellCount
		buyBase = buyBase.Add(act.BuyBaseVolume)
		sellBase = sellBase.Add(act.SellBaseVolume)
		buyQuote = buyQuote.Add(act.BuyQuoteVolume)
		sellQuote = sellQuote.Add(act.SellQuoteVolume)
	}

	if sum.TotalTransactions != txs {
		t.Errorf("TotalTransactions = %d, accounts sum to %d", sum.TotalTransactions, txs)
	}
	if sum.BuyCount != buys || sum.SellCount != sells {
		t.Errorf("counts = (%d, %d), accounts sum to (%d, %d)", sum.BuyCount, sum.SellCount, buys, sells)
	}
	if !sum.TotalBuyBase.Equal(buyBase) || !sum.TotalSellBase.Equal(sellBase) {
		t.Errorf("base volumes diverge from account totals")
	}
	if !sum.TotalBuyQuote.Equal(buyQuote) || !sum.TotalSellQuote.Equal(sellQuote) {
		t.Errorf("quote volumes diverge from account totals")
	}
	if sum.UniqueAccounts != int64(len(accounts)) {
		t.Errorf("UniqueAccounts = %d, want %d", sum.UniqueAccounts, len(accounts))
	}
}

// Applying the same trade set in a different order must converge to the
// same aggregate values.
func TestStore_OrderIndependence(t *testing.T) {
	trades := []*domain.Trade{
		mkTrade("0xwallet1", domain.DirectionBuy, day0+10, "1", "3000"),
		mkTrade("0xwallet1", domain.DirectionSell, day0+20, "0.5", "1550"),
		mkTrade("0xwallet2", domain.DirectionBuy, day0+30, "2", "5900"),
		mkTrade("0xwallet2", domain.DirectionBuy, day0+40, "1.25", "3800"),
		mkTrade("0xwallet3", domain.DirectionSell, day0+50, "3", "9100"),
	}

	forward := NewStore(Options{})
	for _, tr := range trades {
		if _, err := forward.Apply(tr); err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
	}

	reversed := NewStore(Options{})
	for i := len(trades) - 1; i >= 0; i-- {
		if _, err := reversed.Apply(trades[i]); err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
	}

	a, _ := forward.GetDailySummary("2024-01-01", domain.DefaultChain)
	b, _ := reversed.GetDailySummary("2024-01-01", domain.DefaultChain)
	if a.TotalTransactions != b.TotalTransactions ||
		a.BuyCount != b.BuyCount || a.SellCount != b.SellCount ||
		!a.TotalBuyBase.Equal(b.TotalBuyBase) || !a.TotalSellBase.Equal(b.TotalSellBase) ||
		!a.MinPrice.Equal(b.MinPrice) || !a.MaxPrice.Equal(b.MaxPrice) ||
		a.UniqueAccounts != b.UniqueAccounts {
		t.Errorf("summaries diverge across apply order:\n%+v\n%+v", a, b)
	}

	for _, account := range []string{"0xwallet1", "0xwallet2", "0xwallet3"} {
		x, _ := forward.GetAccountActivity(account, "2024-01-01")
		y, _ := reversed.GetAccountActivity(account, "2024-01-01")
		if x.TradeCount != y.TradeCount || !x.BuyBaseVolume.Equal(y.BuyBaseVolume) ||
			!x.SellQuoteVolume.Equal(y.SellQuoteVolume) {
			t.Errorf("activity for %s diverges across apply order", account)
		}
	}
}

func TestStore_ConcurrentApply(t *testing.T) {
	store := NewStore(Options{})

	const workers = 8
	const perWorker = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			account := fmt.Sprintf("0xwallet%d", w%3)
			for i := 0; i < perWorker; i++ {
				trade := mkTrade(account, domain.DirectionBuy, day0+int64(w*perWorker+i), "1", "3000")
				if _, err := store.Apply(trade); err != nil {
					t.Errorf("Apply failed: %v", err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	sum, ok := store.GetDailySummary("2024-01-01", domain.DefaultChain)
	if !ok {
		t.Fatal("summary missing")
	}
	if sum.TotalTransactions != workers*perWorker {
		t.Errorf("TotalTransactions = %d, want %d", sum.TotalTransactions, workers*perWorker)
	}
	want := decimal.NewFromInt(workers * perWorker)
	if !sum.TotalBuyBase.Equal(want) {
		t.Errorf("TotalBuyBase = %s, want %s", sum.TotalBuyBase, want)
	}
}

func TestStore_AveragesDerivedFromSums(t *testing.T) {
	store := NewStore(Options{})

	store.Apply(mkTrade("0xwallet1", domain.DirectionBuy, day0+10, "1", "3000"))
	store.Apply(mkTrade("0xwallet1", domain.DirectionBuy, day0+20, "3", "9600"))

	sum, _ := store.GetDailySummary("2024-01-01", domain.DefaultChain)

	// Volume-weighted: 12600 quote / 4 base, not the mean of the prices.
	want := decimal.RequireFromString("3150")
	if !sum.AvgBuyPrice().Equal(want) {
		t.Errorf("AvgBuyPrice = %s, want %s", sum.AvgBuyPrice(), want)
	}
	if !sum.AvgSellPrice().IsZero() {
		t.Errorf("AvgSellPrice = %s with no sells, want 0", sum.AvgSellPrice())
	}
}

func TestStore_InvalidTrades(t *testing.T) {
	store := NewStore(Options{})

	cases := []*domain.Trade{
		nil,
		{TradeID: "", Account: "0xwallet1", Direction: domain.DirectionBuy},
		{TradeID: "id", Account: "", Direction: domain.DirectionBuy},
		{TradeID: "id", Account: "0xwallet1", Direction: domain.DirectionIndeterminate},
	}
	for i, tr := range cases {
		if _, err := store.Apply(tr); !errors.Is(err, ErrInvalidTrade) {
			t.Errorf("case %d: expected ErrInvalidTrade, got %v", i, err)
		}
	}
}

func TestStore_GetDailySummaryWrongChain(t *testing.T) {
	store := NewStore(Options{})
	store.Apply(mkTrade("0xwallet1", domain.DirectionBuy, day0+10, "1", "3000"))

	if _, ok := store.GetDailySummary("2024-01-01", "other-chain"); ok {
		t.Error("summary returned for a chain the store does not accumulate")
	}
}

func TestStore_NotifierReceivesCopies(t *testing.T) {
	notifier := &recordingNotifier{}
	store := NewStore(Options{Notifier: notifier})

	store.Apply(mkTrade("0xwallet1", domain.DirectionBuy, day0+10, "1", "3000"))
	store.Apply(mkTrade("0xwallet1", domain.DirectionSell, day0+20, "0.5", "1550"))

	if len(notifier.summaries) != 2 || len(notifier.activities) != 2 || len(notifier.stats) != 2 {
		t.Fatalf("notification counts = (%d, %d, %d), want (2, 2, 2)",
			len(notifier.summaries), len(notifier.activities), len(notifier.stats))
	}

	// Each notification is a snapshot of the state at that point.
	if notifier.summaries[0].TotalTransactions != 1 || notifier.summaries[1].TotalTransactions != 2 {
		t.Errorf("summary snapshots = (%d, %d), want (1, 2)",
			notifier.summaries[0].TotalTransactions, notifier.summaries[1].TotalTransactions)
	}
	if notifier.stats[1].TradeCount != 2 {
		t.Errorf("stats snapshot TradeCount = %d, want 2", notifier.stats[1].TradeCount)
	}
}

// Redelivery is absorbed inside the retention window; a day pruned out of
// the window restarts its identity tracking.
func TestStore_RetentionWindowPruning(t *testing.T) {
	store := NewStore(Options{RetentionDays: 2})

	old := mkTrade("0xwallet1", domain.DirectionBuy, day0+10, "1", "3000")
	if _, err := store.Apply(old); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	// Advance the stream head ten days, far past the retention horizon.
	// A new key on the old day's shard triggers pruning there.
	later := mkTrade("0xwallet1", domain.DirectionBuy, day0+10*86400, "1", "3000")
	if _, err := store.Apply(later); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	// Force pruning across every day shard with fresh keys.
	for d := int64(1); d <= 9; d++ {
		tr := mkTrade("0xwallet2", domain.DirectionBuy, day0+d*86400, "1", "3000")
		if _, err := store.Apply(tr); err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
	}

	// The stale day's summary stays queryable.
	sum, ok := store.GetDailySummary("2024-01-01", domain.DefaultChain)
	if !ok {
		t.Fatal("pruned day's summary no longer queryable")
	}
	if sum.TotalTransactions != 1 {
		t.Errorf("TotalTransactions = %d, want 1", sum.TotalTransactions)
	}
}

// A slow notifier must still see one key's snapshots in apply order:
// the last notification delivered is the one the storage layer keeps.
func TestStore_NotifierOrderedPerKey(t *testing.T) {
	notifier := &stallingNotifier{stall: 20 * time.Millisecond}
	store := NewStore(Options{Notifier: notifier})

	const n = 4
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tr := mkTrade("0xwallet1", domain.DirectionBuy, day0+int64(i)*10, "1", "3000")
			if _, err := store.Apply(tr); err != nil {
				t.Errorf("Apply failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.totals) != n {
		t.Fatalf("got %d summary notifications, want %d", len(notifier.totals), n)
	}
	for i, total := range notifier.totals {
		if total != int64(i+1) {
			t.Fatalf("summary snapshots delivered out of apply order: %v", notifier.totals)
		}
	}
}

// stallingNotifier sleeps inside the summary callback to widen any gap
// between an apply and its notification, then records the snapshot's
// transaction count in delivery order.
type stallingNotifier struct {
	stall  time.Duration
	mu     sync.Mutex
	totals []int64
}

func (r *stallingNotifier) DailySummaryUpserted(s *domain.DailySummary) {
	time.Sleep(r.stall)
	r.mu.Lock()
	r.totals = append(r.totals, s.TotalTransactions)
	r.mu.Unlock()
}

func (r *stallingNotifier) AccountActivityUpserted(*domain.AccountActivity) {}

func (r *stallingNotifier) WatchedAccountStatsUpserted(*domain.WatchedAccountStats) {}

// recordingNotifier captures notification snapshots in order.
type recordingNotifier struct {
	summaries  []*domain.DailySummary
	activities []*domain.AccountActivity
	stats      []*domain.WatchedAccountStats
}

func (r *recordingNotifier) DailySummaryUpserted(s *domain.DailySummary) {
	r.summaries = append(r.summaries, s)
}

func (r *recordingNotifier) AccountActivityUpserted(a *domain.AccountActivity) {
	r.activities = append(r.activities, a)
}

func (r *recordingNotifier) WatchedAccountStatsUpserted(st *domain.WatchedAccountStats) {
	r.stats = append(r.stats, st)
}
