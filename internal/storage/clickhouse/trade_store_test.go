package clickhouse

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"copytrade-engine/internal/domain"
	"copytrade-engine/internal/storage"
)

func testTrade(id, account string, ts int64) *domain.Trade {
	return &domain.Trade{
		TradeID:     id,
		TxHash:      "0xtx-" + id,
		LogIndex:    3,
		BlockNumber: ts,
		Timestamp:   ts,
		Account:     account,
		Direction:   domain.DirectionBuy,
		BaseAmount:  decimal.RequireFromString("1.5"),
		QuoteAmount: decimal.RequireFromString("4500.75"),
		Price:       decimal.RequireFromString("3000.5"),
		Pool:        "0xpool1",
		Sender:      "0xrouter",
		Recipient:   account,
	}
}

func TestTradeStore_InsertAndGetByAccount(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTradeStore(conn)
	ctx := context.Background()

	err := store.Insert(ctx, testTrade("t1", "0xwallet1", 1704067230))
	require.NoError(t, err)

	trades, err := store.GetByAccount(ctx, "0xwallet1")
	require.NoError(t, err)
	require.Len(t, trades, 1)

	got := trades[0]
	assert.Equal(t, "t1", got.TradeID)
	assert.Equal(t, "0xtx-t1", got.TxHash)
	assert.Equal(t, 3, got.LogIndex)
	assert.Equal(t, int64(1704067230), got.Timestamp)
	assert.Equal(t, domain.DirectionBuy, got.Direction)
	assert.True(t, got.BaseAmount.Equal(decimal.RequireFromString("1.5")))
	assert.True(t, got.Price.Equal(decimal.RequireFromString("3000.5")))
}

func TestTradeStore_InsertDuplicate(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTradeStore(conn)
	ctx := context.Background()

	err := store.Insert(ctx, testTrade("t1", "0xwallet1", 1704067230))
	require.NoError(t, err)

	err = store.Insert(ctx, testTrade("t1", "0xwallet1", 1704067230))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	trades, err := store.GetByAccount(ctx, "0xwallet1")
	require.NoError(t, err)
	assert.Len(t, trades, 1)
}

func TestTradeStore_GetByAccountTimeRange(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTradeStore(conn)
	ctx := context.Background()

	for i, ts := range []int64{100, 200, 300} {
		err := store.Insert(ctx, testTrade(fmt.Sprintf("t%d", i), "0xwallet1", ts))
		require.NoError(t, err)
	}

	// Both bounds are inclusive.
	trades, err := store.GetByAccountTimeRange(ctx, "0xwallet1", 100, 200)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, int64(100), trades[0].Timestamp)
	assert.Equal(t, int64(200), trades[1].Timestamp)

	trades, err = store.GetByAccountTimeRange(ctx, "0xwallet1", 301, 400)
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestTradeStore_GetByAccountOrdering(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTradeStore(conn)
	ctx := context.Background()

	for _, ts := range []int64{300, 100, 200} {
		err := store.Insert(ctx, testTrade(fmt.Sprintf("t%d", ts), "0xwallet1", ts))
		require.NoError(t, err)
	}

	trades, err := store.GetByAccount(ctx, "0xwallet1")
	require.NoError(t, err)
	require.Len(t, trades, 3)
	assert.Equal(t, int64(100), trades[0].Timestamp)
	assert.Equal(t, int64(200), trades[1].Timestamp)
	assert.Equal(t, int64(300), trades[2].Timestamp)
}
