package domain

import "github.com/shopspring/decimal"

// DailySummary accumulates chain-wide trading counters for one calendar day.
// Key: (date, chain). Averages are derived from cumulative sums on read,
// never stored, so incremental updates cannot drift.
type DailySummary struct {
	Date  string // UTC calendar date, YYYY-MM-DD
	Chain string // chain identity, e.g. "ethereum-mainnet"

	TotalTransactions int64
	BuyCount          int64
	SellCount         int64

	TotalBuyBase   decimal.Decimal // cumulative base volume of buys
	TotalSellBase  decimal.Decimal // cumulative base volume of sells
	TotalBuyQuote  decimal.Decimal // cumulative quote volume of buys
	TotalSellQuote decimal.Decimal // cumulative quote volume of sells

	MinPrice decimal.Decimal // running minimum trade price
	MaxPrice decimal.Decimal // running maximum trade price

	UniqueAccounts int64 // distinct watched accounts active this day
}

// Key returns the composite aggregate key "<date>-<chain>".
func (s *DailySummary) Key() string {
	return s.Date + "-" + s.Chain
}

// TotalVolumeBase returns cumulative base volume across both directions.
func (s *DailySummary) TotalVolumeBase() decimal.Decimal {
	return s.TotalBuyBase.Add(s.TotalSellBase)
}

// TotalVolumeQuote returns cumulative quote volume across both directions.
func (s *DailySummary) TotalVolumeQuote() decimal.Decimal {
	return s.TotalBuyQuote.Add(s.TotalSellQuote)
}

// AvgBuyPrice returns cumulative buy quote / cumulative buy base.
// Zero when no base volume has been bought.
func (s *DailySummary) AvgBuyPrice() decimal.Decimal {
	if s.TotalBuyBase.IsZero() {
		return decimal.Zero
	}
	return s.TotalBuyQuote.Div(s.TotalBuyBase)
}

// AvgSellPrice returns cumulative sell quote / cumulative sell base.
// Zero when no base volume has been sold.
func (s *DailySummary) AvgSellPrice() decimal.Decimal {
	if s.TotalSellBase.IsZero() {
		return decimal.Zero
	}
	return s.TotalSellQuote.Div(s.TotalSellBase)
}

// AccountActivity accumulates one watched account's counters for one
// calendar day. Key: (account, date). Same shape as DailySummary plus the
// signed net position.
type AccountActivity struct {
	Account string // watched account address
	Date    string // UTC calendar date, YYYY-MM-DD

	TradeCount int64
	BuyCount   int64
	SellCount  int64

	BuyBaseVolume   decimal.Decimal
	SellBaseVolume  decimal.Decimal
	BuyQuoteVolume  decimal.Decimal
	SellQuoteVolume decimal.Decimal

	MinPrice decimal.Decimal
	MaxPrice decimal.Decimal
}

// Key returns the composite aggregate key "<account>-<date>".
func (a *AccountActivity) Key() string {
	return a.Account + "-" + a.Date
}

// NetBasePosition returns cumulative buy base minus cumulative sell base.
// Positive means net accumulation of the base asset.
func (a *AccountActivity) NetBasePosition() decimal.Decimal {
	return a.BuyBaseVolume.Sub(a.SellBaseVolume)
}

// NetQuotePosition returns cumulative sell quote minus cumulative buy quote.
// Buying base spends quote, so a net buyer has a negative quote position.
func (a *AccountActivity) NetQuotePosition() decimal.Decimal {
	return a.SellQuoteVolume.Sub(a.BuyQuoteVolume)
}

// AvgBuyPrice returns cumulative buy quote / cumulative buy base.
func (a *AccountActivity) AvgBuyPrice() decimal.Decimal {
	if a.BuyBaseVolume.IsZero() {
		return decimal.Zero
	}
	return a.BuyQuoteVolume.Div(a.BuyBaseVolume)
}

// AvgSellPrice returns cumulative sell quote / cumulative sell base.
func (a *AccountActivity) AvgSellPrice() decimal.Decimal {
	if a.SellBaseVolume.IsZero() {
		return decimal.Zero
	}
	return a.SellQuoteVolume.Div(a.SellBaseVolume)
}

// WatchedAccountStats holds lifetime counters for one watched account.
// Key: account address. FirstTradeAt <= LastTradeAt once TradeCount > 0.
type WatchedAccountStats struct {
	Account      string // watched account address
	TradeCount   int64
	FirstTradeAt int64 // Unix seconds of earliest trade
	LastTradeAt  int64 // Unix seconds of latest trade
}
