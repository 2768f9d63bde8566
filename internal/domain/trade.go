package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade represents a classified trade by a watched account, derived from a
// SwapEvent. Immutable once created. A single SwapEvent produces zero, one,
// or two trades: one per watched party among sender and recipient, each
// classified independently.
//
// Identity is (tx_hash, log_index, account): the account component
// distinguishes the two trades a single event can produce, while a
// redelivered event still maps to the same identities.
type Trade struct {
	TradeID     string          // deterministic hash of the identity
	TxHash      string          // originating transaction hash
	LogIndex    int             // originating log index
	BlockNumber int64           // block number
	Timestamp   int64           // block timestamp, Unix seconds
	Account     string          // watched account address
	Direction   Direction       // BUY | SELL
	BaseAmount  decimal.Decimal // base asset quantity, non-negative
	QuoteAmount decimal.Decimal // quote asset quantity, non-negative
	Price       decimal.Decimal // quote/base; zero when base amount is zero
	Pool        string          // pool contract address
	Sender      string          // swap sender address
	Recipient   string          // swap recipient address
}

// Date returns the UTC calendar date of the trade in YYYY-MM-DD form.
func (t *Trade) Date() string {
	return time.Unix(t.Timestamp, 0).UTC().Format(DateLayout)
}

// DateLayout is the calendar-date format used for aggregate keys.
const DateLayout = "2006-01-02"

// DefaultChain is the chain identity carried on DailySummary keys when no
// other chain is configured.
const DefaultChain = "ethereum-mainnet"
