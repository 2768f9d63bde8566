package domain

import "math/big"

// SwapEvent represents a raw DEX swap log emitted by a monitored pool.
// Deltas are raw fixed-point integers as they appear on chain, signed from
// the pool's perspective: positive flows out of the pool to the recipient,
// negative flows into the pool from the sender.
type SwapEvent struct {
	TxHash      string   // transaction hash (0x-hex)
	LogIndex    int      // log index within the transaction
	BlockNumber int64    // block number
	Timestamp   int64    // block timestamp, Unix seconds
	Sender      string   // swap sender address
	Recipient   string   // swap recipient address
	Amount0     *big.Int // signed raw delta of token0
	Amount1     *big.Int // signed raw delta of token1
	Pool        string   // pool contract address
}
