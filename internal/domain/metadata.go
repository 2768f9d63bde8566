package domain

// PoolMetadata describes a monitored pool. Loaded at startup and never
// mutated during processing.
type PoolMetadata struct {
	Pool           string // pool contract address
	Label          string // human-readable label, e.g. "ETH/USDC 0.05%"
	FeeTier        int    // fee tier in hundredths of a bip (e.g. 500)
	BaseIsToken0   bool   // true when token0 is the base asset
	Token0Decimals int    // decimal precision of token0
	Token1Decimals int    // decimal precision of token1
}

// BaseDecimals returns the decimal precision of the base asset.
func (m *PoolMetadata) BaseDecimals() int {
	if m.BaseIsToken0 {
		return m.Token0Decimals
	}
	return m.Token1Decimals
}

// QuoteDecimals returns the decimal precision of the quote asset.
func (m *PoolMetadata) QuoteDecimals() int {
	if m.BaseIsToken0 {
		return m.Token1Decimals
	}
	return m.Token0Decimals
}

// WatchedAccount is an address whose trades are tracked and aggregated.
// The watched set is static for the lifetime of an engine; replacing it
// requires building a new engine.
type WatchedAccount struct {
	Address string // account address (0x-hex, lowercase)
	Name    string // display name
}
