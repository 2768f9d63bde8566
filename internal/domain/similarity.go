package domain

// SimilarityEvent records one temporally-aligned trade pair found by a
// similarity pass between a reference and a suspect account. Immutable
// once created. Pairs are intentionally not deduplicated across
// overlapping windows; consumers aggregate as needed.
type SimilarityEvent struct {
	EventID          string  // deterministic hash of (reference trade, suspect trade)
	ReferenceAccount string  // reference account address
	SuspectAccount   string  // suspect account address
	ReferenceTradeID string  // TradeID of the reference trade
	SuspectTradeID   string  // TradeID of the suspect trade
	TimeOffset       int64   // suspect minus reference timestamp, seconds; may be negative
	DirectionMatch   bool    // true when both trades share a direction
	Score            float64 // similarity score in [0, 1]
}
