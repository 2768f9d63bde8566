// Package similarity finds temporally-aligned, direction-matching trade
// pairs between two accounts and scores them as copy-trading evidence.
package similarity

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"copytrade-engine/internal/domain"
	"copytrade-engine/internal/idhash"
)

// ErrInvalidConfig is returned when scoring weights do not form a
// convex combination.
var ErrInvalidConfig = errors.New("invalid similarity config")

// weightSumTolerance allows for float representation error when checking
// that the weights sum to 1.
const weightSumTolerance = 1e-9

// Config holds the scoring weights and the emission threshold. The
// weights must be non-negative and sum to 1.
type Config struct {
	DirectionWeight float64 // weight of direction agreement (binary)
	TimeWeight      float64 // weight of temporal proximity (linear decay)
	SizeWeight      float64 // weight of base-amount proximity
	Threshold       float64 // minimum score to emit an event
}

// DefaultConfig returns the default scoring configuration.
func DefaultConfig() Config {
	return Config{
		DirectionWeight: 0.4,
		TimeWeight:      0.35,
		SizeWeight:      0.25,
		Threshold:       0.7,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.DirectionWeight < 0 || c.TimeWeight < 0 || c.SizeWeight < 0 {
		return fmt.Errorf("%w: negative weight", ErrInvalidConfig)
	}
	sum := c.DirectionWeight + c.TimeWeight + c.SizeWeight
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("%w: weights sum to %v, want 1", ErrInvalidConfig, sum)
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("%w: threshold %v outside [0,1]", ErrInvalidConfig, c.Threshold)
	}
	return nil
}

// Detector compares two accounts' classified-trade histories. It only
// reads trade snapshots and produces new events, so a pass can run
// alongside live aggregation and abort between pair comparisons without
// corrupting anything.
type Detector struct {
	cfg Config
}

// NewDetector creates a detector with the given config.
func NewDetector(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Detector{cfg: cfg}, nil
}

// Detect finds every (reference, suspect) trade pair within the time
// window and emits a SimilarityEvent for each pair scoring above the
// threshold. The window boundary is inclusive. Pairs are not deduplicated
// across overlapping windows. Empty histories yield an empty result.
//
// Both sequences are scanned sorted by timestamp with a sliding window,
// so the pass is O(n+m) amortized plus the emitted pairs.
func (d *Detector) Detect(ctx context.Context, referenceTrades, suspectTrades []*domain.Trade, windowSeconds int64) ([]*domain.SimilarityEvent, error) {
	if windowSeconds < 0 {
		return nil, fmt.Errorf("%w: negative time window %d", ErrInvalidConfig, windowSeconds)
	}
	if len(referenceTrades) == 0 || len(suspectTrades) == 0 {
		return nil, nil
	}

	refs := sortedByTime(referenceTrades)
	sus := sortedByTime(suspectTrades)

	var events []*domain.SimilarityEvent
	start := 0
	for _, ref := range refs {
		// Abort between pair comparisons on cancellation.
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Slide the window start: suspects strictly before ref-window
		// can never match this or any later reference.
		for start < len(sus) && sus[start].Timestamp < ref.Timestamp-windowSeconds {
			start++
		}

		for j := start; j < len(sus) && sus[j].Timestamp <= ref.Timestamp+windowSeconds; j++ {
			ev := d.scorePair(ref, sus[j], windowSeconds)
			if ev.Score >= d.cfg.Threshold {
				events = append(events, ev)
			}
		}
	}

	return events, nil
}

// scorePair computes the weighted similarity of one trade pair.
// A direction mismatch zeroes the direction component but does not
// exclude the pair, so mismatched pairs can still clear a low threshold.
func (d *Detector) scorePair(ref, sus *domain.Trade, windowSeconds int64) *domain.SimilarityEvent {
	offset := sus.Timestamp - ref.Timestamp
	match := ref.Direction == sus.Direction

	var directionScore float64
	if match {
		directionScore = 1.0
	}

	// Linear decay from 1.0 at zero offset to 0.0 at the window boundary.
	// A zero-second window only matches exact timestamps, which score 1.
	timeScore := 1.0
	if windowSeconds > 0 {
		timeScore = 1.0 - math.Abs(float64(offset))/float64(windowSeconds)
	}

	score := d.cfg.DirectionWeight*directionScore +
		d.cfg.TimeWeight*timeScore +
		d.cfg.SizeWeight*sizeProximity(ref.BaseAmount, sus.BaseAmount)

	return &domain.SimilarityEvent{
		EventID:          idhash.ComputeSimilarityEventID(ref.TradeID, sus.TradeID),
		ReferenceAccount: ref.Account,
		SuspectAccount:   sus.Account,
		ReferenceTradeID: ref.TradeID,
		SuspectTradeID:   sus.TradeID,
		TimeOffset:       offset,
		DirectionMatch:   match,
		Score:            score,
	}
}

// sizeProximity returns 1 minus the normalized absolute difference of the
// base amounts: 1.0 for identical sizes, 0.0 when one side dwarfs the
// other. Two zero-size trades count as identical.
func sizeProximity(a, b decimal.Decimal) float64 {
	larger := decimal.Max(a, b)
	if larger.IsZero() {
		return 1.0
	}
	diff := a.Sub(b).Abs()
	p, _ := decimal.NewFromInt(1).Sub(diff.Div(larger)).Float64()
	return p
}

// sortedByTime returns a copy sorted by (timestamp ASC, trade id ASC) for
// deterministic output.
func sortedByTime(trades []*domain.Trade) []*domain.Trade {
	out := make([]*domain.Trade, len(trades))
	copy(out, trades)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp < out[j].Timestamp
		}
		return out[i].TradeID < out[j].TradeID
	})
	return out
}
