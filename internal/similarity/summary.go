package similarity

import "copytrade-engine/internal/domain"

// ScanSummary condenses a scan's emitted pairs for one suspect account.
type ScanSummary struct {
	SuspectAccount   string
	PairCount        int
	DirectionMatches int
	AvgScore         float64
	MaxScore         float64
}

// Summarize averages emitted pairs per suspect account. Consumers that
// need a single figure per suspect use this instead of the raw pair list;
// the pairs themselves are intentionally not deduplicated.
func Summarize(events []*domain.SimilarityEvent) map[string]*ScanSummary {
	out := make(map[string]*ScanSummary)
	for _, ev := range events {
		s := out[ev.SuspectAccount]
		if s == nil {
			s = &ScanSummary{SuspectAccount: ev.SuspectAccount}
			out[ev.SuspectAccount] = s
		}
		s.PairCount++
		if ev.DirectionMatch {
			s.DirectionMatches++
		}
		// Running mean over pair scores.
		s.AvgScore += (ev.Score - s.AvgScore) / float64(s.PairCount)
		if ev.Score > s.MaxScore {
			s.MaxScore = ev.Score
		}
	}
	return out
}
