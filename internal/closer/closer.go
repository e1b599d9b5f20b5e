// Package closer selects the closing line for an emitted pick and computes
// its closing-line value. Adapted from the teacher's
// internal/closer/capturer.go: that file polled events.event_status on a
// ticker and captured every odds_raw row marked is_latest once an event
// went live, then published a Redis stream event. This system has no
// in-play polling loop (pre-game only, a single batch run), so the same
// "capture the most relevant recent line" concern is restructured into a
// deterministic, synchronous selection the PipelineEngine calls once per
// pick inside its run transaction rather than an async side effect.
package closer

import (
	"time"

	"github.com/boompicks/pickengine/internal/consensus"
	"github.com/boompicks/pickengine/internal/domain"
)

// Window returns the closing-capture window bounds for an event:
// [start-closeCaptureWindow, start].
func Window(eventStart time.Time, closeCaptureWindow time.Duration) (windowStart, windowEnd time.Time) {
	return eventStart.Add(-closeCaptureWindow), eventStart
}

// SelectClosingLine filters lines to the pick's own book and side within the
// closing window and returns the one with the latest timestamp. ok is false
// if none qualify, meaning the pick gets no ClosingLine or Settlement this
// run.
func SelectClosingLine(lines []domain.OddsSnapshot, book string, side domain.Side, eventStart time.Time, closeCaptureWindow time.Duration) (domain.OddsSnapshot, bool) {
	windowStart, windowEnd := Window(eventStart, closeCaptureWindow)

	var best domain.OddsSnapshot
	found := false
	for _, line := range lines {
		if line.Book != book || line.Side != side {
			continue
		}
		if line.Timestamp.Before(windowStart) || line.Timestamp.After(windowEnd) {
			continue
		}
		if !found || line.Timestamp.After(best.Timestamp) {
			best = line
			found = true
		}
	}
	return best, found
}

// ClosingConsensus rebuilds market consensus restricted to lines whose
// timestamp falls in the same closing window as the selected closing line.
// Returns nil if no consensus could be built from that restricted set.
func ClosingConsensus(lines []domain.OddsSnapshot, eventStart time.Time, closeCaptureWindow time.Duration, opts consensus.Options) *float64 {
	windowStart, windowEnd := Window(eventStart, closeCaptureWindow)

	var windowed []consensus.Line
	for _, line := range lines {
		if line.Timestamp.Before(windowStart) || line.Timestamp.After(windowEnd) {
			continue
		}
		windowed = append(windowed, consensus.Line{
			Book:      line.Book,
			Side:      line.Side,
			Price:     line.Price,
			Timestamp: line.Timestamp,
			IsStale:   line.IsStale,
		})
	}

	decision := consensus.BuildMarketConsensus(windowed, opts)
	if decision.Result == nil {
		return nil
	}
	prob := decision.Result.HomeProb
	return &prob
}

// CLV computes closing-line-value: the difference between closing implied
// probability and the pick's own implied probability, at the book level and
// at the market-consensus level. clvMarket is nil when no closing consensus
// could be built.
func CLV(closeBookImpliedProb, pickImpliedProb float64, closeMarketConsensusProb *float64) (clvBook float64, clvMarket *float64) {
	clvBook = closeBookImpliedProb - pickImpliedProb
	if closeMarketConsensusProb == nil {
		return clvBook, nil
	}
	m := *closeMarketConsensusProb - pickImpliedProb
	return clvBook, &m
}

// SimulatedSettlement builds the settlement row persisted for every
// ClosingLine: an unconditional win, enabling CLV/ROI telemetry ahead of a
// real outcome feed. A production settlement source would replace Result
// with an outcome-driven value and keep this same shape.
func SimulatedSettlement(pickID int64, decimalOdds, evPercent float64, clvMarket, clvBook *float64, settledAt time.Time) domain.Settlement {
	return domain.Settlement{
		PickID:           pickID,
		Result:           domain.ResultWin,
		SettledAt:        settledAt,
		PnL:              decimalOdds - 1,
		ROI:              evPercent,
		CLVMarket:        clvMarket,
		CLVBook:          clvBook,
		SettlementSource: domain.SettlementSourceSimulated,
	}
}
