// Package consensus aggregates per-book two-way prices into a single
// de-vigged probability, applying freshness, book-count, and outlier guards.
// Grounded on the distilled consensus algorithm in the original Python
// pipeline, extended with the min-books/outlier-trim/book-weight machinery
// this system requires; the simpler original is not reproduced verbatim.
package consensus

import (
	"sort"
	"time"

	"github.com/boompicks/pickengine/internal/domain"
	"github.com/boompicks/pickengine/internal/oddsmath"
)

// Line is a single bookmaker quote considered for consensus. Only
// non-stale lines should be passed in; BuildMarketConsensus drops any
// stragglers defensively.
type Line struct {
	Book      string
	Side      domain.Side
	Price     int
	Timestamp time.Time
	IsStale   bool
}

// Result is the outcome of a successful consensus build.
type Result struct {
	HomeProb       float64
	AwayProb       float64
	HomeImpliedOdd float64
	BooksUsed      int
}

// Decision is either a Result or a MissingReason explaining why no result
// could be produced.
type Decision struct {
	Result        *Result
	MissingReason string
}

const minBooksForOutlierTrim = 6

// Options configures a single BuildMarketConsensus call.
type Options struct {
	MinBooks     int
	TrimOutliers bool
	BookWeights  map[string]float64
}

// BuildMarketConsensus implements the eight-step consensus algorithm:
// drop stale lines, group by book keeping only books with both sides
// present, gate on book count, remove vig per book, optionally trim
// outliers, apply book weights, and return the weighted mean.
func BuildMarketConsensus(lines []Line, opts Options) Decision {
	order := []string{}
	byBook := map[string]map[domain.Side]int{}

	for _, l := range lines {
		if l.IsStale {
			continue
		}
		m, ok := byBook[l.Book]
		if !ok {
			m = map[domain.Side]int{}
			byBook[l.Book] = m
			order = append(order, l.Book)
		}
		m[l.Side] = l.Price
	}

	threshold := opts.MinBooks
	if threshold <= 0 {
		threshold = 1
	}

	if len(order) < threshold {
		return Decision{MissingReason: domain.ReasonInsufficientBooks}
	}

	usableBooks := make([]string, 0, len(order))
	for _, book := range order {
		m := byBook[book]
		if _, hasHome := m[domain.SideHome]; hasHome {
			if _, hasAway := m[domain.SideAway]; hasAway {
				usableBooks = append(usableBooks, book)
			}
		}
	}

	if len(usableBooks) < threshold {
		return Decision{MissingReason: domain.ReasonIncompleteTwoWay}
	}

	homeProbs := make([]float64, 0, len(usableBooks))
	awayProbs := make([]float64, 0, len(usableBooks))

	for _, book := range usableBooks {
		m := byBook[book]
		homeImplied := oddsmath.AmericanToImpliedProb(m[domain.SideHome])
		awayImplied := oddsmath.AmericanToImpliedProb(m[domain.SideAway])
		fairHome, fairAway, err := oddsmath.RemoveVigTwoWay(homeImplied, awayImplied)
		if err != nil {
			// A non-positive implied-probability sum cannot occur from real
			// American prices, but treat it as an incomplete market rather
			// than panicking on malformed input.
			return Decision{MissingReason: domain.ReasonIncompleteTwoWay}
		}
		homeProbs = append(homeProbs, fairHome)
		awayProbs = append(awayProbs, fairAway)
	}

	if opts.TrimOutliers && len(homeProbs) >= minBooksForOutlierTrim {
		homeProbs = trimLowHigh(homeProbs)
		awayProbs = trimLowHigh(awayProbs)
	}

	// Weights are aligned positionally to usableBooks[0:len(homeProbs)], per
	// spec step 7, not to whichever book's probability sorted into that
	// index after trimLowHigh — trimming intentionally discards the
	// book/probability correspondence.
	weights := make([]float64, len(homeProbs))
	for i := range weights {
		weight := 1.0
		if i < len(usableBooks) {
			if w, ok := opts.BookWeights[usableBooks[i]]; ok {
				weight = w
			}
		}
		weights[i] = weight
	}

	weightSum := 0.0
	for _, w := range weights {
		weightSum += w
	}
	if weightSum <= 0 {
		return Decision{MissingReason: domain.ReasonInvalidBookWeights}
	}

	homeMean := weightedMean(homeProbs, weights)
	awayMean := weightedMean(awayProbs, weights)

	return Decision{
		Result: &Result{
			HomeProb:       homeMean,
			AwayProb:       awayMean,
			HomeImpliedOdd: 1.0 / homeMean,
			BooksUsed:      len(homeProbs),
		},
	}
}

// trimLowHigh sorts ascending and drops the single lowest and highest
// values, returning a new slice in ascending order.
func trimLowHigh(values []float64) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if len(sorted) <= 2 {
		return sorted
	}
	return sorted[1 : len(sorted)-1]
}

func weightedMean(values, weights []float64) float64 {
	sumProduct := 0.0
	sumWeights := 0.0
	for i, v := range values {
		w := 1.0
		if i < len(weights) {
			w = weights[i]
		}
		sumProduct += v * w
		sumWeights += w
	}
	if sumWeights == 0 {
		return 0
	}
	return sumProduct / sumWeights
}
