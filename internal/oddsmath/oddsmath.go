// Package oddsmath implements the pure numeric conversions the rest of the
// pipeline builds on: American/decimal/implied-probability conversion, vig
// removal, EV%, and Kelly fraction. Every function here is stateless and
// operates on already-coerced float64/int inputs; no rounding is applied.
package oddsmath

import "github.com/boompicks/pickengine/internal/domain"

// AmericanToDecimal converts an American odds price to decimal odds.
func AmericanToDecimal(american int) float64 {
	if american > 0 {
		return float64(american)/100.0 + 1.0
	}
	return 100.0/float64(-american) + 1.0
}

// DecimalToImpliedProb converts decimal odds to an implied probability.
func DecimalToImpliedProb(decimal float64) float64 {
	return 1.0 / decimal
}

// AmericanToImpliedProb composes AmericanToDecimal and DecimalToImpliedProb.
func AmericanToImpliedProb(american int) float64 {
	return DecimalToImpliedProb(AmericanToDecimal(american))
}

// RemoveVigTwoWay strips the bookmaker margin from a two-way market by
// normalizing both implied probabilities so they sum to 1.0. The caller must
// ensure pA+pB is positive; a non-positive sum is a caller error, not a data
// condition the book can be blamed for.
func RemoveVigTwoWay(pA, pB float64) (float64, float64, error) {
	total := pA + pB
	if total <= 0 {
		return 0, 0, domain.ErrInvalidInput("remove_vig_two_way: probabilities must sum to a positive value")
	}
	return pA / total, pB / total, nil
}

// EVPercent is the expected value per unit staked at decimal odds d, given a
// win probability p.
func EVPercent(p, decimal float64) float64 {
	return p*decimal - 1.0
}

// FullKelly is the unconstrained Kelly Criterion stake fraction.
func FullKelly(p, decimal float64) float64 {
	return (p*decimal - 1.0) / (decimal - 1.0)
}

// QuarterKelly applies a quarter-Kelly fraction and floors at zero: the
// pipeline never recommends shorting a book.
func QuarterKelly(p, decimal float64) float64 {
	k := FullKelly(p, decimal) * 0.25
	if k < 0 {
		return 0
	}
	return k
}
