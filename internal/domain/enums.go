package domain

// EventStatus is the lifecycle state of a normalized event.
type EventStatus string

const (
	EventScheduled   EventStatus = "scheduled"
	EventQuarantined EventStatus = "quarantined"
	EventSettled     EventStatus = "settled"
)

// PickStatus tracks whether a pick has been settled.
type PickStatus string

const (
	PickOpen    PickStatus = "open"
	PickSettled PickStatus = "settled"
)

// ResultType is the outcome of a settled pick.
type ResultType string

const (
	ResultWin  ResultType = "W"
	ResultLoss ResultType = "L"
	ResultPush ResultType = "P"
)

// Side identifies which side of a two-way market a price belongs to.
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

// Tier buckets a pick by the size of its model edge.
type Tier string

const (
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
)

// ConfidenceTier classifies model_edge into a tier per invariant 5: tier A
// requires edge >= 0.07, B requires 0.05 <= edge < 0.07, everything else is C.
func ConfidenceTier(modelEdge float64) Tier {
	switch {
	case modelEdge >= 0.07:
		return TierA
	case modelEdge >= 0.05:
		return TierB
	default:
		return TierC
	}
}

// Quarantine reasons recorded on EventNormalized and surfaced as block reasons.
const (
	ReasonNoAliasMatch         = "NO_ALIAS_MATCH"
	ReasonMultipleCandidates   = "MULTIPLE_CANDIDATES"
	ReasonTimeMismatch         = "TIME_MISMATCH"
	ReasonLowMappingConfidence = "LOW_MAPPING_CONFIDENCE"
	ReasonInsufficientBooks    = "INSUFFICIENT_BOOKS"
	ReasonIncompleteTwoWay     = "INCOMPLETE_TWO_WAY_MARKET"
	ReasonInvalidBookWeights   = "INVALID_BOOK_WEIGHTS"
	ReasonNoFreshOdds          = "NO_FRESH_ODDS"
	ReasonEdgeBelowThreshold   = "EDGE_BELOW_THRESHOLD"
	ReasonNoHomeSideLine       = "NO_HOME_SIDE_LINE"
	ReasonNoEligibleEvents     = "NO_ELIGIBLE_EVENTS"
)

const (
	SettlementSourceSimulated = "simulated"
	ModelVersionBaseline      = "baseline-default"
	BaselineModelProb         = 0.56
	FeatureVersionV1          = "v1"
)
