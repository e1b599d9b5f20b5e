// Package normalizer resolves raw provider team strings to canonical team
// identities and classifies the mapping quality of an event, gating it into
// scheduled or quarantined status. Grounded on the teacher's own
// sports/basketball_nba validation (a single static alias map) generalized
// into a persistence-backed alias table lookup.
package normalizer

import (
	"context"
	"strings"
	"time"

	"github.com/boompicks/pickengine/internal/domain"
)

// TeamLookup is the read surface the Normalizer needs from the persistence
// façade. Kept narrow and local so this package has no dependency on the
// concrete store implementation.
type TeamLookup interface {
	FindTeamAliasesByAlias(ctx context.Context, alias string) ([]domain.TeamAlias, error)
	FindTeamByNormalizedName(ctx context.Context, normalizedName string) (*domain.Team, error)
}

// Resolution is the outcome of resolving a single raw team string.
type Resolution struct {
	TeamID             *int64
	Confidence         float64
	ExactAliasMatch    bool
	MultipleCandidates bool
}

// Normalizer resolves team names and classifies events, backed by a
// TeamLookup into the alias/team reference tables.
type Normalizer struct {
	lookup                        TeamLookup
	mappingTimeToleranceMinutes   float64
	mappingConfidenceThreshold    float64
}

func New(lookup TeamLookup, mappingTimeToleranceMinutes float64, mappingConfidenceThreshold float64) *Normalizer {
	return &Normalizer{
		lookup:                      lookup,
		mappingTimeToleranceMinutes: mappingTimeToleranceMinutes,
		mappingConfidenceThreshold:  mappingConfidenceThreshold,
	}
}

// ResolveTeam implements the four-step alias/name lookup algorithm.
func (n *Normalizer) ResolveTeam(ctx context.Context, rawName string) (Resolution, error) {
	lowered := strings.ToLower(strings.TrimSpace(rawName))

	aliases, err := n.lookup.FindTeamAliasesByAlias(ctx, lowered)
	if err != nil {
		return Resolution{}, domain.ErrPersistence("lookup team alias", err)
	}
	if len(aliases) > 1 {
		return Resolution{MultipleCandidates: true}, nil
	}
	if len(aliases) == 1 {
		teamID := aliases[0].TeamID
		return Resolution{TeamID: &teamID, Confidence: 1.0, ExactAliasMatch: true}, nil
	}

	team, err := n.lookup.FindTeamByNormalizedName(ctx, lowered)
	if err != nil {
		return Resolution{}, domain.ErrPersistence("lookup team by normalized name", err)
	}
	if team != nil {
		id := team.ID
		return Resolution{TeamID: &id, Confidence: 1.0}, nil
	}

	return Resolution{}, nil
}

// EventClassification is the result of NormalizeEvent: the resolved team
// ids (if any), the overall mapping confidence and the gated status.
type EventClassification struct {
	HomeTeamID        *int64
	AwayTeamID        *int64
	MappingConfidence float64
	Status            domain.EventStatus
	QuarantineReason  string
}

// NormalizeEvent resolves both team names, folds in a time-plausibility
// check against now, and gates the event to scheduled or quarantined.
func (n *Normalizer) NormalizeEvent(ctx context.Context, startTime, now time.Time, homeRaw, awayRaw string) (EventClassification, error) {
	home, err := n.ResolveTeam(ctx, homeRaw)
	if err != nil {
		return EventClassification{}, err
	}
	away, err := n.ResolveTeam(ctx, awayRaw)
	if err != nil {
		return EventClassification{}, err
	}

	if home.MultipleCandidates || away.MultipleCandidates {
		return EventClassification{
			Status:           domain.EventQuarantined,
			QuarantineReason: domain.ReasonMultipleCandidates,
		}, nil
	}

	if home.TeamID == nil || away.TeamID == nil {
		return EventClassification{
			Status:           domain.EventQuarantined,
			QuarantineReason: domain.ReasonNoAliasMatch,
		}, nil
	}

	timeConfidence, timeReason := n.timeConfidence(startTime, now)

	bothExact := home.ExactAliasMatch || home.Confidence == 1.0
	bothExact = bothExact && (away.ExactAliasMatch || away.Confidence == 1.0)

	var mappingConfidence float64
	switch {
	case bothExact && timeConfidence == 1.0:
		mappingConfidence = 1.0
	case timeConfidence == 0.8:
		mappingConfidence = 0.8
	default:
		mappingConfidence = 0.0
	}

	classification := EventClassification{
		HomeTeamID:        home.TeamID,
		AwayTeamID:        away.TeamID,
		MappingConfidence: mappingConfidence,
		Status:            domain.EventScheduled,
	}

	if mappingConfidence < n.mappingConfidenceThreshold {
		classification.Status = domain.EventQuarantined
		if timeReason != "" {
			classification.QuarantineReason = timeReason
		} else {
			classification.QuarantineReason = domain.ReasonLowMappingConfidence
		}
	}

	return classification, nil
}

// timeConfidence implements the tiered time-plausibility check: within T
// minutes of now scores 1.0, within 4T scores 0.8 with a TIME_MISMATCH
// reason, otherwise 0.0 with the same reason.
func (n *Normalizer) timeConfidence(startTime, now time.Time) (float64, string) {
	diffMinutes := startTime.Sub(now).Minutes()
	if diffMinutes < 0 {
		diffMinutes = -diffMinutes
	}
	t := n.mappingTimeToleranceMinutes
	switch {
	case diffMinutes <= t:
		return 1.0, ""
	case diffMinutes <= 4*t:
		return 0.8, domain.ReasonTimeMismatch
	default:
		return 0.0, domain.ReasonTimeMismatch
	}
}
