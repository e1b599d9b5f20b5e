// Package features builds the deterministic pre-game feature record used by
// the model scorer. Grounded on the exact field list and baseline constants
// of the original Python pipeline's feature builder; the contract is that
// the same (event, as_of) pair always returns the same record.
package features

import "time"

const Version = "v1"

// Record is the fixed-schema pre-game feature vector.
type Record struct {
	EventID              int64
	AsOf                 time.Time
	TeamWinLossHomeAway  float64
	RecentFormLastN      float64
	HeadToHead           float64
	RestDaysDensity      float64
	OffDefEfficiency     float64
	HomeCourtAdvantage   float64
}

// Map projects the record into the canonical column order expected by the
// ModelScorer and the persisted features_json blob.
func (r Record) Map() map[string]float64 {
	return map[string]float64{
		"team_win_loss_home_away": r.TeamWinLossHomeAway,
		"recent_form_last_n":      r.RecentFormLastN,
		"head_to_head":            r.HeadToHead,
		"rest_days_density":       r.RestDaysDensity,
		"off_def_efficiency":      r.OffDefEfficiency,
		"home_court_advantage":    r.HomeCourtAdvantage,
	}
}

// CanonicalOrder is the fixed column order the ModelScorer projects feature
// rows onto.
var CanonicalOrder = []string{
	"team_win_loss_home_away",
	"recent_form_last_n",
	"head_to_head",
	"rest_days_density",
	"off_def_efficiency",
	"home_court_advantage",
}

// Build returns the deterministic baseline feature record for an event as of
// a given timestamp. The current core does not yet compute these from real
// historical data; the values are fixed baseline constants, matching the
// reference implementation this was built from.
func Build(eventID int64, asOf time.Time) Record {
	return Record{
		EventID:             eventID,
		AsOf:                asOf,
		TeamWinLossHomeAway: 0.52,
		RecentFormLastN:     0.5,
		HeadToHead:          0.5,
		RestDaysDensity:     0.0,
		OffDefEfficiency:    0.0,
		HomeCourtAdvantage:  1.0,
	}
}
