package domain

import "time"

// League is reference data seeded once and never mutated.
type League struct {
	ID   int64
	Name string
}

// Team is reference data; NormalizedName is the lowercase canonical form.
type Team struct {
	ID             int64
	NormalizedName string
}

// TeamAlias maps a raw, lowercased provider string to a Team.
type TeamAlias struct {
	ID         int64
	Alias      string
	TeamID     int64
	Source     string
	Confidence float64
}

// ProviderOddsLine is one bookmaker quote as delivered by the odds provider.
type ProviderOddsLine struct {
	Book      string
	Market    string
	Side      Side
	Price     int
	Timestamp time.Time
}

// ProviderEvent is the provider payload shape for a single event.
type ProviderEvent struct {
	Source          string
	ExternalEventID string
	League          string
	StartTime       time.Time
	HomeTeam        string
	AwayTeam        string
	Odds            []ProviderOddsLine
}

// EventRaw is an immutable snapshot of a provider payload.
type EventRaw struct {
	ID              int64
	Source          string
	ExternalEventID string
	League          string
	StartTime       time.Time
	HomeTeam        string
	AwayTeam        string
}

// EventNormalized is the resolved, gated view of an EventRaw.
type EventNormalized struct {
	ID                int64
	EventRawID        int64
	LeagueID          int64
	StartTime         time.Time
	HomeTeamID        *int64
	AwayTeamID        *int64
	MappingConfidence float64
	Status            EventStatus
	QuarantineReason  *string
}

// OddsSnapshot is an immutable odds quote tagged with staleness at write time.
type OddsSnapshot struct {
	ID                 int64
	EventRawID         int64
	EventNormalizedID  *int64
	Book               string
	Market             string
	Side               Side
	Price              int
	Timestamp          time.Time
	IsStale            bool
}

// MarketConsensus is the de-vigged home probability at the time an event
// passed the consensus gate.
type MarketConsensus struct {
	ID                int64
	EventNormalizedID int64
	Market            string
	ConsensusProb     float64
	ConsensusPrice    float64
	Timestamp         time.Time
}

// FeatureSnapshot is one deterministic pre-game feature record per event per run.
type FeatureSnapshot struct {
	ID                int64
	EventNormalizedID int64
	FeatureVersion    string
	Features          map[string]float64
	ComputedAt        time.Time
}

// ModelArtifact references a serialized, trained model.
type ModelArtifact struct {
	ID             int64
	ModelVersion   string
	TrainedAt      time.Time
	TrainingWindow string
	Metrics        map[string]float64
	ArtifactPath   string
}

// Pick is an emitted value opportunity, immutable except Status.
type Pick struct {
	ID                 int64
	PickLifecycleID    string
	OddsSnapshotID     int64
	EventNormalizedID  int64
	FeatureSnapshotID  int64
	ModelVersion       string
	FeatureVersion     string
	Market             string
	Side               Side
	Book               string
	PickTimePrice      int
	DecimalOdds        float64
	ImpliedProb        float64
	MarketConsensusProb float64
	ModelProb          float64
	ModelEdge          float64
	EVPercent          float64
	KellyFraction      float64
	Tier               Tier
	CreatedAt          time.Time
	Status             PickStatus
}

// ClosingLine is at most one per Pick.
type ClosingLine struct {
	ID                      int64
	PickID                  int64
	ClosePrice              int
	CloseImpliedProb        float64
	CapturedAt              time.Time
	MarketCloseConsensus    *float64
	ClosingLineSnapshotID   *int64
	CloseBookPrice          *int
	CloseBookImpliedProb    *float64
	CloseMarketConsensusProb *float64
}

// Settlement is at most one per Pick.
type Settlement struct {
	ID                int64
	PickID            int64
	Result            ResultType
	SettledAt         time.Time
	PnL               float64
	ROI               float64
	CLVMarket         *float64
	CLVBook           *float64
	SettlementSource  string
}

// PipelineRun is the per-run telemetry record, written last.
type PipelineRun struct {
	ID                  int64
	StartedAt           time.Time
	FinishedAt          time.Time
	LatencySeconds      float64
	FreshnessSeconds    float64
	CloseLineCoverage   float64
	MappingAnomalyRate  float64
	QuarantineCount     int
	Metadata            map[string]any
}

// RunSummary is returned to callers of RunOnce.
type RunSummary struct {
	QuarantineCount     int            `json:"quarantine_count"`
	TotalPicks           int            `json:"total_picks"`
	EventsProcessed      int            `json:"events_processed"`
	PicksEmittedThisRun  int            `json:"picks_emitted_this_run"`
	BlockReasons         map[string]int `json:"block_reasons"`
	NoPicksReason        string         `json:"no_picks_reason,omitempty"`
	RunID                int64          `json:"run_id"`
}
