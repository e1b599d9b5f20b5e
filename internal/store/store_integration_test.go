//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/boompicks/pickengine/internal/domain"
	"github.com/boompicks/pickengine/internal/registry"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db := testDB(t)
	truncateAll(t, db)
	return New(db)
}

func TestSeedReferenceDataIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	reg := registry.NewDefaultLeagueRegistry()

	if err := s.SeedReferenceData(ctx, reg); err != nil {
		t.Fatalf("seed reference data: %v", err)
	}
	if err := s.SeedReferenceData(ctx, reg); err != nil {
		t.Fatalf("re-seeding reference data should be a no-op, got: %v", err)
	}

	leagueID, err := s.FindLeagueIDByName(ctx, s.DB(), "NBA")
	if err != nil {
		t.Fatalf("find league: %v", err)
	}
	if leagueID == 0 {
		t.Fatalf("expected a non-zero league id")
	}

	lookup := s.TeamLookup(s.DB())
	aliases, err := lookup.FindTeamAliasesByAlias(ctx, "lakers")
	if err != nil {
		t.Fatalf("find team aliases: %v", err)
	}
	if len(aliases) != 1 {
		t.Fatalf("expected exactly one alias match for 'lakers', got %d", len(aliases))
	}
}

func TestEventAndOddsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	reg := registry.NewDefaultLeagueRegistry()
	if err := s.SeedReferenceData(ctx, reg); err != nil {
		t.Fatalf("seed reference data: %v", err)
	}
	leagueID, err := s.FindLeagueIDByName(ctx, s.DB(), "NBA")
	if err != nil {
		t.Fatalf("find league: %v", err)
	}

	now := time.Now().UTC()
	rawID, err := s.InsertEventRaw(ctx, s.DB(), domain.EventRaw{
		Source: "mock", ExternalEventID: "evt-1", League: "NBA",
		StartTime: now.Add(5 * time.Minute), HomeTeam: "Lakers", AwayTeam: "Warriors",
	})
	if err != nil {
		t.Fatalf("insert event raw: %v", err)
	}

	normID, err := s.InsertEventNormalized(ctx, s.DB(), domain.EventNormalized{
		EventRawID: rawID, LeagueID: leagueID, StartTime: now.Add(5 * time.Minute),
		MappingConfidence: 1.0, Status: domain.EventScheduled,
	})
	if err != nil {
		t.Fatalf("insert event normalized: %v", err)
	}

	ids, err := s.InsertOddsSnapshots(ctx, s.DB(), []domain.OddsSnapshot{
		{EventRawID: rawID, Book: "book_a", Market: "h2h", Side: domain.SideHome, Price: -110, Timestamp: now, IsStale: false},
		{EventRawID: rawID, Book: "book_a", Market: "h2h", Side: domain.SideAway, Price: 100, Timestamp: now, IsStale: false},
	})
	if err != nil {
		t.Fatalf("insert odds snapshots: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 snapshot ids, got %d", len(ids))
	}

	if err := s.LinkOddsSnapshotsToEvent(ctx, s.DB(), rawID, normID); err != nil {
		t.Fatalf("link odds to event: %v", err)
	}

	fresh, err := s.FreshOddsForEvent(ctx, s.DB(), normID)
	if err != nil {
		t.Fatalf("fresh odds for event: %v", err)
	}
	if len(fresh) != 2 {
		t.Fatalf("expected 2 fresh odds rows, got %d", len(fresh))
	}
}

func TestPickClosingLineSettlementLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	reg := registry.NewDefaultLeagueRegistry()
	if err := s.SeedReferenceData(ctx, reg); err != nil {
		t.Fatalf("seed reference data: %v", err)
	}
	leagueID, _ := s.FindLeagueIDByName(ctx, s.DB(), "NBA")
	now := time.Now().UTC()

	rawID, _ := s.InsertEventRaw(ctx, s.DB(), domain.EventRaw{
		Source: "mock", ExternalEventID: "evt-2", League: "NBA",
		StartTime: now.Add(time.Hour), HomeTeam: "Lakers", AwayTeam: "Warriors",
	})
	normID, _ := s.InsertEventNormalized(ctx, s.DB(), domain.EventNormalized{
		EventRawID: rawID, LeagueID: leagueID, StartTime: now.Add(time.Hour),
		MappingConfidence: 1.0, Status: domain.EventScheduled,
	})
	ids, err := s.InsertOddsSnapshots(ctx, s.DB(), []domain.OddsSnapshot{
		{EventRawID: rawID, Book: "book_a", Market: "h2h", Side: domain.SideHome, Price: -110, Timestamp: now},
	})
	if err != nil {
		t.Fatalf("insert odds snapshot: %v", err)
	}

	featureID, err := s.InsertFeatureSnapshot(ctx, s.DB(), domain.FeatureSnapshot{
		EventNormalizedID: normID, FeatureVersion: domain.FeatureVersionV1,
		Features: map[string]float64{"home_court_advantage": 1.0}, ComputedAt: now,
	})
	if err != nil {
		t.Fatalf("insert feature snapshot: %v", err)
	}

	pickID, err := s.InsertPick(ctx, s.DB(), domain.Pick{
		PickLifecycleID: "11111111-1111-1111-1111-111111111111", OddsSnapshotID: ids[0],
		EventNormalizedID: normID, FeatureSnapshotID: featureID, ModelVersion: domain.ModelVersionBaseline,
		FeatureVersion: domain.FeatureVersionV1, Market: "h2h", Side: domain.SideHome, Book: "book_a",
		PickTimePrice: -110, DecimalOdds: 1.909, ImpliedProb: 0.524, MarketConsensusProb: 0.50,
		ModelProb: 0.56, ModelEdge: 0.06, EVPercent: 0.04, KellyFraction: 0.01, Tier: domain.TierB,
		CreatedAt: now, Status: domain.PickOpen,
	})
	if err != nil {
		t.Fatalf("insert pick: %v", err)
	}

	clID, err := s.InsertClosingLine(ctx, s.DB(), domain.ClosingLine{
		PickID: pickID, ClosePrice: -115, CloseImpliedProb: 0.535, CapturedAt: now,
	})
	if err != nil {
		t.Fatalf("insert closing line: %v", err)
	}
	if clID == 0 {
		t.Fatalf("expected a non-zero closing line id")
	}

	if _, err := s.InsertSettlement(ctx, s.DB(), domain.Settlement{
		PickID: pickID, Result: domain.ResultWin, SettledAt: now,
		PnL: 0.909, ROI: 0.04, SettlementSource: domain.SettlementSourceSimulated,
	}); err != nil {
		t.Fatalf("insert settlement: %v", err)
	}

	picks, err := s.PicksForDay(ctx, s.DB(), now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("picks for day: %v", err)
	}
	if len(picks) != 1 {
		t.Fatalf("expected 1 pick, got %d", len(picks))
	}

	summary, err := s.CLVMetrics(ctx, s.DB())
	if err != nil {
		t.Fatalf("clv metrics: %v", err)
	}
	if summary.SettledCount != 1 {
		t.Fatalf("expected 1 settled pick, got %d", summary.SettledCount)
	}
}

func TestRunTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.RunTx(ctx, func(q Querier) error {
		if _, err := q.ExecContext(ctx, `INSERT INTO leagues (name) VALUES ($1)`, "Temporary League"); err != nil {
			return err
		}
		return domain.ErrInternal("force rollback", nil)
	})
	if err == nil {
		t.Fatalf("expected RunTx to return the inner error")
	}

	id, err := s.FindLeagueIDByName(ctx, s.DB(), "Temporary League")
	if err == nil {
		t.Fatalf("expected the league insert to have been rolled back, found id %d", id)
	}
}

func TestInsertPipelineRunAndLatest(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	now := time.Now().UTC()

	runID, err := s.InsertPipelineRun(ctx, s.DB(), domain.PipelineRun{
		StartedAt: now, FinishedAt: now.Add(time.Second), LatencySeconds: 1.0,
		FreshnessSeconds: 5.0, CloseLineCoverage: 1.0, MappingAnomalyRate: 0.0,
		QuarantineCount: 0, Metadata: map[string]any{"events_processed": 1.0},
	})
	if err != nil {
		t.Fatalf("insert pipeline run: %v", err)
	}

	latest, err := s.LatestPipelineRun(ctx, s.DB())
	if err != nil {
		t.Fatalf("latest pipeline run: %v", err)
	}
	if latest == nil || latest.ID != runID {
		t.Fatalf("expected latest run to be the one just inserted")
	}
}
