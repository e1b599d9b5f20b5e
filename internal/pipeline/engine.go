// Package pipeline implements the PipelineEngine: the per-run orchestrator
// that ingests a provider sweep, normalizes and gates each event, builds
// market consensus and features, scores a model, and emits picks through
// closing-line capture and simulated settlement. Grounded on
// original_source/backend/app/services/pipeline.py's run_once step-by-step
// orchestration, restructured into the teacher's scheduler-loop shape
// (internal/scheduler/scheduler.go's per-stage timing,
// internal/writer/writer.go's transactional batched-write pattern) instead
// of the original's single ORM session.
package pipeline

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/boompicks/pickengine/internal/closer"
	"github.com/boompicks/pickengine/internal/config"
	"github.com/boompicks/pickengine/internal/consensus"
	"github.com/boompicks/pickengine/internal/domain"
	"github.com/boompicks/pickengine/internal/features"
	"github.com/boompicks/pickengine/internal/lock"
	"github.com/boompicks/pickengine/internal/logging"
	"github.com/boompicks/pickengine/internal/modelscorer"
	"github.com/boompicks/pickengine/internal/normalizer"
	"github.com/boompicks/pickengine/internal/oddsmath"
	"github.com/boompicks/pickengine/internal/provider"
	"github.com/boompicks/pickengine/internal/registry"
	"github.com/boompicks/pickengine/internal/store"
	"github.com/boompicks/pickengine/internal/streaming"
)

// Engine is the PipelineEngine: everything RunOnce needs that outlives a
// single run (persistence, the run lock, the model scorer, config, logging
// and stream publishing), constructed once at process startup.
type Engine struct {
	Store      *store.Store
	Lock       *lock.RunLock
	Scorer     *modelscorer.Scorer
	Publisher  *streaming.Publisher
	Registry   *registry.LeagueRegistry
	Config     *config.Config
	Log        zerolog.Logger
	Now        func() time.Time
	NewLifeID  func() string
}

// New constructs an Engine from its component parts. Now and NewLifeID
// default to time.Now and uuid.NewString when left nil, so tests can
// substitute deterministic values.
func New(st *store.Store, runLock *lock.RunLock, scorer *modelscorer.Scorer, pub *streaming.Publisher, reg *registry.LeagueRegistry, cfg *config.Config, log zerolog.Logger) *Engine {
	return &Engine{
		Store:     st,
		Lock:      runLock,
		Scorer:    scorer,
		Publisher: pub,
		Registry:  reg,
		Config:    cfg,
		Log:       log,
		Now:       time.Now,
		NewLifeID: uuid.NewString,
	}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) newLifecycleID() string {
	if e.NewLifeID != nil {
		return e.NewLifeID()
	}
	return uuid.NewString()
}

// eventTally accumulates per-run telemetry as RunOnce walks each event.
type eventTally struct {
	eventsProcessed   int
	quarantineCount   int
	blockReasons      map[string]int
	picksEmitted      int
	closeLinesTotal   int
	freshnessSumSecs  float64
	freshnessSamples  int
	latencies         []float64
}

func newEventTally() *eventTally {
	return &eventTally{blockReasons: map[string]int{}}
}

func (t *eventTally) block(reason string) {
	t.blockReasons[reason]++
}

// RunOnce executes exactly one pipeline sweep against provider, per §4.6.
func (e *Engine) RunOnce(ctx context.Context, prov provider.Provider) (domain.RunSummary, error) {
	startedAt := e.now()

	handle, err := e.Lock.Acquire(ctx)
	if err != nil {
		return domain.RunSummary{}, err
	}
	defer func() {
		if releaseErr := e.Lock.Release(ctx, handle); releaseErr != nil {
			e.Log.Error().Err(releaseErr).Msg("release run lock")
		}
	}()

	if err := e.Store.SeedReferenceData(ctx, e.Registry); err != nil {
		return domain.RunSummary{}, err
	}

	events, err := prov.FetchEvents(ctx)
	if err != nil {
		return domain.RunSummary{}, domain.ErrTransport("fetch provider events", err)
	}

	tally := newEventTally()
	var totalPicksCumulative int64
	var runID int64

	txErr := e.Store.RunTx(ctx, func(q store.Querier) error {
		lookup := e.Store.TeamLookup(q)
		norm := normalizer.New(lookup,
			float64(e.Config.MappingTimeToleranceMinutes),
			e.Config.MappingConfidenceThreshold)

		for _, evt := range events {
			if err := e.processEvent(ctx, q, norm, evt, tally); err != nil {
				return err
			}
			tally.latencies = append(tally.latencies, e.now().Sub(startedAt).Seconds())
		}

		totalPicks, err := store.Count(ctx, q, `SELECT COUNT(*) FROM picks`)
		if err != nil {
			return err
		}
		totalPicksCumulative = totalPicks

		totalCloseLines, err := store.Count(ctx, q, `SELECT COUNT(*) FROM closing_lines`)
		if err != nil {
			return err
		}

		finishedAt := e.now()
		freshness := 0.0
		if tally.freshnessSamples > 0 {
			freshness = tally.freshnessSumSecs / float64(tally.freshnessSamples)
		}
		coverage := 0.0
		if totalPicksCumulative > 0 {
			coverage = float64(totalCloseLines) / float64(totalPicksCumulative)
		}
		mappingAnomalyRate := 0.0
		if tally.eventsProcessed > 0 {
			mappingAnomalyRate = float64(tally.quarantineCount) / float64(tally.eventsProcessed)
		}

		run := domain.PipelineRun{
			StartedAt:          startedAt,
			FinishedAt:         finishedAt,
			LatencySeconds:      finishedAt.Sub(startedAt).Seconds(),
			FreshnessSeconds:    freshness,
			CloseLineCoverage:   coverage,
			MappingAnomalyRate:  mappingAnomalyRate,
			QuarantineCount:     tally.quarantineCount,
			Metadata: map[string]any{
				"events_processed": tally.eventsProcessed,
				"picks_emitted":    tally.picksEmitted,
				"block_reasons":    tally.blockReasons,
				"p50_latency":      percentile50(tally.latencies),
				"p95_latency":      percentile95(tally.latencies),
			},
		}
		runID, err = e.Store.InsertPipelineRun(ctx, q, run)
		return err
	})
	if txErr != nil {
		return domain.RunSummary{}, txErr
	}

	summary := domain.RunSummary{
		QuarantineCount:     tally.quarantineCount,
		TotalPicks:          int(totalPicksCumulative),
		EventsProcessed:     tally.eventsProcessed,
		PicksEmittedThisRun: tally.picksEmitted,
		BlockReasons:        tally.blockReasons,
		RunID:               runID,
	}
	if tally.picksEmitted == 0 {
		summary.NoPicksReason = mostFrequentReason(tally.blockReasons)
	}
	return summary, nil
}

// percentile50 mirrors the original pipeline's statistics.median(latencies).
func percentile50(latencies []float64) float64 {
	if len(latencies) == 0 {
		return 0
	}
	sorted := append([]float64(nil), latencies...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// percentile95 mirrors the original pipeline's
// sorted(latencies)[int(len(latencies) * 0.95) - 1].
func percentile95(latencies []float64) float64 {
	if len(latencies) == 0 {
		return 0
	}
	sorted := append([]float64(nil), latencies...)
	sort.Float64s(sorted)
	idx := int(float64(len(sorted))*0.95) - 1
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}

func mostFrequentReason(reasons map[string]int) string {
	best := ""
	bestCount := 0
	for reason, count := range reasons {
		if count > bestCount {
			best = reason
			bestCount = count
		}
	}
	if best == "" {
		return domain.ReasonNoEligibleEvents
	}
	return best
}

// processEvent runs one provider event through steps 3a-q. Any error
// returned aborts the whole run transaction; gate failures are recorded in
// tally and return nil so the loop continues to the next event.
func (e *Engine) processEvent(ctx context.Context, q store.Querier, norm *normalizer.Normalizer, evt domain.ProviderEvent, tally *eventTally) error {
	tally.eventsProcessed++
	now := e.now()

	rawID, err := e.Store.InsertEventRaw(ctx, q, domain.EventRaw{
		Source:          evt.Source,
		ExternalEventID: evt.ExternalEventID,
		League:          evt.League,
		StartTime:       evt.StartTime,
		HomeTeam:        evt.HomeTeam,
		AwayTeam:        evt.AwayTeam,
	})
	if err != nil {
		return err
	}

	leagueID, err := e.Store.FindLeagueIDByName(ctx, q, evt.League)
	if err != nil {
		return err
	}

	classification, err := norm.NormalizeEvent(ctx, evt.StartTime, now, evt.HomeTeam, evt.AwayTeam)
	if err != nil {
		return err
	}

	var quarantineReason *string
	if classification.QuarantineReason != "" {
		reason := classification.QuarantineReason
		quarantineReason = &reason
	}

	eventNormalizedID, err := e.Store.InsertEventNormalized(ctx, q, domain.EventNormalized{
		EventRawID:        rawID,
		LeagueID:          leagueID,
		StartTime:         evt.StartTime,
		HomeTeamID:        classification.HomeTeamID,
		AwayTeamID:        classification.AwayTeamID,
		MappingConfidence: classification.MappingConfidence,
		Status:            classification.Status,
		QuarantineReason:  quarantineReason,
	})
	if err != nil {
		return err
	}

	staleMaxAge := time.Duration(e.Config.StaleSnapshotMaxAgeSeconds) * time.Second
	snapshots := make([]domain.OddsSnapshot, len(evt.Odds))
	for i, line := range evt.Odds {
		snapshots[i] = domain.OddsSnapshot{
			EventRawID: rawID,
			Book:       line.Book,
			Market:     line.Market,
			Side:       line.Side,
			Price:      line.Price,
			Timestamp:  line.Timestamp,
			IsStale:    now.Sub(line.Timestamp) > staleMaxAge,
		}
	}
	snapshotIDs, err := e.Store.InsertOddsSnapshots(ctx, q, snapshots)
	if err != nil {
		return err
	}
	for i := range snapshots {
		snapshots[i].ID = snapshotIDs[i]
		snapshots[i].EventNormalizedID = &eventNormalizedID
	}
	if err := e.Store.LinkOddsSnapshotsToEvent(ctx, q, rawID, eventNormalizedID); err != nil {
		return err
	}

	var validLines []domain.OddsSnapshot
	for _, snap := range snapshots {
		if !snap.IsStale {
			validLines = append(validLines, snap)
			tally.freshnessSumSecs += now.Sub(snap.Timestamp).Seconds()
			tally.freshnessSamples++
		}
	}

	e.Log.Debug().Str("event", logging.EventNormalized).Int64("event_normalized_id", eventNormalizedID).
		Float64("mapping_confidence", classification.MappingConfidence).Str("status", string(classification.Status)).Msg("")

	// Gate: mapping confidence, folded into the normalizer's own gated
	// classification (quarantined events never reach the consensus step).
	// The specific quarantine reason stays on the EventNormalized row; the
	// block reason is always LOW_MAPPING_CONFIDENCE.
	if classification.Status == domain.EventQuarantined {
		tally.quarantineCount++
		tally.block(domain.ReasonLowMappingConfidence)
		e.Log.Info().Str("event", logging.EventPickBlocked).Int64("event_normalized_id", eventNormalizedID).
			Str("reason", classification.QuarantineReason).Msg("")
		return nil
	}

	// Gate: fresh odds.
	if len(validLines) == 0 {
		tally.block(domain.ReasonNoFreshOdds)
		return nil
	}

	consensusOpts := consensus.Options{
		MinBooks:     e.Config.ConsensusMinBooks,
		TrimOutliers: e.Config.ConsensusTrimOutliers,
	}
	consensusLines := make([]consensus.Line, len(validLines))
	for i, snap := range validLines {
		consensusLines[i] = consensus.Line{Book: snap.Book, Side: snap.Side, Price: snap.Price, Timestamp: snap.Timestamp}
	}
	decision := consensus.BuildMarketConsensus(consensusLines, consensusOpts)
	e.Log.Debug().Str("event", logging.EventConsensusGate).Int64("event_normalized_id", eventNormalizedID).
		Bool("has_result", decision.Result != nil).Str("missing_reason", decision.MissingReason).Msg("")
	if decision.Result == nil {
		tally.quarantineCount++
		tally.block(decision.MissingReason)
		if err := e.Store.UpdateEventNormalizedStatus(ctx, q, eventNormalizedID, domain.EventQuarantined); err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, `
			UPDATE events_normalized SET quarantine_reason = $2 WHERE id = $1`,
			eventNormalizedID, decision.MissingReason); err != nil {
			return domain.ErrPersistence("record consensus quarantine reason", err)
		}
		return nil
	}

	consensusRecord := domain.MarketConsensus{
		EventNormalizedID: eventNormalizedID,
		Market:            "h2h",
		ConsensusProb:      decision.Result.HomeProb,
		ConsensusPrice:      1.0 / decision.Result.HomeProb,
		Timestamp:           now,
	}
	if _, err := e.Store.InsertMarketConsensus(ctx, q, consensusRecord); err != nil {
		return err
	}

	featureRecord := features.Build(eventNormalizedID, now)
	featureSnapshotID, err := e.Store.InsertFeatureSnapshot(ctx, q, domain.FeatureSnapshot{
		EventNormalizedID: eventNormalizedID,
		FeatureVersion:     domain.FeatureVersionV1,
		Features:           featureRecord.Map(),
		ComputedAt:          now,
	})
	if err != nil {
		return err
	}

	modelProb := domain.BaselineModelProb
	modelVersion := domain.ModelVersionBaseline
	artifact, err := e.Store.LatestModelArtifact(ctx, q)
	if err != nil {
		return err
	}
	if artifact != nil {
		modelProb, err = e.Scorer.PredictHomeWinProbability(ctx, featureRecord, artifact.ArtifactPath)
		if err != nil {
			return err
		}
		modelVersion = artifact.ModelVersion
	}

	modelEdge := modelProb - decision.Result.HomeProb

	e.Log.Debug().Str("event", logging.EventEdgeGate).Int64("event_normalized_id", eventNormalizedID).
		Float64("model_edge", modelEdge).Float64("edge_threshold", e.Config.EdgeThreshold).Msg("")

	// Gate: edge.
	if modelEdge <= e.Config.EdgeThreshold {
		tally.block(domain.ReasonEdgeBelowThreshold)
		return nil
	}

	var homeLine *domain.OddsSnapshot
	for i := range validLines {
		if validLines[i].Side == domain.SideHome {
			homeLine = &validLines[i]
			break
		}
	}
	if homeLine == nil {
		tally.block(domain.ReasonNoHomeSideLine)
		return nil
	}

	decimalOdds := oddsmath.AmericanToDecimal(homeLine.Price)
	impliedProb := oddsmath.DecimalToImpliedProb(decimalOdds)
	evPercent := oddsmath.EVPercent(modelProb, decimalOdds)
	kelly := oddsmath.QuarterKelly(modelProb, decimalOdds)
	tier := domain.ConfidenceTier(modelEdge)

	pick := domain.Pick{
		PickLifecycleID:     e.newLifecycleID(),
		OddsSnapshotID:       homeLine.ID,
		EventNormalizedID:    eventNormalizedID,
		FeatureSnapshotID:    featureSnapshotID,
		ModelVersion:         modelVersion,
		FeatureVersion:       domain.FeatureVersionV1,
		Market:               "h2h",
		Side:                 domain.SideHome,
		Book:                 homeLine.Book,
		PickTimePrice:        homeLine.Price,
		DecimalOdds:          decimalOdds,
		ImpliedProb:          impliedProb,
		MarketConsensusProb:  decision.Result.HomeProb,
		ModelProb:            modelProb,
		ModelEdge:            modelEdge,
		EVPercent:            evPercent,
		KellyFraction:        kelly,
		Tier:                 tier,
		CreatedAt:            now,
		Status:               domain.PickOpen,
	}
	pickID, err := e.Store.InsertPick(ctx, q, pick)
	if err != nil {
		return err
	}
	tally.picksEmitted++

	e.Log.Info().Str("event", logging.EventPickEmitted).Int64("pick_id", pickID).
		Str("tier", string(tier)).Float64("model_edge", modelEdge).Msg("")

	if e.Publisher != nil {
		pick.ID = pickID
		if err := e.Publisher.PublishPickEmitted(ctx, pick); err != nil {
			e.Log.Warn().Err(err).Msg("publish pick emitted")
		}
	}

	closeWindow := time.Duration(e.Config.CloseCaptureWindowMinutes) * time.Minute
	closingLine, ok := closer.SelectClosingLine(validLines, homeLine.Book, domain.SideHome, evt.StartTime, closeWindow)
	if !ok {
		return nil
	}

	closeMarketConsensusProb := closer.ClosingConsensus(validLines, evt.StartTime, closeWindow, consensusOpts)
	closeBookImpliedProb := oddsmath.AmericanToImpliedProb(closingLine.Price)

	closingRecord := domain.ClosingLine{
		PickID:                   pickID,
		ClosePrice:               closingLine.Price,
		CloseImpliedProb:         closeBookImpliedProb,
		CapturedAt:               closingLine.Timestamp,
		MarketCloseConsensus:     closeMarketConsensusProb,
		ClosingLineSnapshotID:    &closingLine.ID,
		CloseBookPrice:           &closingLine.Price,
		CloseBookImpliedProb:     &closeBookImpliedProb,
		CloseMarketConsensusProb: closeMarketConsensusProb,
	}
	if _, err := e.Store.InsertClosingLine(ctx, q, closingRecord); err != nil {
		return err
	}
	tally.closeLinesTotal++

	clvBook, clvMarket := closer.CLV(closeBookImpliedProb, impliedProb, closeMarketConsensusProb)
	settlement := closer.SimulatedSettlement(pickID, decimalOdds, evPercent, clvMarket, &clvBook, now)
	if _, err := e.Store.InsertSettlement(ctx, q, settlement); err != nil {
		return err
	}

	return nil
}
