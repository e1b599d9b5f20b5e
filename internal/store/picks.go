package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/boompicks/pickengine/internal/domain"
)

// InsertMarketConsensus persists the de-vigged consensus probability an
// event's lines produced at the time it cleared the consensus gate.
func (s *Store) InsertMarketConsensus(ctx context.Context, q Querier, c domain.MarketConsensus) (int64, error) {
	id, err := Scalar[int64](ctx, q, `
		INSERT INTO market_consensus (event_normalized_id, market, consensus_prob, consensus_price, ts)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		c.EventNormalizedID, c.Market, c.ConsensusProb, c.ConsensusPrice, c.Timestamp)
	if err != nil {
		return 0, domain.ErrPersistence("insert market_consensus", err)
	}
	if id == nil {
		return 0, domain.ErrInternal("insert market_consensus returned no id", nil)
	}
	return *id, nil
}

// InsertFeatureSnapshot persists the deterministic feature record computed
// for an event within this run.
func (s *Store) InsertFeatureSnapshot(ctx context.Context, q Querier, f domain.FeatureSnapshot) (int64, error) {
	featuresJSON, err := json.Marshal(f.Features)
	if err != nil {
		return 0, domain.ErrInternal("marshal feature snapshot", err)
	}
	id, err := Scalar[int64](ctx, q, `
		INSERT INTO feature_snapshots (event_normalized_id, feature_version, features, computed_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		f.EventNormalizedID, f.FeatureVersion, featuresJSON, f.ComputedAt)
	if err != nil {
		return 0, domain.ErrPersistence("insert feature_snapshot", err)
	}
	if id == nil {
		return 0, domain.ErrInternal("insert feature_snapshot returned no id", nil)
	}
	return *id, nil
}

// LatestModelArtifact returns the newest model artifact (highest id), or
// nil if none has been registered, in which case the engine falls back to
// the fixed baseline probability.
func (s *Store) LatestModelArtifact(ctx context.Context, q Querier) (*domain.ModelArtifact, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, model_version, trained_at, training_window, metrics, artifact_path
		FROM model_artifacts
		ORDER BY id DESC
		LIMIT 1`)

	var a domain.ModelArtifact
	var metricsJSON []byte
	if err := row.Scan(&a.ID, &a.ModelVersion, &a.TrainedAt, &a.TrainingWindow, &metricsJSON, &a.ArtifactPath); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, domain.ErrPersistence("find latest model_artifact", err)
	}
	if len(metricsJSON) > 0 {
		if err := json.Unmarshal(metricsJSON, &a.Metrics); err != nil {
			return nil, domain.ErrInternal("unmarshal model_artifact metrics", err)
		}
	}
	return &a, nil
}

// InsertPick persists an emitted value opportunity and returns its id.
func (s *Store) InsertPick(ctx context.Context, q Querier, p domain.Pick) (int64, error) {
	id, err := Scalar[int64](ctx, q, `
		INSERT INTO picks
			(pick_lifecycle_id, odds_snapshot_id, event_normalized_id, feature_snapshot_id,
			 model_version, feature_version, market, side, book, pick_time_price, decimal_odds,
			 implied_prob, market_consensus_prob, model_prob, model_edge, ev_percent,
			 kelly_fraction, tier, created_at, status)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id`,
		p.PickLifecycleID, p.OddsSnapshotID, p.EventNormalizedID, p.FeatureSnapshotID,
		p.ModelVersion, p.FeatureVersion, p.Market, p.Side, p.Book, p.PickTimePrice, p.DecimalOdds,
		p.ImpliedProb, p.MarketConsensusProb, p.ModelProb, p.ModelEdge, p.EVPercent,
		p.KellyFraction, p.Tier, p.CreatedAt, p.Status)
	if err != nil {
		return 0, domain.ErrPersistence("insert pick", err)
	}
	if id == nil {
		return 0, domain.ErrInternal("insert pick returned no id", nil)
	}
	return *id, nil
}

// InsertClosingLine persists the at-most-one closing line captured for a
// pick within the same run that selected a closing window.
func (s *Store) InsertClosingLine(ctx context.Context, q Querier, c domain.ClosingLine) (int64, error) {
	id, err := Scalar[int64](ctx, q, `
		INSERT INTO closing_lines
			(pick_id, close_price, close_implied_prob, captured_at, market_close_consensus,
			 closing_line_snapshot_id, close_book_price, close_book_implied_prob, close_market_consensus_prob)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		c.PickID, c.ClosePrice, c.CloseImpliedProb, c.CapturedAt, c.MarketCloseConsensus,
		c.ClosingLineSnapshotID, c.CloseBookPrice, c.CloseBookImpliedProb, c.CloseMarketConsensusProb)
	if err != nil {
		return 0, domain.ErrPersistence("insert closing_line", err)
	}
	if id == nil {
		return 0, domain.ErrInternal("insert closing_line returned no id", nil)
	}
	return *id, nil
}

// InsertSettlement persists the at-most-one simulated settlement outcome for
// a pick.
func (s *Store) InsertSettlement(ctx context.Context, q Querier, st domain.Settlement) (int64, error) {
	id, err := Scalar[int64](ctx, q, `
		INSERT INTO settlements (pick_id, result, settled_at, pnl, roi, clv_market, clv_book, settlement_source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		st.PickID, st.Result, st.SettledAt, st.PnL, st.ROI, st.CLVMarket, st.CLVBook, st.SettlementSource)
	if err != nil {
		return 0, domain.ErrPersistence("insert settlement", err)
	}
	if id == nil {
		return 0, domain.ErrInternal("insert settlement returned no id", nil)
	}
	return *id, nil
}

// PicksForDay returns every pick created at or after dayStart, newest first,
// the query backing the HTTP surface's /picks/today endpoint.
func (s *Store) PicksForDay(ctx context.Context, q Querier, dayStart time.Time) ([]domain.Pick, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, pick_lifecycle_id, odds_snapshot_id, event_normalized_id, feature_snapshot_id,
		       model_version, feature_version, market, side, book, pick_time_price, decimal_odds,
		       implied_prob, market_consensus_prob, model_prob, model_edge, ev_percent,
		       kelly_fraction, tier, created_at, status
		FROM picks
		WHERE created_at >= $1
		ORDER BY created_at DESC`, dayStart)
	if err != nil {
		return nil, domain.ErrPersistence("list picks for day", err)
	}
	defer rows.Close()
	return scanPicks(rows)
}

// PickByID returns a single pick, or nil if it does not exist.
func (s *Store) PickByID(ctx context.Context, q Querier, id int64) (*domain.Pick, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, pick_lifecycle_id, odds_snapshot_id, event_normalized_id, feature_snapshot_id,
		       model_version, feature_version, market, side, book, pick_time_price, decimal_odds,
		       implied_prob, market_consensus_prob, model_prob, model_edge, ev_percent,
		       kelly_fraction, tier, created_at, status
		FROM picks WHERE id = $1`, id)

	var p domain.Pick
	if err := scanPickRow(row, &p); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, domain.ErrPersistence("find pick by id", err)
	}
	return &p, nil
}

func scanPicks(rows *sql.Rows) ([]domain.Pick, error) {
	var out []domain.Pick
	for rows.Next() {
		var p domain.Pick
		if err := rows.Scan(&p.ID, &p.PickLifecycleID, &p.OddsSnapshotID, &p.EventNormalizedID, &p.FeatureSnapshotID,
			&p.ModelVersion, &p.FeatureVersion, &p.Market, &p.Side, &p.Book, &p.PickTimePrice, &p.DecimalOdds,
			&p.ImpliedProb, &p.MarketConsensusProb, &p.ModelProb, &p.ModelEdge, &p.EVPercent,
			&p.KellyFraction, &p.Tier, &p.CreatedAt, &p.Status); err != nil {
			return nil, domain.ErrPersistence("scan pick", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPickRow(row rowScanner, p *domain.Pick) error {
	return row.Scan(&p.ID, &p.PickLifecycleID, &p.OddsSnapshotID, &p.EventNormalizedID, &p.FeatureSnapshotID,
		&p.ModelVersion, &p.FeatureVersion, &p.Market, &p.Side, &p.Book, &p.PickTimePrice, &p.DecimalOdds,
		&p.ImpliedProb, &p.MarketConsensusProb, &p.ModelProb, &p.ModelEdge, &p.EVPercent,
		&p.KellyFraction, &p.Tier, &p.CreatedAt, &p.Status)
}

// CLVSummary holds the settled-pick count, the share of all picks that have
// a closing line, and the average CLV over settled picks, backing the HTTP
// surface's /metrics/clv endpoint.
type CLVSummary struct {
	SettledCount    int64
	ClosingCoverage float64
	AvgCLVMarket    float64
	AvgCLVBook      float64
}

// CLVMetrics computes CLVSummary over every pick; the CLV averages only
// count picks that have a settlement.
func (s *Store) CLVMetrics(ctx context.Context, q Querier) (CLVSummary, error) {
	row := q.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE st.id IS NOT NULL) AS settled_count,
			COALESCE(AVG(CASE WHEN cl.id IS NOT NULL THEN 1.0 ELSE 0.0 END), 0) AS closing_coverage,
			COALESCE(AVG(st.clv_market), 0) AS avg_clv_market,
			COALESCE(AVG(st.clv_book), 0) AS avg_clv_book
		FROM picks p
		LEFT JOIN settlements st ON st.pick_id = p.id
		LEFT JOIN closing_lines cl ON cl.pick_id = p.id`)

	var summary CLVSummary
	if err := row.Scan(&summary.SettledCount, &summary.ClosingCoverage, &summary.AvgCLVMarket, &summary.AvgCLVBook); err != nil {
		return CLVSummary{}, domain.ErrPersistence("compute clv metrics", err)
	}
	return summary, nil
}
