package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/boompicks/pickengine/internal/domain"
)

// InsertPipelineRun persists the per-run telemetry record. Written last,
// after every other row in the run transaction, so FinishedAt/telemetry
// fields reflect the completed run.
func (s *Store) InsertPipelineRun(ctx context.Context, q Querier, r domain.PipelineRun) (int64, error) {
	metadataJSON, err := json.Marshal(r.Metadata)
	if err != nil {
		return 0, domain.ErrInternal("marshal pipeline_run metadata", err)
	}
	id, err := Scalar[int64](ctx, q, `
		INSERT INTO pipeline_runs
			(started_at, finished_at, latency_seconds, freshness_seconds, close_line_coverage,
			 mapping_anomaly_rate, quarantine_count, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		r.StartedAt, r.FinishedAt, r.LatencySeconds, r.FreshnessSeconds, r.CloseLineCoverage,
		r.MappingAnomalyRate, r.QuarantineCount, metadataJSON)
	if err != nil {
		return 0, domain.ErrPersistence("insert pipeline_run", err)
	}
	if id == nil {
		return 0, domain.ErrInternal("insert pipeline_run returned no id", nil)
	}
	return *id, nil
}

// LatestPipelineRun returns the most recently finished run, or nil if the
// pipeline has never completed one, backing the HTTP surface's /health
// readiness check.
func (s *Store) LatestPipelineRun(ctx context.Context, q Querier) (*domain.PipelineRun, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, latency_seconds, freshness_seconds, close_line_coverage,
		       mapping_anomaly_rate, quarantine_count, metadata
		FROM pipeline_runs
		ORDER BY finished_at DESC
		LIMIT 1`)

	var r domain.PipelineRun
	var metadataJSON []byte
	if err := row.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.LatencySeconds, &r.FreshnessSeconds,
		&r.CloseLineCoverage, &r.MappingAnomalyRate, &r.QuarantineCount, &metadataJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, domain.ErrPersistence("find latest pipeline_run", err)
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &r.Metadata); err != nil {
			return nil, domain.ErrInternal("unmarshal pipeline_run metadata", err)
		}
	}
	return &r, nil
}

// Ping verifies connectivity to the database, used by the /health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return domain.ErrTransport("database ping", err)
	}
	return nil
}
