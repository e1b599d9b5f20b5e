package store

import (
	"context"
	"database/sql"

	"github.com/boompicks/pickengine/internal/domain"
	"github.com/lib/pq"
)

// InsertEventRaw persists an immutable provider payload snapshot and returns
// its id. Raw rows are never updated, only ever quarantined/normalized by a
// separate EventNormalized row that references them.
func (s *Store) InsertEventRaw(ctx context.Context, q Querier, e domain.EventRaw) (int64, error) {
	id, err := Scalar[int64](ctx, q, `
		INSERT INTO events_raw (source, external_event_id, league, start_time, home_team, away_team)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		e.Source, e.ExternalEventID, e.League, e.StartTime, e.HomeTeam, e.AwayTeam)
	if err != nil {
		return 0, err
	}
	if id == nil {
		return 0, domain.ErrInternal("insert event_raw returned no id", nil)
	}
	return *id, nil
}

// InsertEventNormalized persists the resolved/gated view of a raw event.
func (s *Store) InsertEventNormalized(ctx context.Context, q Querier, e domain.EventNormalized) (int64, error) {
	id, err := Scalar[int64](ctx, q, `
		INSERT INTO events_normalized
			(event_raw_id, league_id, start_time, home_team_id, away_team_id, mapping_confidence, status, quarantine_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		e.EventRawID, e.LeagueID, e.StartTime, e.HomeTeamID, e.AwayTeamID, e.MappingConfidence, e.Status, e.QuarantineReason)
	if err != nil {
		return 0, domain.ErrPersistence("insert event_normalized", err)
	}
	if id == nil {
		return 0, domain.ErrInternal("insert event_normalized returned no id", nil)
	}
	return *id, nil
}

// UpdateEventNormalizedStatus transitions an event's status. The
// PipelineEngine uses it to mark an event quarantined when consensus fails.
func (s *Store) UpdateEventNormalizedStatus(ctx context.Context, q Querier, eventNormalizedID int64, status domain.EventStatus) error {
	_, err := q.ExecContext(ctx, `
		UPDATE events_normalized SET status = $2 WHERE id = $1`, eventNormalizedID, status)
	if err != nil {
		return domain.ErrPersistence("update event_normalized status", err)
	}
	return nil
}

// EventsNormalizedForRun returns every normalized event whose raw id is in
// the given set, in insertion order, whatever its status.
func (s *Store) EventsNormalizedForRun(ctx context.Context, q Querier, eventRawIDs []int64) ([]domain.EventNormalized, error) {
	if len(eventRawIDs) == 0 {
		return nil, nil
	}
	rows, err := q.QueryContext(ctx, `
		SELECT id, event_raw_id, league_id, start_time, home_team_id, away_team_id,
		       mapping_confidence, status, quarantine_reason
		FROM events_normalized
		WHERE event_raw_id = ANY($1)
		ORDER BY id`, pq.Array(eventRawIDs))
	if err != nil {
		return nil, domain.ErrPersistence("list events_normalized for run", err)
	}
	defer rows.Close()

	var out []domain.EventNormalized
	for rows.Next() {
		var e domain.EventNormalized
		var quarantineReason sql.NullString
		if err := rows.Scan(&e.ID, &e.EventRawID, &e.LeagueID, &e.StartTime, &e.HomeTeamID, &e.AwayTeamID,
			&e.MappingConfidence, &e.Status, &quarantineReason); err != nil {
			return nil, domain.ErrPersistence("scan event_normalized", err)
		}
		if quarantineReason.Valid {
			e.QuarantineReason = &quarantineReason.String
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
