package store

import (
	"context"

	"github.com/boompicks/pickengine/internal/domain"
	"github.com/lib/pq"
)

// InsertOddsSnapshots bulk-inserts a batch of immutable odds quotes with a
// single UNNEST-based statement, the same batched-write shape the teacher
// used for its odds_raw table, and returns their assigned ids in order.
func (s *Store) InsertOddsSnapshots(ctx context.Context, q Querier, snapshots []domain.OddsSnapshot) ([]int64, error) {
	if len(snapshots) == 0 {
		return nil, nil
	}

	eventRawIDs := make([]int64, len(snapshots))
	books := make([]string, len(snapshots))
	markets := make([]string, len(snapshots))
	sides := make([]string, len(snapshots))
	prices := make([]int64, len(snapshots))
	timestamps := make([]int64, len(snapshots))
	isStale := make([]bool, len(snapshots))

	for i, snap := range snapshots {
		eventRawIDs[i] = snap.EventRawID
		books[i] = snap.Book
		markets[i] = snap.Market
		sides[i] = string(snap.Side)
		prices[i] = int64(snap.Price)
		timestamps[i] = snap.Timestamp.Unix()
		isStale[i] = snap.IsStale
	}

	rows, err := q.QueryContext(ctx, `
		INSERT INTO odds_snapshots (event_raw_id, book, market, side, price, ts, is_stale)
		SELECT * FROM UNNEST(
			$1::bigint[], $2::text[], $3::text[], $4::text[], $5::bigint[], to_timestamp(unnest($6::bigint[])), $7::bool[]
		)
		RETURNING id`,
		pq.Array(eventRawIDs), pq.Array(books), pq.Array(markets), pq.Array(sides),
		pq.Array(prices), pq.Array(timestamps), pq.Array(isStale))
	if err != nil {
		return nil, domain.ErrPersistence("insert odds_snapshots batch", err)
	}
	defer rows.Close()

	ids := make([]int64, 0, len(snapshots))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, domain.ErrPersistence("scan odds_snapshot id", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// LinkOddsSnapshotsToEvent backfills event_normalized_id on every snapshot
// belonging to a raw event once that event has been resolved, so picks and
// closing-line selection can query by normalized event rather than raw feed.
func (s *Store) LinkOddsSnapshotsToEvent(ctx context.Context, q Querier, eventRawID, eventNormalizedID int64) error {
	_, err := q.ExecContext(ctx, `
		UPDATE odds_snapshots SET event_normalized_id = $2 WHERE event_raw_id = $1`,
		eventRawID, eventNormalizedID)
	if err != nil {
		return domain.ErrPersistence("link odds_snapshots to event", err)
	}
	return nil
}

// FreshOddsForEvent returns every non-stale odds snapshot for a normalized
// event, in insertion order.
func (s *Store) FreshOddsForEvent(ctx context.Context, q Querier, eventNormalizedID int64) ([]domain.OddsSnapshot, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, event_raw_id, event_normalized_id, book, market, side, price, ts, is_stale
		FROM odds_snapshots
		WHERE event_normalized_id = $1 AND is_stale = false
		ORDER BY id`, eventNormalizedID)
	if err != nil {
		return nil, domain.ErrPersistence("list fresh odds for event", err)
	}
	defer rows.Close()

	var out []domain.OddsSnapshot
	for rows.Next() {
		var snap domain.OddsSnapshot
		if err := rows.Scan(&snap.ID, &snap.EventRawID, &snap.EventNormalizedID, &snap.Book,
			&snap.Market, &snap.Side, &snap.Price, &snap.Timestamp, &snap.IsStale); err != nil {
			return nil, domain.ErrPersistence("scan odds_snapshot", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// AllOddsForEvent returns every odds snapshot for an event regardless of
// staleness, ordered by quote timestamp.
func (s *Store) AllOddsForEvent(ctx context.Context, q Querier, eventNormalizedID int64) ([]domain.OddsSnapshot, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, event_raw_id, event_normalized_id, book, market, side, price, ts, is_stale
		FROM odds_snapshots
		WHERE event_normalized_id = $1
		ORDER BY ts`, eventNormalizedID)
	if err != nil {
		return nil, domain.ErrPersistence("list odds for event", err)
	}
	defer rows.Close()

	var out []domain.OddsSnapshot
	for rows.Next() {
		var snap domain.OddsSnapshot
		if err := rows.Scan(&snap.ID, &snap.EventRawID, &snap.EventNormalizedID, &snap.Book,
			&snap.Market, &snap.Side, &snap.Price, &snap.Timestamp, &snap.IsStale); err != nil {
			return nil, domain.ErrPersistence("scan odds_snapshot", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}
