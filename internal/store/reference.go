package store

import (
	"context"
	"database/sql"

	"github.com/boompicks/pickengine/internal/domain"
	"github.com/boompicks/pickengine/internal/registry"
)

// SeedReferenceData idempotently inserts every league, team, and alias the
// registry knows about. Uses ON CONFLICT DO NOTHING on the unique
// constraints (leagues.name, teams.normalized_name, team_aliases.alias),
// following the teacher's writer.go upsert idiom, so concurrent seeders or
// repeat runs never fail on a duplicate-insert race — the database enforces
// correctness and the duplicate is swallowed as benign, per the
// concurrency model.
func (s *Store) SeedReferenceData(ctx context.Context, reg *registry.LeagueRegistry) error {
	return s.RunTx(ctx, func(q Querier) error {
		for _, league := range reg.GetAll() {
			leagueID, err := s.ensureLeague(ctx, q, league.Name)
			if err != nil {
				return err
			}
			for _, team := range league.Teams {
				teamID, err := s.ensureTeam(ctx, q, team.NormalizedName)
				if err != nil {
					return err
				}
				for _, alias := range team.Aliases {
					if err := s.ensureAlias(ctx, q, alias, teamID, "seed"); err != nil {
						return err
					}
				}
			}
			_ = leagueID
		}
		return nil
	})
}

func (s *Store) ensureLeague(ctx context.Context, q Querier, name string) (int64, error) {
	_, err := q.ExecContext(ctx, `
		INSERT INTO leagues (name) VALUES ($1)
		ON CONFLICT (name) DO NOTHING`, name)
	if err != nil {
		return 0, domain.ErrPersistence("seed league", err)
	}
	return s.FindLeagueIDByName(ctx, q, name)
}

func (s *Store) ensureTeam(ctx context.Context, q Querier, normalizedName string) (int64, error) {
	_, err := q.ExecContext(ctx, `
		INSERT INTO teams (normalized_name) VALUES ($1)
		ON CONFLICT (normalized_name) DO NOTHING`, normalizedName)
	if err != nil {
		return 0, domain.ErrPersistence("seed team", err)
	}
	id, err := Scalar[int64](ctx, q, `SELECT id FROM teams WHERE normalized_name = $1`, normalizedName)
	if err != nil {
		return 0, err
	}
	if id == nil {
		return 0, domain.ErrInternal("team missing immediately after seed insert", nil)
	}
	return *id, nil
}

func (s *Store) ensureAlias(ctx context.Context, q Querier, alias string, teamID int64, source string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO team_aliases (alias, team_id, source, confidence)
		VALUES ($1, $2, $3, 1.0)
		ON CONFLICT (alias) DO NOTHING`, alias, teamID, source)
	if err != nil {
		return domain.ErrPersistence("seed team alias", err)
	}
	return nil
}

// FindLeagueIDByName returns a league's id, or domain.ErrInternal if it has
// not been seeded.
func (s *Store) FindLeagueIDByName(ctx context.Context, q Querier, name string) (int64, error) {
	id, err := Scalar[int64](ctx, q, `SELECT id FROM leagues WHERE name = $1`, name)
	if err != nil {
		return 0, err
	}
	if id == nil {
		return 0, domain.ErrInternal("league not seeded: "+name, nil)
	}
	return *id, nil
}

// TeamLookup binds the store to a single Querier (the pool, or an in-flight
// run transaction) and satisfies normalizer.TeamLookup. The PipelineEngine
// constructs one scoped to its run transaction; the reference data it reads
// was already committed by SeedReferenceData's own transaction, which runs
// before the run transaction begins.
type TeamLookup struct {
	store *Store
	q     Querier
}

// TeamLookup returns a normalizer.TeamLookup bound to q.
func (s *Store) TeamLookup(q Querier) TeamLookup {
	return TeamLookup{store: s, q: q}
}

func (l TeamLookup) FindTeamAliasesByAlias(ctx context.Context, alias string) ([]domain.TeamAlias, error) {
	return l.store.findTeamAliasesByAlias(ctx, l.q, alias)
}

func (l TeamLookup) FindTeamByNormalizedName(ctx context.Context, normalizedName string) (*domain.Team, error) {
	return l.store.findTeamByNormalizedName(ctx, l.q, normalizedName)
}

func (s *Store) findTeamAliasesByAlias(ctx context.Context, q Querier, alias string) ([]domain.TeamAlias, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, alias, team_id, source, confidence FROM team_aliases WHERE alias = $1`, alias)
	if err != nil {
		return nil, domain.ErrPersistence("find team aliases", err)
	}
	defer rows.Close()

	var out []domain.TeamAlias
	for rows.Next() {
		var a domain.TeamAlias
		if err := rows.Scan(&a.ID, &a.Alias, &a.TeamID, &a.Source, &a.Confidence); err != nil {
			return nil, domain.ErrPersistence("scan team alias", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) findTeamByNormalizedName(ctx context.Context, q Querier, normalizedName string) (*domain.Team, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, normalized_name FROM teams WHERE normalized_name = $1`, normalizedName)
	var t domain.Team
	if err := row.Scan(&t.ID, &t.NormalizedName); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, domain.ErrPersistence("find team by normalized name", err)
	}
	return &t, nil
}
