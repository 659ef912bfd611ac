package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/fortuna/borealis/internal/stats"
	"github.com/fortuna/borealis/internal/store"
)

// TeamStatsRepository handles team per-game stats and aggregated windows
type TeamStatsRepository struct {
	db *store.Database
}

// NewTeamStatsRepository creates a new team stats repository
func NewTeamStatsRepository(db *store.Database) *TeamStatsRepository {
	return &TeamStatsRepository{db: db}
}

// Upsert inserts or updates one team line
func (r *TeamStatsRepository) Upsert(ctx context.Context, game *store.TeamGame) error {
	query := `
		INSERT INTO team_games (team, date, situation, season_id, stats)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (team, date, situation) DO UPDATE SET
			season_id = EXCLUDED.season_id,
			stats = EXCLUDED.stats,
			updated_at = NOW()
		RETURNING id
	`

	err := r.db.DB().QueryRowContext(ctx, query,
		game.Team, game.Date, game.Situation, game.SeasonID, game.Stats,
	).Scan(&game.ID)

	if err != nil {
		return fmt.Errorf("upserting team line: %w", err)
	}

	return nil
}

// UpsertGames upserts a batch of team lines and returns the number stored
func (r *TeamStatsRepository) UpsertGames(ctx context.Context, games []*store.TeamGame) (int, error) {
	stored := 0
	for _, g := range games {
		if err := r.Upsert(ctx, g); err != nil {
			return stored, err
		}
		stored++
	}
	return stored, nil
}

// ListRange returns team stat rows for a date range and situation, shaped
// for aggregation
func (r *TeamStatsRepository) ListRange(ctx context.Context, from, to time.Time, situation string) ([]stats.Row, error) {
	query := `
		SELECT team, date, stats
		FROM team_games
		WHERE date >= $1 AND date <= $2 AND situation = $3
		ORDER BY date, team
	`

	rows, err := r.db.DB().QueryContext(ctx, query, from, to, situation)
	if err != nil {
		return nil, fmt.Errorf("querying team lines: %w", err)
	}
	defer rows.Close()

	var out []stats.Row
	for rows.Next() {
		var (
			team string
			date time.Time
			m    store.StatMap
		)
		if err := rows.Scan(&team, &date, &m); err != nil {
			return nil, fmt.Errorf("scanning team line: %w", err)
		}
		out = append(out, stats.Row{Entity: team, Date: date, Values: m})
	}

	return out, rows.Err()
}

// UpsertWindow stores the latest aggregated window for a team and situation
func (r *TeamStatsRepository) UpsertWindow(ctx context.Context, w *store.TeamWindowStat) error {
	query := `
		INSERT INTO team_window_stats (team, situation, window_start, window_end,
			from_season, thru_season, games_played, stats)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (team, situation) DO UPDATE SET
			window_start = EXCLUDED.window_start,
			window_end = EXCLUDED.window_end,
			from_season = EXCLUDED.from_season,
			thru_season = EXCLUDED.thru_season,
			games_played = EXCLUDED.games_played,
			stats = EXCLUDED.stats,
			updated_at = NOW()
	`

	_, err := r.db.DB().ExecContext(ctx, query,
		w.Team, w.Situation, w.WindowStart, w.WindowEnd,
		w.FromSeason, w.ThruSeason, w.GamesPlayed, w.Stats,
	)
	if err != nil {
		return fmt.Errorf("upserting team window: %w", err)
	}

	return nil
}

// ListWindows returns the stored window snapshot for every team at a situation
func (r *TeamStatsRepository) ListWindows(ctx context.Context, situation string) ([]*store.TeamWindowStat, error) {
	query := `
		SELECT team, situation, window_start, window_end,
			from_season, thru_season, games_played, stats, updated_at
		FROM team_window_stats
		WHERE situation = $1
		ORDER BY team
	`

	rows, err := r.db.DB().QueryContext(ctx, query, situation)
	if err != nil {
		return nil, fmt.Errorf("querying team windows: %w", err)
	}
	defer rows.Close()

	var out []*store.TeamWindowStat
	for rows.Next() {
		w := &store.TeamWindowStat{}
		err := rows.Scan(
			&w.Team, &w.Situation, &w.WindowStart, &w.WindowEnd,
			&w.FromSeason, &w.ThruSeason, &w.GamesPlayed, &w.Stats, &w.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning team window: %w", err)
		}
		out = append(out, w)
	}

	return out, rows.Err()
}
