package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fortuna/borealis/internal/stats"
	"github.com/fortuna/borealis/internal/store"
)

// GoalieRepository handles goalie per-game stat access
type GoalieRepository struct {
	db *store.Database
}

// NewGoalieRepository creates a new goalie repository
func NewGoalieRepository(db *store.Database) *GoalieRepository {
	return &GoalieRepository{db: db}
}

// Upsert inserts or updates one goalie line
func (r *GoalieRepository) Upsert(ctx context.Context, game *store.GoalieGame) error {
	query := `
		INSERT INTO goalie_games (
			player, team, date, season, gp, toi,
			shots_against, saves, goals_against, sv_pct,
			gaa, gsaa, xg_against,
			hd_shots_against, hd_saves, hd_goals_against, hdsv_pct, hdgaa, hdgsaa,
			md_shots_against, md_saves, md_goals_against, mdsv_pct, mdgaa, mdgsaa,
			ld_shots_against, ld_saves, ld_goals_against, ldsv_pct, ldgaa, ldgsaa,
			rush_attempts_against, rebound_attempts_against,
			avg_shot_distance, avg_goal_distance
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, $28, $29, $30,
			$31, $32, $33, $34, $35)
		ON CONFLICT (player, date) DO UPDATE SET
			team = EXCLUDED.team,
			season = EXCLUDED.season,
			gp = EXCLUDED.gp,
			toi = EXCLUDED.toi,
			shots_against = EXCLUDED.shots_against,
			saves = EXCLUDED.saves,
			goals_against = EXCLUDED.goals_against,
			sv_pct = EXCLUDED.sv_pct,
			gaa = EXCLUDED.gaa,
			gsaa = EXCLUDED.gsaa,
			xg_against = EXCLUDED.xg_against,
			hd_shots_against = EXCLUDED.hd_shots_against,
			hd_saves = EXCLUDED.hd_saves,
			hd_goals_against = EXCLUDED.hd_goals_against,
			hdsv_pct = EXCLUDED.hdsv_pct,
			hdgaa = EXCLUDED.hdgaa,
			hdgsaa = EXCLUDED.hdgsaa,
			md_shots_against = EXCLUDED.md_shots_against,
			md_saves = EXCLUDED.md_saves,
			md_goals_against = EXCLUDED.md_goals_against,
			mdsv_pct = EXCLUDED.mdsv_pct,
			mdgaa = EXCLUDED.mdgaa,
			mdgsaa = EXCLUDED.mdgsaa,
			ld_shots_against = EXCLUDED.ld_shots_against,
			ld_saves = EXCLUDED.ld_saves,
			ld_goals_against = EXCLUDED.ld_goals_against,
			ldsv_pct = EXCLUDED.ldsv_pct,
			ldgaa = EXCLUDED.ldgaa,
			ldgsaa = EXCLUDED.ldgsaa,
			rush_attempts_against = EXCLUDED.rush_attempts_against,
			rebound_attempts_against = EXCLUDED.rebound_attempts_against,
			avg_shot_distance = EXCLUDED.avg_shot_distance,
			avg_goal_distance = EXCLUDED.avg_goal_distance,
			updated_at = NOW()
		RETURNING id
	`

	err := r.db.DB().QueryRowContext(ctx, query,
		game.Player, game.Team, game.Date, game.Season, game.GamesPlayed, game.TOI,
		game.ShotsAgainst, game.Saves, game.GoalsAgainst, game.SvPct,
		game.GAA, game.GSAA, game.XGAgainst,
		game.HDShotsAgainst, game.HDSaves, game.HDGoalsAgainst, game.HDSvPct, game.HDGAA, game.HDGSAA,
		game.MDShotsAgainst, game.MDSaves, game.MDGoalsAgainst, game.MDSvPct, game.MDGAA, game.MDGSAA,
		game.LDShotsAgainst, game.LDSaves, game.LDGoalsAgainst, game.LDSvPct, game.LDGAA, game.LDGSAA,
		game.RushAttemptsAgainst, game.ReboundAttemptsAgainst,
		game.AvgShotDistance, game.AvgGoalDistance,
	).Scan(&game.ID)

	if err != nil {
		return fmt.Errorf("upserting goalie line: %w", err)
	}

	return nil
}

// UpsertGames upserts a batch of goalie lines and returns the number stored
func (r *GoalieRepository) UpsertGames(ctx context.Context, games []*store.GoalieGame) (int, error) {
	stored := 0
	for _, g := range games {
		if err := r.Upsert(ctx, g); err != nil {
			return stored, err
		}
		stored++
	}
	return stored, nil
}

const goalieRowColumns = `
	player, date,
	toi, shots_against, saves, goals_against,
	gsaa, xg_against,
	hd_shots_against, hd_saves, hd_goals_against,
	md_shots_against, md_saves, md_goals_against,
	ld_shots_against, ld_saves, ld_goals_against,
	rush_attempts_against, rebound_attempts_against,
	avg_shot_distance, avg_goal_distance
`

// ListForPlayer returns one goalie's stat rows at or before asOf, shaped for
// rolling aggregation
func (r *GoalieRepository) ListForPlayer(ctx context.Context, player string, asOf time.Time) ([]stats.Row, error) {
	query := `
		SELECT ` + goalieRowColumns + `
		FROM goalie_games
		WHERE player = $1 AND date <= $2
		ORDER BY date DESC
	`

	rows, err := r.db.DB().QueryContext(ctx, query, player, asOf)
	if err != nil {
		return nil, fmt.Errorf("querying goalie lines: %w", err)
	}
	defer rows.Close()

	return r.scanStatRows(rows)
}

// ListThrough returns every goalie's stat rows at or before asOf
func (r *GoalieRepository) ListThrough(ctx context.Context, asOf time.Time) ([]stats.Row, error) {
	query := `
		SELECT ` + goalieRowColumns + `
		FROM goalie_games
		WHERE date <= $1
		ORDER BY player, date DESC
	`

	rows, err := r.db.DB().QueryContext(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("querying goalie lines: %w", err)
	}
	defer rows.Close()

	return r.scanStatRows(rows)
}

// ListRange returns goalie stat rows for a date range
func (r *GoalieRepository) ListRange(ctx context.Context, from, to time.Time) ([]stats.Row, error) {
	query := `
		SELECT ` + goalieRowColumns + `
		FROM goalie_games
		WHERE date >= $1 AND date <= $2
		ORDER BY date, player
	`

	rows, err := r.db.DB().QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying goalie lines: %w", err)
	}
	defer rows.Close()

	return r.scanStatRows(rows)
}

// scanStatRows shapes goalie lines into aggregation rows. Only raw
// components go into the row; percentage columns are recomputed from sums
// downstream, never averaged.
func (r *GoalieRepository) scanStatRows(rows *sql.Rows) ([]stats.Row, error) {
	var out []stats.Row
	for rows.Next() {
		var (
			player                               string
			date                                 time.Time
			toi, sa, sv, ga                      sql.NullFloat64
			gsaa, xga                            sql.NullFloat64
			hdSA, hdSV, hdGA                     sql.NullFloat64
			mdSA, mdSV, mdGA                     sql.NullFloat64
			ldSA, ldSV, ldGA                     sql.NullFloat64
			rush, rebound, shotDist, goalDist    sql.NullFloat64
		)
		err := rows.Scan(
			&player, &date,
			&toi, &sa, &sv, &ga,
			&gsaa, &xga,
			&hdSA, &hdSV, &hdGA,
			&mdSA, &mdSV, &mdGA,
			&ldSA, &ldSV, &ldGA,
			&rush, &rebound, &shotDist, &goalDist,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning goalie line: %w", err)
		}

		values := make(map[string]float64)
		putValue(values, "toi", toi)
		putValue(values, "shots_against", sa)
		putValue(values, "saves", sv)
		putValue(values, "goals_against", ga)
		putValue(values, "gsaa", gsaa)
		putValue(values, "xg_against", xga)
		putValue(values, "hd_shots_against", hdSA)
		putValue(values, "hd_saves", hdSV)
		putValue(values, "hd_goals_against", hdGA)
		putValue(values, "md_shots_against", mdSA)
		putValue(values, "md_saves", mdSV)
		putValue(values, "md_goals_against", mdGA)
		putValue(values, "ld_shots_against", ldSA)
		putValue(values, "ld_saves", ldSV)
		putValue(values, "ld_goals_against", ldGA)
		putValue(values, "rush_attempts_against", rush)
		putValue(values, "rebound_attempts_against", rebound)
		putValue(values, "avg_shot_distance", shotDist)
		putValue(values, "avg_goal_distance", goalDist)

		out = append(out, stats.Row{Entity: player, Date: date, Values: values})
	}

	return out, rows.Err()
}

func putValue(values map[string]float64, name string, v sql.NullFloat64) {
	if v.Valid {
		values[name] = v.Float64
	}
}
