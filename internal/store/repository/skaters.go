package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/fortuna/borealis/internal/stats"
	"github.com/fortuna/borealis/internal/store"
)

// SkaterRepository handles skater per-game stat access
type SkaterRepository struct {
	db *store.Database
}

// NewSkaterRepository creates a new skater repository
func NewSkaterRepository(db *store.Database) *SkaterRepository {
	return &SkaterRepository{db: db}
}

// Upsert inserts or updates one skater line
func (r *SkaterRepository) Upsert(ctx context.Context, game *store.SkaterGame) error {
	query := `
		INSERT INTO skater_games (player, team, position, date, situation, season_id, stats)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (player, date, situation) DO UPDATE SET
			team = EXCLUDED.team,
			position = EXCLUDED.position,
			season_id = EXCLUDED.season_id,
			stats = EXCLUDED.stats,
			updated_at = NOW()
		RETURNING id
	`

	err := r.db.DB().QueryRowContext(ctx, query,
		game.Player, game.Team, game.Position, game.Date, game.Situation, game.SeasonID, game.Stats,
	).Scan(&game.ID)

	if err != nil {
		return fmt.Errorf("upserting skater line: %w", err)
	}

	return nil
}

// UpsertGames upserts a batch of skater lines and returns the number stored
func (r *SkaterRepository) UpsertGames(ctx context.Context, games []*store.SkaterGame) (int, error) {
	stored := 0
	for _, g := range games {
		if err := r.Upsert(ctx, g); err != nil {
			return stored, err
		}
		stored++
	}
	return stored, nil
}

// ListRange returns skater stat rows for a date range and situation, shaped
// for aggregation
func (r *SkaterRepository) ListRange(ctx context.Context, from, to time.Time, situation string) ([]stats.Row, error) {
	query := `
		SELECT player, date, stats
		FROM skater_games
		WHERE date >= $1 AND date <= $2 AND situation = $3
		ORDER BY date, player
	`

	rows, err := r.db.DB().QueryContext(ctx, query, from, to, situation)
	if err != nil {
		return nil, fmt.Errorf("querying skater lines: %w", err)
	}
	defer rows.Close()

	var out []stats.Row
	for rows.Next() {
		var (
			player string
			date   time.Time
			m      store.StatMap
		)
		if err := rows.Scan(&player, &date, &m); err != nil {
			return nil, fmt.Errorf("scanning skater line: %w", err)
		}
		out = append(out, stats.Row{Entity: player, Date: date, Values: m})
	}

	return out, rows.Err()
}
