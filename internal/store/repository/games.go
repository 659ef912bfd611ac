package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fortuna/borealis/internal/store"
)

// ErrNotFound reports a lookup that matched no rows.
var ErrNotFound = errors.New("not found")

// GameRepository handles schedule data access
type GameRepository struct {
	db *store.Database
}

// NewGameRepository creates a new game repository
func NewGameRepository(db *store.Database) *GameRepository {
	return &GameRepository{db: db}
}

// Get finds a game by the league game id
func (r *GameRepository) Get(ctx context.Context, gameID int) (*store.Game, error) {
	query := `
		SELECT game_id, season_id, game_date, start_time_utc,
			home_team, away_team, home_score, away_score,
			game_state, venue, created_at, updated_at
		FROM games
		WHERE game_id = $1
	`

	game := &store.Game{}
	err := r.db.DB().QueryRowContext(ctx, query, gameID).Scan(
		&game.GameID, &game.SeasonID, &game.GameDate, &game.StartTimeUTC,
		&game.HomeTeam, &game.AwayTeam, &game.HomeScore, &game.AwayScore,
		&game.GameState, &game.Venue, &game.CreatedAt, &game.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("game %d: %w", gameID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying game: %w", err)
	}

	return game, nil
}

// ListByDate returns all games on a calendar date
func (r *GameRepository) ListByDate(ctx context.Context, date time.Time) ([]*store.Game, error) {
	query := `
		SELECT game_id, season_id, game_date, start_time_utc,
			home_team, away_team, home_score, away_score,
			game_state, venue, created_at, updated_at
		FROM games
		WHERE game_date = $1::date
		ORDER BY start_time_utc NULLS LAST, game_id
	`

	rows, err := r.db.DB().QueryContext(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("querying games: %w", err)
	}
	defer rows.Close()

	return r.scanGames(rows)
}

// ListForTeam returns a team's games in a date range
func (r *GameRepository) ListForTeam(ctx context.Context, team string, from, to time.Time) ([]*store.Game, error) {
	query := `
		SELECT game_id, season_id, game_date, start_time_utc,
			home_team, away_team, home_score, away_score,
			game_state, venue, created_at, updated_at
		FROM games
		WHERE (home_team = $1 OR away_team = $1)
			AND game_date >= $2::date AND game_date <= $3::date
		ORDER BY game_date, game_id
	`

	rows, err := r.db.DB().QueryContext(ctx, query, team, from, to)
	if err != nil {
		return nil, fmt.Errorf("querying team games: %w", err)
	}
	defer rows.Close()

	return r.scanGames(rows)
}

// Upsert inserts or updates one game
func (r *GameRepository) Upsert(ctx context.Context, game *store.Game) error {
	query := `
		INSERT INTO games (game_id, season_id, game_date, start_time_utc,
			home_team, away_team, home_score, away_score, game_state, venue)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (game_id) DO UPDATE SET
			season_id = EXCLUDED.season_id,
			game_date = EXCLUDED.game_date,
			start_time_utc = EXCLUDED.start_time_utc,
			home_team = EXCLUDED.home_team,
			away_team = EXCLUDED.away_team,
			home_score = EXCLUDED.home_score,
			away_score = EXCLUDED.away_score,
			game_state = EXCLUDED.game_state,
			venue = EXCLUDED.venue,
			updated_at = NOW()
	`

	_, err := r.db.DB().ExecContext(ctx, query,
		game.GameID, game.SeasonID, game.GameDate, game.StartTimeUTC,
		game.HomeTeam, game.AwayTeam, game.HomeScore, game.AwayScore,
		game.GameState, game.Venue,
	)
	if err != nil {
		return fmt.Errorf("upserting game: %w", err)
	}

	return nil
}

// UpsertGames upserts a batch of games and returns the number stored
func (r *GameRepository) UpsertGames(ctx context.Context, games []*store.Game) (int, error) {
	stored := 0
	for _, g := range games {
		if err := r.Upsert(ctx, g); err != nil {
			return stored, err
		}
		stored++
	}
	return stored, nil
}

// CleanupStaleGames marks games that started more than 6 hours ago and are
// still LIVE as OFF. Fixes stuck rows when a score sync was missed.
func (r *GameRepository) CleanupStaleGames(ctx context.Context) (int64, error) {
	staleThreshold := time.Now().Add(-6 * time.Hour)

	query := `
		UPDATE games
		SET game_state = 'OFF', updated_at = NOW()
		WHERE game_state = 'LIVE'
			AND start_time_utc < $1
	`

	result, err := r.db.DB().ExecContext(ctx, query, staleThreshold)
	if err != nil {
		return 0, fmt.Errorf("cleaning up stale games: %w", err)
	}

	return result.RowsAffected()
}

// scanGames scans multiple game rows
func (r *GameRepository) scanGames(rows *sql.Rows) ([]*store.Game, error) {
	var games []*store.Game
	for rows.Next() {
		game := &store.Game{}
		err := rows.Scan(
			&game.GameID, &game.SeasonID, &game.GameDate, &game.StartTimeUTC,
			&game.HomeTeam, &game.AwayTeam, &game.HomeScore, &game.AwayScore,
			&game.GameState, &game.Venue, &game.CreatedAt, &game.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning game: %w", err)
		}
		games = append(games, game)
	}

	return games, rows.Err()
}
