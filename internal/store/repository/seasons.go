package repository

import (
	"context"
	"fmt"

	"github.com/fortuna/borealis/internal/season"
	"github.com/fortuna/borealis/internal/store"
)

// SeasonRepository handles season calendar persistence
type SeasonRepository struct {
	db *store.Database
}

// NewSeasonRepository creates a new season repository
func NewSeasonRepository(db *store.Database) *SeasonRepository {
	return &SeasonRepository{db: db}
}

// Seed writes the calendar's season boundaries into the seasons table
func (r *SeasonRepository) Seed(ctx context.Context, cal *season.Calendar) (int, error) {
	query := `
		INSERT INTO seasons (season_id, start_date, regular_season_end, playoff_end)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (season_id) DO UPDATE SET
			start_date = EXCLUDED.start_date,
			regular_season_end = EXCLUDED.regular_season_end,
			playoff_end = EXCLUDED.playoff_end,
			updated_at = NOW()
	`

	stored := 0
	for _, def := range cal.Seasons() {
		_, err := r.db.DB().ExecContext(ctx, query,
			def.SeasonID, def.StartDate, def.RegularSeasonEnd, def.PlayoffEnd,
		)
		if err != nil {
			return stored, fmt.Errorf("seeding season %d: %w", def.SeasonID, err)
		}
		stored++
	}

	return stored, nil
}

// List returns all stored seasons, oldest first
func (r *SeasonRepository) List(ctx context.Context) ([]*store.Season, error) {
	query := `
		SELECT season_id, start_date, regular_season_end, playoff_end, created_at, updated_at
		FROM seasons
		ORDER BY season_id
	`

	rows, err := r.db.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying seasons: %w", err)
	}
	defer rows.Close()

	var seasons []*store.Season
	for rows.Next() {
		s := &store.Season{}
		err := rows.Scan(
			&s.SeasonID, &s.StartDate, &s.RegularSeasonEnd, &s.PlayoffEnd,
			&s.CreatedAt, &s.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning season: %w", err)
		}
		seasons = append(seasons, s)
	}

	return seasons, rows.Err()
}
