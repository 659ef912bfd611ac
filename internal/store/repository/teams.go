package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fortuna/borealis/internal/store"
)

// TeamRepository handles team reference data access
type TeamRepository struct {
	db *store.Database
}

// NewTeamRepository creates a new team repository
func NewTeamRepository(db *store.Database) *TeamRepository {
	return &TeamRepository{db: db}
}

// List returns all active NHL teams
func (r *TeamRepository) List(ctx context.Context) ([]*store.Team, error) {
	query := `
		SELECT abbreviation, full_name, nst_code, conference, division,
			logo_url, is_active, created_at, updated_at
		FROM teams
		WHERE is_active = true
		ORDER BY abbreviation
	`

	rows, err := r.db.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying teams: %w", err)
	}
	defer rows.Close()

	var teams []*store.Team
	for rows.Next() {
		team := &store.Team{}
		err := rows.Scan(
			&team.Abbreviation, &team.FullName, &team.NSTCode,
			&team.Conference, &team.Division, &team.LogoURL,
			&team.IsActive, &team.CreatedAt, &team.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning team: %w", err)
		}
		teams = append(teams, team)
	}

	return teams, rows.Err()
}

// GetByAbbreviation finds a team by tricode (e.g. "BOS", "NJD")
func (r *TeamRepository) GetByAbbreviation(ctx context.Context, abbr string) (*store.Team, error) {
	query := `
		SELECT abbreviation, full_name, nst_code, conference, division,
			logo_url, is_active, created_at, updated_at
		FROM teams
		WHERE abbreviation = $1
	`

	team := &store.Team{}
	err := r.db.DB().QueryRowContext(ctx, query, abbr).Scan(
		&team.Abbreviation, &team.FullName, &team.NSTCode,
		&team.Conference, &team.Division, &team.LogoURL,
		&team.IsActive, &team.CreatedAt, &team.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("team %s: %w", abbr, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying team: %w", err)
	}

	return team, nil
}

// Upsert inserts or updates one team
func (r *TeamRepository) Upsert(ctx context.Context, team *store.Team) error {
	query := `
		INSERT INTO teams (abbreviation, full_name, nst_code, conference, division, logo_url, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (abbreviation) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			nst_code = EXCLUDED.nst_code,
			conference = EXCLUDED.conference,
			division = EXCLUDED.division,
			logo_url = EXCLUDED.logo_url,
			is_active = EXCLUDED.is_active,
			updated_at = NOW()
	`

	_, err := r.db.DB().ExecContext(ctx, query,
		team.Abbreviation, team.FullName, team.NSTCode,
		team.Conference, team.Division, team.LogoURL, team.IsActive,
	)
	if err != nil {
		return fmt.Errorf("upserting team: %w", err)
	}

	return nil
}

// UpsertTeams upserts a batch of teams and returns the number stored
func (r *TeamRepository) UpsertTeams(ctx context.Context, teams []*store.Team) (int, error) {
	stored := 0
	for _, t := range teams {
		if err := r.Upsert(ctx, t); err != nil {
			return stored, err
		}
		stored++
	}
	return stored, nil
}
