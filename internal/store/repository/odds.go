package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fortuna/borealis/internal/store"
)

// OddsRepository handles provider events, moneylines, and player prop lines
type OddsRepository struct {
	db *store.Database
}

// NewOddsRepository creates a new odds repository
func NewOddsRepository(db *store.Database) *OddsRepository {
	return &OddsRepository{db: db}
}

// UpsertEvent inserts or updates one provider event
func (r *OddsRepository) UpsertEvent(ctx context.Context, event *store.OddsEvent) error {
	query := `
		INSERT INTO odds_events (provider, event_id, home_team, away_team, commence_time)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (provider, event_id) DO UPDATE SET
			home_team = EXCLUDED.home_team,
			away_team = EXCLUDED.away_team,
			commence_time = EXCLUDED.commence_time,
			updated_at = NOW()
		RETURNING id
	`

	err := r.db.DB().QueryRowContext(ctx, query,
		event.Provider, event.EventID, event.HomeTeam, event.AwayTeam, event.CommenceTime,
	).Scan(&event.ID)

	if err != nil {
		return fmt.Errorf("upserting odds event: %w", err)
	}

	return nil
}

// LinkEvent records the reconciled NHL game for a provider event
func (r *OddsRepository) LinkEvent(ctx context.Context, provider, eventID string, gameID int, confidence float64) error {
	query := `
		UPDATE odds_events
		SET game_id = $3, match_confidence = $4, updated_at = NOW()
		WHERE provider = $1 AND event_id = $2
	`

	result, err := r.db.DB().ExecContext(ctx, query, provider, eventID, gameID, confidence)
	if err != nil {
		return fmt.Errorf("linking odds event: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("odds event not found: %s/%s", provider, eventID)
	}

	return nil
}

// ListEventsByDate returns a provider's events whose start falls on the
// given date in America/Chicago
func (r *OddsRepository) ListEventsByDate(ctx context.Context, provider string, date time.Time) ([]*store.OddsEvent, error) {
	query := `
		SELECT id, provider, event_id, home_team, away_team, commence_time,
			game_id, match_confidence, created_at, updated_at
		FROM odds_events
		WHERE provider = $1
			AND DATE(commence_time AT TIME ZONE 'America/Chicago') = $2::date
		ORDER BY commence_time, event_id
	`

	rows, err := r.db.DB().QueryContext(ctx, query, provider, date.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("querying odds events: %w", err)
	}
	defer rows.Close()

	var events []*store.OddsEvent
	for rows.Next() {
		event := &store.OddsEvent{}
		err := rows.Scan(
			&event.ID, &event.Provider, &event.EventID, &event.HomeTeam, &event.AwayTeam,
			&event.CommenceTime, &event.GameID, &event.MatchConfidence,
			&event.CreatedAt, &event.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning odds event: %w", err)
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

// UpsertMoneyline inserts or updates one h2h price
func (r *OddsRepository) UpsertMoneyline(ctx context.Context, odds *store.MoneylineOdds) error {
	query := `
		INSERT INTO moneyline_odds (provider, game_id, sportsbook, team_name, price, last_update)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (provider, game_id, sportsbook, team_name) DO UPDATE SET
			price = EXCLUDED.price,
			last_update = EXCLUDED.last_update,
			updated_at = NOW()
		RETURNING id
	`

	err := r.db.DB().QueryRowContext(ctx, query,
		odds.Provider, odds.GameID, odds.Sportsbook, odds.TeamName, odds.Price, odds.LastUpdate,
	).Scan(&odds.ID)

	if err != nil {
		return fmt.Errorf("upserting moneyline: %w", err)
	}

	return nil
}

// UpsertMoneylines upserts a batch of h2h prices and returns the number stored
func (r *OddsRepository) UpsertMoneylines(ctx context.Context, odds []*store.MoneylineOdds) (int, error) {
	stored := 0
	for _, o := range odds {
		if err := r.UpsertMoneyline(ctx, o); err != nil {
			return stored, err
		}
		stored++
	}
	return stored, nil
}

// UpsertPropOdd inserts or updates one prop line side
func (r *OddsRepository) UpsertPropOdd(ctx context.Context, odds *store.PlayerPropOdds) error {
	query := `
		INSERT INTO player_prop_odds (provider, game_id, sportsbook, player_name,
			market, side, handicap, price, last_update)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (provider, game_id, sportsbook, player_name, market, side, handicap) DO UPDATE SET
			price = EXCLUDED.price,
			last_update = EXCLUDED.last_update,
			updated_at = NOW()
		RETURNING id
	`

	err := r.db.DB().QueryRowContext(ctx, query,
		odds.Provider, odds.GameID, odds.Sportsbook, odds.PlayerName,
		odds.Market, odds.Side, odds.Handicap, odds.Price, odds.LastUpdate,
	).Scan(&odds.ID)

	if err != nil {
		return fmt.Errorf("upserting prop line: %w", err)
	}

	return nil
}

// UpsertPropOdds upserts a batch of prop line sides and returns the number stored
func (r *OddsRepository) UpsertPropOdds(ctx context.Context, odds []*store.PlayerPropOdds) (int, error) {
	stored := 0
	for _, o := range odds {
		if err := r.UpsertPropOdd(ctx, o); err != nil {
			return stored, err
		}
		stored++
	}
	return stored, nil
}

// ListMoneylines returns every h2h price for games on a date (America/Chicago)
func (r *OddsRepository) ListMoneylines(ctx context.Context, date time.Time) ([]*store.MoneylineOdds, error) {
	query := `
		SELECT mo.id, mo.provider, mo.game_id, mo.sportsbook, mo.team_name,
			mo.price, mo.last_update, mo.created_at, mo.updated_at
		FROM moneyline_odds mo
		JOIN odds_events e ON e.provider = mo.provider AND e.event_id = mo.game_id
		WHERE DATE(e.commence_time AT TIME ZONE 'America/Chicago') = $1::date
		ORDER BY mo.game_id, mo.sportsbook, mo.team_name
	`

	rows, err := r.db.DB().QueryContext(ctx, query, date.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("querying moneylines: %w", err)
	}
	defer rows.Close()

	var out []*store.MoneylineOdds
	for rows.Next() {
		o := &store.MoneylineOdds{}
		err := rows.Scan(
			&o.ID, &o.Provider, &o.GameID, &o.Sportsbook, &o.TeamName,
			&o.Price, &o.LastUpdate, &o.CreatedAt, &o.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning moneyline: %w", err)
		}
		out = append(out, o)
	}

	return out, rows.Err()
}

// ListPropOdds returns every stored side of a market for games on a date
// (America/Chicago)
func (r *OddsRepository) ListPropOdds(ctx context.Context, date time.Time, market string) ([]*store.PlayerPropOdds, error) {
	query := `
		SELECT po.id, po.provider, po.game_id, po.sportsbook, po.player_name,
			po.market, po.side, po.handicap, po.price, po.last_update,
			po.created_at, po.updated_at
		FROM player_prop_odds po
		JOIN odds_events e ON e.provider = po.provider AND e.event_id = po.game_id
		WHERE DATE(e.commence_time AT TIME ZONE 'America/Chicago') = $1::date
			AND po.market = $2
		ORDER BY po.player_name, po.sportsbook, po.side, po.handicap
	`

	rows, err := r.db.DB().QueryContext(ctx, query, date.Format("2006-01-02"), market)
	if err != nil {
		return nil, fmt.Errorf("querying prop lines: %w", err)
	}
	defer rows.Close()

	return r.scanPropOdds(rows)
}

// ListPropPlayers returns the distinct player names quoted on a market
// across a date range. Names are stored as the provider spelled them, so
// callers fuzzy-match against this list rather than querying by name.
func (r *OddsRepository) ListPropPlayers(ctx context.Context, market string, from, to time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT po.player_name
		FROM player_prop_odds po
		JOIN odds_events e ON e.provider = po.provider AND e.event_id = po.game_id
		WHERE po.market = $1
			AND DATE(e.commence_time AT TIME ZONE 'America/Chicago') >= $2::date
			AND DATE(e.commence_time AT TIME ZONE 'America/Chicago') <= $3::date
		ORDER BY po.player_name
	`

	rows, err := r.db.DB().QueryContext(ctx, query,
		market, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("querying prop players: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning prop player: %w", err)
		}
		out = append(out, name)
	}

	return out, rows.Err()
}

// ListPropOddsForPlayer returns a player's stored prop sides for a market
// across a date range, newest first
func (r *OddsRepository) ListPropOddsForPlayer(ctx context.Context, player, market string, from, to time.Time) ([]*store.PlayerPropOdds, error) {
	query := `
		SELECT po.id, po.provider, po.game_id, po.sportsbook, po.player_name,
			po.market, po.side, po.handicap, po.price, po.last_update,
			po.created_at, po.updated_at
		FROM player_prop_odds po
		JOIN odds_events e ON e.provider = po.provider AND e.event_id = po.game_id
		WHERE po.player_name = $1
			AND po.market = $2
			AND DATE(e.commence_time AT TIME ZONE 'America/Chicago') >= $3::date
			AND DATE(e.commence_time AT TIME ZONE 'America/Chicago') <= $4::date
		ORDER BY e.commence_time DESC, po.sportsbook, po.side, po.handicap
	`

	rows, err := r.db.DB().QueryContext(ctx, query,
		player, market, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("querying player prop lines: %w", err)
	}
	defer rows.Close()

	return r.scanPropOdds(rows)
}

func (r *OddsRepository) scanPropOdds(rows *sql.Rows) ([]*store.PlayerPropOdds, error) {
	var out []*store.PlayerPropOdds
	for rows.Next() {
		o := &store.PlayerPropOdds{}
		err := rows.Scan(
			&o.ID, &o.Provider, &o.GameID, &o.Sportsbook, &o.PlayerName,
			&o.Market, &o.Side, &o.Handicap, &o.Price, &o.LastUpdate,
			&o.CreatedAt, &o.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning prop line: %w", err)
		}
		out = append(out, o)
	}

	return out, rows.Err()
}
