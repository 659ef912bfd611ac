package store

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StatMap holds the numeric columns of one scraped row keyed by cleaned
// column name. Stored as JSONB; the scraped column set is wide and drifts,
// so the map is the schema.
type StatMap map[string]float64

// Value implements driver.Valuer.
func (m StatMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *StatMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("cannot scan %T into StatMap", src)
	}
}

// WindowStatMap is a stat map with nullable values; a nil entry is an
// aggregated ratio whose denominator never appeared.
type WindowStatMap map[string]*float64

// Value implements driver.Valuer.
func (m WindowStatMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *WindowStatMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("cannot scan %T into WindowStatMap", src)
	}
}

// Season represents one NHL season's calendar boundaries
type Season struct {
	SeasonID         int       `json:"season_id" db:"season_id"`
	StartDate        time.Time `json:"start_date" db:"start_date"`
	RegularSeasonEnd time.Time `json:"regular_season_end" db:"regular_season_end"`
	PlayoffEnd       time.Time `json:"playoff_end" db:"playoff_end"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// Team represents an NHL franchise
type Team struct {
	Abbreviation string         `json:"abbreviation" db:"abbreviation"`
	FullName     string         `json:"full_name" db:"full_name"`
	NSTCode      string         `json:"nst_code" db:"nst_code"`
	Conference   sql.NullString `json:"conference,omitempty" db:"conference"`
	Division     sql.NullString `json:"division,omitempty" db:"division"`
	LogoURL      sql.NullString `json:"logo_url,omitempty" db:"logo_url"`
	IsActive     bool           `json:"is_active" db:"is_active"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

// Game represents one scheduled NHL game, keyed by the league's game id
type Game struct {
	GameID       int            `json:"game_id" db:"game_id"`
	SeasonID     int            `json:"season_id" db:"season_id"`
	GameDate     time.Time      `json:"game_date" db:"game_date"`
	StartTimeUTC sql.NullTime   `json:"start_time_utc,omitempty" db:"start_time_utc"`
	HomeTeam     string         `json:"home_team" db:"home_team"`
	AwayTeam     string         `json:"away_team" db:"away_team"`
	HomeScore    sql.NullInt32  `json:"home_score,omitempty" db:"home_score"`
	AwayScore    sql.NullInt32  `json:"away_score,omitempty" db:"away_score"`
	GameState    string         `json:"game_state" db:"game_state"`
	Venue        sql.NullString `json:"venue,omitempty" db:"venue"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

// SkaterGame represents one skater's scraped line for a single date and
// situation. Team can be a comma-joined list for multi-team rows.
type SkaterGame struct {
	ID        int            `json:"id" db:"id"`
	Player    string         `json:"player" db:"player"`
	Team      string         `json:"team" db:"team"`
	Position  sql.NullString `json:"position,omitempty" db:"position"`
	Date      time.Time      `json:"date" db:"date"`
	Situation string         `json:"situation" db:"situation"`
	SeasonID  int            `json:"season_id" db:"season_id"`
	Stats     StatMap        `json:"stats" db:"stats"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

// TeamGame represents one team's scraped line for a single date and situation
type TeamGame struct {
	ID        int       `json:"id" db:"id"`
	Team      string    `json:"team" db:"team"`
	Date      time.Time `json:"date" db:"date"`
	Situation string    `json:"situation" db:"situation"`
	SeasonID  int       `json:"season_id" db:"season_id"`
	Stats     StatMap   `json:"stats" db:"stats"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// GoalieGame represents one goalie's line for a single date. Columns are
// fixed; "-" cells arrive as NULL.
type GoalieGame struct {
	ID                     int             `json:"id" db:"id"`
	Player                 string          `json:"player" db:"player"`
	Team                   string          `json:"team" db:"team"`
	Date                   time.Time       `json:"date" db:"date"`
	Season                 string          `json:"season" db:"season"`
	GamesPlayed            sql.NullInt32   `json:"gp,omitempty" db:"gp"`
	TOI                    sql.NullFloat64 `json:"toi,omitempty" db:"toi"`
	ShotsAgainst           sql.NullFloat64 `json:"shots_against,omitempty" db:"shots_against"`
	Saves                  sql.NullFloat64 `json:"saves,omitempty" db:"saves"`
	GoalsAgainst           sql.NullFloat64 `json:"goals_against,omitempty" db:"goals_against"`
	SvPct                  sql.NullFloat64 `json:"sv_pct,omitempty" db:"sv_pct"`
	GAA                    sql.NullFloat64 `json:"gaa,omitempty" db:"gaa"`
	GSAA                   sql.NullFloat64 `json:"gsaa,omitempty" db:"gsaa"`
	XGAgainst              sql.NullFloat64 `json:"xg_against,omitempty" db:"xg_against"`
	HDShotsAgainst         sql.NullFloat64 `json:"hd_shots_against,omitempty" db:"hd_shots_against"`
	HDSaves                sql.NullFloat64 `json:"hd_saves,omitempty" db:"hd_saves"`
	HDGoalsAgainst         sql.NullFloat64 `json:"hd_goals_against,omitempty" db:"hd_goals_against"`
	HDSvPct                sql.NullFloat64 `json:"hdsv_pct,omitempty" db:"hdsv_pct"`
	HDGAA                  sql.NullFloat64 `json:"hdgaa,omitempty" db:"hdgaa"`
	HDGSAA                 sql.NullFloat64 `json:"hdgsaa,omitempty" db:"hdgsaa"`
	MDShotsAgainst         sql.NullFloat64 `json:"md_shots_against,omitempty" db:"md_shots_against"`
	MDSaves                sql.NullFloat64 `json:"md_saves,omitempty" db:"md_saves"`
	MDGoalsAgainst         sql.NullFloat64 `json:"md_goals_against,omitempty" db:"md_goals_against"`
	MDSvPct                sql.NullFloat64 `json:"mdsv_pct,omitempty" db:"mdsv_pct"`
	MDGAA                  sql.NullFloat64 `json:"mdgaa,omitempty" db:"mdgaa"`
	MDGSAA                 sql.NullFloat64 `json:"mdgsaa,omitempty" db:"mdgsaa"`
	LDShotsAgainst         sql.NullFloat64 `json:"ld_shots_against,omitempty" db:"ld_shots_against"`
	LDSaves                sql.NullFloat64 `json:"ld_saves,omitempty" db:"ld_saves"`
	LDGoalsAgainst         sql.NullFloat64 `json:"ld_goals_against,omitempty" db:"ld_goals_against"`
	LDSvPct                sql.NullFloat64 `json:"ldsv_pct,omitempty" db:"ldsv_pct"`
	LDGAA                  sql.NullFloat64 `json:"ldgaa,omitempty" db:"ldgaa"`
	LDGSAA                 sql.NullFloat64 `json:"ldgsaa,omitempty" db:"ldgsaa"`
	RushAttemptsAgainst    sql.NullFloat64 `json:"rush_attempts_against,omitempty" db:"rush_attempts_against"`
	ReboundAttemptsAgainst sql.NullFloat64 `json:"rebound_attempts_against,omitempty" db:"rebound_attempts_against"`
	AvgShotDistance        sql.NullFloat64 `json:"avg_shot_distance,omitempty" db:"avg_shot_distance"`
	AvgGoalDistance        sql.NullFloat64 `json:"avg_goal_distance,omitempty" db:"avg_goal_distance"`
	CreatedAt              time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at" db:"updated_at"`
}

// TeamWindowStat holds the latest aggregated window per team and situation
type TeamWindowStat struct {
	Team        string        `json:"team" db:"team"`
	Situation   string        `json:"situation" db:"situation"`
	WindowStart time.Time     `json:"window_start" db:"window_start"`
	WindowEnd   time.Time     `json:"window_end" db:"window_end"`
	FromSeason  int           `json:"from_season" db:"from_season"`
	ThruSeason  int           `json:"thru_season" db:"thru_season"`
	GamesPlayed int           `json:"games_played" db:"games_played"`
	Stats       WindowStatMap `json:"stats" db:"stats"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

// OddsEvent links a provider's event id to a scheduled NHL game
type OddsEvent struct {
	ID              int             `json:"id" db:"id"`
	Provider        string          `json:"provider" db:"provider"`
	EventID         string          `json:"event_id" db:"event_id"`
	HomeTeam        string          `json:"home_team" db:"home_team"`
	AwayTeam        string          `json:"away_team" db:"away_team"`
	CommenceTime    time.Time       `json:"commence_time" db:"commence_time"`
	GameID          sql.NullInt32   `json:"game_id,omitempty" db:"game_id"`
	MatchConfidence sql.NullFloat64 `json:"match_confidence,omitempty" db:"match_confidence"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// MoneylineOdds represents one sportsbook's h2h price on one team
type MoneylineOdds struct {
	ID         int       `json:"id" db:"id"`
	Provider   string    `json:"provider" db:"provider"`
	GameID     string    `json:"game_id" db:"game_id"`
	Sportsbook string    `json:"sportsbook" db:"sportsbook"`
	TeamName   string    `json:"team_name" db:"team_name"`
	Price      int       `json:"price" db:"price"`
	LastUpdate time.Time `json:"last_update" db:"last_update"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// PlayerPropOdds represents one sportsbook's price on one side of a player
// prop line
type PlayerPropOdds struct {
	ID         int       `json:"id" db:"id"`
	Provider   string    `json:"provider" db:"provider"`
	GameID     string    `json:"game_id" db:"game_id"`
	Sportsbook string    `json:"sportsbook" db:"sportsbook"`
	PlayerName string    `json:"player_name" db:"player_name"`
	Market     string    `json:"market" db:"market"`
	Side       string    `json:"side" db:"side"`
	Handicap   float64   `json:"handicap" db:"handicap"`
	Price      int       `json:"price" db:"price"`
	LastUpdate time.Time `json:"last_update" db:"last_update"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
