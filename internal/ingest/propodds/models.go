package propodds

import (
	"fmt"
	"strings"
	"time"
)

// ShotsMarket is the provider's name for the skater shots on goal
// over/under market.
const ShotsMarket = "player_shots_over_under"

// Game is one game on the provider's schedule. GameID is the hash the
// odds endpoints key on.
type Game struct {
	ID             string    `json:"id"`
	GameID         string    `json:"game_id"`
	AwayTeam       string    `json:"away_team"`
	HomeTeam       string    `json:"home_team"`
	StartTimestamp Timestamp `json:"start_timestamp"`
}

// GamesResponse wraps the schedule listing.
type GamesResponse struct {
	Games []Game `json:"games"`
}

// MarketOdds is one market's quote history across sportsbooks for a game.
type MarketOdds struct {
	Sportsbooks []SportsbookOdds `json:"sportsbooks"`
}

// SportsbookOdds is one book's slice of the market.
type SportsbookOdds struct {
	BookieKey string         `json:"bookie_key"`
	Market    MarketOutcomes `json:"market"`
}

// MarketOutcomes carries a book's full outcome time series.
type MarketOutcomes struct {
	MarketKey string    `json:"market_key"`
	Outcomes  []Outcome `json:"outcomes"`
}

// Outcome is one quote in a book's time series for a line. Name encodes
// the player and side, e.g. "Artturi Lehkonen Over 0.5".
type Outcome struct {
	Timestamp       Timestamp `json:"timestamp"`
	Handicap        float64   `json:"handicap"`
	Odds            float64   `json:"odds"`
	Participant     int       `json:"participant"`
	ParticipantName string    `json:"participant_name"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
}

// ParseOutcomeName splits an outcome name like "Artturi Lehkonen Over 0.5"
// into the player and lowercased side. Reports false for names that do
// not follow the player-side-handicap shape.
func ParseOutcomeName(name string) (player, side string, ok bool) {
	parts := strings.Fields(name)
	if len(parts) < 3 {
		return "", "", false
	}
	side = parts[len(parts)-2]
	if side != "Over" && side != "Under" {
		return "", "", false
	}
	return strings.Join(parts[:len(parts)-2], " "), strings.ToLower(side), true
}

// Timestamp accepts the provider's timestamps with or without a zone
// suffix; naive values are taken as UTC.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04:05.999999"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}
