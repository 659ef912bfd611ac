package theodds

import (
	"encoding/json"
	"time"
)

// Event is one game on the provider's board.
type Event struct {
	ID           string    `json:"id"`
	SportKey     string    `json:"sport_key"`
	SportTitle   string    `json:"sport_title"`
	CommenceTime time.Time `json:"commence_time"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
}

// EventOdds is the per-event odds payload across all requested markets.
type EventOdds struct {
	Event
	Bookmakers []Bookmaker `json:"bookmakers"`
}

// Bookmaker carries one book's markets for an event.
type Bookmaker struct {
	Key        string    `json:"key"`
	Title      string    `json:"title"`
	LastUpdate time.Time `json:"last_update"`
	Markets    []Market  `json:"markets"`
}

// Market is one market's outcomes at a single book.
type Market struct {
	Key        string    `json:"key"`
	LastUpdate time.Time `json:"last_update"`
	Outcomes   []Outcome `json:"outcomes"`
}

// Outcome is a single quoted side. Moneyline outcomes name the team and
// leave Description and Point empty; player prop outcomes put the player
// in Description, Over/Under in Name, and the line in Point.
type Outcome struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Point       *float64 `json:"point"`
}

// historicalEnvelope wraps historical responses. The snapshot payload
// sits under data alongside the snapshot timestamps.
type historicalEnvelope struct {
	Timestamp         string          `json:"timestamp"`
	PreviousTimestamp string          `json:"previous_timestamp"`
	NextTimestamp     string          `json:"next_timestamp"`
	Data              json.RawMessage `json:"data"`
}
