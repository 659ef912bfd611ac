package theodds

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/borealis/internal/odds"
)

const liveEventsJSON = `[
	{
		"id": "a512e93474561ec5c9affa1b92629b0d",
		"sport_key": "icehockey_nhl",
		"sport_title": "NHL",
		"commence_time": "2025-01-16T00:00:00Z",
		"home_team": "New Jersey Devils",
		"away_team": "Toronto Maple Leafs"
	},
	{
		"id": "b9f1077f322b508f979daa92b3decc0f",
		"sport_key": "icehockey_nhl",
		"sport_title": "NHL",
		"commence_time": "2025-01-16T02:30:00Z",
		"home_team": "Colorado Avalanche",
		"away_team": "Winnipeg Jets"
	}
]`

const historicalEventsJSON = `{
	"timestamp": "2025-01-15T18:00:00Z",
	"previous_timestamp": "2025-01-15T17:55:00Z",
	"next_timestamp": "2025-01-15T18:05:00Z",
	"data": [
		{
			"id": "a512e93474561ec5c9affa1b92629b0d",
			"sport_key": "icehockey_nhl",
			"sport_title": "NHL",
			"commence_time": "2025-01-16T00:00:00Z",
			"home_team": "New Jersey Devils",
			"away_team": "Toronto Maple Leafs"
		}
	]
}`

const eventOddsJSON = `{
	"id": "a512e93474561ec5c9affa1b92629b0d",
	"sport_key": "icehockey_nhl",
	"commence_time": "2025-01-16T00:00:00Z",
	"home_team": "New Jersey Devils",
	"away_team": "Toronto Maple Leafs",
	"bookmakers": [
		{
			"key": "draftkings",
			"title": "DraftKings",
			"last_update": "2025-01-15T23:50:00Z",
			"markets": [
				{
					"key": "h2h",
					"last_update": "2025-01-15T23:50:00Z",
					"outcomes": [
						{"name": "New Jersey Devils", "price": -130},
						{"name": "Toronto Maple Leafs", "price": 110}
					]
				},
				{
					"key": "player_shots_on_goal",
					"last_update": "2025-01-15T23:45:00Z",
					"outcomes": [
						{"name": "Over", "description": "Jack Hughes", "price": -115, "point": 3.5},
						{"name": "Under", "description": "Jack Hughes", "price": -105, "point": 3.5}
					]
				}
			]
		}
	]
}`

// chicagoToday returns midnight UTC of the current America/Chicago
// calendar day, the one date the client serves from the live board.
func chicagoToday(t *testing.T) time.Time {
	t.Helper()
	chicago, err := time.LoadLocation("America/Chicago")
	require.NoError(t, err)
	now := time.Now().In(chicago)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func TestEventsLive(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{}
		for key := range r.URL.Query() {
			gotQuery[key] = r.URL.Query().Get(key)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(liveEventsJSON))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "test-key")
	require.NoError(t, err)

	events, err := client.Events(context.Background(), chicagoToday(t))
	require.NoError(t, err)

	assert.Equal(t, "/sports/icehockey_nhl/events", gotPath)
	assert.NotEmpty(t, gotQuery["commenceTimeFrom"])
	assert.NotEmpty(t, gotQuery["commenceTimeTo"])
	assert.NotContains(t, gotQuery, "date")

	require.Len(t, events, 2)
	assert.Equal(t, "a512e93474561ec5c9affa1b92629b0d", events[0].ID)
	assert.Equal(t, "New Jersey Devils", events[0].HomeTeam)
	assert.Equal(t, "Toronto Maple Leafs", events[0].AwayTeam)
	assert.Equal(t, time.Date(2025, time.January, 16, 0, 0, 0, 0, time.UTC), events[0].CommenceTime)
}

func TestEventsHistoricalUnwrapsData(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{}
		for key := range r.URL.Query() {
			gotQuery[key] = r.URL.Query().Get(key)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(historicalEventsJSON))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "test-key")
	require.NoError(t, err)

	// Mid-January Chicago is UTC-6, so the day runs 06:00Z to 06:00Z and
	// the noon snapshot lands at 18:00Z.
	date := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	events, err := client.Events(context.Background(), date)
	require.NoError(t, err)

	assert.Equal(t, "/historical/sports/icehockey_nhl/events", gotPath)
	assert.Equal(t, "2025-01-15T18:00:00Z", gotQuery["date"])
	assert.Equal(t, "2025-01-15T06:00:00Z", gotQuery["commenceTimeFrom"])
	assert.Equal(t, "2025-01-16T06:00:00Z", gotQuery["commenceTimeTo"])

	require.Len(t, events, 1)
	assert.Equal(t, "New Jersey Devils", events[0].HomeTeam)
}

func TestEventOddsHistoricalSnapshot(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{}
		for key := range r.URL.Query() {
			gotQuery[key] = r.URL.Query().Get(key)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"timestamp": "2025-01-16T00:00:00Z", "data": ` + eventOddsJSON + `}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "test-key")
	require.NoError(t, err)

	snapshot := time.Date(2025, time.January, 16, 0, 0, 0, 0, time.UTC)
	board, err := client.EventOdds(context.Background(), "a512e93474561ec5c9affa1b92629b0d",
		[]string{odds.MarketMoneyline, odds.MarketShotsOnGoal}, snapshot)
	require.NoError(t, err)

	assert.Equal(t, "/historical/sports/icehockey_nhl/events/a512e93474561ec5c9affa1b92629b0d/odds", gotPath)
	assert.Equal(t, "2025-01-16T00:00:00Z", gotQuery["date"])
	assert.Equal(t, "us", gotQuery["regions"])
	assert.Equal(t, "american", gotQuery["oddsFormat"])
	assert.Equal(t, "h2h,player_shots_on_goal", gotQuery["markets"])

	require.Len(t, board.Bookmakers, 1)
	assert.Equal(t, "draftkings", board.Bookmakers[0].Key)
	require.Len(t, board.Bookmakers[0].Markets, 2)
}

func TestEventOddsLive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sports/icehockey_nhl/events/a512e93474561ec5c9affa1b92629b0d/odds", r.URL.Path)
		assert.Empty(t, r.URL.Query().Get("date"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(eventOddsJSON))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "test-key")
	require.NoError(t, err)

	board, err := client.EventOdds(context.Background(), "a512e93474561ec5c9affa1b92629b0d", eventMarkets, time.Time{})
	require.NoError(t, err)

	require.Len(t, board.Bookmakers, 1)
	sog := board.Bookmakers[0].Markets[1]
	require.Len(t, sog.Outcomes, 2)
	require.NotNil(t, sog.Outcomes[0].Point)
	assert.Equal(t, 3.5, *sog.Outcomes[0].Point)
	assert.Equal(t, "Jack Hughes", sog.Outcomes[0].Description)
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient("", "")
	require.Error(t, err)
}

func TestRedactURL(t *testing.T) {
	redacted := redactURL("https://api.example.com/v4/sports/icehockey_nhl/events?apiKey=abc123&regions=us")
	assert.Equal(t, "https://api.example.com/v4/sports/icehockey_nhl/events", redacted)
	assert.NotContains(t, redacted, "abc123")

	assert.Equal(t, "https://api.example.com/v4", redactURL("https://api.example.com/v4"))
}
