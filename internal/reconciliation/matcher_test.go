package reconciliation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/borealis/internal/store"
	"github.com/fortuna/borealis/internal/team"
)

func testGames() []*store.Game {
	return []*store.Game{
		{GameID: 2024020500, HomeTeam: "NJD", AwayTeam: "TOR"},
		{GameID: 2024020501, HomeTeam: "COL", AwayTeam: "WPG"},
	}
}

func TestMatchEventExactNames(t *testing.T) {
	m := NewMatcher(team.Default())

	event := &store.OddsEvent{
		HomeTeam: "New Jersey Devils",
		AwayTeam: "Toronto Maple Leafs",
	}

	game, confidence, ok := m.MatchEvent(event, testGames())
	require.True(t, ok)
	assert.Equal(t, 2024020500, game.GameID)
	assert.Equal(t, 100.0, confidence)
}

func TestMatchEventFuzzyName(t *testing.T) {
	m := NewMatcher(team.Default())

	event := &store.OddsEvent{
		HomeTeam: "New Jersey Devil's",
		AwayTeam: "Toronto Maple Leafs",
	}

	game, confidence, ok := m.MatchEvent(event, testGames())
	require.True(t, ok)
	assert.Equal(t, 2024020500, game.GameID)
	assert.Less(t, confidence, 100.0)
	assert.GreaterOrEqual(t, confidence, float64(DefaultThreshold))
}

func TestMatchEventNoGame(t *testing.T) {
	m := NewMatcher(team.Default())

	event := &store.OddsEvent{
		HomeTeam: "Boston Bruins",
		AwayTeam: "Montreal Canadiens",
	}

	_, _, ok := m.MatchEvent(event, testGames())
	assert.False(t, ok)
}

func TestMatchEventUnknownTeam(t *testing.T) {
	m := NewMatcher(team.Default())

	event := &store.OddsEvent{
		HomeTeam: "Quebec Nordiques",
		AwayTeam: "Toronto Maple Leafs",
	}

	_, _, ok := m.MatchEvent(event, testGames())
	assert.False(t, ok)
}

func TestMatchPlayer(t *testing.T) {
	m := NewMatcher(team.Default())
	roster := []string{"Mitch Marner", "Auston Matthews", "John Tavares"}

	name, score, ok := m.MatchPlayer("mitch marner", roster)
	require.True(t, ok)
	assert.Equal(t, "Mitch Marner", name)
	assert.Equal(t, 100, score)

	name, score, ok = m.MatchPlayer("Mitchell Marner", roster)
	require.True(t, ok)
	assert.Equal(t, "Mitch Marner", name)
	assert.Equal(t, 89, score)

	_, _, ok = m.MatchPlayer("Connor McDavid", roster)
	assert.False(t, ok)
}
