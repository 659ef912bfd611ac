package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/borealis/internal/odds"
)

func quote(book, side string, handicap float64, price int) odds.Quote {
	return odds.Quote{
		Sportsbook: book,
		Side:       side,
		Handicap:   &handicap,
		Price:      price,
		Timestamp:  time.Date(2025, time.January, 15, 18, 0, 0, 0, time.UTC),
	}
}

func TestBuildBoard(t *testing.T) {
	byPlayer := map[string][]odds.Quote{
		"Jack Hughes": {
			quote("draftkings", "over", 3.5, -115),
			quote("draftkings", "under", 3.5, -105),
		},
		"Artturi Lehkonen": {
			quote("fanduel", "over", 2.5, -110),
			quote("fanduel", "under", 2.5, -110),
		},
	}

	board := BuildBoard("the-odds", "2025-01-15", odds.MarketShotsOnGoal, byPlayer)
	require.NotNil(t, board)

	assert.Equal(t, "the-odds", board.Provider)
	assert.Equal(t, "2025-01-15", board.Date)
	assert.Equal(t, odds.MarketShotsOnGoal, board.Market)

	// Players come back alphabetically so repeated publishes agree.
	require.Len(t, board.Players, 2)
	assert.Equal(t, "Artturi Lehkonen", board.Players[0].Player)
	assert.Equal(t, "Jack Hughes", board.Players[1].Player)
	assert.Len(t, board.Players[1].Lines, 2)
}

func TestBuildBoardEmpty(t *testing.T) {
	assert.Nil(t, BuildBoard("the-odds", "2025-01-15", odds.MarketShotsOnGoal, nil))
	assert.Nil(t, BuildBoard("the-odds", "2025-01-15", odds.MarketShotsOnGoal, map[string][]odds.Quote{}))
}
