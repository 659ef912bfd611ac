package propodds

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/borealis/internal/odds"
)

func TestParseOutcomeName(t *testing.T) {
	tests := []struct {
		name   string
		player string
		side   string
		ok     bool
	}{
		{"Artturi Lehkonen Over 0.5", "Artturi Lehkonen", "over", true},
		{"J.T. Miller Under 2.5", "J.T. Miller", "under", true},
		{"Pierre-Luc Dubois Over 1.5", "Pierre-Luc Dubois", "over", true},
		{"Over 0.5", "", "", false},
		{"Toronto Maple Leafs", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		player, side, ok := ParseOutcomeName(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.player, player, tt.name)
		assert.Equal(t, tt.side, side, tt.name)
	}
}

func outcome(name string, handicap, price float64, ts time.Time) Outcome {
	return Outcome{
		Timestamp: Timestamp{Time: ts},
		Handicap:  handicap,
		Odds:      price,
		Name:      name,
	}
}

func TestCollectQuotes(t *testing.T) {
	early := time.Date(2025, time.January, 15, 12, 0, 0, 0, time.UTC)
	late := time.Date(2025, time.January, 15, 18, 0, 0, 0, time.UTC)

	board := &MarketOdds{
		Sportsbooks: []SportsbookOdds{
			{
				BookieKey: "fanduel",
				Market: MarketOutcomes{
					MarketKey: ShotsMarket,
					Outcomes: []Outcome{
						outcome("Artturi Lehkonen Over 2.5", 2.5, -105, early),
						outcome("Artturi Lehkonen Over 2.5", 2.5, -115, late),
						outcome("Artturi Lehkonen Under 2.5", 2.5, -112, late),
						outcome("Not A Parseable Bet", 1.5, -110, late),
					},
				},
			},
			{
				BookieKey: "bovada",
				Market: MarketOutcomes{
					MarketKey: ShotsMarket,
					Outcomes: []Outcome{
						outcome("Artturi Lehkonen Over 2.5", 2.5, -120, late),
					},
				},
			},
		},
	}

	props := collectQuotes("game1", odds.MarketShotsOnGoal, board)

	// One line per surviving (book, player, side, handicap); the
	// unsupported book and the unparseable name are gone.
	require.Len(t, props, 2)

	over := props[0]
	assert.Equal(t, Provider, over.Provider)
	assert.Equal(t, "game1", over.GameID)
	assert.Equal(t, "fanduel", over.Sportsbook)
	assert.Equal(t, "Artturi Lehkonen", over.PlayerName)
	assert.Equal(t, odds.MarketShotsOnGoal, over.Market)
	assert.Equal(t, "over", over.Side)
	assert.Equal(t, 2.5, over.Handicap)
	// The later quote wins the line.
	assert.Equal(t, -115, over.Price)
	assert.Equal(t, late, over.LastUpdate)

	assert.Equal(t, "under", props[1].Side)
	assert.Equal(t, -112, props[1].Price)
}
