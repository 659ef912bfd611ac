package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() Schema {
	return Schema{
		Counts:    []string{"shots_for", "goals_for", "shots_against", "goals_against", "xg_for"},
		Intensity: []string{"toi"},
		Ratios: map[string]Ratio{
			"sh_pct": {Num: []Term{{"goals_for", 1}}, Den: []Term{{"shots_for", 1}}, Scale: 100},
			"sv_pct": {Num: []Term{{"shots_against", 1}, {"goals_against", -1}}, Den: []Term{{"shots_against", 1}}, Scale: 100},
		},
		Composites: map[string][]string{
			"pdo": {"sh_pct", "sv_pct"},
		},
	}
}

func gameDay(d int) time.Time {
	return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC)
}

func row(entity string, d int, values map[string]float64) Row {
	return Row{Entity: entity, Date: gameDay(d), Values: values}
}

func TestAggregateRecomputesRatiosFromSums(t *testing.T) {
	agg := NewAggregator(testSchema())

	// Per-game percentages are 10.0 and 5.0; the mean would be 7.5. The
	// correct weighted value is 100*2/30.
	rows := []Row{
		row("BOS", 1, map[string]float64{"shots_for": 10, "goals_for": 1}),
		row("BOS", 3, map[string]float64{"shots_for": 20, "goals_for": 1}),
	}

	out := agg.Aggregate(rows, Options{})
	require.Len(t, out, 1)

	shPct := out[0].Value("sh_pct")
	require.NotNil(t, shPct)
	assert.Equal(t, 6.667, *shPct)
}

func TestAggregateCountsAndIntensity(t *testing.T) {
	agg := NewAggregator(testSchema())

	rows := []Row{
		row("BOS", 1, map[string]float64{"shots_for": 10, "goals_for": 1, "xg_for": 1.2345, "toi": 12.5}),
		row("BOS", 2, map[string]float64{"shots_for": 20, "goals_for": 2, "xg_for": 2.3456, "toi": 15.0}),
		row("BOS", 3, map[string]float64{"shots_for": 30, "goals_for": 3, "xg_for": 0.1111, "toi": 17.5}),
	}

	out := agg.Aggregate(rows, Options{})
	require.Len(t, out, 1)
	got := out[0]

	assert.Equal(t, 3, got.GamesPlayed)
	assert.Equal(t, gameDay(3), got.LastGameDate)

	require.NotNil(t, got.Value("shots_for"))
	assert.Equal(t, 60.0, *got.Value("shots_for"))

	require.NotNil(t, got.Value("xg_for"))
	assert.Equal(t, 3.691, *got.Value("xg_for"), "expected-goals sums round to three decimals")

	require.NotNil(t, got.Value("toi"))
	assert.Equal(t, 15.0, *got.Value("toi"), "intensity stats average")
}

func TestAggregateGamesPlayedDeduplicates(t *testing.T) {
	agg := NewAggregator(testSchema())

	rows := []Row{
		row("BOS", 1, map[string]float64{"shots_for": 10}),
		row("BOS", 1, map[string]float64{"shots_for": 12}),
	}

	out := agg.Aggregate(rows, Options{})
	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].GamesPlayed, "duplicate rows for one game must not double count")
}

func TestAggregateSavePercentageAndComposite(t *testing.T) {
	agg := NewAggregator(testSchema())

	rows := []Row{
		row("BOS", 1, map[string]float64{
			"shots_for": 15, "goals_for": 1,
			"shots_against": 15, "goals_against": 1,
		}),
		row("BOS", 2, map[string]float64{
			"shots_for": 15, "goals_for": 1,
			"shots_against": 15, "goals_against": 1,
		}),
	}

	out := agg.Aggregate(rows, Options{})
	require.Len(t, out, 1)
	got := out[0]

	require.NotNil(t, got.Value("sh_pct"))
	assert.Equal(t, 6.667, *got.Value("sh_pct"))

	require.NotNil(t, got.Value("sv_pct"))
	assert.Equal(t, 93.333, *got.Value("sv_pct"))

	// PDO derives from the recomputed ratios, not from per-game values.
	require.NotNil(t, got.Value("pdo"))
	assert.Equal(t, 1.0, *got.Value("pdo"))
}

func TestAggregateUndefinedOutputs(t *testing.T) {
	agg := NewAggregator(testSchema())

	t.Run("stat never reported", func(t *testing.T) {
		rows := []Row{row("BOS", 1, map[string]float64{"shots_for": 10})}
		out := agg.Aggregate(rows, Options{})
		require.Len(t, out, 1)
		assert.Nil(t, out[0].Value("xg_for"))
		assert.Nil(t, out[0].Value("toi"))
		assert.Nil(t, out[0].Value("sh_pct"), "ratio missing its numerator stat is undefined")
		assert.Nil(t, out[0].Value("pdo"), "composite with an undefined component is undefined")
	})

	t.Run("zero denominator", func(t *testing.T) {
		rows := []Row{row("BOS", 1, map[string]float64{"shots_for": 0, "goals_for": 0})}
		out := agg.Aggregate(rows, Options{})
		require.Len(t, out, 1)
		assert.Nil(t, out[0].Value("sh_pct"), "division by a zero sum is undefined, not an error")
	})

	t.Run("empty input", func(t *testing.T) {
		out := agg.Aggregate(nil, Options{})
		require.NotNil(t, out)
		assert.Empty(t, out)
	})
}

func TestAggregateGroupBySide(t *testing.T) {
	agg := NewAggregator(testSchema())

	rows := []Row{
		{Entity: "BOS", Side: "home", Date: gameDay(1), Values: map[string]float64{"shots_for": 30}},
		{Entity: "BOS", Side: "away", Date: gameDay(2), Values: map[string]float64{"shots_for": 20}},
		{Entity: "BOS", Side: "home", Date: gameDay(3), Values: map[string]float64{"shots_for": 40}},
	}

	out := agg.Aggregate(rows, Options{GroupBySide: true})
	require.Len(t, out, 2)

	bySide := map[string]Aggregate{}
	for _, a := range out {
		bySide[a.Side] = a
	}
	require.Contains(t, bySide, "home")
	require.Contains(t, bySide, "away")
	assert.Equal(t, 70.0, *bySide["home"].Value("shots_for"))
	assert.Equal(t, 2, bySide["home"].GamesPlayed)
	assert.Equal(t, 20.0, *bySide["away"].Value("shots_for"))
}

func TestAggregateOrdering(t *testing.T) {
	agg := NewAggregator(testSchema())

	rows := []Row{
		row("ANA", 1, map[string]float64{"shots_for": 10}),
		row("BOS", 1, map[string]float64{"shots_for": 30}),
		row("CAR", 1, map[string]float64{"shots_for": 20}),
		row("DET", 1, map[string]float64{"toi": 10}),
	}

	t.Run("default first count stat descending with undefined last", func(t *testing.T) {
		out := agg.Aggregate(rows, Options{})
		require.Len(t, out, 4)
		assert.Equal(t, "BOS", out[0].Entity)
		assert.Equal(t, "CAR", out[1].Entity)
		assert.Equal(t, "ANA", out[2].Entity)
		assert.Equal(t, "DET", out[3].Entity, "entities without the sort stat rank last")
	})

	t.Run("ascending by request", func(t *testing.T) {
		out := agg.Aggregate(rows, Options{SortBy: "shots_for", SortAscending: true})
		require.Len(t, out, 4)
		assert.Equal(t, "ANA", out[0].Entity)
		assert.Equal(t, "DET", out[3].Entity)
	})
}

func TestRolling(t *testing.T) {
	agg := NewAggregator(testSchema())

	rows := []Row{
		row("rask", 2, map[string]float64{"shots_against": 30, "goals_against": 1}),
		row("rask", 4, map[string]float64{"shots_against": 20, "goals_against": 2}),
		row("rask", 6, map[string]float64{"shots_against": 40, "goals_against": 1}),
		row("rask", 8, map[string]float64{"shots_against": 25, "goals_against": 5}),
		row("halak", 6, map[string]float64{"shots_against": 30, "goals_against": 0}),
	}

	t.Run("most recent n games at or before the date", func(t *testing.T) {
		got, ok := agg.Rolling(rows, "rask", gameDay(7), 2)
		require.True(t, ok)
		assert.Equal(t, 2, got.GamesPlayed)
		assert.Equal(t, gameDay(6), got.LastGameDate)
		// Games on the 4th and 6th: 60 shots, 3 goals.
		require.NotNil(t, got.Value("sv_pct"))
		assert.Equal(t, 95.0, *got.Value("sv_pct"))
	})

	t.Run("window shorter than requested", func(t *testing.T) {
		got, ok := agg.Rolling(rows, "rask", gameDay(3), 5)
		require.True(t, ok)
		assert.Equal(t, 1, got.GamesPlayed)
	})

	t.Run("no rows in range", func(t *testing.T) {
		_, ok := agg.Rolling(rows, "rask", gameDay(1), 3)
		assert.False(t, ok)
	})

	t.Run("unknown entity", func(t *testing.T) {
		_, ok := agg.Rolling(rows, "fleury", gameDay(8), 3)
		assert.False(t, ok)
	})
}

func TestComparison(t *testing.T) {
	agg := NewAggregator(testSchema())

	rows := []Row{
		// Three games each for two goalies, one game for a third.
		row("rask", 1, map[string]float64{"shots_against": 30, "goals_against": 1}),
		row("rask", 2, map[string]float64{"shots_against": 30, "goals_against": 1}),
		row("rask", 3, map[string]float64{"shots_against": 30, "goals_against": 1}),
		row("halak", 1, map[string]float64{"shots_against": 20, "goals_against": 2}),
		row("halak", 2, map[string]float64{"shots_against": 20, "goals_against": 2}),
		row("halak", 3, map[string]float64{"shots_against": 20, "goals_against": 2}),
		row("fleury", 3, map[string]float64{"shots_against": 10, "goals_against": 0}),
	}

	out := agg.Comparison(rows, ComparisonOptions{
		AsOf:     gameDay(10),
		NGames:   5,
		MinGames: 2,
		RankBy:   "sv_pct",
	})

	require.Len(t, out, 2, "entities under the game threshold drop out")
	assert.Equal(t, "rask", out[0].Entity)
	assert.Equal(t, "halak", out[1].Entity)
	assert.Equal(t, 96.667, *out[0].Value("sv_pct"))
	assert.Equal(t, 90.0, *out[1].Value("sv_pct"))
}

func TestComparisonEmptyInput(t *testing.T) {
	agg := NewAggregator(testSchema())

	out := agg.Comparison(nil, ComparisonOptions{AsOf: gameDay(1), NGames: 5, MinGames: 1, RankBy: "sv_pct"})
	require.NotNil(t, out)
	assert.Empty(t, out)
}

func TestSchemaNames(t *testing.T) {
	names := testSchema().Names()
	assert.ElementsMatch(t, []string{
		"shots_for", "goals_for", "shots_against", "goals_against", "xg_for",
		"toi", "sh_pct", "sv_pct", "pdo",
	}, names)
}
