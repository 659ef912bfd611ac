package nst

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToGoalieGame(t *testing.T) {
	rec := Record{
		Labels: map[string]string{
			"player": "Igor Shesterkin",
			"team":   "NYR",
		},
		Values: map[string]float64{
			"gp":                38,
			"toi":               2242.37,
			"shots_against":     1105,
			"saves":             1012,
			"goals_against":     93,
			"sv_pct":            0.916,
			"gaa":               2.49,
			"gsaa":              10.2,
			"xg_against":        103.2,
			"hd_shots_against":  301,
			"hd_saves":          252,
			"hd_goals_against":  49,
			"hdsv_pct":          0.837,
			"avg_shot_distance": 36.1,
		},
	}

	g := toGoalieGame(rec, date(2025, 1, 15))
	require.NotNil(t, g)

	assert.Equal(t, "Igor Shesterkin", g.Player)
	assert.Equal(t, "NYR", g.Team)
	assert.Equal(t, "2024-25", g.Season)
	assert.Equal(t, date(2025, 1, 15), g.Date)

	require.True(t, g.GamesPlayed.Valid)
	assert.Equal(t, int32(38), g.GamesPlayed.Int32)

	require.True(t, g.SvPct.Valid)
	assert.Equal(t, 0.916, g.SvPct.Float64)

	require.True(t, g.HDShotsAgainst.Valid)
	assert.Equal(t, 301.0, g.HDShotsAgainst.Float64)

	assert.False(t, g.MDShotsAgainst.Valid, "absent columns stay NULL")
	assert.False(t, g.AvgGoalDistance.Valid)

	require.True(t, g.AvgShotDistance.Valid)
	assert.Equal(t, 36.1, g.AvgShotDistance.Float64)
}

func TestToGoalieGameDropsFooterRows(t *testing.T) {
	rec := Record{
		Labels: map[string]string{},
		Values: map[string]float64{"gp": 1},
	}

	assert.Nil(t, toGoalieGame(rec, date(2025, 1, 15)))
}

func TestResultMerge(t *testing.T) {
	run := &Result{}
	run.merge(&Result{TablesFetched: 7, RowsUpserted: 410})
	run.merge(&Result{TablesFetched: 6, RowsUpserted: 300, Errors: []string{"teams 2025-01-16 pk: status 500"}})

	assert.Equal(t, 2, run.DaysScraped)
	assert.Equal(t, 13, run.TablesFetched)
	assert.Equal(t, 710, run.RowsUpserted)
	assert.Len(t, run.Errors, 1)
}
