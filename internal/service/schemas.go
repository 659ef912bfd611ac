package service

import "github.com/fortuna/borealis/internal/stats"

// Stat schemas are package configuration. Every column's aggregation kind
// is declared here against the stored column names, never inferred from
// storage metadata.

// teamSchema covers the on-ice team table: shot-attempt and goal counts
// with their against-counterparts, recomputed possession and finishing
// rates, and PDO as the composite of the two percentages.
var teamSchema = stats.Schema{
	Counts: []string{"cf", "ca", "ff", "fa", "sf", "sa", "gf", "ga", "xgf", "xga"},
	Ratios: map[string]stats.Ratio{
		"cf_pct": {
			Num:   []stats.Term{{Stat: "cf", Coeff: 1}},
			Den:   []stats.Term{{Stat: "cf", Coeff: 1}, {Stat: "ca", Coeff: 1}},
			Scale: 100,
		},
		"sh_pct": {
			Num:   []stats.Term{{Stat: "gf", Coeff: 1}},
			Den:   []stats.Term{{Stat: "sf", Coeff: 1}},
			Scale: 100,
		},
		"sv_pct": {
			Num:   []stats.Term{{Stat: "sa", Coeff: 1}, {Stat: "ga", Coeff: -1}},
			Den:   []stats.Term{{Stat: "sa", Coeff: 1}},
			Scale: 100,
		},
	},
	Composites: map[string][]string{
		"pdo": {"sh_pct", "sv_pct"},
	},
}

// skaterSchema covers the merged individual/on-ice skater row. TOI is
// intensity so a window reports average ice time per game, not total.
var skaterSchema = stats.Schema{
	Counts:    []string{"goals", "total_assists", "total_points", "shots", "ixg", "icf"},
	Intensity: []string{"toi"},
	Ratios: map[string]stats.Ratio{
		"sh_pct": {
			Num:   []stats.Term{{Stat: "goals", Coeff: 1}},
			Den:   []stats.Term{{Stat: "shots", Coeff: 1}},
			Scale: 100,
		},
	},
}

// goalieSchema covers the fixed goalie columns. Workload components sum;
// shot-quality distances average; save percentages and GAA recompute from
// the summed components so a shutout next to a blowout weighs by shots
// faced, not by game.
var goalieSchema = stats.Schema{
	Counts: []string{
		"toi", "shots_against", "saves", "goals_against",
		"gsaa", "xg_against",
		"hd_shots_against", "hd_saves", "hd_goals_against",
		"md_shots_against", "md_saves", "md_goals_against",
		"ld_shots_against", "ld_saves", "ld_goals_against",
		"rush_attempts_against", "rebound_attempts_against",
	},
	Intensity: []string{"avg_shot_distance", "avg_goal_distance"},
	Ratios: map[string]stats.Ratio{
		"sv_pct": {
			Num:   []stats.Term{{Stat: "saves", Coeff: 1}},
			Den:   []stats.Term{{Stat: "shots_against", Coeff: 1}},
			Scale: 100,
		},
		"hdsv_pct": {
			Num:   []stats.Term{{Stat: "hd_saves", Coeff: 1}},
			Den:   []stats.Term{{Stat: "hd_shots_against", Coeff: 1}},
			Scale: 100,
		},
		"mdsv_pct": {
			Num:   []stats.Term{{Stat: "md_saves", Coeff: 1}},
			Den:   []stats.Term{{Stat: "md_shots_against", Coeff: 1}},
			Scale: 100,
		},
		"ldsv_pct": {
			Num:   []stats.Term{{Stat: "ld_saves", Coeff: 1}},
			Den:   []stats.Term{{Stat: "ld_shots_against", Coeff: 1}},
			Scale: 100,
		},
		// TOI is stored in minutes, so scale 60 yields goals per full game.
		"gaa": {
			Num:   []stats.Term{{Stat: "goals_against", Coeff: 1}},
			Den:   []stats.Term{{Stat: "toi", Coeff: 1}},
			Scale: 60,
		},
	},
}
