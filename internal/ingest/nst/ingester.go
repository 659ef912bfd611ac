package nst

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/borealis/internal/logger"
	"github.com/fortuna/borealis/internal/season"
	"github.com/fortuna/borealis/internal/store"
	"github.com/fortuna/borealis/internal/store/repository"
	"github.com/fortuna/borealis/internal/window"
)

// defaultSituations are the game states scraped for skaters and teams.
var defaultSituations = []string{SitFiveOnFive, SitAllStrengths, SitPenaltyKill}

// Ingester drives the scrape pipeline: fetch, parse, upsert.
type Ingester struct {
	client     *Client
	parser     *Parser
	resolver   *window.Resolver
	skaters    *repository.SkaterRepository
	goalies    *repository.GoalieRepository
	teamStats  *repository.TeamStatsRepository
	situations []string
	log        *logrus.Entry
}

// NewIngester wires a scrape pipeline. A nil situations slice scrapes the
// default 5v5/all/pk set.
func NewIngester(
	client *Client,
	parser *Parser,
	resolver *window.Resolver,
	skaters *repository.SkaterRepository,
	goalies *repository.GoalieRepository,
	teamStats *repository.TeamStatsRepository,
	situations []string,
) *Ingester {
	if len(situations) == 0 {
		situations = defaultSituations
	}
	return &Ingester{
		client:     client,
		parser:     parser,
		resolver:   resolver,
		skaters:    skaters,
		goalies:    goalies,
		teamStats:  teamStats,
		situations: situations,
		log:        logger.WithComponent("nst-ingester"),
	}
}

// Result accumulates one scrape run.
type Result struct {
	Window        window.Window `json:"window"`
	DaysScraped   int           `json:"days_scraped"`
	TablesFetched int           `json:"tables_fetched"`
	RowsUpserted  int           `json:"rows_upserted"`
	Errors        []string      `json:"errors,omitempty"`
}

func (r *Result) errorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// merge folds a day's accumulator into the run total.
func (r *Result) merge(day *Result) {
	r.DaysScraped++
	r.TablesFetched += day.TablesFetched
	r.RowsUpserted += day.RowsUpserted
	r.Errors = append(r.Errors, day.Errors...)
}

// ScrapeWindow resolves a window request and scrapes every day in it.
// Rows are stored per date, so multi-day windows fetch day by day; a day
// that fails is recorded and the run moves on.
func (ing *Ingester) ScrapeWindow(ctx context.Context, req window.Request) (*Result, error) {
	w, err := ing.resolver.Resolve(req)
	if err != nil {
		return nil, err
	}

	seasonType := req.SeasonType
	res := &Result{Window: w}

	for d := w.StartDate; !d.After(w.EndDate); d = d.AddDate(0, 0, 1) {
		day, err := ing.ScrapeDay(ctx, d, seasonType)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.DaysScraped++
			res.errorf("%s: %v", d.Format(window.DateLayout), err)
			continue
		}
		res.merge(day)
	}

	ing.log.WithFields(logrus.Fields{
		"start":  w.StartDate.Format(window.DateLayout),
		"end":    w.EndDate.Format(window.DateLayout),
		"days":   res.DaysScraped,
		"tables": res.TablesFetched,
		"rows":   res.RowsUpserted,
		"errors": len(res.Errors),
	}).Info("✓ Scrape window complete")

	return res, nil
}

// ScrapeDay scrapes every configured table for a single date: skater
// individual and on-ice stats per situation, the team table per situation,
// and the goalie table at all strengths. Table failures are accumulated,
// not fatal.
func (ing *Ingester) ScrapeDay(ctx context.Context, date time.Time, seasonType season.Type) (*Result, error) {
	day := season.Day(date)
	w, err := ing.resolver.Resolve(window.Request{
		EndDate:    day.Format(window.DateLayout),
		SeasonType: seasonType,
	})
	if err != nil {
		return nil, err
	}

	res := &Result{Window: w}

	for _, sit := range ing.situations {
		n, err := ing.scrapeSkaters(ctx, w, seasonType, sit, res)
		if err != nil {
			res.errorf("skaters %s %s: %v", day.Format(window.DateLayout), sit, err)
		}
		res.RowsUpserted += n

		n, err = ing.scrapeTeams(ctx, w, seasonType, sit, res)
		if err != nil {
			res.errorf("teams %s %s: %v", day.Format(window.DateLayout), sit, err)
		}
		res.RowsUpserted += n
	}

	n, err := ing.scrapeGoalies(ctx, w, seasonType, res)
	if err != nil {
		res.errorf("goalies %s: %v", day.Format(window.DateLayout), err)
	}
	res.RowsUpserted += n

	ing.log.WithFields(logrus.Fields{
		"date":   day.Format(window.DateLayout),
		"tables": res.TablesFetched,
		"rows":   res.RowsUpserted,
		"errors": len(res.Errors),
	}).Info("Scraped day")

	return res, nil
}

// scrapeSkaters fetches the individual and on-ice tables for one situation
// and merges them into one row per player before upserting.
func (ing *Ingester) scrapeSkaters(ctx context.Context, w window.Window, seasonType season.Type, sit string, res *Result) (int, error) {
	merged := make(map[string]*store.SkaterGame)

	var fetchErr error
	for _, report := range []string{ReportIndividual, ReportOnIce} {
		q := PlayerQuery{
			Window:     w,
			SeasonType: seasonType,
			Situation:  sit,
			Report:     report,
		}
		table, err := ing.fetchAndParse(ctx, q, res)
		if err != nil {
			fetchErr = fmt.Errorf("%s: %w", report, err)
			continue
		}

		for _, rec := range table.Records {
			player := rec.Label("player")
			if player == "" {
				continue
			}
			g, ok := merged[player]
			if !ok {
				g = &store.SkaterGame{
					Player:    player,
					Date:      w.EndDate,
					Situation: sit,
					SeasonID:  w.ThruSeason,
					Stats:     store.StatMap{},
				}
				merged[player] = g
			}
			if team := rec.Label("team"); team != "" {
				g.Team = team
			}
			if pos := rec.Label("position"); pos != "" {
				g.Position = sql.NullString{String: pos, Valid: true}
			}
			for k, v := range rec.Values {
				g.Stats[k] = v
			}
		}
	}

	if len(merged) == 0 {
		return 0, fetchErr
	}

	games := make([]*store.SkaterGame, 0, len(merged))
	for _, g := range merged {
		games = append(games, g)
	}
	sort.Slice(games, func(i, j int) bool { return games[i].Player < games[j].Player })

	n, err := ing.skaters.UpsertGames(ctx, games)
	if err != nil {
		return n, err
	}
	return n, fetchErr
}

// scrapeTeams fetches and upserts the team table for one situation.
func (ing *Ingester) scrapeTeams(ctx context.Context, w window.Window, seasonType season.Type, sit string, res *Result) (int, error) {
	q := TeamQuery{Window: w, SeasonType: seasonType, Situation: sit}
	table, err := ing.fetchAndParse(ctx, q, res)
	if err != nil {
		return 0, err
	}

	games := make([]*store.TeamGame, 0, len(table.Records))
	for _, rec := range table.Records {
		team := rec.Label("team")
		if team == "" {
			continue
		}
		games = append(games, &store.TeamGame{
			Team:      team,
			Date:      w.EndDate,
			Situation: sit,
			SeasonID:  w.ThruSeason,
			Stats:     store.StatMap(rec.Values),
		})
	}

	return ing.teamStats.UpsertGames(ctx, games)
}

// scrapeGoalies fetches the goalie table at all strengths and upserts the
// fixed-column rows.
func (ing *Ingester) scrapeGoalies(ctx context.Context, w window.Window, seasonType season.Type, res *Result) (int, error) {
	q := PlayerQuery{
		Window:     w,
		SeasonType: seasonType,
		Situation:  SitAllStrengths,
		Report:     ReportGoalies,
		Lines:      "single",
	}
	table, err := ing.fetchAndParse(ctx, q, res)
	if err != nil {
		return 0, err
	}

	games := make([]*store.GoalieGame, 0, len(table.Records))
	for _, rec := range table.Records {
		if g := toGoalieGame(rec, w.EndDate); g != nil {
			games = append(games, g)
		}
	}

	return ing.goalies.UpsertGames(ctx, games)
}

func (ing *Ingester) fetchAndParse(ctx context.Context, q Query, res *Result) (*Table, error) {
	doc, err := ing.client.FetchTable(ctx, q)
	if err != nil {
		return nil, err
	}
	table, err := ing.parser.ParseTable(doc)
	if err != nil {
		return nil, err
	}
	res.TablesFetched++
	return table, nil
}

// toGoalieGame maps a parsed goalie record onto the fixed row schema.
// Rows without a player name are table footers and dropped.
func toGoalieGame(rec Record, date time.Time) *store.GoalieGame {
	player := rec.Label("player")
	if player == "" {
		return nil
	}

	g := &store.GoalieGame{
		Player: player,
		Team:   rec.Label("team"),
		Date:   date,
		Season: SeasonLabel(date),
	}

	if v, ok := rec.Value("gp"); ok {
		g.GamesPlayed = sql.NullInt32{Int32: int32(v), Valid: true}
	}

	g.TOI = nullFloat(rec, "toi")
	g.ShotsAgainst = nullFloat(rec, "shots_against")
	g.Saves = nullFloat(rec, "saves")
	g.GoalsAgainst = nullFloat(rec, "goals_against")
	g.SvPct = nullFloat(rec, "sv_pct")
	g.GAA = nullFloat(rec, "gaa")
	g.GSAA = nullFloat(rec, "gsaa")
	g.XGAgainst = nullFloat(rec, "xg_against")
	g.HDShotsAgainst = nullFloat(rec, "hd_shots_against")
	g.HDSaves = nullFloat(rec, "hd_saves")
	g.HDGoalsAgainst = nullFloat(rec, "hd_goals_against")
	g.HDSvPct = nullFloat(rec, "hdsv_pct")
	g.HDGAA = nullFloat(rec, "hdgaa")
	g.HDGSAA = nullFloat(rec, "hdgsaa")
	g.MDShotsAgainst = nullFloat(rec, "md_shots_against")
	g.MDSaves = nullFloat(rec, "md_saves")
	g.MDGoalsAgainst = nullFloat(rec, "md_goals_against")
	g.MDSvPct = nullFloat(rec, "mdsv_pct")
	g.MDGAA = nullFloat(rec, "mdgaa")
	g.MDGSAA = nullFloat(rec, "mdgsaa")
	g.LDShotsAgainst = nullFloat(rec, "ld_shots_against")
	g.LDSaves = nullFloat(rec, "ld_saves")
	g.LDGoalsAgainst = nullFloat(rec, "ld_goals_against")
	g.LDSvPct = nullFloat(rec, "ldsv_pct")
	g.LDGAA = nullFloat(rec, "ldgaa")
	g.LDGSAA = nullFloat(rec, "ldgsaa")
	g.RushAttemptsAgainst = nullFloat(rec, "rush_attempts_against")
	g.ReboundAttemptsAgainst = nullFloat(rec, "rebound_attempts_against")
	g.AvgShotDistance = nullFloat(rec, "avg_shot_distance")
	g.AvgGoalDistance = nullFloat(rec, "avg_goal_distance")

	return g
}

func nullFloat(rec Record, name string) sql.NullFloat64 {
	if v, ok := rec.Value(name); ok {
		return sql.NullFloat64{Float64: v, Valid: true}
	}
	return sql.NullFloat64{}
}
