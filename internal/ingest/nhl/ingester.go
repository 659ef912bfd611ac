package nhl

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/borealis/internal/logger"
	"github.com/fortuna/borealis/internal/store"
	"github.com/fortuna/borealis/internal/store/repository"
	"github.com/fortuna/borealis/internal/team"
)

// Ingester syncs the league schedule and team listing into the store.
type Ingester struct {
	client *Client
	games  *repository.GameRepository
	teams  *repository.TeamRepository
	log    *logrus.Entry
}

// NewIngester wires a league sync pipeline.
func NewIngester(client *Client, games *repository.GameRepository, teams *repository.TeamRepository) *Ingester {
	return &Ingester{
		client: client,
		games:  games,
		teams:  teams,
		log:    logger.WithComponent("nhl-ingester"),
	}
}

// scheduleWeeks bounds nextStartDate pagination. The API serves one week
// per page, so four pages covers about a month of upcoming schedule.
const scheduleWeeks = 4

// SyncGames fetches schedule weeks starting at the week containing a date,
// following nextStartDate across pages, and upserts every playable game.
// Postponed and preseason games are skipped.
func (ing *Ingester) SyncGames(ctx context.Context, date time.Time) (int, error) {
	var games []*store.Game
	cursor := date
	for page := 0; page < scheduleWeeks; page++ {
		sched, err := ing.client.Schedule(ctx, cursor)
		if err != nil {
			return 0, fmt.Errorf("fetching schedule for %s: %w", cursor.Format("2006-01-02"), err)
		}
		games = append(games, collectWeekGames(sched)...)

		next, ok := nextWeekStart(sched)
		if !ok {
			break
		}
		cursor = next
	}

	n, err := ing.games.UpsertGames(ctx, games)
	if err != nil {
		return n, err
	}

	ing.log.WithFields(logrus.Fields{
		"date":  date.Format("2006-01-02"),
		"games": n,
	}).Info("✓ Synced schedule")

	return n, nil
}

// collectWeekGames flattens one schedule page into store rows. Postponed
// and preseason games are dropped, as are days with unparseable dates.
func collectWeekGames(sched *ScheduleResponse) []*store.Game {
	var games []*store.Game
	for _, day := range sched.GameWeek {
		gameDate, err := time.Parse("2006-01-02", day.Date)
		if err != nil {
			continue
		}
		for _, g := range day.Games {
			if g.GameScheduleState == ScheduleStatePostponed {
				continue
			}
			if g.GameType != GameTypeRegular && g.GameType != GameTypePlayoffs {
				continue
			}
			games = append(games, toStoreGame(g, gameDate))
		}
	}
	return games
}

// nextWeekStart extracts the pagination cursor from a schedule page.
func nextWeekStart(sched *ScheduleResponse) (time.Time, bool) {
	if sched.NextStartDate == "" {
		return time.Time{}, false
	}
	next, err := time.Parse("2006-01-02", sched.NextStartDate)
	if err != nil {
		return time.Time{}, false
	}
	return next, true
}

// SyncScores refreshes game state and scores for one day.
func (ing *Ingester) SyncScores(ctx context.Context, date time.Time) (int, error) {
	scores, err := ing.client.Scores(ctx, date)
	if err != nil {
		return 0, fmt.Errorf("fetching scores for %s: %w", date.Format("2006-01-02"), err)
	}

	games := make([]*store.Game, 0, len(scores.Games))
	for _, g := range scores.Games {
		if g.GameType != GameTypeRegular && g.GameType != GameTypePlayoffs {
			continue
		}
		games = append(games, toStoreGame(g, date))
	}

	return ing.games.UpsertGames(ctx, games)
}

// RefreshTeams reconciles the league's franchise listing against the
// canonical active set and repopulates the teams table. The listing
// includes defunct franchises, so rows are driven from the canonical set
// and only pick up names from the API.
func (ing *Ingester) RefreshTeams(ctx context.Context) (int, error) {
	info, err := ing.client.Teams(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetching team listing: %w", err)
	}

	apiNames := make(map[string]string, len(info.Data))
	for _, t := range info.Data {
		apiNames[t.TriCode] = t.FullName
	}

	entries := team.DefaultEntries()
	teams := make([]*store.Team, 0, len(entries))
	for _, e := range entries {
		full := e.FullName
		if name, ok := apiNames[e.Tricode]; ok && name != "" {
			full = name
		}
		teams = append(teams, &store.Team{
			Abbreviation: e.Tricode,
			FullName:     full,
			NSTCode:      e.NSTCode,
			IsActive:     true,
		})
	}

	n, err := ing.teams.UpsertTeams(ctx, teams)
	if err != nil {
		return n, err
	}

	ing.log.WithField("teams", n).Info("✓ Refreshed team directory")
	return n, nil
}

func toStoreGame(g Game, date time.Time) *store.Game {
	sg := &store.Game{
		GameID:    g.ID,
		SeasonID:  g.Season,
		GameDate:  date,
		HomeTeam:  g.HomeTeam.Abbrev,
		AwayTeam:  g.AwayTeam.Abbrev,
		GameState: g.GameState,
	}
	if !g.StartTimeUTC.IsZero() {
		sg.StartTimeUTC = sql.NullTime{Time: g.StartTimeUTC, Valid: true}
	}
	if g.Venue.Default != "" {
		sg.Venue = sql.NullString{String: g.Venue.Default, Valid: true}
	}
	if g.HomeTeam.Score != nil {
		sg.HomeScore = sql.NullInt32{Int32: int32(*g.HomeTeam.Score), Valid: true}
	}
	if g.AwayTeam.Score != nil {
		sg.AwayScore = sql.NullInt32{Int32: int32(*g.AwayTeam.Score), Valid: true}
	}
	return sg
}
