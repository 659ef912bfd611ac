package theodds

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/borealis/internal/ingest"
	"github.com/fortuna/borealis/internal/logger"
	"github.com/fortuna/borealis/internal/odds"
	"github.com/fortuna/borealis/internal/publisher"
	"github.com/fortuna/borealis/internal/store"
	"github.com/fortuna/borealis/internal/store/repository"
	"github.com/fortuna/borealis/internal/team"
)

// Provider tags every row written by this ingester.
const Provider = "the-odds"

// eventMarkets are requested in a single odds call per event.
var eventMarkets = []string{odds.MarketMoneyline, odds.MarketShotsOnGoal, odds.MarketGoalieSaves}

// Ingester pulls the provider's NHL board for a date, stores every event
// and quote, then publishes the near-even line per player and book to
// the line stream.
type Ingester struct {
	client *Client
	repo   *repository.OddsRepository
	dir    team.Directory
	pub    *publisher.StreamPublisher
	log    *logrus.Entry
}

// NewIngester creates an ingester. The publisher may be nil for one-off
// runs that only need the database written.
func NewIngester(client *Client, repo *repository.OddsRepository, dir team.Directory, pub *publisher.StreamPublisher) *Ingester {
	return &Ingester{
		client: client,
		repo:   repo,
		dir:    dir,
		pub:    pub,
		log:    logger.WithComponent("theodds-ingester"),
	}
}

// Name implements ingest.LineProvider.
func (i *Ingester) Name() string { return Provider }

// IngestDate fetches and stores the full board for one calendar day.
// Failures on a single event are recorded on the result and the rest of
// the board still lands.
func (i *Ingester) IngestDate(ctx context.Context, date time.Time) (*ingest.Result, error) {
	res := &ingest.Result{Provider: Provider, Date: date.Format(dayLayout)}

	events, err := i.client.Events(ctx, date)
	if err != nil {
		return res, fmt.Errorf("failed to fetch events: %w", err)
	}

	historical := i.client.UsesHistorical(date)
	var props []*store.PlayerPropOdds
	var moneylines []*store.MoneylineOdds
	matchups := make(map[string]string)

	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		if err := i.repo.UpsertEvent(ctx, &store.OddsEvent{
			Provider:     Provider,
			EventID:      ev.ID,
			HomeTeam:     ev.HomeTeam,
			AwayTeam:     ev.AwayTeam,
			CommenceTime: ev.CommenceTime,
		}); err != nil {
			res.Errorf("event %s: %v", ev.ID, err)
			continue
		}
		res.Events++
		matchups[ev.ID] = i.matchupLabel(ev)

		// For past dates the snapshot at commence time is the final
		// pre-game board.
		snapshot := time.Time{}
		if historical {
			snapshot = ev.CommenceTime
		}

		board, err := i.client.EventOdds(ctx, ev.ID, eventMarkets, snapshot)
		if err != nil {
			res.Errorf("odds for event %s: %v", ev.ID, err)
			continue
		}

		eventMoneylines, eventProps := collectQuotes(ev.ID, board)

		stored, err := i.repo.UpsertMoneylines(ctx, eventMoneylines)
		res.Moneylines += stored
		if err != nil {
			res.Errorf("moneylines for event %s: %v", ev.ID, err)
		}

		stored, err = i.repo.UpsertPropOdds(ctx, eventProps)
		res.Props += stored
		if err != nil {
			res.Errorf("props for event %s: %v", ev.ID, err)
		}

		moneylines = append(moneylines, eventMoneylines...)
		props = append(props, eventProps...)
	}

	i.publishBoards(ctx, res, props, moneylines, matchups)

	i.log.WithFields(logrus.Fields{
		"date":       res.Date,
		"events":     res.Events,
		"moneylines": res.Moneylines,
		"props":      res.Props,
		"errors":     len(res.Errors),
	}).Info("✓ Odds board ingested")

	return res, nil
}

// collectQuotes flattens an event's bookmaker tree into storable rows.
// Prop outcomes without a player or a line are dropped; the provider
// uses those shapes for markets this pipeline does not track.
func collectQuotes(eventID string, board *EventOdds) ([]*store.MoneylineOdds, []*store.PlayerPropOdds) {
	var moneylines []*store.MoneylineOdds
	var props []*store.PlayerPropOdds

	for _, bm := range board.Bookmakers {
		for _, m := range bm.Markets {
			updated := m.LastUpdate
			if updated.IsZero() {
				updated = bm.LastUpdate
			}

			for _, out := range m.Outcomes {
				switch m.Key {
				case odds.MarketMoneyline:
					moneylines = append(moneylines, &store.MoneylineOdds{
						Provider:   Provider,
						GameID:     eventID,
						Sportsbook: bm.Key,
						TeamName:   out.Name,
						Price:      int(out.Price),
						LastUpdate: updated,
					})
				case odds.MarketShotsOnGoal, odds.MarketGoalieSaves:
					if out.Description == "" || out.Point == nil {
						continue
					}
					props = append(props, &store.PlayerPropOdds{
						Provider:   Provider,
						GameID:     eventID,
						Sportsbook: bm.Key,
						PlayerName: out.Description,
						Market:     m.Key,
						Side:       strings.ToLower(out.Name),
						Handicap:   *out.Point,
						Price:      int(out.Price),
						LastUpdate: updated,
					})
				}
			}
		}
	}

	return moneylines, props
}

// abbreviate maps a provider team name to its tricode, keeping the
// provider's name when the directory does not know it.
func (i *Ingester) abbreviate(name string) string {
	if i.dir != nil {
		if code, ok := i.dir.Abbreviation(name); ok {
			return code
		}
	}
	return name
}

func (i *Ingester) matchupLabel(ev Event) string {
	return i.abbreviate(ev.AwayTeam) + " @ " + i.abbreviate(ev.HomeTeam)
}

// publishBoards selects the near-even line per book for each player and
// the freshest price per book for each matchup, then publishes one board
// per market.
func (i *Ingester) publishBoards(ctx context.Context, res *ingest.Result, props []*store.PlayerPropOdds, moneylines []*store.MoneylineOdds, matchups map[string]string) {
	if i.pub == nil {
		return
	}

	if len(moneylines) > 0 {
		byMatchup := make(map[string][]odds.Quote)
		for _, m := range moneylines {
			label := matchups[m.GameID]
			if label == "" {
				label = m.GameID
			}
			byMatchup[label] = append(byMatchup[label], odds.Quote{
				Sportsbook: m.Sportsbook,
				Side:       i.abbreviate(m.TeamName),
				Price:      m.Price,
				Timestamp:  m.LastUpdate,
			})
		}
		i.publishBoard(ctx, res, odds.MarketMoneyline, byMatchup)
	}

	for _, market := range []string{odds.MarketShotsOnGoal, odds.MarketGoalieSaves} {
		byPlayer := make(map[string][]odds.Quote)
		for _, p := range props {
			if p.Market != market {
				continue
			}
			handicap := p.Handicap
			byPlayer[p.PlayerName] = append(byPlayer[p.PlayerName], odds.Quote{
				Sportsbook: p.Sportsbook,
				Side:       p.Side,
				Handicap:   &handicap,
				Price:      p.Price,
				Timestamp:  p.LastUpdate,
			})
		}
		i.publishBoard(ctx, res, market, byPlayer)
	}
}

func (i *Ingester) publishBoard(ctx context.Context, res *ingest.Result, market string, byPlayer map[string][]odds.Quote) {
	board := ingest.BuildBoard(Provider, res.Date, market, byPlayer)
	if board == nil {
		return
	}
	if err := i.pub.PublishLineUpdate(ctx, *board); err != nil {
		res.Errorf("publishing %s board: %v", market, err)
	}
}
