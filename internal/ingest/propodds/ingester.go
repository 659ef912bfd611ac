package propodds

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/borealis/internal/ingest"
	"github.com/fortuna/borealis/internal/logger"
	"github.com/fortuna/borealis/internal/odds"
	"github.com/fortuna/borealis/internal/publisher"
	"github.com/fortuna/borealis/internal/store"
	"github.com/fortuna/borealis/internal/store/repository"
)

// Provider tags every row written by this ingester.
const Provider = "prop-odds"

// supportedBookies are the books whose quotes are stored; the provider
// carries more, with spottier data.
var supportedBookies = map[string]bool{
	"fanduel":    true,
	"pinnacle":   true,
	"draftkings": true,
	"betmgm":     true,
	"barstool":   true,
	"betrivers":  true,
	"pointsbet":  true,
	"fliff":      true,
	"hardrock":   true,
	"betonline":  true,
	"fanatics":   true,
}

// gameMarkets maps the provider's market names to the canonical keys
// quotes are stored under.
var gameMarkets = []struct {
	provider  string
	canonical string
}{
	{ShotsMarket, odds.MarketShotsOnGoal},
}

// Ingester pulls the provider's board for a date, keeps the freshest
// quote per line and book, and publishes the near-even selection per
// player to the line stream.
type Ingester struct {
	client *Client
	repo   *repository.OddsRepository
	pub    *publisher.StreamPublisher
	log    *logrus.Entry
}

// NewIngester creates an ingester. The publisher may be nil for one-off
// runs that only need the database written.
func NewIngester(client *Client, repo *repository.OddsRepository, pub *publisher.StreamPublisher) *Ingester {
	return &Ingester{
		client: client,
		repo:   repo,
		pub:    pub,
		log:    logger.WithComponent("propodds-ingester"),
	}
}

// Name implements ingest.LineProvider.
func (i *Ingester) Name() string { return Provider }

// IngestDate fetches and stores the board for one calendar day. Failures
// on a single game are recorded on the result and the rest still lands.
func (i *Ingester) IngestDate(ctx context.Context, date time.Time) (*ingest.Result, error) {
	res := &ingest.Result{Provider: Provider, Date: date.Format(dayLayout)}

	games, err := i.client.Games(ctx, date)
	if err != nil {
		return res, fmt.Errorf("failed to fetch games: %w", err)
	}

	var props []*store.PlayerPropOdds
	for _, g := range games {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		if err := i.repo.UpsertEvent(ctx, &store.OddsEvent{
			Provider:     Provider,
			EventID:      g.GameID,
			HomeTeam:     g.HomeTeam,
			AwayTeam:     g.AwayTeam,
			CommenceTime: g.StartTimestamp.Time,
		}); err != nil {
			res.Errorf("game %s: %v", g.GameID, err)
			continue
		}
		res.Events++

		for _, gm := range gameMarkets {
			board, err := i.client.MarketOdds(ctx, g.GameID, gm.provider)
			if err != nil {
				res.Errorf("market %s for game %s: %v", gm.provider, g.GameID, err)
				continue
			}

			gameProps := collectQuotes(g.GameID, gm.canonical, board)
			stored, err := i.repo.UpsertPropOdds(ctx, gameProps)
			res.Props += stored
			if err != nil {
				res.Errorf("props for game %s: %v", g.GameID, err)
			}
			props = append(props, gameProps...)
		}
	}

	i.publishBoards(ctx, res, props)

	i.log.WithFields(logrus.Fields{
		"date":   res.Date,
		"events": res.Events,
		"props":  res.Props,
		"errors": len(res.Errors),
	}).Info("✓ Odds board ingested")

	return res, nil
}

// collectQuotes keeps the most recent quote per book, player, side, and
// handicap from the market's full time series, skipping unsupported
// books and outcome names that do not parse.
func collectQuotes(gameID, market string, board *MarketOdds) []*store.PlayerPropOdds {
	type lineKey struct {
		book     string
		player   string
		side     string
		handicap float64
	}
	latest := make(map[lineKey]*store.PlayerPropOdds)
	var order []lineKey

	for _, sb := range board.Sportsbooks {
		if !supportedBookies[sb.BookieKey] {
			continue
		}
		for _, out := range sb.Market.Outcomes {
			player, side, ok := ParseOutcomeName(out.Name)
			if !ok {
				continue
			}

			k := lineKey{book: sb.BookieKey, player: player, side: side, handicap: out.Handicap}
			cur, seen := latest[k]
			if !seen {
				order = append(order, k)
			}
			if !seen || out.Timestamp.After(cur.LastUpdate) {
				latest[k] = &store.PlayerPropOdds{
					Provider:   Provider,
					GameID:     gameID,
					Sportsbook: sb.BookieKey,
					PlayerName: player,
					Market:     market,
					Side:       side,
					Handicap:   out.Handicap,
					Price:      int(out.Odds),
					LastUpdate: out.Timestamp.Time,
				}
			}
		}
	}

	props := make([]*store.PlayerPropOdds, 0, len(order))
	for _, k := range order {
		props = append(props, latest[k])
	}
	return props
}

// publishBoards selects the near-even line per book for each player and
// publishes one board per market.
func (i *Ingester) publishBoards(ctx context.Context, res *ingest.Result, props []*store.PlayerPropOdds) {
	if i.pub == nil {
		return
	}

	for _, gm := range gameMarkets {
		byPlayer := make(map[string][]odds.Quote)
		for _, p := range props {
			if p.Market != gm.canonical {
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

		board := ingest.BuildBoard(Provider, res.Date, gm.canonical, byPlayer)
		if board == nil {
			continue
		}
		if err := i.pub.PublishLineUpdate(ctx, *board); err != nil {
			res.Errorf("publishing %s board: %v", gm.canonical, err)
		}
	}
}
