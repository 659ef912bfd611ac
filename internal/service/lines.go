package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/borealis/internal/logger"
	"github.com/fortuna/borealis/internal/odds"
	"github.com/fortuna/borealis/internal/reconciliation"
	"github.com/fortuna/borealis/internal/store"
	"github.com/fortuna/borealis/internal/store/repository"
)

// ErrPlayerNotFound is returned when a requested player matches nobody
// quoted on the market, even fuzzily.
var ErrPlayerNotFound = errors.New("player not found")

// LineService serves betting line boards and per-player line history
type LineService struct {
	odds    *repository.OddsRepository
	matcher *reconciliation.Matcher
	log     *logrus.Entry
}

// NewLineService creates a new line service
func NewLineService(db *store.Database, matcher *reconciliation.Matcher) *LineService {
	return &LineService{
		odds:    repository.NewOddsRepository(db),
		matcher: matcher,
		log:     logger.WithComponent("line-service"),
	}
}

// PlayerBoard is one player's selected lines across sportsbooks
type PlayerBoard struct {
	Player string       `json:"player"`
	Lines  []odds.Quote `json:"lines"`
}

// MarketBoard is the near-even board for one market on one slate day
type MarketBoard struct {
	Date    string        `json:"date"`
	Market  string        `json:"market"`
	Players []PlayerBoard `json:"players"`
}

// PlayerLineHistory is a player's stored quotes on one market, newest first
type PlayerLineHistory struct {
	Player     string                  `json:"player"`
	Requested  string                  `json:"requested,omitempty"`
	Market     string                  `json:"market"`
	MatchScore int                     `json:"match_score"`
	Lines      []*store.PlayerPropOdds `json:"lines"`
}

// GameMoneyline is one event's moneyline quotes across sportsbooks
type GameMoneyline struct {
	Provider string       `json:"provider"`
	GameID   string       `json:"game_id"`
	Lines    []odds.Quote `json:"lines"`
}

// MoneylineBoard is every stored moneyline for one slate day
type MoneylineBoard struct {
	Date  string          `json:"date"`
	Games []GameMoneyline `json:"games"`
}

// Board builds the near-even board for a market and slate day. Quotes from
// every provider land on one board; the per-book selection keeps only the
// freshest quote per line, so overlapping providers do not duplicate books.
func (s *LineService) Board(ctx context.Context, date time.Time, market string) (*MarketBoard, error) {
	rows, err := s.odds.ListPropOdds(ctx, date, market)
	if err != nil {
		return nil, fmt.Errorf("fetching prop lines: %w", err)
	}

	byPlayer := make(map[string][]odds.Quote)
	for _, row := range rows {
		h := row.Handicap
		byPlayer[row.PlayerName] = append(byPlayer[row.PlayerName], odds.Quote{
			Sportsbook: row.Sportsbook,
			Side:       row.Side,
			Handicap:   &h,
			Price:      row.Price,
			Timestamp:  row.LastUpdate,
		})
	}

	board := &MarketBoard{
		Date:    date.Format("2006-01-02"),
		Market:  market,
		Players: make([]PlayerBoard, 0, len(byPlayer)),
	}
	for player, quotes := range byPlayer {
		selected := odds.SelectNearEvenLines(quotes)
		if len(selected) == 0 {
			continue
		}
		board.Players = append(board.Players, PlayerBoard{Player: player, Lines: selected})
	}
	sort.Slice(board.Players, func(i, j int) bool {
		return board.Players[i].Player < board.Players[j].Player
	})

	return board, nil
}

// PlayerHistory returns a player's stored quotes for a market across a
// date range. The requested name is matched against the names providers
// actually quoted, so "Mitchell Marner" finds lines stored under "Mitch
// Marner". Returns ErrPlayerNotFound when nothing clears the threshold.
func (s *LineService) PlayerHistory(ctx context.Context, player, market string, from, to time.Time) (*PlayerLineHistory, error) {
	names, err := s.odds.ListPropPlayers(ctx, market, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetching quoted players: %w", err)
	}

	matched, score, ok := s.matcher.MatchPlayer(player, names)
	if !ok {
		return nil, fmt.Errorf("%q on %s: %w", player, market, ErrPlayerNotFound)
	}
	if matched != player {
		s.log.WithFields(logrus.Fields{
			"requested": player,
			"matched":   matched,
			"score":     score,
		}).Debug("Fuzzy-matched player name")
	}

	lines, err := s.odds.ListPropOddsForPlayer(ctx, matched, market, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetching player lines: %w", err)
	}

	history := &PlayerLineHistory{
		Player:     matched,
		Market:     market,
		MatchScore: score,
		Lines:      lines,
	}
	if matched != player {
		history.Requested = player
	}
	return history, nil
}

// Moneylines returns every stored moneyline for a slate day, grouped per
// provider event with the freshest quote per book and side.
func (s *LineService) Moneylines(ctx context.Context, date time.Time) (*MoneylineBoard, error) {
	rows, err := s.odds.ListMoneylines(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("fetching moneylines: %w", err)
	}

	type gameKey struct {
		provider string
		gameID   string
	}
	byGame := make(map[gameKey][]odds.Quote)
	for _, row := range rows {
		k := gameKey{provider: row.Provider, gameID: row.GameID}
		byGame[k] = append(byGame[k], odds.Quote{
			Sportsbook: row.Sportsbook,
			Side:       row.TeamName,
			Price:      row.Price,
			Timestamp:  row.LastUpdate,
		})
	}

	board := &MoneylineBoard{
		Date:  date.Format("2006-01-02"),
		Games: make([]GameMoneyline, 0, len(byGame)),
	}
	for k, quotes := range byGame {
		board.Games = append(board.Games, GameMoneyline{
			Provider: k.provider,
			GameID:   k.gameID,
			Lines:    odds.SelectNearEvenLines(quotes),
		})
	}
	sort.Slice(board.Games, func(i, j int) bool {
		if board.Games[i].Provider != board.Games[j].Provider {
			return board.Games[i].Provider < board.Games[j].Provider
		}
		return board.Games[i].GameID < board.Games[j].GameID
	})

	return board, nil
}
