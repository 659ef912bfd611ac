package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fortuna/borealis/internal/store"
	"github.com/fortuna/borealis/internal/store/repository"
	"github.com/fortuna/borealis/internal/team"
)

// ErrGameNotFound reports a game id absent from the schedule.
var ErrGameNotFound = errors.New("game not found")

// GameService handles schedule lookups
type GameService struct {
	games *repository.GameRepository
	dir   team.Directory
}

// NewGameService creates a new game service
func NewGameService(db *store.Database, dir team.Directory) *GameService {
	return &GameService{
		games: repository.NewGameRepository(db),
		dir:   dir,
	}
}

// GameSummary pairs a stored game with the full team names the tricodes
// stand for
type GameSummary struct {
	Game     *store.Game `json:"game"`
	HomeName string      `json:"home_name"`
	AwayName string      `json:"away_name"`
}

// GetGame retrieves a game by its league id
func (s *GameService) GetGame(ctx context.Context, gameID int) (*GameSummary, error) {
	game, err := s.games.Get(ctx, gameID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching game: %w", err)
	}
	return s.summarize(game), nil
}

// GetGamesByDate retrieves the slate for a date
func (s *GameService) GetGamesByDate(ctx context.Context, date time.Time) ([]*GameSummary, error) {
	games, err := s.games.ListByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("fetching games by date: %w", err)
	}
	return s.summarizeAll(games), nil
}

// GetTeamSchedule retrieves a team's games across a date range
func (s *GameService) GetTeamSchedule(ctx context.Context, tricode string, from, to time.Time) ([]*GameSummary, error) {
	games, err := s.games.ListForTeam(ctx, tricode, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetching team schedule: %w", err)
	}
	return s.summarizeAll(games), nil
}

// CleanupStaleGames marks old live games as final
func (s *GameService) CleanupStaleGames(ctx context.Context) (int64, error) {
	count, err := s.games.CleanupStaleGames(ctx)
	if err != nil {
		return 0, fmt.Errorf("cleaning up stale games: %w", err)
	}
	return count, nil
}

func (s *GameService) summarizeAll(games []*store.Game) []*GameSummary {
	summaries := make([]*GameSummary, 0, len(games))
	for _, game := range games {
		summaries = append(summaries, s.summarize(game))
	}
	return summaries
}

// summarize resolves tricodes to full names; an unknown tricode keeps the
// code so relocations never blank a response.
func (s *GameService) summarize(game *store.Game) *GameSummary {
	sum := &GameSummary{
		Game:     game,
		HomeName: game.HomeTeam,
		AwayName: game.AwayTeam,
	}
	if name, ok := s.dir.FullName(game.HomeTeam); ok {
		sum.HomeName = name
	}
	if name, ok := s.dir.FullName(game.AwayTeam); ok {
		sum.AwayName = name
	}
	return sum
}
