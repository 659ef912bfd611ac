package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/borealis/internal/cache"
	"github.com/fortuna/borealis/internal/logger"
	"github.com/fortuna/borealis/internal/stats"
	"github.com/fortuna/borealis/internal/store"
	"github.com/fortuna/borealis/internal/store/repository"
)

// ErrNoGames is returned when a rolling query finds no games for the
// entity in range.
var ErrNoGames = errors.New("no games in range")

// comparisonTTL bounds how stale a cached league comparison can get. The
// underlying table changes once a day after the scrape, so a short TTL is
// only there to catch backfills.
const comparisonTTL = 5 * time.Minute

// GoalieService computes rolling goalie form and league-wide comparisons
type GoalieService struct {
	goalies *repository.GoalieRepository
	agg     *stats.Aggregator
	cache   *cache.RedisCache
	log     *logrus.Entry
}

// NewGoalieService creates a new goalie service. rc may be nil; comparisons
// are then recomputed on every call.
func NewGoalieService(db *store.Database, rc *cache.RedisCache) *GoalieService {
	return &GoalieService{
		goalies: repository.NewGoalieRepository(db),
		agg:     stats.NewAggregator(goalieSchema),
		cache:   rc,
		log:     logger.WithComponent("goalie-service"),
	}
}

// GoalieForm is one goalie's aggregated recent workload
type GoalieForm struct {
	Player string          `json:"player"`
	AsOf   time.Time       `json:"as_of"`
	NGames int             `json:"n_games"`
	Form   stats.Aggregate `json:"form"`
}

// GoalieComparison ranks every qualifying goalie's recent form
type GoalieComparison struct {
	AsOf     time.Time         `json:"as_of"`
	NGames   int               `json:"n_games"`
	MinGames int               `json:"min_games"`
	Goalies  []stats.Aggregate `json:"goalies"`
}

// Rolling aggregates the goalie's most recent nGames starts at or before
// asOf. Returns ErrNoGames when the goalie has no starts in range.
func (s *GoalieService) Rolling(ctx context.Context, player string, asOf time.Time, nGames int) (*GoalieForm, error) {
	rows, err := s.goalies.ListForPlayer(ctx, player, asOf)
	if err != nil {
		return nil, fmt.Errorf("fetching goalie lines: %w", err)
	}

	agg, ok := s.agg.Rolling(rows, player, asOf, nGames)
	if !ok {
		return nil, fmt.Errorf("goalie %s: %w", player, ErrNoGames)
	}

	return &GoalieForm{
		Player: player,
		AsOf:   asOf,
		NGames: nGames,
		Form:   agg,
	}, nil
}

// Comparison runs the rolling aggregation for every goalie with at least
// minGames starts and ranks the field by save percentage. Results are
// cached briefly; the scan behind them reads the whole goalie table.
func (s *GoalieService) Comparison(ctx context.Context, asOf time.Time, nGames, minGames int) (*GoalieComparison, error) {
	key := comparisonKey(asOf, nGames, minGames)

	if s.cache != nil {
		var cached GoalieComparison
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.log.WithError(err).Warn("⚠️ Comparison cache read failed")
		} else if hit {
			return &cached, nil
		}
	}

	rows, err := s.goalies.ListThrough(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("fetching goalie lines: %w", err)
	}

	aggs := s.agg.Comparison(rows, stats.ComparisonOptions{
		AsOf:     asOf,
		NGames:   nGames,
		MinGames: minGames,
		RankBy:   "sv_pct",
	})

	out := &GoalieComparison{
		AsOf:     asOf,
		NGames:   nGames,
		MinGames: minGames,
		Goalies:  aggs,
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, out, comparisonTTL); err != nil {
			s.log.WithError(err).Warn("⚠️ Comparison cache write failed")
		}
	}

	return out, nil
}

func comparisonKey(asOf time.Time, nGames, minGames int) string {
	return fmt.Sprintf("goalies:comparison:%s:%d:%d", asOf.Format("2006-01-02"), nGames, minGames)
}
