package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/borealis/internal/logger"
	"github.com/fortuna/borealis/internal/publisher"
	"github.com/fortuna/borealis/internal/stats"
	"github.com/fortuna/borealis/internal/store"
	"github.com/fortuna/borealis/internal/store/repository"
	"github.com/fortuna/borealis/internal/window"
)

// StatsService aggregates stored per-game lines over resolved windows
type StatsService struct {
	resolver *window.Resolver
	teams    *repository.TeamStatsRepository
	skaters  *repository.SkaterRepository
	teamAgg  *stats.Aggregator
	skateAgg *stats.Aggregator
	pub      *publisher.StreamPublisher
	log      *logrus.Entry
}

// NewStatsService creates a new stats service. pub may be nil when the
// caller runs without Redis; windows are then persisted but not published.
func NewStatsService(db *store.Database, resolver *window.Resolver, pub *publisher.StreamPublisher) *StatsService {
	return &StatsService{
		resolver: resolver,
		teams:    repository.NewTeamStatsRepository(db),
		skaters:  repository.NewSkaterRepository(db),
		teamAgg:  stats.NewAggregator(teamSchema),
		skateAgg: stats.NewAggregator(skaterSchema),
		pub:      pub,
		log:      logger.WithComponent("stats-service"),
	}
}

// TeamWindowStats is the aggregated team board for one resolved window
type TeamWindowStats struct {
	Window    window.Window     `json:"window"`
	Situation string            `json:"situation"`
	Teams     []stats.Aggregate `json:"teams"`
}

// SkaterWindowStats is the aggregated skater board for one resolved window
type SkaterWindowStats struct {
	Window    window.Window     `json:"window"`
	Situation string            `json:"situation"`
	Skaters   []stats.Aggregate `json:"skaters"`
}

// TeamWindow resolves the requested window, aggregates every team's lines
// at the situation, and stores the result as the team's latest window
// snapshot. Snapshot or publish failures are logged, not returned; the
// aggregation already succeeded and the caller gets it either way.
func (s *StatsService) TeamWindow(ctx context.Context, req window.Request, situation string) (*TeamWindowStats, error) {
	w, err := s.resolver.Resolve(req)
	if err != nil {
		return nil, fmt.Errorf("resolving window: %w", err)
	}

	rows, err := s.teams.ListRange(ctx, w.StartDate, w.EndDate, situation)
	if err != nil {
		return nil, fmt.Errorf("fetching team lines: %w", err)
	}

	aggs := s.teamAgg.Aggregate(rows, stats.Options{})
	out := &TeamWindowStats{Window: w, Situation: situation, Teams: aggs}

	for _, agg := range aggs {
		snap := &store.TeamWindowStat{
			Team:        agg.Entity,
			Situation:   situation,
			WindowStart: w.StartDate,
			WindowEnd:   w.EndDate,
			FromSeason:  w.FromSeason,
			ThruSeason:  w.ThruSeason,
			GamesPlayed: agg.GamesPlayed,
			Stats:       store.WindowStatMap(agg.Values),
		}
		if err := s.teams.UpsertWindow(ctx, snap); err != nil {
			s.log.WithError(err).WithField("team", agg.Entity).Warn("⚠️ Failed to store window snapshot")
		}
	}

	if s.pub != nil && len(aggs) > 0 {
		if err := s.pub.PublishWindowUpdate(ctx, out); err != nil {
			s.log.WithError(err).Warn("⚠️ Failed to publish window update")
		}
	}

	s.log.WithFields(logrus.Fields{
		"start":     w.StartDate.Format(window.DateLayout),
		"end":       w.EndDate.Format(window.DateLayout),
		"situation": situation,
		"teams":     len(aggs),
	}).Debug("Aggregated team window")

	return out, nil
}

// SkaterWindow resolves the requested window and aggregates every skater's
// lines at the situation. Skater windows are computed on demand and never
// snapshotted; the board is too wide to keep one latest row per player.
func (s *StatsService) SkaterWindow(ctx context.Context, req window.Request, situation string) (*SkaterWindowStats, error) {
	w, err := s.resolver.Resolve(req)
	if err != nil {
		return nil, fmt.Errorf("resolving window: %w", err)
	}

	rows, err := s.skaters.ListRange(ctx, w.StartDate, w.EndDate, situation)
	if err != nil {
		return nil, fmt.Errorf("fetching skater lines: %w", err)
	}

	aggs := s.skateAgg.Aggregate(rows, stats.Options{})
	return &SkaterWindowStats{Window: w, Situation: situation, Skaters: aggs}, nil
}

// StoredTeamWindows returns the latest persisted window snapshot for every
// team at the situation, without recomputing anything.
func (s *StatsService) StoredTeamWindows(ctx context.Context, situation string) ([]*store.TeamWindowStat, error) {
	windows, err := s.teams.ListWindows(ctx, situation)
	if err != nil {
		return nil, fmt.Errorf("fetching stored windows: %w", err)
	}
	return windows, nil
}
