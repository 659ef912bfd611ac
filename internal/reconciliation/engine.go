package reconciliation

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/borealis/internal/logger"
	"github.com/fortuna/borealis/internal/store/repository"
)

// Engine links provider odds events to scheduled games so quotes can be
// queried by game.
type Engine struct {
	games     *repository.GameRepository
	odds      *repository.OddsRepository
	matcher   *Matcher
	providers []string
	log       *logrus.Entry
}

// Report summarizes one reconciliation pass.
type Report struct {
	Date    string   `json:"date"`
	Events  int      `json:"events"`
	Linked  int      `json:"linked"`
	Already int      `json:"already_linked"`
	Missed  int      `json:"missed"`
	Errors  []string `json:"errors,omitempty"`
}

func (r *Report) errorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// NewEngine creates an engine that reconciles the given providers.
func NewEngine(games *repository.GameRepository, odds *repository.OddsRepository, matcher *Matcher, providers []string) *Engine {
	return &Engine{
		games:     games,
		odds:      odds,
		matcher:   matcher,
		providers: providers,
		log:       logger.WithComponent("reconciliation"),
	}
}

// ReconcileDate walks every provider's events for a date and links each
// unlinked event to its scheduled game. Events with no matching game are
// counted, not failed; the provider sometimes posts games the league
// schedule does not carry yet.
func (e *Engine) ReconcileDate(ctx context.Context, date time.Time) (*Report, error) {
	report := &Report{Date: date.Format("2006-01-02")}

	games, err := e.games.ListByDate(ctx, date)
	if err != nil {
		return report, fmt.Errorf("failed to list games: %w", err)
	}

	for _, provider := range e.providers {
		events, err := e.odds.ListEventsByDate(ctx, provider, date)
		if err != nil {
			report.errorf("events for %s: %v", provider, err)
			continue
		}

		for _, ev := range events {
			report.Events++
			if ev.GameID.Valid {
				report.Already++
				continue
			}

			game, confidence, ok := e.matcher.MatchEvent(ev, games)
			if !ok {
				report.Missed++
				e.log.WithFields(logrus.Fields{
					"provider": provider,
					"event":    ev.EventID,
					"away":     ev.AwayTeam,
					"home":     ev.HomeTeam,
				}).Debug("No scheduled game matches event")
				continue
			}

			if err := e.odds.LinkEvent(ctx, provider, ev.EventID, game.GameID, confidence); err != nil {
				report.errorf("linking %s/%s: %v", provider, ev.EventID, err)
				continue
			}
			report.Linked++
		}
	}

	e.log.WithFields(logrus.Fields{
		"date":    report.Date,
		"events":  report.Events,
		"linked":  report.Linked,
		"already": report.Already,
		"missed":  report.Missed,
		"errors":  len(report.Errors),
	}).Info("✓ Odds events reconciled")

	return report, nil
}
