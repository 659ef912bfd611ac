package ingest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fortuna/borealis/internal/odds"
)

// LineProvider ingests one odds provider's board for a date.
type LineProvider interface {
	Name() string
	IngestDate(ctx context.Context, date time.Time) (*Result, error)
}

// Result accumulates one provider's ingest run.
type Result struct {
	Provider   string   `json:"provider"`
	Date       string   `json:"date"`
	Events     int      `json:"events"`
	Moneylines int      `json:"moneylines"`
	Props      int      `json:"props"`
	Errors     []string `json:"errors,omitempty"`
}

// Errorf records a non-fatal error on the run.
func (r *Result) Errorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// LineBoard is the payload published to the line stream after each ingest:
// the near-even line per player and book for one market.
type LineBoard struct {
	Provider string        `json:"provider"`
	Date     string        `json:"date"`
	Market   string        `json:"market"`
	Players  []PlayerLines `json:"players"`
}

// PlayerLines is one player's selected lines.
type PlayerLines struct {
	Player string       `json:"player"`
	Lines  []odds.Quote `json:"lines"`
}

// BuildBoard assembles a publishable board from quotes grouped per
// player, keeping the near-even selection per book. Returns nil when
// nothing survives selection.
func BuildBoard(provider, date, market string, byPlayer map[string][]odds.Quote) *LineBoard {
	players := make([]string, 0, len(byPlayer))
	for name := range byPlayer {
		players = append(players, name)
	}
	sort.Strings(players)

	board := &LineBoard{Provider: provider, Date: date, Market: market}
	for _, name := range players {
		selected := odds.SelectNearEvenLines(byPlayer[name])
		if len(selected) == 0 {
			continue
		}
		board.Players = append(board.Players, PlayerLines{Player: name, Lines: selected})
	}
	if len(board.Players) == 0 {
		return nil
	}
	return board
}
