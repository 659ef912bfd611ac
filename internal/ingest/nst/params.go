package nst

import (
	"fmt"
	"time"

	"github.com/fortuna/borealis/internal/season"
	"github.com/fortuna/borealis/internal/window"
)

// DefaultBaseURL is the production site.
const DefaultBaseURL = "https://www.naturalstattrick.com"

// Report selects which player table a fetch targets.
const (
	ReportIndividual = "std"
	ReportOnIce      = "oi"
	ReportGoalies    = "g"
)

// Situation strings the site accepts.
const (
	SitFiveOnFive   = "5v5"
	SitAllStrengths = "all"
	SitPenaltyKill  = "pk"
)

// Defaults mirror the site's own form defaults.
const (
	DefaultPosition = "S"
	DefaultLocation = "B"
	DefaultRate     = "n"
	DefaultLines    = "multi"
)

// Query is a renderable table request.
type Query interface {
	// URL renders the full table request against a base URL.
	URL(base string) string
	// PrimeURL is fetched once before the first table request to pick up
	// the session cookie, and doubles as the Referer.
	PrimeURL(base string) string
}

// PlayerQuery describes one playerteams.php fetch.
type PlayerQuery struct {
	Window     window.Window
	SeasonType season.Type
	Situation  string
	Report     string
	Rate       string
	Position   string
	Location   string
	Lines      string
}

func (q PlayerQuery) withDefaults() PlayerQuery {
	if q.Situation == "" {
		q.Situation = SitFiveOnFive
	}
	if q.Report == "" {
		q.Report = ReportIndividual
	}
	if q.Rate == "" {
		q.Rate = DefaultRate
	}
	if q.Position == "" {
		q.Position = DefaultPosition
	}
	if q.Location == "" {
		q.Location = DefaultLocation
	}
	if q.Lines == "" {
		q.Lines = DefaultLines
	}
	return q
}

// URL renders the full player table request. The goalie report always sends
// pos=S; the site serves an empty table otherwise.
func (q PlayerQuery) URL(base string) string {
	q = q.withDefaults()
	pos := q.Position
	if q.Report == ReportGoalies {
		pos = "S"
	}
	return fmt.Sprintf(
		"%s/playerteams.php?"+
			"fromseason=%d&thruseason=%d&stype=%s&sit=%s"+
			"&score=all&stdoi=%s&rate=%s&team=ALL&pos=%s&loc=%s&toi=0"+
			"&gpfilt=gpdate&fd=%s&td=%s"+
			"&tgp=410&lines=%s&draftteam=ALL",
		base,
		q.Window.FromSeason, q.Window.ThruSeason, q.SeasonType.Code(), q.Situation,
		q.Report, q.Rate, pos, q.Location,
		q.Window.StartDate.Format(window.DateLayout), q.Window.EndDate.Format(window.DateLayout),
		q.Lines,
	)
}

// PrimeURL returns the session-cookie page for player fetches.
func (q PlayerQuery) PrimeURL(base string) string {
	return base + "/playerteams.php?stdoi=g"
}

// TeamQuery describes one teamtable.php fetch.
type TeamQuery struct {
	Window     window.Window
	SeasonType season.Type
	Situation  string
}

// URL renders the full team table request. Single-day fetches pin both
// season bounds to the end season.
func (q TeamQuery) URL(base string) string {
	sit := q.Situation
	if sit == "" {
		sit = SitAllStrengths
	}
	from, thru := q.Window.FromSeason, q.Window.ThruSeason
	if q.Window.SingleDay() {
		from = thru
	}
	return fmt.Sprintf(
		"%s/teamtable.php?"+
			"fromseason=%d&thruseason=%d&stype=%s&sit=%s"+
			"&score=all&rate=n&team=all&loc=B"+
			"&gpfilt=gpdate&fd=%s&td=%s"+
			"&tgp=410",
		base,
		from, thru, q.SeasonType.Code(), sit,
		q.Window.StartDate.Format(window.DateLayout), q.Window.EndDate.Format(window.DateLayout),
	)
}

// PrimeURL returns the session-cookie page for team fetches.
func (q TeamQuery) PrimeURL(base string) string {
	return base + "/teamtable.php"
}

// SeasonLabel formats the season a date falls in the way the goalie rows
// store it, e.g. "2024-25". July starts the new season.
func SeasonLabel(date time.Time) string {
	year := date.Year()
	if int(date.Month()) < 7 {
		return fmt.Sprintf("%d-%02d", year-1, year%100)
	}
	return fmt.Sprintf("%d-%02d", year, (year+1)%100)
}
