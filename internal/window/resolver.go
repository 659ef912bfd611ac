package window

import (
	"fmt"
	"time"

	"github.com/fortuna/borealis/internal/season"
)

// DateLayout is the wire format for request dates.
const DateLayout = "2006-01-02"

// Request describes a date window to resolve against the season calendar.
// EndDate is required. StartDate and LastNDays are optional; when both are
// supplied, LastNDays wins. A request carrying neither collapses to a
// single day.
type Request struct {
	EndDate    string      `json:"end_date"`
	StartDate  string      `json:"start_date,omitempty"`
	LastNDays  int         `json:"last_n_days,omitempty"`
	SeasonType season.Type `json:"season_type,omitempty"`
}

// Window is a resolved query window: concrete dates plus the season span
// they cover.
type Window struct {
	FromSeason int       `json:"from_season"`
	ThruSeason int       `json:"thru_season"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
}

// SingleDay reports whether the window covers exactly one calendar day.
func (w Window) SingleDay() bool {
	return w.StartDate.Equal(w.EndDate)
}

// SpansSeasons reports whether the window crosses a season boundary.
func (w Window) SpansSeasons() bool {
	return w.FromSeason != w.ThruSeason
}

// UnresolvedSeasonError reports a date that cannot be placed in any
// configured season, even after resolving gap dates toward a neighbor.
// Fatal for the request; retrying cannot help.
type UnresolvedSeasonError struct {
	Date time.Time
}

func (e *UnresolvedSeasonError) Error() string {
	return fmt.Sprintf("date %s cannot be placed in any configured season", e.Date.Format(DateLayout))
}

// Resolver turns window requests into concrete season/date windows. It is
// stateless beyond the immutable calendar and safe for concurrent use.
type Resolver struct {
	cal *season.Calendar
}

func NewResolver(cal *season.Calendar) *Resolver {
	return &Resolver{cal: cal}
}

// Resolve parses and resolves a request. The end date's season resolves
// forward across off-season gaps (a gap date belongs to the upcoming
// season); an explicit start date in a gap resolves backward to the season
// that just ended and snaps onto that season's end date for the requested
// season type. A LastNDays lookback that reaches past the start of the end
// date's season continues from the previous season's end date.
func (r *Resolver) Resolve(req Request) (Window, error) {
	if req.EndDate == "" {
		return Window{}, fmt.Errorf("end_date is required")
	}
	end, err := time.Parse(DateLayout, req.EndDate)
	if err != nil {
		return Window{}, fmt.Errorf("parsing end_date: %w", err)
	}
	end = season.Day(end)

	if req.LastNDays < 0 {
		return Window{}, fmt.Errorf("last_n_days must not be negative, got %d", req.LastNDays)
	}

	seasonType := req.SeasonType
	if seasonType == "" {
		seasonType = season.Regular
	}

	endSeason, err := r.endSeason(end)
	if err != nil {
		return Window{}, err
	}

	var (
		start       time.Time
		startSeason int
	)

	switch {
	case req.LastNDays > 0:
		start, startSeason, err = r.lookback(end, endSeason, req.LastNDays, seasonType)
	case req.StartDate != "":
		start, err = time.Parse(DateLayout, req.StartDate)
		if err != nil {
			return Window{}, fmt.Errorf("parsing start_date: %w", err)
		}
		start = season.Day(start)
		if start.After(end) {
			return Window{}, fmt.Errorf("start_date %s is after end_date %s", req.StartDate, req.EndDate)
		}
		start, startSeason, err = r.startSeason(start, seasonType)
	default:
		start, startSeason = end, endSeason
	}
	if err != nil {
		return Window{}, err
	}

	w := Window{
		FromSeason: startSeason,
		ThruSeason: endSeason,
		StartDate:  start,
		EndDate:    end,
	}
	if w.FromSeason > w.ThruSeason {
		w.FromSeason, w.ThruSeason = w.ThruSeason, w.FromSeason
	}
	return w, nil
}

// endSeason places the end date in a season. Gap dates resolve forward to
// the first season starting after them.
func (r *Resolver) endSeason(end time.Time) (int, error) {
	id, err := r.cal.SeasonForDate(end)
	if err == nil {
		return id, nil
	}
	for _, def := range r.cal.Seasons() {
		if end.Before(def.StartDate) {
			return def.SeasonID, nil
		}
	}
	return 0, &UnresolvedSeasonError{Date: end}
}

// lookback computes the start of a last-N-days window ending at end.
func (r *Resolver) lookback(end time.Time, endSeason, lastN int, seasonType season.Type) (time.Time, int, error) {
	seasonStart, err := r.cal.SeasonStartDate(endSeason)
	if err != nil {
		return time.Time{}, 0, err
	}

	// Negative when the end date sits in the gap before its season opens.
	daysSince := daysBetween(seasonStart, end)

	if daysSince >= lastN {
		// The whole window fits inside the end date's season.
		return end.AddDate(0, 0, -lastN), endSeason, nil
	}

	prev := season.PreviousSeasonID(endSeason)
	if r.cal.Contains(prev) {
		// Continue the remaining days backward from the previous
		// season's end for the requested season type.
		remaining := lastN - daysSince
		prevEnd, err := r.cal.SeasonEndDate(prev, seasonType)
		if err != nil {
			return time.Time{}, 0, err
		}
		return prevEnd.AddDate(0, 0, -remaining), prev, nil
	}

	// No earlier season configured. Back off from this season's start
	// instead; the window is shorter than requested because no earlier
	// data exists.
	return seasonStart.AddDate(0, 0, -lastN), endSeason, nil
}

// startSeason places an explicit start date in a season. A gap date
// belongs to the season that just ended, and the start snaps onto that
// season's end date for the requested season type.
func (r *Resolver) startSeason(start time.Time, seasonType season.Type) (time.Time, int, error) {
	id, err := r.cal.SeasonForDate(start)
	if err == nil {
		return start, id, nil
	}
	for _, def := range r.cal.Seasons() {
		if start.Before(def.StartDate) {
			prev := season.PreviousSeasonID(def.SeasonID)
			snapped, err := r.cal.SeasonEndDate(prev, seasonType)
			if err != nil {
				// The date precedes every configured season.
				return time.Time{}, 0, &UnresolvedSeasonError{Date: start}
			}
			return snapped, prev, nil
		}
	}
	return time.Time{}, 0, &UnresolvedSeasonError{Date: start}
}

// daysBetween returns the whole days from a to b. Both are day-truncated
// UTC times, so the division is exact.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}
