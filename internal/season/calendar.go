package season

import (
	"fmt"
	"sort"
	"time"
)

// Step is the numeric distance between consecutive season IDs
// (20232024 + Step = 20242025).
const Step = 10001

// Type selects which end-of-season boundary a query uses.
type Type string

const (
	Regular  Type = "regular"
	Playoffs Type = "playoffs"
)

// Code returns the query code the stats site expects for this season type.
func (t Type) Code() string {
	if t == Playoffs {
		return "3"
	}
	return "2"
}

// ParseType maps a request string onto a season type. Empty defaults to
// the regular season.
func ParseType(s string) (Type, error) {
	switch s {
	case "", "regular":
		return Regular, nil
	case "playoffs", "playoff":
		return Playoffs, nil
	}
	return "", fmt.Errorf("unknown season type %q", s)
}

// Definition describes one league season.
type Definition struct {
	SeasonID         int       `json:"season_id" db:"season_id"`
	StartDate        time.Time `json:"start_date" db:"start_date"`
	RegularSeasonEnd time.Time `json:"regular_season_end" db:"regular_season_end"`
	PlayoffEnd       time.Time `json:"playoff_end" db:"playoff_end"`
}

// NotFoundError reports a season lookup that matched nothing: either an
// unknown season ID, or a date that falls in the gap between two seasons.
type NotFoundError struct {
	SeasonID int
	Date     time.Time
}

func (e *NotFoundError) Error() string {
	if e.SeasonID != 0 {
		return fmt.Sprintf("season %d not found", e.SeasonID)
	}
	return fmt.Sprintf("no season contains date %s", e.Date.Format("2006-01-02"))
}

// PreviousSeasonID returns the ID of the season before the given one.
// Pure arithmetic; the result may not exist in any calendar, so callers
// check Contains before using it.
func PreviousSeasonID(id int) int {
	return id - Step
}

// Calendar is an immutable lookup over a set of season definitions. It is
// safe for concurrent use; nothing mutates it after construction.
type Calendar struct {
	byID      map[int]Definition
	ascending []Definition
}

// NewCalendar validates the definitions and builds a calendar. Seasons must
// have strictly ordered boundary dates and unique IDs.
func NewCalendar(defs []Definition) (*Calendar, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("no season definitions supplied")
	}

	byID := make(map[int]Definition, len(defs))
	ascending := make([]Definition, len(defs))
	copy(ascending, defs)

	for _, def := range defs {
		if !def.StartDate.Before(def.RegularSeasonEnd) {
			return nil, fmt.Errorf("season %d: start date %s is not before regular season end %s",
				def.SeasonID, def.StartDate.Format("2006-01-02"), def.RegularSeasonEnd.Format("2006-01-02"))
		}
		if !def.RegularSeasonEnd.Before(def.PlayoffEnd) {
			return nil, fmt.Errorf("season %d: regular season end %s is not before playoff end %s",
				def.SeasonID, def.RegularSeasonEnd.Format("2006-01-02"), def.PlayoffEnd.Format("2006-01-02"))
		}
		if _, dup := byID[def.SeasonID]; dup {
			return nil, fmt.Errorf("season %d: duplicate definition", def.SeasonID)
		}
		byID[def.SeasonID] = def
	}

	sort.Slice(ascending, func(i, j int) bool {
		return ascending[i].StartDate.Before(ascending[j].StartDate)
	})

	return &Calendar{byID: byID, ascending: ascending}, nil
}

// SeasonForDate returns the ID of the season whose [start, playoff end]
// interval contains the date. Dates in the off-season gap between two
// seasons return a NotFoundError; callers that need gap dates placed
// anyway resolve them forward (see the window resolver).
func (c *Calendar) SeasonForDate(date time.Time) (int, error) {
	day := Day(date)
	for _, def := range c.ascending {
		if !day.Before(def.StartDate) && !day.After(def.PlayoffEnd) {
			return def.SeasonID, nil
		}
	}
	return 0, &NotFoundError{Date: day}
}

// SeasonStartDate returns the season's opening day.
func (c *Calendar) SeasonStartDate(id int) (time.Time, error) {
	def, ok := c.byID[id]
	if !ok {
		return time.Time{}, &NotFoundError{SeasonID: id}
	}
	return def.StartDate, nil
}

// SeasonEndDate returns the season's final day for the given season type:
// the regular-season end for Regular, the playoff end for Playoffs.
func (c *Calendar) SeasonEndDate(id int, t Type) (time.Time, error) {
	def, ok := c.byID[id]
	if !ok {
		return time.Time{}, &NotFoundError{SeasonID: id}
	}
	if t == Playoffs {
		return def.PlayoffEnd, nil
	}
	return def.RegularSeasonEnd, nil
}

// Contains reports whether the season ID is defined in this calendar.
func (c *Calendar) Contains(id int) bool {
	_, ok := c.byID[id]
	return ok
}

// Seasons returns the definitions in ascending start-date order.
func (c *Calendar) Seasons() []Definition {
	out := make([]Definition, len(c.ascending))
	copy(out, c.ascending)
	return out
}

// Earliest returns the first configured season.
func (c *Calendar) Earliest() Definition {
	return c.ascending[0]
}

// Latest returns the last configured season.
func (c *Calendar) Latest() Definition {
	return c.ascending[len(c.ascending)-1]
}

// Day truncates a timestamp to its calendar day in UTC. All calendar math
// operates on day precision.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
