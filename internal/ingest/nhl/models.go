package nhl

import "time"

// Name wraps the league API's localized string objects.
type Name struct {
	Default string `json:"default"`
}

// Game is the game shape shared by the schedule and score endpoints.
type Game struct {
	ID                int       `json:"id"`
	Season            int       `json:"season"`
	GameType          int       `json:"gameType"`
	GameState         string    `json:"gameState"`
	GameScheduleState string    `json:"gameScheduleState"`
	StartTimeUTC      time.Time `json:"startTimeUTC"`
	Venue             Name      `json:"venue"`
	HomeTeam          GameTeam  `json:"homeTeam"`
	AwayTeam          GameTeam  `json:"awayTeam"`
}

// Game types as the league API numbers them.
const (
	GameTypePreseason = 1
	GameTypeRegular   = 2
	GameTypePlayoffs  = 3
)

// Postponed games carry this schedule state and are skipped.
const ScheduleStatePostponed = "PPD"

// GameTeam is one side of a game.
type GameTeam struct {
	ID     int    `json:"id"`
	Abbrev string `json:"abbrev"`
	Name   Name   `json:"name"`
	Score  *int   `json:"score,omitempty"`
}

// ScheduleResponse is one week of scheduled games starting at the
// requested date.
type ScheduleResponse struct {
	NextStartDate string        `json:"nextStartDate"`
	GameWeek      []ScheduleDay `json:"gameWeek"`
}

// ScheduleDay is one day inside a schedule week.
type ScheduleDay struct {
	Date  string `json:"date"`
	Games []Game `json:"games"`
}

// ScoreResponse is the day's games with live state and scores.
type ScoreResponse struct {
	Games []Game `json:"games"`
}

// RosterResponse is a team's roster for one season.
type RosterResponse struct {
	Forwards   []RosterPlayer `json:"forwards"`
	Defensemen []RosterPlayer `json:"defensemen"`
	Goalies    []RosterPlayer `json:"goalies"`
}

// Players returns the full roster in one slice.
func (r *RosterResponse) Players() []RosterPlayer {
	players := make([]RosterPlayer, 0, len(r.Forwards)+len(r.Defensemen)+len(r.Goalies))
	players = append(players, r.Forwards...)
	players = append(players, r.Defensemen...)
	players = append(players, r.Goalies...)
	return players
}

// RosterPlayer is one rostered player.
type RosterPlayer struct {
	ID            int    `json:"id"`
	FirstName     Name   `json:"firstName"`
	LastName      Name   `json:"lastName"`
	PositionCode  string `json:"positionCode"`
	SweaterNumber int    `json:"sweaterNumber"`
}

// FullName joins the player's name the way the stats site renders it.
func (p RosterPlayer) FullName() string {
	return p.FirstName.Default + " " + p.LastName.Default
}

// TeamInfoResponse is the stats host's franchise listing.
type TeamInfoResponse struct {
	Data []TeamInfo `json:"data"`
}

// TeamInfo is one franchise record. The listing includes defunct
// franchises; callers filter against the active league set.
type TeamInfo struct {
	ID       int    `json:"id"`
	FullName string `json:"fullName"`
	TriCode  string `json:"triCode"`
}
