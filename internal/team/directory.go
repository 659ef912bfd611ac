package team

import (
	"strings"
)

// Directory resolves team identity between the labels used by external data
// sources and the canonical NHL tricode. Natural Stat Trick abbreviates a few
// teams its own way ("N.J", "T.B"), and the odds feeds identify teams by full
// name, so every ingest path runs team labels through one of these.
type Directory interface {
	// Abbreviation maps a source label (an NST code, an NHL tricode, or a
	// full team name) to the NHL tricode.
	Abbreviation(name string) (string, bool)

	// FullName maps an NHL tricode to the team's full name.
	FullName(abbreviation string) (string, bool)
}

// Entry describes one team in a static directory.
type Entry struct {
	Tricode  string `json:"tricode" db:"abbreviation"`
	NSTCode  string `json:"nst_code" db:"nst_code"`
	FullName string `json:"full_name" db:"full_name"`
}

// StaticDirectory is an immutable in-memory Directory built from a fixed set
// of entries. Lookups are case-insensitive and ignore surrounding whitespace.
type StaticDirectory struct {
	byLabel map[string]string // normalized label -> tricode
	byCode  map[string]string // normalized tricode -> full name
}

// NewStaticDirectory builds a directory from the given entries.
func NewStaticDirectory(entries []Entry) *StaticDirectory {
	d := &StaticDirectory{
		byLabel: make(map[string]string, len(entries)*3),
		byCode:  make(map[string]string, len(entries)),
	}
	for _, e := range entries {
		d.byLabel[normalize(e.Tricode)] = e.Tricode
		if e.NSTCode != "" {
			d.byLabel[normalize(e.NSTCode)] = e.Tricode
		}
		if e.FullName != "" {
			d.byLabel[normalize(e.FullName)] = e.Tricode
			d.byCode[normalize(e.Tricode)] = e.FullName
		}
	}
	return d
}

// Abbreviation implements Directory.
func (d *StaticDirectory) Abbreviation(name string) (string, bool) {
	code, ok := d.byLabel[normalize(name)]
	return code, ok
}

// FullName implements Directory.
func (d *StaticDirectory) FullName(abbreviation string) (string, bool) {
	full, ok := d.byCode[normalize(abbreviation)]
	return full, ok
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Default returns a directory preloaded with the 32 NHL teams and the
// Natural Stat Trick abbreviations that differ from the NHL tricode.
func Default() *StaticDirectory {
	return NewStaticDirectory(defaultEntries())
}

// DefaultEntries returns the canonical league entries backing Default.
// Team refreshes use these to carry the NST code alongside whatever the
// league API reports.
func DefaultEntries() []Entry {
	return defaultEntries()
}

func defaultEntries() []Entry {
	return []Entry{
		{Tricode: "ANA", NSTCode: "ANA", FullName: "Anaheim Ducks"},
		{Tricode: "BOS", NSTCode: "BOS", FullName: "Boston Bruins"},
		{Tricode: "BUF", NSTCode: "BUF", FullName: "Buffalo Sabres"},
		{Tricode: "CAR", NSTCode: "CAR", FullName: "Carolina Hurricanes"},
		{Tricode: "CBJ", NSTCode: "CBJ", FullName: "Columbus Blue Jackets"},
		{Tricode: "CGY", NSTCode: "CGY", FullName: "Calgary Flames"},
		{Tricode: "CHI", NSTCode: "CHI", FullName: "Chicago Blackhawks"},
		{Tricode: "COL", NSTCode: "COL", FullName: "Colorado Avalanche"},
		{Tricode: "DAL", NSTCode: "DAL", FullName: "Dallas Stars"},
		{Tricode: "DET", NSTCode: "DET", FullName: "Detroit Red Wings"},
		{Tricode: "EDM", NSTCode: "EDM", FullName: "Edmonton Oilers"},
		{Tricode: "FLA", NSTCode: "FLA", FullName: "Florida Panthers"},
		{Tricode: "LAK", NSTCode: "L.A", FullName: "Los Angeles Kings"},
		{Tricode: "MIN", NSTCode: "MIN", FullName: "Minnesota Wild"},
		{Tricode: "MTL", NSTCode: "MTL", FullName: "Montreal Canadiens"},
		{Tricode: "NJD", NSTCode: "N.J", FullName: "New Jersey Devils"},
		{Tricode: "NSH", NSTCode: "NSH", FullName: "Nashville Predators"},
		{Tricode: "NYI", NSTCode: "NYI", FullName: "New York Islanders"},
		{Tricode: "NYR", NSTCode: "NYR", FullName: "New York Rangers"},
		{Tricode: "OTT", NSTCode: "OTT", FullName: "Ottawa Senators"},
		{Tricode: "PHI", NSTCode: "PHI", FullName: "Philadelphia Flyers"},
		{Tricode: "PIT", NSTCode: "PIT", FullName: "Pittsburgh Penguins"},
		{Tricode: "SEA", NSTCode: "SEA", FullName: "Seattle Kraken"},
		{Tricode: "SJS", NSTCode: "S.J", FullName: "San Jose Sharks"},
		{Tricode: "STL", NSTCode: "STL", FullName: "St. Louis Blues"},
		{Tricode: "TBL", NSTCode: "T.B", FullName: "Tampa Bay Lightning"},
		{Tricode: "TOR", NSTCode: "TOR", FullName: "Toronto Maple Leafs"},
		{Tricode: "UTA", NSTCode: "UTA", FullName: "Utah Hockey Club"},
		{Tricode: "VAN", NSTCode: "VAN", FullName: "Vancouver Canucks"},
		{Tricode: "VGK", NSTCode: "VGK", FullName: "Vegas Golden Knights"},
		{Tricode: "WPG", NSTCode: "WPG", FullName: "Winnipeg Jets"},
		{Tricode: "WSH", NSTCode: "WSH", FullName: "Washington Capitals"},
	}
}
