package reconciliation

import (
	"strings"

	"github.com/fortuna/borealis/internal/store"
	"github.com/fortuna/borealis/internal/team"
)

// Matcher pairs provider odds events with scheduled games, and provider
// player spellings with roster names.
type Matcher struct {
	dir       team.Directory
	fullNames []string
	tricodes  map[string]string
	threshold int
}

// NewMatcher creates a matcher over the given directory.
func NewMatcher(dir team.Directory) *Matcher {
	entries := team.DefaultEntries()
	m := &Matcher{
		dir:       dir,
		fullNames: make([]string, 0, len(entries)),
		tricodes:  make(map[string]string, len(entries)),
		threshold: DefaultThreshold,
	}
	for _, e := range entries {
		m.fullNames = append(m.fullNames, e.FullName)
		m.tricodes[e.FullName] = e.Tricode
	}
	return m
}

// MatchEvent finds the scheduled game an odds event refers to, with both
// team names normalized to tricodes first. Confidence is 100 when the
// directory knows both names, otherwise the fuzzy score of the weaker
// side.
func (m *Matcher) MatchEvent(event *store.OddsEvent, games []*store.Game) (*store.Game, float64, bool) {
	home, homeScore, ok := m.resolveTeam(event.HomeTeam)
	if !ok {
		return nil, 0, false
	}
	away, awayScore, ok := m.resolveTeam(event.AwayTeam)
	if !ok {
		return nil, 0, false
	}

	for _, g := range games {
		if g.HomeTeam == home && g.AwayTeam == away {
			return g, float64(min(homeScore, awayScore)), true
		}
	}

	return nil, 0, false
}

// MatchPlayer maps a provider player spelling to the canonical roster
// name. Exact matches short-circuit before any scoring.
func (m *Matcher) MatchPlayer(name string, roster []string) (string, int, bool) {
	trimmed := strings.TrimSpace(name)
	for _, r := range roster {
		if strings.EqualFold(trimmed, strings.TrimSpace(r)) {
			return r, 100, true
		}
	}
	return BestMatch(trimmed, roster, m.threshold)
}

// resolveTeam maps a provider team name to a tricode, falling back to
// fuzzy matching against the league's full names for spellings the
// directory does not carry.
func (m *Matcher) resolveTeam(name string) (string, int, bool) {
	if code, ok := m.dir.Abbreviation(name); ok {
		return code, 100, true
	}

	full, score, ok := BestMatch(name, m.fullNames, m.threshold)
	if !ok {
		return "", score, false
	}
	return m.tricodes[full], score, true
}
