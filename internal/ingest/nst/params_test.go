package nst

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fortuna/borealis/internal/season"
	"github.com/fortuna/borealis/internal/window"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func singleDayWindow(y int, m time.Month, d, seasonID int) window.Window {
	return window.Window{
		FromSeason: seasonID,
		ThruSeason: seasonID,
		StartDate:  date(y, m, d),
		EndDate:    date(y, m, d),
	}
}

func TestPlayerQueryURL(t *testing.T) {
	q := PlayerQuery{
		Window:    singleDayWindow(2025, 1, 15, 20242025),
		Situation: SitFiveOnFive,
		Report:    ReportIndividual,
	}

	want := "https://www.naturalstattrick.com/playerteams.php?" +
		"fromseason=20242025&thruseason=20242025&stype=2&sit=5v5" +
		"&score=all&stdoi=std&rate=n&team=ALL&pos=S&loc=B&toi=0" +
		"&gpfilt=gpdate&fd=2025-01-15&td=2025-01-15" +
		"&tgp=410&lines=multi&draftteam=ALL"
	assert.Equal(t, want, q.URL(DefaultBaseURL))
}

func TestPlayerQueryURLMultiDayWindow(t *testing.T) {
	q := PlayerQuery{
		Window: window.Window{
			FromSeason: 20232024,
			ThruSeason: 20242025,
			StartDate:  date(2024, 4, 1),
			EndDate:    date(2024, 11, 1),
		},
		Situation: SitAllStrengths,
		Report:    ReportOnIce,
	}

	url := q.URL(DefaultBaseURL)
	assert.Contains(t, url, "fromseason=20232024&thruseason=20242025")
	assert.Contains(t, url, "&sit=all&")
	assert.Contains(t, url, "&stdoi=oi&")
	assert.Contains(t, url, "&fd=2024-04-01&td=2024-11-01")
}

func TestPlayerQueryGoalieForcesSkaterPosition(t *testing.T) {
	q := PlayerQuery{
		Window:    singleDayWindow(2025, 1, 15, 20242025),
		Situation: SitAllStrengths,
		Report:    ReportGoalies,
		Position:  "G",
		Lines:     "single",
	}

	url := q.URL(DefaultBaseURL)
	assert.Contains(t, url, "&stdoi=g&")
	assert.Contains(t, url, "&pos=S&")
	assert.NotContains(t, url, "pos=G")
	assert.Contains(t, url, "&lines=single&")
}

func TestPlayerQueryPlayoffs(t *testing.T) {
	q := PlayerQuery{
		Window:     singleDayWindow(2024, 5, 10, 20232024),
		SeasonType: season.Playoffs,
	}

	assert.Contains(t, q.URL(DefaultBaseURL), "&stype=3&")
}

func TestTeamQueryURL(t *testing.T) {
	q := TeamQuery{
		Window: window.Window{
			FromSeason: 20232024,
			ThruSeason: 20242025,
			StartDate:  date(2024, 4, 1),
			EndDate:    date(2024, 11, 1),
		},
		Situation: SitAllStrengths,
	}

	want := "https://www.naturalstattrick.com/teamtable.php?" +
		"fromseason=20232024&thruseason=20242025&stype=2&sit=all" +
		"&score=all&rate=n&team=all&loc=B" +
		"&gpfilt=gpdate&fd=2024-04-01&td=2024-11-01" +
		"&tgp=410"
	assert.Equal(t, want, q.URL(DefaultBaseURL))
}

func TestTeamQuerySingleDayPinsSeasons(t *testing.T) {
	q := TeamQuery{
		Window: window.Window{
			FromSeason: 20232024,
			ThruSeason: 20242025,
			StartDate:  date(2024, 10, 8),
			EndDate:    date(2024, 10, 8),
		},
	}

	url := q.URL(DefaultBaseURL)
	assert.Contains(t, url, "fromseason=20242025&thruseason=20242025")
}

func TestPrimeURLs(t *testing.T) {
	assert.Equal(t,
		"https://www.naturalstattrick.com/playerteams.php?stdoi=g",
		PlayerQuery{}.PrimeURL(DefaultBaseURL))
	assert.Equal(t,
		"https://www.naturalstattrick.com/teamtable.php",
		TeamQuery{}.PrimeURL(DefaultBaseURL))
}

func TestSeasonLabel(t *testing.T) {
	tests := []struct {
		date time.Time
		want string
	}{
		{date(2025, 1, 15), "2024-25"},
		{date(2024, 10, 8), "2024-25"},
		{date(2024, 6, 30), "2023-24"},
		{date(2024, 7, 1), "2024-25"},
		{date(2010, 2, 1), "2009-10"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SeasonLabel(tt.date), "date %s", tt.date.Format(window.DateLayout))
	}
}
