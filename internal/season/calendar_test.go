package season

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeasonForDate(t *testing.T) {
	cal := Default()

	tests := []struct {
		name    string
		date    time.Time
		want    int
		wantErr bool
	}{
		{name: "mid regular season", date: day(2025, 1, 15), want: 20242025},
		{name: "opening night", date: day(2024, 10, 4), want: 20242025},
		{name: "final playoff day", date: day(2024, 6, 24), want: 20232024},
		{name: "playoff round", date: day(2023, 5, 1), want: 20222023},
		{name: "covid season january start", date: day(2021, 2, 1), want: 20202021},
		{name: "bubble playoffs september", date: day(2020, 9, 15), want: 20192020},
		{name: "offseason gap", date: day(2024, 8, 1), wantErr: true},
		{name: "gap between 2021 seasons", date: day(2021, 9, 1), wantErr: true},
		{name: "before all seasons", date: day(2010, 1, 1), wantErr: true},
		{name: "after all seasons", date: day(2030, 1, 1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cal.SeasonForDate(tt.date)
			if tt.wantErr {
				require.Error(t, err)
				var nf *NotFoundError
				require.True(t, errors.As(err, &nf))
				assert.Equal(t, Day(tt.date), nf.Date)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeasonForDateIgnoresTimeOfDay(t *testing.T) {
	cal := Default()

	got, err := cal.SeasonForDate(time.Date(2024, 10, 4, 23, 59, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 20242025, got)
}

func TestSeasonEndDate(t *testing.T) {
	cal := Default()

	regular, err := cal.SeasonEndDate(20232024, Regular)
	require.NoError(t, err)
	assert.Equal(t, day(2024, 4, 18), regular)

	playoffs, err := cal.SeasonEndDate(20232024, Playoffs)
	require.NoError(t, err)
	assert.Equal(t, day(2024, 6, 24), playoffs)

	_, err = cal.SeasonEndDate(19992000, Regular)
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, 19992000, nf.SeasonID)
}

func TestSeasonStartDate(t *testing.T) {
	cal := Default()

	start, err := cal.SeasonStartDate(20202021)
	require.NoError(t, err)
	assert.Equal(t, day(2021, 1, 13), start)

	_, err = cal.SeasonStartDate(12345678)
	require.Error(t, err)
}

func TestPreviousSeasonID(t *testing.T) {
	assert.Equal(t, 20232024, PreviousSeasonID(20242025))
	assert.Equal(t, 20122013, PreviousSeasonID(20132014))

	cal := Default()
	assert.True(t, cal.Contains(PreviousSeasonID(20242025)))
	assert.False(t, cal.Contains(PreviousSeasonID(20132014)))
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		want    Type
		wantErr bool
	}{
		{in: "", want: Regular},
		{in: "regular", want: Regular},
		{in: "playoffs", want: Playoffs},
		{in: "playoff", want: Playoffs},
		{in: "preseason", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseType(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestTypeCode(t *testing.T) {
	assert.Equal(t, "2", Regular.Code())
	assert.Equal(t, "3", Playoffs.Code())
}

func TestNewCalendarValidation(t *testing.T) {
	_, err := NewCalendar(nil)
	assert.Error(t, err)

	_, err = NewCalendar([]Definition{
		{SeasonID: 20242025, StartDate: day(2024, 10, 4), RegularSeasonEnd: day(2024, 10, 4), PlayoffEnd: day(2025, 6, 30)},
	})
	assert.Error(t, err, "start equal to regular end must be rejected")

	_, err = NewCalendar([]Definition{
		{SeasonID: 20242025, StartDate: day(2024, 10, 4), RegularSeasonEnd: day(2025, 4, 18), PlayoffEnd: day(2025, 4, 1)},
	})
	assert.Error(t, err, "playoff end before regular end must be rejected")

	_, err = NewCalendar([]Definition{
		{SeasonID: 20242025, StartDate: day(2024, 10, 4), RegularSeasonEnd: day(2025, 4, 18), PlayoffEnd: day(2025, 6, 30)},
		{SeasonID: 20242025, StartDate: day(2024, 10, 5), RegularSeasonEnd: day(2025, 4, 19), PlayoffEnd: day(2025, 7, 1)},
	})
	assert.Error(t, err, "duplicate season id must be rejected")
}

func TestDefaultCalendarShape(t *testing.T) {
	cal := Default()
	seasons := cal.Seasons()

	require.Len(t, seasons, 12)
	assert.Equal(t, 20132014, cal.Earliest().SeasonID)
	assert.Equal(t, 20242025, cal.Latest().SeasonID)

	for i := 1; i < len(seasons); i++ {
		prev, cur := seasons[i-1], seasons[i]
		assert.Equal(t, Step, cur.SeasonID-prev.SeasonID, "season ids must step by %d", Step)
		assert.True(t, prev.PlayoffEnd.Before(cur.StartDate),
			"season %d must end before season %d starts", prev.SeasonID, cur.SeasonID)
	}
}
