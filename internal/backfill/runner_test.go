package backfill

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/borealis/internal/season"
)

func testCalendar(t *testing.T) *season.Calendar {
	t.Helper()
	cal, err := season.NewCalendar([]season.Definition{
		{
			SeasonID:         20232024,
			StartDate:        day("2023-10-10"),
			RegularSeasonEnd: day("2024-04-18"),
			PlayoffEnd:       day("2024-06-24"),
		},
	})
	require.NoError(t, err)
	return cal
}

func TestEnumerateDates(t *testing.T) {
	dates := enumerateDates(day("2025-01-01"), day("2025-01-03"))
	require.Len(t, dates, 3)
	assert.Equal(t, day("2025-01-01"), dates[0])
	assert.Equal(t, day("2025-01-03"), dates[2])

	// Reversed bounds are swapped, not rejected.
	reversed := enumerateDates(day("2025-01-03"), day("2025-01-01"))
	assert.Equal(t, dates, reversed)

	single := enumerateDates(day("2025-01-01"), day("2025-01-01"))
	require.Len(t, single, 1)
}

func TestResolveDatesSeason(t *testing.T) {
	r := NewRunner(nil, testCalendar(t))

	regular, err := r.ResolveDates(JobSpec{
		Type:       JobTypeSeason,
		SeasonID:   "20232024",
		SeasonType: season.Regular,
	})
	require.NoError(t, err)
	assert.Len(t, regular, 192)
	assert.Equal(t, day("2023-10-10"), regular[0])
	assert.Equal(t, day("2024-04-18"), regular[len(regular)-1])

	playoffs, err := r.ResolveDates(JobSpec{
		Type:       JobTypeSeason,
		SeasonID:   "20232024",
		SeasonType: season.Playoffs,
	})
	require.NoError(t, err)
	assert.Equal(t, day("2024-06-24"), playoffs[len(playoffs)-1])
	assert.Greater(t, len(playoffs), len(regular))
}

func TestResolveDatesRejectsBadSeasons(t *testing.T) {
	r := NewRunner(nil, testCalendar(t))

	_, err := r.ResolveDates(JobSpec{Type: JobTypeSeason, SeasonID: "2023-24"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not numeric")

	_, err = r.ResolveDates(JobSpec{Type: JobTypeSeason, SeasonID: "20192020"})
	require.Error(t, err)
	var notFound *season.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestResolveDatesSingleDay(t *testing.T) {
	r := NewRunner(nil, testCalendar(t))

	dates, err := r.ResolveDates(JobSpec{
		Type:  JobTypeDate,
		Start: time.Date(2024, 1, 15, 19, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, dates, 1)
	assert.Equal(t, day("2024-01-15"), dates[0])
}

func TestResolveDatesRequiresRangeBounds(t *testing.T) {
	r := NewRunner(nil, testCalendar(t))

	_, err := r.ResolveDates(JobSpec{Type: JobTypeDateRange, Start: day("2024-01-01")})
	require.Error(t, err)
}
