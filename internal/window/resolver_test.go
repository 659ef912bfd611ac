package window

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/borealis/internal/season"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveSingleDay(t *testing.T) {
	r := NewResolver(season.Default())

	w, err := r.Resolve(Request{EndDate: "2025-01-15"})
	require.NoError(t, err)

	assert.Equal(t, date(2025, 1, 15), w.StartDate)
	assert.Equal(t, date(2025, 1, 15), w.EndDate)
	assert.Equal(t, 20242025, w.FromSeason)
	assert.Equal(t, 20242025, w.ThruSeason)
	assert.True(t, w.SingleDay())
	assert.False(t, w.SpansSeasons())
}

func TestResolveExplicitRange(t *testing.T) {
	r := NewResolver(season.Default())

	tests := []struct {
		name      string
		req       Request
		wantStart time.Time
		wantEnd   time.Time
		wantFrom  int
		wantThru  int
	}{
		{
			name:      "within one season",
			req:       Request{StartDate: "2025-01-01", EndDate: "2025-01-31"},
			wantStart: date(2025, 1, 1),
			wantEnd:   date(2025, 1, 31),
			wantFrom:  20242025,
			wantThru:  20242025,
		},
		{
			name:      "spanning a season boundary",
			req:       Request{StartDate: "2024-03-01", EndDate: "2024-11-01"},
			wantStart: date(2024, 3, 1),
			wantEnd:   date(2024, 11, 1),
			wantFrom:  20232024,
			wantThru:  20242025,
		},
		{
			name:      "start in gap snaps to regular season end",
			req:       Request{StartDate: "2024-08-01", EndDate: "2024-11-01", SeasonType: season.Regular},
			wantStart: date(2024, 4, 18),
			wantEnd:   date(2024, 11, 1),
			wantFrom:  20232024,
			wantThru:  20242025,
		},
		{
			name:      "start in gap snaps to playoff end",
			req:       Request{StartDate: "2024-08-01", EndDate: "2024-11-01", SeasonType: season.Playoffs},
			wantStart: date(2024, 6, 24),
			wantEnd:   date(2024, 11, 1),
			wantFrom:  20232024,
			wantThru:  20242025,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := r.Resolve(tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, w.StartDate)
			assert.Equal(t, tt.wantEnd, w.EndDate)
			assert.Equal(t, tt.wantFrom, w.FromSeason)
			assert.Equal(t, tt.wantThru, w.ThruSeason)
		})
	}
}

func TestResolveLookback(t *testing.T) {
	r := NewResolver(season.Default())

	tests := []struct {
		name      string
		req       Request
		wantStart time.Time
		wantFrom  int
		wantThru  int
	}{
		{
			name:      "fits inside the season",
			req:       Request{EndDate: "2025-01-31", LastNDays: 30},
			wantStart: date(2025, 1, 1),
			wantFrom:  20242025,
			wantThru:  20242025,
		},
		{
			name:      "exactly reaches the season start",
			req:       Request{EndDate: "2024-10-14", LastNDays: 10},
			wantStart: date(2024, 10, 4),
			wantFrom:  20242025,
			wantThru:  20242025,
		},
		{
			name:      "crosses into previous regular season",
			req:       Request{EndDate: "2024-10-09", LastNDays: 10},
			wantStart: date(2024, 4, 13),
			wantFrom:  20232024,
			wantThru:  20242025,
		},
		{
			name:      "crosses into previous playoffs",
			req:       Request{EndDate: "2024-10-09", LastNDays: 10, SeasonType: season.Playoffs},
			wantStart: date(2024, 6, 19),
			wantFrom:  20232024,
			wantThru:  20242025,
		},
		{
			name:      "opening night looks back to last season",
			req:       Request{EndDate: "2024-10-04", LastNDays: 1},
			wantStart: date(2024, 4, 17),
			wantFrom:  20232024,
			wantThru:  20242025,
		},
		{
			name:      "gap end date extends lookback through the gap",
			req:       Request{EndDate: "2024-08-01", LastNDays: 7},
			wantStart: date(2024, 2, 7),
			wantFrom:  20232024,
			wantThru:  20242025,
		},
		{
			name:      "earliest season falls back to its own start",
			req:       Request{EndDate: "2013-10-05", LastNDays: 10},
			wantStart: date(2013, 9, 21),
			wantFrom:  20132014,
			wantThru:  20132014,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := r.Resolve(tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, w.StartDate, "start date")
			assert.Equal(t, tt.wantFrom, w.FromSeason, "from season")
			assert.Equal(t, tt.wantThru, w.ThruSeason, "thru season")
		})
	}
}

// The boundary identity: for an end date k days into a season with
// k < lastN, the start lands exactly lastN-k days before the previous
// season's end.
func TestResolveLookbackBoundaryIdentity(t *testing.T) {
	cal := season.Default()
	r := NewResolver(cal)

	seasonStart, err := cal.SeasonStartDate(20242025)
	require.NoError(t, err)
	prevEnd, err := cal.SeasonEndDate(20232024, season.Regular)
	require.NoError(t, err)

	const lastN = 15
	for k := 0; k < lastN; k++ {
		end := seasonStart.AddDate(0, 0, k)
		w, err := r.Resolve(Request{EndDate: end.Format(DateLayout), LastNDays: lastN})
		require.NoError(t, err)

		assert.Equal(t, prevEnd.AddDate(0, 0, -(lastN-k)), w.StartDate, "k=%d", k)
		assert.Equal(t, 20232024, w.FromSeason, "k=%d", k)
		assert.Equal(t, 20242025, w.ThruSeason, "k=%d", k)
	}
}

func TestResolveLastNDaysWinsOverStartDate(t *testing.T) {
	r := NewResolver(season.Default())

	w, err := r.Resolve(Request{StartDate: "2024-11-01", EndDate: "2025-01-31", LastNDays: 30})
	require.NoError(t, err)
	assert.Equal(t, date(2025, 1, 1), w.StartDate)
}

// Every date inside the configured coverage resolves to a season, either
// directly or through the gap rule, and resolution is monotonic in the
// date.
func TestResolveTotalityAndMonotonicity(t *testing.T) {
	cal := season.Default()
	r := NewResolver(cal)

	first := cal.Earliest().StartDate
	last := cal.Latest().PlayoffEnd

	prevSeason := 0
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		w, err := r.Resolve(Request{EndDate: d.Format(DateLayout)})
		require.NoError(t, err, "date %s", d.Format(DateLayout))

		assert.False(t, w.StartDate.After(w.EndDate), "date %s", d.Format(DateLayout))
		assert.LessOrEqual(t, w.FromSeason, w.ThruSeason, "date %s", d.Format(DateLayout))
		assert.GreaterOrEqual(t, w.ThruSeason, prevSeason, "date %s", d.Format(DateLayout))
		prevSeason = w.ThruSeason
	}
}

func TestResolveWindowOrdering(t *testing.T) {
	r := NewResolver(season.Default())

	reqs := []Request{
		{EndDate: "2025-01-15"},
		{EndDate: "2025-01-15", LastNDays: 7},
		{EndDate: "2025-01-15", LastNDays: 200},
		{EndDate: "2024-08-01", LastNDays: 30},
		{EndDate: "2024-08-01"},
		{StartDate: "2024-08-01", EndDate: "2024-12-01"},
		{StartDate: "2021-09-01", EndDate: "2021-09-30", SeasonType: season.Playoffs},
		{EndDate: "2013-10-02", LastNDays: 45},
	}

	for _, req := range reqs {
		w, err := r.Resolve(req)
		require.NoError(t, err, "request %+v", req)
		assert.False(t, w.StartDate.After(w.EndDate), "request %+v", req)
		assert.LessOrEqual(t, w.FromSeason, w.ThruSeason, "request %+v", req)
	}
}

func TestResolveErrors(t *testing.T) {
	r := NewResolver(season.Default())

	t.Run("missing end date", func(t *testing.T) {
		_, err := r.Resolve(Request{})
		assert.Error(t, err)
	})

	t.Run("malformed end date", func(t *testing.T) {
		_, err := r.Resolve(Request{EndDate: "01/15/2025"})
		assert.Error(t, err)
	})

	t.Run("malformed start date", func(t *testing.T) {
		_, err := r.Resolve(Request{StartDate: "bogus", EndDate: "2025-01-15"})
		assert.Error(t, err)
	})

	t.Run("negative lookback", func(t *testing.T) {
		_, err := r.Resolve(Request{EndDate: "2025-01-15", LastNDays: -1})
		assert.Error(t, err)
	})

	t.Run("start after end", func(t *testing.T) {
		_, err := r.Resolve(Request{StartDate: "2025-02-01", EndDate: "2025-01-15"})
		assert.Error(t, err)
	})

	t.Run("end date beyond all seasons", func(t *testing.T) {
		_, err := r.Resolve(Request{EndDate: "2030-01-01"})
		var unresolved *UnresolvedSeasonError
		require.True(t, errors.As(err, &unresolved))
		assert.Equal(t, date(2030, 1, 1), unresolved.Date)
	})

	t.Run("start date before all seasons", func(t *testing.T) {
		_, err := r.Resolve(Request{StartDate: "2012-01-01", EndDate: "2013-10-05"})
		var unresolved *UnresolvedSeasonError
		require.True(t, errors.As(err, &unresolved))
		assert.Equal(t, date(2012, 1, 1), unresolved.Date)
	})
}

// A gap end date with no lookback resolves forward to the upcoming season
// as a single-day window.
func TestResolveGapEndDateResolvesForward(t *testing.T) {
	r := NewResolver(season.Default())

	w, err := r.Resolve(Request{EndDate: "2024-08-01"})
	require.NoError(t, err)
	assert.Equal(t, 20242025, w.FromSeason)
	assert.Equal(t, 20242025, w.ThruSeason)
	assert.Equal(t, date(2024, 8, 1), w.StartDate)
	assert.Equal(t, date(2024, 8, 1), w.EndDate)
}
