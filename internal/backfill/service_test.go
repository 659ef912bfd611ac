package backfill

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/borealis/internal/season"
)

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func dayPtr(s string) *time.Time {
	d := day(s)
	return &d
}

func TestDeriveType(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		want    JobType
		wantErr bool
	}{
		{
			name: "single date",
			req:  Request{Date: dayPtr("2025-01-10")},
			want: JobTypeDate,
		},
		{
			name: "date range",
			req:  Request{StartDate: dayPtr("2025-01-01"), EndDate: dayPtr("2025-01-10")},
			want: JobTypeDateRange,
		},
		{
			name: "season",
			req:  Request{SeasonID: "20242025"},
			want: JobTypeSeason,
		},
		{
			name: "date wins over season",
			req:  Request{SeasonID: "20242025", Date: dayPtr("2025-01-10")},
			want: JobTypeDate,
		},
		{
			name:    "range missing end",
			req:     Request{StartDate: dayPtr("2025-01-01")},
			wantErr: true,
		},
		{
			name:    "empty request",
			req:     Request{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.req.DeriveType()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildSpecSeasonJob(t *testing.T) {
	job := &Job{
		JobID:      "a1b2",
		JobType:    JobTypeSeason,
		SeasonID:   sql.NullString{String: "20232024", Valid: true},
		SeasonType: sql.NullString{String: "playoffs", Valid: true},
		DryRun:     true,
	}

	spec, err := buildSpec(job)
	require.NoError(t, err)

	assert.Equal(t, JobTypeSeason, spec.Type)
	assert.Equal(t, "20232024", spec.SeasonID)
	assert.Equal(t, season.Playoffs, spec.SeasonType)
	assert.True(t, spec.DryRun)
}

func TestBuildSpecDateJob(t *testing.T) {
	job := &Job{
		JobID:     "a1b2",
		JobType:   JobTypeDate,
		StartDate: sql.NullTime{Time: day("2025-01-10"), Valid: true},
		EndDate:   sql.NullTime{Time: day("2025-01-10"), Valid: true},
	}

	spec, err := buildSpec(job)
	require.NoError(t, err)

	assert.Equal(t, JobTypeDate, spec.Type)
	assert.Equal(t, day("2025-01-10"), spec.Start)
	// Empty season type defaults to the regular season.
	assert.Equal(t, season.Regular, spec.SeasonType)
}

func TestBuildSpecRejectsBrokenRows(t *testing.T) {
	_, err := buildSpec(&Job{JobID: "x", JobType: JobTypeSeason})
	require.Error(t, err)

	_, err = buildSpec(&Job{JobID: "x", JobType: JobTypeDateRange,
		StartDate: sql.NullTime{Time: day("2025-01-01"), Valid: true}})
	require.Error(t, err)

	_, err = buildSpec(&Job{JobID: "x", JobType: JobType("rebuild")})
	require.Error(t, err)

	_, err = buildSpec(&Job{JobID: "x", JobType: JobTypeDate,
		StartDate: sql.NullTime{Time: day("2025-01-01"), Valid: true},
		SeasonType: sql.NullString{String: "overtime", Valid: true}})
	require.Error(t, err)
}
