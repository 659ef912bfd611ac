package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/borealis/internal/season"
	"github.com/fortuna/borealis/internal/window"
)

func TestParseWindowQuery(t *testing.T) {
	tests := []struct {
		name          string
		query         string
		wantErr       bool
		wantEnd       string
		wantStart     string
		wantLastN     int
		wantType      season.Type
		wantSituation string
	}{
		{
			name:          "full window request",
			query:         "end_date=2025-01-20&start_date=2025-01-01&situation=5v5",
			wantEnd:       "2025-01-20",
			wantStart:     "2025-01-01",
			wantType:      season.Regular,
			wantSituation: "5v5",
		},
		{
			name:          "lookback with playoffs",
			query:         "end_date=2024-05-01&last_n_days=30&season_type=playoffs",
			wantEnd:       "2024-05-01",
			wantLastN:     30,
			wantType:      season.Playoffs,
			wantSituation: "all",
		},
		{
			name:    "malformed end date",
			query:   "end_date=01/20/2025",
			wantErr: true,
		},
		{
			name:    "reversed range",
			query:   "end_date=2025-01-01&start_date=2025-01-20",
			wantErr: true,
		},
		{
			name:    "negative lookback",
			query:   "end_date=2025-01-20&last_n_days=-5",
			wantErr: true,
		},
		{
			name:    "unknown season type",
			query:   "end_date=2025-01-20&season_type=preseason",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/v1/stats/teams?"+tt.query, nil)

			req, situation, err := parseWindowQuery(r)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, tt.wantEnd, req.EndDate)
			assert.Equal(t, tt.wantStart, req.StartDate)
			assert.Equal(t, tt.wantLastN, req.LastNDays)
			assert.Equal(t, tt.wantType, req.SeasonType)
			assert.Equal(t, tt.wantSituation, situation)
		})
	}
}

func TestParseWindowQueryDefaultsEndDateToToday(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/stats/teams", nil)

	req, situation, err := parseWindowQuery(r)
	require.NoError(t, err)
	assert.Equal(t, "all", situation)

	end, err := time.Parse(window.DateLayout, req.EndDate)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), end, 24*time.Hour)
}

func TestDateParam(t *testing.T) {
	fallback := time.Date(2025, 1, 15, 17, 30, 0, 0, time.UTC)

	t.Run("absent returns day-truncated fallback", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/games", nil)

		d, err := dateParam(r, "date", fallback)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), d)
	})

	t.Run("explicit date parses", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/games?date=2025-02-01", nil)

		d, err := dateParam(r, "date", fallback)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), d)
	})

	t.Run("malformed date errors", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/games?date=02-01-2025", nil)

		_, err := dateParam(r, "date", fallback)
		require.Error(t, err)
	})
}

func TestIntParamClampsToFallback(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  int
	}{
		{name: "absent uses fallback", query: "", want: 10},
		{name: "in range", query: "games=25", want: 25},
		{name: "below minimum", query: "games=0", want: 10},
		{name: "above maximum", query: "games=500", want: 10},
		{name: "not a number", query: "games=ten", want: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/x?"+tt.query, nil)
			assert.Equal(t, tt.want, intParam(r, "games", 10, 1, 82))
		})
	}
}

func TestRespondWindowError(t *testing.T) {
	t.Run("unresolved season maps to 422", func(t *testing.T) {
		w := httptest.NewRecorder()
		err := fmt.Errorf("resolving window: %w",
			&window.UnresolvedSeasonError{Date: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)})

		respondWindowError(w, "Failed to aggregate team stats", err)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "Date outside configured seasons", body["error"])
	})

	t.Run("other errors map to 500", func(t *testing.T) {
		w := httptest.NewRecorder()

		respondWindowError(w, "Failed to aggregate team stats", errors.New("connection refused"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
