package odds

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmericanToDecimal(t *testing.T) {
	tests := []struct {
		american int
		want     float64
	}{
		{american: 150, want: 2.5},
		{american: -150, want: 1.0 + 100.0/150.0},
		{american: 100, want: 2.0},
		{american: -110, want: 1.0 + 100.0/110.0},
	}

	for _, tt := range tests {
		got, err := AmericanToDecimal(tt.american)
		require.NoError(t, err, "american %d", tt.american)
		assert.InDelta(t, tt.want, got, 1e-9, "american %d", tt.american)
	}
}

func TestAmericanToProbability(t *testing.T) {
	assert.InDelta(t, 0.4, AmericanToProbability(150), 1e-9)
	assert.InDelta(t, 0.6, AmericanToProbability(-150), 1e-9)
	assert.InDelta(t, 0.5, AmericanToProbability(100), 1e-9)
	assert.InDelta(t, 110.0/210.0, AmericanToProbability(-110), 1e-9)
	assert.Equal(t, 0.0, AmericanToProbability(0))
}

// Converting through decimal odds must land on the same implied
// probability as the direct conversion.
func TestOddsRoundTrip(t *testing.T) {
	for _, american := range []int{150, -150, 100, -110} {
		decimal, err := AmericanToDecimal(american)
		require.NoError(t, err)

		viaDecimal, err := DecimalToProbability(decimal)
		require.NoError(t, err)

		assert.InDelta(t, AmericanToProbability(american), viaDecimal, 1e-9, "american %d", american)
	}
}

func TestInvalidOdds(t *testing.T) {
	_, err := AmericanToDecimal(0)
	var invalid *InvalidOddsError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "american", invalid.Unit)

	_, err = DecimalToProbability(0)
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "decimal", invalid.Unit)

	_, err = DecimalToProbability(-1.5)
	assert.Error(t, err)
}

func TestQuoteDerivedPrices(t *testing.T) {
	q := Quote{Sportsbook: "fanduel", Side: "over", Price: -110}

	d, err := q.Decimal()
	require.NoError(t, err)
	assert.InDelta(t, 1.0+100.0/110.0, d, 1e-9)
	assert.InDelta(t, 110.0/210.0, q.ImpliedProbability(), 1e-9)
}

func fptr(v float64) *float64 { return &v }

func at(minute int) time.Time {
	return time.Date(2025, 1, 15, 18, minute, 0, 0, time.UTC)
}

func TestSelectNearEvenLinesCommonHandicap(t *testing.T) {
	quotes := []Quote{
		{Sportsbook: "fanduel", Side: "over", Handicap: fptr(2.5), Price: -110, Timestamp: at(0)},
		{Sportsbook: "fanduel", Side: "under", Handicap: fptr(2.5), Price: -110, Timestamp: at(1)},
	}

	got := SelectNearEvenLines(quotes)
	require.Len(t, got, 2)
	assert.Equal(t, "over", got[0].Side)
	assert.Equal(t, "under", got[1].Side)
	assert.Equal(t, 2.5, *got[0].Handicap)
	assert.Equal(t, 2.5, *got[1].Handicap)
}

func TestSelectNearEvenLinesPrefersHandicapClosestToZero(t *testing.T) {
	quotes := []Quote{
		{Sportsbook: "fanduel", Side: "over", Handicap: fptr(3.5), Price: 120, Timestamp: at(0)},
		{Sportsbook: "fanduel", Side: "under", Handicap: fptr(3.5), Price: -150, Timestamp: at(1)},
		{Sportsbook: "fanduel", Side: "over", Handicap: fptr(2.5), Price: -115, Timestamp: at(2)},
		{Sportsbook: "fanduel", Side: "under", Handicap: fptr(2.5), Price: -105, Timestamp: at(3)},
	}

	got := SelectNearEvenLines(quotes)
	require.Len(t, got, 2)
	for _, q := range got {
		assert.Equal(t, 2.5, *q.Handicap)
	}
}

func TestSelectNearEvenLinesNoCommonHandicap(t *testing.T) {
	t.Run("single more recent side", func(t *testing.T) {
		quotes := []Quote{
			{Sportsbook: "fanduel", Side: "over", Handicap: fptr(2.5), Price: -110, Timestamp: at(1)},
			{Sportsbook: "fanduel", Side: "under", Handicap: fptr(3.5), Price: -110, Timestamp: at(5)},
		}

		got := SelectNearEvenLines(quotes)
		require.Len(t, got, 1)
		assert.Equal(t, "under", got[0].Side)
		assert.Equal(t, 3.5, *got[0].Handicap)
	})

	t.Run("both sides present at the winning handicap", func(t *testing.T) {
		quotes := []Quote{
			{Sportsbook: "fanduel", Side: "over", Handicap: fptr(2.5), Price: -110, Timestamp: at(1)},
			{Sportsbook: "fanduel", Side: "over", Handicap: fptr(3.5), Price: 130, Timestamp: at(2)},
			{Sportsbook: "fanduel", Side: "under", Handicap: fptr(3.5), Price: -160, Timestamp: at(5)},
		}

		// 2.5 carries only an over, so the shared handicap is 3.5 and
		// both of its sides come back; the stale 2.5 over drops.
		got := SelectNearEvenLines(quotes)
		require.Len(t, got, 2)
		for _, q := range got {
			assert.Equal(t, 3.5, *q.Handicap)
		}
	})
}

func TestSelectNearEvenLinesDeduplicatesByTimestamp(t *testing.T) {
	quotes := []Quote{
		{Sportsbook: "fanduel", Side: "over", Handicap: fptr(2.5), Price: -120, Timestamp: at(0)},
		{Sportsbook: "fanduel", Side: "over", Handicap: fptr(2.5), Price: -105, Timestamp: at(9)},
		{Sportsbook: "fanduel", Side: "under", Handicap: fptr(2.5), Price: -110, Timestamp: at(1)},
	}

	got := SelectNearEvenLines(quotes)
	require.Len(t, got, 2)
	assert.Equal(t, -105, got[0].Price, "stale quote at the same handicap must lose")
	assert.Equal(t, -110, got[1].Price)
}

func TestSelectNearEvenLinesPerSportsbook(t *testing.T) {
	quotes := []Quote{
		{Sportsbook: "fanduel", Side: "over", Handicap: fptr(2.5), Price: -110, Timestamp: at(0)},
		{Sportsbook: "fanduel", Side: "under", Handicap: fptr(2.5), Price: -110, Timestamp: at(0)},
		{Sportsbook: "draftkings", Side: "over", Handicap: fptr(3.5), Price: 140, Timestamp: at(2)},
		{Sportsbook: "draftkings", Side: "under", Handicap: fptr(3.5), Price: -170, Timestamp: at(1)},
	}

	got := SelectNearEvenLines(quotes)
	require.Len(t, got, 4)
	// Sorted output: draftkings before fanduel.
	assert.Equal(t, "draftkings", got[0].Sportsbook)
	assert.Equal(t, "draftkings", got[1].Sportsbook)
	assert.Equal(t, "fanduel", got[2].Sportsbook)
	assert.Equal(t, "fanduel", got[3].Sportsbook)
}

func TestSelectNearEvenLinesMoneylinePassthrough(t *testing.T) {
	quotes := []Quote{
		{Sportsbook: "pinnacle", Side: "BOS", Price: -140, Timestamp: at(0)},
		{Sportsbook: "pinnacle", Side: "BOS", Price: -135, Timestamp: at(3)},
		{Sportsbook: "pinnacle", Side: "TOR", Price: 120, Timestamp: at(3)},
	}

	got := SelectNearEvenLines(quotes)
	require.Len(t, got, 2)
	assert.Equal(t, "BOS", got[0].Side)
	assert.Equal(t, -135, got[0].Price, "only the most recent moneyline per side survives")
	assert.Equal(t, "TOR", got[1].Side)
}

func TestSelectNearEvenLinesEmpty(t *testing.T) {
	got := SelectNearEvenLines(nil)
	require.NotNil(t, got)
	assert.Empty(t, got)
}
