package odds

import (
	"fmt"
	"math"
	"time"
)

// Canonical market keys. Quotes are stored and queried under these
// regardless of what the originating provider calls the market.
const (
	MarketMoneyline   = "h2h"
	MarketShotsOnGoal = "player_shots_on_goal"
	MarketGoalieSaves = "player_total_saves"
)

// Quote is one sportsbook's price for one side of a market. Side is
// "over"/"under" for totals and props, or a team abbreviation for
// moneylines. Handicap is nil for markets without a line.
type Quote struct {
	Sportsbook string    `json:"sportsbook"`
	Side       string    `json:"side"`
	Handicap   *float64  `json:"handicap,omitempty"`
	Price      int       `json:"price"`
	Timestamp  time.Time `json:"timestamp"`
}

// Decimal returns the quote's price in decimal odds.
func (q Quote) Decimal() (float64, error) {
	return AmericanToDecimal(q.Price)
}

// ImpliedProbability returns the probability the quote's price implies.
func (q Quote) ImpliedProbability() float64 {
	return AmericanToProbability(q.Price)
}

// InvalidOddsError reports a price no sportsbook can quote: a zero
// American price or a non-positive decimal price. Fatal for the single
// conversion; callers working through a batch skip the quote and continue.
type InvalidOddsError struct {
	Price float64
	Unit  string
}

func (e *InvalidOddsError) Error() string {
	return fmt.Sprintf("invalid %s odds price %v", e.Unit, e.Price)
}

// AmericanToDecimal converts an American price to decimal odds. +150
// becomes 2.5, -150 becomes 1.667 (unrounded). Zero is not a price.
func AmericanToDecimal(american int) (float64, error) {
	if american == 0 {
		return 0, &InvalidOddsError{Price: 0, Unit: "american"}
	}
	if american > 0 {
		return 1 + float64(american)/100, nil
	}
	return 1 + 100/math.Abs(float64(american)), nil
}

// AmericanToProbability returns the implied probability of an American
// price. Defined for every input; zero maps to zero.
func AmericanToProbability(american int) float64 {
	a := float64(american)
	if a > 0 {
		return 100 / (a + 100)
	}
	return -a / (-a + 100)
}

// DecimalToProbability returns the implied probability of a decimal price.
func DecimalToProbability(decimal float64) (float64, error) {
	if decimal <= 0 {
		return 0, &InvalidOddsError{Price: decimal, Unit: "decimal"}
	}
	return 1 / decimal, nil
}
