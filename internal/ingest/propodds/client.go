package propodds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/fortuna/borealis/internal/logger"
)

// DefaultBaseURL is the production Prop Odds host.
const DefaultBaseURL = "https://api.prop-odds.com"

const (
	requestTimeout = 20 * time.Second
	dayLayout      = "2006-01-02"

	// The schedule endpoint buckets games into days in this zone.
	scheduleZone = "America/New_York"
)

// ErrNotFound marks a game or market the provider has no data for.
var ErrNotFound = errors.New("not found")

// Client talks to the Prop Odds API. Requests are rate limited and
// wrapped in a circuit breaker so a provider outage fails fast instead
// of stalling the poll loop.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	log     *logrus.Entry
}

// NewClient creates a client. The API key is required and is only ever
// sent on the wire; log lines and errors carry redacted URLs.
func NewClient(baseURL, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("prop-odds API key is not configured")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	log := logger.WithComponent("propodds-client")
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "prop-odds",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("⚠️ Circuit breaker state changed")
		},
	})

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: requestTimeout},
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
		breaker: breaker,
		log:     log,
	}, nil
}

// Games lists the provider's NHL schedule for one calendar day.
func (c *Client) Games(ctx context.Context, date time.Time) ([]Game, error) {
	params := url.Values{}
	params.Set("date", date.Format(dayLayout))
	params.Set("tz", scheduleZone)
	params.Set("api_key", c.apiKey)

	var payload GamesResponse
	if err := c.getJSON(ctx, c.baseURL+"/beta/games/nhl?"+params.Encode(), &payload); err != nil {
		return nil, err
	}

	c.log.WithFields(logrus.Fields{
		"date":  date.Format(dayLayout),
		"games": len(payload.Games),
	}).Debug("Fetched game schedule")

	return payload.Games, nil
}

// MarketOdds fetches a game's full quote history for one market. Games
// the provider has no quotes for come back empty rather than as an error.
func (c *Client) MarketOdds(ctx context.Context, gameID, market string) (*MarketOdds, error) {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	endpoint := fmt.Sprintf("%s/beta/odds/%s/%s?%s", c.baseURL, gameID, market, params.Encode())

	board := &MarketOdds{}
	if err := c.getJSON(ctx, endpoint, board); err != nil {
		if errors.Is(err, ErrNotFound) {
			return &MarketOdds{}, nil
		}
		return nil, err
	}

	return board, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, dest interface{}) error {
	body, err := c.get(ctx, rawURL)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decoding response from %s: %w", redactURL(rawURL), err)
	}

	return nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request to %s failed: %w", redactURL(rawURL), err)
		}
		defer resp.Body.Close()

		// A missing market is routine, not a provider failure the
		// breaker should count.
		if resp.StatusCode == http.StatusNotFound {
			return []byte(nil), nil
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, redactURL(rawURL))
		}

		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return nil, err
	}

	b := body.([]byte)
	if b == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, redactURL(rawURL))
	}

	return b, nil
}

// redactURL strips the query string so the API key never reaches a log
// line or error message.
func redactURL(rawURL string) string {
	if i := strings.Index(rawURL, "?"); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}
