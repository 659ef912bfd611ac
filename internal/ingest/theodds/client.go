package theodds

import (
	"context"
	"encoding/json"
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

// DefaultBaseURL is the production the-odds-api host.
const DefaultBaseURL = "https://api.the-odds-api.com/v4"

const (
	sportKey       = "icehockey_nhl"
	requestTimeout = 20 * time.Second
	isoLayout      = "2006-01-02T15:04:05Z"
	dayLayout      = "2006-01-02"
)

// Client talks to the-odds-api. Requests are rate limited to protect the
// monthly quota and wrapped in a circuit breaker so a provider outage
// fails fast instead of stalling the poll loop.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	chicago *time.Location
	log     *logrus.Entry
}

// NewClient creates a client. The API key is required and is only ever
// sent on the wire; log lines and errors carry redacted URLs.
func NewClient(baseURL, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("the-odds-api key is not configured")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	chicago, err := time.LoadLocation("America/Chicago")
	if err != nil {
		return nil, fmt.Errorf("failed to load America/Chicago: %w", err)
	}

	log := logger.WithComponent("theodds-client")
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "the-odds-api",
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
		chicago: chicago,
		log:     log,
	}, nil
}

// UsesHistorical reports whether quotes for the date come from the
// historical snapshot API rather than the live board. The provider's
// board rolls over at midnight America/Chicago.
func (c *Client) UsesHistorical(date time.Time) bool {
	return date.Format(dayLayout) != time.Now().In(c.chicago).Format(dayLayout)
}

// Events lists the NHL board for one calendar day, bounded to games that
// commence between midnight and midnight America/Chicago. Past days come
// from the noon snapshot, by which every game of the day is posted and
// none has finished.
func (c *Client) Events(ctx context.Context, date time.Time) ([]Event, error) {
	from := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, c.chicago)
	to := from.AddDate(0, 0, 1)

	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("commenceTimeFrom", from.UTC().Format(isoLayout))
	params.Set("commenceTimeTo", to.UTC().Format(isoLayout))

	historical := c.UsesHistorical(date)
	endpoint := c.baseURL + "/sports/" + sportKey + "/events"
	if historical {
		params.Set("date", from.Add(12*time.Hour).UTC().Format(isoLayout))
		endpoint = c.baseURL + "/historical/sports/" + sportKey + "/events"
	}

	var events []Event
	if err := c.getPayload(ctx, endpoint+"?"+params.Encode(), historical, &events); err != nil {
		return nil, err
	}

	c.log.WithFields(logrus.Fields{
		"date":       date.Format(dayLayout),
		"events":     len(events),
		"historical": historical,
	}).Debug("Fetched event board")

	return events, nil
}

// EventOdds fetches one event's odds across the given markets. A zero
// snapshot asks the live endpoint; otherwise the historical snapshot at
// that instant is returned, so passing the commence time yields the
// final pre-game board.
func (c *Client) EventOdds(ctx context.Context, eventID string, markets []string, snapshot time.Time) (*EventOdds, error) {
	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("regions", "us")
	params.Set("markets", strings.Join(markets, ","))
	params.Set("oddsFormat", "american")

	historical := !snapshot.IsZero()
	endpoint := fmt.Sprintf("%s/sports/%s/events/%s/odds", c.baseURL, sportKey, eventID)
	if historical {
		params.Set("date", snapshot.UTC().Format(isoLayout))
		endpoint = fmt.Sprintf("%s/historical/sports/%s/events/%s/odds", c.baseURL, sportKey, eventID)
	}

	board := &EventOdds{}
	if err := c.getPayload(ctx, endpoint+"?"+params.Encode(), historical, board); err != nil {
		return nil, err
	}

	return board, nil
}

// getPayload fetches a URL and decodes the payload into dest, unwrapping
// the data envelope that historical responses nest the payload under.
func (c *Client) getPayload(ctx context.Context, rawURL string, historical bool, dest interface{}) error {
	body, err := c.get(ctx, rawURL)
	if err != nil {
		return err
	}

	if historical {
		var envelope historicalEnvelope
		if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Data) > 0 {
			body = envelope.Data
		}
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

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, redactURL(rawURL))
		}

		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return nil, err
	}

	return body.([]byte), nil
}

// redactURL strips the query string so the API key never reaches a log
// line or error message.
func redactURL(rawURL string) string {
	if i := strings.Index(rawURL, "?"); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}
