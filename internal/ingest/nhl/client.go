package nhl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/borealis/internal/logger"
)

const (
	// DefaultBaseURL is the league's public web API.
	DefaultBaseURL = "https://api-web.nhle.com/v1"

	// StatsBaseURL hosts the franchise listing.
	StatsBaseURL = "https://api.nhle.com/stats/rest/en"
)

const (
	requestAttempts = 3
	requestBackoff  = 2 * time.Second
)

// Client talks to the NHL web API.
type Client struct {
	baseURL      string
	statsBaseURL string
	http         *http.Client
	log          *logrus.Entry
}

// NewClient creates a league API client. An empty baseURL uses the
// production API.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:      baseURL,
		statsBaseURL: StatsBaseURL,
		http:         &http.Client{Timeout: 15 * time.Second},
		log:          logger.WithComponent("nhl-client"),
	}
}

// Schedule fetches the schedule week starting at a date.
func (c *Client) Schedule(ctx context.Context, date time.Time) (*ScheduleResponse, error) {
	var out ScheduleResponse
	url := fmt.Sprintf("%s/schedule/%s", c.baseURL, date.Format("2006-01-02"))
	if err := c.getJSON(ctx, url, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Scores fetches the day's games with live state and scores.
func (c *Client) Scores(ctx context.Context, date time.Time) (*ScoreResponse, error) {
	var out ScoreResponse
	url := fmt.Sprintf("%s/score/%s", c.baseURL, date.Format("2006-01-02"))
	if err := c.getJSON(ctx, url, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Roster fetches a team's roster for one season.
func (c *Client) Roster(ctx context.Context, team string, seasonID int) (*RosterResponse, error) {
	var out RosterResponse
	url := fmt.Sprintf("%s/roster/%s/%d", c.baseURL, team, seasonID)
	if err := c.getJSON(ctx, url, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Teams fetches the franchise listing from the stats host.
func (c *Client) Teams(ctx context.Context) (*TeamInfoResponse, error) {
	var out TeamInfoResponse
	url := c.statsBaseURL + "/team"
	if err := c.getJSON(ctx, url, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// getJSON fetches and decodes a URL with bounded retries on server errors.
func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	var lastErr error
	for attempt := 1; attempt <= requestAttempts; attempt++ {
		if attempt > 1 {
			c.log.WithFields(logrus.Fields{
				"attempt": attempt,
				"url":     url,
			}).Warn("Retrying request")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt-1) * requestBackoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case readErr != nil:
			lastErr = readErr
		case resp.StatusCode == http.StatusOK:
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("decoding response from %s: %w", url, err)
			}
			return nil
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("status %d from %s", resp.StatusCode, url)
		default:
			return fmt.Errorf("status %d from %s", resp.StatusCode, url)
		}
	}
	return lastErr
}
