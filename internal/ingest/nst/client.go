package nst

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/fortuna/borealis/internal/logger"
)

// UserAgent matches a desktop Chrome build; the site rejects obvious bots.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/132.0.0.0 Safari/537.36"

const (
	fetchAttempts = 3
	retryBackoff  = 5 * time.Second
)

// Client fetches stats tables with a shared session cookie and a
// requests-per-minute budget.
type Client struct {
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
	renderer *Renderer
	log      *logrus.Entry

	mu     sync.Mutex
	primed map[string]bool
}

// Options configures a Client.
type Options struct {
	BaseURL           string
	RequestsPerMinute int
	Timeout           time.Duration

	// Renderer, when set, is used as a fallback for responses that carry
	// no stats table.
	Renderer *Renderer
}

// NewClient creates a table client with a fresh cookie jar.
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = 6
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 45 * time.Second
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Client{
		baseURL: opts.BaseURL,
		http: &http.Client{
			Jar:     jar,
			Timeout: opts.Timeout,
		},
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1),
		renderer: opts.Renderer,
		log:      logger.WithComponent("nst-client"),
		primed:   make(map[string]bool),
	}, nil
}

// BaseURL returns the configured site root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchTable fetches one table page and returns the parsed document. When
// the plain response carries no stats table the renderer, if configured,
// retries through a headless browser.
func (c *Client) FetchTable(ctx context.Context, q Query) (*goquery.Document, error) {
	prime := q.PrimeURL(c.baseURL)
	if err := c.prime(ctx, prime); err != nil {
		c.log.WithError(err).Warn("⚠️ Priming request failed, continuing without session cookie")
	}

	tableURL := q.URL(c.baseURL)

	body, err := c.get(ctx, tableURL, prime)
	if err == nil {
		doc, perr := goquery.NewDocumentFromReader(bytes.NewReader(body))
		switch {
		case perr != nil:
			err = fmt.Errorf("failed to parse response: %w", perr)
		case hasStatsTable(doc):
			return doc, nil
		default:
			err = fmt.Errorf("no stats table in response")
		}
	}

	if c.renderer == nil {
		return nil, fmt.Errorf("fetching %s: %w", tableURL, err)
	}

	c.log.WithError(err).Warn("⚠️ Plain fetch failed, retrying with headless browser")

	html, rerr := c.renderer.FetchHTML(ctx, tableURL)
	if rerr != nil {
		return nil, fmt.Errorf("rendered fetch after %q: %w", err.Error(), rerr)
	}
	doc, perr := goquery.NewDocumentFromReader(strings.NewReader(html))
	if perr != nil {
		return nil, fmt.Errorf("failed to parse rendered page: %w", perr)
	}
	if !hasStatsTable(doc) {
		return nil, fmt.Errorf("no stats table in rendered page from %s", tableURL)
	}
	return doc, nil
}

// prime performs a one-time GET against the table page so the session
// cookie lands in the jar before the real request.
func (c *Client) prime(ctx context.Context, primeURL string) error {
	c.mu.Lock()
	done := c.primed[primeURL]
	c.mu.Unlock()
	if done {
		return nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, primeURL, nil)
	if err != nil {
		return err
	}
	applyBrowserHeaders(req.Header, "")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("priming request returned %d", resp.StatusCode)
	}

	c.mu.Lock()
	c.primed[primeURL] = true
	c.mu.Unlock()
	return nil
}

// get fetches a URL with bounded retries. Server errors and 429 retry with
// backoff; other client errors fail immediately.
func (c *Client) get(ctx context.Context, rawURL, referer string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= fetchAttempts; attempt++ {
		if attempt > 1 {
			c.log.WithFields(logrus.Fields{
				"attempt": attempt,
				"url":     rawURL,
			}).Warn("Retrying fetch")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt-1) * retryBackoff):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		applyBrowserHeaders(req.Header, referer)

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
			return body, nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = fmt.Errorf("status %d from %s", resp.StatusCode, rawURL)
		default:
			return nil, fmt.Errorf("status %d from %s", resp.StatusCode, rawURL)
		}
	}
	return nil, lastErr
}

// applyBrowserHeaders mirrors a desktop Chrome request profile.
// Accept-Encoding is left to the transport so gzip decoding stays automatic.
func applyBrowserHeaders(h http.Header, referer string) {
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.8")
	h.Set("Cache-Control", "no-cache")
	h.Set("Pragma", "no-cache")
	if referer != "" {
		h.Set("Referer", referer)
	}
	h.Set("Sec-Ch-Ua", `"Not A(Brand";v="8", "Chromium";v="132", "Brave";v="132"`)
	h.Set("Sec-Ch-Ua-Mobile", "?0")
	h.Set("Sec-Ch-Ua-Platform", `"Windows"`)
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "same-origin")
	h.Set("Sec-Fetch-User", "?1")
	h.Set("Sec-Gpc", "1")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("User-Agent", UserAgent)
}

// hasStatsTable reports whether the document carries a data table rather
// than an anti-bot interstitial.
func hasStatsTable(doc *goquery.Document) bool {
	if doc.Find("table#players, table#teams").Length() > 0 {
		return true
	}
	return doc.Find("table th").Length() > 0
}
