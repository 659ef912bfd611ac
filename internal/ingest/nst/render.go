package nst

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// renderTimeout bounds a single headless page load.
const renderTimeout = 60 * time.Second

// Renderer fetches pages through a headless browser when the plain HTTP
// fetch is served an interstitial instead of the table.
type Renderer struct {
	allocCtx context.Context
	cancel   context.CancelFunc
}

// NewRenderer creates a headless browser allocator. Browsers are launched
// lazily, one per fetch.
func NewRenderer() *Renderer {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(UserAgent),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Renderer{
		allocCtx: allocCtx,
		cancel:   cancel,
	}
}

// Close releases browser resources.
func (r *Renderer) Close() {
	if r.cancel != nil {
		r.cancel()
	}
}

// FetchHTML loads a page, waits for its table to render, and returns the
// resulting document markup.
func (r *Renderer) FetchHTML(ctx context.Context, url string) (string, error) {
	browserCtx, cancel := chromedp.NewContext(r.allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, renderTimeout)
	defer cancel()

	// Propagate caller cancellation into the browser context
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible(`table`, chromedp.ByQuery),
		chromedp.Sleep(1*time.Second), // Allow JS to finish rendering
		chromedp.OuterHTML(`html`, &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("chromedp error: %w", err)
	}
	if html == "" {
		return "", fmt.Errorf("empty HTML content returned")
	}

	return html, nil
}
