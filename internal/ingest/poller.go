package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/borealis/internal/logger"
)

// LinePoller drives every odds provider from one entry point. The
// scheduler's ticker calls PollOnce; backfills call PollDate directly.
type LinePoller struct {
	providers []LineProvider
	chicago   *time.Location
	log       *logrus.Entry
}

// NewLinePoller creates a poller over the given providers.
func NewLinePoller(providers ...LineProvider) *LinePoller {
	log := logger.WithComponent("line-poller")

	chicago, err := time.LoadLocation("America/Chicago")
	if err != nil {
		log.WithError(err).Warn("⚠️ America/Chicago unavailable, using UTC for the board day")
		chicago = time.UTC
	}

	return &LinePoller{
		providers: providers,
		chicago:   chicago,
		log:       log,
	}
}

// PollOnce ingests the current America/Chicago calendar day, the day the
// providers' boards roll over on.
func (p *LinePoller) PollOnce(ctx context.Context) ([]*Result, error) {
	now := time.Now().In(p.chicago)
	return p.PollDate(ctx, time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC))
}

// PollDate runs every provider for one calendar day. A single provider
// failing is logged and does not stop the others; the returned error is
// non-nil only when no provider succeeds.
func (p *LinePoller) PollDate(ctx context.Context, date time.Time) ([]*Result, error) {
	results := make([]*Result, 0, len(p.providers))
	failures := 0
	var lastErr error

	for _, provider := range p.providers {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res, err := provider.IngestDate(ctx, date)
		if res != nil {
			results = append(results, res)
		}
		if err != nil {
			failures++
			lastErr = err
			p.log.WithError(err).WithField("provider", provider.Name()).Warn("⚠️ Provider poll failed")
		}
	}

	if len(p.providers) > 0 && failures == len(p.providers) {
		return results, fmt.Errorf("every provider failed, last error: %w", lastErr)
	}

	return results, nil
}
