package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/borealis/internal/backfill"
	"github.com/fortuna/borealis/internal/ingest"
	"github.com/fortuna/borealis/internal/ingest/nhl"
	"github.com/fortuna/borealis/internal/ingest/nst"
	"github.com/fortuna/borealis/internal/logger"
	"github.com/fortuna/borealis/internal/reconciliation"
	"github.com/fortuna/borealis/internal/season"
)

// Orchestrator manages the recurring ingestion tasks: the line poll, the
// daily stats scrape, and the cron maintenance entries.
type Orchestrator struct {
	poller   *ingest.LinePoller
	scraper  *nst.Ingester
	league   *nhl.Ingester
	recon    *reconciliation.Engine
	backfill *backfill.Service
	cal      *season.Calendar
	config   *Config
	cron     *cron.Cron
	cancel   context.CancelFunc
	log      *logrus.Entry

	// Task coordination
	pollCtx     context.Context
	pollCancel  context.CancelFunc
	dailyCtx    context.Context
	dailyCancel context.CancelFunc
}

// Config holds scheduler configuration
type Config struct {
	LinePollInterval  time.Duration // Default: 60s
	DailyScrapeHour   int           // Default: 3 (3 AM local)
	EnableLinePolling bool          // Default: true
	EnableDailyScrape bool          // Default: true
	MaxRetries        int           // Default: 3
	RetryDelay        time.Duration // Default: 5s
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() *Config {
	return &Config{
		LinePollInterval:  60 * time.Second,
		DailyScrapeHour:   3,
		EnableLinePolling: true,
		EnableDailyScrape: true,
		MaxRetries:        3,
		RetryDelay:        5 * time.Second,
	}
}

// NewOrchestrator creates a new scheduler orchestrator. The reconciliation
// engine and backfill service may be nil; the matching tasks are skipped.
func NewOrchestrator(
	poller *ingest.LinePoller,
	scraper *nst.Ingester,
	league *nhl.Ingester,
	recon *reconciliation.Engine,
	backfillSvc *backfill.Service,
	cal *season.Calendar,
	config *Config,
) *Orchestrator {
	if config == nil {
		config = DefaultConfig()
	}

	return &Orchestrator{
		poller:   poller,
		scraper:  scraper,
		league:   league,
		recon:    recon,
		backfill: backfillSvc,
		cal:      cal,
		config:   config,
		cron:     cron.New(),
		log:      logger.WithComponent("scheduler"),
	}
}

// Start begins all scheduled tasks and blocks until the context is done.
func (o *Orchestrator) Start(ctx context.Context) {
	o.log.Info("╔════════════════════════════════════════╗")
	o.log.Info("║   Borealis Scheduler Orchestrator      ║")
	o.log.Info("╚════════════════════════════════════════╝")
	o.log.Infof("Line polling: %v (interval: %v)", o.config.EnableLinePolling, o.config.LinePollInterval)
	o.log.Infof("Daily scrape: %v (at %02d:00)", o.config.EnableDailyScrape, o.config.DailyScrapeHour)

	// Create cancellable context for the orchestrator
	ctx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	// Start line polling
	if o.config.EnableLinePolling {
		o.pollCtx, o.pollCancel = context.WithCancel(ctx)
		go o.runLinePolling(o.pollCtx)
	}

	// Start daily scrape scheduler
	if o.config.EnableDailyScrape {
		o.dailyCtx, o.dailyCancel = context.WithCancel(ctx)
		go o.runDailyScrape(o.dailyCtx)
	}

	o.startCron(ctx)

	// Wait for context cancellation
	<-ctx.Done()
	o.log.Info("Scheduler orchestrator stopping...")
}

// startCron registers the maintenance entries: a weekly team-directory
// refresh before the Monday slate, and an hourly sweep that re-queues
// backfill jobs whose worker died mid-run.
func (o *Orchestrator) startCron(ctx context.Context) {
	if o.league != nil {
		_, err := o.cron.AddFunc("0 6 * * 1", func() {
			refreshCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
			defer cancel()
			if _, err := o.league.RefreshTeams(refreshCtx); err != nil {
				o.log.WithError(err).Warn("⚠️ Weekly team refresh failed")
			}
		})
		if err != nil {
			o.log.WithError(err).Warn("⚠️ Failed to register team refresh cron")
		}
	}

	if o.backfill != nil {
		_, err := o.cron.AddFunc("0 * * * *", func() {
			sweepCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			if err := o.backfill.SweepStaleJobs(sweepCtx); err != nil {
				o.log.WithError(err).Warn("⚠️ Backfill stale-job sweep failed")
			}
		})
		if err != nil {
			o.log.WithError(err).Warn("⚠️ Failed to register backfill sweep cron")
		}
	}

	o.cron.Start()
	o.log.Infof("→ Cron maintenance started (%d entries)", len(o.cron.Entries()))
}

// runLinePolling polls the odds providers on a fixed interval
func (o *Orchestrator) runLinePolling(ctx context.Context) {
	o.log.Infof("→ Line polling started (interval: %v)", o.config.LinePollInterval)

	ticker := time.NewTicker(o.config.LinePollInterval)
	defer ticker.Stop()

	consecutiveErrors := 0
	maxConsecutiveErrors := 5

	// Run immediately on start
	o.pollLinesWithRetry(ctx, &consecutiveErrors, maxConsecutiveErrors)

	for {
		select {
		case <-ctx.Done():
			o.log.Info("→ Line polling stopped")
			return
		case <-ticker.C:
			o.pollLinesWithRetry(ctx, &consecutiveErrors, maxConsecutiveErrors)
		}
	}
}

// pollLinesWithRetry polls every provider with retry logic, then links the
// freshly stored events to scheduled games.
func (o *Orchestrator) pollLinesWithRetry(ctx context.Context, consecutiveErrors *int, maxConsecutiveErrors int) {
	var results []*ingest.Result
	var err error

	// Retry loop
	for attempt := 1; attempt <= o.config.MaxRetries; attempt++ {
		results, err = o.poller.PollOnce(ctx)

		if err == nil {
			*consecutiveErrors = 0 // Reset on success
			break
		}
		if ctx.Err() != nil {
			return
		}

		o.log.Warnf("⚠️ Poll attempt %d/%d failed: %v", attempt, o.config.MaxRetries, err)

		if attempt < o.config.MaxRetries {
			select {
			case <-ctx.Done():
				return
			case <-time.After(o.config.RetryDelay):
				// Continue to next attempt
			}
		}
	}

	// All retries exhausted
	if err != nil {
		*consecutiveErrors++
		o.log.Errorf("❌ All %d poll attempts failed. Consecutive errors: %d/%d",
			o.config.MaxRetries, *consecutiveErrors, maxConsecutiveErrors)

		// If too many consecutive errors, back off before the next tick
		if *consecutiveErrors >= maxConsecutiveErrors {
			o.log.Warn("⚠️ High error rate detected, cooling off before next poll...")
			select {
			case <-ctx.Done():
			case <-time.After(20 * time.Second):
			}
		}
		return
	}

	events := 0
	for _, res := range results {
		events += res.Events
	}

	// New events need linking to scheduled games before the boards can be
	// queried by game.
	if o.recon != nil && events > 0 {
		if report, err := o.recon.ReconcileDate(ctx, season.Day(time.Now().UTC())); err != nil {
			o.log.WithError(err).Warn("⚠️ Post-poll reconciliation failed")
		} else if report.Missed > 0 {
			o.log.WithField("missed", report.Missed).Debug("Events without a scheduled game")
		}
	}

	if events > 0 {
		o.log.WithField("events", events).Info("✓ Line poll complete")
	}
}

// runDailyScrape runs the nightly stats scrape at the configured hour
func (o *Orchestrator) runDailyScrape(ctx context.Context) {
	o.log.Infof("→ Daily scrape scheduler started (runs at %02d:00 daily)", o.config.DailyScrapeHour)

	for {
		// Calculate time until next run
		now := time.Now()
		nextRun := time.Date(now.Year(), now.Month(), now.Day(), o.config.DailyScrapeHour, 0, 0, 0, now.Location())

		// If we've passed today's run time, schedule for tomorrow
		if now.After(nextRun) {
			nextRun = nextRun.Add(24 * time.Hour)
		}

		waitDuration := time.Until(nextRun)
		o.log.Infof("Next daily scrape: %s (in %v)", nextRun.Format("2006-01-02 15:04:05"), waitDuration.Round(time.Second))

		// Wait until next run time
		select {
		case <-ctx.Done():
			o.log.Info("→ Daily scrape scheduler stopped")
			return
		case <-time.After(waitDuration):
			o.log.Info("═══ Daily Scrape Starting ═══")
			o.runDailyScrapeTask(ctx)
			o.log.Info("═══ Daily Scrape Complete ═══")
		}
	}
}

// runDailyScrapeTask performs the nightly ingestion: finalize yesterday's
// scores, scrape yesterday's stats tables, and pull the schedule week so
// tonight's slate is queryable before the books post lines.
func (o *Orchestrator) runDailyScrapeTask(ctx context.Context) {
	startTime := time.Now()

	today := season.Day(time.Now().UTC())
	yesterday := today.AddDate(0, 0, -1)

	if o.league != nil {
		if _, err := o.league.SyncScores(ctx, yesterday); err != nil {
			o.log.WithError(err).Warn("⚠️ Score sync failed")
		}
		if _, err := o.league.SyncGames(ctx, today); err != nil {
			o.log.WithError(err).Warn("⚠️ Schedule sync failed")
		}
	}

	if err := o.scrapeDate(ctx, yesterday); err != nil {
		o.log.WithError(err).Error("❌ Daily scrape failed")
		return
	}

	o.log.Infof("✓ Daily scrape complete in %v", time.Since(startTime).Round(time.Second))
}

// scrapeDate scrapes one day's stats tables, deriving the season type from
// where the date falls in its season.
func (o *Orchestrator) scrapeDate(ctx context.Context, date time.Time) error {
	res, err := o.scraper.ScrapeDay(ctx, date, o.seasonTypeFor(date))
	if err != nil {
		return err
	}

	o.log.WithFields(logrus.Fields{
		"date":   date.Format("2006-01-02"),
		"tables": res.TablesFetched,
		"rows":   res.RowsUpserted,
		"errors": len(res.Errors),
	}).Info("✓ Scraped stats tables")

	return nil
}

// seasonTypeFor picks the scrape's season type: playoffs once the date is
// past its season's regular-season end, regular otherwise. Gap dates and
// dates outside the calendar default to regular; the resolver will flag
// truly unplaceable dates when the scrape runs.
func (o *Orchestrator) seasonTypeFor(date time.Time) season.Type {
	id, err := o.cal.SeasonForDate(date)
	if err != nil {
		return season.Regular
	}
	regularEnd, err := o.cal.SeasonEndDate(id, season.Regular)
	if err != nil {
		return season.Regular
	}
	if season.Day(date).After(regularEnd) {
		return season.Playoffs
	}
	return season.Regular
}

// Stop gracefully stops the scheduler
func (o *Orchestrator) Stop() {
	o.log.Info("Stopping scheduler orchestrator...")

	// Stop cron entries first so no new maintenance work starts
	cronCtx := o.cron.Stop()
	select {
	case <-cronCtx.Done():
	case <-time.After(5 * time.Second):
		o.log.Warn("⚠️ Cron entries still running at shutdown")
	}

	// Cancel line polling
	if o.pollCancel != nil {
		o.pollCancel()
	}

	// Cancel daily scrape
	if o.dailyCancel != nil {
		o.dailyCancel()
	}

	// Cancel main orchestrator
	if o.cancel != nil {
		o.cancel()
	}

	o.log.Info("✓ Scheduler orchestrator stopped")
}

// TriggerManualScrape scrapes a specific date outside the nightly schedule
func (o *Orchestrator) TriggerManualScrape(ctx context.Context, date time.Time) error {
	o.log.Infof("Manual scrape triggered for %s", date.Format("2006-01-02"))

	if err := o.scrapeDate(ctx, date); err != nil {
		return fmt.Errorf("manual scrape: %w", err)
	}

	o.log.Infof("✓ Manual scrape complete for %s", date.Format("2006-01-02"))
	return nil
}

// TriggerManualPoll polls the odds providers for a specific date outside
// the ticker loop.
func (o *Orchestrator) TriggerManualPoll(ctx context.Context, date time.Time) ([]*ingest.Result, error) {
	o.log.Infof("Manual line poll triggered for %s", date.Format("2006-01-02"))
	return o.poller.PollDate(ctx, date)
}

// GetStatus returns current scheduler status
func (o *Orchestrator) GetStatus() map[string]interface{} {
	return map[string]interface{}{
		"line_polling_enabled": o.config.EnableLinePolling,
		"line_poll_interval":   o.config.LinePollInterval.String(),
		"daily_scrape_enabled": o.config.EnableDailyScrape,
		"daily_scrape_hour":    o.config.DailyScrapeHour,
		"cron_entries":         len(o.cron.Entries()),
	}
}
