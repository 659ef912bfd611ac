package backfill

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/fortuna/borealis/internal/ingest/nst"
	"github.com/fortuna/borealis/internal/season"
)

// Runner executes backfill specs by scraping one day at a time through
// the stats-site ingester.
type Runner struct {
	ingester *nst.Ingester
	cal      *season.Calendar
}

// NewRunner constructs a runner over an already-wired ingester.
func NewRunner(ingester *nst.Ingester, cal *season.Calendar) *Runner {
	return &Runner{
		ingester: ingester,
		cal:      cal,
	}
}

// ResolveDates expands a spec into the concrete days it covers. Season
// specs resolve through the calendar; unknown seasons fail here so bad
// requests are rejected before a job ever queues.
func (r *Runner) ResolveDates(spec JobSpec) ([]time.Time, error) {
	switch spec.Type {
	case JobTypeSeason:
		id, err := strconv.Atoi(spec.SeasonID)
		if err != nil {
			return nil, fmt.Errorf("season id %q is not numeric", spec.SeasonID)
		}
		start, err := r.cal.SeasonStartDate(id)
		if err != nil {
			return nil, err
		}
		end, err := r.cal.SeasonEndDate(id, spec.SeasonType)
		if err != nil {
			return nil, err
		}
		return enumerateDates(start, end), nil
	case JobTypeDateRange:
		if spec.Start.IsZero() || spec.End.IsZero() {
			return nil, fmt.Errorf("date range job requires start and end dates")
		}
		return enumerateDates(spec.Start, spec.End), nil
	case JobTypeDate:
		if spec.Start.IsZero() {
			return nil, fmt.Errorf("date job requires a date")
		}
		return []time.Time{season.Day(spec.Start)}, nil
	default:
		return nil, fmt.Errorf("unsupported job type %s", spec.Type)
	}
}

// Run executes the job spec, reporting progress via the Reporter if
// provided. A day that fails hard fails the job; the operator re-queues
// the remainder as a date range. Per-table errors inside a day are
// reported and do not stop the run.
func (r *Runner) Run(ctx context.Context, spec JobSpec, reporter Reporter) error {
	dates, err := r.ResolveDates(spec)
	if err != nil {
		if reporter != nil {
			reporter.OnJobError(err)
		}
		return err
	}

	total := len(dates)
	if reporter != nil {
		reporter.OnJobStart(spec, total)
	}

	if spec.DryRun {
		if reporter != nil {
			reporter.OnProgress(fmt.Sprintf("Dry run: would scrape %d days, nothing written", total), 0, total)
			reporter.OnJobComplete()
		}
		return nil
	}

	for idx, date := range dates {
		if err := ctx.Err(); err != nil {
			return err
		}

		if reporter != nil {
			reporter.OnDateStart(date, idx, total)
		}

		res, err := r.ingester.ScrapeDay(ctx, date, spec.SeasonType)
		if err != nil {
			if reporter != nil {
				reporter.OnJobError(err)
			}
			return fmt.Errorf("scraping %s: %w", date.Format("2006-01-02"), err)
		}

		if reporter != nil {
			reporter.OnDayScraped(date, res.RowsUpserted, len(res.Errors))
			reporter.OnProgress(fmt.Sprintf("Scraped %s (%d rows)", date.Format("Jan 2, 2006"), res.RowsUpserted), idx+1, total)
		}
	}

	if reporter != nil {
		reporter.OnJobComplete()
	}

	return nil
}

func enumerateDates(start, end time.Time) []time.Time {
	if end.Before(start) {
		start, end = end, start
	}

	var dates []time.Time
	current := season.Day(start)
	final := season.Day(end)

	for !current.After(final) {
		dates = append(dates, current)
		current = current.AddDate(0, 0, 1)
	}

	return dates
}
