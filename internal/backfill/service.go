package backfill

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/borealis/internal/logger"
	"github.com/fortuna/borealis/internal/season"
	"github.com/fortuna/borealis/internal/store"
)

// staleJobAfter is how long a running job may go without touching its row
// before the periodic sweep re-queues it. A healthy job updates progress on
// every scraped day, which takes minutes, not hours.
const staleJobAfter = 2 * time.Hour

// Request is what callers submit to queue a backfill. Exactly one shape is
// honored: a single date, a date range, or a whole season.
type Request struct {
	SeasonID   string
	SeasonType string
	StartDate  *time.Time
	EndDate    *time.Time
	Date       *time.Time
	DryRun     bool
}

// DeriveType picks the job type from the populated fields. The most specific
// shape wins, so a request carrying both a date and a season id runs as a
// single-date job.
func (r Request) DeriveType() (JobType, error) {
	switch {
	case r.Date != nil:
		return JobTypeDate, nil
	case r.StartDate != nil || r.EndDate != nil:
		if r.StartDate == nil || r.EndDate == nil {
			return "", errors.New("date range requires both start_date and end_date")
		}
		return JobTypeDateRange, nil
	case r.SeasonID != "":
		return JobTypeSeason, nil
	}
	return "", errors.New("request needs a season_id, a date range, or a date")
}

// Service coordinates job persistence, execution, and status reporting.
// Jobs live in Postgres, so queued work survives restarts and concurrent
// instances never claim the same job twice.
type Service struct {
	repo   *Repository
	runner *Runner

	historyLimit int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	log *logrus.Entry
}

// NewService constructs a Service. Call Start to launch the worker.
func NewService(db *store.Database, runner *Runner) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	return &Service{
		repo:         NewRepository(db),
		runner:       runner,
		historyLimit: 10,
		ctx:          ctx,
		cancel:       cancel,
		log:          logger.WithComponent("backfill"),
	}
}

// Start re-queues jobs stranded by a previous crash and launches the
// background worker loop.
func (s *Service) Start() {
	if err := s.repo.ResetStuckJobs(s.ctx); err != nil {
		s.log.WithError(err).Warn("⚠️ Failed to reset stuck jobs")
	}

	s.wg.Add(1)
	go s.worker()
	s.log.Info("✓ Backfill worker started")
}

// Shutdown stops the worker and waits for an in-flight job to notice.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Enqueue validates the request and persists a queued job. Validation runs
// the same date resolution the worker will, so a bad season id or an empty
// range is rejected here instead of failing minutes later inside the worker.
func (s *Service) Enqueue(ctx context.Context, req Request) (*Job, error) {
	jobType, err := req.DeriveType()
	if err != nil {
		return nil, err
	}

	seasonType, err := season.ParseType(req.SeasonType)
	if err != nil {
		return nil, err
	}

	job := &Job{
		JobType:       jobType,
		SeasonType:    sql.NullString{String: string(seasonType), Valid: true},
		DryRun:        req.DryRun,
		Status:        JobStatusQueued,
		StatusMessage: sql.NullString{String: "Queued", Valid: true},
	}

	switch jobType {
	case JobTypeSeason:
		job.SeasonID = sql.NullString{String: req.SeasonID, Valid: true}
	case JobTypeDateRange:
		job.StartDate = sql.NullTime{Time: season.Day(*req.StartDate), Valid: true}
		job.EndDate = sql.NullTime{Time: season.Day(*req.EndDate), Valid: true}
	case JobTypeDate:
		day := season.Day(*req.Date)
		job.StartDate = sql.NullTime{Time: day, Valid: true}
		job.EndDate = sql.NullTime{Time: day, Valid: true}
	}

	spec, err := buildSpec(job)
	if err != nil {
		return nil, err
	}

	dates, err := s.runner.ResolveDates(spec)
	if err != nil {
		return nil, fmt.Errorf("validating request: %w", err)
	}
	job.ProgressTotal = len(dates)

	stored, err := s.repo.CreateJob(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("queueing job: %w", err)
	}

	_ = s.repo.AppendEvent(ctx, stored.JobID, "queued", "Job queued", nil, nil)

	s.log.WithFields(logrus.Fields{
		"job_id":  stored.JobID,
		"type":    stored.JobType,
		"days":    stored.ProgressTotal,
		"dry_run": stored.DryRun,
	}).Info("✓ Queued backfill job")

	return stored, nil
}

// GetStatus returns the currently running job plus recent history.
func (s *Service) GetStatus(ctx context.Context) (*StatusSummary, error) {
	active, err := s.repo.GetActiveJob(ctx)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.ListRecentJobs(ctx, s.historyLimit)
	if err != nil {
		return nil, err
	}

	return &StatusSummary{
		ActiveJob: active,
		History:   history,
	}, nil
}

// ListJobs returns the most recently created jobs, newest first.
func (s *Service) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	if limit < 1 {
		limit = s.historyLimit
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.ListRecentJobs(ctx, limit)
}

// SweepStaleJobs re-queues running jobs that stopped reporting progress.
// Meant for a periodic scheduler task.
func (s *Service) SweepStaleJobs(ctx context.Context) error {
	n, err := s.repo.ResetStaleJobs(ctx, staleJobAfter)
	if err != nil {
		return err
	}
	if n > 0 {
		s.log.WithField("count", n).Warn("⚠️ Re-queued stalled backfill jobs")
	}
	return nil
}

func (s *Service) worker() {
	defer s.wg.Done()

	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
			job, err := s.repo.MarkNextJobRunning(s.ctx)
			if err != nil {
				if s.ctx.Err() == nil {
					s.log.WithError(err).Warn("⚠️ Failed to claim next job")
				}
				time.Sleep(time.Second)
				continue
			}
			if job == nil {
				select {
				case <-s.ctx.Done():
					return
				case <-ticker.C:
					continue
				}
			}

			s.executeJob(job)
		}
	}
}

func (s *Service) executeJob(job *Job) {
	log := s.log.WithField("job_id", job.JobID)

	spec, err := buildSpec(job)
	if err != nil {
		log.WithError(err).Error("⚠️ Job row is not runnable")
		_ = s.repo.UpdateStatus(s.ctx, job.JobID, JobStatusFailed, "Invalid job specification", err)
		return
	}

	log.WithFields(logrus.Fields{
		"type":    job.JobType,
		"days":    job.ProgressTotal,
		"dry_run": job.DryRun,
	}).Info("Starting backfill job")

	reporter := &jobReporter{
		ctx:   s.ctx,
		repo:  s.repo,
		jobID: job.JobID,
	}

	err = s.runner.Run(s.ctx, spec, reporter)
	switch {
	case err == nil:
		_ = s.repo.UpdateStatus(s.ctx, job.JobID, JobStatusCompleted, "Job completed", nil)
		log.Info("✓ Backfill job finished")
	case errors.Is(err, context.Canceled):
		// The service context is gone, so the final write gets its own.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.repo.UpdateStatus(ctx, job.JobID, JobStatusCancelled, "Interrupted by shutdown", err)
		log.Warn("⊘ Backfill job interrupted by shutdown")
	default:
		_ = s.repo.UpdateStatus(s.ctx, job.JobID, JobStatusFailed, "Job failed", err)
		log.WithError(err).Error("⚠️ Backfill job failed")
	}
}

// buildSpec turns a persisted job row back into the runner's input.
func buildSpec(job *Job) (JobSpec, error) {
	seasonType, err := season.ParseType(job.SeasonType.String)
	if err != nil {
		return JobSpec{}, fmt.Errorf("job %s: %w", job.JobID, err)
	}

	spec := JobSpec{
		Type:       job.JobType,
		SeasonType: seasonType,
		DryRun:     job.DryRun,
	}

	switch job.JobType {
	case JobTypeSeason:
		if !job.SeasonID.Valid || job.SeasonID.String == "" {
			return JobSpec{}, fmt.Errorf("job %s: season job has no season id", job.JobID)
		}
		spec.SeasonID = job.SeasonID.String
	case JobTypeDateRange:
		if !job.StartDate.Valid || !job.EndDate.Valid {
			return JobSpec{}, fmt.Errorf("job %s: date range job is missing dates", job.JobID)
		}
		spec.Start = job.StartDate.Time
		spec.End = job.EndDate.Time
	case JobTypeDate:
		if !job.StartDate.Valid {
			return JobSpec{}, fmt.Errorf("job %s: date job has no date", job.JobID)
		}
		spec.Start = job.StartDate.Time
	default:
		return JobSpec{}, fmt.Errorf("job %s: unknown job type %q", job.JobID, job.JobType)
	}

	return spec, nil
}

// jobReporter persists runner progress onto the job row as it happens, so
// the status endpoint reflects a live job without asking the worker. Writes
// are best-effort; terminal status is owned by executeJob.
type jobReporter struct {
	ctx   context.Context
	repo  *Repository
	jobID string
}

func (r *jobReporter) OnJobStart(spec JobSpec, totalDays int) {
	msg := fmt.Sprintf("Scraping %d days", totalDays)
	if spec.DryRun {
		msg = fmt.Sprintf("Dry run across %d days", totalDays)
	}
	_ = r.repo.UpdateProgress(r.ctx, r.jobID, 0, totalDays, msg)
	_ = r.repo.AppendEvent(r.ctx, r.jobID, "started", msg, intPtr(0), intPtr(totalDays))
}

func (r *jobReporter) OnDateStart(date time.Time, index int, total int) {
	msg := fmt.Sprintf("Scraping %s (%d/%d)", date.Format("Jan 2, 2006"), index+1, total)
	_ = r.repo.UpdateProgress(r.ctx, r.jobID, index, total, msg)
}

func (r *jobReporter) OnDayScraped(date time.Time, rows int, tableErrors int) {
	msg := fmt.Sprintf("Scraped %s: %d rows", date.Format("2006-01-02"), rows)
	if tableErrors > 0 {
		msg = fmt.Sprintf("%s (%d table errors)", msg, tableErrors)
	}
	_ = r.repo.AppendEvent(r.ctx, r.jobID, "day_scraped", msg, nil, nil)
}

func (r *jobReporter) OnProgress(message string, current int, total int) {
	_ = r.repo.UpdateProgress(r.ctx, r.jobID, current, total, message)
}

func (r *jobReporter) OnJobComplete() {
	_ = r.repo.AppendEvent(r.ctx, r.jobID, "completed", "Job completed", nil, nil)
}

func (r *jobReporter) OnJobError(err error) {
	_ = r.repo.AppendEvent(r.ctx, r.jobID, "error", err.Error(), nil, nil)
}

func intPtr(v int) *int { return &v }
