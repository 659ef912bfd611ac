// Command ingest is the Borealis data ingestion CLI.
//
// Usage:
//
//	borealis-ingest scrape --end 2025-01-15 --last-n-days 10
//	borealis-ingest odds --date 2025-01-15 --provider the-odds
//	borealis-ingest games --date 2025-01-15 --scores
//	borealis-ingest teams
//	borealis-ingest backfill run --season 20242025 --dry-run
//	borealis-ingest backfill queue --start 2025-01-01 --end 2025-01-31
//	borealis-ingest backfill status
//	borealis-ingest reconcile --date 2025-01-15
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fortuna/borealis/internal/backfill"
	"github.com/fortuna/borealis/internal/config"
	"github.com/fortuna/borealis/internal/ingest"
	"github.com/fortuna/borealis/internal/ingest/nhl"
	"github.com/fortuna/borealis/internal/ingest/nst"
	"github.com/fortuna/borealis/internal/ingest/propodds"
	"github.com/fortuna/borealis/internal/ingest/theodds"
	"github.com/fortuna/borealis/internal/logger"
	"github.com/fortuna/borealis/internal/reconciliation"
	"github.com/fortuna/borealis/internal/season"
	"github.com/fortuna/borealis/internal/store"
	"github.com/fortuna/borealis/internal/store/repository"
	"github.com/fortuna/borealis/internal/team"
	"github.com/fortuna/borealis/internal/window"
)

func main() {
	// Load .env if present
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:          "borealis-ingest",
		Short:        "Borealis data ingestion CLI",
		SilenceUsage: true,
	}

	root.AddCommand(scrapeCmd())
	root.AddCommand(oddsCmd())
	root.AddCommand(gamesCmd())
	root.AddCommand(teamsCmd())
	root.AddCommand(backfillCmd())
	root.AddCommand(reconcileCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// scrape command
// --------------------------------------------------------------------------

func scrapeCmd() *cobra.Command {
	var (
		endDate    string
		startDate  string
		lastNDays  int
		seasonType string
		situations []string
	)
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape stats tables for a date window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTask(func(ctx context.Context, cfg *config.Config, db *store.Database) error {
				st, err := season.ParseType(seasonType)
				if err != nil {
					return err
				}

				scraper, err := buildScraper(ctx, cfg, db, situations)
				if err != nil {
					return err
				}

				start := time.Now()
				res, err := scraper.ScrapeWindow(ctx, window.Request{
					EndDate:    endDate,
					StartDate:  startDate,
					LastNDays:  lastNDays,
					SeasonType: st,
				})
				if err != nil {
					return err
				}

				fmt.Printf("Scraped %s → %s: %d days, %d tables, %d rows in %v\n",
					res.Window.StartDate.Format(window.DateLayout),
					res.Window.EndDate.Format(window.DateLayout),
					res.DaysScraped, res.TablesFetched, res.RowsUpserted,
					time.Since(start).Round(time.Second))
				printErrors(res.Errors)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&endDate, "end", yesterday(), "Window end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&startDate, "start", "", "Window start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&lastNDays, "last-n-days", 0, "Lookback in days, wins over --start")
	cmd.Flags().StringVar(&seasonType, "season-type", "regular", "Season type (regular, playoffs)")
	cmd.Flags().StringSliceVar(&situations, "situations", nil, "Situations to scrape (default 5v5,all,pk)")
	return cmd
}

// --------------------------------------------------------------------------
// odds command
// --------------------------------------------------------------------------

func oddsCmd() *cobra.Command {
	var (
		date     string
		provider string
	)
	cmd := &cobra.Command{
		Use:   "odds",
		Short: "Pull the odds boards for a slate day",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTask(func(ctx context.Context, cfg *config.Config, db *store.Database) error {
				day, err := parseDate(date)
				if err != nil {
					return err
				}

				teams := buildDirectory(ctx, db)
				providers, err := buildProviders(cfg, db, teams, provider)
				if err != nil {
					return err
				}

				poller := ingest.NewLinePoller(providers...)
				results, err := poller.PollDate(ctx, day)
				if err != nil {
					return err
				}

				for _, res := range results {
					fmt.Printf("%s %s: %d events, %d moneylines, %d props\n",
						res.Provider, res.Date, res.Events, res.Moneylines, res.Props)
					printErrors(res.Errors)
				}

				// Link the fresh events to scheduled games
				report, err := runReconciliation(ctx, db, teams, day)
				if err != nil {
					return err
				}
				fmt.Printf("Reconciled %s: %d linked, %d already linked, %d missed\n",
					report.Date, report.Linked, report.Already, report.Missed)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", today(), "Slate date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&provider, "provider", "all", "Provider (the-odds, prop-odds, all)")
	return cmd
}

// --------------------------------------------------------------------------
// games command
// --------------------------------------------------------------------------

func gamesCmd() *cobra.Command {
	var (
		date   string
		scores bool
	)
	cmd := &cobra.Command{
		Use:   "games",
		Short: "Sync the league schedule for a date",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTask(func(ctx context.Context, cfg *config.Config, db *store.Database) error {
				day, err := parseDate(date)
				if err != nil {
					return err
				}

				league := nhl.NewIngester(nhl.NewClient(cfg.NHLAPIBase),
					repository.NewGameRepository(db), repository.NewTeamRepository(db))

				synced, err := league.SyncGames(ctx, day)
				if err != nil {
					return err
				}
				fmt.Printf("Synced %d games for %s\n", synced, day.Format(window.DateLayout))

				if scores {
					finals, err := league.SyncScores(ctx, day)
					if err != nil {
						return err
					}
					fmt.Printf("Updated %d final scores\n", finals)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", today(), "Schedule date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&scores, "scores", false, "Also sync final scores for the date")
	return cmd
}

// --------------------------------------------------------------------------
// teams command
// --------------------------------------------------------------------------

func teamsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "teams",
		Short: "Refresh the team directory from the league API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTask(func(ctx context.Context, cfg *config.Config, db *store.Database) error {
				league := nhl.NewIngester(nhl.NewClient(cfg.NHLAPIBase),
					repository.NewGameRepository(db), repository.NewTeamRepository(db))

				stored, err := league.RefreshTeams(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("Refreshed %d teams\n", stored)
				return nil
			})
		},
	}
}

// --------------------------------------------------------------------------
// backfill command
// --------------------------------------------------------------------------

func backfillCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Run or queue historical scrape jobs",
	}
	cmd.AddCommand(backfillRunCmd())
	cmd.AddCommand(backfillQueueCmd())
	cmd.AddCommand(backfillStatusCmd())
	return cmd
}

type backfillFlags struct {
	seasonID   string
	seasonType string
	startDate  string
	endDate    string
	date       string
	dryRun     bool
}

func (f *backfillFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.seasonID, "season", "", "Season to backfill (e.g., 20242025)")
	cmd.Flags().StringVar(&f.seasonType, "season-type", "regular", "Season type (regular, playoffs)")
	cmd.Flags().StringVar(&f.startDate, "start", "", "Range start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.endDate, "end", "", "Range end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.date, "date", "", "Single date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Resolve and report without writing")
}

// request converts the flag set to a service request, leaving validation to
// the service so the CLI and the REST endpoint reject identically.
func (f *backfillFlags) request() (backfill.Request, error) {
	req := backfill.Request{
		SeasonID:   f.seasonID,
		SeasonType: f.seasonType,
		DryRun:     f.dryRun,
	}

	set := func(raw, flag string, dst **time.Time) error {
		if raw == "" {
			return nil
		}
		parsed, err := parseDate(raw)
		if err != nil {
			return fmt.Errorf("--%s: %w", flag, err)
		}
		*dst = &parsed
		return nil
	}

	if err := set(f.startDate, "start", &req.StartDate); err != nil {
		return req, err
	}
	if err := set(f.endDate, "end", &req.EndDate); err != nil {
		return req, err
	}
	if err := set(f.date, "date", &req.Date); err != nil {
		return req, err
	}
	return req, nil
}

func backfillRunCmd() *cobra.Command {
	flags := &backfillFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a backfill in the foreground with live progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTask(func(ctx context.Context, cfg *config.Config, db *store.Database) error {
				req, err := flags.request()
				if err != nil {
					return err
				}
				spec, err := specFromRequest(req)
				if err != nil {
					return err
				}

				scraper, err := buildScraper(ctx, cfg, db, nil)
				if err != nil {
					return err
				}
				runner := backfill.NewRunner(scraper, season.Default())

				if err := runner.Run(ctx, spec, &consoleReporter{dryRun: flags.dryRun}); err != nil {
					return err
				}
				fmt.Println("✓ Backfill completed successfully")
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func backfillQueueCmd() *cobra.Command {
	flags := &backfillFlags{}
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Queue a backfill for the daemon's worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTask(func(ctx context.Context, cfg *config.Config, db *store.Database) error {
				req, err := flags.request()
				if err != nil {
					return err
				}

				scraper, err := buildScraper(ctx, cfg, db, nil)
				if err != nil {
					return err
				}
				svc := backfill.NewService(db, backfill.NewRunner(scraper, season.Default()))

				job, err := svc.Enqueue(ctx, req)
				if err != nil {
					return err
				}
				fmt.Printf("Queued %s job %s (%d days)\n", job.JobType, job.JobID, job.ProgressTotal)
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func backfillStatusCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the active job and recent history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTask(func(ctx context.Context, cfg *config.Config, db *store.Database) error {
				svc := backfill.NewService(db, nil)

				summary, err := svc.GetStatus(ctx)
				if err != nil {
					return err
				}

				if summary.ActiveJob != nil {
					printJob("active", summary.ActiveJob)
				} else {
					fmt.Println("No active job")
				}

				jobs, err := svc.ListJobs(ctx, limit)
				if err != nil {
					return err
				}
				for _, job := range jobs {
					printJob("", job)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "History rows to show")
	return cmd
}

func printJob(label string, job *backfill.Job) {
	if label != "" {
		label = label + " "
	}
	fmt.Printf("%s%s  %-10s %-9s %d/%d  %s\n",
		label, job.JobID, job.JobType, job.Status,
		job.ProgressCurrent, job.ProgressTotal, job.StatusMessage.String)
}

// specFromRequest builds a runner spec from CLI flags without touching the
// queue. Mirrors what the service derives for queued jobs.
func specFromRequest(req backfill.Request) (backfill.JobSpec, error) {
	jobType, err := req.DeriveType()
	if err != nil {
		return backfill.JobSpec{}, err
	}
	seasonType, err := season.ParseType(req.SeasonType)
	if err != nil {
		return backfill.JobSpec{}, err
	}

	spec := backfill.JobSpec{
		Type:       jobType,
		SeasonID:   req.SeasonID,
		SeasonType: seasonType,
		DryRun:     req.DryRun,
	}
	switch jobType {
	case backfill.JobTypeDateRange:
		spec.Start = *req.StartDate
		spec.End = *req.EndDate
	case backfill.JobTypeDate:
		spec.Start = *req.Date
		spec.End = *req.Date
	}
	return spec, nil
}

// consoleReporter prints runner progress for foreground backfills
type consoleReporter struct {
	dryRun bool
}

func (c *consoleReporter) OnJobStart(spec backfill.JobSpec, totalDays int) {
	fmt.Printf("Starting %s job, %d days (dry_run=%v)\n", spec.Type, totalDays, c.dryRun)
}

func (c *consoleReporter) OnDateStart(date time.Time, index int, total int) {
	fmt.Printf("[%d/%d] %s\n", index+1, total, date.Format(window.DateLayout))
}

func (c *consoleReporter) OnDayScraped(date time.Time, rows int, tableErrors int) {
	if tableErrors > 0 {
		fmt.Printf("  %d rows, %d table errors\n", rows, tableErrors)
		return
	}
	fmt.Printf("  %d rows\n", rows)
}

func (c *consoleReporter) OnProgress(message string, current int, total int) {
	fmt.Printf("Progress: %s (%d/%d)\n", message, current, total)
}

func (c *consoleReporter) OnJobComplete() {
	fmt.Println("Job complete")
}

func (c *consoleReporter) OnJobError(err error) {
	fmt.Printf("Job error: %v\n", err)
}

// --------------------------------------------------------------------------
// reconcile command
// --------------------------------------------------------------------------

func reconcileCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Link stored odds events to scheduled games",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTask(func(ctx context.Context, cfg *config.Config, db *store.Database) error {
				day, err := parseDate(date)
				if err != nil {
					return err
				}

				report, err := runReconciliation(ctx, db, buildDirectory(ctx, db), day)
				if err != nil {
					return err
				}
				fmt.Printf("Reconciled %s: %d events, %d linked, %d already linked, %d missed\n",
					report.Date, report.Events, report.Linked, report.Already, report.Missed)
				printErrors(report.Errors)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", today(), "Slate date (YYYY-MM-DD)")
	return cmd
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// runTask handles config loading, logger setup, DB connection, and context
// cancellation.
func runTask(fn func(ctx context.Context, cfg *config.Config, db *store.Database) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := config.Load()
	logger.InitLogger(cfg.LogLevel, !cfg.IsProduction())

	db, err := store.NewDatabase(cfg.PolarisDSN)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	return fn(ctx, cfg, db)
}

// buildDirectory loads the team directory, falling back to the shipped
// table when the teams table is empty or unreachable.
func buildDirectory(ctx context.Context, db *store.Database) team.Directory {
	if stored, err := team.NewFromStore(ctx, db); err == nil {
		return stored
	}
	return team.Default()
}

// buildScraper assembles the scrape pipeline
func buildScraper(ctx context.Context, cfg *config.Config, db *store.Database, situations []string) (*nst.Ingester, error) {
	client, err := nst.NewClient(nst.Options{
		BaseURL:           cfg.NSTBaseURL,
		RequestsPerMinute: cfg.ScrapeRequestsPerMinute,
		Timeout:           cfg.ScrapeTimeout,
		Renderer:          nst.NewRenderer(),
	})
	if err != nil {
		return nil, err
	}

	return nst.NewIngester(
		client,
		nst.NewParser(buildDirectory(ctx, db)),
		window.NewResolver(season.Default()),
		repository.NewSkaterRepository(db),
		repository.NewGoalieRepository(db),
		repository.NewTeamStatsRepository(db),
		situations,
	), nil
}

// buildProviders creates the odds providers whose API keys are configured,
// filtered by name when the filter is not "all".
func buildProviders(cfg *config.Config, db *store.Database, teams team.Directory, filter string) ([]ingest.LineProvider, error) {
	oddsRepo := repository.NewOddsRepository(db)

	var providers []ingest.LineProvider
	if filter == "all" || filter == theodds.Provider {
		if cfg.TheOddsAPIKey == "" {
			return nil, fmt.Errorf("THE_ODDS_API_KEY is required")
		}
		client, err := theodds.NewClient(cfg.TheOddsAPIBase, cfg.TheOddsAPIKey)
		if err != nil {
			return nil, err
		}
		providers = append(providers, theodds.NewIngester(client, oddsRepo, teams, nil))
	}
	if filter == "all" || filter == propodds.Provider {
		if cfg.PropOddsAPIKey == "" {
			return nil, fmt.Errorf("PROP_ODDS_API_KEY is required")
		}
		client, err := propodds.NewClient(cfg.PropOddsAPIBase, cfg.PropOddsAPIKey)
		if err != nil {
			return nil, err
		}
		providers = append(providers, propodds.NewIngester(client, oddsRepo, nil))
	}

	if len(providers) == 0 {
		return nil, fmt.Errorf("unknown provider %q", filter)
	}
	return providers, nil
}

func runReconciliation(ctx context.Context, db *store.Database, teams team.Directory, day time.Time) (*reconciliation.Report, error) {
	engine := reconciliation.NewEngine(
		repository.NewGameRepository(db),
		repository.NewOddsRepository(db),
		reconciliation.NewMatcher(teams),
		[]string{theodds.Provider, propodds.Provider},
	)
	return engine.ReconcileDate(ctx, day)
}

func parseDate(s string) (time.Time, error) {
	parsed, err := time.Parse(window.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return parsed, nil
}

func today() string {
	return time.Now().UTC().Format(window.DateLayout)
}

func yesterday() string {
	return time.Now().UTC().AddDate(0, 0, -1).Format(window.DateLayout)
}

func printErrors(errs []string) {
	for _, e := range errs {
		fmt.Printf("  error: %s\n", e)
	}
}
