package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fortuna/borealis/internal/api/rest"
	"github.com/fortuna/borealis/internal/api/websocket"
	"github.com/fortuna/borealis/internal/backfill"
	"github.com/fortuna/borealis/internal/cache"
	"github.com/fortuna/borealis/internal/config"
	"github.com/fortuna/borealis/internal/ingest"
	"github.com/fortuna/borealis/internal/ingest/nhl"
	"github.com/fortuna/borealis/internal/ingest/nst"
	"github.com/fortuna/borealis/internal/ingest/propodds"
	"github.com/fortuna/borealis/internal/ingest/theodds"
	"github.com/fortuna/borealis/internal/logger"
	"github.com/fortuna/borealis/internal/publisher"
	"github.com/fortuna/borealis/internal/reconciliation"
	"github.com/fortuna/borealis/internal/scheduler"
	"github.com/fortuna/borealis/internal/season"
	"github.com/fortuna/borealis/internal/store"
	"github.com/fortuna/borealis/internal/store/repository"
	"github.com/fortuna/borealis/internal/team"
	"github.com/fortuna/borealis/internal/window"
)

const (
	serviceName    = "borealis"
	serviceVersion = "1.0.0"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.InitLogger(cfg.LogLevel, !cfg.IsProduction())

	log.Infof("Starting %s v%s - NHL Stats & Lines Service", serviceName, serviceVersion)

	// Initialize database connection
	db, err := store.NewDatabase(cfg.PolarisDSN)
	if err != nil {
		log.Fatalf("Failed to connect to Polaris database: %v", err)
	}
	defer db.Close()

	log.Info("✓ Connected to Polaris database")

	// Run migrations
	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}
	log.Info("✓ Database migrations applied")

	// Seed initial data (non-fatal - may already exist)
	if err := db.SeedData(); err != nil {
		log.Warnf("⚠️  Seed data warning: %v (continuing anyway)", err)
	} else {
		log.Info("✓ Seed data applied")
	}

	// Initialize Redis client with retry logic
	var redisCache *cache.RedisCache
	maxRetries := 30
	retryDelay := 2 * time.Second

	log.Info("Connecting to Redis...")
	for i := 0; i < maxRetries; i++ {
		redisCache, err = cache.NewRedisCache(cfg.RedisURL)
		if err == nil {
			break
		}

		if i < maxRetries-1 {
			log.Warnf("Redis connection attempt %d/%d failed: %v (retrying in %v)", i+1, maxRetries, err, retryDelay)
			time.Sleep(retryDelay)
		} else {
			log.Fatalf("Failed to connect to Redis after %d attempts: %v", maxRetries, err)
		}
	}
	defer redisCache.Close()

	log.Info("✓ Connected to Redis")

	// Stream publisher shares the cache's connection pool
	pub := publisher.NewStreamPublisher(redisCache.Client())

	// Season calendar: the shipped table is the source of truth; the
	// seasons table mirrors it for SQL consumers.
	cal := season.Default()
	resolver := window.NewResolver(cal)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seasonRepo := repository.NewSeasonRepository(db)
	if n, err := seasonRepo.Seed(ctx, cal); err != nil {
		log.Warnf("⚠️  Season seed warning: %v", err)
	} else {
		log.Infof("✓ Season calendar synced (%d seasons)", n)
	}

	// Team directory: DB-backed when populated, shipped table otherwise,
	// with Redis-cached lookups either way.
	var teams team.Directory
	if stored, err := team.NewFromStore(ctx, db); err != nil {
		log.Warnf("⚠️  Team directory fallback to shipped table: %v", err)
		teams = team.Default()
	} else {
		teams = stored
	}
	teams = team.NewCachedDirectory(teams, redisCache)

	// Repositories
	gameRepo := repository.NewGameRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	skaterRepo := repository.NewSkaterRepository(db)
	goalieRepo := repository.NewGoalieRepository(db)
	teamStatsRepo := repository.NewTeamStatsRepository(db)
	oddsRepo := repository.NewOddsRepository(db)

	// NST scrape pipeline
	nstClient, err := nst.NewClient(nst.Options{
		BaseURL:           cfg.NSTBaseURL,
		RequestsPerMinute: cfg.ScrapeRequestsPerMinute,
		Timeout:           cfg.ScrapeTimeout,
		Renderer:          nst.NewRenderer(),
	})
	if err != nil {
		log.Fatalf("Failed to create NST client: %v", err)
	}
	scraper := nst.NewIngester(nstClient, nst.NewParser(teams), resolver, skaterRepo, goalieRepo, teamStatsRepo, nil)

	// NHL schedule/teams pipeline
	league := nhl.NewIngester(nhl.NewClient(cfg.NHLAPIBase), gameRepo, teamRepo)

	// Odds providers: only those with keys configured
	var providers []ingest.LineProvider
	if cfg.TheOddsAPIKey != "" {
		client, err := theodds.NewClient(cfg.TheOddsAPIBase, cfg.TheOddsAPIKey)
		if err != nil {
			log.Fatalf("Failed to create The Odds API client: %v", err)
		}
		providers = append(providers, theodds.NewIngester(client, oddsRepo, teams, pub))
	}
	if cfg.PropOddsAPIKey != "" {
		client, err := propodds.NewClient(cfg.PropOddsAPIBase, cfg.PropOddsAPIKey)
		if err != nil {
			log.Fatalf("Failed to create Prop Odds client: %v", err)
		}
		providers = append(providers, propodds.NewIngester(client, oddsRepo, pub))
	}
	if len(providers) == 0 {
		log.Warn("⚠️  No odds API keys configured, line polling will be idle")
	}
	poller := ingest.NewLinePoller(providers...)

	// Event-to-game reconciliation
	matcher := reconciliation.NewMatcher(teams)
	recon := reconciliation.NewEngine(gameRepo, oddsRepo, matcher, []string{theodds.Provider, propodds.Provider})

	// Backfill service
	runner := backfill.NewRunner(scraper, cal)
	backfillSvc := backfill.NewService(db, runner)
	backfillSvc.Start()

	log.Info("✓ Backfill service started")

	// Scheduler
	schedConfig := &scheduler.Config{
		LinePollInterval:  cfg.LinePollInterval,
		DailyScrapeHour:   cfg.DailyScrapeHour,
		EnableLinePolling: getEnv("ENABLE_LINE_POLLING", "true") == "true" && len(providers) > 0,
		EnableDailyScrape: getEnv("ENABLE_DAILY_SCRAPE", "true") == "true",
		MaxRetries:        3,
		RetryDelay:        5 * time.Second,
	}
	sched := scheduler.NewOrchestrator(poller, scraper, league, recon, backfillSvc, cal, schedConfig)
	go sched.Start(ctx)

	log.Info("✓ Scheduler started")

	// REST API server
	restServer := rest.NewServer(cfg.RESTPort, cfg.CORSAllowOrigins, rest.Deps{
		DB:       db,
		Cache:    redisCache,
		Resolver: resolver,
		Matcher:  matcher,
		Teams:    teams,
		Pub:      pub,
		Backfill: backfillSvc,
	})
	go func() {
		if err := restServer.Start(); err != nil {
			log.Errorf("REST server error: %v", err)
		}
	}()

	log.Infof("✓ REST API server listening on :%s", cfg.RESTPort)

	// WebSocket server
	wsServer := websocket.NewServer(redisCache, cfg.CORSAllowOrigins)
	go func() {
		if err := wsServer.Start(cfg.WSPort); err != nil {
			log.Errorf("WebSocket server error: %v", err)
		}
	}()

	log.Infof("✓ WebSocket server listening on :%s", cfg.WSPort)
	log.Infof("✓ Borealis v%s started successfully", serviceVersion)
	log.Infof("  REST API: http://0.0.0.0:%s", cfg.RESTPort)
	log.Infof("  WebSocket: ws://0.0.0.0:%s", cfg.WSPort)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down Borealis gracefully...")

	// Graceful shutdown
	cancel()
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := backfillSvc.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Backfill service shutdown error: %v", err)
	}
	if err := restServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("REST API server shutdown error: %v", err)
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("WebSocket server shutdown error: %v", err)
	}

	log.Info("Borealis stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
