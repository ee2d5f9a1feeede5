package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/app"
	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/assignment"
	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/config"
	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/handler"
	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/logging"
	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/optimizer"
	internalRedis "github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/redis"
	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/repository/postgres"
	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/scheduler"
	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/service"
)

func main() {
	bootLogger := logging.New(os.Stdout, "json", slog.LevelInfo)

	cfg, err := config.Load()
	if err != nil {
		logging.LogError(bootLogger, "invalid configuration", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.Log.Format, logging.ParseLevel(cfg.Log.Level))
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// New Relic first so the database driver can be instrumented.
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logging.LogError(logger, "failed to initialize New Relic", err)
		} else {
			logger.Info("New Relic enabled", slog.String("app", cfg.NewRelic.AppName))
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		logging.LogError(logger, "failed to connect to database", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to PostgreSQL")

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		logging.LogError(logger, "failed to connect to redis", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		logger.Info("connected to Redis")
	}

	engine := wireEngine(db, redisClient, nrApp, cfg, logger)
	server := wireServer(engine, redisClient, nrApp, cfg, logger)

	var sched *scheduler.Scheduler
	if cfg.Assignment.Enabled {
		sched, err = scheduler.New(cfg.Assignment.Schedule, cfg.Assignment.Location(), engine.assignments, logger)
		if err != nil {
			logging.LogError(logger, "failed to create scheduler", err)
			os.Exit(1)
		}
		sched.Start()
	} else {
		logger.Warn("scheduled assignment runs disabled")
	}

	go func() {
		logger.Info("starting server", slog.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.LogError(logger, "server error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			logging.LogError(logger, "scheduler did not stop cleanly", err)
		}
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.LogError(logger, "server forced to shutdown", err)
	}
	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	logger.Info("server exited")
}

type engine struct {
	assignments *service.AssignmentService
	trips       *service.TripService
}

// wireEngine wires repositories, stores and services.
func wireEngine(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config, logger *slog.Logger) engine {
	requestRepo := postgres.NewRequestRepository(db)
	referenceRepo := postgres.NewReferenceRepository(db)
	tripRepo := postgres.NewTripRepository(db)
	assignmentRepo := postgres.NewAssignmentRepository(db)
	serviceDayRepo := postgres.NewServiceDayRepository(db)

	var leaseStore internalRedis.RunLeaseStoreInterface
	var summaryStore internalRedis.SummaryStoreInterface
	if redisClient != nil {
		leaseStore = internalRedis.NewLeaseStore(redisClient)
		summaryStore = internalRedis.NewSummaryStore(redisClient, cfg.Assignment.SummaryTTL)
	}

	var strategy optimizer.Strategy = optimizer.Disabled{}
	if cfg.Optimizer.URL != "" {
		strategy = optimizer.NewHTTPClient(cfg.Optimizer.URL, cfg.Optimizer.Timeout)
	} else {
		logger.Warn("optimizer not configured, runs use rule-based assignment")
	}

	notifier := service.NewNotificationService(
		service.NewLogSender(logger),
		cfg.Notification.AdminRecipients,
		cfg.Notification.StaffRecipients,
	)

	// Validate already checked these.
	weekend, _ := cfg.Assignment.Weekend()
	policy := assignment.Policy{
		Tiers:  assignment.Tiers(cfg.Assignment.CapacityTiers),
		Quorum: cfg.Assignment.Quorum,
	}

	assignments := service.NewAssignmentService(service.AssignmentDeps{
		Requests:    requestRepo,
		Calendar:    referenceRepo,
		Trips:       tripRepo,
		ServiceDays: serviceDayRepo,
		Tx:          postgres.NewTransactor(db),
		Reference:   service.NewReferenceCache(referenceRepo, cfg.Assignment.ReferenceCacheTTL),
		Optimizer:   strategy,
		Notifier:    notifier,
		Lease:       leaseStore,
		Summaries:   summaryStore,
		NewRelic:    nrApp,
		Logger:      logger,
	}, service.AssignmentOptions{
		Policy:   policy,
		Location: cfg.Assignment.Location(),
		Weekend:  weekend,
		LeaseTTL: cfg.Assignment.LeaseTTL,
	})

	return engine{
		assignments: assignments,
		trips:       service.NewTripService(tripRepo, assignmentRepo, summaryStore),
	}
}

// wireServer builds the HTTP server.
func wireServer(e engine, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config, logger *slog.Logger) *http.Server {
	router := app.NewRouter(app.RouterDeps{
		RunHandler:   handler.NewRunHandler(e.assignments, e.trips),
		TripHandler:  handler.NewTripHandler(e.trips, e.assignments),
		RedisClient:  redisClient,
		NewRelicApp:  nrApp,
		Logger:       logger,
		TriggerRate:  rate.Limit(cfg.Server.TriggerRatePerS),
		TriggerBurst: cfg.Server.TriggerBurst,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
