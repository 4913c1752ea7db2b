package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/campus-agents/campus-hub/config"
	"github.com/campus-agents/campus-hub/internal/application/orchestrator"
	"github.com/campus-agents/campus-hub/internal/application/specialist"
	"github.com/campus-agents/campus-hub/internal/domain/notification"
	"github.com/campus-agents/campus-hub/internal/infrastructure/messaging"
	"github.com/campus-agents/campus-hub/internal/infrastructure/observability"
	"github.com/campus-agents/campus-hub/internal/infrastructure/persistence/memory"
	"github.com/campus-agents/campus-hub/internal/infrastructure/persistence/postgres"
	"github.com/campus-agents/campus-hub/internal/infrastructure/scheduler"
	"github.com/campus-agents/campus-hub/internal/infrastructure/scheduler/jobs"
	httpapi "github.com/campus-agents/campus-hub/internal/interface/http"
	"github.com/campus-agents/campus-hub/internal/interface/http/handlers"
	"github.com/campus-agents/campus-hub/pkg/logger"
)

// newServeCmd creates the "campus serve" subcommand.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, background jobs and notification delivery",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЛОГИРОВАНИЕ И ТРАССИРОВКА
	// ─────────────────────────────────────────────────────────────────────────
	log := newLogger(cfg, os.Stdout)
	defer func() { _ = log.Sync() }()

	log.Info("starting campus hub",
		logger.String("version", version),
		logger.String("timezone", cfg.App.Timezone),
		logger.String("addr", cfg.HTTP.Addr),
	)

	tracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName: cfg.App.Name,
		Exporter:    cfg.Observability.TracingExporter,
		Output:      os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("failed to init tracing: %w", err)
	}
	defer func() {
		if err := tracing.Shutdown(context.Background()); err != nil {
			log.Warn("tracing shutdown failed", logger.Err(err))
		}
	}()

	var (
		metrics        *observability.Metrics
		actionMetrics  orchestrator.Metrics
		httpMetrics    httpapi.Metrics
		metricsHandler http.Handler
	)
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(true)
		actionMetrics = metrics
		httpMetrics = metrics
		metricsHandler = metrics.Handler()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. ШИНА УВЕДОМЛЕНИЙ
	// ─────────────────────────────────────────────────────────────────────────
	busCfg := messaging.DefaultBusConfig()
	busCfg.Logger = log
	if metrics != nil {
		busCfg.Observer = metrics
	}
	bus := messaging.NewBus(busCfg)
	defer func() { _ = bus.Close() }()

	health := handlers.NewCompositeHealthChecker(version)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Redis.Enabled {
		log.Info("connecting to Redis...")
		rdb, err := newRedisClient(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer func() { _ = rdb.Close() }()

		publisher, err := messaging.NewRedisPublisher(rdb, publisherConfig(cfg, log))
		if err != nil {
			return err
		}
		if err := bus.Subscribe(publisher); err != nil {
			return err
		}
		health.AddCheck("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
		log.Info("publishing notifications to Redis", logger.String("channel", publisher.Channel()))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЖУРНАЛ УВЕДОМЛЕНИЙ (PostgreSQL, опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var journal *postgres.Journal
	if cfg.JournalEnabled() {
		log.Info("connecting to database...")
		conn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer conn.Close()

		if cfg.Database.AutoMigrate {
			if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		journal = postgres.NewJournal(conn, log)
		if err := bus.Subscribe(journal); err != nil {
			return err
		}
		health.AddCheck("postgres", conn.HealthCheck)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. КООРДИНАТОР
	// ─────────────────────────────────────────────────────────────────────────
	coord, err := newCampus(ctx, cfg, bus, metrics, actionMetrics, tracing, log)
	if err != nil {
		return err
	}
	defer func() { _ = coord.Close() }()

	health.AddCheck("campus", func(ctx context.Context) error {
		_, err := coord.Student(ctx)
		return err
	})

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ФОНОВЫЕ ЗАДАЧИ
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched, err = newScheduler(cfg, coord, journal, metrics, log)
		if err != nil {
			return err
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. HTTP API
	// ─────────────────────────────────────────────────────────────────────────
	httpCfg := httpapi.DefaultConfig()
	httpCfg.Addr = cfg.HTTP.Addr
	httpCfg.RateLimit = cfg.HTTP.RateLimit
	httpCfg.RateBurst = cfg.HTTP.RateBurst
	httpCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	httpCfg.WriteTimeout = cfg.HTTP.WriteTimeout

	server, err := httpapi.NewServer(httpCfg, httpapi.Dependencies{
		Campus:         coord,
		HealthChecker:  health,
		Metrics:        httpMetrics,
		MetricsHandler: metricsHandler,
		Logger:         log,
	})
	if err != nil {
		return err
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ЗАПУСК И GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx, cfg.App.ShutdownTimeout)
	})
	if sched != nil {
		g.Go(func() error {
			return sched.Run(gctx)
		})
	}

	log.Info("campus hub is running")
	err = g.Wait()

	log.Info("starting graceful shutdown...", logger.Duration("timeout", cfg.App.ShutdownTimeout))
	_ = coord.Close()
	_ = bus.Close()

	if dead := bus.DeadLetters().Size(); dead > 0 {
		log.Warn("undelivered notifications", logger.Int("dead_letters", dead))
	}
	if err != nil {
		return err
	}
	log.Info("shutdown completed successfully")
	return nil
}

// newCampus собирает координатора поверх шины.
func newCampus(
	ctx context.Context,
	cfg *config.Config,
	bus *messaging.Bus,
	metrics *observability.Metrics,
	actionMetrics orchestrator.Metrics,
	tracing *observability.Tracing,
	log *logger.Logger,
) (*orchestrator.Coordinator, error) {
	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	var sink notification.Sink = bus
	if metrics != nil {
		sink = metrics.CountingSink(bus)
	}

	oc := orchestrator.DefaultConfig()
	oc.Catalog = cat
	oc.Students = memory.NewStudentRepository()
	oc.Sink = sink
	oc.Delays = specialist.DefaultDelays(cfg.Campus.TimeUnit)
	oc.Mentor = specialist.MentorConfig{
		InactivityThreshold: cfg.Campus.InactivityThreshold,
		Location:            cfg.App.Location,
	}
	oc.StudentName = cfg.Campus.StudentName
	oc.Interests = cfg.Campus.Interests
	oc.Middlewares = orchestrator.DefaultMiddlewares(log, tracing.Tracer())
	oc.Logger = log
	oc.Metrics = actionMetrics
	oc.Tracer = tracing.Tracer()

	coord, err := orchestrator.New(ctx, oc)
	if err != nil {
		return nil, fmt.Errorf("failed to start campus: %w", err)
	}
	return coord, nil
}

// newScheduler регистрирует мониторинг активности и очистку журнала.
func newScheduler(
	cfg *config.Config,
	coord *orchestrator.Coordinator,
	journal *postgres.Journal,
	metrics *observability.Metrics,
	log *logger.Logger,
) (*scheduler.Scheduler, error) {
	sc := scheduler.DefaultSchedulerConfig()
	sc.Logger = log
	sc.Timezone = cfg.App.Location
	sched := scheduler.NewScheduler(sc)

	monitorSchedule, err := scheduler.ParseSchedule(cfg.Scheduler.MonitorSchedule, cfg.App.Location)
	if err != nil {
		return nil, err
	}
	checkCfg := jobs.DefaultCheckActivityConfig()
	checkCfg.Timeout = cfg.Scheduler.JobTimeout
	if err := sched.Register(jobs.NewCheckActivityJob(coord, log, checkCfg), monitorSchedule); err != nil {
		return nil, err
	}

	if journal != nil {
		pruneSchedule, err := scheduler.ParseSchedule(cfg.Scheduler.PruneSchedule, cfg.App.Location)
		if err != nil {
			return nil, err
		}
		pruneCfg := jobs.DefaultPruneJournalConfig()
		pruneCfg.Retention = cfg.Database.JournalRetention
		pruneCfg.Timeout = cfg.Scheduler.JobTimeout
		if err := sched.Register(jobs.NewPruneJournalJob(journal, log, pruneCfg), pruneSchedule); err != nil {
			return nil, err
		}
	}

	if metrics != nil {
		sched.OnJobComplete(metrics.ObserveJob)
	}
	return sched, nil
}
