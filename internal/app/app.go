package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inesruizblach/RateFlow/internal/analytics"
	"github.com/inesruizblach/RateFlow/internal/api/handlers"
	"github.com/inesruizblach/RateFlow/internal/api/middlew"
	"github.com/inesruizblach/RateFlow/internal/config"
	"github.com/inesruizblach/RateFlow/internal/db"
	"github.com/inesruizblach/RateFlow/internal/kafka"
	"github.com/inesruizblach/RateFlow/internal/scheduler"
	"github.com/inesruizblach/RateFlow/internal/server"
	"github.com/inesruizblach/RateFlow/internal/source"
	"github.com/inesruizblach/RateFlow/internal/storage/postgres"
	"github.com/inesruizblach/RateFlow/pkg/logger"
	"github.com/inesruizblach/RateFlow/pkg/response"
)

type App struct {
	log           *slog.Logger
	logFile       *os.File
	cfg           *config.Config
	pool          *pgxpool.Pool
	storage       *postgres.PostgresStorage
	kafkaProducer kafka.Producer
	scheduler     *scheduler.Scheduler
	server        *server.Server
}

func NewApp() (*App, error) {
	loggerWithFile := logger.NewLoggerWithFile("rateflow.log")
	log := loggerWithFile.Logger
	log.Info("initializing rateflow")

	cfg, err := config.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log.Info("configuration loaded",
		slog.String("port", cfg.HTTPPort),
		slog.String("base", cfg.Source.Base))

	log.Info("running database migrations")
	if err := db.RunMigrations(cfg.DB.MigrationURL(), "migrations"); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("migrations applied")

	poolCfg := db.PoolConfig{
		MaxConns:          20,
		MinConns:          2,
		HealthCheckPeriod: 30 * time.Second,
		PoolTimeout:       5 * time.Second,
		RetryAttempts:     5,
		RetryDelay:        1 * time.Second,
	}

	pool, err := db.NewPool(context.Background(), cfg.DB.DSN(), poolCfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to the database: %w", err)
	}

	store := postgres.NewPostgresStorage(pool)
	if err := store.VerifySchema(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("schema verification failed: %w", err)
	}
	log.Info("schema verified")

	rateSource := source.NewClient(cfg.Source.URL, cfg.Source.Timeout, log)
	log.Info("rate source client initialized", slog.String("url", cfg.Source.URL))

	var kafkaProducer kafka.Producer
	if cfg.Kafka.Enabled {
		log.Info("initializing kafka producer", slog.Any("brokers", cfg.Kafka.Brokers))
		kafkaProducer, err = kafka.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to initialize kafka: %w", err)
		}
	} else {
		log.Info("kafka disabled in configuration")
		kafkaProducer = kafka.NewNoOpProducer(log)
	}

	sched := scheduler.New(rateSource, store, kafkaProducer, scheduler.Config{
		Base:          cfg.Source.Base,
		Interval:      cfg.Scheduler.Interval,
		RetryAttempts: cfg.Source.RetryAttempts,
		RetryDelay:    cfg.Source.RetryDelay,
	}, log)

	srv := server.NewServer(cfg.HTTPPort)
	log.Info("server initialized", slog.String("port", cfg.HTTPPort))
	srv.Router.Use(middleware.RequestID)
	srv.Router.Use(middlew.WithLogger(log))
	srv.Router.Use(middleware.RealIP)
	srv.Router.Use(middleware.Recoverer)

	return &App{
		log:           log,
		logFile:       loggerWithFile.LogFile,
		cfg:           cfg,
		pool:          pool,
		storage:       store,
		kafkaProducer: kafkaProducer,
		scheduler:     sched,
		server:        srv,
	}, nil
}

// BuildAPILayer wires the analytics and trigger surfaces onto the router.
func (a *App) BuildAPILayer() {
	analyticsService := analytics.NewService(a.storage, a.cfg.Source.Base, a.log)

	ratesHandler := handlers.NewRatesHandler(analyticsService)
	runHandler := handlers.NewRunHandler(a.scheduler)

	a.server.Router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSONSuccess(w, a.log, http.StatusOK, map[string]string{"status": "ok"})
	})

	a.server.Router.Post("/api/v1/runs", runHandler.TriggerRun)
	a.server.Router.Get("/api/v1/rates", ratesHandler.GetLatest)
	a.server.Router.Get("/api/v1/rates/top-movers", ratesHandler.GetTopMovers)
	a.server.Router.Get("/api/v1/rates/trend", ratesHandler.GetTrend)
	a.server.Router.Get("/api/v1/rates/convert", ratesHandler.Convert)

	a.log.Info("api layer built and routes registered")
}

func (a *App) Run() error {
	if a.cfg.Scheduler.Enabled {
		a.scheduler.Start()
	} else {
		a.log.Info("scheduler disabled in configuration, manual runs only")
	}

	a.log.Info("server starting")

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("failed to run server: %w", err)
		}
	}()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case sig := <-shutdownChan:
		a.log.Info("shutdown signal received", slog.String("signal", sig.String()))
	}

	a.log.Info("application stopping")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a.log.Info("stopping scheduler")
	if err := a.scheduler.Stop(ctx); err != nil {
		a.log.Error("failed to stop scheduler", slog.String("error", err.Error()))
	}

	if err := a.server.Shutdown(ctx); err != nil {
		a.log.Error("failed to stop http server", slog.String("error", err.Error()))
	}

	a.log.Info("closing kafka producer")
	if err := a.kafkaProducer.Close(); err != nil {
		a.log.Error("failed to close kafka producer", slog.String("error", err.Error()))
	}

	a.log.Info("closing database connection")
	a.storage.Close()

	a.log.Info("application stopped")
	return a.logFile.Close()
}
