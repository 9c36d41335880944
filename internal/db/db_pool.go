package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PoolConfig struct {
	MaxConns          int
	MinConns          int
	HealthCheckPeriod time.Duration
	PoolTimeout       time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration
}

func NewPool(ctx context.Context, dsn string, cfg PoolConfig, log *slog.Logger) (*pgxpool.Pool, error) {
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = 20
	}
	if cfg.MinConns < 0 {
		cfg.MinConns = 2
	}
	if cfg.HealthCheckPeriod <= 0 {
		cfg.HealthCheckPeriod = 30 * time.Second
	}
	if cfg.PoolTimeout <= 0 {
		cfg.PoolTimeout = 5 * time.Second
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 5
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 1 * time.Second
	}

	conf, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	conf.MaxConns = int32(cfg.MaxConns)
	conf.MinConns = int32(cfg.MinConns)
	conf.HealthCheckPeriod = cfg.HealthCheckPeriod
	conf.MaxConnLifetime = 30 * time.Minute
	conf.MaxConnIdleTime = 5 * time.Minute
	conf.ConnConfig.RuntimeParams["application_name"] = "rateflow"
	conf.ConnConfig.ConnectTimeout = cfg.PoolTimeout

	var pool *pgxpool.Pool
	for i := 0; i < cfg.RetryAttempts; i++ {
		pool, err = pgxpool.NewWithConfig(ctx, conf)
		if err != nil {
			log.Warn("failed to create connection pool",
				slog.Int("attempt", i+1),
				slog.String("error", err.Error()))
			time.Sleep(cfg.RetryDelay * time.Duration(1<<i))
			continue
		}

		if err = pool.Ping(ctx); err != nil {
			log.Warn("database ping failed",
				slog.Int("attempt", i+1),
				slog.String("error", err.Error()))
			pool.Close()
			time.Sleep(cfg.RetryDelay * time.Duration(1<<i))
			continue
		}

		log.Info("database connection established")
		return pool, nil
	}

	return nil, fmt.Errorf("failed to create connection pool after %d attempts: %w", cfg.RetryAttempts, err)
}
