package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/inesruizblach/RateFlow/internal/custom_err"
	"github.com/inesruizblach/RateFlow/internal/etl"
	"github.com/inesruizblach/RateFlow/internal/kafka"
	"github.com/inesruizblach/RateFlow/internal/models"
	"github.com/inesruizblach/RateFlow/internal/source"
	"github.com/inesruizblach/RateFlow/internal/storage"
)

// Runner is the trigger surface the HTTP layer calls for out-of-band runs.
type Runner interface {
	RunOnce(ctx context.Context, trigger models.RunTrigger) (models.RunResult, error)
}

type Config struct {
	Base          string
	Interval      time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// Scheduler drives periodic fetch->normalize->append runs. Timer-driven and
// manual runs share one Idle/Running gate: at most one run is in flight, a
// tick that lands during a run is skipped, and a failed run never stops the
// loop.
type Scheduler struct {
	source   source.RateSource
	storage  storage.Storage
	producer kafka.Producer
	cfg      Config
	log      *slog.Logger

	running atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

func New(src source.RateSource, st storage.Storage, producer kafka.Producer, cfg Config, log *slog.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	return &Scheduler{
		source:   src,
		storage:  st,
		producer: producer,
		cfg:      cfg,
		log:      log,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the ticker loop. It returns immediately; use Stop to
// terminate the loop.
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()

		s.log.Info("scheduler started",
			slog.String("base", s.cfg.Base),
			slog.Duration("interval", s.cfg.Interval))

		for {
			select {
			case <-s.stopCh:
				s.log.Info("scheduler stopped")
				return
			case <-ticker.C:
				res, err := s.RunOnce(context.Background(), models.TriggerSchedule)
				switch {
				case errors.Is(err, custom_err.ErrRunInProgress):
					s.log.Warn("tick skipped, previous run still in progress")
				case err != nil:
					// The failure is recorded and the loop lives on.
					s.log.Error("scheduled run failed",
						slog.String("run_id", res.RunID.String()),
						slog.String("error", err.Error()))
				default:
					s.log.Info("scheduled run completed",
						slog.String("run_id", res.RunID.String()),
						slog.Int("rows_written", res.RowsWritten))
				}
			}
		}
	}()
}

// Stop terminates the loop and waits for an in-flight run to finish, up to
// the context deadline.
func (s *Scheduler) Stop(ctx context.Context) error {
	close(s.stopCh)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// RunOnce performs one complete fetch->normalize->append cycle. A second
// caller while a run is in flight gets ErrRunInProgress instead of a
// concurrent append.
func (s *Scheduler) RunOnce(ctx context.Context, trigger models.RunTrigger) (models.RunResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return models.RunResult{}, custom_err.ErrRunInProgress
	}
	defer s.running.Store(false)

	result := models.RunResult{
		RunID:     uuid.New(),
		Trigger:   trigger,
		Base:      s.cfg.Base,
		StartedAt: time.Now().UTC(),
	}

	log := s.log.With(slog.String("run_id", result.RunID.String()), slog.String("trigger", string(trigger)))
	log.Info("run started", slog.String("base", s.cfg.Base))

	snap, err := s.fetchWithRetry(ctx, log)
	if err != nil {
		return s.fail(result, log, err)
	}

	records := etl.Normalize(*snap)

	written, err := s.storage.Append(ctx, records)
	if err != nil {
		return s.fail(result, log, err)
	}

	date := snap.Date
	if len(records) > 0 {
		date = records[0].Date
	}

	result.Ok = true
	result.RowsWritten = written
	result.FinishedAt = time.Now().UTC()

	log.Info("run completed",
		slog.Int("rows_written", written),
		slog.String("date", date))

	s.publishRunCompleted(ctx, result, date, log)

	return result, nil
}

// fetchWithRetry retries transient source failures within the run. A
// malformed payload is not retried: refetching cannot fix its shape.
func (s *Scheduler) fetchWithRetry(ctx context.Context, log *slog.Logger) (*models.RateSnapshot, error) {
	var lastErr error
	for attempt := 0; attempt <= s.cfg.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.cfg.RetryDelay * time.Duration(1<<(attempt-1))):
			}
		}

		snap, err := s.source.Fetch(ctx, s.cfg.Base)
		if err == nil {
			return snap, nil
		}
		lastErr = err

		if !errors.Is(err, custom_err.ErrSourceUnavailable) {
			return nil, err
		}
		log.Warn("source unavailable",
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()))
	}
	return nil, lastErr
}

func (s *Scheduler) fail(result models.RunResult, log *slog.Logger, err error) (models.RunResult, error) {
	result.Ok = false
	result.Error = err.Error()
	result.FinishedAt = time.Now().UTC()
	log.Error("run failed", slog.String("error", err.Error()))
	return result, err
}

func (s *Scheduler) publishRunCompleted(ctx context.Context, result models.RunResult, date string, log *slog.Logger) {
	event := models.RunCompletedEvent{
		RunID:       result.RunID.String(),
		Trigger:     result.Trigger,
		Base:        result.Base,
		Date:        date,
		RowsWritten: result.RowsWritten,
		FinishedAt:  result.FinishedAt,
	}

	sendCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Best effort: the run already succeeded, a lost event must not fail it.
	if err := s.producer.SendRunCompletedEvent(sendCtx, event); err != nil {
		log.Warn("failed to publish run completed event", slog.String("error", err.Error()))
	}
}
