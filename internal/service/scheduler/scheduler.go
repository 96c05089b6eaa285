// internal/service/scheduler/scheduler.go

package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/retry-go"
	"github.com/google/uuid"

	"trendcast/internal/domain/trend"
)

// RunStore persists prediction runs
type RunStore interface {
	SaveRun(ctx context.Context, r *trend.Result) error
	SaveRawPosts(ctx context.Context, runID string, platform trend.Platform, records []json.RawMessage, collectedAt time.Time) error
}

// EventPublisher announces completed runs
type EventPublisher interface {
	PublishRun(ctx context.Context, r *trend.Result) error
}

// RetryPolicy bounds how persistence failures are retried
type RetryPolicy struct {
	Attempts uint
	Delay    time.Duration
	MaxDelay time.Duration
}

// Config contains configuration for the scheduler
type Config struct {
	Interval   time.Duration
	ArchiveRaw bool
	Retry      RetryPolicy
}

// Scheduler reruns the predictor on an interval and hands every result to
// the store and the event bus. Store and publisher are optional.
type Scheduler struct {
	predictor trend.Predictor
	store     RunStore
	publisher EventPublisher
	config    Config
	logger    *slog.Logger
	newID     func() string
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewScheduler creates a new scheduler
func NewScheduler(
	predictor trend.Predictor,
	store RunStore,
	publisher EventPublisher,
	config Config,
	logger *slog.Logger,
) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = 24 * time.Hour
	}
	if config.Retry.Attempts == 0 {
		config.Retry.Attempts = 3
	}
	if config.Retry.Delay <= 0 {
		config.Retry.Delay = 5 * time.Second
	}
	if config.Retry.MaxDelay <= 0 {
		config.Retry.MaxDelay = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		predictor: predictor,
		store:     store,
		publisher: publisher,
		config:    config,
		logger:    logger,
		newID:     func() string { return uuid.New().String() },
	}
}

// Start runs a first cycle right away and then one per interval until the
// context is cancelled or Stop is called
func (s *Scheduler) Start(ctx context.Context) error {
	if s.cancel != nil {
		return errors.New("scheduler already started")
	}

	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.loop(ctx)
	return nil
}

// Stop signals the loop to exit and waits for the current cycle
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	c := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(c)
	}()

	select {
	case <-c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	s.runLogged(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runLogged(ctx)
		}
	}
}

func (s *Scheduler) runLogged(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("scheduled prediction run failed", "error", err)
	}
}

// RunOnce executes one predict, persist and publish cycle
func (s *Scheduler) RunOnce(ctx context.Context) (*trend.Result, error) {
	result, err := s.predictor.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("running predictor: %w", err)
	}
	result.RunID = s.newID()

	if s.store != nil {
		if err := s.persist(ctx, result); err != nil {
			return result, err
		}
	}

	if s.publisher != nil {
		if err := s.publisher.PublishRun(ctx, result); err != nil {
			// artifacts and the database already hold the run
			s.logger.Warn("publishing run event failed", "run_id", result.RunID, "error", err)
		}
	}

	s.logger.Info("prediction cycle completed", "run_id", result.RunID)
	return result, nil
}

func (s *Scheduler) persist(ctx context.Context, result *trend.Result) error {
	if err := s.withRetry(ctx, "save run", func() error {
		return s.store.SaveRun(ctx, result)
	}); err != nil {
		return fmt.Errorf("saving run %s: %w", result.RunID, err)
	}

	if !s.config.ArchiveRaw {
		return nil
	}

	// archive the records the run scored
	for _, p := range trend.Platforms {
		records := result.Inputs[p]
		if err := s.withRetry(ctx, "archive raw posts", func() error {
			return s.store.SaveRawPosts(ctx, result.RunID, p, records, result.GeneratedAt)
		}); err != nil {
			return fmt.Errorf("archiving raw %s posts: %w", p, err)
		}
	}
	return nil
}

func (s *Scheduler) withRetry(ctx context.Context, op string, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(s.config.Retry.Attempts),
		retry.Delay(s.config.Retry.Delay),
		retry.MaxDelay(s.config.Retry.MaxDelay),
		retry.DelayType(retry.FullJitterBackoffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Warn("retrying persistence", "operation", op, "attempt", n+1, "error", err)
		}),
	)
}
