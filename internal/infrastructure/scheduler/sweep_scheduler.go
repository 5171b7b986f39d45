package scheduler

import (
	"context"
	"sync"
	"time"

	appbilling "github.com/BoweryJG/osbackend-sub001/internal/application/billing"
	"go.uber.org/zap"
)

// SweepRunner runs one overdue sweep pass
type SweepRunner interface {
	Run(ctx context.Context) (*appbilling.SweepResult, error)
}

// RetentionPurger removes expired data after a successful sweep
type RetentionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// SweepSchedulerConfig holds configuration for the daily sweep trigger
type SweepSchedulerConfig struct {
	// Hour and Minute are the local time the sweep runs each day
	Hour   int
	Minute int

	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration

	// JobTimeout bounds a single sweep attempt
	JobTimeout time.Duration

	// RetryAttempts is how many times a failed sweep is retried
	RetryAttempts int

	// RetryDelay is the pause between retry attempts
	RetryDelay time.Duration
}

// DefaultSweepSchedulerConfig returns default sweep scheduler configuration
func DefaultSweepSchedulerConfig() SweepSchedulerConfig {
	return SweepSchedulerConfig{
		Hour:          2,
		Minute:        30,
		CheckInterval: time.Minute,
		JobTimeout:    10 * time.Minute,
		RetryAttempts: 3,
		RetryDelay:    time.Minute,
	}
}

// SweepScheduler triggers the overdue sweep once per day. The sweep
// itself is idempotent and lock-guarded, so a duplicate trigger after
// a restart is harmless.
type SweepScheduler struct {
	config SweepSchedulerConfig
	runner SweepRunner
	purger RetentionPurger
	logger *zap.Logger

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewSweepScheduler creates a new sweep scheduler
func NewSweepScheduler(config SweepSchedulerConfig, runner SweepRunner, logger *zap.Logger) *SweepScheduler {
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	return &SweepScheduler{
		config: config,
		runner: runner,
		logger: logger,
	}
}

// SetRetentionPurger attaches a data retention purge that runs after
// each successful sweep, on the instance that won the sweep lock
func (s *SweepScheduler) SetRetentionPurger(purger RetentionPurger) {
	s.purger = purger
}

// Start starts the scheduler loop
func (s *SweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Sweep scheduler started",
		zap.Int("hour", s.config.Hour),
		zap.Int("minute", s.config.Minute),
		zap.Duration("check_interval", s.config.CheckInterval),
	)

	return nil
}

// Stop stops the scheduler and waits for an in-flight sweep to finish
func (s *SweepScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Sweep scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop checks periodically if it's time to run the daily sweep
func (s *SweepScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger runs the sweep when the scheduled time for today has
// passed and no run happened yet. Comparing against the whole rest of
// the day means a tick delayed past the exact minute still fires.
func (s *SweepScheduler) checkAndTrigger(ctx context.Context) {
	now := time.Now()
	currentDate := now.Format("2006-01-02")

	scheduled := time.Date(now.Year(), now.Month(), now.Day(),
		s.config.Hour, s.config.Minute, 0, 0, now.Location())
	if now.Before(scheduled) {
		return
	}

	s.mu.Lock()
	if s.lastRunDate == currentDate {
		s.mu.Unlock()
		return
	}
	s.lastRunDate = currentDate
	s.mu.Unlock()

	s.logger.Info("Triggering daily overdue sweep")
	s.runWithRetries(ctx)
}

// runWithRetries executes the sweep, retrying failed attempts
func (s *SweepScheduler) runWithRetries(ctx context.Context) {
	attempts := s.config.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := s.runOnce(ctx)
		if err == nil {
			s.logger.Info("Overdue sweep completed",
				zap.Int("attempt", attempt),
				zap.Bool("ran", result.Ran),
				zap.Int("invoices_overdue", result.InvoicesOverdue),
				zap.Int("tenants_suspended", result.TenantsSuspended),
			)
			if result.Ran {
				s.purgeExpired(ctx)
			}
			return
		}

		s.logger.Error("Overdue sweep attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Error(err),
		)

		if attempt == attempts {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.config.RetryDelay):
		}
	}
}

// purgeExpired runs the retention purge. Failures are logged only;
// records left behind are removed by the next day's run.
func (s *SweepScheduler) purgeExpired(ctx context.Context) {
	if s.purger == nil {
		return
	}
	deleted, err := s.purger.PurgeExpired(ctx)
	if err != nil {
		s.logger.Error("Retention purge failed", zap.Error(err))
		return
	}
	s.logger.Info("Retention purge completed", zap.Int64("deleted", deleted))
}

// runOnce runs one sweep attempt bounded by the job timeout
func (s *SweepScheduler) runOnce(ctx context.Context) (*appbilling.SweepResult, error) {
	if s.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.JobTimeout)
		defer cancel()
	}
	return s.runner.Run(ctx)
}
