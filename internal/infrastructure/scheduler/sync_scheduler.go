package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	appsync "github.com/storefront/backend/internal/application/sync"
)

// SyncRunner runs one full reconciliation pass against the ERP feed
type SyncRunner interface {
	SyncAll(ctx context.Context) (*appsync.SyncReport, error)
}

// SyncSchedulerConfig holds the scheduler timing settings
type SyncSchedulerConfig struct {
	// Interval between reconciliation runs
	Interval time.Duration
}

// DefaultSyncSchedulerConfig returns default scheduler configuration
func DefaultSyncSchedulerConfig() SyncSchedulerConfig {
	return SyncSchedulerConfig{
		Interval: 15 * time.Minute,
	}
}

// SyncScheduler runs the ERP reconciliation on a fixed interval. Each run
// goes to completion; a failed run is not retried early, the next tick
// repeats the whole pass.
type SyncScheduler struct {
	config SyncSchedulerConfig
	runner SyncRunner
	logger *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	lastRun    time.Time
	lastReport *appsync.SyncReport
	lastErr    error
}

// SyncStatus is a point-in-time snapshot of the scheduler
type SyncStatus struct {
	Running    bool
	LastRun    time.Time
	LastReport *appsync.SyncReport
	LastError  string
}

// NewSyncScheduler creates a new SyncScheduler
func NewSyncScheduler(config SyncSchedulerConfig, runner SyncRunner, logger *zap.Logger) *SyncScheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultSyncSchedulerConfig().Interval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncScheduler{
		config: config,
		runner: runner,
		logger: logger,
	}
}

// Start begins the periodic loop. The first run happens immediately so a
// fresh deployment does not serve an empty catalog for a full interval.
func (s *SyncScheduler) Start(ctx context.Context) error {
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

	s.logger.Info("Sync scheduler started",
		zap.Duration("interval", s.config.Interval))

	return nil
}

// Stop halts the loop and waits for an in-flight run to finish
func (s *SyncScheduler) Stop(ctx context.Context) error {
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
		s.logger.Info("Sync scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SyncScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	s.runOnce(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// RunOnce triggers a reconciliation pass outside the schedule, typically from
// the manual sync endpoint
func (s *SyncScheduler) RunOnce(ctx context.Context) (*appsync.SyncReport, error) {
	return s.runOnce(ctx)
}

func (s *SyncScheduler) runOnce(ctx context.Context) (*appsync.SyncReport, error) {
	report, err := s.runner.SyncAll(ctx)

	s.mu.Lock()
	s.lastRun = time.Now()
	s.lastReport = report
	s.lastErr = err
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("Sync run failed", zap.Error(err))
		return nil, err
	}
	return report, nil
}

// Status returns the current scheduler state
func (s *SyncScheduler) Status() SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := SyncStatus{
		Running:    s.isRunning,
		LastRun:    s.lastRun,
		LastReport: s.lastReport,
	}
	if s.lastErr != nil {
		status.LastError = s.lastErr.Error()
	}
	return status
}
