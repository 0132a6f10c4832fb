package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-tickets/internal/observability"
	"github.com/spec-kit/maintenance-tickets/internal/service"
)

// DefaultMigrationSchedule runs the sweep daily at 03:00.
const DefaultMigrationSchedule = "0 3 * * *"

// AttachmentSweeper migrates legacy attachments across all tickets.
type AttachmentSweeper interface {
	MigrateAll(ctx context.Context) (service.MigrationSummary, error)
}

// MigrationScheduler runs the legacy attachment sweep on a cron schedule.
type MigrationScheduler struct {
	sweeper  AttachmentSweeper
	metrics  *observability.Metrics
	logger   *zap.Logger
	schedule string
	timeout  time.Duration

	mu        sync.Mutex
	scheduler *cron.Cron
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewMigrationScheduler validates schedule and builds a stopped scheduler.
func NewMigrationScheduler(sweeper AttachmentSweeper, schedule string, metrics *observability.Metrics, logger *zap.Logger) (*MigrationScheduler, error) {
	if schedule == "" {
		schedule = DefaultMigrationSchedule
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid migration schedule %q: %w", schedule, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MigrationScheduler{
		sweeper:  sweeper,
		metrics:  metrics,
		logger:   logger,
		schedule: schedule,
		timeout:  time.Hour,
	}, nil
}

// Start registers the sweep and starts the cron loop.
func (s *MigrationScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scheduler != nil {
		return nil
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	c := cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(s.schedule, func() { s.RunOnce(s.ctx) }); err != nil {
		s.cancel()
		return fmt.Errorf("register migration sweep: %w", err)
	}
	c.Start()
	s.scheduler = c
	s.logger.Info("attachment migration sweep scheduled", zap.String("schedule", s.schedule))
	return nil
}

// Stop cancels a running sweep and waits for it to return or ctx to expire.
func (s *MigrationScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	c := s.scheduler
	s.scheduler = nil
	cancel := s.cancel
	s.mu.Unlock()
	if c == nil {
		return nil
	}
	cancel()
	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce performs one sweep and records its outcome.
func (s *MigrationScheduler) RunOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	summary, err := s.sweeper.MigrateAll(ctx)
	if err != nil {
		s.logger.Error("attachment migration sweep failed", zap.Error(err))
		s.metrics.RecordError("cron", "migrate-all", "SWEEP_FAILED")
		return
	}
	s.metrics.RecordMigration(summary.MigratedTickets, summary.ErrorsCount, time.Since(started))
	s.logger.Info("attachment migration sweep completed",
		zap.Int("total_tickets", summary.TotalTickets),
		zap.Int("migrated_tickets", summary.MigratedTickets),
		zap.Int("errors", summary.ErrorsCount),
		zap.Duration("duration", time.Since(started)))
}
