// Package scheduler runs the service's periodic maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/iliyamo/food-journal-api/internal/service"
)

// Task is one periodic job.  Handler errors are logged, never propagated.
type Task struct {
	Name        string
	Description string
	Every       time.Duration
	Handler     func(ctx context.Context) error
}

// Service owns a gocron scheduler and the tasks registered on it.
type Service struct {
	scheduler *gocron.Scheduler
	log       *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

// New creates a scheduler running in UTC.  Jobs of the same task never
// overlap.
func New(log *zap.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Service{
		scheduler: s,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Register schedules t every t.Every, with the first run immediately.
func (s *Service) Register(t Task) error {
	if t.Every <= 0 {
		return fmt.Errorf("task %s: interval must be positive", t.Name)
	}
	_, err := s.scheduler.Every(t.Every).StartImmediately().Tag(t.Name).Do(func() {
		s.run(t)
	})
	if err != nil {
		return fmt.Errorf("schedule task %s: %w", t.Name, err)
	}
	s.log.Info("registered task",
		zap.String("task", t.Name),
		zap.String("description", t.Description),
		zap.Duration("every", t.Every))
	return nil
}

func (s *Service) run(t Task) {
	s.log.Info("running scheduled task", zap.String("task", t.Name))
	if err := t.Handler(s.ctx); err != nil {
		s.log.Error("scheduled task failed", zap.String("task", t.Name), zap.Error(err))
		return
	}
	s.log.Info("scheduled task completed", zap.String("task", t.Name))
}

// Start begins running the scheduler in the background.
func (s *Service) Start() {
	s.log.Info("starting scheduler")
	s.scheduler.StartAsync()
}

// Stop halts all scheduled jobs and cancels any in-flight handler context.
func (s *Service) Stop() {
	s.log.Info("stopping scheduler")
	s.scheduler.Stop()
	s.cancel()
}

// BlacklistCleanupTaskName is the tag of the revoked-token pruning job.
const BlacklistCleanupTaskName = "blacklist_cleanup"

// BlacklistCleanupTask prunes revocations older than cutoff every interval.
// cutoff should be the token lifetime plus a margin.
func BlacklistCleanupTask(reg *service.RevocationRegistry, cutoff, every time.Duration, log *zap.Logger) Task {
	return Task{
		Name:        BlacklistCleanupTaskName,
		Description: "Delete blacklisted tokens older than their expiration window",
		Every:       every,
		Handler: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, time.Minute)
			defer cancel()
			n, err := reg.PruneOlderThan(ctx, cutoff)
			if err != nil {
				return err
			}
			log.Info("pruned blacklisted tokens", zap.Int64("deleted", n), zap.Duration("cutoff", cutoff))
			return nil
		},
	}
}
