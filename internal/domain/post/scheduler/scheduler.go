package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/vadim/linkbrand/internal/domain/post/entity"
	"github.com/vadim/linkbrand/internal/domain/post/policy"
)

// AnalyticsSyncer defines the workflow operations the scheduler drives
type AnalyticsSyncer interface {
	SyncUser(ctx context.Context, userID string) (*policy.SyncSummary, error)
	DetectStuck(ctx context.Context, olderThan time.Duration) ([]entity.Post, error)
}

// UserLister lists users that have an aggregator key on file
type UserLister interface {
	ListUsersWithAyrshareKey(ctx context.Context) ([]string, error)
}

// Scheduler periodically refreshes analytics for every connected user
// and reports posts stuck in flight
type Scheduler struct {
	syncer     AnalyticsSyncer
	users      UserLister
	interval   time.Duration
	stuckAfter time.Duration
	startDelay time.Duration
	logger     *slog.Logger
	stopCh     chan struct{}
	cancel     context.CancelFunc // stops in-flight vendor calls
	wg         sync.WaitGroup
	running    bool
	mu         sync.Mutex
}

// Config holds configuration for the analytics scheduler
type Config struct {
	Interval   time.Duration
	StuckAfter time.Duration
	StartDelay time.Duration
}

// New creates a new analytics scheduler
func New(syncer AnalyticsSyncer, users UserLister, cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.Interval == 0 {
		cfg.Interval = time.Hour
	}
	if cfg.StuckAfter == 0 {
		cfg.StuckAfter = 15 * time.Minute
	}

	return &Scheduler{
		syncer:     syncer,
		users:      users,
		interval:   cfg.Interval,
		stuckAfter: cfg.StuckAfter,
		startDelay: cfg.StartDelay,
		logger:     logger.With("component", "analytics_scheduler"),
		stopCh:     make(chan struct{}),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.logger.Info("analytics scheduler started", "interval", s.interval, "stuck_after", s.stuckAfter)

	s.wg.Add(1)
	go s.run(ctx)
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("analytics scheduler stopped")
}

// run is the main scheduler loop
func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Let the app finish starting before the first pass
	select {
	case <-time.After(s.startDelay):
		s.process(ctx)
	case <-s.stopCh:
		return
	case <-ctx.Done():
		return
	}

	for {
		select {
		case <-ticker.C:
			s.process(ctx)
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// process reports stuck posts, then syncs users one at a time
func (s *Scheduler) process(ctx context.Context) {
	if stuck, err := s.syncer.DetectStuck(ctx, s.stuckAfter); err != nil {
		s.logger.Error("failed to detect stuck posts", "error", err)
	} else if len(stuck) > 0 {
		s.logger.Warn("posts stuck in flight", "count", len(stuck))
	}

	userIDs, err := s.users.ListUsersWithAyrshareKey(ctx)
	if err != nil {
		s.logger.Error("failed to list users for analytics sync", "error", err)
		return
	}

	if len(userIDs) == 0 {
		s.logger.Debug("no users to sync")
		return
	}

	for _, userID := range userIDs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		summary, err := s.syncer.SyncUser(ctx, userID)
		if errors.Is(err, entity.ErrMissingAPIKey) {
			continue
		}
		if err != nil {
			s.logger.Error("failed to sync analytics", "user_id", userID, "error", err)
			continue
		}
		s.logger.Debug("synced analytics", "user_id", userID, "outcome", summary.Outcome, "synced", summary.Synced)
	}
}
