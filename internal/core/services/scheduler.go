package services

import (
	"context"
	"sync"
	"time"

	"github.com/agoraslabs/agoras-cli/internal/core/ports/driven"
	"github.com/agoraslabs/agoras-cli/internal/logger"
)

// Scheduler runs the schedule processor periodically and publishes the
// due posts. It is a pure core service with no external control API.
type Scheduler struct {
	schedule  *ScheduleService
	publisher driven.Publisher
	interval  time.Duration
	maxCount  int

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler that processes the sheet every
// interval. interval <= 0 defaults to one hour, matching the
// hour-granularity of schedule rows.
func NewScheduler(schedule *ScheduleService, publisher driven.Publisher, interval time.Duration, maxCount int) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		schedule:  schedule,
		publisher: publisher,
		interval:  interval,
		maxCount:  maxCount,
	}
}

// Interval returns the effective drain interval.
func (s *Scheduler) Interval() time.Duration { return s.interval }

// Start begins the scheduler loop. This method blocks until Stop is
// called or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	// Process immediately on startup, then on each tick
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// Stop gracefully shuts down the scheduler and waits for an in-flight
// run to complete.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// runOnce processes the sheet and publishes due posts. Failures are
// logged and do not stop the loop; per-post failures do not block the
// remaining posts of the batch.
func (s *Scheduler) runOnce(ctx context.Context) {
	s.wg.Add(1)
	defer s.wg.Done()

	posts, err := s.schedule.ProcessScheduledPosts(ctx, s.maxCount)
	if err != nil {
		logger.Warn("scheduler: processing failed: %v", err)
		return
	}

	for _, post := range posts {
		if err := s.publisher.Publish(ctx, post); err != nil {
			logger.Warn("scheduler: publish failed: %v", err)
		}
	}
}
