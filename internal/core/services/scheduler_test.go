package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agoraslabs/agoras-cli/internal/core/domain"
)

type fakePublisher struct {
	mu    sync.Mutex
	posts []domain.Post
	err   error
}

func (f *fakePublisher) Publish(_ context.Context, post domain.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.posts = append(f.posts, post)
	return nil
}

func (f *fakePublisher) published() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posts)
}

func dueSheet() *fakeSheet {
	return &fakeSheet{rows: [][]string{row("due", "2026-08-28", "09", "draft")}}
}

func TestScheduler_PublishesOnStartup(t *testing.T) {
	svc := NewScheduleService(dueSheet())
	svc.SetClock(fixedClock("2026-08-28", 9))
	pub := &fakePublisher{}
	sched := NewScheduler(svc, pub, time.Hour, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.Start(ctx) }()

	require.Eventually(t, func() bool { return pub.published() == 1 },
		2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop on cancel")
	}
}

func TestScheduler_StopUnblocksStart(t *testing.T) {
	svc := NewScheduleService(&fakeSheet{})
	sched := NewScheduler(svc, &fakePublisher{}, time.Hour, 0)

	done := make(chan error, 1)
	go func() { done <- sched.Start(context.Background()) }()

	// Give the loop a moment to enter its select.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, sched.Stop())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestScheduler_PublishFailureDoesNotStopLoop(t *testing.T) {
	svc := NewScheduleService(dueSheet())
	svc.SetClock(fixedClock("2026-08-28", 9))
	pub := &fakePublisher{err: errors.New("api down")}
	sched := NewScheduler(svc, pub, time.Hour, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := sched.Start(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestScheduler_DefaultInterval(t *testing.T) {
	sched := NewScheduler(nil, nil, 0, 0)
	assert.Equal(t, time.Hour, sched.Interval())
}
