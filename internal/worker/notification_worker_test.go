package worker

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubSubscriber struct {
	registered int
	release    chan struct{}
}

func (s *stubSubscriber) RegisterHandlers() { s.registered++ }

func (s *stubSubscriber) Wait() {
	if s.release != nil {
		<-s.release
	}
}

func TestNotificationWorkerStartsOnce(t *testing.T) {
	sub := &stubSubscriber{}
	w := NewNotificationWorker(sub, nil)
	w.Start()
	w.Start()
	if sub.registered != 1 {
		t.Fatalf("registered %d times, want 1", sub.registered)
	}
	if err := w.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}

func TestNotificationWorkerStopHonorsDeadline(t *testing.T) {
	sub := &stubSubscriber{release: make(chan struct{})}
	defer close(sub.release)
	w := NewNotificationWorker(sub, nil)
	w.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := w.Stop(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Stop() error = %v, want deadline exceeded", err)
	}
}

func TestNotificationWorkerWithoutSubscriber(t *testing.T) {
	w := NewNotificationWorker(nil, nil)
	w.Start()
	if err := w.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}
