package worker

import (
	"context"

	"go.uber.org/zap"
)

// NotificationSubscriber is the part of the notification service the worker drives.
type NotificationSubscriber interface {
	RegisterHandlers()
	Wait()
}

// NotificationWorker attaches requester notifications to the event bus and
// drains pending sends on shutdown.
type NotificationWorker struct {
	subscriber NotificationSubscriber
	logger     *zap.Logger
	started    bool
}

// NewNotificationWorker wraps subscriber. A nil subscriber yields a worker that does nothing.
func NewNotificationWorker(subscriber NotificationSubscriber, logger *zap.Logger) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{subscriber: subscriber, logger: logger}
}

// Start subscribes once; later calls are no-ops.
func (w *NotificationWorker) Start() {
	if w.subscriber == nil || w.started {
		return
	}
	w.subscriber.RegisterHandlers()
	w.started = true
	w.logger.Info("notification worker started")
}

// Stop waits for in-flight sends until ctx expires.
func (w *NotificationWorker) Stop(ctx context.Context) error {
	if w.subscriber == nil || !w.started {
		return nil
	}
	done := make(chan struct{})
	go func() {
		w.subscriber.Wait()
		close(done)
	}()
	select {
	case <-done:
		w.logger.Info("notification worker drained")
		return nil
	case <-ctx.Done():
		w.logger.Warn("notification worker stopped with sends in flight")
		return ctx.Err()
	}
}
