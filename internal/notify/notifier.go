package notify

import (
	"context"

	"go.uber.org/zap"
)

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Notifier delivers messages to people.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// LogNotifier only logs messages. It is used when no delivery channel is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier constructs a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(_ context.Context, msg Message) error {
	n.logger.Info("notification",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}
