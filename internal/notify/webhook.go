package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// webhookPayload is the body the email relay expects.
type webhookPayload struct {
	ToUser       string `json:"to_user"`
	EmailSubject string `json:"email_subject"`
	EmailBody    string `json:"email_body"`
}

// WebhookNotifier posts messages to an HTTP email relay.
type WebhookNotifier struct {
	url     string
	timeout time.Duration
	logger  *zap.Logger
}

// NewWebhookNotifier constructs a notifier posting to url.
func NewWebhookNotifier(url string, timeout time.Duration, logger *zap.Logger) *WebhookNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{url: url, timeout: timeout, logger: logger}
}

func (n *WebhookNotifier) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timeout := n.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	agent := fiber.Post(n.url).
		Timeout(timeout).
		JSON(webhookPayload{ToUser: msg.To, EmailSubject: msg.Subject, EmailBody: msg.Body})
	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("email webhook: %w", errs[0])
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("email webhook returned %d: %s", status, truncate(body, 200))
	}
	n.logger.Debug("email webhook delivered", zap.String("to", msg.To), zap.Int("status", status))
	return nil
}

func truncate(b []byte, limit int) string {
	if len(b) <= limit {
		return string(b)
	}
	return string(b[:limit])
}
