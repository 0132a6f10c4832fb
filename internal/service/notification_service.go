package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-tickets/internal/domain"
	"github.com/spec-kit/maintenance-tickets/internal/events"
	"github.com/spec-kit/maintenance-tickets/internal/notify"
)

// NotificationService emails requesters of email-sourced tickets.
type NotificationService struct {
	dispatcher events.Dispatcher
	notifier   notify.Notifier
	logger     *zap.Logger
	timeout    time.Duration
	inflight   sync.WaitGroup
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, notifier notify.Notifier, logger *zap.Logger, timeout time.Duration) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = notify.NewLogNotifier(logger)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NotificationService{
		dispatcher: dispatcher,
		notifier:   notifier,
		logger:     logger,
		timeout:    timeout,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
}

// Wait blocks until every dispatched send has finished.
func (n *NotificationService) Wait() {
	n.inflight.Wait()
}

func (n *NotificationService) handleTicketCreated(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok || payload.Source != domain.TicketSourceEmail || payload.ReporterEmail == "" {
		return nil
	}
	n.dispatch(event, notify.Message{
		To:      payload.ReporterEmail,
		Subject: "New Ticket Created",
		Body:    fmt.Sprintf("A new ticket has been created: %s", event.TicketID),
	})
	return nil
}

func (n *NotificationService) handleTicketStatusChanged(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok || payload.Source != domain.TicketSourceEmail || payload.ReporterEmail == "" {
		return nil
	}
	if !IsTerminal(payload.NewStatus) || IsTerminal(payload.OldStatus) {
		return nil
	}
	n.dispatch(event, statusMessage(event.TicketID, payload))
	return nil
}

// dispatch sends msg off the request path. The send gets its own timeout and
// does not inherit the caller's cancellation.
func (n *NotificationService) dispatch(event events.Event, msg notify.Message) {
	n.inflight.Add(1)
	go func() {
		defer n.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()
		if err := n.notifier.Send(ctx, msg); err != nil {
			n.logger.Warn("notification failed",
				zap.String("event_type", string(event.Type)),
				zap.String("ticket_id", event.TicketID),
				zap.String("to", msg.To),
				zap.Error(err))
			return
		}
		n.logger.Info("notification sent",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID))
	}()
}

func statusMessage(ticketID string, p events.TicketStatusChangedPayload) notify.Message {
	verb := "completed"
	if p.NewStatus == domain.TicketStatusCancelled {
		verb = "cancelled"
	}
	var b strings.Builder
	if p.ReporterName != "" {
		fmt.Fprintf(&b, "Hello %s,\n\n", p.ReporterName)
	}
	fmt.Fprintf(&b, "Your ticket %q (%s) has been %s.", p.Title, ticketID, verb)
	if p.Reason != "" {
		fmt.Fprintf(&b, "\nReason: %s", p.Reason)
	}
	return notify.Message{
		To:      p.ReporterEmail,
		Subject: fmt.Sprintf("Ticket %s", strings.ToUpper(verb[:1])+verb[1:]),
		Body:    b.String(),
	}
}
