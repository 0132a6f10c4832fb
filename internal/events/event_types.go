package events

import (
	"time"

	"github.com/spec-kit/maintenance-tickets/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketNoteAdded     EventType = "ticket_note_added"
	EventAttachmentsMigrated EventType = "attachments_migrated"
)

// Actor identifies who caused the event, when known.
type Actor struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Source        domain.TicketSource   `json:"source"`
	Priority      domain.TicketPriority `json:"priority"`
	Title         string                `json:"title"`
	ReporterID    *string               `json:"reporter_id,omitempty"`
	ReporterEmail string                `json:"reporter_email,omitempty"`
	LocationID    *string               `json:"location_id,omitempty"`
}

// TicketStatusChangedPayload carries what a notifier needs without reloading the ticket.
type TicketStatusChangedPayload struct {
	OldStatus     domain.TicketStatus `json:"old_status"`
	NewStatus     domain.TicketStatus `json:"new_status"`
	Source        domain.TicketSource `json:"source"`
	Title         string              `json:"title"`
	ReporterName  string              `json:"reporter_name,omitempty"`
	ReporterEmail string              `json:"reporter_email,omitempty"`
	Reason        string              `json:"reason,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssigneeIDs []string `json:"assignee_ids"`
}

// TicketNoteAddedPayload payload.
type TicketNoteAddedPayload struct {
	NoteID      string          `json:"note_id"`
	NoteType    domain.NoteType `json:"note_type"`
	BodyPreview string          `json:"body_preview"`
}

// AttachmentsMigratedPayload payload.
type AttachmentsMigratedPayload struct {
	Migrated int `json:"migrated"`
	Failed   int `json:"failed"`
}
