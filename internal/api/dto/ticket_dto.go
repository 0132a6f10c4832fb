package dto

import (
	"time"

	"github.com/spec-kit/maintenance-tickets/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title          string                    `json:"title"`
	Description    string                    `json:"description"`
	PhoneNumber    string                    `json:"phoneNumber"`
	Transcription  *string                   `json:"transcription"`
	Priority       domain.TicketPriority     `json:"priority"`
	Category       *domain.TicketCategory    `json:"category"`
	Subcategory    *domain.TicketSubcategory `json:"subcategory"`
	Source         domain.TicketSource       `json:"source"`
	Audio          *domain.AttachmentRef     `json:"audio"`
	Attachments    []domain.AttachmentRef    `json:"attachments"`
	ReporterID     *string                   `json:"reporterId"`
	LocationID     *string                   `json:"locationId"`
	LocationTypeID string                    `json:"locationTypeId"`
	AssigneeIDs    []string                  `json:"assigneeIds"`
	Assignees      []PersonRequest           `json:"assignees"`
	Template       string                    `json:"template"`
	Note           string                    `json:"note"`
	NoteType       domain.NoteType           `json:"noteType"`
}

// WorkTicketRequest creates an emergency, preventive or corrective ticket.
type WorkTicketRequest struct {
	Title          string                    `json:"title"`
	Description    string                    `json:"description"`
	Priority       domain.TicketPriority     `json:"priority"`
	Subcategory    *domain.TicketSubcategory `json:"subcategory"`
	ReporterID     *string                   `json:"reporterId"`
	LocationID     *string                   `json:"locationId"`
	LocationTypeID string                    `json:"locationTypeId"`
	AssigneeIDs    []string                  `json:"assigneeIds"`
	Attachments    []domain.AttachmentRef    `json:"attachments"`
}

// IntakeRequest is what the phone system and the mail poller post.
type IntakeRequest struct {
	From           string                    `json:"from"`
	Description    string                    `json:"description"`
	ReporterEmail  string                    `json:"reporterEmail"`
	Transcription  *string                   `json:"transcription"`
	Source         domain.TicketSource       `json:"source"`
	Priority       domain.TicketPriority     `json:"priority"`
	Category       *domain.TicketCategory    `json:"category"`
	Subcategory    *domain.TicketSubcategory `json:"subcategory"`
	Audio          *domain.AttachmentRef     `json:"audio"`
	Attachments    []domain.AttachmentRef    `json:"attachments"`
	ReporterID     *string                   `json:"reporterId"`
	LocationID     *string                   `json:"locationId"`
	LocationTypeID string                    `json:"locationTypeId"`
}

// EmailIntakeRequest is an inbound email forwarded by the mail gateway.
type EmailIntakeRequest struct {
	From        string                 `json:"from"`
	FromName    string                 `json:"fromName"`
	Subject     string                 `json:"subject"`
	Body        string                 `json:"body"`
	Attachments []domain.AttachmentRef `json:"attachments"`
}

// UpdateTicketRequest is a partial update. Absent fields are left alone and
// explicit nulls clear nullable fields.
type UpdateTicketRequest struct {
	Title          *string                                   `json:"title"`
	Description    *string                                   `json:"description"`
	PhoneNumber    *string                                   `json:"phoneNumber"`
	Transcription  domain.Nullable[string]                   `json:"transcription"`
	Priority       *domain.TicketPriority                    `json:"priority"`
	Category       domain.Nullable[domain.TicketCategory]    `json:"category"`
	Subcategory    domain.Nullable[domain.TicketSubcategory] `json:"subcategory"`
	Source         *domain.TicketSource                      `json:"source"`
	Status         *domain.TicketStatus                      `json:"status"`
	ResolvedAt     domain.Nullable[time.Time]                `json:"resolvedAt"`
	ClosedAt       domain.Nullable[time.Time]                `json:"closedAt"`
	Reason         string                                    `json:"reason"`
	AssigneeIDs    domain.Nullable[[]string]                 `json:"assigneeIds"`
	Assignees      []PersonRequest                           `json:"assignees"`
	ReporterID     domain.Nullable[string]                   `json:"reporterId"`
	LocationID     domain.Nullable[string]                   `json:"locationId"`
	LocationTypeID string                                    `json:"locationTypeId"`
	Audio          domain.Nullable[domain.AttachmentRef]     `json:"audio"`
	Attachments    *[]domain.AttachmentRef                   `json:"attachments"`
}

// StatusChangeRequest payload.
type StatusChangeRequest struct {
	Status     domain.TicketStatus        `json:"status"`
	ResolvedAt domain.Nullable[time.Time] `json:"resolvedAt"`
	ClosedAt   domain.Nullable[time.Time] `json:"closedAt"`
	Reason     string                     `json:"reason"`
}

// CancelTicketRequest payload.
type CancelTicketRequest struct {
	Reason string `json:"reason"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	AssigneeIDs []string `json:"assigneeIds"`
}

// CreateNoteRequest payload.
type CreateNoteRequest struct {
	Content string          `json:"content"`
	Type    domain.NoteType `json:"type"`
}

// ListMeta accompanies paged list responses.
type ListMeta struct {
	Count             int    `json:"count"`
	ContinuationToken string `json:"continuationToken,omitempty"`
}

// MigrationResultResponse reports a single-ticket attachment migration.
type MigrationResultResponse struct {
	Attachments []domain.AttachmentRef `json:"attachments"`
	Migrated    int                    `json:"migrated"`
	Failed      []MigrationFailure     `json:"failed"`
}

// MigrationFailure describes one attachment left in its legacy shape.
type MigrationFailure struct {
	Index    int    `json:"index"`
	Filename string `json:"filename"`
	Error    string `json:"error"`
}
