package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-tickets/internal/api/dto"
	"github.com/spec-kit/maintenance-tickets/internal/domain"
	"github.com/spec-kit/maintenance-tickets/internal/repository"
	"github.com/spec-kit/maintenance-tickets/internal/service"
	apperrors "github.com/spec-kit/maintenance-tickets/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.Create(c.UserContext(), service.CreateTicketInput{
		Title:         req.Title,
		Description:   req.Description,
		PhoneNumber:   req.PhoneNumber,
		Transcription: req.Transcription,
		Priority:      req.Priority,
		Category:      req.Category,
		Subcategory:   req.Subcategory,
		Source:        req.Source,
		Audio:         req.Audio,
		Attachments:   req.Attachments,
		ReporterID:    req.ReporterID,
		Location:      locationKey(req.LocationTypeID, req.LocationID),
		Assignees: service.AssigneeInput{
			IDs:    req.AssigneeIDs,
			Inline: inlinePersons(req.Assignees),
		},
		Template: service.TemplateKind(strings.ToLower(strings.TrimSpace(req.Template))),
		Note:     req.Note,
		NoteType: req.NoteType,
		Actor:    actorFromRequest(c),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticket})
}

// CreateEmergency POST /api/tickets/emergency.
func (h *TicketsHandler) CreateEmergency(c *fiber.Ctx) error {
	return h.createWork(c, h.service.CreateEmergency)
}

// CreatePreventive POST /api/tickets/preventive.
func (h *TicketsHandler) CreatePreventive(c *fiber.Ctx) error {
	return h.createWork(c, h.service.CreatePreventive)
}

// CreateCorrective POST /api/tickets/corrective.
func (h *TicketsHandler) CreateCorrective(c *fiber.Ctx) error {
	return h.createWork(c, h.service.CreateCorrective)
}

func (h *TicketsHandler) createWork(c *fiber.Ctx, create func(context.Context, service.WorkTicketInput) (*domain.Ticket, error)) error {
	var req dto.WorkTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := create(c.UserContext(), service.WorkTicketInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Subcategory: req.Subcategory,
		ReporterID:  req.ReporterID,
		Location:    locationKey(req.LocationTypeID, req.LocationID),
		AssigneeIDs: req.AssigneeIDs,
		Attachments: req.Attachments,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticket})
}

// Intake POST /api/tickets/intake.
func (h *TicketsHandler) Intake(c *fiber.Ctx) error {
	var req dto.IntakeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.CreateFromCaller(c.UserContext(), service.IntakeInput{
		Audio:         req.Audio,
		Description:   req.Description,
		FromText:      req.From,
		ReporterEmail: req.ReporterEmail,
		Transcription: req.Transcription,
		Source:        req.Source,
		Priority:      req.Priority,
		Category:      req.Category,
		Subcategory:   req.Subcategory,
		Attachments:   req.Attachments,
		ReporterID:    req.ReporterID,
		Location:      locationKey(req.LocationTypeID, req.LocationID),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticket})
}

// EmailIntake POST /api/tickets/intake/email.
func (h *TicketsHandler) EmailIntake(c *fiber.Ctx) error {
	var req dto.EmailIntakeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.CreateFromEmail(c.UserContext(), service.EmailTicketInput{
		FromAddress: req.From,
		FromName:    req.FromName,
		Subject:     req.Subject,
		Body:        req.Body,
		Attachments: req.Attachments,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticket})
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter, err := parseTicketQuery(c)
	if err != nil {
		return err
	}
	page, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := page.Items
	if items == nil {
		items = []domain.Ticket{}
	}
	return c.JSON(fiber.Map{
		"data": items,
		"meta": dto.ListMeta{Count: len(items), ContinuationToken: page.ContinuationToken},
	})
}

// ExportTickets GET /api/tickets/export.
func (h *TicketsHandler) ExportTickets(c *fiber.Ctx) error {
	filter, err := parseTicketQuery(c)
	if err != nil {
		return err
	}
	data, filename, err := h.service.ExportTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(data)
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticket})
}

// UpdateTicket PATCH /api/tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	var req dto.UpdateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.Update(c.UserContext(), c.Params("id"), service.UpdateTicketInput{
		Title:         req.Title,
		Description:   req.Description,
		PhoneNumber:   req.PhoneNumber,
		Transcription: req.Transcription,
		Priority:      req.Priority,
		Category:      req.Category,
		Subcategory:   req.Subcategory,
		Source:        req.Source,
		Status:        req.Status,
		ResolvedAt:    req.ResolvedAt,
		ClosedAt:      req.ClosedAt,
		Reason:        req.Reason,
		AssigneeIDs:   req.AssigneeIDs,
		Assignees:     inlinePersons(req.Assignees),
		ReporterID:    req.ReporterID,
		Location:      nullableLocation(req.LocationTypeID, req.LocationID),
		Audio:         req.Audio,
		Attachments:   req.Attachments,
		Actor:         actorFromRequest(c),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticket})
}

// DeleteTicket DELETE /api/tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ChangeStatus POST /api/tickets/:id/status.
func (h *TicketsHandler) ChangeStatus(c *fiber.Ctx) error {
	var req dto.StatusChangeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status is required", map[string]any{"field": "status"})
	}
	ticket, err := h.service.ChangeStatus(c.UserContext(), c.Params("id"), service.StatusChange{
		Status:     req.Status,
		ResolvedAt: req.ResolvedAt,
		ClosedAt:   req.ClosedAt,
		Reason:     req.Reason,
		Actor:      actorFromRequest(c),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticket})
}

// CancelTicket POST /api/tickets/:id/cancel.
func (h *TicketsHandler) CancelTicket(c *fiber.Ctx) error {
	var req dto.CancelTicketRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}
	ticket, err := h.service.Cancel(c.UserContext(), c.Params("id"), req.Reason, actorFromRequest(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticket})
}

// AssignTicket POST /api/tickets/:id/assign.
func (h *TicketsHandler) AssignTicket(c *fiber.Ctx) error {
	var req dto.AssignTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.Assign(c.UserContext(), c.Params("id"), req.AssigneeIDs, actorFromRequest(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticket})
}

// CloneTicket POST /api/tickets/:id/clone.
func (h *TicketsHandler) CloneTicket(c *fiber.Ctx) error {
	ticket, err := h.service.Clone(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticket})
}

// ListNotes GET /api/tickets/:id/notes.
func (h *TicketsHandler) ListNotes(c *fiber.Ctx) error {
	notes, err := h.service.ListNotes(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": notes})
}

// AddNote POST /api/tickets/:id/notes.
func (h *TicketsHandler) AddNote(c *fiber.Ctx) error {
	var req dto.CreateNoteRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	note, err := h.service.AddNote(c.UserContext(), c.Params("id"), req.Content, req.Type, actorFromRequest(c))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": note})
}

func parseTicketQuery(c *fiber.Ctx) (repository.TicketFilter, error) {
	filter := repository.TicketFilter{
		ReporterID:        optionalQuery(c, "reporter_id"),
		AssigneeID:        optionalQuery(c, "assignee_id"),
		LocationID:        optionalQuery(c, "location_id"),
		SearchTerm:        optionalQuery(c, "search"),
		PageSize:          parseInt(c.Query("page_size"), 0),
		ContinuationToken: c.Query("continuation_token"),
	}
	for _, part := range splitList(strings.ToUpper(c.Query("status"))) {
		status := domain.TicketStatus(part)
		if !status.Valid() {
			return filter, apperrors.NewValidationError("invalid status", map[string]any{"field": "status", "value": part})
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	for _, part := range splitList(strings.ToUpper(c.Query("priority"))) {
		priority := domain.TicketPriority(part)
		if !priority.Valid() {
			return filter, apperrors.NewValidationError("invalid priority", map[string]any{"field": "priority", "value": part})
		}
		filter.Priorities = append(filter.Priorities, priority)
	}
	if v := optionalQuery(c, "category"); v != nil {
		category := domain.TicketCategory(strings.ToUpper(*v))
		if !category.Valid() {
			return filter, apperrors.NewValidationError("invalid category", map[string]any{"field": "category", "value": *v})
		}
		filter.Category = &category
	}
	if v := optionalQuery(c, "source"); v != nil {
		source := domain.ParseTicketSource(*v)
		if !source.Valid() {
			return filter, apperrors.NewValidationError("invalid source", map[string]any{"field": "source", "value": *v})
		}
		filter.Source = &source
	}
	var err error
	if filter.CreatedFrom, err = parseTime(c.Query("created_from")); err != nil {
		return filter, apperrors.NewValidationError("invalid created_from", map[string]any{"field": "created_from"})
	}
	if filter.CreatedTo, err = parseTime(c.Query("created_to")); err != nil {
		return filter, apperrors.NewValidationError("invalid created_to", map[string]any{"field": "created_to"})
	}
	return filter, nil
}
