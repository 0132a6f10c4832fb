package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-tickets/internal/observability"
	"github.com/spec-kit/maintenance-tickets/internal/service"
)

// AdminHandler exposes maintenance operations over the whole ticket set.
type AdminHandler struct {
	tickets     *service.TicketService
	attachments *service.AttachmentService
	metrics     *observability.Metrics
}

// NewAdminHandler constructs handler.
func NewAdminHandler(tickets *service.TicketService, attachments *service.AttachmentService, metrics *observability.Metrics) *AdminHandler {
	return &AdminHandler{tickets: tickets, attachments: attachments, metrics: metrics}
}

// MigrateAllAttachments POST /api/admin/attachments/migrate-all.
func (h *AdminHandler) MigrateAllAttachments(c *fiber.Ctx) error {
	started := time.Now()
	summary, err := h.attachments.MigrateAll(c.UserContext())
	if err != nil {
		return err
	}
	h.metrics.RecordMigration(summary.MigratedTickets, summary.ErrorsCount, time.Since(started))
	return c.JSON(fiber.Map{"data": summary})
}

// MigrateNotes POST /api/admin/tickets/migrate-notes.
func (h *AdminHandler) MigrateNotes(c *fiber.Ctx) error {
	count, err := h.tickets.MigrateNotes(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"migrated": count}})
}

// DeleteAllTickets DELETE /api/admin/tickets.
func (h *AdminHandler) DeleteAllTickets(c *fiber.Ctx) error {
	count, err := h.tickets.DeleteAll(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": count}})
}
