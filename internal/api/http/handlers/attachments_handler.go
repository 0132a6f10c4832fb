package handlers

import (
	"io"
	"net/http"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-tickets/internal/api/dto"
	"github.com/spec-kit/maintenance-tickets/internal/service"
	apperrors "github.com/spec-kit/maintenance-tickets/pkg/util/errorutil"
)

// AttachmentsHandler serves ticket attachment endpoints.
type AttachmentsHandler struct {
	service *service.AttachmentService
}

// NewAttachmentsHandler constructs handler.
func NewAttachmentsHandler(attachmentService *service.AttachmentService) *AttachmentsHandler {
	return &AttachmentsHandler{service: attachmentService}
}

// List GET /api/tickets/:id/attachments. Legacy attachments are migrated on the way out.
func (h *AttachmentsHandler) List(c *fiber.Ctx) error {
	atts, err := h.service.ListTicketAttachments(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": atts})
}

// Upload POST /api/tickets/:id/attachments (multipart field "file").
func (h *AttachmentsHandler) Upload(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("file is required", map[string]any{"field": "file"})
	}
	f, err := header.Open()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	att, err := h.service.Upload(c.UserContext(), c.Params("id"), header.Filename, header.Header.Get(fiber.HeaderContentType), data)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": att})
}

// Get GET /api/tickets/:id/attachments/:attachmentId.
func (h *AttachmentsHandler) Get(c *fiber.Ctx) error {
	att, err := h.service.GetAttachment(c.UserContext(), c.Params("id"), c.Params("attachmentId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": att})
}

// Download GET /api/tickets/:id/attachments/:attachmentId/download.
func (h *AttachmentsHandler) Download(c *fiber.Ctx) error {
	data, att, err := h.service.Download(c.UserContext(), c.Params("id"), c.Params("attachmentId"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, att.ContentType)
	c.Set(fiber.HeaderContentDisposition, "attachment; filename*=UTF-8''"+url.PathEscape(att.Filename))
	return c.Send(data)
}

// Delete DELETE /api/tickets/:id/attachments/:attachmentId.
func (h *AttachmentsHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id"), c.Params("attachmentId")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Migrate POST /api/tickets/:id/attachments/migrate.
func (h *AttachmentsHandler) Migrate(c *fiber.Ctx) error {
	result, err := h.service.MigrateTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	resp := dto.MigrationResultResponse{
		Attachments: result.Attachments,
		Migrated:    len(result.Succeeded),
		Failed:      make([]dto.MigrationFailure, 0, len(result.Failed)),
	}
	for _, f := range result.Failed {
		resp.Failed = append(resp.Failed, dto.MigrationFailure{
			Index:    f.Index,
			Filename: f.Attachment.Filename,
			Error:    apperrors.ToDomainError(f.Err).Message,
		})
	}
	return c.JSON(fiber.Map{"data": resp})
}
