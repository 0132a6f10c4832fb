package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-tickets/internal/api/dto"
	"github.com/spec-kit/maintenance-tickets/internal/domain"
	"github.com/spec-kit/maintenance-tickets/internal/repository"
	"github.com/spec-kit/maintenance-tickets/internal/service"
	apperrors "github.com/spec-kit/maintenance-tickets/pkg/util/errorutil"
)

// maxBulkPersons caps one bulk request.
const maxBulkPersons = 500

// PersonsHandler serves the person directory.
type PersonsHandler struct {
	service *service.PersonService
}

// NewPersonsHandler constructs handler.
func NewPersonsHandler(personService *service.PersonService) *PersonsHandler {
	return &PersonsHandler{service: personService}
}

// Create POST /api/persons.
func (h *PersonsHandler) Create(c *fiber.Ctx) error {
	var req dto.PersonRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	person, err := h.service.Create(c.UserContext(), personInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": person})
}

// Ensure POST /api/persons/ensure returns the person with the email, creating it when missing.
func (h *PersonsHandler) Ensure(c *fiber.Ctx) error {
	var req dto.PersonRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	person, err := h.service.EnsureByEmail(c.UserContext(), personInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": person})
}

// BulkCreate POST /api/persons/bulk.
func (h *PersonsHandler) BulkCreate(c *fiber.Ctx) error {
	var req dto.BulkPersonRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if len(req.Persons) == 0 {
		return apperrors.NewValidationError("persons is required", map[string]any{"field": "persons"})
	}
	if len(req.Persons) > maxBulkPersons {
		return apperrors.NewValidationError("too many persons", map[string]any{"field": "persons", "max": maxBulkPersons})
	}
	inputs := make([]service.PersonInput, 0, len(req.Persons))
	for _, p := range req.Persons {
		inputs = append(inputs, personInput(p))
	}
	result := h.service.BulkCreate(c.UserContext(), inputs)
	status := http.StatusCreated
	if len(result.Failed) > 0 {
		status = http.StatusMultiStatus
	}
	return c.Status(status).JSON(fiber.Map{"data": result})
}

// List GET /api/persons.
func (h *PersonsHandler) List(c *fiber.Ctx) error {
	filter := repository.PersonFilter{
		LocationID:        optionalQuery(c, "location_id"),
		SearchTerm:        optionalQuery(c, "search"),
		PageSize:          parseInt(c.Query("page_size"), 0),
		ContinuationToken: c.Query("continuation_token"),
	}
	if v := optionalQuery(c, "department"); v != nil {
		dept := domain.Department(strings.ToUpper(*v))
		if !dept.Valid() {
			return apperrors.NewValidationError("invalid department", map[string]any{"field": "department", "value": *v})
		}
		filter.Department = &dept
	}
	if v := optionalQuery(c, "role"); v != nil {
		role := domain.PersonRole(strings.ToLower(*v))
		if !role.Valid() {
			return apperrors.NewValidationError("invalid role", map[string]any{"field": "role", "value": *v})
		}
		filter.Role = &role
	}
	page, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := page.Items
	if items == nil {
		items = []domain.Person{}
	}
	return c.JSON(fiber.Map{
		"data": items,
		"meta": dto.ListMeta{Count: len(items), ContinuationToken: page.ContinuationToken},
	})
}

// Get GET /api/persons/:id.
func (h *PersonsHandler) Get(c *fiber.Ctx) error {
	person, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": person})
}

// GetByEmail GET /api/persons/by-email/:email.
func (h *PersonsHandler) GetByEmail(c *fiber.Ctx) error {
	email, err := url.PathUnescape(c.Params("email"))
	if err != nil {
		return apperrors.NewValidationError("invalid email", map[string]any{"field": "email"})
	}
	person, err := h.service.FindByEmail(c.UserContext(), email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": person})
}

// Update PATCH /api/persons/:id.
func (h *PersonsHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdatePersonRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	person, err := h.service.Update(c.UserContext(), c.Params("id"), service.UpdatePersonInput{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		PhoneNumber:    req.PhoneNumber,
		Email:          req.Email,
		Role:           req.Role,
		Department:     req.Department,
		LocationID:     req.LocationID,
		LocationTypeID: req.LocationTypeID,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": person})
}

// Delete DELETE /api/persons/:id.
func (h *PersonsHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func personInput(req dto.PersonRequest) service.PersonInput {
	return service.PersonInput{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		PhoneNumber:    req.PhoneNumber,
		Email:          req.Email,
		Role:           req.Role,
		Department:     req.Department,
		LocationID:     req.LocationID,
		LocationTypeID: req.LocationTypeID,
	}
}
