package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-tickets/internal/api/dto"
	"github.com/spec-kit/maintenance-tickets/internal/domain"
	"github.com/spec-kit/maintenance-tickets/internal/service"
)

// CatalogHandler serves locations and categories.
type CatalogHandler struct {
	locations  *service.LocationService
	categories *service.CategoryService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(locations *service.LocationService, categories *service.CategoryService) *CatalogHandler {
	return &CatalogHandler{locations: locations, categories: categories}
}

// ListLocations GET /api/locations.
func (h *CatalogHandler) ListLocations(c *fiber.Ctx) error {
	locations, err := h.locations.List(c.UserContext(), c.Query("location_type_id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": locations})
}

// GetLocation GET /api/locations/:id.
func (h *CatalogHandler) GetLocation(c *fiber.Ctx) error {
	location, err := h.locations.Get(c.UserContext(), c.Query("location_type_id"), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": location})
}

// UpsertLocation POST /api/locations and PUT /api/locations/:id.
func (h *CatalogHandler) UpsertLocation(c *fiber.Ctx) error {
	var req dto.LocationRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if id := c.Params("id"); id != "" {
		req.ID = id
	}
	location, err := h.locations.Upsert(c.UserContext(), domain.Location{
		ID:             req.ID,
		LocationTypeID: req.LocationTypeID,
		Name:           req.Name,
		Address:        req.Address,
		PhoneNumbers:   req.PhoneNumbers,
		EmailDomains:   req.EmailDomains,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": location})
}

// DeleteLocation DELETE /api/locations/:id.
func (h *CatalogHandler) DeleteLocation(c *fiber.Ctx) error {
	if err := h.locations.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// SeedLocations POST /api/locations/seed.
func (h *CatalogHandler) SeedLocations(c *fiber.Ctx) error {
	if err := h.locations.SeedDefaults(c.UserContext()); err != nil {
		return err
	}
	return h.ListLocations(c)
}

// ListCategories GET /api/categories.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.categories.List(c.UserContext(), c.QueryBool("active_only", false))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": categories})
}

// GetCategory GET /api/categories/:id.
func (h *CatalogHandler) GetCategory(c *fiber.Ctx) error {
	category, err := h.categories.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": category})
}

// UpsertCategory POST /api/categories and PUT /api/categories/:id.
func (h *CatalogHandler) UpsertCategory(c *fiber.Ctx) error {
	var req dto.CategoryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if id := c.Params("id"); id != "" {
		req.ID = id
	}
	category, created, err := h.categories.Upsert(c.UserContext(), service.CategoryInput{
		ID:            req.ID,
		DisplayName:   req.DisplayName,
		Description:   req.Description,
		IsActive:      req.IsActive,
		Subcategories: req.Subcategories,
	})
	if err != nil {
		return err
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"data": category})
}

// DeleteCategory DELETE /api/categories/:id.
func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	if err := h.categories.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// UpsertSubcategory PUT /api/categories/:id/subcategories/:name.
func (h *CatalogHandler) UpsertSubcategory(c *fiber.Ctx) error {
	var req dto.SubcategoryRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	category, err := h.categories.UpsertSubcategory(c.UserContext(), c.Params("id"), domain.Subcategory{
		Name:        c.Params("name"),
		DisplayName: req.DisplayName,
		IsActive:    active,
		Order:       req.Order,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": category})
}

// DeleteSubcategory DELETE /api/categories/:id/subcategories/:name.
func (h *CatalogHandler) DeleteSubcategory(c *fiber.Ctx) error {
	category, err := h.categories.DeleteSubcategory(c.UserContext(), c.Params("id"), c.Params("name"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": category})
}

// SeedCategories POST /api/categories/seed.
func (h *CatalogHandler) SeedCategories(c *fiber.Ctx) error {
	results, err := h.categories.SeedDefaults(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": results})
}
