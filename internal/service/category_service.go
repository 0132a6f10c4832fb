package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-tickets/internal/domain"
	"github.com/spec-kit/maintenance-tickets/internal/repository"
	apperrors "github.com/spec-kit/maintenance-tickets/pkg/util/errorutil"
)

// CategoryService manages the category catalog.
type CategoryService struct {
	categories repository.CategoryRepository
	logger     *zap.Logger
	now        func() time.Time
}

// CategoryInput carries the writable category fields.
type CategoryInput struct {
	ID            string
	DisplayName   string
	Description   string
	IsActive      *bool
	Subcategories []domain.Subcategory
}

// SeedResult reports what SeedDefaults did with one category.
type SeedResult struct {
	ID     string `json:"id"`
	Action string `json:"action"`
}

// NewCategoryService constructs the service.
func NewCategoryService(categories repository.CategoryRepository, logger *zap.Logger) *CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{categories: categories, logger: logger, now: time.Now}
}

// List returns categories, only active ones when activeOnly is set.
func (s *CategoryService) List(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	out, err := s.categories.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Category{}
	}
	return out, nil
}

// Get returns one category.
func (s *CategoryService) Get(ctx context.Context, id string) (*domain.Category, error) {
	return s.categories.Get(ctx, strings.ToUpper(strings.TrimSpace(id)))
}

// Upsert creates the category or replaces its fields, keeping createdAt.
func (s *CategoryService) Upsert(ctx context.Context, in CategoryInput) (*domain.Category, bool, error) {
	id := strings.ToUpper(strings.TrimSpace(in.ID))
	if !domain.TicketCategory(id).Valid() {
		return nil, false, apperrors.NewValidationError("invalid category id", map[string]any{"field": "id", "value": in.ID})
	}
	if strings.TrimSpace(in.DisplayName) == "" {
		return nil, false, apperrors.NewValidationError("displayName is required", map[string]any{"field": "displayName"})
	}
	now := s.now().UTC()
	category := &domain.Category{
		ID:          id,
		DisplayName: strings.TrimSpace(in.DisplayName),
		Description: strings.TrimSpace(in.Description),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.IsActive != nil {
		category.IsActive = *in.IsActive
	}
	for _, sub := range in.Subcategories {
		normalized, err := normalizeCatalogSubcategory(sub)
		if err != nil {
			return nil, false, err
		}
		category.UpsertSubcategory(normalized)
	}
	if category.Subcategories == nil {
		category.Subcategories = []domain.Subcategory{}
	}

	existing, err := s.categories.Get(ctx, id)
	created := false
	switch {
	case err == nil:
		category.CreatedAt = existing.CreatedAt
		if in.Subcategories == nil {
			category.Subcategories = existing.Subcategories
		}
	case apperrors.HasCode(err, apperrors.CodeNotFound):
		created = true
	default:
		return nil, false, err
	}
	saved, err := s.categories.Save(ctx, category)
	if err != nil {
		return nil, false, err
	}
	return saved, created, nil
}

// Delete removes a category.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	id = strings.ToUpper(strings.TrimSpace(id))
	deleted, err := s.categories.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperrors.NewNotFound("category", map[string]any{"categoryId": id})
	}
	return nil
}

// UpsertSubcategory adds or replaces one subcategory by name.
func (s *CategoryService) UpsertSubcategory(ctx context.Context, categoryID string, sub domain.Subcategory) (*domain.Category, error) {
	normalized, err := normalizeCatalogSubcategory(sub)
	if err != nil {
		return nil, err
	}
	category, err := s.Get(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	category.UpsertSubcategory(normalized)
	category.UpdatedAt = s.now().UTC()
	return s.categories.Save(ctx, category)
}

// DeleteSubcategory removes one subcategory by name.
func (s *CategoryService) DeleteSubcategory(ctx context.Context, categoryID, name string) (*domain.Category, error) {
	category, err := s.Get(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	name = strings.ToUpper(strings.TrimSpace(name))
	if !category.RemoveSubcategory(name) {
		return nil, apperrors.NewNotFound("subcategory", map[string]any{"categoryId": category.ID, "name": name})
	}
	category.UpdatedAt = s.now().UTC()
	return s.categories.Save(ctx, category)
}

// SeedDefaults writes the standard catalog, updating categories that already exist.
func (s *CategoryService) SeedDefaults(ctx context.Context) ([]SeedResult, error) {
	results := make([]SeedResult, 0, len(defaultCatalog))
	active := true
	for _, c := range defaultCatalog {
		_, created, err := s.Upsert(ctx, CategoryInput{
			ID:            c.ID,
			DisplayName:   c.DisplayName,
			IsActive:      &active,
			Subcategories: c.Subcategories,
		})
		if err != nil {
			return results, err
		}
		action := "updated"
		if created {
			action = "created"
		}
		s.logger.Info("category seeded", zap.String("category_id", c.ID), zap.String("action", action))
		results = append(results, SeedResult{ID: c.ID, Action: action})
	}
	return results, nil
}

func normalizeCatalogSubcategory(sub domain.Subcategory) (domain.Subcategory, error) {
	sub.Name = strings.ToUpper(strings.TrimSpace(sub.Name))
	if sub.Name == "" {
		return sub, apperrors.NewValidationError("subcategory name is required", map[string]any{"field": "subcategories.name"})
	}
	sub.DisplayName = strings.TrimSpace(sub.DisplayName)
	if sub.DisplayName == "" {
		sub.DisplayName = sub.Name
	}
	return sub, nil
}

func catalogEntry(name, displayName string, order int) domain.Subcategory {
	return domain.Subcategory{Name: name, DisplayName: displayName, IsActive: true, Order: order}
}

var defaultCatalog = []domain.Category{
	{
		ID:          string(domain.TicketCategoryPreventive),
		DisplayName: "Mantenimiento Preventivo",
		Subcategories: []domain.Subcategory{
			catalogEntry("PAINTING", "Pintado de paredes", 1),
			catalogEntry("HVAC", "Cambio de filtros de A/C", 2),
			catalogEntry("GENERATOR", "Prueba de generador eléctrico", 3),
		},
	},
	{
		ID:          string(domain.TicketCategoryCorrective),
		DisplayName: "Mantenimiento Correctivo",
		Subcategories: []domain.Subcategory{
			catalogEntry("HVAC", "Reparación de A/C", 1),
			catalogEntry("ELECTRICAL", "Cambio de bombillas", 2),
			catalogEntry("LOCKS", "Arreglo de cerraduras", 3),
			catalogEntry("PLUMBING", "Reparación de filtraciones", 4),
			catalogEntry("FLOORING", "Reparación de pisos", 5),
		},
	},
	{
		ID:          string(domain.TicketCategoryEmergency),
		DisplayName: "Mantenimiento de Emergencia",
		Subcategories: []domain.Subcategory{
			catalogEntry("ELECTRICAL", "Corte eléctrico", 1),
			catalogEntry("HVAC", "Falla A/C principal", 2),
		},
	},
	{
		ID:          string(domain.TicketCategoryDeferred),
		DisplayName: "Mantenimiento Diferido",
		Subcategories: []domain.Subcategory{
			catalogEntry("STRUCTURE", "Reparación de grietas", 1),
			catalogEntry("FURNITURE", "Cambio de mobiliario", 2),
			catalogEntry("CORROSION", "Retiro de óxido superficial", 3),
			catalogEntry("DOORS", "Ajustes menores en puertas", 4),
		},
	},
	{
		ID:          string(domain.TicketCategoryOther),
		DisplayName: "Otros",
		Subcategories: []domain.Subcategory{
			catalogEntry("OTHER", "Otro", 1),
		},
	},
}
