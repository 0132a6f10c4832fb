package repository

import (
	"context"
	"errors"

	"github.com/spec-kit/maintenance-tickets/internal/docstore"
	"github.com/spec-kit/maintenance-tickets/internal/domain"
	apperrors "github.com/spec-kit/maintenance-tickets/pkg/util/errorutil"
)

// CategoryRepository persists the category catalog.
type CategoryRepository interface {
	Get(ctx context.Context, id string) (*domain.Category, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Category, error)
	Save(ctx context.Context, category *domain.Category) (*domain.Category, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type categoryRepository struct {
	docs docstore.Collection[domain.Category]
}

func NewCategoryRepository(docs docstore.Collection[domain.Category]) CategoryRepository {
	return &categoryRepository{docs: docs}
}

func (r *categoryRepository) Get(ctx context.Context, id string) (*domain.Category, error) {
	category, err := r.docs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, apperrors.NewNotFound("category", map[string]any{"categoryId": id})
		}
		return nil, err
	}
	return category, nil
}

func (r *categoryRepository) List(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	var filter docstore.Filter
	if activeOnly {
		filter = append(filter, docstore.Eq("isActive", true))
	}
	var out []domain.Category
	err := docstore.Each(ctx, r.docs, docstore.Query{
		Filter:   filter,
		Sort:     []docstore.Sort{{Field: "displayName"}},
		PageSize: docstore.MaxPageSize,
	}, func(c domain.Category) error {
		out = append(out, c)
		return nil
	})
	return out, err
}

// Save creates the category or replaces the stored document.
func (r *categoryRepository) Save(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	out, err := r.docs.Replace(ctx, category.ID, category)
	if errors.Is(err, docstore.ErrNotFound) {
		if err := r.docs.Create(ctx, category.ID, category); err != nil {
			return nil, err
		}
		return category, nil
	}
	return out, err
}

func (r *categoryRepository) Delete(ctx context.Context, id string) (bool, error) {
	return r.docs.Delete(ctx, id)
}
