package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/maintenance-tickets/internal/docstore"
	"github.com/spec-kit/maintenance-tickets/internal/domain"
	apperrors "github.com/spec-kit/maintenance-tickets/pkg/util/errorutil"
)

// LocationRepository persists serviced sites.
type LocationRepository interface {
	Upsert(ctx context.Context, location *domain.Location) (*domain.Location, error)
	GetByID(ctx context.Context, id string) (*domain.Location, error)
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, locationTypeID string) ([]domain.Location, error)
	FindByPhone(ctx context.Context, phone string) (*domain.Location, error)
	FindByEmailDomain(ctx context.Context, domainName string) (*domain.Location, error)
}

type locationRepository struct {
	docs docstore.Collection[domain.Location]
}

func NewLocationRepository(docs docstore.Collection[domain.Location]) LocationRepository {
	return &locationRepository{docs: docs}
}

// Upsert replaces an existing location or creates it, keeping the original createdAt.
func (r *locationRepository) Upsert(ctx context.Context, location *domain.Location) (*domain.Location, error) {
	for i, d := range location.EmailDomains {
		location.EmailDomains[i] = strings.ToLower(strings.TrimSpace(d))
	}
	existing, err := r.docs.Get(ctx, location.ID)
	switch {
	case err == nil:
		location.CreatedAt = existing.CreatedAt
		return r.docs.Replace(ctx, location.ID, location)
	case errors.Is(err, docstore.ErrNotFound):
		if err := r.docs.Create(ctx, location.ID, location); err != nil {
			return nil, err
		}
		return location, nil
	default:
		return nil, err
	}
}

func (r *locationRepository) GetByID(ctx context.Context, id string) (*domain.Location, error) {
	location, err := r.docs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, apperrors.NewNotFound("location", map[string]any{"locationId": id})
		}
		return nil, err
	}
	return location, nil
}

func (r *locationRepository) Delete(ctx context.Context, id string) (bool, error) {
	return r.docs.Delete(ctx, id)
}

func (r *locationRepository) List(ctx context.Context, locationTypeID string) ([]domain.Location, error) {
	var filter docstore.Filter
	if locationTypeID != "" {
		filter = append(filter, docstore.Eq("locationTypeId", locationTypeID))
	}
	var out []domain.Location
	err := docstore.Each(ctx, r.docs, docstore.Query{
		Filter:   filter,
		Sort:     []docstore.Sort{{Field: "name"}},
		PageSize: docstore.MaxPageSize,
	}, func(l domain.Location) error {
		out = append(out, l)
		return nil
	})
	return out, err
}

func (r *locationRepository) FindByPhone(ctx context.Context, phone string) (*domain.Location, error) {
	if phone == "" {
		return nil, nil
	}
	return r.first(ctx, docstore.Contains("phoneNumbers", phone))
}

func (r *locationRepository) FindByEmailDomain(ctx context.Context, domainName string) (*domain.Location, error) {
	domainName = strings.ToLower(strings.TrimSpace(domainName))
	if domainName == "" {
		return nil, nil
	}
	return r.first(ctx, docstore.Contains("emailDomains", domainName))
}

func (r *locationRepository) first(ctx context.Context, cond docstore.Condition) (*domain.Location, error) {
	page, err := r.docs.Query(ctx, docstore.Query{
		Filter:   docstore.Filter{cond},
		Sort:     []docstore.Sort{{Field: "createdAt"}},
		PageSize: 1,
	})
	if err != nil || len(page.Items) == 0 {
		return nil, err
	}
	return &page.Items[0], nil
}
