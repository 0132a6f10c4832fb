package repository

import (
	"context"
	"errors"

	"github.com/spec-kit/maintenance-tickets/internal/docstore"
	"github.com/spec-kit/maintenance-tickets/internal/domain"
	apperrors "github.com/spec-kit/maintenance-tickets/pkg/util/errorutil"
)

// PersonFilter narrows directory listings.
type PersonFilter struct {
	Department        *domain.Department
	Role              *domain.PersonRole
	LocationID        *string
	SearchTerm        *string
	PageSize          int
	ContinuationToken string
}

// PersonRepository persists directory people.
type PersonRepository interface {
	Create(ctx context.Context, person *domain.Person) error
	GetByID(ctx context.Context, id string) (*domain.Person, error)
	Update(ctx context.Context, id string, fields docstore.Patch) (*domain.Person, error)
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, filter PersonFilter) (docstore.Page[domain.Person], error)
	FindByEmail(ctx context.Context, email string) (*domain.Person, error)
	FindByPhone(ctx context.Context, department domain.Department, phone string) (*domain.Person, error)
}

type personRepository struct {
	docs docstore.Collection[domain.Person]
}

// NewPersonRepository creates a repository over the persons collection.
func NewPersonRepository(docs docstore.Collection[domain.Person]) PersonRepository {
	return &personRepository{docs: docs}
}

func (r *personRepository) Create(ctx context.Context, person *domain.Person) error {
	person.Email = domain.NormalizeEmail(person.Email)
	if err := r.docs.Create(ctx, person.ID, person); err != nil {
		if errors.Is(err, docstore.ErrDuplicate) {
			return apperrors.NewConflict("person already exists", map[string]any{"personId": person.ID, "email": person.Email})
		}
		return err
	}
	return nil
}

func (r *personRepository) GetByID(ctx context.Context, id string) (*domain.Person, error) {
	person, err := r.docs.Get(ctx, id)
	if err != nil {
		return nil, personNotFound(id, err)
	}
	return person, nil
}

func (r *personRepository) Update(ctx context.Context, id string, fields docstore.Patch) (*domain.Person, error) {
	if email, ok := fields["email"].(string); ok {
		fields["email"] = domain.NormalizeEmail(email)
	}
	person, err := r.docs.Patch(ctx, id, fields)
	if err != nil {
		if errors.Is(err, docstore.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already in use", map[string]any{"personId": id})
		}
		return nil, personNotFound(id, err)
	}
	return person, nil
}

func (r *personRepository) Delete(ctx context.Context, id string) (bool, error) {
	return r.docs.Delete(ctx, id)
}

func (r *personRepository) List(ctx context.Context, filter PersonFilter) (docstore.Page[domain.Person], error) {
	var conds docstore.Filter
	if filter.Department != nil {
		conds = append(conds, docstore.Eq("department", string(*filter.Department)))
	}
	if filter.Role != nil {
		conds = append(conds, docstore.Eq("role", string(*filter.Role)))
	}
	if filter.LocationID != nil {
		conds = append(conds, docstore.Eq("locationId", *filter.LocationID))
	}
	if filter.SearchTerm != nil && *filter.SearchTerm != "" {
		conds = append(conds, docstore.Search(*filter.SearchTerm, "firstName", "lastName", "email", "phoneNumber"))
	}
	page, err := r.docs.Query(ctx, docstore.Query{
		Filter:            conds,
		Sort:              []docstore.Sort{{Field: "lastName"}, {Field: "firstName"}},
		PageSize:          filter.PageSize,
		ContinuationToken: filter.ContinuationToken,
	})
	if errors.Is(err, docstore.ErrInvalidToken) {
		return page, apperrors.NewValidationError("invalid continuation token", map[string]any{"field": "continuationToken"})
	}
	return page, err
}

// FindByEmail returns nil without error when nobody has the address.
func (r *personRepository) FindByEmail(ctx context.Context, email string) (*domain.Person, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	return r.first(ctx, docstore.Filter{docstore.Eq("email", email)})
}

// FindByPhone returns nil without error when no person in department has the number.
func (r *personRepository) FindByPhone(ctx context.Context, department domain.Department, phone string) (*domain.Person, error) {
	if phone == "" {
		return nil, nil
	}
	return r.first(ctx, docstore.Filter{
		docstore.Eq("phoneNumber", phone),
		docstore.Eq("department", string(department)),
	})
}

func (r *personRepository) first(ctx context.Context, filter docstore.Filter) (*domain.Person, error) {
	page, err := r.docs.Query(ctx, docstore.Query{
		Filter:   filter,
		Sort:     []docstore.Sort{{Field: "createdAt"}},
		PageSize: 1,
	})
	if err != nil {
		return nil, err
	}
	if len(page.Items) == 0 {
		return nil, nil
	}
	return &page.Items[0], nil
}

func personNotFound(id string, err error) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return apperrors.NewNotFound("person", map[string]any{"personId": id})
	}
	return err
}
