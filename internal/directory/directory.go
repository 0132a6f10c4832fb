// Package directory answers the person and location lookups used when
// tickets are created and re-assigned.
package directory

import (
	"context"
	"errors"

	"github.com/spec-kit/maintenance-tickets/internal/domain"
	"github.com/spec-kit/maintenance-tickets/internal/repository"
	apperrors "github.com/spec-kit/maintenance-tickets/pkg/util/errorutil"
)

// PersonDirectory resolves people. Find methods return nil without error on a miss.
type PersonDirectory interface {
	FindByID(ctx context.Context, id string) (*domain.Person, error)
	FindByEmail(ctx context.Context, email string) (*domain.Person, error)
	FindByPhone(ctx context.Context, department domain.Department, phone string) (*domain.Person, error)
	Create(ctx context.Context, person *domain.Person) error
	// Invalidate drops any cached lookups that could still answer with people.
	Invalidate(ctx context.Context, people ...*domain.Person) error
}

// LocationDirectory resolves serviced sites. Find methods return nil without error on a miss.
type LocationDirectory interface {
	FindByID(ctx context.Context, locationTypeID, locationID string) (*domain.Location, error)
	FindByPhone(ctx context.Context, phone string) (*domain.Location, error)
	FindByEmailDomain(ctx context.Context, domainName string) (*domain.Location, error)
	Invalidate(ctx context.Context, locations ...*domain.Location) error
}

type storePersonDirectory struct {
	persons repository.PersonRepository
}

// NewPersonDirectory serves lookups straight from the persons collection.
func NewPersonDirectory(persons repository.PersonRepository) PersonDirectory {
	return &storePersonDirectory{persons: persons}
}

func (d *storePersonDirectory) FindByID(ctx context.Context, id string) (*domain.Person, error) {
	person, err := d.persons.GetByID(ctx, id)
	if errors.Is(err, apperrors.ErrRecordNotFound) {
		return nil, nil
	}
	return person, err
}

func (d *storePersonDirectory) FindByEmail(ctx context.Context, email string) (*domain.Person, error) {
	return d.persons.FindByEmail(ctx, email)
}

func (d *storePersonDirectory) FindByPhone(ctx context.Context, department domain.Department, phone string) (*domain.Person, error) {
	return d.persons.FindByPhone(ctx, department, phone)
}

func (d *storePersonDirectory) Create(ctx context.Context, person *domain.Person) error {
	return d.persons.Create(ctx, person)
}

func (d *storePersonDirectory) Invalidate(context.Context, ...*domain.Person) error { return nil }

type storeLocationDirectory struct {
	locations repository.LocationRepository
}

// NewLocationDirectory serves lookups straight from the locations collection.
func NewLocationDirectory(locations repository.LocationRepository) LocationDirectory {
	return &storeLocationDirectory{locations: locations}
}

// FindByID also requires the stored type to match when locationTypeID is given.
func (d *storeLocationDirectory) FindByID(ctx context.Context, locationTypeID, locationID string) (*domain.Location, error) {
	location, err := d.locations.GetByID(ctx, locationID)
	if errors.Is(err, apperrors.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if locationTypeID != "" && location.LocationTypeID != locationTypeID {
		return nil, nil
	}
	return location, nil
}

func (d *storeLocationDirectory) FindByPhone(ctx context.Context, phone string) (*domain.Location, error) {
	return d.locations.FindByPhone(ctx, phone)
}

func (d *storeLocationDirectory) FindByEmailDomain(ctx context.Context, domainName string) (*domain.Location, error) {
	return d.locations.FindByEmailDomain(ctx, domainName)
}

func (d *storeLocationDirectory) Invalidate(context.Context, ...*domain.Location) error { return nil }
