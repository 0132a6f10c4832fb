package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-tickets/internal/directory"
	"github.com/spec-kit/maintenance-tickets/internal/domain"
	"github.com/spec-kit/maintenance-tickets/internal/repository"
	apperrors "github.com/spec-kit/maintenance-tickets/pkg/util/errorutil"
)

// LocationService manages serviced sites.
type LocationService struct {
	locations repository.LocationRepository
	persons   repository.PersonRepository
	directory directory.LocationDirectory
	logger    *zap.Logger
	now       func() time.Time
}

// NewLocationService constructs the service. persons is only needed by
// SeedDefaults; dir is the directory whose cached lookups writes evict.
func NewLocationService(locations repository.LocationRepository, persons repository.PersonRepository, dir directory.LocationDirectory, logger *zap.Logger) *LocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir == nil {
		dir = directory.NewLocationDirectory(locations)
	}
	return &LocationService{locations: locations, persons: persons, directory: dir, logger: logger, now: time.Now}
}

// Upsert creates or replaces a location.
func (s *LocationService) Upsert(ctx context.Context, location domain.Location) (*domain.Location, error) {
	location.ID = strings.TrimSpace(location.ID)
	location.Name = strings.TrimSpace(location.Name)
	if location.ID == "" {
		return nil, apperrors.NewValidationError("id is required", map[string]any{"field": "id"})
	}
	if location.Name == "" {
		return nil, apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}
	if location.LocationTypeID == "" {
		location.LocationTypeID = directory.DefaultLocationTypeID
	}
	if location.PhoneNumbers == nil {
		location.PhoneNumbers = []string{}
	}
	if location.EmailDomains == nil {
		location.EmailDomains = []string{}
	}
	before, err := s.locations.GetByID(ctx, location.ID)
	if err != nil && !errors.Is(err, apperrors.ErrRecordNotFound) {
		return nil, err
	}
	now := s.now().UTC()
	location.CreatedAt = now
	location.UpdatedAt = now
	saved, err := s.locations.Upsert(ctx, &location)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, before, saved)
	return saved, nil
}

// Get returns the location when it exists under locationTypeID. An empty
// type matches any.
func (s *LocationService) Get(ctx context.Context, locationTypeID, id string) (*domain.Location, error) {
	location, err := s.locations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if locationTypeID != "" && location.LocationTypeID != locationTypeID {
		return nil, apperrors.NewNotFound("location", map[string]any{"locationTypeId": locationTypeID, "locationId": id})
	}
	return location, nil
}

// List returns every location, optionally of one type.
func (s *LocationService) List(ctx context.Context, locationTypeID string) ([]domain.Location, error) {
	out, err := s.locations.List(ctx, locationTypeID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Location{}
	}
	return out, nil
}

// Delete removes a location.
func (s *LocationService) Delete(ctx context.Context, id string) error {
	before, err := s.locations.GetByID(ctx, id)
	if err != nil {
		return err
	}
	deleted, err := s.locations.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperrors.NewNotFound("location", map[string]any{"locationId": id})
	}
	s.invalidate(ctx, before)
	return nil
}

func (s *LocationService) invalidate(ctx context.Context, locations ...*domain.Location) {
	if err := s.directory.Invalidate(ctx, locations...); err != nil {
		s.logger.Warn("location directory invalidation failed", zap.Error(err))
	}
}

// SeedDefaults loads the phone-system sites and contacts. Running it twice is harmless.
func (s *LocationService) SeedDefaults(ctx context.Context) error {
	return directory.Seed(ctx, s.persons, s.locations, s.logger)
}
