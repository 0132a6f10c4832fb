package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/maintenance-tickets/internal/directory"
	"github.com/spec-kit/maintenance-tickets/internal/docstore"
	"github.com/spec-kit/maintenance-tickets/internal/domain"
	"github.com/spec-kit/maintenance-tickets/internal/repository"
	apperrors "github.com/spec-kit/maintenance-tickets/pkg/util/errorutil"
)

// PersonService owns the person directory.
type PersonService struct {
	persons     repository.PersonRepository
	directory   directory.PersonDirectory
	logger      *zap.Logger
	concurrency int
	now         func() time.Time
}

// PersonDependencies bundles collaborators for the person service.
type PersonDependencies struct {
	PersonRepo      repository.PersonRepository
	Directory       directory.PersonDirectory
	Logger          *zap.Logger
	BulkConcurrency int
}

// PersonInput carries the writable person fields.
type PersonInput struct {
	FirstName      string
	LastName       string
	PhoneNumber    string
	Email          string
	Role           domain.PersonRole
	Department     domain.Department
	LocationID     string
	LocationTypeID string
}

// UpdatePersonInput lists optional person changes.
type UpdatePersonInput struct {
	FirstName      *string
	LastName       *string
	PhoneNumber    *string
	Email          *string
	Role           *domain.PersonRole
	Department     *domain.Department
	LocationID     *string
	LocationTypeID *string
}

// BulkFailure describes one rejected entry of a bulk create.
type BulkFailure struct {
	Index int    `json:"index"`
	Email string `json:"email,omitempty"`
	Error string `json:"error"`
}

// BulkCreateResult reports a bulk create.
type BulkCreateResult struct {
	Succeeded []domain.Person `json:"succeeded"`
	Failed    []BulkFailure   `json:"failed"`
}

// NewPersonService constructs the service.
func NewPersonService(deps PersonDependencies) *PersonService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dir := deps.Directory
	if dir == nil {
		dir = directory.NewPersonDirectory(deps.PersonRepo)
	}
	concurrency := deps.BulkConcurrency
	if concurrency <= 0 {
		concurrency = DefaultBulkConcurrency
	}
	return &PersonService{
		persons:     deps.PersonRepo,
		directory:   dir,
		logger:      logger,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// Create adds a person. A second person with the same email is a conflict.
func (s *PersonService) Create(ctx context.Context, in PersonInput) (*domain.Person, error) {
	if err := validatePersonInput(in); err != nil {
		return nil, err
	}
	email := domain.NormalizeEmail(in.Email)
	if email != "" {
		existing, err := s.persons.FindByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, apperrors.NewConflict("email already in use", map[string]any{"email": email, "personId": existing.ID})
		}
	}
	now := s.now().UTC()
	person := &domain.Person{
		ID:             uuid.NewString(),
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		PhoneNumber:    strings.TrimSpace(in.PhoneNumber),
		Email:          email,
		Role:           in.Role,
		Department:     in.Department,
		LocationID:     in.LocationID,
		LocationTypeID: in.LocationTypeID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if person.Role == "" {
		person.Role = domain.PersonRoleUser
	}
	if err := s.persons.Create(ctx, person); err != nil {
		return nil, err
	}
	return person, nil
}

// Get returns a person by id.
func (s *PersonService) Get(ctx context.Context, id string) (*domain.Person, error) {
	return s.persons.GetByID(ctx, id)
}

// FindByEmail returns NOT_FOUND when nobody has the address.
func (s *PersonService) FindByEmail(ctx context.Context, email string) (*domain.Person, error) {
	person, err := s.persons.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if person == nil {
		return nil, apperrors.NewNotFound("person", map[string]any{"email": domain.NormalizeEmail(email)})
	}
	return person, nil
}

// EnsureByEmail returns the person with in.Email, creating one when missing.
func (s *PersonService) EnsureByEmail(ctx context.Context, in PersonInput) (*domain.Person, error) {
	if domain.NormalizeEmail(in.Email) == "" {
		return nil, apperrors.NewValidationError("email is required", map[string]any{"field": "email"})
	}
	return ensurePerson(ctx, s.directory, domain.Person{
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		PhoneNumber:    in.PhoneNumber,
		Email:          in.Email,
		Role:           in.Role,
		Department:     in.Department,
		LocationID:     in.LocationID,
		LocationTypeID: in.LocationTypeID,
	}, s.now())
}

// Update applies the provided fields.
func (s *PersonService) Update(ctx context.Context, id string, in UpdatePersonInput) (*domain.Person, error) {
	fields := docstore.Patch{}
	if in.FirstName != nil {
		if strings.TrimSpace(*in.FirstName) == "" {
			return nil, apperrors.NewValidationError("firstName cannot be empty", map[string]any{"field": "firstName"})
		}
		fields["firstName"] = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		fields["lastName"] = strings.TrimSpace(*in.LastName)
	}
	if in.PhoneNumber != nil {
		fields["phoneNumber"] = strings.TrimSpace(*in.PhoneNumber)
	}
	if in.Email != nil {
		email := domain.NormalizeEmail(*in.Email)
		if email != "" {
			existing, err := s.persons.FindByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if existing != nil && existing.ID != id {
				return nil, apperrors.NewConflict("email already in use", map[string]any{"email": email, "personId": existing.ID})
			}
		}
		fields["email"] = email
	}
	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"field": "role", "value": *in.Role})
		}
		fields["role"] = string(*in.Role)
	}
	if in.Department != nil {
		if *in.Department != "" && !in.Department.Valid() {
			return nil, apperrors.NewValidationError("invalid department", map[string]any{"field": "department", "value": *in.Department})
		}
		fields["department"] = string(*in.Department)
	}
	if in.LocationID != nil {
		fields["locationId"] = *in.LocationID
	}
	if in.LocationTypeID != nil {
		fields["locationTypeId"] = *in.LocationTypeID
	}
	if len(fields) == 0 {
		return s.persons.GetByID(ctx, id)
	}
	before, err := s.persons.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.persons.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, before, updated)
	return updated, nil
}

// Delete removes a person.
func (s *PersonService) Delete(ctx context.Context, id string) error {
	before, err := s.persons.GetByID(ctx, id)
	if err != nil {
		return err
	}
	deleted, err := s.persons.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperrors.NewNotFound("person", map[string]any{"personId": id})
	}
	s.invalidate(ctx, before)
	return nil
}

// invalidate never fails the write. A failed eviction leaves the entry until its TTL.
func (s *PersonService) invalidate(ctx context.Context, people ...*domain.Person) {
	if err := s.directory.Invalidate(ctx, people...); err != nil {
		s.logger.Warn("person directory invalidation failed", zap.Error(err))
	}
}

// List returns one page of people.
func (s *PersonService) List(ctx context.Context, filter repository.PersonFilter) (docstore.Page[domain.Person], error) {
	return s.persons.List(ctx, filter)
}

// BulkCreate creates every entry independently. Failed entries are reported
// by input index and never stop the others.
func (s *PersonService) BulkCreate(ctx context.Context, inputs []PersonInput) BulkCreateResult {
	created := make([]*domain.Person, len(inputs))
	errs := make([]error, len(inputs))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i := range inputs {
		i := i
		g.Go(func() error {
			created[i], errs[i] = s.Create(ctx, inputs[i])
			return nil
		})
	}
	_ = g.Wait()

	result := BulkCreateResult{Succeeded: []domain.Person{}, Failed: []BulkFailure{}}
	for i := range inputs {
		if errs[i] != nil {
			result.Failed = append(result.Failed, BulkFailure{
				Index: i,
				Email: domain.NormalizeEmail(inputs[i].Email),
				Error: apperrors.ToDomainError(errs[i]).Message,
			})
			continue
		}
		result.Succeeded = append(result.Succeeded, *created[i])
	}
	if len(result.Failed) > 0 {
		s.logger.Warn("bulk person create had failures",
			zap.Int("succeeded", len(result.Succeeded)), zap.Int("failed", len(result.Failed)))
	}
	return result
}

func validatePersonInput(in PersonInput) error {
	if strings.TrimSpace(in.FirstName) == "" {
		return apperrors.NewValidationError("firstName is required", map[string]any{"field": "firstName"})
	}
	if in.Role != "" && !in.Role.Valid() {
		return apperrors.NewValidationError("invalid role", map[string]any{"field": "role", "value": in.Role})
	}
	if in.Department != "" && !in.Department.Valid() {
		return apperrors.NewValidationError("invalid department", map[string]any{"field": "department", "value": in.Department})
	}
	if email := domain.NormalizeEmail(in.Email); email != "" && domain.EmailDomain(email) == "" {
		return apperrors.NewValidationError("invalid email", map[string]any{"field": "email"})
	}
	return nil
}
