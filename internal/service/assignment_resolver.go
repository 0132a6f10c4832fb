package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/maintenance-tickets/internal/directory"
	"github.com/spec-kit/maintenance-tickets/internal/domain"
	apperrors "github.com/spec-kit/maintenance-tickets/pkg/util/errorutil"
)

// lookupConcurrency bounds parallel directory reads for one request.
const lookupConcurrency = 4

// AssigneeInput carries assignees either by id or as inline person records, never both.
type AssigneeInput struct {
	IDs    []string
	Inline []domain.Person
}

// AssignmentResolver turns ids and inline records into id/snapshot references.
type AssignmentResolver struct {
	persons   directory.PersonDirectory
	locations directory.LocationDirectory
	now       func() time.Time
}

// NewAssignmentResolver constructs the resolver.
func NewAssignmentResolver(persons directory.PersonDirectory, locations directory.LocationDirectory) *AssignmentResolver {
	return &AssignmentResolver{persons: persons, locations: locations, now: time.Now}
}

// ResolveForCreate rejects input carrying both forms before touching the directory.
// Inline records are matched by email and created when unknown so every
// assignee ends up with a directory id.
func (r *AssignmentResolver) ResolveForCreate(ctx context.Context, in AssigneeInput) ([]domain.Ref[domain.Person], error) {
	if len(in.IDs) > 0 && len(in.Inline) > 0 {
		return nil, apperrors.NewConflictingAssigneeInput()
	}
	if len(in.IDs) > 0 {
		return r.resolveIDs(ctx, in.IDs)
	}
	refs := make([]domain.Ref[domain.Person], 0, len(in.Inline))
	seen := map[string]bool{}
	for i := range in.Inline {
		person, err := r.ensureInline(ctx, in.Inline[i])
		if err != nil {
			return nil, err
		}
		if seen[person.ID] {
			continue
		}
		seen[person.ID] = true
		refs = append(refs, domain.PersonRef(person))
	}
	return refs, nil
}

// ResolveForUpdate maps an explicit null or empty list to no assignees.
// Any unknown id fails the whole call and names every offending id.
func (r *AssignmentResolver) ResolveForUpdate(ctx context.Context, ids domain.Nullable[[]string]) ([]domain.Ref[domain.Person], error) {
	if ids.Value == nil || len(*ids.Value) == 0 {
		return []domain.Ref[domain.Person]{}, nil
	}
	return r.resolveIDs(ctx, *ids.Value)
}

// ResolveReporter re-fetches the reporter snapshot; null or blank clears it.
func (r *AssignmentResolver) ResolveReporter(ctx context.Context, id domain.Nullable[string]) (domain.Ref[domain.Person], error) {
	if id.Value == nil || strings.TrimSpace(*id.Value) == "" {
		return domain.Ref[domain.Person]{}, nil
	}
	person, err := r.persons.FindByID(ctx, strings.TrimSpace(*id.Value))
	if err != nil {
		return domain.Ref[domain.Person]{}, err
	}
	if person == nil {
		return domain.Ref[domain.Person]{}, apperrors.NewInvalidReporter(*id.Value)
	}
	return domain.PersonRef(person), nil
}

// ResolveLocation resolves a {locationTypeId, locationId} pair; null clears it.
func (r *AssignmentResolver) ResolveLocation(ctx context.Context, key domain.Nullable[domain.LocationKey]) (domain.Ref[domain.Location], error) {
	if key.Value == nil || key.Value.LocationID == "" {
		return domain.Ref[domain.Location]{}, nil
	}
	location, err := r.locations.FindByID(ctx, key.Value.LocationTypeID, key.Value.LocationID)
	if err != nil {
		return domain.Ref[domain.Location]{}, err
	}
	if location == nil {
		return domain.Ref[domain.Location]{}, apperrors.NewInvalidLocation(key.Value.LocationTypeID, key.Value.LocationID)
	}
	return domain.LocationRef(location), nil
}

func (r *AssignmentResolver) resolveIDs(ctx context.Context, ids []string) ([]domain.Ref[domain.Person], error) {
	ids = uniqueIDs(ids)
	found := make([]*domain.Person, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupConcurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			person, err := r.persons.FindByID(gctx, id)
			if err != nil {
				return err
			}
			found[i] = person
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var missing []string
	refs := make([]domain.Ref[domain.Person], 0, len(ids))
	for i, person := range found {
		if person == nil {
			missing = append(missing, ids[i])
			continue
		}
		refs = append(refs, domain.PersonRef(person))
	}
	if len(missing) > 0 {
		return nil, apperrors.NewInvalidAssignee(missing)
	}
	return refs, nil
}

func (r *AssignmentResolver) ensureInline(ctx context.Context, in domain.Person) (*domain.Person, error) {
	if in.ID != "" {
		person, err := r.persons.FindByID(ctx, in.ID)
		if err != nil {
			return nil, err
		}
		if person == nil {
			return nil, apperrors.NewInvalidAssignee([]string{in.ID})
		}
		return person, nil
	}
	email := domain.NormalizeEmail(in.Email)
	if email == "" {
		return nil, apperrors.NewValidationError("inline assignee requires an id or email", map[string]any{"field": "assignees"})
	}
	return ensurePerson(ctx, r.persons, in, r.now())
}

// ensurePerson finds a person by email or creates one from in. A concurrent
// create of the same email surfaces as a conflict and is re-read.
func ensurePerson(ctx context.Context, persons directory.PersonDirectory, in domain.Person, now time.Time) (*domain.Person, error) {
	email := domain.NormalizeEmail(in.Email)
	existing, err := persons.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
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
		CreatedAt:      now.UTC(),
		UpdatedAt:      now.UTC(),
	}
	if person.Role == "" {
		person.Role = domain.PersonRoleUser
	}
	if person.FirstName == "" {
		person.FirstName, _, _ = strings.Cut(email, "@")
	}
	if err := persons.Create(ctx, person); err != nil {
		if !apperrors.HasCode(err, apperrors.CodeConflict) {
			return nil, err
		}
		existing, lookupErr := persons.FindByEmail(ctx, email)
		if lookupErr != nil || existing == nil {
			return nil, err
		}
		return existing, nil
	}
	return person, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
