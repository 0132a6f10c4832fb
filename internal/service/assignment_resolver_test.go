package service

import (
	"context"
	"reflect"
	"testing"

	"github.com/spec-kit/maintenance-tickets/internal/domain"
	apperrors "github.com/spec-kit/maintenance-tickets/pkg/util/errorutil"
)

func TestResolveForCreateRejectsBothForms(t *testing.T) {
	// A nil directory proves the conflict is detected before any lookup.
	r := NewAssignmentResolver(nil, nil)
	_, err := r.ResolveForCreate(context.Background(), AssigneeInput{
		IDs:    []string{"person-001"},
		Inline: []domain.Person{{Email: "new@tech.com"}},
	})
	requireCode(t, err, apperrors.CodeConflictingAssignee)
}

func TestResolveIDs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	refs, err := env.resolver.ResolveForCreate(ctx, AssigneeInput{IDs: []string{"person-002", "person-001", "person-002"}})
	if err != nil {
		t.Fatalf("ResolveForCreate: %v", err)
	}
	if len(refs) != 2 || refs[0].ID() != "person-002" || refs[1].ID() != "person-001" {
		t.Fatalf("refs = %v", refs)
	}
	if refs[0].Snapshot().FirstName != "Maria" {
		t.Fatalf("snapshot = %+v", refs[0].Snapshot())
	}

	_, err = env.resolver.ResolveForCreate(ctx, AssigneeInput{IDs: []string{"person-001", "ghost-1", "ghost-2"}})
	requireCode(t, err, apperrors.CodeInvalidAssignee)
	details := apperrors.ToDomainError(err).Details
	if !reflect.DeepEqual(details["ids"], []string{"ghost-1", "ghost-2"}) {
		t.Fatalf("details = %+v", details)
	}
}

func TestResolveForUpdateClears(t *testing.T) {
	env := newTestEnv(t)
	for _, in := range []domain.Nullable[[]string]{domain.Null[[]string](), domain.Some([]string{})} {
		refs, err := env.resolver.ResolveForUpdate(context.Background(), in)
		if err != nil || refs == nil || len(refs) != 0 {
			t.Fatalf("ResolveForUpdate(%+v) = %v, %v", in, refs, err)
		}
	}
}

func TestResolveInlineAssignees(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	refs, err := env.resolver.ResolveForCreate(ctx, AssigneeInput{Inline: []domain.Person{
		{Email: "JUAN.RODRIGUEZ@maintenance.com"},
		{Email: "new.tech@contractor.com", LastName: "Perez"},
		{ID: "person-002"},
	}})
	if err != nil {
		t.Fatalf("ResolveForCreate: %v", err)
	}
	if len(refs) != 3 || refs[0].ID() != "person-001" || refs[2].ID() != "person-002" {
		t.Fatalf("refs = %v", refs)
	}
	created := refs[1].Snapshot()
	if created.FirstName != "new.tech" || created.Role != domain.PersonRoleUser || created.Email != "new.tech@contractor.com" {
		t.Fatalf("created person = %+v", created)
	}

	again, err := env.resolver.ResolveForCreate(ctx, AssigneeInput{Inline: []domain.Person{{Email: "new.tech@contractor.com"}}})
	if err != nil || again[0].ID() != created.ID {
		t.Fatalf("second resolve should reuse %s, got %v %v", created.ID, again, err)
	}

	_, err = env.resolver.ResolveForCreate(ctx, AssigneeInput{Inline: []domain.Person{{FirstName: "No Email"}}})
	requireCode(t, err, apperrors.CodeValidation)
}

func TestResolveReporterAndLocation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ref, err := env.resolver.ResolveReporter(ctx, domain.Some("person-003"))
	if err != nil || ref.ID() != "person-003" {
		t.Fatalf("reporter = %v, %v", ref, err)
	}
	ref, err = env.resolver.ResolveReporter(ctx, domain.Null[string]())
	if err != nil || ref.IsSet() {
		t.Fatalf("null reporter = %v, %v", ref, err)
	}
	_, err = env.resolver.ResolveReporter(ctx, domain.Some("nobody"))
	requireCode(t, err, apperrors.CodeValidation)

	loc, err := env.resolver.ResolveLocation(ctx, domain.Some(domain.LocationKey{LocationTypeID: "building", LocationID: "loc-002"}))
	if err != nil || loc.ID() != "loc-002" {
		t.Fatalf("location = %v, %v", loc, err)
	}
	_, err = env.resolver.ResolveLocation(ctx, domain.Some(domain.LocationKey{LocationTypeID: "parking", LocationID: "loc-002"}))
	requireCode(t, err, apperrors.CodeInvalidLocation)
}
