package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-tickets/internal/config"
	"github.com/spec-kit/maintenance-tickets/internal/directory"
	"github.com/spec-kit/maintenance-tickets/internal/domain"
	"github.com/spec-kit/maintenance-tickets/internal/persistence"
	apperrors "github.com/spec-kit/maintenance-tickets/pkg/util/errorutil"
)

func newCachedDirectories(t *testing.T, env *testEnv) (*miniredis.Miniredis, directory.PersonDirectory, directory.LocationDirectory) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := persistence.NewRedis(config.RedisConfig{Addr: mr.Addr()}, zap.NewNop())
	t.Cleanup(cache.Close)
	persons := directory.NewCachedPersonDirectory(env.personDir, cache, time.Minute, zap.NewNop())
	locations := directory.NewCachedLocationDirectory(env.locationDir, cache, time.Minute, zap.NewNop())
	return mr, persons, locations
}

func TestDeletedPersonStopsResolvingThroughCache(t *testing.T) {
	env := newTestEnv(t)
	mr, persons, locations := newCachedDirectories(t, env)
	svc := NewPersonService(PersonDependencies{PersonRepo: env.persons, Directory: persons})
	resolver := NewAssignmentResolver(persons, locations)
	ctx := context.Background()

	p, err := svc.Create(ctx, PersonInput{FirstName: "Pedro", Email: "pedro@central.com", PhoneNumber: "4455", Department: domain.DepartmentMaintenance})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	ids := domain.Some([]string{p.ID})
	refs, err := resolver.ResolveForUpdate(ctx, ids)
	if err != nil || len(refs) != 1 {
		t.Fatalf("ResolveForUpdate before delete = %d, %v", len(refs), err)
	}
	if !mr.Exists("directory:person:id:" + p.ID) {
		t.Fatal("resolving should have cached the person")
	}

	if err := svc.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if mr.Exists("directory:person:id:" + p.ID) {
		t.Fatal("delete left the cached person behind")
	}
	_, err = resolver.ResolveForUpdate(ctx, ids)
	requireCode(t, err, apperrors.CodeInvalidAssignee)
}

func TestUpdatedPersonEvictsOldLookups(t *testing.T) {
	env := newTestEnv(t)
	_, persons, _ := newCachedDirectories(t, env)
	svc := NewPersonService(PersonDependencies{PersonRepo: env.persons, Directory: persons})
	ctx := context.Background()

	p, err := svc.Create(ctx, PersonInput{FirstName: "Pedro", Email: "pedro@central.com", PhoneNumber: "4455", Department: domain.DepartmentMaintenance})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	// prime every key
	if got, _ := persons.FindByID(ctx, p.ID); got == nil {
		t.Fatal("FindByID miss before update")
	}
	if got, _ := persons.FindByEmail(ctx, "pedro@central.com"); got == nil {
		t.Fatal("FindByEmail miss before update")
	}
	if got, _ := persons.FindByPhone(ctx, domain.DepartmentMaintenance, "4455"); got == nil {
		t.Fatal("FindByPhone miss before update")
	}

	if _, err := svc.Update(ctx, p.ID, UpdatePersonInput{Email: strPtr("pedro.m@central.com"), PhoneNumber: strPtr("7788")}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if got, err := persons.FindByEmail(ctx, "pedro@central.com"); err != nil || got != nil {
		t.Fatalf("old email still resolves: %+v, %v", got, err)
	}
	if got, err := persons.FindByPhone(ctx, domain.DepartmentMaintenance, "4455"); err != nil || got != nil {
		t.Fatalf("old phone still resolves: %+v, %v", got, err)
	}
	got, err := persons.FindByID(ctx, p.ID)
	if err != nil || got == nil || got.Email != "pedro.m@central.com" || got.PhoneNumber != "7788" {
		t.Fatalf("FindByID after update = %+v, %v", got, err)
	}
}

func TestLocationWritesEvictCachedLookups(t *testing.T) {
	env := newTestEnv(t)
	_, _, locations := newCachedDirectories(t, env)
	svc := NewLocationService(env.locations, env.persons, locations, nil)
	ctx := context.Background()

	if _, err := svc.Upsert(ctx, domain.Location{ID: "loc-020", Name: "Oeste", PhoneNumbers: []string{"3030"}, EmailDomains: []string{"Oeste.com"}}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if got, _ := locations.FindByPhone(ctx, "3030"); got == nil {
		t.Fatal("FindByPhone miss before update")
	}
	if got, _ := locations.FindByEmailDomain(ctx, "oeste.com"); got == nil {
		t.Fatal("FindByEmailDomain miss before update")
	}
	if got, _ := locations.FindByID(ctx, "", "loc-020"); got == nil {
		t.Fatal("FindByID miss before update")
	}

	if _, err := svc.Upsert(ctx, domain.Location{ID: "loc-020", Name: "Oeste", PhoneNumbers: []string{"4040"}}); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}
	if got, err := locations.FindByPhone(ctx, "3030"); err != nil || got != nil {
		t.Fatalf("old phone still resolves: %+v, %v", got, err)
	}
	if got, err := locations.FindByEmailDomain(ctx, "oeste.com"); err != nil || got != nil {
		t.Fatalf("dropped domain still resolves: %+v, %v", got, err)
	}
	got, err := locations.FindByID(ctx, directory.DefaultLocationTypeID, "loc-020")
	if err != nil || got == nil || len(got.PhoneNumbers) != 1 || got.PhoneNumbers[0] != "4040" {
		t.Fatalf("FindByID after update = %+v, %v", got, err)
	}

	if err := svc.Delete(ctx, "loc-020"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, err := locations.FindByID(ctx, directory.DefaultLocationTypeID, "loc-020"); err != nil || got != nil {
		t.Fatalf("deleted location still resolves: %+v, %v", got, err)
	}
}
