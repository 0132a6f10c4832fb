package directory

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-tickets/internal/domain"
	"github.com/spec-kit/maintenance-tickets/internal/repository"
	apperrors "github.com/spec-kit/maintenance-tickets/pkg/util/errorutil"
)

// DefaultLocationTypeID is the location type the seeded sites belong to.
const DefaultLocationTypeID = "building"

// FixtureLocations are the sites known to the phone system.
func FixtureLocations() []domain.Location {
	return []domain.Location{
		{
			ID:             "loc-001",
			LocationTypeID: DefaultLocationTypeID,
			Name:           "Edificio Central",
			Address:        "Av. Principal 123",
			PhoneNumbers:   []string{"7866516455", "7865551234", "7865555678"},
			EmailDomains:   []string{"central.com"},
		},
		{
			ID:             "loc-002",
			LocationTypeID: DefaultLocationTypeID,
			Name:           "Oficina Norte",
			Address:        "Calle Norte 456",
			PhoneNumbers:   []string{"3058795229", "3055551111"},
			EmailDomains:   []string{"norte.com"},
		},
		{
			ID:             "loc-003",
			LocationTypeID: DefaultLocationTypeID,
			Name:           "Sucursal Sur",
			Address:        "Av. Sur 789",
			PhoneNumbers:   []string{"5638", "1234"},
			EmailDomains:   []string{"sur.com"},
		},
		{
			ID:             "loc-004",
			LocationTypeID: DefaultLocationTypeID,
			Name:           "Centro de Mantenimiento",
			Address:        "Zona Industrial 101",
			PhoneNumbers:   []string{"3055559999", "3055558888"},
			EmailDomains:   []string{},
		},
	}
}

// FixturePersons are the brigade members and location contacts known to the phone system.
func FixturePersons() []domain.Person {
	return []domain.Person{
		{
			ID:          "person-001",
			FirstName:   "Juan",
			LastName:    "Rodriguez",
			PhoneNumber: "7866516455",
			Email:       "juan.rodriguez@maintenance.com",
			Role:        domain.PersonRoleTechnician,
			Department:  domain.DepartmentMaintenance,
		},
		{
			ID:          "person-002",
			FirstName:   "Maria",
			LastName:    "Gonzalez",
			PhoneNumber: "3058795229",
			Email:       "maria.gonzalez@maintenance.com",
			Role:        domain.PersonRoleSupervisor,
			Department:  domain.DepartmentMaintenance,
		},
		{
			ID:             "person-003",
			FirstName:      "Carlos",
			LastName:       "Martinez",
			PhoneNumber:    "5638",
			Email:          "carlos@central.com",
			Role:           domain.PersonRoleUser,
			Department:     domain.DepartmentLocation,
			LocationID:     "loc-001",
			LocationTypeID: DefaultLocationTypeID,
		},
		{
			ID:             "person-004",
			FirstName:      "Ana",
			LastName:       "Lopez",
			PhoneNumber:    "1234",
			Email:          "ana@norte.com",
			Role:           domain.PersonRoleUser,
			Department:     domain.DepartmentLocation,
			LocationID:     "loc-002",
			LocationTypeID: DefaultLocationTypeID,
		},
	}
}

// Seed writes the fixture locations and persons, leaving existing persons untouched.
func Seed(ctx context.Context, persons repository.PersonRepository, locations repository.LocationRepository, logger *zap.Logger) error {
	now := time.Now().UTC()
	for _, loc := range FixtureLocations() {
		loc := loc
		loc.CreatedAt, loc.UpdatedAt = now, now
		if _, err := locations.Upsert(ctx, &loc); err != nil {
			return err
		}
	}
	created := 0
	for _, p := range FixturePersons() {
		p := p
		p.CreatedAt, p.UpdatedAt = now, now
		if err := persons.Create(ctx, &p); err != nil {
			if apperrors.HasCode(err, apperrors.CodeConflict) {
				continue
			}
			return err
		}
		created++
	}
	logger.Info("directory fixtures seeded", zap.Int("locations", len(FixtureLocations())), zap.Int("persons_created", created))
	return nil
}
