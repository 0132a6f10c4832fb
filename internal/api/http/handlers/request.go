package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-tickets/internal/api/dto"
	"github.com/spec-kit/maintenance-tickets/internal/domain"
	apperrors "github.com/spec-kit/maintenance-tickets/pkg/util/errorutil"
)

// Actor headers identify who performed a change. Authentication happens
// upstream of this service.
const (
	headerActorID   = "X-Actor-Id"
	headerActorName = "X-Actor-Name"
)

func actorFromRequest(c *fiber.Ctx) domain.Actor {
	return domain.Actor{
		ID:   strings.TrimSpace(c.Get(headerActorID)),
		Name: strings.TrimSpace(c.Get(headerActorName)),
	}
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", map[string]any{"reason": err.Error()})
	}
	return nil
}

func parseTime(val string) (*time.Time, error) {
	if val == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		if day, dayErr := time.Parse(domain.UploadDateLayout, val); dayErr == nil {
			return &day, nil
		}
		return nil, err
	}
	return &t, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func splitList(val string) []string {
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func optionalQuery(c *fiber.Ctx, key string) *string {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return nil
	}
	return &val
}

func locationKey(typeID string, id *string) *domain.LocationKey {
	if id == nil || strings.TrimSpace(*id) == "" {
		return nil
	}
	return &domain.LocationKey{LocationTypeID: strings.TrimSpace(typeID), LocationID: strings.TrimSpace(*id)}
}

// nullableLocation folds the flat locationId/locationTypeId pair into one value.
func nullableLocation(typeID string, id domain.Nullable[string]) domain.Nullable[domain.LocationKey] {
	if !id.Set {
		return domain.Nullable[domain.LocationKey]{}
	}
	key := locationKey(typeID, id.Value)
	if key == nil {
		return domain.Null[domain.LocationKey]()
	}
	return domain.Some(*key)
}

func inlinePersons(in []dto.PersonRequest) []domain.Person {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.Person, 0, len(in))
	for _, p := range in {
		out = append(out, p.Person())
	}
	return out
}
