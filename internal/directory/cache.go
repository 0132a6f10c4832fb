package directory

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-tickets/internal/domain"
	"github.com/spec-kit/maintenance-tickets/internal/persistence"
)

const cacheKeyPrefix = "directory:"

// cachedPersonDirectory keeps positive lookups in Redis. Misses are never cached
// so a freshly created person is visible on the next call.
type cachedPersonDirectory struct {
	next   PersonDirectory
	cache  *persistence.Redis
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedPersonDirectory decorates next with a Redis read-through cache.
func NewCachedPersonDirectory(next PersonDirectory, cache *persistence.Redis, ttl time.Duration, logger *zap.Logger) PersonDirectory {
	if cache == nil || ttl <= 0 {
		return next
	}
	return &cachedPersonDirectory{next: next, cache: cache, ttl: ttl, logger: logger}
}

// phoneDepartments are the departments a phone lookup can be keyed under.
var phoneDepartments = []domain.Department{
	"",
	domain.DepartmentMaintenance,
	domain.DepartmentLocation,
	domain.DepartmentAdministration,
}

func personIDKey(id string) string { return cacheKeyPrefix + "person:id:" + id }

func personEmailKey(email string) string {
	return cacheKeyPrefix + "person:email:" + domain.NormalizeEmail(email)
}

func personPhoneKey(department domain.Department, phone string) string {
	return cacheKeyPrefix + "person:phone:" + string(department) + ":" + phone
}

func (d *cachedPersonDirectory) FindByID(ctx context.Context, id string) (*domain.Person, error) {
	return readThrough(ctx, d.cache, d.ttl, d.logger, personIDKey(id), func() (*domain.Person, error) {
		return d.next.FindByID(ctx, id)
	})
}

func (d *cachedPersonDirectory) FindByEmail(ctx context.Context, email string) (*domain.Person, error) {
	return readThrough(ctx, d.cache, d.ttl, d.logger, personEmailKey(email), func() (*domain.Person, error) {
		return d.next.FindByEmail(ctx, email)
	})
}

func (d *cachedPersonDirectory) FindByPhone(ctx context.Context, department domain.Department, phone string) (*domain.Person, error) {
	return readThrough(ctx, d.cache, d.ttl, d.logger, personPhoneKey(department, phone), func() (*domain.Person, error) {
		return d.next.FindByPhone(ctx, department, phone)
	})
}

func (d *cachedPersonDirectory) Create(ctx context.Context, person *domain.Person) error {
	return d.next.Create(ctx, person)
}

// Invalidate evicts the id, email and phone keys of every given snapshot.
// Pass both the stored and the updated person so neither value lingers.
func (d *cachedPersonDirectory) Invalidate(ctx context.Context, people ...*domain.Person) error {
	var keys []string
	for _, p := range people {
		if p == nil {
			continue
		}
		keys = append(keys, personIDKey(p.ID))
		if p.Email != "" {
			keys = append(keys, personEmailKey(p.Email))
		}
		if p.PhoneNumber != "" {
			for _, dept := range phoneDepartments {
				keys = append(keys, personPhoneKey(dept, p.PhoneNumber))
			}
		}
	}
	return d.cache.Delete(ctx, keys...)
}

type cachedLocationDirectory struct {
	next   LocationDirectory
	cache  *persistence.Redis
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedLocationDirectory decorates next with a Redis read-through cache.
func NewCachedLocationDirectory(next LocationDirectory, cache *persistence.Redis, ttl time.Duration, logger *zap.Logger) LocationDirectory {
	if cache == nil || ttl <= 0 {
		return next
	}
	return &cachedLocationDirectory{next: next, cache: cache, ttl: ttl, logger: logger}
}

func (d *cachedLocationDirectory) FindByID(ctx context.Context, locationTypeID, locationID string) (*domain.Location, error) {
	return readThrough(ctx, d.cache, d.ttl, d.logger, locationIDKey(locationTypeID, locationID), func() (*domain.Location, error) {
		return d.next.FindByID(ctx, locationTypeID, locationID)
	})
}

func (d *cachedLocationDirectory) FindByPhone(ctx context.Context, phone string) (*domain.Location, error) {
	return readThrough(ctx, d.cache, d.ttl, d.logger, locationPhoneKey(phone), func() (*domain.Location, error) {
		return d.next.FindByPhone(ctx, phone)
	})
}

func (d *cachedLocationDirectory) FindByEmailDomain(ctx context.Context, domainName string) (*domain.Location, error) {
	return readThrough(ctx, d.cache, d.ttl, d.logger, locationDomainKey(domainName), func() (*domain.Location, error) {
		return d.next.FindByEmailDomain(ctx, domainName)
	})
}

// Invalidate evicts every key a lookup could have cached the locations under,
// including the untyped id key.
func (d *cachedLocationDirectory) Invalidate(ctx context.Context, locations ...*domain.Location) error {
	var keys []string
	for _, l := range locations {
		if l == nil {
			continue
		}
		keys = append(keys, locationIDKey("", l.ID), locationIDKey(l.LocationTypeID, l.ID))
		for _, phone := range l.PhoneNumbers {
			keys = append(keys, locationPhoneKey(phone))
		}
		for _, name := range l.EmailDomains {
			keys = append(keys, locationDomainKey(name))
		}
	}
	return d.cache.Delete(ctx, keys...)
}

func locationIDKey(locationTypeID, locationID string) string {
	return cacheKeyPrefix + "location:id:" + locationTypeID + ":" + locationID
}

func locationPhoneKey(phone string) string { return cacheKeyPrefix + "location:phone:" + phone }

func locationDomainKey(name string) string {
	return cacheKeyPrefix + "location:domain:" + strings.ToLower(strings.TrimSpace(name))
}

// readThrough treats cache errors as misses; the directory stays authoritative.
func readThrough[T any](ctx context.Context, cache *persistence.Redis, ttl time.Duration, logger *zap.Logger, key string, load func() (*T, error)) (*T, error) {
	var cached T
	err := cache.GetJSON(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, persistence.ErrCacheMiss) {
		logger.Debug("directory cache read failed", zap.String("key", key), zap.Error(err))
	}

	value, err := load()
	if err != nil || value == nil {
		return value, err
	}
	if err := cache.SetJSON(ctx, key, value, ttl); err != nil {
		logger.Debug("directory cache write failed", zap.String("key", key), zap.Error(err))
	}
	return value, nil
}
