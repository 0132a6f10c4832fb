// Package docstore is the document repository used by every collection in the
// service. Backends store whole JSON/BSON documents keyed by id and support
// field-level patches and filtered, paginated queries.
package docstore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/spec-kit/maintenance-tickets/pkg/util/errorutil"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 500

	// FieldUpdatedAt is stamped by every Patch.
	FieldUpdatedAt = "updatedAt"
)

var (
	ErrNotFound     = apperrors.ErrRecordNotFound
	ErrDuplicate    = errors.New("document already exists")
	ErrInvalidToken = errors.New("invalid continuation token")
	ErrInvalidField = errors.New("invalid field name")
)

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// Patch is a set of top-level field assignments keyed by persisted field name.
type Patch map[string]any

// Sort orders query results by a single field.
type Sort struct {
	Field string
	Desc  bool
}

// Query describes a filtered page request.
type Query struct {
	Filter            Filter
	Sort              []Sort
	PageSize          int
	ContinuationToken string
}

// Page is one page of query results.
type Page[T any] struct {
	Items             []T
	ContinuationToken string
}

// Collection is a typed document collection.
type Collection[T any] interface {
	Create(ctx context.Context, id string, doc *T) error
	Get(ctx context.Context, id string) (*T, error)
	Patch(ctx context.Context, id string, fields Patch) (*T, error)
	Replace(ctx context.Context, id string, doc *T) (*T, error)
	Delete(ctx context.Context, id string) (bool, error)
	Query(ctx context.Context, q Query) (Page[T], error)
}

// Each walks every page of q, calling fn for each document until fn fails.
func Each[T any](ctx context.Context, c Collection[T], q Query, fn func(T) error) error {
	for {
		page, err := c.Query(ctx, q)
		if err != nil {
			return err
		}
		for _, item := range page.Items {
			if err := fn(item); err != nil {
				return err
			}
		}
		if page.ContinuationToken == "" {
			return nil
		}
		q.ContinuationToken = page.ContinuationToken
	}
}

func withUpdatedAt(fields Patch, now time.Time) Patch {
	out := make(Patch, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out[FieldUpdatedAt] = now.UTC()
	return out
}

func validatePatch(fields Patch) error {
	for key := range fields {
		if !fieldNamePattern.MatchString(key) || strings.Contains(key, ".") {
			return fmt.Errorf("%w: %q", ErrInvalidField, key)
		}
	}
	return nil
}

func validateField(field string) error {
	if !fieldNamePattern.MatchString(field) {
		return fmt.Errorf("%w: %q", ErrInvalidField, field)
	}
	return nil
}

func pageSize(size int) int {
	switch {
	case size <= 0:
		return DefaultPageSize
	case size > MaxPageSize:
		return MaxPageSize
	}
	return size
}

// encodeToken and decodeToken keep continuation tokens opaque to callers.
func encodeToken(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte("o:" + strconv.Itoa(offset)))
}

func decodeToken(token string) (int, error) {
	if token == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) < 3 || string(raw[:2]) != "o:" {
		return 0, ErrInvalidToken
	}
	offset, err := strconv.Atoi(string(raw[2:]))
	if err != nil || offset < 0 {
		return 0, ErrInvalidToken
	}
	return offset, nil
}

func nextToken(offset, size, fetched int) string {
	if fetched <= size {
		return ""
	}
	return encodeToken(offset + size)
}
