package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryCollection keeps JSON-encoded documents in process. It backs tests and
// the DOCUMENT_STORE=memory development mode.
type MemoryCollection[T any] struct {
	mu   sync.RWMutex
	docs map[string][]byte
	now  func() time.Time
}

func NewMemoryCollection[T any]() *MemoryCollection[T] {
	return &MemoryCollection[T]{docs: make(map[string][]byte), now: time.Now}
}

func (c *MemoryCollection[T]) Create(_ context.Context, id string, doc *T) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.docs[id]; exists {
		return ErrDuplicate
	}
	c.docs[id] = body
	return nil
}

func (c *MemoryCollection[T]) Get(_ context.Context, id string) (*T, error) {
	c.mu.RLock()
	body, ok := c.docs[id]
	c.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decodeMemory[T](body)
}

func (c *MemoryCollection[T]) Patch(_ context.Context, id string, fields Patch) (*T, error) {
	if err := validatePatch(fields); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	body, ok := c.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	var current map[string]json.RawMessage
	if err := json.Unmarshal(body, &current); err != nil {
		return nil, err
	}
	for k, v := range withUpdatedAt(fields, c.now()) {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode patch field %s: %w", k, err)
		}
		current[k] = raw
	}
	merged, err := json.Marshal(current)
	if err != nil {
		return nil, err
	}
	c.docs[id] = merged
	return decodeMemory[T](merged)
}

func (c *MemoryCollection[T]) Replace(_ context.Context, id string, doc *T) (*T, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.docs[id]; !ok {
		return nil, ErrNotFound
	}
	c.docs[id] = body
	return decodeMemory[T](body)
}

func (c *MemoryCollection[T]) Delete(_ context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.docs[id]; !ok {
		return false, nil
	}
	delete(c.docs, id)
	return true, nil
}

func (c *MemoryCollection[T]) Query(_ context.Context, q Query) (Page[T], error) {
	offset, err := decodeToken(q.ContinuationToken)
	if err != nil {
		return Page[T]{}, err
	}
	if err := q.Filter.validate(); err != nil {
		return Page[T]{}, err
	}
	for _, s := range q.Sort {
		if err := validateField(s.Field); err != nil {
			return Page[T]{}, err
		}
	}

	type entry struct {
		id   string
		body []byte
		doc  map[string]any
	}
	c.mu.RLock()
	matched := make([]entry, 0, len(c.docs))
	for id, body := range c.docs {
		var doc map[string]any
		if err := json.Unmarshal(body, &doc); err != nil {
			c.mu.RUnlock()
			return Page[T]{}, err
		}
		if matchesMemory(doc, q.Filter) {
			matched = append(matched, entry{id: id, body: body, doc: doc})
		}
	}
	c.mu.RUnlock()

	sorts := q.Sort
	if len(sorts) == 0 {
		sorts = []Sort{{Field: "createdAt", Desc: true}}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		for _, s := range sorts {
			cmp := compareMemory(lookupField(matched[i].doc, s.Field), lookupField(matched[j].doc, s.Field))
			if cmp == 0 {
				continue
			}
			if s.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return matched[i].id < matched[j].id
	})

	size := pageSize(q.PageSize)
	items := make([]T, 0, size)
	end := offset + size
	for i := offset; i < len(matched) && i < end; i++ {
		item, err := decodeMemory[T](matched[i].body)
		if err != nil {
			return Page[T]{}, err
		}
		items = append(items, *item)
	}
	fetched := 0
	if len(matched) > offset {
		fetched = len(matched) - offset
	}
	return Page[T]{Items: items, ContinuationToken: nextToken(offset, size, fetched)}, nil
}

// Len reports the number of stored documents.
func (c *MemoryCollection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

func decodeMemory[T any](body []byte) (*T, error) {
	var doc T
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}

func matchesMemory(doc map[string]any, filter Filter) bool {
	for _, cond := range filter {
		value, present := lookupFieldOK(doc, cond.Field)
		switch cond.Op {
		case OpEq:
			if !present || !reflect.DeepEqual(value, normalizeJSON(cond.Value)) {
				return false
			}
		case OpIn:
			s, ok := value.(string)
			if !ok || !containsString(toStrings(cond.Value), s) {
				return false
			}
		case OpContains:
			arr, ok := value.([]any)
			if !ok {
				return false
			}
			want := normalizeJSON(cond.Value)
			found := false
			for _, el := range arr {
				if reflect.DeepEqual(el, want) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		case OpSearch:
			term := strings.ToLower(fmt.Sprint(cond.Value))
			if term == "" {
				continue
			}
			hit := false
			for _, field := range cond.Fields {
				if v, ok := lookupField(doc, field).(string); ok && strings.Contains(strings.ToLower(v), term) {
					hit = true
					break
				}
			}
			if !hit {
				return false
			}
		case OpGte, OpLte:
			bound, _ := cond.Value.(time.Time)
			ts, ok := parseMemoryTime(value)
			if !ok {
				return false
			}
			if cond.Op == OpGte && ts.Before(bound) {
				return false
			}
			if cond.Op == OpLte && ts.After(bound) {
				return false
			}
		case OpMissing:
			if present && value != nil {
				return false
			}
		case OpNotEmpty:
			arr, ok := value.([]any)
			if !ok || len(arr) == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func lookupField(doc map[string]any, field string) any {
	v, _ := lookupFieldOK(doc, field)
	return v
}

func lookupFieldOK(doc map[string]any, field string) (any, bool) {
	var current any = doc
	for _, part := range strings.Split(field, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func normalizeJSON(v any) any {
	body, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(body, &out); err != nil {
		return v
	}
	return out
}

func toStrings(v any) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []any:
		out := make([]string, 0, len(vals))
		for _, el := range vals {
			out = append(out, fmt.Sprint(el))
		}
		return out
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, el := range list {
		if el == s {
			return true
		}
	}
	return false
}

func parseMemoryTime(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

func compareMemory(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if ta, ok := parseMemoryTime(a); ok {
		if tb, ok := parseMemoryTime(b); ok {
			return ta.Compare(tb)
		}
	}
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case bool:
		if bv, ok := b.(bool); ok && av != bv {
			if !av {
				return -1
			}
			return 1
		}
		return 0
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
