package domain

import "errors"

// ErrPartialReference is returned when only one half of a reference is supplied.
var ErrPartialReference = errors.New("reference requires both id and snapshot")

// Ref pairs a normalized id with the denormalized snapshot stored beside it.
// The zero value is the empty reference.
type Ref[T any] struct {
	id       string
	snapshot *T
}

// NewRef builds a reference; id and snapshot must both be present or both absent.
func NewRef[T any](id string, snapshot *T) (Ref[T], error) {
	if (id == "") != (snapshot == nil) {
		return Ref[T]{}, ErrPartialReference
	}
	return Ref[T]{id: id, snapshot: snapshot}, nil
}

// PersonRef references a directory person by its own id.
func PersonRef(p *Person) Ref[Person] {
	if p == nil || p.ID == "" {
		return Ref[Person]{}
	}
	return Ref[Person]{id: p.ID, snapshot: p}
}

// LocationRef references a directory location by its own id.
func LocationRef(l *Location) Ref[Location] {
	if l == nil || l.ID == "" {
		return Ref[Location]{}
	}
	return Ref[Location]{id: l.ID, snapshot: l}
}

func (r Ref[T]) ID() string { return r.id }

func (r Ref[T]) Snapshot() *T { return r.snapshot }

// IsSet reports whether the reference points at something.
func (r Ref[T]) IsSet() bool { return r.id != "" }

func (r Ref[T]) idPtr() *string {
	if r.id == "" {
		return nil
	}
	id := r.id
	return &id
}

func splitRefs[T any](refs []Ref[T]) ([]string, []T) {
	ids := make([]string, 0, len(refs))
	snapshots := make([]T, 0, len(refs))
	for _, ref := range refs {
		if !ref.IsSet() {
			continue
		}
		ids = append(ids, ref.id)
		snapshots = append(snapshots, *ref.snapshot)
	}
	return ids, snapshots
}
