package domain

import (
	"bytes"
	"encoding/json"
)

// Nullable distinguishes an absent field from an explicit null in patch payloads.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// Some returns a Nullable carrying v.
func Some[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

// Null returns an explicitly null Nullable.
func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

// IsNull reports an explicit null.
func (n Nullable[T]) IsNull() bool {
	return n.Set && n.Value == nil
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if n.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}
