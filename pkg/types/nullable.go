package types

import (
	"bytes"
	"encoding/json"
)

// Nullable is a PATCH field with three states: absent (Valid false),
// explicit null (Valid true, Value nil) and a value.
type Nullable[T any] struct {
	Valid bool
	Value *T
}

var jsonNull = []byte("null")

// UnmarshalJSON only runs when the key is present, which is what makes
// absent distinguishable from null.
func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	*n = Nullable[T]{Valid: true}
	if bytes.Equal(bytes.TrimSpace(data), jsonNull) {
		return nil
	}
	n.Value = new(T)
	return json.Unmarshal(data, n.Value)
}

// Cleared reports an explicit null.
func (n Nullable[T]) Cleared() bool {
	return n.Valid && n.Value == nil
}

func Set[T any](v T) Nullable[T] {
	return Nullable[T]{Valid: true, Value: &v}
}
