package entity

import "encoding/json"

// Nullable distinguishes an absent JSON field (Set=false) from an explicit
// null (Set=true, Value=nil).
type Nullable[T any] struct {
	Set   bool
	Value *T
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
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

func NullableOf[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

func NullOf[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}
