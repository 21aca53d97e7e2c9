package model

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Optional distinguishes a parameter that was never supplied from any explicit
// value, including false and the empty string.
type Optional[T any] struct {
	value T
	set   bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// None returns an unset Optional.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// IsSet reports whether a value was supplied.
func (o Optional[T]) IsSet() bool {
	return o.set
}

// Get returns the value and whether it was supplied.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// OrElse returns the supplied value, or fallback when unset.
func (o Optional[T]) OrElse(fallback T) T {
	if !o.set {
		return fallback
	}
	return o.value
}

// UnmarshalYAML marks the value as supplied. yaml.v3 never calls it for
// absent keys or explicit nulls, both of which stay unset.
func (o *Optional[T]) UnmarshalYAML(node *yaml.Node) error {
	var v T
	if err := node.Decode(&v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// MarshalYAML renders unset values as null.
func (o Optional[T]) MarshalYAML() (any, error) {
	if !o.set {
		return nil, nil
	}
	return o.value, nil
}

// UnmarshalJSON treats an explicit null as unset.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// MarshalJSON renders unset values as null.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// Value returns the supplied value, or nil when unset.
func (o Optional[T]) Value() any {
	if !o.set {
		return nil
	}
	return o.value
}
