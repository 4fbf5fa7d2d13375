package metrics

import "encoding/json"

type valueState uint8

const (
	stateAbsent valueState = iota
	statePresent
	stateInsufficient
)

// Value is a single metric result. It is either present, insufficient (not
// enough data to compute it) or absent (computable inputs, but the metric is
// not meaningful for them). The zero Value is absent.
type Value[T any] struct {
	v      T
	state  valueState
	reason string
}

func Present[T any](v T) Value[T] {
	return Value[T]{v: v, state: statePresent}
}

func Insufficient[T any](reason string) Value[T] {
	return Value[T]{state: stateInsufficient, reason: reason}
}

func Absent[T any](reason string) Value[T] {
	return Value[T]{state: stateAbsent, reason: reason}
}

func (v Value[T]) Get() (T, bool) {
	return v.v, v.state == statePresent
}

func (v Value[T]) IsPresent() bool      { return v.state == statePresent }
func (v Value[T]) IsInsufficient() bool { return v.state == stateInsufficient }

// Reason explains why the value is missing. It is empty for present values.
func (v Value[T]) Reason() string {
	return v.reason
}

// Ptr returns a pointer to the value for nullable storage columns.
func (v Value[T]) Ptr() *T {
	if v.state != statePresent {
		return nil
	}
	out := v.v
	return &out
}

func (v Value[T]) MarshalJSON() ([]byte, error) {
	if v.state != statePresent {
		return []byte("null"), nil
	}
	return json.Marshal(v.v)
}
