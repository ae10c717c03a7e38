package todo

import (
	"bytes"
	"encoding/json"
)

// Field is one optional member of a partial update. Set is false when the key
// was omitted; Null is true when the key was sent as JSON null.
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Value returns a set, non-null field.
func Value[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// Null returns a set field holding JSON null.
func Null[T any]() Field[T] {
	return Field[T]{Set: true, Null: true}
}

// IsZero lets `omitzero` drop unset fields when marshaling.
func (f Field[T]) IsZero() bool {
	return !f.Set
}

// Ptr returns nil for null, or a pointer to the value.
func (f Field[T]) Ptr() *T {
	if f.Null {
		return nil
	}
	v := f.Value
	return &v
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Set || f.Null {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Null = true
		var zero T
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(data, &f.Value)
}

// CreatePayload is the body of a create request after validation.
type CreatePayload struct {
	Title        string    `json:"title"`
	Description  *string   `json:"description,omitempty"`
	Deadline     *string   `json:"deadline,omitempty"`
	Priority     *Priority `json:"priority,omitempty"`
	TimeEstimate *int      `json:"time_estimate,omitempty"`
}

// UpdatePayload is a partial update. Unset fields are left untouched.
type UpdatePayload struct {
	Title        Field[string]   `json:"title,omitzero"`
	Description  Field[string]   `json:"description,omitzero"`
	Deadline     Field[string]   `json:"deadline,omitzero"`
	Priority     Field[Priority] `json:"priority,omitzero"`
	TimeEstimate Field[int]      `json:"time_estimate,omitzero"`
}

// Empty reports whether no field is set.
func (p UpdatePayload) Empty() bool {
	return !p.Title.Set && !p.Description.Set && !p.Deadline.Set && !p.Priority.Set && !p.TimeEstimate.Set
}

// TogglePayload is the body of a status change.
type TogglePayload struct {
	Completed bool `json:"completed"`
}
