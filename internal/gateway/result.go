package gateway

import (
	"encoding/json"
	"fmt"
)

// Result is a parsed response body. Keys are already in canonical case.
type Result struct {
	Status int
	value  any
}

// Value returns the parsed body: map[string]any, []any, or a scalar.
func (r *Result) Value() any {
	return r.value
}

// Decode converts the parsed body into v using JSON field tags.
func (r *Result) Decode(v any) error {
	data, err := json.Marshal(r.value)
	if err != nil {
		return fmt.Errorf("re-encoding body: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding body: %w", err)
	}
	return nil
}

// Field returns a top-level object field.
func (r *Result) Field(key string) (any, bool) {
	obj, ok := r.value.(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := obj[key]
	return v, ok
}

// String returns a top-level string field.
func (r *Result) String(key string) (string, bool) {
	v, ok := r.Field(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Err returns the application error carried in the body, or "".
func (r *Result) Err() string {
	s, _ := r.String("error")
	return s
}

// Failed reports whether the call produced no result or an embedded error.
// It is safe on a nil *Result.
func (r *Result) Failed() bool {
	return r == nil || r.Err() != ""
}

// ErrText returns the embedded error, or fallback when there is none.
// It is safe on a nil *Result.
func (r *Result) ErrText(fallback string) string {
	if r != nil {
		if msg := r.Err(); msg != "" {
			return msg
		}
	}
	return fallback
}
