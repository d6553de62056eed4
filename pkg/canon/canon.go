// Package canon provides the canonical value model and input normalization
// for caller-supplied vector payloads.
//
// Tool callers hand the server loosely-typed values: flat arrays, nested
// arrays, engine-native numeric array wrappers, JSON-encoded strings, single
// vectors where batches are expected. Everything is reduced to one canonical
// shape (Vector or Batch) before it reaches the engine. Normalization is
// idempotent: canonical shapes are fixed points.
package canon

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

// Vector is an ordered sequence of 64-bit floats. Length must match the
// target index dimensionality; dimension mismatches are the engine's to
// reject, not validated here.
type Vector []float64

// Batch is an ordered sequence of Vectors. Order is significant and must
// align 1:1 with metadata when both are supplied on insert.
type Batch []Vector

// Kind classifies the shape of a raw caller value. A single Classify pass
// replaces repeated ad hoc type probing; normalization dispatches on the tag.
type Kind int

const (
	// KindInvalid marks values with no canonical interpretation: wrong
	// element types, irregular nesting, empty input where data is required.
	KindInvalid Kind = iota

	// KindScalarVector is a flat list of numbers.
	KindScalarVector

	// KindVectorBatch is a list whose elements are all numeric arrays.
	KindVectorBatch

	// KindEncodedString is a string payload expected to hold JSON.
	KindEncodedString
)

func (k Kind) String() string {
	switch k {
	case KindScalarVector:
		return "scalar_vector"
	case KindVectorBatch:
		return "vector_batch"
	case KindEncodedString:
		return "encoded_string"
	default:
		return "invalid"
	}
}

// expectedShape is the shape description included in every rejection so
// callers know what to send instead.
const expectedShape = "JSON array of floats, or array of arrays"

// ValidationError describes caller input rejected before any engine
// interaction. It is surfaced as a protocol-level tool fault, never as an
// {ok:false} envelope.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

// NewValidationError creates a ValidationError with a formatted message.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Classify inspects a raw value's shape once and returns its tag.
func Classify(raw any) Kind {
	if raw == nil {
		return KindInvalid
	}

	if _, ok := raw.(string); ok {
		return KindEncodedString
	}

	if _, ok := asVector(raw); ok {
		return KindScalarVector
	}

	if _, ok := asBatch(raw); ok {
		return KindVectorBatch
	}

	return KindInvalid
}

// NormalizeVector coerces a raw value into a single canonical Vector.
func NormalizeVector(raw any) (Vector, error) {
	switch Classify(raw) {
	case KindScalarVector:
		vec, _ := asVector(raw)
		return vec, nil

	case KindEncodedString:
		parsed, err := parseEncoded(raw.(string))
		if err != nil {
			return nil, err
		}
		if vec, ok := asVector(parsed); ok {
			return vec, nil
		}
		return nil, NewValidationError("decoded JSON %q is not a flat array of floats: expected %s", raw.(string), expectedShape)

	case KindVectorBatch:
		return nil, NewValidationError("got an array of arrays where a single vector was expected")

	default:
		return nil, NewValidationError("cannot normalize %T as a vector: expected %s", raw, expectedShape)
	}
}

// NormalizeBatch coerces a raw value into a canonical Batch. A flat vector
// is wrapped as a one-element batch.
func NormalizeBatch(raw any) (Batch, error) {
	switch Classify(raw) {
	case KindScalarVector:
		vec, _ := asVector(raw)
		return Batch{vec}, nil

	case KindVectorBatch:
		batch, _ := asBatch(raw)
		return batch, nil

	case KindEncodedString:
		parsed, err := parseEncoded(raw.(string))
		if err != nil {
			return nil, err
		}
		// One decode only: a string inside a string stays rejected.
		if _, nested := parsed.(string); nested {
			return nil, NewValidationError("decoded JSON %q is a string, not an array: expected %s", raw.(string), expectedShape)
		}
		if vec, ok := asVector(parsed); ok {
			return Batch{vec}, nil
		}
		if batch, ok := asBatch(parsed); ok {
			return batch, nil
		}
		return nil, NewValidationError("decoded JSON %q is not an array of floats or array of arrays", raw.(string))

	default:
		return nil, NewValidationError("cannot normalize %T as a vector batch: expected %s", raw, expectedShape)
	}
}

// NormalizeMetadata coerces a raw metadata value into an ordered list of
// items. Unlike vector normalization this never fails: a string that is not
// valid JSON is wrapped as a single-element list holding the raw string, and
// any other scalar is wrapped the same way. Nil passes through as nil.
//
// Alignment with the vector batch (equal lengths on insert) is the caller's
// contract; see the dispatcher, which enforces it before touching the engine.
func NormalizeMetadata(raw any) []any {
	if raw == nil {
		return nil
	}

	if items, ok := raw.([]any); ok {
		return items
	}

	if s, ok := raw.(string); ok {
		var parsed any
		if err := json.Unmarshal([]byte(s), &parsed); err != nil {
			return []any{s}
		}
		if items, ok := parsed.([]any); ok {
			return items
		}
		return []any{parsed}
	}

	// Typed slices ([]string, []map[string]any, ...) pass through
	// element-wise.
	rv := reflect.ValueOf(raw)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return items
	}

	return []any{raw}
}

// parseEncoded decodes a JSON string payload. Parse failure is a
// ValidationError naming the offending string and the expected shape; this
// is deliberately asymmetric with metadata handling, which falls back to
// wrapping instead.
func parseEncoded(s string) (any, error) {
	var parsed any
	if err := json.Unmarshal([]byte(s), &parsed); err != nil {
		return nil, NewValidationError("invalid JSON string %q: expected %s", s, expectedShape)
	}
	return parsed, nil
}

// asVector converts a flat numeric sequence into a Vector. Canonical Vectors
// are returned as-is so re-normalization is a no-op. Empty sequences do not
// qualify.
func asVector(raw any) (Vector, bool) {
	switch v := raw.(type) {
	case Vector:
		if len(v) == 0 {
			return nil, false
		}
		return v, true
	case []float64:
		if len(v) == 0 {
			return nil, false
		}
		return Vector(v), true
	case []float32:
		if len(v) == 0 {
			return nil, false
		}
		vec := make(Vector, len(v))
		for i, f := range v {
			vec[i] = float64(f)
		}
		return vec, true
	case []any:
		if len(v) == 0 {
			return nil, false
		}
		vec := make(Vector, len(v))
		for i, elem := range v {
			f, ok := asFloat(elem)
			if !ok {
				return nil, false
			}
			vec[i] = f
		}
		return vec, true
	}

	// Engine-native array wrappers and other typed numeric slices
	// ([]int, []float32 aliases, ...) convert element-wise.
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Len() == 0 {
		return nil, false
	}
	vec := make(Vector, rv.Len())
	for i := range vec {
		f, ok := asFloat(rv.Index(i).Interface())
		if !ok {
			return nil, false
		}
		vec[i] = f
	}
	return vec, true
}

// asBatch converts a sequence whose elements are all numeric arrays into a
// Batch. Mixed or irregular nesting does not qualify.
func asBatch(raw any) (Batch, bool) {
	if b, ok := raw.(Batch); ok {
		if len(b) == 0 {
			return nil, false
		}
		return b, true
	}

	rv := reflect.ValueOf(raw)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	if rv.Len() == 0 {
		return nil, false
	}

	batch := make(Batch, rv.Len())
	for i := range batch {
		vec, ok := asVector(rv.Index(i).Interface())
		if !ok {
			return nil, false
		}
		batch[i] = vec
	}
	return batch, true
}

// asFloat converts a single numeric value to float64.
func asFloat(raw any) (float64, bool) {
	switch n := raw.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}

	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
