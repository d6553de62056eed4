// Package sanitize reduces arbitrary engine results to JSON-safe values.
//
// The engine hands back whatever its SDK produces: plain data, opaque result
// objects, types with their own serialization, or things with none at all.
// Value reduces any of them to JSON primitives, string-keyed maps, and
// slices. It never panics and never fails; when a value offers no structured
// form it degrades to its string representation, trading fidelity for total
// availability.
package sanitize

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Mapper is the serialization capability a result type may implement to
// control its own sanitized form.
type Mapper interface {
	ToMap() map[string]any
}

// maxDepth bounds recursion into nested results. Self-referential engine
// results terminate at the bound and degrade to strings.
const maxDepth = 32

// Value sanitizes v into a JSON-safe value. First match wins:
// primitives pass through, mappings become string-keyed maps, sequences
// become slices, the Mapper capability and json.Marshaler are invoked with
// fall-through on failure, exported struct fields are read reflectively, and
// everything else becomes its string representation.
func Value(v any) any {
	return walk(v, 0, make(map[uintptr]bool))
}

func walk(v any, depth int, visited map[uintptr]bool) any {
	if v == nil {
		return nil
	}

	switch prim := v.(type) {
	case string, bool,
		float64, float32,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		json.Number:
		return prim
	}

	if depth >= maxDepth {
		return fmt.Sprintf("%v", v)
	}

	rv := reflect.ValueOf(v)

	// Cycle guard: pointer-like kinds are visited at most once per path.
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice:
		if rv.Kind() != reflect.Slice || rv.Len() > 0 {
			ptr := pointerOf(rv)
			if ptr != 0 {
				if visited[ptr] {
					// Printing the value itself would recurse
					// through the cycle again.
					return fmt.Sprintf("<cycle %T>", v)
				}
				visited[ptr] = true
				defer delete(visited, ptr)
			}
		}
	}

	switch rv.Kind() {
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key := fmt.Sprint(iter.Key().Interface())
			out[key] = walk(iter.Value().Interface(), depth+1, visited)
		}
		return out

	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = walk(rv.Index(i).Interface(), depth+1, visited)
		}
		return out
	}

	if m, ok := tryMapper(v); ok {
		return walk(m, depth+1, visited)
	}

	if decoded, ok := tryMarshaler(v); ok {
		return decoded
	}

	if fields, ok := tryFields(rv); ok {
		out := make(map[string]any, len(fields))
		for name, value := range fields {
			out[name] = walk(value, depth+1, visited)
		}
		return out
	}

	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		return walk(rv.Elem().Interface(), depth+1, visited)
	}

	// Terminal fallback: some JSON-safe value, always.
	return fmt.Sprintf("%v", v)
}

// tryMapper invokes the Mapper capability, swallowing panics so a misbehaving
// implementation falls through to the next rule instead of propagating.
func tryMapper(v any) (m map[string]any, ok bool) {
	mapper, implements := v.(Mapper)
	if !implements {
		return nil, false
	}
	defer func() {
		if recover() != nil {
			m, ok = nil, false
		}
	}()
	return mapper.ToMap(), true
}

// tryMarshaler round-trips a json.Marshaler through encoding/json. Marshal
// errors and panics fall through to reflection.
func tryMarshaler(v any) (decoded any, ok bool) {
	marshaler, implements := v.(json.Marshaler)
	if !implements {
		return nil, false
	}
	defer func() {
		if recover() != nil {
			decoded, ok = nil, false
		}
	}()
	raw, err := marshaler.MarshalJSON()
	if err != nil {
		return nil, false
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, false
	}
	return decoded, true
}

// tryFields reads the exported fields of a struct (or pointed-to struct)
// into a name → value map. Unexported fields are skipped, mirroring
// public-attribute introspection. Panics fall through.
func tryFields(rv reflect.Value) (fields map[string]any, ok bool) {
	defer func() {
		if recover() != nil {
			fields, ok = nil, false
		}
	}()

	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, false
	}

	rt := rv.Type()
	fields = make(map[string]any, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		fields[field.Name] = rv.Field(i).Interface()
	}
	if len(fields) == 0 {
		return nil, false
	}
	return fields, true
}

func pointerOf(rv reflect.Value) uintptr {
	defer func() { _ = recover() }()
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return 0
	}
	return rv.Pointer()
}
