package decode

import "strings"

// Field names a logical field and the keys it may appear under, in priority
// order. The first key present in an object wins, even if its value turns out
// to have the wrong kind.
type Field struct {
	Name    string
	Aliases []string
}

// NewField builds a Field whose first alias is its own name.
func NewField(name string, aliases ...string) Field {
	return Field{Name: name, Aliases: append([]string{name}, aliases...)}
}

// Lookup returns the value stored under the first alias present in obj.
func (f Field) Lookup(obj map[string]any) (any, bool) {
	for _, key := range f.Aliases {
		if v, ok := obj[key]; ok {
			return v, true
		}
	}
	return nil, false
}

// String reads a string field and trims it. present reports whether any
// alias was found; ok reports whether its value was a string.
func (f Field) String(obj map[string]any) (value string, present, ok bool) {
	raw, present := f.Lookup(obj)
	if !present {
		return "", false, false
	}
	s, ok := raw.(string)
	if !ok {
		return "", true, false
	}
	return strings.TrimSpace(s), true, true
}

// Array reads an array field.
func (f Field) Array(obj map[string]any) (value []any, present, ok bool) {
	raw, present := f.Lookup(obj)
	if !present {
		return nil, false, false
	}
	arr, ok := raw.([]any)
	if !ok {
		return nil, true, false
	}
	return arr, true, true
}

// Object asserts v is a JSON object.
func Object(v any) (map[string]any, bool) {
	obj, ok := v.(map[string]any)
	return obj, ok
}

// Strings converts a JSON array of strings, trimming each element and
// dropping empty ones. ok is false if any element is not a string.
func Strings(arr []any) ([]string, bool) {
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		s, isString := item.(string)
		if !isString {
			return nil, false
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out, true
}
