package dump

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
)

// ToJSON returns v as compact JSON. HTML characters are not escaped.
func ToJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// JSON appends transform(v) as JSON to name.json. A nil transform dumps v
// itself. Repeated calls append blobs back to back with no separator.
func JSON[T any](d *Dumper, v T, name string, transform func(T) any) error {
	d = orDefault(d)
	if !d.Active() {
		return nil
	}
	return writeJSON(d, name, identity(transform)(v))
}

// JSONIf behaves like JSON when predicate(v) is true. Otherwise, or when
// predicate is nil, it writes nothing and never calls transform.
func JSONIf[T any](d *Dumper, v T, name string, predicate func(T) bool, transform func(T) any) error {
	d = orDefault(d)
	if !d.Active() || predicate == nil || !predicate(v) {
		return nil
	}
	return writeJSON(d, name, identity(transform)(v))
}

func writeJSON(d *Dumper, name string, v any) error {
	s, err := ToJSON(v)
	if err != nil {
		return err
	}
	return d.WriteText(name, JSONExtension, func(w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	})
}

func identity[T any](transform func(T) any) func(T) any {
	if transform != nil {
		return transform
	}
	return func(v T) any { return v }
}
