package dump

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"time"
)

var (
	// ErrNoFields is returned when no columns can be derived from a value,
	// e.g. a nil element or a transform that returned nil.
	ErrNoFields = errors.New("cannot derive fields")
	// ErrShapeMismatch is returned when a later element of a TSV dump projects
	// to a different type than the element the header was derived from.
	ErrShapeMismatch = errors.New("shape differs from first element")
)

// scalarHeader is the column name used for string and other scalar rows.
const scalarHeader = "string"

// Field is one named column of a Record.
type Field struct {
	Name  string
	Value any
}

// Record is implemented by types that list their own columns, in order,
// instead of having them derived by reflection.
type Record interface {
	Fields() []Field
}

var (
	recordType        = reflect.TypeOf((*Record)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

type layoutKind int

const (
	scalarLayout layoutKind = iota
	structLayout
	recordLayout
)

// layout is the column set of a TSV dump, fixed by its first projected value.
type layout struct {
	kind  layoutKind
	typ   reflect.Type
	names []string
	index [][]int
}

func layoutOf(v any) (*layout, error) {
	rv, err := indirect(v)
	if err != nil {
		return nil, err
	}
	t := reflect.TypeOf(v)

	if t.Implements(recordType) {
		fields := v.(Record).Fields()
		if len(fields) == 0 {
			return nil, fmt.Errorf("%w: %s has no fields", ErrNoFields, t)
		}
		l := &layout{kind: recordLayout, typ: t, names: make([]string, len(fields))}
		for i, f := range fields {
			l.names[i] = f.Name
		}
		return l, nil
	}

	if isScalar(rv.Type()) {
		return &layout{kind: scalarLayout, typ: rv.Type(), names: []string{scalarHeader}}, nil
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: unsupported %s", ErrNoFields, rv.Type())
	}

	l := &layout{kind: structLayout, typ: rv.Type()}
	for _, f := range structFields(rv.Type()) {
		l.names = append(l.names, f.name)
		l.index = append(l.index, f.index)
	}
	if len(l.names) == 0 {
		return nil, fmt.Errorf("%w: %s has no exported fields", ErrNoFields, rv.Type())
	}
	return l, nil
}

// row returns the formatted column values of v.
func (l *layout) row(v any) ([]string, error) {
	rv, err := indirect(v)
	if err != nil {
		return nil, err
	}

	switch l.kind {
	case recordLayout:
		if reflect.TypeOf(v) != l.typ {
			return nil, fmt.Errorf("%w: got %s, header from %s", ErrShapeMismatch, reflect.TypeOf(v), l.typ)
		}
		fields := v.(Record).Fields()
		if len(fields) != len(l.names) {
			return nil, fmt.Errorf("%w: %d fields, header has %d", ErrShapeMismatch, len(fields), len(l.names))
		}
		out := make([]string, len(fields))
		for i, f := range fields {
			if f.Name != l.names[i] {
				return nil, fmt.Errorf("%w: field %q, header has %q", ErrShapeMismatch, f.Name, l.names[i])
			}
			if out[i], err = formatValue(f.Value); err != nil {
				return nil, err
			}
		}
		return out, nil

	case scalarLayout:
		if rv.Type() != l.typ {
			return nil, fmt.Errorf("%w: got %s, header from %s", ErrShapeMismatch, rv.Type(), l.typ)
		}
		s, err := formatValue(rv.Interface())
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	}

	if rv.Type() != l.typ {
		return nil, fmt.Errorf("%w: got %s, header from %s", ErrShapeMismatch, rv.Type(), l.typ)
	}
	out := make([]string, len(l.index))
	for i, idx := range l.index {
		fv, err := rv.FieldByIndexErr(idx)
		if err != nil {
			// nil embedded pointer
			continue
		}
		if out[i], err = formatValue(fv.Interface()); err != nil {
			return nil, fmt.Errorf("field %s: %w", l.names[i], err)
		}
	}
	return out, nil
}

// indirect follows pointers and rejects nil.
func indirect(v any) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return rv, fmt.Errorf("%w: nil value", ErrNoFields)
	}
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return rv, fmt.Errorf("%w: nil %s", ErrNoFields, rv.Type())
		}
		rv = rv.Elem()
	}
	return rv, nil
}

func isScalar(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	}
	return t.Implements(textMarshalerType) || reflect.PointerTo(t).Implements(textMarshalerType)
}

type structField struct {
	name   string
	index  []int
	depth  int
	tagged bool
}

// structFields lists the exported fields of t in declaration order, with the
// fields of embedded structs promoted in place. Name collisions resolve the
// way encoding/json resolves them: the shallowest field wins, a tagged field
// beats untagged ones at the same depth, and a remaining tie drops the name.
// Embedded types already on the current path are not entered again.
func structFields(t reflect.Type) []structField {
	var all []structField
	onPath := map[reflect.Type]bool{}
	var walk func(t reflect.Type, index []int, depth int)
	walk = func(t reflect.Type, index []int, depth int) {
		onPath[t] = true
		defer delete(onPath, t)

		for i := 0; i < t.NumField(); i++ {
			sf := t.Field(i)
			tag := sf.Tag.Get("tsv")
			if tag == "-" {
				continue
			}
			idx := append(append([]int(nil), index...), i)

			ft := sf.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if sf.Anonymous && tag == "" && ft.Kind() == reflect.Struct && !isScalar(ft) {
				if !onPath[ft] {
					walk(ft, idx, depth+1)
				}
				continue
			}
			if !sf.IsExported() {
				continue
			}
			name := sf.Name
			if tag != "" {
				name = tag
			}
			all = append(all, structField{name: name, index: idx, depth: depth, tagged: tag != ""})
		}
	}
	walk(t, nil, 0)

	byName := make(map[string][]int, len(all))
	for i, f := range all {
		byName[f.name] = append(byName[f.name], i)
	}
	keep := make(map[int]bool, len(byName))
	for _, idxs := range byName {
		if i, ok := dominantField(all, idxs); ok {
			keep[i] = true
		}
	}
	out := make([]structField, 0, len(keep))
	for i, f := range all {
		if keep[i] {
			out = append(out, f)
		}
	}
	return out
}

// dominantField picks the field that owns a name among candidates, if any.
func dominantField(all []structField, idxs []int) (int, bool) {
	minDepth := all[idxs[0]].depth
	for _, i := range idxs[1:] {
		if all[i].depth < minDepth {
			minDepth = all[i].depth
		}
	}
	var shallow, tagged []int
	for _, i := range idxs {
		if all[i].depth != minDepth {
			continue
		}
		shallow = append(shallow, i)
		if all[i].tagged {
			tagged = append(tagged, i)
		}
	}
	if len(shallow) == 1 {
		return shallow[0], true
	}
	if len(tagged) == 1 {
		return tagged[0], true
	}
	return 0, false
}

// formatValue renders one TSV field. Booleans are "True"/"False"; other
// composite values fall back to compact JSON.
func formatValue(v any) (string, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return "", nil
	}
	if (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) && rv.IsNil() {
		return "", nil
	}
	// MarshalText on a pointer receiver needs an addressable copy.
	if rv.Kind() != reflect.Pointer && !rv.Type().Implements(textMarshalerType) &&
		reflect.PointerTo(rv.Type()).Implements(textMarshalerType) {
		p := reflect.New(rv.Type())
		p.Elem().Set(rv)
		v = p.Interface()
	}

	switch x := v.(type) {
	case string:
		return x, nil
	case bool:
		return formatBool(x), nil
	case time.Time:
		return x.Format(time.RFC3339Nano), nil
	case encoding.TextMarshaler:
		b, err := x.MarshalText()
		if err != nil {
			return "", err
		}
		return string(b), nil
	case fmt.Stringer:
		return x.String(), nil
	case error:
		return x.Error(), nil
	}

	switch rv.Kind() {
	case reflect.Pointer:
		return formatValue(rv.Elem().Interface())
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return formatBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64), nil
	case reflect.Complex64, reflect.Complex128:
		return fmt.Sprint(v), nil
	}
	return ToJSON(v)
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
