package geoframe

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

const tagKey = "geoframe"

// schemaMeta maps struct fields onto row arguments.
type schemaMeta struct {
	floats  []floatMapping
	scalars []scalarMapping
}

// floatMapping binds a struct field to arg.field.
type floatMapping struct {
	structIdx int
	arg       string
	field     string
}

// scalarMapping binds a struct field to a cell id argument.
type scalarMapping struct {
	structIdx int
	arg       string
}

var schemaCache sync.Map // reflect.Type -> *schemaMeta

// RowsFrom converts typed records into rows using `geoframe` struct tags.
// A tag "arg.field" maps a numeric field into a struct argument; a tag "arg"
// maps an unsigned integer field to a cell id argument. Nil pointer fields
// are left out, so the row evaluates to null.
//
//	type Pose struct {
//	    X  float64  `geoframe:"point.x"`
//	    Y  float64  `geoframe:"point.y"`
//	    Z  *float64 `geoframe:"point.z"`
//	    ID uint64   `geoframe:"cell"`
//	}
func RowsFrom[T any](items []T) ([]Row, error) {
	meta, err := schemaFor[T]()
	if err != nil {
		return nil, err
	}

	rows := make([]Row, len(items))
	for i := range items {
		v := reflect.ValueOf(&items[i]).Elem()
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				continue
			}
			v = v.Elem()
		}
		rows[i] = meta.row(v)
	}
	return rows, nil
}

func schemaFor[T any]() (*schemaMeta, error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cached, ok := schemaCache.Load(t); ok {
		return cached.(*schemaMeta), nil
	}

	meta, err := parseSchema(t)
	if err != nil {
		return nil, err
	}
	schemaCache.Store(t, meta)
	return meta, nil
}

// parseSchema reflects on t and extracts geoframe struct tag metadata.
func parseSchema(t reflect.Type) (*schemaMeta, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("geoframe: type %s is not a struct", t)
	}

	meta := &schemaMeta{}
	seen := make(map[string]string)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get(tagKey)
		if tag == "" || tag == "-" {
			continue
		}
		if prev, dup := seen[tag]; dup {
			return nil, fmt.Errorf("geoframe: tag %q on both %s and %s", tag, prev, f.Name)
		}
		seen[tag] = f.Name

		if err := applyTag(meta, i, f, tag); err != nil {
			return nil, err
		}
	}

	if len(meta.floats) == 0 && len(meta.scalars) == 0 {
		return nil, fmt.Errorf("geoframe: no field with a `geoframe` tag in %s", t)
	}
	return meta, nil
}

// applyTag processes a single struct field's geoframe tag.
func applyTag(meta *schemaMeta, idx int, f reflect.StructField, tag string) error {
	kind := f.Type.Kind()
	if kind == reflect.Pointer {
		kind = f.Type.Elem().Kind()
	}

	arg, field, isStruct := strings.Cut(tag, ".")
	if arg == "" || (isStruct && field == "") {
		return fmt.Errorf("geoframe: malformed tag %q on field %s", tag, f.Name)
	}

	if isStruct {
		switch kind {
		case reflect.Float64, reflect.Float32,
			reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		default:
			return fmt.Errorf("geoframe: field %s must be numeric for tag %q, got %s", f.Name, tag, f.Type)
		}
		meta.floats = append(meta.floats, floatMapping{structIdx: idx, arg: arg, field: field})
		return nil
	}

	switch kind {
	case reflect.Uint64, reflect.Uint, reflect.Uint32:
	default:
		return fmt.Errorf("geoframe: field %s must be an unsigned integer for cell tag %q, got %s", f.Name, tag, f.Type)
	}
	meta.scalars = append(meta.scalars, scalarMapping{structIdx: idx, arg: arg})
	return nil
}

func (m *schemaMeta) row(v reflect.Value) Row {
	r := Row{}
	for _, fm := range m.floats {
		fv, ok := deref(v.Field(fm.structIdx))
		if !ok {
			continue
		}
		var x float64
		if fv.CanFloat() {
			x = fv.Float()
		} else {
			x = float64(fv.Int())
		}
		if r.Structs == nil {
			r.Structs = make(map[string]Fields)
		}
		if r.Structs[fm.arg] == nil {
			r.Structs[fm.arg] = Fields{}
		}
		r.Structs[fm.arg][fm.field] = x
	}
	for _, sm := range m.scalars {
		fv, ok := deref(v.Field(sm.structIdx))
		if !ok {
			continue
		}
		if r.Scalars == nil {
			r.Scalars = make(map[string]uint64)
		}
		r.Scalars[sm.arg] = fv.Uint()
	}
	return r
}

func deref(v reflect.Value) (reflect.Value, bool) {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		return v.Elem(), true
	}
	return v, true
}
