// Package function binds the geometry core to named, row-wise functions.
//
// Each Function pulls its arguments out of a Row by name and field, calls one
// core operation and returns a JSON-friendly value. A row missing any input
// yields no value and no error; the caller reports it as null.
package function

import (
	"fmt"
	"sort"

	"github.com/kailas-cloud/geoframe/internal/domain"
)

// Kind describes the shape of a function output.
type Kind string

// Output kinds.
const (
	KindFloat  Kind = "float64"
	KindUint   Kind = "uint64"
	KindInt    Kind = "int"
	KindBool   Kind = "bool"
	KindStruct Kind = "struct"
	KindList   Kind = "list"
)

// Parameter names.
const (
	ParamLevel = "level"
	ParamCoef  = "coef"
)

// Row exposes the named arguments of one input row. The bool result is false
// when the value is missing or null.
type Row interface {
	Float(arg, field string) (float64, bool)
	Uint(arg string) (uint64, bool)
}

// Record is a map-backed Row. Struct arguments live in Structs, scalar
// arguments in Scalars. Absent keys read as null.
type Record struct {
	Structs map[string]map[string]float64
	Scalars map[string]uint64
}

// Float returns Structs[arg][field].
func (r Record) Float(arg, field string) (float64, bool) {
	fields, ok := r.Structs[arg]
	if !ok {
		return 0, false
	}
	v, ok := fields[field]
	return v, ok
}

// Uint returns Scalars[arg].
func (r Record) Uint(arg string) (uint64, bool) {
	v, ok := r.Scalars[arg]
	return v, ok
}

// Arg is a named function argument. An Arg without fields is a scalar cell id.
type Arg struct {
	Name   string
	Fields []string
}

// Scalar reports whether the argument is a single unsigned integer.
func (a Arg) Scalar() bool { return len(a.Fields) == 0 }

// Settings are resolved request parameters.
type Settings struct {
	Level int
	Coef  float64
}

// Params are optional request parameters; nil fields take the service
// defaults.
type Params struct {
	Level *int
	Coef  *float64
}

// Resolve fills unset params from defaults.
func (p Params) Resolve(defaults Settings) Settings {
	s := defaults
	if p.Level != nil {
		s.Level = *p.Level
	}
	if p.Coef != nil {
		s.Coef = *p.Coef
	}
	return s
}

type evalFunc func(in Inputs, s Settings) (any, error)

// Function is a named row-wise operation.
type Function struct {
	Namespace   string
	Name        string
	Description string
	Args        []Arg
	Params      []string
	Output      Kind

	eval evalFunc
}

// FullName returns "namespace.name".
func (f Function) FullName() string { return f.Namespace + "." + f.Name }

// Accepts reports whether the function reads the named parameter.
func (f Function) Accepts(param string) bool {
	for _, p := range f.Params {
		if p == param {
			return true
		}
	}
	return false
}

// Eval evaluates one row. present is false when any input is missing; value
// and err are then nil.
func (f Function) Eval(row Row, s Settings) (value any, present bool, err error) {
	in, ok := f.gather(row)
	if !ok {
		return nil, false, nil
	}
	v, err := f.eval(in, s)
	if err != nil {
		return nil, true, err
	}
	return v, true, nil
}

func (f Function) gather(row Row) (Inputs, bool) {
	in := Inputs{
		floats: make([][]float64, len(f.Args)),
		uints:  make([]uint64, len(f.Args)),
	}
	for i, a := range f.Args {
		if a.Scalar() {
			v, ok := row.Uint(a.Name)
			if !ok {
				return Inputs{}, false
			}
			in.uints[i] = v
			continue
		}
		vals := make([]float64, len(a.Fields))
		for j, field := range a.Fields {
			v, ok := row.Float(a.Name, field)
			if !ok {
				return Inputs{}, false
			}
			vals[j] = v
		}
		in.floats[i] = vals
	}
	return in, true
}

// Registry holds functions by full name.
type Registry struct {
	byName map[string]Function
}

// NewRegistry creates a registry with every built-in function.
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]Function)}
	for _, group := range [][]Function{s2Functions(), transformFunctions(), distanceFunctions()} {
		for _, f := range group {
			r.byName[f.FullName()] = f
		}
	}
	return r
}

// Lookup returns the function registered under name.
func (r *Registry) Lookup(name string) (Function, error) {
	f, ok := r.byName[name]
	if !ok {
		return Function{}, fmt.Errorf("function %q: %w", name, domain.ErrUnknownFunction)
	}
	return f, nil
}

// List returns all functions ordered by full name.
func (r *Registry) List() []Function {
	out := make([]Function, 0, len(r.byName))
	for _, f := range r.byName {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName() < out[j].FullName() })
	return out
}
