package geoframe

import (
	"github.com/kailas-cloud/geoframe/internal/domain/function"
	"github.com/kailas-cloud/geoframe/internal/domain/rotation"
)

// Status is the outcome of one row.
type Status string

// Row status constants.
const (
	StatusOK    Status = "ok"
	StatusNull  Status = "null"
	StatusError Status = "error"
)

// Value types produced by functions and the geometry helpers.
type (
	XYZ         = function.XYZ
	LonLat      = function.LonLat
	LLA         = function.LLA
	UTM         = function.UTM
	EulerAngles = function.Euler
	Quaternion  = rotation.Quaternion
)

// XY is a planar point.
type XY struct {
	X, Y float64
}

// Quad is a quadrilateral given by its four vertices in order.
type Quad [4]XY

// Fields holds the numeric fields of one struct argument.
type Fields map[string]float64

// Row is one input record for Evaluate. Structs holds struct arguments
// (point, rotation, offset...) by name; Scalars holds cell id arguments.
// An absent argument or field makes the row evaluate to null.
type Row struct {
	Structs map[string]Fields
	Scalars map[string]uint64
}

// Params are per-call parameters. Nil fields use the client defaults.
type Params struct {
	Level *int
	Coef  *float64
}

// Result is the outcome of one row in an Evaluate call.
type Result struct {
	Index  int
	Status Status
	Value  any // nil unless Status is StatusOK
	Err    error
}

// ArgInfo describes one function argument. Fields is empty for cell id scalars.
type ArgInfo struct {
	Name   string
	Fields []string
}

// FunctionInfo describes a registered function.
type FunctionInfo struct {
	Name        string // namespace-qualified, e.g. "s2.lonlat_to_cellid"
	Namespace   string
	Description string
	Args        []ArgInfo
	Params      []string
	Output      string
}
