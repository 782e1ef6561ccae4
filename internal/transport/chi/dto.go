package chi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/kailas-cloud/geoframe/internal/domain"
	dombatch "github.com/kailas-cloud/geoframe/internal/domain/batch"
	"github.com/kailas-cloud/geoframe/internal/domain/function"
)

const (
	statusOK    = string(dombatch.StatusOK)
	statusNull  = string(dombatch.StatusNull)
	statusError = string(dombatch.StatusError)
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type argResponse struct {
	Name   string   `json:"name"`
	Type   string   `json:"type"`
	Fields []string `json:"fields,omitempty"`
}

type functionResponse struct {
	Name        string        `json:"name"`
	Namespace   string        `json:"namespace"`
	Description string        `json:"description"`
	Args        []argResponse `json:"args"`
	Params      []string      `json:"params,omitempty"`
	Output      string        `json:"output"`
}

type functionListResponse struct {
	Items []functionResponse `json:"items"`
	Total int                `json:"total"`
}

type paramsRequest struct {
	Level *int     `json:"level"`
	Coef  *float64 `json:"coef"`
}

func (p paramsRequest) toDomain() function.Params {
	return function.Params{Level: p.Level, Coef: p.Coef}
}

type evaluateRequest struct {
	Params paramsRequest                `json:"params"`
	Rows   []map[string]json.RawMessage `json:"rows"`
}

type rowResult struct {
	Index  int             `json:"index"`
	Status string          `json:"status"`
	Value  json.RawMessage `json:"value,omitempty"`
	Error  *errorResponse  `json:"error,omitempty"`
}

type evaluateResponse struct {
	Function  string      `json:"function"`
	Results   []rowResult `json:"results"`
	Succeeded int         `json:"succeeded"`
	Nulls     int         `json:"null"`
	Failed    int         `json:"failed"`
}

type cellResponse struct {
	ID       string            `json:"id"`
	Token    string            `json:"token"`
	Level    int               `json:"level"`
	Center   function.LonLat   `json:"center"`
	Area     float64           `json:"area_steradians"`
	Vertices []function.LonLat `json:"vertices"`
	Geometry *geojson.Geometry `json:"geometry"`
}

func functionToResponse(f function.Function) functionResponse {
	args := make([]argResponse, len(f.Args))
	for i, a := range f.Args {
		typ := "struct"
		if a.Scalar() {
			typ = "uint64"
		}
		args[i] = argResponse{Name: a.Name, Type: typ, Fields: a.Fields}
	}
	return functionResponse{
		Name:        f.FullName(),
		Namespace:   f.Namespace,
		Description: f.Description,
		Args:        args,
		Params:      f.Params,
		Output:      string(f.Output),
	}
}

// rowsFromRequest converts JSON rows into function rows. A null row or a
// null argument reads as missing.
func rowsFromRequest(raw []map[string]json.RawMessage) ([]function.Row, error) {
	rows := make([]function.Row, len(raw))
	for i, r := range raw {
		if r == nil {
			continue
		}
		rec := function.Record{
			Structs: make(map[string]map[string]float64, len(r)),
			Scalars: make(map[string]uint64),
		}
		for name, v := range r {
			if err := decodeArg(&rec, name, v); err != nil {
				return nil, fmt.Errorf("row %d: argument %q: %w", i, name, err)
			}
		}
		rows[i] = rec
	}
	return rows, nil
}

func decodeArg(rec *function.Record, name string, v json.RawMessage) error {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return nil
	}

	switch v[0] {
	case '{':
		var fields map[string]*float64
		if err := json.Unmarshal(v, &fields); err != nil {
			return fmt.Errorf("%s: %w", err.Error(), domain.ErrInvalidRequest)
		}
		out := make(map[string]float64, len(fields))
		for k, f := range fields {
			if f != nil {
				out[k] = *f
			}
		}
		rec.Structs[name] = out
	case '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return fmt.Errorf("%s: %w", err.Error(), domain.ErrInvalidRequest)
		}
		id, err := parseCellID(s)
		if err != nil {
			return err
		}
		rec.Scalars[name] = uint64(id)
	default:
		n, err := strconv.ParseUint(string(v), 10, 64)
		if err != nil {
			return fmt.Errorf("expected object or unsigned integer: %w", domain.ErrInvalidRequest)
		}
		rec.Scalars[name] = n
	}
	return nil
}

func resultToResponse(r dombatch.Result) rowResult {
	item := rowResult{Index: r.Index(), Status: string(r.Status())}

	switch r.Status() {
	case dombatch.StatusOK:
		b, err := json.Marshal(r.Value())
		if err != nil {
			// NaN and Inf have no JSON form.
			item.Status = statusError
			item.Error = &errorResponse{Code: CodeNonFiniteResult, Message: "result is not representable in JSON"}
			return item
		}
		item.Value = b
	case dombatch.StatusError:
		item.Error = &errorResponse{
			Code:    errorCode(r.Err()),
			Message: safeDomainMessage(r.Err()),
		}
	}
	return item
}
