// Package columnar streams function rows out of Parquet files and writes
// evaluation results back as Parquet or JSON lines.
//
// A struct argument field binds to the leaf column whose dotted path is
// "arg.field" (a Parquet group "point" with leaves "lon" and "lat" serves the
// argument "point"). A cell id argument binds to the column named after it.
// Bindings can be overridden per argument field.
package columnar

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/kailas-cloud/geoframe/internal/domain/cell"
	"github.com/kailas-cloud/geoframe/internal/domain/function"
)

// ErrColumnNotFound is returned when an argument has no matching column.
var ErrColumnNotFound = errors.New("column not found")

const readBuffer = 1000

// binding ties a leaf column to a row argument. field is empty for cell id
// scalars.
type binding struct {
	arg   string
	field string
}

// Reader reads rows for one function from a Parquet file.
type Reader struct {
	pf       *parquet.File
	file     *os.File
	columns  [][]string
	bindings map[int]binding
}

// Open opens path and binds its columns to args. overrides maps "arg.field"
// (or "arg" for a cell id) to a dotted column path.
func Open(path string, args []function.Arg, overrides map[string]string) (*Reader, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	r := &Reader{pf: pf, file: f, columns: pf.Schema().Columns()}
	if r.bindings, err = bind(r.columns, args, overrides); err != nil {
		_ = f.Close()
		return nil, err
	}
	return r, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// NumRows returns the row count recorded in the file footer.
func (r *Reader) NumRows() int64 {
	return r.pf.NumRows()
}

func bind(columns [][]string, args []function.Arg, overrides map[string]string) (map[int]binding, error) {
	index := make(map[string]int, len(columns))
	for i, path := range columns {
		index[strings.Join(path, ".")] = i
	}

	lookup := func(key string) (int, error) {
		name := key
		if o, ok := overrides[key]; ok {
			name = o
		}
		i, ok := index[name]
		if !ok {
			return 0, fmt.Errorf("%s (want %q): %w", key, name, ErrColumnNotFound)
		}
		return i, nil
	}

	bindings := make(map[int]binding)
	for _, a := range args {
		if a.Scalar() {
			i, err := lookup(a.Name)
			if err != nil {
				return nil, err
			}
			bindings[i] = binding{arg: a.Name}
			continue
		}
		for _, field := range a.Fields {
			i, err := lookup(a.Name + "." + field)
			if err != nil {
				return nil, err
			}
			bindings[i] = binding{arg: a.Name, field: field}
		}
	}
	return bindings, nil
}

// Each reads the file in order and calls fn with consecutive batches of at
// most batchSize rows. offset is the file index of the first row in the batch.
func (r *Reader) Each(batchSize int, fn func(rows []function.Row, offset int) error) error {
	if batchSize <= 0 {
		batchSize = readBuffer
	}

	batch := make([]function.Row, 0, batchSize)
	offset := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch, offset); err != nil {
			return err
		}
		offset += len(batch)
		batch = make([]function.Row, 0, batchSize)
		return nil
	}

	buf := make([]parquet.Row, readBuffer)
	for _, rg := range r.pf.RowGroups() {
		rows := parquet.NewRowGroupReader(rg)

		for {
			n, readErr := rows.ReadRows(buf)
			for i := 0; i < n; i++ {
				rec, err := r.toRecord(buf[i])
				if err != nil {
					return fmt.Errorf("row %d: %w", offset+len(batch), err)
				}
				batch = append(batch, rec)
				if len(batch) == batchSize {
					if err := flush(); err != nil {
						return err
					}
				}
			}

			if readErr != nil {
				if errors.Is(readErr, io.EOF) {
					break
				}
				return fmt.Errorf("read rows: %w", readErr)
			}
		}
	}
	return flush()
}

// toRecord extracts bound values from a generic parquet row. Null values are
// left out so the row evaluates to null.
func (r *Reader) toRecord(row parquet.Row) (function.Record, error) {
	rec := function.Record{
		Structs: make(map[string]map[string]float64),
		Scalars: make(map[string]uint64),
	}

	for _, v := range row {
		b, ok := r.bindings[v.Column()]
		if !ok || v.IsNull() {
			continue
		}

		if b.field == "" {
			id, err := scalarValue(v)
			if err != nil {
				return function.Record{}, fmt.Errorf("column %s: %w", strings.Join(r.columns[v.Column()], "."), err)
			}
			rec.Scalars[b.arg] = id
			continue
		}

		x, err := floatValue(v)
		if err != nil {
			return function.Record{}, fmt.Errorf("column %s: %w", strings.Join(r.columns[v.Column()], "."), err)
		}
		if rec.Structs[b.arg] == nil {
			rec.Structs[b.arg] = make(map[string]float64)
		}
		rec.Structs[b.arg][b.field] = x
	}
	return rec, nil
}

func floatValue(v parquet.Value) (float64, error) {
	switch v.Kind() {
	case parquet.Double:
		return v.Double(), nil
	case parquet.Float:
		return float64(v.Float()), nil
	case parquet.Int32:
		return float64(v.Int32()), nil
	case parquet.Int64:
		return float64(v.Int64()), nil
	default:
		return 0, fmt.Errorf("unsupported type %s for a numeric field", v.Kind())
	}
}

// scalarValue reads a cell id stored as a 64-bit integer (signed or not), a
// decimal string or a hex token.
func scalarValue(v parquet.Value) (uint64, error) {
	switch v.Kind() {
	case parquet.Int64:
		return uint64(v.Int64()), nil
	case parquet.Int32:
		return uint64(uint32(v.Int32())), nil
	case parquet.ByteArray:
		s := string(v.ByteArray())
		if n, err := strconv.ParseUint(s, 10, 64); err == nil {
			return n, nil
		}
		id, err := cell.FromToken(s)
		if err != nil {
			return 0, err
		}
		return uint64(id), nil
	default:
		return 0, fmt.Errorf("unsupported type %s for a cell id", v.Kind())
	}
}
