package columnar

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	dombatch "github.com/kailas-cloud/geoframe/internal/domain/batch"
)

// OutputRow is one evaluated row as written to the sink. Value holds the JSON
// encoding of the function output.
type OutputRow struct {
	Index  int64   `parquet:"index" json:"index"`
	Status string  `parquet:"status" json:"status"`
	Value  *string `parquet:"value,optional" json:"value,omitempty"`
	Error  *string `parquet:"error,optional" json:"error,omitempty"`
}

// NewOutputRow converts a batch result. offset shifts the batch-relative index
// to the file position. A value without a JSON form (NaN, Inf) becomes an
// error row.
func NewOutputRow(r dombatch.Result, offset int) OutputRow {
	row := OutputRow{Index: int64(offset + r.Index()), Status: string(r.Status())}

	switch r.Status() {
	case dombatch.StatusOK:
		b, err := json.Marshal(r.Value())
		if err != nil {
			row.Status = string(dombatch.StatusError)
			msg := "result is not finite"
			row.Error = &msg
			return row
		}
		s := string(b)
		row.Value = &s
	case dombatch.StatusError:
		msg := r.Err().Error()
		row.Error = &msg
	}
	return row
}

// Sink receives evaluated rows in file order.
type Sink interface {
	Write(rows []OutputRow) error
	Close() error
}

// ParquetSink writes rows to a Parquet file.
type ParquetSink struct {
	file *os.File
	w    *parquet.GenericWriter[OutputRow]
}

// CreateParquet creates (or truncates) path.
func CreateParquet(path string) (*ParquetSink, error) {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}
	return &ParquetSink{file: f, w: parquet.NewGenericWriter[OutputRow](f)}, nil
}

// Write appends rows.
func (s *ParquetSink) Write(rows []OutputRow) error {
	if _, err := s.w.Write(rows); err != nil {
		return fmt.Errorf("write parquet: %w", err)
	}
	return nil
}

// Close flushes the footer and closes the file.
func (s *ParquetSink) Close() error {
	if err := s.w.Close(); err != nil {
		_ = s.file.Close()
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return s.file.Close()
}

// JSONSink writes one JSON object per line.
type JSONSink struct {
	enc *json.Encoder
	c   io.Closer
}

// NewJSONSink writes to w. If w is an io.Closer it is closed with the sink.
func NewJSONSink(w io.Writer) *JSONSink {
	s := &JSONSink{enc: json.NewEncoder(w)}
	if c, ok := w.(io.Closer); ok {
		s.c = c
	}
	return s
}

// Write appends rows.
func (s *JSONSink) Write(rows []OutputRow) error {
	for i := range rows {
		if err := s.enc.Encode(&rows[i]); err != nil {
			return fmt.Errorf("write json: %w", err)
		}
	}
	return nil
}

// Close closes the underlying writer when it is closable.
func (s *JSONSink) Close() error {
	if s.c == nil {
		return nil
	}
	return s.c.Close()
}
