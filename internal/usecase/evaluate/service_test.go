package evaluate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/geoframe/internal/domain"
	"github.com/kailas-cloud/geoframe/internal/domain/batch"
	"github.com/kailas-cloud/geoframe/internal/domain/function"
	"github.com/kailas-cloud/geoframe/internal/logger"
)

// --- Mocks ---

type recordedRequest struct {
	function, outcome string
	rows              int
}

type mockRecorder struct {
	mu       sync.Mutex
	requests []recordedRequest
	rows     map[batch.ItemStatus]int
}

func (m *mockRecorder) ObserveRequest(fn, outcome string, rows int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, recordedRequest{fn, outcome, rows})
}

func (m *mockRecorder) ObserveRows(_ string, counts map[batch.ItemStatus]int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = counts
}

func ptr[T any](v T) *T { return &v }

func pointRow(lon, lat float64) function.Record {
	return function.Record{Structs: map[string]map[string]float64{
		"point": {"lon": lon, "lat": lat},
	}}
}

// --- Tests ---

func TestEvaluate_CellIDs(t *testing.T) {
	rec := &mockRecorder{}
	svc := New(function.NewRegistry(), rec)

	rows := []function.Row{
		pointRow(36.077147686805766, 56.783927007002866),
		function.Record{}, // null
		pointRow(36.077147686805766, 56.783927007002866),
	}
	results, err := svc.Evaluate(context.Background(), "s2.lonlat_to_cellid", function.Params{}, rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	if results[0].Status() != batch.StatusOK || results[0].Value() != uint64(5095400969591719543) {
		t.Errorf("row 0 = %v / %v", results[0].Status(), results[0].Value())
	}
	if results[1].Status() != batch.StatusNull {
		t.Errorf("row 1 status = %q, want null", results[1].Status())
	}
	for i, r := range results {
		if r.Index() != i {
			t.Errorf("result %d has index %d", i, r.Index())
		}
	}

	if len(rec.requests) != 1 || rec.requests[0].outcome != "ok" || rec.requests[0].rows != 3 {
		t.Errorf("recorded requests = %+v", rec.requests)
	}
	if rec.rows[batch.StatusOK] != 2 || rec.rows[batch.StatusNull] != 1 {
		t.Errorf("recorded rows = %v", rec.rows)
	}
}

func TestEvaluate_LevelParam(t *testing.T) {
	svc := New(function.NewRegistry(), nil)
	rows := []function.Row{pointRow(36.077147686805766, 56.783927007002866)}

	results, err := svc.Evaluate(context.Background(), "s2.lonlat_to_cellid", function.Params{Level: ptr(0)}, rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id := results[0].Value().(uint64)
	// level 0 ids carry only the face bits and the trailing marker
	if id&((1<<61)-1) != 1<<60 {
		t.Errorf("level 0 id = %#x", id)
	}
}

func TestEvaluate_InvalidLevelRejectsRequest(t *testing.T) {
	rec := &mockRecorder{}
	svc := New(function.NewRegistry(), rec)
	rows := []function.Row{pointRow(0, 0)}

	_, err := svc.Evaluate(context.Background(), "s2.lonlat_to_cellid", function.Params{Level: ptr(31)}, rows)
	if !errors.Is(err, domain.ErrInvalidLevel) {
		t.Fatalf("expected ErrInvalidLevel, got %v", err)
	}
	if len(rec.requests) != 1 || rec.requests[0].outcome != "rejected" {
		t.Errorf("recorded requests = %+v", rec.requests)
	}
}

func TestEvaluate_LevelIgnoredByOtherFunctions(t *testing.T) {
	svc := New(function.NewRegistry(), nil)
	rows := []function.Row{function.Record{Structs: map[string]map[string]float64{
		"point": {"x": 0, "y": 0},
		"other": {"x": 3, "y": 4},
	}}}

	results, err := svc.Evaluate(context.Background(), "distance.euclidean_2d", function.Params{Level: ptr(99)}, rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Value() != 5.0 {
		t.Errorf("value = %v, want 5", results[0].Value())
	}
}

func TestEvaluate_UnknownFunction(t *testing.T) {
	rec := &mockRecorder{}
	svc := New(function.NewRegistry(), rec)

	_, err := svc.Evaluate(context.Background(), "nope.nothing", function.Params{}, nil)
	if !errors.Is(err, domain.ErrUnknownFunction) {
		t.Fatalf("expected ErrUnknownFunction, got %v", err)
	}
	if rec.requests[0].function != unknownLabel {
		t.Errorf("metric label = %q, want %q", rec.requests[0].function, unknownLabel)
	}
}

func TestEvaluate_BatchTooLarge(t *testing.T) {
	svc := New(function.NewRegistry(), nil).WithMaxBatchSize(2)
	rows := []function.Row{pointRow(0, 0), pointRow(1, 1), pointRow(2, 2)}

	_, err := svc.Evaluate(context.Background(), "s2.lonlat_to_cellid", function.Params{}, rows)
	if !errors.Is(err, domain.ErrBatchTooLarge) {
		t.Fatalf("expected ErrBatchTooLarge, got %v", err)
	}
}

func TestEvaluate_RowErrorsDoNotFailBatch(t *testing.T) {
	svc := New(function.NewRegistry(), nil)
	rows := []function.Row{
		function.Record{Scalars: map[string]uint64{"cell": 5095400969591719543}},
		function.Record{Scalars: map[string]uint64{"cell": 0}},
	}

	results, err := svc.Evaluate(context.Background(), "s2.cell_area", function.Params{}, rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Status() != batch.StatusOK {
		t.Errorf("row 0 status = %q", results[0].Status())
	}
	if results[1].Status() != batch.StatusError || !errors.Is(results[1].Err(), domain.ErrInvalidCell) {
		t.Errorf("row 1 = %q / %v", results[1].Status(), results[1].Err())
	}
}

func TestEvaluate_NilRowIsNull(t *testing.T) {
	svc := New(function.NewRegistry(), nil)
	results, err := svc.Evaluate(context.Background(), "s2.cell_area", function.Params{}, []function.Row{nil})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Status() != batch.StatusNull {
		t.Errorf("status = %q, want null", results[0].Status())
	}
}

func TestEvaluate_PartitionsPreserveOrder(t *testing.T) {
	svc := New(function.NewRegistry(), nil).WithWorkers(8)

	const n = 5000
	rows := make([]function.Row, n)
	for i := range rows {
		rows[i] = function.Record{Structs: map[string]map[string]float64{
			"point": {"x": float64(i), "y": 0},
			"other": {"x": 0, "y": 0},
		}}
	}

	results, err := svc.Evaluate(context.Background(), "distance.euclidean_2d", function.Params{}, rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, r := range results {
		if r.Index() != i || r.Value() != float64(i) {
			t.Fatalf("row %d: index %d value %v", i, r.Index(), r.Value())
		}
	}
}

func TestEvaluate_CanceledContext(t *testing.T) {
	rec := &mockRecorder{}
	svc := New(function.NewRegistry(), rec)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rows := []function.Row{pointRow(0, 0)}
	_, err := svc.Evaluate(ctx, "s2.lonlat_to_cellid", function.Params{}, rows)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if rec.requests[0].outcome != "canceled" {
		t.Errorf("outcome = %q, want canceled", rec.requests[0].outcome)
	}
}

func TestEvaluate_InterpolateDefaultsCoef(t *testing.T) {
	svc := New(function.NewRegistry(), nil).WithDefaults(function.Settings{Level: 30, Coef: 0.25})
	rows := []function.Row{function.Record{Structs: map[string]map[string]float64{
		"point": {"x": 4, "y": 0, "z": 0},
		"other": {"x": 0, "y": 0, "z": 0},
	}}}

	results, err := svc.Evaluate(context.Background(), "transform.interpolate_linear", function.Params{}, rows)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := results[0].Value().(function.XYZ); got.X != 1 {
		t.Errorf("x = %f, want 1", got.X)
	}
}

func TestEvaluate_LogsThroughContextLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	ctx := logger.ContextWithLogger(context.Background(), zap.New(core))

	svc := New(function.NewRegistry(), nil)
	if _, err := svc.Evaluate(ctx, "s2.lonlat_to_cellid", function.Params{}, []function.Row{pointRow(0, 0)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries := logs.FilterMessage("Evaluation completed").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 completion log, got %d", len(entries))
	}
	if fn := entries[0].ContextMap()["function"]; fn != "s2.lonlat_to_cellid" {
		t.Errorf("logged function = %v", fn)
	}
}

func TestFunctions(t *testing.T) {
	svc := New(function.NewRegistry(), nil)
	if len(svc.Functions()) == 0 {
		t.Fatal("expected registered functions")
	}
}
