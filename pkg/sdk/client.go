package geoframe

import (
	"context"
	"fmt"
	"time"

	dombatch "github.com/kailas-cloud/geoframe/internal/domain/batch"
	"github.com/kailas-cloud/geoframe/internal/domain/cell"
	"github.com/kailas-cloud/geoframe/internal/domain/function"
	"github.com/kailas-cloud/geoframe/internal/metrics"
	evaluateuc "github.com/kailas-cloud/geoframe/internal/usecase/evaluate"
	healthuc "github.com/kailas-cloud/geoframe/internal/usecase/health"
)

// Use case seams, replaced by mocks in tests.
type evaluateUseCase interface {
	Evaluate(ctx context.Context, name string, params function.Params, rows []function.Row) ([]dombatch.Result, error)
	Functions() []function.Function
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the geoframe SDK entry point. It evaluates functions in process.
type Client struct {
	evalSvc   evaluateUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a Client.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	var recorder evaluateuc.Recorder
	if cfg.metricsReg != nil {
		m, err := metrics.NewEvaluation(cfg.metricsReg)
		if err != nil {
			return nil, fmt.Errorf("geoframe: %w", err)
		}
		recorder = m
	}

	defaults := function.Settings{Level: cell.MaxLevel, Coef: 0.5}
	if cfg.cellLevel != nil {
		defaults.Level = *cfg.cellLevel
	}
	if cfg.coef != nil {
		defaults.Coef = *cfg.coef
	}

	svc := evaluateuc.New(function.NewRegistry(), recorder).WithDefaults(defaults)
	if cfg.maxBatchSize > 0 {
		svc = svc.WithMaxBatchSize(cfg.maxBatchSize)
	}
	if cfg.workers > 0 {
		svc = svc.WithWorkers(cfg.workers)
	}

	return &Client{
		evalSvc:   svc,
		healthSvc: healthuc.New(healthuc.ReferenceChecks()...),
		obs:       newObserver(cfg.logger),
	}, nil
}

// Evaluate runs the named function ("namespace.name") over rows.
// Results are index-aligned with rows. The error covers the call as a whole:
// unknown function, too many rows, invalid level or a canceled context.
// Per-row failures are reported in Result.Err.
func (c *Client) Evaluate(ctx context.Context, name string, rows []Row, params Params) (_ []Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("evaluate "+name, start, len(rows), err) }()

	in := make([]function.Row, len(rows))
	for i, r := range rows {
		in[i] = toInternalRow(r)
	}

	results, err := c.evalSvc.Evaluate(ctx, name, function.Params{Level: params.Level, Coef: params.Coef}, in)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", name, err)
	}
	return fromBatchResults(results), nil
}

// Functions lists the registered functions sorted by name.
func (c *Client) Functions() []FunctionInfo {
	fns := c.evalSvc.Functions()
	out := make([]FunctionInfo, len(fns))
	for i, f := range fns {
		out[i] = fromInternalFunction(f)
	}
	return out
}

func toInternalRow(r Row) function.Row {
	if r.Structs == nil && r.Scalars == nil {
		return nil
	}
	rec := function.Record{
		Structs: make(map[string]map[string]float64, len(r.Structs)),
		Scalars: r.Scalars,
	}
	for name, f := range r.Structs {
		rec.Structs[name] = f
	}
	return rec
}

func fromBatchResults(results []dombatch.Result) []Result {
	out := make([]Result, len(results))
	for i, r := range results {
		out[i] = Result{
			Index:  r.Index(),
			Status: Status(r.Status()),
			Value:  r.Value(),
			Err:    r.Err(),
		}
	}
	return out
}

func fromInternalFunction(f function.Function) FunctionInfo {
	args := make([]ArgInfo, len(f.Args))
	for i, a := range f.Args {
		args[i] = ArgInfo{Name: a.Name, Fields: a.Fields}
	}
	return FunctionInfo{
		Name:        f.FullName(),
		Namespace:   f.Namespace,
		Description: f.Description,
		Args:        args,
		Params:      f.Params,
		Output:      string(f.Output),
	}
}
