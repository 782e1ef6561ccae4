package evaluate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/geoframe/internal/domain"
	"github.com/kailas-cloud/geoframe/internal/domain/batch"
	"github.com/kailas-cloud/geoframe/internal/domain/cell"
	"github.com/kailas-cloud/geoframe/internal/domain/function"
	"github.com/kailas-cloud/geoframe/internal/logger"
	"github.com/kailas-cloud/geoframe/internal/metrics"
)

// Service defaults.
const (
	DefaultMaxBatchSize = 10000
	DefaultWorkers      = 4
	// minPartition keeps tiny batches on one goroutine.
	minPartition = 256
)

// unknownLabel replaces unregistered names in metric labels.
const unknownLabel = "unknown"

// Service evaluates registered functions over batches of rows.
type Service struct {
	registry     Registry
	recorder     Recorder
	defaults     function.Settings
	maxBatchSize int
	workers      int
}

// New creates an evaluation service. recorder can be nil.
func New(registry Registry, recorder Recorder) *Service {
	return &Service{
		registry:     registry,
		recorder:     recorder,
		defaults:     function.Settings{Level: cell.MaxLevel, Coef: 0.5},
		maxBatchSize: DefaultMaxBatchSize,
		workers:      DefaultWorkers,
	}
}

// WithMaxBatchSize configures the maximum rows per call.
func (s *Service) WithMaxBatchSize(size int) *Service {
	if size > 0 {
		s.maxBatchSize = size
	}
	return s
}

// WithWorkers configures how many partitions are evaluated concurrently.
func (s *Service) WithWorkers(n int) *Service {
	if n > 0 {
		s.workers = n
	}
	return s
}

// WithDefaults configures the params used when a request omits them.
func (s *Service) WithDefaults(d function.Settings) *Service {
	s.defaults = d
	return s
}

// Functions lists the registered functions.
func (s *Service) Functions() []function.Function {
	return s.registry.List()
}

// Evaluate runs the named function over rows. Results are index-aligned with
// rows. Row-level failures (null inputs, invalid orientation, invalid cell)
// are reported per result; the returned error covers the request as a whole:
// unknown function, oversized batch, invalid level or a canceled context.
func (s *Service) Evaluate(
	ctx context.Context, name string, params function.Params, rows []function.Row,
) ([]batch.Result, error) {
	start := time.Now()
	log := logger.FromContext(ctx)

	f, err := s.registry.Lookup(name)
	if err != nil {
		s.observe(unknownLabel, metrics.OutcomeRejected, len(rows), start)
		return nil, fmt.Errorf("lookup: %w", err)
	}

	if len(rows) > s.maxBatchSize {
		s.observe(name, metrics.OutcomeRejected, len(rows), start)
		return nil, fmt.Errorf("%d rows exceed limit %d: %w", len(rows), s.maxBatchSize, domain.ErrBatchTooLarge)
	}

	settings := params.Resolve(s.defaults)
	if f.Accepts(function.ParamLevel) {
		if err := cell.ValidateLevel(settings.Level); err != nil {
			s.observe(name, metrics.OutcomeRejected, len(rows), start)
			return nil, fmt.Errorf("param %s: %w", function.ParamLevel, err)
		}
	}

	results, err := s.run(ctx, f, settings, rows)
	if err != nil {
		s.observe(name, metrics.OutcomeCanceled, len(rows), start)
		log.Warn("Evaluation interrupted",
			zap.String("function", name),
			zap.Int("rows", len(rows)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("evaluate %s: %w", name, err)
	}

	counts := batch.Count(results)
	s.observe(name, metrics.OutcomeOK, len(rows), start)
	if s.recorder != nil {
		s.recorder.ObserveRows(name, counts)
	}

	log.Debug("Evaluation completed",
		zap.String("function", name),
		zap.Int("rows", len(rows)),
		zap.Int("ok", counts[batch.StatusOK]),
		zap.Int("null", counts[batch.StatusNull]),
		zap.Int("error", counts[batch.StatusError]),
		zap.Duration("duration", time.Since(start)),
	)

	return results, nil
}

// run splits rows into contiguous partitions and evaluates them concurrently.
// Each goroutine writes only its own slice of results.
func (s *Service) run(
	ctx context.Context, f function.Function, settings function.Settings, rows []function.Row,
) ([]batch.Result, error) {
	results := make([]batch.Result, len(rows))
	if len(rows) == 0 {
		return results, ctx.Err()
	}

	size := max(minPartition, (len(rows)+s.workers-1)/s.workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for lo := 0; lo < len(rows); lo += size {
		if gctx.Err() != nil {
			break
		}
		lo := lo // per-iteration copy (go1.21 loop-variable semantics)
		hi := min(lo+size, len(rows))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i] = evalRow(f, i, rows[i], settings)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func evalRow(f function.Function, i int, row function.Row, settings function.Settings) batch.Result {
	if row == nil {
		return batch.NewNull(i)
	}
	v, present, err := f.Eval(row, settings)
	switch {
	case err != nil:
		return batch.NewError(i, err)
	case !present:
		return batch.NewNull(i)
	default:
		return batch.NewOK(i, v)
	}
}

func (s *Service) observe(name, outcome string, rows int, start time.Time) {
	if s.recorder == nil {
		return
	}
	s.recorder.ObserveRequest(name, outcome, rows, time.Since(start))
}
