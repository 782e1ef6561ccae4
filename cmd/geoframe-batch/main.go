// geoframe-batch evaluates one function over every row of a Parquet file.
//
// Usage:
//
//	geoframe-batch -in fixes.parquet -function s2.lonlat_to_cellid -level 20 -out cells.parquet
//	geoframe-batch -in poses.parquet -function transform.map_to_ecef -map rotation.w=orientation.qw
//
// Output ending in .parquet is written as Parquet; anything else (or no
// -out) is written as JSON lines.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/geoframe/internal/columnar"
	dombatch "github.com/kailas-cloud/geoframe/internal/domain/batch"
	"github.com/kailas-cloud/geoframe/internal/domain/cell"
	"github.com/kailas-cloud/geoframe/internal/domain/function"
	logpkg "github.com/kailas-cloud/geoframe/internal/logger"
	"github.com/kailas-cloud/geoframe/internal/metrics"
	evaluateuc "github.com/kailas-cloud/geoframe/internal/usecase/evaluate"
	"github.com/kailas-cloud/geoframe/internal/version"
)

func main() {
	cfg := parseFlags(os.Args[1:])
	if cfg.version {
		fmt.Println("geoframe-batch", version.String())
		return
	}

	logger, err := logpkg.NewLogger("cli", cfg.logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()
	ctx = logpkg.ContextWithLogger(ctx, logger)
	ctx = logpkg.With(ctx, zap.String("in", cfg.in))

	if err := run(ctx, cfg, logger); err != nil {
		cancel()
		logger.Fatal("Batch failed", zap.Error(err))
	}
}

type config struct {
	in          string
	out         string
	function    string
	level       int
	coef        float64
	columns     columnFlag
	batchSize   int
	workers     int
	metricsPort string
	logLevel    string
	version     bool
}

// columnFlag collects repeated -map arg.field=column overrides.
type columnFlag map[string]string

func (c columnFlag) String() string {
	parts := make([]string, 0, len(c))
	for k, v := range c {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}

func (c columnFlag) Set(s string) error {
	key, column, ok := strings.Cut(s, "=")
	if !ok || key == "" || column == "" {
		return fmt.Errorf("want arg.field=column, got %q", s)
	}
	c[key] = column
	return nil
}

func parseFlags(args []string) config {
	cfg := config{columns: columnFlag{}}
	fs := flag.NewFlagSet("geoframe-batch", flag.ExitOnError)
	fs.StringVar(&cfg.in, "in", "", "input parquet file")
	fs.StringVar(&cfg.out, "out", "", "output file (.parquet or JSON lines; default stdout)")
	fs.StringVar(&cfg.function, "function", "", "qualified function name, e.g. s2.lonlat_to_cellid")
	fs.IntVar(&cfg.level, "level", cell.MaxLevel, "S2 cell level")
	fs.Float64Var(&cfg.coef, "coef", 0.5, "interpolation coefficient")
	fs.Var(cfg.columns, "map", "column override arg.field=column (repeatable)")
	fs.IntVar(&cfg.batchSize, "batch-size", 10000, "rows per evaluation batch")
	fs.IntVar(&cfg.workers, "workers", evaluateuc.DefaultWorkers, "concurrent partitions per batch")
	fs.StringVar(&cfg.metricsPort, "metrics-port", "", "serve Prometheus metrics on this port")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "debug, info, warn or error")
	fs.BoolVar(&cfg.version, "version", false, "print version and exit")
	_ = fs.Parse(args)
	return cfg
}

// summary tallies row outcomes across batches.
type summary struct {
	rows  int
	count map[dombatch.ItemStatus]int
}

func run(ctx context.Context, cfg config, logger *zap.Logger) error {
	if cfg.in == "" || cfg.function == "" {
		return errors.New("-in and -function are required")
	}
	start := time.Now()

	reg := prometheus.NewRegistry()
	if cfg.metricsPort != "" {
		srv := serveMetrics(cfg.metricsPort, reg, logger)
		defer func() {
			shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutCancel()
			_ = srv.Shutdown(shutCtx)
		}()
	}

	recorder, err := metrics.NewEvaluation(reg)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	registry := function.NewRegistry()
	fn, err := registry.Lookup(cfg.function)
	if err != nil {
		return err
	}

	svc := evaluateuc.New(registry, recorder).
		WithMaxBatchSize(cfg.batchSize).
		WithWorkers(cfg.workers).
		WithDefaults(function.Settings{Level: cfg.level, Coef: cfg.coef})

	reader, err := columnar.Open(cfg.in, fn.Args, cfg.columns)
	if err != nil {
		return fmt.Errorf("input: %w", err)
	}
	defer func() { _ = reader.Close() }()

	sink, err := openSink(cfg.out)
	if err != nil {
		return fmt.Errorf("output: %w", err)
	}

	logger.Info("Evaluating",
		zap.String("function", fn.FullName()),
		zap.String("in", cfg.in),
		zap.Int64("rows", reader.NumRows()),
	)

	sum, err := evaluateFile(ctx, svc, fn.FullName(), reader, sink, cfg.batchSize)
	if closeErr := sink.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	logger.Info("Done",
		zap.Int("rows", sum.rows),
		zap.Int("ok", sum.count[dombatch.StatusOK]),
		zap.Int("null", sum.count[dombatch.StatusNull]),
		zap.Int("error", sum.count[dombatch.StatusError]),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// evaluator is the subset of the evaluation service the batch loop needs.
type evaluator interface {
	Evaluate(ctx context.Context, name string, params function.Params, rows []function.Row) ([]dombatch.Result, error)
}

func evaluateFile(
	ctx context.Context, svc evaluator, name string, reader *columnar.Reader, sink columnar.Sink, batchSize int,
) (summary, error) {
	sum := summary{count: make(map[dombatch.ItemStatus]int, 3)}

	err := reader.Each(batchSize, func(rows []function.Row, offset int) error {
		results, err := svc.Evaluate(ctx, name, function.Params{}, rows)
		if err != nil {
			return fmt.Errorf("rows %d..%d: %w", offset, offset+len(rows)-1, err)
		}

		out := make([]columnar.OutputRow, len(results))
		for i, r := range results {
			out[i] = columnar.NewOutputRow(r, offset)
			sum.count[dombatch.ItemStatus(out[i].Status)]++
		}
		sum.rows += len(out)
		return sink.Write(out)
	})
	return sum, err
}

func openSink(path string) (columnar.Sink, error) {
	switch {
	case path == "" || path == "-":
		// Hide os.Stdout's Close from the sink.
		return columnar.NewJSONSink(struct{ io.Writer }{os.Stdout}), nil
	case strings.HasSuffix(path, ".parquet"):
		return columnar.CreateParquet(path)
	default:
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		return columnar.NewJSONSink(f), nil
	}
}

func serveMetrics(port string, reg *prometheus.Registry, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("Metrics server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server error", zap.Error(err))
		}
	}()
	return srv
}
