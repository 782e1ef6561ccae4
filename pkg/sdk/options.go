package geoframe

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	maxBatchSize int
	workers      int
	cellLevel    *int
	coef         *float64

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithMaxBatchSize sets the maximum number of rows per Evaluate call.
// Default: 10000.
func WithMaxBatchSize(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxBatchSize = size
	})
}

// WithWorkers bounds how many partitions of a batch are evaluated at once.
// Default: 4.
func WithWorkers(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.workers = n
	})
}

// WithCellLevel sets the S2 level used when a call does not pass one.
// Default: 30 (leaf cells).
func WithCellLevel(level int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cellLevel = &level
	})
}

// WithCoef sets the interpolation coefficient used when a call does not pass one.
// Default: 0.5.
func WithCoef(coef float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.coef = &coef
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers evaluation metrics (request counts, row outcomes,
// durations) on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
