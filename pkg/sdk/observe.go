package geoframe

import (
	"log/slog"
	"time"
)

// observer logs SDK operations. Metrics are recorded by the evaluation
// use case itself.
type observer struct {
	logger *slog.Logger
}

func newObserver(logger *slog.Logger) *observer {
	return &observer{logger: logger}
}

func (o *observer) observe(op string, start time.Time, rows int, err error) {
	if o == nil || o.logger == nil {
		return
	}
	dur := time.Since(start)

	if err != nil {
		o.logger.Warn("operation failed",
			"op", op,
			"rows", rows,
			"duration", dur,
			"error", err,
		)
		return
	}
	o.logger.Debug("operation completed",
		"op", op,
		"rows", rows,
		"duration", dur,
	)
}
