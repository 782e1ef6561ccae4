package evaluate

import (
	"time"

	"github.com/kailas-cloud/geoframe/internal/domain/batch"
	"github.com/kailas-cloud/geoframe/internal/domain/function"
)

// Registry resolves function names.
type Registry interface {
	Lookup(name string) (function.Function, error)
	List() []function.Function
}

// Recorder receives evaluation measurements. *metrics.Evaluation implements it.
type Recorder interface {
	ObserveRequest(function, outcome string, rows int, d time.Duration)
	ObserveRows(function string, counts map[batch.ItemStatus]int)
}
