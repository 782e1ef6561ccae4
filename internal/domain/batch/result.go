package batch

// ItemStatus is the evaluation outcome of a single row.
type ItemStatus string

// Row status values.
const (
	StatusOK    ItemStatus = "ok"
	StatusNull  ItemStatus = "null"
	StatusError ItemStatus = "error"
)

// Result is the outcome of evaluating one row of a batch.
type Result struct {
	index  int
	status ItemStatus
	value  any
	err    error
}

// NewOK creates a successful row result.
func NewOK(index int, value any) Result {
	return Result{index: index, status: StatusOK, value: value}
}

// NewNull creates a result for a row with a missing input.
func NewNull(index int) Result { return Result{index: index, status: StatusNull} }

// NewError creates a failed row result.
func NewError(index int, err error) Result {
	return Result{index: index, status: StatusError, err: err}
}

// Index returns the row position in the request.
func (r Result) Index() int { return r.index }

// Status returns the evaluation outcome.
func (r Result) Status() ItemStatus { return r.status }

// Value returns the function output; nil unless Status is StatusOK.
func (r Result) Value() any { return r.value }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Count tallies results by status.
func Count(results []Result) map[ItemStatus]int {
	out := make(map[ItemStatus]int, 3)
	for _, r := range results {
		out[r.status]++
	}
	return out
}
