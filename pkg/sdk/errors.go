package geoframe

import "github.com/kailas-cloud/geoframe/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidOrientation = domain.ErrInvalidOrientation
	ErrInvalidLevel       = domain.ErrInvalidLevel
	ErrInvalidCell        = domain.ErrInvalidCell
	ErrUnknownFunction    = domain.ErrUnknownFunction
	ErrBatchTooLarge      = domain.ErrBatchTooLarge
)

// LevelError carries the rejected cell level. It matches ErrInvalidLevel.
type LevelError = domain.LevelError
