package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidOrientation signals a zero or near-zero norm quaternion.
	ErrInvalidOrientation = errors.New("invalid orientation")
	// ErrInvalidLevel signals a cell subdivision level outside [0, 30].
	ErrInvalidLevel = errors.New("invalid cell level")
	// ErrInvalidCell signals a malformed cell identifier.
	ErrInvalidCell = errors.New("invalid cell id")
	// ErrUnknownFunction signals a function name missing from the registry.
	ErrUnknownFunction = errors.New("unknown function")
	// ErrBatchTooLarge signals a batch above the configured row limit.
	ErrBatchTooLarge = errors.New("batch too large")
	// ErrInvalidRequest signals a malformed request payload.
	ErrInvalidRequest = errors.New("invalid request")
)

// LevelError wraps ErrInvalidLevel with the rejected level.
type LevelError struct {
	Level int
}

func (e *LevelError) Error() string {
	return fmt.Sprintf("%s: %d not in [0, 30]", ErrInvalidLevel.Error(), e.Level)
}

func (e *LevelError) Unwrap() error { return ErrInvalidLevel }

// NewLevelError creates an invalid level error.
func NewLevelError(level int) error {
	return &LevelError{Level: level}
}
