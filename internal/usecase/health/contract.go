package health

import "context"

// Checker is one named self-check.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// CheckFunc adapts a function to Checker.
type CheckFunc struct {
	CheckName string
	Fn        func(ctx context.Context) error
}

// Name returns the check name.
func (c CheckFunc) Name() string { return c.CheckName }

// Check runs the function.
func (c CheckFunc) Check(ctx context.Context) error { return c.Fn(ctx) }
