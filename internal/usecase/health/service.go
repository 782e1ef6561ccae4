package health

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/geoframe/internal/logger"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all checks pass.
	Healthy Status = "ok"
	// Degraded indicates at least one failing check.
	Degraded Status = "degraded"
)

// CheckResult represents an individual check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing check.
	CheckError CheckResult = "error"
)

// Report aggregates check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service runs self-checks.
type Service struct {
	checks []Checker
}

// New creates a Service running the given checks.
func New(checks ...Checker) *Service {
	return &Service{checks: checks}
}

// Check runs every check.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, len(s.checks))
	status := Healthy

	for _, c := range s.checks {
		if err := c.Check(ctx); err != nil {
			logger.FromContext(ctx).Warn("health check failed",
				zap.String("check", c.Name()),
				zap.Error(err),
			)
			checks[c.Name()] = CheckError
			status = Degraded
			continue
		}
		checks[c.Name()] = CheckOK
	}

	return Report{Status: status, Checks: checks}
}
