package geoframe

import "context"

// HealthStatus is the outcome of the built-in self-checks.
type HealthStatus struct {
	Status string            // "ok" or "degraded"
	Checks map[string]string // check name -> "ok"/"error"
}

// Health recomputes known reference vectors (frame transform, geodetic
// conversion, cell encoding, quad distance) and reports any mismatch.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}
