package vecgate

import "context"

// HealthStatus represents the store health.
type HealthStatus struct {
	Status  string            // "ok" or "degraded"
	Backend string            // sqlite, redis or postgres
	Checks  map[string]string // component → "ok"/"error"
}

// Health pings the store.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status:  string(report.Status),
		Backend: report.Backend,
		Checks:  checks,
	}
}
