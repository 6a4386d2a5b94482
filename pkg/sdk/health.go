package searchkv

import "context"

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component -> "ok", "missing" or "error"
}

// Health checks Redis connectivity and the presence of the bucket index.
func (b *Bucket) Health(ctx context.Context) HealthStatus {
	report := b.health.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}
