package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded means the store answers but the search index is unusable.
	Degraded Status = "degraded"
	// Unhealthy means the store is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckMissing indicates the index is not defined.
	CheckMissing CheckResult = "missing"
)

// Report aggregates health check results.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// Service coordinates health checks.
type Service struct {
	db      DBPinger
	indexes IndexChecker
	index   string
}

// New creates a Service checking the store and the named search index.
// indexes can be nil to skip the index check.
func New(db DBPinger, indexes IndexChecker, index string) *Service {
	return &Service{db: db, indexes: indexes, index: index}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
		return Report{Status: Unhealthy, Checks: checks}
	}
	checks["database"] = CheckOK

	if s.indexes != nil {
		checks["index"] = s.checkIndex(ctx)
	}

	status := Healthy
	for _, v := range checks {
		if v != CheckOK {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}

func (s *Service) checkIndex(ctx context.Context) CheckResult {
	ok, err := s.indexes.IndexExists(ctx, s.index)
	switch {
	case err != nil:
		return CheckError
	case !ok:
		return CheckMissing
	default:
		return CheckOK
	}
}
