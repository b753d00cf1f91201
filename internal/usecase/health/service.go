package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the store is down; search still runs without
	// preferences and analytics.
	Degraded Status = "degraded"
	// Unhealthy indicates the index is down and search cannot run.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	index Pinger
	store Pinger
}

// New creates a Service. store can be nil.
func New(index, store Pinger) *Service {
	return &Service{index: index, store: store}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	status := Healthy

	checks["index"] = check(ctx, s.index)
	if checks["index"] == CheckError {
		status = Unhealthy
	}

	if s.store != nil {
		checks["store"] = check(ctx, s.store)
		if checks["store"] == CheckError && status == Healthy {
			status = Degraded
		}
	}

	return Report{Status: status, Checks: checks}
}

func check(ctx context.Context, p Pinger) CheckResult {
	if err := p.Ping(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}
