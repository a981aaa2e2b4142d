package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
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

// Service coordinates health checks over the vector index, the record
// database, and the embedding provider.
type Service struct {
	index    IndexPinger
	records  RecordPinger
	provider ProviderChecker
}

// New creates a Service. provider can be nil when only the local embedder
// is configured.
func New(index IndexPinger, records RecordPinger, provider ProviderChecker) *Service {
	return &Service{index: index, records: records, provider: provider}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks["vector_index"] = resultOf(s.index.Ping(ctx))
	checks["records"] = resultOf(s.records.PingContext(ctx))
	if s.provider != nil {
		checks["embedding"] = resultOf(s.provider.HealthCheck(ctx))
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}

func resultOf(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
