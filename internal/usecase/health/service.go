package health

import (
	"context"

	"go.uber.org/zap"

	"github.com/NCIOCPL/clinical-trials-search-print/internal/logger"
)

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

// Check names in the report.
const (
	CheckCache     = "cache"
	CheckTrialsAPI = "trials_api"
)

// Report aggregates health check results.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// Service coordinates health checks.
type Service struct {
	cache     CachePinger
	trialsAPI TrialsAPIPinger
}

// New creates a Service. trialsAPI can be nil.
func New(cache CachePinger, trialsAPI TrialsAPIPinger) *Service {
	return &Service{cache: cache, trialsAPI: trialsAPI}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks[CheckCache] = run(ctx, CheckCache, s.cache.Ping)
	if s.trialsAPI != nil {
		checks[CheckTrialsAPI] = run(ctx, CheckTrialsAPI, s.trialsAPI.Ping)
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

func run(ctx context.Context, name string, ping func(context.Context) error) CheckResult {
	if err := ping(ctx); err != nil {
		logger.FromContext(ctx).Warn("Health check failed", zap.String("check", name), zap.Error(err))
		return CheckError
	}
	return CheckOK
}
