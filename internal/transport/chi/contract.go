package chi

import (
	"context"

	"github.com/kailas-cloud/relevex/internal/domain/experiment"
	"github.com/kailas-cloud/relevex/internal/domain/profile"
	"github.com/kailas-cloud/relevex/internal/domain/search/request"
	"github.com/kailas-cloud/relevex/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/relevex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/relevex/internal/usecase/search"
)

// Searcher runs and explains searches.
type Searcher interface {
	Search(ctx context.Context, req *request.Request) (result.Response, error)
	Explain(ctx context.Context, req *request.Request) *searchuc.Plan
}

// ProfileLister lists registered scoring profiles.
type ProfileLister interface {
	Names() []profile.Name
}

// ExperimentLister lists AB tests accepting traffic.
type ExperimentLister interface {
	ActiveTests() []experiment.Test
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
