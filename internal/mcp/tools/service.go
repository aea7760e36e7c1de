package tools

import (
	"context"

	"github.com/tsilva/sandbox-fastmcp/internal/mcp/tools/types"
	"github.com/tsilva/sandbox-fastmcp/internal/metrics"
)

// MetricsService is the pipeline the tool handlers call. *metrics.Service
// satisfies it.
type MetricsService interface {
	ListProjects(ctx context.Context, p metrics.ListProjectsParams) ([]types.ProjectRecord, error)
	ListRuns(ctx context.Context, p metrics.ListRunsParams) ([]types.RunRecord, error)
	GetRunMetrics(ctx context.Context, ref metrics.RunRef) (types.RunMetrics, error)
	PlotMetricChart(ctx context.Context, p metrics.PlotParams) (types.ChartResult, error)
	CompareRunsChart(ctx context.Context, p metrics.CompareParams) (types.ChartResult, error)
}

var _ MetricsService = (*metrics.Service)(nil)

// ChartObserver is told the size of every chart handed to a client.
type ChartObserver interface {
	ObserveChart(tool string, size int)
}
