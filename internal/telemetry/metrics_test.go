package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callTool(name string) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	return req
}

func TestToolMiddlewareCountsOutcomes(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	ok := m.ToolMiddleware(func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("fine"), nil
	})
	toolErr := m.ToolMiddleware(func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultError("Failed to list runs: boom"), nil
	})
	protoErr := m.ToolMiddleware(func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, errors.New("boom")
	})

	_, err := ok(context.Background(), callTool("list_runs"))
	require.NoError(t, err)
	_, err = ok(context.Background(), callTool("list_runs"))
	require.NoError(t, err)
	_, err = toolErr(context.Background(), callTool("list_runs"))
	require.NoError(t, err)
	_, err = protoErr(context.Background(), callTool("list_projects"))
	require.Error(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ToolExecutions.WithLabelValues("list_runs", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolExecutions.WithLabelValues("list_runs", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolExecutions.WithLabelValues("list_projects", "error")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ToolsInFlight))
}

func TestObserveChartNilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.ObserveChart("plot_metric_chart", 100) })

	m = NewMetrics(prometheus.NewRegistry())
	m.ObserveChart("plot_metric_chart", 50_000)
	assert.Equal(t, 1, testutil.CollectAndCount(m.ChartBytes))
}
