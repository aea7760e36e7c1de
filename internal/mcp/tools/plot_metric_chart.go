package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tsilva/sandbox-fastmcp/internal/charts"
	"github.com/tsilva/sandbox-fastmcp/internal/metrics"
)

type PlotMetricChartHandler struct {
	Service  MetricsService
	Observer ChartObserver
}

// ToolAdapter returns the data URI as text, followed by the same PNG as an
// image block for clients that render images.
func (h *PlotMetricChartHandler) ToolAdapter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	chart, err := chartArguments(args)
	if err != nil {
		return failure("create chart", err), nil
	}
	res, err := h.Service.PlotMetricChart(withClientReporter(ctx), metrics.PlotParams{
		RunRef: metrics.RunRef{
			Entity:  stringArgument(args, "entity"),
			Project: stringArgument(args, "project"),
			RunID:   stringArgument(args, "run_id"),
		},
		ChartParams: chart,
	})
	if err != nil {
		return failure("create chart", err), nil
	}
	if h.Observer != nil {
		h.Observer.ObserveChart("plot_metric_chart", len(res.PNG))
	}
	return mcp.NewToolResultImage(res.DataURI, charts.Base64(res.PNG), "image/png"), nil
}
