package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tsilva/sandbox-fastmcp/internal/metrics"
)

type GetRunMetricsHandler struct {
	Service MetricsService
}

func (h *GetRunMetricsHandler) ToolAdapter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	resp, err := h.Service.GetRunMetrics(withClientReporter(ctx), metrics.RunRef{
		Entity:  stringArgument(args, "entity"),
		Project: stringArgument(args, "project"),
		RunID:   stringArgument(args, "run_id"),
	})
	if err != nil {
		return failure("get run metrics", err), nil
	}
	return mcp.NewToolResultText(string(mustMarshal(resp))), nil
}
