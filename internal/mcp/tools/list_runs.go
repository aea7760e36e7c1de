package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tsilva/sandbox-fastmcp/internal/metrics"
)

type ListRunsHandler struct {
	Service MetricsService
}

func (h *ListRunsHandler) ToolAdapter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	limit, err := intArgument(args, "limit", metrics.DefaultLimit)
	if err != nil {
		return failure("fetch runs", err), nil
	}
	records, err := h.Service.ListRuns(withClientReporter(ctx), metrics.ListRunsParams{
		Entity:  stringArgument(args, "entity"),
		Project: stringArgument(args, "project"),
		Limit:   limit,
		State:   stringArgument(args, "state"),
	})
	if err != nil {
		return failure("fetch runs", err), nil
	}
	return mcp.NewToolResultText(string(mustMarshal(records))), nil
}
