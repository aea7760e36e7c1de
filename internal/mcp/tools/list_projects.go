package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tsilva/sandbox-fastmcp/internal/metrics"
)

type ListProjectsHandler struct {
	Service MetricsService
}

func (h *ListProjectsHandler) ToolAdapter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	limit, err := intArgument(args, "limit", metrics.DefaultLimit)
	if err != nil {
		return failure("fetch projects", err), nil
	}
	records, err := h.Service.ListProjects(withClientReporter(ctx), metrics.ListProjectsParams{
		Entity: stringArgument(args, "entity"),
		Limit:  limit,
	})
	if err != nil {
		return failure("fetch projects", err), nil
	}
	return mcp.NewToolResultText(string(mustMarshal(records))), nil
}
