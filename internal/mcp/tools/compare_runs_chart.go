package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tsilva/sandbox-fastmcp/internal/charts"
	"github.com/tsilva/sandbox-fastmcp/internal/mcp/tools/types"
	"github.com/tsilva/sandbox-fastmcp/internal/metrics"
)

type CompareRunsChartHandler struct {
	Service  MetricsService
	Observer ChartObserver
}

func (h *CompareRunsChartHandler) ToolAdapter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	runIDs, err := stringListArgument(args, "run_ids")
	if err != nil {
		return failure("create comparison chart", err), nil
	}
	chart, err := chartArguments(args)
	if err != nil {
		return failure("create comparison chart", err), nil
	}
	res, err := h.Service.CompareRunsChart(withClientReporter(ctx), metrics.CompareParams{
		Entity:      stringArgument(args, "entity"),
		Project:     stringArgument(args, "project"),
		RunIDs:      runIDs,
		ChartParams: chart,
	})
	if err != nil {
		return failure("create comparison chart", err), nil
	}
	if h.Observer != nil {
		h.Observer.ObserveChart("compare_runs_chart", len(res.PNG))
	}

	out := mcp.NewToolResultImage(res.DataURI, charts.Base64(res.PNG), "image/png")
	if len(res.Skipped) > 0 {
		out.Content = append(out.Content, mcp.NewTextContent(skippedNote(res.Skipped)))
	}
	return out, nil
}

func skippedNote(skipped []types.SkippedRun) string {
	lines := make([]string, len(skipped))
	for i, s := range skipped {
		lines[i] = fmt.Sprintf("- %s: %s", s.RunID, s.Reason)
	}
	return fmt.Sprintf("Skipped %d run(s):\n%s", len(skipped), strings.Join(lines, "\n"))
}
