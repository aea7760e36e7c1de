package mcp

import (
	"context"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tsilva/sandbox-fastmcp/internal/charts"
	"github.com/tsilva/sandbox-fastmcp/internal/logging"
	"github.com/tsilva/sandbox-fastmcp/internal/metrics"
	"github.com/tsilva/sandbox-fastmcp/internal/version"
)

type ToolAdapter interface {
	ToolAdapter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

const instructions = `This server connects to Weights & Biases (wandb) to retrieve and visualize
ML experiment data. Use it to:
- List projects and runs
- Get run metrics and metadata
- Plot charts for specific metrics
- Compare metrics across multiple runs

Make sure you have wandb API key configured before using these tools.`

type Server struct {
	MCP     *server.MCPServer
	HTTP    *server.StreamableHTTPServer
	Handler http.Handler
	log     logging.Logger
}

func New(cfg Config) *Server {
	opts := []server.ServerOption{
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, false),
		server.WithLogging(),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	}
	if cfg.Metrics != nil {
		opts = append(opts, server.WithToolHandlerMiddleware(cfg.Metrics.ToolMiddleware))
	}
	mcpServer := server.NewMCPServer(version.ServerName, version.Version, opts...)

	toolDefinitions := toolDefinitions()
	for name, adapter := range cfg.ToolAdapters {
		tool, ok := toolDefinitions[name]
		if !ok {
			cfg.Logger.Info("skipping adapter without tool definition", "tool", name)
			continue
		}
		mcpServer.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return adapter.ToolAdapter(ctx, req)
		})
	}
	registerResources(mcpServer, cfg.Status)

	httpServer := server.NewStreamableHTTPServer(mcpServer, cfg.Options...)

	s := &Server{
		MCP:  mcpServer,
		HTTP: httpServer,
		log:  cfg.Logger.WithName("mcp.server"),
	}
	s.Handler = newRouter(httpServer, cfg)
	return s
}

func toolDefinitions() map[string]mcp.Tool {
	entity := mcp.WithString("entity",
		mcp.Required(),
		mcp.Description("Wandb entity (username or team name)"),
	)
	project := mcp.WithString("project",
		mcp.Required(),
		mcp.Description("Wandb project name"),
	)
	limit := mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default: 10)"),
		mcp.Min(1),
		mcp.Max(metrics.MaxLimit),
		mcp.DefaultNumber(metrics.DefaultLimit),
	)
	metric := mcp.WithString("metric_name",
		mcp.Required(),
		mcp.Description("Name of the metric to plot (e.g., 'loss', 'accuracy')"),
	)
	title := mcp.WithString("title",
		mcp.Description("Custom chart title"),
	)
	width := mcp.WithNumber("width",
		mcp.Description("Chart width in pixels"),
		mcp.Min(charts.MinWidth),
		mcp.Max(charts.MaxWidth),
		mcp.DefaultNumber(charts.DefaultWidth),
	)
	height := mcp.WithNumber("height",
		mcp.Description("Chart height in pixels"),
		mcp.Min(charts.MinHeight),
		mcp.Max(charts.MaxHeight),
		mcp.DefaultNumber(charts.DefaultHeight),
	)

	return map[string]mcp.Tool{
		"letter_counter": mcp.NewTool("letter_counter",
			mcp.WithDescription("Count how many times a letter appears in the given text."),
			mcp.WithReadOnlyHintAnnotation(true),
			mcp.WithString("text",
				mcp.Required(),
				mcp.Description("Text to search"),
			),
			mcp.WithString("letter",
				mcp.Required(),
				mcp.Description("Letter to count (case-sensitive)"),
			),
		),
		"list_projects": mcp.NewTool("list_projects",
			mcp.WithDescription("List wandb projects for a given entity, with name, description, creation time and URL."),
			mcp.WithReadOnlyHintAnnotation(true),
			entity,
			limit,
		),
		"list_runs": mcp.NewTool("list_runs",
			mcp.WithDescription("List runs from a wandb project, newest first, with state, config, summary, tags and URL."),
			mcp.WithReadOnlyHintAnnotation(true),
			entity,
			project,
			limit,
			mcp.WithString("state",
				mcp.Description("Filter by run state"),
				mcp.Enum("running", "finished", "crashed", "failed"),
			),
		),
		"get_run_metrics": mcp.NewTool("get_run_metrics",
			mcp.WithDescription("Get metadata and every logged metric over time for a wandb run. Lists the metric names available for plotting."),
			mcp.WithReadOnlyHintAnnotation(true),
			entity,
			project,
			mcp.WithString("run_id",
				mcp.Required(),
				mcp.Description("Wandb run ID"),
			),
		),
		"plot_metric_chart": mcp.NewTool("plot_metric_chart",
			mcp.WithDescription("Create a chart of one metric from a wandb run. Returns a data:image/png;base64 URI."),
			mcp.WithReadOnlyHintAnnotation(true),
			entity,
			project,
			mcp.WithString("run_id",
				mcp.Required(),
				mcp.Description("Wandb run ID"),
			),
			metric,
			mcp.WithString("chart_type",
				mcp.Description("Type of chart to create"),
				mcp.Enum(string(charts.Line), string(charts.Scatter), string(charts.Bar)),
				mcp.DefaultString(string(charts.Line)),
			),
			title,
			width,
			height,
		),
		"compare_runs_chart": mcp.NewTool("compare_runs_chart",
			mcp.WithDescription("Compare one metric across several wandb runs on a single chart. Runs lacking the metric are skipped. Returns a data:image/png;base64 URI."),
			mcp.WithReadOnlyHintAnnotation(true),
			entity,
			project,
			mcp.WithArray("run_ids",
				mcp.Required(),
				mcp.Description("List of run IDs to compare"),
				mcp.WithStringItems(),
				mcp.MinItems(metrics.MinCompareRuns),
				mcp.MaxItems(metrics.MaxCompareRuns),
			),
			metric,
			mcp.WithString("chart_type",
				mcp.Description("Type of chart to create"),
				mcp.Enum(string(charts.Line), string(charts.Scatter)),
				mcp.DefaultString(string(charts.Line)),
			),
			title,
			width,
			height,
		),
	}
}
