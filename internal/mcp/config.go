package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/tsilva/sandbox-fastmcp/internal/config"
	"github.com/tsilva/sandbox-fastmcp/internal/logging"
	"github.com/tsilva/sandbox-fastmcp/internal/mcp/tools"
	"github.com/tsilva/sandbox-fastmcp/internal/metrics"
	"github.com/tsilva/sandbox-fastmcp/internal/telemetry"
)

const DefaultEndpoint = "/mcp"

type Config struct {
	ToolAdapters map[string]ToolAdapter
	Options      []server.StreamableHTTPOption
	Status       StatusSource
	Metrics      *telemetry.Metrics
	// Gatherer backs the /metrics route; nil disables it.
	Gatherer prometheus.Gatherer
	Endpoint string
	Logger   logging.Logger
}

// DefaultConfig wires the tools to a lazily dialed tracking client built
// from the process configuration.
func DefaultConfig(log logging.Logger) Config {
	conn := metrics.NewConnection(metrics.WandbDialer(config.WandbClient(log), config.NetrcPath()))
	svc := metrics.NewService(conn, metrics.Config{
		HistorySamples: config.HistorySamples(),
		Logger:         log,
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	cfg := NewConfig(svc, telemetry.NewMetrics(reg), log)
	cfg.Gatherer = reg
	cfg.Endpoint = config.HTTPEndpoint()
	cfg.Options = append(cfg.Options, server.WithEndpointPath(cfg.Endpoint))
	return cfg
}

// NewConfig registers every tool against svc.
func NewConfig(svc *metrics.Service, m *telemetry.Metrics, log logging.Logger) Config {
	var observer tools.ChartObserver
	if m != nil {
		observer = m
	}
	return Config{
		ToolAdapters: map[string]ToolAdapter{
			"letter_counter":     &tools.LetterCounterHandler{},
			"list_projects":      &tools.ListProjectsHandler{Service: svc},
			"list_runs":          &tools.ListRunsHandler{Service: svc},
			"get_run_metrics":    &tools.GetRunMetricsHandler{Service: svc},
			"plot_metric_chart":  &tools.PlotMetricChartHandler{Service: svc, Observer: observer},
			"compare_runs_chart": &tools.CompareRunsChartHandler{Service: svc, Observer: observer},
		},
		Options: []server.StreamableHTTPOption{
			server.WithLogger(streamLogger{log: log.WithName("streamable")}),
		},
		Status:  svc,
		Metrics: m,
		Logger:  log,
	}
}
