// Package telemetry exposes Prometheus metrics for tool calls.
package telemetry

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ToolExecutions *prometheus.CounterVec
	ToolDuration   *prometheus.HistogramVec
	ToolsInFlight  prometheus.Gauge
	ChartBytes     *prometheus.HistogramVec
}

// NewMetrics registers every collector with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ToolExecutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcp_tool_executions_total",
				Help: "Total number of MCP tool executions",
			},
			[]string{"tool_name", "status"}, // success, error
		),
		ToolDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mcp_tool_execution_duration_seconds",
				Help:    "Duration of MCP tool executions in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"tool_name"},
		),
		ToolsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "mcp_tool_executions_in_flight",
				Help: "Number of tool calls currently running",
			},
		),
		ChartBytes: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mcp_chart_png_bytes",
				Help:    "Size of rendered chart images in bytes",
				Buckets: prometheus.ExponentialBuckets(10_000, 2, 8),
			},
			[]string{"tool_name"},
		),
	}
}

// ToolMiddleware records call counts, durations and outcome per tool. A
// result flagged IsError counts as an error.
func (m *Metrics) ToolMiddleware(next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name := req.Params.Name
		m.ToolsInFlight.Inc()
		start := time.Now()
		defer func() {
			m.ToolsInFlight.Dec()
			m.ToolDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		}()

		res, err := next(ctx, req)
		status := "success"
		if err != nil || (res != nil && res.IsError) {
			status = "error"
		}
		m.ToolExecutions.WithLabelValues(name, status).Inc()
		return res, err
	}
}

// ObserveChart records the size of a rendered chart.
func (m *Metrics) ObserveChart(tool string, size int) {
	if m == nil {
		return
	}
	m.ChartBytes.WithLabelValues(tool).Observe(float64(size))
}
