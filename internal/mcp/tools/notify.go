package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tsilva/sandbox-fastmcp/internal/metrics"
)

const notifyLogger = "wandb"

// clientReporter forwards progress to the calling client as log
// notifications. Sessions without logging support are skipped silently.
type clientReporter struct{}

func (clientReporter) Info(ctx context.Context, msg string) {
	notify(ctx, mcp.LoggingLevelInfo, msg)
}

func (clientReporter) Warning(ctx context.Context, msg string) {
	notify(ctx, mcp.LoggingLevelWarning, msg)
}

func notify(ctx context.Context, level mcp.LoggingLevel, msg string) {
	srv := server.ServerFromContext(ctx)
	if srv == nil {
		return
	}
	_ = srv.SendLogMessageToClient(ctx, mcp.NewLoggingMessageNotification(level, notifyLogger, msg))
}

func withClientReporter(ctx context.Context) context.Context {
	return metrics.WithReporter(ctx, clientReporter{})
}
