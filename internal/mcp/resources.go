package mcp

import (
	"context"
	_ "embed"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tsilva/sandbox-fastmcp/internal/mcp/tools/types"
)

const (
	StatusURI = "wandb://status"
	HelpURI   = "wandb://help"
)

//go:embed help.md
var helpText string

// StatusSource reports connectivity without failing.
type StatusSource interface {
	Status(ctx context.Context) types.Status
}

func registerResources(s *server.MCPServer, status StatusSource) {
	s.AddResource(
		mcp.NewResource(StatusURI, "wandb status",
			mcp.WithResourceDescription("Check wandb connection status and configuration"),
			mcp.WithMIMEType("application/json"),
		),
		func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			var st types.Status
			if status != nil {
				st = status.Status(ctx)
			} else {
				st = types.Status{Status: "error", Teams: []string{}, Message: "Wandb connection failed: not configured"}
			}
			body, err := json.MarshalIndent(st, "", "  ")
			if err != nil {
				return nil, err
			}
			return []mcp.ResourceContents{mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(body),
			}}, nil
		},
	)

	s.AddResource(
		mcp.NewResource(HelpURI, "wandb help",
			mcp.WithResourceDescription("Help and usage examples for the wandb MCP server"),
			mcp.WithMIMEType("text/markdown"),
		),
		func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			return []mcp.ResourceContents{mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "text/markdown",
				Text:     helpText,
			}}, nil
		},
	)
}
