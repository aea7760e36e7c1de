// Package version carries the build version, overridable with
// -ldflags "-X github.com/tsilva/sandbox-fastmcp/internal/version.Version=...".
package version

var Version = "0.1.0"

const ServerName = "wandb-mcp-server"
