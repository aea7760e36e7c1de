package metrics

import (
	"context"
	"iter"

	"github.com/tsilva/sandbox-fastmcp/internal/wandb"
)

// API is the subset of the tracking client the service needs.
// *wandb.Client satisfies it.
type API interface {
	Viewer(ctx context.Context) (wandb.Viewer, error)
	Projects(ctx context.Context, entity string) iter.Seq2[wandb.Project, error]
	Project(ctx context.Context, entity, name string) (wandb.Project, error)
	Runs(ctx context.Context, entity, project string, filter wandb.RunFilter) iter.Seq2[wandb.Run, error]
	Run(ctx context.Context, entity, project, runID string) (wandb.Run, error)
	History(ctx context.Context, entity, project, runID string, samples int) (wandb.HistoryTable, error)
}

var _ API = (*wandb.Client)(nil)
