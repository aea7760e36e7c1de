package metrics

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"maps"
	"slices"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/tsilva/sandbox-fastmcp/internal/wandb"
)

// fakeAPI is an in-memory API. History rows are written as JSON strings and
// decoded with the real history parser.
type fakeAPI struct {
	mu       sync.Mutex
	viewer   wandb.Viewer
	projects []wandb.Project
	runs     map[string]wandb.Run
	history  map[string][]string
	failRuns map[string]error

	runCalls     int
	historyCalls int
	projectCalls int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		runs:     map[string]wandb.Run{},
		history:  map[string][]string{},
		failRuns: map[string]error{},
	}
}

func (f *fakeAPI) addRun(r wandb.Run, rows ...string) {
	if r.Entity == "" {
		r.Entity = "team"
	}
	if r.Project == "" {
		r.Project = "proj"
	}
	if r.State == "" {
		r.State = wandb.StateFinished
	}
	f.runs[r.ID] = r
	f.history[r.ID] = rows
}

func (f *fakeAPI) calls() (run, history int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runCalls, f.historyCalls
}

func (f *fakeAPI) Viewer(context.Context) (wandb.Viewer, error) {
	return f.viewer, nil
}

func (f *fakeAPI) Projects(_ context.Context, entity string) iter.Seq2[wandb.Project, error] {
	return func(yield func(wandb.Project, error) bool) {
		for _, p := range f.projects {
			if p.Entity != entity {
				continue
			}
			if !yield(p, nil) {
				return
			}
		}
	}
}

func (f *fakeAPI) Project(_ context.Context, entity, name string) (wandb.Project, error) {
	f.mu.Lock()
	f.projectCalls++
	f.mu.Unlock()
	for _, p := range f.projects {
		if p.Entity == entity && p.Name == name {
			return p, nil
		}
	}
	return wandb.Project{}, fmt.Errorf("project %s/%s: %w", entity, name, wandb.ErrNotFound)
}

func (f *fakeAPI) Runs(_ context.Context, entity, project string, filter wandb.RunFilter) iter.Seq2[wandb.Run, error] {
	return func(yield func(wandb.Run, error) bool) {
		for _, id := range slices.Sorted(maps.Keys(f.runs)) {
			r := f.runs[id]
			if r.Entity != entity || r.Project != project {
				continue
			}
			if filter.State != "" && r.State != filter.State {
				continue
			}
			if !yield(r, nil) {
				return
			}
		}
	}
}

func (f *fakeAPI) Run(_ context.Context, entity, project, runID string) (wandb.Run, error) {
	f.mu.Lock()
	f.runCalls++
	f.mu.Unlock()
	if err := f.failRuns[runID]; err != nil {
		return wandb.Run{}, err
	}
	r, ok := f.runs[runID]
	if !ok {
		return wandb.Run{}, fmt.Errorf("run %s/%s/%s: %w", entity, project, runID, wandb.ErrNotFound)
	}
	return r, nil
}

func (f *fakeAPI) History(_ context.Context, _, _, runID string, _ int) (wandb.HistoryTable, error) {
	f.mu.Lock()
	f.historyCalls++
	f.mu.Unlock()
	rows, ok := f.history[runID]
	if !ok {
		return wandb.HistoryTable{}, errors.New("history unavailable")
	}
	lines := make([]gjson.Result, len(rows))
	for i, row := range rows {
		lines[i] = gjson.Parse(row)
	}
	return wandb.ParseHistory(lines), nil
}
