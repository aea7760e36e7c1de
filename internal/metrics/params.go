package metrics

import (
	"fmt"
	"strings"

	"github.com/tsilva/sandbox-fastmcp/internal/charts"
	"github.com/tsilva/sandbox-fastmcp/internal/wandb"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100

	MinCompareRuns = 2
	MaxCompareRuns = 10
)

type ListProjectsParams struct {
	Entity string
	Limit  int
}

func (p ListProjectsParams) Validate() error {
	if strings.TrimSpace(p.Entity) == "" {
		return invalid("list projects", "entity is required")
	}
	return validateLimit("list projects", p.Limit)
}

type ListRunsParams struct {
	Entity  string
	Project string
	Limit   int
	// State filters by lifecycle state; empty means any.
	State string
}

func (p ListRunsParams) Validate() error {
	if err := requireFields("list runs", "entity", p.Entity, "project", p.Project); err != nil {
		return err
	}
	if p.State != "" {
		switch wandb.RunState(p.State) {
		case wandb.StateRunning, wandb.StateFinished, wandb.StateCrashed, wandb.StateFailed:
		default:
			return invalid("list runs", fmt.Sprintf("state must be one of running, finished, crashed, failed; got %q", p.State))
		}
	}
	return validateLimit("list runs", p.Limit)
}

type RunRef struct {
	Entity  string
	Project string
	RunID   string
}

func (r RunRef) Validate() error {
	return requireFields("get run metrics", "entity", r.Entity, "project", r.Project, "run_id", r.RunID)
}

// ChartParams are shared by the single-run and comparison charts.
type ChartParams struct {
	Metric string
	Kind   charts.Kind
	Title  string
	Width  int
	Height int
}

func (c ChartParams) validate(op string, kinds ...charts.Kind) error {
	if strings.TrimSpace(c.Metric) == "" {
		return invalid(op, "metric_name is required")
	}
	ok := false
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
		ok = ok || c.Kind == k
	}
	if !ok {
		return invalid(op, fmt.Sprintf("chart_type must be one of %s; got %q", strings.Join(names, ", "), c.Kind))
	}
	if c.Width < charts.MinWidth || c.Width > charts.MaxWidth {
		return invalid(op, fmt.Sprintf("width must be between %d and %d; got %d", charts.MinWidth, charts.MaxWidth, c.Width))
	}
	if c.Height < charts.MinHeight || c.Height > charts.MaxHeight {
		return invalid(op, fmt.Sprintf("height must be between %d and %d; got %d", charts.MinHeight, charts.MaxHeight, c.Height))
	}
	return nil
}

type PlotParams struct {
	RunRef
	ChartParams
}

func (p PlotParams) Validate() error {
	if err := requireFields("plot metric chart", "entity", p.Entity, "project", p.Project, "run_id", p.RunID); err != nil {
		return err
	}
	return p.validate("plot metric chart", charts.Line, charts.Scatter, charts.Bar)
}

type CompareParams struct {
	Entity  string
	Project string
	RunIDs  []string
	ChartParams
}

func (p CompareParams) Validate() error {
	const op = "compare runs chart"
	if err := requireFields(op, "entity", p.Entity, "project", p.Project); err != nil {
		return err
	}
	if n := len(p.RunIDs); n < MinCompareRuns || n > MaxCompareRuns {
		return invalid(op, fmt.Sprintf("run_ids must hold between %d and %d entries; got %d", MinCompareRuns, MaxCompareRuns, n))
	}
	for i, id := range p.RunIDs {
		if strings.TrimSpace(id) == "" {
			return invalid(op, fmt.Sprintf("run_ids[%d] is empty", i))
		}
	}
	return p.validate(op, charts.Line, charts.Scatter)
}

// DefaultChart returns chart parameters with the documented defaults.
func DefaultChart(metric string) ChartParams {
	return ChartParams{
		Metric: metric,
		Kind:   charts.Line,
		Width:  charts.DefaultWidth,
		Height: charts.DefaultHeight,
	}
}

func validateLimit(op string, limit int) error {
	if limit < 1 || limit > MaxLimit {
		return invalid(op, fmt.Sprintf("limit must be between 1 and %d; got %d", MaxLimit, limit))
	}
	return nil
}

// requireFields takes name/value pairs and rejects the first blank value.
func requireFields(op string, pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return invalid(op, pairs[i]+" is required")
		}
	}
	return nil
}
