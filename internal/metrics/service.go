// Package metrics turns experiment-tracking runs into records, metric
// series and charts.
package metrics

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tsilva/sandbox-fastmcp/internal/charts"
	"github.com/tsilva/sandbox-fastmcp/internal/logging"
	tooltypes "github.com/tsilva/sandbox-fastmcp/internal/mcp/tools/types"
	"github.com/tsilva/sandbox-fastmcp/internal/version"
	"github.com/tsilva/sandbox-fastmcp/internal/wandb"
)

const DefaultHistorySamples = 500

type Config struct {
	// HistorySamples caps the history rows fetched per run.
	HistorySamples int
	Logger         logging.Logger
}

// Service runs the listing, extraction and charting operations over a shared
// Connection.
type Service struct {
	conn    *Connection
	samples int
	log     logging.Logger
	render  func(charts.Options, ...charts.Series) ([]byte, error)
}

func NewService(conn *Connection, cfg Config) *Service {
	if cfg.HistorySamples <= 0 {
		cfg.HistorySamples = DefaultHistorySamples
	}
	return &Service{
		conn:    conn,
		samples: cfg.HistorySamples,
		log:     cfg.Logger.WithName("metrics.service"),
		render:  charts.Render,
	}
}

func (s *Service) ListProjects(ctx context.Context, p ListProjectsParams) ([]tooltypes.ProjectRecord, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	api, err := s.conn.Handle()
	if err != nil {
		return nil, err
	}
	reporterFrom(ctx).Info(ctx, "Fetching projects for entity: "+p.Entity)

	records := make([]tooltypes.ProjectRecord, 0, p.Limit)
	for proj, err := range api.Projects(ctx, p.Entity) {
		if err != nil {
			return nil, remote("list projects", err)
		}
		records = append(records, projectRecord(proj))
		if len(records) >= p.Limit {
			break
		}
	}
	s.log.Debug("listed projects", "entity", p.Entity, "count", len(records))
	reporterFrom(ctx).Info(ctx, fmt.Sprintf("Found %d projects", len(records)))
	return records, nil
}

func (s *Service) ListRuns(ctx context.Context, p ListRunsParams) ([]tooltypes.RunRecord, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	api, err := s.conn.Handle()
	if err != nil {
		return nil, err
	}
	reporterFrom(ctx).Info(ctx, fmt.Sprintf("Fetching runs for %s/%s", p.Entity, p.Project))

	if _, err := s.conn.Project(ctx, p.Entity, p.Project); err != nil {
		return nil, remote("list runs", err)
	}

	records := make([]tooltypes.RunRecord, 0, p.Limit)
	for run, err := range api.Runs(ctx, p.Entity, p.Project, wandb.RunFilter{State: wandb.RunState(p.State)}) {
		if err != nil {
			return nil, remote("list runs", err)
		}
		records = append(records, runRecord(run))
		if len(records) >= p.Limit {
			break
		}
	}
	s.log.Debug("listed runs", "entity", p.Entity, "project", p.Project, "state", p.State, "count", len(records))
	reporterFrom(ctx).Info(ctx, fmt.Sprintf("Found %d runs", len(records)))
	return records, nil
}

// GetRunMetrics returns run metadata and every metric's series. An empty
// history yields an empty mapping.
func (s *Service) GetRunMetrics(ctx context.Context, ref RunRef) (tooltypes.RunMetrics, error) {
	if err := ref.Validate(); err != nil {
		return tooltypes.RunMetrics{}, err
	}
	api, err := s.conn.Handle()
	if err != nil {
		return tooltypes.RunMetrics{}, err
	}
	reporterFrom(ctx).Info(ctx, "Fetching metrics for run "+ref.RunID)

	run, err := s.conn.Run(ctx, ref.Entity, ref.Project, ref.RunID)
	if err != nil {
		return tooltypes.RunMetrics{}, remote("get run metrics", err)
	}
	table, err := api.History(ctx, ref.Entity, ref.Project, ref.RunID, s.samples)
	if err != nil {
		return tooltypes.RunMetrics{}, remote("get run metrics", err)
	}

	over := map[string]tooltypes.MetricSeries{}
	for name, series := range ExtractAll(table) {
		over[name] = tooltypes.MetricSeries{
			Values:     series.Values,
			Steps:      series.Steps,
			FinalValue: series.Final(),
		}
	}
	available := make([]string, 0, len(over))
	for name := range over {
		available = append(available, name)
	}
	sort.Strings(available)
	reporterFrom(ctx).Info(ctx, fmt.Sprintf("Retrieved %d metrics for run %s", len(over), ref.RunID))

	return tooltypes.RunMetrics{
		ID:               run.ID,
		Name:             run.Name(),
		State:            string(run.State),
		CreatedAt:        formatTime(run.CreatedAt),
		Config:           nonNil(run.Config),
		Summary:          nonNil(run.Summary),
		URL:              run.URL,
		Tags:             tagsOf(run),
		MetricsOverTime:  over,
		AvailableMetrics: available,
	}, nil
}

func (s *Service) PlotMetricChart(ctx context.Context, p PlotParams) (tooltypes.ChartResult, error) {
	if err := p.Validate(); err != nil {
		return tooltypes.ChartResult{}, err
	}
	api, err := s.conn.Handle()
	if err != nil {
		return tooltypes.ChartResult{}, err
	}
	reporterFrom(ctx).Info(ctx, fmt.Sprintf("Creating %s chart for metric '%s' from run %s", p.Kind, p.Metric, p.RunID))

	run, series, err := s.loadSeries(ctx, api, p.RunRef, p.Metric)
	if err != nil {
		return tooltypes.ChartResult{}, err
	}
	label := run.Name()
	title := p.Title
	if title == "" {
		title = fmt.Sprintf("%s - %s", p.Metric, label)
	}

	png, err := s.render(charts.Options{
		Title:  title,
		XLabel: "Step",
		YLabel: p.Metric,
		Width:  p.Width,
		Height: p.Height,
		Kind:   p.Kind,
	}, charts.Series{Label: label, Steps: series.FloatSteps(), Values: series.Values, Color: charts.Palette(0)})
	if err != nil {
		return tooltypes.ChartResult{}, &Error{Kind: KindRender, Op: "plot metric chart", Msg: "render chart", Err: err}
	}
	reporterFrom(ctx).Info(ctx, fmt.Sprintf("Chart created successfully with %d data points", series.Len()))
	return tooltypes.ChartResult{
		DataURI: charts.DataURI(png),
		Points:  series.Len(),
		Plotted: []string{label},
		PNG:     png,
	}, nil
}

// CompareRunsChart overlays one metric from several runs. Runs are fetched
// one after another in input order; a run that cannot contribute is logged,
// reported and skipped. It fails only when no run contributes.
func (s *Service) CompareRunsChart(ctx context.Context, p CompareParams) (tooltypes.ChartResult, error) {
	const op = "compare runs chart"
	if err := p.Validate(); err != nil {
		return tooltypes.ChartResult{}, err
	}
	api, err := s.conn.Handle()
	if err != nil {
		return tooltypes.ChartResult{}, err
	}
	rep := reporterFrom(ctx)
	rep.Info(ctx, fmt.Sprintf("Creating comparison chart for %d runs", len(p.RunIDs)))

	var (
		plotted []charts.Series
		labels  []string
		skipped []tooltypes.SkippedRun
		points  int
	)
	for i, id := range p.RunIDs {
		if err := ctx.Err(); err != nil {
			return tooltypes.ChartResult{}, remote(op, err)
		}
		rep.Info(ctx, fmt.Sprintf("Processing run %d/%d: %s", i+1, len(p.RunIDs), id))

		run, series, err := s.loadSeries(ctx, api, RunRef{Entity: p.Entity, Project: p.Project, RunID: id}, p.Metric)
		if err != nil {
			s.log.Warn(err, "skipping run", "run", id, "metric", p.Metric, "kind", KindOf(err).String())
			rep.Warning(ctx, fmt.Sprintf("Skipping run %s: %v", id, err))
			skipped = append(skipped, tooltypes.SkippedRun{RunID: id, Reason: err.Error()})
			continue
		}
		label := id
		if run.DisplayName != "" && run.DisplayName != id {
			label = run.DisplayName
		}
		plotted = append(plotted, charts.Series{
			Label:  label,
			Steps:  series.FloatSteps(),
			Values: series.Values,
			Color:  charts.Palette(i),
		})
		labels = append(labels, label)
		points += series.Len()
	}

	if len(plotted) == 0 {
		reasons := make([]string, len(skipped))
		for i, sk := range skipped {
			reasons[i] = sk.RunID + ": " + sk.Reason
		}
		return tooltypes.ChartResult{}, &Error{
			Kind: KindEmptySeries,
			Op:   op,
			Msg:  fmt.Sprintf("none of the %d runs has data for metric '%s' (%s)", len(p.RunIDs), p.Metric, strings.Join(reasons, "; ")),
		}
	}

	title := p.Title
	if title == "" {
		title = p.Metric + " Comparison"
	}
	png, err := s.render(charts.Options{
		Title:  title,
		XLabel: "Step",
		YLabel: p.Metric,
		Width:  p.Width,
		Height: p.Height,
		Kind:   p.Kind,
		Legend: true,
	}, plotted...)
	if err != nil {
		return tooltypes.ChartResult{}, &Error{Kind: KindRender, Op: op, Msg: "render chart", Err: err}
	}
	rep.Info(ctx, "Comparison chart created successfully")
	return tooltypes.ChartResult{
		DataURI: charts.DataURI(png),
		Points:  points,
		Plotted: labels,
		Skipped: skipped,
		PNG:     png,
	}, nil
}

// Status reports connectivity. It never fails; problems are described in
// the returned value.
func (s *Service) Status(ctx context.Context) tooltypes.Status {
	st := tooltypes.Status{Teams: []string{}, ClientVersion: version.Version}
	api, err := s.conn.Handle()
	if err != nil {
		st.Status = "error"
		st.Message = fmt.Sprintf("Wandb connection failed: %v", err)
		return st
	}
	st.Status = "connected"
	st.APIAvailable = true
	st.Message = "Wandb API is ready to use"

	viewer, err := api.Viewer(ctx)
	if err != nil {
		s.log.Warn(err, "viewer lookup failed")
		st.Username = "unknown"
		return st
	}
	st.Username = viewer.Username
	if len(viewer.Teams) > 0 {
		st.Teams = viewer.Teams
	}
	return st
}

// loadSeries fetches a run and its history and extracts metric.
func (s *Service) loadSeries(ctx context.Context, api API, ref RunRef, metric string) (wandb.Run, Series, error) {
	const op = "load series"
	run, err := s.conn.Run(ctx, ref.Entity, ref.Project, ref.RunID)
	if err != nil {
		return wandb.Run{}, Series{}, remote(op, err)
	}
	table, err := api.History(ctx, ref.Entity, ref.Project, ref.RunID, s.samples)
	if err != nil {
		return wandb.Run{}, Series{}, remote(op, err)
	}
	if table.Empty() {
		return wandb.Run{}, Series{}, &Error{Kind: KindEmptySeries, Op: op, Msg: "No history data found for run " + ref.RunID}
	}
	if !table.HasColumn(metric) {
		return wandb.Run{}, Series{}, &Error{
			Kind: KindNotFound,
			Op:   op,
			Msg:  fmt.Sprintf("Metric '%s' not found. Available metrics: %s", metric, strings.Join(AvailableMetrics(table), ", ")),
		}
	}
	series := ExtractSeries(table, metric)
	if series.Len() == 0 {
		return wandb.Run{}, Series{}, &Error{Kind: KindEmptySeries, Op: op, Msg: fmt.Sprintf("No data points found for metric '%s'", metric)}
	}
	return run, series, nil
}

func projectRecord(p wandb.Project) tooltypes.ProjectRecord {
	return tooltypes.ProjectRecord{
		Name:        p.Name,
		Entity:      p.Entity,
		Description: p.Description,
		CreatedAt:   formatTime(p.CreatedAt),
		URL:         p.URL,
	}
}

func runRecord(r wandb.Run) tooltypes.RunRecord {
	runtime := 0.0
	if v, ok := r.Summary[wandb.RuntimeColumn].(float64); ok {
		runtime = v
	}
	return tooltypes.RunRecord{
		ID:        r.ID,
		Name:      r.Name(),
		State:     string(r.State),
		CreatedAt: formatTime(r.CreatedAt),
		Runtime:   strconv.FormatFloat(runtime, 'f', -1, 64) + " seconds",
		Config:    nonNil(r.Config),
		Summary:   nonNil(r.Summary),
		URL:       r.URL,
		Tags:      tagsOf(r),
	}
}

func tagsOf(r wandb.Run) []string {
	if r.Tags == nil {
		return []string{}
	}
	return r.Tags
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func nonNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
