package metrics

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/tsilva/sandbox-fastmcp/internal/charts"
	"github.com/tsilva/sandbox-fastmcp/internal/logging"
	"github.com/tsilva/sandbox-fastmcp/internal/wandb"
)

func newTestService(api *fakeAPI) *Service {
	conn := NewConnection(func() (API, error) { return api, nil })
	return NewService(conn, Config{Logger: logging.Discard()})
}

func seededAPI() *fakeAPI {
	api := newFakeAPI()
	api.projects = []wandb.Project{
		{Name: "alpha", Entity: "team", URL: "https://wandb.ai/team/alpha"},
		{Name: "proj", Entity: "team"},
		{Name: "other", Entity: "elsewhere"},
	}
	api.addRun(wandb.Run{ID: "r1", DisplayName: "brisk-sun-1", Summary: map[string]any{"_runtime": 42.5}},
		`{"_step":0,"loss":1.0,"_runtime":1}`,
		`{"_step":1,"acc":0.4}`,
		`{"_step":2,"loss":0.5,"acc":0.6}`,
		`{"_step":3,"loss":null}`,
	)
	api.addRun(wandb.Run{ID: "r2", DisplayName: "r2"},
		`{"_step":0,"loss":2.0}`,
		`{"_step":5,"loss":1.0}`,
	)
	api.addRun(wandb.Run{ID: "r3", DisplayName: "quiet-moon-3"},
		`{"_step":0,"acc":0.1}`,
	)
	api.addRun(wandb.Run{ID: "empty"})
	api.addRun(wandb.Run{ID: "live", State: wandb.StateRunning}, `{"_step":0,"loss":3}`)
	return api
}

type recordingReporter struct {
	mu    sync.Mutex
	infos []string
	warns []string
}

func (r *recordingReporter) Info(_ context.Context, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.infos = append(r.infos, msg)
}

func (r *recordingReporter) Warning(_ context.Context, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warns = append(r.warns, msg)
}

func TestExtractSeriesDropsAbsentSteps(t *testing.T) {
	api := seededAPI()
	table, err := api.History(context.Background(), "team", "proj", "r1", 0)
	require.NoError(t, err)

	loss := ExtractSeries(table, "loss")
	assert.Equal(t, []int64{0, 2}, loss.Steps)
	assert.Equal(t, []float64{1.0, 0.5}, loss.Values)
	require.NotNil(t, loss.Final())
	assert.Equal(t, 0.5, *loss.Final())

	acc := ExtractSeries(table, "acc")
	assert.Equal(t, []int64{1, 2}, acc.Steps)
}

func TestExtractSeriesWithoutStepColumn(t *testing.T) {
	table := wandb.HistoryTable{
		Columns: []string{"x"},
		Rows: []wandb.HistoryRow{
			{Values: map[string]float64{"x": 3}},
			{Values: map[string]float64{}},
			{Values: map[string]float64{"x": 5}},
		},
	}
	s := ExtractSeries(table, "x")
	assert.Equal(t, []int64{0, 1}, s.Steps)
	assert.Equal(t, []float64{3, 5}, s.Values)
	assert.Nil(t, ExtractSeries(table, "missing").Final())
}

func TestExtractAllSkipsBookkeeping(t *testing.T) {
	api := seededAPI()
	table, err := api.History(context.Background(), "team", "proj", "r1", 0)
	require.NoError(t, err)

	all := ExtractAll(table)
	assert.Len(t, all, 2)
	assert.Contains(t, all, "loss")
	assert.Contains(t, all, "acc")
	assert.NotContains(t, all, "_step")
	assert.NotContains(t, all, "_runtime")
	assert.Equal(t, []string{"loss", "acc"}, AvailableMetrics(table))
}

func TestListProjectsStopsAtLimit(t *testing.T) {
	svc := newTestService(seededAPI())
	records, err := svc.ListProjects(context.Background(), ListProjectsParams{Entity: "team", Limit: 1})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "alpha", records[0].Name)
	assert.Equal(t, "https://wandb.ai/team/alpha", records[0].URL)
}

func TestListRuns(t *testing.T) {
	api := seededAPI()
	svc := newTestService(api)

	records, err := svc.ListRuns(context.Background(), ListRunsParams{Entity: "team", Project: "proj", Limit: 10, State: "running"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "live", records[0].ID)
	assert.Equal(t, "0 seconds", records[0].Runtime)
	assert.NotNil(t, records[0].Tags)

	records, err = svc.ListRuns(context.Background(), ListRunsParams{Entity: "team", Project: "proj", Limit: 10})
	require.NoError(t, err)
	require.Len(t, records, 5)
	byID := map[string]string{}
	for _, r := range records {
		byID[r.ID] = r.Runtime
		if r.ID == "r1" {
			assert.Equal(t, "brisk-sun-1", r.Name)
		}
	}
	assert.Equal(t, "42.5 seconds", byID["r1"])

	assert.Equal(t, 1, api.projectCalls, "project lookup is cached")
}

func TestListRunsUnknownProject(t *testing.T) {
	svc := newTestService(seededAPI())
	_, err := svc.ListRuns(context.Background(), ListRunsParams{Entity: "team", Project: "nope", Limit: 10})
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestGetRunMetrics(t *testing.T) {
	svc := newTestService(seededAPI())
	m, err := svc.GetRunMetrics(context.Background(), RunRef{Entity: "team", Project: "proj", RunID: "r1"})
	require.NoError(t, err)

	assert.Equal(t, "brisk-sun-1", m.Name)
	assert.Equal(t, []string{"acc", "loss"}, m.AvailableMetrics)
	assert.Equal(t, []int64{0, 2}, m.MetricsOverTime["loss"].Steps)
	require.NotNil(t, m.MetricsOverTime["acc"].FinalValue)
	assert.Equal(t, 0.6, *m.MetricsOverTime["acc"].FinalValue)
}

func TestGetRunMetricsReportsTagsAndEmptyColumns(t *testing.T) {
	api := newFakeAPI()
	api.projects = []wandb.Project{{Name: "proj", Entity: "team"}}
	api.addRun(wandb.Run{ID: "t1", Tags: []string{"baseline", "v2"}},
		`{"_step":0,"loss":1,"val_loss":null}`,
		`{"_step":1,"loss":0.5,"val_loss":NaN}`,
	)
	api.addRun(wandb.Run{ID: "t2"}, `{"_step":0,"loss":1}`)
	svc := newTestService(api)

	m, err := svc.GetRunMetrics(context.Background(), RunRef{Entity: "team", Project: "proj", RunID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"baseline", "v2"}, m.Tags)
	assert.Equal(t, []string{"loss", "val_loss"}, m.AvailableMetrics)

	val, ok := m.MetricsOverTime["val_loss"]
	require.True(t, ok)
	assert.Nil(t, val.FinalValue)
	assert.Empty(t, val.Values)

	raw, err := json.Marshal(m)
	require.NoError(t, err)
	doc := gjson.ParseBytes(raw)
	assert.Equal(t, "[]", doc.Get("metrics_over_time.val_loss.values").Raw)
	assert.Equal(t, "[]", doc.Get("metrics_over_time.val_loss.steps").Raw)
	assert.Equal(t, gjson.Null, doc.Get("metrics_over_time.val_loss.final_value").Type)

	m, err = svc.GetRunMetrics(context.Background(), RunRef{Entity: "team", Project: "proj", RunID: "t2"})
	require.NoError(t, err)
	assert.Equal(t, "[]", gjson.Get(mustJSON(t, m), "tags").Raw)
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}

func TestGetRunMetricsEmptyHistory(t *testing.T) {
	svc := newTestService(seededAPI())
	m, err := svc.GetRunMetrics(context.Background(), RunRef{Entity: "team", Project: "proj", RunID: "empty"})
	require.NoError(t, err)
	assert.Empty(t, m.MetricsOverTime)
	assert.NotNil(t, m.MetricsOverTime)
}

func TestPlotMetricChart(t *testing.T) {
	svc := newTestService(seededAPI())
	p := PlotParams{RunRef: RunRef{Entity: "team", Project: "proj", RunID: "r1"}, ChartParams: DefaultChart("loss")}

	res, err := svc.PlotMetricChart(context.Background(), p)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.DataURI, "data:image/png;base64,"))
	assert.Equal(t, 2, res.Points)
	assert.Equal(t, []string{"brisk-sun-1"}, res.Plotted)

	raw, err := charts.DecodeDataURI(res.DataURI)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 800, img.Bounds().Dx())
	assert.Equal(t, 600, img.Bounds().Dy())
}

func TestPlotMetricChartMissingMetricListsAvailable(t *testing.T) {
	svc := newTestService(seededAPI())
	p := PlotParams{RunRef: RunRef{Entity: "team", Project: "proj", RunID: "r1"}, ChartParams: DefaultChart("perplexity")}

	_, err := svc.PlotMetricChart(context.Background(), p)
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Contains(t, err.Error(), "loss")
	assert.Contains(t, err.Error(), "acc")
	assert.NotContains(t, err.Error(), "_runtime")
}

func TestPlotMetricChartFailures(t *testing.T) {
	api := seededAPI()
	api.addRun(wandb.Run{ID: "nulls"}, `{"_step":0,"loss":null}`, `{"_step":1,"loss":"n/a"}`)
	svc := newTestService(api)

	tests := []struct {
		name  string
		runID string
		kind  Kind
	}{
		{name: "empty history", runID: "empty", kind: KindEmptySeries},
		{name: "no finite values", runID: "nulls", kind: KindEmptySeries},
		{name: "unknown run", runID: "ghost", kind: KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PlotMetricChart(context.Background(), PlotParams{
				RunRef:      RunRef{Entity: "team", Project: "proj", RunID: tt.runID},
				ChartParams: DefaultChart("loss"),
			})
			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))
		})
	}
}

func TestValidationPrecedesFetch(t *testing.T) {
	api := seededAPI()
	dialed := false
	conn := NewConnection(func() (API, error) { dialed = true; return api, nil })
	svc := NewService(conn, Config{Logger: logging.Discard()})

	bad := []ChartParams{
		{Metric: "loss", Kind: charts.Line, Width: 399, Height: 600},
		{Metric: "loss", Kind: charts.Line, Width: 1201, Height: 600},
		{Metric: "loss", Kind: charts.Line, Width: 800, Height: 299},
		{Metric: "loss", Kind: charts.Line, Width: 800, Height: 801},
		{Metric: "loss", Kind: "pie", Width: 800, Height: 600},
		{Metric: "", Kind: charts.Line, Width: 800, Height: 600},
	}
	for _, cp := range bad {
		_, err := svc.PlotMetricChart(context.Background(), PlotParams{RunRef: RunRef{Entity: "team", Project: "proj", RunID: "r1"}, ChartParams: cp})
		require.Error(t, err)
		assert.Equal(t, KindInvalidArgument, KindOf(err))
	}

	barCompare := DefaultChart("loss")
	barCompare.Kind = charts.Bar
	_, err := svc.CompareRunsChart(context.Background(), CompareParams{Entity: "team", Project: "proj", RunIDs: []string{"r1", "r2"}, ChartParams: barCompare})
	assert.Equal(t, KindInvalidArgument, KindOf(err))

	_, err = svc.CompareRunsChart(context.Background(), CompareParams{Entity: "team", Project: "proj", RunIDs: []string{"r1"}, ChartParams: DefaultChart("loss")})
	assert.Equal(t, KindInvalidArgument, KindOf(err))

	_, err = svc.ListRuns(context.Background(), ListRunsParams{Entity: "team", Project: "proj", Limit: 101})
	assert.Equal(t, KindInvalidArgument, KindOf(err))

	_, err = svc.ListProjects(context.Background(), ListProjectsParams{Entity: "team", Limit: 0})
	assert.Equal(t, KindInvalidArgument, KindOf(err))

	assert.False(t, dialed, "no remote access before validation passes")
	runCalls, historyCalls := api.calls()
	assert.Zero(t, runCalls)
	assert.Zero(t, historyCalls)
}

func TestCompareRunsSkipsFailingRun(t *testing.T) {
	svc := newTestService(seededAPI())
	rep := &recordingReporter{}
	ctx := WithReporter(context.Background(), rep)

	res, err := svc.CompareRunsChart(ctx, CompareParams{
		Entity: "team", Project: "proj",
		RunIDs:      []string{"r1", "r3", "r2"},
		ChartParams: DefaultChart("loss"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"brisk-sun-1", "r2"}, res.Plotted)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "r3", res.Skipped[0].RunID)
	assert.Equal(t, 4, res.Points)
	assert.True(t, strings.HasPrefix(res.DataURI, "data:image/png;base64,"))

	assert.Len(t, rep.warns, 1)
	assert.Contains(t, rep.infos, "Processing run 2/3: r3")
}

func TestCompareRunsAllFail(t *testing.T) {
	api := seededAPI()
	api.failRuns["r2"] = errors.New("connection reset")
	svc := newTestService(api)

	_, err := svc.CompareRunsChart(context.Background(), CompareParams{
		Entity: "team", Project: "proj",
		RunIDs:      []string{"r3", "r2", "empty"},
		ChartParams: DefaultChart("loss"),
	})
	require.Error(t, err)
	assert.Equal(t, KindEmptySeries, KindOf(err))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestRenderFailureIsNotRemote(t *testing.T) {
	svc := newTestService(seededAPI())
	svc.render = func(charts.Options, ...charts.Series) ([]byte, error) {
		return nil, errors.New("canvas exhausted")
	}

	_, err := svc.PlotMetricChart(context.Background(), PlotParams{
		RunRef:      RunRef{Entity: "team", Project: "proj", RunID: "r1"},
		ChartParams: DefaultChart("loss"),
	})
	require.Error(t, err)
	assert.Equal(t, KindRender, KindOf(err))
	assert.Contains(t, err.Error(), "canvas exhausted")

	_, err = svc.CompareRunsChart(context.Background(), CompareParams{
		Entity: "team", Project: "proj",
		RunIDs:      []string{"r1", "r2"},
		ChartParams: DefaultChart("loss"),
	})
	assert.Equal(t, KindRender, KindOf(err))
	assert.Equal(t, "render", KindRender.String())
}

func TestCompareRunsDeterministic(t *testing.T) {
	svc := newTestService(seededAPI())
	params := CompareParams{
		Entity: "team", Project: "proj",
		RunIDs:      []string{"r1", "r2"},
		ChartParams: DefaultChart("loss"),
	}
	first, err := svc.CompareRunsChart(context.Background(), params)
	require.NoError(t, err)
	second, err := svc.CompareRunsChart(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, first.PNG, second.PNG)
}

func TestConnectionRetriesFailedDial(t *testing.T) {
	api := seededAPI()
	attempts := 0
	conn := NewConnection(func() (API, error) {
		attempts++
		if attempts == 1 {
			return nil, wandb.ErrNoCredentials
		}
		return api, nil
	})

	_, err := conn.Handle()
	require.Error(t, err)
	assert.Equal(t, KindConnection, KindOf(err))
	assert.ErrorIs(t, err, wandb.ErrNoCredentials)

	h1, err := conn.Handle()
	require.NoError(t, err)
	h2, err := conn.Handle()
	require.NoError(t, err)
	assert.Same(t, h1, h2)
	assert.Equal(t, 2, attempts)
}

func TestConnectionCachesOnlyTerminalRuns(t *testing.T) {
	api := seededAPI()
	conn := NewConnection(func() (API, error) { return api, nil })
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := conn.Run(ctx, "team", "proj", "r1")
		require.NoError(t, err)
	}
	runCalls, _ := api.calls()
	assert.Equal(t, 1, runCalls)

	for i := 0; i < 2; i++ {
		_, err := conn.Run(ctx, "team", "proj", "live")
		require.NoError(t, err)
	}
	runCalls, _ = api.calls()
	assert.Equal(t, 3, runCalls)
}

// gatedAPI holds Project lookups until released and honours the context it
// is handed.
type gatedAPI struct {
	*fakeAPI
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (g *gatedAPI) Project(ctx context.Context, entity, name string) (wandb.Project, error) {
	g.once.Do(func() { close(g.started) })
	<-g.release
	if err := ctx.Err(); err != nil {
		return wandb.Project{}, err
	}
	return g.fakeAPI.Project(ctx, entity, name)
}

func TestConnectionCancelledCallerDoesNotFailOthers(t *testing.T) {
	api := &gatedAPI{fakeAPI: seededAPI(), started: make(chan struct{}), release: make(chan struct{})}
	conn := NewConnection(func() (API, error) { return api, nil })

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := conn.Project(ctx, "team", "alpha")
		first <- err
	}()
	<-api.started

	second := make(chan error, 1)
	go func() {
		_, err := conn.Project(context.Background(), "team", "alpha")
		second <- err
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)

	close(api.release)
	require.NoError(t, <-second)

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, 1, api.projectCalls)
}

func TestConnectionConcurrentLookups(t *testing.T) {
	api := seededAPI()
	conn := NewConnection(func() (API, error) { return api, nil })

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := conn.Project(context.Background(), "team", "alpha")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.LessOrEqual(t, api.projectCalls, 16)
	assert.GreaterOrEqual(t, api.projectCalls, 1)
}

func TestStatus(t *testing.T) {
	api := seededAPI()
	api.viewer = wandb.Viewer{Username: "ada", Teams: []string{"ml"}}
	st := newTestService(api).Status(context.Background())
	assert.Equal(t, "connected", st.Status)
	assert.True(t, st.APIAvailable)
	assert.Equal(t, "ada", st.Username)
	assert.Equal(t, []string{"ml"}, st.Teams)

	failing := NewService(NewConnection(func() (API, error) { return nil, wandb.ErrNoCredentials }), Config{})
	st = failing.Status(context.Background())
	assert.Equal(t, "error", st.Status)
	assert.False(t, st.APIAvailable)
	assert.Contains(t, st.Message, "Wandb connection failed")
	assert.NotNil(t, st.Teams)
}
