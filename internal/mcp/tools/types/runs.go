package types

type RunRecord struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	State     string         `json:"state"`
	CreatedAt string         `json:"created_at"`
	Runtime   string         `json:"runtime"`
	Config    map[string]any `json:"config"`
	Summary   map[string]any `json:"summary"`
	URL       string         `json:"url"`
	Tags      []string       `json:"tags"`
}

// MetricSeries holds one metric's non-missing readings in step order.
type MetricSeries struct {
	Values     []float64 `json:"values"`
	Steps      []int64   `json:"steps"`
	FinalValue *float64  `json:"final_value"`
}

type RunMetrics struct {
	ID               string                  `json:"id"`
	Name             string                  `json:"name"`
	State            string                  `json:"state"`
	CreatedAt        string                  `json:"created_at"`
	Config           map[string]any          `json:"config"`
	Summary          map[string]any          `json:"summary"`
	URL              string                  `json:"url"`
	Tags             []string                `json:"tags"`
	MetricsOverTime  map[string]MetricSeries `json:"metrics_over_time"`
	AvailableMetrics []string                `json:"available_metrics"`
}
