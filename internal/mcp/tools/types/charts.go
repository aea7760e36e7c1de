package types

type SkippedRun struct {
	RunID  string `json:"run_id"`
	Reason string `json:"reason"`
}

// ChartResult is a rendered chart plus what went into it.
type ChartResult struct {
	DataURI string       `json:"data_uri"`
	Points  int          `json:"points"`
	Plotted []string     `json:"plotted"`
	Skipped []SkippedRun `json:"skipped,omitempty"`
	// PNG is the raw image; it is not serialized.
	PNG []byte `json:"-"`
}
