package wandb

import "time"

// RunState is the lifecycle state reported for a run.
type RunState string

const (
	StateRunning  RunState = "running"
	StateFinished RunState = "finished"
	StateCrashed  RunState = "crashed"
	StateFailed   RunState = "failed"
	StateUnknown  RunState = "unknown"
)

// ParseRunState maps a remote state string onto a RunState. Unrecognised
// values become StateUnknown.
func ParseRunState(s string) RunState {
	switch RunState(s) {
	case StateRunning, StateFinished, StateCrashed, StateFailed:
		return RunState(s)
	default:
		return StateUnknown
	}
}

// Terminal reports whether the run can no longer change.
func (s RunState) Terminal() bool {
	return s == StateFinished || s == StateCrashed || s == StateFailed
}

type Viewer struct {
	Username string
	Email    string
	Teams    []string
}

type Project struct {
	Name        string
	Entity      string
	Description string
	CreatedAt   time.Time
	URL         string
}

type Run struct {
	// ID is the short run identifier used in URLs and API paths.
	ID          string
	DisplayName string
	Entity      string
	Project     string
	State       RunState
	CreatedAt   time.Time
	Config      map[string]any
	Summary     map[string]any
	Tags        []string
	URL         string
}

// Name returns the display name, falling back to the run id.
func (r Run) Name() string {
	if r.DisplayName != "" {
		return r.DisplayName
	}
	return r.ID
}

// RunFilter narrows a run listing.
type RunFilter struct {
	State RunState
}

const (
	StepColumn      = "_step"
	RuntimeColumn   = "_runtime"
	TimestampColumn = "_timestamp"
)

// HistoryRow is one logged observation. Values holds only finite scalars;
// anything else logged at that step is treated as absent.
type HistoryRow struct {
	Step    int64
	HasStep bool
	Values  map[string]float64
}

// HistoryTable is a run's sparse, step-ordered history. Columns lists every
// key seen in any row, in order of first appearance.
type HistoryTable struct {
	Columns []string
	Rows    []HistoryRow
}

func (t HistoryTable) Empty() bool { return len(t.Rows) == 0 }

// HasColumn reports whether any row logged the named key.
func (t HistoryTable) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}
