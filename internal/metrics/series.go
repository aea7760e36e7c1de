package metrics

import (
	"strings"

	"github.com/tsilva/sandbox-fastmcp/internal/wandb"
)

var bookkeeping = map[string]bool{
	wandb.StepColumn:      true,
	wandb.RuntimeColumn:   true,
	wandb.TimestampColumn: true,
}

// Series is one metric's readings with missing entries dropped.
type Series struct {
	Steps  []int64
	Values []float64
}

func (s Series) Len() int { return len(s.Values) }

// Final is the last reading, or nil for an empty series.
func (s Series) Final() *float64 {
	if len(s.Values) == 0 {
		return nil
	}
	v := s.Values[len(s.Values)-1]
	return &v
}

func (s Series) FloatSteps() []float64 {
	out := make([]float64, len(s.Steps))
	for i, step := range s.Steps {
		out[i] = float64(step)
	}
	return out
}

// ExtractSeries pulls metric out of t. Rows where the metric is absent,
// non-numeric or non-finite are skipped. Steps come from the _step column;
// a row lacking it uses its row index, and a table without the column
// numbers readings 0..n-1.
func ExtractSeries(t wandb.HistoryTable, metric string) Series {
	s := Series{Steps: []int64{}, Values: []float64{}}
	hasStep := t.HasColumn(wandb.StepColumn)
	for i, row := range t.Rows {
		v, ok := row.Values[metric]
		if !ok {
			continue
		}
		step := int64(len(s.Values))
		if hasStep {
			step = int64(i)
			if row.HasStep {
				step = row.Step
			}
		}
		s.Steps = append(s.Steps, step)
		s.Values = append(s.Values, v)
	}
	return s
}

// ExtractAll returns a series for every non-bookkeeping column, including
// columns whose readings are all absent.
func ExtractAll(t wandb.HistoryTable) map[string]Series {
	out := map[string]Series{}
	for _, col := range t.Columns {
		if bookkeeping[col] {
			continue
		}
		out[col] = ExtractSeries(t, col)
	}
	return out
}

// AvailableMetrics lists user-facing columns in first-appearance order.
func AvailableMetrics(t wandb.HistoryTable) []string {
	out := []string{}
	for _, col := range t.Columns {
		if !strings.HasPrefix(col, "_") {
			out = append(out, col)
		}
	}
	return out
}
