package wandb

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// W&B timestamps usually omit the zone; they are UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// embedded returns the JSON held by a field that may be either an object or a
// string containing an encoded object.
func embedded(r gjson.Result) gjson.Result {
	if r.Type == gjson.String {
		return gjson.Parse(r.Str)
	}
	return r
}

// decodeConfig unwraps {"key": {"value": v, "desc": d}} and drops internal
// underscore-prefixed keys.
func decodeConfig(r gjson.Result) map[string]any {
	out := map[string]any{}
	embedded(r).ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if strings.HasPrefix(name, "_") {
			return true
		}
		if value.IsObject() && value.Get("value").Exists() {
			out[name] = jsonValue(value.Get("value"))
		} else {
			out[name] = jsonValue(value)
		}
		return true
	})
	return out
}

func decodeObject(r gjson.Result) map[string]any {
	out := map[string]any{}
	embedded(r).ForEach(func(key, value gjson.Result) bool {
		out[key.String()] = jsonValue(value)
		return true
	})
	return out
}

// jsonValue converts a gjson value into plain Go values that encoding/json can
// marshal. Non-finite numbers are rendered as strings.
func jsonValue(r gjson.Result) any {
	switch {
	case r.IsObject():
		m := map[string]any{}
		r.ForEach(func(k, v gjson.Result) bool {
			m[k.String()] = jsonValue(v)
			return true
		})
		return m
	case r.IsArray():
		items := r.Array()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = jsonValue(item)
		}
		return out
	}
	switch r.Type {
	case gjson.Number:
		switch {
		case math.IsNaN(r.Num):
			return "NaN"
		case math.IsInf(r.Num, 1):
			return "Infinity"
		case math.IsInf(r.Num, -1):
			return "-Infinity"
		}
		return r.Num
	case gjson.String:
		return r.Str
	case gjson.True:
		return true
	case gjson.False:
		return false
	default:
		return nil
	}
}

func stringList(r gjson.Result) []string {
	items := r.Array()
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := item.String(); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (c *Client) decodeProject(node gjson.Result) Project {
	entity := node.Get("entityName").String()
	name := node.Get("name").String()
	return Project{
		Name:        name,
		Entity:      entity,
		Description: node.Get("description").String(),
		CreatedAt:   parseTime(node.Get("createdAt").String()),
		URL:         c.projectURL(entity, name),
	}
}

func (c *Client) decodeRun(entity, project string, node gjson.Result) Run {
	id := node.Get("name").String()
	return Run{
		ID:          id,
		DisplayName: node.Get("displayName").String(),
		Entity:      entity,
		Project:     project,
		State:       ParseRunState(node.Get("state").String()),
		CreatedAt:   parseTime(node.Get("createdAt").String()),
		Config:      decodeConfig(node.Get("config")),
		Summary:     decodeObject(node.Get("summaryMetrics")),
		Tags:        stringList(node.Get("tags")),
		URL:         c.runURL(entity, project, id),
	}
}

// scalar reports a finite numeric reading of v. Booleans count as 0/1.
func scalar(v gjson.Result) (float64, bool) {
	switch v.Type {
	case gjson.Number:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			return 0, false
		}
		return v.Num, true
	case gjson.True:
		return 1, true
	case gjson.False:
		return 0, true
	default:
		return 0, false
	}
}

// ParseHistory builds a HistoryTable from history rows, each a JSON object
// (or a string holding one).
func ParseHistory(lines []gjson.Result) HistoryTable {
	var table HistoryTable
	seen := map[string]bool{}
	allStepped := true

	for _, line := range lines {
		row := HistoryRow{Values: map[string]float64{}}
		embedded(line).ForEach(func(key, value gjson.Result) bool {
			name := key.String()
			if !seen[name] {
				seen[name] = true
				table.Columns = append(table.Columns, name)
			}
			if f, ok := scalar(value); ok {
				row.Values[name] = f
			}
			return true
		})
		if step, ok := row.Values[StepColumn]; ok {
			row.Step = int64(step)
			row.HasStep = true
		} else {
			allStepped = false
		}
		table.Rows = append(table.Rows, row)
	}

	if allStepped {
		sort.SliceStable(table.Rows, func(i, j int) bool {
			return table.Rows[i].Step < table.Rows[j].Step
		})
	}
	return table
}
