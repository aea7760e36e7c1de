package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tsilva/sandbox-fastmcp/internal/charts"
	"github.com/tsilva/sandbox-fastmcp/internal/metrics"
)

// intArgument reads an optional integer argument. JSON numbers arrive as
// float64, so fractional values are rejected rather than truncated.
func intArgument(args map[string]any, key string, def int) (int, error) {
	value, ok := args[key]
	if !ok || value == nil {
		return def, nil
	}
	switch v := value.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%s must be an integer", key)
		}
		return int(v), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%s must be an integer", key)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("%s must be an integer", key)
	}
}

func stringArgument(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return strings.TrimSpace(s)
}

func stringListArgument(args map[string]any, key string) ([]string, error) {
	switch v := args[key].(type) {
	case nil:
		return nil, fmt.Errorf("%s is required", key)
	case []string:
		return v, nil
	case []any:
		out := make([]string, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", key, i)
			}
			out[i] = strings.TrimSpace(s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s must be an array of strings", key)
	}
}

// chartArguments reads the chart options shared by both chart tools,
// applying defaults for omitted values.
func chartArguments(args map[string]any) (metrics.ChartParams, error) {
	p := metrics.DefaultChart(stringArgument(args, "metric_name"))
	if kind := stringArgument(args, "chart_type"); kind != "" {
		p.Kind = charts.Kind(kind)
	}
	p.Title = stringArgument(args, "title")
	var err error
	if p.Width, err = intArgument(args, "width", charts.DefaultWidth); err != nil {
		return p, err
	}
	if p.Height, err = intArgument(args, "height", charts.DefaultHeight); err != nil {
		return p, err
	}
	return p, nil
}

// failure flattens err into the tool-level error text clients see.
func failure(action string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %v", action, err))
}

func mustMarshal(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
