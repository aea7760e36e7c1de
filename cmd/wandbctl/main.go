package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/tsilva/sandbox-fastmcp/internal/charts"
	"github.com/tsilva/sandbox-fastmcp/internal/config"
	"github.com/tsilva/sandbox-fastmcp/internal/logging"
	"github.com/tsilva/sandbox-fastmcp/internal/mcp/tools"
	"github.com/tsilva/sandbox-fastmcp/internal/mcp/tools/types"
	"github.com/tsilva/sandbox-fastmcp/internal/metrics"
)

func main() {
	root := &cobra.Command{
		Use:          "wandbctl",
		Short:        "Query Weights & Biases projects, runs and charts from the shell",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringP("output", "o", "json", "Output format: json or yaml")
	root.PersistentFlags().String(config.KeyLogLevel, "info", "Log level: debug, info, warn or error")

	root.AddCommand(
		statusCmd(),
		projectsCmd(),
		runsCmd(),
		metricsCmd(),
		plotCmd(),
		compareCmd(),
		countLetterCmd(),
	)

	config.Init(root)

	if err := root.Execute(); err != nil {
		log.Fatalf("wandbctl: %v", err)
	}
}

func newService() *metrics.Service {
	logger := logging.New(logging.NewFromLevel(config.LogLevel())).WithName("wandbctl")
	conn := metrics.NewConnection(metrics.WandbDialer(config.WandbClient(logger), config.NetrcPath()))
	return metrics.NewService(conn, metrics.Config{
		HistorySamples: config.HistorySamples(),
		Logger:         logger,
	})
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show connection status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return output(cmd, newService().Status(cmd.Context()))
		},
	}
}

func projectsCmd() *cobra.Command {
	var p metrics.ListProjectsParams
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List projects of an entity",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := newService().ListProjects(cmd.Context(), p)
			if err != nil {
				return err
			}
			return output(cmd, records)
		},
	}
	cmd.Flags().StringVar(&p.Entity, "entity", "", "Entity (username or team)")
	cmd.Flags().IntVar(&p.Limit, "limit", metrics.DefaultLimit, "Maximum number of projects")
	_ = cmd.MarkFlagRequired("entity")
	return cmd
}

func runsCmd() *cobra.Command {
	var p metrics.ListRunsParams
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List runs of a project, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := newService().ListRuns(cmd.Context(), p)
			if err != nil {
				return err
			}
			return output(cmd, records)
		},
	}
	cmd.Flags().StringVar(&p.Entity, "entity", "", "Entity (username or team)")
	cmd.Flags().StringVar(&p.Project, "project", "", "Project name")
	cmd.Flags().IntVar(&p.Limit, "limit", metrics.DefaultLimit, "Maximum number of runs")
	cmd.Flags().StringVar(&p.State, "state", "", "Filter by state: running, finished, crashed or failed")
	_ = cmd.MarkFlagRequired("entity")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func metricsCmd() *cobra.Command {
	var ref metrics.RunRef
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show a run's metadata and metric history",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := newService().GetRunMetrics(cmd.Context(), ref)
			if err != nil {
				return err
			}
			return output(cmd, res)
		},
	}
	runRefFlags(cmd, &ref)
	return cmd
}

func plotCmd() *cobra.Command {
	var (
		p    metrics.PlotParams
		kind string
		out  string
	)
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Render one metric of a run to a PNG file",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := charts.ParseKind(kind)
			if err != nil {
				return err
			}
			p.Kind = k
			res, err := newService().PlotMetricChart(cmd.Context(), p)
			if err != nil {
				return err
			}
			return writeChart(cmd, out, res)
		},
	}
	runRefFlags(cmd, &p.RunRef)
	chartFlags(cmd, &p.ChartParams, &kind, &out)
	return cmd
}

func compareCmd() *cobra.Command {
	var (
		p    metrics.CompareParams
		kind string
		out  string
	)
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Render one metric across several runs to a PNG file",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := charts.ParseKind(kind)
			if err != nil {
				return err
			}
			p.Kind = k
			res, err := newService().CompareRunsChart(cmd.Context(), p)
			if err != nil {
				return err
			}
			return writeChart(cmd, out, res)
		},
	}
	cmd.Flags().StringVar(&p.Entity, "entity", "", "Entity (username or team)")
	cmd.Flags().StringVar(&p.Project, "project", "", "Project name")
	cmd.Flags().StringSliceVar(&p.RunIDs, "run-id", nil, "Run ID to compare (repeat or comma-separate)")
	_ = cmd.MarkFlagRequired("entity")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("run-id")
	chartFlags(cmd, &p.ChartParams, &kind, &out)
	return cmd
}

func countLetterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count-letter TEXT LETTER",
		Short: "Count occurrences of a letter in a text",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), tools.CountLetter(args[0], args[1]))
			return err
		},
	}
}

func runRefFlags(cmd *cobra.Command, ref *metrics.RunRef) {
	cmd.Flags().StringVar(&ref.Entity, "entity", "", "Entity (username or team)")
	cmd.Flags().StringVar(&ref.Project, "project", "", "Project name")
	cmd.Flags().StringVar(&ref.RunID, "run-id", "", "Run ID")
	_ = cmd.MarkFlagRequired("entity")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("run-id")
}

func chartFlags(cmd *cobra.Command, p *metrics.ChartParams, kind, out *string) {
	cmd.Flags().StringVar(&p.Metric, "metric", "", "Metric name, e.g. loss")
	cmd.Flags().StringVar(kind, "chart-type", string(charts.Line), "Chart type")
	cmd.Flags().StringVar(&p.Title, "title", "", "Chart title")
	cmd.Flags().IntVar(&p.Width, "width", charts.DefaultWidth, "Width in pixels")
	cmd.Flags().IntVar(&p.Height, "height", charts.DefaultHeight, "Height in pixels")
	cmd.Flags().StringVar(out, "out", "", "PNG file to write; empty prints the data URI")
	_ = cmd.MarkFlagRequired("metric")
}

func writeChart(cmd *cobra.Command, path string, res types.ChartResult) error {
	for _, s := range res.Skipped {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %s\n", s.RunID, s.Reason)
	}
	if path == "" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), res.DataURI)
		return err
	}
	if err := os.WriteFile(path, res.PNG, 0o644); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d points)\n", path, res.Points)
	return nil
}

func output(cmd *cobra.Command, v any) error {
	format, _ := cmd.Flags().GetString("output")
	return encode(cmd.OutOrStdout(), format, v)
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		b, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	default:
		return fmt.Errorf("unknown output format %q (want json or yaml)", format)
	}
}

