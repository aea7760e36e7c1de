package wandb

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"

	"github.com/tidwall/gjson"
)

// Viewer returns the authenticated identity.
func (c *Client) Viewer(ctx context.Context) (Viewer, error) {
	data, err := c.query(ctx, "viewer", viewerQuery, nil)
	if err != nil {
		return Viewer{}, err
	}
	node := data.Get("viewer")
	if !node.Exists() || node.Type == gjson.Null {
		return Viewer{}, &APIError{Op: "viewer", Messages: []string{"no authenticated viewer"}}
	}
	v := Viewer{
		Username: node.Get("username").String(),
		Email:    node.Get("email").String(),
	}
	for _, edge := range node.Get("teams.edges").Array() {
		if name := edge.Get("node.name").String(); name != "" {
			v.Teams = append(v.Teams, name)
		}
	}
	return v, nil
}

// Projects pages through every project owned by entity.
func (c *Client) Projects(ctx context.Context, entity string) iter.Seq2[Project, error] {
	return func(yield func(Project, error) bool) {
		vars := map[string]any{"entity": entity, "perPage": c.cfg.PageSize}
		for {
			data, err := c.query(ctx, "projects", projectsQuery, vars)
			if err != nil {
				yield(Project{}, err)
				return
			}
			conn := data.Get("models")
			for _, edge := range conn.Get("edges").Array() {
				if !yield(c.decodeProject(edge.Get("node")), nil) {
					return
				}
			}
			if !conn.Get("pageInfo.hasNextPage").Bool() {
				return
			}
			vars["cursor"] = conn.Get("pageInfo.endCursor").String()
		}
	}
}

func (c *Client) Project(ctx context.Context, entity, name string) (Project, error) {
	data, err := c.query(ctx, "project", projectQuery, map[string]any{"entity": entity, "name": name})
	if err != nil {
		return Project{}, err
	}
	node := data.Get("project")
	if !node.Exists() || node.Type == gjson.Null {
		return Project{}, fmt.Errorf("project %s/%s: %w", entity, name, ErrNotFound)
	}
	return c.decodeProject(node), nil
}

// Runs pages through a project's runs, newest first.
func (c *Client) Runs(ctx context.Context, entity, project string, filter RunFilter) iter.Seq2[Run, error] {
	return func(yield func(Run, error) bool) {
		vars := map[string]any{
			"entity":  entity,
			"project": project,
			"perPage": c.cfg.PageSize,
			"order":   "-created_at",
		}
		if filter.State != "" {
			raw, err := json.Marshal(map[string]any{"state": string(filter.State)})
			if err != nil {
				yield(Run{}, fmt.Errorf("encode run filter: %w", err))
				return
			}
			vars["filters"] = string(raw)
		}
		for {
			data, err := c.query(ctx, "runs", runsQuery, vars)
			if err != nil {
				yield(Run{}, err)
				return
			}
			proj := data.Get("project")
			if !proj.Exists() || proj.Type == gjson.Null {
				yield(Run{}, fmt.Errorf("project %s/%s: %w", entity, project, ErrNotFound))
				return
			}
			conn := proj.Get("runs")
			for _, edge := range conn.Get("edges").Array() {
				if !yield(c.decodeRun(entity, project, edge.Get("node")), nil) {
					return
				}
			}
			if !conn.Get("pageInfo.hasNextPage").Bool() {
				return
			}
			vars["cursor"] = conn.Get("pageInfo.endCursor").String()
		}
	}
}

func (c *Client) Run(ctx context.Context, entity, project, runID string) (Run, error) {
	node, err := c.runNode(ctx, "run", runQuery, entity, project, runID, nil)
	if err != nil {
		return Run{}, err
	}
	return c.decodeRun(entity, project, node), nil
}

// History fetches up to samples history rows for a run.
func (c *Client) History(ctx context.Context, entity, project, runID string, samples int) (HistoryTable, error) {
	extra := map[string]any{}
	if samples > 0 {
		extra["samples"] = samples
	}
	node, err := c.runNode(ctx, "history", historyQuery, entity, project, runID, extra)
	if err != nil {
		return HistoryTable{}, err
	}
	return ParseHistory(node.Get("history").Array()), nil
}

func (c *Client) runNode(ctx context.Context, op, query, entity, project, runID string, extra map[string]any) (gjson.Result, error) {
	vars := map[string]any{"entity": entity, "project": project, "name": runID}
	for k, v := range extra {
		vars[k] = v
	}
	data, err := c.query(ctx, op, query, vars)
	if err != nil {
		return gjson.Result{}, err
	}
	proj := data.Get("project")
	if !proj.Exists() || proj.Type == gjson.Null {
		return gjson.Result{}, fmt.Errorf("project %s/%s: %w", entity, project, ErrNotFound)
	}
	node := proj.Get("run")
	if !node.Exists() || node.Type == gjson.Null {
		return gjson.Result{}, fmt.Errorf("run %s/%s/%s: %w", entity, project, runID, ErrNotFound)
	}
	return node, nil
}
