package metrics

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/tsilva/sandbox-fastmcp/internal/wandb"
)

// Dialer opens an authenticated API handle.
type Dialer func() (API, error)

// Connection lazily dials the tracking API once and caches project and
// finished-run lookups for the life of the process.
type Connection struct {
	dial Dialer

	mu  sync.Mutex
	api API

	group    singleflight.Group
	cacheMu  sync.RWMutex
	projects map[string]wandb.Project
	runs     map[string]wandb.Run
}

func NewConnection(dial Dialer) *Connection {
	return &Connection{
		dial:     dial,
		projects: map[string]wandb.Project{},
		runs:     map[string]wandb.Run{},
	}
}

// Handle returns the shared API handle, dialing on first use. A failed dial
// is not remembered, so a later call retries.
func (c *Connection) Handle() (API, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.api != nil {
		return c.api, nil
	}
	api, err := c.dial()
	if err != nil {
		return nil, &Error{
			Kind: KindConnection,
			Op:   "connect",
			Msg:  "Failed to initialize wandb API. Make sure you're logged in with `wandb login`",
			Err:  err,
		}
	}
	c.api = api
	return api, nil
}

// Project returns entity/name, served from cache after the first success.
func (c *Connection) Project(ctx context.Context, entity, name string) (wandb.Project, error) {
	key := cacheKey(entity, name)
	c.cacheMu.RLock()
	p, ok := c.projects[key]
	c.cacheMu.RUnlock()
	if ok {
		return p, nil
	}

	v, err := c.shared(ctx, "project:"+key, func(ctx context.Context) (any, error) {
		api, err := c.Handle()
		if err != nil {
			return nil, err
		}
		p, err := api.Project(ctx, entity, name)
		if err != nil {
			return nil, err
		}
		c.cacheMu.Lock()
		c.projects[key] = p
		c.cacheMu.Unlock()
		return p, nil
	})
	if err != nil {
		return wandb.Project{}, err
	}
	return v.(wandb.Project), nil
}

// Run returns a run's metadata. Only runs in a terminal state are cached;
// a running run's summary keeps changing.
func (c *Connection) Run(ctx context.Context, entity, project, runID string) (wandb.Run, error) {
	key := cacheKey(entity, project, runID)
	c.cacheMu.RLock()
	r, ok := c.runs[key]
	c.cacheMu.RUnlock()
	if ok {
		return r, nil
	}

	v, err := c.shared(ctx, "run:"+key, func(ctx context.Context) (any, error) {
		api, err := c.Handle()
		if err != nil {
			return nil, err
		}
		r, err := api.Run(ctx, entity, project, runID)
		if err != nil {
			return nil, err
		}
		if r.State.Terminal() {
			c.cacheMu.Lock()
			c.runs[key] = r
			c.cacheMu.Unlock()
		}
		return r, nil
	})
	if err != nil {
		return wandb.Run{}, err
	}
	return v.(wandb.Run), nil
}

// shared runs fn once per key across concurrent callers. The flight runs on
// a context detached from the first caller's cancellation, and each caller
// stops waiting when its own ctx is done.
func (c *Connection) shared(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	ch := c.group.DoChan(key, func() (any, error) {
		return fn(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

func cacheKey(parts ...string) string {
	return strings.Join(parts, "/")
}

// WandbDialer resolves credentials at dial time so a key added after start
// is picked up on the next attempt.
func WandbDialer(cfg wandb.Config, netrcPath string) Dialer {
	return func() (API, error) {
		key, err := wandb.ResolveAPIKey(cfg.APIKey, netrcPath, cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		cfg.APIKey = key
		client, err := wandb.NewClient(cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}
