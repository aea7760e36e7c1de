package wandb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	graphql "github.com/hasura/go-graphql-client"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"

	"github.com/tsilva/sandbox-fastmcp/internal/logging"
)

const (
	DefaultBaseURL  = "https://api.wandb.ai"
	DefaultPageSize = 50
	DefaultTimeout  = 30 * time.Second
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// APIError carries a non-successful HTTP status or GraphQL error list.
type APIError struct {
	Op         string
	StatusCode int
	Messages   []string
}

func (e *APIError) Error() string {
	msg := strings.Join(e.Messages, "; ")
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.StatusCode != 0 && e.StatusCode != http.StatusOK {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

// Is lets errors.Is match ErrUnauthorized and ErrNotFound.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		if e.StatusCode == http.StatusNotFound {
			return true
		}
		for _, m := range e.Messages {
			lower := strings.ToLower(m)
			if strings.Contains(lower, "not found") || strings.Contains(lower, "does not exist") {
				return true
			}
		}
	}
	return false
}

type Config struct {
	BaseURL  string
	AppURL   string
	APIKey   string
	Timeout  time.Duration
	PageSize int
	Logger   logging.Logger
	// Transport is the base round tripper beneath authentication. Nil uses
	// http.DefaultTransport.
	Transport http.RoundTripper
}

// Client talks to the experiment-tracking GraphQL API.
type Client struct {
	cfg    Config
	gql    *graphql.Client
	log    logging.Logger
	tracer trace.Tracer
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoCredentials
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.AppURL == "" {
		cfg.AppURL = AppURLFor(cfg.BaseURL)
	}
	cfg.AppURL = strings.TrimRight(cfg.AppURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	log := cfg.Logger
	if log.Logr().GetSink() == nil {
		log = logging.New(logging.DefaultLogger())
	}

	httpClient := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &oauth2.Transport{
			Source: basicTokenSource(cfg.APIKey),
			Base:   cfg.Transport,
		},
	}

	return &Client{
		cfg:    cfg,
		gql:    graphql.NewClient(cfg.BaseURL+"/graphql", httpClient),
		log:    log.WithName("wandb.client"),
		tracer: otel.Tracer("github.com/tsilva/sandbox-fastmcp/internal/wandb"),
	}, nil
}

// AppURLFor derives the web app host from the API host
// (https://api.wandb.ai -> https://wandb.ai).
func AppURLFor(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return baseURL
	}
	u.Host = strings.TrimPrefix(u.Host, "api.")
	u.Path = ""
	return strings.TrimRight(u.String(), "/")
}

func (c *Client) projectURL(entity, project string) string {
	return fmt.Sprintf("%s/%s/%s", c.cfg.AppURL, entity, project)
}

func (c *Client) runURL(entity, project, runID string) string {
	return fmt.Sprintf("%s/%s/%s/runs/%s", c.cfg.AppURL, entity, project, runID)
}

// query executes one GraphQL operation and returns its "data" member.
func (c *Client) query(ctx context.Context, op, query string, vars map[string]any) (gjson.Result, error) {
	ctx, span := c.tracer.Start(ctx, "wandb."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("wandb.operation", op)),
	)
	defer span.End()

	start := time.Now()
	data, err := c.gql.ExecRaw(ctx, query, vars)
	if err != nil {
		err = classify(op, err)
		c.log.Debug("request failed", "op", op, "elapsed", time.Since(start).String(), "error", err.Error())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return gjson.Result{}, err
	}
	c.log.Debug("request complete", "op", op, "bytes", len(data), "elapsed", time.Since(start).String())
	return gjson.ParseBytes(data), nil
}

// statusCoder matches the transport error the GraphQL client reports for a
// non-200 response.
type statusCoder interface {
	StatusCode() int
}

// classify turns the GraphQL client's error list into an *APIError. Transport
// failures without an HTTP status keep their cause so context errors stay
// visible to errors.Is.
func classify(op string, err error) error {
	var gqlErrs graphql.Errors
	if !errors.As(err, &gqlErrs) {
		return fmt.Errorf("%s: %w", op, err)
	}
	apiErr := &APIError{Op: op}
	for _, e := range gqlErrs {
		var sc statusCoder
		if errors.As(e, &sc) {
			apiErr.StatusCode = sc.StatusCode()
			if b, ok := sc.(interface{ Body() string }); ok {
				apiErr.Messages = append(apiErr.Messages, errorMessages([]byte(b.Body()))...)
			}
			continue
		}
		if code, _ := e.Extensions["code"].(string); code == graphql.ErrRequestError {
			return fmt.Errorf("%s: %w", op, e)
		}
		if e.Message != "" {
			apiErr.Messages = append(apiErr.Messages, e.Message)
		}
	}
	return apiErr
}

func errorMessages(body []byte) []string {
	if !gjson.ValidBytes(body) {
		trimmed := strings.TrimSpace(string(body))
		if trimmed == "" {
			return nil
		}
		if len(trimmed) > 200 {
			trimmed = trimmed[:200]
		}
		return []string{trimmed}
	}
	var msgs []string
	for _, e := range gjson.GetBytes(body, "errors").Array() {
		if m := e.Get("message").String(); m != "" {
			msgs = append(msgs, m)
		}
	}
	return msgs
}
