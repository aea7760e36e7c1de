package mcp

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tsilva/sandbox-fastmcp/internal/logging"
	"github.com/tsilva/sandbox-fastmcp/internal/version"
)

func newRouter(mcpHandler http.Handler, cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(cfg.Logger.WithName("http")))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Mcp-Session-Id", "Mcp-Protocol-Version", "Last-Event-ID"},
		ExposedHeaders:   []string{"Mcp-Session-Id", "Content-Type", "Cache-Control"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok", "version": version.Version})
	})

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	r.Method(http.MethodGet, endpoint, mcpHandler)
	r.Method(http.MethodPost, endpoint, mcpHandler)
	r.Method(http.MethodDelete, endpoint, mcpHandler)

	return r
}

// requestLogger logs one line per request. Long-lived GET streams are logged
// when they close.
func requestLogger(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Debug("request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"elapsed", time.Since(start).String(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// streamLogger lets the streamable transport log through logr.
type streamLogger struct {
	log logging.Logger
}

func (l streamLogger) Infof(format string, v ...any) {
	l.log.Info(fmt.Sprintf(format, v...))
}

func (l streamLogger) Errorf(format string, v ...any) {
	l.log.Error(nil, fmt.Sprintf(format, v...))
}
