package api

import (
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/star/exoview/internal/errorpage"
	"github.com/star/exoview/internal/health"
	"github.com/star/exoview/internal/httputil"
	"github.com/star/exoview/internal/i18n"
	"github.com/star/exoview/internal/metrics"
	"github.com/star/exoview/internal/session"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Sessions   *session.Store
	Lang       *i18n.Service
	ErrorPage  *errorpage.Handler
	Static     fs.FS
	Checks     []health.Check
	TrustProxy bool
}

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server.
func NewServer(addr string, logger *slog.Logger, deps Deps) *Server {
	mux := http.NewServeMux()

	// Register routes.
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(deps.Checks...))
	mux.Handle("GET /metrics", metrics.Handler())
	if deps.Static != nil {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(deps.Static)))
	}

	th := &tableHandler{
		sessions:  deps.Sessions,
		lang:      deps.Lang,
		errorPage: deps.ErrorPage,
		logger:    logger,
	}
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/table", http.StatusFound)
	})
	mux.HandleFunc("GET /table", th.page)
	mux.HandleFunc("POST /table", th.submitForm)
	mux.HandleFunc("GET /table/download.csv", th.downloadCSV)
	mux.HandleFunc("GET /api/v1/table", th.state)
	mux.HandleFunc("POST /api/v1/table", th.submitJSON)
	mux.Handle("GET /error", deps.ErrorPage)

	// Build middleware chain: metrics -> logging -> recover -> mux.
	var handler http.Handler = mux
	handler = deps.ErrorPage.Recover(handler)
	handler = loggingMiddleware(logger, deps.TrustProxy)(handler)
	handler = metrics.Middleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *slog.Logger, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", httputil.ClientIP(r, trustProxy),
			)
		})
	}
}
