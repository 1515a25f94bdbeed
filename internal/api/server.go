// Package api exposes the pipeline over HTTP.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/psdltools/scenograph/pkg/buildinfo"
	"github.com/psdltools/scenograph/pkg/errors"
	"github.com/psdltools/scenograph/pkg/outline"
	"github.com/psdltools/scenograph/pkg/pipeline"
	"github.com/psdltools/scenograph/pkg/scene"
)

// maxBodySize caps request bodies at 4 MiB. Outlines are small; anything
// larger is a client mistake.
const maxBodySize = 4 << 20

// Server serves the outline, graph, and layout endpoints.
type Server struct {
	runner   *pipeline.Runner
	logger   *log.Logger
	defaults pipeline.Options
	start    time.Time
}

// NewServer creates a server around a pipeline runner. The defaults seed
// the options of every request; fields the client sends win over them.
func NewServer(runner *pipeline.Runner, logger *log.Logger, defaults pipeline.Options) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		runner:   runner,
		logger:   logger,
		defaults: defaults,
		start:    time.Now(),
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", s.handleHealth)
	r.Get("/api/version", s.handleVersion)
	r.Post("/api/outline", s.handleOutline)
	r.Post("/api/graph", s.handleGraph)
	r.Post("/api/layout", s.handleLayout)
	r.Post("/api/render", s.handleRender)

	return r
}

// ListenAndServe runs the server with production timeouts.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	s.logger.Info("listening", "addr", addr)
	return srv.ListenAndServe()
}

// =============================================================================
// Handlers
// =============================================================================

type healthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status: "healthy",
		Uptime: time.Since(s.start).Round(time.Second).String(),
	})
}

type versionResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, versionResponse{
		Service: "scenograph",
		Version: buildinfo.Version,
		Commit:  buildinfo.Commit,
	})
}

// handleOutline echoes the outline back with reverse dependencies filled in.
func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	o, err := outline.Read(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidOutline, err, "read outline"))
		return
	}
	outline.ComputeUsedBy(&o)
	writeJSON(w, http.StatusOK, o)
}

// layoutRequest is the shared body for the graph, layout, and render
// endpoints: an outline plus optional pipeline options.
type layoutRequest struct {
	Outline json.RawMessage  `json:"outline"`
	Options pipeline.Options `json:"options"`
}

func (s *Server) decodeRequest(r *http.Request) (layoutRequest, error) {
	req := layoutRequest{Options: s.defaults}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return req, errors.Wrap(errors.ErrCodeInvalidOutline, err, "read body")
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, errors.Wrap(errors.ErrCodeInvalidOutline, err, "parse request")
	}
	if len(req.Outline) == 0 {
		return req, errors.New(errors.ErrCodeInvalidOutline, "missing outline")
	}
	return req, nil
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	compiled, scenario, err := s.runner.Compile(r.Context(), req.Outline, req.Options)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scene.FromCompile(scenario, compiled))
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	compiled, scenario, err := s.runner.Compile(r.Context(), req.Outline, req.Options)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sc, err := s.runner.ComputeLayout(r.Context(), scenario, compiled, req.Options)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

// handleRender returns a single rendered artifact. The format comes from
// the options; exactly one must be requested.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(req.Options.Formats) != 1 {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidFormat, "exactly one format is required"))
		return
	}
	format := req.Options.Formats[0]

	result, err := s.runner.Execute(r.Context(), req.Outline, req.Options)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType(format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[format])
}

func contentType(format string) string {
	switch format {
	case pipeline.FormatSVG:
		return "image/svg+xml"
	case pipeline.FormatPNG:
		return "image/png"
	case pipeline.FormatDOT:
		return "text/vnd.graphviz"
	default:
		return "application/json"
	}
}

// =============================================================================
// Middleware and helpers
// =============================================================================

type ctxKey string

const requestIDKey ctxKey = "request_id"

func contextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func requestIDFrom(r *http.Request) string {
	if id, ok := r.Context().Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// requestID attaches a UUID to every request for log correlation.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(contextWithRequestID(r.Context(), id)))
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", requestIDFrom(r))
	})
}

type errorPayload struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)

	s.logger.Warn("request failed",
		"path", r.URL.Path,
		"code", code,
		"error", err,
		"request_id", requestIDFrom(r))

	var payload errorPayload
	payload.Error.Code = string(code)
	payload.Error.Message = errors.UserMessage(err)
	writeJSON(w, status, payload)
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidOutline,
		errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidDirection,
		errors.ErrCodeGraphCycle,
		errors.ErrCodeGraphCorrupt:
		return http.StatusBadRequest
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
