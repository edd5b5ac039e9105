package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/lucasnoah/phpcslint/internal/db"
	"github.com/lucasnoah/phpcslint/internal/phpcs"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodyBytes caps the size of a lint request body.
const maxBodyBytes = 1 << 20

// Server is the JSON endpoint editors call to lint a file.
type Server struct {
	linter   *phpcs.Linter
	history  *db.DB // nil when history is disabled
	defaults phpcs.Settings
}

// NewServer creates a Server. history may be nil.
func NewServer(linter *phpcs.Linter, history *db.DB, defaults phpcs.Settings) *Server {
	return &Server{
		linter:   linter,
		history:  history,
		defaults: defaults,
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /lint", s.handleLint)
	mux.HandleFunc("GET /history", s.handleHistory)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok\n"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	return logRequests(mux)
}

// Start listens on addr and serves until the listener fails.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("phpcslint endpoint listening", slog.String("addr", addr))
	return srv.ListenAndServe()
}

type lintRequest struct {
	File     string          `json:"file"`
	Settings json.RawMessage `json:"settings"`
}

type errorResponse struct {
	File  string `json:"file,omitempty"`
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

func (s *Server) handleLint(w http.ResponseWriter, r *http.Request) {
	// Only JSON bodies are accepted so browsers must preflight cross-origin
	// posts, and the mux never answers a preflight.
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mt != "application/json" {
		writeJSON(w, http.StatusUnsupportedMediaType, errorResponse{Kind: "request", Error: "content type must be application/json"})
		return
	}
	if origin := r.Header.Get("Origin"); origin != "" && !isLocalOrigin(origin) {
		writeJSON(w, http.StatusForbidden, errorResponse{Kind: "request", Error: "origin not allowed: " + origin})
		return
	}

	var req lintRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Kind: "request", Error: "invalid JSON body: " + err.Error()})
		return
	}
	if req.File == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Kind: "request", Error: "file is required"})
		return
	}

	settings, err := s.settingsFor(req.Settings)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{File: req.File, Kind: "request", Error: "invalid settings: " + err.Error()})
		return
	}

	result, lintErr := s.linter.Lint(r.Context(), req.File, settings)
	if err := s.history.RecordLint(req.File, settings, result, lintErr); err != nil {
		slog.Warn("record lint history", slog.String("file", req.File), slog.String("error", err.Error()))
	}

	if lintErr != nil {
		status := http.StatusInternalServerError
		var le *phpcs.LintError
		if errors.As(lintErr, &le) {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, errorResponse{File: req.File, Kind: phpcs.KindName(lintErr), Error: lintErr.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// isLocalOrigin reports whether origin names a loopback host.
func isLocalOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// settingsFor decodes per-request settings on top of the server defaults.
func (s *Server) settingsFor(raw json.RawMessage) (phpcs.Settings, error) {
	settings := s.defaults
	settings.AdditionalArguments = append([]string(nil), s.defaults.AdditionalArguments...)
	if len(raw) == 0 || string(raw) == "null" {
		return settings, nil
	}
	if err := json.Unmarshal(raw, &settings); err != nil {
		return phpcs.Settings{}, err
	}
	return settings, nil
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.Error(w, "history is disabled", http.StatusNotFound)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := s.history.GetLintHistory(r.URL.Query().Get("file"), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if runs == nil {
		runs = []db.LintRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write response", slog.String("error", err.Error()))
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Debug("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)),
		)
	})
}
