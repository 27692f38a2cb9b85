// Package server exposes the termgate HTTP API: session management,
// async command submission, job and confirmation polling, and a live
// terminal view backed by SSE.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/termgate/termgate/internal/audit"
	"github.com/termgate/termgate/internal/confirm"
	"github.com/termgate/termgate/internal/intake"
	"github.com/termgate/termgate/internal/job"
	"github.com/termgate/termgate/internal/session"
	"github.com/termgate/termgate/internal/worker"
)

//go:embed templates/*.html
var templateFS embed.FS

// templates holds the parsed HTML templates for the terminal view.
var templates *template.Template

func init() {
	var err error
	templates, err = template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		panic(fmt.Sprintf("failed to parse terminal templates: %v", err))
	}
}

// DefaultAddr is the default listen address for the API server.
const DefaultAddr = ":7681"

// Server handles the termgate HTTP API.
type Server struct {
	// Addr is the address to listen on (e.g., ":7681").
	Addr string

	// APIKey authenticates /api requests. Required.
	APIKey string

	// Sessions is the session registry.
	Sessions *session.Registry

	// Jobs is the async job store.
	Jobs *job.Store

	// Confirmations is the human-approval store.
	Confirmations *confirm.Store

	// Intake routes submitted commands through risk gating.
	Intake *intake.Intake

	// Pool exposes execution queue stats for the health endpoint.
	Pool *worker.Pool

	// Events is the event hub for terminal SSE connections.
	Events *EventHub

	// AuditLogger logs session lifecycle events. If nil, no audit
	// logging is performed.
	AuditLogger *audit.Logger

	server   *http.Server
	listener net.Listener
	mu       sync.Mutex
	running  bool
}

// NewServer creates an API server. The event hub is wired to the session
// registry so finished commands stream to terminal viewers.
func NewServer(apiKey string, sessions *session.Registry, jobs *job.Store, confirmations *confirm.Store, in *intake.Intake, pool *worker.Pool, auditLog *audit.Logger) *Server {
	events := NewEventHub()
	sessions.SetObserver(events.BroadcastHistoryAppend)
	return &Server{
		Addr:          DefaultAddr,
		APIKey:        apiKey,
		Sessions:      sessions,
		Jobs:          jobs,
		Confirmations: confirmations,
		Intake:        in,
		Pool:          pool,
		Events:        events,
		AuditLogger:   auditLog,
	}
}

// Handler builds the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Unauthenticated surface: banner, health, and the human terminal view.
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /terminal/{sid}", s.handleTerminal)
	mux.HandleFunc("GET /terminal/{sid}/events", s.handleTerminalEvents)

	// Authenticated API surface.
	auth := AuthMiddleware(s.APIKey)
	mux.Handle("POST /api/create_session", auth(http.HandlerFunc(s.handleCreateSession)))
	mux.Handle("POST /api/send_async_command", auth(http.HandlerFunc(s.handleSendAsyncCommand)))
	mux.Handle("POST /api/run_command", auth(http.HandlerFunc(s.handleRunCommand)))
	mux.Handle("GET /api/job/{id}", auth(http.HandlerFunc(s.handleJobStatus)))
	mux.Handle("GET /api/confirmation_status/{id}", auth(http.HandlerFunc(s.handleConfirmationStatus)))
	mux.Handle("POST /api/confirmation_decision/{id}", auth(http.HandlerFunc(s.handleConfirmationDecision)))
	mux.Handle("GET /api/command_history/{sid}", auth(http.HandlerFunc(s.handleCommandHistory)))
	mux.Handle("POST /api/close_session/{sid}", auth(http.HandlerFunc(s.handleCloseSession)))

	return mux
}

// Start begins accepting connections.
// Returns an error if the server is already running or fails to start.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("server already running")
	}
	if s.APIKey == "" {
		return errors.New("API key is required")
	}

	listener, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr, err)
	}

	s.listener = listener
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 30 * time.Second,
	}
	s.running = true

	go func() {
		_ = s.server.Serve(listener)
	}()

	return nil
}

// Stop gracefully shuts down the server and disconnects SSE clients.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.running = false

	if s.Events != nil {
		s.Events.Close()
	}

	if ctx == nil {
		ctx = context.Background()
	}

	return s.server.Shutdown(ctx)
}

// ListenAddr returns the actual address the server is listening on.
// This is useful when the server was started with port 0 (random port).
// Returns empty string if the server is not running.
func (s *Server) ListenAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// errorResponse is an error response.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response with the given status code.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, errorResponse{Error: message})
}
