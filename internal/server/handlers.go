package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/termgate/termgate/internal/confirm"
	"github.com/termgate/termgate/internal/intake"
	"github.com/termgate/termgate/internal/job"
	"github.com/termgate/termgate/internal/session"
	"github.com/termgate/termgate/internal/version"
)

// rootResponse is the response body for GET /.
type rootResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Status  string `json:"status"`
}

// handleRoot serves a small service banner so operators can check what
// is listening on the port.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, rootResponse{
		Service: "termgate",
		Version: version.Version,
		Status:  "ok",
	})
}

// healthResponse is the response body for GET /api/health.
type healthResponse struct {
	Status               string `json:"status"`
	Sessions             int    `json:"sessions"`
	PendingJobs          int    `json:"pending_jobs"`
	PendingConfirmations int    `json:"pending_confirmations"`
	QueueDepth           int    `json:"queue_depth"`
	ActiveWorkers        int    `json:"active_workers"`
}

// handleHealth reports liveness plus execution pipeline stats.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:               "ok",
		Sessions:             s.Sessions.Len(),
		PendingJobs:          s.Jobs.Pending(),
		PendingConfirmations: s.Confirmations.Pending(),
	}
	if s.Pool != nil {
		resp.QueueDepth = s.Pool.QueueDepth()
		resp.ActiveWorkers = s.Pool.ActiveWorkers()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// createSessionRequest is the request body for POST /api/create_session.
// SessionID is optional; a fresh ID is generated when it is empty.
type createSessionRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

// handleCreateSession registers a new session.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	// An empty body is fine - the session ID is optional.
	_ = json.NewDecoder(r.Body).Decode(&req)

	sess, err := s.Sessions.Create(req.SessionID)
	if err != nil {
		if errors.Is(err, session.ErrAlreadyExists) {
			s.writeError(w, http.StatusConflict, fmt.Sprintf("session %s already exists", req.SessionID))
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if s.AuditLogger != nil {
		_ = s.AuditLogger.LogSessionOpen(sess.ID)
	}
	s.writeJSON(w, http.StatusOK, sess)
}

// commandRequest is the request body for the command submission endpoints.
type commandRequest struct {
	SessionID         string `json:"session_id"`
	Command           string `json:"command"`
	EstimatedDuration int    `json:"estimated_duration,omitempty"`
}

// validate checks the required fields.
func (c *commandRequest) validate() error {
	if c.SessionID == "" {
		return errors.New("session_id is required")
	}
	if c.Command == "" {
		return errors.New("command is required")
	}
	return nil
}

// blockedResponse is returned with 403 when the classifier vetoes a command.
type blockedResponse struct {
	Status    string `json:"status"`
	RiskLevel string `json:"risk_level"`
	Reason    string `json:"reason"`
}

// confirmationRequiredResponse is returned when a command needs human approval.
type confirmationRequiredResponse struct {
	Status         string `json:"status"`
	ConfirmationID string `json:"confirmation_id"`
	RiskLevel      string `json:"risk_level"`
	Reason         string `json:"reason"`
	ExpiresAt      string `json:"expires_at"`
}

// acceptedResponse is returned when an async command is queued.
type acceptedResponse struct {
	Status    string `json:"status"`
	JobID     string `json:"job_id"`
	SessionID string `json:"session_id"`
	Command   string `json:"command"`
}

// handleSendAsyncCommand submits a command for asynchronous execution.
func (s *Server) handleSendAsyncCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := s.Intake.Submit(req.SessionID, req.Command, req.EstimatedDuration)
	if err != nil {
		if errors.Is(err, intake.ErrSessionNotFound) {
			s.writeError(w, http.StatusNotFound, "session not found or inactive")
			return
		}
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	s.writeOutcome(w, out)
}

// writeOutcome maps an intake outcome for an async submission to HTTP.
func (s *Server) writeOutcome(w http.ResponseWriter, out intake.Outcome) {
	switch out.Disposition {
	case intake.Blocked:
		s.writeJSON(w, http.StatusForbidden, blockedResponse{
			Status:    "blocked",
			RiskLevel: out.RiskLevel,
			Reason:    out.Reason,
		})
	case intake.PendingConfirmation:
		s.writeJSON(w, http.StatusOK, confirmationRequiredResponse{
			Status:         "confirmation_required",
			ConfirmationID: out.Confirmation.ID,
			RiskLevel:      out.RiskLevel,
			Reason:         out.Reason,
			ExpiresAt:      out.Confirmation.ExpiresAt.Format(time.RFC3339),
		})
	case intake.Accepted:
		s.writeJSON(w, http.StatusOK, acceptedResponse{
			Status:    "queued",
			JobID:     out.Job.ID,
			SessionID: out.Job.SessionID,
			Command:   out.Job.Command,
		})
	default:
		s.writeError(w, http.StatusInternalServerError, "internal error: unknown disposition")
	}
}

// syncResultResponse is the response body for a synchronous execution.
type syncResultResponse struct {
	Status         string  `json:"status"`
	Command        string  `json:"command"`
	Output         string  `json:"output"`
	Error          string  `json:"error,omitempty"`
	ReturnCode     int     `json:"return_code"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

// handleRunCommand executes a low-risk command synchronously. Commands
// that need confirmation come back as confirmation_required so the caller
// can switch to the polling flow.
func (s *Server) handleRunCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, res, err := s.Intake.RunSync(r.Context(), req.SessionID, req.Command)
	if err != nil {
		if errors.Is(err, intake.ErrSessionNotFound) {
			s.writeError(w, http.StatusNotFound, "session not found or inactive")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if out.Disposition != intake.Accepted {
		s.writeOutcome(w, out)
		return
	}

	status := "completed"
	if res.ReturnCode != 0 {
		status = "failed"
	}
	s.writeJSON(w, http.StatusOK, syncResultResponse{
		Status:         status,
		Command:        res.Command,
		Output:         res.Output,
		Error:          res.ErrorOutput,
		ReturnCode:     res.ReturnCode,
		ElapsedSeconds: res.ElapsedSeconds,
	})
}

// handleJobStatus returns the current job snapshot. The ID may be a
// unique prefix of the full job ID.
func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	j, err := s.Jobs.Resolve(id)
	if err != nil {
		if errors.Is(err, job.ErrAmbiguous) {
			s.writeError(w, http.StatusConflict, fmt.Sprintf("job id prefix %q is ambiguous", id))
			return
		}
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	s.writeJSON(w, http.StatusOK, j)
}

// handleConfirmationStatus returns the current confirmation state.
// Reading a pending confirmation past its approval window reports it as
// expired. The ID may be a unique prefix.
func (s *Server) handleConfirmationStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	c, err := s.Confirmations.Resolve(id)
	if err != nil {
		if errors.Is(err, confirm.ErrAmbiguous) {
			s.writeError(w, http.StatusConflict, fmt.Sprintf("confirmation id prefix %q is ambiguous", id))
			return
		}
		s.writeError(w, http.StatusNotFound, "confirmation not found")
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}

// decisionRequest is the request body for POST /api/confirmation_decision/{id}.
type decisionRequest struct {
	Decision string `json:"decision"`
}

// decisionResponse is the response body for a recorded decision.
type decisionResponse struct {
	Status         string `json:"status"`
	ConfirmationID string `json:"confirmation_id"`
	JobID          string `json:"job_id,omitempty"`
}

// handleConfirmationDecision records an approve or deny decision. An
// approval creates and queues the job for the confirmed command.
func (s *Server) handleConfirmationDecision(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Decision != "approve" && req.Decision != "deny" {
		s.writeError(w, http.StatusBadRequest, "decision must be approve or deny")
		return
	}

	// Resolve a possible prefix to the full ID before deciding.
	c, err := s.Confirmations.Resolve(id)
	if err != nil {
		if errors.Is(err, confirm.ErrAmbiguous) {
			s.writeError(w, http.StatusConflict, fmt.Sprintf("confirmation id prefix %q is ambiguous", id))
			return
		}
		s.writeError(w, http.StatusNotFound, "confirmation not found")
		return
	}

	if req.Decision == "deny" {
		c, err = s.Intake.Deny(c.ID)
		if err != nil {
			s.writeDecisionError(w, c, err)
			return
		}
		s.writeJSON(w, http.StatusOK, decisionResponse{
			Status:         string(c.Status),
			ConfirmationID: c.ID,
		})
		return
	}

	c, j, err := s.Intake.Approve(c.ID)
	if err != nil {
		s.writeDecisionError(w, c, err)
		return
	}
	s.writeJSON(w, http.StatusOK, decisionResponse{
		Status:         string(c.Status),
		ConfirmationID: c.ID,
		JobID:          j.ID,
	})
}

// writeDecisionError maps decision failures to HTTP. Already-resolved
// confirmations (including expired ones) are a conflict, not a 404.
func (s *Server) writeDecisionError(w http.ResponseWriter, c confirm.Confirmation, err error) {
	switch {
	case errors.Is(err, confirm.ErrAlreadyResolved):
		s.writeError(w, http.StatusConflict, fmt.Sprintf("confirmation already %s", c.Status))
	case errors.Is(err, intake.ErrSessionNotFound):
		s.writeError(w, http.StatusNotFound, "session not found or inactive")
	case errors.Is(err, confirm.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "confirmation not found")
	default:
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
	}
}

// historyResponse is the response body for GET /api/command_history/{sid}.
type historyResponse struct {
	SessionID string                 `json:"session_id"`
	History   []session.HistoryEntry `json:"history"`
	Count     int                    `json:"count"`
}

// handleCommandHistory returns the session's resolved command history in
// insertion order.
func (s *Server) handleCommandHistory(w http.ResponseWriter, r *http.Request) {
	sid := r.PathValue("sid")
	history, err := s.Sessions.History(sid)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if history == nil {
		history = []session.HistoryEntry{}
	}
	s.writeJSON(w, http.StatusOK, historyResponse{
		SessionID: sid,
		History:   history,
		Count:     len(history),
	})
}

// handleCloseSession marks a session inactive. Closing is not idempotent:
// a second close is a conflict.
func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	sid := r.PathValue("sid")
	if err := s.Sessions.Close(sid); err != nil {
		if errors.Is(err, session.ErrAlreadyClosed) {
			s.writeError(w, http.StatusConflict, "session already closed")
			return
		}
		s.writeError(w, http.StatusNotFound, "session not found")
		return
	}

	if s.AuditLogger != nil {
		_ = s.AuditLogger.LogSessionClose(sid)
	}

	sess, err := s.Sessions.Get(sid)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}

// terminalData holds the data passed to the terminal.html template.
type terminalData struct {
	SessionID string
	CreatedAt string
	Active    bool
	History   []session.HistoryEntry
}

// handleTerminal serves the HTML live view of a session.
func (s *Server) handleTerminal(w http.ResponseWriter, r *http.Request) {
	sid := r.PathValue("sid")
	sess, err := s.Sessions.Get(sid)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	history, err := s.Sessions.History(sid)
	if err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	data := terminalData{
		SessionID: sess.ID,
		CreatedAt: sess.CreatedAt.Format(time.RFC3339),
		Active:    sess.Active,
		History:   history,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, "terminal.html", data); err != nil {
		http.Error(w, "failed to render template", http.StatusInternalServerError)
	}
}

// HeartbeatInterval is the interval between heartbeat events sent to SSE
// clients. This keeps connections alive through proxies that close idle
// connections.
const HeartbeatInterval = 30 * time.Second

// handleTerminalEvents serves the SSE endpoint streaming history entries
// for one session as they are recorded.
func (s *Server) handleTerminalEvents(w http.ResponseWriter, r *http.Request) {
	sid := r.PathValue("sid")
	if _, err := s.Sessions.Get(sid); err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	eventCh := s.Events.Subscribe(sid)
	if eventCh == nil {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	defer s.Events.Unsubscribe(eventCh)

	flusher.Flush()

	ticker := time.NewTicker(HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			heartbeat := Event{Type: EventHeartbeat, Data: ""}
			if _, err := fmt.Fprint(w, FormatSSE(heartbeat)); err != nil {
				return
			}
			flusher.Flush()
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			if _, err := fmt.Fprint(w, FormatSSE(event)); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
