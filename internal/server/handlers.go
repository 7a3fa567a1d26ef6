package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/forage-ws/internal/workspace"
)

// handleHealthz handles GET /healthz.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	var supported []string
	for _, k := range s.registry.Supported() {
		supported = append(supported, string(k))
	}

	respondJSON(w, http.StatusOK, HealthzResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		Workspaces:    s.registry.Len(),
		Supported:     supported,
	})
}

// handleCreate handles POST /workspaces.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.ExitGeneralError, "invalid JSON body")
		return
	}

	kind, err := workspace.ParseKind(req.Kind)
	if err != nil {
		s.writeErr(w, err)
		return
	}

	opts := []workspace.Option{
		workspace.WithEnv(req.Env),
	}
	if req.Image != "" {
		opts = append(opts, workspace.WithImage(req.Image))
	}
	if req.WorkingDir != "" {
		opts = append(opts, workspace.WithWorkingDir(req.WorkingDir))
	}
	if req.SourceRepo != "" {
		opts = append(opts, workspace.WithSourceRepo(req.SourceRepo))
	}
	for k, v := range req.Labels {
		opts = append(opts, workspace.WithLabel(k, v))
	}

	// Provisioning must outlive a client that hangs up mid-request; the
	// workspace is indexed either way and the guard sweeps it at exit.
	ws, err := s.registry.Create(context.WithoutCancel(r.Context()), kind, opts...)
	if err != nil {
		s.writeErr(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toResponse(ws))
}

// handleList handles GET /workspaces.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list := s.registry.List()
	resp := ListResponse{Workspaces: make([]WorkspaceResponse, 0, len(list))}
	for _, ws := range list {
		resp.Workspaces = append(resp.Workspaces, toResponse(ws))
	}
	respondJSON(w, http.StatusOK, resp)
}

// handleRecent handles GET /workspaces/recent.
func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	ws, err := s.registry.Recent()
	if err != nil {
		s.writeErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toResponse(ws))
}

// handleGet handles GET /workspaces/{id}. It promotes the workspace to most recent.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ws, err := s.registry.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toResponse(ws))
}

// handleExec handles POST /workspaces/{id}/exec.
func (s *Server) handleExec(w http.ResponseWriter, r *http.Request) {
	var req ExecRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.ExitGeneralError, "invalid JSON body")
		return
	}
	if len(req.Command) == 0 {
		s.writeError(w, http.StatusBadRequest, errors.ExitGeneralError, "command must not be empty")
		return
	}

	timeout := s.config.MaxExecTimeout
	if req.TimeoutSeconds > 0 {
		if d := time.Duration(req.TimeoutSeconds) * time.Second; d < timeout {
			timeout = d
		}
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	opts := workspace.ExecOptions{
		WorkingDir: req.WorkingDir,
		Env:        req.Env,
	}
	if req.Stdin != "" {
		opts.Stdin = strings.NewReader(req.Stdin)
	}

	res, err := s.registry.Exec(ctx, chi.URLParam(r, "id"), req.Command, opts)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			s.writeError(w, http.StatusGatewayTimeout, errors.ExitGeneralError, "command timed out")
			return
		}
		s.writeErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ExecResponse{
		ExitCode:   res.ExitCode,
		Stdout:     res.Stdout,
		Stderr:     res.Stderr,
		DurationMS: res.Duration.Milliseconds(),
	})
}

// handleClose handles DELETE /workspaces/{id}. Unknown ids are not an error.
func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	s.registry.Close(context.WithoutCancel(r.Context()), chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// handleTeardownAll handles DELETE /workspaces.
func (s *Server) handleTeardownAll(w http.ResponseWriter, r *http.Request) {
	errs := s.registry.TeardownAll(context.WithoutCancel(r.Context()))
	resp := TeardownResponse{Errors: make([]string, 0, len(errs))}
	for _, err := range errs {
		resp.Errors = append(resp.Errors, err.Error())
	}
	respondJSON(w, http.StatusOK, resp)
}

// statusFor maps registry errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.IsUnsupported(err):
		return http.StatusBadRequest
	case errors.IsNotFound(err), errors.IsNoneAvailable(err):
		return http.StatusNotFound
	case errors.IsProvisioning(err):
		return http.StatusBadGateway
	case errors.Is(err, workspace.ErrTornDown):
		return http.StatusConflict
	case errors.HasCode(err, errors.ExitRemoteError):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.writeError(w, status, errors.GetExitCode(err), err.Error())
}

// respondJSON is a helper to write JSON responses
func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response
func (s *Server) writeError(w http.ResponseWriter, statusCode, code int, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}
