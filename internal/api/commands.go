package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/nerrad567/gray-logic-audio/internal/control"
)

// commandRequest is the body of every volume and transport endpoint.
// An empty host targets every registered speaker.
type commandRequest struct {
	Host  string `json:"host"`
	Value *int   `json:"value"`
}

// handleCommand returns a handler running action. needsValue marks
// endpoints where "value" is mandatory.
func (s *Server) handleCommand(action control.Action, needsValue bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeCommand(r)
		if err != nil {
			writeBadRequest(w, err.Error())
			return
		}
		if needsValue && req.Value == nil {
			writeBadRequest(w, "value is required")
			return
		}

		cmd := control.Command{Action: action, Host: req.Host}
		if req.Value != nil {
			cmd.Value = *req.Value
		}

		res, err := s.ctrl.Execute(r.Context(), cmd)
		if err != nil {
			s.writeCommandError(w, res, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) writeCommandError(w http.ResponseWriter, res control.Result, err error) {
	if errors.Is(err, control.ErrTransport) {
		s.logger.Warn("command failed on one or more speakers",
			"action", res.Action, "failed", len(res.Failed()), "error", err)
		writeTransportError(w, fmt.Sprintf("%d of %d speakers failed", len(res.Failed()), len(res.Outcomes)), res.Outcomes)
		return
	}
	s.logger.Error("command failed", "action", res.Action, "error", err)
	writeInternalError(w, "command failed")
}

// decodeCommand accepts JSON or form-encoded bodies. An empty body is a
// group-wide command with no value.
func decodeCommand(r *http.Request) (commandRequest, error) {
	var req commandRequest

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")) //nolint:errcheck // empty or invalid falls through to JSON
	if ct == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			return req, fmt.Errorf("invalid form body: %w", err)
		}
		req.Host = r.PostForm.Get("host")
		if v := r.PostForm.Get("value"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return req, fmt.Errorf("value must be an integer")
			}
			req.Value = &n
		}
		return req, nil
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return req, fmt.Errorf("invalid JSON body: %w", err)
	}
	return req, nil
}
