package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/gray-logic-audio/internal/audit"
)

// handleListCommandLog returns paginated command log entries with optional filters.
//
// Query parameters:
//   - host: filter by speaker host
//   - action: filter by action (volume_up, next, ...)
//   - status: filter by outcome status (applied, rejected, no_snapshot, failed)
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListCommandLog(w http.ResponseWriter, r *http.Request) {
	if s.commandLog == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "command log not configured")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Host:   q.Get("host"),
		Action: q.Get("action"),
		Status: q.Get("status"),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	result, err := s.commandLog.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list command log", "error", err)
		writeInternalError(w, "failed to list command log")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
