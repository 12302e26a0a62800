package api

import (
	"log/slog"
	"net/http"
	"strconv"
)

const defaultActivityLimit = 100

// @Summary List activity
// @Description Returns the most recent activity entries, newest first
// @Produce json
// @Param limit query int false "Maximum number of entries" default(100)
// @Success 200 {array} model.ActivityLog "Activity entries"
// @Router /api/activitylog [get]
func (s *Server) handleListActivity(w http.ResponseWriter, r *http.Request) {
	limit := defaultActivityLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	entries, err := s.store.ListActivity(r.Context(), limit)
	if err != nil {
		slog.Error("loading activity log", "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, r, http.StatusOK, entries)
}
