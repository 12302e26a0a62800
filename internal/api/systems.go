package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/patchme-dev/patchme/internal/model"
	"github.com/patchme-dev/patchme/internal/status"
	"github.com/patchme-dev/patchme/internal/store"
)

type systemRequest struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Hostname    string   `json:"hostname" validate:"max=255"`
	TagIDs      []string `json:"tagIds" validate:"dive,uuid"`
	BaselineIDs []string `json:"baselineIds" validate:"dive,uuid"`
}

// @Summary List systems
// @Description Returns all systems with tags, assigned baselines, reported values and computed status
// @Produce json
// @Success 200 {array} object "Systems"
// @Router /api/systems [get]
func (s *Server) handleListSystems(w http.ResponseWriter, r *http.Request) {
	systems, err := s.store.GetSystems(r.Context())
	if err != nil {
		slog.Error("loading systems", "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	baselines, err := s.store.GetBaselines(r.Context())
	if err != nil {
		slog.Error("loading baselines", "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	type systemView struct {
		*model.System
		Status model.Status `json:"status"`
	}
	views := make([]systemView, 0, len(systems))
	for i := range systems {
		views = append(views, systemView{
			System: &systems[i],
			Status: status.Evaluate(&systems[i], baselines),
		})
	}
	writeJSON(w, r, http.StatusOK, views)
}

// @Summary Create system
// @Description Creates a system with a freshly generated API key
// @Accept json
// @Produce json
// @Param system body systemRequest true "System"
// @Success 201 {object} object "Created system including its API key"
// @Router /api/systems [post]
func (s *Server) handleCreateSystem(w http.ResponseWriter, r *http.Request) {
	var req systemRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	sys, err := s.store.CreateSystem(r.Context(), req.Name, req.Hostname, req.TagIDs, req.BaselineIDs)
	if err != nil {
		slog.Error("creating system", "name", req.Name, "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	slog.Info("system created", "system", sys.Name, "id", sys.ID)
	writeJSON(w, r, http.StatusCreated, sys)
}

// @Summary Update system
// @Description Updates a system's name, hostname, tags and assigned baselines
// @Accept json
// @Produce json
// @Param id path string true "System ID"
// @Param system body systemRequest true "System"
// @Success 200 {object} map[string]bool "Updated"
// @Failure 404 {object} map[string]string "Unknown system"
// @Router /api/systems/{id} [put]
func (s *Server) handleUpdateSystem(w http.ResponseWriter, r *http.Request) {
	var req systemRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	id := r.PathValue("id")
	if err := s.store.UpdateSystem(r.Context(), id, req.Name, req.Hostname, req.TagIDs, req.BaselineIDs); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "system not found")
			return
		}
		slog.Error("updating system", "id", id, "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]bool{"ok": true})
}

// @Summary Delete system
// @Description Deletes a system. Its activity entries survive with a null system reference.
// @Produce json
// @Param id path string true "System ID"
// @Success 200 {object} map[string]bool "Deleted"
// @Failure 404 {object} map[string]string "Unknown system"
// @Router /api/systems/{id} [delete]
func (s *Server) handleDeleteSystem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteSystem(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "system not found")
			return
		}
		slog.Error("deleting system", "id", id, "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	slog.Info("system deleted", "id", id)
	writeJSON(w, r, http.StatusOK, map[string]bool{"ok": true})
}

// @Summary Rotate API key
// @Description Atomically replaces a system's API key. The old key stops working immediately.
// @Produce json
// @Param id path string true "System ID"
// @Success 200 {object} map[string]string "New API key"
// @Failure 404 {object} map[string]string "Unknown system"
// @Router /api/systems/{id}/rotate-key [post]
func (s *Server) handleRotateKey(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	key, err := s.store.RotateAPIKey(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "system not found")
			return
		}
		slog.Error("rotating API key", "id", id, "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	slog.Info("API key rotated", "id", id)
	writeJSON(w, r, http.StatusOK, map[string]string{"apiKey": key})
}

// @Summary Status counts
// @Description Returns total, ok and warning counts across all systems
// @Produce json
// @Success 200 {object} object "Counts"
// @Router /api/systems/counts [get]
func (s *Server) handleStatusCounts(w http.ResponseWriter, r *http.Request) {
	systems, err := s.store.GetSystems(r.Context())
	if err != nil {
		slog.Error("loading systems", "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	baselines, err := s.store.GetBaselines(r.Context())
	if err != nil {
		slog.Error("loading baselines", "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, r, http.StatusOK, status.Counts(systems, baselines))
}
