package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/patchme-dev/patchme/internal/model"
	"github.com/patchme-dev/patchme/internal/store"
)

type baselineRequest struct {
	Name       string `json:"name" validate:"required,max=200"`
	Variable   string `json:"variable" validate:"required,max=200"`
	Type       string `json:"type" validate:"omitempty,oneof=MIN MAX INFO"`
	MinVersion string `json:"minVersion" validate:"max=100"`
}

// @Summary List baselines
// @Produce json
// @Success 200 {array} model.Baseline "Baselines"
// @Router /api/baselines [get]
func (s *Server) handleListBaselines(w http.ResponseWriter, r *http.Request) {
	baselines, err := s.store.GetBaselines(r.Context())
	if err != nil {
		slog.Error("loading baselines", "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, r, http.StatusOK, baselines)
}

// @Summary Create baseline
// @Description Creates a baseline rule. An empty type defaults to MIN.
// @Accept json
// @Produce json
// @Param baseline body baselineRequest true "Baseline"
// @Success 201 {object} model.Baseline "Created baseline"
// @Router /api/baselines [post]
func (s *Server) handleCreateBaseline(w http.ResponseWriter, r *http.Request) {
	var req baselineRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	b, err := s.store.CreateBaseline(r.Context(), req.Name, req.Variable, model.BaselineType(req.Type), req.MinVersion)
	if err != nil {
		slog.Error("creating baseline", "name", req.Name, "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	slog.Info("baseline created", "baseline", b.Name, "variable", b.Variable)
	writeJSON(w, r, http.StatusCreated, b)
}

// @Summary Update baseline
// @Accept json
// @Produce json
// @Param id path string true "Baseline ID"
// @Param baseline body baselineRequest true "Baseline"
// @Success 200 {object} map[string]bool "Updated"
// @Failure 404 {object} map[string]string "Unknown baseline"
// @Router /api/baselines/{id} [put]
func (s *Server) handleUpdateBaseline(w http.ResponseWriter, r *http.Request) {
	var req baselineRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	id := r.PathValue("id")
	if err := s.store.UpdateBaseline(r.Context(), id, req.Name, req.Variable, model.BaselineType(req.Type), req.MinVersion); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "baseline not found")
			return
		}
		slog.Error("updating baseline", "id", id, "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]bool{"ok": true})
}

// @Summary Delete baseline
// @Description Deletes a baseline and all values reported against it
// @Produce json
// @Param id path string true "Baseline ID"
// @Success 200 {object} map[string]bool "Deleted"
// @Failure 404 {object} map[string]string "Unknown baseline"
// @Router /api/baselines/{id} [delete]
func (s *Server) handleDeleteBaseline(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteBaseline(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "baseline not found")
			return
		}
		slog.Error("deleting baseline", "id", id, "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	slog.Info("baseline deleted", "id", id)
	writeJSON(w, r, http.StatusOK, map[string]bool{"ok": true})
}
