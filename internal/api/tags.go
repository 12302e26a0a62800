package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/patchme-dev/patchme/internal/store"
)

type tagRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// @Summary List tags
// @Produce json
// @Success 200 {array} model.Tag "Tags"
// @Router /api/tags [get]
func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.store.GetTags(r.Context())
	if err != nil {
		slog.Error("loading tags", "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, r, http.StatusOK, tags)
}

// @Summary Create tag
// @Accept json
// @Produce json
// @Param tag body tagRequest true "Tag"
// @Success 201 {object} model.Tag "Created tag"
// @Failure 409 {object} map[string]string "Duplicate tag name"
// @Router /api/tags [post]
func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	tag, err := s.store.CreateTag(r.Context(), req.Name)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, r, http.StatusConflict, "tag already exists")
			return
		}
		slog.Error("creating tag", "name", req.Name, "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, r, http.StatusCreated, tag)
}

// @Summary Update tag
// @Accept json
// @Produce json
// @Param id path string true "Tag ID"
// @Param tag body tagRequest true "Tag"
// @Success 200 {object} map[string]bool "Updated"
// @Failure 404 {object} map[string]string "Unknown tag"
// @Router /api/tags/{id} [put]
func (s *Server) handleUpdateTag(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	id := r.PathValue("id")
	if err := s.store.UpdateTag(r.Context(), id, req.Name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "tag not found")
			return
		}
		slog.Error("updating tag", "id", id, "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]bool{"ok": true})
}

// @Summary Delete tag
// @Produce json
// @Param id path string true "Tag ID"
// @Success 200 {object} map[string]bool "Deleted"
// @Failure 404 {object} map[string]string "Unknown tag"
// @Router /api/tags/{id} [delete]
func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteTag(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "tag not found")
			return
		}
		slog.Error("deleting tag", "id", id, "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]bool{"ok": true})
}
