package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/patchme-dev/patchme/internal/model"
	"github.com/patchme-dev/patchme/internal/store"
	"golang.org/x/crypto/bcrypt"
)

type createUserRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=admin user"`
}

type updateUserRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"omitempty,min=8"`
	Role     string `json:"role" validate:"required,oneof=admin user"`
}

// @Summary List users
// @Description Returns all dashboard accounts. Password hashes are never included.
// @Produce json
// @Success 200 {array} model.User "Users"
// @Router /api/users [get]
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.GetUsers(r.Context())
	if err != nil {
		slog.Error("loading users", "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, r, http.StatusOK, users)
}

// @Summary Create user
// @Accept json
// @Produce json
// @Param user body createUserRequest true "User"
// @Success 201 {object} model.User "Created user"
// @Failure 409 {object} map[string]string "Duplicate email"
// @Router /api/users [post]
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("hashing password", "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	role := model.Role(req.Role)
	if role == "" {
		role = model.RoleUser
	}
	user, err := s.store.CreateUser(r.Context(), req.Name, req.Email, string(hash), role)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, r, http.StatusConflict, "email already in use")
			return
		}
		slog.Error("creating user", "email", req.Email, "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	slog.Info("user created", "user", user.Email, "role", user.Role)
	writeJSON(w, r, http.StatusCreated, user)
}

// @Summary Update user
// @Description Updates a user. The role must be given explicitly; an empty password keeps the stored hash.
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param user body updateUserRequest true "User"
// @Success 200 {object} map[string]bool "Updated"
// @Failure 404 {object} map[string]string "Unknown user"
// @Router /api/users/{id} [put]
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	var hash string
	if req.Password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			slog.Error("hashing password", "error", err)
			writeError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
		hash = string(h)
	}
	id := r.PathValue("id")
	if err := s.store.UpdateUser(r.Context(), id, req.Name, req.Email, hash, model.Role(req.Role)); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, r, http.StatusNotFound, "user not found")
		case errors.Is(err, store.ErrDuplicate):
			writeError(w, r, http.StatusConflict, "email already in use")
		default:
			slog.Error("updating user", "id", id, "error", err)
			writeError(w, r, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]bool{"ok": true})
}

// @Summary Delete user
// @Description Deletes a user. The last remaining admin cannot be deleted.
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} map[string]bool "Deleted"
// @Failure 404 {object} map[string]string "Unknown user"
// @Failure 409 {object} map[string]string "Would remove the last admin"
// @Router /api/users/{id} [delete]
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.DeleteUser(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, r, http.StatusNotFound, "user not found")
		case errors.Is(err, store.ErrLastAdmin):
			writeError(w, r, http.StatusConflict, "cannot delete the last admin")
		default:
			slog.Error("deleting user", "id", id, "error", err)
			writeError(w, r, http.StatusInternalServerError, "internal error")
		}
		return
	}
	slog.Info("user deleted", "id", id)
	writeJSON(w, r, http.StatusOK, map[string]bool{"ok": true})
}
