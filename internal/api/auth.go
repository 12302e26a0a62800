package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patchme-dev/patchme/internal/store"
	"golang.org/x/crypto/bcrypt"
)

const (
	sessionCookie = "pmsession"
	sessionTTL    = 7 * 24 * time.Hour
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// @Summary Log in
// @Description Authenticates a user and sets a session cookie
// @Accept json
// @Produce json
// @Param credentials body loginRequest true "Login credentials"
// @Success 200 {object} map[string]interface{} "User info"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Router /api/login [post]
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	user, err := s.store.FindUserByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn a hash comparison anyway so the response time does not
			// reveal whether the email exists.
			_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$0000000000000000000000000000000000000000000000000000"), []byte(req.Password))
			writeError(w, r, http.StatusUnauthorized, "invalid email or password")
			return
		}
		slog.Error("looking up user", "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		writeError(w, r, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token := uuid.NewString()
	expires := time.Now().Add(sessionTTL)
	if err := s.store.CreateSession(r.Context(), token, user.ID, expires); err != nil {
		slog.Error("creating session", "error", err)
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	slog.Info("user logged in", "user", user.Email)
	writeJSON(w, r, http.StatusOK, map[string]any{
		"ok":   true,
		"name": user.Name,
		"role": user.Role,
	})
}

// @Summary Log out
// @Description Deletes the current session and clears the cookie
// @Produce json
// @Success 200 {object} map[string]bool "Logged out"
// @Router /api/logout [post]
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if err := s.store.DeleteSession(r.Context(), c.Value); err != nil {
			slog.Warn("deleting session", "error", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, r, http.StatusOK, map[string]bool{"ok": true})
}

// sessionUser resolves the session cookie to a user, or returns ErrNotFound.
func (s *Server) sessionUser(r *http.Request) (string, error) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return "", store.ErrNotFound
	}
	user, err := s.store.UserForSession(r.Context(), c.Value)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// requireSession guards JSON API routes. Unauthenticated requests get a 401.
func (s *Server) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.sessionUser(r); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, r, http.StatusUnauthorized, "authentication required")
				return
			}
			slog.Error("resolving session", "error", err)
			writeError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
		next(w, r)
	}
}

// requirePage guards HTML pages. Unauthenticated requests are redirected to
// the login page.
func (s *Server) requirePage(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.sessionUser(r); err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}
