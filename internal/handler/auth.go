package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/everesteng/assessor/internal/model"
)

const sessionCookieName = "admin_session"

type loginRequest struct {
	Password string `json:"password"`
}

// handleLogin checks the shared admin password against the stored bcrypt
// hash and grants a server-side session for the browser session lifetime.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, http.StatusBadRequest, "InvalidRequestBody")
		return
	}

	hash, err := h.store.GetAdminPasswordHash()
	if err != nil {
		slog.Error("failed to load admin password hash", "error", err)
		h.respondError(w, r, http.StatusInternalServerError, "StoreError")
		return
	}
	if hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		h.respondError(w, r, http.StatusUnauthorized, "WrongPassword")
		return
	}

	token, err := h.store.CreateAdminSession()
	if err != nil {
		slog.Error("failed to create admin session", "error", err)
		h.respondError(w, r, http.StatusInternalServerError, "StoreError")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.config.SecureCookies,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil && cookie.Value != "" {
		_ = h.store.DeleteAdminSession(cookie.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
	})
	w.WriteHeader(http.StatusNoContent)
}

// requireAdmin is middleware that checks for a valid admin session cookie.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			h.respondError(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}

		sess, err := h.store.GetAdminSession(cookie.Value)
		if err != nil {
			slog.Error("failed to get admin session", "error", err)
			h.respondError(w, r, http.StatusInternalServerError, "StoreError")
			return
		}
		if sess == nil {
			h.respondError(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}

		ctx := model.ContextWithAdminSession(r.Context(), sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
