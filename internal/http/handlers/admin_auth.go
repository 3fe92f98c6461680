package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"frutico/backend/internal/auth"

	"golang.org/x/crypto/bcrypt"
)

type adminAuthRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthAdmin exchanges operator credentials for a short-lived admin token.
func (h *Handler) AuthAdmin(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	if ok, retry := h.loginLimiter.Allow(clientIP(r)); !ok {
		logger.Warn("action", "action", "auth_admin", "status", "rate_limited")
		writeTooManyRequests(w, retry)
		return
	}

	var req adminAuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("action", "action", "auth_admin", "status", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		logger.Warn("action", "action", "auth_admin", "status", "invalid_credentials")
		writeError(w, http.StatusBadRequest, "username and password required")
		return
	}
	if !h.cfg.AdminEnabled() {
		logger.Warn("action", "action", "auth_admin", "status", "disabled")
		writeError(w, http.StatusUnauthorized, "admin login disabled")
		return
	}
	if username != h.cfg.AdminLogin {
		logger.Warn("action", "action", "auth_admin", "status", "invalid_credentials")
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(h.cfg.AdminPassHash), []byte(req.Password)); err != nil {
		logger.Warn("action", "action", "auth_admin", "status", "invalid_credentials")
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.SignAdminToken(h.cfg.JWTSecret, username, h.now())
	if err != nil {
		logger.Error("action", "action", "auth_admin", "status", "token_error", "error", err)
		writeError(w, http.StatusInternalServerError, "token error")
		return
	}
	logger.Info("action", "action", "auth_admin", "status", "success", "admin", username)
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": token})
}
