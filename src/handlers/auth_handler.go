// backend/src/handlers/auth_handler.go
package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/username/centavo/backend/src/logger"
	"github.com/username/centavo/backend/src/model"
	"github.com/username/centavo/backend/src/security"
	"github.com/username/centavo/backend/src/security/validation"
	"github.com/username/centavo/backend/src/services"
	"github.com/username/centavo/backend/src/utils"
)

type AuthHandler struct {
	db          *sql.DB
	authService *security.AuthService
	cache       services.AnalyticsCache
}

func NewAuthHandler(db *sql.DB, authService *security.AuthService, cache services.AnalyticsCache) *AuthHandler {
	return &AuthHandler{db: db, authService: authService, cache: cache}
}

func (h *AuthHandler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	credentials.Username = validation.SanitizeText(strings.TrimSpace(credentials.Username))
	if err := validation.ValidateStringNotEmpty(credentials.Username, "username"); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidateEmail(credentials.Email); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.ValidatePassword(credentials.Password); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	user := model.User{
		Username: credentials.Username,
		Email:    strings.ToLower(strings.TrimSpace(credentials.Email)),
	}
	if err := user.HashPassword(credentials.Password); err != nil {
		logger.FromContext(r.Context()).Error("Password hashing failed", "error", err)
		utils.SendJSONError(w, "Failed to register user", http.StatusInternalServerError)
		return
	}
	if err := user.CreateUser(h.db); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique constraint failed") {
			utils.SendJSONError(w, "Email or username already in use", http.StatusConflict)
			return
		}
		logger.FromContext(r.Context()).Error("User creation failed", "error", err)
		utils.SendJSONError(w, "Failed to register user", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, user, http.StatusCreated)
}

func (h *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := model.GetUserByEmail(h.db, strings.ToLower(strings.TrimSpace(credentials.Email)))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			utils.SendJSONError(w, "Invalid email or password", http.StatusUnauthorized)
			return
		}
		logger.FromContext(r.Context()).Error("User lookup failed on login", "error", err)
		utils.SendJSONError(w, "Login failed", http.StatusInternalServerError)
		return
	}
	if err := user.CheckPassword(credentials.Password); err != nil {
		utils.SendJSONError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	accessToken, err := h.authService.GenerateToken(strconv.FormatInt(user.ID, 10))
	if err != nil {
		logger.FromContext(r.Context()).Error("Token generation failed", "userID", user.ID, "error", err)
		utils.SendJSONError(w, "Login failed", http.StatusInternalServerError)
		return
	}
	session, err := model.CreateSession(h.db, user.ID, accessToken, time.Now().UTC().Add(h.authService.TokenExpiry()))
	if err != nil {
		logger.FromContext(r.Context()).Error("Session creation failed", "userID", user.ID, "error", err)
		utils.SendJSONError(w, "Login failed", http.StatusInternalServerError)
		return
	}

	utils.SendJSON(w, map[string]interface{}{
		"access_token": accessToken,
		"expires_at":   session.ExpiresAt,
		"user":         user,
	}, http.StatusOK)
}

func (h *AuthHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	token := sessionTokenFromContext(r.Context())
	if err := model.DeleteSessionByToken(h.db, token); err != nil {
		logger.FromContext(r.Context()).Error("Session deletion failed on logout", "error", err)
		utils.SendJSONError(w, "Logout failed", http.StatusInternalServerError)
		return
	}
	// Cached analytics are keyed per user and scoped to session lifetime;
	// drop them when the session goes.
	h.cache.InvalidateUserScope(context.WithoutCancel(r.Context()), userID)
	utils.SendJSON(w, map[string]string{"message": "logged out"}, http.StatusOK)
}

func (h *AuthHandler) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validation.ValidatePassword(req.NewPassword); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := model.GetUserByID(h.db, userID)
	if err != nil {
		utils.SendJSONError(w, "User not found", http.StatusNotFound)
		return
	}
	if err := user.CheckPassword(req.CurrentPassword); err != nil {
		utils.SendJSONError(w, "Current password is incorrect", http.StatusUnauthorized)
		return
	}

	hashed, err := h.authService.HashPassword(req.NewPassword)
	if err != nil {
		logger.FromContext(r.Context()).Error("Password hashing failed", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to change password", http.StatusInternalServerError)
		return
	}
	if err := model.UpdateUserPassword(h.db, userID, hashed); err != nil {
		logger.FromContext(r.Context()).Error("Password update failed", "userID", userID, "error", err)
		utils.SendJSONError(w, "Failed to change password", http.StatusInternalServerError)
		return
	}

	// Revoke every session so tokens issued against the old password die,
	// and drop the session-scoped caches with them.
	if _, err := model.DeleteSessionsForUser(h.db, userID); err != nil {
		logger.FromContext(r.Context()).Error("Session revocation failed after password change", "userID", userID, "error", err)
	}
	h.cache.InvalidateUserScope(context.WithoutCancel(r.Context()), userID)
	utils.SendJSON(w, map[string]string{"message": "password changed, please log in again"}, http.StatusOK)
}
