package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"bedrock_usage/internal/auth"
	"bedrock_usage/internal/config"
	"bedrock_usage/internal/storage"
	"bedrock_usage/internal/utils"
)

// AdminAuthHandler handles admin authentication endpoints
type AdminAuthHandler struct {
	db     *storage.DB
	cfg    *config.Config
	logger *utils.Logger
}

// NewAdminAuthHandler creates a new admin auth handler
func NewAdminAuthHandler(db *storage.DB, cfg *config.Config) *AdminAuthHandler {
	return &AdminAuthHandler{
		db:     db,
		cfg:    cfg,
		logger: utils.NewLogger("admin-auth"),
	}
}

// LoginRequest is the email/password login payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the session token for subsequent requests
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

// Login handles POST /admin/auth/login
func (h *AdminAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}
	if h.db == nil {
		utils.RespondWithError(w, http.StatusServiceUnavailable, "admin_disabled", "Admin API requires a database")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "bad_request", "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "bad_request", "email and password are required")
		return
	}

	user, err := h.db.NewAdminUserRepository().GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrAdminUserNotFound) {
			utils.RespondWithError(w, http.StatusUnauthorized, "unauthorized", "Invalid credentials")
			return
		}
		h.logger.Error("login lookup failed", "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) || !user.IsValid() {
		utils.RespondWithError(w, http.StatusUnauthorized, "unauthorized", "Invalid credentials")
		return
	}

	token, expiresAt, err := auth.GenerateAdminJWT(user, h.cfg)
	if err != nil {
		h.logger.Error("token generation failed", "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}

	if err := h.db.NewAdminUserRepository().UpdateLastLogin(r.Context(), user.ID); err != nil {
		h.logger.Warn("failed to record last login", "email", user.Email, "error", err)
	}

	utils.RespondWithJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: expiresAt})
}
