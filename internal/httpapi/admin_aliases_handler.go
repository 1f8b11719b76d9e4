package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"bedrock_usage/internal/models"
	"bedrock_usage/internal/storage"
	"bedrock_usage/internal/utils"
)

// AdminAliasesHandler handles user alias management endpoints
type AdminAliasesHandler struct {
	deps   *Dependencies
	logger *utils.Logger
}

// NewAdminAliasesHandler creates a new admin aliases handler
func NewAdminAliasesHandler(deps *Dependencies) *AdminAliasesHandler {
	return &AdminAliasesHandler{
		deps:   deps,
		logger: utils.NewLogger("admin-aliases"),
	}
}

// CreateAliasRequest maps a raw identity to a canonical username
type CreateAliasRequest struct {
	Alias    string `json:"alias"`
	Username string `json:"username"`
}

// AliasResponse is one alias row
type AliasResponse struct {
	ID        string `json:"id"`
	Alias     string `json:"alias"`
	Username  string `json:"username"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toAliasResponse(alias *models.UserAlias) AliasResponse {
	return AliasResponse{
		ID:        alias.ID.String(),
		Alias:     alias.Alias,
		Username:  alias.Username,
		CreatedAt: alias.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: alias.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (h *AdminAliasesHandler) requireDB(w http.ResponseWriter) bool {
	if h.deps.DB == nil {
		utils.RespondWithError(w, http.StatusServiceUnavailable, "admin_disabled", "Admin API requires a database")
		return false
	}
	return true
}

// Collection handles /admin/aliases: GET lists aliases, POST creates one.
func (h *AdminAliasesHandler) Collection(w http.ResponseWriter, r *http.Request) {
	if !h.requireDB(w) {
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	}
}

// Item handles /admin/aliases/{id}: DELETE removes an alias.
func (h *AdminAliasesHandler) Item(w http.ResponseWriter, r *http.Request) {
	if !h.requireDB(w) {
		return
	}
	if r.Method != http.MethodDelete {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	idStr := strings.TrimPrefix(r.URL.Path, "/admin/aliases/")
	id, err := uuid.Parse(idStr)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "bad_request", "Invalid alias ID format")
		return
	}

	if err := h.deps.DB.NewUserAliasRepository().Delete(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrUserAliasNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "not_found", "Alias not found")
			return
		}
		h.logger.Error("failed to delete alias", "id", id, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}

	if err := h.deps.reloadAliases(r.Context()); err != nil {
		h.logger.Error("failed to reload aliases", "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "internal_error", "Alias deleted but reload failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminAliasesHandler) list(w http.ResponseWriter, r *http.Request) {
	aliases, err := h.deps.DB.NewUserAliasRepository().List(r.Context())
	if err != nil {
		h.logger.Error("failed to list aliases", "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}

	responses := make([]AliasResponse, len(aliases))
	for i, alias := range aliases {
		responses[i] = toAliasResponse(alias)
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"aliases": responses})
}

func (h *AdminAliasesHandler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateAliasRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "bad_request", "Invalid request body")
		return
	}
	if req.Alias == "" || req.Username == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "bad_request", "alias and username are required")
		return
	}

	alias := &models.UserAlias{
		Alias:    req.Alias,
		Username: req.Username,
	}
	if err := h.deps.DB.NewUserAliasRepository().Create(r.Context(), alias); err != nil {
		h.logger.Error("failed to create alias", "alias", req.Alias, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}

	if err := h.deps.reloadAliases(r.Context()); err != nil {
		h.logger.Error("failed to reload aliases", "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "internal_error", "Alias created but reload failed")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, toAliasResponse(alias))
}
