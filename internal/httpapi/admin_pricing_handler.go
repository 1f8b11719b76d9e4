package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"bedrock_usage/internal/models"
	"bedrock_usage/internal/storage"
	"bedrock_usage/internal/utils"
)

// AdminPricingHandler handles pricing override management endpoints
type AdminPricingHandler struct {
	deps   *Dependencies
	logger *utils.Logger
}

// NewAdminPricingHandler creates a new admin pricing handler
func NewAdminPricingHandler(deps *Dependencies) *AdminPricingHandler {
	return &AdminPricingHandler{
		deps:   deps,
		logger: utils.NewLogger("admin-pricing"),
	}
}

// UpsertPriceRequest creates or replaces a pricing override
type UpsertPriceRequest struct {
	ModelID       string  `json:"model_id"`
	InputPerMTok  float64 `json:"input_per_mtok"`
	OutputPerMTok float64 `json:"output_per_mtok"`
	Active        *bool   `json:"active,omitempty"`
}

// PriceResponse is one pricing override row
type PriceResponse struct {
	ID            string  `json:"id"`
	ModelID       string  `json:"model_id"`
	InputPerMTok  float64 `json:"input_per_mtok"`
	OutputPerMTok float64 `json:"output_per_mtok"`
	Active        bool    `json:"active"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

func toPriceResponse(price *models.ModelPrice) PriceResponse {
	return PriceResponse{
		ID:            price.ID.String(),
		ModelID:       price.ModelID,
		InputPerMTok:  price.InputPerMTok,
		OutputPerMTok: price.OutputPerMTok,
		Active:        price.Active,
		CreatedAt:     price.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:     price.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (h *AdminPricingHandler) requireDB(w http.ResponseWriter) bool {
	if h.deps.DB == nil {
		utils.RespondWithError(w, http.StatusServiceUnavailable, "admin_disabled", "Admin API requires a database")
		return false
	}
	return true
}

// Collection handles /admin/pricing: GET lists overrides, POST upserts one.
func (h *AdminPricingHandler) Collection(w http.ResponseWriter, r *http.Request) {
	if !h.requireDB(w) {
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.upsert(w, r)
	default:
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	}
}

// Item handles /admin/pricing/{model_id}: DELETE removes an override.
// Model identifiers contain slashes and colons, so the rest of the
// path is the identifier.
func (h *AdminPricingHandler) Item(w http.ResponseWriter, r *http.Request) {
	if !h.requireDB(w) {
		return
	}
	if r.Method != http.MethodDelete {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	modelID := strings.TrimPrefix(r.URL.Path, "/admin/pricing/")
	if modelID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "bad_request", "model_id is required")
		return
	}

	err := h.deps.DB.NewModelPriceRepository().Delete(r.Context(), modelID)
	if err != nil {
		if errors.Is(err, storage.ErrModelPriceNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "not_found", "Model price not found")
			return
		}
		h.logger.Error("failed to delete model price", "model", modelID, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}

	if err := h.deps.reloadPricing(r.Context()); err != nil {
		h.logger.Error("failed to reload pricing", "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "internal_error", "Price deleted but reload failed")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminPricingHandler) list(w http.ResponseWriter, r *http.Request) {
	prices, err := h.deps.DB.NewModelPriceRepository().List(r.Context())
	if err != nil {
		h.logger.Error("failed to list model prices", "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}

	responses := make([]PriceResponse, len(prices))
	for i, price := range prices {
		responses[i] = toPriceResponse(price)
	}
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"prices": responses})
}

func (h *AdminPricingHandler) upsert(w http.ResponseWriter, r *http.Request) {
	var req UpsertPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "bad_request", "Invalid request body")
		return
	}
	if req.ModelID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "bad_request", "model_id is required")
		return
	}
	if req.InputPerMTok < 0 || req.OutputPerMTok < 0 {
		utils.RespondWithError(w, http.StatusBadRequest, "bad_request", "prices must not be negative")
		return
	}

	price := &models.ModelPrice{
		ModelID:       req.ModelID,
		InputPerMTok:  req.InputPerMTok,
		OutputPerMTok: req.OutputPerMTok,
		Active:        true,
	}
	if req.Active != nil {
		price.Active = *req.Active
	}

	if err := h.deps.DB.NewModelPriceRepository().Upsert(r.Context(), price); err != nil {
		h.logger.Error("failed to upsert model price", "model", req.ModelID, "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}

	if err := h.deps.reloadPricing(r.Context()); err != nil {
		h.logger.Error("failed to reload pricing", "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "internal_error", "Price saved but reload failed")
		return
	}

	utils.RespondWithJSON(w, http.StatusCreated, toPriceResponse(price))
}
