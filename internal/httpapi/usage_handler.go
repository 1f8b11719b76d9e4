package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"bedrock_usage/internal/insights"
	"bedrock_usage/internal/usage"
	"bedrock_usage/internal/utils"
)

// parseDays reads the days query parameter. An absent parameter means
// the service default; an explicit zero is rejected like any other
// out-of-range value. Range validation happens in the service.
func parseDays(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return 0, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if days == 0 {
		return 0, errZeroDays
	}
	return days, nil
}

var errZeroDays = errors.New("days must be a positive integer")

// handleUsage serves GET /api/usage
func (d *Dependencies) handleUsage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	days, err := parseDays(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid_time_range", "days must be a positive integer")
		return
	}
	groupByDay := r.URL.Query().Get("group_by_day") == "true"

	result, err := d.Usage.ComputeUsage(r.Context(), days, groupByDay)
	if err != nil {
		d.respondUsageError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, result)
}

// handleCostMatrix serves GET /api/cost-matrix
func (d *Dependencies) handleCostMatrix(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}

	days, err := parseDays(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid_time_range", "days must be a positive integer")
		return
	}

	matrix, err := d.Usage.ComputeCostMatrix(r.Context(), days)
	if err != nil {
		d.respondUsageError(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, matrix)
}

// respondUsageError maps service errors to HTTP status codes.
func (d *Dependencies) respondUsageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, usage.ErrInvalidTimeRange):
		utils.RespondWithError(w, http.StatusBadRequest, "invalid_time_range", err.Error())
	case errors.Is(err, insights.ErrQueryTimeout):
		utils.RespondWithError(w, http.StatusGatewayTimeout, "query_timeout",
			"The usage query did not finish in time; try a narrower time range")
	case errors.Is(err, insights.ErrBackendUnavailable):
		utils.RespondWithError(w, http.StatusBadGateway, "backend_unavailable",
			"The log backend is unavailable; try again later")
	default:
		d.Logger.Error("usage request failed", "error", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}
