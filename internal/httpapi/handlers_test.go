package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bedrock_usage/internal/cache"
	"bedrock_usage/internal/config"
	"bedrock_usage/internal/insights"
	"bedrock_usage/internal/models"
	"bedrock_usage/internal/usage"
	"bedrock_usage/internal/utils"
)

type fakeQueryClient struct {
	rows []models.UsageRow
	err  error
}

func (f *fakeQueryClient) RunAggregatedQuery(ctx context.Context, start, end time.Time) ([]models.UsageRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func newTestDeps(t *testing.T, client insights.QueryClient) *Dependencies {
	t.Helper()

	pricing := models.NewPricingTable(map[string]models.PricingEntry{
		"anthropic.claude-sonnet-4-20250514": {InputPerMTok: 3.0, OutputPerMTok: 15.0},
		"amazon.nova-lite-v1:0":              {InputPerMTok: 0.06, OutputPerMTok: 0.015},
	})
	norm := usage.NewNormalizer(nil, "bedrock-", []string{"us", "global", "eu", "ap"})
	agg := usage.NewAggregator(norm, pricing)
	resultCache := cache.NewMemoryCache(time.Minute)
	t.Cleanup(func() { resultCache.Close() })

	return &Dependencies{
		Usage:      usage.NewService(client, agg, resultCache, nil, "test", 30, 365),
		Aggregator: agg,
		Cache:      resultCache,
		Logger:     utils.NewLogger("test"),
	}
}

func sampleRows() []models.UsageRow {
	return []models.UsageRow{
		{
			UserIdentity: "arn:aws:iam::123456789012:user/alice",
			ModelID:      "us.anthropic.claude-sonnet-4-20250514",
			Date:         "2026-08-29",
			Invocations:  4,
			InputTokens:  1_000_000,
			OutputTokens: 1_000_000,
		},
	}
}

func decodeErrorKind(t *testing.T, body []byte) string {
	t.Helper()
	var resp utils.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	return resp.Error.Kind
}

func TestHandleUsage(t *testing.T) {
	deps := newTestDeps(t, &fakeQueryClient{rows: sampleRows()})

	req := httptest.NewRequest(http.MethodGet, "/api/usage?days=7", nil)
	rec := httptest.NewRecorder()
	deps.handleUsage(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result models.AggregateResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, int64(4), result.TotalInvocations)
	assert.InDelta(t, 18.0, result.TotalCost, 1e-9)
	assert.Contains(t, result.UserInvocations, "alice")
	assert.Nil(t, result.DailyTrend)
}

func TestHandleUsageGroupByDay(t *testing.T) {
	deps := newTestDeps(t, &fakeQueryClient{rows: sampleRows()})

	req := httptest.NewRequest(http.MethodGet, "/api/usage?days=7&group_by_day=true", nil)
	rec := httptest.NewRecorder()
	deps.handleUsage(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result models.AggregateResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, map[string]int64{"2026-08-29": 4}, result.DailyTrend)
}

func TestHandleUsageMethodNotAllowed(t *testing.T) {
	deps := newTestDeps(t, &fakeQueryClient{})

	req := httptest.NewRequest(http.MethodPost, "/api/usage", nil)
	rec := httptest.NewRecorder()
	deps.handleUsage(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleUsageBadDays(t *testing.T) {
	deps := newTestDeps(t, &fakeQueryClient{rows: sampleRows()})

	for _, days := range []string{"abc", "0.5", "0"} {
		req := httptest.NewRequest(http.MethodGet, "/api/usage?days="+days, nil)
		rec := httptest.NewRecorder()
		deps.handleUsage(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_time_range", decodeErrorKind(t, rec.Body.Bytes()))
	}
}

func TestHandleUsageDaysOutOfRange(t *testing.T) {
	deps := newTestDeps(t, &fakeQueryClient{rows: sampleRows()})

	req := httptest.NewRequest(http.MethodGet, "/api/usage?days=9999", nil)
	rec := httptest.NewRecorder()
	deps.handleUsage(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_time_range", decodeErrorKind(t, rec.Body.Bytes()))
}

func TestHandleUsageBackendErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantKind string
	}{
		{"timeout", insights.ErrQueryTimeout, http.StatusGatewayTimeout, "query_timeout"},
		{"unavailable", insights.ErrBackendUnavailable, http.StatusBadGateway, "backend_unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestDeps(t, &fakeQueryClient{err: tt.err})

			req := httptest.NewRequest(http.MethodGet, "/api/usage", nil)
			rec := httptest.NewRecorder()
			deps.handleUsage(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantKind, decodeErrorKind(t, rec.Body.Bytes()))
		})
	}
}

func TestHandleCostMatrix(t *testing.T) {
	deps := newTestDeps(t, &fakeQueryClient{rows: sampleRows()})

	req := httptest.NewRequest(http.MethodGet, "/api/cost-matrix?days=7", nil)
	rec := httptest.NewRecorder()
	deps.handleCostMatrix(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var matrix models.MatrixView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &matrix))
	assert.Equal(t, []string{"alice"}, matrix.Users)
	assert.Equal(t, []string{"anthropic.claude-sonnet-4-20250514"}, matrix.Models)
	assert.InDelta(t, 18.0, matrix.TotalCost, 1e-9)
}

func TestHandlePricing(t *testing.T) {
	deps := newTestDeps(t, &fakeQueryClient{})

	req := httptest.NewRequest(http.MethodGet, "/api/pricing", nil)
	rec := httptest.NewRecorder()
	deps.handlePricing(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Pricing []PricingRow `json:"pricing"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Pricing, 2)

	// Sorted by input price, most expensive first
	assert.Equal(t, "anthropic.claude-sonnet-4-20250514", resp.Pricing[0].ModelID)
	assert.Equal(t, "Anthropic", resp.Pricing[0].Vendor)
	assert.Equal(t, "3.00", resp.Pricing[0].InputPrice)
	assert.Equal(t, "amazon.nova-lite-v1:0", resp.Pricing[1].ModelID)
	assert.Equal(t, "0.06", resp.Pricing[1].InputPrice)
	assert.Equal(t, "0.015", resp.Pricing[1].OutputPrice)
}

func TestHandleHealthNoDatabase(t *testing.T) {
	deps := newTestDeps(t, &fakeQueryClient{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	deps.handleHealth(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var status map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "ok", status["status"])
}

func TestRegisterRoutesSubnetRestriction(t *testing.T) {
	deps := newTestDeps(t, &fakeQueryClient{rows: sampleRows()})
	cfg := &config.Config{
		Subnets: config.SubnetConfig{
			Enabled: true,
			CIDRs:   []string{"10.0.0.0/8"},
		},
	}

	mux := http.NewServeMux()
	registerRoutes(mux, deps, cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/usage", nil)
	req.RemoteAddr = "203.0.113.7:4242"
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/usage", nil)
	req.RemoteAddr = "10.1.2.3:4242"
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Health stays public
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "203.0.113.7:4242"
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
