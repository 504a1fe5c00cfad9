package handlers

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) chi.Router {
	t.Helper()
	h := NewHandler(Defaults{
		RiskFreeRate:    0.02,
		PeriodsPerYear:  252,
		FrontierPoints:  10,
		FrontierWorkers: 2,
	}, zerolog.Nop())
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func postJSON(t *testing.T, r chi.Router, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func validReturns() map[string][]float64 {
	return map[string][]float64{
		"AAA": {0.02, -0.01, 0.03, 0.00, 0.02, -0.02},
		"BBB": {0.01, 0.00, -0.01, 0.02, 0.00, 0.01},
	}
}

func TestHandleMaximizeSharpe(t *testing.T) {
	r := newTestRouter(t)

	rec := postJSON(t, r, "/optimizer/sharpe", map[string]interface{}{
		"returns": validReturns(),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data struct {
			OptimalWeights map[string]float64 `json:"optimal_weights"`
			Converged      bool               `json:"converged"`
			RiskFreeRate   float64            `json:"risk_free_rate"`
		} `json:"data"`
		Metadata struct {
			Timestamp string `json:"timestamp"`
			RunID     string `json:"run_id"`
		} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Len(t, resp.Data.OptimalWeights, 2)
	sum := resp.Data.OptimalWeights["AAA"] + resp.Data.OptimalWeights["BBB"]
	assert.InDelta(t, 1.0, sum, 1e-6)
	assert.Equal(t, 0.02, resp.Data.RiskFreeRate)
	assert.NotEmpty(t, resp.Metadata.Timestamp)
	assert.NotEmpty(t, resp.Metadata.RunID)
}

func TestHandleMaximizeSharpe_RiskFreeRateOverride(t *testing.T) {
	r := newTestRouter(t)

	rec := postJSON(t, r, "/optimizer/sharpe", map[string]interface{}{
		"returns":        validReturns(),
		"risk_free_rate": 0.05,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data struct {
			RiskFreeRate float64 `json:"risk_free_rate"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0.05, resp.Data.RiskFreeRate)
}

func TestHandleMaximizeSharpe_BadRequests(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{
			name: "empty body",
			body: map[string]interface{}{},
		},
		{
			name: "misaligned columns",
			body: map[string]interface{}{
				"returns": map[string][]float64{
					"AAA": {0.01, 0.02},
					"BBB": {0.01},
				},
			},
		},
		{
			name: "single period",
			body: map[string]interface{}{
				"returns": map[string][]float64{"AAA": {0.01}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, r, "/optimizer/sharpe", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleMaximizeSharpe_MalformedJSON(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/optimizer/sharpe", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleFrontier(t *testing.T) {
	r := newTestRouter(t)

	rec := postJSON(t, r, "/optimizer/frontier", map[string]interface{}{
		"returns":    validReturns(),
		"num_points": 5,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data struct {
			Frontier []struct {
				TargetReturn float64            `json:"target_return"`
				Volatility   float64            `json:"volatility"`
				Weights      map[string]float64 `json:"weights"`
			} `json:"frontier"`
			NumPoints int `json:"num_points"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, 5, resp.Data.NumPoints)
	require.Len(t, resp.Data.Frontier, 5)
	for i, p := range resp.Data.Frontier {
		if i > 0 {
			assert.GreaterOrEqual(t, p.TargetReturn, resp.Data.Frontier[i-1].TargetReturn)
		}
		assert.GreaterOrEqual(t, p.Volatility, 0.0)
		assert.Len(t, p.Weights, 2)
	}
}

func TestHandleFrontier_DefaultPointCount(t *testing.T) {
	r := newTestRouter(t)

	rec := postJSON(t, r, "/optimizer/frontier", map[string]interface{}{
		"returns": validReturns(),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data struct {
			NumPoints int `json:"num_points"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 10, resp.Data.NumPoints)
}

func TestHandleMetrics(t *testing.T) {
	r := newTestRouter(t)

	rec := postJSON(t, r, "/optimizer/metrics", map[string]interface{}{
		"returns": validReturns(),
		"weights": map[string]float64{"AAA": 0.5, "BBB": 0.5},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data struct {
			ExpectedReturn float64     `json:"expected_return"`
			Volatility     float64     `json:"volatility"`
			SharpeRatio    interface{} `json:"sharpe_ratio"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Greater(t, resp.Data.Volatility, 0.0)
	assert.NotNil(t, resp.Data.SharpeRatio)
}

func TestHandleMetrics_MissingWeight(t *testing.T) {
	r := newTestRouter(t)

	rec := postJSON(t, r, "/optimizer/metrics", map[string]interface{}{
		"returns": validReturns(),
		"weights": map[string]float64{"AAA": 1.0},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSanitizeFloat(t *testing.T) {
	tests := []struct {
		name     string
		in       float64
		expected interface{}
	}{
		{"finite value passes through", 1.5, 1.5},
		{"positive infinity", math.Inf(1), "Infinity"},
		{"negative infinity", math.Inf(-1), "-Infinity"},
		{"not a number", math.NaN(), "NaN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeFloat(tt.in))
		})
	}
}
