package handlers

import (
	"bytes"
	"encoding/json"
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
		RiskFreeRate:   0.02,
		PeriodsPerYear: 252,
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

func TestHandleReport(t *testing.T) {
	r := newTestRouter(t)

	rec := postJSON(t, r, "/risk/report", map[string]interface{}{
		"returns": map[string][]float64{
			"PORT": {-0.05, -0.03, -0.01, 0.00, 0.02, 0.04},
		},
		"weights": map[string]float64{"PORT": 1.0},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data struct {
			Volatility   float64     `json:"volatility"`
			VaR95        float64     `json:"var_95"`
			ES95         float64     `json:"es_95"`
			MaxDrawdown  float64     `json:"max_drawdown"`
			SortinoRatio interface{} `json:"sortino_ratio"`
		} `json:"data"`
		Metadata struct {
			RunID string `json:"run_id"`
		} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.InDelta(t, 0.045, resp.Data.VaR95, 1e-9)
	assert.InDelta(t, 0.05, resp.Data.ES95, 1e-9)
	assert.Greater(t, resp.Data.Volatility, 0.0)
	assert.LessOrEqual(t, resp.Data.MaxDrawdown, 0.0)
	assert.NotEmpty(t, resp.Metadata.RunID)
}

func TestHandleReport_SortinoSentinelSerialization(t *testing.T) {
	// All-positive returns: the Sortino ratio is the +Inf sentinel, which
	// must serialize as the "Infinity" string since JSON has no infinities.
	r := newTestRouter(t)

	rec := postJSON(t, r, "/risk/report", map[string]interface{}{
		"returns": map[string][]float64{
			"PORT": {0.01, 0.02, 0.03, 0.04},
		},
		"weights": map[string]float64{"PORT": 1.0},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data struct {
			SortinoRatio interface{} `json:"sortino_ratio"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Infinity", resp.Data.SortinoRatio)
}

func TestHandleValueAtRisk(t *testing.T) {
	r := newTestRouter(t)

	rec := postJSON(t, r, "/risk/var", map[string]interface{}{
		"returns": map[string][]float64{
			"PORT": {-0.05, -0.03, -0.01, 0.00, 0.02, 0.04},
		},
		"weights":          map[string]float64{"PORT": 1.0},
		"confidence_level": 0.95,
		"method":           "historical",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data struct {
			VaR               float64 `json:"var"`
			ExpectedShortfall float64 `json:"expected_shortfall"`
			Method            string  `json:"method"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.InDelta(t, 0.045, resp.Data.VaR, 1e-9)
	assert.InDelta(t, 0.05, resp.Data.ExpectedShortfall, 1e-9)
	assert.Equal(t, "historical", resp.Data.Method)
}

func TestHandleValueAtRisk_ParametricOmitsShortfall(t *testing.T) {
	r := newTestRouter(t)

	rec := postJSON(t, r, "/risk/var", map[string]interface{}{
		"returns": map[string][]float64{
			"PORT": {0.01, -0.02, 0.03, -0.01, 0.02, 0.00},
		},
		"weights":          map[string]float64{"PORT": 1.0},
		"confidence_level": 0.95,
		"method":           "parametric",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotContains(t, resp.Data, "expected_shortfall")
}

func TestHandleValueAtRisk_BadRequests(t *testing.T) {
	r := newTestRouter(t)

	returns := map[string][]float64{"PORT": {0.01, -0.02, 0.03}}
	weights := map[string]float64{"PORT": 1.0}

	tests := []struct {
		name string
		body interface{}
	}{
		{
			name: "unsupported method",
			body: map[string]interface{}{
				"returns":          returns,
				"weights":          weights,
				"confidence_level": 0.95,
				"method":           "montecarlo",
			},
		},
		{
			name: "confidence level out of range",
			body: map[string]interface{}{
				"returns":          returns,
				"weights":          weights,
				"confidence_level": 1.5,
				"method":           "historical",
			},
		},
		{
			name: "missing weight",
			body: map[string]interface{}{
				"returns":          returns,
				"weights":          map[string]float64{},
				"confidence_level": 0.95,
			},
		},
		{
			name: "invalid return data",
			body: map[string]interface{}{
				"returns":          map[string][]float64{"PORT": {0.01}},
				"weights":          weights,
				"confidence_level": 0.95,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, r, "/risk/var", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleValueAtRisk_DefaultsToHistorical(t *testing.T) {
	r := newTestRouter(t)

	rec := postJSON(t, r, "/risk/var", map[string]interface{}{
		"returns": map[string][]float64{
			"PORT": {-0.05, -0.03, -0.01, 0.00, 0.02, 0.04},
		},
		"weights":          map[string]float64{"PORT": 1.0},
		"confidence_level": 0.95,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data struct {
			Method string `json:"method"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "historical", resp.Data.Method)
}
