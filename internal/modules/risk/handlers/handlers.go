// Package handlers provides HTTP handlers for risk analysis operations.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/internal/modules/risk"
)

// Defaults are the configured fallbacks applied when a request leaves a
// field unset.
type Defaults struct {
	RiskFreeRate   float64
	PeriodsPerYear float64
}

// Handler handles risk analysis HTTP requests
type Handler struct {
	defaults Defaults
	log      zerolog.Logger
}

// NewHandler creates a new risk handler
func NewHandler(defaults Defaults, log zerolog.Logger) *Handler {
	return &Handler{
		defaults: defaults,
		log:      log.With().Str("handler", "risk").Logger(),
	}
}

// RegisterRoutes registers the risk routes on the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/risk", func(r chi.Router) {
		r.Post("/report", h.HandleReport)
		r.Post("/var", h.HandleValueAtRisk)
	})
}

type riskRequest struct {
	Returns         map[string][]float64 `json:"returns"`
	Weights         map[string]float64   `json:"weights"`
	RiskFreeRate    *float64             `json:"risk_free_rate"`
	ConfidenceLevel float64              `json:"confidence_level"`
	Method          string               `json:"method"`
}

// HandleReport handles POST /api/risk/report
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	req, analyzer, ok := h.buildAnalyzer(w, r)
	if !ok {
		return
	}

	riskFreeRate := h.defaults.RiskFreeRate
	if req.RiskFreeRate != nil {
		riskFreeRate = *req.RiskFreeRate
	}

	report := analyzer.Report(riskFreeRate)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"volatility":    report.Volatility,
			"var_95":        report.VaR95,
			"es_95":         report.ES95,
			"skewness":      report.Skewness,
			"kurtosis":      report.ExcessKurtosis,
			"max_drawdown":  report.MaxDrawdown,
			"sortino_ratio": sanitizeFloat(report.SortinoRatio),
		},
		"metadata": h.metadata(),
	})
}

// HandleValueAtRisk handles POST /api/risk/var
func (h *Handler) HandleValueAtRisk(w http.ResponseWriter, r *http.Request) {
	req, analyzer, ok := h.buildAnalyzer(w, r)
	if !ok {
		return
	}

	method := req.Method
	if method == "" {
		method = risk.MethodHistorical
	}

	valueAtRisk, err := analyzer.ValueAtRisk(req.ConfidenceLevel, method)
	if err != nil {
		if errors.Is(err, risk.ErrUnsupportedMethod) || errors.Is(err, risk.ErrInvalidConfidence) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error().Err(err).Msg("VaR computation failed")
		http.Error(w, "VaR computation failed", http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"var":              valueAtRisk,
		"confidence_level": req.ConfidenceLevel,
		"method":           method,
	}
	if method == risk.MethodHistorical {
		es, err := analyzer.ExpectedShortfall(req.ConfidenceLevel)
		if err == nil {
			data["expected_shortfall"] = es
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":     data,
		"metadata": h.metadata(),
	})
}

// buildAnalyzer decodes the request body and constructs the analyzer. On
// failure it writes the client error itself and returns ok=false.
func (h *Handler) buildAnalyzer(w http.ResponseWriter, r *http.Request) (*riskRequest, *risk.Analyzer, bool) {
	var req riskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return nil, nil, false
	}

	series, err := domain.NewReturnSeriesFromColumns(req.Returns, h.defaults.PeriodsPerYear)
	if err != nil {
		http.Error(w, "Invalid return data: "+err.Error(), http.StatusBadRequest)
		return nil, nil, false
	}

	weights, err := weightVector(series, req.Weights)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, nil, false
	}

	analyzer, err := risk.New(series, weights, h.log)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, nil, false
	}
	return &req, analyzer, true
}

func (h *Handler) metadata() map[string]interface{} {
	return map[string]interface{}{
		"timestamp": time.Now().Format(time.RFC3339),
		"run_id":    uuid.NewString(),
	}
}

// sanitizeFloat maps non-finite sentinels to JSON-safe strings, since
// encoding/json rejects IEEE infinities.
func sanitizeFloat(v float64) interface{} {
	switch {
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case math.IsNaN(v):
		return "NaN"
	}
	return v
}

// weightVector converts a caller-supplied asset->weight mapping into the
// series' column order. Every asset in the universe must be present.
func weightVector(series *domain.ReturnSeries, byAsset map[string]float64) ([]float64, error) {
	assets := series.Assets()
	if len(byAsset) != len(assets) {
		return nil, fmt.Errorf("got %d weights for %d assets", len(byAsset), len(assets))
	}
	weights := make([]float64, len(assets))
	for i, asset := range assets {
		w, ok := byAsset[asset]
		if !ok {
			return nil, fmt.Errorf("missing weight for asset %q", asset)
		}
		weights[i] = w
	}
	return weights, nil
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
