// Package handlers provides HTTP handlers for portfolio optimization
// operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/internal/modules/optimization"
)

// Defaults are the configured fallbacks applied when a request leaves a
// field unset.
type Defaults struct {
	RiskFreeRate    float64
	PeriodsPerYear  float64
	FrontierPoints  int
	FrontierWorkers int
}

// Handler handles optimization HTTP requests
type Handler struct {
	defaults Defaults
	log      zerolog.Logger
}

// NewHandler creates a new optimization handler
func NewHandler(defaults Defaults, log zerolog.Logger) *Handler {
	return &Handler{
		defaults: defaults,
		log:      log.With().Str("handler", "optimization").Logger(),
	}
}

// RegisterRoutes registers the optimizer routes on the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/optimizer", func(r chi.Router) {
		r.Post("/sharpe", h.HandleMaximizeSharpe)
		r.Post("/frontier", h.HandleFrontier)
		r.Post("/metrics", h.HandleMetrics)
	})
}

type optimizeRequest struct {
	Returns      map[string][]float64 `json:"returns"`
	RiskFreeRate *float64             `json:"risk_free_rate"`
	NumPoints    int                  `json:"num_points"`
	Weights      map[string]float64   `json:"weights"`
}

// HandleMaximizeSharpe handles POST /api/optimizer/sharpe
func (h *Handler) HandleMaximizeSharpe(w http.ResponseWriter, r *http.Request) {
	_, opt, series, ok := h.buildOptimizer(w, r)
	if !ok {
		return
	}

	result, err := opt.MaximizeSharpe(nil, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("Sharpe maximization failed")
		http.Error(w, "Optimization failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	metrics, err := opt.Metrics(result.Weights)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute metrics at solution")
		http.Error(w, "Failed to compute metrics", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"optimal_weights": weightsByAsset(series.Assets(), result.Weights),
			"sharpe_ratio":    sanitizeFloat(result.SharpeRatio),
			"converged":       result.Converged,
			"status":          result.Status,
			"metrics": map[string]interface{}{
				"expected_return": metrics.ExpectedReturn,
				"volatility":      metrics.Volatility,
				"sharpe_ratio":    sanitizeFloat(metrics.SharpeRatio),
			},
			"risk_free_rate": opt.RiskFreeRate(),
		},
		"metadata": h.metadata(),
	})
}

// HandleFrontier handles POST /api/optimizer/frontier
func (h *Handler) HandleFrontier(w http.ResponseWriter, r *http.Request) {
	req, opt, series, ok := h.buildOptimizer(w, r)
	if !ok {
		return
	}

	numPoints := req.NumPoints
	if numPoints <= 0 {
		numPoints = h.defaults.FrontierPoints
	}

	points, err := opt.EfficientFrontier(r.Context(), numPoints, h.defaults.FrontierWorkers)
	if err != nil {
		h.log.Error().Err(err).Msg("Frontier sweep failed")
		http.Error(w, "Frontier generation failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	assets := series.Assets()
	frontier := make([]map[string]interface{}, len(points))
	for i, p := range points {
		frontier[i] = map[string]interface{}{
			"target_return": p.TargetReturn,
			"volatility":    p.Volatility,
			"weights":       weightsByAsset(assets, p.Weights),
		}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"frontier":   frontier,
			"num_points": len(points),
		},
		"metadata": h.metadata(),
	})
}

// HandleMetrics handles POST /api/optimizer/metrics
func (h *Handler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	req, opt, series, ok := h.buildOptimizer(w, r)
	if !ok {
		return
	}

	weights, err := weightVector(series, req.Weights)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	metrics, err := opt.Metrics(weights)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"expected_return": metrics.ExpectedReturn,
			"volatility":      metrics.Volatility,
			"sharpe_ratio":    sanitizeFloat(metrics.SharpeRatio),
			"risk_free_rate":  opt.RiskFreeRate(),
		},
		"metadata": h.metadata(),
	})
}

// buildOptimizer decodes the request body, validates the return data and
// constructs the optimizer. On failure it writes the client error itself
// and returns ok=false.
func (h *Handler) buildOptimizer(w http.ResponseWriter, r *http.Request) (*optimizeRequest, *optimization.Optimizer, *domain.ReturnSeries, bool) {
	var req optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return nil, nil, nil, false
	}

	series, err := domain.NewReturnSeriesFromColumns(req.Returns, h.defaults.PeriodsPerYear)
	if err != nil {
		http.Error(w, "Invalid return data: "+err.Error(), http.StatusBadRequest)
		return nil, nil, nil, false
	}

	riskFreeRate := h.defaults.RiskFreeRate
	if req.RiskFreeRate != nil {
		riskFreeRate = *req.RiskFreeRate
	}

	opt, err := optimization.New(series, riskFreeRate, h.log)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, nil, nil, false
	}
	return &req, opt, series, true
}

func (h *Handler) metadata() map[string]interface{} {
	return map[string]interface{}{
		"timestamp": time.Now().Format(time.RFC3339),
		"run_id":    uuid.NewString(),
	}
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
