// Package handlers provides HTTP handlers for fixed-income analytics.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/modules/fixedincome"
)

// Handler handles fixed-income HTTP requests
type Handler struct {
	log zerolog.Logger
}

// NewHandler creates a new fixed-income handler
func NewHandler(log zerolog.Logger) *Handler {
	return &Handler{
		log: log.With().Str("handler", "fixedincome").Logger(),
	}
}

// RegisterRoutes registers the bond routes on the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/bonds", func(r chi.Router) {
		r.Post("/analytics", h.HandleAnalytics)
	})
}

// HandleAnalytics handles POST /api/bonds/analytics
func (h *Handler) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	var inst fixedincome.Instrument
	if err := json.NewDecoder(r.Body).Decode(&inst); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	calc, err := fixedincome.NewCalculator(inst)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": calc.Analytics(),
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
