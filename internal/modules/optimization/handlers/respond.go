package handlers

import (
	"fmt"
	"math"

	"github.com/aristath/frontier/internal/domain"
)

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

// weightsByAsset pairs a weight vector with its asset identifiers.
func weightsByAsset(assets []string, weights []float64) map[string]float64 {
	out := make(map[string]float64, len(assets))
	for i, asset := range assets {
		out[asset] = weights[i]
	}
	return out
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
