// Package riskmodel loads and evaluates the serialized hospitalization risk
// classifier. The artifact is a JSON file exported from the training
// pipeline: an ordered feature list with logistic-regression weights, numeric
// features weighted directly and categorical features through per-level
// weights.
package riskmodel

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
)

const (
	FeatureNumeric     = "numeric"
	FeatureCategorical = "categorical"
)

type Feature struct {
	Name string `json:"name"`
	Type string `json:"type"`
	// Weight applies to numeric features.
	Weight float64 `json:"weight,omitempty"`
	// Levels maps category values to their one-hot weights. An unseen level
	// contributes zero.
	Levels map[string]float64 `json:"levels,omitempty"`
}

// Model is the loaded classifier. Calibrated indicates the exported weights
// were probability-calibrated, in which case PredictProba is meaningful.
type Model struct {
	Version    int       `json:"version"`
	Calibrated bool      `json:"calibrated"`
	Intercept  float64   `json:"intercept"`
	Threshold  float64   `json:"threshold,omitempty"`
	Features   []Feature `json:"features"`
}

// Load reads and validates a model artifact from path.
func Load(path string) (*Model, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	var m Model
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode model artifact: %w", err)
	}
	if len(m.Features) == 0 {
		return nil, fmt.Errorf("model artifact %s has no features", path)
	}
	for _, f := range m.Features {
		switch f.Type {
		case FeatureNumeric, FeatureCategorical:
		default:
			return nil, fmt.Errorf("model feature %q has unknown type %q", f.Name, f.Type)
		}
	}
	if m.Threshold <= 0 || m.Threshold >= 1 {
		m.Threshold = 0.5
	}
	return &m, nil
}

// Score returns the positive-class probability for input, a flat
// feature-name -> value mapping. Missing or non-numeric values contribute
// zero; the feature-vector contract upstream is what keeps that from
// happening in practice.
func (m *Model) Score(input map[string]any) float64 {
	z := m.Intercept
	for _, f := range m.Features {
		v, ok := input[f.Name]
		if !ok {
			continue
		}
		switch f.Type {
		case FeatureNumeric:
			z += f.Weight * asFloat(v)
		case FeatureCategorical:
			level := strings.TrimSpace(fmt.Sprintf("%v", v))
			z += f.Levels[level]
		}
	}
	return sigmoid(z)
}

// Predict returns the binary class label for input.
func (m *Model) Predict(input map[string]any) int {
	if m.Score(input) >= m.Threshold {
		return 1
	}
	return 0
}

// PredictProba returns the class probability distribution [p(0), p(1)] and
// whether the model is calibrated enough for the distribution to be trusted.
func (m *Model) PredictProba(input map[string]any) ([]float64, bool) {
	p := m.Score(input)
	return []float64{1 - p, p}, m.Calibrated
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	case bool:
		if n {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
