package riskmodel

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeArtifact(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func TestLoadValidArtifact(t *testing.T) {
	path := writeArtifact(t, `{
		"version": 2,
		"calibrated": true,
		"intercept": -1.5,
		"threshold": 0.4,
		"features": [
			{"name": "painReport", "type": "numeric", "weight": 0.3},
			{"name": "mood", "type": "categorical", "levels": {"tired": 0.5}}
		]
	}`)

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Version != 2 || !m.Calibrated {
		t.Errorf("model = %+v", m)
	}
	if m.Threshold != 0.4 {
		t.Errorf("Threshold = %v, want 0.4", m.Threshold)
	}
	if len(m.Features) != 2 {
		t.Errorf("Features = %d", len(m.Features))
	}
}

func TestLoadDefaultsThreshold(t *testing.T) {
	path := writeArtifact(t, `{
		"intercept": 0,
		"features": [{"name": "x", "type": "numeric", "weight": 1}]
	}`)
	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Threshold != 0.5 {
		t.Errorf("Threshold = %v, want default 0.5", m.Threshold)
	}
}

func TestLoadRejectsBadArtifacts(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"empty features", `{"intercept": 0, "features": []}`},
		{"unknown feature type", `{"features": [{"name": "x", "type": "ordinal"}]}`},
		{"not json", `weights: nope`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeArtifact(t, tc.body)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestScoreAndPredict(t *testing.T) {
	m := &Model{
		Intercept: -1.0,
		Threshold: 0.5,
		Features: []Feature{
			{Name: "painReport", Type: FeatureNumeric, Weight: 0.5},
			{Name: "needsFollowUp", Type: FeatureNumeric, Weight: 1.0},
			{Name: "mood", Type: FeatureCategorical, Levels: map[string]float64{"tired": 1.0, "cheerful": -1.0}},
		},
	}

	// z = -1 + 0.5*4 + 1*1 + 1.0 = 3
	input := map[string]any{"painReport": 4, "needsFollowUp": 1, "mood": "tired"}
	want := 1 / (1 + math.Exp(-3.0))
	if got := m.Score(input); math.Abs(got-want) > 1e-9 {
		t.Errorf("Score = %v, want %v", got, want)
	}
	if m.Predict(input) != 1 {
		t.Error("Predict = 0, want 1")
	}

	// Unknown mood level and missing features contribute zero: z = -1.
	calm := map[string]any{"mood": "content"}
	if m.Predict(calm) != 0 {
		t.Error("Predict = 1, want 0")
	}

	proba, calibrated := m.PredictProba(input)
	if calibrated {
		t.Error("calibrated = true, want false")
	}
	if math.Abs(proba[0]+proba[1]-1) > 1e-9 {
		t.Errorf("proba = %v does not sum to 1", proba)
	}
}

func TestScoreValueCoercion(t *testing.T) {
	m := &Model{
		Threshold: 0.5,
		Features:  []Feature{{Name: "x", Type: FeatureNumeric, Weight: 1.0}},
	}
	half := m.Score(map[string]any{})
	cases := []struct {
		name string
		v    any
	}{
		{"float64", float64(2)},
		{"int", int(2)},
		{"int64", int64(2)},
		{"float32", float32(2)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			want := 1 / (1 + math.Exp(-2.0))
			if got := m.Score(map[string]any{"x": tc.v}); math.Abs(got-want) > 1e-6 {
				t.Errorf("Score = %v, want %v", got, want)
			}
		})
	}
	if got := m.Score(map[string]any{"x": true}); math.Abs(got-1/(1+math.Exp(-1.0))) > 1e-9 {
		t.Errorf("bool true should coerce to 1, Score = %v", got)
	}
	if got := m.Score(map[string]any{"x": "oops"}); got != half {
		t.Errorf("non-numeric value should contribute zero, Score = %v", got)
	}
}
