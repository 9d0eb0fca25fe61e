package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/k-lohani/ruthieAI/internal/domain"
	"github.com/k-lohani/ruthieAI/internal/pkg/clockx"
	"github.com/k-lohani/ruthieAI/internal/platform/logger"
	"github.com/k-lohani/ruthieAI/internal/riskmodel"
)

func writeModel(t *testing.T, body string) *riskmodel.Model {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	m, err := riskmodel.Load(path)
	if err != nil {
		t.Fatalf("load model: %v", err)
	}
	return m
}

const highPainModel = `{
	"version": 1,
	"calibrated": false,
	"intercept": -3.0,
	"threshold": 0.5,
	"features": [
		{"name": "painReport", "type": "numeric", "weight": 1.0},
		{"name": "needsFollowUp", "type": "numeric", "weight": 2.0},
		{"name": "mood", "type": "categorical", "levels": {"tired": 1.0, "cheerful": -1.0}}
	]
}`

func TestPredictRiskWithoutModel(t *testing.T) {
	clock := clockx.NewFake(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	scorer := NewRiskScorer(logger.NewNop(), nil, clock)

	if scorer.Available() {
		t.Error("Available() = true with no model")
	}

	fv := BuildFeatureVector(nil, domain.AnalysisRecord{})
	result := scorer.PredictRisk(fv)

	if result.RiskLevel != domain.RiskUnknown {
		t.Errorf("RiskLevel = %q, want UNKNOWN", result.RiskLevel)
	}
	if result.Prediction != nil || result.Confidence != nil {
		t.Errorf("Prediction = %v, Confidence = %v, want nil", result.Prediction, result.Confidence)
	}
	if !result.PredictionTimestamp.Equal(clock.Now().UTC()) {
		t.Errorf("PredictionTimestamp = %v", result.PredictionTimestamp)
	}
	if result.ModelInput.Age != 65 {
		t.Error("ModelInput should carry the scored feature vector")
	}
}

func TestPredictRiskHighAndLow(t *testing.T) {
	scorer := NewRiskScorer(logger.NewNop(), writeModel(t, highPainModel), clockx.NewFake(time.Now()))

	highFV := BuildFeatureVector(nil, domain.AnalysisRecord{
		PainReport: 8,
		Mood:       "tired",
		Markers:    domain.Markers{NeedsFollowUp: true},
	})
	high := scorer.PredictRisk(highFV)
	if high.RiskLevel != domain.RiskHigh {
		t.Errorf("RiskLevel = %q, want HIGH", high.RiskLevel)
	}
	if high.Prediction == nil || *high.Prediction != 1 {
		t.Errorf("Prediction = %v, want 1", high.Prediction)
	}
	// Uncalibrated model: confidence comes from the fixed class defaults.
	if high.Confidence == nil || *high.Confidence != fallbackConfidenceHighRisk {
		t.Errorf("Confidence = %v, want %v", high.Confidence, fallbackConfidenceHighRisk)
	}

	lowFV := BuildFeatureVector(nil, domain.AnalysisRecord{Mood: "cheerful"})
	low := scorer.PredictRisk(lowFV)
	if low.RiskLevel != domain.RiskLow {
		t.Errorf("RiskLevel = %q, want LOW", low.RiskLevel)
	}
	if low.Prediction == nil || *low.Prediction != 0 {
		t.Errorf("Prediction = %v, want 0", low.Prediction)
	}
	if low.Confidence == nil || *low.Confidence != fallbackConfidenceLowRisk {
		t.Errorf("Confidence = %v, want %v", low.Confidence, fallbackConfidenceLowRisk)
	}
}

func TestPredictRiskCalibratedConfidence(t *testing.T) {
	calibrated := `{
		"version": 1,
		"calibrated": true,
		"intercept": -3.0,
		"threshold": 0.5,
		"features": [
			{"name": "painReport", "type": "numeric", "weight": 1.0}
		]
	}`
	scorer := NewRiskScorer(logger.NewNop(), writeModel(t, calibrated), clockx.NewFake(time.Now()))

	fv := BuildFeatureVector(nil, domain.AnalysisRecord{PainReport: 10})
	result := scorer.PredictRisk(fv)

	if result.Prediction == nil || *result.Prediction != 1 {
		t.Fatalf("Prediction = %v, want 1", result.Prediction)
	}
	// sigmoid(7) ~ 0.999: the calibrated probability, not the 0.8 default.
	if result.Confidence == nil || *result.Confidence < 0.99 {
		t.Errorf("Confidence = %v, want calibrated probability", result.Confidence)
	}
}
