package services

import (
	"github.com/k-lohani/ruthieAI/internal/domain"
	"github.com/k-lohani/ruthieAI/internal/pkg/clockx"
	"github.com/k-lohani/ruthieAI/internal/platform/logger"
	"github.com/k-lohani/ruthieAI/internal/riskmodel"
)

// Confidence assigned when the model cannot report calibrated probabilities.
const (
	fallbackConfidenceHighRisk = 0.8
	fallbackConfidenceLowRisk  = 0.2
)

// RiskScorer wraps the hospitalization risk model. A scorer with no loaded
// model is valid: it reports UNKNOWN risk with nil prediction and confidence,
// and the pipeline carries on without a prediction.
type RiskScorer struct {
	log   *logger.Logger
	model *riskmodel.Model
	clock clockx.Clock
}

func NewRiskScorer(log *logger.Logger, model *riskmodel.Model, clock clockx.Clock) *RiskScorer {
	if clock == nil {
		clock = clockx.Real()
	}
	return &RiskScorer{
		log:   log.With("service", "risk_scorer"),
		model: model,
		clock: clock,
	}
}

// Available reports whether a model artifact is loaded.
func (s *RiskScorer) Available() bool { return s.model != nil }

// PredictRisk scores the feature vector. The returned result always embeds
// the input vector for auditability, even when no model is loaded.
func (s *RiskScorer) PredictRisk(features domain.FeatureVector) domain.PredictionResult {
	result := domain.PredictionResult{
		RiskLevel:           domain.RiskUnknown,
		PredictionTimestamp: s.clock.Now().UTC(),
		ModelInput:          features,
	}

	if s.model == nil {
		s.log.Warn("risk model not available, skipping prediction")
		return result
	}

	input := features.AsMap()
	prediction := s.model.Predict(input)

	confidence := fallbackConfidenceLowRisk
	if prediction == 1 {
		confidence = fallbackConfidenceHighRisk
	}
	if proba, calibrated := s.model.PredictProba(input); calibrated {
		confidence = proba[0]
		for _, p := range proba[1:] {
			if p > confidence {
				confidence = p
			}
		}
	}

	result.Prediction = &prediction
	result.Confidence = &confidence
	if prediction == 1 {
		result.RiskLevel = domain.RiskHigh
	} else {
		result.RiskLevel = domain.RiskLow
	}

	s.log.Info("hospitalization risk predicted",
		"risk_level", result.RiskLevel,
		"confidence", confidence,
		"pain_report", features.PainReport,
		"mood", features.Mood,
		"needs_follow_up", features.NeedsFollowUp,
	)
	return result
}
