package domain

import "time"

// RiskLevel is the human-facing label of the binary hospitalization risk
// prediction. UNKNOWN means the scorer was unavailable, not that scoring
// failed for this particular input.
type RiskLevel string

const (
	RiskHigh    RiskLevel = "HIGH"
	RiskLow     RiskLevel = "LOW"
	RiskUnknown RiskLevel = "UNKNOWN"
)

// PredictionResult carries one risk prediction together with the feature
// vector it was computed from, for auditability. Prediction and Confidence
// are nil exactly when the model artifact is not loaded.
type PredictionResult struct {
	RiskLevel           RiskLevel     `json:"riskLevel"`
	Prediction          *int          `json:"prediction"`
	Confidence          *float64      `json:"confidence"`
	PredictionTimestamp time.Time     `json:"predictionTimestamp"`
	ModelInput          FeatureVector `json:"modelInput"`
}
