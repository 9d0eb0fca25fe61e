package domain

import (
	"time"

	"github.com/google/uuid"
)

// Pipeline step names, in execution order.
const (
	StepPatientContext = "patient_context"
	StepCallPlacement  = "call_placement"
	StepCallMonitoring = "call_monitoring"
	StepAnalysis       = "analysis"
	StepPrediction     = "prediction"
	StepPersistence    = "persistence"
)

// StepResult records the outcome of one pipeline step. Detail carries
// step-specific context (call id, message count, ...) for operators.
type StepResult struct {
	Success bool           `json:"success"`
	Error   string         `json:"error,omitempty"`
	Detail  map[string]any `json:"detail,omitempty"`
}

// PipelineResult is the always-returned summary of one pipeline run. The
// orchestrator never raises past its own boundary; a failed run is a result
// with Success=false and a root cause, plus whatever steps did complete.
type PipelineResult struct {
	Success     bool                  `json:"success"`
	PatientID   uuid.UUID             `json:"patient_id"`
	PhoneNumber string                `json:"phone_number"`
	CallID      string                `json:"call_id,omitempty"`
	StartTime   time.Time             `json:"start_time"`
	EndTime     time.Time             `json:"end_time"`
	Elapsed     time.Duration         `json:"elapsed"`
	Cause       string                `json:"cause,omitempty"`
	Steps       map[string]StepResult `json:"steps"`

	VisitID    *uuid.UUID        `json:"visit_id,omitempty"`
	Analysis   *AnalysisRecord   `json:"analysis,omitempty"`
	Prediction *PredictionResult `json:"prediction,omitempty"`
}
