package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Visit is the persisted outcome of one completed pipeline run. Created once
// at the end of a successful run and never mutated.
type Visit struct {
	ID         uuid.UUID                             `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PatientID  uuid.UUID                             `gorm:"type:uuid;not null;index" json:"patient_id"`
	CallID     string                                `gorm:"column:call_id;index" json:"call_id,omitempty"`
	Caregiver  string                                `gorm:"column:caregiver" json:"caregiver"`
	Timestamp  time.Time                             `gorm:"column:timestamp;not null;index" json:"timestamp"`
	Transcript string                                `gorm:"column:transcript;type:text" json:"transcript"`
	Summary    datatypes.JSONType[VisitSummary]      `gorm:"column:summary;type:jsonb" json:"summary"`
	Analysis   datatypes.JSONType[VisitAnalysis]     `gorm:"column:analysis;type:jsonb" json:"analysis"`
	Prediction datatypes.JSONType[PredictionResult]  `gorm:"column:hospitalization_prediction;type:jsonb" json:"hospitalizationPrediction"`
	CreatedAt  time.Time                             `gorm:"not null;default:now()" json:"created_at"`
}

func (Visit) TableName() string { return "visit" }

// VisitSummary is the structured per-visit health snapshot shown on the
// caregiver dashboard and fed back into the next call's context.
type VisitSummary struct {
	MedicationsTaken  bool    `json:"medicationsTaken"`
	PainReport        int     `json:"painReport"`
	Mood              string  `json:"mood"`
	MemoryIssuesNoted bool    `json:"memoryIssuesNoted"`
	FoodIntake        string  `json:"foodIntake"`
	SleepQuality      string  `json:"sleepQuality"`
	AbleToLeaveHouse  bool    `json:"ableToLeaveHouse"`
	SmallTalkTopic    string  `json:"smallTalkTopic"`
	Markers           Markers `json:"markers"`
}

// VisitAnalysis keeps the free-text extraction output alongside the moment it
// was produced.
type VisitAnalysis struct {
	KeyInsights         []string            `json:"keyInsights"`
	Recommendations     []string            `json:"recommendations"`
	RiskFactors         []string            `json:"riskFactors"`
	ConversationContext ConversationContext `json:"conversationContext"`
	AnalysisTimestamp   time.Time           `json:"analysisTimestamp"`
}

// SummaryFromAnalysis projects an AnalysisRecord onto the persisted summary
// block.
func SummaryFromAnalysis(a AnalysisRecord) VisitSummary {
	return VisitSummary{
		MedicationsTaken:  a.MedicationsTaken,
		PainReport:        a.PainReport,
		Mood:              a.Mood,
		MemoryIssuesNoted: a.MemoryIssuesNoted,
		FoodIntake:        a.FoodIntake,
		SleepQuality:      a.SleepQuality,
		AbleToLeaveHouse:  a.AbleToLeaveHouse,
		SmallTalkTopic:    a.SmallTalkTopic,
		Markers:           a.Markers,
	}
}
