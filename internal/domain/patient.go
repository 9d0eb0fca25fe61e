package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Patient is the stored patient profile. Nested blocks live in jsonb columns,
// mirroring the document shape the care dashboard writes.
type Patient struct {
	ID            uuid.UUID                          `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PreferredName string                             `gorm:"column:preferred_name;not null" json:"preferred_name"`
	Age           int                                `gorm:"column:age;not null" json:"age"`
	Gender        string                             `gorm:"column:gender" json:"gender,omitempty"`
	PhoneNumber   string                             `gorm:"column:phone_number" json:"phone_number,omitempty"`
	Caregiver     datatypes.JSONType[Caregiver]      `gorm:"column:caregiver;type:jsonb" json:"caregiver"`
	Conditions    datatypes.JSONType[[]Condition]    `gorm:"column:conditions;type:jsonb" json:"conditions"`
	Interests     datatypes.JSONType[[]string]       `gorm:"column:interests;type:jsonb" json:"interests"`
	Preferences   datatypes.JSONType[CarePreference] `gorm:"column:preferences;type:jsonb" json:"preferences"`
	CreatedAt     time.Time                          `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time                          `gorm:"not null;default:now()" json:"updated_at"`
}

func (Patient) TableName() string { return "patient" }

type Caregiver struct {
	Name string `json:"name"`
}

type Condition struct {
	Name        string       `json:"name"`
	Medications []Medication `json:"medications,omitempty"`
}

type Medication struct {
	Name          string   `json:"name"`
	ReminderTimes []string `json:"reminderTimes,omitempty"`
}

type CarePreference struct {
	Tone string `json:"tone,omitempty"`
}

// PatientContext is the read-only snapshot used to personalize one call and
// to build the feature vector afterwards. It is assembled once per pipeline
// run and never mutated.
type PatientContext struct {
	PatientID     uuid.UUID `json:"patient_id"`
	PatientName   string    `json:"patient_name"`
	PatientAge    int       `json:"patient_age"`
	PatientGender string    `json:"patient_gender"`
	CaregiverName string    `json:"caregiver_name"`

	Conditions       []string `json:"condition_list"`
	Medications      []string `json:"medication_list"` // "Metformin at 08:00"
	Interests        []string `json:"hobby_list"`
	InteractionStyle string   `json:"interaction_style"`

	NextMedicationName string `json:"next_medication_name,omitempty"`
	NextMedicationTime string `json:"next_medication_time,omitempty"`
	PainArea           string `json:"pain_area,omitempty"`

	// Derived from the most recent prior visit; zero values when none exists.
	LastVisitSummary    string   `json:"last_visit_summary,omitempty"`
	LastVisitMood       string   `json:"last_visit_mood,omitempty"`
	LastVisitEnthusiasm string   `json:"last_visit_enthusiasm,omitempty"`
	LastSmallTalkTopic  string   `json:"last_small_talk_topic,omitempty"`
	LastVisitInsights   []string `json:"last_visit_insights,omitempty"`
	LastVisitKeyPoint   string   `json:"last_visit_key_point,omitempty"`
}
