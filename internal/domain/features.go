package domain

import "encoding/json"

// FeatureVector is the exact input schema of the hospitalization risk model.
// Field names and types must stay in lockstep with the model artifact's
// feature list; drift between the two is a contract violation, not a runtime
// surprise. Flag fields are 0/1 integers.
type FeatureVector struct {
	// Visit-based metrics
	MedicationsTaken  int    `json:"medicationsTaken"`
	PainReport        int    `json:"painReport"`
	Mood              string `json:"mood"`
	MemoryIssuesNoted int    `json:"memoryIssuesNoted"`
	FoodIntake        string `json:"foodIntake"`
	SleepQuality      string `json:"sleepQuality"`
	AbleToLeaveHouse  int    `json:"ableToLeaveHouse"`
	NeedsFollowUp     int    `json:"needsFollowUp"`
	AppointmentMissed int    `json:"appointmentMissed"`
	SmallTalkTopic    string `json:"smallTalkTopic"`

	// Conversation context
	EnthusiasmLevel  string `json:"enthusiasmLevel"`
	TopicInterest    string `json:"topicInterest"`
	ConversationFlow string `json:"conversationFlow"`
	NKeyInsights     int    `json:"nKeyInsights"`
	NRecommendations int    `json:"nRecommendations"`
	NRiskFactors     int    `json:"nRiskFactors"`
	NFollowUpTopics  int    `json:"nFollowUpTopics"`

	// Demographics
	Age                int    `json:"age"`
	Sex                string `json:"sex"`
	Race               string `json:"race"`
	LivingSituation    string `json:"livingSituation"`
	SocialSupportScore int    `json:"socialSupportScore"`

	// Utilization history
	Admissions6M           int `json:"admissions6m"`
	EDVisits6M             int `json:"edVisits6m"`
	PCVisits1Y             int `json:"pcVisits1y"`
	DaysSinceLastDischarge int `json:"daysSinceLastDischarge"`
	PriorFall              int `json:"priorFall"`

	// Vitals
	SystolicBP  float64 `json:"systolicBP"`
	DiastolicBP float64 `json:"diastolicBP"`
	HeartRate   float64 `json:"heartRate"`
	RespRate    float64 `json:"respRate"`
	Temperature float64 `json:"temperature"`
	SpO2        float64 `json:"spo2"`
	Weight      float64 `json:"weight"`
	Height      float64 `json:"height"`
	BMI         float64 `json:"BMI"`

	// Labs
	Hemoglobin float64 `json:"hemoglobin"`
	WBC        float64 `json:"wbc"`
	BUN        float64 `json:"bun"`
	Creatinine float64 `json:"creatinine"`
	Sodium     float64 `json:"sodium"`
	Potassium  float64 `json:"potassium"`
	HbA1c      float64 `json:"hba1c"`
	NTproBNP   float64 `json:"ntprobnp"`

	// Condition flags derived from the patient's condition list
	CHF          int    `json:"chf"`
	COPD         int    `json:"copd"`
	CKDStage     int    `json:"ckdStage"`
	Diabetes     int    `json:"diabetes"`
	Dementia     int    `json:"dementia"`
	Arthritis    int    `json:"arthritis"`
	CancerStatus string `json:"cancerStatus"`

	// Medication and functional status
	TotalMedications  int     `json:"totalMedications"`
	HighRiskMedCount  int     `json:"highRiskMedCount"`
	HomeOxygen        int     `json:"homeOxygen"`
	RecentMedChange   int     `json:"recentMedChange"`
	ADLScore          int     `json:"adlScore"`
	IADLScore         int     `json:"iadlScore"`
	GaitAssessment    float64 `json:"gaitAssessment"`
	CognitiveScore    int     `json:"cognitiveScore"`
	AdvanceDirectives int     `json:"advanceDirectives"`
	CaseManagement    int     `json:"caseManagement"`
	Insurance         string  `json:"insurance"`
}

// AsMap flattens the vector into the name->value mapping the model artifact
// scores against.
func (f FeatureVector) AsMap() map[string]any {
	raw, err := json.Marshal(f)
	if err != nil {
		return map[string]any{}
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{}
	}
	return out
}
