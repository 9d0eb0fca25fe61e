package services

import (
	"strings"

	"github.com/k-lohani/ruthieAI/internal/domain"
)

// Clinical baseline values used when the chart data behind a feature is not
// yet wired into the patient record. The model was trained with these as the
// population defaults, so they must not drift independently of the artifact.
const (
	defaultRace               = "White"
	defaultLivingSituation    = "alone"
	defaultSocialSupportScore = 2
	defaultPCVisits1Y         = 2
	defaultDaysSinceDischarge = 365
	defaultSystolicBP         = 120.0
	defaultDiastolicBP        = 80.0
	defaultHeartRate          = 72.0
	defaultRespRate           = 16.0
	defaultTemperature        = 37.0
	defaultSpO2               = 98.0
	defaultWeight             = 70.0
	defaultHeight             = 1.70
	defaultBMI                = 24.0
	defaultHemoglobin         = 14.0
	defaultWBC                = 7.0
	defaultBUN                = 15.0
	defaultCreatinine         = 1.0
	defaultSodium             = 140.0
	defaultPotassium          = 4.0
	defaultHbA1c              = 6.0
	defaultNTproBNP           = 50.0
	defaultCancerStatus       = "None"
	defaultADLScore           = 6
	defaultIADLScore          = 8
	defaultGaitAssessment     = 30.0
	defaultCognitiveScore     = 15
	defaultInsurance          = "Private"
)

// BuildFeatureVector assembles the risk model input from the patient snapshot
// and the visit analysis. Fields with no live data source carry clinical
// baselines so the vector is always complete.
func BuildFeatureVector(pc *domain.PatientContext, a domain.AnalysisRecord) domain.FeatureVector {
	a = a.Normalize()

	var conditions, medications []string
	age := 65
	gender := ""
	if pc != nil {
		conditions = pc.Conditions
		medications = pc.Medications
		if pc.PatientAge > 0 {
			age = pc.PatientAge
		}
		gender = pc.PatientGender
	}

	return domain.FeatureVector{
		MedicationsTaken:  boolFlag(a.MedicationsTaken),
		PainReport:        a.PainReport,
		Mood:              a.Mood,
		MemoryIssuesNoted: boolFlag(a.MemoryIssuesNoted),
		FoodIntake:        a.FoodIntake,
		SleepQuality:      a.SleepQuality,
		AbleToLeaveHouse:  boolFlag(a.AbleToLeaveHouse),
		NeedsFollowUp:     boolFlag(a.Markers.NeedsFollowUp),
		AppointmentMissed: boolFlag(a.Markers.AppointmentMissed),
		SmallTalkTopic:    a.SmallTalkTopic,

		EnthusiasmLevel:  a.ConversationContext.EnthusiasmLevel,
		TopicInterest:    a.ConversationContext.TopicInterest,
		ConversationFlow: a.ConversationContext.ConversationFlow,
		NKeyInsights:     len(a.KeyInsights),
		NRecommendations: len(a.Recommendations),
		NRiskFactors:     len(a.RiskFactors),
		NFollowUpTopics:  len(a.ConversationContext.FollowUpTopics),

		Age:                age,
		Sex:                sexFromGender(gender),
		Race:               defaultRace,
		LivingSituation:    defaultLivingSituation,
		SocialSupportScore: defaultSocialSupportScore,

		Admissions6M:           0,
		EDVisits6M:             0,
		PCVisits1Y:             defaultPCVisits1Y,
		DaysSinceLastDischarge: defaultDaysSinceDischarge,
		PriorFall:              0,

		SystolicBP:  defaultSystolicBP,
		DiastolicBP: defaultDiastolicBP,
		HeartRate:   defaultHeartRate,
		RespRate:    defaultRespRate,
		Temperature: defaultTemperature,
		SpO2:        defaultSpO2,
		Weight:      defaultWeight,
		Height:      defaultHeight,
		BMI:         defaultBMI,

		Hemoglobin: defaultHemoglobin,
		WBC:        defaultWBC,
		BUN:        defaultBUN,
		Creatinine: defaultCreatinine,
		Sodium:     defaultSodium,
		Potassium:  defaultPotassium,
		HbA1c:      defaultHbA1c,
		NTproBNP:   defaultNTproBNP,

		CHF:          conditionFlag(conditions, "heart", "chf"),
		COPD:         conditionFlag(conditions, "copd", "lung"),
		CKDStage:     0,
		Diabetes:     conditionFlag(conditions, "diabetes"),
		Dementia:     conditionFlag(conditions, "dementia", "alzheimer"),
		Arthritis:    conditionFlag(conditions, "arthritis"),
		CancerStatus: defaultCancerStatus,

		TotalMedications:  len(medications),
		HighRiskMedCount:  0,
		HomeOxygen:        0,
		RecentMedChange:   0,
		ADLScore:          defaultADLScore,
		IADLScore:         defaultIADLScore,
		GaitAssessment:    defaultGaitAssessment,
		CognitiveScore:    defaultCognitiveScore,
		AdvanceDirectives: 0,
		CaseManagement:    0,
		Insurance:         defaultInsurance,
	}
}

func boolFlag(b bool) int {
	if b {
		return 1
	}
	return 0
}

func sexFromGender(gender string) string {
	switch strings.ToLower(strings.TrimSpace(gender)) {
	case "male", "m":
		return "Male"
	default:
		return "Female"
	}
}

// conditionFlag reports whether any condition name contains one of the given
// substrings, case-insensitively.
func conditionFlag(conditions []string, subs ...string) int {
	for _, cond := range conditions {
		lc := strings.ToLower(cond)
		for _, sub := range subs {
			if strings.Contains(lc, sub) {
				return 1
			}
		}
	}
	return 0
}
