package domain

// AnalysisRecord holds the structured health signals extracted from one call
// transcript. Every field has a defined default so downstream consumers never
// see "missing"; Normalize fills the sentinels.
type AnalysisRecord struct {
	MedicationsTaken  bool   `json:"medicationsTaken"`
	PainReport        int    `json:"painReport"` // 0-10
	Mood              string `json:"mood"`
	MemoryIssuesNoted bool   `json:"memoryIssuesNoted"`
	FoodIntake        string `json:"foodIntake"`
	SleepQuality      string `json:"sleepQuality"`
	AbleToLeaveHouse  bool   `json:"ableToLeaveHouse"`
	SmallTalkTopic    string `json:"smallTalkTopic"`

	Markers Markers `json:"markers"`

	KeyInsights     []string `json:"keyInsights"`
	RiskFactors     []string `json:"riskFactors"`
	Recommendations []string `json:"recommendations"`

	ConversationContext ConversationContext `json:"conversationContext"`
}

type Markers struct {
	NeedsFollowUp     bool `json:"needsFollowUp"`
	AppointmentMissed bool `json:"appointmentMissed"`
}

// ConversationContext captures engagement signals used to plan future calls.
type ConversationContext struct {
	EnthusiasmLevel  string   `json:"enthusiasmLevel"`  // high | medium | low
	TopicInterest    string   `json:"topicInterest"`    // high | neutral | low
	ConversationFlow string   `json:"conversationFlow"` // smooth | hesitant | engaged | disinterested
	FollowUpTopics   []string `json:"followUpTopics"`
}

// Sentinel defaults for analysis fields the extraction could not populate.
const (
	DefaultMood             = "neutral"
	DefaultFoodIntake       = "unknown"
	DefaultSleepQuality     = "unknown"
	DefaultSmallTalkTopic   = "General"
	DefaultEnthusiasmLevel  = "medium"
	DefaultTopicInterest    = "neutral"
	DefaultConversationFlow = "smooth"
)

// Normalize replaces empty fields with their sentinel defaults and clamps the
// pain score to the 0-10 scale. Slices come back non-nil.
func (a AnalysisRecord) Normalize() AnalysisRecord {
	if a.Mood == "" {
		a.Mood = DefaultMood
	}
	if a.FoodIntake == "" {
		a.FoodIntake = DefaultFoodIntake
	}
	if a.SleepQuality == "" {
		a.SleepQuality = DefaultSleepQuality
	}
	if a.SmallTalkTopic == "" {
		a.SmallTalkTopic = DefaultSmallTalkTopic
	}
	if a.PainReport < 0 {
		a.PainReport = 0
	}
	if a.PainReport > 10 {
		a.PainReport = 10
	}
	if a.ConversationContext.EnthusiasmLevel == "" {
		a.ConversationContext.EnthusiasmLevel = DefaultEnthusiasmLevel
	}
	if a.ConversationContext.TopicInterest == "" {
		a.ConversationContext.TopicInterest = DefaultTopicInterest
	}
	if a.ConversationContext.ConversationFlow == "" {
		a.ConversationContext.ConversationFlow = DefaultConversationFlow
	}
	if a.KeyInsights == nil {
		a.KeyInsights = []string{}
	}
	if a.RiskFactors == nil {
		a.RiskFactors = []string{}
	}
	if a.Recommendations == nil {
		a.Recommendations = []string{}
	}
	if a.ConversationContext.FollowUpTopics == nil {
		a.ConversationContext.FollowUpTopics = []string{}
	}
	return a
}
