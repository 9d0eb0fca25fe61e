package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/k-lohani/ruthieAI/internal/clients/openai"
	"github.com/k-lohani/ruthieAI/internal/domain"
	"github.com/k-lohani/ruthieAI/internal/platform/logger"
)

const (
	analysisTemperature = 0.1
	analysisMaxTokens   = 1000
)

const analysisSystemPrompt = "You are a healthcare assistant analyzing call transcripts for elderly care. " +
	"Extract structured health insights and return them in valid JSON format."

// TranscriptAnalyzer turns a raw call transcript into a structured
// AnalysisRecord. The language model does the extraction; when it is
// unavailable or returns something unparseable the analyzer falls back to
// deterministic keyword rules so a completed call always yields a record.
type TranscriptAnalyzer struct {
	log *logger.Logger
	ai  openai.Client
}

func NewTranscriptAnalyzer(log *logger.Logger, ai openai.Client) *TranscriptAnalyzer {
	return &TranscriptAnalyzer{
		log: log.With("service", "transcript_analyzer"),
		ai:  ai,
	}
}

// Analyze extracts health signals from the transcript. The patient context is
// optional; when present it is included in the prompt so the extraction can
// resolve references ("your Metformin") correctly.
func (s *TranscriptAnalyzer) Analyze(ctx context.Context, transcript string, pc *domain.PatientContext) domain.AnalysisRecord {
	if strings.TrimSpace(transcript) == "" {
		s.log.Warn("empty transcript, using fallback analysis")
		return FallbackAnalysis(transcript)
	}
	if s.ai == nil {
		s.log.Warn("no completion client configured, using fallback analysis")
		return FallbackAnalysis(transcript)
	}

	raw, err := s.ai.Complete(ctx, openai.CompletionRequest{
		System:      analysisSystemPrompt,
		User:        buildAnalysisPrompt(transcript, pc),
		Temperature: analysisTemperature,
		MaxTokens:   analysisMaxTokens,
	})
	if err != nil {
		s.log.Warn("completion request failed, using fallback analysis", "error", err)
		return FallbackAnalysis(transcript)
	}

	var rec domain.AnalysisRecord
	if err := json.Unmarshal([]byte(extractJSONRegion(raw)), &rec); err != nil {
		s.log.Warn("completion response was not valid JSON, using fallback analysis",
			"error", err, "response", raw)
		return FallbackAnalysis(transcript)
	}

	return rec.Normalize()
}

func buildAnalysisPrompt(transcript string, pc *domain.PatientContext) string {
	var b strings.Builder

	b.WriteString("Analyze the following call transcript between a care companion (AI) and an elderly patient. ")
	b.WriteString("Extract key health insights and return them in the exact JSON format specified below.\n\n")

	if pc != nil {
		fmt.Fprintf(&b, `Patient Context:
- Name: %s
- Age: %d
- Conditions: %s
- Medications: %s
- Interests: %s
- Last Visit Mood: %s
- Last Small Talk Topic: %s

`,
			orDefault(pc.PatientName, "Unknown"),
			pc.PatientAge,
			joinOrDefault(pc.Conditions, "Unknown"),
			joinListOrDefault(pc.Medications, "Unknown"),
			joinOrDefault(pc.Interests, "Unknown"),
			orDefault(pc.LastVisitMood, "Unknown"),
			orDefault(pc.LastSmallTalkTopic, "Unknown"),
		)
	}

	b.WriteString("Call Transcript:\n")
	b.WriteString(transcript)
	b.WriteString("\n\n")

	b.WriteString(`Please analyze this transcript and extract the following information in JSON format:

{
    "medicationsTaken": boolean,  // Did the patient take their medications?
    "painReport": integer,        // Pain level 0-10 (0 = no pain, 10 = severe pain)
    "mood": string,              // Patient's mood: "cheerful", "tired", "worried", "neutral", "sad", "anxious"
    "memoryIssuesNoted": boolean, // Any signs of confusion, forgetfulness, or memory issues
    "foodIntake": string,        // Food intake status: "normal", "low", "none", "unknown"
    "sleepQuality": string,      // Sleep quality: "normal", "poor", "good", "unknown"
    "ableToLeaveHouse": boolean, // Can they leave the house independently?
    "smallTalkTopic": string,    // SPECIFIC topic discussed (e.g., "Baking", "Gardening", "Movies", "Reading", "Family", "Weather", "Medical", "General")
    "markers": {
        "needsFollowUp": boolean,     // Does this patient need follow-up care?
        "appointmentMissed": boolean  // Did they mention missing an appointment?
    },
    "keyInsights": [              // Array of important insights from the call
        "string insight 1",
        "string insight 2"
    ],
    "riskFactors": [              // Any risk factors identified
        "string risk factor 1",
        "string risk factor 2"
    ],
    "recommendations": [          // Care recommendations
        "string recommendation 1",
        "string recommendation 2"
    ],
    "conversationContext": {      // Context for future conversations
        "enthusiasmLevel": string,  // "high", "medium", "low" based on patient engagement
        "topicInterest": string,    // How interested they seemed in the small talk topic
        "conversationFlow": string, // "smooth", "hesitant", "engaged", "disinterested"
        "followUpTopics": [         // Topics to explore in future calls
            "string topic 1",
            "string topic 2"
        ]
    }
}

Guidelines for analysis:
1. Be conservative in your assessments - if unsure, default to "normal" or "false"
2. For pain levels, look for explicit mentions of pain, discomfort, or stiffness
3. For mood, consider tone, word choice, and emotional expressions
4. For memory issues, look for confusion, forgetfulness, or difficulty following conversation
5. For medication adherence, look for explicit confirmations or denials
6. For smallTalkTopic, be SPECIFIC - use exact topics like "Baking", "Gardening", "Movies", "Reading", "Family", "Weather", "Medical", "General"
7. Focus on actionable insights that would help caregivers
8. Assess enthusiasm level and topic interest for future conversation planning
9. Identify follow-up topics that the patient showed interest in

Return only the JSON object, no additional text.`)

	return b.String()
}

// extractJSONRegion pulls the JSON object out of a completion response that
// may wrap it in markdown code fences or surround it with prose.
func extractJSONRegion(s string) string {
	s = strings.TrimSpace(s)

	if i := strings.Index(s, "```json"); i >= 0 {
		rest := s[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
		return strings.TrimSpace(rest)
	}
	if i := strings.Index(s, "```"); i >= 0 {
		rest := s[i+3:]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
		return strings.TrimSpace(rest)
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

// FallbackAnalysis applies deterministic keyword rules when model-based
// extraction is unavailable. It is intentionally conservative.
func FallbackAnalysis(transcript string) domain.AnalysisRecord {
	text := strings.ToLower(transcript)

	medicationsTaken := strings.Contains(text, "yes") ||
		strings.Contains(text, "took") ||
		strings.Contains(text, "taken")

	painLevel := 0
	if containsAny(text, "pain", "hurt", "ache", "stiff") {
		painLevel = 3
	}

	mood := domain.DefaultMood
	if containsAny(text, "good", "fine", "happy", "wonderful") {
		mood = "cheerful"
	}

	memoryIssues := containsAny(text, "confused", "forget", "memory", "remember")

	rec := domain.AnalysisRecord{
		MedicationsTaken:  medicationsTaken,
		PainReport:        painLevel,
		Mood:              mood,
		MemoryIssuesNoted: memoryIssues,
		FoodIntake:        "normal",
		SleepQuality:      "normal",
		AbleToLeaveHouse:  true,
		SmallTalkTopic:    fallbackSmallTalkTopic(text),
		Markers: domain.Markers{
			NeedsFollowUp:     memoryIssues || painLevel > 5,
			AppointmentMissed: false,
		},
		KeyInsights:     []string{"Fallback analysis used due to extraction error"},
		RiskFactors:     []string{},
		Recommendations: []string{"Verify analysis with manual review"},
		ConversationContext: domain.ConversationContext{
			EnthusiasmLevel:  domain.DefaultEnthusiasmLevel,
			TopicInterest:    domain.DefaultTopicInterest,
			ConversationFlow: domain.DefaultConversationFlow,
			FollowUpTopics:   []string{"general health", "daily activities"},
		},
	}
	return rec.Normalize()
}

func fallbackSmallTalkTopic(text string) string {
	switch {
	case containsAny(text, "bake", "cookie", "pie"):
		return "Baking"
	case containsAny(text, "garden", "plant", "flower"):
		return "Gardening"
	case containsAny(text, "movie", "film"):
		return "Movies"
	case containsAny(text, "read", "book"):
		return "Reading"
	case containsAny(text, "family", "children", "grandchildren"):
		return "Family"
	case strings.Contains(text, "weather"):
		return "Weather"
	case containsAny(text, "doctor", "medical", "appointment"):
		return "Medical"
	default:
		return domain.DefaultSmallTalkTopic
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
