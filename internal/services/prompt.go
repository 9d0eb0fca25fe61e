package services

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/k-lohani/ruthieAI/internal/domain"
)

// systemPromptTemplate is the conversation script for the voice agent. The
// placeholders are filled per patient per call; the agent treats the result
// as a guide, not a verbatim script.
const systemPromptTemplate = `
You are {{.CaregiverName}}, a warm and caring companion for {{.PatientName}}, who is {{.PatientAge}} years old.

PATIENT BACKGROUND:
- Medical conditions: {{.ConditionList}}
- Current medications: {{.MedicationListAndTimes}}
- Personal interests: {{.HobbyList}}
- Communication style: {{.InteractionStyle}}
- Previous visit notes: {{.LastVisitSummary}}

LAST VISIT CONTEXT:
- Last visit mood: {{.LastVisitMood}}
- Last visit enthusiasm level: {{.LastVisitEnthusiasm}}
- Last small talk topic: {{.LastSmallTalkTopic}}
- Key insights from last visit: {{.LastVisitInsights}}

VOICE AND CONVERSATION GUIDELINES:
- Speak naturally and conversationally, as if you're talking to a dear friend
- Use a warm, gentle tone with clear pronunciation
- Pause briefly after asking questions to allow responses
- Show genuine interest and empathy in your voice
- Keep sentences simple and easy to understand
- Adapt your pace to match the patient's comfort level
- Use insights from the last visit to make the conversation more personal and engaging
- Be genuinely curious and interested - ask questions like a caring friend would
- Avoid being overly enthusiastic or robotic - be natural and human
- Show real concern and interest in their well-being

CONVERSATION APPROACH (be natural and conversational):

Start with a warm greeting: "Good {{.TimeOfDay}}, {{.PatientName}}! It's {{.CaregiverName}} calling to check in on you."

Then, naturally weave in these topics throughout the conversation - don't follow them in order, just work them in naturally:

- Medication check: "Did you remember to take your {{.NextMedicationName}} at {{.NextMedicationTime}} today?" If they haven't, gently say "No worries at all - let's take care of that now."

- Physical comfort: "How are you feeling physically today? Any stiffness in your {{.PainArea}} or other aches we should know about?"

- Cognitive and emotional well-being: "Since we last talked, have you been feeling more forgetful or confused about anything? And overall, how's your mood been?"

- Daily living activities: "How have you been eating lately? Have you been able to enjoy your meals?" and "How have you been sleeping? Getting enough rest?"

- Mobility and independence: "Have you been able to get out of the house at all this week? Maybe for a short walk or to see family?"

- Previous conversation reference: "Last time we spoke, you mentioned {{.LastVisitKeyPoint}} - how has that been going for you?"

- Dynamic small talk: {{.SmallTalkInstruction}}
  If discussing {{.DynamicTopicChoice}}: "I was thinking about how much you enjoy {{.DynamicTopicChoice}}. Did you know that {{.FunFactAboutHobby}}? What have you been up to with that lately?"
  Pay attention to their enthusiasm level and adjust accordingly. If they seem less interested, smoothly transition to another topic.

- Show empathy and understanding: Use phrases like "I understand that must be frustrating" and "It's completely normal to feel a bit overwhelmed."

Wrap up warmly: "It's been wonderful chatting with you, {{.PatientName}}. I'll call you again {{.NextCallTimeOrDay}}. Take good care of yourself!"

CALL TERMINATION: After saying goodbye, wait for the patient's response, then say "Goodbye for now!" and immediately end the call. Do not continue the conversation after saying goodbye.

IMPORTANT: Be flexible and natural in conversation. Don't follow this script word-for-word - use it as a guide while maintaining authentic, caring dialogue. Listen carefully to responses and adjust accordingly. If the patient seems tired or wants to end the call early, respect that and close warmly. Use the context from the last visit to make the conversation more personal and engaging.
`

var promptTmpl = template.Must(template.New("system_prompt").Parse(systemPromptTemplate))

// Rotating small-talk topics the agent is comfortable going deep on.
var continuableTopics = map[string]bool{
	"baking":    true,
	"gardening": true,
	"movies":    true,
	"reading":   true,
}

var hobbyFunFacts = map[string]string{
	"baking":                  "baking can actually improve mood and reduce stress",
	"gardening":               "gardening has been shown to improve memory and reduce anxiety",
	"movies":                  "classic films often have therapeutic benefits for seniors",
	"watching classic movies": "classic films often have therapeutic benefits for seniors",
	"reading":                 "reading can help keep the mind sharp and reduce stress",
	"reading mystery novels":  "reading mystery novels can help keep the mind sharp",
}

const defaultHobby = "gardening"

type promptData struct {
	CaregiverName          string
	PatientName            string
	PatientAge             int
	ConditionList          string
	MedicationListAndTimes string
	HobbyList              string
	InteractionStyle       string
	LastVisitSummary       string
	LastVisitMood          string
	LastVisitEnthusiasm    string
	LastSmallTalkTopic     string
	LastVisitInsights      string
	TimeOfDay              string
	NextMedicationName     string
	NextMedicationTime     string
	PainArea               string
	LastVisitKeyPoint      string
	SmallTalkInstruction   string
	DynamicTopicChoice     string
	FunFactAboutHobby      string
	NextCallTimeOrDay      string
}

// BuildPrompt renders the personalized system prompt for one call.
func (s *PatientContextService) BuildPrompt(pc *domain.PatientContext) (string, error) {
	if pc == nil {
		return "", fmt.Errorf("patient context required")
	}

	topic, instruction := selectSmallTalkTopic(pc)

	data := promptData{
		CaregiverName:          orDefault(pc.CaregiverName, "Ruthie"),
		PatientName:            pc.PatientName,
		PatientAge:             pc.PatientAge,
		ConditionList:          joinOrDefault(pc.Conditions, "None reported"),
		MedicationListAndTimes: joinListOrDefault(pc.Medications, "No medications"),
		HobbyList:              joinOrDefault(pc.Interests, "chatting"),
		InteractionStyle:       orDefault(pc.InteractionStyle, "warm and friendly"),
		LastVisitSummary:       orDefault(pc.LastVisitSummary, "No previous visit."),
		LastVisitMood:          orDefault(pc.LastVisitMood, "Unknown"),
		LastVisitEnthusiasm:    orDefault(pc.LastVisitEnthusiasm, "Unknown"),
		LastSmallTalkTopic:     orDefault(pc.LastSmallTalkTopic, "No specific topic discussed"),
		LastVisitInsights:      joinListOrDefault(pc.LastVisitInsights, "No specific insights from last visit."),
		TimeOfDay:              timeOfDay(s.clock.Now()),
		NextMedicationName:     orDefault(pc.NextMedicationName, "medication"),
		NextMedicationTime:     orDefault(pc.NextMedicationTime, "your usual time"),
		PainArea:               orDefault(pc.PainArea, "body"),
		LastVisitKeyPoint:      orDefault(pc.LastVisitKeyPoint, "feeling good"),
		SmallTalkInstruction:   instruction,
		DynamicTopicChoice:     topic,
		FunFactAboutHobby:      funFactFor(topic),
		NextCallTimeOrDay:      "tomorrow morning",
	}

	var b strings.Builder
	if err := promptTmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render system prompt: %w", err)
	}
	return strings.TrimSpace(b.String()) + "\n", nil
}

// selectSmallTalkTopic picks the topic for this call. When the patient was
// enthusiastic about a continuable topic last time, stay on it; otherwise
// rotate to a different interest.
func selectSmallTalkTopic(pc *domain.PatientContext) (topic, instruction string) {
	lastTopic := strings.TrimSpace(pc.LastSmallTalkTopic)
	hobbies := pc.Interests

	firstHobby := defaultHobby
	if len(hobbies) > 0 {
		firstHobby = hobbies[0]
	}

	if lastTopic == "" || strings.EqualFold(lastTopic, "general") {
		return firstHobby, fmt.Sprintf("Let's discuss %s and see how they respond.", firstHobby)
	}

	if pc.LastVisitEnthusiasm == "high" && continuableTopics[strings.ToLower(lastTopic)] {
		topic = strings.ToLower(lastTopic)
		instruction = fmt.Sprintf(
			"Continue discussing %s. If they seem enthusiastic, ask more about it. If they seem less interested, smoothly transition to another topic like %s.",
			topic, firstHobby,
		)
		return topic, instruction
	}

	topic = firstHobby
	for _, h := range hobbies {
		if !strings.EqualFold(h, lastTopic) {
			topic = h
			break
		}
	}
	return topic, fmt.Sprintf("Last time we talked about %s, but let's try discussing %s instead.", lastTopic, topic)
}

func funFactFor(topic string) string {
	if fact, ok := hobbyFunFacts[strings.ToLower(strings.TrimSpace(topic))]; ok {
		return fact
	}
	return "it's a wonderful way to stay active and engaged"
}

func timeOfDay(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return "morning"
	case h >= 12 && h < 17:
		return "afternoon"
	default:
		return "evening"
	}
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func joinOrDefault(vals []string, def string) string {
	if len(vals) == 0 {
		return def
	}
	return strings.Join(vals, ", ")
}

func joinListOrDefault(vals []string, def string) string {
	if len(vals) == 0 {
		return def
	}
	return strings.Join(vals, "; ")
}
