package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/k-lohani/ruthieAI/internal/data/repos/patients"
	"github.com/k-lohani/ruthieAI/internal/data/repos/visits"
	"github.com/k-lohani/ruthieAI/internal/domain"
	"github.com/k-lohani/ruthieAI/internal/pkg/clockx"
	"github.com/k-lohani/ruthieAI/internal/platform/logger"
)

// PatientContextService assembles the read-only per-call snapshot of a
// patient and renders the personalized system prompt for the voice agent.
type PatientContextService struct {
	log      *logger.Logger
	patients patients.Repo
	visits   visits.Repo
	clock    clockx.Clock
}

func NewPatientContextService(log *logger.Logger, p patients.Repo, v visits.Repo, clock clockx.Clock) *PatientContextService {
	if clock == nil {
		clock = clockx.Real()
	}
	return &PatientContextService{
		log:      log.With("service", "PatientContextService"),
		patients: p,
		visits:   v,
		clock:    clock,
	}
}

// Get builds the PatientContext for one pipeline run, folding in mood, topic
// and insights from the most recent prior visit when one exists.
func (s *PatientContextService) Get(ctx context.Context, patientID uuid.UUID) (*domain.PatientContext, error) {
	p, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	conditions := p.Conditions.Data()
	conditionNames := make([]string, 0, len(conditions))
	var medications []string
	var nextMedName, nextMedTime string
	for _, cond := range conditions {
		conditionNames = append(conditionNames, cond.Name)
		for _, m := range cond.Medications {
			medications = append(medications, fmt.Sprintf("%s at %s", m.Name, strings.Join(m.ReminderTimes, ", ")))
			if nextMedName == "" {
				nextMedName = m.Name
				if len(m.ReminderTimes) > 0 {
					nextMedTime = m.ReminderTimes[0]
				}
			}
		}
	}

	pc := &domain.PatientContext{
		PatientID:          p.ID,
		PatientName:        p.PreferredName,
		PatientAge:         p.Age,
		PatientGender:      p.Gender,
		CaregiverName:      p.Caregiver.Data().Name,
		Conditions:         conditionNames,
		Medications:        medications,
		Interests:          p.Interests.Data(),
		InteractionStyle:   p.Preferences.Data().Tone,
		NextMedicationName: nextMedName,
		NextMedicationTime: nextMedTime,
		PainArea:           painAreaFromConditions(conditionNames),
	}

	last, err := s.visits.GetLatestByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if last != nil {
		summary := last.Summary.Data()
		analysis := last.Analysis.Data()
		pc.LastVisitMood = summary.Mood
		pc.LastVisitEnthusiasm = enthusiasmFromMood(summary.Mood)
		pc.LastSmallTalkTopic = summary.SmallTalkTopic
		pc.LastVisitInsights = analysis.KeyInsights
		pc.LastVisitSummary = summarizeVisit(summary)
		pc.LastVisitKeyPoint = fmt.Sprintf("mood: %s", summary.Mood)
	}
	return pc, nil
}

// enthusiasmFromMood buckets the prior visit's mood into an engagement level
// used to steer small-talk topic selection.
func enthusiasmFromMood(mood string) string {
	switch strings.ToLower(strings.TrimSpace(mood)) {
	case "cheerful", "happy", "excited":
		return "high"
	case "neutral", "calm":
		return "medium"
	case "":
		return ""
	default:
		return "low"
	}
}

func painAreaFromConditions(conditions []string) string {
	var areas []string
	for _, c := range conditions {
		lc := strings.ToLower(c)
		if strings.Contains(lc, "arthritis") {
			areas = append(areas, "joints")
		}
		if strings.Contains(lc, "diabetes") {
			areas = append(areas, "feet")
		}
	}
	if len(areas) == 0 {
		return "body"
	}
	return strings.Join(areas, ", ")
}

func summarizeVisit(s domain.VisitSummary) string {
	parts := []string{
		fmt.Sprintf("mood=%s", s.Mood),
		fmt.Sprintf("painReport=%d", s.PainReport),
		fmt.Sprintf("medicationsTaken=%t", s.MedicationsTaken),
		fmt.Sprintf("foodIntake=%s", s.FoodIntake),
		fmt.Sprintf("sleepQuality=%s", s.SleepQuality),
		fmt.Sprintf("smallTalkTopic=%s", s.SmallTalkTopic),
	}
	return strings.Join(parts, "; ")
}
