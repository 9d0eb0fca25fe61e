package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/k-lohani/ruthieAI/internal/domain"
	"github.com/k-lohani/ruthieAI/internal/pkg/clockx"
	"github.com/k-lohani/ruthieAI/internal/pkg/errors"
	"github.com/k-lohani/ruthieAI/internal/platform/logger"
)

// newTestPatientContext returns a fully populated snapshot shared across the
// service tests.
func newTestPatientContext() *domain.PatientContext {
	return &domain.PatientContext{
		PatientID:          uuid.New(),
		PatientName:        "Maggie",
		PatientAge:         78,
		PatientGender:      "Female",
		CaregiverName:      "Ruthie",
		Conditions:         []string{"Diabetes", "Arthritis"},
		Medications:        []string{"Metformin at 8:00 AM", "Ibuprofen at 12:00 PM"},
		Interests:          []string{"gardening", "baking"},
		InteractionStyle:   "warm and patient",
		NextMedicationName: "Metformin",
		NextMedicationTime: "8:00 AM",
		PainArea:           "joints, feet",
	}
}

type fakePatientRepo struct {
	patient *domain.Patient
	err     error
}

func (f *fakePatientRepo) GetByID(context.Context, uuid.UUID) (*domain.Patient, error) {
	return f.patient, f.err
}

func (f *fakePatientRepo) Create(context.Context, *domain.Patient) error { return nil }

type fakeVisitRepo struct {
	mu       sync.Mutex
	latest   *domain.Visit
	inserted []*domain.Visit
	err      error
}

func (f *fakeVisitRepo) Insert(_ context.Context, v *domain.Visit) error {
	if f.err != nil {
		return f.err
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	f.mu.Lock()
	f.inserted = append(f.inserted, v)
	f.mu.Unlock()
	return nil
}

func (f *fakeVisitRepo) GetLatestByPatient(context.Context, uuid.UUID) (*domain.Visit, error) {
	return f.latest, nil
}

func (f *fakeVisitRepo) ListByPatient(context.Context, uuid.UUID, int) ([]*domain.Visit, error) {
	return f.inserted, nil
}

func newStoredPatient(id uuid.UUID) *domain.Patient {
	return &domain.Patient{
		ID:            id,
		PreferredName: "Maggie",
		Age:           78,
		Gender:        "Female",
		PhoneNumber:   "+15551234567",
		Caregiver:     datatypes.NewJSONType(domain.Caregiver{Name: "Ruthie"}),
		Conditions: datatypes.NewJSONType([]domain.Condition{
			{
				Name: "Diabetes",
				Medications: []domain.Medication{
					{Name: "Metformin", ReminderTimes: []string{"8:00 AM", "8:00 PM"}},
				},
			},
			{Name: "Arthritis"},
		}),
		Interests:   datatypes.NewJSONType([]string{"gardening", "baking"}),
		Preferences: datatypes.NewJSONType(domain.CarePreference{Tone: "warm and patient"}),
	}
}

func TestPatientContextGetFirstVisit(t *testing.T) {
	id := uuid.New()
	svc := NewPatientContextService(
		logger.NewNop(),
		&fakePatientRepo{patient: newStoredPatient(id)},
		&fakeVisitRepo{},
		clockx.NewFake(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)),
	)

	pc, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if pc.PatientName != "Maggie" || pc.PatientAge != 78 {
		t.Errorf("identity = %q/%d", pc.PatientName, pc.PatientAge)
	}
	if len(pc.Conditions) != 2 || pc.Conditions[0] != "Diabetes" {
		t.Errorf("Conditions = %v", pc.Conditions)
	}
	if len(pc.Medications) != 1 || pc.Medications[0] != "Metformin at 8:00 AM, 8:00 PM" {
		t.Errorf("Medications = %v", pc.Medications)
	}
	if pc.NextMedicationName != "Metformin" || pc.NextMedicationTime != "8:00 AM" {
		t.Errorf("next medication = %q at %q", pc.NextMedicationName, pc.NextMedicationTime)
	}
	if pc.PainArea != "feet, joints" && pc.PainArea != "joints, feet" {
		t.Errorf("PainArea = %q", pc.PainArea)
	}
	if pc.LastVisitMood != "" || pc.LastVisitSummary != "" {
		t.Errorf("first visit should have no prior-visit context, got mood=%q summary=%q",
			pc.LastVisitMood, pc.LastVisitSummary)
	}
}

func TestPatientContextGetWithPriorVisit(t *testing.T) {
	id := uuid.New()
	prior := &domain.Visit{
		ID:        uuid.New(),
		PatientID: id,
		Timestamp: time.Now().Add(-24 * time.Hour),
		Summary: datatypes.NewJSONType(domain.VisitSummary{
			Mood:           "cheerful",
			PainReport:     2,
			SmallTalkTopic: "Gardening",
		}),
		Analysis: datatypes.NewJSONType(domain.VisitAnalysis{
			KeyInsights: []string{"Enjoys talking about her roses"},
		}),
	}
	svc := NewPatientContextService(
		logger.NewNop(),
		&fakePatientRepo{patient: newStoredPatient(id)},
		&fakeVisitRepo{latest: prior},
		clockx.NewFake(time.Now()),
	)

	pc, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if pc.LastVisitMood != "cheerful" {
		t.Errorf("LastVisitMood = %q", pc.LastVisitMood)
	}
	if pc.LastVisitEnthusiasm != "high" {
		t.Errorf("LastVisitEnthusiasm = %q, want high for cheerful mood", pc.LastVisitEnthusiasm)
	}
	if pc.LastSmallTalkTopic != "Gardening" {
		t.Errorf("LastSmallTalkTopic = %q", pc.LastSmallTalkTopic)
	}
	if len(pc.LastVisitInsights) != 1 {
		t.Errorf("LastVisitInsights = %v", pc.LastVisitInsights)
	}
	if pc.LastVisitKeyPoint != "mood: cheerful" {
		t.Errorf("LastVisitKeyPoint = %q", pc.LastVisitKeyPoint)
	}
}

func TestPatientContextGetNotFound(t *testing.T) {
	svc := NewPatientContextService(
		logger.NewNop(),
		&fakePatientRepo{err: errors.ErrNotFound},
		&fakeVisitRepo{},
		clockx.NewFake(time.Now()),
	)
	if _, err := svc.Get(context.Background(), uuid.New()); err == nil {
		t.Fatal("expected error for unknown patient")
	}
}

func TestEnthusiasmFromMood(t *testing.T) {
	cases := []struct{ mood, want string }{
		{"cheerful", "high"},
		{"Happy", "high"},
		{"neutral", "medium"},
		{"calm", "medium"},
		{"tired", "low"},
		{"worried", "low"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := enthusiasmFromMood(tc.mood); got != tc.want {
			t.Errorf("enthusiasmFromMood(%q) = %q, want %q", tc.mood, got, tc.want)
		}
	}
}
