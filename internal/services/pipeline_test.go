package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/k-lohani/ruthieAI/internal/clients/redis"
	"github.com/k-lohani/ruthieAI/internal/clients/vapi"
	"github.com/k-lohani/ruthieAI/internal/domain"
	"github.com/k-lohani/ruthieAI/internal/pkg/clockx"
	"github.com/k-lohani/ruthieAI/internal/platform/logger"
)

type fakeBus struct {
	mu     sync.Mutex
	events []redis.StepEvent
}

func (b *fakeBus) Publish(_ context.Context, ev redis.StepEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
	return nil
}

func (b *fakeBus) Close() error { return nil }

func newTestPipeline(t *testing.T, fv *fakeVapi, visitRepo *fakeVisitRepo, bus redis.EventBus) (*Pipeline, uuid.UUID) {
	t.Helper()
	id := uuid.New()
	log := logger.NewNop()
	clock := clockx.NewFake(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))

	contextSvc := NewPatientContextService(log, &fakePatientRepo{patient: newStoredPatient(id)}, visitRepo, clock)
	controller := NewCallController(log, fv, clock, testPolicy())
	analyzer := NewTranscriptAnalyzer(log, &fakeCompleter{response: `{
		"medicationsTaken": true,
		"painReport": 1,
		"mood": "cheerful",
		"smallTalkTopic": "Gardening",
		"keyInsights": ["Doing well"],
		"conversationContext": {"enthusiasmLevel": "high"}
	}`})
	scorer := NewRiskScorer(log, nil, clock)

	return NewPipeline(log, contextSvc, controller, analyzer, scorer, visitRepo, bus, clock), id
}

func pipelineCallStates() *fakeVapi {
	started := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	ended := started.Add(3 * time.Minute)
	return &fakeVapi{states: []vapi.Call{
		{Status: "in-progress"},
		{Status: "ended", StartedAt: &started, EndedAt: &ended},
		{
			Status:     "ended",
			StartedAt:  &started,
			EndedAt:    &ended,
			Transcript: "AI: Hello\nUser: I took my pills and feel wonderful.",
		},
	}}
}

func TestPipelineRunSuccess(t *testing.T) {
	visitRepo := &fakeVisitRepo{}
	bus := &fakeBus{}
	p, id := newTestPipeline(t, pipelineCallStates(), visitRepo, bus)

	result := p.Run(context.Background(), id, "+15551234567")

	if !result.Success {
		t.Fatalf("Run failed: %s", result.Cause)
	}
	if result.CallID != "call-1" {
		t.Errorf("CallID = %q", result.CallID)
	}
	for _, step := range []string{
		domain.StepPatientContext,
		domain.StepCallPlacement,
		domain.StepCallMonitoring,
		domain.StepAnalysis,
		domain.StepPrediction,
		domain.StepPersistence,
	} {
		sr, ok := result.Steps[step]
		if !ok || !sr.Success {
			t.Errorf("step %s = %+v, want success", step, sr)
		}
	}

	if result.Analysis == nil || result.Analysis.Mood != "cheerful" {
		t.Errorf("Analysis = %+v", result.Analysis)
	}
	if result.Prediction == nil || result.Prediction.RiskLevel != domain.RiskUnknown {
		t.Errorf("Prediction = %+v, want UNKNOWN with no model", result.Prediction)
	}
	if result.VisitID == nil {
		t.Error("VisitID not set")
	}

	if len(visitRepo.inserted) != 1 {
		t.Fatalf("inserted %d visits", len(visitRepo.inserted))
	}
	visit := visitRepo.inserted[0]
	if visit.PatientID != id || visit.CallID != "call-1" {
		t.Errorf("visit = %+v", visit)
	}
	if visit.Summary.Data().Mood != "cheerful" {
		t.Errorf("visit summary mood = %q", visit.Summary.Data().Mood)
	}
	if visit.Caregiver != "Ruthie" {
		t.Errorf("visit caregiver = %q", visit.Caregiver)
	}

	// Every step publishes started and a terminal status.
	if len(bus.events) != 12 {
		t.Errorf("published %d events, want 12", len(bus.events))
	}
}

func TestPipelineRunNoTranscript(t *testing.T) {
	fv := &fakeVapi{states: []vapi.Call{{Status: "failed", EndedReason: "no-answer"}}}
	visitRepo := &fakeVisitRepo{}
	p, id := newTestPipeline(t, fv, visitRepo, nil)

	result := p.Run(context.Background(), id, "+15551234567")

	if result.Success {
		t.Fatal("expected failure when no transcript is available")
	}
	if sr := result.Steps[domain.StepCallMonitoring]; sr.Success {
		t.Errorf("monitoring step = %+v, want failure", sr)
	}
	if result.Cause == "" {
		t.Error("Cause not set")
	}
	if len(visitRepo.inserted) != 0 {
		t.Errorf("no visit should be persisted, got %d", len(visitRepo.inserted))
	}
	if _, ran := result.Steps[domain.StepAnalysis]; ran {
		t.Error("analysis should not run without a transcript")
	}
}

func TestPipelineRunPersistFailure(t *testing.T) {
	visitRepo := &fakeVisitRepo{err: errors.New("connection reset")}
	p, id := newTestPipeline(t, pipelineCallStates(), visitRepo, nil)

	result := p.Run(context.Background(), id, "+15551234567")

	if result.Success {
		t.Fatal("expected failure when persistence fails")
	}
	// The analysis and prediction still happened and are reported.
	if result.Analysis == nil || result.Prediction == nil {
		t.Error("analysis and prediction should survive a persistence failure")
	}
	if sr := result.Steps[domain.StepPersistence]; sr.Success {
		t.Errorf("persistence step = %+v, want failure", sr)
	}
}

func TestPipelineRunPatientNotFound(t *testing.T) {
	log := logger.NewNop()
	clock := clockx.NewFake(time.Now())
	contextSvc := NewPatientContextService(log, &fakePatientRepo{err: errors.New("not found")}, &fakeVisitRepo{}, clock)
	p := NewPipeline(log, contextSvc,
		NewCallController(log, &fakeVapi{}, clock, testPolicy()),
		NewTranscriptAnalyzer(log, nil),
		NewRiskScorer(log, nil, clock),
		&fakeVisitRepo{}, nil, clock)

	result := p.Run(context.Background(), uuid.New(), "+15551234567")
	if result.Success {
		t.Fatal("expected failure")
	}
	if sr := result.Steps[domain.StepPatientContext]; sr.Success {
		t.Errorf("patient context step = %+v, want failure", sr)
	}
	if _, ran := result.Steps[domain.StepCallPlacement]; ran {
		t.Error("call placement should not run without patient context")
	}
}

func TestPipelineRunBatch(t *testing.T) {
	visitRepo := &fakeVisitRepo{}
	p, id := newTestPipeline(t, pipelineCallStates(), visitRepo, nil)

	calls := []PatientCall{
		{PatientID: id, PhoneNumber: "+15551230001"},
		{PatientID: id, PhoneNumber: "+15551230002"},
		{PatientID: id, PhoneNumber: "+15551230003"},
	}
	results := p.RunBatch(context.Background(), calls, 2)

	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	for i, r := range results {
		if r == nil {
			t.Fatalf("result %d is nil", i)
		}
		if r.PhoneNumber != calls[i].PhoneNumber {
			t.Errorf("result %d out of order: %q", i, r.PhoneNumber)
		}
	}
}
