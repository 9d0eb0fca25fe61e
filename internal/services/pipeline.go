package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/k-lohani/ruthieAI/internal/clients/redis"
	"github.com/k-lohani/ruthieAI/internal/data/repos/visits"
	"github.com/k-lohani/ruthieAI/internal/domain"
	"github.com/k-lohani/ruthieAI/internal/pkg/clockx"
	"github.com/k-lohani/ruthieAI/internal/platform/logger"
)

// Pipeline runs one complete wellness check end to end: patient context,
// call placement, monitoring, transcript analysis, risk prediction, and
// visit persistence. Run never returns an error; every outcome, including
// total failure, is a PipelineResult.
type Pipeline struct {
	log        *logger.Logger
	contextSvc *PatientContextService
	calls      *CallController
	analyzer   *TranscriptAnalyzer
	scorer     *RiskScorer
	visits     visits.Repo
	bus        redis.EventBus // optional
	clock      clockx.Clock
}

func NewPipeline(
	log *logger.Logger,
	contextSvc *PatientContextService,
	calls *CallController,
	analyzer *TranscriptAnalyzer,
	scorer *RiskScorer,
	visitRepo visits.Repo,
	bus redis.EventBus,
	clock clockx.Clock,
) *Pipeline {
	if clock == nil {
		clock = clockx.Real()
	}
	return &Pipeline{
		log:        log.With("service", "pipeline"),
		contextSvc: contextSvc,
		calls:      calls,
		analyzer:   analyzer,
		scorer:     scorer,
		visits:     visitRepo,
		bus:        bus,
		clock:      clock,
	}
}

// Run executes the wellness-check pipeline for one patient.
func (p *Pipeline) Run(ctx context.Context, patientID uuid.UUID, phoneNumber string) *domain.PipelineResult {
	result := &domain.PipelineResult{
		PatientID:   patientID,
		PhoneNumber: phoneNumber,
		StartTime:   p.clock.Now().UTC(),
		Steps:       map[string]domain.StepResult{},
	}
	log := p.log.With("patient_id", patientID.String())
	log.Info("pipeline started", "phone_number", phoneNumber)

	defer func() {
		result.EndTime = p.clock.Now().UTC()
		result.Elapsed = result.EndTime.Sub(result.StartTime)
		log.Info("pipeline finished",
			"success", result.Success,
			"elapsed", result.Elapsed.String(),
			"cause", result.Cause,
		)
	}()

	// Step 1: patient context and prompt.
	p.publish(ctx, result, domain.StepPatientContext, "started", "")
	pc, err := p.contextSvc.Get(ctx, patientID)
	if err != nil {
		p.failStep(ctx, result, domain.StepPatientContext, err, "load patient context")
		return result
	}
	prompt, err := p.contextSvc.BuildPrompt(pc)
	if err != nil {
		p.failStep(ctx, result, domain.StepPatientContext, err, "build system prompt")
		return result
	}
	p.passStep(ctx, result, domain.StepPatientContext, map[string]any{
		"patient_name": pc.PatientName,
		"conditions":   len(pc.Conditions),
	})

	// Step 2: place the call.
	p.publish(ctx, result, domain.StepCallPlacement, "started", "")
	call, err := p.calls.PlaceCall(ctx, pc.PatientName, phoneNumber, prompt)
	if err != nil {
		p.failStep(ctx, result, domain.StepCallPlacement, err, "place call")
		return result
	}
	result.CallID = call.CallID
	log = log.With("call_id", call.CallID)
	p.passStep(ctx, result, domain.StepCallPlacement, map[string]any{
		"call_id":      call.CallID,
		"assistant_id": call.AssistantID,
	})

	// Step 3: monitor to completion and fetch the transcript.
	p.publish(ctx, result, domain.StepCallMonitoring, "started", "")
	transcript, err := p.calls.AwaitTranscript(ctx, call.CallID)
	if err != nil {
		p.failStep(ctx, result, domain.StepCallMonitoring, err, "monitor call")
		return result
	}
	if transcript == nil {
		p.failStep(ctx, result, domain.StepCallMonitoring,
			fmt.Errorf("no transcript available for call %s", call.CallID), "obtain transcript")
		return result
	}
	p.passStep(ctx, result, domain.StepCallMonitoring, map[string]any{
		"messages":     len(transcript.Messages),
		"ended_reason": transcript.EndedReason,
	})

	// Step 4: analyze the transcript. Analyze degrades internally to the
	// keyword fallback, so this step cannot fail.
	p.publish(ctx, result, domain.StepAnalysis, "started", "")
	analysis := p.analyzer.Analyze(ctx, transcript.Text, pc)
	result.Analysis = &analysis
	p.passStep(ctx, result, domain.StepAnalysis, map[string]any{
		"mood":            analysis.Mood,
		"pain_report":     analysis.PainReport,
		"needs_follow_up": analysis.Markers.NeedsFollowUp,
	})

	// Step 5: risk prediction. Runs even with no model loaded; the result
	// then carries UNKNOWN risk.
	p.publish(ctx, result, domain.StepPrediction, "started", "")
	prediction := p.scorer.PredictRisk(BuildFeatureVector(pc, analysis))
	result.Prediction = &prediction
	p.passStep(ctx, result, domain.StepPrediction, map[string]any{
		"risk_level": string(prediction.RiskLevel),
	})

	// Step 6: persist the visit.
	p.publish(ctx, result, domain.StepPersistence, "started", "")
	visit := &domain.Visit{
		PatientID:  patientID,
		CallID:     call.CallID,
		Caregiver:  pc.CaregiverName,
		Timestamp:  p.clock.Now().UTC(),
		Transcript: transcript.Text,
		Summary:    datatypes.NewJSONType(domain.SummaryFromAnalysis(analysis)),
		Analysis: datatypes.NewJSONType(domain.VisitAnalysis{
			KeyInsights:         analysis.KeyInsights,
			Recommendations:     analysis.Recommendations,
			RiskFactors:         analysis.RiskFactors,
			ConversationContext: analysis.ConversationContext,
			AnalysisTimestamp:   p.clock.Now().UTC(),
		}),
		Prediction: datatypes.NewJSONType(prediction),
	}
	if err := p.visits.Insert(ctx, visit); err != nil {
		p.failStep(ctx, result, domain.StepPersistence, err, "persist visit")
		return result
	}
	result.VisitID = &visit.ID
	p.passStep(ctx, result, domain.StepPersistence, map[string]any{
		"visit_id": visit.ID.String(),
	})

	result.Success = true
	return result
}

// PatientCall identifies one patient to check in on.
type PatientCall struct {
	PatientID   uuid.UUID
	PhoneNumber string
}

// RunBatch runs the pipeline for several patients with bounded concurrency.
// Individual failures do not stop the batch; every input gets a result, in
// input order.
func (p *Pipeline) RunBatch(ctx context.Context, calls []PatientCall, concurrency int) []*domain.PipelineResult {
	if concurrency <= 0 {
		concurrency = 3
	}
	results := make([]*domain.PipelineResult, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, pc := range calls {
		i, pc := i, pc
		g.Go(func() error {
			results[i] = p.Run(gctx, pc.PatientID, pc.PhoneNumber)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (p *Pipeline) passStep(ctx context.Context, result *domain.PipelineResult, step string, detail map[string]any) {
	result.Steps[step] = domain.StepResult{Success: true, Detail: detail}
	p.publish(ctx, result, step, "succeeded", "")
}

func (p *Pipeline) failStep(ctx context.Context, result *domain.PipelineResult, step string, err error, action string) {
	cause := fmt.Sprintf("%s: %v", action, err)
	result.Steps[step] = domain.StepResult{Success: false, Error: cause}
	result.Cause = cause
	p.log.Error("pipeline step failed",
		"patient_id", result.PatientID.String(),
		"step", step,
		"error", err,
	)
	p.publish(ctx, result, step, "failed", cause)
}

func (p *Pipeline) publish(ctx context.Context, result *domain.PipelineResult, step, status, errMsg string) {
	if p.bus == nil {
		return
	}
	ev := redis.StepEvent{
		PatientID: result.PatientID.String(),
		CallID:    result.CallID,
		Step:      step,
		Status:    status,
		Error:     errMsg,
		At:        p.clock.Now().UTC(),
	}
	if err := p.bus.Publish(ctx, ev); err != nil {
		p.log.Warn("step event publish failed", "step", step, "error", err)
	}
}
