package services

import (
	"context"
	"fmt"
	"time"

	"github.com/k-lohani/ruthieAI/internal/clients/vapi"
	"github.com/k-lohani/ruthieAI/internal/domain"
	"github.com/k-lohani/ruthieAI/internal/pkg/clockx"
	"github.com/k-lohani/ruthieAI/internal/platform/logger"
)

// CallPolicy bounds the monitoring loop. The settle delay exists because the
// provider materializes transcripts some time after a call ends; fetching
// immediately almost always returns an empty transcript.
type CallPolicy struct {
	PollInterval  time.Duration
	MaxWait       time.Duration
	SettleDelay   time.Duration
	FetchAttempts int
	FetchInterval time.Duration
}

func DefaultCallPolicy() CallPolicy {
	return CallPolicy{
		PollInterval:  30 * time.Second,
		MaxWait:       15 * time.Minute,
		SettleDelay:   60 * time.Second,
		FetchAttempts: 5,
		FetchInterval: 30 * time.Second,
	}
}

func (p CallPolicy) normalized() CallPolicy {
	def := DefaultCallPolicy()
	if p.PollInterval <= 0 {
		p.PollInterval = def.PollInterval
	}
	if p.MaxWait <= 0 {
		p.MaxWait = def.MaxWait
	}
	if p.SettleDelay < 0 {
		p.SettleDelay = def.SettleDelay
	}
	if p.FetchAttempts <= 0 {
		p.FetchAttempts = def.FetchAttempts
	}
	if p.FetchInterval <= 0 {
		p.FetchInterval = def.FetchInterval
	}
	return p
}

// CallController owns the telephony leg of a wellness check: create the
// assistant, place the call, poll it to a terminal state, and fetch the
// transcript once the provider has settled it.
type CallController struct {
	log    *logger.Logger
	vapi   vapi.Client
	clock  clockx.Clock
	policy CallPolicy
}

func NewCallController(log *logger.Logger, client vapi.Client, clock clockx.Clock, policy CallPolicy) *CallController {
	if clock == nil {
		clock = clockx.Real()
	}
	return &CallController{
		log:    log.With("service", "call_controller"),
		vapi:   client,
		clock:  clock,
		policy: policy.normalized(),
	}
}

// PlaceCall creates a one-off assistant with the given system prompt and
// dials the patient. The returned Call is in its initial provider state.
func (c *CallController) PlaceCall(ctx context.Context, patientName, phoneNumber, systemPrompt string) (*domain.Call, error) {
	assistantName := fmt.Sprintf("Ruthie - %s", patientName)
	assistant, err := c.vapi.CreateAssistant(ctx, assistantName, systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("create assistant: %w", err)
	}
	c.log.Info("assistant created", "assistant_id", assistant.ID, "patient_name", patientName)

	call, err := c.vapi.CreatePhoneCall(ctx, assistant.ID, phoneNumber, patientName)
	if err != nil {
		return nil, fmt.Errorf("place call: %w", err)
	}
	c.log.Info("call placed", "call_id", call.ID, "status", call.Status)

	return &domain.Call{
		CallID:      call.ID,
		AssistantID: assistant.ID,
		Status:      domain.ParseCallStatus(call.Status),
	}, nil
}

// AwaitTranscript polls the call to a terminal state and then fetches the
// transcript with bounded retries. It returns (nil, nil) when no transcript
// is obtainable without a hard provider failure: the call failed or was
// cancelled, monitoring timed out, or the transcript never materialized.
// The caller decides what a missing transcript means for the visit.
func (c *CallController) AwaitTranscript(ctx context.Context, callID string) (*domain.Transcript, error) {
	final, err := c.monitor(ctx, callID)
	if err != nil {
		return nil, err
	}
	if final == nil {
		c.log.Warn("call did not reach a terminal state before deadline",
			"call_id", callID, "max_wait", c.policy.MaxWait.String())
		return nil, nil
	}

	status := domain.ParseCallStatus(final.Status)
	if status != domain.CallCompleted {
		c.log.Warn("call ended without completing",
			"call_id", callID, "status", status, "ended_reason", final.EndedReason)
		return nil, nil
	}

	if err := c.clock.Sleep(ctx, c.policy.SettleDelay); err != nil {
		return nil, err
	}
	return c.fetchTranscript(ctx, callID)
}

// monitor polls until the call is terminal or MaxWait elapses. A nil call
// with nil error means the deadline passed first.
func (c *CallController) monitor(ctx context.Context, callID string) (*vapi.Call, error) {
	deadline := c.clock.Now().Add(c.policy.MaxWait)

	for {
		call, err := c.vapi.GetCall(ctx, callID)
		if err != nil {
			return nil, fmt.Errorf("poll call %s: %w", callID, err)
		}

		status := domain.ParseCallStatus(call.Status)
		c.log.Info("call status", "call_id", callID, "status", status)
		if status.Terminal() {
			return call, nil
		}

		if !c.clock.Now().Add(c.policy.PollInterval).Before(deadline) {
			return nil, nil
		}
		if err := c.clock.Sleep(ctx, c.policy.PollInterval); err != nil {
			return nil, err
		}
	}
}

// fetchTranscript re-reads the call resource until the transcript text shows
// up, up to FetchAttempts tries. Exhausting the attempts is a soft miss.
func (c *CallController) fetchTranscript(ctx context.Context, callID string) (*domain.Transcript, error) {
	for attempt := 1; attempt <= c.policy.FetchAttempts; attempt++ {
		call, err := c.vapi.GetCall(ctx, callID)
		if err != nil {
			return nil, fmt.Errorf("fetch transcript for call %s: %w", callID, err)
		}

		if call.Transcript != "" {
			messages := make([]domain.TranscriptMessage, 0, len(call.Messages))
			for _, m := range call.Messages {
				messages = append(messages, domain.TranscriptMessage{
					Role:             m.Role,
					Message:          m.Message,
					SecondsFromStart: m.SecondsFromStart,
				})
			}
			c.log.Info("transcript retrieved",
				"call_id", callID, "attempt", attempt, "messages", len(messages))
			return &domain.Transcript{
				CallID:          callID,
				Text:            call.Transcript,
				Messages:        messages,
				DurationSeconds: domain.CallDurationSeconds(call.StartedAt, call.EndedAt),
				EndedReason:     call.EndedReason,
				StartedAt:       call.StartedAt,
				EndedAt:         call.EndedAt,
			}, nil
		}

		if attempt < c.policy.FetchAttempts {
			c.log.Info("transcript not ready yet",
				"call_id", callID, "attempt", attempt, "max_attempts", c.policy.FetchAttempts)
			if err := c.clock.Sleep(ctx, c.policy.FetchInterval); err != nil {
				return nil, err
			}
		}
	}

	c.log.Warn("transcript never materialized",
		"call_id", callID, "attempts", c.policy.FetchAttempts)
	return nil, nil
}
