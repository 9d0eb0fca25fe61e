package domain

import (
	"strings"
	"time"
)

// CallStatus is the normalized lifecycle state of one outbound call. The
// provider is the source of truth; a Call is only ever updated by re-querying
// it, never by transitioning locally.
type CallStatus string

const (
	CallCreated    CallStatus = "CREATED"
	CallInProgress CallStatus = "IN_PROGRESS"
	CallCompleted  CallStatus = "COMPLETED"
	CallFailed     CallStatus = "FAILED"
	CallCancelled  CallStatus = "CANCELLED"
)

// ParseCallStatus maps a provider status string onto the lifecycle enum.
// Anything unrecognized is treated as still in progress; the polling deadline
// bounds how long that interpretation can last.
func ParseCallStatus(s string) CallStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "queued", "created":
		return CallCreated
	case "completed", "ended":
		return CallCompleted
	case "failed":
		return CallFailed
	case "cancelled", "canceled":
		return CallCancelled
	default:
		return CallInProgress
	}
}

// Terminal reports whether no further status change can happen.
func (s CallStatus) Terminal() bool {
	switch s {
	case CallCompleted, CallFailed, CallCancelled:
		return true
	}
	return false
}

// Call is one outbound voice-call attempt tracked by a provider-issued id.
type Call struct {
	CallID      string     `json:"call_id"`
	AssistantID string     `json:"assistant_id"`
	Status      CallStatus `json:"status"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	EndedReason string     `json:"ended_reason,omitempty"`
}

// Transcript is the conversational result of a completed call. A nil
// *Transcript means "not available", which is distinct from a failed call.
type Transcript struct {
	CallID          string              `json:"call_id"`
	Text            string              `json:"transcript"`
	Messages        []TranscriptMessage `json:"messages"`
	DurationSeconds *int                `json:"duration,omitempty"`
	EndedReason     string              `json:"ended_reason,omitempty"`
	StartedAt       *time.Time          `json:"started_at,omitempty"`
	EndedAt         *time.Time          `json:"ended_at,omitempty"`
}

// Duration derives call length from the start/end timestamps. Both must be
// present; otherwise the duration is unknown, not zero.
func CallDurationSeconds(startedAt, endedAt *time.Time) *int {
	if startedAt == nil || endedAt == nil {
		return nil
	}
	secs := int(endedAt.Sub(*startedAt).Seconds())
	return &secs
}

type TranscriptMessage struct {
	Role             string  `json:"role"`
	Message          string  `json:"message"`
	SecondsFromStart float64 `json:"secondsFromStart,omitempty"`
}
