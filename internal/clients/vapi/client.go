// Package vapi is the HTTP client for the voice-AI telephony provider. It
// covers assistant creation, outbound call placement, and call-resource
// retrieval; the transcript is an optional field on the call resource, not a
// separate endpoint.
package vapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/k-lohani/ruthieAI/internal/pkg/ctxutil"
	"github.com/k-lohani/ruthieAI/internal/pkg/httpx"
	"github.com/k-lohani/ruthieAI/internal/platform/envutil"
	"github.com/k-lohani/ruthieAI/internal/platform/logger"
)

type Client interface {
	CreateAssistant(ctx context.Context, name, systemPrompt string) (*Assistant, error)
	CreatePhoneCall(ctx context.Context, assistantID, phoneNumber, patientName string) (*Call, error)
	GetCall(ctx context.Context, callID string) (*Call, error)
	ListCalls(ctx context.Context, limit int) ([]Call, error)
}

// Assistant payload constants. The voice and greeting are fixed per product
// decision; the per-patient personalization lives in the system prompt.
const (
	assistantModelProvider = "openai"
	assistantModel         = "gpt-4"
	assistantTemperature   = 0.5
	voiceProvider          = "11labs"
	voiceID                = "21m00Tcm4TlvDq8ikWAM"
	firstMessage           = "Hi, I'm Ruthie, your home health caregiver's assistant. I'm just calling to check up on you today."
)

var endCallPhrases = []string{"goodbye", "bye", "end call", "hang up", "terminate"}

type Config struct {
	APIKey        string
	BaseURL       string
	PhoneNumberID string
	Timeout       time.Duration
	MaxRetries    int
}

func ConfigFromEnv() Config {
	return Config{
		APIKey:        strings.TrimSpace(os.Getenv("VAPI_API_KEY")),
		BaseURL:       envutil.String("VAPI_BASE_URL", "https://api.vapi.ai"),
		PhoneNumberID: strings.TrimSpace(os.Getenv("VAPI_PHONE_NUMBER_ID")),
		Timeout:       envutil.DurationSeconds("VAPI_TIMEOUT_SECONDS", 30*time.Second),
		MaxRetries:    envutil.Int("VAPI_MAX_RETRIES", 4),
	}
}

func NewFromEnv(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv())
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("missing VAPI_API_KEY")
	}
	if cfg.PhoneNumberID == "" {
		return nil, fmt.Errorf("missing VAPI_PHONE_NUMBER_ID")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.vapi.ai"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 4
	}
	return &client{
		log:        log.With("client", "VapiClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

// Assistant is the provider's call-agent resource.
type Assistant struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Call is the provider's call resource. Transcript and Messages stay empty
// until the provider materializes them, which happens some time after the
// call ends.
type Call struct {
	ID          string        `json:"id"`
	AssistantID string        `json:"assistantId,omitempty"`
	Status      string        `json:"status"`
	StartedAt   *time.Time    `json:"startedAt,omitempty"`
	EndedAt     *time.Time    `json:"endedAt,omitempty"`
	EndedReason string        `json:"endedReason,omitempty"`
	Transcript  string        `json:"transcript,omitempty"`
	Messages    []CallMessage `json:"messages,omitempty"`
	Summary     string        `json:"summary,omitempty"`
}

type CallMessage struct {
	Role             string  `json:"role"`
	Message          string  `json:"message"`
	SecondsFromStart float64 `json:"secondsFromStart,omitempty"`
}

func (c *client) CreateAssistant(ctx context.Context, name, systemPrompt string) (*Assistant, error) {
	payload := map[string]any{
		"name": name,
		"model": map[string]any{
			"provider":     assistantModelProvider,
			"model":        assistantModel,
			"temperature":  assistantTemperature,
			"systemPrompt": systemPrompt,
		},
		"voice": map[string]any{
			"provider": voiceProvider,
			"voiceId":  voiceID,
		},
		"firstMessage":           firstMessage,
		"recordingEnabled":       true,
		"language":               "en-US",
		"endCallFunctionEnabled": true,
		"endCallPhrases":         endCallPhrases,
	}
	return doJSON[Assistant](c, ctx, "POST", "/assistant", payload)
}

func (c *client) CreatePhoneCall(ctx context.Context, assistantID, phoneNumber, patientName string) (*Call, error) {
	assistantID = strings.TrimSpace(assistantID)
	phoneNumber = strings.TrimSpace(phoneNumber)
	if assistantID == "" {
		return nil, fmt.Errorf("vapi: assistant id required")
	}
	if phoneNumber == "" {
		return nil, fmt.Errorf("vapi: phone number required")
	}

	payload := map[string]any{
		"assistantId":   assistantID,
		"phoneNumberId": c.cfg.PhoneNumberID,
		"customer": map[string]any{
			"number": phoneNumber,
		},
		"metadata": map[string]any{
			"patient_name": patientName,
			"call_type":    "wellness_check",
			"timestamp":    time.Now().UTC().Format(time.RFC3339),
		},
	}
	return doJSON[Call](c, ctx, "POST", "/call/phone", payload)
}

func (c *client) GetCall(ctx context.Context, callID string) (*Call, error) {
	callID = strings.TrimSpace(callID)
	if callID == "" {
		return nil, fmt.Errorf("vapi: call id required")
	}
	return doJSON[Call](c, ctx, "GET", "/call/"+callID, nil)
}

func (c *client) ListCalls(ctx context.Context, limit int) ([]Call, error) {
	if limit <= 0 {
		limit = 10
	}
	out, err := doJSON[[]Call](c, ctx, "GET", fmt.Sprintf("/call?limit=%d", limit), nil)
	if err != nil {
		return nil, err
	}
	return *out, nil
}

// ---------- HTTP / retry plumbing ----------

type apiError struct {
	Message    any    `json:"message"`
	Error      string `json:"error"`
	StatusCode int    `json:"statusCode"`
}

// HTTPError surfaces the provider's status code and raw payload so
// misconfiguration (bad credentials, malformed payloads) is diagnosable from
// the error alone.
type HTTPError struct {
	StatusCode int
	Body       string
	APIError   *apiError
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "vapi: <nil error>"
	}
	if e.APIError != nil {
		msg := strings.TrimSpace(fmt.Sprintf("%v", e.APIError.Message))
		if msg == "" || msg == "<nil>" {
			msg = e.APIError.Error
		}
		if msg != "" {
			return fmt.Sprintf("vapi http %d: %s", e.StatusCode, msg)
		}
	}
	body := strings.TrimSpace(e.Body)
	if body == "" {
		body = "<empty body>"
	}
	if len(body) > 4000 {
		body = body[:4000] + "..."
	}
	return fmt.Sprintf("vapi http %d: %s", e.StatusCode, body)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func doJSON[T any](c *client, ctx context.Context, method, path string, body any) (*T, error) {
	backoff := 1 * time.Second

	for attempt := 0; ; attempt++ {
		if ctx != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}

		out, resp, err := doJSONOnce[T](c, ctx, method, path, body)
		if err == nil {
			return out, nil
		}
		if !httpx.IsRetryableError(err) || attempt == c.cfg.MaxRetries {
			return nil, err
		}

		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
		c.log.Warn("Vapi request retrying",
			"method", method,
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.cfg.MaxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		time.Sleep(sleepFor)
		backoff *= 2
	}
}

func doJSONOnce[T any](c *client, ctx context.Context, method, path string, body any) (*T, *http.Response, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctxutil.Default(ctx), method, c.cfg.BaseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, resp, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, resp, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var ae apiError
		if json.Unmarshal(raw, &ae) == nil && (ae.Message != nil || ae.Error != "") {
			return nil, resp, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw), APIError: &ae}
		}
		return nil, resp, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var out T
	if len(raw) == 0 {
		return &out, resp, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, resp, fmt.Errorf("vapi decode error: %w; raw=%s", err, string(raw))
	}
	return &out, resp, nil
}
