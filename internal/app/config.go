package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/k-lohani/ruthieAI/internal/platform/envutil"
	"github.com/k-lohani/ruthieAI/internal/services"
)

// Config is the worker's runtime configuration. Environment variables set
// the baseline; an optional YAML file named by CARE_CONFIG overrides the
// call-policy knobs for deployments that tune them per environment.
type Config struct {
	Mode          string `yaml:"mode"`           // "prod" or "dev"
	RiskModelPath string `yaml:"risk_model_path"`
	Concurrency   int    `yaml:"concurrency"`

	CallPolicy CallPolicyConfig `yaml:"call_policy"`
}

type CallPolicyConfig struct {
	PollIntervalSeconds  int `yaml:"poll_interval_seconds"`
	MaxWaitSeconds       int `yaml:"max_wait_seconds"`
	SettleDelaySeconds   int `yaml:"settle_delay_seconds"`
	FetchAttempts        int `yaml:"fetch_attempts"`
	FetchIntervalSeconds int `yaml:"fetch_interval_seconds"`
}

// Load builds the configuration from the environment, then applies the YAML
// override file when CARE_CONFIG points at one.
func Load() (Config, error) {
	def := services.DefaultCallPolicy()
	cfg := Config{
		Mode:          envutil.String("APP_MODE", "prod"),
		RiskModelPath: envutil.String("RISK_MODEL_PATH", "models/hospitalization_model.json"),
		Concurrency:   envutil.Int("PIPELINE_CONCURRENCY", 3),
		CallPolicy: CallPolicyConfig{
			PollIntervalSeconds:  int(envutil.DurationSeconds("CALL_POLL_INTERVAL_SECONDS", def.PollInterval) / time.Second),
			MaxWaitSeconds:       int(envutil.DurationSeconds("CALL_MAX_WAIT_SECONDS", def.MaxWait) / time.Second),
			SettleDelaySeconds:   int(envutil.DurationSeconds("TRANSCRIPT_SETTLE_SECONDS", def.SettleDelay) / time.Second),
			FetchAttempts:        envutil.Int("TRANSCRIPT_FETCH_ATTEMPTS", def.FetchAttempts),
			FetchIntervalSeconds: int(envutil.DurationSeconds("TRANSCRIPT_FETCH_INTERVAL_SECONDS", def.FetchInterval) / time.Second),
		},
	}

	path := strings.TrimSpace(os.Getenv("CARE_CONFIG"))
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Policy converts the config knobs into a CallPolicy. Zero values fall back
// to the built-in defaults.
func (c Config) Policy() services.CallPolicy {
	return services.CallPolicy{
		PollInterval:  time.Duration(c.CallPolicy.PollIntervalSeconds) * time.Second,
		MaxWait:       time.Duration(c.CallPolicy.MaxWaitSeconds) * time.Second,
		SettleDelay:   time.Duration(c.CallPolicy.SettleDelaySeconds) * time.Second,
		FetchAttempts: c.CallPolicy.FetchAttempts,
		FetchInterval: time.Duration(c.CallPolicy.FetchIntervalSeconds) * time.Second,
	}
}
