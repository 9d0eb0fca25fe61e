package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/k-lohani/ruthieAI/internal/app"
	"github.com/k-lohani/ruthieAI/internal/services"
)

// rosterEntry is one patient to check in on, as listed in the roster file.
type rosterEntry struct {
	PatientID   string `yaml:"patient_id" json:"patient_id"`
	PhoneNumber string `yaml:"phone_number" json:"phone_number"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "carebatch: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	rosterPath := strings.TrimSpace(os.Getenv("ROSTER_FILE"))
	if rosterPath == "" {
		return fmt.Errorf("ROSTER_FILE is required")
	}
	calls, err := loadRoster(rosterPath)
	if err != nil {
		return err
	}
	if len(calls) == 0 {
		return fmt.Errorf("roster %s lists no patients", rosterPath)
	}

	a, err := app.New()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results := a.Pipeline.RunBatch(ctx, calls, a.Config.Concurrency)

	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	failed := 0
	for _, r := range results {
		if r != nil && !r.Success {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d wellness checks failed", failed, len(results))
	}
	return nil
}

func loadRoster(path string) ([]services.PatientCall, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	var entries []rosterEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse roster %s: %w", path, err)
	}

	calls := make([]services.PatientCall, 0, len(entries))
	for i, e := range entries {
		id, err := uuid.Parse(strings.TrimSpace(e.PatientID))
		if err != nil {
			return nil, fmt.Errorf("roster entry %d: bad patient_id: %w", i, err)
		}
		phone := strings.TrimSpace(e.PhoneNumber)
		if phone == "" {
			return nil, fmt.Errorf("roster entry %d: phone_number is required", i)
		}
		calls = append(calls, services.PatientCall{PatientID: id, PhoneNumber: phone})
	}
	return calls, nil
}
